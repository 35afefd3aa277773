package ledger

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"zkpass/internal/domain"
)

type page[T any] struct {
	Data        []T             `json:"data"`
	NextCursor  json.RawMessage `json:"nextCursor"`
	HasNextPage bool            `json:"hasNextPage"`
}

// cursor returns the cursor to pass for the following page, nil when done.
func (p page[T]) cursor() (json.RawMessage, bool) {
	if !p.HasNextPage || len(p.NextCursor) == 0 || string(p.NextCursor) == "null" {
		return nil, false
	}
	return p.NextCursor, true
}

// paginate calls method with params followed by (cursor, limit [, extra...]) until the last page.
func paginate[T any](ctx context.Context, c *Client, method string, params []any, extra ...any) ([]T, error) {
	var (
		out    []T
		cursor any
	)
	for i := 0; i < maxPages; i++ {
		args := append(append([]any{}, params...), cursor, c.pageSize)
		args = append(args, extra...)

		var p page[T]
		if err := c.call(ctx, method, args, &p); err != nil {
			return nil, err
		}
		out = append(out, p.Data...)

		next, ok := p.cursor()
		if !ok {
			return out, nil
		}
		cursor = next
	}
	return nil, errors.Errorf("%s: more than %d pages", method, maxPages)
}

type dynamicField struct {
	ObjectID   string `json:"objectId"`
	ObjectType string `json:"objectType"`
}

// GetDynamicFields lists every dynamic field of parent.
func (c *Client) GetDynamicFields(ctx context.Context, parent domain.ObjectID) ([]domain.DynamicFieldInfo, error) {
	fields, err := paginate[dynamicField](ctx, c, "suix_getDynamicFields", []any{parent.String()})
	if err != nil {
		return nil, err
	}
	out := make([]domain.DynamicFieldInfo, len(fields))
	for i, f := range fields {
		out[i] = domain.DynamicFieldInfo{
			ObjectID:   domain.ObjectID(domain.NormalizeAddress(f.ObjectID)),
			ObjectType: f.ObjectType,
		}
	}
	return out, nil
}
