package ledger

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"zkpass/internal/domain"
)

// ErrObjectNotFound is returned when the node reports an object as missing or deleted.
var ErrObjectNotFound = errors.New("object not found")

type objectResponse struct {
	Data  *objectData      `json:"data"`
	Error *objectRespError `json:"error"`
}

type objectRespError struct {
	Code     string `json:"code"`
	ObjectID string `json:"object_id"`
}

type objectData struct {
	ObjectID string          `json:"objectId"`
	Version  bigUint         `json:"version"`
	Digest   string          `json:"digest"`
	Type     string          `json:"type"`
	Owner    json.RawMessage `json:"owner"`
	Content  *struct {
		DataType string                     `json:"dataType"`
		Type     string                     `json:"type"`
		Fields   map[string]json.RawMessage `json:"fields"`
	} `json:"content"`
	Display *struct {
		Data map[string]json.RawMessage `json:"data"`
	} `json:"display"`
}

// GetObject reads one object.
func (c *Client) GetObject(ctx context.Context, id domain.ObjectID, opts domain.ObjectOptions) (domain.Object, error) {
	var resp objectResponse
	if err := c.call(ctx, "sui_getObject", []any{id.String(), opts}, &resp); err != nil {
		return domain.Object{}, err
	}
	return resp.toDomain(id)
}

// MultiGetObjects reads several objects. Missing objects are skipped; the
// result keeps the order of ids otherwise.
func (c *Client) MultiGetObjects(
	ctx context.Context,
	ids []domain.ObjectID,
	opts domain.ObjectOptions,
) ([]domain.Object, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	var resp []objectResponse
	if err := c.call(ctx, "sui_multiGetObjects", []any{raw, opts}, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.Object, 0, len(resp))
	for i, r := range resp {
		var want domain.ObjectID
		if i < len(ids) {
			want = ids[i]
		}
		o, err := r.toDomain(want)
		if errors.Is(err, ErrObjectNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (r objectResponse) toDomain(id domain.ObjectID) (domain.Object, error) {
	if r.Data == nil {
		code := "missing data"
		if r.Error != nil {
			code = r.Error.Code
		}
		return domain.Object{}, errors.Wrapf(ErrObjectNotFound, "%s: %s", id, code)
	}
	d := r.Data
	o := domain.Object{
		ObjectRef: domain.ObjectRef{
			ObjectID: domain.ObjectID(domain.NormalizeAddress(d.ObjectID)),
			Version:  uint64(d.Version),
			Digest:   domain.Digest(d.Digest),
		},
		Type: d.Type,
	}
	if len(d.Owner) > 0 {
		owner, err := ParseOwner(d.Owner)
		if err != nil {
			return domain.Object{}, errors.Wrapf(err, "object %s", d.ObjectID)
		}
		o.Owner = owner
	}
	if d.Content != nil {
		o.Fields = d.Content.Fields
		if o.Type == "" {
			o.Type = d.Content.Type
		}
	}
	if d.Display != nil {
		o.Display = d.Display.Data
	}
	return o, nil
}

// ParseOwner decodes the owner forms the node emits:
// {"AddressOwner": a}, {"ObjectOwner": a}, {"Shared": {"initial_shared_version": n}} and "Immutable".
func ParseOwner(raw json.RawMessage) (domain.ObjectOwner, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "Immutable" {
			return domain.ObjectOwner{Kind: domain.OwnerImmutable}, nil
		}
		return domain.ObjectOwner{}, errors.Errorf("unknown owner %q", s)
	}

	var o struct {
		AddressOwner *string `json:"AddressOwner"`
		ObjectOwner  *string `json:"ObjectOwner"`
		Shared       *struct {
			InitialSharedVersion bigUint `json:"initial_shared_version"`
		} `json:"Shared"`
	}
	if err := json.Unmarshal(raw, &o); err != nil {
		return domain.ObjectOwner{}, errors.Wrap(err, "decode owner")
	}
	switch {
	case o.AddressOwner != nil:
		return domain.ObjectOwner{Kind: domain.OwnerAddress, Address: domain.NormalizeAddress(*o.AddressOwner)}, nil
	case o.ObjectOwner != nil:
		return domain.ObjectOwner{Kind: domain.OwnerObject, Address: domain.NormalizeAddress(*o.ObjectOwner)}, nil
	case o.Shared != nil:
		return domain.ObjectOwner{Kind: domain.OwnerShared, InitialSharedVersion: uint64(o.Shared.InitialSharedVersion)}, nil
	default:
		return domain.ObjectOwner{}, errors.Errorf("unknown owner %s", raw)
	}
}
