package ledger

import (
	"context"
	"encoding/json"

	"zkpass/internal/domain"
)

type eventJSON struct {
	ID struct {
		TxDigest string `json:"txDigest"`
	} `json:"id"`
	Type        string          `json:"type"`
	Sender      string          `json:"sender"`
	ParsedJSON  json.RawMessage `json:"parsedJson"`
	TimestampMs bigUint         `json:"timestampMs"`
}

// QueryEvents lists every event of the Move event type, oldest first.
func (c *Client) QueryEvents(ctx context.Context, eventType string) ([]domain.Event, error) {
	filter := map[string]string{"MoveEventType": eventType}
	events, err := paginate[eventJSON](ctx, c, "suix_queryEvents", []any{filter}, false)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Event, len(events))
	for i, e := range events {
		out[i] = domain.Event{
			TxDigest:    domain.Digest(e.ID.TxDigest),
			Type:        e.Type,
			Sender:      domain.NormalizeAddress(e.Sender),
			ParsedJSON:  e.ParsedJSON,
			TimestampMs: uint64(e.TimestampMs),
		}
	}
	return out, nil
}
