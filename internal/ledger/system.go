package ledger

import (
	"context"

	"zkpass/internal/domain"
)

// GetLatestEpoch returns the current epoch.
func (c *Client) GetLatestEpoch(ctx context.Context) (uint64, error) {
	var state struct {
		Epoch bigUint `json:"epoch"`
	}
	if err := c.call(ctx, "suix_getLatestSuiSystemState", nil, &state); err != nil {
		return 0, err
	}
	return uint64(state.Epoch), nil
}

// GetReferenceGasPrice returns the reference gas price of the current epoch.
func (c *Client) GetReferenceGasPrice(ctx context.Context) (uint64, error) {
	var price bigUint
	if err := c.call(ctx, "suix_getReferenceGasPrice", nil, &price); err != nil {
		return 0, err
	}
	return uint64(price), nil
}

type coinJSON struct {
	CoinType     string  `json:"coinType"`
	CoinObjectID string  `json:"coinObjectId"`
	Version      bigUint `json:"version"`
	Digest       string  `json:"digest"`
	Balance      bigUint `json:"balance"`
}

// GetCoins lists every coin of coinType owned by owner.
func (c *Client) GetCoins(ctx context.Context, owner domain.Address, coinType string) ([]domain.Coin, error) {
	coins, err := paginate[coinJSON](ctx, c, "suix_getCoins", []any{owner.String(), coinType})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Coin, len(coins))
	for i, k := range coins {
		out[i] = domain.Coin{
			ObjectRef: domain.ObjectRef{
				ObjectID: domain.ObjectID(domain.NormalizeAddress(k.CoinObjectID)),
				Version:  uint64(k.Version),
				Digest:   domain.Digest(k.Digest),
			},
			CoinType: k.CoinType,
			Balance:  uint64(k.Balance),
		}
	}
	return out, nil
}
