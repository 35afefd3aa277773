package ledger

import (
	"context"

	"github.com/pkg/errors"

	"zkpass/internal/crypto"
	"zkpass/internal/domain"
)

// RequestType selects how long the node waits before answering an execute call.
const RequestType = "WaitForLocalExecution"

type executeResponse struct {
	Digest  string `json:"digest"`
	Effects *struct {
		Status struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"status"`
	} `json:"effects"`
}

// ExecuteTransactionBlock submits txBytes with signatures in verification order.
func (c *Client) ExecuteTransactionBlock(
	ctx context.Context,
	txBytes []byte,
	signatures domain.CompoundSignature,
) (domain.ExecutionResult, error) {
	if len(signatures) == 0 {
		return domain.ExecutionResult{}, errors.New("no signatures")
	}
	params := []any{
		crypto.B64(txBytes),
		[]string(signatures),
		map[string]bool{"showEffects": true},
		RequestType,
	}
	var resp executeResponse
	if err := c.call(ctx, "sui_executeTransactionBlock", params, &resp); err != nil {
		return domain.ExecutionResult{}, err
	}
	if resp.Digest == "" {
		return domain.ExecutionResult{}, errors.New("execute response has no digest")
	}
	res := domain.ExecutionResult{Digest: domain.Digest(resp.Digest), Signatures: signatures}
	if resp.Effects != nil {
		res.Status = resp.Effects.Status.Status
		res.StatusError = resp.Effects.Status.Error
	}
	return res, nil
}

var _ domain.LedgerClient = (*Client)(nil)
