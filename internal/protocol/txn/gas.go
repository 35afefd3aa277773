package txn

import (
	"context"

	"github.com/pkg/errors"

	"zkpass/internal/domain"
)

// SuiCoinType is the native gas coin type.
const SuiCoinType = "0x2::sui::SUI"

// maxGasCoins bounds the number of coins merged into one gas payment.
const maxGasCoins = 256

// ErrInsufficientGas is returned when an owner's coins cannot cover the budget.
var ErrInsufficientGas = errors.New("insufficient gas coins")

// PlanGas picks coins owned by owner covering budget at the reference gas price.
func PlanGas(ctx context.Context, src domain.GasSource, owner domain.Address, budget uint64) (domain.GasData, error) {
	return PlanGasExcept(ctx, src, owner, budget, nil)
}

// PlanGasExcept is PlanGas ignoring every coin for which skip reports true.
func PlanGasExcept(
	ctx context.Context,
	src domain.GasSource,
	owner domain.Address,
	budget uint64,
	skip func(domain.ObjectID) bool,
) (domain.GasData, error) {
	price, err := src.GetReferenceGasPrice(ctx)
	if err != nil {
		return domain.GasData{}, errors.Wrap(err, "reference gas price")
	}
	coins, err := src.GetCoins(ctx, owner, SuiCoinType)
	if err != nil {
		return domain.GasData{}, errors.Wrap(err, "gas coins")
	}

	gas := domain.GasData{Owner: owner, Price: price, Budget: budget}
	var total uint64
	for _, c := range coins {
		if total >= budget || len(gas.Payment) == maxGasCoins {
			break
		}
		if skip != nil && skip(c.ObjectID) {
			continue
		}
		gas.Payment = append(gas.Payment, c.ObjectRef)
		total += c.Balance
	}
	if total < budget || len(gas.Payment) == 0 {
		return domain.GasData{}, errors.Wrapf(ErrInsufficientGas, "owner %s has %d, budget %d", owner, total, budget)
	}
	return gas, nil
}
