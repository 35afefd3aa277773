package wallet

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"zkpass/internal/crypto"
	"zkpass/internal/domain"
	"zkpass/internal/protocol/txn"
)

// DefaultGasBudget is the budget used when none is configured.
const DefaultGasBudget = 50_000_000

// Ledger is what the wallet needs from the network.
type Ledger interface {
	domain.GasSource
	domain.TransactionSubmitter
}

// Wallet signs with one keystore key and pays its own gas.
type Wallet struct {
	seed    domain.Ed25519Seed
	address domain.Address
	builder domain.KindBuilder
	ledger  Ledger
	budget  uint64
}

// New returns a wallet for seed.
func New(seed domain.Ed25519Seed, builder domain.KindBuilder, ledger Ledger, budget uint64) *Wallet {
	if budget == 0 {
		budget = DefaultGasBudget
	}
	return &Wallet{
		seed:    seed,
		address: crypto.AddressFromPublicKey(crypto.PublicFromSeed(seed)),
		builder: builder,
		ledger:  ledger,
		budget:  budget,
	}
}

// Address returns the wallet's account address.
func (w *Wallet) Address() domain.Address { return w.address }

// SignAndExecute builds the intent from the wallet's own address, pays gas
// from its own coins, signs and submits. Every failure is domain.ErrWallet.
func (w *Wallet) SignAndExecute(ctx context.Context, intent domain.TransactionIntent) (domain.ExecutionResult, error) {
	intent = intent.WithSender(w.address)

	kind, err := w.builder.BuildKind(ctx, intent)
	if err != nil {
		return domain.ExecutionResult{}, walletError("build transaction", err)
	}
	gas, err := txn.PlanGas(ctx, w.ledger, w.address, w.budget)
	if err != nil {
		return domain.ExecutionResult{}, walletError("plan gas", err)
	}
	data, err := txn.BuildTransactionData(kind, w.address, gas)
	if err != nil {
		return domain.ExecutionResult{}, walletError("build transaction data", err)
	}

	sig := crypto.SignAndSerialize(w.seed, data)
	res, err := w.ledger.ExecuteTransactionBlock(ctx, data, domain.CompoundSignature{sig})
	if err != nil {
		return domain.ExecutionResult{}, walletError("submit", err)
	}
	if !res.Succeeded() {
		return res, walletError("execute", fmt.Errorf("status %q: %s", res.Status, res.StatusError))
	}
	log.Info().Str("digest", res.Digest.String()).Str("sender", w.address.String()).Msg("wallet transaction executed")
	return res, nil
}

func walletError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrWallet, op, err)
}

var _ domain.WalletAdapter = (*Wallet)(nil)
