package interfaces

import (
	"context"

	domaintypes "zkpass/internal/domain/types"
)

// ObjectReader reads objects, dynamic fields and events from the ledger.
type ObjectReader interface {
	GetObject(
		ctx context.Context,
		id domaintypes.ObjectID,
		opts domaintypes.ObjectOptions,
	) (domaintypes.Object, error)
	MultiGetObjects(
		ctx context.Context,
		ids []domaintypes.ObjectID,
		opts domaintypes.ObjectOptions,
	) ([]domaintypes.Object, error)
	GetDynamicFields(ctx context.Context, parent domaintypes.ObjectID) ([]domaintypes.DynamicFieldInfo, error)
	QueryEvents(ctx context.Context, eventType string) ([]domaintypes.Event, error)
}

// TransactionSubmitter executes signed transactions.
type TransactionSubmitter interface {
	ExecuteTransactionBlock(
		ctx context.Context,
		txBytes []byte,
		signatures domaintypes.CompoundSignature,
	) (domaintypes.ExecutionResult, error)
}

// EpochSource reports the current ledger epoch.
type EpochSource interface {
	GetLatestEpoch(ctx context.Context) (uint64, error)
}

// GasSource supplies what is needed to pay for a transaction.
type GasSource interface {
	GetReferenceGasPrice(ctx context.Context) (uint64, error)
	GetCoins(ctx context.Context, owner domaintypes.Address, coinType string) ([]domaintypes.Coin, error)
}

// LedgerClient is the full RPC surface used by the app.
type LedgerClient interface {
	ObjectReader
	TransactionSubmitter
	EpochSource
	GasSource
}

// KindBuilder serializes an intent to transaction-kind bytes, without sender or gas.
type KindBuilder interface {
	BuildKind(ctx context.Context, intent domaintypes.TransactionIntent) ([]byte, error)
}
