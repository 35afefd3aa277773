package interfaces

import (
	"context"

	domaintypes "zkpass/internal/domain/types"
)

// WalletAdapter is a wallet able to sign and submit a transaction on its own.
type WalletAdapter interface {
	Address() domaintypes.Address
	SignAndExecute(
		ctx context.Context,
		intent domaintypes.TransactionIntent,
	) (domaintypes.ExecutionResult, error)
}

// AuthSession is either ZkLoginAuth or WalletAuth.
type AuthSession interface {
	authSession()
}

// ZkLoginAuth authenticates through a stored zkLogin session.
type ZkLoginAuth struct {
	Session domaintypes.Session
}

// WalletAuth authenticates through a connected wallet.
type WalletAuth struct {
	Wallet WalletAdapter
}

func (ZkLoginAuth) authSession() {}
func (WalletAuth) authSession()  {}
