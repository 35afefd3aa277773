package interfaces

import (
	"context"

	domaintypes "zkpass/internal/domain/types"
)

// SessionManager owns the session lifecycle. It is the only writer of the session.
type SessionManager interface {
	Prepare(ctx context.Context, secret domaintypes.Ed25519Seed, maxEpoch uint64, randomness string) error
	Init(
		ctx context.Context,
		token domaintypes.IdentityToken,
		secret domaintypes.Ed25519Seed,
		maxEpoch uint64,
		randomness string,
	) (domaintypes.Session, error)
	Attach(ctx context.Context, token domaintypes.IdentityToken) error
	Current(ctx context.Context) (domaintypes.Session, error)
	Update(ctx context.Context, owner domaintypes.Session, address domaintypes.Address) error
	Teardown(ctx context.Context) error
}
