package interfaces

import (
	"context"

	domaintypes "zkpass/internal/domain/types"
)

// SessionStore durably holds the single zkLogin session record.
type SessionStore interface {
	SaveSession(ctx context.Context, session domaintypes.Session) error
	LoadSession(ctx context.Context) (domaintypes.Session, bool, error)
	DeleteSession(ctx context.Context) error
}
