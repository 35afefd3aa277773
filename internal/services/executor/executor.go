package executor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"zkpass/internal/domain"
	"zkpass/internal/metrics"
)

// DefaultCallTimeout bounds each outbound call of an attempt.
const DefaultCallTimeout = 30 * time.Second

// Config tunes the executor.
type Config struct {
	Network     domain.Network
	CallTimeout time.Duration
}

// Deps are the collaborators of the executor. Sessions and Metrics may be nil.
type Deps struct {
	Sessions  domain.SessionManager
	Proofs    domain.ProofClient
	Sponsor   domain.SponsorClient
	Builder   domain.KindBuilder
	Submitter domain.TransactionSubmitter
	Metrics   *metrics.Metrics
}

// Executor starts transaction attempts and keeps at most one in flight per
// ephemeral key or wallet address.
type Executor struct {
	deps Deps
	cfg  Config

	mu       sync.Mutex
	inFlight map[string]string
}

// New returns an Executor.
func New(deps Deps, cfg Config) *Executor {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	return &Executor{deps: deps, cfg: cfg, inFlight: map[string]string{}}
}

// NewAttempt returns a fresh Idle attempt for auth.
func (e *Executor) NewAttempt(auth domain.AuthSession) *Attempt {
	return &Attempt{
		ID:      uuid.NewString(),
		exec:    e,
		auth:    auth,
		state:   Idle,
		history: []State{Idle},
	}
}

// Execute runs intent in a new attempt and returns the attempt alongside the result.
func (e *Executor) Execute(
	ctx context.Context,
	auth domain.AuthSession,
	intent domain.TransactionIntent,
) (domain.ExecutionResult, *Attempt, error) {
	a := e.NewAttempt(auth)
	res, err := a.Run(ctx, intent)
	return res, a, err
}

// acquire claims key for attempt id. It fails when another attempt holds it.
func (e *Executor) acquire(key, id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if holder, busy := e.inFlight[key]; busy {
		log.Warn().Str("attempt", id).Str("holder", holder).Msg("attempt already in flight for this key")
		return false
	}
	e.inFlight[key] = id
	return true
}

func (e *Executor) release(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, key)
}

// call runs fn under the per-call timeout and records the stage duration.
func (e *Executor) call(ctx context.Context, stage domain.Stage, fn func(ctx context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
	defer cancel()
	start := time.Now()
	err := fn(cctx)
	e.deps.Metrics.ObserveStage(string(stage), time.Since(start))
	return err
}
