package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"zkpass/internal/crypto"
	"zkpass/internal/domain"
	"zkpass/internal/util/retry"
)

// ErrNoSession marks a Current failure caused by absence rather than a
// malformed record. It always comes wrapped with domain.ErrSessionInvalid.
var ErrNoSession = errors.New("no session")

// ErrSessionReplaced is returned by Update when the stored session is no
// longer the one the address was derived for.
var ErrSessionReplaced = errors.New("session was replaced")

// Manager implements domain.SessionManager on top of a SessionStore.
type Manager struct {
	store  domain.SessionStore
	policy retry.Policy
	now    func() time.Time

	// mu serializes writers within the process.
	mu sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithPolicy overrides the polling policy used by Current.
func WithPolicy(p retry.Policy) Option { return func(m *Manager) { m.policy = p } }

// WithClock overrides the clock used to stamp new sessions.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// New returns a Manager persisting to store.
func New(store domain.SessionStore, opts ...Option) *Manager {
	m := &Manager{store: store, policy: retry.DefaultPolicy, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Prepare stores a pending session: key material and nonce inputs without a token yet.
// Any previous session is replaced.
func (m *Manager) Prepare(ctx context.Context, secret domain.Ed25519Seed, maxEpoch uint64, randomness string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if randomness == "" {
		return errors.New("randomness is empty")
	}
	s := domain.Session{
		EphemeralSecret: crypto.EncodeSecret(secret),
		MaxEpoch:        maxEpoch,
		Randomness:      randomness,
		CreatedAt:       m.now().UTC(),
	}
	if err := m.store.SaveSession(ctx, s); err != nil {
		return errors.Wrap(err, "save pending session")
	}
	log.Info().
		Str("ephemeral_key", crypto.Fingerprint(crypto.PublicFromSeed(secret)).String()).
		Uint64("max_epoch", maxEpoch).
		Msg("pending session prepared")
	return nil
}

// Init creates a complete session in one step, replacing any previous one.
func (m *Manager) Init(
	ctx context.Context,
	token domain.IdentityToken,
	secret domain.Ed25519Seed,
	maxEpoch uint64,
	randomness string,
) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token == "" {
		return domain.Session{}, errors.Wrap(domain.ErrSessionInvalid, "identity token is empty")
	}
	if randomness == "" {
		return domain.Session{}, errors.Wrap(domain.ErrSessionInvalid, "randomness is empty")
	}
	s := domain.Session{
		IdentityToken:   token,
		EphemeralSecret: crypto.EncodeSecret(secret),
		MaxEpoch:        maxEpoch,
		Randomness:      randomness,
		CreatedAt:       m.now().UTC(),
	}
	if err := m.store.SaveSession(ctx, s); err != nil {
		return domain.Session{}, errors.Wrap(err, "save session")
	}
	log.Info().
		Str("ephemeral_key", crypto.Fingerprint(crypto.PublicFromSeed(secret)).String()).
		Uint64("max_epoch", maxEpoch).
		Msg("session created")
	return s, nil
}

// Attach completes the pending session with the identity token from the OAuth callback.
func (m *Manager) Attach(ctx context.Context, token domain.IdentityToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token == "" {
		return errors.Wrap(domain.ErrSessionInvalid, "identity token is empty")
	}
	s, found, err := m.store.LoadSession(ctx)
	if err != nil {
		return errors.Wrapf(domain.ErrSessionInvalid, "load session: %v", err)
	}
	if !found || !s.Pending() {
		return errors.Wrap(domain.ErrSessionInvalid, "no pending login to complete")
	}
	s.IdentityToken = token
	if err := m.store.SaveSession(ctx, s); err != nil {
		return errors.Wrap(err, "save session")
	}
	log.Info().Uint64("max_epoch", s.MaxEpoch).Msg("identity token attached to session")
	return nil
}

// Current returns the complete session, polling the store while it is absent
// or still pending. A session that is present but malformed fails immediately.
func (m *Manager) Current(ctx context.Context) (domain.Session, error) {
	s, err := retry.Poll(ctx, "session.current", m.policy,
		func(ctx context.Context, _ int) (domain.Session, bool, error) {
			s, found, err := m.store.LoadSession(ctx)
			if err != nil {
				return s, false, errors.Wrapf(domain.ErrSessionInvalid, "load session: %v", err)
			}
			if !found || s.Pending() {
				return s, false, nil
			}
			if err := Validate(s); err != nil {
				return s, false, err
			}
			return s, true, nil
		})
	if errors.Is(err, retry.ErrExhausted) {
		return domain.Session{}, fmt.Errorf("%w: %w after %d attempts",
			domain.ErrSessionInvalid, ErrNoSession, m.policy.MaxAttempts)
	}
	return s, err
}

// Update records the derived address on owner, the session it was derived
// for. If the store now holds a different session, nothing is written and
// ErrSessionReplaced is returned.
func (m *Manager) Update(ctx context.Context, owner domain.Session, address domain.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, found, err := m.store.LoadSession(ctx)
	if err != nil {
		return errors.Wrapf(domain.ErrSessionInvalid, "load session: %v", err)
	}
	if !found {
		return errors.Wrap(domain.ErrSessionInvalid, "no session to update")
	}
	if !sameSession(s, owner) {
		return ErrSessionReplaced
	}
	addr := domain.NormalizeAddress(address.String())
	s.DerivedAddress = &addr
	if err := m.store.SaveSession(ctx, s); err != nil {
		return errors.Wrap(err, "save session")
	}
	log.Info().Str("address", addr.String()).Msg("session address recorded")
	return nil
}

// sameSession matches sessions on their key material and token.
func sameSession(a, b domain.Session) bool {
	return a.EphemeralSecret == b.EphemeralSecret && a.IdentityToken == b.IdentityToken
}

// Teardown removes the session.
func (m *Manager) Teardown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.DeleteSession(ctx); err != nil {
		return errors.Wrap(err, "delete session")
	}
	log.Info().Msg("session cleared")
	return nil
}

// Validate checks that a session carries a token and decodable key material.
func Validate(s domain.Session) error {
	if s.IdentityToken == "" {
		return errors.Wrap(domain.ErrSessionInvalid, "session has no identity token")
	}
	if s.EphemeralSecret == "" {
		return errors.Wrap(domain.ErrSessionInvalid, "session has no ephemeral key")
	}
	if s.Randomness == "" {
		return errors.Wrap(domain.ErrSessionInvalid, "session has no randomness")
	}
	if _, err := crypto.DecodeSecret(s.EphemeralSecret); err != nil {
		return errors.Wrapf(domain.ErrSessionInvalid, "%v", err)
	}
	return nil
}

// EphemeralKey reconstructs the session's ephemeral keypair.
func EphemeralKey(s domain.Session) (domain.Ed25519Seed, domain.Ed25519Public, error) {
	seed, err := crypto.DecodeSecret(s.EphemeralSecret)
	if err != nil {
		return seed, domain.Ed25519Public{}, errors.Wrapf(domain.ErrSessionInvalid, "%v", err)
	}
	return seed, crypto.PublicFromSeed(seed), nil
}

// Expired reports whether the session's key is no longer valid at epoch.
func Expired(s domain.Session, epoch uint64) bool { return epoch > s.MaxEpoch }

var _ domain.SessionManager = (*Manager)(nil)
