package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zkpass/internal/crypto"
	"zkpass/internal/domain"
	"zkpass/internal/services/session"
	"zkpass/internal/util/retry"
)

// memStore hides its record until a number of loads have happened.
type memStore struct {
	mu        sync.Mutex
	session   *domain.Session
	hideLoads int
	loads     int
	loadErr   error
}

func (m *memStore) SaveSession(_ context.Context, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &s
	return nil
}

func (m *memStore) LoadSession(context.Context) (domain.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr != nil {
		return domain.Session{}, false, m.loadErr
	}
	if m.session == nil || m.loads <= m.hideLoads {
		return domain.Session{}, false, nil
	}
	return *m.session, true, nil
}

func (m *memStore) DeleteSession(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

var fast = retry.Policy{MaxAttempts: 5, Delay: time.Millisecond}

func newManager(store *memStore) *session.Manager {
	clock := func() time.Time { return time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC) }
	return session.New(store, session.WithPolicy(fast), session.WithClock(clock))
}

func TestInitThenCurrent(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	m := newManager(store)
	seed, pub, err := crypto.GenerateEphemeral()
	require.NoError(t, err)

	created, err := m.Init(ctx, "h.p.s", seed, 10, "123")
	require.NoError(t, err)

	got, err := m.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, 1, store.loads)

	gotSeed, gotPub, err := session.EphemeralKey(got)
	require.NoError(t, err)
	assert.Equal(t, seed, gotSeed)
	assert.Equal(t, pub, gotPub)
}

func TestCurrent_SucceedsOnFourthPoll(t *testing.T) {
	ctx := context.Background()
	store := &memStore{hideLoads: 3}
	m := newManager(store)
	_, err := m.Init(ctx, "h.p.s", domain.Ed25519Seed{1}, 10, "123")
	require.NoError(t, err)

	_, err = m.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, store.loads)
}

func TestCurrent_GivesUpAfterFiveAttempts(t *testing.T) {
	store := &memStore{}
	m := newManager(store)

	_, err := m.Current(context.Background())
	assert.ErrorIs(t, err, domain.ErrSessionInvalid)
	assert.ErrorIs(t, err, session.ErrNoSession)
	assert.Equal(t, 5, store.loads)
}

func TestCurrent_PendingSessionIsPolled(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	m := newManager(store)
	require.NoError(t, m.Prepare(ctx, domain.Ed25519Seed{1}, 10, "123"))

	_, err := m.Current(ctx)
	assert.ErrorIs(t, err, domain.ErrSessionInvalid)
	assert.Equal(t, 5, store.loads)

	require.NoError(t, m.Attach(ctx, "h.p.s"))
	s, err := m.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.IdentityToken("h.p.s"), s.IdentityToken)
}

func TestCurrent_MalformedFailsWithoutPolling(t *testing.T) {
	store := &memStore{session: &domain.Session{IdentityToken: "h.p.s", EphemeralSecret: "!!", Randomness: "1"}}
	m := newManager(store)

	_, err := m.Current(context.Background())
	assert.ErrorIs(t, err, domain.ErrSessionInvalid)
	assert.NotErrorIs(t, err, session.ErrNoSession)
	assert.Equal(t, 1, store.loads)
}

func TestCurrent_StoreErrorIsSessionInvalid(t *testing.T) {
	store := &memStore{loadErr: errors.New("disk on fire")}
	_, err := newManager(store).Current(context.Background())
	assert.ErrorIs(t, err, domain.ErrSessionInvalid)
}

func TestAttach_RequiresPendingSession(t *testing.T) {
	ctx := context.Background()
	m := newManager(&memStore{})
	assert.ErrorIs(t, m.Attach(ctx, "h.p.s"), domain.ErrSessionInvalid)

	_, err := m.Init(ctx, "h.p.s", domain.Ed25519Seed{1}, 10, "123")
	require.NoError(t, err)
	assert.ErrorIs(t, m.Attach(ctx, "other"), domain.ErrSessionInvalid)
}

func TestUpdateAndTeardown(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	m := newManager(store)

	assert.ErrorIs(t, m.Update(ctx, domain.Session{}, "0x1"), domain.ErrSessionInvalid)

	owner, err := m.Init(ctx, "h.p.s", domain.Ed25519Seed{1}, 10, "123")
	require.NoError(t, err)
	require.NoError(t, m.Update(ctx, owner, "0xAB"))

	s, err := m.Current(ctx)
	require.NoError(t, err)
	addr, ok := s.Address()
	require.True(t, ok)
	assert.Equal(t, domain.NormalizeAddress("0xab"), addr)

	require.NoError(t, m.Teardown(ctx))
	assert.Nil(t, store.session)
}

func TestUpdate_SkipsReplacedSession(t *testing.T) {
	ctx := context.Background()
	m := newManager(&memStore{})

	old, err := m.Init(ctx, "h.p.s", domain.Ed25519Seed{1}, 10, "123")
	require.NoError(t, err)
	_, err = m.Init(ctx, "h2.p2.s2", domain.Ed25519Seed{2}, 11, "456")
	require.NoError(t, err)

	assert.ErrorIs(t, m.Update(ctx, old, "0xAB"), session.ErrSessionReplaced)

	s, err := m.Current(ctx)
	require.NoError(t, err)
	_, ok := s.Address()
	assert.False(t, ok)
	assert.Equal(t, domain.IdentityToken("h2.p2.s2"), s.IdentityToken)
}

func TestInit_RejectsEmptyToken(t *testing.T) {
	_, err := newManager(&memStore{}).Init(context.Background(), "", domain.Ed25519Seed{}, 1, "1")
	assert.ErrorIs(t, err, domain.ErrSessionInvalid)
}

func TestExpired(t *testing.T) {
	s := domain.Session{MaxEpoch: 10}
	assert.False(t, session.Expired(s, 10))
	assert.True(t, session.Expired(s, 11))
}
