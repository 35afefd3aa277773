package executor_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zkpass/internal/crypto"
	"zkpass/internal/domain"
	"zkpass/internal/protocol/txn"
	"zkpass/internal/protocol/zklogin"
	"zkpass/internal/services/executor"
	"zkpass/internal/services/session"
	"zkpass/internal/store"
)

const issuer = "https://accounts.example.com"

func makeToken(t *testing.T) domain.IdentityToken {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	body, err := json.Marshal(map[string]any{"iss": issuer, "sub": "user-1", "aud": "client"})
	require.NoError(t, err)
	return domain.IdentityToken(header + "." + base64.RawURLEncoding.EncodeToString(body) + ".c2ln")
}

func artifacts() domain.ProofArtifacts {
	return domain.ProofArtifacts{
		ProofPoints: domain.ProofPoints{
			A: []string{"1", "2", "1"},
			B: [][]string{{"3", "4"}, {"5", "6"}, {"1", "0"}},
			C: []string{"7", "8", "1"},
		},
		IssBase64Details: domain.IssBase64Details{Value: "yJpc3MiOiJodHRwczovL2FjY291bnRzLmV4YW1wbGUuY29tIiw", IndexMod4: 1},
		HeaderBase64:     "eyJhbGciOiJSUzI1NiJ9",
		AddressSeed:      "12345",
	}
}

func derived(t *testing.T) domain.Address {
	t.Helper()
	addr, err := zklogin.ResolveAddress(big.NewInt(12345), issuer)
	require.NoError(t, err)
	return addr
}

// recorder collects the order in which collaborators are called.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type fakeProofs struct {
	rec   *recorder
	got   domain.ProofRequest
	out   domain.ProofArtifacts
	err   error
	block bool
}

func (f *fakeProofs) RequestProof(ctx context.Context, req domain.ProofRequest) (domain.ProofArtifacts, error) {
	f.rec.add("proof")
	f.got = req
	if f.block {
		<-ctx.Done()
		return domain.ProofArtifacts{}, ctx.Err()
	}
	return f.out, f.err
}

type fakeBuilder struct {
	rec *recorder
	got domain.TransactionIntent
	err error
}

func (f *fakeBuilder) BuildKind(_ context.Context, intent domain.TransactionIntent) ([]byte, error) {
	f.rec.add("build")
	f.got = intent
	return []byte{0, 1, 2, 3}, f.err
}

type fakeSponsor struct {
	rec     *recorder
	seed    domain.Ed25519Seed
	sender  domain.Address
	err     error
	tamper  bool
	gotKind []byte
}

func (f *fakeSponsor) RequestSponsorship(
	_ context.Context,
	kind []byte,
	sender domain.Address,
) (domain.SponsoredTransaction, error) {
	f.rec.add("sponsor")
	f.sender, f.gotKind = sender, kind
	if f.err != nil {
		return domain.SponsoredTransaction{}, f.err
	}
	owner := crypto.AddressFromPublicKey(crypto.PublicFromSeed(f.seed))
	gas := domain.GasData{
		Payment: []domain.ObjectRef{{
			ObjectID: domain.ObjectID(domain.NormalizeAddress("0x99")),
			Version:  4,
			Digest:   txn.EncodeDigest(make([]byte, 32)),
		}},
		Owner:  owner,
		Price:  1000,
		Budget: 5_000_000,
	}
	if f.tamper {
		sender = owner
	}
	tx, err := txn.BuildTransactionData(kind, sender, gas)
	if err != nil {
		return domain.SponsoredTransaction{}, err
	}
	return domain.SponsoredTransaction{Bytes: tx, Signature: crypto.SignAndSerialize(f.seed, tx)}, nil
}

type fakeSubmitter struct {
	rec    *recorder
	tx     []byte
	sigs   domain.CompoundSignature
	result domain.ExecutionResult
	err    error
}

func (f *fakeSubmitter) ExecuteTransactionBlock(
	_ context.Context,
	tx []byte,
	sigs domain.CompoundSignature,
) (domain.ExecutionResult, error) {
	f.rec.add("execute")
	f.tx, f.sigs = tx, sigs
	return f.result, f.err
}

type fakeSessions struct {
	domain.SessionManager
	owner   domain.Session
	updated domain.Address
}

func (f *fakeSessions) Update(_ context.Context, owner domain.Session, a domain.Address) error {
	f.owner, f.updated = owner, a
	return nil
}

type fakeWallet struct {
	rec  *recorder
	addr domain.Address
	got  domain.TransactionIntent
	err  error
}

func (f *fakeWallet) Address() domain.Address { return f.addr }

func (f *fakeWallet) SignAndExecute(_ context.Context, intent domain.TransactionIntent) (domain.ExecutionResult, error) {
	f.rec.add("wallet")
	f.got = intent
	if f.err != nil {
		return domain.ExecutionResult{}, f.err
	}
	return domain.ExecutionResult{Digest: "W", Status: "success"}, nil
}

type harness struct {
	rec       *recorder
	proofs    *fakeProofs
	builder   *fakeBuilder
	sponsor   *fakeSponsor
	submitter *fakeSubmitter
	sessions  *fakeSessions
	exec      *executor.Executor
	seed      domain.Ed25519Seed
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	rec := &recorder{}
	h := &harness{
		rec:       rec,
		proofs:    &fakeProofs{rec: rec, out: artifacts()},
		builder:   &fakeBuilder{rec: rec},
		sponsor:   &fakeSponsor{rec: rec, seed: domain.Ed25519Seed{9}},
		submitter: &fakeSubmitter{rec: rec, result: domain.ExecutionResult{Digest: "DIGEST", Status: "success"}},
		sessions:  &fakeSessions{},
		seed:      domain.Ed25519Seed{7},
	}
	h.exec = executor.New(executor.Deps{
		Sessions:  h.sessions,
		Proofs:    h.proofs,
		Sponsor:   h.sponsor,
		Builder:   h.builder,
		Submitter: h.submitter,
	}, executor.Config{Network: "testnet", CallTimeout: time.Second})
	return h
}

func (h *harness) zkAuth(t *testing.T) domain.ZkLoginAuth {
	return domain.ZkLoginAuth{Session: domain.Session{
		IdentityToken:   makeToken(t),
		EphemeralSecret: crypto.EncodeSecret(h.seed),
		MaxEpoch:        12,
		Randomness:      "42",
	}}
}

var intent = domain.TransactionIntent{
	Target:    domain.MoveTarget{Package: "0x2", Module: "m", Function: "f"},
	Arguments: []domain.Argument{domain.PureU8(1)},
}

func TestZkLogin_HappyPath(t *testing.T) {
	h := newHarness(t)
	res, attempt, err := h.exec.Execute(context.Background(), h.zkAuth(t), intent)
	require.NoError(t, err)
	assert.Equal(t, domain.Digest("DIGEST"), res.Digest)

	assert.Equal(t, []string{"proof", "build", "sponsor", "execute"}, h.rec.list())
	assert.Equal(t, []executor.State{
		executor.Idle, executor.AuthenticatingZk, executor.Submitted, executor.Confirmed,
	}, attempt.History())
	assert.Equal(t, executor.Confirmed, attempt.State())
	assert.Equal(t, res, attempt.Result())

	addr := derived(t)
	assert.Equal(t, addr, h.builder.got.Sender)
	assert.Equal(t, addr, h.sponsor.sender)
	assert.Equal(t, addr, h.sessions.updated)
	assert.Equal(t, h.zkAuth(t).Session, h.sessions.owner)
	assert.Equal(t, crypto.PublicFromSeed(h.seed), h.proofs.got.EphemeralPublicKey)
	assert.Equal(t, uint64(12), h.proofs.got.MaxEpoch)
	assert.Equal(t, domain.Network("testnet"), h.proofs.got.Network)
}

func TestZkLogin_SignatureOrder(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.exec.Execute(context.Background(), h.zkAuth(t), intent)
	require.NoError(t, err)

	require.Len(t, h.submitter.sigs, 2)
	flag, err := crypto.SignatureFlag(h.submitter.sigs[0])
	require.NoError(t, err)
	assert.Equal(t, crypto.FlagZkLogin, flag)

	sponsor, ok := crypto.VerifySerialized(h.submitter.sigs[1], h.submitter.tx)
	require.True(t, ok)
	assert.Equal(t, crypto.AddressFromPublicKey(crypto.PublicFromSeed(h.sponsor.seed)), sponsor)
}

func TestZkLogin_SponsorFailureStopsBeforeExecution(t *testing.T) {
	h := newHarness(t)
	h.sponsor.err = errors.New("sponsor down")

	_, attempt, err := h.exec.Execute(context.Background(), h.zkAuth(t), intent)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSponsorService)
	assert.NotContains(t, h.rec.list(), "execute")
	assert.Equal(t, executor.Failed, attempt.State())

	var se *domain.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.StageSponsorship, se.Stage)
}

func TestZkLogin_RejectsTamperedSponsorship(t *testing.T) {
	h := newHarness(t)
	h.sponsor.tamper = true

	_, _, err := h.exec.Execute(context.Background(), h.zkAuth(t), intent)
	assert.ErrorIs(t, err, domain.ErrSponsorService)
	assert.NotContains(t, h.rec.list(), "execute")
}

func TestZkLogin_StageFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness)
		stage domain.Stage
		kind  error
	}{
		{"proof service", func(h *harness) { h.proofs.err = errors.New("boom") }, domain.StageProof, domain.ErrProofService},
		{"bad artifacts", func(h *harness) { h.proofs.out.ProofPoints.A = nil }, domain.StageProof, domain.ErrProofService},
		{"bad seed", func(h *harness) { h.proofs.out.AddressSeed = "-1" }, domain.StageProof, domain.ErrProofService},
		{"build", func(h *harness) { h.builder.err = errors.New("rpc") }, domain.StageBuild, domain.ErrNetwork},
		{"execute", func(h *harness) { h.submitter.err = errors.New("rpc") }, domain.StageNetwork, domain.ErrNetwork},
		{"effects failure", func(h *harness) {
			h.submitter.result = domain.ExecutionResult{Digest: "D", Status: "failure", StatusError: "MoveAbort"}
		}, domain.StageNetwork, domain.ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.setup(h)
			_, attempt, err := h.exec.Execute(context.Background(), h.zkAuth(t), intent)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			var se *domain.StageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.stage, se.Stage)
			assert.Equal(t, executor.Failed, attempt.State())
			assert.Equal(t, err, attempt.Err())
		})
	}
}

func TestZkLogin_TokenWithoutIssuer(t *testing.T) {
	h := newHarness(t)
	auth := h.zkAuth(t)
	body := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"user-1"}`))
	auth.Session.IdentityToken = domain.IdentityToken("eyJhbGciOiJSUzI1NiJ9." + body + ".c2ln")

	_, _, err := h.exec.Execute(context.Background(), auth, intent)
	assert.ErrorIs(t, err, domain.ErrTokenMalformed)
	var se *domain.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.StageAddress, se.Stage)
	assert.Equal(t, []string{"proof"}, h.rec.list())
}

func TestZkLogin_StoredAddressMismatch(t *testing.T) {
	h := newHarness(t)
	auth := h.zkAuth(t)
	other := domain.NormalizeAddress("0x1234")
	auth.Session.DerivedAddress = &other

	_, _, err := h.exec.Execute(context.Background(), auth, intent)
	assert.ErrorIs(t, err, domain.ErrSessionInvalid)
	assert.Equal(t, []string{"proof"}, h.rec.list())
}

func TestZkLogin_StoredAddressMatches(t *testing.T) {
	h := newHarness(t)
	auth := h.zkAuth(t)
	addr := derived(t)
	auth.Session.DerivedAddress = &addr

	_, _, err := h.exec.Execute(context.Background(), auth, intent)
	require.NoError(t, err)
	assert.Empty(t, h.sessions.updated)
}

func TestZkLogin_AddressNotRecordedOnReplacedSession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	mgr := session.New(store.NewSessionFileStore(t.TempDir()))
	h.exec = executor.New(executor.Deps{
		Sessions:  mgr,
		Proofs:    h.proofs,
		Sponsor:   h.sponsor,
		Builder:   h.builder,
		Submitter: h.submitter,
	}, executor.Config{Network: "testnet", CallTimeout: time.Second})

	// A new login replaced the session the attempt borrowed.
	current, err := mgr.Init(ctx, makeToken(t), domain.Ed25519Seed{8}, 20, "43")
	require.NoError(t, err)

	_, _, err = h.exec.Execute(ctx, h.zkAuth(t), intent)
	require.NoError(t, err)

	stored, err := mgr.Current(ctx)
	require.NoError(t, err)
	_, ok := stored.Address()
	assert.False(t, ok, "replaced session must not carry the old attempt's address")

	_, _, err = h.exec.Execute(ctx, domain.ZkLoginAuth{Session: current}, intent)
	require.NoError(t, err)
	stored, err = mgr.Current(ctx)
	require.NoError(t, err)
	addr, ok := stored.Address()
	require.True(t, ok)
	assert.Equal(t, derived(t), addr)
}

func TestZkLogin_ProofTimeoutIsProofServiceError(t *testing.T) {
	h := newHarness(t)
	h.proofs.block = true
	h.exec = executor.New(executor.Deps{
		Proofs:    h.proofs,
		Sponsor:   h.sponsor,
		Builder:   h.builder,
		Submitter: h.submitter,
	}, executor.Config{CallTimeout: 10 * time.Millisecond})

	_, _, err := h.exec.Execute(context.Background(), h.zkAuth(t), intent)
	assert.ErrorIs(t, err, domain.ErrProofService)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNotAuthenticated(t *testing.T) {
	h := newHarness(t)
	auths := map[string]domain.AuthSession{
		"nil":          nil,
		"empty token":  domain.ZkLoginAuth{Session: domain.Session{EphemeralSecret: "x"}},
		"empty secret": domain.ZkLoginAuth{Session: domain.Session{IdentityToken: "a.b.c"}},
		"no wallet":    domain.WalletAuth{},
	}
	for name, auth := range auths {
		t.Run(name, func(t *testing.T) {
			_, attempt, err := h.exec.Execute(context.Background(), auth, intent)
			assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
			assert.Equal(t, executor.Failed, attempt.State())
		})
	}
	assert.Empty(t, h.rec.list())
}

func TestWalletPath(t *testing.T) {
	h := newHarness(t)
	w := &fakeWallet{rec: h.rec, addr: domain.NormalizeAddress("0xabc")}

	res, attempt, err := h.exec.Execute(context.Background(), domain.WalletAuth{Wallet: w}, intent)
	require.NoError(t, err)
	assert.Equal(t, domain.Digest("W"), res.Digest)
	assert.Equal(t, []string{"wallet"}, h.rec.list())
	assert.Equal(t, w.addr, w.got.Sender)
	assert.Equal(t, []executor.State{
		executor.Idle, executor.AuthenticatingWallet, executor.Submitted, executor.Confirmed,
	}, attempt.History())
}

func TestWalletPath_Failure(t *testing.T) {
	h := newHarness(t)
	w := &fakeWallet{rec: h.rec, addr: domain.NormalizeAddress("0xabc"), err: errors.New("user rejected")}

	_, _, err := h.exec.Execute(context.Background(), domain.WalletAuth{Wallet: w}, intent)
	assert.ErrorIs(t, err, domain.ErrWallet)
	var se *domain.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.StageWallet, se.Stage)
}

func TestAttempt_RunsOnce(t *testing.T) {
	h := newHarness(t)
	attempt := h.exec.NewAttempt(h.zkAuth(t))
	_, err := attempt.Run(context.Background(), intent)
	require.NoError(t, err)

	_, err = attempt.Run(context.Background(), intent)
	assert.ErrorIs(t, err, domain.ErrAttemptFinished)
	assert.Equal(t, executor.Confirmed, attempt.State())
	assert.Len(t, h.rec.list(), 4)
}

func TestAttempt_InFlightRejected(t *testing.T) {
	h := newHarness(t)
	h.proofs.block = true
	h.exec = executor.New(executor.Deps{
		Proofs:    h.proofs,
		Sponsor:   h.sponsor,
		Builder:   h.builder,
		Submitter: h.submitter,
	}, executor.Config{CallTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	first := h.exec.NewAttempt(h.zkAuth(t))
	done := make(chan error, 1)
	go func() {
		_, err := first.Run(ctx, intent)
		done <- err
	}()
	require.Eventually(t, func() bool { return len(h.rec.list()) == 1 }, time.Second, time.Millisecond)

	_, _, err := h.exec.Execute(context.Background(), h.zkAuth(t), intent)
	assert.ErrorIs(t, err, domain.ErrAttemptInFlight)

	cancel()
	assert.ErrorIs(t, <-done, domain.ErrProofService)
}

func TestCanceledContext(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, attempt, err := h.exec.Execute(ctx, h.zkAuth(t), intent)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, executor.Failed, attempt.State())
	assert.Empty(t, h.rec.list())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "confirmed", executor.Confirmed.String())
	assert.True(t, executor.Failed.Terminal())
	assert.False(t, executor.Submitted.Terminal())
}
