package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"zkpass/internal/crypto"
	"zkpass/internal/domain"
	"zkpass/internal/protocol/zklogin"
	"zkpass/internal/services/session"
)

// Attempt is one run of the state machine. It is not reusable.
type Attempt struct {
	// ID tags the attempt's log lines.
	ID string

	exec *Executor
	auth domain.AuthSession

	mu      sync.Mutex
	state   State
	history []State
	result  domain.ExecutionResult
	err     error
}

// State returns the current state.
func (a *Attempt) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// History returns every state the attempt has been in, in order.
func (a *Attempt) History() []State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]State(nil), a.history...)
}

// Err returns the failure of a Failed attempt.
func (a *Attempt) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Result returns the execution result of a Confirmed attempt.
func (a *Attempt) Result() domain.ExecutionResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

func (a *Attempt) transition(to State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = to
	a.history = append(a.history, to)
}

// start moves an Idle attempt to its authenticating state.
func (a *Attempt) start(to State) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case a.state.Terminal():
		return domain.ErrAttemptFinished
	case a.state != Idle:
		return domain.ErrAttemptInFlight
	}
	a.state = to
	a.history = append(a.history, to)
	return nil
}

func (a *Attempt) logger() zerolog.Logger {
	return log.With().Str("attempt", a.ID).Logger()
}

// fail ends the attempt in Failed and returns the stage error.
func (a *Attempt) fail(path string, stage domain.Stage, kind, err error) error {
	se := domain.NewStageError(stage, kind, err)
	a.mu.Lock()
	a.state = Failed
	a.history = append(a.history, Failed)
	a.err = se
	a.mu.Unlock()

	a.exec.deps.Metrics.ObserveAttempt(path, "failed")
	l := a.logger()
	l.Warn().Str("path", path).Str("stage", string(stage)).Err(err).Msg("transaction attempt failed")
	return se
}

func (a *Attempt) confirm(path string, res domain.ExecutionResult) (domain.ExecutionResult, error) {
	a.mu.Lock()
	a.state = Confirmed
	a.history = append(a.history, Confirmed)
	a.result = res
	a.mu.Unlock()

	a.exec.deps.Metrics.ObserveAttempt(path, "confirmed")
	l := a.logger()
	l.Info().Str("path", path).Str("digest", res.Digest.String()).Msg("transaction confirmed")
	return res, nil
}

// Run executes intent. It may be called once; later calls fail with
// domain.ErrAttemptFinished without touching the state.
func (a *Attempt) Run(ctx context.Context, intent domain.TransactionIntent) (domain.ExecutionResult, error) {
	switch auth := a.auth.(type) {
	case domain.ZkLoginAuth:
		return a.runZkLogin(ctx, auth.Session, intent)
	case *domain.ZkLoginAuth:
		if auth != nil {
			return a.runZkLogin(ctx, auth.Session, intent)
		}
	case domain.WalletAuth:
		return a.runWallet(ctx, auth.Wallet, intent)
	case *domain.WalletAuth:
		if auth != nil {
			return a.runWallet(ctx, auth.Wallet, intent)
		}
	case nil:
	}
	return domain.ExecutionResult{}, a.notAuthenticated("none", "no wallet connection or zkLogin session")
}

func (a *Attempt) notAuthenticated(path, why string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.Terminal() {
		return domain.ErrAttemptFinished
	}
	if a.state != Idle {
		return domain.ErrAttemptInFlight
	}
	a.state = Failed
	a.history = append(a.history, Failed)
	a.err = domain.NewStageError(domain.StageAuth, domain.ErrNotAuthenticated, errors.New(why))
	a.exec.deps.Metrics.ObserveAttempt(path, "failed")
	return a.err
}

func (a *Attempt) runZkLogin(
	ctx context.Context,
	s domain.Session,
	intent domain.TransactionIntent,
) (domain.ExecutionResult, error) {
	const path = "zklogin"
	e := a.exec

	if s.IdentityToken == "" || s.EphemeralSecret == "" {
		return domain.ExecutionResult{}, a.notAuthenticated(path, "session has no identity token or ephemeral key")
	}
	if err := a.start(AuthenticatingZk); err != nil {
		return domain.ExecutionResult{}, err
	}
	l := a.logger()

	// 1. Ephemeral key.
	seed, pub, err := session.EphemeralKey(s)
	if err != nil {
		return domain.ExecutionResult{}, a.fail(path, domain.StageAuth, domain.ErrSessionInvalid, err)
	}
	key := "zk:" + crypto.Fingerprint(pub).String()
	if !e.acquire(key, a.ID) {
		return domain.ExecutionResult{}, a.fail(path, domain.StageAuth, domain.ErrAttemptInFlight,
			errors.New("another attempt is using this ephemeral key"))
	}
	defer e.release(key)
	l.Info().Str("ephemeral_key", crypto.Fingerprint(pub).String()).Msg("zkLogin attempt started")

	// 2. Proof.
	if err := ctx.Err(); err != nil {
		return domain.ExecutionResult{}, a.fail(path, domain.StageProof, err, err)
	}
	var artifacts domain.ProofArtifacts
	err = e.call(ctx, domain.StageProof, func(ctx context.Context) error {
		var err error
		artifacts, err = e.deps.Proofs.RequestProof(ctx, domain.ProofRequest{
			Token:              s.IdentityToken,
			EphemeralPublicKey: pub,
			MaxEpoch:           s.MaxEpoch,
			Randomness:         s.Randomness,
			Network:            e.cfg.Network,
		})
		return err
	})
	if err != nil {
		return domain.ExecutionResult{}, a.fail(path, domain.StageProof, domain.ErrProofService, err)
	}
	if err := zklogin.ValidateArtifacts(artifacts); err != nil {
		return domain.ExecutionResult{}, a.fail(path, domain.StageProof, domain.ErrProofService, err)
	}

	// 3. Sender address, from the token issuer and the proof's seed only.
	sender, err := zklogin.AddressFromToken(artifacts.AddressSeed, s.IdentityToken)
	if err != nil {
		return domain.ExecutionResult{}, a.fail(path, domain.StageAddress, domain.ErrTokenMalformed, err)
	}
	if stored, ok := s.Address(); ok {
		if domain.NormalizeAddress(stored.String()) != sender {
			return domain.ExecutionResult{}, a.fail(path, domain.StageAddress, domain.ErrSessionInvalid,
				fmt.Errorf("session address %s does not match derived address %s", stored, sender))
		}
	} else if e.deps.Sessions != nil {
		if err := e.deps.Sessions.Update(ctx, s, sender); err != nil {
			l.Warn().Err(err).Msg("could not record derived address on session")
		}
	}

	// 4. and 5. Sender-addressed intent, serialized at the kind level.
	intent = intent.WithSender(sender)
	if err := ctx.Err(); err != nil {
		return domain.ExecutionResult{}, a.fail(path, domain.StageBuild, err, err)
	}
	var kind []byte
	err = e.call(ctx, domain.StageBuild, func(ctx context.Context) error {
		var err error
		kind, err = e.deps.Builder.BuildKind(ctx, intent)
		return err
	})
	if err != nil {
		return domain.ExecutionResult{}, a.fail(path, domain.StageBuild, domain.ErrNetwork, err)
	}

	// 6. Sponsorship for the derived sender.
	if err := ctx.Err(); err != nil {
		return domain.ExecutionResult{}, a.fail(path, domain.StageSponsorship, err, err)
	}
	var sponsored domain.SponsoredTransaction
	err = e.call(ctx, domain.StageSponsorship, func(ctx context.Context) error {
		var err error
		sponsored, err = e.deps.Sponsor.RequestSponsorship(ctx, kind, sender)
		return err
	})
	if err != nil {
		return domain.ExecutionResult{}, a.fail(path, domain.StageSponsorship, domain.ErrSponsorService, err)
	}
	if err := checkSponsored(sponsored.Bytes, kind, sender); err != nil {
		return domain.ExecutionResult{}, a.fail(path, domain.StageSponsorship, domain.ErrSponsorService, err)
	}

	// 7. and 8. Ephemeral signature over the sponsored bytes, wrapped in the zkLogin signature.
	userSig := crypto.SignAndSerialize(seed, sponsored.Bytes)
	zkSig, err := zklogin.ComposeSignature(artifacts, s.MaxEpoch, userSig)
	if err != nil {
		return domain.ExecutionResult{}, a.fail(path, domain.StageSigning, domain.ErrProofService, err)
	}

	// 9. Submit.
	if err := ctx.Err(); err != nil {
		return domain.ExecutionResult{}, a.fail(path, domain.StageNetwork, err, err)
	}
	a.transition(Submitted)
	sigs := domain.CompoundSignature{zkSig, sponsored.Signature}
	var res domain.ExecutionResult
	err = e.call(ctx, domain.StageNetwork, func(ctx context.Context) error {
		var err error
		res, err = e.deps.Submitter.ExecuteTransactionBlock(ctx, sponsored.Bytes, sigs)
		return err
	})
	if err != nil {
		return domain.ExecutionResult{}, a.fail(path, domain.StageNetwork, domain.ErrNetwork, err)
	}
	if res.Status != "" && !res.Succeeded() {
		return res, a.fail(path, domain.StageNetwork, domain.ErrNetwork,
			fmt.Errorf("transaction %s status %q: %s", res.Digest, res.Status, res.StatusError))
	}
	return a.confirm(path, res)
}

func (a *Attempt) runWallet(
	ctx context.Context,
	w domain.WalletAdapter,
	intent domain.TransactionIntent,
) (domain.ExecutionResult, error) {
	const path = "wallet"
	e := a.exec

	if w == nil {
		return domain.ExecutionResult{}, a.notAuthenticated(path, "no wallet connection")
	}
	if err := a.start(AuthenticatingWallet); err != nil {
		return domain.ExecutionResult{}, err
	}
	sender := w.Address()
	key := "wallet:" + sender.String()
	if !e.acquire(key, a.ID) {
		return domain.ExecutionResult{}, a.fail(path, domain.StageWallet, domain.ErrAttemptInFlight,
			errors.New("another attempt is using this wallet"))
	}
	defer e.release(key)

	if err := ctx.Err(); err != nil {
		return domain.ExecutionResult{}, a.fail(path, domain.StageWallet, err, err)
	}
	a.transition(Submitted)
	var res domain.ExecutionResult
	err := e.call(ctx, domain.StageWallet, func(ctx context.Context) error {
		var err error
		res, err = w.SignAndExecute(ctx, intent.WithSender(sender))
		return err
	})
	if err != nil {
		return domain.ExecutionResult{}, a.fail(path, domain.StageWallet, domain.ErrWallet, err)
	}
	return a.confirm(path, res)
}

// checkSponsored verifies the sponsor kept our transaction kind and sender:
// versioned transaction data starts with the version tag, the kind bytes and the sender.
func checkSponsored(data, kind []byte, sender domain.Address) error {
	from, err := sender.Bytes()
	if err != nil {
		return err
	}
	if len(data) < 1+len(kind)+len(from) {
		return errors.New("sponsored transaction is too short")
	}
	if !bytes.Equal(data[1:1+len(kind)], kind) {
		return errors.New("sponsored transaction does not carry the requested transaction kind")
	}
	if !bytes.Equal(data[1+len(kind):1+len(kind)+len(from)], from[:]) {
		return errors.New("sponsored transaction sender is not the derived address")
	}
	return nil
}
