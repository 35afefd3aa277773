package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every failure that reaches a caller matches one of these with errors.Is.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSessionInvalid   = errors.New("session invalid")
	ErrTokenMalformed   = errors.New("identity token malformed")
	ErrProofService     = errors.New("proof service error")
	ErrSponsorService   = errors.New("sponsor service error")
	ErrWallet           = errors.New("wallet error")
	ErrNetwork          = errors.New("network error")

	ErrAttemptInFlight = errors.New("another transaction attempt is in flight for this session")
	ErrAttemptFinished = errors.New("transaction attempt already finished")
)

// Stage names a step of a transaction attempt.
type Stage string

const (
	StageAuth        Stage = "authentication"
	StageProof       Stage = "proof"
	StageAddress     Stage = "address"
	StageBuild       Stage = "build"
	StageSponsorship Stage = "sponsorship"
	StageSigning     Stage = "signing"
	StageWallet      Stage = "wallet"
	StageNetwork     Stage = "network"
)

// StageError records which stage of an attempt failed and with which error kind.
type StageError struct {
	Stage Stage
	Kind  error
	Err   error
}

// NewStageError wraps err as a failure of stage classified as kind.
func NewStageError(stage Stage, kind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

// Is matches the error kind.
func (e *StageError) Is(target error) bool { return target == e.Kind }

// Unwrap returns the underlying cause.
func (e *StageError) Unwrap() error { return e.Err }

// UserMessage renders err for a human, telling apart "try again" from "log in again".
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var se *StageError
	stage := ""
	if errors.As(err, &se) {
		stage = string(se.Stage) + ": "
	}
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return "You are not logged in. Log in with your OAuth account or connect a wallet."
	case errors.Is(err, ErrSessionInvalid), errors.Is(err, ErrTokenMalformed):
		return stage + "Your login session is unusable. Log in again."
	case errors.Is(err, ErrAttemptInFlight):
		return "A transaction is already being submitted. Wait for it to finish."
	case errors.Is(err, ErrProofService):
		return "Proof generation failed (" + stage + err.Error() + "). Try again."
	case errors.Is(err, ErrSponsorService):
		return "Gas sponsorship failed (" + stage + err.Error() + "). Try again."
	case errors.Is(err, ErrWallet):
		return "The wallet rejected or could not submit the transaction (" + err.Error() + ")."
	case errors.Is(err, ErrNetwork):
		return "The network did not execute the transaction (" + err.Error() + "). Try again."
	default:
		return err.Error()
	}
}
