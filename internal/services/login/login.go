// Package login runs the OAuth side of a zkLogin session: it prepares the
// ephemeral key and nonce, turns the provider's callback into a stored
// session and resolves the session's address.
package login

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"zkpass/internal/crypto"
	"zkpass/internal/domain"
	"zkpass/internal/protocol/zklogin"
	"zkpass/internal/services/session"
	"zkpass/internal/util/memzero"
)

// DefaultAuthEndpoint is Google's OAuth 2.0 authorization endpoint.
const DefaultAuthEndpoint = "https://accounts.google.com/o/oauth2/v2/auth"

// DefaultEpochWindow is how many epochs past the current one an ephemeral key stays valid.
const DefaultEpochWindow = 2

// Config describes the OAuth client and the address policy.
type Config struct {
	ClientID     string
	RedirectURL  string
	AuthEndpoint string
	EpochWindow  uint64
	Network      domain.Network
	// Permissive keeps a session whose address could not be derived instead
	// of failing the login. The executor derives the address again anyway.
	Permissive bool
}

// PendingLogin is what the user needs to continue at the OAuth provider.
type PendingLogin struct {
	AuthURL  string
	Nonce    string
	MaxEpoch uint64
}

// Service drives login and logout.
type Service struct {
	sessions domain.SessionManager
	proofs   domain.ProofClient
	epochs   domain.EpochSource
	cfg      Config
}

// New returns a login Service.
func New(sessions domain.SessionManager, proofs domain.ProofClient, epochs domain.EpochSource, cfg Config) *Service {
	if cfg.AuthEndpoint == "" {
		cfg.AuthEndpoint = DefaultAuthEndpoint
	}
	if cfg.EpochWindow == 0 {
		cfg.EpochWindow = DefaultEpochWindow
	}
	return &Service{sessions: sessions, proofs: proofs, epochs: epochs, cfg: cfg}
}

// Begin creates a fresh ephemeral key, stores it as a pending session and
// returns the authorization URL carrying the matching nonce.
func (s *Service) Begin(ctx context.Context) (PendingLogin, error) {
	if s.cfg.ClientID == "" {
		return PendingLogin{}, errors.New("oauth client id is not configured")
	}
	epoch, err := s.epochs.GetLatestEpoch(ctx)
	if err != nil {
		return PendingLogin{}, errors.Wrapf(domain.ErrNetwork, "read current epoch: %v", err)
	}
	maxEpoch := epoch + s.cfg.EpochWindow

	seed, pub, err := crypto.GenerateEphemeral()
	if err != nil {
		return PendingLogin{}, err
	}
	defer memzero.Seed((*[32]byte)(&seed))
	randomness, err := zklogin.GenerateRandomness()
	if err != nil {
		return PendingLogin{}, err
	}
	nonce, err := zklogin.GenerateNonce(pub, maxEpoch, randomness)
	if err != nil {
		return PendingLogin{}, err
	}
	if err := s.sessions.Prepare(ctx, seed, maxEpoch, randomness); err != nil {
		return PendingLogin{}, err
	}

	u, err := url.Parse(s.cfg.AuthEndpoint)
	if err != nil {
		return PendingLogin{}, errors.Wrap(err, "auth endpoint")
	}
	q := u.Query()
	q.Set("client_id", s.cfg.ClientID)
	q.Set("redirect_uri", s.cfg.RedirectURL)
	q.Set("response_type", "id_token")
	q.Set("scope", "openid")
	q.Set("nonce", nonce)
	u.RawQuery = q.Encode()

	log.Info().Uint64("epoch", epoch).Uint64("max_epoch", maxEpoch).Msg("login started")
	return PendingLogin{AuthURL: u.String(), Nonce: nonce, MaxEpoch: maxEpoch}, nil
}

// Complete attaches the identity token found in callback to the pending
// session, requests a proof and records the derived address.
//
// callback is either the full redirect URL or the raw token.
func (s *Service) Complete(ctx context.Context, callback string) (domain.Session, error) {
	token, err := ExtractToken(callback)
	if err != nil {
		return domain.Session{}, err
	}
	if err := s.sessions.Attach(ctx, token); err != nil {
		return domain.Session{}, err
	}
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	_, pub, err := session.EphemeralKey(sess)
	if err != nil {
		return domain.Session{}, err
	}

	artifacts, err := s.proofs.RequestProof(ctx, domain.ProofRequest{
		Token:              sess.IdentityToken,
		EphemeralPublicKey: pub,
		MaxEpoch:           sess.MaxEpoch,
		Randomness:         sess.Randomness,
		Network:            s.cfg.Network,
	})
	if err != nil {
		if s.cfg.Permissive {
			return domain.Session{}, err
		}
		return domain.Session{}, s.abandon(ctx, err)
	}

	addr, err := zklogin.AddressFromToken(artifacts.AddressSeed, sess.IdentityToken)
	if err != nil {
		if s.cfg.Permissive {
			log.Warn().Err(err).Msg("could not derive address, keeping session without one")
			return sess, nil
		}
		return domain.Session{}, s.abandon(ctx, err)
	}
	if err := s.sessions.Update(ctx, sess, addr); err != nil {
		return domain.Session{}, err
	}
	sess.DerivedAddress = &addr
	log.Info().Str("address", addr.String()).Msg("login completed")
	return sess, nil
}

// abandon clears the session of a failed login and returns err.
func (s *Service) abandon(ctx context.Context, err error) error {
	if terr := s.sessions.Teardown(ctx); terr != nil {
		log.Warn().Err(terr).Msg("could not clear session after failed login")
	}
	return err
}

// Logout removes the stored session.
func (s *Service) Logout(ctx context.Context) error {
	return s.sessions.Teardown(ctx)
}

// ExtractToken finds the id_token in an OAuth redirect URL, looking at the
// fragment first and then the query. A bare three-segment token is returned as is.
func ExtractToken(callback string) (domain.IdentityToken, error) {
	callback = strings.TrimSpace(callback)
	if callback == "" {
		return "", errors.Wrap(domain.ErrTokenMalformed, "empty callback")
	}
	if !strings.Contains(callback, "id_token=") {
		if strings.Count(callback, ".") == 2 && !strings.ContainsAny(callback, "/?#&= ") {
			return domain.IdentityToken(callback), nil
		}
		return "", errors.Wrap(domain.ErrTokenMalformed, "callback carries no id_token")
	}

	u, err := url.Parse(callback)
	if err != nil {
		return "", errors.Wrapf(domain.ErrTokenMalformed, "callback url: %v", err)
	}
	for _, raw := range []string{u.Fragment, u.RawQuery} {
		values, err := url.ParseQuery(raw)
		if err != nil {
			continue
		}
		if t := values.Get("id_token"); t != "" {
			return domain.IdentityToken(t), nil
		}
	}
	// The callback may be only the fragment, as copied from a browser.
	values, err := url.ParseQuery(strings.TrimLeft(callback, "#?"))
	if err == nil {
		if t := values.Get("id_token"); t != "" {
			return domain.IdentityToken(t), nil
		}
	}
	return "", errors.Wrap(domain.ErrTokenMalformed, "callback carries no id_token")
}

// Describe renders the session state for display. It never includes the token.
func Describe(sess domain.Session, epoch uint64) map[string]string {
	out := map[string]string{
		"state":     "pending",
		"max_epoch": strconv.FormatUint(sess.MaxEpoch, 10),
		"created":   sess.CreatedAt.Format(time.RFC3339),
	}
	if !sess.Pending() {
		out["state"] = "active"
		if session.Expired(sess, epoch) {
			out["state"] = "expired"
		}
	}
	if _, pub, err := session.EphemeralKey(sess); err == nil {
		out["ephemeral_key"] = crypto.Fingerprint(pub).String()
	}
	if addr, ok := sess.Address(); ok {
		out["address"] = addr.String()
	}
	return out
}
