package gateway

import (
	"context"
	"encoding/base64"
	"errors"
	"math/big"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"zkpass/internal/crypto"
	"zkpass/internal/domain"
	"zkpass/internal/relay"
	"zkpass/internal/services/sponsor"
)

// PostProofRoute registers the proof endpoint.
func PostProofRoute(s *Server) *echo.Route {
	return s.Echo.POST(relay.DefaultProofPath, postProofHandler(s))
}

// PostSponsorRoute registers the sponsorship endpoint.
func PostSponsorRoute(s *Server) *echo.Route {
	return s.Echo.POST(relay.DefaultSponsorPath, postSponsorHandler(s))
}

// GetHealthRoute registers the liveness endpoint.
func GetHealthRoute(s *Server) *echo.Route {
	return s.Echo.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}

func postProofHandler(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body relay.ProofRequest
		if err := c.Bind(&body); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
		}
		req, err := s.proofRequest(body)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), s.cfg.RequestTimeout)
		defer cancel()
		artifacts, err := s.proofs.RequestProof(ctx, req)
		if err != nil {
			log.Warn().Err(err).Uint64("max_epoch", req.MaxEpoch).Msg("proof request failed")
			return echo.NewHTTPError(http.StatusBadGateway, "proof service failed")
		}
		return c.JSON(http.StatusOK, artifacts)
	}
}

func (s *Server) proofRequest(body relay.ProofRequest) (domain.ProofRequest, error) {
	if strings.Count(body.JWT, ".") != 2 {
		return domain.ProofRequest{}, errors.New("jwt must be a three-segment token")
	}
	pk, err := base64.StdEncoding.DecodeString(body.EphemeralPublicKey)
	if err != nil {
		return domain.ProofRequest{}, errors.New("ephemeralPublicKey is not base64")
	}
	// Accept both the raw key and the flagged form.
	if len(pk) == 33 && pk[0] == crypto.FlagEd25519 {
		pk = pk[1:]
	}
	if len(pk) != 32 {
		return domain.ProofRequest{}, errors.New("ephemeralPublicKey must be a 32-byte Ed25519 key")
	}
	if body.MaxEpoch == 0 {
		return domain.ProofRequest{}, errors.New("maxEpoch is required")
	}
	if r, ok := new(big.Int).SetString(body.Randomness, 10); !ok || r.Sign() < 0 {
		return domain.ProofRequest{}, errors.New("randomness must be a decimal integer")
	}
	network := domain.Network(body.Network)
	if network == "" {
		network = s.cfg.Network
	}
	if s.cfg.Network != "" && network != s.cfg.Network {
		return domain.ProofRequest{}, errors.New("network " + string(network) + " is not served here")
	}

	req := domain.ProofRequest{
		Token:      domain.IdentityToken(body.JWT),
		MaxEpoch:   body.MaxEpoch,
		Randomness: body.Randomness,
		Network:    network,
	}
	copy(req.EphemeralPublicKey[:], pk)
	return req, nil
}

func postSponsorHandler(s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body relay.SponsorRequest
		if err := c.Bind(&body); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
		}
		kind, err := base64.StdEncoding.DecodeString(body.TransactionBlockKindBytes)
		if err != nil || len(kind) == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "transactionBlockKindBytes must be non-empty base64")
		}
		sender := domain.NormalizeAddress(body.Sender)
		if body.Sender == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "sender is required")
		}
		if _, err := sender.Bytes(); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "sender is not an address")
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), s.cfg.RequestTimeout)
		defer cancel()
		tx, err := s.sponsor.RequestSponsorship(ctx, kind, sender)
		switch {
		case errors.Is(err, sponsor.ErrTargetNotAllowed):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, sponsor.ErrBudgetExhausted):
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		case err != nil:
			log.Warn().Err(err).Str("sender", sender.String()).Msg("sponsorship failed")
			return echo.NewHTTPError(http.StatusBadGateway, "sponsorship failed")
		}
		return c.JSON(http.StatusOK, relay.SponsorResponse{
			Bytes:     crypto.B64(tx.Bytes),
			Signature: tx.Signature,
		})
	}
}
