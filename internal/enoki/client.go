// Package enoki requests zkLogin proofs from an Enoki-compatible proving API.
package enoki

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"zkpass/internal/crypto"
	"zkpass/internal/domain"
	"zkpass/internal/protocol/zklogin"
)

// DefaultBaseURL is the hosted Enoki API.
const DefaultBaseURL = "https://api.enoki.mystenlabs.com"

const proofPath = "/v1/zklogin/zkp"

// Client calls the proving API with an API key.
type Client struct {
	base   string
	apiKey string
	http   *http.Client
}

// NewClient returns a Client for base authenticating with apiKey.
func NewClient(base, apiKey string, timeout time.Duration) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		apiKey: apiKey,
		http:   &http.Client{Timeout: timeout},
	}
}

type proofBody struct {
	Network            string `json:"network"`
	EphemeralPublicKey string `json:"ephemeralPublicKey"`
	MaxEpoch           uint64 `json:"maxEpoch"`
	Randomness         string `json:"randomness"`
}

type proofResponse struct {
	Data   *domain.ProofArtifacts `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// RequestProof posts the proof inputs and returns the validated artifacts.
// The identity token travels in the zklogin-jwt header.
func (c *Client) RequestProof(ctx context.Context, req domain.ProofRequest) (domain.ProofArtifacts, error) {
	if c.apiKey == "" {
		return domain.ProofArtifacts{}, errors.Wrap(domain.ErrProofService, "enoki api key is not configured")
	}
	body, err := json.Marshal(proofBody{
		Network:            req.Network.String(),
		EphemeralPublicKey: crypto.B64(crypto.ToSuiBytes(req.EphemeralPublicKey)),
		MaxEpoch:           req.MaxEpoch,
		Randomness:         req.Randomness,
	})
	if err != nil {
		return domain.ProofArtifacts{}, err
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+proofPath, bytes.NewReader(body))
	if err != nil {
		return domain.ProofArtifacts{}, err
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Authorization", "Bearer "+c.apiKey)
	hreq.Header.Set("zklogin-jwt", req.Token.String())

	resp, err := c.http.Do(hreq)
	if err != nil {
		return domain.ProofArtifacts{}, errors.Wrapf(domain.ErrProofService, "enoki: %v", err)
	}
	defer resp.Body.Close()

	var out proofResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil && resp.StatusCode/100 == 2 {
		return domain.ProofArtifacts{}, errors.Wrapf(domain.ErrProofService, "enoki: decode response: %v", err)
	}
	if resp.StatusCode/100 != 2 || out.Data == nil {
		msg := resp.Status
		if len(out.Errors) > 0 {
			msg += ": " + out.Errors[0].Code + ": " + out.Errors[0].Message
		}
		return domain.ProofArtifacts{}, errors.Wrapf(domain.ErrProofService, "enoki: %s", msg)
	}
	if err := zklogin.ValidateArtifacts(*out.Data); err != nil {
		return domain.ProofArtifacts{}, errors.Wrapf(domain.ErrProofService, "enoki: %v", err)
	}
	log.Debug().Uint64("max_epoch", req.MaxEpoch).Msg("enoki proof received")
	return *out.Data, nil
}

var _ domain.ProofClient = (*Client)(nil)
