package relay

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"zkpass/internal/crypto"
	"zkpass/internal/domain"
	"zkpass/internal/protocol/zklogin"
)

// Default endpoint paths on the relay.
const (
	DefaultProofPath   = "/api/zkp"
	DefaultSponsorPath = "/api/sponsor"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// HTTP talks JSON to the relay.
type HTTP struct {
	Base        string
	ProofPath   string
	SponsorPath string
	HTTP        *http.Client
}

// NewHTTP returns a client for the relay at base with a per-request timeout.
func NewHTTP(base string, timeout time.Duration) *HTTP {
	return &HTTP{
		Base:        base,
		ProofPath:   DefaultProofPath,
		SponsorPath: DefaultSponsorPath,
		HTTP:        &http.Client{Timeout: timeout},
	}
}

// ProofRequest is the wire form of a proof request.
type ProofRequest struct {
	JWT                string `json:"jwt"`
	EphemeralPublicKey string `json:"ephemeralPublicKey"`
	MaxEpoch           uint64 `json:"maxEpoch"`
	Randomness         string `json:"randomness"`
	Network            string `json:"network"`
}

// SponsorRequest is the wire form of a sponsorship request.
type SponsorRequest struct {
	TransactionBlockKindBytes string `json:"transactionBlockKindBytes"`
	Sender                    string `json:"sender"`
}

// SponsorResponse is the wire form of a sponsored transaction.
type SponsorResponse struct {
	Bytes     string `json:"bytes"`
	Signature string `json:"signature"`
}

// RequestProof asks the relay for the proof artifacts of req.
func (c *HTTP) RequestProof(ctx context.Context, req domain.ProofRequest) (domain.ProofArtifacts, error) {
	body := ProofRequest{
		JWT:                req.Token.String(),
		EphemeralPublicKey: crypto.B64(req.EphemeralPublicKey.Slice()),
		MaxEpoch:           req.MaxEpoch,
		Randomness:         req.Randomness,
		Network:            req.Network.String(),
	}
	var out domain.ProofArtifacts
	if err := c.post(ctx, c.ProofPath, body, &out); err != nil {
		return domain.ProofArtifacts{}, serviceError(domain.ErrProofService, "proof request", err)
	}
	if err := zklogin.ValidateArtifacts(out); err != nil {
		return domain.ProofArtifacts{}, serviceError(domain.ErrProofService, "proof response", err)
	}
	log.Debug().Str("path", c.ProofPath).Msg("proof artifacts received")
	return out, nil
}

// RequestSponsorship asks the relay to fund and co-sign the transaction kind for sender.
func (c *HTTP) RequestSponsorship(
	ctx context.Context,
	kindBytes []byte,
	sender domain.Address,
) (domain.SponsoredTransaction, error) {
	if len(kindBytes) == 0 {
		return domain.SponsoredTransaction{}, serviceError(domain.ErrSponsorService, "sponsor request",
			fmt.Errorf("transaction kind is empty"))
	}
	body := SponsorRequest{
		TransactionBlockKindBytes: crypto.B64(kindBytes),
		Sender:                    sender.String(),
	}
	var out SponsorResponse
	if err := c.post(ctx, c.SponsorPath, body, &out); err != nil {
		return domain.SponsoredTransaction{}, serviceError(domain.ErrSponsorService, "sponsor request", err)
	}
	tx, err := out.Validate()
	if err != nil {
		return domain.SponsoredTransaction{}, serviceError(domain.ErrSponsorService, "sponsor response", err)
	}
	log.Debug().Str("path", c.SponsorPath).Int("bytes", len(tx.Bytes)).Msg("sponsored transaction received")
	return tx, nil
}

// Validate checks the response and decodes it.
func (r SponsorResponse) Validate() (domain.SponsoredTransaction, error) {
	if r.Bytes == "" {
		return domain.SponsoredTransaction{}, fmt.Errorf("sponsored bytes are empty")
	}
	b, err := base64.StdEncoding.DecodeString(r.Bytes)
	if err != nil {
		return domain.SponsoredTransaction{}, fmt.Errorf("sponsored bytes are not base64: %w", err)
	}
	if r.Signature == "" {
		return domain.SponsoredTransaction{}, fmt.Errorf("sponsor signature is empty")
	}
	if _, err := crypto.SignatureFlag(r.Signature); err != nil {
		return domain.SponsoredTransaction{}, fmt.Errorf("sponsor signature: %w", err)
	}
	return domain.SponsoredTransaction{Bytes: b, Signature: r.Signature}, nil
}

func (c *HTTP) post(ctx context.Context, path string, in, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("relay post %s: %s: %s", path, resp.Status, bytes.TrimSpace(msg))
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("relay post %s: decode response: %w", path, err)
	}
	return nil
}

// serviceError tags err with kind while keeping the cause inspectable.
func serviceError(kind error, op string, err error) error {
	return fmt.Errorf("%w: %s: %w", kind, op, err)
}

var (
	_ domain.ProofClient   = (*HTTP)(nil)
	_ domain.SponsorClient = (*HTTP)(nil)
)
