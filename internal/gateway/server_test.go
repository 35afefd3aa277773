package gateway_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zkpass/internal/crypto"
	"zkpass/internal/domain"
	"zkpass/internal/gateway"
	"zkpass/internal/metrics"
	"zkpass/internal/protocol/txn"
	"zkpass/internal/relay"
	"zkpass/internal/services/sponsor"
)

type fakeProofs struct {
	got domain.ProofRequest
	err error
}

func (f *fakeProofs) RequestProof(_ context.Context, req domain.ProofRequest) (domain.ProofArtifacts, error) {
	f.got = req
	if f.err != nil {
		return domain.ProofArtifacts{}, f.err
	}
	return domain.ProofArtifacts{
		ProofPoints: domain.ProofPoints{
			A: []string{"1", "2", "1"},
			B: [][]string{{"3", "4"}, {"5", "6"}, {"1", "0"}},
			C: []string{"7", "8", "1"},
		},
		IssBase64Details: domain.IssBase64Details{Value: "abc", IndexMod4: 0},
		HeaderBase64:     "eyJ9",
		AddressSeed:      "42",
	}, nil
}

type fakeGas struct{}

func (fakeGas) GetReferenceGasPrice(context.Context) (uint64, error) { return 1000, nil }

func (fakeGas) GetCoins(context.Context, domain.Address, string) ([]domain.Coin, error) {
	var id [32]byte
	id[31] = 0x77
	return []domain.Coin{{
		ObjectRef: domain.ObjectRef{ObjectID: domain.ObjectID(domain.AddressFromBytes(id)), Version: 1, Digest: txn.EncodeDigest(id[:])},
		Balance:   1 << 40,
	}}, nil
}

type fixture struct {
	proofs *fakeProofs
	client *relay.HTTP
	url    string
	reg    *prometheus.Registry
	spons  *sponsor.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	proofs := &fakeProofs{}
	pkg := domain.ObjectID(domain.NormalizeAddress("0xaa"))
	spons := sponsor.New(domain.Ed25519Seed{8}, fakeGas{}, sponsor.Config{AllowedPackages: []domain.ObjectID{pkg}})
	s := gateway.New(gateway.Config{Network: "testnet"}, proofs, spons, metrics.New(reg), reg)

	srv := httptest.NewServer(s.Echo)
	t.Cleanup(srv.Close)
	return &fixture{proofs: proofs, client: relay.NewHTTP(srv.URL, time.Second), url: srv.URL, reg: reg, spons: spons}
}

func kind(t *testing.T, pkg string) []byte {
	t.Helper()
	k, err := txn.NewBuilder(nil).BuildKind(context.Background(), domain.TransactionIntent{
		Target:    domain.MoveTarget{Package: domain.ObjectID(domain.NormalizeAddress(pkg)), Module: "vehicle", Function: "f"},
		Arguments: []domain.Argument{domain.PureU64(3)},
	})
	require.NoError(t, err)
	return k
}

func TestProofThroughRelayClient(t *testing.T) {
	f := newFixture(t)
	pub := crypto.PublicFromSeed(domain.Ed25519Seed{2})

	got, err := f.client.RequestProof(context.Background(), domain.ProofRequest{
		Token:              "h.p.s",
		EphemeralPublicKey: pub,
		MaxEpoch:           5,
		Randomness:         "123",
		Network:            "testnet",
	})
	require.NoError(t, err)
	assert.Equal(t, "42", got.AddressSeed)
	assert.Equal(t, pub, f.proofs.got.EphemeralPublicKey)
	assert.Equal(t, domain.IdentityToken("h.p.s"), f.proofs.got.Token)
}

func TestProof_RejectsBadRequests(t *testing.T) {
	f := newFixture(t)
	for name, body := range map[string]string{
		"not json":      `{`,
		"bad jwt":       `{"jwt":"abc","ephemeralPublicKey":"AAAA","maxEpoch":1,"randomness":"1"}`,
		"short key":     `{"jwt":"a.b.c","ephemeralPublicKey":"AAAA","maxEpoch":1,"randomness":"1"}`,
		"no epoch":      `{"jwt":"a.b.c","ephemeralPublicKey":"` + crypto.B64(make([]byte, 32)) + `","randomness":"1"}`,
		"randomness":    `{"jwt":"a.b.c","ephemeralPublicKey":"` + crypto.B64(make([]byte, 32)) + `","maxEpoch":1,"randomness":"x"}`,
		"other network": `{"jwt":"a.b.c","ephemeralPublicKey":"` + crypto.B64(make([]byte, 32)) + `","maxEpoch":1,"randomness":"1","network":"mainnet"}`,
	} {
		resp, err := http.Post(f.url+"/api/zkp", "application/json", strings.NewReader(body))
		require.NoError(t, err, name)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, name)
	}
}

func TestProof_UpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.proofs.err = errors.New("upstream down")

	_, err := f.client.RequestProof(context.Background(), domain.ProofRequest{
		Token:              "h.p.s",
		EphemeralPublicKey: crypto.PublicFromSeed(domain.Ed25519Seed{2}),
		MaxEpoch:           5,
		Randomness:         "1",
	})
	assert.ErrorIs(t, err, domain.ErrProofService)
	assert.Contains(t, err.Error(), "502")
}

func TestSponsorThroughRelayClient(t *testing.T) {
	f := newFixture(t)
	sender := domain.NormalizeAddress("0xbeef")
	k := kind(t, "0xaa")

	tx, err := f.client.RequestSponsorship(context.Background(), k, sender)
	require.NoError(t, err)
	assert.Equal(t, k, tx.Bytes[1:1+len(k)])

	signer, ok := crypto.VerifySerialized(tx.Signature, tx.Bytes)
	require.True(t, ok)
	assert.Equal(t, f.spons.Address(), signer)
}

func TestSponsor_RejectsForeignPackage(t *testing.T) {
	f := newFixture(t)
	_, err := f.client.RequestSponsorship(context.Background(), kind(t, "0xbb"), domain.NormalizeAddress("0xbeef"))
	assert.ErrorIs(t, err, domain.ErrSponsorService)
	assert.Contains(t, err.Error(), "403")
}

func TestSponsor_RejectsBadRequests(t *testing.T) {
	f := newFixture(t)
	k := crypto.B64(kind(t, "0xaa"))
	for name, body := range map[string]string{
		"no kind":    `{"sender":"0x1"}`,
		"bad kind":   `{"transactionBlockKindBytes":"!!","sender":"0x1"}`,
		"no sender":  `{"transactionBlockKindBytes":"` + k + `"}`,
		"bad sender": `{"transactionBlockKindBytes":"` + k + `","sender":"0xnothex"}`,
	} {
		resp, err := http.Post(f.url+"/api/sponsor", "application/json", strings.NewReader(body))
		require.NoError(t, err, name)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, name)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.url + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(f.url + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `zkpass_gateway_requests_total{code="200",route="/healthz"} 1`)
}
