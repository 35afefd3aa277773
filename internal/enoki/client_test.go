package enoki_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zkpass/internal/crypto"
	"zkpass/internal/domain"
	"zkpass/internal/enoki"
)

func artifacts() domain.ProofArtifacts {
	return domain.ProofArtifacts{
		ProofPoints: domain.ProofPoints{
			A: []string{"1", "2", "1"},
			B: [][]string{{"3", "4"}, {"5", "6"}, {"1", "0"}},
			C: []string{"7", "8", "1"},
		},
		IssBase64Details: domain.IssBase64Details{Value: "abc", IndexMod4: 2},
		HeaderBase64:     "eyJhbGciOiJSUzI1NiJ9",
		AddressSeed:      "777",
	}
}

var request = domain.ProofRequest{
	Token:              "h.p.s",
	EphemeralPublicKey: crypto.PublicFromSeed(domain.Ed25519Seed{1}),
	MaxEpoch:           9,
	Randomness:         "55",
	Network:            "testnet",
}

func TestRequestProof(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/zklogin/zkp", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		assert.Equal(t, "h.p.s", r.Header.Get("zklogin-jwt"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "testnet", body["network"])
		assert.Equal(t, "55", body["randomness"])
		assert.EqualValues(t, 9, body["maxEpoch"])
		pk, err := base64.StdEncoding.DecodeString(body["ephemeralPublicKey"].(string))
		assert.NoError(t, err)
		assert.Len(t, pk, 33)

		_ = json.NewEncoder(w).Encode(map[string]any{"data": artifacts()})
	}))
	defer srv.Close()

	got, err := enoki.NewClient(srv.URL+"/", "key-1", time.Second).RequestProof(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, artifacts(), got)
}

func TestRequestProof_Failures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"api error": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"errors":[{"code":"invalid_jwt","message":"expired"}]}`))
		},
		"no data": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		},
		"invalid artifacts": func(w http.ResponseWriter, _ *http.Request) {
			a := artifacts()
			a.HeaderBase64 = ""
			_ = json.NewEncoder(w).Encode(map[string]any{"data": a})
		},
		"garbage": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			_, err := enoki.NewClient(srv.URL, "key", time.Second).RequestProof(context.Background(), request)
			assert.ErrorIs(t, err, domain.ErrProofService)
		})
	}
}

func TestRequestProof_NoAPIKey(t *testing.T) {
	_, err := enoki.NewClient("", "", time.Second).RequestProof(context.Background(), request)
	assert.ErrorIs(t, err, domain.ErrProofService)
}
