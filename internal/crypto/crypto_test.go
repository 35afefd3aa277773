package crypto_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zkpass/internal/crypto"
	"zkpass/internal/domain"
)

func TestEphemeral_SeedRoundTripsThroughEncoding(t *testing.T) {
	seed, pub, err := crypto.GenerateEphemeral()
	require.NoError(t, err)

	got, err := crypto.DecodeSecret(crypto.EncodeSecret(seed))
	require.NoError(t, err)
	assert.Equal(t, seed, got)
	assert.Equal(t, pub, crypto.PublicFromSeed(got))
}

func TestDecodeSecret_AcceptsFlaggedKeystoreForm(t *testing.T) {
	seed := domain.Ed25519Seed{7}
	flagged := base64.StdEncoding.EncodeToString(append([]byte{crypto.FlagEd25519}, seed[:]...))

	got, err := crypto.DecodeSecret(flagged)
	require.NoError(t, err)
	assert.Equal(t, seed, got)
}

func TestDecodeSecret_Rejects(t *testing.T) {
	for _, in := range []string{"not base64!", base64.StdEncoding.EncodeToString([]byte{1, 2, 3})} {
		_, err := crypto.DecodeSecret(in)
		assert.Error(t, err, in)
	}
}

func TestSignAndSerialize_Layout(t *testing.T) {
	seed, pub, err := crypto.GenerateEphemeral()
	require.NoError(t, err)
	tx := []byte("transaction bytes")

	sig := crypto.SignAndSerialize(seed, tx)
	raw, err := base64.StdEncoding.DecodeString(sig)
	require.NoError(t, err)
	require.Len(t, raw, crypto.SerializedSignatureLen)
	assert.Equal(t, crypto.FlagEd25519, raw[0])
	assert.Equal(t, pub[:], raw[65:])

	addr, ok := crypto.VerifySerialized(sig, tx)
	assert.True(t, ok)
	assert.Equal(t, crypto.AddressFromPublicKey(pub), addr)

	_, ok = crypto.VerifySerialized(sig, []byte("other bytes"))
	assert.False(t, ok)
}

func TestSignatureFlag(t *testing.T) {
	seed := domain.Ed25519Seed{1}
	flag, err := crypto.SignatureFlag(crypto.SignAndSerialize(seed, []byte{1}))
	require.NoError(t, err)
	assert.Equal(t, crypto.FlagEd25519, flag)

	_, err = crypto.SignatureFlag(base64.StdEncoding.EncodeToString([]byte{0x09, 1, 2}))
	assert.Error(t, err)
	_, err = crypto.SignatureFlag("%%%")
	assert.Error(t, err)
}

func TestAddressFromPublicKey_Format(t *testing.T) {
	addr := crypto.AddressFromPublicKey(domain.Ed25519Public{})
	assert.True(t, strings.HasPrefix(addr.String(), "0x"))
	assert.Len(t, addr.String(), 66)
	assert.Equal(t, addr, crypto.AddressFromPublicKey(domain.Ed25519Public{}))
	assert.NotEqual(t, addr, crypto.AddressFromPublicKey(domain.Ed25519Public{1}))
}

func TestFingerprint_Short(t *testing.T) {
	fp := crypto.Fingerprint(domain.Ed25519Public{1})
	assert.Len(t, fp.String(), 20)
}

func TestFingerprint_PrefixOfAddress(t *testing.T) {
	pub := domain.Ed25519Public{7}
	fp := crypto.Fingerprint(pub)
	assert.True(t, strings.HasPrefix(crypto.AddressFromPublicKey(pub).String(), "0x"+fp.String()))
	assert.NotEqual(t, fp, crypto.Fingerprint(domain.Ed25519Public{8}))
}
