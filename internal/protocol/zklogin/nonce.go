package zklogin

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"
	"github.com/pkg/errors"

	"zkpass/internal/crypto"
	"zkpass/internal/domain"
)

const (
	randomnessBytes = 16
	nonceBytes      = 20
)

// NonceLength is the length of an encoded nonce.
const NonceLength = 27

// GenerateRandomness returns 16 random bytes rendered as a decimal string.
func GenerateRandomness() (string, error) {
	var b [randomnessBytes]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", errors.Wrap(err, "read randomness")
	}
	return new(big.Int).SetBytes(b[:]).String(), nil
}

// GenerateNonce computes the OAuth nonce committing to the ephemeral key, the
// max epoch and the randomness:
// poseidon(pk_hi, pk_lo, maxEpoch, randomness), last 20 bytes, base64url without padding.
func GenerateNonce(pub domain.Ed25519Public, maxEpoch uint64, randomness string) (string, error) {
	r, ok := new(big.Int).SetString(randomness, 10)
	if !ok || r.Sign() < 0 {
		return "", errors.Errorf("randomness %q is not a non-negative decimal integer", randomness)
	}

	pk := new(big.Int).SetBytes(crypto.ToSuiBytes(pub))
	shift := new(big.Int).Lsh(big.NewInt(1), 128)
	hi, lo := new(big.Int).QuoRem(pk, shift, new(big.Int))

	h, err := poseidon.Hash([]*big.Int{hi, lo, new(big.Int).SetUint64(maxEpoch), r})
	if err != nil {
		return "", errors.Wrap(err, "poseidon")
	}

	var full [32]byte
	h.FillBytes(full[:])
	return base64.RawURLEncoding.EncodeToString(full[len(full)-nonceBytes:]), nil
}
