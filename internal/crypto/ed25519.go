package crypto

import (
	"crypto/ed25519"
	"crypto/rand"

	"zkpass/internal/domain"
	"zkpass/internal/util/memzero"
)

// GenerateEphemeral returns a fresh Ed25519 seed and its public key.
func GenerateEphemeral() (seed domain.Ed25519Seed, pub domain.Ed25519Public, err error) {
	if _, err = rand.Read(seed[:]); err != nil {
		return seed, pub, err
	}
	return seed, PublicFromSeed(seed), nil
}

// PublicFromSeed reconstructs the public key of the keypair derived from seed.
func PublicFromSeed(seed domain.Ed25519Seed) (pub domain.Ed25519Public) {
	sk := ed25519.NewKeyFromSeed(seed[:])
	defer memzero.Zero(sk)
	copy(pub[:], sk[ed25519.SeedSize:])
	return pub
}

// SignEd25519 signs msg with the key derived from seed.
func SignEd25519(seed domain.Ed25519Seed, msg []byte) []byte {
	sk := ed25519.NewKeyFromSeed(seed[:])
	defer memzero.Zero(sk)
	return ed25519.Sign(sk, msg)
}

// VerifyEd25519 verifies sig over msg with pub.
func VerifyEd25519(pub domain.Ed25519Public, msg, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), msg, sig)
}
