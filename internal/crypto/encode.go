package crypto

import (
	"encoding/base64"
	"fmt"

	"zkpass/internal/domain"
)

// B64 returns standard base64 encoding without newlines.
func B64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// EncodeSecret renders a seed for persistence.
func EncodeSecret(seed domain.Ed25519Seed) string { return B64(seed[:]) }

// DecodeSecret parses a persisted seed. It accepts the bare 32-byte seed and
// the keystore form flag||seed with the Ed25519 flag.
func DecodeSecret(s string) (seed domain.Ed25519Seed, err error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return seed, fmt.Errorf("decode secret: %w", err)
	}
	switch {
	case len(raw) == len(seed):
		copy(seed[:], raw)
	case len(raw) == len(seed)+1 && raw[0] == FlagEd25519:
		copy(seed[:], raw[1:])
	default:
		return seed, fmt.Errorf("decode secret: unexpected length %d", len(raw))
	}
	return seed, nil
}
