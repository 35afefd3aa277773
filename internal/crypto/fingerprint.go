package crypto

import (
	"encoding/hex"

	"zkpass/internal/domain"
)

// fingerprintLen is the number of address bytes kept in a fingerprint.
const fingerprintLen = 10

// Fingerprint names an ephemeral key in logs and in-flight keys without
// revealing it: the leading bytes of the address the key would control.
func Fingerprint(pub domain.Ed25519Public) domain.Fingerprint {
	sum := Blake2b256(ToSuiBytes(pub))
	return domain.Fingerprint(hex.EncodeToString(sum[:fingerprintLen]))
}
