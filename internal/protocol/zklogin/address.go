package zklogin

import (
	"math/big"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"zkpass/internal/crypto"
	"zkpass/internal/domain"
)

const (
	googleIssuer      = "accounts.google.com"
	googleIssuerHTTPS = "https://accounts.google.com"

	addressSeedBytes = 32
	maxIssuerLen     = 255
)

// NormalizeIssuer maps the bare Google issuer to its https form; others pass through.
func NormalizeIssuer(iss string) string {
	if iss == googleIssuer {
		return googleIssuerHTTPS
	}
	return iss
}

// ParseAddressSeed parses a decimal address seed that must fit in 32 bytes.
func ParseAddressSeed(s string) (*big.Int, error) {
	seed, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, errors.Errorf("address seed %q is not a decimal integer", s)
	}
	if seed.Sign() < 0 {
		return nil, errors.New("address seed is negative")
	}
	if seed.BitLen() > 8*addressSeedBytes {
		return nil, errors.Errorf("address seed exceeds %d bytes", addressSeedBytes)
	}
	return seed, nil
}

// AddressForm selects how the seed is laid out in the address preimage.
type AddressForm int

const (
	// LegacyAddress strips leading zero bytes from the big-endian seed. It is
	// the form wallets and the reference SDK derive by default.
	LegacyAddress AddressForm = iota
	// PaddedAddress keeps the seed as a fixed 32-byte big-endian value.
	PaddedAddress
)

// ResolveAddress derives the zkLogin account address in the legacy form.
func ResolveAddress(seed *big.Int, issuer string) (domain.Address, error) {
	return ResolveAddressForm(seed, issuer, LegacyAddress)
}

// ResolveAddressForm derives the zkLogin account address:
// blake2b-256(flag || len(iss) || iss || seed bytes), with the seed laid out per form.
func ResolveAddressForm(seed *big.Int, issuer string, form AddressForm) (domain.Address, error) {
	if seed == nil || seed.Sign() < 0 || seed.BitLen() > 8*addressSeedBytes {
		return "", errors.New("address seed out of range")
	}
	iss := NormalizeIssuer(issuer)
	if iss == "" {
		return "", errors.New("issuer is empty")
	}
	if len(iss) > maxIssuerLen {
		return "", errors.Errorf("issuer longer than %d bytes", maxIssuerLen)
	}

	sum := crypto.Blake2b256([]byte{crypto.FlagZkLogin, byte(len(iss))}, []byte(iss), seedBytes(seed, form))
	return domain.AddressFromBytes(sum), nil
}

func seedBytes(seed *big.Int, form AddressForm) []byte {
	if form == PaddedAddress {
		out := make([]byte, addressSeedBytes)
		return seed.FillBytes(out)
	}
	// A zero seed keeps a single zero byte.
	if seed.Sign() == 0 {
		return []byte{0}
	}
	return seed.Bytes()
}

// IssuerFromToken reads the issuer claim from an identity token without
// verifying it. Malformed tokens fail with domain.ErrTokenMalformed.
func IssuerFromToken(token domain.IdentityToken) (string, error) {
	if strings.Count(token.String(), ".") != 2 {
		return "", errors.Wrap(domain.ErrTokenMalformed, "token must have three segments")
	}
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token.String(), claims)
	// A token whose signing algorithm is unknown still has decodable claims.
	if err != nil && !errors.Is(err, jwt.ErrTokenUnverifiable) {
		return "", errors.Wrapf(domain.ErrTokenMalformed, "parse token: %v", err)
	}
	iss, err := claims.GetIssuer()
	if err != nil {
		return "", errors.Wrapf(domain.ErrTokenMalformed, "issuer claim: %v", err)
	}
	if iss == "" {
		return "", errors.Wrap(domain.ErrTokenMalformed, "token has no issuer")
	}
	return iss, nil
}

// AddressFromToken resolves the address for a decimal seed and the token's issuer.
// Every failure is domain.ErrTokenMalformed.
func AddressFromToken(seed string, token domain.IdentityToken) (domain.Address, error) {
	iss, err := IssuerFromToken(token)
	if err != nil {
		return "", err
	}
	n, err := ParseAddressSeed(seed)
	if err != nil {
		return "", errors.Wrapf(domain.ErrTokenMalformed, "%v", err)
	}
	addr, err := ResolveAddress(n, iss)
	if err != nil {
		return "", errors.Wrapf(domain.ErrTokenMalformed, "%v", err)
	}
	return addr, nil
}
