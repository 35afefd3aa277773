package types

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressLength is the byte length of ledger addresses and object ids.
const AddressLength = 32

// Address is a 0x-prefixed, 64 hex digit ledger account address.
type Address string

// String returns the string form of the address.
func (a Address) String() string { return string(a) }

// Bytes decodes the address into its 32-byte form.
func (a Address) Bytes() ([AddressLength]byte, error) {
	return decodeHex32(string(a))
}

// ObjectID identifies an on-chain object. It shares the address encoding.
type ObjectID string

// String returns the string form of the object id.
func (id ObjectID) String() string { return string(id) }

// Bytes decodes the object id into its 32-byte form.
func (id ObjectID) Bytes() ([AddressLength]byte, error) {
	return decodeHex32(string(id))
}

// Digest is a base58 transaction or object digest.
type Digest string

// String returns the string form of the digest.
func (d Digest) String() string { return string(d) }

// Network names the ledger deployment (mainnet, testnet, devnet).
type Network string

// String returns the string form of the network name.
func (n Network) String() string { return string(n) }

// IdentityToken is a raw, third-party issued JWT.
type IdentityToken string

// String returns the raw token.
func (t IdentityToken) String() string { return string(t) }

// Fingerprint is a short identifier for public keys presented in logs and to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// NormalizeAddress lower-cases s, adds the 0x prefix and left-pads it to 64 hex digits.
func NormalizeAddress(s string) Address {
	h := strings.ToLower(strings.TrimSpace(s))
	h = strings.TrimPrefix(h, "0x")
	if len(h) < 2*AddressLength {
		h = strings.Repeat("0", 2*AddressLength-len(h)) + h
	}
	return Address("0x" + h)
}

// AddressFromBytes renders a 32-byte address.
func AddressFromBytes(b [AddressLength]byte) Address {
	return Address("0x" + hex.EncodeToString(b[:]))
}

func decodeHex32(s string) (out [AddressLength]byte, err error) {
	h := string(NormalizeAddress(s))[2:]
	if len(h) != 2*AddressLength {
		return out, fmt.Errorf("address %q: want %d hex digits, got %d", s, 2*AddressLength, len(h))
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return out, fmt.Errorf("address %q: %w", s, err)
	}
	copy(out[:], b)
	return out, nil
}
