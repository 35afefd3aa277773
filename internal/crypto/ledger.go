package crypto

import (
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"zkpass/internal/domain"
)

// Signature scheme flags, prepended to public keys and serialized signatures.
const (
	FlagEd25519   byte = 0x00
	FlagSecp256k1 byte = 0x01
	FlagSecp256r1 byte = 0x02
	FlagMultiSig  byte = 0x03
	FlagZkLogin   byte = 0x05
)

// transactionIntent is the intent prefix for transaction data: scope 0, version 0, app id 0.
var transactionIntent = [3]byte{0, 0, 0}

// SerializedSignatureLen is the length of a serialized Ed25519 signature.
const SerializedSignatureLen = 1 + 64 + 32

// Blake2b256 hashes the concatenation of parts.
func Blake2b256(parts ...[]byte) [32]byte {
	h, _ := blake2b.New256(nil) // no key, cannot fail
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// ToSuiBytes returns flag||pub, the form the ledger hashes and the nonce encodes.
func ToSuiBytes(pub domain.Ed25519Public) []byte {
	out := make([]byte, 0, 33)
	out = append(out, FlagEd25519)
	return append(out, pub[:]...)
}

// AddressFromPublicKey derives the account address of a plain Ed25519 key.
func AddressFromPublicKey(pub domain.Ed25519Public) domain.Address {
	return domain.AddressFromBytes(Blake2b256(ToSuiBytes(pub)))
}

// TransactionDigest is the message signed for txBytes: blake2b-256(intent || txBytes).
func TransactionDigest(txBytes []byte) [32]byte {
	return Blake2b256(transactionIntent[:], txBytes)
}

// SignTransaction signs the intent digest of txBytes and returns the raw 64-byte signature.
func SignTransaction(seed domain.Ed25519Seed, txBytes []byte) []byte {
	d := TransactionDigest(txBytes)
	return SignEd25519(seed, d[:])
}

// SerializeSignature encodes base64(flag || sig || pub).
func SerializeSignature(sig []byte, pub domain.Ed25519Public) string {
	out := make([]byte, 0, SerializedSignatureLen)
	out = append(out, FlagEd25519)
	out = append(out, sig...)
	out = append(out, pub[:]...)
	return base64.StdEncoding.EncodeToString(out)
}

// SignAndSerialize signs txBytes with seed and returns the serialized signature.
func SignAndSerialize(seed domain.Ed25519Seed, txBytes []byte) string {
	return SerializeSignature(SignTransaction(seed, txBytes), PublicFromSeed(seed))
}

// SignatureFlag decodes a serialized signature and returns its scheme flag.
func SignatureFlag(serialized string) (byte, error) {
	raw, err := base64.StdEncoding.DecodeString(serialized)
	if err != nil {
		return 0, fmt.Errorf("signature is not base64: %w", err)
	}
	if len(raw) < 2 {
		return 0, fmt.Errorf("signature too short: %d bytes", len(raw))
	}
	switch raw[0] {
	case FlagEd25519:
		if len(raw) != SerializedSignatureLen {
			return 0, fmt.Errorf("ed25519 signature: want %d bytes, got %d", SerializedSignatureLen, len(raw))
		}
	case FlagSecp256k1, FlagSecp256r1, FlagMultiSig, FlagZkLogin:
	default:
		return 0, fmt.Errorf("unknown signature scheme flag 0x%02x", raw[0])
	}
	return raw[0], nil
}

// VerifySerialized checks an Ed25519 serialized signature over txBytes.
func VerifySerialized(serialized string, txBytes []byte) (domain.Address, bool) {
	raw, err := base64.StdEncoding.DecodeString(serialized)
	if err != nil || len(raw) != SerializedSignatureLen || raw[0] != FlagEd25519 {
		return "", false
	}
	var pub domain.Ed25519Public
	copy(pub[:], raw[65:])
	d := TransactionDigest(txBytes)
	return AddressFromPublicKey(pub), VerifyEd25519(pub, d[:], raw[1:65])
}
