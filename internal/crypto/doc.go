// Package crypto exposes the key material primitives used by zkpass.
//
// Contents
//
//   - Ephemeral Ed25519 key generation and reconstruction from a 32-byte seed
//     (GenerateEphemeral, PublicFromSeed, EncodeSecret, DecodeSecret)
//   - Ledger signing: intent digests, transaction signatures and their
//     flag||sig||pub serialization (SignTransaction, SerializeSignature)
//   - Address derivation for plain Ed25519 accounts (AddressFromPublicKey)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// Seeds are the only secret material the app persists. Callers should wipe
// seeds they no longer need with memzero.
package crypto
