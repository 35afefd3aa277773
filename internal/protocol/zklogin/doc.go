// Package zklogin holds the pure zkLogin computations: the address derived
// from an identity token issuer and a proof's address seed, the nonce that
// binds an ephemeral key into the OAuth flow, validation of proof artifacts,
// and composition of the zkLogin signature the ledger verifies.
//
// Nothing in this package performs I/O.
package zklogin
