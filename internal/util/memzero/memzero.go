// Package memzero wipes key material that is no longer needed.
package memzero

import "runtime"

// Zero clears b. The KeepAlive stops the compiler from treating the writes as dead stores.
func Zero(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}

// Seed clears a 32-byte secret in place.
func Seed(s *[32]byte) {
	if s == nil {
		return
	}
	Zero(s[:])
}
