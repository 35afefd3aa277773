package types

import "time"

// Session is one zkLogin authentication session.
//
// A session without an identity token is pending: the ephemeral key and nonce
// inputs exist but the OAuth callback has not delivered the token yet.
type Session struct {
	IdentityToken   IdentityToken `json:"jwt,omitempty"`
	EphemeralSecret string        `json:"ephemeralKeyPair"`
	MaxEpoch        uint64        `json:"maxEpoch"`
	Randomness      string        `json:"randomness"`
	DerivedAddress  *Address      `json:"address,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// Pending reports whether the session is still waiting for its identity token.
func (s Session) Pending() bool { return s.IdentityToken == "" }

// Address returns the derived address, if any.
func (s Session) Address() (Address, bool) {
	if s.DerivedAddress == nil {
		return "", false
	}
	return *s.DerivedAddress, true
}
