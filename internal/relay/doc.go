// Package relay provides the HTTP implementation of the domain.ProofClient and
// domain.SponsorClient interfaces.
//
// The relay is the backend the client talks to for the two calls that need
// server-held credentials: proof generation (forwarded to the proving
// service) and gas sponsorship (signed with the sponsor's key).
//
// Responses are untrusted input. They are decoded into explicit wire structs
// and validated before anything else sees them; any transport, status,
// decoding or validation failure is reported as domain.ErrProofService or
// domain.ErrSponsorService. Nothing is retried here.
package relay
