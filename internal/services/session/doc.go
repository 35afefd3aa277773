// Package session owns the lifecycle of the single zkLogin session.
//
// The Manager is the only writer of the session record: it prepares a
// pending session when a login begins, attaches the identity token when the
// OAuth callback arrives, appends the derived address once a proof has been
// obtained, and tears the record down on logout. Reads are polled with a
// bounded retry so a callback that is still in flight does not hang callers.
package session
