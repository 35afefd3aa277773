// Package store persists the single zkLogin session record.
//
// Two implementations of domain.SessionStore are provided:
//   - SessionFileStore writes zk_session.json under the configured home
//     directory, or a sealed zk_session.json.enc (scrypt + ChaCha20-Poly1305)
//     when a passphrase is set. Writes go through a temp file and rename.
//   - RedisSessionStore keeps the record under one key with an optional TTL,
//     for deployments where several processes share a session.
//
// Both are safe for concurrent use. A missing record is reported as
// found == false, never as an error.
package store
