// Package executor drives one transaction attempt from an unsigned intent to
// an executed transaction.
//
// An Attempt is a small state machine:
//
//	Idle -> AuthenticatingZk | AuthenticatingWallet -> Submitted -> Confirmed | Failed
//
// The zkLogin path obtains a proof for the session's ephemeral key, derives
// the sender from the token issuer and the proof's address seed, has the
// transaction kind sponsored, signs the sponsored bytes with the ephemeral key
// and submits [zkLogin signature, sponsor signature]. The wallet path hands
// the intent to the wallet, which signs and submits on its own.
//
// Steps run strictly in sequence. Each outbound call has its own timeout and
// the context is checked between steps. A failure discards everything the
// attempt produced; terminal attempts are never re-run.
package executor
