// Package domain holds the vocabulary shared by every zkpass package: ledger
// identifiers, the session record, proof artifacts, transaction intents and
// results, the collaborator interfaces, and the stage-tagged error taxonomy.
//
// The definitions live in the types and interfaces subpackages and are
// re-exported here, so callers import domain alone.
package domain
