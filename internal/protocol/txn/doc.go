// Package txn serializes transaction intents into ledger transaction bytes.
//
// BuildKind turns a TransactionIntent into a programmable transaction kind
// (inputs and one Move call), resolving object arguments to references
// through the ledger. BuildTransactionData wraps kind bytes with sender, gas
// and expiration. PlanGas selects gas coins for an owner.
package txn
