// Package vehicle reads the car registry contract and builds the intents of
// its admin calls. Reads go straight to the ledger; writes are returned as
// domain.TransactionIntent values for the executor to run.
package vehicle
