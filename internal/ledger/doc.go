// Package ledger is a JSON-RPC client for the ledger fullnode.
//
// It implements domain.LedgerClient: object, dynamic-field and event reads,
// transaction execution, the current epoch, the reference gas price and coin
// listings. Paginated endpoints are followed to the end, up to a fixed page
// limit.
package ledger
