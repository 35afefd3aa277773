// Package bcs implements the subset of Binary Canonical Serialization the
// ledger uses for transaction data and zkLogin signatures: little-endian
// fixed-width integers, ULEB128 lengths, length-prefixed byte strings and
// vectors, and enum variant tags.
package bcs
