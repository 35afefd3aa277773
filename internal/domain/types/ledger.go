package types

import "encoding/json"

// OwnerKind tags an ObjectOwner.
type OwnerKind uint8

const (
	OwnerUnknown OwnerKind = iota
	OwnerAddress
	OwnerObject
	OwnerShared
	OwnerImmutable
)

// ObjectOwner describes who owns an object.
type ObjectOwner struct {
	Kind                 OwnerKind
	Address              Address
	InitialSharedVersion uint64
}

// ObjectRef pins an object at a version.
type ObjectRef struct {
	ObjectID ObjectID `json:"objectId"`
	Version  uint64   `json:"version"`
	Digest   Digest   `json:"digest"`
}

// Object is a ledger object as read over RPC.
type Object struct {
	ObjectRef
	Type    string
	Owner   ObjectOwner
	Fields  map[string]json.RawMessage
	Display map[string]json.RawMessage
}

// ObjectOptions selects which parts of an object a read returns.
type ObjectOptions struct {
	ShowContent bool `json:"showContent,omitempty"`
	ShowDisplay bool `json:"showDisplay,omitempty"`
	ShowOwner   bool `json:"showOwner,omitempty"`
	ShowType    bool `json:"showType,omitempty"`
}

// DynamicFieldInfo is one child of a dynamic-field listing.
type DynamicFieldInfo struct {
	ObjectID   ObjectID `json:"objectId"`
	ObjectType string   `json:"objectType"`
}

// Event is one emitted Move event.
type Event struct {
	TxDigest    Digest
	Type        string
	Sender      Address
	ParsedJSON  json.RawMessage
	TimestampMs uint64
}

// Coin is a spendable gas coin.
type Coin struct {
	ObjectRef
	CoinType string
	Balance  uint64
}

// GasData is the gas section of a transaction.
type GasData struct {
	Payment []ObjectRef
	Owner   Address
	Price   uint64
	Budget  uint64
}
