package types

import "fmt"

// MoveTarget names a Move function: package::module::function.
type MoveTarget struct {
	Package  ObjectID
	Module   string
	Function string
}

// String renders the target the way the ledger prints it.
func (t MoveTarget) String() string {
	return fmt.Sprintf("%s::%s::%s", t.Package, t.Module, t.Function)
}

// ArgKind tags an Argument.
type ArgKind uint8

const (
	ArgObject ArgKind = iota
	ArgPureU8
	ArgPureU64
	ArgPureBool
	ArgPureString
	ArgPureAddress
	ArgPureID
)

// Argument is one ordered, typed argument of a Move call.
type Argument struct {
	Kind ArgKind

	Object ObjectID
	// ReadOnly marks a shared object argument as immutably borrowed.
	ReadOnly bool

	U8      uint8
	U64     uint64
	Bool    bool
	String  string
	Address Address
}

// ObjectArg references an on-chain object by id.
func ObjectArg(id ObjectID) Argument { return Argument{Kind: ArgObject, Object: id} }

// PureU8 is an 8-bit unsigned integer argument.
func PureU8(v uint8) Argument { return Argument{Kind: ArgPureU8, U8: v} }

// PureU64 is a 64-bit unsigned integer argument.
func PureU64(v uint64) Argument { return Argument{Kind: ArgPureU64, U64: v} }

// PureBool is a boolean argument.
func PureBool(v bool) Argument { return Argument{Kind: ArgPureBool, Bool: v} }

// PureString is a UTF-8 string argument.
func PureString(s string) Argument { return Argument{Kind: ArgPureString, String: s} }

// PureAddress is an address argument.
func PureAddress(a Address) Argument { return Argument{Kind: ArgPureAddress, Address: a} }

// PureID is an object id passed by value (Move `ID`).
func PureID(id ObjectID) Argument { return Argument{Kind: ArgPureID, Address: Address(id)} }

// TransactionIntent is an unsigned description of one Move call.
// Sender is empty until the executor (or wallet) assigns it.
type TransactionIntent struct {
	Target        MoveTarget
	TypeArguments []string
	Arguments     []Argument
	Sender        Address
}

// WithSender returns a copy of the intent addressed from sender.
func (i TransactionIntent) WithSender(sender Address) TransactionIntent {
	i.Sender = sender
	return i
}

// SponsoredTransaction is the sponsor-funded transaction and the sponsor's signature over it.
type SponsoredTransaction struct {
	Bytes     []byte
	Signature string
}

// CompoundSignature lists signatures in the order the network verifies them.
type CompoundSignature []string

// ExecutionResult is what the network returns for an executed transaction.
type ExecutionResult struct {
	Digest      Digest            `json:"digest"`
	Status      string            `json:"status"`
	StatusError string            `json:"statusError,omitempty"`
	Signatures  CompoundSignature `json:"signatures,omitempty"`
}

// Succeeded reports whether the effects status is success.
func (r ExecutionResult) Succeeded() bool { return r.Status == "success" }
