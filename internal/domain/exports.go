package domain

import (
	interfaces "zkpass/internal/domain/interfaces"
	types "zkpass/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Address              = types.Address
	ObjectID             = types.ObjectID
	Digest               = types.Digest
	Network              = types.Network
	IdentityToken        = types.IdentityToken
	Fingerprint          = types.Fingerprint
	Ed25519Public        = types.Ed25519Public
	Ed25519Seed          = types.Ed25519Seed
	Session              = types.Session
	ProofPoints          = types.ProofPoints
	IssBase64Details     = types.IssBase64Details
	ProofArtifacts       = types.ProofArtifacts
	ProofRequest         = types.ProofRequest
	MoveTarget           = types.MoveTarget
	ArgKind              = types.ArgKind
	Argument             = types.Argument
	TransactionIntent    = types.TransactionIntent
	SponsoredTransaction = types.SponsoredTransaction
	CompoundSignature    = types.CompoundSignature
	ExecutionResult      = types.ExecutionResult
	OwnerKind            = types.OwnerKind
	ObjectOwner          = types.ObjectOwner
	ObjectRef            = types.ObjectRef
	Object               = types.Object
	ObjectOptions        = types.ObjectOptions
	DynamicFieldInfo     = types.DynamicFieldInfo
	Event                = types.Event
	Coin                 = types.Coin
	GasData              = types.GasData
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	SessionStore         = interfaces.SessionStore
	SessionManager       = interfaces.SessionManager
	ProofClient          = interfaces.ProofClient
	SponsorClient        = interfaces.SponsorClient
	ObjectReader         = interfaces.ObjectReader
	TransactionSubmitter = interfaces.TransactionSubmitter
	EpochSource          = interfaces.EpochSource
	GasSource            = interfaces.GasSource
	LedgerClient         = interfaces.LedgerClient
	KindBuilder          = interfaces.KindBuilder
	WalletAdapter        = interfaces.WalletAdapter
	AuthSession          = interfaces.AuthSession
	ZkLoginAuth          = interfaces.ZkLoginAuth
	WalletAuth           = interfaces.WalletAuth
)

// Argument constructors.
var (
	ObjectArg   = types.ObjectArg
	PureU8      = types.PureU8
	PureU64     = types.PureU64
	PureBool    = types.PureBool
	PureString  = types.PureString
	PureAddress = types.PureAddress
	PureID      = types.PureID
)

// NormalizeAddress lower-cases, prefixes and pads an address.
func NormalizeAddress(s string) Address { return types.NormalizeAddress(s) }

// Address length, owner kinds and argument kinds.
const (
	AddressLength = types.AddressLength

	OwnerUnknown   = types.OwnerUnknown
	OwnerAddress   = types.OwnerAddress
	OwnerObject    = types.OwnerObject
	OwnerShared    = types.OwnerShared
	OwnerImmutable = types.OwnerImmutable

	ArgObject      = types.ArgObject
	ArgPureU8      = types.ArgPureU8
	ArgPureU64     = types.ArgPureU64
	ArgPureBool    = types.ArgPureBool
	ArgPureString  = types.ArgPureString
	ArgPureAddress = types.ArgPureAddress
	ArgPureID      = types.ArgPureID
)

// AddressFromBytes renders a 32-byte address.
func AddressFromBytes(b [types.AddressLength]byte) Address { return types.AddressFromBytes(b) }
