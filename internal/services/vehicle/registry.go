package vehicle

import (
	"strings"

	"zkpass/internal/domain"
)

// Module is the Move module of the registry contract.
const Module = "vehicle"

// WalrusAggregator serves blobs whose ids are stored in place of image URLs.
const WalrusAggregator = "https://aggregator.walrus-testnet.walrus.space/v1/blobs"

// Registry locates the deployed contract and its shared objects.
type Registry struct {
	Package      domain.ObjectID
	CarRegistry  domain.ObjectID
	AuthRegistry domain.ObjectID
	AdminCap     domain.ObjectID
}

// DefaultRegistry is the testnet deployment.
var DefaultRegistry = Registry{
	Package:      "0x781ebcf6049b015b991983a0db5e1a5aaad673ad68ee18ab8f94e45a073bea4f",
	CarRegistry:  "0x2167b0c857ab8d99813dec5661fafbcb175f214059ccfdf370a81d1656c38e38",
	AuthRegistry: "0x4abdbcaa3bcaea3369f216b4a442880b71aff59d8a5310337de2ace7e0b72a8a",
	AdminCap:     "0xa36089280d79521ac7778f21670287c4388459e601c668480755becbf66bfc39",
}

func (r Registry) target(function string) domain.MoveTarget {
	return domain.MoveTarget{Package: r.Package, Module: Module, Function: function}
}

// EventType returns the full Move type of an event declared by the module.
func (r Registry) EventType(name string) string {
	return r.Package.String() + "::" + Module + "::" + name
}

// ImageURL turns a stored image reference into a fetchable URL. Bare values are walrus blob ids.
func ImageURL(raw string) string {
	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(raw, "http"):
		return raw
	default:
		return WalrusAggregator + "/" + raw
	}
}
