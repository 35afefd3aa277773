package txn

import (
	"strings"

	"github.com/pkg/errors"

	"zkpass/internal/domain"
	"zkpass/internal/protocol/bcs"
)

// TypeTag variants.
const (
	tagBool uint32 = iota
	tagU8
	tagU64
	tagU128
	tagAddress
	tagSigner
	tagVector
	tagStruct
	tagU16
	tagU32
	tagU256
)

var primitiveTags = map[string]uint32{
	"bool":    tagBool,
	"u8":      tagU8,
	"u16":     tagU16,
	"u32":     tagU32,
	"u64":     tagU64,
	"u128":    tagU128,
	"u256":    tagU256,
	"address": tagAddress,
	"signer":  tagSigner,
}

// encodeTypeTag writes the BCS TypeTag for a Move type string such as
// "u64", "vector<u8>" or "0x2::coin::Coin<0x2::sui::SUI>".
func encodeTypeTag(e *bcs.Encoder, s string) error {
	s = strings.TrimSpace(s)
	if tag, ok := primitiveTags[s]; ok {
		e.Variant(tag)
		return nil
	}
	if strings.HasPrefix(s, "vector<") && strings.HasSuffix(s, ">") {
		e.Variant(tagVector)
		return encodeTypeTag(e, s[len("vector<"):len(s)-1])
	}

	head, params := s, ""
	if i := strings.IndexByte(s, '<'); i >= 0 {
		if !strings.HasSuffix(s, ">") {
			return errors.Errorf("type %q: unbalanced type parameters", s)
		}
		head, params = s[:i], s[i+1:len(s)-1]
	}
	parts := strings.Split(head, "::")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return errors.Errorf("type %q: want address::module::name", s)
	}
	addr, err := domain.NormalizeAddress(parts[0]).Bytes()
	if err != nil {
		return errors.Wrapf(err, "type %q", s)
	}

	e.Variant(tagStruct)
	e.Fixed(addr[:])
	e.String(parts[1])
	e.String(parts[2])

	args, err := splitTypeParams(params)
	if err != nil {
		return errors.Wrapf(err, "type %q", s)
	}
	e.ULEB128(uint64(len(args)))
	for _, a := range args {
		if err := encodeTypeTag(e, a); err != nil {
			return err
		}
	}
	return nil
}

// splitTypeParams splits a comma separated list at nesting depth zero.
func splitTypeParams(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
			if depth < 0 {
				return nil, errors.New("unbalanced type parameters")
			}
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, errors.New("unbalanced type parameters")
	}
	return append(out, strings.TrimSpace(s[start:])), nil
}
