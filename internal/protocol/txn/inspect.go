package txn

import (
	"github.com/pkg/errors"

	"zkpass/internal/domain"
	"zkpass/internal/protocol/bcs"
)

const (
	objectArgReceiving uint32 = 2
	maxTypeDepth              = 16
)

// KindSummary describes a decoded programmable transaction kind.
type KindSummary struct {
	Inputs int
	Calls  []domain.MoveTarget
}

// InspectKind decodes programmable transaction-kind bytes far enough to list
// the Move calls they make. Kinds with commands other than Move calls are rejected.
func InspectKind(kind []byte) (KindSummary, error) {
	d := bcs.NewDecoder(kind)
	tag, err := d.ULEB128()
	if err != nil {
		return KindSummary{}, errors.Wrap(err, "transaction kind")
	}
	if uint32(tag) != kindProgrammable {
		return KindSummary{}, errors.Errorf("transaction kind %d is not programmable", tag)
	}

	nInputs, err := d.ULEB128()
	if err != nil {
		return KindSummary{}, errors.Wrap(err, "inputs")
	}
	for i := uint64(0); i < nInputs; i++ {
		if err := skipCallArg(d); err != nil {
			return KindSummary{}, errors.Wrapf(err, "input %d", i)
		}
	}

	nCommands, err := d.ULEB128()
	if err != nil {
		return KindSummary{}, errors.Wrap(err, "commands")
	}
	sum := KindSummary{Inputs: int(nInputs)}
	for i := uint64(0); i < nCommands; i++ {
		target, err := readMoveCall(d)
		if err != nil {
			return KindSummary{}, errors.Wrapf(err, "command %d", i)
		}
		sum.Calls = append(sum.Calls, target)
	}
	if d.Remaining() != 0 {
		return KindSummary{}, errors.Errorf("%d trailing bytes after transaction kind", d.Remaining())
	}
	return sum, nil
}

func skipCallArg(d *bcs.Decoder) error {
	tag, err := d.ULEB128()
	if err != nil {
		return err
	}
	switch uint32(tag) {
	case callArgPure:
		_, err = d.BytesVec()
		return err
	case callArgObject:
		kind, err := d.ULEB128()
		if err != nil {
			return err
		}
		switch uint32(kind) {
		case objectArgImmOrOwned, objectArgReceiving:
			if _, err := d.Fixed(domain.AddressLength); err != nil {
				return err
			}
			if _, err := d.U64(); err != nil {
				return err
			}
			_, err = d.BytesVec()
			return err
		case objectArgShared:
			if _, err := d.Fixed(domain.AddressLength); err != nil {
				return err
			}
			if _, err := d.U64(); err != nil {
				return err
			}
			_, err = d.Bool()
			return err
		default:
			return errors.Errorf("unknown object argument %d", kind)
		}
	default:
		return errors.Errorf("unknown call argument %d", tag)
	}
}

func readMoveCall(d *bcs.Decoder) (domain.MoveTarget, error) {
	tag, err := d.ULEB128()
	if err != nil {
		return domain.MoveTarget{}, err
	}
	if uint32(tag) != commandMoveCall {
		return domain.MoveTarget{}, errors.Errorf("command %d is not a move call", tag)
	}
	pkg, err := d.Fixed(domain.AddressLength)
	if err != nil {
		return domain.MoveTarget{}, err
	}
	module, err := d.String()
	if err != nil {
		return domain.MoveTarget{}, err
	}
	function, err := d.String()
	if err != nil {
		return domain.MoveTarget{}, err
	}
	nTypes, err := d.ULEB128()
	if err != nil {
		return domain.MoveTarget{}, err
	}
	for i := uint64(0); i < nTypes; i++ {
		if err := skipTypeTag(d, 0); err != nil {
			return domain.MoveTarget{}, err
		}
	}
	nArgs, err := d.ULEB128()
	if err != nil {
		return domain.MoveTarget{}, err
	}
	for i := uint64(0); i < nArgs; i++ {
		if err := skipArgument(d); err != nil {
			return domain.MoveTarget{}, err
		}
	}

	var id [domain.AddressLength]byte
	copy(id[:], pkg)
	return domain.MoveTarget{
		Package:  domain.ObjectID(domain.AddressFromBytes(id)),
		Module:   module,
		Function: function,
	}, nil
}

func skipTypeTag(d *bcs.Decoder, depth int) error {
	if depth > maxTypeDepth {
		return errors.New("type tag nested too deeply")
	}
	tag, err := d.ULEB128()
	if err != nil {
		return err
	}
	switch uint32(tag) {
	case tagBool, tagU8, tagU16, tagU32, tagU64, tagU128, tagU256, tagAddress, tagSigner:
		return nil
	case tagVector:
		return skipTypeTag(d, depth+1)
	case tagStruct:
		if _, err := d.Fixed(domain.AddressLength); err != nil {
			return err
		}
		if _, err := d.String(); err != nil {
			return err
		}
		if _, err := d.String(); err != nil {
			return err
		}
		n, err := d.ULEB128()
		if err != nil {
			return err
		}
		for i := uint64(0); i < n; i++ {
			if err := skipTypeTag(d, depth+1); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.Errorf("unknown type tag %d", tag)
	}
}

// skipArgument reads one Argument: GasCoin, Input(u16), Result(u16) or NestedResult(u16, u16).
func skipArgument(d *bcs.Decoder) error {
	tag, err := d.ULEB128()
	if err != nil {
		return err
	}
	switch tag {
	case 0:
		return nil
	case 1, 2:
		_, err = d.U16()
		return err
	case 3:
		if _, err := d.U16(); err != nil {
			return err
		}
		_, err = d.U16()
		return err
	default:
		return errors.Errorf("unknown argument %d", tag)
	}
}
