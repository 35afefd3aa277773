package txn

import (
	"context"

	"github.com/pkg/errors"

	"zkpass/internal/domain"
	"zkpass/internal/protocol/bcs"
)

// Enum tags of the transaction wire format.
const (
	kindProgrammable uint32 = 0

	callArgPure   uint32 = 0
	callArgObject uint32 = 1

	objectArgImmOrOwned uint32 = 0
	objectArgShared     uint32 = 1

	commandMoveCall uint32 = 0

	argumentInput uint32 = 1

	transactionDataV1 uint32 = 0
	expirationNone    uint32 = 0
)

// Builder serializes transaction intents. Object arguments are resolved
// through the ledger at build time.
type Builder struct {
	objects domain.ObjectReader
}

// NewBuilder returns a Builder reading object metadata from objects.
func NewBuilder(objects domain.ObjectReader) *Builder {
	return &Builder{objects: objects}
}

// BuildKind serializes intent as a programmable transaction kind.
func (b *Builder) BuildKind(ctx context.Context, intent domain.TransactionIntent) ([]byte, error) {
	pkg, err := intent.Target.Package.Bytes()
	if err != nil {
		return nil, errors.Wrap(err, "move target package")
	}
	if intent.Target.Module == "" || intent.Target.Function == "" {
		return nil, errors.Errorf("move target %s is incomplete", intent.Target)
	}

	refs, err := b.resolveObjects(ctx, intent.Arguments)
	if err != nil {
		return nil, err
	}

	// A shared object used mutably anywhere is passed mutably.
	mutable := map[domain.ObjectID]bool{}
	for _, arg := range intent.Arguments {
		if arg.Kind == domain.ArgObject {
			id := domain.ObjectID(domain.NormalizeAddress(arg.Object.String()))
			mutable[id] = mutable[id] || !arg.ReadOnly
		}
	}

	inputs := bcs.NewEncoder()
	var (
		nInputs   uint16
		argIndex  = make([]uint16, len(intent.Arguments))
		objectIdx = map[domain.ObjectID]uint16{}
	)
	for i, arg := range intent.Arguments {
		if arg.Kind == domain.ArgObject {
			id := domain.ObjectID(domain.NormalizeAddress(arg.Object.String()))
			if idx, ok := objectIdx[id]; ok {
				argIndex[i] = idx
				continue
			}
			if err := encodeObjectInput(inputs, refs[id], mutable[id]); err != nil {
				return nil, errors.Wrapf(err, "argument %d", i)
			}
			objectIdx[id] = nInputs
		} else {
			pure, err := encodePure(arg)
			if err != nil {
				return nil, errors.Wrapf(err, "argument %d", i)
			}
			inputs.Variant(callArgPure).BytesVec(pure)
		}
		argIndex[i] = nInputs
		nInputs++
	}

	e := bcs.NewEncoder()
	e.Variant(kindProgrammable)
	e.ULEB128(uint64(nInputs))
	e.Fixed(inputs.Bytes())

	// One command: the Move call.
	e.ULEB128(1)
	e.Variant(commandMoveCall)
	e.Fixed(pkg[:])
	e.String(intent.Target.Module)
	e.String(intent.Target.Function)
	e.ULEB128(uint64(len(intent.TypeArguments)))
	for _, ta := range intent.TypeArguments {
		if err := encodeTypeTag(e, ta); err != nil {
			return nil, err
		}
	}
	e.Vec(len(argIndex), func(i int) { e.Variant(argumentInput).U16(argIndex[i]) })

	return e.Bytes(), nil
}

type objectInput struct {
	ref   domain.ObjectRef
	owner domain.ObjectOwner
}

func (b *Builder) resolveObjects(ctx context.Context, args []domain.Argument) (map[domain.ObjectID]objectInput, error) {
	var ids []domain.ObjectID
	seen := map[domain.ObjectID]bool{}
	for _, a := range args {
		if a.Kind != domain.ArgObject {
			continue
		}
		id := domain.ObjectID(domain.NormalizeAddress(a.Object.String()))
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	out := make(map[domain.ObjectID]objectInput, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	if b.objects == nil {
		return nil, errors.New("object arguments need a ledger reader")
	}

	objs, err := b.objects.MultiGetObjects(ctx, ids, domain.ObjectOptions{ShowOwner: true})
	if err != nil {
		return nil, errors.Wrap(err, "resolve object arguments")
	}
	for _, o := range objs {
		id := domain.ObjectID(domain.NormalizeAddress(o.ObjectID.String()))
		out[id] = objectInput{ref: o.ObjectRef, owner: o.Owner}
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			return nil, errors.Errorf("object %s not found", id)
		}
	}
	return out, nil
}

func encodeObjectInput(e *bcs.Encoder, in objectInput, mutable bool) error {
	id, err := in.ref.ObjectID.Bytes()
	if err != nil {
		return err
	}
	e.Variant(callArgObject)
	if in.owner.Kind == domain.OwnerShared {
		e.Variant(objectArgShared)
		e.Fixed(id[:])
		e.U64(in.owner.InitialSharedVersion)
		e.Bool(mutable)
		return nil
	}
	e.Variant(objectArgImmOrOwned)
	return encodeObjectRef(e, in.ref)
}

func encodeObjectRef(e *bcs.Encoder, ref domain.ObjectRef) error {
	id, err := ref.ObjectID.Bytes()
	if err != nil {
		return err
	}
	digest, err := DecodeDigest(ref.Digest)
	if err != nil {
		return err
	}
	e.Fixed(id[:])
	e.U64(ref.Version)
	e.BytesVec(digest)
	return nil
}

// encodePure returns the BCS bytes of a pure argument value.
func encodePure(a domain.Argument) ([]byte, error) {
	e := bcs.NewEncoder()
	switch a.Kind {
	case domain.ArgPureU8:
		e.U8(a.U8)
	case domain.ArgPureU64:
		e.U64(a.U64)
	case domain.ArgPureBool:
		e.Bool(a.Bool)
	case domain.ArgPureString:
		e.String(a.String)
	case domain.ArgPureAddress, domain.ArgPureID:
		addr, err := a.Address.Bytes()
		if err != nil {
			return nil, err
		}
		e.Fixed(addr[:])
	default:
		return nil, errors.Errorf("unsupported argument kind %d", a.Kind)
	}
	return e.Bytes(), nil
}

// BuildTransactionData wraps kind bytes into versioned transaction data with
// sender, gas and no expiration.
func BuildTransactionData(kind []byte, sender domain.Address, gas domain.GasData) ([]byte, error) {
	if len(kind) == 0 || kind[0] != byte(kindProgrammable) {
		return nil, errors.New("transaction kind is not a programmable transaction")
	}
	from, err := sender.Bytes()
	if err != nil {
		return nil, errors.Wrap(err, "sender")
	}
	owner, err := gas.Owner.Bytes()
	if err != nil {
		return nil, errors.Wrap(err, "gas owner")
	}
	if len(gas.Payment) == 0 {
		return nil, errors.New("gas payment is empty")
	}

	e := bcs.NewEncoder()
	e.Variant(transactionDataV1)
	e.Fixed(kind)
	e.Fixed(from[:])
	e.ULEB128(uint64(len(gas.Payment)))
	for _, ref := range gas.Payment {
		if err := encodeObjectRef(e, ref); err != nil {
			return nil, errors.Wrap(err, "gas payment")
		}
	}
	e.Fixed(owner[:])
	e.U64(gas.Price)
	e.U64(gas.Budget)
	e.Variant(expirationNone)
	return e.Bytes(), nil
}
