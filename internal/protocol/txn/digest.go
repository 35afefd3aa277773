package txn

import (
	"github.com/btcsuite/btcutil/base58"
	"github.com/pkg/errors"

	"zkpass/internal/crypto"
	"zkpass/internal/domain"
)

const digestLen = 32

var transactionDataSalt = []byte("TransactionData::")

// DecodeDigest decodes a base58 object or transaction digest.
func DecodeDigest(d domain.Digest) ([]byte, error) {
	b := base58.Decode(d.String())
	if len(b) != digestLen {
		return nil, errors.Errorf("digest %q: want %d bytes, got %d", d, digestLen, len(b))
	}
	return b, nil
}

// EncodeDigest renders a 32-byte digest in base58.
func EncodeDigest(b []byte) domain.Digest { return domain.Digest(base58.Encode(b)) }

// TransactionDigest is the digest the network assigns to transaction data bytes.
func TransactionDigest(txBytes []byte) domain.Digest {
	sum := crypto.Blake2b256(transactionDataSalt, txBytes)
	return EncodeDigest(sum[:])
}
