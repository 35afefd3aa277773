// Package wallet implements domain.WalletAdapter with keys from a local
// keystore file. The wallet signs and submits on its own and pays its own gas;
// it never involves the proving or sponsoring services.
package wallet

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"zkpass/internal/crypto"
	"zkpass/internal/domain"
	"zkpass/internal/util/memzero"
)

// Keystore holds the Ed25519 keys of a keystore file: a JSON array of
// base64(flag || 32-byte secret). Keys of other schemes are skipped.
type Keystore struct {
	keys []domain.Ed25519Seed
}

// LoadKeystore reads the keystore file at path.
func LoadKeystore(path string) (*Keystore, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read keystore")
	}
	var entries []string
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, errors.Wrap(err, "decode keystore")
	}
	ks := &Keystore{}
	for i, e := range entries {
		raw, err := base64.StdEncoding.DecodeString(e)
		if err != nil {
			return nil, errors.Wrapf(err, "keystore entry %d", i)
		}
		if len(raw) != 33 || raw[0] != crypto.FlagEd25519 {
			memzero.Zero(raw)
			continue
		}
		var seed domain.Ed25519Seed
		copy(seed[:], raw[1:])
		memzero.Zero(raw)
		ks.keys = append(ks.keys, seed)
	}
	if len(ks.keys) == 0 {
		return nil, errors.New("keystore has no ed25519 keys")
	}
	return ks, nil
}

// Addresses lists the addresses of the keys in file order.
func (k *Keystore) Addresses() []domain.Address {
	out := make([]domain.Address, len(k.keys))
	for i, seed := range k.keys {
		out[i] = crypto.AddressFromPublicKey(crypto.PublicFromSeed(seed))
	}
	return out
}

// Key selects a key by address, or by index when selector is a small integer.
// An empty selector picks the first key.
func (k *Keystore) Key(selector string) (domain.Ed25519Seed, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return k.keys[0], nil
	}
	if !strings.HasPrefix(selector, "0x") {
		if i, err := strconv.Atoi(selector); err == nil {
			if i < 0 || i >= len(k.keys) {
				return domain.Ed25519Seed{}, errors.Errorf("keystore has no key #%d", i)
			}
			return k.keys[i], nil
		}
	}
	want := domain.NormalizeAddress(selector)
	for i, addr := range k.Addresses() {
		if addr == want {
			return k.keys[i], nil
		}
	}
	return domain.Ed25519Seed{}, errors.Errorf("keystore has no key for %s", want)
}
