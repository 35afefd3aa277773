package store

import (
	"crypto/rand"
	"encoding/json"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// sealVersion tags the sealed session layout.
const sealVersion = 2

// ErrWrongPassphrase is returned when a sealed session cannot be opened.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted session")

type sealed struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	Nonce  []byte `json:"nonce"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Cipher []byte `json:"cipher"`
}

// Tunables for scrypt key derivation.
func scryptParamsDefault() (N, r, p int) { return 1 << 15, 8, 1 }

func sessionKey(passphrase string, salt []byte, N, r, p int) ([]byte, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, N, r, p, chacha20poly1305.KeySize)
	return key, errors.Wrap(err, "derive session key")
}

// encrypt seals raw under a key derived from passphrase with XChaCha20-Poly1305.
// The salt is bound as associated data.
func encrypt(passphrase string, raw []byte, N, r, p int) ([]byte, error) {
	s := sealed{V: sealVersion, N: N, R: r, P: p,
		Salt:  make([]byte, 16),
		Nonce: make([]byte, chacha20poly1305.NonceSizeX),
	}
	if _, err := rand.Read(s.Salt); err != nil {
		return nil, err
	}
	if _, err := rand.Read(s.Nonce); err != nil {
		return nil, err
	}
	key, err := sessionKey(passphrase, s.Salt, N, r, p)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	s.Cipher = aead.Seal(nil, s.Nonce, raw, s.Salt)
	return json.Marshal(s)
}

// decrypt opens a record produced by encrypt.
func decrypt(passphrase string, b []byte) ([]byte, error) {
	var s sealed
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, errors.Wrap(err, "decode sealed session")
	}
	if s.V != sealVersion {
		return nil, errors.Errorf("unsupported sealed session version %d", s.V)
	}
	if len(s.Nonce) != chacha20poly1305.NonceSizeX {
		return nil, ErrWrongPassphrase
	}
	key, err := sessionKey(passphrase, s.Salt, s.N, s.R, s.P)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, s.Nonce, s.Cipher, s.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}
