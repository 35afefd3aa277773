package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"zkpass/internal/domain"
)

const (
	sessionFilename       = "zk_session.json"
	sealedSessionFilename = sessionFilename + ".enc"
)

// SessionFileStore persists the single zkLogin session record under dir.
//
// With a passphrase the record is sealed (scrypt + ChaCha20-Poly1305) and
// written to zk_session.json.enc instead of plain JSON.
type SessionFileStore struct {
	dir        string
	passphrase string
	mu         sync.Mutex
}

// FileOption configures a SessionFileStore.
type FileOption func(*SessionFileStore)

// WithPassphrase seals the session record with passphrase.
func WithPassphrase(passphrase string) FileOption {
	return func(s *SessionFileStore) { s.passphrase = passphrase }
}

// NewSessionFileStore returns a SessionFileStore rooted at dir.
func NewSessionFileStore(dir string, opts ...FileOption) *SessionFileStore {
	s := &SessionFileStore{dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SessionFileStore) path() string {
	if s.passphrase != "" {
		return filepath.Join(s.dir, sealedSessionFilename)
	}
	return filepath.Join(s.dir, sessionFilename)
}

// SaveSession replaces the stored session.
func (s *SessionFileStore) SaveSession(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return errors.Wrap(err, "create session dir")
	}
	if s.passphrase == "" {
		return writeJSON(s.path(), session, 0o600)
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	N, r, p := scryptParamsDefault()
	sealed, err := encrypt(s.passphrase, raw, N, r, p)
	if err != nil {
		return errors.Wrap(err, "seal session")
	}
	return writeFile(s.path(), sealed, 0o600)
}

// LoadSession returns the stored session; found is false when none exists.
func (s *SessionFileStore) LoadSession(_ context.Context) (domain.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := readFile(s.path())
	if err != nil || b == nil {
		return domain.Session{}, false, err
	}
	if s.passphrase != "" {
		if b, err = decrypt(s.passphrase, b); err != nil {
			return domain.Session{}, false, err
		}
	}
	var session domain.Session
	if err := json.Unmarshal(b, &session); err != nil {
		return domain.Session{}, false, errors.Wrap(err, "decode session")
	}
	return session, true, nil
}

// DeleteSession removes the stored session. Deleting a missing session is not an error.
func (s *SessionFileStore) DeleteSession(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range []string{sessionFilename, sealedSessionFilename} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Compile-time assertion that SessionFileStore implements domain.SessionStore.
var _ domain.SessionStore = (*SessionFileStore)(nil)
