package commands

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zkpass/internal/domain"
	"zkpass/internal/services/session"
)

func TestZkAuth(t *testing.T) {
	sess := domain.Session{IdentityToken: "h.p.s"}
	auth, err := zkAuth(sess, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ZkLoginAuth{Session: sess}, auth)

	absent := fmt.Errorf("%w: %w after 5 attempts", domain.ErrSessionInvalid, session.ErrNoSession)
	auth, err = zkAuth(domain.Session{}, absent)
	require.NoError(t, err)
	assert.Nil(t, auth)

	malformed := fmt.Errorf("%w: bad ephemeral key", domain.ErrSessionInvalid)
	auth, err = zkAuth(domain.Session{}, malformed)
	assert.ErrorIs(t, err, domain.ErrSessionInvalid)
	assert.Nil(t, auth)
	assert.Contains(t, domain.UserMessage(err), "Log in again")
}
