package memzero_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"zkpass/internal/util/memzero"
)

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3}
	memzero.Zero(b)
	assert.Equal(t, []byte{0, 0, 0}, b)
	memzero.Zero(nil)
}

func TestSeed(t *testing.T) {
	s := [32]byte{9, 9, 9}
	memzero.Seed(&s)
	assert.Equal(t, [32]byte{}, s)
	memzero.Seed(nil)
}
