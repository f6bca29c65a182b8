package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZeroBytes(t *testing.T) {
	b := []byte("secret")
	ZeroBytes(b)
	assert.Equal(t, make([]byte, 6), b)

	s := "secret"
	ZeroString(&s)
	assert.Empty(t, s)
	ZeroString(nil)
}
