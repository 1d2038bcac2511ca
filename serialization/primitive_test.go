package serialization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPSVersionStringOmitsUnsetComponents(t *testing.T) {
	assert.Equal(t, "2.0", NewPSVersion2(2, 0).String())
	assert.Equal(t, "1.1.0.1", PSVersion{Major: 1, Minor: 1, Build: 0, Revision: 1}.String())
}

type staticCipher struct{}

func (staticCipher) Encrypt(plaintext []byte) ([]byte, error) {
	out := make([]byte, len(plaintext))
	copy(out, plaintext)
	return out, nil
}

func (staticCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	out := make([]byte, len(ciphertext))
	copy(out, ciphertext)
	return out, nil
}

func TestSecureStringRoundTrip(t *testing.T) {
	c := staticCipher{}
	ss, err := NewSecureString("hunter2", c)
	require.NoError(t, err)

	got, err := ss.Decrypt(c)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got)
}

func TestSecureStringRequiresCipher(t *testing.T) {
	_, err := NewSecureString("hunter2", nil)
	assert.ErrorIs(t, err, ErrMissingCipher)
}
