package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyExchangeRoundTrip(t *testing.T) {
	var server KeyExchange
	pub, err := server.GenerateKeyPair()
	require.NoError(t, err)
	require.NotEmpty(t, pub)

	sessionKey, wrapped, err := WrapSessionKey(pub)
	require.NoError(t, err)
	require.Len(t, sessionKey, sessionKeyBytes)

	got, err := server.UnwrapSessionKey(wrapped)
	require.NoError(t, err)
	assert.Equal(t, sessionKey, got)
}

func TestUnwrapWithoutKeyPairFails(t *testing.T) {
	var client KeyExchange
	_, err := client.UnwrapSessionKey("AA==")
	assert.ErrorIs(t, err, ErrNoKeyPair)
}

func TestSessionCipherEncryptDecryptRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	c, err := NewSessionCipher(key)
	require.NoError(t, err)

	plaintext := []byte("s\x00e\x00c\x00r\x00e\x00t\x00")
	ct, err := c.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ct)

	pt, err := c.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, plaintext, pt)
}

func TestSessionCipherRejectsShortCiphertext(t *testing.T) {
	c, err := NewSessionCipher(make([]byte, 32))
	require.NoError(t, err)
	_, err = c.Decrypt([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestFullKeyExchangeProducesMatchingCiphers(t *testing.T) {
	var server KeyExchange
	pub, err := server.GenerateKeyPair()
	require.NoError(t, err)

	sessionKey, wrapped, err := WrapSessionKey(pub)
	require.NoError(t, err)

	clientCipher, err := NewSessionCipher(sessionKey)
	require.NoError(t, err)

	unwrapped, err := server.UnwrapSessionKey(wrapped)
	require.NoError(t, err)
	serverCipher, err := NewSessionCipher(unwrapped)
	require.NoError(t, err)

	ct, err := clientCipher.Encrypt([]byte("hello"))
	require.NoError(t, err)
	pt, err := serverCipher.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), pt)
}
