package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
)

const sessionKeyBytes = 32

// KeyExchange holds one side's RSA key-pair state across a PSRP key
// exchange. The zero value is ready to use; GenerateKeyPair must run before
// UnwrapSessionKey.
type KeyExchange struct {
	private *rsa.PrivateKey
}

// GenerateKeyPair creates a fresh 2048-bit RSA key pair and returns its
// public key encoded as base64(PKCS#1 DER), the form carried by a PublicKey
// message.
func (k *KeyExchange) GenerateKeyPair() (string, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return "", err
	}
	k.private = priv
	der := x509.MarshalPKCS1PublicKey(&priv.PublicKey)
	return base64.StdEncoding.EncodeToString(der), nil
}

// WrapSessionKey generates a random session key, wraps it with the peer's
// RSA public key (PKCS#1 v1.5), and returns both the raw session key and
// its wrapped, base64-encoded form for an EncryptedSessionKey message.
func WrapSessionKey(peerPublicKeyBase64 string) (sessionKey []byte, wrappedBase64 string, err error) {
	der, err := base64.StdEncoding.DecodeString(peerPublicKeyBase64)
	if err != nil {
		return nil, "", err
	}
	pub, err := x509.ParsePKCS1PublicKey(der)
	if err != nil {
		return nil, "", err
	}

	key := make([]byte, sessionKeyBytes)
	if _, err := rand.Read(key); err != nil {
		return nil, "", err
	}

	wrapped, err := rsa.EncryptPKCS1v15(rand.Reader, pub, key)
	if err != nil {
		return nil, "", err
	}
	return key, base64.StdEncoding.EncodeToString(wrapped), nil
}

// UnwrapSessionKey decrypts a wrapped, base64-encoded session key using the
// key pair generated by a prior call to GenerateKeyPair.
func (k *KeyExchange) UnwrapSessionKey(wrappedBase64 string) ([]byte, error) {
	if k.private == nil {
		return nil, ErrNoKeyPair
	}
	wrapped, err := base64.StdEncoding.DecodeString(wrappedBase64)
	if err != nil {
		return nil, err
	}
	return rsa.DecryptPKCS1v15(rand.Reader, k.private, wrapped)
}
