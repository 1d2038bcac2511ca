package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
)

// SessionCipher implements [serialization.Cipher] with the AES-CBC session
// key negotiated during PSRP key exchange. A zero-value SessionCipher is
// not usable; construct one with NewSessionCipher.
type SessionCipher struct {
	block cipher.Block
}

// NewSessionCipher builds a SessionCipher from a raw (unwrapped) session
// key, as produced by WrapSessionKey or KeyExchange.UnwrapSessionKey.
func NewSessionCipher(key []byte) (*SessionCipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &SessionCipher{block: block}, nil
}

// Encrypt PKCS#7-pads plaintext, AES-CBC encrypts it under a fresh random
// IV, and returns IV||ciphertext.
func (c *SessionCipher) Encrypt(plaintext []byte) ([]byte, error) {
	padded := pkcs7Pad(plaintext, c.block.BlockSize())

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}

	out := make([]byte, len(iv)+len(padded))
	copy(out, iv)
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out[len(iv):], padded)
	return out, nil
}

// Decrypt reverses Encrypt: it splits the leading IV from ciphertext,
// AES-CBC decrypts the remainder, and strips PKCS#7 padding.
func (c *SessionCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < aes.BlockSize {
		return nil, ErrCiphertextTooShort
	}
	iv := ciphertext[:aes.BlockSize]
	body := ciphertext[aes.BlockSize:]
	if len(body) == 0 || len(body)%c.block.BlockSize() != 0 {
		return nil, ErrCiphertextTooShort
	}

	out := make([]byte, len(body))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(out, body)
	return pkcs7Unpad(out)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrInvalidPadding
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) {
		return nil, ErrInvalidPadding
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, ErrInvalidPadding
		}
	}
	return data[:len(data)-padLen], nil
}
