package crypto

import "errors"

// ErrNoKeyPair is returned by UnwrapSessionKey when no RSA key pair has been
// generated yet on this side of the exchange.
var ErrNoKeyPair = errors.New("crypto: no RSA key pair generated, call GenerateKeyPair first")

// ErrCiphertextTooShort is returned when a ciphertext is shorter than one
// AES block (so it cannot contain even an IV), or when the part after the
// IV is empty or not a whole number of AES blocks.
var ErrCiphertextTooShort = errors.New("crypto: ciphertext shorter than one AES block")

// ErrInvalidPadding is returned when AES-CBC decryption yields a PKCS#7
// padding byte count that does not fit the decrypted data.
var ErrInvalidPadding = errors.New("crypto: invalid PKCS#7 padding")
