package serialization

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Primitive leaf types. Each corresponds to one CLIXML element in spec.md
// section 4.4. The underlying Go type is chosen to preserve width and
// signedness so a round trip through CLIXML reproduces the exact element
// the peer would have emitted.
type (
	PSString      string
	PSBool        bool
	PSSByte       int8
	PSInt16       int16
	PSInt32       int32
	PSInt64       int64
	PSByte        uint8
	PSUInt16      uint16
	PSUInt32      uint32
	PSUInt64      uint64
	PSSingle      float32
	PSDouble      float64
	PSChar        uint16
	PSByteArray   []byte
	PSDateTime    time.Time
	PSDuration    time.Duration
	PSGuid        uuid.UUID
	PSUri         string
	PSXmlDocument string
	PSScriptBlock string
)

// PSDecimal carries a .NET System.Decimal value in its original textual
// form; float64 cannot represent the full precision .NET decimals support,
// so the raw literal is preserved instead of parsed.
type PSDecimal string

// PSNil is the PSRP "Nil" primitive, equivalent to PowerShell $null.
type PSNil struct{}

// PSVersion is a .NET System.Version: Major and Minor are always present,
// Build and Revision are -1 when absent (matching .NET's own convention).
type PSVersion struct {
	Major    int
	Minor    int
	Build    int
	Revision int
}

// NewPSVersion2 creates a two-component version (Build/Revision unset).
func NewPSVersion2(major, minor int) PSVersion {
	return PSVersion{Major: major, Minor: minor, Build: -1, Revision: -1}
}

// String renders the version the way .NET's Version.ToString() does:
// only as many components are printed as are set.
func (v PSVersion) String() string {
	s := strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor)
	if v.Build >= 0 {
		s += "." + strconv.Itoa(v.Build)
		if v.Revision >= 0 {
			s += "." + strconv.Itoa(v.Revision)
		}
	}
	return s
}

// PSSecureString carries ciphertext for a secure string value. Plaintext is
// only ever available via [PSSecureString.Decrypt] given an installed
// session [Cipher]; it is never stored alongside the ciphertext.
type PSSecureString struct {
	// Ciphertext is the raw AES-CBC encrypted UTF-16LE plaintext, exactly
	// as carried (base64 decoded) in the wire <SS> element.
	Ciphertext []byte
}

// Cipher is the subset of the session crypto provider the serializer needs.
// Implemented by crypto.SessionCipher.
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// Decrypt returns the plaintext string carried by a secure string.
func (s PSSecureString) Decrypt(cipher Cipher) (string, error) {
	if cipher == nil {
		return "", ErrMissingCipher
	}
	raw, err := cipher.Decrypt(s.Ciphertext)
	if err != nil {
		return "", err
	}
	return utf16leToString(raw), nil
}

// NewSecureString encrypts plaintext under cipher and returns the resulting
// secure string value.
func NewSecureString(plaintext string, cipher Cipher) (PSSecureString, error) {
	if cipher == nil {
		return PSSecureString{}, ErrMissingCipher
	}
	ct, err := cipher.Encrypt(stringToUTF16LE(plaintext))
	if err != nil {
		return PSSecureString{}, err
	}
	return PSSecureString{Ciphertext: ct}, nil
}
