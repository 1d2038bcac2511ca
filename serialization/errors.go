package serialization

import "errors"

// ErrMissingCipher is returned when a secure string must be encrypted or
// decrypted but no session cipher has been installed yet (key exchange has
// not completed).
var ErrMissingCipher = errors.New("serialization: no session cipher installed, complete key exchange first")

// MalformedCLIXMLError indicates the CLIXML document could not be parsed or
// is missing elements the decoder requires.
type MalformedCLIXMLError struct {
	Reason string
}

func (e *MalformedCLIXMLError) Error() string {
	return "serialization: malformed CLIXML: " + e.Reason
}

// IsMalformedCLIXML reports whether err is a [*MalformedCLIXMLError].
func IsMalformedCLIXML(err error) bool {
	var m *MalformedCLIXMLError
	return errors.As(err, &m)
}
