package messages

import (
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// WrapDataPacket renders a fragment payload as the `<Data>` element used by
// connection-oriented carriers (named pipes, HVSocket) that frame PSRP
// traffic as small XML-ish packets rather than raw bytes.
func WrapDataPacket(payload []byte, stream StreamType, psGUID uuid.UUID) string {
	streamName := "Default"
	if stream == StreamPromptResponse {
		streamName = "PromptResponse"
	}
	return fmt.Sprintf("<Data Stream='%s' PSGuid='%s'>%s</Data>\n", streamName, psGUID, base64.StdEncoding.EncodeToString(payload))
}

// WrapGUIDPacket renders a self-closing signal element such as
// `<Command PSGuid='...'/>` or `<Signal PSGuid='...'/>`.
func WrapGUIDPacket(element string, psGUID uuid.UUID) string {
	return fmt.Sprintf("<%s PSGuid='%s' />\n", element, psGUID)
}
