package messages

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// EnvelopeHeaderSize is the size of a message envelope header: destination
// (4) + message_type (4) + runspace_pool_id (16) + pipeline_id (16).
const EnvelopeHeaderSize = 40

// utf8BOM is the optional byte-order mark an envelope body may be prefixed
// with; ParseEnvelope strips it if present.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const (
	// DestinationServer marks a message traveling client→server.
	DestinationServer uint32 = 2
	// DestinationClient marks a message traveling server→client.
	DestinationClient uint32 = 1
)

// Envelope is a decoded message envelope: everything in an on-wire message
// except its CLIXML body, which callers parse separately.
type Envelope struct {
	Destination    uint32
	Type           PSRPMessageType
	RunspacePoolID uuid.UUID
	PipelineID     uuid.UUID
	Body           []byte
}

// AppendTo appends e's wire bytes (header then body, no BOM) to buf.
func (e Envelope) AppendTo(buf []byte) []byte {
	var h [EnvelopeHeaderSize]byte
	binary.LittleEndian.PutUint32(h[0:4], e.Destination)
	binary.LittleEndian.PutUint32(h[4:8], uint32(e.Type))
	poolBytes := netBytes(e.RunspacePoolID)
	pipeBytes := netBytes(e.PipelineID)
	copy(h[8:24], poolBytes[:])
	copy(h[24:40], pipeBytes[:])
	buf = append(buf, h[:]...)
	buf = append(buf, e.Body...)
	return buf
}

// ParseEnvelope decodes an envelope from data, stripping a leading UTF-8
// BOM from the body if present.
func ParseEnvelope(data []byte) (Envelope, error) {
	if len(data) < EnvelopeHeaderSize {
		return Envelope{}, &MalformedFrameError{Reason: "message envelope shorter than 40 bytes"}
	}
	body := data[EnvelopeHeaderSize:]
	if len(body) >= 3 && body[0] == utf8BOM[0] && body[1] == utf8BOM[1] && body[2] == utf8BOM[2] {
		body = body[3:]
	}
	return Envelope{
		Destination:    binary.LittleEndian.Uint32(data[0:4]),
		Type:           PSRPMessageType(binary.LittleEndian.Uint32(data[4:8])),
		RunspacePoolID: uuidFromNetBytes(data[8:24]),
		PipelineID:     uuidFromNetBytes(data[24:40]),
		Body:           body,
	}, nil
}
