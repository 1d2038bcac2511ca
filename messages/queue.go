package messages

import "github.com/google/uuid"

// StreamType selects which of the two PSRP streams a payload travels on.
// The transport may prioritize PromptResponse over Default; the codec
// itself only records which stream a packed payload belongs to.
type StreamType int

const (
	StreamDefault StreamType = iota
	StreamPromptResponse
)

// OutgoingMessage is one queued, not-yet-fully-transmitted message: its
// complete message bytes plus the fragment cursor tracking how much of
// them has been sent.
type OutgoingMessage struct {
	ObjectID       uint64
	Type           PSRPMessageType
	RunspacePoolID uuid.UUID
	PipelineID     uuid.UUID
	Stream         StreamType
	body           []byte
	sent           int
	nextFragmentID uint64
}

// NewOutgoingMessage builds an OutgoingMessage from its envelope fields.
// body is fragmented as given: it must be the complete message bytes (the
// 40-byte envelope header followed by the CLIXML payload, as produced by
// [Envelope.AppendTo]), because the receiving [Reassembler] parses an
// envelope from the reassembled bytes.
func NewOutgoingMessage(objectID uint64, msgType PSRPMessageType, poolID, pipelineID uuid.UUID, stream StreamType, body []byte) *OutgoingMessage {
	return &OutgoingMessage{
		ObjectID:       objectID,
		Type:           msgType,
		RunspacePoolID: poolID,
		PipelineID:     pipelineID,
		Stream:         stream,
		body:           body,
	}
}

func (m *OutgoingMessage) envelope() Envelope {
	return Envelope{
		Destination:    DestinationServer,
		Type:           m.Type,
		RunspacePoolID: m.RunspacePoolID,
		PipelineID:     m.PipelineID,
		Body:           m.body,
	}
}

// exhausted reports whether every body byte has already been fragmented.
// A zero-length body (EndOfPipelineInput) is exhausted only after its one
// empty fragment has been emitted.
func (m *OutgoingMessage) exhausted() bool {
	return m.sent >= len(m.body) && m.nextFragmentID > 0
}

func (m *OutgoingMessage) remaining() int {
	return len(m.body) - m.sent
}

// SendQueue holds outgoing messages awaiting fragmentation, in FIFO order.
type SendQueue struct {
	items []*OutgoingMessage
}

// NewSendQueue returns an empty SendQueue.
func NewSendQueue() *SendQueue {
	return &SendQueue{}
}

// Push appends a message to the back of the queue.
func (q *SendQueue) Push(m *OutgoingMessage) {
	q.items = append(q.items, m)
}

// Len reports how many messages (fully or partially sent) remain queued.
func (q *SendQueue) Len() int {
	return len(q.items)
}

// Payload is one packed fragment group ready for the transport.
type Payload struct {
	Bytes      []byte
	Stream     StreamType
	PipelineID uuid.UUID
}

// Pack implements the fragmentation codec of spec section 4.1: it drains
// the queue's messages in FIFO order into fragments that together fit
// limit bytes, stopping at the first message whose pipeline id differs
// from the payload's pipeline id. It returns ok=false when the queue is
// empty; any limit it accepts leaves room for at least one fragment of the
// first message.
func (q *SendQueue) Pack(limit int) (Payload, bool, error) {
	if limit < FragmentHeaderSize+1 {
		return Payload{}, false, ErrInputTooSmall
	}
	if len(q.items) == 0 {
		return Payload{}, false, nil
	}

	var out []byte
	stream := q.items[0].Stream
	pipelineID := q.items[0].PipelineID
	remaining := limit
	consumed := 0

	for consumed < len(q.items) {
		msg := q.items[consumed]
		if consumed > 0 && msg.PipelineID != pipelineID {
			break
		}
		if remaining < FragmentHeaderSize+1 {
			break
		}

		avail := remaining - FragmentHeaderSize
		take := msg.remaining()
		if take > avail {
			take = avail
		}

		start := msg.nextFragmentID == 0
		chunk := msg.body[msg.sent : msg.sent+take]
		msg.sent += take
		end := msg.sent >= len(msg.body)

		hdr := FragmentHeader{
			ObjectID:   msg.ObjectID,
			FragmentID: msg.nextFragmentID,
			Start:      start,
			End:        end,
			Length:     uint32(len(chunk)),
		}
		msg.nextFragmentID++

		out = hdr.AppendTo(out)
		out = append(out, chunk...)
		remaining -= FragmentHeaderSize + len(chunk)

		if msg.exhausted() {
			consumed++
		} else {
			break
		}
	}

	if consumed > 0 {
		q.items = q.items[consumed:]
	}

	if len(out) == 0 {
		return Payload{}, false, nil
	}
	return Payload{Bytes: out, Stream: stream, PipelineID: pipelineID}, true, nil
}
