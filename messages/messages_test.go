package messages

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFragmentHeaderRoundTrip(t *testing.T) {
	hdr := FragmentHeader{ObjectID: 1, FragmentID: 2, Start: true, End: false, Length: 39}
	buf := hdr.AppendTo(nil)
	require.Len(t, buf, FragmentHeaderSize)

	got, err := ParseFragmentHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, hdr, got)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	pool := uuid.New()
	env := Envelope{
		Destination:    DestinationServer,
		Type:           SessionCapability,
		RunspacePoolID: pool,
		PipelineID:     EmptyGUID,
		Body:           []byte("<Obj/>"),
	}
	buf := env.AppendTo(nil)
	require.Len(t, buf, EnvelopeHeaderSize+len(env.Body))

	got, err := ParseEnvelope(buf)
	require.NoError(t, err)
	assert.Equal(t, env.Destination, got.Destination)
	assert.Equal(t, env.Type, got.Type)
	assert.Equal(t, env.RunspacePoolID, got.RunspacePoolID)
	assert.Equal(t, env.PipelineID, got.PipelineID)
	assert.Equal(t, env.Body, got.Body)
}

func TestEnvelopeStripsLeadingBOM(t *testing.T) {
	pool := uuid.New()
	env := Envelope{Destination: DestinationClient, Type: SessionCapability, RunspacePoolID: pool, Body: []byte("<Obj/>")}
	buf := env.AppendTo(nil)

	withBOM := append(buf[:EnvelopeHeaderSize:EnvelopeHeaderSize], append([]byte{0xEF, 0xBB, 0xBF}, buf[EnvelopeHeaderSize:]...)...)
	got, err := ParseEnvelope(withBOM)
	require.NoError(t, err)
	assert.Equal(t, []byte("<Obj/>"), got.Body)
}

// TestFragmentSplitting matches the literal scenario: a single 500-byte
// message packed with limit=60 yields 13 payloads: 12x60 bytes (each
// carrying a 39-byte body) plus one final payload, fragment ids 0..12,
// the last with end=true.
func TestFragmentSplitting(t *testing.T) {
	body := make([]byte, 500)
	for i := range body {
		body[i] = byte(i)
	}
	q := NewSendQueue()
	q.Push(NewOutgoingMessage(1, SessionCapability, uuid.New(), EmptyGUID, StreamDefault, body))

	var fragIDs []uint64
	var reassembled []byte
	count := 0
	for {
		payload, ok, err := q.Pack(60)
		require.NoError(t, err)
		if !ok {
			break
		}
		count++
		hdr, err := ParseFragmentHeader(payload.Bytes)
		require.NoError(t, err)
		fragIDs = append(fragIDs, hdr.FragmentID)
		reassembled = append(reassembled, payload.Bytes[FragmentHeaderSize:FragmentHeaderSize+int(hdr.Length)]...)
		if hdr.FragmentID < 12 {
			assert.Len(t, payload.Bytes, FragmentHeaderSize+39)
		}
	}

	assert.Equal(t, 13, count)
	for i, id := range fragIDs {
		assert.EqualValues(t, i, id)
	}
	assert.True(t, fragIDs[len(fragIDs)-1] == 12)
	assert.Equal(t, body, reassembled)
}

func TestPackRejectsSmallLimit(t *testing.T) {
	q := NewSendQueue()
	q.Push(NewOutgoingMessage(1, SessionCapability, uuid.New(), EmptyGUID, StreamDefault, []byte("x")))
	_, _, err := q.Pack(10)
	assert.ErrorIs(t, err, ErrInputTooSmall)
}

func TestPackStopsAtDifferentPipelineTarget(t *testing.T) {
	q := NewSendQueue()
	pool := uuid.New()
	p1, p2 := uuid.New(), uuid.New()
	q.Push(NewOutgoingMessage(1, PipelineInput, pool, p1, StreamDefault, []byte("a")))
	q.Push(NewOutgoingMessage(2, PipelineInput, pool, p2, StreamDefault, []byte("b")))

	payload, ok, err := q.Pack(4096)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p1, payload.PipelineID)
	assert.Equal(t, 1, q.Len())
}

func TestReassembleRoundTrip(t *testing.T) {
	pool := uuid.New()
	body := []byte("hello reassembly")
	env := Envelope{Destination: DestinationServer, Type: SessionCapability, RunspacePoolID: pool, PipelineID: EmptyGUID, Body: body}
	envBytes := env.AppendTo(nil)

	q := NewSendQueue()
	q.Push(NewOutgoingMessage(9, SessionCapability, pool, EmptyGUID, StreamDefault, envBytes))

	r := NewReassembler()
	for {
		payload, ok, err := q.Pack(32)
		require.NoError(t, err)
		if !ok {
			break
		}
		r.Feed(payload.Bytes)
	}

	got, ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, body, got.Body)
	assert.Equal(t, pool, got.RunspacePoolID)
}

func TestReassembleDetectsOutOfOrderFragment(t *testing.T) {
	r := NewReassembler()
	hdr := FragmentHeader{ObjectID: 1, FragmentID: 1, Start: false, End: true, Length: 2}
	r.Feed(hdr.AppendTo(nil))
	r.Feed([]byte("hi"))

	_, _, err := r.Next()
	assert.True(t, IsFragmentOutOfOrder(err))
}

func TestGUIDNetByteOrderRoundTrip(t *testing.T) {
	u := uuid.New()
	net := netBytes(u)
	assert.Equal(t, u, uuidFromNetBytes(net[:]))
}
