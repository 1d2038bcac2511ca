package messages

import "encoding/binary"

// FragmentHeaderSize is the size of a fragment header: object_id(8) +
// fragment_id(8) + flags(1) + length(4).
const FragmentHeaderSize = 21

const (
	flagStart byte = 1 << 0
	flagEnd   byte = 1 << 1
)

// FragmentHeader is one on-wire fragment's header, big-endian throughout.
type FragmentHeader struct {
	ObjectID   uint64
	FragmentID uint64
	Start      bool
	End        bool
	Length     uint32
}

// AppendTo appends the header's wire bytes to buf and returns the result.
func (h FragmentHeader) AppendTo(buf []byte) []byte {
	var b [FragmentHeaderSize]byte
	binary.BigEndian.PutUint64(b[0:8], h.ObjectID)
	binary.BigEndian.PutUint64(b[8:16], h.FragmentID)
	var flags byte
	if h.Start {
		flags |= flagStart
	}
	if h.End {
		flags |= flagEnd
	}
	b[16] = flags
	binary.BigEndian.PutUint32(b[17:21], h.Length)
	return append(buf, b[:]...)
}

// ParseFragmentHeader reads a FragmentHeader from the front of data. It
// returns an error if data is shorter than FragmentHeaderSize.
func ParseFragmentHeader(data []byte) (FragmentHeader, error) {
	if len(data) < FragmentHeaderSize {
		return FragmentHeader{}, &MalformedFrameError{Reason: "fragment header shorter than 21 bytes"}
	}
	flags := data[16]
	return FragmentHeader{
		ObjectID:   binary.BigEndian.Uint64(data[0:8]),
		FragmentID: binary.BigEndian.Uint64(data[8:16]),
		Start:      flags&flagStart != 0,
		End:        flags&flagEnd != 0,
		Length:     binary.BigEndian.Uint32(data[17:21]),
	}, nil
}
