package messages

// DecodedMessage is one fully reassembled message, ready for envelope
// parsing and CLIXML decoding by the caller.
type DecodedMessage struct {
	Envelope Envelope
}

// Reassembler consumes fragment headers plus bodies from a receive buffer
// and reconstructs complete messages. One Reassembler instance belongs to
// exactly one runspace pool endpoint; it tracks assembly buffers across
// calls to Feed.
type Reassembler struct {
	buf       []byte
	assembly  map[uint64][]byte
	nextFrag  map[uint64]uint64
}

// NewReassembler returns an empty Reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{
		assembly: map[uint64][]byte{},
		nextFrag: map[uint64]uint64{},
	}
}

// Feed appends newly received bytes to the internal receive buffer.
func (r *Reassembler) Feed(data []byte) {
	r.buf = append(r.buf, data...)
}

// Next consumes as many complete fragments as are available and returns
// the next fully reassembled message, if any. Callers should call Next
// repeatedly until ok is false to drain every message the current buffer
// contents make available.
//
// Fragments for a given object id must arrive with strictly increasing,
// contiguous fragment ids starting at 0; a gap is reported as a
// [*FragmentOutOfOrderError] and the Reassembler must not be used further
// (the pool owning it transitions to Broken).
func (r *Reassembler) Next() (Envelope, bool, error) {
	for {
		if len(r.buf) < FragmentHeaderSize {
			return Envelope{}, false, nil
		}
		hdr, err := ParseFragmentHeader(r.buf)
		if err != nil {
			return Envelope{}, false, err
		}
		total := FragmentHeaderSize + int(hdr.Length)
		if len(r.buf) < total {
			return Envelope{}, false, nil
		}
		body := r.buf[FragmentHeaderSize:total]
		r.buf = r.buf[total:]

		expected := r.nextFrag[hdr.ObjectID]
		if hdr.FragmentID != expected {
			return Envelope{}, false, &FragmentOutOfOrderError{
				ObjectID:   hdr.ObjectID,
				ExpectedID: expected,
				ActualID:   hdr.FragmentID,
			}
		}
		r.nextFrag[hdr.ObjectID] = expected + 1

		r.assembly[hdr.ObjectID] = append(r.assembly[hdr.ObjectID], body...)

		if hdr.End {
			full := r.assembly[hdr.ObjectID]
			delete(r.assembly, hdr.ObjectID)
			delete(r.nextFrag, hdr.ObjectID)

			env, err := ParseEnvelope(full)
			if err != nil {
				return Envelope{}, false, err
			}
			return env, true, nil
		}
		// Fragment buffered; keep consuming to look for a complete message.
	}
}
