package messages

import (
	"errors"
	"fmt"
)

// ErrInputTooSmall is returned by [SendQueue.Pack] when limit cannot hold a
// fragment header plus at least one body byte.
var ErrInputTooSmall = errors.New("messages: data_to_send limit must be at least 22 bytes")

// FragmentOutOfOrderError is a fatal reassembly error: the poisoned
// receive buffer means the owning pool must move to Broken.
type FragmentOutOfOrderError struct {
	ObjectID   uint64
	ExpectedID uint64
	ActualID   uint64
}

func (e *FragmentOutOfOrderError) Error() string {
	return fmt.Sprintf("messages: object %d: expected fragment %d, got %d", e.ObjectID, e.ExpectedID, e.ActualID)
}

// IsFragmentOutOfOrder reports whether err is a [*FragmentOutOfOrderError].
func IsFragmentOutOfOrder(err error) bool {
	var f *FragmentOutOfOrderError
	return errors.As(err, &f)
}

// MalformedFrameError indicates a fragment header or message envelope
// could not be parsed.
type MalformedFrameError struct {
	Reason string
}

func (e *MalformedFrameError) Error() string {
	return "messages: malformed frame: " + e.Reason
}

// ResponseTypeMismatchError is returned when a RunspaceAvailability
// response's dynamic type does not match what the originating request
// (Set/Reset expects bool, GetAvailableRunspaces expects integer) called
// for.
type ResponseTypeMismatchError struct {
	Reason string
}

func (e *ResponseTypeMismatchError) Error() string {
	return "messages: response type mismatch: " + e.Reason
}
