package runspace

import (
	"errors"
	"fmt"
)

// InvalidPoolStateError is returned when an operation is attempted from a
// RunspacePoolState the operation does not permit.
type InvalidPoolStateError struct {
	Action   string
	Actual   RunspacePoolState
	Expected []RunspacePoolState
}

func (e *InvalidPoolStateError) Error() string {
	return fmt.Sprintf("runspace: %s requires pool state in %v, got %s", e.Action, e.Expected, e.Actual)
}

// IsInvalidPoolState reports whether err is a [*InvalidPoolStateError].
func IsInvalidPoolState(err error) bool {
	var e *InvalidPoolStateError
	return errors.As(err, &e)
}

func requirePoolState(action string, actual RunspacePoolState, allowed ...RunspacePoolState) error {
	for _, a := range allowed {
		if actual == a {
			return nil
		}
	}
	return &InvalidPoolStateError{Action: action, Actual: actual, Expected: allowed}
}

// InvalidPipelineStateError is returned when an operation is attempted
// from a PipelineState the operation does not permit.
type InvalidPipelineStateError struct {
	Action   string
	Actual   PipelineState
	Expected []PipelineState
}

func (e *InvalidPipelineStateError) Error() string {
	return fmt.Sprintf("runspace: %s requires pipeline state in %v, got %s", e.Action, e.Expected, e.Actual)
}

// IsInvalidPipelineState reports whether err is a [*InvalidPipelineStateError].
func IsInvalidPipelineState(err error) bool {
	var e *InvalidPipelineStateError
	return errors.As(err, &e)
}

func requirePipelineState(action string, actual PipelineState, allowed ...PipelineState) error {
	for _, a := range allowed {
		if actual == a {
			return nil
		}
	}
	return &InvalidPipelineStateError{Action: action, Actual: actual, Expected: allowed}
}

// IncompatibleProtocolError is returned when a feature requires a peer
// protocol version higher than the one negotiated.
type IncompatibleProtocolError struct {
	Action          string
	ActualVersion   string
	RequiredVersion string
}

func (e *IncompatibleProtocolError) Error() string {
	return fmt.Sprintf("runspace: %s requires peer protocol >= %s, got %s", e.Action, e.RequiredVersion, e.ActualVersion)
}

// IsIncompatibleProtocol reports whether err is a [*IncompatibleProtocolError].
func IsIncompatibleProtocol(err error) bool {
	var e *IncompatibleProtocolError
	return errors.As(err, &e)
}

// ErrInputTooSmall mirrors messages.ErrInputTooSmall at this layer so
// callers of DataToSend need not import the messages package themselves.
var ErrInputTooSmall = errors.New("runspace: data_to_send limit must be at least 22 bytes")

// ErrPoolBroken names the broken-pool condition. No function in this
// package returns it: operations that require a particular pool state
// reject Broken with an *InvalidPoolStateError, and BrokenError reports
// the error that moved the pool to Broken.
var ErrPoolBroken = errors.New("runspace: pool is broken")

// UnknownCallIDError is returned when a response method (HostResponse,
// RunspaceAvailabilityResponse) is given a call id with no pending
// correlation entry.
type UnknownCallIDError struct {
	CallID int64
}

func (e *UnknownCallIDError) Error() string {
	return fmt.Sprintf("runspace: no pending call with id %d", e.CallID)
}

// MalformedBodyError wraps an envelope body that failed to parse as
// XML before CLIXML decoding could even begin.
type MalformedBodyError struct {
	Reason string
}

func (e *MalformedBodyError) Error() string {
	return "runspace: malformed message body: " + e.Reason
}

// InvalidVersionStringError is returned when a PSVersion-shaped field
// (PSVersion, protocolversion, SerializationVersion) cannot be parsed.
type InvalidVersionStringError struct {
	Value string
}

func (e *InvalidVersionStringError) Error() string {
	return fmt.Sprintf("runspace: invalid version string %q", e.Value)
}
