package events

import (
	"github.com/google/uuid"

	"github.com/smnsjas/go-psrpcore/messages"
	"github.com/smnsjas/go-psrpcore/serialization"
)

// Event is the common interface every typed PSRP event satisfies.
type Event interface {
	// Kind is the message type this event was derived from.
	Kind() messages.PSRPMessageType
	// RunspacePoolID is the pool the originating message targeted.
	RunspacePoolID() uuid.UUID
	// PipelineID returns the pipeline the message targeted, if any.
	PipelineID() (uuid.UUID, bool)
	// Data is the decoded CLIXML payload (nil for markers such as
	// EndOfPipelineInput, which carry an empty body).
	Data() *serialization.PSObject
}

type base struct {
	kind       messages.PSRPMessageType
	poolID     uuid.UUID
	pipelineID uuid.UUID
	hasPipe    bool
	data       *serialization.PSObject
}

func (b base) Kind() messages.PSRPMessageType { return b.kind }
func (b base) RunspacePoolID() uuid.UUID      { return b.poolID }
func (b base) PipelineID() (uuid.UUID, bool)  { return b.pipelineID, b.hasPipe }
func (b base) Data() *serialization.PSObject  { return b.data }

func newBase(kind messages.PSRPMessageType, poolID, pipelineID uuid.UUID, data *serialization.PSObject) base {
	b := base{kind: kind, poolID: poolID, data: data}
	if pipelineID != messages.EmptyGUID {
		b.pipelineID = pipelineID
		b.hasPipe = true
	}
	return b
}

// propString reads a string-valued adapted property by name.
func propString(o *serialization.PSObject, name string) (string, bool) {
	if o == nil {
		return "", false
	}
	v, ok := o.AdaptedGet(name)
	if !ok {
		return "", false
	}
	switch tv := v.(type) {
	case serialization.PSString:
		return string(tv), true
	case string:
		return tv, true
	default:
		return "", false
	}
}

// propInt reads an integer-valued adapted property by name.
func propInt(o *serialization.PSObject, name string) (int64, bool) {
	if o == nil {
		return 0, false
	}
	v, ok := o.AdaptedGet(name)
	if !ok {
		return 0, false
	}
	switch tv := v.(type) {
	case serialization.PSInt32:
		return int64(tv), true
	case serialization.PSInt64:
		return int64(tv), true
	default:
		return 0, false
	}
}

// propBool reads a boolean-valued adapted property by name.
func propBool(o *serialization.PSObject, name string) (bool, bool) {
	if o == nil {
		return false, false
	}
	v, ok := o.AdaptedGet(name)
	if !ok {
		return false, false
	}
	b, ok := v.(serialization.PSBool)
	return bool(b), ok
}

// propRaw returns the raw adapted property value, whatever its shape.
func propRaw(o *serialization.PSObject, name string) (any, bool) {
	if o == nil {
		return nil, false
	}
	return o.AdaptedGet(name)
}
