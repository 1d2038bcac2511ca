package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smnsjas/go-psrpcore/messages"
	"github.com/smnsjas/go-psrpcore/serialization"
)

func TestCreateSessionCapability(t *testing.T) {
	o := serialization.NewObject("System.Management.Automation.Remoting.RemoteSessionCapability")
	o.AdaptedSet("PSVersion", serialization.PSString("2.0"))
	o.AdaptedSet("protocolversion", serialization.PSString("2.3"))
	o.AdaptedSet("SerializationVersion", serialization.PSString("1.1.0.1"))

	pool := uuid.New()
	ev, err := Create(messages.SessionCapability, o, pool, messages.EmptyGUID)
	require.NoError(t, err)

	sc, ok := ev.(SessionCapabilityEvent)
	require.True(t, ok)
	pv, ok := sc.ProtocolVersion()
	require.True(t, ok)
	assert.Equal(t, "2.3", pv)
	assert.Equal(t, pool, sc.RunspacePoolID())
	_, hasPipe := sc.PipelineID()
	assert.False(t, hasPipe)
}

func TestRunspaceAvailabilityDispatchesOnBool(t *testing.T) {
	o := serialization.NewObject("System.Object")
	o.AdaptedSet("SetRunspaceAvailability", serialization.PSBool(true))
	o.AdaptedSet("ci", serialization.PSInt64(4))

	ev, err := Create(messages.RunspaceAvailability, o, uuid.New(), messages.EmptyGUID)
	require.NoError(t, err)

	sa, ok := ev.(SetRunspaceAvailabilityEvent)
	require.True(t, ok)
	assert.True(t, sa.Response)
	ci, ok := sa.CallID()
	require.True(t, ok)
	assert.EqualValues(t, 4, ci)
}

func TestRunspaceAvailabilityDispatchesOnInt(t *testing.T) {
	o := serialization.NewObject("System.Object")
	o.AdaptedSet("SetRunspaceAvailability", serialization.PSInt32(3))

	ev, err := Create(messages.RunspaceAvailability, o, uuid.New(), messages.EmptyGUID)
	require.NoError(t, err)

	ga, ok := ev.(GetRunspaceAvailabilityEvent)
	require.True(t, ok)
	assert.EqualValues(t, 3, ga.Response)
}

func TestRunspaceAvailabilityMissingFieldErrors(t *testing.T) {
	o := serialization.NewObject("System.Object")
	_, err := Create(messages.RunspaceAvailability, o, uuid.New(), messages.EmptyGUID)
	assert.Error(t, err)
}

func TestCreatePipelineTargetedEventCarriesPipelineID(t *testing.T) {
	o := serialization.NewObject("System.Object")
	pool := uuid.New()
	pipe := uuid.New()
	ev, err := Create(messages.PipelineState, o, pool, pipe)
	require.NoError(t, err)

	pid, ok := ev.PipelineID()
	require.True(t, ok)
	assert.Equal(t, pipe, pid)
}

func TestCreateUnknownTypeErrors(t *testing.T) {
	_, err := Create(messages.PSRPMessageType(0xDEADBEEF), nil, uuid.New(), messages.EmptyGUID)
	assert.Error(t, err)
}
