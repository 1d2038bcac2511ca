package runspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smnsjas/go-psrpcore/command"
	"github.com/smnsjas/go-psrpcore/events"
	"github.com/smnsjas/go-psrpcore/messages"
)

// pump relays every packed payload from src to dst until src has nothing
// left to send, simulating a lossless, order-preserving transport.
func pump(t *testing.T, src interface {
	DataToSend(int) (messages.Payload, bool, error)
}, dst interface{ ReceiveData([]byte) }) {
	t.Helper()
	for {
		payload, ok, err := src.DataToSend(4096)
		require.NoError(t, err)
		if !ok {
			return
		}
		dst.ReceiveData(payload.Bytes)
	}
}

func drainAll(t *testing.T, pool interface {
	NextEvent() (events.Event, error)
}) []events.Event {
	t.Helper()
	var out []events.Event
	for {
		ev, err := pool.NextEvent()
		require.NoError(t, err)
		if ev == nil {
			return out
		}
		out = append(out, ev)
	}
}

func openedPair(t *testing.T) (*ClientRunspacePool, *ServerRunspacePool) {
	t.Helper()
	client := NewClientRunspacePool(Config{MinRunspaces: 1, MaxRunspaces: 1})
	server := NewServerRunspacePool(Config{})

	require.NoError(t, client.Open())
	pump(t, client, server)
	drainAll(t, server)

	pump(t, server, client)
	drainAll(t, client)

	return client, server
}

func TestOpenNegotiatesToOpened(t *testing.T) {
	client, server := openedPair(t)
	assert.Equal(t, Opened, server.State())
	assert.Equal(t, Opened, client.State())
	require.NotNil(t, client.peerCapability)
	assert.Equal(t, protocolVersion23, client.peerCapability.ProtocolVersion)
}

func TestOpenFromWrongStateFails(t *testing.T) {
	client := NewClientRunspacePool(Config{})
	require.NoError(t, client.Open())
	err := client.Open()
	assert.True(t, IsInvalidPoolState(err))
}

func TestSetMaxRunspacesShortCircuitsWhenUnchanged(t *testing.T) {
	client, _ := openedPair(t)
	ci, err := client.SetMaxRunspaces(client.MaxRunspaces())
	require.NoError(t, err)
	assert.Equal(t, int64(0), ci)
}

func TestSetMaxRunspacesRoundTrip(t *testing.T) {
	client, server := openedPair(t)

	ci, err := client.SetMaxRunspaces(5)
	require.NoError(t, err)
	assert.NotZero(t, ci)

	pump(t, client, server)
	serverEvents := drainAll(t, server)
	require.Len(t, serverEvents, 1)
	setEvent, ok := serverEvents[0].(events.SetMaxRunspacesEvent)
	require.True(t, ok)
	serverCI, ok := setEvent.CallID()
	require.True(t, ok)
	assert.Equal(t, ci, serverCI)

	require.NoError(t, server.RunspaceAvailabilityResponse(serverCI, true))
	pump(t, server, client)
	clientEvents := drainAll(t, client)
	require.Len(t, clientEvents, 1)
	_, ok = clientEvents[0].(events.SetRunspaceAvailabilityEvent)
	require.True(t, ok)

	assert.Equal(t, 5, client.MaxRunspaces())
	assert.Equal(t, 5, server.MaxRunspaces())
}

func TestGetAvailableRunspacesResponseTypeMismatch(t *testing.T) {
	client, server := openedPair(t)

	ci, err := client.GetAvailableRunspaces()
	require.NoError(t, err)

	pump(t, client, server)
	drainAll(t, server)

	err = server.RunspaceAvailabilityResponse(ci, true)
	assert.Error(t, err)
}

func TestResetRunspaceStateRequiresProtocol23(t *testing.T) {
	client, _ := openedPair(t)
	client.peerCapability.ProtocolVersion = protocolVersion22
	_, err := client.ResetRunspaceState()
	assert.True(t, IsIncompatibleProtocol(err))
}

func TestPipelineLifecycleAndOutput(t *testing.T) {
	client, server := openedPair(t)

	cmd := command.New("Get-Process", false, nil)
	pl := client.NewPipeline(cmd)
	require.NoError(t, pl.Start())

	pump(t, client, server)
	serverPl := server.RegisterPipeline(pl.ID())
	serverEvents := drainAll(t, server)
	var gotCreate bool
	for _, ev := range serverEvents {
		if _, ok := ev.(events.CreatePipelineEvent); ok {
			gotCreate = true
		}
	}
	assert.True(t, gotCreate)

	require.NoError(t, serverPl.Start())
	require.NoError(t, serverPl.WriteOutput(nil))
	require.NoError(t, serverPl.Complete())

	pump(t, server, client)
	clientEvents := drainAll(t, client)

	var sawOutput, sawState bool
	for _, ev := range clientEvents {
		switch ev.(type) {
		case events.PipelineOutputEvent:
			sawOutput = true
		case events.PipelineStateEvent:
			sawState = true
		}
	}
	assert.True(t, sawOutput)
	assert.True(t, sawState)
	assert.Equal(t, Completed, serverPl.State())
}

func TestPipelineSendBeforeStartFails(t *testing.T) {
	client, _ := openedPair(t)
	pl := client.NewPipeline(command.New("Get-Process", false, nil))
	err := pl.Send(nil)
	assert.True(t, IsInvalidPipelineState(err))
}

func TestHostCallVoidMethodUsesSentinelCallID(t *testing.T) {
	_, server := openedPair(t)
	ci, err := server.HostCall(WriteLine2, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, VoidCallID, ci)
}

func TestHostCallCorrelatesResponse(t *testing.T) {
	client, server := openedPair(t)

	ci, err := server.HostCall(ReadLine, nil, nil)
	require.NoError(t, err)
	require.NotEqual(t, VoidCallID, ci)

	pump(t, server, client)
	clientEvents := drainAll(t, client)
	require.Len(t, clientEvents, 1)
	callEvent, ok := clientEvents[0].(events.RunspacePoolHostCallEvent)
	require.True(t, ok)
	gotCI, ok := callEvent.CallID()
	require.True(t, ok)
	assert.Equal(t, ci, gotCI)

	require.NoError(t, client.HostResponse(gotCI, nil, nil))
	pump(t, client, server)
	serverEvents := drainAll(t, server)
	require.Len(t, serverEvents, 1)
	_, ok = serverEvents[0].(events.RunspacePoolHostResponseEvent)
	assert.True(t, ok)
}

func TestDisconnectReconnectCycle(t *testing.T) {
	client, _ := openedPair(t)
	require.NoError(t, client.Disconnect())
	require.NoError(t, client.NotifyDisconnected())
	assert.Equal(t, Disconnected, client.State())

	require.NoError(t, client.Reconnect())
	assert.Equal(t, Connecting, client.State())
}

func TestUnknownMessageTypeIsIgnoredNotErrored(t *testing.T) {
	client, server := openedPair(t)

	env := messages.Envelope{
		Destination:    messages.DestinationServer,
		Type:           messages.PSRPMessageType(0xDEADBEEF),
		RunspacePoolID: client.ID(),
		PipelineID:     messages.EmptyGUID,
		Body:           nil,
	}
	envBytes := env.AppendTo(nil)
	hdr := messages.FragmentHeader{ObjectID: 1, FragmentID: 0, Start: true, End: true, Length: uint32(len(envBytes))}
	server.feed(append(hdr.AppendTo(nil), envBytes...))

	ev, err := server.NextEvent()
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestHostInfoRehydratesOnServer(t *testing.T) {
	client := NewClientRunspacePool(Config{MinRunspaces: 1, MaxRunspaces: 1, HostInfo: HostInfo{UseRunspaceHost: true}})
	server := NewServerRunspacePool(Config{})

	require.NoError(t, client.Open())
	pump(t, client, server)
	drainAll(t, server)

	assert.True(t, server.hostInfo.UseRunspaceHost)
}

func TestFragmentationAcrossSmallTransportLimit(t *testing.T) {
	client := NewClientRunspacePool(Config{MinRunspaces: 1, MaxRunspaces: 1})
	server := NewServerRunspacePool(Config{})

	require.NoError(t, client.Open())

	var fragments int
	for {
		payload, ok, err := client.DataToSend(60)
		require.NoError(t, err)
		if !ok {
			break
		}
		fragments++
		server.ReceiveData(payload.Bytes)
	}
	assert.Greater(t, fragments, 1)
	drainAll(t, server)
}
