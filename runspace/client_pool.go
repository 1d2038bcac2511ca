package runspace

import (
	"github.com/google/uuid"

	"github.com/smnsjas/go-psrpcore/command"
	"github.com/smnsjas/go-psrpcore/crypto"
	"github.com/smnsjas/go-psrpcore/events"
	"github.com/smnsjas/go-psrpcore/messages"
	"github.com/smnsjas/go-psrpcore/serialization"
)

type ciHandlerKind int

const (
	ciHandlerSetMax ciHandlerKind = iota
	ciHandlerSetMin
	ciHandlerReset
	ciHandlerGetAvailable
)

type ciHandler struct {
	kind  ciHandlerKind
	value int
}

// hostCallEvent records enough about an incoming host call to answer it
// later: which wire shape (pipeline- or pool-targeted) the response must
// take.
type hostCallEvent struct {
	pipelineID uuid.UUID
	hasPipe    bool
}

// ClientRunspacePool drives the client side of a runspace pool's state
// machine: it enqueues requests, absorbs the server's replies, and
// exposes its pipelines.
type ClientRunspacePool struct {
	poolCore

	keyExchange  crypto.KeyExchange
	keyRequested bool

	applicationPrivateData *serialization.PSObject

	ciHandlers map[int64]ciHandler
	ciEvents   map[int64]hostCallEvent

	pipelines map[uuid.UUID]*ClientPipeline
}

// NewClientRunspacePool constructs a client pool in state BeforeOpen.
func NewClientRunspacePool(cfg Config) *ClientRunspacePool {
	return &ClientRunspacePool{
		poolCore:   newPoolCore(cfg),
		ciHandlers: map[int64]ciHandler{},
		ciEvents:   map[int64]hostCallEvent{},
		pipelines:  map[uuid.UUID]*ClientPipeline{},
	}
}

// Open requires BeforeOpen. It enqueues SessionCapability followed by
// InitRunspacePool and moves the pool to Opening.
func (p *ClientRunspacePool) Open() error {
	if err := requirePoolState("open", p.state, BeforeOpen); err != nil {
		return err
	}
	if err := p.enqueue(messages.SessionCapability, messages.EmptyGUID, p.ourCapability.ToPSObject(), messages.StreamDefault); err != nil {
		return err
	}
	if err := p.enqueue(messages.InitRunspacePool, messages.EmptyGUID, p.initRunspacePoolObject(), messages.StreamDefault); err != nil {
		return err
	}
	p.setState(Opening)
	return nil
}

func (p *ClientRunspacePool) initRunspacePoolObject() *serialization.PSObject {
	o := serialization.NewObject("System.Management.Automation.PSObject")
	o.AdaptedSet("MinRunspaces", serialization.PSInt32(p.minRunspaces))
	o.AdaptedSet("MaxRunspaces", serialization.PSInt32(p.maxRunspaces))
	o.AdaptedSet("ThreadOptions", serialization.PSInt32(p.threadOptions))
	o.AdaptedSet("ApartmentState", serialization.PSInt32(p.apartmentState))
	o.AdaptedSet("HostInfo", p.hostInfo.ToPSObject())
	if p.appArguments != nil {
		o.AdaptedSet("ApplicationArguments", p.appArguments)
	} else {
		o.AdaptedSet("ApplicationArguments", serialization.PSNil{})
	}
	return o
}

// Connect requires Disconnected or BeforeOpen. It enqueues
// SessionCapability followed by ConnectRunspacePool and moves the pool to
// Connecting; completion arrives as ApplicationPrivateData.
func (p *ClientRunspacePool) Connect() error {
	if err := requirePoolState("connect", p.state, Disconnected, BeforeOpen); err != nil {
		return err
	}
	if err := p.enqueue(messages.SessionCapability, messages.EmptyGUID, p.ourCapability.ToPSObject(), messages.StreamDefault); err != nil {
		return err
	}
	o := serialization.NewObject("System.Management.Automation.PSObject")
	o.AdaptedSet("MinRunspaces", serialization.PSInt32(p.minRunspaces))
	o.AdaptedSet("MaxRunspaces", serialization.PSInt32(p.maxRunspaces))
	if err := p.enqueue(messages.ConnectRunspacePool, messages.EmptyGUID, o, messages.StreamDefault); err != nil {
		return err
	}
	p.setState(Connecting)
	return nil
}

// Disconnect requires Opened. It moves the pool to Disconnecting; the
// caller is responsible for signaling disconnect via the transport, the
// same contract begin_stop() uses for pipelines.
func (p *ClientRunspacePool) Disconnect() error {
	if err := requirePoolState("disconnect", p.state, Opened); err != nil {
		return err
	}
	p.setState(Disconnecting)
	return nil
}

// NotifyDisconnected records that the transport has completed a
// disconnect, moving the pool from Disconnecting to Disconnected.
func (p *ClientRunspacePool) NotifyDisconnected() error {
	if err := requirePoolState("notify_disconnected", p.state, Disconnecting); err != nil {
		return err
	}
	p.setState(Disconnected)
	return nil
}

// Close requires Opened or Disconnected. It moves the pool to Closing;
// the caller tears down the transport and calls NotifyClosed.
func (p *ClientRunspacePool) Close() error {
	if err := requirePoolState("close", p.state, Opened, Disconnected); err != nil {
		return err
	}
	p.setState(Closing)
	return nil
}

// NotifyClosed completes a Close, moving the pool to Closed.
func (p *ClientRunspacePool) NotifyClosed() error {
	if err := requirePoolState("notify_closed", p.state, Closing); err != nil {
		return err
	}
	p.setState(Closed)
	return nil
}

// ExchangeKey is a no-op if key exchange was already requested. It
// requires Opened, generates an RSA key pair, and enqueues PublicKey.
func (p *ClientRunspacePool) ExchangeKey() error {
	if p.keyRequested {
		return nil
	}
	if err := requirePoolState("exchange_key", p.state, Opened); err != nil {
		return err
	}
	pub, err := p.keyExchange.GenerateKeyPair()
	if err != nil {
		return err
	}
	o := serialization.NewObject("System.Management.Automation.PSObject")
	o.AdaptedSet("PublicKey", serialization.PSString(pub))
	if err := p.enqueue(messages.PublicKey, messages.EmptyGUID, o, messages.StreamDefault); err != nil {
		return err
	}
	p.keyRequested = true
	return nil
}

// GetAvailableRunspaces allocates a call id, enqueues
// GetAvailableRunspaces, and returns the call id the eventual
// RunspaceAvailability response will correlate to.
func (p *ClientRunspacePool) GetAvailableRunspaces() (int64, error) {
	if err := requirePoolState("get_available_runspaces", p.state, Opened); err != nil {
		return 0, err
	}
	ci := p.nextCallID()
	p.ciHandlers[ci] = ciHandler{kind: ciHandlerGetAvailable}
	o := serialization.NewObject("System.Management.Automation.PSObject")
	o.AdaptedSet("ci", serialization.PSInt64(ci))
	if err := p.enqueue(messages.GetAvailableRunspaces, messages.EmptyGUID, o, messages.StreamDefault); err != nil {
		return 0, err
	}
	return ci, nil
}

// ResetRunspaceState requires peer protocol version >= 2.3.
func (p *ClientRunspacePool) ResetRunspaceState() (int64, error) {
	if err := requirePoolState("reset_runspace_state", p.state, Opened); err != nil {
		return 0, err
	}
	if err := p.requirePeerAtLeast("reset_runspace_state", protocolVersion23); err != nil {
		return 0, err
	}
	ci := p.nextCallID()
	p.ciHandlers[ci] = ciHandler{kind: ciHandlerReset}
	o := serialization.NewObject("System.Management.Automation.PSObject")
	o.AdaptedSet("ci", serialization.PSInt64(ci))
	if err := p.enqueue(messages.ResetRunspaceState, messages.EmptyGUID, o, messages.StreamDefault); err != nil {
		return 0, err
	}
	return ci, nil
}

// SetMaxRunspaces short-circuits (no wire traffic, ci==0) when the pool
// is not yet open or n already equals the current maximum.
func (p *ClientRunspacePool) SetMaxRunspaces(n int) (int64, error) {
	if p.state != Opened || n == p.maxRunspaces {
		return 0, nil
	}
	ci := p.nextCallID()
	p.ciHandlers[ci] = ciHandler{kind: ciHandlerSetMax, value: n}
	o := serialization.NewObject("System.Management.Automation.PSObject")
	o.AdaptedSet("MaxRunspaces", serialization.PSInt32(n))
	o.AdaptedSet("ci", serialization.PSInt64(ci))
	if err := p.enqueue(messages.SetMaxRunspaces, messages.EmptyGUID, o, messages.StreamDefault); err != nil {
		return 0, err
	}
	return ci, nil
}

// SetMinRunspaces mirrors SetMaxRunspaces for the minimum bound.
func (p *ClientRunspacePool) SetMinRunspaces(n int) (int64, error) {
	if p.state != Opened || n == p.minRunspaces {
		return 0, nil
	}
	ci := p.nextCallID()
	p.ciHandlers[ci] = ciHandler{kind: ciHandlerSetMin, value: n}
	o := serialization.NewObject("System.Management.Automation.PSObject")
	o.AdaptedSet("MinRunspaces", serialization.PSInt32(n))
	o.AdaptedSet("ci", serialization.PSInt64(ci))
	if err := p.enqueue(messages.SetMinRunspaces, messages.EmptyGUID, o, messages.StreamDefault); err != nil {
		return 0, err
	}
	return ci, nil
}

// HostResponse correlates ci with the stored host-call event and enqueues
// the matching {Pipeline,RunspacePool}HostResponse on the prompt_response
// stream. The ci_events entry is dropped only once the enqueue succeeds.
func (p *ClientRunspacePool) HostResponse(ci int64, returnValue any, errorRecord any) error {
	evt, ok := p.ciEvents[ci]
	if !ok {
		return &UnknownCallIDError{CallID: ci}
	}
	o := serialization.NewObject("System.Management.Automation.PSObject")
	o.AdaptedSet("ci", serialization.PSInt64(ci))
	if returnValue != nil {
		o.AdaptedSet("mr", returnValue)
	}
	if errorRecord != nil {
		o.AdaptedSet("me", errorRecord)
	}

	msgType := messages.RunspacePoolHostResponse
	pipelineID := messages.EmptyGUID
	if evt.hasPipe {
		msgType = messages.PipelineHostResponse
		pipelineID = evt.pipelineID
	}
	if err := p.enqueue(msgType, pipelineID, o, messages.StreamPromptResponse); err != nil {
		return err
	}
	delete(p.ciEvents, ci)
	return nil
}

func (p *ClientRunspacePool) requirePeerAtLeast(action string, min serialization.PSVersion) error {
	if p.peerCapability == nil || !versionAtLeast(p.peerCapability.ProtocolVersion, min) {
		actual := "unknown"
		if p.peerCapability != nil {
			actual = p.peerCapability.ProtocolVersion.String()
		}
		return &IncompatibleProtocolError{Action: action, ActualVersion: actual, RequiredVersion: min.String()}
	}
	return nil
}

// DataToSend packs as much queued outbound traffic as fits limit.
func (p *ClientRunspacePool) DataToSend(limit int) (messages.Payload, bool, error) {
	return p.dataToSend(limit)
}

// ReceiveData feeds newly arrived transport bytes into the reassembler.
func (p *ClientRunspacePool) ReceiveData(data []byte) {
	p.feed(data)
}

// NextEvent drains and applies one fully reassembled incoming message, if
// any is ready, returning its decoded event. Envelopes of an unrecognized
// message type are logged and skipped, not surfaced as an error; draining
// continues until a recognized event is found or no envelope is ready.
func (p *ClientRunspacePool) NextEvent() (events.Event, error) {
	for {
		env, ok, err := p.nextEnvelope()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		ev, err := p.decodeEnvelope(env)
		if err != nil {
			return nil, err
		}
		if ev == nil {
			continue
		}
		if err := p.applyIncoming(ev); err != nil {
			return ev, err
		}
		return ev, nil
	}
}

// Pipeline returns the client pipeline registered under id, if any.
func (p *ClientRunspacePool) Pipeline(id uuid.UUID) (*ClientPipeline, bool) {
	pl, ok := p.pipelines[id]
	return pl, ok
}

// NewPipeline registers and returns a new client pipeline bound to this
// pool.
func (p *ClientRunspacePool) NewPipeline(cmd *command.Command) *ClientPipeline {
	pl := newClientPipeline(p, uuid.New(), cmd)
	p.pipelines[pl.id] = pl
	return pl
}

func (p *ClientRunspacePool) applyIncoming(ev events.Event) error {
	switch e := ev.(type) {
	case events.SessionCapabilityEvent:
		cap, err := sessionCapabilityFromEvent(e)
		if err != nil {
			return err
		}
		p.peerCapability = &cap
		if p.state == Opening {
			p.setState(NegotiationSent)
		}
	case events.ApplicationPrivateDataEvent:
		if v, ok := e.ApplicationPrivateData(); ok {
			if o, ok := v.(*serialization.PSObject); ok {
				p.applicationPrivateData = o
			}
		}
		switch p.state {
		case Connecting, Opening, NegotiationSent, NegotiationSucceeded:
			p.setState(Opened)
		}
	case events.RunspacePoolInitDataEvent:
		if v, ok := e.MinRunspaces(); ok {
			p.minRunspaces = int(v)
		}
		if v, ok := e.MaxRunspaces(); ok {
			p.maxRunspaces = int(v)
		}
	case events.RunspacePoolStateEvent:
		if v, ok := e.RunspaceState(); ok {
			p.setState(RunspacePoolState(v))
		}
		if v, ok := e.ExceptionAsErrorRecord(); ok {
			if po, ok := v.(*serialization.PSObject); ok {
				if rec, ok := po.Rehydrated.(*ErrorRecord); ok && p.logger != nil {
					p.logger.Warn("runspace pool reported error record", "pool", p.id, "category", rec.CategoryInfo)
				}
			}
		}
	case events.PublicKeyRequestEvent:
		return p.ExchangeKey()
	case events.EncryptedSessionKeyEvent:
		wrapped, ok := e.EncryptedSessionKey()
		if !ok {
			return nil
		}
		key, err := p.keyExchange.UnwrapSessionKey(wrapped)
		if err != nil {
			return err
		}
		return p.installCipher(key)
	case events.SetRunspaceAvailabilityEvent:
		p.applySetAvailability(e)
	case events.GetRunspaceAvailabilityEvent:
		if ci, ok := e.CallID(); ok {
			delete(p.ciHandlers, ci)
		}
	case events.RunspacePoolHostCallEvent:
		if ci, ok := e.CallID(); ok && ci != VoidCallID {
			p.ciEvents[ci] = hostCallEvent{}
		}
	case events.PipelineHostCallEvent:
		if ci, ok := e.CallID(); ok && ci != VoidCallID {
			pid, hasPipe := e.PipelineID()
			p.ciEvents[ci] = hostCallEvent{pipelineID: pid, hasPipe: hasPipe}
		}
	case events.PipelineStateEvent:
		if pid, ok := e.PipelineID(); ok {
			if pl, ok := p.pipelines[pid]; ok {
				if v, ok := e.PipelineState(); ok {
					pl.setState(PipelineState(v), p.logger)
				}
			}
		}
	}
	return nil
}

func (p *ClientRunspacePool) applySetAvailability(e events.SetRunspaceAvailabilityEvent) {
	ci, ok := e.CallID()
	if !ok {
		return
	}
	h, ok := p.ciHandlers[ci]
	if !ok {
		return
	}
	delete(p.ciHandlers, ci)
	if !e.Response {
		return
	}
	switch h.kind {
	case ciHandlerSetMax:
		p.maxRunspaces = h.value
	case ciHandlerSetMin:
		p.minRunspaces = h.value
	case ciHandlerReset:
		// No local counter to update; success is the whole signal.
	}
}

func sessionCapabilityFromEvent(e events.SessionCapabilityEvent) (SessionCapability, error) {
	var c SessionCapability
	if s, ok := e.PSVersion(); ok {
		if v, err := parseVersionString(s); err == nil {
			c.PSVersion = v
		}
	}
	if s, ok := e.ProtocolVersion(); ok {
		if v, err := parseVersionString(s); err == nil {
			c.ProtocolVersion = v
		}
	}
	if s, ok := e.SerializationVersion(); ok {
		if v, err := parseVersionString(s); err == nil {
			c.SerializationVersion = v
		}
	}
	return c, nil
}
