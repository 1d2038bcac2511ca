package runspace

import (
	"github.com/google/uuid"

	"github.com/smnsjas/go-psrpcore/command"
	"github.com/smnsjas/go-psrpcore/crypto"
	"github.com/smnsjas/go-psrpcore/events"
	"github.com/smnsjas/go-psrpcore/messages"
	"github.com/smnsjas/go-psrpcore/serialization"
)

// MissingPipelineError is returned when an incoming CreatePipeline or
// GetCommandMetadata message targets a pipeline id the server has not
// pre-registered with RegisterPipeline.
type MissingPipelineError struct {
	PipelineID uuid.UUID
}

func (e *MissingPipelineError) Error() string {
	return "runspace: no pre-registered pipeline " + e.PipelineID.String()
}

// pendingAvailability is a server-side ci_events entry awaiting the
// caller's RunspaceAvailabilityResponse: wantsBool distinguishes the
// Set/Reset (bool) shape from GetAvailableRunspaces (int), and handler
// carries the counter mutation to apply on a successful bool response.
type pendingAvailability struct {
	wantsBool bool
	handler   ciHandler
}

// ServerRunspacePool drives the server side of a runspace pool's state
// machine: it absorbs client requests, emits responses and unsolicited
// events, and owns the server-side pipelines.
type ServerRunspacePool struct {
	poolCore

	capabilitySent bool
	keyExchange    crypto.KeyExchange

	ciEvents map[int64]pendingAvailability

	pipelines map[uuid.UUID]*ServerPipeline
}

// NewServerRunspacePool constructs a server pool in state BeforeOpen,
// ready to receive a client's SessionCapability.
func NewServerRunspacePool(cfg Config) *ServerRunspacePool {
	return &ServerRunspacePool{
		poolCore:  newPoolCore(cfg),
		ciEvents:  map[int64]pendingAvailability{},
		pipelines: map[uuid.UUID]*ServerPipeline{},
	}
}

// RegisterPipeline pre-registers a pipeline id the server expects a
// forthcoming CreatePipeline or GetCommandMetadata message to target.
func (p *ServerRunspacePool) RegisterPipeline(id uuid.UUID) *ServerPipeline {
	pl := newServerPipeline(p, id)
	p.pipelines[id] = pl
	return pl
}

// Pipeline returns the server pipeline registered under id, if any.
func (p *ServerRunspacePool) Pipeline(id uuid.UUID) (*ServerPipeline, bool) {
	pl, ok := p.pipelines[id]
	return pl, ok
}

// SendEvent enqueues an application-defined UserEvent.
func (p *ServerRunspacePool) SendEvent(eventIdentifier int64, sender, args *serialization.PSObject) error {
	o := serialization.NewObject("System.Management.Automation.PSObject")
	o.AdaptedSet("EventIdentifier", serialization.PSInt64(eventIdentifier))
	if sender != nil {
		o.AdaptedSet("Sender", sender)
	} else {
		o.AdaptedSet("Sender", serialization.PSNil{})
	}
	if args != nil {
		o.AdaptedSet("SourceArgs", args)
	} else {
		o.AdaptedSet("SourceArgs", serialization.PSNil{})
	}
	return p.enqueue(messages.UserEvent, messages.EmptyGUID, o, messages.StreamDefault)
}

// RequestKey enqueues PublicKeyRequest, prompting the client to start key
// exchange.
func (p *ServerRunspacePool) RequestKey() error {
	o := serialization.NewObject("System.Management.Automation.PSObject")
	return p.enqueue(messages.PublicKeyRequest, messages.EmptyGUID, o, messages.StreamDefault)
}

// HostCall allocates a call id unless method is void (then the wire
// sentinel VoidCallID is used untracked) and enqueues the host call,
// targeting pipeline when non-nil.
func (p *ServerRunspacePool) HostCall(method HostMethodIdentifier, params *serialization.PSObject, pipeline *uuid.UUID) (int64, error) {
	return p.hostCall(method, params, pipeline)
}

func (p *ServerRunspacePool) hostCall(method HostMethodIdentifier, params *serialization.PSObject, pipeline *uuid.UUID) (int64, error) {
	var ci int64
	if IsVoidHostMethod(method) {
		ci = VoidCallID
	} else {
		ci = p.nextCallID()
	}
	o := serialization.NewObject("System.Management.Automation.PSObject")
	o.AdaptedSet("ci", serialization.PSInt64(ci))
	o.AdaptedSet("mi", serialization.PSInt32(method))
	if params != nil {
		o.AdaptedSet("mp", params)
	} else {
		o.AdaptedSet("mp", serialization.PSNil{})
	}

	msgType := messages.RunspacePoolHostCall
	pipelineID := messages.EmptyGUID
	if pipeline != nil {
		msgType = messages.PipelineHostCall
		pipelineID = *pipeline
	}
	if err := p.enqueue(msgType, pipelineID, o, messages.StreamPromptResponse); err != nil {
		return 0, err
	}
	return ci, nil
}

// RunspaceAvailabilityResponse validates response's dynamic type against
// the originating request (bool for Set/Reset, int for
// GetAvailableRunspaces) and enqueues RunspaceAvailability. A type
// mismatch fails with ResponseTypeMismatch and leaves the ci_events entry
// untouched.
func (p *ServerRunspacePool) RunspaceAvailabilityResponse(ci int64, response any) error {
	pending, ok := p.ciEvents[ci]
	if !ok {
		return &UnknownCallIDError{CallID: ci}
	}

	o := serialization.NewObject("System.Management.Automation.PSObject")
	o.AdaptedSet("ci", serialization.PSInt64(ci))

	switch v := response.(type) {
	case bool:
		if !pending.wantsBool {
			return &messages.ResponseTypeMismatchError{Reason: "call expected an integer response, got bool"}
		}
		o.AdaptedSet("SetRunspaceAvailability", serialization.PSBool(v))
		if v {
			p.applyAvailabilityHandler(pending.handler)
		}
	case int64:
		if pending.wantsBool {
			return &messages.ResponseTypeMismatchError{Reason: "call expected a bool response, got integer"}
		}
		o.AdaptedSet("SetRunspaceAvailability", serialization.PSInt64(v))
	default:
		return &messages.ResponseTypeMismatchError{Reason: "unsupported response type"}
	}

	if err := p.enqueue(messages.RunspaceAvailability, messages.EmptyGUID, o, messages.StreamDefault); err != nil {
		return err
	}
	delete(p.ciEvents, ci)
	return nil
}

func (p *ServerRunspacePool) applyAvailabilityHandler(h ciHandler) {
	switch h.kind {
	case ciHandlerSetMax:
		p.maxRunspaces = h.value
	case ciHandlerSetMin:
		p.minRunspaces = h.value
	case ciHandlerReset:
	}
}

// SetBroken moves the pool to Broken and emits a RunspacePoolState
// message carrying err's text as the exception record.
func (p *ServerRunspacePool) SetBroken(err error) error {
	p.setBroken(err)
	o := serialization.NewObject("System.Management.Automation.PSObject")
	o.AdaptedSet("RunspaceState", serialization.PSInt32(Broken))
	rec := serialization.NewObject("System.Management.Automation.ErrorRecord")
	rec.AdaptedSet("Exception", serialization.PSString(err.Error()))
	o.AdaptedSet("ExceptionAsErrorRecord", rec)
	return p.enqueue(messages.RunspacePoolState, messages.EmptyGUID, o, messages.StreamDefault)
}

// DataToSend packs as much queued outbound traffic as fits limit.
func (p *ServerRunspacePool) DataToSend(limit int) (messages.Payload, bool, error) {
	return p.dataToSend(limit)
}

// ReceiveData feeds newly arrived transport bytes into the reassembler.
func (p *ServerRunspacePool) ReceiveData(data []byte) {
	p.feed(data)
}

// NextEvent drains and applies one fully reassembled incoming message, if
// any is ready, returning its decoded event. Envelopes of an unrecognized
// message type are logged and skipped, not surfaced as an error; draining
// continues until a recognized event is found or no envelope is ready.
func (p *ServerRunspacePool) NextEvent() (events.Event, error) {
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

func (p *ServerRunspacePool) applyIncoming(ev events.Event) error {
	switch e := ev.(type) {
	case events.SessionCapabilityEvent:
		cap, _ := sessionCapabilityFromEvent(e)
		p.peerCapability = &cap
		if p.id != e.RunspacePoolID() {
			p.id = e.RunspacePoolID()
		}
		if !p.capabilitySent {
			p.capabilitySent = true
			return p.enqueue(messages.SessionCapability, messages.EmptyGUID, p.ourCapability.ToPSObject(), messages.StreamDefault)
		}
	case events.InitRunspacePoolEvent:
		if v, ok := e.MinRunspaces(); ok {
			p.minRunspaces = int(v)
		}
		if v, ok := e.MaxRunspaces(); ok {
			p.maxRunspaces = int(v)
		}
		if v, ok := e.HostInfo(); ok {
			if po, ok := v.(*serialization.PSObject); ok {
				if hi, ok := po.Rehydrated.(HostInfo); ok {
					p.hostInfo = hi
				}
			}
		}
		if err := p.enqueue(messages.ApplicationPrivateData, messages.EmptyGUID, p.applicationPrivateDataObject(), messages.StreamDefault); err != nil {
			return err
		}
		p.setState(Opened)
	case events.ConnectRunspacePoolEvent:
		if v, ok := e.MinRunspaces(); ok {
			p.minRunspaces = int(v)
		}
		if v, ok := e.MaxRunspaces(); ok {
			p.maxRunspaces = int(v)
		}
		initData := serialization.NewObject("System.Management.Automation.PSObject")
		initData.AdaptedSet("MinRunspaces", serialization.PSInt32(p.minRunspaces))
		initData.AdaptedSet("MaxRunspaces", serialization.PSInt32(p.maxRunspaces))
		if err := p.enqueue(messages.RunspacePoolInitData, messages.EmptyGUID, initData, messages.StreamDefault); err != nil {
			return err
		}
		if err := p.enqueue(messages.ApplicationPrivateData, messages.EmptyGUID, p.applicationPrivateDataObject(), messages.StreamDefault); err != nil {
			return err
		}
		p.setState(Opened)
	case events.PublicKeyEvent:
		peerPub, ok := e.PublicKey()
		if !ok {
			return nil
		}
		key, wrapped, err := crypto.WrapSessionKey(peerPub)
		if err != nil {
			return err
		}
		if err := p.installCipher(key); err != nil {
			return err
		}
		o := serialization.NewObject("System.Management.Automation.PSObject")
		o.AdaptedSet("EncryptedSessionKey", serialization.PSString(wrapped))
		return p.enqueue(messages.EncryptedSessionKey, messages.EmptyGUID, o, messages.StreamDefault)
	case events.SetMaxRunspacesEvent:
		if ci, ok := e.CallID(); ok {
			if v, ok := e.MaxRunspaces(); ok {
				p.ciEvents[ci] = pendingAvailability{wantsBool: true, handler: ciHandler{kind: ciHandlerSetMax, value: int(v)}}
			}
		}
	case events.SetMinRunspacesEvent:
		if ci, ok := e.CallID(); ok {
			if v, ok := e.MinRunspaces(); ok {
				p.ciEvents[ci] = pendingAvailability{wantsBool: true, handler: ciHandler{kind: ciHandlerSetMin, value: int(v)}}
			}
		}
	case events.ResetRunspaceStateEvent:
		if ci, ok := e.CallID(); ok {
			p.ciEvents[ci] = pendingAvailability{wantsBool: true, handler: ciHandler{kind: ciHandlerReset}}
		}
	case events.GetAvailableRunspacesEvent:
		if ci, ok := e.CallID(); ok {
			p.ciEvents[ci] = pendingAvailability{wantsBool: false}
		}
	case events.CreatePipelineEvent:
		pid, hasPipe := e.PipelineID()
		if !hasPipe {
			return &MissingPipelineError{}
		}
		pl, ok := p.pipelines[pid]
		if !ok {
			return &MissingPipelineError{PipelineID: pid}
		}
		if v, ok := e.PowerShell(); ok {
			if o, ok := v.(*serialization.PSObject); ok {
				if cmd, err := command.FromPSObject(o); err == nil {
					pl.cmd = cmd
				}
			}
		}
	case events.GetCommandMetadataEvent:
		pid, hasPipe := e.PipelineID()
		if !hasPipe {
			return &MissingPipelineError{}
		}
		if _, ok := p.pipelines[pid]; !ok {
			return &MissingPipelineError{PipelineID: pid}
		}
	}
	return nil
}

func (p *ServerRunspacePool) applicationPrivateDataObject() *serialization.PSObject {
	o := serialization.NewObject("System.Management.Automation.PSObject")
	o.AdaptedSet("ApplicationPrivateData", serialization.PSNil{})
	return o
}

func (p *ServerRunspacePool) requirePeerAtLeast(action string, min serialization.PSVersion) error {
	if p.peerCapability == nil || !versionAtLeast(p.peerCapability.ProtocolVersion, min) {
		actual := "unknown"
		if p.peerCapability != nil {
			actual = p.peerCapability.ProtocolVersion.String()
		}
		return &IncompatibleProtocolError{Action: action, ActualVersion: actual, RequiredVersion: min.String()}
	}
	return nil
}
