package runspace

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/smnsjas/go-psrpcore/command"
	"github.com/smnsjas/go-psrpcore/messages"
	"github.com/smnsjas/go-psrpcore/serialization"
)

// pipelineCore is the field set shared by ClientPipeline and
// ServerPipeline: identity, state, and the invocation it carries.
type pipelineCore struct {
	id    uuid.UUID
	state PipelineState
	cmd   *command.Command
}

// ID returns the pipeline's GUID.
func (p *pipelineCore) ID() uuid.UUID { return p.id }

// State returns the pipeline's current PipelineState.
func (p *pipelineCore) State() PipelineState { return p.state }

// setState transitions the pipeline to s, logging the change at Debug
// level when logger is non-nil.
func (p *pipelineCore) setState(s PipelineState, logger *slog.Logger) {
	if logger != nil && s != p.state {
		logger.Debug("runspace pipeline state transition", "pipeline", p.id, "from", p.state, "to", s)
	}
	p.state = s
}

// ClientPipeline is the client side of one pipeline invocation within a
// ClientRunspacePool.
type ClientPipeline struct {
	pipelineCore
	pool *ClientRunspacePool
}

func newClientPipeline(pool *ClientRunspacePool, id uuid.UUID, cmd *command.Command) *ClientPipeline {
	return &ClientPipeline{
		pipelineCore: pipelineCore{id: id, state: NotStarted, cmd: cmd},
		pool:         pool,
	}
}

// Start requires NotStarted, Stopped, or Completed. It enqueues the
// pipeline's CreatePipeline invocation and moves to Running.
func (p *ClientPipeline) Start() error {
	if err := requirePipelineState("start", p.state, NotStarted, Stopped, Completed); err != nil {
		return err
	}
	peerVersion := serialization.PSVersion{Major: 2, Minor: 0, Build: -1, Revision: -1}
	if p.pool.peerCapability != nil {
		peerVersion = p.pool.peerCapability.ProtocolVersion
	}
	o := serialization.NewObject("System.Management.Automation.PSObject")
	o.AdaptedSet("PowerShell", p.cmd.ToPSObject(peerVersion))
	o.AdaptedSet("NoInput", serialization.PSBool(true))
	o.AdaptedSet("AddToHistory", serialization.PSBool(true))
	o.AdaptedSet("HostInfo", p.pool.hostInfo.ToPSObject())
	o.AdaptedSet("IsNested", serialization.PSBool(false))
	if err := p.pool.enqueue(messages.CreatePipeline, p.id, o, messages.StreamDefault); err != nil {
		return err
	}
	p.setState(Running, p.pool.logger)
	return nil
}

// Send enqueues a PipelineInput message carrying data; valid only while
// Running.
func (p *ClientPipeline) Send(data *serialization.PSObject) error {
	if err := requirePipelineState("send", p.state, Running); err != nil {
		return err
	}
	return p.pool.enqueue(messages.PipelineInput, p.id, data, messages.StreamDefault)
}

// SendEOF enqueues an EndOfPipelineInput marker (an empty body); valid
// only while Running.
func (p *ClientPipeline) SendEOF() error {
	if err := requirePipelineState("send_eof", p.state, Running); err != nil {
		return err
	}
	msg := messages.NewOutgoingMessage(p.pool.nextObjectID(), messages.EndOfPipelineInput, p.pool.id, p.id, messages.StreamDefault, nil)
	p.pool.sendQueue.Push(msg)
	return nil
}

// HostResponse delegates to the owning pool.
func (p *ClientPipeline) HostResponse(ci int64, returnValue, errorRecord any) error {
	return p.pool.HostResponse(ci, returnValue, errorRecord)
}

// BeginStop requires Running or Stopping. It transitions to Stopping; the
// caller is responsible for signaling the stop via the transport.
func (p *ClientPipeline) BeginStop() error {
	if err := requirePipelineState("begin_stop", p.state, Running, Stopping); err != nil {
		return err
	}
	p.setState(Stopping, p.pool.logger)
	return nil
}

// ServerPipeline is the server side of one pipeline invocation within a
// ServerRunspacePool.
type ServerPipeline struct {
	pipelineCore
	pool *ServerRunspacePool
}

func newServerPipeline(pool *ServerRunspacePool, id uuid.UUID) *ServerPipeline {
	return &ServerPipeline{
		pipelineCore: pipelineCore{id: id, state: NotStarted},
		pool:         pool,
	}
}

// Command returns the invocation metadata CreatePipeline attached, once
// received.
func (p *ServerPipeline) Command() *command.Command { return p.cmd }

// Start requires NotStarted, Stopped, or Completed. It moves to Running
// and emits a PipelineState message.
func (p *ServerPipeline) Start() error {
	if err := requirePipelineState("start", p.state, NotStarted, Stopped, Completed); err != nil {
		return err
	}
	p.setState(Running, p.pool.logger)
	return p.emitState()
}

func (p *ServerPipeline) emitState() error {
	o := serialization.NewObject("System.Management.Automation.PSObject")
	o.AdaptedSet("PipelineState", serialization.PSInt32(p.state))
	return p.pool.enqueue(messages.PipelineState, p.id, o, messages.StreamDefault)
}

func (p *ServerPipeline) writeRecord(msgType messages.PSRPMessageType, value any) error {
	if err := requirePipelineState("write", p.state, Running); err != nil {
		return err
	}
	o, ok := value.(*serialization.PSObject)
	if !ok {
		o = serialization.NewPrimitive(value)
	}
	return p.pool.enqueue(msgType, p.id, o, messages.StreamDefault)
}

// WriteOutput emits one object on the pipeline's output stream.
func (p *ServerPipeline) WriteOutput(value any) error {
	return p.writeRecord(messages.PipelineOutput, value)
}

// WriteError emits an error record.
func (p *ServerPipeline) WriteError(record any) error {
	return p.writeRecord(messages.ErrorRecord, record)
}

// WriteDebug emits a debug record.
func (p *ServerPipeline) WriteDebug(record any) error {
	return p.writeRecord(messages.DebugRecord, record)
}

// WriteVerbose emits a verbose record.
func (p *ServerPipeline) WriteVerbose(record any) error {
	return p.writeRecord(messages.VerboseRecord, record)
}

// WriteWarning emits a warning record.
func (p *ServerPipeline) WriteWarning(record any) error {
	return p.writeRecord(messages.WarningRecord, record)
}

// WriteProgress emits a progress record.
func (p *ServerPipeline) WriteProgress(record any) error {
	return p.writeRecord(messages.ProgressRecord, record)
}

// WriteInformation emits an information record; it additionally requires
// peer protocol >= 2.3.
func (p *ServerPipeline) WriteInformation(record any) error {
	if err := p.pool.requirePeerAtLeast("write_information", protocolVersion23); err != nil {
		return err
	}
	return p.writeRecord(messages.InformationRecord, record)
}

// Stop requires Running or Stopping. It constructs a synthetic
// PipelineStoppedException error record and moves to Stopped.
func (p *ServerPipeline) Stop() error {
	if err := requirePipelineState("stop", p.state, Running, Stopping); err != nil {
		return err
	}
	rec := serialization.NewObject("System.Management.Automation.ErrorRecord")
	rec.AdaptedSet("Exception", serialization.NewObject("System.Management.Automation.PipelineStoppedException"))
	rec.AdaptedSet("CategoryInfo", serialization.PSString("OperationStopped"))
	if err := p.pool.enqueue(messages.ErrorRecord, p.id, rec, messages.StreamDefault); err != nil {
		return err
	}
	p.setState(Stopped, p.pool.logger)
	return p.emitState()
}

// Complete transitions to Completed and emits a PipelineState message.
func (p *ServerPipeline) Complete() error {
	p.setState(Completed, p.pool.logger)
	return p.emitState()
}

// HostCall delegates to the owning pool, targeting this pipeline.
func (p *ServerPipeline) HostCall(method HostMethodIdentifier, params *serialization.PSObject) (int64, error) {
	return p.pool.hostCall(method, params, &p.id)
}
