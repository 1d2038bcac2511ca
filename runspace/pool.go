package runspace

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/smnsjas/go-psrpcore/crypto"
	"github.com/smnsjas/go-psrpcore/events"
	"github.com/smnsjas/go-psrpcore/messages"
	"github.com/smnsjas/go-psrpcore/serialization"
)

// Config holds the construction-time options spec.md section 6 lists for
// a runspace pool.
type Config struct {
	MinRunspaces         int
	MaxRunspaces         int
	ApartmentState       ApartmentState
	ThreadOptions        PSThreadOptions
	HostInfo             HostInfo
	ApplicationArguments *serialization.PSObject
	RunspacePoolID       uuid.UUID

	// Logger receives Debug-level state-transition diagnostics and
	// Warn-level malformed-input/unknown-message-type notices. Secure
	// string plaintext and key material are never passed as attributes;
	// wrap the handler with internal/log.NewRedactingHandler if the
	// handler's destination is shared with code that does log such
	// values. Defaults to slog.Default().
	Logger *slog.Logger
}

// withDefaults fills unset sizing with the spec's minimums.
func (c Config) withDefaults() Config {
	if c.MinRunspaces < 1 {
		c.MinRunspaces = 1
	}
	if c.MaxRunspaces < c.MinRunspaces {
		c.MaxRunspaces = c.MinRunspaces
	}
	if c.RunspacePoolID == messages.EmptyGUID {
		c.RunspacePoolID = uuid.New()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// poolCore is the field set and behavior common to both the client and
// server runspace pool roles: identity, negotiated sizing, the
// fragmentation/reassembly machinery, and the shared session cipher.
// ClientRunspacePool and ServerRunspacePool each embed it and add their
// role-specific correlation tables.
type poolCore struct {
	id    uuid.UUID
	state RunspacePoolState

	minRunspaces   int
	maxRunspaces   int
	apartmentState ApartmentState
	threadOptions  PSThreadOptions
	hostInfo       HostInfo
	appArguments   *serialization.PSObject

	ourCapability  SessionCapability
	peerCapability *SessionCapability

	objectIDCounter uint64
	ciCounter       int64

	sendQueue   *messages.SendQueue
	reassembler *messages.Reassembler

	cipher       *crypto.SessionCipher
	serializer   *serialization.Serializer
	deserializer *serialization.Deserializer

	logger    *slog.Logger
	brokenErr error
}

func newPoolCore(cfg Config) poolCore {
	cfg = cfg.withDefaults()
	return poolCore{
		id:             cfg.RunspacePoolID,
		state:          BeforeOpen,
		minRunspaces:   cfg.MinRunspaces,
		maxRunspaces:   cfg.MaxRunspaces,
		apartmentState: cfg.ApartmentState,
		threadOptions:  cfg.ThreadOptions,
		hostInfo:       cfg.HostInfo,
		appArguments:   cfg.ApplicationArguments,
		ourCapability:  DefaultClientCapability(),
		sendQueue:      messages.NewSendQueue(),
		reassembler:    messages.NewReassembler(),
		serializer:     &serialization.Serializer{},
		deserializer:   &serialization.Deserializer{Registry: newTypeRegistry()},
		logger:         cfg.Logger,
	}
}

// setState transitions the pool to s, logging the change at Debug level
// when a logger is installed.
func (p *poolCore) setState(s RunspacePoolState) {
	if p.logger != nil && s != p.state {
		p.logger.Debug("runspace pool state transition", "pool", p.id, "from", p.state, "to", s)
	}
	p.state = s
}

// ID returns the runspace pool's GUID.
func (p *poolCore) ID() uuid.UUID { return p.id }

// State returns the pool's current RunspacePoolState.
func (p *poolCore) State() RunspacePoolState { return p.state }

// MinRunspaces / MaxRunspaces report the pool's current sizing.
func (p *poolCore) MinRunspaces() int { return p.minRunspaces }
func (p *poolCore) MaxRunspaces() int { return p.maxRunspaces }

func (p *poolCore) nextObjectID() uint64 {
	p.objectIDCounter++
	return p.objectIDCounter
}

func (p *poolCore) nextCallID() int64 {
	p.ciCounter++
	return p.ciCounter
}

// installCipher wraps a raw session key in a SessionCipher and installs
// it on both the serializer and deserializer so subsequent SecureString
// fields encrypt/decrypt transparently.
func (p *poolCore) installCipher(key []byte) error {
	c, err := crypto.NewSessionCipher(key)
	if err != nil {
		return err
	}
	p.cipher = c
	p.serializer.Cipher = c
	p.deserializer.Cipher = c
	return nil
}

// enqueue serializes o and queues it for transmission on stream, targeted
// at pipelineID (messages.EmptyGUID for pool-targeted messages).
func (p *poolCore) enqueue(msgType messages.PSRPMessageType, pipelineID uuid.UUID, o *serialization.PSObject, stream messages.StreamType) error {
	body, err := encodeBody(p.serializer, o)
	if err != nil {
		return err
	}
	msg := messages.NewOutgoingMessage(p.nextObjectID(), msgType, p.id, pipelineID, stream, body)
	p.sendQueue.Push(msg)
	return nil
}

// dataToSend packs as much queued, fragmented traffic as fits limit.
func (p *poolCore) dataToSend(limit int) (messages.Payload, bool, error) {
	payload, ok, err := p.sendQueue.Pack(limit)
	if errors.Is(err, messages.ErrInputTooSmall) {
		return payload, ok, ErrInputTooSmall
	}
	return payload, ok, err
}

// feed appends newly received transport bytes to the reassembly buffer.
func (p *poolCore) feed(data []byte) {
	p.reassembler.Feed(data)
}

// nextEnvelope drains one fully reassembled envelope, if any is ready. A
// fatal reassembly error moves the pool to Broken.
func (p *poolCore) nextEnvelope() (messages.Envelope, bool, error) {
	env, ok, err := p.reassembler.Next()
	if err != nil {
		p.setBroken(err)
		return messages.Envelope{}, false, err
	}
	return env, ok, nil
}

func (p *poolCore) setBroken(err error) {
	if p.logger != nil {
		p.logger.Warn("runspace pool broken", "pool", p.id, "error", err)
	}
	p.setState(Broken)
	p.brokenErr = err
}

// BrokenError returns the error that moved the pool to Broken, if any.
func (p *poolCore) BrokenError() error { return p.brokenErr }

// decodeEnvelope decodes an envelope's CLIXML body and wraps it as a
// typed protocol event. An unrecognized message type is logged and
// ignored, per spec.md section 4.2/7 — it returns (nil, nil) rather than
// an error, so NextEvent treats it as "nothing ready yet" and keeps
// draining instead of failing the caller.
func (p *poolCore) decodeEnvelope(env messages.Envelope) (events.Event, error) {
	if !env.Type.Known() {
		if p.logger != nil {
			p.logger.Warn("runspace ignoring unrecognized message type", "pool", p.id, "type", env.Type)
		}
		return nil, nil
	}
	data, err := decodeBody(p.deserializer, env.Body)
	if err != nil {
		p.setBroken(err)
		return nil, err
	}
	ev, err := events.Create(env.Type, data, env.RunspacePoolID, env.PipelineID)
	if err != nil {
		return nil, err
	}
	return ev, nil
}
