package events

import (
	"github.com/google/uuid"

	"github.com/smnsjas/go-psrpcore/messages"
	"github.com/smnsjas/go-psrpcore/serialization"
)

// Create dispatches on kind and returns the concrete, typed event for an
// incoming message. RunspaceAvailability is special: its concrete type is
// chosen by inspecting whether the response value is a bool
// (SetRunspaceAvailabilityEvent) or an integer (GetRunspaceAvailabilityEvent).
func Create(kind messages.PSRPMessageType, data *serialization.PSObject, poolID, pipelineID uuid.UUID) (Event, error) {
	b := newBase(kind, poolID, pipelineID, data)

	switch kind {
	case messages.SessionCapability:
		return SessionCapabilityEvent{b}, nil
	case messages.InitRunspacePool:
		return InitRunspacePoolEvent{b}, nil
	case messages.ConnectRunspacePool:
		return ConnectRunspacePoolEvent{b}, nil
	case messages.RunspacePoolInitData:
		return RunspacePoolInitDataEvent{b}, nil
	case messages.ApplicationPrivateData:
		return ApplicationPrivateDataEvent{b}, nil
	case messages.RunspacePoolState:
		return RunspacePoolStateEvent{b}, nil
	case messages.PublicKey:
		return PublicKeyEvent{b}, nil
	case messages.EncryptedSessionKey:
		return EncryptedSessionKeyEvent{b}, nil
	case messages.PublicKeyRequest:
		return PublicKeyRequestEvent{b}, nil
	case messages.SetMaxRunspaces:
		return SetMaxRunspacesEvent{b}, nil
	case messages.SetMinRunspaces:
		return SetMinRunspacesEvent{b}, nil
	case messages.ResetRunspaceState:
		return ResetRunspaceStateEvent{b}, nil
	case messages.GetAvailableRunspaces:
		return GetAvailableRunspacesEvent{b}, nil
	case messages.RunspaceAvailability:
		return createRunspaceAvailability(b, data)
	case messages.CreatePipeline:
		return CreatePipelineEvent{b}, nil
	case messages.GetCommandMetadata:
		return GetCommandMetadataEvent{b}, nil
	case messages.RunspacePoolHostCall:
		return RunspacePoolHostCallEvent{b}, nil
	case messages.RunspacePoolHostResponse:
		return RunspacePoolHostResponseEvent{b}, nil
	case messages.PipelineHostCall:
		return PipelineHostCallEvent{b}, nil
	case messages.PipelineHostResponse:
		return PipelineHostResponseEvent{b}, nil
	case messages.PipelineState:
		return PipelineStateEvent{b}, nil
	case messages.PipelineInput:
		return PipelineInputEvent{b}, nil
	case messages.EndOfPipelineInput:
		return EndOfPipelineInputEvent{b}, nil
	case messages.PipelineOutput:
		return PipelineOutputEvent{b}, nil
	case messages.ErrorRecord:
		return ErrorRecordEvent{b}, nil
	case messages.DebugRecord:
		return DebugRecordEvent{b}, nil
	case messages.VerboseRecord:
		return VerboseRecordEvent{b}, nil
	case messages.WarningRecord:
		return WarningRecordEvent{b}, nil
	case messages.ProgressRecord:
		return ProgressRecordEvent{b}, nil
	case messages.InformationRecord:
		return InformationRecordEvent{b}, nil
	case messages.UserEvent:
		return UserEventEvent{b}, nil
	default:
		return nil, &messages.MalformedFrameError{Reason: "no event type registered for " + kind.String()}
	}
}

// createRunspaceAvailability implements the runtime dispatch spec section
// 4.5 requires: the response property's dynamic type (bool vs integer)
// selects SetRunspaceAvailabilityEvent or GetRunspaceAvailabilityEvent.
func createRunspaceAvailability(b base, data *serialization.PSObject) (Event, error) {
	v, ok := propRaw(data, "SetRunspaceAvailability")
	if !ok {
		return nil, &messages.MalformedFrameError{Reason: "RunspaceAvailability message missing SetRunspaceAvailability property"}
	}
	switch tv := v.(type) {
	case serialization.PSBool:
		return SetRunspaceAvailabilityEvent{base: b, Response: bool(tv)}, nil
	case serialization.PSInt32:
		return GetRunspaceAvailabilityEvent{base: b, Response: int64(tv)}, nil
	case serialization.PSInt64:
		return GetRunspaceAvailabilityEvent{base: b, Response: int64(tv)}, nil
	default:
		return nil, &messages.ResponseTypeMismatchError{Reason: "RunspaceAvailability response is neither bool nor integer"}
	}
}
