package messages

import "fmt"

// PSRPMessageType identifies the kind of object carried in a message
// envelope. Values follow the grouping MS-PSRP uses (session-level
// messages in the 0x00010xxx range, runspace/pipeline-level messages in
// 0x00021xxx) but are this module's own self-consistent assignment; no
// peer outside this module's own client/server pair is expected to
// interpret them.
type PSRPMessageType uint32

const (
	SessionCapability PSRPMessageType = 0x00010002
	InitRunspacePool   PSRPMessageType = 0x00010004
	PublicKey          PSRPMessageType = 0x00010005
	EncryptedSessionKey PSRPMessageType = 0x00010006
	PublicKeyRequest   PSRPMessageType = 0x00010007
	ConnectRunspacePool PSRPMessageType = 0x00010008

	RunspacePoolInitData    PSRPMessageType = 0x0002100B
	ResetRunspaceState      PSRPMessageType = 0x00021002
	SetMaxRunspaces         PSRPMessageType = 0x00021003
	SetMinRunspaces         PSRPMessageType = 0x00021004
	RunspaceAvailability    PSRPMessageType = 0x00021005
	RunspacePoolState       PSRPMessageType = 0x00021006
	CreatePipeline          PSRPMessageType = 0x00021007
	GetAvailableRunspaces   PSRPMessageType = 0x00021008
	UserEvent               PSRPMessageType = 0x00021009
	ApplicationPrivateData  PSRPMessageType = 0x0002100A
	GetCommandMetadata      PSRPMessageType = 0x0002100C

	RunspacePoolHostCall     PSRPMessageType = 0x00021100
	RunspacePoolHostResponse PSRPMessageType = 0x00021101
	PipelineInput            PSRPMessageType = 0x00021102
	EndOfPipelineInput       PSRPMessageType = 0x00021103
	PipelineOutput           PSRPMessageType = 0x00021104
	ErrorRecord              PSRPMessageType = 0x00021105
	PipelineState            PSRPMessageType = 0x00021106
	DebugRecord              PSRPMessageType = 0x00021107
	VerboseRecord            PSRPMessageType = 0x00021108
	WarningRecord            PSRPMessageType = 0x00021109
	ProgressRecord           PSRPMessageType = 0x0002110A
	InformationRecord        PSRPMessageType = 0x0002110B
	PipelineHostCall         PSRPMessageType = 0x0002110C
	PipelineHostResponse     PSRPMessageType = 0x0002110D
)

var messageTypeNames = map[PSRPMessageType]string{
	SessionCapability:        "SessionCapability",
	InitRunspacePool:         "InitRunspacePool",
	PublicKey:                "PublicKey",
	EncryptedSessionKey:      "EncryptedSessionKey",
	PublicKeyRequest:         "PublicKeyRequest",
	ConnectRunspacePool:      "ConnectRunspacePool",
	RunspacePoolInitData:     "RunspacePoolInitData",
	ResetRunspaceState:       "ResetRunspaceState",
	SetMaxRunspaces:          "SetMaxRunspaces",
	SetMinRunspaces:          "SetMinRunspaces",
	RunspaceAvailability:     "RunspaceAvailability",
	RunspacePoolState:        "RunspacePoolState",
	CreatePipeline:           "CreatePipeline",
	GetAvailableRunspaces:    "GetAvailableRunspaces",
	UserEvent:                "UserEvent",
	ApplicationPrivateData:   "ApplicationPrivateData",
	GetCommandMetadata:       "GetCommandMetadata",
	RunspacePoolHostCall:     "RunspacePoolHostCall",
	RunspacePoolHostResponse: "RunspacePoolHostResponse",
	PipelineInput:            "PipelineInput",
	EndOfPipelineInput:       "EndOfPipelineInput",
	PipelineOutput:           "PipelineOutput",
	ErrorRecord:              "ErrorRecord",
	PipelineState:            "PipelineState",
	DebugRecord:              "DebugRecord",
	VerboseRecord:            "VerboseRecord",
	WarningRecord:            "WarningRecord",
	ProgressRecord:           "ProgressRecord",
	InformationRecord:        "InformationRecord",
	PipelineHostCall:         "PipelineHostCall",
	PipelineHostResponse:     "PipelineHostResponse",
}

func (t PSRPMessageType) String() string {
	if n, ok := messageTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("PSRPMessageType(0x%08X)", uint32(t))
}

// Known reports whether t is a recognized message type. Unknown types are
// logged and ignored per the framing codec's contract, never surfaced as
// an error.
func (t PSRPMessageType) Known() bool {
	_, ok := messageTypeNames[t]
	return ok
}
