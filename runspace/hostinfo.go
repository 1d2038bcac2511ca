package runspace

import "github.com/smnsjas/go-psrpcore/serialization"

// HostMethodIdentifier enumerates the PSHostUserInterface/PSHost methods
// a server can invoke on the client's interactive host, per
// SPEC_FULL.md section C.2.
type HostMethodIdentifier int

const (
	GetName HostMethodIdentifier = iota + 1
	GetVersion
	GetInstanceId
	GetCurrentCulture
	GetCurrentUICulture
	ReadLine
	ReadLineAsSecureString
	Write1
	Write2
	WriteLine1
	WriteLine2
	WriteLine3
	WriteErrorLine
	WriteDebugLine
	WriteProgress
	WriteVerboseLine
	WriteWarningLine
	Prompt
	PromptForCredential1
	PromptForCredential2
	PromptForChoice
	PromptForChoiceMultipleSelection
	GetForegroundColor
	SetForegroundColor
	GetBackgroundColor
	SetBackgroundColor
	GetCursorPosition
	SetCursorPosition
	GetWindowPosition
	SetWindowPosition
	GetCursorSize
	SetCursorSize
	GetBufferSize
	SetBufferSize
	GetWindowSize
	SetWindowSize
	GetMaxWindowSize
	GetMaxPhysicalWindowSize
	GetKeyAvailable
	ReadKey
	FlushInputBuffer
	SetBufferContents1
	SetBufferContents2
	GetBufferContents
	ScrollBufferContents
	GetRawUI
	SetWindowTitle
	GetWindowTitle
)

// voidHostMethods is the set of host methods that are notifications, not
// calls: the server never expects a response and the wire call id is the
// sentinel -100.
var voidHostMethods = map[HostMethodIdentifier]bool{
	WriteLine2: true,
}

// VoidCallID is the call id wire sentinel for a host method declared
// void (a notification rather than a correlated call).
const VoidCallID int64 = -100

// IsVoidHostMethod reports whether m is a notification-only host method.
func IsVoidHostMethod(m HostMethodIdentifier) bool {
	return voidHostMethods[m]
}

// HostInfo describes the client-side host a runspace pool or pipeline
// exposes to the server: whether a host is present at all, its default
// console/UI data, and whether raw-UI support is available. CLIXML
// encodes it as a compound object; fields are carried loosely as
// adapted properties since the shape is host-defined beyond the
// booleans spec.md pins down.
type HostInfo struct {
	IsHostNull             bool
	IsHostUINull           bool
	IsHostRawUINull        bool
	UseRunspaceHost        bool
	HostDefaultData        *serialization.PSObject
}

// ToPSObject renders the host descriptor the way CLIXML encodes it
// inside InitRunspacePool/CreatePipeline.
func (h HostInfo) ToPSObject() *serialization.PSObject {
	o := serialization.NewObject("System.Management.Automation.Remoting.RemoteHostUserInterface")
	o.AdaptedSet("_isHostNull", serialization.PSBool(h.IsHostNull))
	o.AdaptedSet("_isHostUINull", serialization.PSBool(h.IsHostUINull))
	o.AdaptedSet("_isHostRawUINull", serialization.PSBool(h.IsHostRawUINull))
	o.AdaptedSet("_useRunspaceHost", serialization.PSBool(h.UseRunspaceHost))
	if h.HostDefaultData != nil {
		o.AdaptedSet("_hostDefaultData", h.HostDefaultData)
	} else {
		o.AdaptedSet("_hostDefaultData", serialization.PSNil{})
	}
	return o
}

// HostInfoFromPSObject rehydrates a HostInfo from a decoded PSObject. A
// nil input (no host info sent) yields a HostInfo with IsHostNull,
// IsHostUINull and IsHostRawUINull all true.
func HostInfoFromPSObject(o *serialization.PSObject) HostInfo {
	if o == nil {
		return HostInfo{IsHostNull: true, IsHostUINull: true, IsHostRawUINull: true}
	}
	h := HostInfo{}
	getBool := func(name string) bool {
		v, ok := o.AdaptedGet(name)
		if !ok {
			return false
		}
		b, _ := v.(serialization.PSBool)
		return bool(b)
	}
	h.IsHostNull = getBool("_isHostNull")
	h.IsHostUINull = getBool("_isHostUINull")
	h.IsHostRawUINull = getBool("_isHostRawUINull")
	h.UseRunspaceHost = getBool("_useRunspaceHost")
	if v, ok := o.AdaptedGet("_hostDefaultData"); ok {
		if p, ok := v.(*serialization.PSObject); ok {
			h.HostDefaultData = p
		}
	}
	return h
}
