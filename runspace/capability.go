package runspace

import "github.com/smnsjas/go-psrpcore/serialization"

// protocolVersion23 / protocolVersion22 gate the optional behaviors
// spec.md section 4.3 describes as version-sensitive.
var (
	protocolVersion22 = serialization.PSVersion{Major: 2, Minor: 2, Build: -1, Revision: -1}
	protocolVersion23 = serialization.PSVersion{Major: 2, Minor: 3, Build: -1, Revision: -1}
)

// SessionCapability is the payload of the first message either peer
// sends: the declared PowerShell/protocol/serialization versions.
type SessionCapability struct {
	PSVersion            serialization.PSVersion
	ProtocolVersion       serialization.PSVersion
	SerializationVersion  serialization.PSVersion
}

// DefaultClientCapability is the capability this module's client role
// advertises: PSRP protocol 2.3, the newest version this package
// understands.
func DefaultClientCapability() SessionCapability {
	v := serialization.PSVersion{Major: 2, Minor: 0, Build: -1, Revision: -1}
	return SessionCapability{
		PSVersion:            v,
		ProtocolVersion:      protocolVersion23,
		SerializationVersion: serialization.PSVersion{Major: 1, Minor: 1, Build: 0, Revision: 1},
	}
}

// ToPSObject renders the capability as the PSObject CLIXML encodes for a
// SessionCapability message.
func (c SessionCapability) ToPSObject() *serialization.PSObject {
	o := serialization.NewObject("System.Management.Automation.PSObject")
	o.AdaptedSet("PSVersion", serialization.PSString(c.PSVersion.String()))
	o.AdaptedSet("protocolversion", serialization.PSString(c.ProtocolVersion.String()))
	o.AdaptedSet("SerializationVersion", serialization.PSString(c.SerializationVersion.String()))
	return o
}

// SessionCapabilityFromPSObject rehydrates a SessionCapability from a
// decoded PSObject.
func SessionCapabilityFromPSObject(o *serialization.PSObject) (SessionCapability, error) {
	var c SessionCapability
	get := func(name string) (serialization.PSVersion, bool) {
		v, ok := o.AdaptedGet(name)
		if !ok {
			return serialization.PSVersion{}, false
		}
		s, ok := v.(serialization.PSString)
		if !ok {
			return serialization.PSVersion{}, false
		}
		pv, err := parseVersionString(string(s))
		if err != nil {
			return serialization.PSVersion{}, false
		}
		return pv, true
	}
	if v, ok := get("PSVersion"); ok {
		c.PSVersion = v
	}
	if v, ok := get("protocolversion"); ok {
		c.ProtocolVersion = v
	}
	if v, ok := get("SerializationVersion"); ok {
		c.SerializationVersion = v
	}
	return c, nil
}

// versionAtLeast reports whether v is the same or a later version than
// min, comparing major then minor (build/revision are never gating).
func versionAtLeast(v, min serialization.PSVersion) bool {
	if v.Major != min.Major {
		return v.Major > min.Major
	}
	return v.Minor >= min.Minor
}

func parseVersionString(s string) (serialization.PSVersion, error) {
	v := serialization.PSVersion{Build: -1, Revision: -1}
	parts := [4]*int{&v.Major, &v.Minor, &v.Build, &v.Revision}
	n := 0
	cur := 0
	have := false
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '.' {
			if have && n < 4 {
				*parts[n] = cur
				n++
			}
			cur = 0
			have = false
			continue
		}
		ch := s[i]
		if ch < '0' || ch > '9' {
			return serialization.PSVersion{}, &InvalidVersionStringError{Value: s}
		}
		cur = cur*10 + int(ch-'0')
		have = true
	}
	return v, nil
}
