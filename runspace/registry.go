package runspace

import "github.com/smnsjas/go-psrpcore/serialization"

// newTypeRegistry builds the rehydration table for the wire types this
// package gives a concrete Go representation: a decoded object whose
// most-derived type name matches one of these is handed to the
// constructor instead of staying a raw, generically-keyed PSObject, per
// spec.md section 4.4 and SPEC_FULL.md section C.1. Every other
// compound object on the wire (CreatePipeline, SetMaxRunspaces, the
// envelope payload objects, ...) carries the generic
// "System.Management.Automation.PSObject" type name, so registering
// against it would misfire across unrelated messages; only genuinely
// distinct type names belong here.
func newTypeRegistry() *serialization.Registry {
	r := serialization.NewRegistry()
	r.Register("System.Management.Automation.Remoting.RemoteHostUserInterface", func(o *serialization.PSObject) (any, error) {
		return HostInfoFromPSObject(o), nil
	})
	r.Register("System.Management.Automation.ErrorRecord", ErrorRecordFromPSObject)
	return r
}
