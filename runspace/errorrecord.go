package runspace

import "github.com/smnsjas/go-psrpcore/serialization"

// ErrorRecord is the rehydrated form of a wire object tagged
// "System.Management.Automation.ErrorRecord" (spec.md section 4.4,
// SPEC_FULL.md section C.1). Exception carries whatever the far end put
// there — a nested PSObject describing a .NET exception, or a bare
// string summary — so it is kept untyped rather than forcing a shape
// PSRP itself doesn't fix.
type ErrorRecord struct {
	Exception    any
	CategoryInfo string
}

// ErrorRecordFromPSObject rehydrates an ErrorRecord from its decoded
// adapted properties.
func ErrorRecordFromPSObject(o *serialization.PSObject) (any, error) {
	rec := &ErrorRecord{}
	if v, ok := o.AdaptedGet("Exception"); ok {
		rec.Exception = v
	}
	if v, ok := o.AdaptedGet("CategoryInfo"); ok {
		if s, ok := v.(serialization.PSString); ok {
			rec.CategoryInfo = string(s)
		}
	}
	return rec, nil
}
