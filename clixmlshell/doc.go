// Package clixmlshell implements the multi-stream CLIXML shell wrapper
// spec.md section 4.6 describes: the `#< CLIXML` line followed by a
// single `<Objs>` document PowerShell emits when invoked with
// `-OutputFormat xml`, where each child object may carry a stream tag
// (`S="Error|Warning|Verbose|Debug|Information|Progress"`) routing it away
// from the default output stream.
package clixmlshell
