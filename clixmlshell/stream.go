package clixmlshell

// ClixmlStream identifies which PowerShell output stream a CLIXML shell
// child object belongs to. The default/output stream is left untagged on
// the wire; every other stream carries an S="..." attribute naming it,
// per spec.md section 4.6.
type ClixmlStream int

const (
	StreamOutput ClixmlStream = iota
	StreamError
	StreamWarning
	StreamVerbose
	StreamDebug
	StreamInformation
	StreamProgress
)

func (s ClixmlStream) String() string {
	switch s {
	case StreamOutput:
		return "Output"
	case StreamError:
		return "Error"
	case StreamWarning:
		return "Warning"
	case StreamVerbose:
		return "Verbose"
	case StreamDebug:
		return "Debug"
	case StreamInformation:
		return "Information"
	case StreamProgress:
		return "Progress"
	default:
		return "Output"
	}
}

// streamFromTag maps the S="..." attribute value (absent for the default
// stream) to a ClixmlStream, tolerating the unrecognized case by treating
// it as output rather than erroring.
func streamFromTag(tag string) ClixmlStream {
	switch tag {
	case "Error":
		return StreamError
	case "Warning":
		return StreamWarning
	case "Verbose":
		return StreamVerbose
	case "Debug":
		return StreamDebug
	case "Information":
		return StreamInformation
	case "Progress":
		return StreamProgress
	default:
		return StreamOutput
	}
}
