package command

import "errors"

// PipelineResultTypes names a pipeline output stream a redirection
// ("merge") selector can target.
type PipelineResultTypes int

const (
	ResultNone PipelineResultTypes = iota
	ResultOutput
	ResultError
	ResultWarning
	ResultVerbose
	ResultDebug
	ResultInformation
	ResultNull
)

// ErrInvalidRedirection is returned when a redirect target other than
// {None, Output, Null} is supplied.
var ErrInvalidRedirection = errors.New("command: invalid redirection stream, must be None, Output, or Null")

func validateRedirectionTarget(stream PipelineResultTypes) error {
	switch stream {
	case ResultNone, ResultOutput, ResultNull:
		return nil
	default:
		return ErrInvalidRedirection
	}
}
