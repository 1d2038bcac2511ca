package command

// Parameter is one positional or named command argument. Name is empty
// for a positional argument.
type Parameter struct {
	Name  string
	Value any
}

// Command is a single PowerShell invocation: a command or script text,
// its parameters, and the stream-redirection matrix that controls which
// streams the server merges into which others.
type Command struct {
	Text           string
	IsScript       bool
	UseLocalScope  *bool
	Parameters     []Parameter
	EndOfStatement bool

	MergeUnclaimed bool

	mergeMy           PipelineResultTypes
	mergeTo           PipelineResultTypes
	mergeError        PipelineResultTypes
	mergeWarning      PipelineResultTypes
	mergeVerbose      PipelineResultTypes
	mergeDebug        PipelineResultTypes
	mergeInformation  PipelineResultTypes
}

// New builds a Command with every merge selector at its default (None).
func New(text string, isScript bool, useLocalScope *bool) *Command {
	return &Command{Text: text, IsScript: isScript, UseLocalScope: useLocalScope}
}

// AddParameter appends a named parameter.
func (c *Command) AddParameter(name string, value any) {
	c.Parameters = append(c.Parameters, Parameter{Name: name, Value: value})
}

// AddArgument appends a positional argument.
func (c *Command) AddArgument(value any) {
	c.Parameters = append(c.Parameters, Parameter{Value: value})
}

func (c *Command) MergeMy() PipelineResultTypes          { return c.mergeMy }
func (c *Command) MergeTo() PipelineResultTypes          { return c.mergeTo }
func (c *Command) MergeError() PipelineResultTypes       { return c.mergeError }
func (c *Command) MergeWarning() PipelineResultTypes     { return c.mergeWarning }
func (c *Command) MergeVerbose() PipelineResultTypes     { return c.mergeVerbose }
func (c *Command) MergeDebug() PipelineResultTypes       { return c.mergeDebug }
func (c *Command) MergeInformation() PipelineResultTypes { return c.mergeInformation }

// RedirectAll redirects every stream to the given target in one call.
func (c *Command) RedirectAll(stream PipelineResultTypes) error {
	if stream == ResultNone {
		c.mergeMy = stream
		c.mergeTo = stream
	}
	for _, fn := range []func(PipelineResultTypes) error{
		c.RedirectError, c.RedirectWarning, c.RedirectVerbose, c.RedirectDebug, c.RedirectInformation,
	} {
		if err := fn(stream); err != nil {
			return err
		}
	}
	return nil
}

// RedirectError redirects the error stream. A target of Output also
// claims the command's own ("my") result stream, matching the Python
// original's redirect_error.
func (c *Command) RedirectError(stream PipelineResultTypes) error {
	if err := validateRedirectionTarget(stream); err != nil {
		return err
	}
	switch stream {
	case ResultNone:
		c.mergeMy = ResultNone
		c.mergeTo = ResultNone
	case ResultNull:
		// no change to mergeMy/mergeTo
	default:
		c.mergeMy = ResultError
		c.mergeTo = stream
	}
	c.mergeError = stream
	return nil
}

func (c *Command) RedirectWarning(stream PipelineResultTypes) error {
	if err := validateRedirectionTarget(stream); err != nil {
		return err
	}
	c.mergeWarning = stream
	return nil
}

func (c *Command) RedirectVerbose(stream PipelineResultTypes) error {
	if err := validateRedirectionTarget(stream); err != nil {
		return err
	}
	c.mergeVerbose = stream
	return nil
}

func (c *Command) RedirectDebug(stream PipelineResultTypes) error {
	if err := validateRedirectionTarget(stream); err != nil {
		return err
	}
	c.mergeDebug = stream
	return nil
}

func (c *Command) RedirectInformation(stream PipelineResultTypes) error {
	if err := validateRedirectionTarget(stream); err != nil {
		return err
	}
	c.mergeInformation = stream
	return nil
}
