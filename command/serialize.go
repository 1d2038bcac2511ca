package command

import "github.com/smnsjas/go-psrpcore/serialization"

// psVersion22 and psVersion23 gate the optional merge fields: pre-2.2
// peers never see Error/Warning/Verbose/Debug; pre-2.3 peers never see
// Information, matching spec.md section 4.3's stream-merging rule.
var (
	psVersion22 = serialization.PSVersion{Major: 2, Minor: 2, Build: -1, Revision: -1}
	psVersion23 = serialization.PSVersion{Major: 2, Minor: 3, Build: -1, Revision: -1}
)

func versionAtLeast(v, min serialization.PSVersion) bool {
	if v.Major != min.Major {
		return v.Major > min.Major
	}
	return v.Minor >= min.Minor
}

// mergePrevious folds MergeUnclaimed into the wire's MergePreviousResults
// flag combination (Output|Error when set, None otherwise).
func (c *Command) mergePrevious() PipelineResultTypes {
	if c.MergeUnclaimed {
		return ResultOutput | ResultError
	}
	return ResultNone
}

// ToPSObject renders the command as the PSObject CLIXML encodes into a
// CreatePipeline message, eliding merge fields the peer's protocol
// version predates.
func (c *Command) ToPSObject(peerProtocolVersion serialization.PSVersion) *serialization.PSObject {
	o := serialization.NewObject("System.Management.Automation.PSObject")

	var args []any
	for _, p := range c.Parameters {
		arg := serialization.NewObject("System.Management.Automation.PSObject")
		if p.Name != "" {
			arg.AdaptedSet("N", serialization.PSString(p.Name))
		} else {
			arg.AdaptedSet("N", serialization.PSNil{})
		}
		arg.AdaptedSet("V", p.Value)
		args = append(args, arg)
	}

	o.AdaptedSet("Cmd", serialization.PSString(c.Text))
	o.AdaptedSet("Args", &serialization.PSObject{Collection: &serialization.Collection{Kind: serialization.CollectionList, Items: args}})
	o.AdaptedSet("IsScript", serialization.PSBool(c.IsScript))
	if c.UseLocalScope != nil {
		o.AdaptedSet("UseLocalScope", serialization.PSBool(*c.UseLocalScope))
	} else {
		o.AdaptedSet("UseLocalScope", serialization.PSNil{})
	}
	o.AdaptedSet("MergeMyResult", serialization.PSInt32(c.mergeMy))
	o.AdaptedSet("MergeToResult", serialization.PSInt32(c.mergeTo))
	o.AdaptedSet("MergePreviousResults", serialization.PSInt32(c.mergePrevious()))

	if versionAtLeast(peerProtocolVersion, psVersion22) {
		o.AdaptedSet("MergeError", serialization.PSInt32(c.mergeError))
		o.AdaptedSet("MergeWarning", serialization.PSInt32(c.mergeWarning))
		o.AdaptedSet("MergeVerbose", serialization.PSInt32(c.mergeVerbose))
		o.AdaptedSet("MergeDebug", serialization.PSInt32(c.mergeDebug))
	}
	if versionAtLeast(peerProtocolVersion, psVersion23) {
		o.AdaptedSet("MergeInformation", serialization.PSInt32(c.mergeInformation))
	}

	return o
}

// FromPSObject rehydrates a Command from a decoded PSObject, the inverse
// of ToPSObject. Fields the peer's protocol version omitted are left at
// their zero value (None).
func FromPSObject(o *serialization.PSObject) (*Command, error) {
	cmd := &Command{}

	if v, ok := o.AdaptedGet("Cmd"); ok {
		if s, ok := v.(serialization.PSString); ok {
			cmd.Text = string(s)
		}
	}
	if v, ok := o.AdaptedGet("IsScript"); ok {
		if b, ok := v.(serialization.PSBool); ok {
			cmd.IsScript = bool(b)
		}
	}
	if v, ok := o.AdaptedGet("UseLocalScope"); ok {
		if b, ok := v.(serialization.PSBool); ok {
			bv := bool(b)
			cmd.UseLocalScope = &bv
		}
	}
	if v, ok := o.AdaptedGet("Args"); ok {
		if argsObj, ok := v.(*serialization.PSObject); ok && argsObj.Collection != nil {
			for _, item := range argsObj.Collection.Items {
				arg, ok := item.(*serialization.PSObject)
				if !ok {
					continue
				}
				var name string
				if n, ok := arg.AdaptedGet("N"); ok {
					if s, ok := n.(serialization.PSString); ok {
						name = string(s)
					}
				}
				value, _ := arg.AdaptedGet("V")
				cmd.Parameters = append(cmd.Parameters, Parameter{Name: name, Value: value})
			}
		}
	}

	merge := func(key string) (PipelineResultTypes, bool) {
		v, ok := o.AdaptedGet(key)
		if !ok {
			return ResultNone, false
		}
		i, ok := v.(serialization.PSInt32)
		if !ok {
			return ResultNone, false
		}
		return PipelineResultTypes(i), true
	}

	if v, ok := merge("MergePreviousResults"); ok {
		cmd.MergeUnclaimed = v == (ResultOutput | ResultError)
	}
	if v, ok := merge("MergeMyResult"); ok {
		cmd.mergeMy = v
	}
	if v, ok := merge("MergeToResult"); ok {
		cmd.mergeTo = v
	}
	if v, ok := merge("MergeError"); ok {
		cmd.mergeError = v
	}
	if v, ok := merge("MergeWarning"); ok {
		cmd.mergeWarning = v
	}
	if v, ok := merge("MergeVerbose"); ok {
		cmd.mergeVerbose = v
	}
	if v, ok := merge("MergeDebug"); ok {
		cmd.mergeDebug = v
	}
	if v, ok := merge("MergeInformation"); ok {
		cmd.mergeInformation = v
	}

	return cmd, nil
}
