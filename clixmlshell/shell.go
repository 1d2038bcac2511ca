package clixmlshell

import (
	"bytes"
	"strings"

	"github.com/beevik/etree"

	"github.com/smnsjas/go-psrpcore/serialization"
)

// header is the line that opens a CLIXML shell wrapper. PowerShell itself
// emits the CRLF form; we accept either on decode.
const header = "#< CLIXML"

// StreamedObject pairs a value with the stream it belongs to, the unit
// Encode/Decode exchange with callers.
type StreamedObject struct {
	Value  *serialization.PSObject
	Stream ClixmlStream
}

// ClixmlOutput is the typed record a decoded CLIXML shell wrapper is
// unpacked into: one vector per PowerShell output stream, in the order
// the objects appeared on the wire within that stream.
type ClixmlOutput struct {
	Output      []*serialization.PSObject
	Error       []*serialization.PSObject
	Warning     []*serialization.PSObject
	Verbose     []*serialization.PSObject
	Debug       []*serialization.PSObject
	Information []*serialization.PSObject
	Progress    []*serialization.PSObject
}

func (o *ClixmlOutput) append(stream ClixmlStream, v *serialization.PSObject) {
	switch stream {
	case StreamError:
		o.Error = append(o.Error, v)
	case StreamWarning:
		o.Warning = append(o.Warning, v)
	case StreamVerbose:
		o.Verbose = append(o.Verbose, v)
	case StreamDebug:
		o.Debug = append(o.Debug, v)
	case StreamInformation:
		o.Information = append(o.Information, v)
	case StreamProgress:
		o.Progress = append(o.Progress, v)
	default:
		o.Output = append(o.Output, v)
	}
}

// Encode wraps items in a `#< CLIXML` shell: a single <Objs> document
// whose children carry an S="..." stream tag for every non-default
// stream, untagged for StreamOutput.
func Encode(ser *serialization.Serializer, items []StreamedObject) ([]byte, error) {
	objs := make([]*serialization.PSObject, len(items))
	for i, it := range items {
		objs[i] = it.Value
	}

	doc, err := ser.EncodeDocument(objs)
	if err != nil {
		return nil, err
	}

	children := doc.Root().ChildElements()
	for i, el := range children {
		if items[i].Stream != StreamOutput {
			el.CreateAttr("S", items[i].Stream.String())
		}
	}

	body, err := doc.WriteToBytes()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(header)
	buf.WriteString("\r\n")
	buf.Write(body)
	return buf.Bytes(), nil
}

// stripHeader removes the `#< CLIXML` line and returns the remaining
// document bytes, per spec.md section 4.6's "a line beginning `#<
// CLIXML`" wording — we tolerate LF, CRLF, and a missing header (the
// body alone is still a valid <Objs> document).
func stripHeader(data []byte) []byte {
	s := string(data)
	trimmed := strings.TrimLeft(s, " \t\r\n")
	if !strings.HasPrefix(trimmed, header) {
		return data
	}
	rest := trimmed[len(header):]
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		return []byte(rest[idx+1:])
	}
	return []byte(rest)
}

// Decode unwraps a CLIXML shell document into its stream vectors.
func Decode(deser *serialization.Deserializer, data []byte) (*ClixmlOutput, error) {
	pairs, err := decodeStreamed(deser, data)
	if err != nil {
		return nil, err
	}
	out := &ClixmlOutput{}
	for _, p := range pairs {
		out.append(p.Stream, p.Value)
	}
	return out, nil
}

// DecodePreserveStreams decodes a CLIXML shell document into an
// order-preserving list of (value, stream) pairs, mirroring the Python
// original's `deserialize_clixml(..., preserve_streams=True)` mode: callers
// that care about interleaving across streams use this instead of the
// per-stream vectors [Decode] returns.
func DecodePreserveStreams(deser *serialization.Deserializer, data []byte) ([]StreamedObject, error) {
	return decodeStreamed(deser, data)
}

func decodeStreamed(deser *serialization.Deserializer, data []byte) ([]StreamedObject, error) {
	body := stripHeader(data)

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, &serialization.MalformedCLIXMLError{Reason: err.Error()}
	}

	root := doc.Root()
	if root == nil || root.Tag != "Objs" {
		return nil, &serialization.MalformedCLIXMLError{Reason: "CLIXML shell document root is not <Objs>"}
	}
	children := root.ChildElements()

	objs, err := deser.DecodeDocument(doc)
	if err != nil {
		return nil, err
	}

	out := make([]StreamedObject, len(objs))
	for i, o := range objs {
		tag := children[i].SelectAttrValue("S", "")
		out[i] = StreamedObject{Value: o, Stream: streamFromTag(tag)}
	}
	return out, nil
}
