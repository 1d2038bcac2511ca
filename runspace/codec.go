package runspace

import (
	"github.com/beevik/etree"

	"github.com/smnsjas/go-psrpcore/serialization"
)

// encodeBody renders a single PSObject as the CLIXML bytes carried in a
// message envelope's body.
func encodeBody(ser *serialization.Serializer, o *serialization.PSObject) ([]byte, error) {
	doc, err := ser.EncodeDocument([]*serialization.PSObject{o})
	if err != nil {
		return nil, err
	}
	return doc.WriteToBytes()
}

// decodeBody parses an envelope body's CLIXML bytes back into its single
// top-level PSObject. A body with no objects returns a nil PSObject (the
// shape EndOfPipelineInput's empty body takes).
func decodeBody(deser *serialization.Deserializer, body []byte) (*serialization.PSObject, error) {
	if len(body) == 0 {
		return nil, nil
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, &MalformedBodyError{Reason: err.Error()}
	}
	objs, err := deser.DecodeDocument(doc)
	if err != nil {
		return nil, err
	}
	if len(objs) == 0 {
		return nil, nil
	}
	return objs[0], nil
}
