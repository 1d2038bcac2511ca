package serialization

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
)

func typeOfTag(tag string) (any, bool) {
	switch tag {
	case "B":
		return PSBool(false), true
	case "SB":
		return PSSByte(0), true
	case "I16":
		return PSInt16(0), true
	case "I32":
		return PSInt32(0), true
	case "I64":
		return PSInt64(0), true
	case "By":
		return PSByte(0), true
	case "U16":
		return PSUInt16(0), true
	case "U32":
		return PSUInt32(0), true
	case "U64":
		return PSUInt64(0), true
	case "Sg":
		return PSSingle(0), true
	case "Db":
		return PSDouble(0), true
	case "D":
		return PSDecimal(""), true
	case "S":
		return PSString(""), true
	case "C":
		return PSChar(0), true
	case "BA":
		return PSByteArray(nil), true
	case "DT":
		return PSDateTime(time.Time{}), true
	case "TS":
		return PSDuration(0), true
	case "G":
		return PSGuid(uuid.UUID{}), true
	case "URI":
		return PSUri(""), true
	case "Version":
		return PSVersion{}, true
	case "XD":
		return PSXmlDocument(""), true
	case "SBK":
		return PSScriptBlock(""), true
	case "Nil":
		return PSNil{}, true
	case "SS":
		return PSSecureString{}, true
	default:
		return nil, false
	}
}

// Deserializer decodes CLIXML elements into [PSObject] trees, resolving
// RefId/TNRef cycles with a table scoped to one Decode/DecodeDocument call.
type Deserializer struct {
	// Cipher is the session cipher for <SS> secure string payloads. The
	// decoder keeps the ciphertext as is (PSSecureString.Decrypt does the
	// decryption) but fails with ErrMissingCipher on an <SS> element when
	// Cipher is nil. Not needed for documents without one.
	Cipher Cipher

	// Registry, if set, rehydrates compound objects whose most-derived
	// type name matches a registered entry (spec.md section 4.4). Nil
	// means no rehydration runs and every compound decodes to a raw
	// PSObject with its TypeNames untouched.
	Registry *Registry
}

type decodeState struct {
	objRefs map[int]*PSObject
	tnRefs  map[int][]string
}

func newDecodeState() *decodeState {
	return &decodeState{objRefs: map[int]*PSObject{}, tnRefs: map[int][]string{}}
}

// Decode parses a single top-level CLIXML element (as produced by
// [Serializer.Encode]) into a PSObject tree.
func (d *Deserializer) Decode(el *etree.Element) (*PSObject, error) {
	st := newDecodeState()
	return d.decode(st, el)
}

// DecodeDocument parses an <Objs> document's top-level children.
func (d *Deserializer) DecodeDocument(doc *etree.Document) ([]*PSObject, error) {
	root := doc.Root()
	if root == nil || root.Tag != "Objs" {
		return nil, &MalformedCLIXMLError{Reason: "document root is not <Objs>"}
	}
	st := newDecodeState()
	var out []*PSObject
	for _, child := range root.ChildElements() {
		o, err := d.decode(st, child)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (d *Deserializer) decode(st *decodeState, el *etree.Element) (*PSObject, error) {
	if el == nil {
		return nil, &MalformedCLIXMLError{Reason: "nil element"}
	}

	switch el.Tag {
	case "Ref":
		refID, err := attrInt(el, "RefId")
		if err != nil {
			return nil, err
		}
		o, ok := st.objRefs[refID]
		if !ok {
			return nil, &MalformedCLIXMLError{Reason: fmt.Sprintf("<Ref RefId=%d/> has no matching prior object", refID)}
		}
		return o, nil
	case "Obj":
		return d.decodeObj(st, el)
	default:
		return d.decodeLeaf(el)
	}
}

func (d *Deserializer) decodeObj(st *decodeState, el *etree.Element) (*PSObject, error) {
	o := &PSObject{Adapted: NewOrderedMap(), Extended: NewOrderedMap()}

	if refAttr := el.SelectAttr("RefId"); refAttr != nil {
		refID, err := strconv.Atoi(refAttr.Value)
		if err != nil {
			return nil, &MalformedCLIXMLError{Reason: "Obj RefId is not an integer: " + refAttr.Value}
		}
		o.RefID = refID
		st.objRefs[refID] = o
	}

	if tn := el.SelectElement("TN"); tn != nil {
		var names []string
		for _, t := range tn.SelectElements("T") {
			names = append(names, t.Text())
		}
		o.TypeNames = names
		if refAttr := tn.SelectAttr("RefId"); refAttr != nil {
			if tnID, err := strconv.Atoi(refAttr.Value); err == nil {
				st.tnRefs[tnID] = names
			}
		}
	} else if tnref := el.SelectElement("TNRef"); tnref != nil {
		refID, err := attrInt(tnref, "RefId")
		if err != nil {
			return nil, err
		}
		names, ok := st.tnRefs[refID]
		if !ok {
			return nil, &MalformedCLIXMLError{Reason: fmt.Sprintf("<TNRef RefId=%d/> has no matching prior <TN>", refID)}
		}
		o.TypeNames = names
	}

	if ts := el.SelectElement("ToString"); ts != nil {
		o.HasToString = true
		o.ToStringValue = unescapeCLIXMLString(ts.Text())
	}

	for _, tag := range containerTags {
		if c := el.SelectElement(tag); c != nil {
			coll, err := d.decodeCollection(st, c, tag)
			if err != nil {
				return nil, err
			}
			o.Collection = coll
			break
		}
	}

	if props := el.SelectElement("Props"); props != nil {
		for _, child := range props.ChildElements() {
			name, value, err := d.decodeNamed(st, child)
			if err != nil {
				return nil, err
			}
			o.Adapted.Set(name, value)
		}
	}

	if ms := el.SelectElement("MS"); ms != nil {
		for _, child := range ms.ChildElements() {
			name, value, err := d.decodeNamed(st, child)
			if err != nil {
				return nil, err
			}
			o.Extended.Set(name, value)
		}
	}

	if o.Collection == nil && o.Adapted.Len() == 0 && o.HasToString {
		if v, ok := primitiveFromToString(o.TypeNames, o.ToStringValue); ok {
			o.Value = v
		}
	}

	if d.Registry != nil && len(o.TypeNames) > 0 {
		rehydrated, err := d.Registry.Rehydrate(o)
		if err != nil {
			return nil, err
		}
		if rehydrated != any(o) {
			o.Rehydrated = rehydrated
		}
	}

	return o, nil
}

var containerTags = []string{"LST", "STK", "QUE", "IE", "DCT"}

func (d *Deserializer) decodeNamed(st *decodeState, el *etree.Element) (string, any, error) {
	name := ""
	if attr := el.SelectAttr("N"); attr != nil {
		name = attr.Value
	}
	var value any
	var err error
	if el.Tag == "Obj" || el.Tag == "Ref" {
		value, err = d.decode(st, el)
	} else {
		var leaf *PSObject
		leaf, err = d.decodeLeaf(el)
		if err == nil {
			value = leaf.Value
		}
	}
	return name, value, err
}

func (d *Deserializer) decodeCollection(st *decodeState, el *etree.Element, tag string) (*Collection, error) {
	kind := map[string]CollectionKind{
		"LST": CollectionList,
		"STK": CollectionStack,
		"QUE": CollectionQueue,
		"IE":  CollectionEnumerable,
		"DCT": CollectionDictionary,
	}[tag]

	c := &Collection{Kind: kind}

	if kind == CollectionDictionary {
		for _, en := range el.SelectElements("En") {
			var entry DictEntry
			for _, child := range en.ChildElements() {
				name, value, err := d.decodeNamed(st, child)
				if err != nil {
					return nil, err
				}
				switch name {
				case "Key":
					entry.Key = value
				case "Value":
					entry.Value = value
				}
			}
			c.Entries = append(c.Entries, entry)
		}
		return c, nil
	}

	for _, child := range el.ChildElements() {
		var item any
		var err error
		if child.Tag == "Obj" || child.Tag == "Ref" {
			item, err = d.decode(st, child)
		} else {
			var leaf *PSObject
			leaf, err = d.decodeLeaf(child)
			if err == nil {
				item = leaf.Value
			}
		}
		if err != nil {
			return nil, err
		}
		c.Items = append(c.Items, item)
	}
	return c, nil
}

func (d *Deserializer) decodeLeaf(el *etree.Element) (*PSObject, error) {
	zero, ok := typeOfTag(el.Tag)
	if !ok {
		return nil, &MalformedCLIXMLError{Reason: "unrecognized CLIXML element <" + el.Tag + ">"}
	}
	text := el.Text()

	switch zero.(type) {
	case PSBool:
		return NewPrimitive(PSBool(text == "true")), nil
	case PSSByte:
		n, err := strconv.ParseInt(text, 10, 8)
		if err != nil {
			return nil, leafErr(el.Tag, text, err)
		}
		return NewPrimitive(PSSByte(n)), nil
	case PSInt16:
		n, err := strconv.ParseInt(text, 10, 16)
		if err != nil {
			return nil, leafErr(el.Tag, text, err)
		}
		return NewPrimitive(PSInt16(n)), nil
	case PSInt32:
		n, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return nil, leafErr(el.Tag, text, err)
		}
		return NewPrimitive(PSInt32(n)), nil
	case PSInt64:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, leafErr(el.Tag, text, err)
		}
		return NewPrimitive(PSInt64(n)), nil
	case PSByte:
		n, err := strconv.ParseUint(text, 10, 8)
		if err != nil {
			return nil, leafErr(el.Tag, text, err)
		}
		return NewPrimitive(PSByte(n)), nil
	case PSUInt16:
		n, err := strconv.ParseUint(text, 10, 16)
		if err != nil {
			return nil, leafErr(el.Tag, text, err)
		}
		return NewPrimitive(PSUInt16(n)), nil
	case PSUInt32:
		n, err := strconv.ParseUint(text, 10, 32)
		if err != nil {
			return nil, leafErr(el.Tag, text, err)
		}
		return NewPrimitive(PSUInt32(n)), nil
	case PSUInt64:
		n, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return nil, leafErr(el.Tag, text, err)
		}
		return NewPrimitive(PSUInt64(n)), nil
	case PSSingle:
		n, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return nil, leafErr(el.Tag, text, err)
		}
		return NewPrimitive(PSSingle(n)), nil
	case PSDouble:
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, leafErr(el.Tag, text, err)
		}
		return NewPrimitive(PSDouble(n)), nil
	case PSDecimal:
		return NewPrimitive(PSDecimal(text)), nil
	case PSString:
		return NewPrimitive(PSString(unescapeCLIXMLString(text))), nil
	case PSChar:
		n, err := strconv.Atoi(text)
		if err != nil {
			return nil, leafErr(el.Tag, text, err)
		}
		return NewPrimitive(PSChar(n)), nil
	case PSByteArray:
		b, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, leafErr(el.Tag, text, err)
		}
		return NewPrimitive(PSByteArray(b)), nil
	case PSDateTime:
		t, err := time.Parse(time.RFC3339Nano, text)
		if err != nil {
			return nil, leafErr(el.Tag, text, err)
		}
		return NewPrimitive(PSDateTime(t)), nil
	case PSDuration:
		dur, err := parseDuration(text)
		if err != nil {
			return nil, leafErr(el.Tag, text, err)
		}
		return NewPrimitive(PSDuration(dur)), nil
	case PSGuid:
		g, err := uuid.Parse(text)
		if err != nil {
			return nil, leafErr(el.Tag, text, err)
		}
		return NewPrimitive(PSGuid(g)), nil
	case PSUri:
		return NewPrimitive(PSUri(text)), nil
	case PSVersion:
		v, err := parsePSVersion(text)
		if err != nil {
			return nil, leafErr(el.Tag, text, err)
		}
		return NewPrimitive(v), nil
	case PSXmlDocument:
		return NewPrimitive(PSXmlDocument(text)), nil
	case PSScriptBlock:
		return NewPrimitive(PSScriptBlock(text)), nil
	case PSNil:
		return NewPrimitive(PSNil{}), nil
	case PSSecureString:
		if d.Cipher == nil {
			return nil, ErrMissingCipher
		}
		raw, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, leafErr(el.Tag, text, err)
		}
		return NewPrimitive(PSSecureString{Ciphertext: raw}), nil
	}
	return nil, &MalformedCLIXMLError{Reason: "unreachable leaf tag <" + el.Tag + ">"}
}

func leafErr(tag, text string, err error) error {
	return &MalformedCLIXMLError{Reason: fmt.Sprintf("invalid <%s> text %q: %v", tag, text, err)}
}

func attrInt(el *etree.Element, name string) (int, error) {
	attr := el.SelectAttr(name)
	if attr == nil {
		return 0, &MalformedCLIXMLError{Reason: fmt.Sprintf("<%s> is missing %s attribute", el.Tag, name)}
	}
	n, err := strconv.Atoi(attr.Value)
	if err != nil {
		return 0, &MalformedCLIXMLError{Reason: fmt.Sprintf("<%s %s=%q> is not an integer", el.Tag, name, attr.Value)}
	}
	return n, nil
}

// primitiveFromToString reconstructs a primitive's Value from its <ToString>
// text when an otherwise-primitive object carries only extended properties
// (no Adapted props, no Collection). The most-derived type name, if one of
// the well-known .NET primitive names, selects the target type.
func primitiveFromToString(typeNames []string, s string) (any, bool) {
	if len(typeNames) == 0 {
		return nil, false
	}
	switch typeNames[0] {
	case "System.String":
		return PSString(s), true
	case "System.Int32":
		n, err := strconv.ParseInt(s, 10, 32)
		return PSInt32(n), err == nil
	case "System.Int64":
		n, err := strconv.ParseInt(s, 10, 64)
		return PSInt64(n), err == nil
	case "System.Boolean":
		return PSBool(s == "True" || s == "true"), true
	case "System.Double":
		n, err := strconv.ParseFloat(s, 64)
		return PSDouble(n), err == nil
	default:
		return nil, false
	}
}

// parsePSVersion parses .NET's Version.ToString() textual form, which omits
// Build/Revision components that were never set.
func parsePSVersion(s string) (PSVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 2 {
		return PSVersion{}, fmt.Errorf("version %q needs at least Major.Minor", s)
	}
	ints := make([]int, 4)
	ints[2], ints[3] = -1, -1
	for i, p := range parts {
		if i > 3 {
			break
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return PSVersion{}, err
		}
		ints[i] = n
	}
	return PSVersion{Major: ints[0], Minor: ints[1], Build: ints[2], Revision: ints[3]}, nil
}

// parseDuration parses the subset of ISO-8601 durations formatDuration
// produces: P[nD]T nH nM s.fffffffS, with an optional leading '-'.
func parseDuration(s string) (time.Duration, error) {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") {
		return 0, fmt.Errorf("duration %q does not start with P", s)
	}
	s = s[1:]

	var days int64
	if idx := strings.IndexByte(s, 'D'); idx >= 0 {
		n, err := strconv.ParseInt(s[:idx], 10, 64)
		if err != nil {
			return 0, err
		}
		days = n
		s = s[idx+1:]
	}
	if !strings.HasPrefix(s, "T") {
		return 0, fmt.Errorf("duration %q is missing time component", s)
	}
	s = s[1:]

	hIdx := strings.IndexByte(s, 'H')
	mIdx := strings.IndexByte(s, 'M')
	sIdx := strings.IndexByte(s, 'S')
	if hIdx < 0 || mIdx < 0 || sIdx < 0 {
		return 0, fmt.Errorf("duration %q is missing H/M/S component", s)
	}
	hours, err := strconv.ParseInt(s[:hIdx], 10, 64)
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.ParseInt(s[hIdx+1:mIdx], 10, 64)
	if err != nil {
		return 0, err
	}
	seconds, err := strconv.ParseFloat(s[mIdx+1:sIdx], 64)
	if err != nil {
		return 0, err
	}

	total := time.Duration(days) * 24 * time.Hour
	total += time.Duration(hours) * time.Hour
	total += time.Duration(minutes) * time.Minute
	total += time.Duration(seconds * float64(time.Second))
	if neg {
		total = -total
	}
	return total, nil
}
