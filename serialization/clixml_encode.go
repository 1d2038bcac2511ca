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

// tagOf maps a primitive leaf's Go type to its CLIXML element name, per
// spec.md section 4.4.
func tagOf(v any) (string, bool) {
	switch v.(type) {
	case PSBool:
		return "B", true
	case PSSByte:
		return "SB", true
	case PSInt16:
		return "I16", true
	case PSInt32:
		return "I32", true
	case PSInt64:
		return "I64", true
	case PSByte:
		return "By", true
	case PSUInt16:
		return "U16", true
	case PSUInt32:
		return "U32", true
	case PSUInt64:
		return "U64", true
	case PSSingle:
		return "Sg", true
	case PSDouble:
		return "Db", true
	case PSDecimal:
		return "D", true
	case PSString:
		return "S", true
	case PSChar:
		return "C", true
	case PSByteArray:
		return "BA", true
	case PSDateTime:
		return "DT", true
	case PSDuration:
		return "TS", true
	case PSGuid:
		return "G", true
	case PSUri:
		return "URI", true
	case PSVersion:
		return "Version", true
	case PSXmlDocument:
		return "XD", true
	case PSScriptBlock:
		return "SBK", true
	case PSNil:
		return "Nil", true
	case PSSecureString:
		return "SS", true
	default:
		return "", false
	}
}

// dotNetTypeOf returns the .NET type name a bare primitive leaf implies,
// used to seed a type-name stack when a primitive gains extended
// properties without the caller supplying one explicitly.
func dotNetTypeOf(v any) string {
	switch v.(type) {
	case PSBool:
		return "System.Boolean"
	case PSSByte:
		return "System.SByte"
	case PSInt16:
		return "System.Int16"
	case PSInt32:
		return "System.Int32"
	case PSInt64:
		return "System.Int64"
	case PSByte:
		return "System.Byte"
	case PSUInt16:
		return "System.UInt16"
	case PSUInt32:
		return "System.UInt32"
	case PSUInt64:
		return "System.UInt64"
	case PSSingle:
		return "System.Single"
	case PSDouble:
		return "System.Double"
	case PSDecimal:
		return "System.Decimal"
	case PSString:
		return "System.String"
	case PSChar:
		return "System.Char"
	case PSByteArray:
		return "System.Byte[]"
	case PSDateTime:
		return "System.DateTime"
	case PSDuration:
		return "System.TimeSpan"
	case PSGuid:
		return "System.Guid"
	case PSUri:
		return "System.Uri"
	case PSVersion:
		return "System.Version"
	default:
		return "System.Object"
	}
}

func collectionTag(kind CollectionKind) string {
	switch kind {
	case CollectionList:
		return "LST"
	case CollectionStack:
		return "STK"
	case CollectionQueue:
		return "QUE"
	case CollectionEnumerable:
		return "IE"
	case CollectionDictionary:
		return "DCT"
	default:
		return ""
	}
}

// Serializer encodes PSObject trees into CLIXML. A Serializer is safe to
// reuse across calls to Encode/EncodeDocument; each call gets a fresh RefId
// table so object identity never leaks between independent encodings.
type Serializer struct {
	// Cipher is the session cipher for PSSecureString values. The encoder
	// writes the already-encrypted ciphertext (NewSecureString does the
	// encryption) but requires Cipher to be set when the graph being
	// serialized contains a secure string.
	Cipher Cipher
}

type encodeState struct {
	objRefs    map[*PSObject]int
	objCounter int
	tnRefs     map[string]int
	tnCounter  int
}

func newEncodeState() *encodeState {
	return &encodeState{objRefs: map[*PSObject]int{}, tnRefs: map[string]int{}}
}

// Encode serializes a single PSObject tree to its CLIXML root element (no
// <Objs> wrapper).
func (s *Serializer) Encode(o *PSObject) (*etree.Element, error) {
	st := newEncodeState()
	return s.encode(st, o)
}

// EncodeDocument serializes a slice of top-level objects into an <Objs>
// document, as used by the CLIXML shell wrapper and scripted CLIXML
// literals.
func (s *Serializer) EncodeDocument(objs []*PSObject) (*etree.Document, error) {
	doc := etree.NewDocument()
	root := doc.CreateElement("Objs")
	root.CreateAttr("Version", "1.1.0.1")
	root.CreateAttr("xmlns", "http://schemas.microsoft.com/powershell/2004/04")

	st := newEncodeState()
	for _, o := range objs {
		el, err := s.encode(st, o)
		if err != nil {
			return nil, err
		}
		root.AddChild(el)
	}
	return doc, nil
}

func (s *Serializer) encode(st *encodeState, o *PSObject) (*etree.Element, error) {
	if o == nil {
		return etree.NewElement("Nil"), nil
	}

	if refID, seen := st.objRefs[o]; seen {
		el := etree.NewElement("Ref")
		el.CreateAttr("RefId", strconv.Itoa(refID))
		return el, nil
	}

	needsWrapper := len(o.TypeNames) > 0 || o.Collection != nil || o.Extended.Len() > 0 || o.Adapted.Len() > 0
	if !needsWrapper {
		return s.encodeLeaf(o.Value)
	}

	refID := st.objCounter
	st.objCounter++
	st.objRefs[o] = refID

	el := etree.NewElement("Obj")
	el.CreateAttr("RefId", strconv.Itoa(refID))

	typeNames := o.TypeNames
	if len(typeNames) == 0 && o.Value != nil {
		typeNames = []string{dotNetTypeOf(o.Value), "System.Object"}
	}

	if len(typeNames) > 0 {
		key := strings.Join(typeNames, "\x00")
		if tnID, ok := st.tnRefs[key]; ok {
			ref := el.CreateElement("TNRef")
			ref.CreateAttr("RefId", strconv.Itoa(tnID))
		} else {
			tnID := st.tnCounter
			st.tnCounter++
			st.tnRefs[key] = tnID
			tn := el.CreateElement("TN")
			tn.CreateAttr("RefId", strconv.Itoa(tnID))
			for _, n := range typeNames {
				tn.CreateElement("T").SetText(n)
			}
		}
	}

	if o.HasToString {
		el.CreateElement("ToString").SetText(o.ToStringValue)
	} else if o.Value != nil && o.Collection == nil {
		el.CreateElement("ToString").SetText(fmt.Sprint(o.Value))
	}

	if o.Collection != nil {
		if err := s.encodeCollection(st, el, o.Collection); err != nil {
			return nil, err
		}
	} else if o.Adapted.Len() > 0 {
		props := el.CreateElement("Props")
		for _, name := range o.Adapted.Keys() {
			v, _ := o.Adapted.Get(name)
			child, err := s.encodeNamed(st, name, v)
			if err != nil {
				return nil, err
			}
			props.AddChild(child)
		}
	}

	if o.Extended.Len() > 0 {
		ms := el.CreateElement("MS")
		for _, name := range o.Extended.Keys() {
			v, _ := o.Extended.Get(name)
			child, err := s.encodeNamed(st, name, v)
			if err != nil {
				return nil, err
			}
			ms.AddChild(child)
		}
	}

	return el, nil
}

// encodeNamed encodes a property value and sets its N="name" attribute,
// used for both <Props> and <MS> children.
func (s *Serializer) encodeNamed(st *encodeState, name string, v any) (*etree.Element, error) {
	var el *etree.Element
	var err error
	switch tv := v.(type) {
	case *PSObject:
		el, err = s.encode(st, tv)
	default:
		el, err = s.encodeLeaf(v)
	}
	if err != nil {
		return nil, err
	}
	el.CreateAttr("N", name)
	return el, nil
}

func (s *Serializer) encodeCollection(st *encodeState, parent *etree.Element, c *Collection) error {
	tag := collectionTag(c.Kind)
	container := parent.CreateElement(tag)
	if c.Kind == CollectionDictionary {
		for _, entry := range c.Entries {
			en := container.CreateElement("En")
			keyEl, err := s.encodeNamed(st, "Key", entry.Key)
			if err != nil {
				return err
			}
			en.AddChild(keyEl)
			valEl, err := s.encodeNamed(st, "Value", entry.Value)
			if err != nil {
				return err
			}
			en.AddChild(valEl)
		}
		return nil
	}
	for _, item := range c.Items {
		var el *etree.Element
		var err error
		switch tv := item.(type) {
		case *PSObject:
			el, err = s.encode(st, tv)
		default:
			el, err = s.encodeLeaf(item)
		}
		if err != nil {
			return err
		}
		container.AddChild(el)
	}
	return nil
}

func (s *Serializer) encodeLeaf(v any) (*etree.Element, error) {
	if v == nil {
		return etree.NewElement("Nil"), nil
	}

	tag, ok := tagOf(v)
	if !ok {
		return nil, &MalformedCLIXMLError{Reason: fmt.Sprintf("cannot encode value of type %T", v)}
	}
	el := etree.NewElement(tag)

	switch tv := v.(type) {
	case PSBool:
		if tv {
			el.SetText("true")
		} else {
			el.SetText("false")
		}
	case PSSByte:
		el.SetText(strconv.FormatInt(int64(tv), 10))
	case PSInt16:
		el.SetText(strconv.FormatInt(int64(tv), 10))
	case PSInt32:
		el.SetText(strconv.FormatInt(int64(tv), 10))
	case PSInt64:
		el.SetText(strconv.FormatInt(int64(tv), 10))
	case PSByte:
		el.SetText(strconv.FormatUint(uint64(tv), 10))
	case PSUInt16:
		el.SetText(strconv.FormatUint(uint64(tv), 10))
	case PSUInt32:
		el.SetText(strconv.FormatUint(uint64(tv), 10))
	case PSUInt64:
		el.SetText(strconv.FormatUint(uint64(tv), 10))
	case PSSingle:
		el.SetText(strconv.FormatFloat(float64(tv), 'G', -1, 32))
	case PSDouble:
		el.SetText(strconv.FormatFloat(float64(tv), 'G', -1, 64))
	case PSDecimal:
		el.SetText(string(tv))
	case PSString:
		el.SetText(escapeCLIXMLString(string(tv)))
	case PSChar:
		el.SetText(strconv.Itoa(int(tv)))
	case PSByteArray:
		el.SetText(base64.StdEncoding.EncodeToString(tv))
	case PSDateTime:
		el.SetText(time.Time(tv).Format("2006-01-02T15:04:05.9999999Z07:00"))
	case PSDuration:
		el.SetText(formatDuration(time.Duration(tv)))
	case PSGuid:
		el.SetText(uuid.UUID(tv).String())
	case PSUri:
		el.SetText(string(tv))
	case PSVersion:
		el.SetText(tv.String())
	case PSXmlDocument:
		el.SetText(string(tv))
	case PSScriptBlock:
		el.SetText(string(tv))
	case PSNil:
		// empty element
	case PSSecureString:
		if s.Cipher == nil {
			return nil, ErrMissingCipher
		}
		el.SetText(base64.StdEncoding.EncodeToString(tv.Ciphertext))
	}

	return el, nil
}

// formatDuration renders a time.Duration as an ISO-8601 duration, matching
// the <TS> element's textual form.
func formatDuration(d time.Duration) string {
	neg := d < 0
	if neg {
		d = -d
	}
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	d -= seconds * time.Second
	fractional := float64(d) / float64(time.Second)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('P')
	if days > 0 {
		fmt.Fprintf(&b, "%dD", days)
	}
	b.WriteByte('T')
	fmt.Fprintf(&b, "%dH%dM", hours, minutes)
	fmt.Fprintf(&b, "%s", strconv.FormatFloat(float64(seconds)+fractional, 'f', 7, 64))
	b.WriteByte('S')
	return b.String()
}
