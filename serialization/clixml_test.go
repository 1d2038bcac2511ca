package serialization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, o *PSObject) *PSObject {
	t.Helper()
	s := &Serializer{}
	el, err := s.Encode(o)
	require.NoError(t, err)

	d := &Deserializer{}
	got, err := d.Decode(el)
	require.NoError(t, err)
	return got
}

func TestPrimitiveRoundTrip(t *testing.T) {
	got := roundTrip(t, NewPrimitive(PSString("hello world")))
	assert.Equal(t, PSString("hello world"), got.Value)
}

func TestPrimitiveRoundTripInt32(t *testing.T) {
	got := roundTrip(t, NewPrimitive(PSInt32(-42)))
	assert.Equal(t, PSInt32(-42), got.Value)
}

func TestPrimitiveRoundTripBool(t *testing.T) {
	got := roundTrip(t, NewPrimitive(PSBool(true)))
	assert.Equal(t, PSBool(true), got.Value)
}

func TestCompoundObjectRoundTrip(t *testing.T) {
	o := NewObject("Deserialized.System.Management.Automation.PSCustomObject", "System.Object")
	o.AdaptedSet("Name", PSString("box1"))
	o.AdaptedSet("Count", PSInt32(3))

	got := roundTrip(t, o)
	assert.Equal(t, o.TypeNames, got.TypeNames)

	name, ok := got.AdaptedGet("Name")
	require.True(t, ok)
	assert.Equal(t, PSString("box1"), name)

	count, ok := got.AdaptedGet("Count")
	require.True(t, ok)
	assert.Equal(t, PSInt32(3), count)
}

func TestListCollectionRoundTrip(t *testing.T) {
	o := NewObject("System.Collections.ArrayList", "System.Object")
	o.Collection = &Collection{Kind: CollectionList, Items: []any{PSString("a"), PSString("b"), PSInt32(1)}}

	got := roundTrip(t, o)
	require.NotNil(t, got.Collection)
	require.Len(t, got.Collection.Items, 3)
	assert.Equal(t, PSString("a"), got.Collection.Items[0])
	assert.Equal(t, PSInt32(1), got.Collection.Items[2])
}

func TestDictionaryCollectionRoundTrip(t *testing.T) {
	o := NewObject("System.Collections.Hashtable", "System.Object")
	o.Collection = &Collection{Kind: CollectionDictionary, Entries: []DictEntry{
		{Key: PSString("k1"), Value: PSInt32(1)},
	}}

	got := roundTrip(t, o)
	require.NotNil(t, got.Collection)
	require.Len(t, got.Collection.Entries, 1)
	assert.Equal(t, PSString("k1"), got.Collection.Entries[0].Key)
	assert.Equal(t, PSInt32(1), got.Collection.Entries[0].Value)
}

// TestCyclicObjectRoundTrip exercises a self-referencing extended property,
// the shape the RefId/Ref mechanism exists for.
func TestCyclicObjectRoundTrip(t *testing.T) {
	o := NewObject("Deserialized.MyApp.Node", "System.Object")
	o.AdaptedSet("Name", PSString("root"))
	o.ExtendedSet("Self", o)

	s := &Serializer{}
	el, err := s.Encode(o)
	require.NoError(t, err)

	d := &Deserializer{}
	got, err := d.Decode(el)
	require.NoError(t, err)

	self, ok := got.ExtendedGet("Self")
	require.True(t, ok)
	selfObj, ok := self.(*PSObject)
	require.True(t, ok)
	assert.Same(t, got, selfObj)
}

func TestExtendedPropertyOnPrimitiveRoundTrip(t *testing.T) {
	o := NewPrimitive(PSString("tagged"))
	o.ExtendedSet("Source", PSString("unit-test"))

	got := roundTrip(t, o)
	assert.Equal(t, PSString("tagged"), got.Value)
	src, ok := got.ExtendedGet("Source")
	require.True(t, ok)
	assert.Equal(t, PSString("unit-test"), src)
}

func TestDocumentRoundTrip(t *testing.T) {
	s := &Serializer{}
	doc, err := s.EncodeDocument([]*PSObject{
		NewPrimitive(PSString("one")),
		NewPrimitive(PSInt32(2)),
	})
	require.NoError(t, err)

	d := &Deserializer{}
	objs, err := d.DecodeDocument(doc)
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, PSString("one"), objs[0].Value)
	assert.Equal(t, PSInt32(2), objs[1].Value)
}

func TestTypeNameStackReusesTNRef(t *testing.T) {
	a := NewObject("MyApp.Widget", "System.Object")
	a.AdaptedSet("ID", PSInt32(1))
	b := NewObject("MyApp.Widget", "System.Object")
	b.AdaptedSet("ID", PSInt32(2))

	s := &Serializer{}
	doc, err := s.EncodeDocument([]*PSObject{a, b})
	require.NoError(t, err)

	root := doc.Root()
	require.NotNil(t, root)
	first := root.ChildElements()[0]
	second := root.ChildElements()[1]
	require.NotNil(t, first.SelectElement("TN"))
	require.NotNil(t, second.SelectElement("TNRef"))
}

// Guards against double-encrypting: NewSecureString already AES-encrypts
// once, so the codec must carry Ciphertext through as a single base64
// transcode, never running it through Cipher again.
func TestSecureStringRoundTripCLIXML(t *testing.T) {
	c := staticCipher{}
	ss, err := NewSecureString("hunter2", c)
	require.NoError(t, err)

	s := &Serializer{Cipher: c}
	el, err := s.Encode(NewPrimitive(ss))
	require.NoError(t, err)
	assert.Equal(t, "SS", el.Tag)

	d := &Deserializer{Cipher: c}
	got, err := d.Decode(el)
	require.NoError(t, err)

	gotSS, ok := got.Value.(PSSecureString)
	require.True(t, ok)
	assert.Equal(t, ss.Ciphertext, gotSS.Ciphertext)

	plaintext, err := gotSS.Decrypt(c)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", plaintext)
}
