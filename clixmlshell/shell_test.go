package clixmlshell

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smnsjas/go-psrpcore/serialization"
)

func TestEncodeDecodeRoundTripSeparatesStreams(t *testing.T) {
	ser := &serialization.Serializer{}
	deser := &serialization.Deserializer{}

	items := []StreamedObject{
		{Value: serialization.NewPrimitive(serialization.PSString("hello")), Stream: StreamOutput},
		{Value: serialization.NewPrimitive(serialization.PSString("oops")), Stream: StreamError},
		{Value: serialization.NewPrimitive(serialization.PSString("heads up")), Stream: StreamWarning},
	}

	data, err := Encode(ser, items)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), header))

	out, err := Decode(deser, data)
	require.NoError(t, err)
	require.Len(t, out.Output, 1)
	require.Len(t, out.Error, 1)
	require.Len(t, out.Warning, 1)
	assert.Equal(t, serialization.PSString("hello"), out.Output[0].Value)
	assert.Equal(t, serialization.PSString("oops"), out.Error[0].Value)
	assert.Equal(t, serialization.PSString("heads up"), out.Warning[0].Value)
}

func TestDecodePreserveStreamsKeepsWireOrder(t *testing.T) {
	ser := &serialization.Serializer{}
	deser := &serialization.Deserializer{}

	items := []StreamedObject{
		{Value: serialization.NewPrimitive(serialization.PSInt32(1)), Stream: StreamOutput},
		{Value: serialization.NewPrimitive(serialization.PSInt32(2)), Stream: StreamDebug},
		{Value: serialization.NewPrimitive(serialization.PSInt32(3)), Stream: StreamOutput},
	}

	data, err := Encode(ser, items)
	require.NoError(t, err)

	pairs, err := DecodePreserveStreams(deser, data)
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	assert.Equal(t, StreamOutput, pairs[0].Stream)
	assert.Equal(t, StreamDebug, pairs[1].Stream)
	assert.Equal(t, StreamOutput, pairs[2].Stream)
}

func TestDecodeTolerantOfMissingHeader(t *testing.T) {
	ser := &serialization.Serializer{}
	deser := &serialization.Deserializer{}

	data, err := Encode(ser, []StreamedObject{
		{Value: serialization.NewPrimitive(serialization.PSString("x")), Stream: StreamOutput},
	})
	require.NoError(t, err)

	withoutHeader := strings.TrimPrefix(string(data), header+"\r\n")
	out, err := Decode(deser, []byte(withoutHeader))
	require.NoError(t, err)
	require.Len(t, out.Output, 1)
}

func TestDecodeRejectsNonObjsRoot(t *testing.T) {
	deser := &serialization.Deserializer{}
	_, err := Decode(deser, []byte(header+"\r\n<NotObjs/>"))
	assert.True(t, serialization.IsMalformedCLIXML(err))
}
