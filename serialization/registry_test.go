package serialization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWidget struct {
	ID int32
}

func TestRegistryRehydratesRegisteredType(t *testing.T) {
	r := NewRegistry()
	r.Register("MyApp.Widget", func(o *PSObject) (any, error) {
		id, _ := o.AdaptedGet("ID")
		return &fakeWidget{ID: int32(id.(PSInt32))}, nil
	})

	o := NewObject("MyApp.Widget", "System.Object")
	o.AdaptedSet("ID", PSInt32(7))

	got, err := r.Rehydrate(o)
	require.NoError(t, err)
	w, ok := got.(*fakeWidget)
	require.True(t, ok)
	assert.EqualValues(t, 7, w.ID)
}

func TestRegistryFallsBackToDeserializedPrefix(t *testing.T) {
	r := NewRegistry()
	o := NewObject("MyApp.Unknown", "System.Object")

	got, err := r.Rehydrate(o)
	require.NoError(t, err)
	back, ok := got.(*PSObject)
	require.True(t, ok)
	assert.Equal(t, []string{"Deserialized.MyApp.Unknown", "Deserialized.System.Object"}, back.TypeNames)
}

func TestRegistryDeserializedPrefixAccumulates(t *testing.T) {
	r := NewRegistry()
	o := NewObject("MyApp.Unknown")

	_, err := r.Rehydrate(o)
	require.NoError(t, err)
	_, err = r.Rehydrate(o)
	require.NoError(t, err)
	assert.Equal(t, []string{"Deserialized.Deserialized.MyApp.Unknown"}, o.TypeNames)
}
