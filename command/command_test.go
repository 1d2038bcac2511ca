package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smnsjas/go-psrpcore/serialization"
)

func TestRedirectErrorToOutputClaimsMergeMy(t *testing.T) {
	c := New("Get-Process", false, nil)
	require.NoError(t, c.RedirectError(ResultOutput))
	assert.Equal(t, ResultOutput, c.MergeError())
	assert.Equal(t, ResultError, c.MergeMy())
	assert.Equal(t, ResultOutput, c.MergeTo())
}

func TestRedirectRejectsInvalidTarget(t *testing.T) {
	c := New("Get-Process", false, nil)
	err := c.RedirectWarning(ResultError)
	assert.ErrorIs(t, err, ErrInvalidRedirection)
}

func TestMergeInformationElidedPre23(t *testing.T) {
	c := New("Get-Process", false, nil)
	require.NoError(t, c.RedirectInformation(ResultOutput))

	o := c.ToPSObject(serialization.PSVersion{Major: 2, Minor: 2, Build: -1, Revision: -1})
	_, ok := o.AdaptedGet("MergeInformation")
	assert.False(t, ok)

	o = c.ToPSObject(serialization.PSVersion{Major: 2, Minor: 3, Build: -1, Revision: -1})
	v, ok := o.AdaptedGet("MergeInformation")
	require.True(t, ok)
	assert.Equal(t, serialization.PSInt32(ResultOutput), v)
}

func TestMergeErrorFieldsElidedPre22(t *testing.T) {
	c := New("Get-Process", false, nil)
	o := c.ToPSObject(serialization.PSVersion{Major: 2, Minor: 1, Build: -1, Revision: -1})
	_, ok := o.AdaptedGet("MergeError")
	assert.False(t, ok)
}

func TestCommandPSObjectRoundTrip(t *testing.T) {
	c := New("Get-ChildItem", false, nil)
	c.AddParameter("Path", serialization.PSString("C:\\"))
	c.AddArgument(serialization.PSString("-Recurse"))
	require.NoError(t, c.RedirectAll(ResultOutput))

	o := c.ToPSObject(serialization.PSVersion{Major: 2, Minor: 3, Build: -1, Revision: -1})
	got, err := FromPSObject(o)
	require.NoError(t, err)

	assert.Equal(t, c.Text, got.Text)
	require.Len(t, got.Parameters, 2)
	assert.Equal(t, "Path", got.Parameters[0].Name)
	assert.Equal(t, ResultOutput, got.MergeError())
	assert.Equal(t, ResultOutput, got.MergeInformation())
}
