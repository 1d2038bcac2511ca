package serialization

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeControlCharacter(t *testing.T) {
	assert.Equal(t, "a_x0009_b", escapeCLIXMLString("a\tb"))
}

func TestEscapeLiteralUnderscoreEscapeLookalike(t *testing.T) {
	in := "_x0041_"
	escaped := escapeCLIXMLString(in)
	assert.Equal(t, in, unescapeCLIXMLString(escaped))
}

func TestUnescapeRoundTrip(t *testing.T) {
	in := "line1\nline2\ttabbed"
	assert.Equal(t, in, unescapeCLIXMLString(escapeCLIXMLString(in)))
}

func TestEscapeLeavesOrdinaryTextAlone(t *testing.T) {
	assert.Equal(t, "hello world", escapeCLIXMLString("hello world"))
}
