package flatjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringSlice(t *testing.T, s string) StringSlice {
	t.Helper()
	tok := NewTokenizer()
	tok.FeedString(`"` + s + `"`)
	tok.End()
	require.True(t, tok.IsDone(), tok.ErrorString())
	require.Equal(t, 1, tok.Count())
	return tok.Token(0).StringSlice()
}

func TestStringSliceEqual(t *testing.T) {
	a := stringSlice(t, "hello")
	b := stringSlice(t, "hello")
	c := stringSlice(t, "world")
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestStringSliceEqualString(t *testing.T) {
	a := stringSlice(t, "hello")
	assert.True(t, a.EqualString("hello"))
	assert.False(t, a.EqualString("world"))
	assert.False(t, a.EqualString("hell"))

	unicode := stringSlice(t, "café")
	assert.True(t, unicode.EqualString("café"))
}

func TestStringSliceHash(t *testing.T) {
	a := stringSlice(t, "hello")
	b := stringSlice(t, "hello")
	c := stringSlice(t, "world")
	assert.Equal(t, a.Hash(), b.Hash(), "equal views must hash equal")
	assert.NotEqual(t, a.Hash(), c.Hash())

	empty := stringSlice(t, "")
	assert.NotPanics(t, func() { empty.Hash() })
}
