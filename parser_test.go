package flatjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, s string) (*Parser, Value) {
	t.Helper()
	tok := NewTokenizer()
	tok.FeedString(s)
	tok.End()
	require.True(t, tok.IsDone(), "%s: %s", s, tok.ErrorString())

	p := NewParser()
	p.FeedSeq(tok.Tokens())
	require.True(t, p.IsDone(), "%s: parser did not finish", s)
	p.CopyStrings()

	root, err := p.LastParsedRoot()
	require.NoError(t, err)
	return p, root
}

func TestParserScalarRoot(t *testing.T) {
	_, v := parse(t, `42`)
	n, err := v.AsLong()
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestParserArray(t *testing.T) {
	_, v := parse(t, `[1,2,3]`)
	require.Equal(t, ValueArray, v.Kind())
	n, err := v.Count()
	require.NoError(t, err)
	require.Equal(t, 3, n)
	for i := 0; i < 3; i++ {
		e, err := v.Index(i)
		require.NoError(t, err)
		got, err := e.AsLong()
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), got)
	}
}

func TestParserObject(t *testing.T) {
	_, v := parse(t, `{"a":1,"b":"two","c":[true,null]}`)
	require.Equal(t, ValueObject, v.Kind())
	n, err := v.Count()
	require.NoError(t, err)
	require.Equal(t, 3, n)

	a, err := v.Field("a")
	require.NoError(t, err)
	al, _ := a.AsLong()
	assert.Equal(t, int64(1), al)

	b, err := v.Field("b")
	require.NoError(t, err)
	bs, _ := b.AsString()
	assert.Equal(t, "two", bs)

	_, err = v.Field("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParserEmptyContainers(t *testing.T) {
	_, v := parse(t, `[]`)
	n, _ := v.Count()
	assert.Equal(t, 0, n)

	_, v = parse(t, `{}`)
	n, _ = v.Count()
	assert.Equal(t, 0, n)
}

func TestParserKeysAndPairs(t *testing.T) {
	_, v := parse(t, `{"x":1,"y":2}`)
	var keys []string
	for k := range v.Keys() {
		keys = append(keys, k.String())
	}
	assert.Equal(t, []string{"x", "y"}, keys)

	pairs := map[string]int64{}
	for k, e := range v.KeyValuePairs() {
		n, err := e.AsLong()
		require.NoError(t, err)
		pairs[k.String()] = n
	}
	assert.Equal(t, map[string]int64{"x": 1, "y": 2}, pairs)
}

func TestParserWrongKindAccessors(t *testing.T) {
	_, v := parse(t, `"a string"`)
	_, err := v.AsLong()
	assert.ErrorIs(t, err, ErrInvalidCast)
	_, err = v.Index(0)
	assert.ErrorIs(t, err, ErrInvalidCast)
}

func TestParserIndexOutOfRange(t *testing.T) {
	_, v := parse(t, `[1]`)
	_, err := v.Index(5)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = v.Index(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestParserResetKeepsArenasClearDoesNot(t *testing.T) {
	p := NewParser()
	tok := tokenize(t, `[1,2]`)
	p.FeedSeq(tok.Tokens())
	require.True(t, p.IsDone())
	root, err := p.LastParsedRoot()
	require.NoError(t, err)
	n, _ := root.Count()
	require.Equal(t, 2, n)

	p.Reset()
	assert.True(t, p.IsParsing())
	// Arenas survive Reset: the earlier root is still readable.
	n, _ = root.Count()
	assert.Equal(t, 2, n)

	p.Clear()
	assert.Equal(t, 0, len(p.values))
}

func TestParserNestedDeep(t *testing.T) {
	_, v := parse(t, `{"a":{"b":{"c":[1,[2,3],{"d":4}]}}}`)
	c, err := v.Field("a")
	require.NoError(t, err)
	c, err = c.Field("b")
	require.NoError(t, err)
	c, err = c.Field("c")
	require.NoError(t, err)
	require.Equal(t, ValueArray, c.Kind())
	n, _ := c.Count()
	require.Equal(t, 3, n)

	inner, err := c.Index(1)
	require.NoError(t, err)
	require.Equal(t, ValueArray, inner.Kind())
	iv, _ := inner.Index(1)
	got, _ := iv.AsLong()
	assert.Equal(t, int64(3), got)
}
