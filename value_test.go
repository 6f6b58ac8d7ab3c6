package flatjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueStringPrettyPrint(t *testing.T) {
	_, v := parse(t, `{"a":1}`)
	s := v.String()
	assert.Equal(t, "{\n    \"a\": 1\n}", s)
}

func TestValueElementsIterator(t *testing.T) {
	_, v := parse(t, `[10,20,30]`)
	var got []int64
	for e := range v.Elements() {
		n, err := e.AsLong()
		require.NoError(t, err)
		got = append(got, n)
	}
	assert.Equal(t, []int64{10, 20, 30}, got)
}

func TestValueDoubleWidensLong(t *testing.T) {
	_, v := parse(t, `5`)
	d, err := v.AsDouble()
	require.NoError(t, err)
	assert.Equal(t, 5.0, d)
}

func TestValueIsNull(t *testing.T) {
	_, v := parse(t, `null`)
	assert.True(t, v.IsNull())
}

func TestValueElementsOverObject(t *testing.T) {
	_, v := parse(t, `{"x":1,"y":2}`)
	var got []int64
	for e := range v.Elements() {
		n, err := e.AsLong()
		require.NoError(t, err)
		got = append(got, n)
	}
	assert.Equal(t, []int64{1, 2}, got)
}
