package flatjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenize(t *testing.T, s string) *Tokenizer {
	t.Helper()
	tok := NewTokenizer()
	tok.FeedString(s)
	tok.End()
	return tok
}

func TestTokenizerLiterals(t *testing.T) {
	tests := []struct {
		json string
		kind TokenKind
	}{
		{"null", TokenNull},
		{"true", TokenBool},
		{"false", TokenBool},
	}
	for _, tt := range tests {
		tok := tokenize(t, tt.json)
		require.True(t, tok.IsDone(), tt.json)
		require.Equal(t, 1, tok.Count())
		assert.Equal(t, tt.kind, tok.Token(0).Kind())
	}
}

func TestTokenizerNumbers(t *testing.T) {
	tests := []struct {
		json     string
		kind     TokenKind
		long     int64
		double   float64
	}{
		{"0", TokenLong, 0, 0},
		{"-0", TokenLong, 0, 0},
		{"10", TokenLong, 10, 0},
		{"-10", TokenLong, -10, 0},
		{"1.0", TokenDouble, 0, 1.0},
		{"1e1", TokenDouble, 0, 10.0},
		{"-123", TokenLong, -123, 0},
		{"453.234", TokenDouble, 0, 453.234},
	}
	for _, tt := range tests {
		tok := tokenize(t, tt.json)
		require.True(t, tok.IsDone(), tt.json)
		require.Equal(t, 1, tok.Count(), tt.json)
		got := tok.Token(0)
		require.Equal(t, tt.kind, got.Kind(), tt.json)
		if tt.kind == TokenLong {
			assert.Equal(t, tt.long, got.Long(), tt.json)
		} else {
			assert.InDelta(t, tt.double, got.Double(), 1e-9, tt.json)
		}
	}
}

func TestTokenizerString(t *testing.T) {
	tok := tokenize(t, `"hello\nworld!"`)
	require.True(t, tok.IsDone())
	require.Equal(t, 1, tok.Count())
	got := tok.Token(0)
	require.Equal(t, TokenString, got.Kind())
	assert.Equal(t, "hello\nworld!", got.String())
}

func TestTokenizerEmptyContainers(t *testing.T) {
	tok := tokenize(t, `[]`)
	require.True(t, tok.IsDone())
	require.Equal(t, 2, tok.Count())
	assert.Equal(t, TokenArrayBegin, tok.Token(0).Kind())
	assert.Equal(t, TokenArrayEnd, tok.Token(1).Kind())

	tok = tokenize(t, `{}`)
	require.True(t, tok.IsDone())
	require.Equal(t, 2, tok.Count())
	assert.Equal(t, TokenObjectBegin, tok.Token(0).Kind())
	assert.Equal(t, TokenObjectEnd, tok.Token(1).Kind())
}

func TestTokenizerNested(t *testing.T) {
	tok := tokenize(t, `{"a":[1,2,{"b":true}],"c":null}`)
	require.True(t, tok.IsDone(), tok.ErrorString())
	kinds := make([]TokenKind, tok.Count())
	for i := 0; i < tok.Count(); i++ {
		kinds[i] = tok.Token(i).Kind()
	}
	assert.Equal(t, []TokenKind{
		TokenObjectBegin,
		TokenString, TokenArrayBegin,
		TokenLong, TokenLong,
		TokenObjectBegin, TokenString, TokenBool, TokenObjectEnd,
		TokenArrayEnd,
		TokenString, TokenNull,
		TokenObjectEnd,
	}, kinds)
}

func TestTokenizerTrailingCommaRejected(t *testing.T) {
	tok := tokenize(t, `[1,]`)
	assert.True(t, tok.IsFailed())

	tok = tokenize(t, `{"a":1,}`)
	assert.True(t, tok.IsFailed())
}

func TestTokenizerLeadingZeroRejected(t *testing.T) {
	tok := tokenize(t, `01`)
	assert.True(t, tok.IsFailed())
}

func TestTokenizerControlCharacterInString(t *testing.T) {
	tok := NewTokenizer()
	tok.FeedString("\"a")
	tok.Feed(0x01)
	assert.True(t, tok.IsFailed())
	assert.ErrorIs(t, tok.Err(), ErrUnexpectedControlCharacter)
}

func TestTokenizerUnexpectedEnding(t *testing.T) {
	tok := tokenize(t, `{"a":`)
	assert.True(t, tok.IsFailed())

	tok = tokenize(t, `"unterminated`)
	assert.True(t, tok.IsFailed())
	assert.ErrorIs(t, tok.Err(), ErrUnexpectedEndOfString)
}

func TestTokenizerWhitespaceSuperset(t *testing.T) {
	tok := tokenize(t, "[1,\v2,\f3]")
	require.True(t, tok.IsDone(), tok.ErrorString())
	require.Equal(t, 5, tok.Count())
	assert.Equal(t, int64(1), tok.Token(1).Long())
	assert.Equal(t, int64(2), tok.Token(2).Long())
	assert.Equal(t, int64(3), tok.Token(3).Long())
	assert.Equal(t, TokenArrayEnd, tok.Token(4).Kind())
}

func TestTokenizerEmptyInput(t *testing.T) {
	tok := NewTokenizer()
	tok.End()
	assert.True(t, tok.IsFailed())
	assert.ErrorIs(t, tok.Err(), ErrEmptyJSON)
}

func TestTokenizerNumberRedispatch(t *testing.T) {
	tok := tokenize(t, `[1,2]`)
	require.True(t, tok.IsDone(), tok.ErrorString())
	require.Equal(t, 4, tok.Count())
	assert.Equal(t, int64(1), tok.Token(1).Long())
	assert.Equal(t, int64(2), tok.Token(2).Long())
}

func TestTokenizerClear(t *testing.T) {
	tok := tokenize(t, `1`)
	require.True(t, tok.IsDone())
	tok.Clear()
	assert.True(t, tok.IsTokenizing())
	assert.Equal(t, 0, tok.Count())
	tok.FeedString("2")
	tok.End()
	require.True(t, tok.IsDone())
	assert.Equal(t, int64(2), tok.Token(0).Long())
}

func TestTokenizerResetPreservesPositionMidContainer(t *testing.T) {
	tok := NewTokenizer()
	tok.FeedString(`[1,2`)
	require.True(t, tok.IsTokenizing())
	require.Equal(t, 2, tok.Count())

	tok.Reset()
	assert.True(t, tok.IsTokenizing(), "Reset must not touch state")
	assert.Equal(t, 0, tok.Count(), "Reset discards already-produced tokens")

	tok.FeedString(`,3]`)
	tok.End()
	require.True(t, tok.IsDone(), tok.ErrorString())
	require.Equal(t, 3, tok.Count())
	assert.Equal(t, int64(2), tok.Token(0).Long(), "the in-flight '2' survives Reset")
	assert.Equal(t, int64(3), tok.Token(1).Long())
	assert.Equal(t, TokenArrayEnd, tok.Token(2).Kind())
}

func TestTokenizerResetPreservesPositionMidString(t *testing.T) {
	tok := NewTokenizer()
	tok.FeedString(`"hello wor`)
	require.Equal(t, stateStringChar, tok.state)

	tok.Reset()
	assert.Equal(t, stateStringChar, tok.state, "Reset must not touch state")

	tok.FeedString(`ld"`)
	tok.End()
	require.True(t, tok.IsDone(), tok.ErrorString())
	require.Equal(t, 1, tok.Count())
	assert.Equal(t, "hello world", tok.Token(0).String())
}
