package flatjson

import (
	"iter"
	"log/slog"
)

// tokenizerState enumerates the Tokenizer's character-level states. Names
// follow the state machine described for the component: value dispatch
// happens from Start, ArrayValue and ObjectValue; ObjectKey accepts only a
// string; the String* and Num* families are leaf states that never dispatch
// a nested value.
type tokenizerState uint8

const (
	stateStart tokenizerState = iota
	stateDone
	stateError
	stateArrayValue
	stateArrayComma
	stateObjectKey
	stateObjectColon
	stateObjectValue
	stateObjectComma
	stateStringChar
	stateStringEscape
	stateStringU1
	stateStringU2
	stateStringU3
	stateStringU4
	stateNumMinus
	stateNumZero
	stateNumWhole
	stateNumFrac0
	stateNumFrac
	stateNumExp0
	stateNumExp
	stateN
	stateNu
	stateNul
	stateT
	stateTr
	stateTru
	stateF
	stateFa
	stateFal
	stateFals
)

func (s tokenizerState) String() string {
	switch s {
	case stateStart:
		return "Start"
	case stateDone:
		return "Done"
	case stateError:
		return "Error"
	case stateArrayValue:
		return "ArrayValue"
	case stateArrayComma:
		return "ArrayComma"
	case stateObjectKey:
		return "ObjectKey"
	case stateObjectColon:
		return "ObjectColon"
	case stateObjectValue:
		return "ObjectValue"
	case stateObjectComma:
		return "ObjectComma"
	case stateStringChar, stateStringEscape, stateStringU1, stateStringU2, stateStringU3, stateStringU4:
		return "String"
	case stateNumMinus, stateNumZero, stateNumWhole, stateNumFrac0, stateNumFrac, stateNumExp0, stateNumExp:
		return "Number"
	case stateN, stateNu, stateNul:
		return "Null"
	case stateT, stateTr, stateTru:
		return "True"
	case stateF, stateFa, stateFal, stateFals:
		return "False"
	default:
		return "Unknown"
	}
}

// containerFrame tracks one open array or object: the state to resume once
// it closes, and whether a comma has already been consumed inside it (so a
// following close bracket is rejected rather than silently accepting a
// trailing comma).
type containerFrame struct {
	after     tokenizerState
	sawComma  bool
	isObject  bool
}

// Tokenizer converts a push-fed stream of UTF-16 code units into a flat
// arena of RawToken cells. It never blocks and never allocates per
// character; Feed either advances the state machine or fails it.
type Tokenizer struct {
	state tokenizerState
	stack []containerFrame

	buf    []uint16 // completed + in-progress string/number character storage
	tokens []rawToken

	// scalarFollowUp records the state to resume once the in-flight
	// scalar (string, number or literal) finishes.
	scalarFollowUp tokenizerState

	// string-in-progress bookkeeping.
	strStart int
	hexVal   uint16
	hexLeft  int

	// number-in-progress bookkeeping.
	numSign     int64
	numWhole    uint64
	numFrac     uint64
	numFracExp  int
	numExpSign  int64
	numExp      int
	numHasFrac  bool
	numHasExp   bool
	numExpSignSeen bool

	offset   int
	lastChar uint16
	prevChar uint16
	recent   []uint16 // trailing window of fed code units, for error context

	err error

	logger *slog.Logger
}

// NewTokenizer builds a Tokenizer ready to Feed.
func NewTokenizer(opts ...TokenizerOption) *Tokenizer {
	t := &Tokenizer{
		state:  stateStart,
		buf:    make([]uint16, 0, defaultBufferSize),
		tokens: make([]rawToken, 0, defaultTokenCap),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// IsDone reports whether the Tokenizer has finished a top-level value and
// is not carrying a failure.
func (t *Tokenizer) IsDone() bool { return t.state == stateDone }

// IsFailed reports whether the Tokenizer state machine has entered Error.
func (t *Tokenizer) IsFailed() bool { return t.state == stateError }

// IsTokenizing reports whether the Tokenizer is neither done nor failed.
func (t *Tokenizer) IsTokenizing() bool { return !t.IsDone() && !t.IsFailed() }

// Err returns the wrapped failure reason, or nil if the Tokenizer has not
// failed.
func (t *Tokenizer) Err() error { return t.err }

// ErrorString returns the failure's rendered message, or the empty string
// if the Tokenizer has not failed.
func (t *Tokenizer) ErrorString() string {
	if t.err == nil {
		return ""
	}
	return t.err.Error()
}

// Count reports how many tokens have been produced so far.
func (t *Tokenizer) Count() int { return len(t.tokens) }

// Token returns the i-th produced token.
func (t *Tokenizer) Token(i int) Token { return Token{raw: t.tokens[i], buf: t.buf} }

// Tokens returns an iterator over every token produced so far, in order.
func (t *Tokenizer) Tokens() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for _, raw := range t.tokens {
			if !yield(Token{raw: raw, buf: t.buf}) {
				return
			}
		}
	}
}

// Reset reclaims the Tokenizer's token and buffer arenas for reuse without
// losing the caller's place in the document: state and the open-container
// stack are left exactly as they are, so Reset mid-array, mid-object or
// even mid-string is safe to keep feeding into afterward. Already-produced
// tokens are discarded (the caller is assumed to have consumed them, e.g.
// via Tokens()); a string currently being accumulated has its
// already-buffered prefix shifted down to buf[0:] with strStart rebased to
// 0, so the pending string keeps decoding correctly once it closes.
// Anything else in progress (a number, a literal) needs no buffer
// bookkeeping and simply has buf truncated. Any StringSlice or Token
// obtained before Reset is invalidated because Reset moves or truncates
// the shared buffer. Clear, not Reset, returns the Tokenizer to Start.
func (t *Tokenizer) Reset() {
	t.tokens = t.tokens[:0]
	switch t.state {
	case stateStringChar, stateStringEscape, stateStringU1, stateStringU2, stateStringU3, stateStringU4:
		n := copy(t.buf, t.buf[t.strStart:])
		t.buf = t.buf[:n]
		t.strStart = 0
	default:
		t.buf = t.buf[:0]
	}
}

// Clear returns the Tokenizer all the way back to Start, discarding
// tokens, the open-container stack, any in-progress scalar bookkeeping and
// the character buffer — the full reinitialization Reset used to perform
// before it was split out to preserve mid-document position.
func (t *Tokenizer) Clear() {
	t.state = stateStart
	t.stack = t.stack[:0]
	t.tokens = t.tokens[:0]
	t.buf = t.buf[:0]
	t.strStart = 0
	t.offset = 0
	t.lastChar = 0
	t.prevChar = 0
	t.recent = t.recent[:0]
	t.err = nil
}

const recentWindowSize = 40

func (t *Tokenizer) fail(reason error) {
	t.state = stateError
	te := (&TokenizeError{Offset: t.offset, Char: t.lastChar, PrevChar: t.prevChar, Reason: reason}).withWindow(t.recent)
	t.err = te
	t.logger.Warn("flatjson: tokenizer failed", "offset", t.offset, "reason", reason)
}

// Feed advances the state machine by one UTF-16 code unit. It is a no-op
// once the Tokenizer is Done or has Failed.
func (t *Tokenizer) Feed(c uint16) {
	if t.state == stateDone || t.state == stateError {
		return
	}
	t.offset++
	t.prevChar = t.lastChar
	t.lastChar = c
	t.recent = append(t.recent, c)
	if len(t.recent) > recentWindowSize {
		t.recent = t.recent[len(t.recent)-recentWindowSize:]
	}
	before := t.state
	t.step(c)
	if t.state != before {
		t.logger.Debug("flatjson: tokenizer transition", "from", before, "to", t.state, "offset", t.offset)
	}
}

// FeedUnits feeds a slice of UTF-16 code units in order.
func (t *Tokenizer) FeedUnits(units []uint16) {
	for _, c := range units {
		if t.state == stateDone || t.state == stateError {
			return
		}
		t.Feed(c)
	}
}

// FeedString feeds the UTF-16 encoding of a Go string.
func (t *Tokenizer) FeedString(s string) {
	for _, r := range s {
		if r <= 0xffff {
			t.Feed(uint16(r))
		} else {
			r1, r2 := utf16Encode(r)
			t.Feed(r1)
			t.Feed(r2)
		}
		if t.state == stateDone || t.state == stateError {
			return
		}
	}
}

func utf16Encode(r rune) (uint16, uint16) {
	r -= 0x10000
	return uint16(0xd800 + (r >> 10)), uint16(0xdc00 + (r & 0x3ff))
}

// End signals that no further characters are coming, flushing any
// in-flight number so a bare top-level scalar (e.g. "-123" with nothing
// after it) can still complete. Anything left incomplete — an open
// string, a partial literal, an unterminated container — fails with
// ErrUnexpectedJSONEnding or a more specific unexpected-end sentinel.
func (t *Tokenizer) End() {
	if t.state == stateDone || t.state == stateError {
		return
	}
	switch t.state {
	case stateNumZero, stateNumWhole, stateNumFrac, stateNumExp:
		t.emitNumber()
		t.state = t.scalarFollowUp
	case stateStringChar, stateStringEscape, stateStringU1, stateStringU2, stateStringU3, stateStringU4:
		t.fail(ErrUnexpectedEndOfString)
		return
	case stateN, stateNu, stateNul:
		t.fail(ErrUnexpectedEndOfNull)
		return
	case stateT, stateTr, stateTru:
		t.fail(ErrUnexpectedEndOfTrue)
		return
	case stateF, stateFa, stateFal, stateFals:
		t.fail(ErrUnexpectedEndOfFalse)
		return
	case stateNumMinus, stateNumFrac0, stateNumExp0:
		t.fail(ErrUnexpectedEndOfNumber)
		return
	case stateStart:
		t.fail(ErrEmptyJSON)
		return
	}
	if t.state != stateDone && t.state != stateError {
		t.fail(ErrUnexpectedJSONEnding)
	}
}

func isJSONWhitespace(c uint16) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// step is the reentrant core: the stepNum* handlers call back into it to
// re-process a number's terminating character once the number token has
// been emitted, since that character was never "consumed" by the number.
func (t *Tokenizer) step(c uint16) {
	switch t.state {
	case stateStart, stateArrayValue, stateArrayComma, stateObjectKey, stateObjectColon, stateObjectValue, stateObjectComma:
		if isJSONWhitespace(c) {
			return
		}
		t.dispatchStructural(c)
	case stateStringChar:
		t.stepStringChar(c)
	case stateStringEscape:
		t.stepStringEscape(c)
	case stateStringU1, stateStringU2, stateStringU3, stateStringU4:
		t.stepStringUnicode(c)
	case stateNumMinus:
		t.stepNumMinus(c)
	case stateNumZero:
		t.stepNumZero(c)
	case stateNumWhole:
		t.stepNumWhole(c)
	case stateNumFrac0:
		t.stepNumFrac0(c)
	case stateNumFrac:
		t.stepNumFrac(c)
	case stateNumExp0:
		t.stepNumExp0(c)
	case stateNumExp:
		t.stepNumExp(c)
	case stateN:
		t.stepLiteral(c, 'u', stateNu, ErrUnexpectedEndOfNull)
	case stateNu:
		t.stepLiteral(c, 'l', stateNul, ErrUnexpectedEndOfNull)
	case stateNul:
		t.stepLiteralFinal(c, 'l', rawTokenNull(), ErrUnexpectedEndOfNull)
	case stateT:
		t.stepLiteral(c, 'r', stateTr, ErrUnexpectedEndOfTrue)
	case stateTr:
		t.stepLiteral(c, 'u', stateTru, ErrUnexpectedEndOfTrue)
	case stateTru:
		t.stepLiteralFinal(c, 'e', rawTokenBool(true), ErrUnexpectedEndOfTrue)
	case stateF:
		t.stepLiteral(c, 'a', stateFa, ErrUnexpectedEndOfFalse)
	case stateFa:
		t.stepLiteral(c, 'l', stateFal, ErrUnexpectedEndOfFalse)
	case stateFal:
		t.stepLiteral(c, 's', stateFals, ErrUnexpectedEndOfFalse)
	case stateFals:
		t.stepLiteralFinal(c, 'e', rawTokenBool(false), ErrUnexpectedEndOfFalse)
	}
}

// dispatchStructural handles the seven states that skip whitespace and
// react to structural characters: brackets, braces, colon and comma.
func (t *Tokenizer) dispatchStructural(c uint16) {
	switch t.state {
	case stateStart:
		t.dispatchValue(c, stateDone)
	case stateArrayValue:
		if c == ']' {
			if t.topFrame().sawComma {
				t.fail(ErrTrailingComma)
				return
			}
			t.closeContainer(TokenArrayEnd, false)
			return
		}
		t.dispatchValue(c, stateArrayComma)
	case stateArrayComma:
		if c == ']' {
			t.closeContainer(TokenArrayEnd, false)
			return
		}
		if c != ',' {
			t.fail(ErrExpectedComma)
			return
		}
		t.topFrame().sawComma = true
		t.state = stateArrayValue
	case stateObjectKey:
		if c == '}' {
			if t.topFrame().sawComma {
				t.fail(ErrTrailingComma)
				return
			}
			t.closeContainer(TokenObjectEnd, true)
			return
		}
		if c != '"' {
			t.fail(ErrExpectedObjectField)
			return
		}
		t.scalarFollowUp = stateObjectColon
		t.beginString()
	case stateObjectColon:
		if c != ':' {
			t.fail(ErrExpectedObjectFieldSeparator)
			return
		}
		t.state = stateObjectValue
	case stateObjectValue:
		t.dispatchValue(c, stateObjectComma)
	case stateObjectComma:
		if c == '}' {
			t.closeContainer(TokenObjectEnd, true)
			return
		}
		if c != ',' {
			t.fail(ErrExpectedComma)
			return
		}
		t.topFrame().sawComma = true
		t.state = stateObjectKey
	}
}

func (t *Tokenizer) topFrame() *containerFrame { return &t.stack[len(t.stack)-1] }

func (t *Tokenizer) closeContainer(kind TokenKind, isObject bool) {
	f := t.stack[len(t.stack)-1]
	if f.isObject != isObject {
		t.fail(ErrUnbalancedEnd)
		return
	}
	t.stack = t.stack[:len(t.stack)-1]
	t.appendToken(rawTokenBegin(kind))
	t.state = f.after
}

func (t *Tokenizer) pushFrame(after tokenizerState, isObject bool) {
	t.stack = append(t.stack, containerFrame{after: after, isObject: isObject})
}

func (t *Tokenizer) appendToken(tok rawToken) {
	if len(t.tokens) == cap(t.tokens) {
		grown := make([]rawToken, len(t.tokens), growCapacity(cap(t.tokens)))
		copy(grown, t.tokens)
		t.tokens = grown
	}
	t.tokens = append(t.tokens, tok)
}

func growCapacity(c int) int {
	if c == 0 {
		return defaultTokenCap
	}
	return c * 2
}

// dispatchValue is entered from Start, ArrayValue and ObjectValue — the
// three states in which the first character of a new JSON value is
// expected. followUp is the state to resume once this whole value (scalar
// or container) is complete.
func (t *Tokenizer) dispatchValue(c uint16, followUp tokenizerState) {
	switch {
	case c == '{':
		t.pushFrame(followUp, true)
		t.state = stateObjectKey
		t.appendToken(rawTokenBegin(TokenObjectBegin))
	case c == '[':
		t.pushFrame(followUp, false)
		t.state = stateArrayValue
		t.appendToken(rawTokenBegin(TokenArrayBegin))
	case c == '"':
		t.scalarFollowUp = followUp
		t.beginString()
	case c == 'n':
		t.scalarFollowUp = followUp
		t.state = stateN
	case c == 't':
		t.scalarFollowUp = followUp
		t.state = stateT
	case c == 'f':
		t.scalarFollowUp = followUp
		t.state = stateF
	case c == '0':
		t.scalarFollowUp = followUp
		t.resetNumber(1)
		t.state = stateNumZero
	case c == '-':
		t.scalarFollowUp = followUp
		t.resetNumber(-1)
		t.state = stateNumMinus
	case c >= '1' && c <= '9':
		t.scalarFollowUp = followUp
		t.resetNumber(1)
		t.numWhole = uint64(c - '0')
		t.state = stateNumWhole
	default:
		t.fail(ErrExpectedValue)
	}
}

// -- string states --

func (t *Tokenizer) beginString() {
	t.strStart = len(t.buf)
	t.state = stateStringChar
}

func (t *Tokenizer) stepStringChar(c uint16) {
	switch {
	case c == '"':
		length := len(t.buf) - t.strStart
		t.appendToken(rawTokenString(int32(t.strStart), int32(length)))
		t.state = t.scalarFollowUp
	case c == '\\':
		t.state = stateStringEscape
	case c < 0x20:
		t.fail(ErrUnexpectedControlCharacter)
	default:
		t.appendUnit(c)
	}
}

func (t *Tokenizer) stepStringEscape(c uint16) {
	switch c {
	case '"', '\\', '/':
		t.appendUnit(c)
		t.state = stateStringChar
	case 'b':
		t.appendUnit(0x08)
		t.state = stateStringChar
	case 'f':
		t.appendUnit(0x0c)
		t.state = stateStringChar
	case 'n':
		t.appendUnit(0x0a)
		t.state = stateStringChar
	case 'r':
		t.appendUnit(0x0d)
		t.state = stateStringChar
	case 't':
		t.appendUnit(0x09)
		t.state = stateStringChar
	case 'u':
		t.hexVal = 0
		t.hexLeft = 4
		t.state = stateStringU1
	default:
		t.fail(ErrInvalidEscape)
	}
}

func (t *Tokenizer) stepStringUnicode(c uint16) {
	v, ok := hexVal(c)
	if !ok {
		t.fail(ErrInvalidUnicodeEscape)
		return
	}
	t.hexVal = t.hexVal<<4 | v
	t.hexLeft--
	switch t.state {
	case stateStringU1:
		t.state = stateStringU2
	case stateStringU2:
		t.state = stateStringU3
	case stateStringU3:
		t.state = stateStringU4
	case stateStringU4:
		t.appendUnit(t.hexVal)
		t.state = stateStringChar
	}
}

func hexVal(c uint16) (uint16, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

func (t *Tokenizer) appendUnit(c uint16) {
	if len(t.buf) == cap(t.buf) {
		grown := make([]uint16, len(t.buf), growCapacityUnits(cap(t.buf)))
		copy(grown, t.buf)
		t.buf = grown
	}
	t.buf = append(t.buf, c)
}

func growCapacityUnits(c int) int {
	if c == 0 {
		return defaultBufferSize
	}
	return c * 2
}

// -- literal states (null/true/false) --

func (t *Tokenizer) stepLiteral(c uint16, want byte, next tokenizerState, onFail error) {
	if c != uint16(want) {
		t.fail(onFail)
		return
	}
	t.state = next
}

func (t *Tokenizer) stepLiteralFinal(c uint16, want byte, tok rawToken, onFail error) {
	if c != uint16(want) {
		t.fail(onFail)
		return
	}
	t.appendToken(tok)
	t.state = t.scalarFollowUp
}

// -- number states --

func (t *Tokenizer) resetNumber(sign int64) {
	t.numSign = sign
	t.numWhole = 0
	t.numFrac = 0
	t.numFracExp = 0
	t.numExpSign = 1
	t.numExp = 0
	t.numHasFrac = false
	t.numHasExp = false
	t.numExpSignSeen = false
}

func (t *Tokenizer) stepNumMinus(c uint16) {
	switch {
	case c == '0':
		t.state = stateNumZero
	case c >= '1' && c <= '9':
		t.numWhole = uint64(c - '0')
		t.state = stateNumWhole
	default:
		t.fail(ErrExpectedValue)
	}
}

func (t *Tokenizer) stepNumZero(c uint16) {
	switch {
	case c >= '0' && c <= '9':
		t.fail(ErrLeadingZero)
	case c == '.':
		t.state = stateNumFrac0
	case c == 'e' || c == 'E':
		t.state = stateNumExp0
	default:
		t.emitNumber()
		t.state = t.scalarFollowUp
		t.step(c)
	}
}

func (t *Tokenizer) stepNumWhole(c uint16) {
	switch {
	case c >= '0' && c <= '9':
		t.numWhole = t.numWhole*10 + uint64(c-'0')
	case c == '.':
		t.state = stateNumFrac0
	case c == 'e' || c == 'E':
		t.state = stateNumExp0
	default:
		t.emitNumber()
		t.state = t.scalarFollowUp
		t.step(c)
	}
}

func (t *Tokenizer) stepNumFrac0(c uint16) {
	if c < '0' || c > '9' {
		t.fail(ErrExpectedValue)
		return
	}
	t.numHasFrac = true
	t.numFrac = uint64(c - '0')
	t.numFracExp = 1
	t.state = stateNumFrac
}

func (t *Tokenizer) stepNumFrac(c uint16) {
	switch {
	case c >= '0' && c <= '9':
		t.numFrac = t.numFrac*10 + uint64(c-'0')
		t.numFracExp++
	case c == 'e' || c == 'E':
		t.state = stateNumExp0
	default:
		t.emitNumber()
		t.state = t.scalarFollowUp
		t.step(c)
	}
}

func (t *Tokenizer) stepNumExp0(c uint16) {
	switch {
	case c == '+' || c == '-':
		if t.numExpSignSeen {
			t.fail(ErrExpectedValue)
			return
		}
		t.numExpSignSeen = true
		if c == '-' {
			t.numExpSign = -1
		}
		// stay in NumExp0, still need a digit
	case c >= '0' && c <= '9':
		t.numHasExp = true
		t.numExp = int(c - '0')
		t.state = stateNumExp
	default:
		t.fail(ErrExpectedValue)
	}
}

func (t *Tokenizer) stepNumExp(c uint16) {
	if c >= '0' && c <= '9' {
		t.numExp = t.numExp*10 + int(c-'0')
		return
	}
	t.emitNumber()
	t.state = t.scalarFollowUp
	t.step(c)
}

func (t *Tokenizer) emitNumber() {
	if !t.numHasFrac && !t.numHasExp {
		t.appendToken(rawTokenLong(t.numSign * int64(t.numWhole)))
		return
	}
	value := float64(t.numWhole)
	if t.numHasFrac {
		divisor := 1.0
		for i := 0; i < t.numFracExp; i++ {
			divisor *= 10
		}
		value += float64(t.numFrac) / divisor
	}
	value *= float64(t.numSign)
	if t.numHasExp {
		exp := t.numExpSign * int64(t.numExp)
		value *= pow10(exp)
	}
	t.appendToken(rawTokenDouble(value))
}

func pow10(exp int64) float64 {
	neg := exp < 0
	if neg {
		exp = -exp
	}
	result := 1.0
	base := 10.0
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	if neg {
		return 1 / result
	}
	return result
}
