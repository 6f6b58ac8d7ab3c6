package flatjson

import "math"

// TokenKind identifies the shape of a RawToken/Token payload.
type TokenKind uint8

const (
	TokenNull TokenKind = iota
	TokenBool
	TokenLong
	TokenDouble
	TokenString
	TokenArrayBegin
	TokenArrayEnd
	TokenObjectBegin
	TokenObjectEnd
)

func (k TokenKind) String() string {
	switch k {
	case TokenNull:
		return "Null"
	case TokenBool:
		return "Bool"
	case TokenLong:
		return "Long"
	case TokenDouble:
		return "Double"
	case TokenString:
		return "String"
	case TokenArrayBegin:
		return "ArrayBegin"
	case TokenArrayEnd:
		return "ArrayEnd"
	case TokenObjectBegin:
		return "ObjectBegin"
	case TokenObjectEnd:
		return "ObjectEnd"
	default:
		return "Unknown"
	}
}

// rawToken is the tagged-union cell the Tokenizer appends to its token
// arena: a one-byte kind tag plus an 8-byte payload wide enough to hold a
// bool, an int64, a float64, or a packed (offset,length) int32 pair,
// exactly the union described for the wire cells in the data model. Go has
// no native union, so the payload is carried as a uint64 and reinterpreted
// per kind through math.Float64bits/Float64frombits or shifts, never
// through unsafe — the tag makes the reinterpretation unambiguous.
type rawToken struct {
	kind    TokenKind
	payload uint64
}

func rawTokenNull() rawToken { return rawToken{kind: TokenNull} }

func rawTokenBool(v bool) rawToken {
	var p uint64
	if v {
		p = 1
	}
	return rawToken{kind: TokenBool, payload: p}
}

func rawTokenLong(v int64) rawToken {
	return rawToken{kind: TokenLong, payload: uint64(v)}
}

func rawTokenDouble(v float64) rawToken {
	return rawToken{kind: TokenDouble, payload: math.Float64bits(v)}
}

func rawTokenString(offset, length int32) rawToken {
	return rawToken{kind: TokenString, payload: uint64(uint32(offset))<<32 | uint64(uint32(length))}
}

func rawTokenBegin(kind TokenKind) rawToken { return rawToken{kind: kind} }

func (t rawToken) asBool() bool         { return t.payload != 0 }
func (t rawToken) asLong() int64        { return int64(t.payload) }
func (t rawToken) asDouble() float64    { return math.Float64frombits(t.payload) }
func (t rawToken) stringOffset() int32  { return int32(t.payload >> 32) }
func (t rawToken) stringLength() int32  { return int32(t.payload & 0xffffffff) }

// Token pairs a rawToken with the code-unit buffer its (offset,length)
// pair points into, so a caller can read a String token's text without a
// back-reference to the Tokenizer itself.
type Token struct {
	raw rawToken
	buf []uint16
}

// Kind reports the token's shape.
func (t Token) Kind() TokenKind { return t.raw.kind }

// Bool returns the token's boolean payload; only meaningful for Kind() ==
// TokenBool.
func (t Token) Bool() bool { return t.raw.asBool() }

// Long returns the token's integer payload; only meaningful for Kind() ==
// TokenLong.
func (t Token) Long() int64 { return t.raw.asLong() }

// Double returns the token's floating-point payload; only meaningful for
// Kind() == TokenDouble.
func (t Token) Double() float64 { return t.raw.asDouble() }

// StringSlice returns a borrowed view of the token's string payload; only
// meaningful for Kind() == TokenString. The view is invalidated by the
// next Reset or Clear call on the Tokenizer that produced this token.
func (t Token) StringSlice() StringSlice {
	return newStringSlice(t.buf, int(t.raw.stringOffset()), int(t.raw.stringLength()))
}

// String decodes the token's string payload to a UTF-8 Go string; only
// meaningful for Kind() == TokenString.
func (t Token) String() string { return t.StringSlice().String() }
