package flatjson

import (
	"iter"
	"math"
)

// ValueKind identifies the shape of a RawValue/Value payload.
type ValueKind uint8

const (
	ValueNull ValueKind = iota
	ValueBool
	ValueLong
	ValueDouble
	ValueString
	ValueArray
	ValueObject
)

func (k ValueKind) String() string {
	switch k {
	case ValueNull:
		return "Null"
	case ValueBool:
		return "Bool"
	case ValueLong:
		return "Long"
	case ValueDouble:
		return "Double"
	case ValueString:
		return "String"
	case ValueArray:
		return "Array"
	case ValueObject:
		return "Object"
	default:
		return "Unknown"
	}
}

// rawValue is the tagged-union cell stored in the Parser's values arena:
// the same one-byte-tag, 8-byte-payload shape as rawToken, reused here so
// null/bool/long/double are stored inline and only string/array/object
// payloads reach into another arena (strings[] or indexes[]).
type rawValue struct {
	kind    ValueKind
	payload uint64
}

func rawValueNull() rawValue      { return rawValue{kind: ValueNull} }
func rawValueBool(v bool) rawValue {
	var p uint64
	if v {
		p = 1
	}
	return rawValue{kind: ValueBool, payload: p}
}
func rawValueLong(v int64) rawValue      { return rawValue{kind: ValueLong, payload: uint64(v)} }
func rawValueDouble(v float64) rawValue  { return rawValue{kind: ValueDouble, payload: math.Float64bits(v)} }
func rawValueString(idx int32) rawValue  { return rawValue{kind: ValueString, payload: uint64(uint32(idx))} }
func rawValueArray(offset, length int32) rawValue {
	return rawValue{kind: ValueArray, payload: uint64(uint32(offset))<<32 | uint64(uint32(length))}
}
func rawValueObject(offset, length int32) rawValue {
	return rawValue{kind: ValueObject, payload: uint64(uint32(offset))<<32 | uint64(uint32(length))}
}

func (v rawValue) asBool() bool      { return v.payload != 0 }
func (v rawValue) asLong() int64     { return int64(v.payload) }
func (v rawValue) asDouble() float64 { return math.Float64frombits(v.payload) }
func (v rawValue) stringIndex() int32 { return int32(v.payload) }
func (v rawValue) offsetLength() (int32, int32) {
	return int32(v.payload >> 32), int32(v.payload & 0xffffffff)
}

// Value is a handle onto one cell of a Parser's flat tree: the tagged
// payload plus a back-reference to the Parser owning the strings/values/
// indexes arenas it may need to walk into. A Value is only valid for as
// long as its Parser's arenas are; Parser.Clear invalidates every Value
// obtained beforehand, while Parser.Reset leaves them readable.
type Value struct {
	raw rawValue
	p   *Parser
}

// Kind reports the value's shape.
func (v Value) Kind() ValueKind { return v.raw.kind }

// IsNull reports whether the value is JSON null.
func (v Value) IsNull() bool { return v.raw.kind == ValueNull }

// AsBool returns the value's boolean payload, or ErrInvalidCast if Kind()
// is not ValueBool.
func (v Value) AsBool() (bool, error) {
	if v.raw.kind != ValueBool {
		return false, ErrInvalidCast
	}
	return v.raw.asBool(), nil
}

// AsLong returns the value's integer payload, or ErrInvalidCast if Kind()
// is not ValueLong.
func (v Value) AsLong() (int64, error) {
	if v.raw.kind != ValueLong {
		return 0, ErrInvalidCast
	}
	return v.raw.asLong(), nil
}

// AsDouble returns the value's floating-point payload. It accepts both
// ValueDouble and ValueLong, widening an integer the way a JSON consumer
// commonly wants a uniform numeric accessor; anything else is
// ErrInvalidCast.
func (v Value) AsDouble() (float64, error) {
	switch v.raw.kind {
	case ValueDouble:
		return v.raw.asDouble(), nil
	case ValueLong:
		return float64(v.raw.asLong()), nil
	default:
		return 0, ErrInvalidCast
	}
}

// AsStringSlice returns a borrowed view of the value's string payload, or
// ErrInvalidCast if Kind() is not ValueString.
func (v Value) AsStringSlice() (StringSlice, error) {
	if v.raw.kind != ValueString {
		return StringSlice{}, ErrInvalidCast
	}
	return v.p.strings[v.raw.stringIndex()], nil
}

// AsString decodes the value's string payload to a UTF-8 Go string, or
// returns ErrInvalidCast if Kind() is not ValueString.
func (v Value) AsString() (string, error) {
	s, err := v.AsStringSlice()
	if err != nil {
		return "", err
	}
	return s.String(), nil
}

// Count reports the number of elements (Array) or key/value pairs
// (Object) the value holds. It is ErrInvalidCast for any other kind.
func (v Value) Count() (int, error) {
	switch v.raw.kind {
	case ValueArray:
		_, length := v.raw.offsetLength()
		return int(length), nil
	case ValueObject:
		_, length := v.raw.offsetLength()
		return int(length), nil
	default:
		return 0, ErrInvalidCast
	}
}

// Index returns the i-th element of an Array, or the i-th value of an
// Object (skipping its key). It is ErrInvalidCast for any other kind and
// ErrOutOfRange when i is outside [0, Count()).
func (v Value) Index(i int) (Value, error) {
	switch v.raw.kind {
	case ValueArray:
		offset, length := v.raw.offsetLength()
		if i < 0 || i >= int(length) {
			return Value{}, ErrOutOfRange
		}
		idx := v.p.indexes[int(offset)+i]
		return Value{raw: v.p.values[idx], p: v.p}, nil
	case ValueObject:
		offset, length := v.raw.offsetLength()
		if i < 0 || i >= int(length) {
			return Value{}, ErrOutOfRange
		}
		idx := v.p.indexes[int(offset)+2*i+1]
		return Value{raw: v.p.values[idx], p: v.p}, nil
	default:
		return Value{}, ErrInvalidCast
	}
}

// Key returns the i-th key of an Object, or ErrInvalidCast/ErrOutOfRange
// under the same conditions as Index.
func (v Value) Key(i int) (StringSlice, error) {
	if v.raw.kind != ValueObject {
		return StringSlice{}, ErrInvalidCast
	}
	offset, length := v.raw.offsetLength()
	if i < 0 || i >= int(length) {
		return StringSlice{}, ErrOutOfRange
	}
	strIdx := v.p.indexes[int(offset)+2*i]
	return v.p.strings[strIdx], nil
}

// Field looks up an Object's value by key, using plain code-unit
// comparison (StringSlice.EqualString) rather than building a hash map —
// the Parser keeps no per-object lookup index, staying flat and
// allocation-averse; callers needing repeated lookups should build their
// own index from Keys().
func (v Value) Field(key string) (Value, error) {
	if v.raw.kind != ValueObject {
		return Value{}, ErrInvalidCast
	}
	offset, length := v.raw.offsetLength()
	for i := 0; i < int(length); i++ {
		strIdx := v.p.indexes[int(offset)+2*i]
		if v.p.strings[strIdx].EqualString(key) {
			valIdx := v.p.indexes[int(offset)+2*i+1]
			return Value{raw: v.p.values[valIdx], p: v.p}, nil
		}
	}
	return Value{}, ErrNotFound
}

// Elements iterates an Array's values in order, or an Object's values in
// insertion order (its keys are reached separately through Keys). It is a
// no-op sequence for any other kind.
func (v Value) Elements() iter.Seq[Value] {
	return func(yield func(Value) bool) {
		if v.raw.kind != ValueArray && v.raw.kind != ValueObject {
			return
		}
		n, _ := v.Count()
		for i := 0; i < n; i++ {
			e, _ := v.Index(i)
			if !yield(e) {
				return
			}
		}
	}
}

// Keys iterates an Object's keys in insertion order, the range-over-func
// idiom addrummond-jsonstream exposes for its own token stream
// (iter.Seq[Token]). It is a no-op sequence for any other kind.
func (v Value) Keys() iter.Seq[StringSlice] {
	return func(yield func(StringSlice) bool) {
		if v.raw.kind != ValueObject {
			return
		}
		n, _ := v.Count()
		for i := 0; i < n; i++ {
			k, _ := v.Key(i)
			if !yield(k) {
				return
			}
		}
	}
}

// KeyValuePairs iterates an Object's key/value pairs in insertion order.
// It is a no-op sequence for any other kind.
func (v Value) KeyValuePairs() iter.Seq2[StringSlice, Value] {
	return func(yield func(StringSlice, Value) bool) {
		if v.raw.kind != ValueObject {
			return
		}
		n, _ := v.Count()
		for i := 0; i < n; i++ {
			k, _ := v.Key(i)
			e, _ := v.Index(i)
			if !yield(k, e) {
				return
			}
		}
	}
}

// String pretty-prints the value by driving a Generator over it.
func (v Value) String() string {
	g := NewGenerator(WithPretty(true))
	_ = g.EmitValue(v)
	return string(g.Bytes())
}
