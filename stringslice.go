package flatjson

import (
	"hash/fnv"
	"unicode/utf16"
	"unicode/utf8"
	"unsafe"

	"go4.org/mem"
)

// StringSlice is a view into a shared UTF-16 code-unit buffer: a start
// offset and a length, never a copy. It is valid only until the buffer it
// points into is mutated by a Reset or Clear call on the Tokenizer or
// Parser that produced it; CopyStrings on the Parser is the explicit
// operation that gives a batch of these views their own backing storage.
type StringSlice struct {
	buf   []uint16
	start int
	end   int
}

func newStringSlice(buf []uint16, start, length int) StringSlice {
	return StringSlice{buf: buf, start: start, end: start + length}
}

// Len reports the number of UTF-16 code units in the view.
func (s StringSlice) Len() int { return s.end - s.start }

// Empty reports whether the view has zero length.
func (s StringSlice) Empty() bool { return s.end == s.start }

func (s StringSlice) units() []uint16 { return s.buf[s.start:s.end] }

// String decodes the view to a UTF-8 Go string. Lone surrogates left behind
// by an un-paired \uXXXX escape are decoded to the Unicode replacement
// character, matching utf16.Decode's own handling; the raw code units are
// never combined into a rune pair unless the source text already presented
// two half-surrogates back to back.
func (s StringSlice) String() string {
	if s.Empty() {
		return ""
	}
	runes := utf16.Decode(s.units())
	return string(runes)
}

// AppendTo appends the UTF-8 encoding of the view to out, avoiding the
// intermediate string allocation String() would otherwise require.
func (s StringSlice) AppendTo(out []byte) []byte {
	var buf [utf8.UTFMax]byte
	units := s.units()
	for i := 0; i < len(units); i++ {
		r := rune(units[i])
		if utf16.IsSurrogate(r) && i+1 < len(units) {
			if combined := utf16.DecodeRune(r, rune(units[i+1])); combined != utf8.RuneError {
				n := utf8.EncodeRune(buf[:], combined)
				out = append(out, buf[:n]...)
				i++
				continue
			}
		}
		if utf16.IsSurrogate(r) {
			r = utf8.RuneError
		}
		n := utf8.EncodeRune(buf[:], r)
		out = append(out, buf[:n]...)
	}
	return out
}

// ro returns a go4.org/mem read-only view of the code units' raw bytes,
// aliasing the buffer without a copy. mem.RO.Equal never interprets the
// bytes as text, so the aliasing is safe regardless of host endianness.
func (s StringSlice) ro() mem.RO {
	units := s.units()
	if len(units) == 0 {
		return mem.B(nil)
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&units[0])), len(units)*2)
	return mem.B(b)
}

// Equal reports whether two views hold identical code-unit sequences,
// without allocating regardless of whether they share a backing array —
// the same approach creachadair-jtree's Scanner uses to compare a raw
// token's bytes against a literal (mem.B(...).Equal(want)).
func (s StringSlice) Equal(other StringSlice) bool {
	return s.ro().Equal(other.ro())
}

// EqualString reports whether the view, decoded to UTF-8, equals str. For
// ASCII-only content (the common case for object keys) this compares the
// raw code units against str's bytes without decoding either side.
func (s StringSlice) EqualString(str string) bool {
	if isASCII(str) {
		units := s.units()
		if len(units) != len(str) {
			return false
		}
		for i := 0; i < len(units); i++ {
			if units[i] > 0x7f || byte(units[i]) != str[i] {
				return false
			}
		}
		return true
	}
	return s.String() == str
}

// Hash returns an FNV-1a hash of the view's raw UTF-16 bytes — the same
// zero-copy byte view Equal compares, so two StringSlices Equal reports
// equal always hash equal too. Like any other view into the buffer, the
// hash is only meaningful until the Tokenizer or Parser that produced it
// is Reset or Clear-ed.
func (s StringSlice) Hash() uint64 {
	h := fnv.New64a()
	units := s.units()
	if len(units) > 0 {
		b := unsafe.Slice((*byte)(unsafe.Pointer(&units[0])), len(units)*2)
		h.Write(b)
	}
	return h.Sum64()
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return false
		}
	}
	return true
}
