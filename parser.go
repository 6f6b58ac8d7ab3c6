package flatjson

import (
	"iter"
	"log/slog"
)

// parserMode is the coarse status the public IsDone/IsFailed/IsParsing
// surface exposes. The finer-grained ArrayValue/ObjectKey/ObjectValue
// states from the design are represented implicitly by the frame stack
// (see frame below) rather than a mirrored enum, since every dispatch
// decision only ever needs "what is the innermost open container doing".
type parserMode uint8

const (
	parserParsing parserMode = iota
	parserDone
	parserError
)

// frame tracks one open array or object while the Parser is building it:
// its own temp index list (borrowed from the pool) and, for objects,
// whether the next token must be a key or may be a value.
type frame struct {
	isObject    bool
	awaitingKey bool
	temp        []int32
}

// Parser consumes a push-fed stream of Tokens and builds a flat tree of
// tagged cells across three growable arenas — strings, values and
// indexes: containers are ranges into indexes, indexes hold positions into
// strings/values, and no per-node struct is ever heap-allocated.
type Parser struct {
	mode   parserMode
	frames []frame

	strings   []StringSlice
	values    []rawValue
	indexes   []int32
	ownedUpTo int // strings[:ownedUpTo] have already survived a CopyStrings

	tempPool [][]int32

	tokenIndex int
	err        error

	logger *slog.Logger
}

// NewParser builds a Parser ready to Feed.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		strings: make([]StringSlice, 0, defaultArenaSize),
		values:  make([]rawValue, 0, defaultArenaSize),
		indexes: make([]int32, 0, defaultArenaSize),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsDone reports whether the Parser has finished building one root value.
func (p *Parser) IsDone() bool { return p.mode == parserDone }

// IsFailed reports whether the Parser state machine has entered Error.
func (p *Parser) IsFailed() bool { return p.mode == parserError }

// IsParsing reports whether the Parser is neither done nor failed.
func (p *Parser) IsParsing() bool { return p.mode == parserParsing }

// Err returns the wrapped failure reason, or nil.
func (p *Parser) Err() error { return p.err }

func (p *Parser) fail(reason error) {
	p.mode = parserError
	p.err = &ParseError{TokenIndex: p.tokenIndex, Reason: reason}
	p.logger.Warn("flatjson: parser failed", "token", p.tokenIndex, "reason", reason)
}

// Feed advances the state machine by one Token. It is a no-op once the
// Parser is Done or has Failed.
func (p *Parser) Feed(t Token) {
	if p.mode != parserParsing {
		return
	}
	p.tokenIndex++
	if len(p.frames) == 0 {
		p.dispatchValue(t)
		return
	}
	top := &p.frames[len(p.frames)-1]
	if top.isObject {
		if top.awaitingKey {
			switch t.Kind() {
			case TokenObjectEnd:
				p.closeObject()
			case TokenString:
				idx := p.appendString(t.StringSlice())
				top.temp = append(top.temp, int32(idx))
				top.awaitingKey = false
			default:
				p.fail(ErrExpectedObjectField)
			}
			return
		}
		top.awaitingKey = true
		p.dispatchValue(t)
		return
	}
	// array
	if t.Kind() == TokenArrayEnd {
		p.closeArray()
		return
	}
	p.dispatchValue(t)
}

// FeedSlice feeds every token in order, stopping early if the Parser
// stops parsing.
func (p *Parser) FeedSlice(tokens []Token) {
	for _, t := range tokens {
		if p.mode != parserParsing {
			return
		}
		p.Feed(t)
	}
}

// FeedSeq feeds every token yielded by seq in order, stopping early if the
// Parser stops parsing.
func (p *Parser) FeedSeq(seq iter.Seq[Token]) {
	for t := range seq {
		if p.mode != parserParsing {
			return
		}
		p.Feed(t)
	}
}

func (p *Parser) dispatchValue(t Token) {
	switch t.Kind() {
	case TokenNull:
		p.appendValueIndex(rawValueNull())
	case TokenBool:
		p.appendValueIndex(rawValueBool(t.Bool()))
	case TokenLong:
		p.appendValueIndex(rawValueLong(t.Long()))
	case TokenDouble:
		p.appendValueIndex(rawValueDouble(t.Double()))
	case TokenString:
		idx := p.appendString(t.StringSlice())
		p.appendValueIndex(rawValueString(int32(idx)))
	case TokenArrayBegin:
		p.pushFrame(frame{isObject: false})
	case TokenObjectBegin:
		p.pushFrame(frame{isObject: true, awaitingKey: true})
	default:
		p.fail(ErrExpectedValue)
	}
}

func (p *Parser) appendString(s StringSlice) int {
	idx := len(p.strings)
	p.strings = append(p.strings, s)
	return idx
}

func (p *Parser) appendValueIndex(v rawValue) int {
	idx := len(p.values)
	p.values = append(p.values, v)
	if len(p.frames) > 0 {
		top := &p.frames[len(p.frames)-1]
		top.temp = append(top.temp, int32(idx))
	} else {
		p.mode = parserDone
	}
	return idx
}

func (p *Parser) pushFrame(f frame) {
	f.temp = p.getTempSlice()
	p.frames = append(p.frames, f)
}

func (p *Parser) popFrame() frame {
	f := p.frames[len(p.frames)-1]
	p.frames = p.frames[:len(p.frames)-1]
	return f
}

func (p *Parser) closeArray() {
	f := p.popFrame()
	offset := len(p.indexes)
	p.indexes = append(p.indexes, f.temp...)
	length := len(f.temp)
	p.releaseTempSlice(f.temp)
	p.appendValueIndex(rawValueArray(int32(offset), int32(length)))
}

func (p *Parser) closeObject() {
	f := p.popFrame()
	offset := len(p.indexes)
	p.indexes = append(p.indexes, f.temp...)
	length := len(f.temp) / 2
	p.releaseTempSlice(f.temp)
	p.appendValueIndex(rawValueObject(int32(offset), int32(length)))
}

// -- temp-index pool --
//
// A small free list of reusable []int32 vectors, one per currently-open
// container, with a doubling-capacity pool: containers borrow a slice on
// open and return it on close, so deeply nested documents don't force a
// fresh allocation per level once the pool has warmed up.

const defaultTempSliceCap = 8

func (p *Parser) getTempSlice() []int32 {
	if n := len(p.tempPool); n > 0 {
		s := p.tempPool[n-1]
		p.tempPool = p.tempPool[:n-1]
		return s[:0]
	}
	return make([]int32, 0, defaultTempSliceCap)
}

func (p *Parser) releaseTempSlice(s []int32) {
	p.tempPool = append(p.tempPool, s)
}

// CopyStrings gives every StringSlice appended since the last CopyStrings
// call (or since construction) its own backing storage, copied out of
// whatever Tokenizer buffer it currently borrows from. Call this before
// resetting or reusing a Tokenizer whose Tokens fed this Parser, so
// previously-parsed strings survive the Tokenizer's own Reset.
func (p *Parser) CopyStrings() {
	start := p.ownedUpTo
	total := 0
	for i := start; i < len(p.strings); i++ {
		total += p.strings[i].Len()
	}
	if total == 0 {
		p.ownedUpTo = len(p.strings)
		return
	}
	buf := make([]uint16, 0, total)
	for i := start; i < len(p.strings); i++ {
		s := p.strings[i]
		newStart := len(buf)
		buf = append(buf, s.units()...)
		p.strings[i] = newStringSlice(buf, newStart, s.Len())
	}
	// buf was preallocated with exactly enough capacity for every append
	// above, so its backing array never moves mid-loop; each already-built
	// StringSlice keeps pointing at the same array a later append only
	// extends, never rewrites.
	p.ownedUpTo = len(p.strings)
}

// LastParsedRoot returns the root Value of the most recently completed
// document, or ErrNotDone if the Parser has not reached Done.
func (p *Parser) LastParsedRoot() (Value, error) {
	if p.mode != parserDone {
		return Value{}, ErrNotDone
	}
	return Value{raw: p.values[len(p.values)-1], p: p}, nil
}

// Reset returns the Parser to its initial state, releasing any in-flight
// container temp slices back to the pool, but keeps the strings/values/
// indexes arenas intact so previously-parsed trees remain valid.
func (p *Parser) Reset() {
	for _, f := range p.frames {
		p.releaseTempSlice(f.temp)
	}
	p.frames = p.frames[:0]
	p.mode = parserParsing
	p.tokenIndex = 0
	p.err = nil
}

// Clear behaves like Reset and additionally truncates the strings/values/
// indexes arenas, invalidating every Value obtained from this Parser.
func (p *Parser) Clear() {
	p.Reset()
	p.strings = p.strings[:0]
	p.values = p.values[:0]
	p.indexes = p.indexes[:0]
	p.ownedUpTo = 0
}
