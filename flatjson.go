// Package flatjson is a streaming, push-driven JSON engine: a character-fed
// Tokenizer turns UTF-16 code units into a flat arena of tagged tokens, a
// token-fed Parser folds those tokens into a flat tree of tagged cells
// (strings/values/indexes arenas, no per-node heap allocation), and a
// Generator turns typed emit calls back into JSON text. Marshal and
// Unmarshal below are convenience wrappers over that pipeline for callers
// who just want a round trip; embedders who care about allocation behavior
// should drive the Tokenizer, Parser and Generator directly.
package flatjson

import "fmt"

// Unmarshal tokenizes and parses s in one pass, returning the Parser that
// owns the resulting tree (so its arenas stay alive) and a Value handle on
// the root. The returned Parser has already had CopyStrings called on it,
// so the tree remains valid independent of the internal Tokenizer used to
// produce it.
func Unmarshal(s string) (*Parser, Value, error) {
	t := NewTokenizer(WithInitialBufferSize(len(s)))
	t.FeedString(s)
	t.End()
	if t.IsFailed() {
		return nil, Value{}, fmt.Errorf("flatjson: tokenize: %w", t.Err())
	}

	p := NewParser(WithInitialArenaSize(t.Count()))
	p.FeedSeq(t.Tokens())
	if p.IsFailed() {
		return nil, Value{}, fmt.Errorf("flatjson: parse: %w", p.Err())
	}
	if !p.IsDone() {
		return nil, Value{}, fmt.Errorf("flatjson: parse: %w", ErrUnexpectedJSONEnding)
	}
	p.CopyStrings()

	root, err := p.LastParsedRoot()
	if err != nil {
		return nil, Value{}, err
	}
	return p, root, nil
}

// Marshal drives a Generator over v and returns the resulting compact JSON
// text.
func Marshal(v Value) (string, error) {
	g := NewGenerator()
	if err := g.EmitValue(v); err != nil {
		return "", err
	}
	return g.String(), nil
}

// MarshalIndent behaves like Marshal but produces multi-line, indented
// output using indent as the per-depth-level prefix.
func MarshalIndent(v Value, indent string) (string, error) {
	g := NewGenerator(WithPretty(true), WithIndent(indent))
	if err := g.EmitValue(v); err != nil {
		return "", err
	}
	return g.String(), nil
}
