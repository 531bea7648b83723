package gold

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"unicode"
)

// WildcardLiteral is how a Wildcard is spelled in persisted gold text. It is
// not valid JSON on its own, so it can never collide with real content.
const WildcardLiteral = `"\*"`

// Codec converts value trees to and from canonical gold text.
// A Codec is safe for concurrent use; every call picks its own sentinel.
type Codec struct {
	sentinels *SentinelAllocator
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithSentinelAllocator sets the allocator used to pick wildcard sentinels.
func WithSentinelAllocator(a *SentinelAllocator) CodecOption {
	return func(c *Codec) {
		if a != nil {
			c.sentinels = a
		}
	}
}

// NewCodec creates a Codec.
func NewCodec(opts ...CodecOption) *Codec {
	c := &Codec{sentinels: defaultAllocator}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCodec = NewCodec()

// Encode serializes v with the default codec.
func Encode(v any) (string, error) {
	return defaultCodec.Encode(v)
}

// Decode parses gold text with the default codec.
func Decode(text string) (any, error) {
	return defaultCodec.Decode(text)
}

// Encode serializes v into canonical text: keys sorted, four-space
// indentation, trailing newline, wildcards written as WildcardLiteral.
// A bare string is returned unchanged so scalar outputs stay readable.
func (c *Codec) Encode(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	tree, err := Normalize(v)
	if err != nil {
		return "", err
	}
	return c.encodeTree(tree)
}

func (c *Codec) encodeTree(tree any) (string, error) {
	if s, ok := tree.(string); ok {
		return s, nil
	}

	// The sentinel only has to be absent from the payload itself, so it is
	// chosen against a rendering where every wildcard is an empty string.
	baseline, err := marshalCanonical(RecursiveReplace(tree, tree, Wildcard, ""))
	if err != nil {
		return "", err
	}
	sentinel, err := c.sentinels.Allocate(baseline)
	if err != nil {
		return "", err
	}

	text, err := marshalCanonical(RecursiveReplace(tree, tree, Wildcard, sentinel))
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(text, `"`+sentinel+`"`, WildcardLiteral), nil
}

func marshalCanonical(tree any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(tree); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Decode parses gold text. Text that does not start with '{' or '[' (after
// leading whitespace) is returned unchanged as a string, except a lone
// WildcardLiteral, which decodes to Wildcard. Every WildcardLiteral in the
// text becomes a Wildcard in the returned tree. Wildcards are not allowed as
// object keys.
func (c *Codec) Decode(text string) (any, error) {
	if strings.TrimSpace(text) == WildcardLiteral {
		return Wildcard, nil
	}
	trimmed := strings.TrimLeftFunc(text, unicode.IsSpace)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return text, nil
	}

	sentinel, err := c.sentinels.Allocate(text)
	if err != nil {
		return nil, err
	}
	substituted := strings.ReplaceAll(text, WildcardLiteral, `"`+sentinel+`"`)

	dec := json.NewDecoder(strings.NewReader(substituted))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, &ParseError{Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Err: errors.New("unexpected data after top-level value")}
	}

	if hasKey(tree, sentinel) {
		return nil, &ParseError{Err: errors.New("wildcard cannot be used as an object key")}
	}
	return RecursiveReplace(tree, tree, sentinel, Wildcard), nil
}

// hasKey reports whether any object in v has the given key.
func hasKey(v any, key string) bool {
	switch t := v.(type) {
	case map[string]any:
		if _, ok := t[key]; ok {
			return true
		}
		for _, child := range t {
			if hasKey(child, key) {
				return true
			}
		}
	case []any:
		for _, child := range t {
			if hasKey(child, key) {
				return true
			}
		}
	}
	return false
}
