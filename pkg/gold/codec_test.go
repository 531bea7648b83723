package gold

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repeatSuffix(ch string) func(int) string {
	return func(n int) string { return strings.Repeat(ch, n) }
}

func TestEncode_Canonical(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input any
		want  string
	}{
		{
			name:  "sorted keys and four-space indent",
			input: map[string]any{"b": 1, "a": []any{true, nil}},
			want:  "{\n    \"a\": [\n        true,\n        null\n    ],\n    \"b\": 1\n}\n",
		},
		{"empty object", map[string]any{}, "{}\n"},
		{"empty list", []any{}, "[]\n"},
		{
			name:  "wildcard literal",
			input: map[string]any{"ts": Wildcard, "v": 5},
			want:  "{\n    \"ts\": \"\\*\",\n    \"v\": 5\n}\n",
		},
		{"html is not escaped", []any{"<a&b>"}, "[\n    \"<a&b>\"\n]\n"},
		{"float keeps shortest form", []any{1.5, 0.1}, "[\n    1.5,\n    0.1\n]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Encode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode_BareStringUnchanged(t *testing.T) {
	t.Parallel()

	got, err := Encode("line one\nline two")
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", got)

	decoded, err := Decode(got)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", decoded)
}

func TestEncode_Struct(t *testing.T) {
	t.Parallel()

	type user struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	got, err := Encode(user{Name: "ada", Age: 36})
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"age\": 36,\n    \"name\": \"ada\"\n}\n", got)
}

func TestEncode_NaNRejected(t *testing.T) {
	t.Parallel()

	_, err := Encode(map[string]any{"x": nanValue()})
	assert.Error(t, err)
}

func TestDecode_Wildcards(t *testing.T) {
	t.Parallel()

	got, err := Decode("{\n    \"ts\": \"\\*\",\n    \"items\": [\"\\*\", 2]\n}\n")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"ts":    Wildcard,
		"items": []any{Wildcard, json.Number("2")},
	}, got)
}

func TestDecode_NonContainerReturnedAsText(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "hello", "42\n", "\"quoted\"", "null"} {
		got, err := Decode(text)
		require.NoError(t, err)
		assert.Equal(t, text, got)
	}
}

func TestDecode_TopLevelWildcard(t *testing.T) {
	t.Parallel()

	for _, text := range []string{WildcardLiteral, WildcardLiteral + "\n", "  " + WildcardLiteral + "\n\n"} {
		got, err := Decode(text)
		require.NoError(t, err)
		assert.Equal(t, Wildcard, got, "text: %q", text)
	}

	got, err := Decode(WildcardLiteral + " tail")
	require.NoError(t, err)
	assert.Equal(t, WildcardLiteral+" tail", got)
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
	}{
		{"truncated", "[1, 2"},
		{"trailing data", "{} {}"},
		{"bad literal", "{\"a\": \\*}"},
		{"wildcard key", "{\"\\*\": 1}"},
		{"nested wildcard key", "[{\"a\": {\"\\*\": \"\\*\"}}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode(tt.text)
			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr), "expected *ParseError, got %v", err)
			assert.Empty(t, parseErr.Path)
		})
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	trees := []any{
		Wildcard,
		map[string]any{},
		[]any{},
		map[string]any{"a": json.Number("1"), "b": []any{"x", nil, true, Wildcard}},
		[]any{map[string]any{"nested": map[string]any{"deep": Wildcard}}},
		[]any{"*", `\*`, "WILDCARD_", json.Number("-0.25")},
	}

	for _, tree := range trees {
		text, err := Encode(tree)
		require.NoError(t, err)
		decoded, err := Decode(text)
		require.NoError(t, err)
		assert.Equal(t, tree, decoded, "text:\n%s", text)
	}
}

func TestCodec_PayloadContainingSentinel(t *testing.T) {
	t.Parallel()

	alloc := &SentinelAllocator{suffix: repeatSuffix("A")}
	codec := NewCodec(WithSentinelAllocator(alloc))
	lookalike := DefaultSentinelPrefix + strings.Repeat("A", DefaultSentinelLength)

	tree := map[string]any{"s": lookalike, "w": Wildcard}
	text, err := codec.Encode(tree)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"s\": \""+lookalike+"\",\n    \"w\": \"\\*\"\n}\n", text)

	decoded, err := codec.Decode(text)
	require.NoError(t, err)
	assert.Equal(t, tree, decoded)
}

func TestCodec_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	tree := map[string]any{"w": Wildcard, "list": []any{Wildcard, 1}}
	_, err := Encode(tree)
	require.NoError(t, err)
	assert.Equal(t, Wildcard, tree["w"])
	assert.Equal(t, Wildcard, tree["list"].([]any)[0])
}
