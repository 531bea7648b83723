package gold

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_Equal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expected any
		actual   any
	}{
		{"identical", map[string]any{"a": 1}, map[string]any{"a": 1}},
		{"wildcard leaf", map[string]any{"ts": Wildcard, "v": 5}, map[string]any{"ts": "2024-01-01", "v": 5}},
		{"wildcard subtree", []any{Wildcard}, []any{map[string]any{"x": []any{1, 2}}}},
		{"wildcard top level", Wildcard, map[string]any{"anything": true}},
		{"bare strings", "hello\n", "hello\n"},
		{"go types vs decoded", map[string]any{"n": 3, "at": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}, map[string]any{"n": int64(3), "at": "2024-01-01T00:00:00Z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			report, err := Diff(tt.expected, tt.actual)
			require.NoError(t, err)
			assert.Nil(t, report)
		})
	}
}

func TestDiff_ChangedValue(t *testing.T) {
	t.Parallel()

	report, err := Diff(map[string]any{"a": 1}, map[string]any{"a": 2})
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, "    {\nexp:    \"a\": 1\ngot:    \"a\": 2\n    }", report.String())
	assert.Equal(t, []ReportLine{
		{Kind: LineContext, Prefix: PrefixContext, Text: "{"},
		{Kind: LineExpected, Prefix: PrefixExpected, Text: `    "a": 1`},
		{Kind: LineActual, Prefix: PrefixActual, Text: `    "a": 2`},
		{Kind: LineContext, Prefix: PrefixContext, Text: "}"},
	}, report.Lines)
}

func TestDiff_RepeatedPrefix(t *testing.T) {
	t.Parallel()

	report, err := Diff([]any{1, 2}, []any{3, 4})
	require.NoError(t, err)
	require.NotNil(t, report)

	want := "    [\n" +
		"exp:    1,\n" +
		"   :    2\n" +
		"got:    3,\n" +
		"   :    4\n" +
		"    ]"
	assert.Equal(t, want, report.String())
}

func TestDiff_ShowsWholeDocument(t *testing.T) {
	t.Parallel()

	expected := map[string]any{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5, "f": 6, "g": 7, "h": 8, "z": 0}
	actual := map[string]any{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5, "f": 6, "g": 7, "h": 8, "z": 1}

	report, err := Diff(expected, actual)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Len(t, report.Lines, 12)
	assert.Equal(t, `    "a": 1,`, report.Lines[1].Text)
}

func TestDiff_WildcardedPositionShownAsLiteral(t *testing.T) {
	t.Parallel()

	report, err := Diff(
		map[string]any{"id": Wildcard, "v": 1},
		map[string]any{"id": "abc", "v": 2},
	)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, "    {\n        \"id\": \"\\*\",\nexp:    \"v\": 1\ngot:    \"v\": 2\n    }", report.String())
}

func TestDiff_MissingKey(t *testing.T) {
	t.Parallel()

	report, err := Diff(map[string]any{"a": 1, "b": 2}, map[string]any{"a": 1})
	require.NoError(t, err)
	require.NotNil(t, report)

	var expectedLines []string
	for _, line := range report.Lines {
		if line.Kind == LineExpected {
			expectedLines = append(expectedLines, line.Text)
		}
	}
	assert.Contains(t, expectedLines, `    "b": 2`)
}

func TestReport_NilString(t *testing.T) {
	t.Parallel()

	var r *Report
	assert.Empty(t, r.String())
}
