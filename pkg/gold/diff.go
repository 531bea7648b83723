package gold

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// LineKind classifies a line of a Report.
type LineKind int

const (
	// LineContext is present in both the gold and the actual value.
	LineContext LineKind = iota
	// LineExpected is only present in the gold.
	LineExpected
	// LineActual is only present in the actual value.
	LineActual
)

// Report prefixes.
const (
	PrefixExpected = "exp:"
	PrefixActual   = "got:"
	PrefixContext  = "    "
	PrefixRepeat   = "   :"
)

// ReportLine is one annotated line of a Report.
type ReportLine struct {
	Kind   LineKind
	Prefix string
	Text   string
}

// Report is the rendered difference between a gold and an actual value.
// The whole canonical text is shown, not a small window around the changes.
type Report struct {
	Lines []ReportLine
}

// String renders the report as plain text.
func (r *Report) String() string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	for i, line := range r.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line.Prefix)
		b.WriteString(line.Text)
	}
	return b.String()
}

// Diff compares expected and actual with the default codec.
func Diff(expected, actual any) (*Report, error) {
	return defaultCodec.Diff(expected, actual)
}

// Diff compares expected and actual. It returns a nil Report when they are
// equal once the positions wildcarded in expected are masked in actual.
func (c *Codec) Diff(expected, actual any) (*Report, error) {
	exp, err := Normalize(expected)
	if err != nil {
		return nil, err
	}
	act, err := Normalize(actual)
	if err != nil {
		return nil, err
	}

	expText, err := c.encodeTree(exp)
	if err != nil {
		return nil, err
	}
	actText, err := c.encodeTree(MaskWildcards(exp, act))
	if err != nil {
		return nil, err
	}
	if expText == actText {
		return nil, nil
	}
	return diffTexts(expText, actText)
}

func diffTexts(expected, actual string) (*Report, error) {
	a := splitLines(expected)
	b := splitLines(actual)
	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        a,
		B:        b,
		FromFile: "expected",
		ToFile:   "actual",
		Context:  len(a) + len(b),
	})
	if err != nil {
		return nil, err
	}
	return annotate(strings.Split(strings.TrimSuffix(unified, "\n"), "\n")), nil
}

// splitLines splits text into newline-terminated lines without the empty
// line difflib.SplitLines reports after a trailing newline.
func splitLines(text string) []string {
	lines := difflib.SplitLines(text)
	if n := len(lines); n > 1 && lines[n-1] == "\n" {
		lines = lines[:n-1]
	}
	return lines
}

// annotate turns unified diff lines into a Report: the file header is
// dropped, -/+ become exp:/got:, and a prefix repeated on consecutive lines
// is shortened so runs of changes are easier to scan.
func annotate(diffLines []string) *Report {
	report := &Report{}
	sawHunk := false
	lastPrefix := ""
	for _, line := range diffLines {
		if line == "" {
			continue
		}
		first, rest := line[0], line[1:]
		if !sawHunk {
			sawHunk = first == '@'
			continue
		}

		kind, prefix := LineContext, PrefixContext
		switch first {
		case '-':
			kind, prefix = LineExpected, PrefixExpected
		case '+':
			kind, prefix = LineActual, PrefixActual
		}

		if prefix == lastPrefix && kind != LineContext {
			prefix = PrefixRepeat
		} else {
			lastPrefix = prefix
		}

		report.Lines = append(report.Lines, ReportLine{Kind: kind, Prefix: prefix, Text: rest})
	}
	return report
}
