// Package testparser summarizes go test output for the gen and summary
// commands, including the gold files named in failure messages.
package testparser

import (
	"regexp"
	"sort"
	"strings"
)

// FailedTest holds information about a single failed test.
type FailedTest struct {
	Package string // import path, when known
	Name    string // Test name (e.g., "TestFoo/subtest")
	Reason  string // Failure reason/error message
	Golds   []string
}

// TestCounts holds parsed test result counts.
type TestCounts struct {
	Passed      int
	Failed      int
	Skipped     int
	Total       int
	Parsed      bool         // true if counts were successfully extracted
	FailedTests []FailedTest // details of failed tests
}

// Add adds another TestCounts to this one, aggregating the counts.
// The Parsed flag uses "sticky true" semantics: if any added TestCounts
// has Parsed=true, the aggregate will have Parsed=true.
func (tc *TestCounts) Add(other *TestCounts) {
	if other == nil {
		return
	}
	tc.Passed += other.Passed
	tc.Failed += other.Failed
	tc.Skipped += other.Skipped
	tc.Total += other.Total
	tc.FailedTests = append(tc.FailedTests, other.FailedTests...)
	if other.Parsed {
		tc.Parsed = true
	}
}

// Golds returns the gold files named by failed tests, sorted and
// deduplicated.
func (tc *TestCounts) Golds() []string {
	seen := make(map[string]bool)
	var golds []string
	for _, ft := range tc.FailedTests {
		for _, g := range ft.Golds {
			if !seen[g] {
				seen[g] = true
				golds = append(golds, g)
			}
		}
	}
	sort.Strings(golds)
	return golds
}

// Parser defines the interface for test output parsers.
type Parser interface {
	// Parse extracts test counts from the test framework output.
	Parse(output string) TestCounts
	// Name returns the name of the parser.
	Name() string
}

// Messages written by pkg/gold when an assertion fails.
var goldPathRegexes = []*regexp.Regexp{
	regexp.MustCompile(`Difference found in (\S+)`),
	regexp.MustCompile(`missing gold file (\S+)`),
	regexp.MustCompile(`malformed gold file (\S+):`),
}

// extractGolds returns the gold files mentioned in output lines, in order of
// appearance.
func extractGolds(lines []string) []string {
	var golds []string
	seen := make(map[string]bool)
	for _, line := range lines {
		for _, re := range goldPathRegexes {
			for _, m := range re.FindAllStringSubmatch(line, -1) {
				p := strings.TrimRight(m[1], ".,")
				if !seen[p] {
					seen[p] = true
					golds = append(golds, p)
				}
			}
		}
	}
	return golds
}

// truncate shortens s to at most maxLen bytes.
func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen-3] + "..."
	}
	return s
}

// sortFailedTests orders failures by package, then test name.
func sortFailedTests(tests []FailedTest) {
	sort.SliceStable(tests, func(i, j int) bool {
		if tests[i].Package != tests[j].Package {
			return tests[i].Package < tests[j].Package
		}
		return tests[i].Name < tests[j].Name
	})
}
