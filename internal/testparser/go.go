package testparser

import (
	"regexp"
	"strings"
)

var (
	goPassRegex     = regexp.MustCompile(`(?m)^\s*---\s+PASS:\s+`)
	goFailRegex     = regexp.MustCompile(`(?m)^\s*---\s+FAIL:\s+(\S+)`)
	goSkipRegex     = regexp.MustCompile(`(?m)^\s*---\s+SKIP:\s+`)
	goFailLineRegex = regexp.MustCompile(`^\s*---\s+FAIL:\s+(\S+)\s+`)
	goErrorLine     = regexp.MustCompile(`^\s+\S+\.go:\d+:`)
)

// GoParser parses plain go test -v output.
type GoParser struct{}

// Name returns the parser name.
func (p *GoParser) Name() string {
	return "go"
}

// Parse extracts test counts from Go test output.
// Go test outputs lines like:
//
//	--- PASS: TestFoo (0.00s)
//	--- FAIL: TestBar (0.01s)
//	--- SKIP: TestBaz (0.00s)
func (p *GoParser) Parse(output string) TestCounts {
	counts := TestCounts{}

	counts.Passed = len(goPassRegex.FindAllString(output, -1))
	counts.Skipped = len(goSkipRegex.FindAllString(output, -1))

	failMatches := goFailRegex.FindAllStringSubmatch(output, -1)
	counts.Failed = len(failMatches)
	if counts.Failed > 0 {
		lines := strings.Split(output, "\n")
		for _, match := range failMatches {
			block := failureBlock(lines, match[1])
			counts.FailedTests = append(counts.FailedTests, FailedTest{
				Name:   match[1],
				Reason: extractFailureReason(block),
				Golds:  extractGolds(block),
			})
		}
		sortFailedTests(counts.FailedTests)
	}

	// A package summary alone carries no per-test counts.
	if counts.Passed > 0 || counts.Failed > 0 || counts.Skipped > 0 {
		counts.Parsed = true
		counts.Total = counts.Passed + counts.Failed + counts.Skipped
	}
	return counts
}

// isTestBoundary returns true if the line marks the start of a test run
// or the result of a test (PASS/FAIL/SKIP).
func isTestBoundary(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "=== RUN") ||
		strings.HasPrefix(trimmed, "--- PASS:") ||
		strings.HasPrefix(trimmed, "--- FAIL:") ||
		strings.HasPrefix(trimmed, "--- SKIP:")
}

// failureBlock returns the output lines logged by testName before its FAIL
// line: everything back to the previous test boundary.
func failureBlock(lines []string, testName string) []string {
	failLineIdx := -1
	for i, line := range lines {
		match := goFailLineRegex.FindStringSubmatch(line)
		if match != nil && match[1] == testName {
			failLineIdx = i
			break
		}
	}
	if failLineIdx == -1 {
		return nil
	}

	start := failLineIdx
	for start > 0 && !isTestBoundary(lines[start-1]) {
		start--
	}
	block := lines[start:failLineIdx]

	// Prefer the lines logged through t.Error and friends, plus their
	// continuation lines.
	for i, line := range block {
		if goErrorLine.MatchString(line) {
			return block[i:]
		}
	}
	return block
}
