package testparser

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// TestEvent represents a single event from go test -json output.
type TestEvent struct {
	Time    string  `json:"Time"`
	Action  string  `json:"Action"`
	Package string  `json:"Package"`
	Test    string  `json:"Test"`
	Elapsed float64 `json:"Elapsed"`
	Output  string  `json:"Output"`
}

// JSONParser parses go test -json output.
type JSONParser struct{}

// Name returns the parser name.
func (p *JSONParser) Name() string {
	return "go-json"
}

// Parse extracts test counts from go test -json output.
func (p *JSONParser) Parse(output string) TestCounts {
	return p.ParseJSON(strings.NewReader(output))
}

type testID struct {
	pkg, test string
}

// ParseJSON parses go test -json output from a reader and returns test counts.
// Lines that are not JSON events, such as build output, are ignored.
func (p *JSONParser) ParseJSON(r io.Reader) TestCounts {
	counts := TestCounts{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var failed []testID
	failedOutput := make(map[testID][]string)
	currentOutput := make(map[testID][]string)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		var event TestEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue
		}

		// Skip package-level events (no test name)
		if event.Test == "" {
			continue
		}
		id := testID{event.Package, event.Test}

		switch event.Action {
		case "output":
			if event.Output != "" {
				currentOutput[id] = append(currentOutput[id], event.Output)
			}

		case "pass":
			counts.Passed++
			delete(currentOutput, id)

		case "fail":
			counts.Failed++
			failed = append(failed, id)
			failedOutput[id] = currentOutput[id]
			delete(currentOutput, id)

		case "skip":
			counts.Skipped++
			delete(currentOutput, id)
		}
	}

	for _, id := range failed {
		lines := failedOutput[id]
		counts.FailedTests = append(counts.FailedTests, FailedTest{
			Package: id.pkg,
			Name:    id.test,
			Reason:  extractFailureReason(lines),
			Golds:   extractGolds(lines),
		})
	}
	sortFailedTests(counts.FailedTests)

	if counts.Passed > 0 || counts.Failed > 0 || counts.Skipped > 0 {
		counts.Parsed = true
		counts.Total = counts.Passed + counts.Failed + counts.Skipped
	}

	return counts
}

// isBoilerplate reports whether a trimmed output line carries no failure
// detail.
func isBoilerplate(trimmed string) bool {
	return trimmed == "" ||
		strings.HasPrefix(trimmed, "=== RUN") ||
		strings.HasPrefix(trimmed, "=== PAUSE") ||
		strings.HasPrefix(trimmed, "=== CONT") ||
		strings.HasPrefix(trimmed, "--- FAIL") ||
		strings.HasPrefix(trimmed, "--- PASS")
}

// extractFailureReason extracts the most relevant failure message from test output.
func extractFailureReason(outputLines []string) string {
	const maxLen = 100

	// Look for lines with file:line: pattern (typical Go test error format)
	for i, line := range outputLines {
		trimmed := strings.TrimSpace(line)
		if isBoilerplate(trimmed) {
			continue
		}
		idx := strings.Index(trimmed, ".go:")
		if idx < 0 {
			continue
		}
		afterFile := trimmed[idx+4:]
		colonIdx := strings.Index(afterFile, ":")
		if colonIdx == -1 {
			continue
		}
		reason := strings.TrimSpace(afterFile[colonIdx+1:])
		// t.Errorf("\n...") puts the message on the following line.
		if reason == "" && i+1 < len(outputLines) {
			reason = strings.TrimSpace(outputLines[i+1])
		}
		if reason != "" {
			return truncate(reason, maxLen)
		}
	}

	// Fallback: return the first non-empty, non-boilerplate line
	for _, line := range outputLines {
		trimmed := strings.TrimSpace(line)
		if !isBoilerplate(trimmed) {
			return truncate(trimmed, maxLen)
		}
	}

	return ""
}
