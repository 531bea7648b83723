package testparser

import "strings"

// Registry maps output formats to their parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates a new parser registry with all built-in parsers.
func NewRegistry() *Registry {
	r := &Registry{
		parsers: make(map[string]Parser),
	}

	goParser := &GoParser{}
	jsonParser := &JSONParser{}

	r.parsers["go"] = goParser
	r.parsers["text"] = goParser
	r.parsers["go-json"] = jsonParser
	r.parsers["json"] = jsonParser

	return r
}

// GetParser returns a parser for the given format name.
// Returns nil if no parser is found.
func (r *Registry) GetParser(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Detect picks the parser for output: go test -json events when the first
// non-blank line is a JSON object, plain go test output otherwise.
func (r *Registry) Detect(output string) Parser {
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "{") {
			return r.parsers["json"]
		}
		break
	}
	return r.parsers["go"]
}

// RegisterParser adds a custom parser for a format.
func (r *Registry) RegisterParser(format string, parser Parser) {
	r.parsers[strings.ToLower(format)] = parser
}
