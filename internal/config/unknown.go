package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// LoadWithWarnings parses configuration data and returns any unknown field
// warnings. path only selects the format.
func LoadWithWarnings(path string, data []byte) (*Config, []string, error) {
	jsonData, err := toJSON(path, data)
	if err != nil {
		return nil, nil, err
	}

	var cfg Config
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, detectUnknownFields(jsonData), nil
}

// sections maps every top-level key to the struct it decodes into.
var sections = map[string]reflect.Type{
	"golds":      reflect.TypeOf(GoldsConfig{}),
	"generation": reflect.TypeOf(GenerationConfig{}),
	"sentinel":   reflect.TypeOf(SentinelConfig{}),
	"database":   reflect.TypeOf(DatabaseConfig{}),
	"output":     reflect.TypeOf(OutputConfig{}),
}

// detectUnknownFields compares raw JSON with known struct fields.
func detectUnknownFields(data []byte) []string {
	var warnings []string

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return []string{"internal: failed to re-parse config for unknown field detection"}
	}

	knownTopLevel := getJSONFields(reflect.TypeOf(Config{}))
	for _, key := range sortedKeys(raw) {
		if key == "$schema" {
			continue // $schema is explicitly allowed and ignored
		}
		if !knownTopLevel[key] {
			warnings = append(warnings, fmt.Sprintf("unknown field %q at root level (ignored)", key))
			continue
		}

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw[key], &fields); err != nil {
			continue
		}
		known := getJSONFields(sections[key])
		for _, field := range sortedKeys(fields) {
			if !known[field] {
				warnings = append(warnings, fmt.Sprintf("unknown field %q in %s (ignored)", field, key))
			}
		}
	}

	return warnings
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// getJSONFields returns a map of known JSON field names for a struct type.
func getJSONFields(t reflect.Type) map[string]bool {
	fields := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if name != "" {
			fields[name] = true
		}
	}
	return fields
}
