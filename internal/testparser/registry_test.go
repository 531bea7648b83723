package testparser

import "testing"

func TestRegistry(t *testing.T) {
	t.Parallel()
	registry := NewRegistry()

	tests := []struct {
		format       string
		expectedName string
	}{
		{"go", "go"},
		{"text", "go"},
		{"json", "go-json"},
		{"GO-JSON", "go-json"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()
			parser := registry.GetParser(tt.format)
			if parser == nil {
				t.Fatalf("GetParser(%q) returned nil", tt.format)
			}
			if parser.Name() != tt.expectedName {
				t.Errorf("GetParser(%q).Name() = %q, want %q", tt.format, parser.Name(), tt.expectedName)
			}
		})
	}

	if registry.GetParser("pytest") != nil {
		t.Error("GetParser(pytest) should return nil")
	}
}

func TestRegistry_Detect(t *testing.T) {
	t.Parallel()
	registry := NewRegistry()

	tests := []struct {
		name   string
		output string
		want   string
	}{
		{"json events", "\n  {\"Action\":\"run\"}\n", "go-json"},
		{"verbose text", "=== RUN   TestFoo\n--- PASS: TestFoo (0.00s)\n", "go"},
		{"empty", "", "go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := registry.Detect(tt.output).Name(); got != tt.want {
				t.Errorf("Detect().Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRegistry_RegisterParser(t *testing.T) {
	t.Parallel()
	registry := NewRegistry()
	registry.RegisterParser("Custom", &GoParser{})
	if registry.GetParser("custom") == nil {
		t.Error("registered parser not found")
	}
}
