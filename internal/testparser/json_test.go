package testparser

import (
	"reflect"
	"strings"
	"testing"
)

func TestJSONParser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		input          string
		expectedCounts TestCounts
	}{
		{
			name: "all passing",
			input: `{"Time":"2024-01-01T00:00:00Z","Action":"run","Package":"example.com/pkg","Test":"TestFoo"}
{"Time":"2024-01-01T00:00:00Z","Action":"output","Package":"example.com/pkg","Test":"TestFoo","Output":"=== RUN   TestFoo\n"}
{"Time":"2024-01-01T00:00:00Z","Action":"pass","Package":"example.com/pkg","Test":"TestFoo","Elapsed":0.01}
{"Time":"2024-01-01T00:00:00Z","Action":"run","Package":"example.com/pkg","Test":"TestBar"}
{"Time":"2024-01-01T00:00:00Z","Action":"pass","Package":"example.com/pkg","Test":"TestBar","Elapsed":0.02}`,
			expectedCounts: TestCounts{Passed: 2, Total: 2, Parsed: true},
		},
		{
			name: "mixed results",
			input: `{"Time":"2024-01-01T00:00:00Z","Action":"run","Package":"example.com/pkg","Test":"TestPass"}
{"Time":"2024-01-01T00:00:00Z","Action":"pass","Package":"example.com/pkg","Test":"TestPass","Elapsed":0.01}
{"Time":"2024-01-01T00:00:00Z","Action":"run","Package":"example.com/pkg","Test":"TestFail"}
{"Time":"2024-01-01T00:00:00Z","Action":"fail","Package":"example.com/pkg","Test":"TestFail","Elapsed":0.02}
{"Time":"2024-01-01T00:00:00Z","Action":"run","Package":"example.com/pkg","Test":"TestSkip"}
{"Time":"2024-01-01T00:00:00Z","Action":"skip","Package":"example.com/pkg","Test":"TestSkip","Elapsed":0.0}`,
			expectedCounts: TestCounts{Passed: 1, Failed: 1, Skipped: 1, Total: 3, Parsed: true},
		},
		{
			name:           "empty input",
			input:          "",
			expectedCounts: TestCounts{Parsed: false},
		},
		{
			name: "build output and package events ignored",
			input: `# example.com/pkg
{"Time":"2024-01-01T00:00:00Z","Action":"output","Package":"example.com/pkg","Output":"building...\n"}
{"Time":"2024-01-01T00:00:00Z","Action":"pass","Package":"example.com/pkg","Test":"TestFoo","Elapsed":0.01}
{"Time":"2024-01-01T00:00:00Z","Action":"pass","Package":"example.com/pkg","Elapsed":0.5}`,
			expectedCounts: TestCounts{Passed: 1, Total: 1, Parsed: true},
		},
	}

	parser := &JSONParser{}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := parser.ParseJSON(strings.NewReader(tt.input))
			result.FailedTests = nil
			if !reflect.DeepEqual(result, tt.expectedCounts) {
				t.Errorf("ParseJSON() = %+v, want %+v", result, tt.expectedCounts)
			}
		})
	}
}

func TestJSONParser_FailedTestDetails(t *testing.T) {
	t.Parallel()

	input := `{"Action":"run","Package":"example.com/b","Test":"TestUsers_Create"}
{"Action":"output","Package":"example.com/b","Test":"TestUsers_Create","Output":"    users_test.go:31: \n"}
{"Action":"output","Package":"example.com/b","Test":"TestUsers_Create","Output":"        Difference found in testdata/golds/Users/Create/db/users.json\n"}
{"Action":"output","Package":"example.com/b","Test":"TestUsers_Create","Output":"        exp:    \"name\": \"ada\"\n"}
{"Action":"fail","Package":"example.com/b","Test":"TestUsers_Create","Elapsed":0.01}
{"Action":"run","Package":"example.com/a","Test":"TestBar"}
{"Action":"output","Package":"example.com/a","Test":"TestBar","Output":"    bar_test.go:15: expected 42, got 0\n"}
{"Action":"fail","Package":"example.com/a","Test":"TestBar","Elapsed":0.02}
{"Action":"run","Package":"example.com/a","Test":"TestQuiet"}
{"Action":"fail","Package":"example.com/a","Test":"TestQuiet","Elapsed":0.02}`

	result := (&JSONParser{}).Parse(input)
	want := []FailedTest{
		{Package: "example.com/a", Name: "TestBar", Reason: "expected 42, got 0"},
		{Package: "example.com/a", Name: "TestQuiet"},
		{
			Package: "example.com/b",
			Name:    "TestUsers_Create",
			Reason:  "Difference found in testdata/golds/Users/Create/db/users.json",
			Golds:   []string{"testdata/golds/Users/Create/db/users.json"},
		},
	}
	if !reflect.DeepEqual(result.FailedTests, want) {
		t.Errorf("FailedTests = %+v, want %+v", result.FailedTests, want)
	}
	if got := result.Golds(); !reflect.DeepEqual(got, []string{"testdata/golds/Users/Create/db/users.json"}) {
		t.Errorf("Golds() = %v", got)
	}
}

func TestJSONParser_SameTestNameInTwoPackages(t *testing.T) {
	t.Parallel()

	input := `{"Action":"output","Package":"example.com/a","Test":"TestX","Output":"    x_test.go:1: from a\n"}
{"Action":"output","Package":"example.com/b","Test":"TestX","Output":"    x_test.go:1: from b\n"}
{"Action":"fail","Package":"example.com/b","Test":"TestX"}
{"Action":"pass","Package":"example.com/a","Test":"TestX"}`

	result := (&JSONParser{}).Parse(input)
	if len(result.FailedTests) != 1 || result.FailedTests[0].Reason != "from b" {
		t.Errorf("FailedTests = %+v, want one failure from package b", result.FailedTests)
	}
}

func TestExtractFailureReason_Truncates(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 150)
	got := extractFailureReason([]string{"    a_test.go:3: " + long + "\n"})
	if len(got) != 100 || !strings.HasSuffix(got, "...") {
		t.Errorf("extractFailureReason() = %q (len %d), want 100 chars ending in ...", got, len(got))
	}
}
