package cli

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// example formats one help example: a comment line whose leading verb is
// title-cased, followed by the command.
func example(verb, rest, command string) string {
	return fmt.Sprintf("  # %s %s\n  %s", cases.Title(language.English).String(verb), rest, command)
}

func examples(items ...string) string {
	return strings.Join(items, "\n\n")
}
