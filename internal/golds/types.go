// Package golds lists and lints the gold records stored under a golds root.
package golds

import (
	"errors"
	"fmt"

	"github.com/AndreyAkinshin/goldtest/pkg/gold"
)

// Record is one gold file found under a golds root.
type Record struct {
	Key  gold.Key
	Path string // slash-separated, relative to the golds root
}

// Group collects the records of a single test.
type Group struct {
	Class string
	Test  string
	Subs  []string // assertion names, sorted
}

// Lint findings that are not parse or storage errors.
var (
	ErrEmpty        = errors.New("empty gold file")
	ErrNotCanonical = errors.New("gold text is not in canonical form")
)

// Issue is a problem found while linting a gold file.
type Issue struct {
	Path string
	Err  error
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %v", i.Path, i.Err)
}

// Fixable reports whether rewriting the file in canonical form resolves the
// issue.
func (i Issue) Fixable() bool {
	return errors.Is(i.Err, ErrNotCanonical)
}
