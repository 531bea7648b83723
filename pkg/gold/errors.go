package gold

import (
	"errors"
	"fmt"
)

// ParseError indicates persisted gold text that is not valid canonical JSON.
type ParseError struct {
	Path string // empty when the text did not come from a store
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("gold: malformed gold text: %v", e.Err)
	}
	return fmt.Sprintf("gold: malformed gold file %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// AllocationError indicates that no sentinel absent from the payload could be
// found. It signals a caller error, such as an adversarially repetitive payload.
type AllocationError struct {
	Attempts int
	Length   int // suffix length of the last candidate
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("gold: no collision-free wildcard sentinel after %d attempts (suffix length %d)", e.Attempts, e.Length)
}

// MissingGoldError indicates that verification was requested for a gold that
// was never captured.
type MissingGoldError struct {
	Path string
	Env  string // generation switch named in the hint; GenerationEnv if empty
}

func (e *MissingGoldError) Error() string {
	env := e.Env
	if env == "" {
		env = GenerationEnv
	}
	return fmt.Sprintf("gold: missing gold file %s (run with %s=1 to capture it)", e.Path, env)
}

// MismatchError is the normal "test failed" outcome. Report holds the
// rendered difference between the gold and the actual value.
type MismatchError struct {
	Path   string
	Report *Report
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("Difference found in %s\n%s", e.Path, e.Report)
}

// StorageError wraps an I/O failure while reading or writing a gold file.
type StorageError struct {
	Op   string // "read" or "write"
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("gold: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err must stop the test immediately.
// Every error except a mismatch is fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var mismatch *MismatchError
	return !errors.As(err, &mismatch)
}
