package gold

import (
	"fmt"
	"strings"
)

// Mode selects what an assertion does with its gold record.
type Mode int

const (
	// ModeVerify compares the actual value against the stored gold.
	ModeVerify Mode = iota
	// ModeCapture stores the actual value verbatim, replacing any prior gold.
	ModeCapture
	// ModeReconcile compares a second capture against the first and
	// wildcards every scalar that changed between them.
	ModeReconcile
)

// GenerationEnv is the default environment switch that turns on generation.
const GenerationEnv = "GOLDTEST_GEN"

func (m Mode) String() string {
	switch m {
	case ModeVerify:
		return "verify"
	case ModeCapture:
		return "capture"
	case ModeReconcile:
		return "reconcile"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses the String form of a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "verify", "":
		return ModeVerify, nil
	case "capture":
		return ModeCapture, nil
	case "reconcile":
		return ModeReconcile, nil
	}
	return ModeVerify, fmt.Errorf("unknown gold mode %q (must be \"verify\", \"capture\" or \"reconcile\")", s)
}

// GenerationEnabled interprets the value of the generation switch.
// Empty, "0", "false", "no" and "off" mean verification.
func GenerationEnabled(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}

// Passes returns the modes a test body runs under, in order.
func Passes(generate bool) []Mode {
	if generate {
		return []Mode{ModeCapture, ModeReconcile}
	}
	return []Mode{ModeVerify}
}
