package gold

import (
	"math/rand/v2"
	"strings"
	"sync"
)

// Sentinel defaults.
const (
	DefaultSentinelPrefix      = "WILDCARD_"
	DefaultSentinelLength      = 10
	DefaultSentinelStep        = 10
	DefaultSentinelMaxAttempts = 64
)

const sentinelAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// SentinelAllocator produces tokens that do not occur in a given text.
// Zero-valued fields fall back to the package defaults. The prefix must only
// contain characters that encoding/json emits verbatim inside a string.
type SentinelAllocator struct {
	Prefix        string
	InitialLength int
	Step          int // suffix growth per collision
	MaxAttempts   int

	mu     sync.Mutex
	rng    *rand.Rand
	suffix func(n int) string
}

// NewSentinelAllocator returns an allocator with the default settings.
func NewSentinelAllocator() *SentinelAllocator {
	return &SentinelAllocator{}
}

// NewSeededSentinelAllocator returns an allocator with a deterministic random
// source.
func NewSeededSentinelAllocator(seed uint64) *SentinelAllocator {
	return &SentinelAllocator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

var defaultAllocator = NewSentinelAllocator()

// Allocate returns a token of the form <prefix><random> that is not a
// substring of text. The random suffix grows after every collision.
func (a *SentinelAllocator) Allocate(text string) (string, error) {
	length := a.initialLength()
	attempts := a.maxAttempts()
	for i := 0; i < attempts; i++ {
		if i > 0 {
			length += a.step()
		}
		candidate := a.prefix() + a.randomSuffix(length)
		if !strings.Contains(text, candidate) {
			return candidate, nil
		}
	}
	return "", &AllocationError{Attempts: attempts, Length: length}
}

func (a *SentinelAllocator) randomSuffix(n int) string {
	if a.suffix != nil {
		return a.suffix(n)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		var idx int
		if a.rng != nil {
			idx = a.rng.IntN(len(sentinelAlphabet))
		} else {
			idx = rand.IntN(len(sentinelAlphabet))
		}
		b.WriteByte(sentinelAlphabet[idx])
	}
	return b.String()
}

func (a *SentinelAllocator) prefix() string {
	if a.Prefix == "" {
		return DefaultSentinelPrefix
	}
	return a.Prefix
}

func (a *SentinelAllocator) initialLength() int {
	if a.InitialLength <= 0 {
		return DefaultSentinelLength
	}
	return a.InitialLength
}

func (a *SentinelAllocator) step() int {
	if a.Step <= 0 {
		return DefaultSentinelStep
	}
	return a.Step
}

func (a *SentinelAllocator) maxAttempts() int {
	if a.MaxAttempts <= 0 {
		return DefaultSentinelMaxAttempts
	}
	return a.MaxAttempts
}
