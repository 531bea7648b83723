package gold

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelAllocator_Defaults(t *testing.T) {
	t.Parallel()

	s, err := NewSentinelAllocator().Allocate("some payload")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s, DefaultSentinelPrefix))
	assert.Len(t, s, len(DefaultSentinelPrefix)+DefaultSentinelLength)
	for _, r := range strings.TrimPrefix(s, DefaultSentinelPrefix) {
		assert.Contains(t, sentinelAlphabet, string(r))
	}
}

func TestSentinelAllocator_GrowsOnCollision(t *testing.T) {
	t.Parallel()

	a := &SentinelAllocator{suffix: repeatSuffix("Q")}
	text := "xx WILDCARD_" + strings.Repeat("Q", 10) + " yy"

	s, err := a.Allocate(text)
	require.NoError(t, err)
	assert.Equal(t, "WILDCARD_"+strings.Repeat("Q", 20), s)
	assert.NotContains(t, text, s)
}

func TestSentinelAllocator_Exhausted(t *testing.T) {
	t.Parallel()

	a := &SentinelAllocator{
		Prefix:      "S_",
		MaxAttempts: 3,
		suffix:      func(int) string { return "Z" },
	}

	_, err := a.Allocate("S_Z")
	var allocErr *AllocationError
	require.True(t, errors.As(err, &allocErr))
	assert.Equal(t, 3, allocErr.Attempts)
	assert.Equal(t, 30, allocErr.Length)
}

func TestSentinelAllocator_Seeded(t *testing.T) {
	t.Parallel()

	first, err := NewSeededSentinelAllocator(7).Allocate("")
	require.NoError(t, err)
	second, err := NewSeededSentinelAllocator(7).Allocate("")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSentinelAllocator_Concurrent(t *testing.T) {
	t.Parallel()

	a := NewSeededSentinelAllocator(1)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s, err := a.Allocate("payload")
				assert.NoError(t, err)
				assert.NotContains(t, "payload", s)
			}
		}()
	}
	wg.Wait()
}
