package token

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryLimiterCeiling(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"), "4th request within the window is rejected")
	assert.False(t, l.Allow("10.0.0.1"), "rejection is idempotent")

	// Other identifiers are unaffected.
	assert.True(t, l.Allow("10.0.0.2"))
}

func TestMemoryLimiterWindowReset(t *testing.T) {
	l := NewMemoryLimiter(2, time.Minute)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("client"))
	assert.True(t, l.Allow("client"))
	assert.False(t, l.Allow("client"))

	// Once the window elapses the counter resets to 1 and admits again.
	now = now.Add(61 * time.Second)
	assert.True(t, l.Allow("client"))
	assert.True(t, l.Allow("client"))
	assert.False(t, l.Allow("client"))
}

func TestMemoryLimiterSweep(t *testing.T) {
	l := NewMemoryLimiter(5, time.Minute)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("a")
	l.Allow("b")
	now = now.Add(30 * time.Second)
	l.Allow("c")
	assert.Equal(t, 3, l.Len())

	// Only entries whose window has elapsed are evicted.
	now = now.Add(45 * time.Second)
	l.Sweep()
	assert.Equal(t, 1, l.Len())

	now = now.Add(time.Hour)
	l.Sweep()
	assert.Equal(t, 0, l.Len())
}

func TestMemoryLimiterConcurrent(t *testing.T) {
	l := NewMemoryLimiter(1000, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("client-%d", n%4)
			for j := 0; j < 100; j++ {
				l.Allow(key)
				if j%10 == 0 {
					l.Sweep()
				}
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, l.Len(), 4)
}

func TestMemoryLimiterDefaults(t *testing.T) {
	l := NewMemoryLimiter(0, 0)

	assert.True(t, l.Allow("k"), "ceiling is clamped to at least 1")
	assert.False(t, l.Allow("k"))
}
