package middlewares

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterDropsIdleVisitors(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(time.Hour, 1)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.limiter("10.0.0.1").Allow())
	assert.False(t, rl.limiter("10.0.0.1").Allow())

	now = now.Add(2 * time.Minute)
	rl.limiter("10.0.0.2")
	assert.Len(t, rl.visitors, 2)

	now = now.Add(2 * time.Minute)
	assert.True(t, rl.limiter("10.0.0.3").Allow())
	assert.Len(t, rl.visitors, 2)
	assert.NotContains(t, rl.visitors, "10.0.0.1")

	// a dropped visitor starts over with a full bucket
	now = now.Add(4 * time.Minute)
	assert.True(t, rl.limiter("10.0.0.1").Allow())
	assert.Equal(t, []string{"10.0.0.1"}, keys(rl.visitors))
}

func keys(m map[string]*visitor) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}
