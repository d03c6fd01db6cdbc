package llm

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	c := NewCache(10, time.Minute)
	c.Put("haiku", "hello", Response{Content: "hi there"})

	resp, ok := c.Get("haiku", "hello")
	require.True(t, ok)
	assert.Equal(t, "hi there", resp.Content)

	// Keyed by model AND prompt.
	_, ok = c.Get("sonnet", "hello")
	assert.False(t, ok)
	_, ok = c.Get("haiku", "goodbye")
	assert.False(t, ok)
}

func TestCacheTTLExpiry(t *testing.T) {
	c := NewCache(10, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Put("haiku", "hello", Response{Content: "hi"})

	c.now = func() time.Time { return now.Add(59 * time.Second) }
	_, ok := c.Get("haiku", "hello")
	assert.True(t, ok)

	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, ok = c.Get("haiku", "hello")
	assert.False(t, ok)
	// Stale entries are removed on read.
	assert.Equal(t, 0, c.Len())
}

func TestCacheEvictsOldestQuarter(t *testing.T) {
	c := NewCache(8, time.Hour)
	now := time.Now()
	for i := 0; i < 8; i++ {
		tick := now.Add(time.Duration(i) * time.Second)
		c.now = func() time.Time { return tick }
		c.Put("haiku", fmt.Sprintf("prompt %d", i), Response{Content: fmt.Sprintf("reply %d", i)})
	}
	require.Equal(t, 8, c.Len())

	// At capacity the next put drops the two oldest entries first.
	c.Put("haiku", "prompt 8", Response{Content: "reply 8"})
	assert.Equal(t, 7, c.Len())

	_, ok := c.Get("haiku", "prompt 0")
	assert.False(t, ok)
	_, ok = c.Get("haiku", "prompt 1")
	assert.False(t, ok)
	_, ok = c.Get("haiku", "prompt 2")
	assert.True(t, ok)
	_, ok = c.Get("haiku", "prompt 8")
	assert.True(t, ok)
}

func TestCacheDefaults(t *testing.T) {
	c := NewCache(0, 0)
	assert.Equal(t, DefaultCacheSize, c.size)
	assert.Equal(t, DefaultCacheTTL, c.ttl)
}
