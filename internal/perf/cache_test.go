package perf

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheHitMissAndStats(t *testing.T) {
	c := NewCache(10, time.Minute)
	_, ok := c.Get("dashboard:1")
	require.False(t, ok)

	c.Set("dashboard:1", "payload")
	v, ok := c.Get("dashboard:1")
	require.True(t, ok)
	require.Equal(t, "payload", v)

	st := c.Stats()
	require.Equal(t, uint64(1), st.HitCount)
	require.Equal(t, uint64(1), st.MissCount)
	require.InDelta(t, 0.5, st.HitRatio, 1e-9)
	require.Equal(t, 1, st.Size)
	require.Equal(t, 10, st.MaxSize)
}

func TestCacheTTLExpiry(t *testing.T) {
	c := NewCache(10, time.Minute)
	now := time.Now()
	c.SetClock(func() time.Time { return now })

	c.SetTTL("k", 1, 30*time.Second)
	_, ok := c.Get("k")
	require.True(t, ok)

	now = now.Add(31 * time.Second)
	_, ok = c.Get("k")
	require.False(t, ok, "过期条目应在访问时被清除")
	require.Equal(t, 0, c.Stats().Size)
}

func TestCacheLRUEviction(t *testing.T) {
	c := NewCache(3, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// 访问 a 使其成为最近使用；再写入 d 应淘汰 b
	_, ok := c.Get("a")
	require.True(t, ok)
	c.Set("d", 4)

	_, ok = c.Get("b")
	require.False(t, ok)
	_, ok = c.Get("a")
	require.True(t, ok)
	_, ok = c.Get("d")
	require.True(t, ok)
	require.Equal(t, 3, c.Stats().Size)
}

func TestCacheDeleteAndPrefix(t *testing.T) {
	c := NewCache(100, time.Minute)
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("feed:7:page:%d", i), i)
	}
	c.Set("profile:7", "x")

	removed := c.DeletePrefix("feed:7:")
	require.Equal(t, 5, removed)
	_, ok := c.Get("profile:7")
	require.True(t, ok)

	c.Delete("profile:7")
	_, ok = c.Get("profile:7")
	require.False(t, ok)

	c.Set("again", 1)
	c.Flush()
	require.Equal(t, 0, c.Stats().Size)
}

func TestCacheSetOverwriteRefreshesTTL(t *testing.T) {
	c := NewCache(10, time.Minute)
	now := time.Now()
	c.SetClock(func() time.Time { return now })

	c.SetTTL("k", "old", 10*time.Second)
	now = now.Add(8 * time.Second)
	c.SetTTL("k", "new", 10*time.Second)
	now = now.Add(5 * time.Second)

	v, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, "new", v)
}
