package perf

import (
	"container/list"
	"strings"
	"sync"
	"time"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/metrics"
)

// Cache 是带 TTL 与 LRU 淘汰的进程内键值缓存。
// 命中判定：键存在且未过期；过期条目在访问时被清除。
// 容量达到上限时淘汰最久未使用的条目。
type Cache struct {
	mu         sync.Mutex
	maxEntries int
	defaultTTL time.Duration
	ll         *list.List // 队首为最近使用
	index      map[string]*list.Element
	hits       uint64
	misses     uint64
	now        func() time.Time
}

type cacheEntry struct {
	key       string
	value     any
	expiresAt time.Time
}

// NewCache 构造缓存；maxEntries<=0 时取 1000，defaultTTL<=0 时取 5 分钟。
func NewCache(maxEntries int, defaultTTL time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &Cache{
		maxEntries: maxEntries,
		defaultTTL: defaultTTL,
		ll:         list.New(),
		index:      make(map[string]*list.Element),
		now:        time.Now,
	}
}

// SetClock 替换时间源，仅测试使用。
func (c *Cache) SetClock(now func() time.Time) { c.now = now }

// Get 返回键对应的值；过期条目被当场清除并计为未命中。
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.index[key]
	if !ok {
		c.misses++
		metrics.CacheMisses.Inc()
		return nil, false
	}
	ent := el.Value.(*cacheEntry)
	if c.now().After(ent.expiresAt) {
		c.removeElement(el)
		c.misses++
		metrics.CacheMisses.Inc()
		return nil, false
	}
	c.ll.MoveToFront(el)
	c.hits++
	metrics.CacheHits.Inc()
	return ent.value, true
}

// Set 以默认 TTL 写入。
func (c *Cache) Set(key string, value any) { c.SetTTL(key, value, c.defaultTTL) }

// SetTTL 以指定 TTL 写入；容量满时先淘汰 LRU 条目。
func (c *Cache) SetTTL(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		ent := el.Value.(*cacheEntry)
		ent.value = value
		ent.expiresAt = c.now().Add(ttl)
		c.ll.MoveToFront(el)
		return
	}
	for c.ll.Len() >= c.maxEntries {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.removeElement(oldest)
	}
	el := c.ll.PushFront(&cacheEntry{key: key, value: value, expiresAt: c.now().Add(ttl)})
	c.index[key] = el
}

// Delete 按精确键失效。
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.removeElement(el)
	}
}

// DeletePrefix 按键前缀批量失效，返回清除的条目数。
func (c *Cache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, el := range c.index {
		if strings.HasPrefix(key, prefix) {
			c.removeElement(el)
			removed++
		}
	}
	return removed
}

// Flush 清空全部条目（统计保留）。
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.index = make(map[string]*list.Element)
}

func (c *Cache) removeElement(el *list.Element) {
	ent := el.Value.(*cacheEntry)
	c.ll.Remove(el)
	delete(c.index, ent.key)
}

// CacheStats 为 /api/performance/stats 暴露的运行统计。
type CacheStats struct {
	HitCount  uint64  `json:"hit_count"`
	MissCount uint64  `json:"miss_count"`
	HitRatio  float64 `json:"hit_ratio"`
	Size      int     `json:"size"`
	MaxSize   int     `json:"max_size"`
}

// Stats 返回当前命中统计快照。
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.hits + c.misses
	ratio := 0.0
	if total > 0 {
		ratio = float64(c.hits) / float64(total)
	}
	return CacheStats{
		HitCount:  c.hits,
		MissCount: c.misses,
		HitRatio:  ratio,
		Size:      c.ll.Len(),
		MaxSize:   c.maxEntries,
	}
}
