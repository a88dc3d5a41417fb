package perf

import (
	"sort"
	"sync"
	"time"
)

// CallClass 区分普通请求与外部生产者调用，二者的慢阈值不同。
type CallClass int

const (
	ClassRequest CallClass = iota
	ClassProducer
)

// Tracker 对每个端点保留最近 windowSize 个耗时样本（环形缓冲），
// 并据此导出 count/mean/p50/p95/p99/min/max、慢请求占比与错误率。
type Tracker struct {
	mu            sync.Mutex
	windowSize    int
	slowThreshold map[CallClass]time.Duration
	endpoints     map[string]*window
}

type window struct {
	samples []time.Duration
	next    int
	full    bool
	total   uint64
	errors  uint64
	slow    uint64
	class   CallClass
}

// NewTracker 构造耗时统计器；windowSize<=0 时取 1000。
func NewTracker(windowSize int, slowReq, slowProducer time.Duration) *Tracker {
	if windowSize <= 0 {
		windowSize = 1000
	}
	if slowReq <= 0 {
		slowReq = 500 * time.Millisecond
	}
	if slowProducer <= 0 {
		slowProducer = 3 * time.Second
	}
	return &Tracker{
		windowSize: windowSize,
		slowThreshold: map[CallClass]time.Duration{
			ClassRequest:  slowReq,
			ClassProducer: slowProducer,
		},
		endpoints: make(map[string]*window),
	}
}

// Record 记录一次调用样本。
func (t *Tracker) Record(endpoint string, class CallClass, d time.Duration, isError bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, ok := t.endpoints[endpoint]
	if !ok {
		w = &window{samples: make([]time.Duration, t.windowSize), class: class}
		t.endpoints[endpoint] = w
	}
	w.samples[w.next] = d
	w.next++
	if w.next >= t.windowSize {
		w.next = 0
		w.full = true
	}
	w.total++
	if isError {
		w.errors++
	}
	if d >= t.slowThreshold[class] {
		w.slow++
	}
}

// EndpointStats 为单个端点的耗时摘要（毫秒）。
type EndpointStats struct {
	Count     uint64  `json:"count"`
	MeanMs    float64 `json:"mean_ms"`
	P50Ms     float64 `json:"p50_ms"`
	P95Ms     float64 `json:"p95_ms"`
	P99Ms     float64 `json:"p99_ms"`
	MinMs     float64 `json:"min_ms"`
	MaxMs     float64 `json:"max_ms"`
	SlowRate  float64 `json:"slow_rate"`
	ErrorRate float64 `json:"error_rate"`
}

// Stats 返回单个端点的统计；不存在时返回零值与 false。
func (t *Tracker) Stats(endpoint string) (EndpointStats, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, ok := t.endpoints[endpoint]
	if !ok {
		return EndpointStats{}, false
	}
	return w.snapshot(), true
}

// Summary 返回全部端点的统计。
func (t *Tracker) Summary() map[string]EndpointStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]EndpointStats, len(t.endpoints))
	for name, w := range t.endpoints {
		out[name] = w.snapshot()
	}
	return out
}

func (w *window) snapshot() EndpointStats {
	n := w.next
	if w.full {
		n = len(w.samples)
	}
	st := EndpointStats{Count: w.total}
	if n == 0 {
		return st
	}
	sorted := make([]time.Duration, n)
	copy(sorted, w.samples[:n])
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	ms := func(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
	st.MeanMs = ms(sum) / float64(n)
	st.P50Ms = ms(percentile(sorted, 0.50))
	st.P95Ms = ms(percentile(sorted, 0.95))
	st.P99Ms = ms(percentile(sorted, 0.99))
	st.MinMs = ms(sorted[0])
	st.MaxMs = ms(sorted[n-1])
	st.SlowRate = float64(w.slow) / float64(w.total)
	st.ErrorRate = float64(w.errors) / float64(w.total)
	return st
}

// percentile 取最近邻（向上取整）分位点。
func percentile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted))*q+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
