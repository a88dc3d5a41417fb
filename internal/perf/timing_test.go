package perf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTrackerPercentiles(t *testing.T) {
	tr := NewTracker(1000, 500*time.Millisecond, 3*time.Second)
	// 1ms..100ms 各一条
	for i := 1; i <= 100; i++ {
		tr.Record("GET /api/posts", ClassRequest, time.Duration(i)*time.Millisecond, false)
	}
	st, ok := tr.Stats("GET /api/posts")
	require.True(t, ok)
	require.Equal(t, uint64(100), st.Count)
	require.InDelta(t, 50.5, st.MeanMs, 1e-9)
	require.InDelta(t, 50, st.P50Ms, 1e-9)
	require.InDelta(t, 95, st.P95Ms, 1e-9)
	require.InDelta(t, 99, st.P99Ms, 1e-9)
	require.InDelta(t, 1, st.MinMs, 1e-9)
	require.InDelta(t, 100, st.MaxMs, 1e-9)
	require.Zero(t, st.SlowRate)
	require.Zero(t, st.ErrorRate)
}

func TestTrackerWindowEviction(t *testing.T) {
	tr := NewTracker(10, 500*time.Millisecond, 3*time.Second)
	for i := 0; i < 20; i++ {
		d := 10 * time.Millisecond
		if i >= 10 {
			d = 20 * time.Millisecond
		}
		tr.Record("ep", ClassRequest, d, false)
	}
	st, ok := tr.Stats("ep")
	require.True(t, ok)
	// 窗口只保留最后 10 条，均为 20ms
	require.Equal(t, uint64(20), st.Count)
	require.InDelta(t, 20, st.MinMs, 1e-9)
	require.InDelta(t, 20, st.MaxMs, 1e-9)
}

func TestTrackerSlowAndErrorRates(t *testing.T) {
	tr := NewTracker(100, 500*time.Millisecond, 3*time.Second)
	tr.Record("ep", ClassRequest, 100*time.Millisecond, false)
	tr.Record("ep", ClassRequest, 600*time.Millisecond, true)
	tr.Record("ep", ClassRequest, 700*time.Millisecond, false)
	tr.Record("ep", ClassRequest, 200*time.Millisecond, false)

	st, ok := tr.Stats("ep")
	require.True(t, ok)
	require.InDelta(t, 0.5, st.SlowRate, 1e-9)
	require.InDelta(t, 0.25, st.ErrorRate, 1e-9)

	// 生产者调用使用更宽的慢阈值
	tr.Record("producer:recommendations", ClassProducer, 2*time.Second, false)
	pst, ok := tr.Stats("producer:recommendations")
	require.True(t, ok)
	require.Zero(t, pst.SlowRate)
}

func TestTrackerUnknownEndpoint(t *testing.T) {
	tr := NewTracker(10, 0, 0)
	_, ok := tr.Stats("missing")
	require.False(t, ok)
	require.Empty(t, tr.Summary())
}
