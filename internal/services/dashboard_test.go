package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/perf"
)

func TestDashboardInvalidateEvictsOnlyOwner(t *testing.T) {
	cache := perf.NewCache(8, time.Minute)
	svc := NewDashboardService(nil, cache, nil)

	cache.SetTTL("dashboard:7", &Dashboard{}, time.Minute)
	cache.SetTTL("dashboard:8", &Dashboard{}, time.Minute)

	svc.Invalidate(7)
	_, ok := cache.Get("dashboard:7")
	require.False(t, ok, "写路径之后本人仪表盘缓存必须失效")
	_, ok = cache.Get("dashboard:8")
	require.True(t, ok, "他人缓存不受影响")
}
