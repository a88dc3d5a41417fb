package perf

import (
	"time"

	"github.com/gin-gonic/gin"
)

const startKey = "perf_start"

// Timing 记录请求起始时间并在响应结束后写入端点耗时窗口。
// 端点名取路由模板（FullPath），避免路径参数撑爆统计表。
func Timing(tracker *Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(startKey, start)
		c.Next()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		tracker.Record(endpoint, ClassRequest, time.Since(start), c.Writer.Status() >= 500)
	}
}

// Elapsed 返回自请求进入以来的耗时；未经过 Timing 中间件时退化为 0。
func Elapsed(c *gin.Context) time.Duration {
	if v, ok := c.Get(startKey); ok {
		if start, ok := v.(time.Time); ok {
			return time.Since(start)
		}
	}
	return 0
}
