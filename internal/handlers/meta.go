package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/metrics"
)

var startedAt = time.Now()

// registerMeta 挂载每个部署单元都有的运维端点。
func (h *Handler) registerMeta(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/api/health", h.health)
	r.GET("/api/info", h.info)
	r.GET("/api/features", h.features)
	r.GET("/api/performance/stats", h.performanceStats)
	r.GET("/metrics", metrics.Exposer())
}

// health 报告进程与依赖健康度。
func (h *Handler) health(c *gin.Context) {
	dbOK := false
	if h.db != nil {
		if sqlDB, err := h.db.DB(); err == nil && sqlDB.Ping() == nil {
			dbOK = true
		}
	}
	redisOK := h.rdb != nil && h.rdb.Ping(c.Request.Context()).Err() == nil
	status := http.StatusOK
	state := "healthy"
	if !dbOK || !redisOK {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status":    state,
		"service":   h.cfg.Service.Name,
		"version":   h.cfg.Service.Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks": gin.H{
			"mysql": dbOK,
			"redis": redisOK,
		},
		"uptime_seconds": int(time.Since(startedAt).Seconds()),
	})
}

// info 返回服务描述与口号。
func (h *Handler) info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": h.cfg.Service.Name,
		"version": h.cfg.Service.Version,
		"env":     h.cfg.Env,
		"tagline": tagline,
	})
}

// serviceFeatures 列出每个部署单元对外暴露的能力。
var serviceFeatures = map[string][]string{
	"user-service":     {"registration", "authentication", "profiles", "preferences", "sessions", "two_factor_auth", "audit_trail", "dashboard"},
	"styling-service":  {"recommendations", "style_insights", "trends", "dashboard"},
	"vision-service":   {"wardrobe", "outfits", "wear_tracking", "vision_analysis", "style_profile", "dashboard"},
	"social-service":   {"profiles", "connections", "posts", "comments", "likes", "feed", "explore", "notifications", "dashboard"},
	"commerce-service": {"markets", "catalog", "cart", "addresses", "coupons", "checkout", "orders", "payments", "currency", "dashboard"},
}

// features 返回当前服务启用的能力清单。
func (h *Handler) features(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":  h.cfg.Service.Name,
		"features": serviceFeatures[h.cfg.Service.Name],
	})
}

// performanceStats 暴露缓存命中与端点耗时窗口统计。
func (h *Handler) performanceStats(c *gin.Context) {
	out := gin.H{}
	if h.cache != nil {
		out["cache"] = h.cache.Stats()
	}
	if h.tracker != nil {
		out["endpoints"] = h.tracker.Summary()
	}
	c.JSON(http.StatusOK, out)
}
