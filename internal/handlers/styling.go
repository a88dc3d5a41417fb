package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// recommendations 返回基于风格画像与衣橱的穿搭建议，结果短期缓存。
func (h *Handler) recommendations(c *gin.Context) {
	recs, cached, err := h.insightsSvc.Recommendations(c.Request.Context(),
		currentUserID(c), c.Query("occasion"), c.Query("season"))
	if err != nil {
		fail(c, err)
		return
	}
	if cached {
		markCached(c)
	}
	h.respond(c, http.StatusOK, map[string]any{
		"recommendations": recs,
		"count":           len(recs),
	})
}

// styleInsights 返回基于穿着数据的个人风格观察。
func (h *Handler) styleInsights(c *gin.Context) {
	insights, cached, err := h.insightsSvc.StyleInsights(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	if cached {
		markCached(c)
	}
	h.respond(c, http.StatusOK, map[string]any{"insights": insights, "count": len(insights)})
}

// trends 返回全站近 30 天的热门场合、帖子类型与品类。
func (h *Handler) trends(c *gin.Context) {
	t, cached, err := h.insightsSvc.Trends(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if cached {
		markCached(c)
	}
	h.respond(c, http.StatusOK, map[string]any{"trends": t})
}
