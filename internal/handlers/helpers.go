package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/adapters"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/perf"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/services"
)

// tagline 是产品人格化口号，会出现在部分错误响应里。
const tagline = "WE girls have no time!"

// respond 输出成功响应：瘦身后的载荷加 _meta 区块与耗时头。
// 空容器只在客户端带 compact=true 时被深度丢弃。
func (h *Handler) respond(c *gin.Context, status int, payload any) {
	elapsed := perf.Elapsed(c)
	body := perf.JSONBody(payload, c.Query("compact") == "true")
	out, ok := body.(map[string]any)
	if !ok {
		out = map[string]any{"data": body}
	}
	out["_meta"] = map[string]any{
		"response_time": fmt.Sprintf("%.2fms", float64(elapsed.Microseconds())/1000),
		"cached":        c.GetBool(ctxCached),
		"optimized":     true,
	}
	c.Header("X-Response-Time", fmt.Sprintf("%.2fms", float64(elapsed.Microseconds())/1000))
	c.JSON(status, out)
}

// markCached 标记本次响应来自进程内缓存。
func markCached(c *gin.Context) { c.Set(ctxCached, true) }

const ctxCached = "resp_cached"

// fail 将服务层错误映射为状态码与统一错误信封。
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	switch {
	case errors.Is(err, services.ErrInvalid), errors.Is(err, perf.ErrBadPage):
		status, code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, services.ErrUnauthorized), errors.Is(err, adapters.ErrTokenInvalid):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, services.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, services.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, services.ErrState):
		status, code = http.StatusConflict, "invalid_state"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "gateway_timeout"
	}
	body := gin.H{"error": code, "details": err.Error()}
	if status == http.StatusUnauthorized {
		body["tagline"] = tagline
	}
	c.JSON(status, body)
}

// badRequest 输出一条参数错误。
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "details": msg})
}

// pageParams 解析并收敛分页参数（缺省 1/20，per_page 上限 100）。
func pageParams(c *gin.Context) (int, int, error) {
	page, perPage := 1, 20
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: page must be an integer", services.ErrInvalid)
		}
		page = n
	}
	if v := c.Query("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: per_page must be an integer", services.ErrInvalid)
		}
		perPage = n
	}
	return perf.ClampPage(page, perPage)
}

// listPayload 组装统一的列表响应结构。
func listPayload(items any, page, perPage int, total int64) gin.H {
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	return gin.H{
		"items": items,
		"pagination": perf.Pagination{
			Page:    page,
			PerPage: perPage,
			Total:   total,
			Pages:   pages,
			HasNext: page < pages,
			HasPrev: page > 1 && total > 0,
		},
	}
}

// pathID 解析路径中的数字主键。
func pathID(c *gin.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", services.ErrInvalid, name)
	}
	return id, nil
}
