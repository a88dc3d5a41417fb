package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/config"
)

func listFixture(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := New(Deps{})
	r := gin.New()
	r.GET("/list", func(c *gin.Context) {
		h.respond(c, http.StatusOK, listPayload([]string{}, 1, 20, 0))
	})
	return r
}

func TestRespondKeepsEmptyItemsByDefault(t *testing.T) {
	r := listFixture(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/list", nil))
	require.Equal(t, http.StatusOK, w.Code)
	// 空页也要保留 items 与 pagination 键
	require.Contains(t, w.Body.String(), `"items":[]`)
	require.Contains(t, w.Body.String(), `"pagination"`)
	require.Contains(t, w.Body.String(), `"_meta"`)
}

func TestRespondCompactDropsEmptyContainers(t *testing.T) {
	r := listFixture(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/list?compact=true", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), `"items"`)
}

func TestHealthCarriesTimestamp(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Config{}
	cfg.Service.Name = "user-service"
	cfg.Service.Version = "1.0.0"
	h := New(Deps{Cfg: cfg})
	r := gin.New()
	r.GET("/api/health", h.health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	// 无数据库与 Redis 连接时报 degraded，但响应结构不变
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), `"timestamp"`)
	require.Contains(t, w.Body.String(), `"service":"user-service"`)
	require.Contains(t, w.Body.String(), `"version":"1.0.0"`)
}
