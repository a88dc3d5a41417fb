package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/config"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/perf"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/services"
)

func authFixture(t *testing.T) (*Handler, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Config{}
	cfg.Auth.Secret = "test-secret"
	cfg.Auth.TokenTTL = time.Hour
	h := New(Deps{Cfg: cfg, Tokens: services.NewTokenService(cfg)})
	r := gin.New()
	r.GET("/protected", h.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": currentUserID(c)})
	})
	return h, r
}

func TestRequireAuthMissingToken(t *testing.T) {
	_, r := authFixture(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "WE girls have no time!")
}

func TestRequireAuthGarbageToken(t *testing.T) {
	_, r := authFixture(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthValidToken(t *testing.T) {
	h, r := authFixture(t)
	token, _, _, err := h.tokenSvc.Issue(42)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"uid":42`)
}

func TestBearerTokenParsing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer  abc ", "abc"},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			c.Request.Header.Set("Authorization", tc.header)
		}
		require.Equal(t, tc.want, bearerToken(c), "header %q", tc.header)
	}
}

func TestListPayloadPagination(t *testing.T) {
	out := listPayload([]int{1, 2, 3}, 2, 3, 7)
	p, ok := out["pagination"].(perf.Pagination)
	require.True(t, ok)
	require.Equal(t, 2, p.Page)
	require.Equal(t, 3, p.PerPage)
	require.Equal(t, int64(7), p.Total)
	require.Equal(t, 3, p.Pages)
	require.True(t, p.HasNext)
	require.True(t, p.HasPrev)

	last := listPayload([]int{}, 3, 3, 7)
	lp := last["pagination"].(perf.Pagination)
	require.False(t, lp.HasNext)
}
