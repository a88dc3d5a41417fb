package main

import (
	"github.com/gin-gonic/gin"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/app"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/handlers"
)

// 用户管理服务：注册/登录、令牌签发与核验、资料与偏好、
// 会话管理、两步验证、审计与聚合仪表板。
func main() {
	app.Run(app.Options{
		Name: "user-service",
		Mount: func(h *handlers.Handler, r *gin.Engine) {
			h.RegisterUserRoutes(r)
		},
	})
}
