package main

import (
	"github.com/gin-gonic/gin"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/app"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/handlers"
)

// AI 造型服务：个性化穿搭推荐与全站风格趋势。
func main() {
	app.Run(app.Options{
		Name: "styling-service",
		Mount: func(h *handlers.Handler, r *gin.Engine) {
			h.RegisterStylingRoutes(r)
		},
	})
}
