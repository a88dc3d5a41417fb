package main

import (
	"github.com/gin-gonic/gin"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/app"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/handlers"
)

// 衣橱与视觉服务：单品与穿搭管理、穿着记录、视觉分析与风格画像。
func main() {
	app.Run(app.Options{
		Name: "vision-service",
		Mount: func(h *handlers.Handler, r *gin.Engine) {
			h.RegisterVisionRoutes(r)
		},
	})
}
