package main

import (
	"github.com/gin-gonic/gin"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/app"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/handlers"
)

// 社交服务：资料、关注、帖子、评论、点赞与通知。
func main() {
	app.Run(app.Options{
		Name: "social-service",
		Mount: func(h *handlers.Handler, r *gin.Engine) {
			h.RegisterSocialRoutes(r)
		},
	})
}
