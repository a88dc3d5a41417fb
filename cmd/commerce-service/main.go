package main

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/app"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/handlers"
)

// 电商服务：市场与商品、购物车、地址、优惠码、结算状态机、
// 订单、支付与汇率换算。启动时保证默认市场与网关存在。
func main() {
	app.Run(app.Options{
		Name: "commerce-service",
		Mount: func(h *handlers.Handler, r *gin.Engine) {
			h.RegisterCommerceRoutes(r)
		},
		Seed: func(ctx context.Context, reg *app.Registry) error {
			if err := reg.Markets.EnsureDefaults(ctx); err != nil {
				return err
			}
			return reg.Payments.EnsureGateways(ctx)
		},
	})
}
