package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/adapters"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/config"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/middlewares"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/perf"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/services"
)

// Handler 聚合配置与各领域服务，并按部署单元注册路由。
type Handler struct {
	cfg config.Config
	db  *gorm.DB
	rdb *redis.Client

	cache   *perf.Cache
	tracker *perf.Tracker

	tokenSvc   *services.TokenService
	userSvc    *services.UserService
	sessionSvc *services.SessionService
	securitySvc *services.SecurityService
	auditSvc   *services.AuditService

	wardrobeSvc     *services.WardrobeService
	outfitSvc       *services.OutfitService
	styleProfileSvc *services.StyleProfileService
	visionSvc       *services.VisionService
	insightsSvc     *services.InsightsService

	socialSvc       *services.SocialService
	postSvc         *services.PostService
	notificationSvc *services.NotificationService

	marketSvc   *services.MarketService
	catalogSvc  *services.CatalogService
	cartSvc     *services.CartService
	addressSvc  *services.AddressService
	couponSvc   *services.CouponService
	checkoutSvc *services.CheckoutService
	orderSvc    *services.OrderService
	paymentSvc  *services.PaymentService
	currencySvc *services.CurrencyService
	dashboardSvc *services.DashboardService

	authClient *adapters.AuthClient
}

// Deps 列出 Handler 的全部可注入依赖；未用到的字段留空即可。
type Deps struct {
	Cfg config.Config
	DB  *gorm.DB
	RDB *redis.Client

	Cache   *perf.Cache
	Tracker *perf.Tracker

	Tokens       *services.TokenService
	Users        *services.UserService
	Sessions     *services.SessionService
	Security     *services.SecurityService
	Audit        *services.AuditService
	Wardrobe     *services.WardrobeService
	Outfits      *services.OutfitService
	StyleProfile *services.StyleProfileService
	Vision       *services.VisionService
	Insights     *services.InsightsService
	Social       *services.SocialService
	Posts        *services.PostService
	Notifications *services.NotificationService
	Markets      *services.MarketService
	Catalog      *services.CatalogService
	Carts        *services.CartService
	Addresses    *services.AddressService
	Coupons      *services.CouponService
	Checkout     *services.CheckoutService
	Orders       *services.OrderService
	Payments     *services.PaymentService
	Currency     *services.CurrencyService
	Dashboard    *services.DashboardService

	AuthClient *adapters.AuthClient
}

// New 构造 Handler。
func New(d Deps) *Handler {
	return &Handler{
		cfg:             d.Cfg,
		db:              d.DB,
		rdb:             d.RDB,
		cache:           d.Cache,
		tracker:         d.Tracker,
		tokenSvc:        d.Tokens,
		userSvc:         d.Users,
		sessionSvc:      d.Sessions,
		securitySvc:     d.Security,
		auditSvc:        d.Audit,
		wardrobeSvc:     d.Wardrobe,
		outfitSvc:       d.Outfits,
		styleProfileSvc: d.StyleProfile,
		visionSvc:       d.Vision,
		insightsSvc:     d.Insights,
		socialSvc:       d.Social,
		postSvc:         d.Posts,
		notificationSvc: d.Notifications,
		marketSvc:       d.Markets,
		catalogSvc:      d.Catalog,
		cartSvc:         d.Carts,
		addressSvc:      d.Addresses,
		couponSvc:       d.Coupons,
		checkoutSvc:     d.Checkout,
		orderSvc:        d.Orders,
		paymentSvc:      d.Payments,
		currencySvc:     d.Currency,
		dashboardSvc:    d.Dashboard,
		authClient:      d.AuthClient,
	}
}

func (h *Handler) limitWindow() time.Duration {
	if h.cfg.Limits.Window > 0 {
		return h.cfg.Limits.Window
	}
	return time.Minute
}

// RegisterUserRoutes 挂载用户管理服务（ws1）的路由。
func (h *Handler) RegisterUserRoutes(r *gin.Engine) {
	h.registerMeta(r)

	auth := r.Group("/api/auth")
	auth.POST("/register", h.register)
	auth.POST("/login",
		middlewares.RateLimit(h.rdb, "login", h.cfg.Limits.LoginPerMinute, h.limitWindow(),
			func(c *gin.Context) string { return c.ClientIP() }),
		h.login)
	auth.POST("/login/2fa",
		middlewares.RateLimit(h.rdb, "login", h.cfg.Limits.LoginPerMinute, h.limitWindow(),
			func(c *gin.Context) string { return c.ClientIP() }),
		h.login)
	auth.GET("/verify", h.verifyToken)
	auth.POST("/verify", h.verifyToken)
	auth.POST("/refresh", h.RequireAuth(), h.refreshToken)
	auth.POST("/logout", h.RequireAuth(), h.logout)

	api := r.Group("/api", h.RequireAuth())
	api.GET("/profile", h.getProfile)
	api.PUT("/profile", h.updateProfile)
	api.DELETE("/profile", h.deactivateAccount)
	api.POST("/account/deactivate", h.deactivateAccount)
	api.GET("/preferences", h.getPreferences)
	api.PUT("/preferences", h.updatePreferences)
	api.GET("/dashboard", h.dashboard)

	api.GET("/sessions", h.listSessions)
	api.DELETE("/sessions/:id", h.revokeSession)

	sec := api.Group("/security")
	sec.POST("/2fa/setup", h.twoFactorSetup)
	sec.POST("/2fa/enable", h.twoFactorEnable)
	sec.DELETE("/2fa", h.twoFactorDisable)
	sec.GET("/audit", h.auditTrail)
}

// RegisterStylingRoutes 挂载 AI 造型服务（ws2）的路由。
func (h *Handler) RegisterStylingRoutes(r *gin.Engine) {
	h.registerMeta(r)
	api := r.Group("/api", h.RequireAuth())
	api.GET("/recommendations", h.recommendations)
	api.GET("/style-insights", h.styleInsights)
	api.GET("/trends", h.trends)
	api.GET("/dashboard", h.dashboard)
}

// RegisterVisionRoutes 挂载衣橱与视觉服务（ws3）的路由。
func (h *Handler) RegisterVisionRoutes(r *gin.Engine) {
	h.registerMeta(r)
	api := r.Group("/api", h.RequireAuth())

	api.POST("/wardrobe", h.createWardrobeItem)
	api.GET("/wardrobe", h.listWardrobe)
	api.GET("/wardrobe/summary", h.wardrobeStats)
	api.GET("/wardrobe/:id", h.getWardrobeItem)
	api.PUT("/wardrobe/:id", h.updateWardrobeItem)
	api.DELETE("/wardrobe/:id", h.deleteWardrobeItem)
	api.POST("/wardrobe/:id/wear", h.markItemWorn)
	api.POST("/wardrobe/:id/analyze", h.analyzeItem)

	api.POST("/outfits", h.createOutfit)
	api.GET("/outfits", h.listOutfits)
	api.GET("/outfits/:id", h.getOutfit)
	api.PUT("/outfits/:id", h.updateOutfit)
	api.DELETE("/outfits/:id", h.deleteOutfit)
	api.POST("/outfits/:id/wear", h.markOutfitWorn)

	api.GET("/style-profile", h.getStyleProfile)
	api.PUT("/style-profile", h.updateStyleProfile)
	api.GET("/dashboard", h.dashboard)
}

// RegisterSocialRoutes 挂载社交服务（ws4）的路由。
func (h *Handler) RegisterSocialRoutes(r *gin.Engine) {
	h.registerMeta(r)
	api := r.Group("/api", h.RequireAuth())

	api.GET("/social/profile", h.mySocialProfile)
	api.PUT("/social/profile", h.updateSocialProfile)
	api.GET("/social/profiles/:id", h.viewSocialProfile)
	api.POST("/social/follow", h.follow)
	api.POST("/social/unfollow", h.unfollow)
	api.GET("/social/followers", h.followers)
	api.GET("/social/following", h.following)

	write := middlewares.RateLimit(h.rdb, "social-write", h.cfg.Limits.WritePerMinute, h.limitWindow(),
		func(c *gin.Context) string { return c.ClientIP() })
	api.POST("/posts", write, h.createPost)
	api.GET("/posts/:id", h.getPost)
	api.PUT("/posts/:id", h.updatePost)
	api.DELETE("/posts/:id", h.deletePost)
	api.GET("/users/:id/posts", h.userPosts)
	api.GET("/feed", h.feed)
	api.GET("/explore", h.explore)

	api.POST("/posts/:id/comments", write, h.addComment)
	api.GET("/posts/:id/comments", h.listComments)
	api.GET("/comments/:id/replies", h.listReplies)

	api.POST("/posts/:id/like", h.likePost)
	api.DELETE("/posts/:id/like", h.unlikePost)
	api.POST("/comments/:id/like", h.likeComment)
	api.DELETE("/comments/:id/like", h.unlikeComment)

	api.GET("/notifications", h.listNotifications)
	api.GET("/notifications/unread-count", h.unreadCount)
	api.POST("/notifications/:id/read", h.markNotificationRead)
	api.POST("/notifications/read-all", h.markAllNotificationsRead)

	api.GET("/dashboard", h.dashboard)
}

// RegisterCommerceRoutes 挂载电商服务（ws5）的路由。
func (h *Handler) RegisterCommerceRoutes(r *gin.Engine) {
	h.registerMeta(r)
	api := r.Group("/api", h.RequireAuth())

	api.GET("/markets", h.listMarkets)
	api.GET("/markets/:code/shipping-methods", h.listShippingMethods)
	api.GET("/markets/:code/merchants", h.listMerchants)

	api.GET("/products", h.listProducts)
	api.GET("/products/:id", h.getProduct)
	api.GET("/products/:id/stock", h.productStock)

	api.GET("/cart", h.getCart)
	api.POST("/cart/items", h.addCartItem)
	api.PUT("/cart/items/:id", h.updateCartItem)
	api.DELETE("/cart/items/:id", h.removeCartItem)
	api.DELETE("/cart", h.clearCart)

	api.POST("/addresses", h.createAddress)
	api.GET("/addresses", h.listAddresses)
	api.PUT("/addresses/:id", h.updateAddress)
	api.DELETE("/addresses/:id", h.deleteAddress)

	api.POST("/coupons/validate", h.validateCoupon)

	api.POST("/checkout/start", h.checkoutStart)
	api.GET("/checkout/:id", h.checkoutStatus)
	api.POST("/checkout/:id/confirm-cart", h.checkoutConfirmCart)
	api.POST("/checkout/:id/shipping", h.checkoutShipping)
	api.POST("/checkout/:id/payment", h.checkoutPayment)
	api.POST("/checkout/:id/complete", h.checkoutComplete)
	api.POST("/checkout/:id/abandon", h.checkoutAbandon)

	api.GET("/orders", h.listOrders)
	api.GET("/orders/:id", h.getOrder)
	api.POST("/orders/:id/status", h.updateOrderStatus)
	api.POST("/orders/:id/pay", h.payOrder)
	api.POST("/orders/:id/cancel", h.cancelOrder)

	api.GET("/payment-methods", h.listPaymentMethods)
	api.POST("/payment-methods", h.addPaymentMethod)
	api.DELETE("/payment-methods/:id", h.removePaymentMethod)
	api.GET("/payment-gateways", h.listPaymentGateways)
	api.GET("/transactions", h.listTransactions)

	api.GET("/currency/convert", h.convertCurrency)

	api.GET("/dashboard", h.dashboard)
}
