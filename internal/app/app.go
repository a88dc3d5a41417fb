// Package app 装配一个部署单元：配置、日志、存储、领域服务与路由。
// 五个服务入口共用同一套装配逻辑，仅在挂载的路由组与种子数据上不同。
package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/adapters"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/config"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/handlers"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/metrics"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/middlewares"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/perf"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/services"
	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/storage"
)

// Registry 汇集一个进程可用的全部领域服务，供种子钩子使用。
type Registry struct {
	Markets  *services.MarketService
	Payments *services.PaymentService
}

// Options 描述一个部署单元。
type Options struct {
	// Name 为服务标识（user-service、commerce-service 等）。
	Name string
	// Mount 挂载该服务负责的路由组。
	Mount func(h *handlers.Handler, r *gin.Engine)
	// Seed 在启动时写入该服务依赖的基础数据，可为 nil。
	Seed func(ctx context.Context, reg *Registry) error
}

// Run 启动一个部署单元并阻塞到收到退出信号。
func Run(opts Options) {
	log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)

	cfg := config.Load(opts.Name)
	if cfg.Env == "prod" {
		if cfg.Auth.Secret == "dev-secret-change-me" || cfg.Auth.Secret == "" {
			log.Fatal("insecure auth secret in prod; set auth.secret in config.yaml")
		}
		if cfg.MySQL.Password == "123456" || cfg.MySQL.Password == "" {
			log.Fatal("insecure mysql password in prod; configure mysql.password in config.yaml")
		}
	}
	log.WithFields(log.Fields{
		"service":    cfg.Service.Name,
		"env":        cfg.Env,
		"http_addr":  cfg.HTTPAddr,
		"mysql_dsn":  cfg.MySQL.DSNMasked(),
		"redis_addr": cfg.Redis.Addr,
	}).Info("configuration loaded")

	db, err := storage.InitMySQL(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to connect mysql")
	}
	defer storage.CloseMySQL(db)

	rdb, err := storage.InitRedis(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to connect redis")
	}
	defer func() { _ = rdb.Close() }()

	node, err := snowflake.NewNode(1)
	if err != nil {
		log.WithError(err).Fatal("snowflake node")
	}

	cache := perf.NewCache(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	tracker := perf.NewTracker(cfg.Perf.WindowSize, cfg.Perf.SlowThreshold, cfg.Perf.ProducerThreshold)

	// 下游适配器：baseURL 为空时走本地模拟，便于开发与测试
	gateway := adapters.NewPaymentGateway("", cfg.Gateway.Timeout, cfg.Gateway.Retries, cfg.Gateway.Backoff)
	merchant := adapters.NewMerchantConnector("", cfg.Gateway.Timeout)
	rates := adapters.NewRatesProvider("", cfg.Gateway.Timeout)
	vision := adapters.NewVisionAnalyzer("", cfg.Gateway.Timeout)
	recommender := adapters.NewStyleRecommender("", cfg.Gateway.Timeout)
	fraud := adapters.NewFraudChecker()
	var authClient *adapters.AuthClient
	if cfg.Auth.VerifyURL != "" {
		authClient = adapters.NewAuthClient(cfg.Auth.VerifyURL, cfg.Auth.VerifyTimeout)
	}

	tokenSvc := services.NewTokenService(cfg)
	userSvc := services.NewUserService(db)
	sessionSvc := services.NewSessionService(db)
	securitySvc := services.NewSecurityService(db, "Tanvi Vanity")
	auditSvc := services.NewAuditService(db, cfg.Service.Name)

	wardrobeSvc := services.NewWardrobeService(db)
	outfitSvc := services.NewOutfitService(db)
	styleProfileSvc := services.NewStyleProfileService(db)
	visionSvc := services.NewVisionService(db, vision)
	insightsSvc := services.NewInsightsService(db, recommender, cache, tracker)

	socialSvc := services.NewSocialService(db)
	postSvc := services.NewPostService(db)
	notificationSvc := services.NewNotificationService(db)

	marketSvc := services.NewMarketService(db)
	catalogSvc := services.NewCatalogService(db, merchant)
	cartSvc := services.NewCartService(db)
	addressSvc := services.NewAddressService(db)
	couponSvc := services.NewCouponService(db)
	checkoutSvc := services.NewCheckoutService(rdb, cfg.Checkout.TTL, cartSvc, couponSvc, marketSvc, addressSvc)
	paymentSvc := services.NewPaymentService(db, rdb, gateway)
	orderSvc := services.NewOrderService(db, node, fraud, couponSvc, paymentSvc)
	currencySvc := services.NewCurrencyService(db, rates)
	dashboardSvc := services.NewDashboardService(db, cache, insightsSvc)

	if opts.Seed != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := opts.Seed(ctx, &Registry{Markets: marketSvc, Payments: paymentSvc})
		cancel()
		if err != nil {
			log.WithError(err).Fatal("seed baseline data")
		}
	}

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.RequestID())
	router.Use(middlewares.RequestLogger(cfg.Service.Name))
	router.Use(middlewares.CORS())
	router.Use(metrics.Handler())
	router.Use(perf.Timing(tracker))

	h := handlers.New(handlers.Deps{
		Cfg:           cfg,
		DB:            db,
		RDB:           rdb,
		Cache:         cache,
		Tracker:       tracker,
		Tokens:        tokenSvc,
		Users:         userSvc,
		Sessions:      sessionSvc,
		Security:      securitySvc,
		Audit:         auditSvc,
		Wardrobe:      wardrobeSvc,
		Outfits:       outfitSvc,
		StyleProfile:  styleProfileSvc,
		Vision:        visionSvc,
		Insights:      insightsSvc,
		Social:        socialSvc,
		Posts:         postSvc,
		Notifications: notificationSvc,
		Markets:       marketSvc,
		Catalog:       catalogSvc,
		Carts:         cartSvc,
		Addresses:     addressSvc,
		Coupons:       couponSvc,
		Checkout:      checkoutSvc,
		Orders:        orderSvc,
		Payments:      paymentSvc,
		Currency:      currencySvc,
		Dashboard:     dashboardSvc,
		AuthClient:    authClient,
	})
	opts.Mount(h, router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("starting http server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
	log.Info("server exited")
}
