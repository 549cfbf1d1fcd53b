package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vnkhanh/hostel-server/config"
	"github.com/vnkhanh/hostel-server/gateway"
	"github.com/vnkhanh/hostel-server/middleware"
	"github.com/vnkhanh/hostel-server/models"
	"github.com/vnkhanh/hostel-server/routes"
	"github.com/vnkhanh/hostel-server/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger config is part of cfg, so fall back to a bare one
		zap.NewExample().Fatal("load config", zap.Error(err))
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat, "hostel-server")
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	gw, err := newGateway(cfg, logger)
	if err != nil {
		logger.Fatal("init gateway", zap.Error(err))
	}

	limiter := middleware.NewIPRateLimiter(cfg.SignupRatePerMin, cfg.SignupBurst, 5*time.Minute)
	done := make(chan struct{})
	go limiter.Run(done)

	deps := routes.Deps{
		Gateway:       gw,
		JWTSecret:     cfg.SupabaseJWTSecret,
		SignupLimiter: limiter,
		Logger:        logger,
	}
	if cfg.StorageBucket != "" && cfg.SupabaseURL != "" {
		deps.Uploader = utils.NewStorageUploader(cfg.SupabaseURL, cfg.SupabaseKey, cfg.StorageBucket)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Fatal("trusted proxies", zap.Error(err))
	}
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Hostel server is running")
	})
	routes.SetupRoutes(r, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("server listening", zap.String("port", cfg.Port), zap.String("gateway", cfg.GatewayMode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	close(done)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}

func newGateway(cfg *config.Config, logger *zap.Logger) (gateway.Gateway, error) {
	switch cfg.GatewayMode {
	case config.GatewayPostgres:
		db, err := config.ConnectDB(cfg, logger)
		if err != nil {
			return nil, err
		}
		return gateway.NewPostgres(db, logger.Named("postgres")), nil
	case config.GatewayMemory:
		logger.Warn("using in-memory gateway, data is lost on restart")
		return newMemoryGateway(cfg, logger), nil
	default:
		return gateway.NewSupabase(gateway.SupabaseConfig{
			URL:        cfg.SupabaseURL,
			Key:        cfg.SupabaseKey,
			RedirectTo: cfg.EmailRedirectTo,
			Timeout:    cfg.GatewayTimeout,
			RetryCount: cfg.GatewayRetryCount,
		}, logger.Named("supabase")), nil
	}
}

// newMemoryGateway seeds the admin profile the console signs in with; without
// it every /api request is rejected.
func newMemoryGateway(cfg *config.Config, logger *zap.Logger) *gateway.Memory {
	id := cfg.MemoryAdminID
	if id == uuid.Nil {
		id = uuid.New()
	}
	gw := gateway.NewMemory()
	gw.PutProfile(models.Profile{
		ID:       id,
		FullName: cfg.MemoryAdminName,
		Email:    cfg.MemoryAdminEmail,
		Role:     models.RoleAdmin,
	})
	logger.Info("seeded in-memory admin", zap.String("admin_id", id.String()), zap.String("email", cfg.MemoryAdminEmail))
	return gw
}
