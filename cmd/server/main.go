package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/eldplanner/internal/api/handlers"
	"github.com/langchou/eldplanner/internal/api/ors"
	"github.com/langchou/eldplanner/internal/config"
	"github.com/langchou/eldplanner/internal/hos"
	"github.com/langchou/eldplanner/internal/repository"
	"github.com/langchou/eldplanner/internal/service"
	"github.com/langchou/eldplanner/pkg/ws"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	logger.Info("Starting ELD planner", zap.String("port", cfg.ServerPort))

	// 创建 context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接数据库
	db, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect database", zap.Error(err))
	}
	defer db.Close()

	// 执行数据库迁移
	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database migrated successfully")

	// 创建 Repository
	tripRepo := repository.NewTripRepository(db)
	geocodeRepo := repository.NewGeocodeCacheRepository(db)

	// 路线服务客户端
	if cfg.ORSAPIKey == "" {
		logger.Warn("ORS_API_KEY is not set, only \"lat,lng\" locations will resolve")
	}
	orsClient := ors.NewClient(cfg.ORSAPIKey, cfg.ORSBaseURL, cfg.ORSProfile, cfg.HTTPTimeout, geocodeRepo, logger)

	// HOS 规划器
	rules, err := cfg.Rules()
	if err != nil {
		logger.Fatal("Invalid HOS rules", zap.Error(err))
	}
	planner, err := hos.NewPlanner(rules)
	if err != nil {
		logger.Fatal("Failed to create planner", zap.Error(err))
	}

	// 创建 WebSocket Hub
	wsHub := ws.NewHub(logger)
	go wsHub.Run(ctx)

	// 创建行程服务
	tripService := service.NewTripService(logger, planner, orsClient, tripRepo, wsHub, service.Options{
		Placement:         cfg.StopPlacement,
		StrictCycle:       cfg.StrictCycle,
		CycleWarningHours: cfg.CycleWarningHours,
		Metadata:          cfg.Metadata(),
	})

	wsHub.SetInitDataProvider(func() *ws.InitData {
		countCtx, countCancel := context.WithTimeout(ctx, 2*time.Second)
		defer countCancel()

		count, err := tripService.TripCount(countCtx)
		if err != nil {
			logger.Warn("Failed to count trips for init data", zap.Error(err))
		}
		return &ws.InitData{TripCount: count, ServerTime: time.Now().UTC()}
	})

	// 创建 HTTP 处理器
	handler := handlers.NewHandler(logger, tripService, wsHub)

	// 设置 Gin 模式
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(handlers.RequestLogger(logger))

	// 注册路由
	handler.RegisterRoutes(router)

	// 启动 HTTP 服务器
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("addr", server.Addr),
		zap.String("ors_profile", cfg.ORSProfile),
		zap.String("stop_placement", string(cfg.StopPlacement)),
	)

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 优雅关闭
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	cancel()

	logger.Info("Server exited")
}

// initLogger 初始化日志
func initLogger(debug bool) *zap.Logger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	logger, _ := config.Build()
	return logger
}

// corsMiddleware CORS 中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
