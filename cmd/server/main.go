// Package main runs the class register HTTP server with live WebSocket updates and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/registro/backend/config"
	"github.com/registro/backend/internal/auth"
	"github.com/registro/backend/internal/classes"
	"github.com/registro/backend/internal/middleware"
	"github.com/registro/backend/internal/realtime"
	"github.com/registro/backend/internal/seed"
	"github.com/registro/backend/internal/worker"
	"github.com/registro/backend/pkg/database"
	"github.com/registro/backend/pkg/queue"
	"github.com/registro/backend/pkg/redis"
	"github.com/registro/backend/pkg/response"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("load config: " + err.Error())
	}
	logger := newLogger(cfg.IsProduction())
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: time.Duration(cfg.Database.MaxConnLifetimeMin) * time.Minute,
		ConnectAttempts: cfg.Database.ConnectAttempts,
		RetryDelay:      2 * time.Second,
	}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, redis.Options{
		Addr:            cfg.Redis.Addr,
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		PoolSize:        cfg.Redis.PoolSize,
		ConnectAttempts: cfg.Redis.ConnectAttempts,
		RetryDelay:      2 * time.Second,
	}, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Sync core: one hub for the process, shared by the socket and the write path.
	hub := realtime.NewHub(logger)
	classRepo := classes.NewRepository(pool)
	coordinator := classes.NewCoordinator(classRepo, hub, logger)
	classHandler := classes.NewHandler(coordinator, hub, logger)

	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Demo data
	jobQueue := queue.NewQueue(rdb.Client, logger)
	seeder := seed.NewSeeder(seed.NewRepository(pool), logger)
	seedHandler := seed.NewHandler(cfg.Seed.Secret, jobQueue, logger)
	processor := worker.NewProcessor(seeder, jobQueue, logger)

	snapshot := func(ctx context.Context, classID string) (interface{}, error) {
		return coordinator.Snapshot(ctx, classID)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	api := router.Group("/api")
	{
		api.GET("/hello", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now()}) })
		api.POST("/login", authHandler.Login)
		api.POST("/seed", seedHandler.Seed)

		cls := api.Group("/classes")
		cls.Use(middleware.JWT(jwtService))
		{
			cls.GET("/:id", classHandler.GetSnapshot)
			cls.GET("/:id/viewers", classHandler.Viewers)
			cls.POST("/:id/presence", classHandler.RecordPresence)
			cls.POST("/:id/grade", classHandler.RecordGrade)
		}
	}

	router.GET("/ws", realtime.ServeWs(hub, snapshot, logger, jwtService.UserID))

	if fallback, ok := frontend(cfg.Server.StaticDir); ok {
		router.NoRoute(fallback)
		logger.Info("serving frontend", zap.String("dir", cfg.Server.StaticDir))
	} else {
		router.NoRoute(func(c *gin.Context) {
			c.JSON(http.StatusNotFound, response.Body{Success: false, Error: "not found"})
		})
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go processor.Run(workerCtx)
	logger.Info("seed worker started")

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(production bool) *zap.Logger {
	config := zap.NewProductionConfig()
	if !production {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := config.Build()
	if err != nil {
		panic("build logger: " + err.Error())
	}
	return logger
}
