package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/21Ravan12/Real-Time-Chat-Application/internal/cache"
	"github.com/21Ravan12/Real-Time-Chat-Application/internal/config"
	"github.com/21Ravan12/Real-Time-Chat-Application/internal/email"
	"github.com/21Ravan12/Real-Time-Chat-Application/internal/events"
	"github.com/21Ravan12/Real-Time-Chat-Application/internal/handler"
	"github.com/21Ravan12/Real-Time-Chat-Application/internal/health"
	"github.com/21Ravan12/Real-Time-Chat-Application/internal/repository"
	"github.com/21Ravan12/Real-Time-Chat-Application/internal/router"
	"github.com/21Ravan12/Real-Time-Chat-Application/internal/service"
	"github.com/21Ravan12/Real-Time-Chat-Application/internal/storage"
	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/jwtauth"
	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/snowflake"
	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/workerpool"
)

func main() {
	// 初始化日志
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// 加载配置
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接数据库
	db, err := connectDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL", "host", cfg.Database.Host)

	// 连接 Redis
	redisClient := connectRedis(cfg.Redis)
	defer redisClient.Close()
	logger.Info("Connected to Redis", "host", cfg.Redis.Host)

	// 连接 NATS（推送通道，连不上不阻塞启动）
	natsClient, err := events.NewClient(cfg.NATS)
	if err != nil {
		logger.Warn("NATS unavailable, push events disabled", "error", err)
	} else {
		defer natsClient.Close()
		logger.Info("Connected to NATS", "url", cfg.NATS.URL)
	}

	// 基础组件
	sf := snowflake.NewNode(cfg.App.NodeID)
	jwtService := jwtauth.NewService(
		cfg.JWT.SecretKey,
		cfg.JWT.AccessExpire,
		cfg.JWT.RefreshExpire,
		cfg.JWT.ResetExpire,
	)
	pool := workerpool.New(cfg.Email.Workers, 256, logger)
	defer pool.Shutdown()

	emailSender := email.NewSender(
		cfg.Email.Host,
		cfg.Email.Port,
		cfg.Email.Username,
		cfg.Email.Password,
		cfg.Email.From,
	)
	avatarStore := storage.NewLocalAvatarStore(cfg.Storage.AvatarDir, cfg.Storage.PublicBaseURL)
	verificationCache := cache.NewVerificationCache(redisClient, cfg.Verification.CodeTTL)

	natsConn := natsClientConn(natsClient)
	publisher := events.NewPublisher(natsConn)

	// 存储层
	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	chatRepo := repository.NewChatRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// 服务层
	authService := service.NewAuthService(
		userRepo, verificationCache, emailSender, jwtService, pool, sf, cfg.Verification.CodeTTL,
	)
	userService := service.NewUserService(userRepo, avatarStore)
	friendService := service.NewFriendService(friendRepo, userRepo, chatRepo, messageRepo, publisher, sf)
	groupService := service.NewGroupService(groupRepo, userRepo, chatRepo, messageRepo, publisher, sf)
	chatService := service.NewChatService(chatRepo, messageRepo, friendRepo, groupRepo, publisher, sf)

	// HTTP 层
	r := router.SetupRouter(
		cfg,
		jwtService,
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(userService),
		handler.NewFriendHandler(friendService),
		handler.NewGroupHandler(groupService),
		handler.NewChatHandler(chatService),
	)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: r,
	}

	go func() {
		logger.Info("Server started", "name", cfg.App.Name, "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// 健康检查服务
	healthChecker := health.NewChecker(db, redisClient, natsConn)
	go startHealthServer(healthChecker, logger)

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}

// natsClientConn 取底层连接，客户端为 nil 时返回 nil
func natsClientConn(c *events.Client) *nats.Conn {
	if c == nil {
		return nil
	}
	return c.Conn()
}

// startHealthServer 启动健康检查 HTTP 服务
func startHealthServer(healthChecker *health.Checker, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/health", healthChecker)
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if healthChecker.IsHealthy(r.Context()) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Not Ready"))
		}
	})

	server := &http.Server{
		Addr:    ":8081",
		Handler: mux,
	}

	logger.Info("Health check server started", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Health check server failed", "error", err)
	}
}

// connectRedis 连接 Redis
func connectRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// connectDatabase 连接 PostgreSQL
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	return pgxpool.NewWithConfig(ctx, poolConfig)
}
