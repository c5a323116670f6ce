package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"social-hub/config"
	"social-hub/internal/handler"
	"social-hub/internal/model"
	"social-hub/internal/repository"
	"social-hub/internal/service"
	dbPkg "social-hub/pkg/db"
	"social-hub/pkg/jwt"
	"social-hub/pkg/logger"
	"social-hub/pkg/redis"
	"social-hub/pkg/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// presenceCleanupInterval 在线用户集合的清理周期
const presenceCleanupInterval = time.Minute

func main() {
	// 1. 加载配置
	cfg := config.LoadConfig()

	// 2. 初始化日志系统
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("=== Social Hub 启动 ===")
	log.Info("服务器配置信息",
		zap.String("port", cfg.Server.Port),
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("database_host", cfg.Database.Host),
		zap.String("database_name", cfg.Database.Database),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.Int("max_retries", cfg.Engine.MaxRetries),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 初始化数据库连接
	gdb, err := dbPkg.Open(cfg.Database, log)
	if err != nil {
		log.Fatal("数据库连接失败", zap.Error(err))
	}
	defer func() {
		if err := dbPkg.Close(gdb); err != nil {
			log.Error("关闭数据库连接失败", zap.Error(err))
		}
	}()
	log.Info("数据库连接成功")

	if err := dbPkg.AutoMigrate(gdb, model.All()...); err != nil {
		log.Fatal("自动迁移失败", zap.Error(err))
	}
	log.Info("自动迁移完成")

	// 4. Redis（可选）：在线状态与离线消息
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var (
		rdb      *redis.Client
		offline  websocket.OfflineStore
		presence websocket.PresenceStore
		online   service.PresenceChecker
	)
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Redis连接失败", zap.Error(err))
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error("关闭Redis连接失败", zap.Error(err))
			}
		}()
		offline, presence, online = rdb, rdb, rdb
		go cleanPresence(ctx, rdb, log)
		log.Info("Redis连接成功")
	}

	// 5. 初始化业务服务
	opts := []service.Option{service.WithLogger(log)}

	userRepo := repository.NewUserRepository(gdb)
	friendRepo := repository.NewFriendRepository(gdb)
	convRepo := repository.NewConversationRepository(gdb)
	postRepo := repository.NewPostRepository(gdb)

	wsManager := websocket.NewManager(log, offline, presence)

	userSvc := service.NewUserService(userRepo, opts...)
	friendSvc := service.NewFriendService(friendRepo, userRepo, opts...)
	feedSvc := service.NewFeedService(friendRepo, userRepo, convRepo, online, opts...)
	postSvc := service.NewPostService(postRepo, userRepo, cfg.Engine, opts...)
	messageSvc := service.NewMessageService(convRepo, wsManager, opts...)

	jwtSvc := jwt.NewJWTService(cfg.JWT)
	wsHandler := websocket.NewHandler(
		wsManager,
		jwtSvc,
		func(ctx context.Context, subject string) (uint, error) {
			u, err := userSvc.Resolve(ctx, subject)
			if err != nil {
				return 0, err
			}
			return u.ID, nil
		},
		messageSvc.MarkConversationRead,
		cfg.WebSocket,
		log,
	)

	// 6. 创建Gin路由
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	health := map[string]handler.HealthChecker{
		"db": func(context.Context) error { return dbPkg.HealthCheck(gdb) },
	}
	if rdb != nil {
		health["redis"] = rdb.HealthCheck
	}

	router := handler.NewRouter(handler.Deps{
		Log:       log,
		JWT:       jwtSvc,
		Users:     userSvc,
		Friends:   friendSvc,
		Feed:      feedSvc,
		Posts:     postSvc,
		Messages:  messageSvc,
		WebSocket: wsHandler.ServeWS,
		Health:    health,
	})

	// 7. 创建HTTP服务器
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP服务器启动", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP服务器启动失败", zap.Error(err))
		}
	}()

	// 8. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("正在关闭服务器...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP服务器关闭失败", zap.Error(err))
	}

	log.Info("服务器已安全关闭")
}

// cleanPresence 定期把TTL已过期的用户移出在线集合
func cleanPresence(ctx context.Context, rdb *redis.Client, log *zap.Logger) {
	ticker := time.NewTicker(presenceCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := rdb.CleanExpiredPresence(ctx)
			if err != nil {
				log.Warn("清理过期在线状态失败", zap.Error(err))
				continue
			}
			if removed > 0 {
				log.Debug("已清理过期在线状态", zap.Int("removed", removed))
			}
		}
	}
}
