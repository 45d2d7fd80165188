package main

import (
	"Alumnet/internal/api/config"
	"Alumnet/internal/pkg/llm"
	"Alumnet/internal/pkg/logger"
	"Alumnet/internal/pkg/minio"
	"Alumnet/internal/pkg/mongo"
	"Alumnet/internal/pkg/redis"
	"Alumnet/internal/pkg/security"
	"Alumnet/internal/wire"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

func main() {
	// 加载配置
	if err := config.LoadConfig(); err != nil {
		log.Error("Fatal error: failed to load configuration", "err", err)
		panic(err)
	}
	cfg := config.Cfg

	// 初始化日志
	logger.InitLogger(cfg.Logstash)
	security.InitJWT(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Redis 连接
	err := redis.InitRedis(cfg.Redis)
	if err != nil {
		log.Error("Fatal error: failed to create redis connection", "err", err)
		panic(err)
	}

	// Mongo 连接
	mongoDB, err := mongo.InitMongo(cfg.Mongo)
	if err != nil {
		log.Error("Fatal error: failed to create mongo connection", "err", err)
		panic(err)
	}

	// MinIO 连接
	storage, err := minio.Init(cfg.MinIO)
	if err != nil {
		log.Error("Fatal error: failed to initialize MinIO", "err", err)
		panic(err)
	}

	// llm 模型初始化，失败时简历匹配降级为不可用
	analyzer, err := llm.InitLLM(cfg.LLM)
	if err != nil {
		log.Warn("LLM unavailable, resume match disabled", "err", err)
		analyzer = nil
	}

	// 依赖注入
	app, err := wire.BuildApplication(&wire.Infra{
		Mongo:    mongoDB,
		KV:       redis.NewKV(redis.Rdb),
		Storage:  storage,
		Analyzer: analyzer,
	}, cfg)
	if err != nil {
		log.Error("Fatal error: failed to create application", "err", err)
		panic(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	// 定时任务
	if err = app.CronMgr.Start(); err != nil {
		log.Error("Fatal error: failed to start cron jobs", "err", err)
		panic(err)
	}
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Cron Jobs stopping...")
		app.CronMgr.Stop()
		return nil
	})

	// HTTP 服务器
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		log.Info("HTTP Server starting...", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// 优雅退出
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-ctx.Done():
		case sig := <-quit:
			log.Info("Received signal, shutting down...", "signal", sig)
			cancel()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP Server shutdown failed", "err", err)
		}
		// Shutdown 不会关闭已劫持的 websocket 连接
		app.Hub.Close()
		return nil
	})

	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("App exited with error", "err", err)
	}

	// 等待后台通知发送完毕再断开存储
	app.Runner.Wait()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	mongo.Disconnect(closeCtx, mongoDB)
	if err = redis.Close(); err != nil {
		log.Error("Redis close failed", "err", err)
	}
	log.Info("App exited successfully.")
}
