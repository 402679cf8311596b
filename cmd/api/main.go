package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"haiku-api/internal/app"
	"haiku-api/internal/core/config"
	"haiku-api/internal/core/database"
	"haiku-api/internal/core/logger"
	"haiku-api/internal/core/server"
	"haiku-api/internal/dispatch"
	"haiku-api/internal/generator"
	"haiku-api/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		// logger 还没建好，只能直接退出
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, cleanup := logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON, logger.FileRotate{
		Enable:     cfg.Log.File.Enable,
		Filename:   cfg.Log.File.Filename,
		MaxSizeMB:  cfg.Log.File.MaxSizeMB,
		MaxBackups: cfg.Log.File.MaxBackups,
		MaxAgeDays: cfg.Log.File.MaxAgeDays,
		Compress:   cfg.Log.File.Compress,
	})
	defer cleanup()
	restoreStd := logger.RedirectStdLog(log, zapcore.InfoLevel)
	defer restoreStd()
	// gin 自己的调试输出（路由表等）也走 zap
	gin.DefaultWriter = logger.ToWriter(log.Named("gin"), zapcore.DebugLevel)
	gin.DefaultErrorWriter = logger.ToWriter(log.Named("gin"), zapcore.ErrorLevel)

	// 数据库（失败会直接 Fatal）
	db := mustOpenDB(cfg, log)
	log.Info("database connected",
		zap.String("driver", cfg.DB.Driver),
		zap.String("dsn", database.MaskDSN(cfg.DB.DSN)),
	)

	// 自动迁移
	if cfg.DB.AutoMigrate {
		if err := db.AutoMigrate(app.Models()...); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	// 生成服务（配置缺失属于启动期错误）
	gen, err := generator.New(generator.Options{
		BaseURL: cfg.Generator.BaseURL,
		APIKey:  cfg.Generator.APIKey,
		Timeout: time.Duration(cfg.Generator.TimeoutSec) * time.Second,
		Log:     log,
	})
	if err != nil {
		log.Fatal("generator config", zap.Error(err))
	}

	reg, err := app.Registry(app.Deps{
		DB:             db,
		Generator:      gen,
		Log:            log,
		AcquireTimeout: cfg.DB.AcquireTimeout(),
	})
	if err != nil {
		log.Fatal("registry", zap.Error(err))
	}
	d := dispatch.New(reg, log,
		dispatch.WithMaxBatch(cfg.Dispatch.MaxBatch),
		dispatch.WithParallelism(cfg.Dispatch.Parallelism),
	)

	// 路由
	h := cfg.App.HTTP
	r := router.NewAPIEngine(log, router.Options{
		Server: server.Options{
			Name:        cfg.App.Name,
			Mode:        server.ModeFor(cfg.App.Env),
			CORSOrigins: h.CORSOrigins,
		},
		RateLimitRPS:   h.RateLimitRPS,
		RateLimitBurst: h.RateLimitBurst,
		PerIPRPS:       h.PerIPRPS,
		PerIPBurst:     h.PerIPBurst,
		MaxInFlight:    h.MaxInFlight,
		MaxBodyBytes:   h.MaxBodyBytes,
		RequestTimeout: time.Duration(h.RequestTimeoutSec) * time.Second,
		SlowRequest:    time.Duration(h.SlowRequestMs) * time.Millisecond,
		Ping:           pinger(db),
	}, d)

	// HTTP Server
	addr := server.Addr(h.Host, h.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(h.ReadTimeoutSec)*time.Second,
		time.Duration(h.WriteTimeoutSec)*time.Second,
		time.Duration(h.IdleTimeoutSec)*time.Second,
	)

	// 启动日志
	host4human := h.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(h.Port)
	log.Info("haiku api starting",
		zap.String("addr", addr),
		zap.String("health", baseURL+"/health"),
		zap.String("ops", baseURL+"/api/v1/ops"),
		zap.Int("entry_points", reg.Len()),
	)

	// 异步启动
	go func() {
		if err := server.StartHTTP(srv, log); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("haiku api start FAILED", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("haiku api stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Log:                l,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}

func pinger(db *gorm.DB) func() error {
	return func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return sqlDB.PingContext(ctx)
	}
}
