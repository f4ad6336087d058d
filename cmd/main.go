package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JMURv/device-auth/internal/auth"
	"github.com/JMURv/device-auth/internal/cache/noop"
	"github.com/JMURv/device-auth/internal/cache/redis"
	"github.com/JMURv/device-auth/internal/config"
	"github.com/JMURv/device-auth/internal/ctrl"
	"github.com/JMURv/device-auth/internal/hdl/grpc"
	"github.com/JMURv/device-auth/internal/hdl/http"
	"github.com/JMURv/device-auth/internal/observability/logging"
	"github.com/JMURv/device-auth/internal/observability/metrics/prometheus"
	"github.com/JMURv/device-auth/internal/observability/tracing/jaeger"
	"github.com/JMURv/device-auth/internal/repo/db"
	"github.com/JMURv/device-auth/internal/repo/memory"
	"github.com/JMURv/device-auth/internal/smtp"
	"go.uber.org/zap"
)

const (
	defaultConfigPath = "configs/.env"
	shutdownTimeout   = 10 * time.Second
)

type repository interface {
	ctrl.AppRepo
	Close(ctx context.Context) error
}

func mustRepo(conf config.Config) repository {
	if conf.Storage.Driver == config.StorageMemory {
		zap.L().Warn("using in-memory storage, state is lost on restart")
		return memory.New()
	}
	return db.New(conf)
}

func mustCache(conf config.Config) ctrl.CacheService {
	if conf.Redis.Addr == "" {
		return noop.New()
	}
	return redis.New(conf)
}

func main() {
	defer func() {
		if err := recover(); err != nil {
			zap.L().Panic("panic occurred", zap.Any("error", err))
			os.Exit(1)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	conf := config.MustLoad(path)
	logging.MustRegister(conf.Server.Mode, conf.Log)

	go prometheus.New(conf.Server.Port + 5).Start(ctx)
	go jaeger.Start(ctx, conf.ServiceName, conf.Jaeger)

	au := auth.New(conf)
	cache := mustCache(conf)
	repo := mustRepo(conf)
	svc := ctrl.New(
		au, repo, cache, smtp.New(conf),
		ctrl.WithRecheck(conf.Auth.RecheckOnResolve),
	)

	if err := svc.EnsureAdmin(ctx, conf.Auth.Admin.Username, conf.Auth.Admin.Password, conf.Auth.Admin.Quota); err != nil {
		zap.L().Fatal("failed to provision admin account", zap.Error(err))
	}

	hh := http.New(svc, conf.Server)
	gh := grpc.New(conf.ServiceName, svc)

	zap.L().Info(
		fmt.Sprintf(
			"Starting server on %v://%v:%v",
			conf.Server.Scheme,
			conf.Server.Domain,
			conf.Server.Port,
		),
	)
	go hh.Start(conf.Server.Port)
	go gh.Start(conf.Server.GRPCPort)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-c

	zap.L().Info("Shutting down gracefully...")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()

	if err := hh.Close(shutdownCtx); err != nil {
		zap.L().Warn("Error closing http handler", zap.Error(err))
	}

	if err := gh.Close(); err != nil {
		zap.L().Warn("Error closing grpc handler", zap.Error(err))
	}

	if err := cache.Close(); err != nil {
		zap.L().Warn("Failed to close cache", zap.Error(err))
	}

	if err := repo.Close(shutdownCtx); err != nil {
		zap.L().Warn("Error closing repository", zap.Error(err))
	}

	_ = zap.L().Sync()
}
