// Package main initializes and starts the chat demo auth server, setting up
// configuration, logging, postgres, redis, services and handlers.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/chatdemo/internal/config"
	"github.com/atinyakov/chatdemo/internal/db"
	"github.com/atinyakov/chatdemo/internal/logger"
	"github.com/atinyakov/chatdemo/internal/repository"
	"github.com/atinyakov/chatdemo/internal/server/handler/http"
	"github.com/atinyakov/chatdemo/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	rdb, err := db.InitRedis(ctx, options.RedisURL)
	if err != nil {
		zapLogger.Fatal("cannot init redis", zap.Error(err))
	}
	defer rdb.Close()

	db.StartSessionCleaner(ctx, postgresDB, time.Hour, zapLogger)

	authService := service.NewAuthService(
		repository.NewPostgresUserRepository(postgresDB),
		repository.NewRedisCodeStore(rdb),
		service.LogSender{Log: zapLogger},
		service.NewTokenManager(options.JWTSecret, options.TokenTTL),
		service.Limits{
			CodeTTL:    options.CodeTTL,
			Cooldown:   options.Cooldown,
			DailyLimit: options.DailyLimit,
		},
		zapLogger,
	)

	router := http.NewRouter(&http.AuthHandler{AuthService: authService}, zapLogger)
	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	tlsOn := options.TLSCert != ""
	zapLogger.Info("starting auth server", zap.String("addr", options.Port), zap.Bool("tls", tlsOn))
	if tlsOn {
		err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
	} else {
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start auth server", zap.Error(err))
	}
}
