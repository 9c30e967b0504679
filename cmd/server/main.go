package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"legalmind/internal/app"
	"legalmind/internal/config"
	"legalmind/internal/server"
	"legalmind/internal/util"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := util.InitLogger(cfg.LogLevel)

	trustedProxies, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to parse trusted proxies: %v\n", err)
		os.Exit(1)
	}

	appCore, err := app.New(app.Config{
		DatabaseURL:  cfg.DatabaseURL,
		GeminiAPIKey: cfg.GeminiAPIKey,
		ModelTimeout: time.Duration(cfg.ModelTimeoutSeconds) * time.Second,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to init app: %v\n", err)
		os.Exit(1)
	}

	httpServer, err := server.New(server.Config{
		App:                appCore,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		AllowedOrigins:     cfg.AllowedOrigins,
		TrustedProxies:     trustedProxies,
		RedisAddr:          cfg.RedisAddr,
		RedisPassword:      cfg.RedisPassword,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to init server: %v\n", err)
		os.Exit(1)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("legalmind server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
