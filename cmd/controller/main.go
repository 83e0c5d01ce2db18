// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/config"
	xglog "github.com/naevatec/ov2-ha-recorder-sub001/internal/log"
	"github.com/naevatec/ov2-ha-recorder-sub001/internal/reaper"
	"github.com/naevatec/ov2-ha-recorder-sub001/internal/restapi"
	"github.com/naevatec/ov2-ha-recorder-sub001/internal/session"
)

var (
	version = "v1.0.0"
	commit  = "none"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("harecorder-controller %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	xglog.Configure(xglog.Config{Level: "info", Service: "harecorder-controller", Version: version})
	logger := xglog.WithComponent("controller-main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env := config.ReadControllerEnv()

	repo, err := buildRepository(ctx, env)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize session store")
	}

	svc := session.NewService(repo)
	router := restapi.NewRouter(svc, env.Creds)

	apiServer := restapi.NewServer(env.ListenAddr, router)
	metricsServer := &http.Server{
		Addr:              env.MetricsAddr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	rp := reaper.New(svc, env.Reaper)
	reaperCtx, stopReaper := context.WithCancel(ctx)
	defer stopReaper()
	go rp.Run(reaperCtx)

	errCh := make(chan error, 2)
	go func() {
		logger.Info().Str("addr", env.ListenAddr).Msg("starting session API")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()
	go func() {
		logger.Info().Str("addr", env.MetricsAddr).Msg("starting metrics listener")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("api server shutdown error")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("metrics server shutdown error")
	}

	logger.Info().Msg("controller exiting")
}

func buildRepository(ctx context.Context, env config.ControllerEnv) (session.Repository, error) {
	switch env.SessionStore {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     env.RedisAddr,
			Password: env.RedisPassword,
			DB:       env.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis at %s: %w", env.RedisAddr, err)
		}
		return session.NewRedisRepository(client), nil
	case "memory", "":
		return session.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q", env.SessionStore)
	}
}
