// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/config"
	xglog "github.com/naevatec/ov2-ha-recorder-sub001/internal/log"
	"github.com/naevatec/ov2-ha-recorder-sub001/internal/objectstore"
	"github.com/naevatec/ov2-ha-recorder-sub001/internal/recorder"
)

var (
	version = "v1.0.0"
	commit  = "none"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	sessionID := flag.String("session-id", "", "recording session id (overrides SESSION_ID env)")
	clientID := flag.String("client-id", "", "recording client id (overrides CLIENT_ID env)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("harecorder-recorder %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	xglog.Configure(xglog.Config{Level: "info", Service: "harecorder-recorder", Version: version})
	logger := xglog.WithComponent("recorder-main")

	env := config.ReadRecorderEnv()
	if *sessionID != "" {
		env.SessionID = *sessionID
	}
	if *clientID != "" {
		env.ClientID = *clientID
	}
	if env.SessionID == "" || env.ClientID == "" {
		logger.Fatal().Msg("session-id and client-id are required (flag or SESSION_ID/CLIENT_ID env)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := recorder.NewControllerClient(env.ControllerBaseURL, env.Creds, env.ControllerTimeout)

	deps := recorder.Dependencies{Client: client}
	if env.Pipeline.StorageMode == recorder.StorageModeS3 {
		store, err := objectstore.New(ctx, env.Store)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize object store")
		}
		deps.Store = recorder.NewStoreAdapter(store)
	}

	coordinator := recorder.NewCoordinator(env.SessionID, env.ClientID, env.ClientHost, env.Pipeline, deps)

	logger.Info().Str("session_id", env.SessionID).Str("client_id", env.ClientID).Msg("starting recording session")
	if err := coordinator.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("recording session failed")
	}
	logger.Info().Str("session_id", env.SessionID).Msg("recording session finished")
}
