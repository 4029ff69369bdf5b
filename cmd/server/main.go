// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

// Package main is the ratingrec HTTP server.
//
// Startup order:
//
//  1. Configuration (koanf: defaults, config.yaml, RATINGREC_* env)
//  2. Logging (zerolog)
//  3. Engine, dataset provider and preparer
//  4. Supervisor tree: the dataset service loads or builds the split, the
//     HTTP service serves the API
//
// The server stops gracefully on SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/ratingrec/internal/api"
	"github.com/tomtom215/ratingrec/internal/app"
	"github.com/tomtom215/ratingrec/internal/config"
	"github.com/tomtom215/ratingrec/internal/logging"
	"github.com/tomtom215/ratingrec/internal/supervisor"
	"github.com/tomtom215/ratingrec/internal/supervisor/services"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (overrides CONFIG_PATH)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.LoggerConfig())
	logger := logging.Logger()

	logging.Info().
		Str("provider", cfg.Dataset.Provider).
		Str("log_level", cfg.Logging.Level).
		Msg("Starting ratingrec")

	comps, err := app.Build(cfg, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build components")
	}
	defer func() {
		if err := comps.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close dataset provider")
		}
	}()

	datasetSvc := services.NewDatasetService(comps.Preparer, comps.Engine, logger)

	router := api.NewRouter(
		api.NewHandler(comps.Engine, datasetSvc, logger),
		&api.MiddlewareConfig{
			CORSAllowedOrigins: cfg.Server.CORSOrigins,
			CORSMaxAge:         86400,
			RateLimitRequests:  cfg.Server.RateLimitRequests,
			RateLimitWindow:    cfg.Server.RateLimitWindow,
			RateLimitDisabled:  cfg.Server.RateLimitDisabled,
			RequestTimeout:     cfg.Server.RequestTimeout,
		},
	)
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(logger), supervisor.TreeConfig{
		FailureBackoff:  15 * time.Second,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddDataService(datasetSvc)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout, logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	if err := <-tree.ServeBackground(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	logging.Info().Msg("ratingrec stopped")
}
