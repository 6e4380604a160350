// Command sogdata runs the SOG data preparation pipeline: it loads the
// CTD and satellite source tables, labels casts by station frequency,
// aggregates monthly means and chlorophyll anomalies, and writes the
// derived tables for the downstream plotting workflow. With SERVE=true it
// additionally exposes the results over HTTP alongside health and metrics
// endpoints.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pelagiclab/sog-dataprep/internal/adapter/httpserver"
	"github.com/pelagiclab/sog-dataprep/internal/config"
	"github.com/pelagiclab/sog-dataprep/internal/dataset"
	"github.com/pelagiclab/sog-dataprep/internal/domain"
	"github.com/pelagiclab/sog-dataprep/internal/export"
	"github.com/pelagiclab/sog-dataprep/internal/observability"
	"github.com/pelagiclab/sog-dataprep/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	var source dataset.Source
	switch cfg.DataFormat {
	case "sqlite":
		source = dataset.NewSQLiteSource(cfg.SQLitePath)
	default:
		source = dataset.NewCSVSource(cfg.DataDir)
	}

	writer := export.NewWriter(cfg.OutputDir)

	params := pipeline.Params{
		Classify: domain.ClassifyConfig{
			PrimaryCount:    cfg.PrimaryStationCount,
			PrimaryStations: cfg.PrimaryStations,
		},
		Satellite: domain.SatelliteConfig{
			YearMin:    cfg.SatYearMin,
			YearMax:    cfg.SatYearMax,
			MinCellObs: cfg.MinCellObs,
		},
	}

	p := pipeline.New(source, writer, logger, metrics, params)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// One-shot mode: run the pipeline and exit.
	if !cfg.Serve {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline run failed", "error", err)
			os.Exit(1)
		}
		logger.Info("derived tables written", "dir", writer.Dir())
		return
	}

	srv := httpserver.NewServer(cfg.HTTPAddr, p, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start pipeline run; the API serves results once it completes.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline run failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
