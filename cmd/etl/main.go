package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/majindogo/field-data-etl/internal/adapter/httpadapter"
	"github.com/majindogo/field-data-etl/internal/adapter/sqlsource"
	"github.com/majindogo/field-data-etl/internal/adapter/webcsv"
	"github.com/majindogo/field-data-etl/internal/config"
	"github.com/majindogo/field-data-etl/internal/observability"
	"github.com/majindogo/field-data-etl/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "", "path to the pipeline config file (.yaml, .yml, or .toml)")
	outPath := flag.String("out", "", "write the final table as CSV to this path (\"-\" for stdout)")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: etl -config pipeline.yaml [-out result.csv]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	opener := func(dsn string) (pipeline.Engine, error) {
		return sqlsource.Open(dsn)
	}
	fetcher := webcsv.NewFetcher(cfg.FetchTimeout)

	processor := pipeline.New(&cfg.Pipeline, opener, fetcher, logger, metrics)
	defer processor.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RefreshInterval <= 0 {
		if err := runOnce(ctx, processor, *outPath, logger); err != nil {
			logger.Error("pipeline failed", "error", err)
			os.Exit(1)
		}
		return
	}

	runService(ctx, cfg, processor, logger)
}

// runOnce executes a single pipeline run and optionally exports the result.
func runOnce(ctx context.Context, processor *pipeline.Processor, outPath string, logger *slog.Logger) error {
	if err := processor.Process(ctx); err != nil {
		return err
	}
	logger.Info("pipeline complete",
		"rows", processor.Dataset().NumRows(),
		"columns", processor.Dataset().NumCols(),
	)

	if outPath == "" {
		return nil
	}
	if outPath == "-" {
		return processor.ExportCSV(os.Stdout)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()
	if err := processor.ExportCSV(f); err != nil {
		return err
	}
	logger.Info("exported result", "path", outPath)
	return nil
}

// runService re-runs the pipeline on the refresh interval with the health and
// metrics endpoints up, until interrupted.
func runService(ctx context.Context, cfg *config.Config, processor *pipeline.Processor, logger *slog.Logger) {
	srv := httpadapter.NewServer(cfg.HTTPAddr, processor, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		ticker := time.NewTicker(cfg.RefreshInterval)
		defer ticker.Stop()

		for {
			if err := processor.Process(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Error("pipeline run failed", "error", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := processor.Close(); err != nil {
		logger.Error("data source close error", "error", err)
	}

	logger.Info("shutdown complete")
}
