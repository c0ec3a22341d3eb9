package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/majindogo/field-data-etl/internal/config"
	"github.com/majindogo/field-data-etl/internal/domain"
	"github.com/majindogo/field-data-etl/internal/observability"
)

// Engine runs queries against the configured data source.
type Engine interface {
	Query(ctx context.Context, query string) (*domain.Dataset, error)
	Close() error
}

// EngineOpener connects to a data source DSN.
type EngineOpener func(dsn string) (Engine, error)

// ReferenceFetcher retrieves the weather mapping table.
type ReferenceFetcher interface {
	Fetch(ctx context.Context, url string) (*domain.Dataset, error)
}

// Default column handling, overridable via the setters below.
const (
	defaultAbsColumn   = "Elevation"
	defaultRemapColumn = "Crop_type"
	stationIDColumn    = "Weather_station_ID"
	stationColumn      = "Weather_station"
	joinKeyColumn      = "Field_ID"
)

// Processor owns one in-memory dataset and drives it through the four-stage
// pipeline: ingest, rename, correct, enrich. It is not safe for concurrent
// use; a run mutates the dataset in place.
type Processor struct {
	cfg     *config.PipelineConfig
	opener  EngineOpener
	fetcher ReferenceFetcher
	logger  *slog.Logger
	metrics *observability.Metrics

	engine  Engine
	dataset *domain.Dataset
	ready   atomic.Bool

	absColumn   string
	remapColumn string
}

// New creates a Processor. The dataset starts absent and is populated by the
// first run's ingest stage.
func New(cfg *config.PipelineConfig, opener EngineOpener, fetcher ReferenceFetcher, logger *slog.Logger, metrics *observability.Metrics) *Processor {
	return &Processor{
		cfg:         cfg,
		opener:      opener,
		fetcher:     fetcher,
		logger:      logger,
		metrics:     metrics,
		absColumn:   defaultAbsColumn,
		remapColumn: defaultRemapColumn,
	}
}

// SetCorrectionColumns overrides the columns targeted by ApplyCorrections.
func (p *Processor) SetCorrectionColumns(absColumn, remapColumn string) {
	p.absColumn = absColumn
	p.remapColumn = remapColumn
}

// Dataset returns the current table. After a failed run it reflects the
// stages that completed; that is incidental, not a contract.
func (p *Processor) Dataset() *domain.Dataset {
	return p.dataset
}

// CheckReadiness returns nil once a run has completed all four stages.
func (p *Processor) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no pipeline run has completed yet")
	}
	return nil
}

// IngestSQLData opens the configured source, executes the configured query,
// and stores the result as the working dataset. Connection and query
// failures propagate unwrapped in kind.
func (p *Processor) IngestSQLData(ctx context.Context) error {
	if p.engine == nil {
		engine, err := p.opener(p.cfg.DBPath)
		if err != nil {
			return err
		}
		p.engine = engine
	}

	ds, err := p.engine.Query(ctx, p.cfg.SQLQuery)
	if err != nil {
		return err
	}
	p.dataset = ds
	p.metrics.RowsIngested.Add(float64(ds.NumRows()))
	p.logger.Info("successfully loaded data", "rows", ds.NumRows(), "columns", ds.NumCols())
	return nil
}

// RenameColumns exchanges the two configured column names. The survey export
// mislabels the pair; swapping the names (not the data) undoes it.
func (p *Processor) RenameColumns() error {
	a, b := p.cfg.SwapPair()
	if err := p.dataset.SwapColumns(a, b); err != nil {
		return err
	}
	p.logger.Debug("swapped columns", "column_a", a, "column_b", b)
	return nil
}

// ApplyCorrections normalizes the elevation column to non-negative values
// and remaps crop labels through the configured lookup table. Labels without
// a mapping entry pass through unchanged.
func (p *Processor) ApplyCorrections() error {
	if err := p.dataset.Apply(p.absColumn, absValue); err != nil {
		return err
	}
	remap := p.cfg.ValuesToRename
	return p.dataset.Apply(p.remapColumn, func(v any) any {
		if s, ok := v.(string); ok {
			if mapped, hit := remap[s]; hit {
				return mapped
			}
		}
		return v
	})
}

// WeatherStationMapping renames the raw station ID column to the canonical
// join name, fetches the weather mapping fresh, and left-joins it on
// Field_ID. Every survey row survives; rows without a station entry carry
// nil in the station columns.
func (p *Processor) WeatherStationMapping(ctx context.Context) error {
	if p.dataset.HasColumn(stationIDColumn) {
		if err := p.dataset.RenameColumn(stationIDColumn, stationColumn); err != nil {
			return err
		}
	}

	mapping, err := p.fetcher.Fetch(ctx, p.cfg.WeatherMappingCSV)
	if err != nil {
		return err
	}

	joined, err := p.dataset.LeftJoin(mapping, joinKeyColumn)
	if err != nil {
		return err
	}
	p.dataset = joined

	if stations, err := joined.Column(stationColumn); err == nil {
		unmatched := 0
		for _, v := range stations {
			if v == nil {
				unmatched++
			}
		}
		p.metrics.UnmatchedRows.Add(float64(unmatched))
		if unmatched > 0 {
			p.logger.Debug("rows without weather station", "count", unmatched)
		}
	}
	return nil
}

// Process runs the four stages in fixed order. Any stage failure aborts the
// run and propagates to the caller; there is no recovery or retry between
// stages.
func (p *Processor) Process(ctx context.Context) error {
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	stages := []struct {
		name string
		run  func(context.Context) error
	}{
		{"ingest", p.IngestSQLData},
		{"rename", func(context.Context) error { return p.RenameColumns() }},
		{"correct", func(context.Context) error { return p.ApplyCorrections() }},
		{"enrich", p.WeatherStationMapping},
	}

	for _, stage := range stages {
		start := domain.Now()
		err := stage.run(ctx)
		p.metrics.StageDuration.WithLabelValues(stage.name).Observe(domain.Now().Sub(start).Seconds())
		if err != nil {
			p.metrics.RunsFailed.Inc()
			return fmt.Errorf("%s: %w", stage.name, err)
		}
	}

	p.metrics.RunsSucceeded.Inc()
	p.metrics.LastRunTimestamp.Set(float64(domain.Now().Unix()))
	p.ready.Store(true)
	return nil
}

// Close releases the data source handle, if one was opened.
func (p *Processor) Close() error {
	if p.engine == nil {
		return nil
	}
	err := p.engine.Close()
	p.engine = nil
	return err
}

// absValue maps numeric cells to their absolute value and leaves everything
// else untouched. Corrections are total: no row can fail.
func absValue(v any) any {
	switch n := v.(type) {
	case int64:
		if n < 0 {
			return -n
		}
		return n
	case int:
		if n < 0 {
			return -n
		}
		return n
	case float64:
		return math.Abs(n)
	case float32:
		return float32(math.Abs(float64(n)))
	default:
		return v
	}
}
