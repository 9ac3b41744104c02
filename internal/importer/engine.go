package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DavidDuveau/openjoconde-sub000/internal/apperrors"
	"github.com/DavidDuveau/openjoconde-sub000/internal/logging"
	"github.com/DavidDuveau/openjoconde-sub000/internal/metrics"
	"github.com/DavidDuveau/openjoconde-sub000/internal/models/dtos"
	"github.com/DavidDuveau/openjoconde-sub000/internal/parser"
)

// Stage names reported to progress sinks.
const (
	StageParse      = "parse"
	StageDomains    = "domains"
	StageTechniques = "techniques"
	StagePeriods    = "periods"
	StageMuseums    = "museums"
	StageArtists    = "artists"
	StageArtworks   = "artworks"
)

const (
	DefaultReferenceBatchSize = 100
	DefaultArtworkBatchSize   = 50
)

// ProgressFunc observes import progress per stage. current and total count
// entities of that stage in the chunk being imported.
type ProgressFunc func(stage string, current, total int)

// errCanceled stops the stages; it never leaves the engine.
var errCanceled = errors.New("import canceled")

type Options struct {
	ReferenceBatchSize int
	ArtworkBatchSize   int
	// ParallelReferenceStages runs the five reference stages concurrently.
	ParallelReferenceStages bool
	Parser                  parser.Options
}

// Engine merges parsed entities into the store in bounded batches.
// Batches commit independently: a failure never rolls back earlier batches.
type Engine struct {
	store   Store
	opts    Options
	metrics *metrics.MetricsRegistry
	log     *zap.SugaredLogger
}

func NewEngine(store Store, opts Options, metricsReg *metrics.MetricsRegistry) *Engine {
	if opts.ReferenceBatchSize <= 0 {
		opts.ReferenceBatchSize = DefaultReferenceBatchSize
	}
	if opts.ArtworkBatchSize <= 0 {
		opts.ArtworkBatchSize = DefaultArtworkBatchSize
	}
	return &Engine{
		store:   store,
		opts:    opts,
		metrics: metricsReg,
		log:     logging.With("component", "importer"),
	}
}

// importRun is the state shared by every chunk of one import.
type importRun struct {
	mu       sync.Mutex
	stats    dtos.ImportStatistics
	failed   map[uuid.UUID]struct{}
	written  map[string]artworkLinks
	progress ProgressFunc
}

func (e *Engine) newRun(onProgress ProgressFunc) *importRun {
	return &importRun{
		failed:   make(map[uuid.UUID]struct{}),
		written:  make(map[string]artworkLinks),
		progress: safeProgress(onProgress),
	}
}

type outcome int

const (
	uncounted outcome = iota
	imported
	updated
	skipped
)

func (r *importRun) count(c *dtos.EntityCounts, o outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch o {
	case imported:
		c.Imported++
	case updated:
		c.Updated++
	case skipped:
		c.Skipped++
	}
}

// fail records an entity the store refused. A refused insert leaves no row,
// so no relation row may point at it; a refused update keeps its old row.
func (r *importRun) fail(id uuid.UUID, inserted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inserted {
		r.failed[id] = struct{}{}
	}
	r.stats.Errors++
}

func (r *importRun) isFailed(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.failed[id]
	return ok
}

// ImportData imports a complete parse result. A store that cannot be reached
// returns ErrPersistence with the statistics gathered so far; cancellation
// returns the partial statistics and no error.
func (e *Engine) ImportData(ctx context.Context, result *dtos.ParsingResult, onProgress ProgressFunc) (*dtos.ImportStatistics, error) {
	start := time.Now()
	run := e.newRun(onProgress)

	err := e.ping(ctx)
	if err == nil && result != nil {
		err = e.importChunk(ctx, run, result)
	}
	return e.finish(run, start, err)
}

// ImportFromSource parses the file at path and imports it chunk by chunk, so
// peak memory is bounded by one parser batch.
func (e *Engine) ImportFromSource(ctx context.Context, path string, onProgress ProgressFunc) (*dtos.ImportReport, error) {
	report := &dtos.ImportReport{SourcePath: path, StartedAt: time.Now()}
	run := e.newRun(onProgress)

	err := e.importSource(ctx, run, path, report)
	stats, err := e.finish(run, report.StartedAt, err)
	report.ImportStatistics = *stats
	report.CompletedAt = time.Now()
	return report, err
}

func (e *Engine) importSource(ctx context.Context, run *importRun, path string, report *dtos.ImportReport) error {
	format, err := parser.DetectFormat(path)
	if err != nil {
		return err
	}
	p, err := parser.New(format, e.opts.Parser)
	if err != nil {
		return err
	}
	report.Format = format

	if err := e.ping(ctx); err != nil {
		return err
	}

	summary, err := p.ParseBatches(ctx, path, func(chunk *dtos.ParsingResult) error {
		return e.importChunk(ctx, run, chunk)
	}, func(processed, total int) {
		run.progress(StageParse, processed, total)
	})
	if summary != nil {
		report.RecordsParsed = summary.RecordsSeen
		report.RecordsRejected = summary.RecordsRejected
		report.RecordsFailed = summary.RecordsFailed
		if summary.Canceled {
			run.stats.Canceled = true
		}
		e.metrics.ObserveParse(summary)
	}
	return err
}

// importChunk runs every stage on one chunk: reference entities first so
// artwork relation rows only point at persisted ids.
func (e *Engine) importChunk(ctx context.Context, run *importRun, chunk *dtos.ParsingResult) error {
	if err := e.importReferences(ctx, run, chunk); err != nil {
		return err
	}
	return e.importArtworks(ctx, run, chunk.Artworks)
}

func (e *Engine) importReferences(ctx context.Context, run *importRun, chunk *dtos.ParsingResult) error {
	stages := []func(context.Context) error{
		func(ctx context.Context) error { return runReferenceStage(ctx, e, run, domainStage(e, run, chunk.Domains)) },
		func(ctx context.Context) error { return runReferenceStage(ctx, e, run, techniqueStage(e, run, chunk.Techniques)) },
		func(ctx context.Context) error { return runReferenceStage(ctx, e, run, periodStage(e, run, chunk.Periods)) },
		func(ctx context.Context) error { return runReferenceStage(ctx, e, run, museumStage(e, run, chunk.Museums)) },
		func(ctx context.Context) error { return runReferenceStage(ctx, e, run, artistStage(e, run, chunk.Artists)) },
	}

	if !e.opts.ParallelReferenceStages {
		for _, stage := range stages {
			if err := stage(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, stage := range stages {
		stage := stage
		g.Go(func() error { return stage(gctx) })
	}
	err := g.Wait()
	if errors.Is(err, errCanceled) && ctx.Err() == nil {
		// A sibling stage failed and canceled gctx; Wait kept the first error.
		return fmt.Errorf("%w: reference stage aborted", apperrors.ErrPersistence)
	}
	return err
}

func (e *Engine) ping(ctx context.Context) error {
	if err := e.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

// finish turns the stage outcome into the final statistics.
func (e *Engine) finish(run *importRun, start time.Time, err error) (*dtos.ImportStatistics, error) {
	run.mu.Lock()
	stats := run.stats
	run.mu.Unlock()

	stats.Duration = time.Since(start)
	stats.Success = true

	switch {
	case err == nil:
	case errors.Is(err, errCanceled):
		stats.Canceled = true
		err = nil
	default:
		stats.Success = false
		stats.ErrorMessage = err.Error()
	}

	e.metrics.ObserveImport(&stats)

	fields := []interface{}{
		"artworks_imported", stats.Artworks.Imported,
		"artworks_updated", stats.Artworks.Updated,
		"artists_imported", stats.Artists.Imported,
		"errors", stats.Errors,
		"canceled", stats.Canceled,
		"duration", stats.Duration.Truncate(time.Millisecond).String(),
	}
	if err != nil {
		e.log.Errorw("Import failed", append(fields, "error", err)...)
	} else {
		e.log.Infow("Import finished", fields...)
	}
	return &stats, err
}

func safeProgress(fn ProgressFunc) ProgressFunc {
	if fn == nil {
		return func(string, int, int) {}
	}
	var mu sync.Mutex
	return func(stage string, current, total int) {
		mu.Lock()
		defer mu.Unlock()
		defer func() {
			if r := recover(); r != nil {
				logging.Warn("Progress callback failed", "stage", stage, "panic", r)
			}
		}()
		fn(stage, current, total)
	}
}
