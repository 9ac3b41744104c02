// Package syncer decides when the collection source changed, downloads it and
// runs it through the import pipeline, recording one SyncLog row per run.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"

	"github.com/DavidDuveau/openjoconde-sub000/internal/apperrors"
	"github.com/DavidDuveau/openjoconde-sub000/internal/constants"
	"github.com/DavidDuveau/openjoconde-sub000/internal/importer"
	"github.com/DavidDuveau/openjoconde-sub000/internal/logging"
	"github.com/DavidDuveau/openjoconde-sub000/internal/metrics"
	"github.com/DavidDuveau/openjoconde-sub000/internal/models/dtos"
	gormModels "github.com/DavidDuveau/openjoconde-sub000/internal/models/gorm"
)

// ErrSourceNotSet is returned when no source URL is configured.
var ErrSourceNotSet = errors.New(constants.MsgSourceNotSet)

// Importer runs a downloaded file through parse and import.
type Importer interface {
	ImportFromSource(ctx context.Context, path string, onProgress importer.ProgressFunc) (*dtos.ImportReport, error)
}

// SyncLogStore persists the audit rows.
type SyncLogStore interface {
	Create(ctx context.Context, log *gormModels.SyncLog) error
	Update(ctx context.Context, log *gormModels.SyncLog) error
	Latest(ctx context.Context) (*gormModels.SyncLog, error)
	List(ctx context.Context, limit int) ([]gormModels.SyncLog, error)
	FindRunning(ctx context.Context) (*gormModels.SyncLog, error)
	MarkStaleFailed(ctx context.Context, message string) (int64, error)
}

// SyncStateStore persists the fingerprint of the last successful run.
type SyncStateStore interface {
	Get(ctx context.Context, url string) (*gormModels.SyncState, error)
	Save(ctx context.Context, state *gormModels.SyncState) error
}

// Invalidator drops cached values derived from the catalog.
type Invalidator interface {
	Delete(key string)
}

type Options struct {
	SourceURL string
	TempDir   string
}

// Deps groups the collaborators of an Orchestrator. Lock defaults to a
// MemoryLock; Cache and Metrics are optional.
type Deps struct {
	Importer   Importer
	Logs       SyncLogStore
	States     SyncStateStore
	Prober     Prober
	Downloader Downloader
	Lock       RunLock
	Cache      Invalidator
	Metrics    *metrics.MetricsRegistry
}

// Orchestrator runs at most one synchronization at a time.
type Orchestrator struct {
	opts Options
	deps Deps
	log  *zap.SugaredLogger

	mu       sync.Mutex
	cancel   context.CancelFunc
	progress *dtos.SyncProgress

	wg sync.WaitGroup
}

func NewOrchestrator(opts Options, deps Deps) *Orchestrator {
	if deps.Lock == nil {
		deps.Lock = NewMemoryLock()
	}
	return &Orchestrator{
		opts: opts,
		deps: deps,
		log:  logging.With("component", "syncer"),
	}
}

// CheckForUpdate compares the source's HTTP validators with the ones stored
// after the last successful run. A source without validators is always
// reported as changed; its content hash is compared after download.
func (o *Orchestrator) CheckForUpdate(ctx context.Context) (bool, error) {
	changed, _, err := o.checkForUpdate(ctx)
	return changed, err
}

func (o *Orchestrator) checkForUpdate(ctx context.Context) (bool, *Fingerprint, error) {
	if o.opts.SourceURL == "" {
		return false, nil, ErrSourceNotSet
	}

	fp, err := o.deps.Prober.Probe(ctx, o.opts.SourceURL)
	if err != nil {
		return false, nil, err
	}
	stored, err := o.deps.States.Get(ctx, o.opts.SourceURL)
	if err != nil {
		return false, nil, fmt.Errorf("%w: failed to load sync state: %v", apperrors.ErrPersistence, err)
	}
	return !sameVersion(stored, fp), fp, nil
}

// sameVersion prefers the ETag, then Last-Modified.
func sameVersion(stored *gormModels.SyncState, fp *Fingerprint) bool {
	if stored == nil || !fp.HasValidator() {
		return false
	}
	if fp.ETag != "" && stored.ETag != "" {
		return fp.ETag == stored.ETag
	}
	if fp.LastModified != "" && stored.LastModified != "" {
		return fp.LastModified == stored.LastModified
	}
	return false
}

// Synchronize runs a full synchronization and returns its final SyncLog.
// An unchanged source is a no-op returning nil, nil. A run already in
// progress yields ErrConflict.
func (o *Orchestrator) Synchronize(ctx context.Context, syncType string) (*gormModels.SyncLog, error) {
	run, err := o.begin(ctx, syncType)
	if err != nil || run == nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	o.setCancel(cancel)

	return o.execute(ctx, run)
}

// StartBackground starts a synchronization detached from ctx and returns the
// Running SyncLog at once. Use Status to follow it and Cancel to stop it.
func (o *Orchestrator) StartBackground(ctx context.Context, syncType string) (*gormModels.SyncLog, error) {
	run, err := o.begin(ctx, syncType)
	if err != nil || run == nil {
		return nil, err
	}

	bgCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	o.setCancel(cancel)

	started := *run.log
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer cancel()
		if _, err := o.execute(bgCtx, run); err != nil {
			o.log.Errorw("Background synchronization failed", "run_id", run.log.ID, "error", err)
		}
	}()
	return &started, nil
}

// Cancel stops the current run. It reports whether a run was in progress.
func (o *Orchestrator) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel == nil {
		return false
	}
	o.cancel()
	return true
}

// Status returns the most recent run, Running or finished.
func (o *Orchestrator) Status(ctx context.Context) (*gormModels.SyncLog, error) {
	return o.deps.Logs.Latest(ctx)
}

// Logs returns up to limit runs, newest first.
func (o *Orchestrator) Logs(ctx context.Context, limit int) ([]gormModels.SyncLog, error) {
	return o.deps.Logs.List(ctx, limit)
}

// CurrentProgress returns the last progress event of the running sync.
func (o *Orchestrator) CurrentProgress() (dtos.SyncProgress, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.progress == nil {
		return dtos.SyncProgress{}, false
	}
	return *o.progress, true
}

// RecoverStale marks runs left Running by a previous process as Failed.
// Call it once at startup, before any run can start.
func (o *Orchestrator) RecoverStale(ctx context.Context) (int64, error) {
	n, err := o.deps.Logs.MarkStaleFailed(ctx, constants.MsgStaleRun)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	if n > 0 {
		o.log.Warnw("Marked interrupted synchronizations as failed", "count", n)
	}
	return n, nil
}

// Wait blocks until background runs have finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// syncRun is a run that passed the admission checks and holds the lock.
type syncRun struct {
	log         *gormModels.SyncLog
	fingerprint *Fingerprint
}

// begin takes the run lock, checks for a Running row and for changes, and
// writes the Running SyncLog. It returns nil, nil when there is nothing to do.
// The lock is held on success and released by execute.
func (o *Orchestrator) begin(ctx context.Context, syncType string) (*syncRun, error) {
	if o.opts.SourceURL == "" {
		return nil, ErrSourceNotSet
	}

	ok, err := o.deps.Lock.TryAcquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, constants.MsgSyncAlreadyRunning)
	}

	run, err := o.admit(ctx, syncType)
	if err != nil || run == nil {
		o.releaseLock()
		return nil, err
	}
	return run, nil
}

func (o *Orchestrator) admit(ctx context.Context, syncType string) (*syncRun, error) {
	running, err := o.deps.Logs.FindRunning(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	if running != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, constants.MsgSyncAlreadyRunning)
	}

	changed, fp, err := o.checkForUpdate(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrPersistence) {
			return nil, err
		}
		// The probe is advisory; the content hash still catches an unchanged body.
		o.log.Warnw("Change detection failed, downloading anyway", "url", o.opts.SourceURL, "error", err)
		changed, fp = true, &Fingerprint{}
	}
	if !changed {
		o.log.Infow(constants.MsgSourceUnchanged, "url", o.opts.SourceURL, "etag", fp.ETag)
		return nil, nil
	}

	log := &gormModels.SyncLog{
		ID:        uuid.New(),
		Type:      syncType,
		Status:    constants.SyncStatusRunning,
		StartedAt: time.Now(),
		SourceURL: o.opts.SourceURL,
	}
	if err := o.deps.Logs.Create(ctx, log); err != nil {
		return nil, fmt.Errorf("%w: failed to create sync log: %v", apperrors.ErrPersistence, err)
	}
	return &syncRun{log: log, fingerprint: fp}, nil
}

// execute downloads and imports, then closes the SyncLog row. The temporary
// file is removed on every path.
func (o *Orchestrator) execute(ctx context.Context, run *syncRun) (*gormModels.SyncLog, error) {
	defer o.releaseLock()
	defer o.clearRun()

	o.deps.Metrics.SyncStarted()
	defer o.deps.Metrics.SyncFinished()

	log := run.log
	o.log.Infow("Synchronization started", "run_id", log.ID, "type", log.Type, "url", log.SourceURL)

	report, err := o.downloadAndImport(ctx, run)
	runErr := o.complete(ctx, run, report, err)

	if err := o.deps.Logs.Update(context.WithoutCancel(ctx), log); err != nil {
		o.log.Errorw("Failed to update sync log", "run_id", log.ID, "error", err)
		if runErr == nil {
			runErr = fmt.Errorf("%w: failed to update sync log: %v", apperrors.ErrPersistence, err)
		}
	}

	if log.Status == constants.SyncStatusCompleted {
		o.saveState(context.WithoutCancel(ctx), run)
	}
	if o.deps.Cache != nil {
		o.deps.Cache.Delete(string(constants.CachePrefixCatalogCounts))
	}
	o.deps.Metrics.ObserveSync(log.Type, log.Status, log.Duration())

	fields := []interface{}{
		"run_id", log.ID,
		"status", log.Status,
		"items", log.ItemsProcessed,
		"duration", log.Duration().Truncate(time.Millisecond).String(),
	}
	if runErr != nil {
		o.log.Errorw("Synchronization failed", append(fields, "error", runErr)...)
	} else {
		o.log.Infow("Synchronization finished", fields...)
	}
	return log, runErr
}

// errUnchangedContent short-circuits a run whose body hashes like the last one.
var errUnchangedContent = errors.New("content unchanged")

func (o *Orchestrator) downloadAndImport(ctx context.Context, run *syncRun) (*dtos.ImportReport, error) {
	tmp, err := os.CreateTemp(o.opts.TempDir, "joconde-*"+sourceExt(o.opts.SourceURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	name := tmp.Name()
	tmp.Close()
	defer func() {
		if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
			o.log.Warnw("Failed to remove temp file", "path", name, "error", err)
		}
	}()

	hash, err := o.deps.Downloader.Download(ctx, o.opts.SourceURL, name)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	run.fingerprint.ContentHash = hash
	run.log.Fingerprint = hash

	stored, err := o.deps.States.Get(ctx, o.opts.SourceURL)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load sync state: %v", apperrors.ErrPersistence, err)
	}
	if stored != nil && stored.ContentHash == hash {
		return nil, errUnchangedContent
	}

	return o.deps.Importer.ImportFromSource(ctx, name, func(stage string, current, total int) {
		o.setProgress(dtos.SyncProgress{RunID: run.log.ID, Stage: stage, Current: current, Total: total})
	})
}

// complete fills the final fields of the SyncLog from the run outcome and
// returns the error left once cancellation and unchanged content are
// accounted for.
func (o *Orchestrator) complete(ctx context.Context, run *syncRun, report *dtos.ImportReport, err error) error {
	log := run.log
	now := time.Now()
	log.CompletedAt = &now

	if report != nil {
		log.ItemsProcessed = report.ItemsProcessed()
		if data, mErr := json.Marshal(report); mErr == nil {
			log.Statistics = data
		} else {
			o.log.Warnw("Failed to encode import statistics", "run_id", log.ID, "error", mErr)
		}
	}

	switch {
	case errors.Is(err, errUnchangedContent):
		o.log.Infow(constants.MsgSourceUnchanged, "run_id", log.ID, "hash", log.Fingerprint)
		log.Status = constants.SyncStatusCompleted
		return nil
	case err == nil && report != nil && report.Canceled,
		err != nil && (errors.Is(err, context.Canceled) || ctx.Err() != nil):
		log.Status = constants.SyncStatusCanceled
		log.ErrorMessage = constants.MsgSyncCanceled
		return nil
	case err != nil:
		log.Status = constants.SyncStatusFailed
		log.ErrorMessage = err.Error()
		return err
	default:
		log.Status = constants.SyncStatusCompleted
		return nil
	}
}

func (o *Orchestrator) saveState(ctx context.Context, run *syncRun) {
	state := &gormModels.SyncState{
		SourceURL:    o.opts.SourceURL,
		ETag:         run.fingerprint.ETag,
		LastModified: run.fingerprint.LastModified,
		ContentHash:  run.fingerprint.ContentHash,
	}
	if err := o.deps.States.Save(ctx, state); err != nil {
		o.log.Errorw("Failed to store sync fingerprint", "url", state.SourceURL, "error", err)
	}
}

func (o *Orchestrator) setCancel(cancel context.CancelFunc) {
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()
}

func (o *Orchestrator) setProgress(p dtos.SyncProgress) {
	o.mu.Lock()
	o.progress = &p
	o.mu.Unlock()
}

func (o *Orchestrator) clearRun() {
	o.mu.Lock()
	o.cancel = nil
	o.progress = nil
	o.mu.Unlock()
}

func (o *Orchestrator) releaseLock() {
	if err := o.deps.Lock.Release(context.Background()); err != nil {
		o.log.Warnw("Failed to release run lock", "error", err)
	}
}

// sourceExt keeps a known extension of the source URL so format detection
// can use it.
func sourceExt(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	switch ext := strings.ToLower(path.Ext(url)); ext {
	case ".xml", ".json":
		return ext
	}
	return ""
}
