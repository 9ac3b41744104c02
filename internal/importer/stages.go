package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/DavidDuveau/openjoconde-sub000/internal/apperrors"
	"github.com/DavidDuveau/openjoconde-sub000/internal/models/dtos"
	gormModels "github.com/DavidDuveau/openjoconde-sub000/internal/models/gorm"
)

// referenceStage describes how one reference entity kind is reconciled.
type referenceStage[T any] struct {
	name   string
	items  []*T
	counts *dtos.EntityCounts

	// lookupKey is sent to find; matchKeys are tried in order against the
	// rows find returned.
	lookupKey func(*T) string
	matchKeys func(*T) []string
	key       func(*T) string
	id        func(*T) *uuid.UUID
	merge     func(dst, src *T) bool

	find func(ctx context.Context, keys []string) ([]*T, error)
	save func(ctx context.Context, inserts, updates []*T) error
}

// op is one pending write. An uncounted op re-saves a row another op
// already accounted for.
type op[T any] struct {
	entity  *T
	insert  bool
	outcome outcome
}

// runReferenceStage looks every entity of the stage up in one pass,
// substitutes persisted ids onto the in-run entities, merges changed fields
// and saves inserts and updates in batches.
func runReferenceStage[T any](ctx context.Context, e *Engine, run *importRun, s referenceStage[T]) error {
	if len(s.items) == 0 {
		return nil
	}
	if ctx.Err() != nil {
		return errCanceled
	}

	keys := make([]string, 0, len(s.items))
	seen := make(map[string]struct{}, len(s.items))
	for _, item := range s.items {
		k := s.lookupKey(item)
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}

	existing, err := s.find(ctx, keys)
	if err != nil {
		return e.lookupFailure(ctx, s.name, err)
	}
	index := make(map[string]*T, len(existing))
	for _, row := range existing {
		for _, k := range s.matchKeys(row) {
			if _, ok := index[k]; !ok {
				index[k] = row
			}
		}
	}

	ops := make([]op[T], 0, len(s.items))
	for _, item := range s.items {
		var row *T
		for _, k := range s.matchKeys(item) {
			if r, ok := index[k]; ok {
				row = r
				break
			}
		}
		if row == nil {
			ops = append(ops, op[T]{entity: item, insert: true, outcome: imported})
			continue
		}

		*s.id(item) = *s.id(row)
		if s.merge(row, item) {
			ops = append(ops, op[T]{entity: row, outcome: updated})
		} else {
			run.count(s.counts, skipped)
		}
	}

	return saveOps(ctx, e, run, s.name, ops, e.opts.ReferenceBatchSize, s.counts, s.save, s.id, s.key, nil)
}

// saveOps writes ops in batches. A failed batch is retried entity by entity
// once the store answers a ping; if it does not, the import stops. saved, when
// set, sees every entity that was written.
func saveOps[T any](
	ctx context.Context,
	e *Engine,
	run *importRun,
	stage string,
	ops []op[T],
	size int,
	counts *dtos.EntityCounts,
	save func(ctx context.Context, inserts, updates []*T) error,
	id func(*T) *uuid.UUID,
	key func(*T) string,
	saved func(*T),
) error {
	total := len(ops)
	for start := 0; start < total; start += size {
		if ctx.Err() != nil {
			return errCanceled
		}
		batch := ops[start:min(start+size, total)]

		inserts, updates := splitOps(batch)
		if err := save(ctx, inserts, updates); err != nil {
			if err := retryOneByOne(ctx, e, run, stage, batch, counts, save, id, key, saved, err); err != nil {
				return err
			}
		} else {
			for _, o := range batch {
				run.count(counts, o.outcome)
				if saved != nil {
					saved(o.entity)
				}
			}
		}
		run.progress(stage, start+len(batch), total)
	}
	return nil
}

func retryOneByOne[T any](
	ctx context.Context,
	e *Engine,
	run *importRun,
	stage string,
	batch []op[T],
	counts *dtos.EntityCounts,
	save func(ctx context.Context, inserts, updates []*T) error,
	id func(*T) *uuid.UUID,
	key func(*T) string,
	saved func(*T),
	batchErr error,
) error {
	if ctx.Err() != nil {
		return errCanceled
	}
	if err := e.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s batch failed (%v) and store is unreachable: %v", apperrors.ErrPersistence, stage, batchErr, err)
	}
	e.log.Warnw("Batch failed, retrying entities one by one", "stage", stage, "size", len(batch), "error", batchErr)

	for _, o := range batch {
		if ctx.Err() != nil {
			return errCanceled
		}
		inserts, updates := splitOps([]op[T]{o})
		if err := save(ctx, inserts, updates); err != nil {
			upsertErr := &apperrors.EntityUpsertError{Kind: stage, Key: key(o.entity), Err: err}
			e.log.Warnw("Skipping entity", "stage", stage, "error", upsertErr)
			run.fail(*id(o.entity), o.insert)
			continue
		}
		run.count(counts, o.outcome)
		if saved != nil {
			saved(o.entity)
		}
	}
	return nil
}

func splitOps[T any](ops []op[T]) (inserts, updates []*T) {
	for _, o := range ops {
		if o.insert {
			inserts = append(inserts, o.entity)
		} else {
			updates = append(updates, o.entity)
		}
	}
	return inserts, updates
}

// lookupFailure reports a failed bulk lookup. Without a lookup nothing of the
// stage can be reconciled, so it always stops the import.
func (e *Engine) lookupFailure(ctx context.Context, stage string, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return errCanceled
	}
	return fmt.Errorf("%w: %s lookup: %v", apperrors.ErrPersistence, stage, err)
}

func domainStage(e *Engine, run *importRun, items []*gormModels.Domain) referenceStage[gormModels.Domain] {
	return referenceStage[gormModels.Domain]{
		name:      StageDomains,
		items:     items,
		counts:    &run.stats.Domains,
		lookupKey: (*gormModels.Domain).Key,
		matchKeys: func(d *gormModels.Domain) []string { return []string{d.Key()} },
		key:       (*gormModels.Domain).Key,
		id:        func(d *gormModels.Domain) *uuid.UUID { return &d.ID },
		merge:     (*gormModels.Domain).MergeFrom,
		find:      e.store.FindDomains,
		save:      e.store.SaveDomains,
	}
}

func techniqueStage(e *Engine, run *importRun, items []*gormModels.Technique) referenceStage[gormModels.Technique] {
	return referenceStage[gormModels.Technique]{
		name:      StageTechniques,
		items:     items,
		counts:    &run.stats.Techniques,
		lookupKey: (*gormModels.Technique).Key,
		matchKeys: func(t *gormModels.Technique) []string { return []string{t.Key()} },
		key:       (*gormModels.Technique).Key,
		id:        func(t *gormModels.Technique) *uuid.UUID { return &t.ID },
		merge:     (*gormModels.Technique).MergeFrom,
		find:      e.store.FindTechniques,
		save:      e.store.SaveTechniques,
	}
}

func periodStage(e *Engine, run *importRun, items []*gormModels.Period) referenceStage[gormModels.Period] {
	return referenceStage[gormModels.Period]{
		name:      StagePeriods,
		items:     items,
		counts:    &run.stats.Periods,
		lookupKey: (*gormModels.Period).Key,
		matchKeys: func(p *gormModels.Period) []string { return []string{p.Key()} },
		key:       (*gormModels.Period).Key,
		id:        func(p *gormModels.Period) *uuid.UUID { return &p.ID },
		merge:     (*gormModels.Period).MergeFrom,
		find:      e.store.FindPeriods,
		save:      e.store.SavePeriods,
	}
}

// Museums match on name and city first, then on name alone.
func museumStage(e *Engine, run *importRun, items []*gormModels.Museum) referenceStage[gormModels.Museum] {
	return referenceStage[gormModels.Museum]{
		name:      StageMuseums,
		items:     items,
		counts:    &run.stats.Museums,
		lookupKey: (*gormModels.Museum).Key,
		matchKeys: func(m *gormModels.Museum) []string { return []string{m.PersistedKey(), m.Key()} },
		key:       (*gormModels.Museum).PersistedKey,
		id:        func(m *gormModels.Museum) *uuid.UUID { return &m.ID },
		merge:     (*gormModels.Museum).MergeFrom,
		find:      e.store.FindMuseums,
		save:      e.store.SaveMuseums,
	}
}

// Artists are looked up by last name and matched on the full name key.
func artistStage(e *Engine, run *importRun, items []*gormModels.Artist) referenceStage[gormModels.Artist] {
	return referenceStage[gormModels.Artist]{
		name:      StageArtists,
		items:     items,
		counts:    &run.stats.Artists,
		lookupKey: func(a *gormModels.Artist) string { return strings.ToLower(a.LastName) },
		matchKeys: func(a *gormModels.Artist) []string { return []string{a.Key()} },
		key:       (*gormModels.Artist).Key,
		id:        func(a *gormModels.Artist) *uuid.UUID { return &a.ID },
		merge:     (*gormModels.Artist).MergeFrom,
		find:      e.store.FindArtists,
		save:      e.store.SaveArtists,
	}
}
