package importer

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	gormModels "github.com/DavidDuveau/openjoconde-sub000/internal/models/gorm"
)

// importArtworks reconciles artworks by reference. Existing live rows are
// updated in place (non-empty incoming fields win, UpdatedAt is refreshed)
// and keep their id. A reference repeated in the document collapses onto its
// first occurrence, whether or not both land in the same chunk.
func (e *Engine) importArtworks(ctx context.Context, run *importRun, artworks []*gormModels.Artwork) error {
	if len(artworks) == 0 {
		return nil
	}
	if ctx.Err() != nil {
		return errCanceled
	}

	byRef := make(map[string]*gormModels.Artwork, len(artworks))
	unique := make([]*gormModels.Artwork, 0, len(artworks))
	refs := make([]string, 0, len(artworks))
	for _, a := range artworks {
		if first, ok := byRef[a.Reference]; ok {
			mergeDuplicate(first, a)
			run.count(&run.stats.Artworks, skipped)
			continue
		}
		byRef[a.Reference] = a
		unique = append(unique, a)
		refs = append(refs, a.Reference)
	}

	existing, err := e.store.FindArtworks(ctx, refs)
	if err != nil {
		return e.lookupFailure(ctx, StageArtworks, err)
	}
	rows := make(map[string]*gormModels.Artwork, len(existing))
	for _, row := range existing {
		rows[row.Reference] = row
	}

	now := time.Now()
	ops := make([]op[gormModels.Artwork], 0, len(unique))
	for _, a := range unique {
		insertOutcome, updateOutcome := imported, updated
		if prev, ok := run.writtenLinks(a.Reference); ok {
			// Already written by an earlier chunk: this record is the duplicate.
			prev.carryInto(a)
			run.count(&run.stats.Artworks, skipped)
			insertOutcome, updateOutcome = uncounted, uncounted
		}
		pruneFailedRelations(run, a)
		if row, ok := rows[a.Reference]; ok {
			row.MergeFrom(a)
			adoptRow(a, row)
			a.UpdatedAt = now
			ops = append(ops, op[gormModels.Artwork]{entity: a, outcome: updateOutcome})
			continue
		}
		a.UpdatedAt = now
		ops = append(ops, op[gormModels.Artwork]{entity: a, insert: true, outcome: insertOutcome})
	}

	return saveOps(ctx, e, run, StageArtworks, ops, e.opts.ArtworkBatchSize, &run.stats.Artworks,
		e.store.SaveArtworks,
		func(a *gormModels.Artwork) *uuid.UUID { return &a.ID },
		func(a *gormModels.Artwork) string { return a.Reference },
		run.rememberLinks,
	)
}

// artworkLinks is the relation set last written for one reference.
type artworkLinks struct {
	artists    []gormModels.ArtistLink
	domains    []*gormModels.Domain
	techniques []*gormModels.Technique
	periods    []*gormModels.Period
}

// carryInto puts the written relations in front of a's own, as an in-chunk
// duplicate would have been merged.
func (l artworkLinks) carryInto(a *gormModels.Artwork) {
	a.Artists = unionArtists(slices.Clone(l.artists), a.Artists)
	a.Domains = unionByID(slices.Clone(l.domains), a.Domains, func(d *gormModels.Domain) uuid.UUID { return d.ID })
	a.Techniques = unionByID(slices.Clone(l.techniques), a.Techniques, func(t *gormModels.Technique) uuid.UUID { return t.ID })
	a.Periods = unionByID(slices.Clone(l.periods), a.Periods, func(p *gormModels.Period) uuid.UUID { return p.ID })
}

func (r *importRun) rememberLinks(a *gormModels.Artwork) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.written[a.Reference] = artworkLinks{
		artists:    a.Artists,
		domains:    a.Domains,
		techniques: a.Techniques,
		periods:    a.Periods,
	}
}

func (r *importRun) writtenLinks(reference string) (artworkLinks, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.written[reference]
	return l, ok
}

// adoptRow gives a the persisted columns of row, keeping a's relations.
func adoptRow(a, row *gormModels.Artwork) {
	artists, domains, techniques, periods := a.Artists, a.Domains, a.Techniques, a.Periods
	*a = *row
	a.Artists, a.Domains, a.Techniques, a.Periods = artists, domains, techniques, periods
}

// mergeDuplicate folds a repeated record into the first one with the same
// reference: fields through MergeFrom, relations as a union.
func mergeDuplicate(first, dup *gormModels.Artwork) {
	first.MergeFrom(dup)
	first.Artists = unionArtists(first.Artists, dup.Artists)
	first.Domains = unionByID(first.Domains, dup.Domains, func(d *gormModels.Domain) uuid.UUID { return d.ID })
	first.Techniques = unionByID(first.Techniques, dup.Techniques, func(t *gormModels.Technique) uuid.UUID { return t.ID })
	first.Periods = unionByID(first.Periods, dup.Periods, func(p *gormModels.Period) uuid.UUID { return p.ID })
}

func unionArtists(a, b []gormModels.ArtistLink) []gormModels.ArtistLink {
	for _, l := range b {
		if !slices.ContainsFunc(a, func(e gormModels.ArtistLink) bool {
			return e.Artist.ID == l.Artist.ID && e.Role == l.Role
		}) {
			a = append(a, l)
		}
	}
	return a
}

func unionByID[T any](a, b []*T, id func(*T) uuid.UUID) []*T {
	seen := make(map[uuid.UUID]struct{}, len(a))
	for _, e := range a {
		seen[id(e)] = struct{}{}
	}
	for _, e := range b {
		if _, ok := seen[id(e)]; !ok {
			seen[id(e)] = struct{}{}
			a = append(a, e)
		}
	}
	return a
}

// pruneFailedRelations drops links to entities the store refused.
func pruneFailedRelations(run *importRun, a *gormModels.Artwork) {
	artists := a.Artists[:0]
	for _, l := range a.Artists {
		if !run.isFailed(l.Artist.ID) {
			artists = append(artists, l)
		}
	}
	a.Artists = artists
	a.Domains = keepLive(run, a.Domains, func(d *gormModels.Domain) uuid.UUID { return d.ID })
	a.Techniques = keepLive(run, a.Techniques, func(t *gormModels.Technique) uuid.UUID { return t.ID })
	a.Periods = keepLive(run, a.Periods, func(p *gormModels.Period) uuid.UUID { return p.ID })
}

func keepLive[T any](run *importRun, in []*T, id func(*T) uuid.UUID) []*T {
	out := in[:0]
	for _, e := range in {
		if !run.isFailed(id(e)) {
			out = append(out, e)
		}
	}
	return out
}
