package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	gormlib "gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DavidDuveau/openjoconde-sub000/internal/models/gorm"
)

// lookupChunk bounds the size of IN lists sent to the database.
const lookupChunk = 500

// CatalogRepository is the GORM store behind the importer.
type CatalogRepository struct {
	db *gormlib.DB
}

func NewCatalogRepository(db *gormlib.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *CatalogRepository) FindDomains(ctx context.Context, names []string) ([]*gorm.Domain, error) {
	return findIn[gorm.Domain](ctx, r.db, "LOWER(name) IN ?", names)
}

func (r *CatalogRepository) FindTechniques(ctx context.Context, names []string) ([]*gorm.Technique, error) {
	return findIn[gorm.Technique](ctx, r.db, "LOWER(name) IN ?", names)
}

func (r *CatalogRepository) FindPeriods(ctx context.Context, names []string) ([]*gorm.Period, error) {
	return findIn[gorm.Period](ctx, r.db, "LOWER(name) IN ?", names)
}

func (r *CatalogRepository) FindMuseums(ctx context.Context, names []string) ([]*gorm.Museum, error) {
	return findIn[gorm.Museum](ctx, r.db, "LOWER(name) IN ?", names)
}

func (r *CatalogRepository) FindArtists(ctx context.Context, lastNames []string) ([]*gorm.Artist, error) {
	return findIn[gorm.Artist](ctx, r.db, "LOWER(last_name) IN ?", lastNames)
}

// FindArtworks returns the live artworks carrying one of references.
func (r *CatalogRepository) FindArtworks(ctx context.Context, references []string) ([]*gorm.Artwork, error) {
	return findIn[gorm.Artwork](ctx, r.db, "reference IN ? AND is_deleted = false", references)
}

func (r *CatalogRepository) SaveDomains(ctx context.Context, inserts, updates []*gorm.Domain) error {
	return saveAll(ctx, r.db, inserts, updates)
}

func (r *CatalogRepository) SaveTechniques(ctx context.Context, inserts, updates []*gorm.Technique) error {
	return saveAll(ctx, r.db, inserts, updates)
}

func (r *CatalogRepository) SavePeriods(ctx context.Context, inserts, updates []*gorm.Period) error {
	return saveAll(ctx, r.db, inserts, updates)
}

func (r *CatalogRepository) SaveMuseums(ctx context.Context, inserts, updates []*gorm.Museum) error {
	return saveAll(ctx, r.db, inserts, updates)
}

func (r *CatalogRepository) SaveArtists(ctx context.Context, inserts, updates []*gorm.Artist) error {
	return saveAll(ctx, r.db, inserts, updates)
}

// SaveArtworks writes the artwork rows and replaces their relation rows in
// one transaction, so an artwork never keeps a partial relation set.
func (r *CatalogRepository) SaveArtworks(ctx context.Context, inserts, updates []*gorm.Artwork) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gormlib.DB) error {
		if len(inserts) > 0 {
			if err := tx.Omit(clause.Associations).Create(&inserts).Error; err != nil {
				return fmt.Errorf("insert artworks: %w", err)
			}
		}
		for _, a := range updates {
			if err := tx.Omit(clause.Associations).Save(a).Error; err != nil {
				return fmt.Errorf("update artwork %s: %w", a.Reference, err)
			}
		}

		ids := make([]uuid.UUID, 0, len(inserts)+len(updates))
		var (
			artists    []gorm.ArtworkArtist
			domains    []gorm.ArtworkDomain
			techniques []gorm.ArtworkTechnique
			periods    []gorm.ArtworkPeriod
		)
		for _, group := range [][]*gorm.Artwork{inserts, updates} {
			for _, a := range group {
				ids = append(ids, a.ID)
				for _, l := range a.Artists {
					artists = append(artists, gorm.ArtworkArtist{ArtworkID: a.ID, ArtistID: l.Artist.ID, Role: l.Role})
				}
				for _, d := range a.Domains {
					domains = append(domains, gorm.ArtworkDomain{ArtworkID: a.ID, DomainID: d.ID})
				}
				for _, t := range a.Techniques {
					techniques = append(techniques, gorm.ArtworkTechnique{ArtworkID: a.ID, TechniqueID: t.ID})
				}
				for _, p := range a.Periods {
					periods = append(periods, gorm.ArtworkPeriod{ArtworkID: a.ID, PeriodID: p.ID})
				}
			}
		}

		if len(updates) > 0 {
			for _, model := range []interface{}{&gorm.ArtworkArtist{}, &gorm.ArtworkDomain{}, &gorm.ArtworkTechnique{}, &gorm.ArtworkPeriod{}} {
				if err := tx.Where("artwork_id IN ?", ids).Delete(model).Error; err != nil {
					return fmt.Errorf("clear artwork relations: %w", err)
				}
			}
		}

		if err := insertRelations(tx, artists); err != nil {
			return err
		}
		if err := insertRelations(tx, domains); err != nil {
			return err
		}
		if err := insertRelations(tx, techniques); err != nil {
			return err
		}
		return insertRelations(tx, periods)
	})
}

func insertRelations[T any](tx *gormlib.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&rows, lookupChunk).Error; err != nil {
		return fmt.Errorf("insert relations: %w", err)
	}
	return nil
}

// findIn runs query over keys in chunks of lookupChunk.
func findIn[T any](ctx context.Context, db *gormlib.DB, query string, keys []string) ([]*T, error) {
	var out []*T
	for start := 0; start < len(keys); start += lookupChunk {
		chunk := keys[start:min(start+lookupChunk, len(keys))]
		var rows []*T
		if err := db.WithContext(ctx).Where(query, chunk).Find(&rows).Error; err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

// saveAll inserts and updates one batch in a single transaction.
func saveAll[T any](ctx context.Context, db *gormlib.DB, inserts, updates []*T) error {
	return db.WithContext(ctx).Transaction(func(tx *gormlib.DB) error {
		if len(inserts) > 0 {
			if err := tx.Create(&inserts).Error; err != nil {
				return err
			}
		}
		for _, u := range updates {
			if err := tx.Save(u).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
