package repositories

import (
	"context"
	"errors"

	gormlib "gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DavidDuveau/openjoconde-sub000/internal/models/gorm"
)

// SyncStateRepo stores the change-detection fingerprint of each source
type SyncStateRepo struct {
	db *gormlib.DB
}

func NewSyncStateRepo(db *gormlib.DB) *SyncStateRepo {
	return &SyncStateRepo{db: db}
}

// Get returns the stored fingerprint for url, or nil when the source was never synced
func (r *SyncStateRepo) Get(ctx context.Context, url string) (*gorm.SyncState, error) {
	var state gorm.SyncState

	err := r.db.WithContext(ctx).
		Where("source_url = ?", url).
		First(&state).Error

	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &state, nil
}

// Save upserts the fingerprint
// ON CONFLICT (source_url) DO UPDATE
func (r *SyncStateRepo) Save(ctx context.Context, state *gorm.SyncState) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_url"}},
			DoUpdates: clause.AssignmentColumns([]string{"etag", "last_modified", "content_hash", "updated_at"}),
		}).
		Create(state).Error
}
