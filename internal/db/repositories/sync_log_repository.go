package repositories

import (
	"context"
	"errors"
	"time"

	gormlib "gorm.io/gorm"

	"github.com/DavidDuveau/openjoconde-sub000/internal/constants"
	"github.com/DavidDuveau/openjoconde-sub000/internal/models/gorm"
)

// SyncLogRepo handles sync_logs operations
type SyncLogRepo struct {
	db *gormlib.DB
}

// NewSyncLogRepo creates a new sync log repository
func NewSyncLogRepo(db *gormlib.DB) *SyncLogRepo {
	return &SyncLogRepo{db: db}
}

// Create inserts a new run row
func (r *SyncLogRepo) Create(ctx context.Context, log *gorm.SyncLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// Update writes every column of an existing run row
func (r *SyncLogRepo) Update(ctx context.Context, log *gorm.SyncLog) error {
	return r.db.WithContext(ctx).Save(log).Error
}

// Latest returns the most recently started run, or nil when there is none
func (r *SyncLogRepo) Latest(ctx context.Context) (*gorm.SyncLog, error) {
	var log gorm.SyncLog

	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		First(&log).Error

	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &log, nil
}

// List returns up to limit runs, newest first
func (r *SyncLogRepo) List(ctx context.Context, limit int) ([]gorm.SyncLog, error) {
	var logs []gorm.SyncLog

	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&logs).Error

	return logs, err
}

// FindRunning returns the run currently marked Running, if any
func (r *SyncLogRepo) FindRunning(ctx context.Context) (*gorm.SyncLog, error) {
	var log gorm.SyncLog

	err := r.db.WithContext(ctx).
		Where("status = ?", constants.SyncStatusRunning).
		Order("started_at DESC").
		First(&log).Error

	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &log, nil
}

// MarkStaleFailed closes runs left Running by a process that died.
// Returns the number of rows changed.
func (r *SyncLogRepo) MarkStaleFailed(ctx context.Context, message string) (int64, error) {
	now := time.Now()

	res := r.db.WithContext(ctx).
		Model(&gorm.SyncLog{}).
		Where("status = ?", constants.SyncStatusRunning).
		Updates(map[string]interface{}{
			"status":        constants.SyncStatusFailed,
			"completed_at":  now,
			"error_message": message,
		})

	return res.RowsAffected, res.Error
}
