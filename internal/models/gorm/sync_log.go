package gorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SyncLog is the audit row written for every synchronization attempt.
type SyncLog struct {
	ID             uuid.UUID      `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	Type           string         `gorm:"column:type;type:varchar(20);not null" json:"type"`
	Status         string         `gorm:"column:status;type:varchar(20);not null;index" json:"status"`
	StartedAt      time.Time      `gorm:"column:started_at;not null" json:"started_at"`
	CompletedAt    *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	ItemsProcessed int            `gorm:"column:items_processed;default:0" json:"items_processed"`
	ErrorMessage   string         `gorm:"column:error_message" json:"error_message,omitempty"`
	SourceURL      string         `gorm:"column:source_url" json:"source_url"`
	Fingerprint    string         `gorm:"column:fingerprint" json:"fingerprint,omitempty"`
	Statistics     datatypes.JSON `gorm:"column:statistics" json:"statistics,omitempty"`
}

// TableName specifies the table name for GORM
func (SyncLog) TableName() string {
	return "sync_logs"
}

// Duration is how long the run took, or has been running so far.
func (l *SyncLog) Duration() time.Duration {
	if l.CompletedAt == nil {
		return time.Since(l.StartedAt)
	}
	return l.CompletedAt.Sub(l.StartedAt)
}

// SyncState stores the last fingerprint seen for a source URL.
type SyncState struct {
	SourceURL    string    `gorm:"column:source_url;primaryKey"`
	ETag         string    `gorm:"column:etag"`
	LastModified string    `gorm:"column:last_modified"`
	ContentHash  string    `gorm:"column:content_hash"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (SyncState) TableName() string {
	return "sync_states"
}
