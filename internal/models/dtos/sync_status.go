package dtos

import (
	"github.com/google/uuid"

	gormModels "github.com/DavidDuveau/openjoconde-sub000/internal/models/gorm"
)

// SyncProgress is the last progress event of a running synchronization.
type SyncProgress struct {
	RunID   uuid.UUID `json:"run_id"`
	Stage   string    `json:"stage"`
	Current int       `json:"current"`
	Total   int       `json:"total"`
}

// SyncStatusResponse is served by the sync status endpoint.
type SyncStatusResponse struct {
	Latest   *gormModels.SyncLog `json:"latest"`
	Progress *SyncProgress       `json:"progress,omitempty"`
	Catalog  *CatalogCounts      `json:"catalog,omitempty"`
}

// SyncTriggerResponse is returned by the sync trigger endpoint.
type SyncTriggerResponse struct {
	Changed bool                `json:"changed"`
	Run     *gormModels.SyncLog `json:"run,omitempty"`
}
