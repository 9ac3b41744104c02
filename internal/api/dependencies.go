package api

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/DavidDuveau/openjoconde-sub000/internal/common"
	"github.com/DavidDuveau/openjoconde-sub000/internal/models/dtos"
	gormModels "github.com/DavidDuveau/openjoconde-sub000/internal/models/gorm"
)

// SyncService is the part of the orchestrator the admin API drives.
type SyncService interface {
	StartBackground(ctx context.Context, syncType string) (*gormModels.SyncLog, error)
	Cancel() bool
	Status(ctx context.Context) (*gormModels.SyncLog, error)
	Logs(ctx context.Context, limit int) ([]gormModels.SyncLog, error)
	CurrentProgress() (dtos.SyncProgress, bool)
}

// CatalogStats serves the read-only catalog queries.
type CatalogStats interface {
	CatalogCounts(ctx context.Context) (*dtos.CatalogCounts, error)
	RunningSyncs(ctx context.Context) (int, error)
}

type Dependencies struct {
	DB      *sqlx.DB
	Sync    SyncService
	Stats   CatalogStats
	Cache   common.CacheInterface
	UpSince time.Time
}
