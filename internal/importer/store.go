package importer

import (
	"context"

	gormModels "github.com/DavidDuveau/openjoconde-sub000/internal/models/gorm"
)

// Store is what the importer needs from the catalog database.
//
// Find methods take lower-cased lookup keys (names, artist last names) except
// FindArtworks, which takes exact references and only returns live rows.
// Save methods write inserts and updates of one batch in a single transaction.
type Store interface {
	Ping(ctx context.Context) error

	FindDomains(ctx context.Context, names []string) ([]*gormModels.Domain, error)
	FindTechniques(ctx context.Context, names []string) ([]*gormModels.Technique, error)
	FindPeriods(ctx context.Context, names []string) ([]*gormModels.Period, error)
	FindMuseums(ctx context.Context, names []string) ([]*gormModels.Museum, error)
	FindArtists(ctx context.Context, lastNames []string) ([]*gormModels.Artist, error)
	FindArtworks(ctx context.Context, references []string) ([]*gormModels.Artwork, error)

	SaveDomains(ctx context.Context, inserts, updates []*gormModels.Domain) error
	SaveTechniques(ctx context.Context, inserts, updates []*gormModels.Technique) error
	SavePeriods(ctx context.Context, inserts, updates []*gormModels.Period) error
	SaveMuseums(ctx context.Context, inserts, updates []*gormModels.Museum) error
	SaveArtists(ctx context.Context, inserts, updates []*gormModels.Artist) error

	// SaveArtworks writes the artwork rows and replaces their relation rows.
	SaveArtworks(ctx context.Context, inserts, updates []*gormModels.Artwork) error
}
