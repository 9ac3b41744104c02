package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlib "gorm.io/gorm"

	"github.com/DavidDuveau/openjoconde-sub000/internal/db/dbtest"
	"github.com/DavidDuveau/openjoconde-sub000/internal/models/gorm"
)

func countRows(t *testing.T, db *gormlib.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestCatalogRepository_FindIsCaseInsensitive(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewCatalogRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SaveDomains(ctx, []*gorm.Domain{
		{ID: uuid.New(), Name: "Peinture"},
		{ID: uuid.New(), Name: "Sculpture"},
	}, nil))

	found, err := repo.FindDomains(ctx, []string{"peinture", "dessin"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Peinture", found[0].Name)
}

func TestCatalogRepository_FindChunksLongKeyLists(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewCatalogRepository(db)
	ctx := context.Background()

	var inserts []*gorm.Artist
	var keys []string
	for i := 0; i < lookupChunk+20; i++ {
		name := uuid.NewString()
		inserts = append(inserts, &gorm.Artist{ID: uuid.New(), LastName: name})
		keys = append(keys, name)
	}
	require.NoError(t, repo.SaveArtists(ctx, inserts, nil))

	found, err := repo.FindArtists(ctx, keys)
	require.NoError(t, err)
	assert.Len(t, found, lookupChunk+20)
}

func TestCatalogRepository_SaveUpdatesExistingRows(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewCatalogRepository(db)
	ctx := context.Background()

	museum := &gorm.Museum{ID: uuid.New(), Name: "Musée d'Orsay", City: "Paris"}
	require.NoError(t, repo.SaveMuseums(ctx, []*gorm.Museum{museum}, nil))

	museum.Website = "https://www.musee-orsay.fr"
	require.NoError(t, repo.SaveMuseums(ctx, nil, []*gorm.Museum{museum}))

	found, err := repo.FindMuseums(ctx, []string{"musée d'orsay"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "https://www.musee-orsay.fr", found[0].Website)
	assert.EqualValues(t, 1, countRows(t, db, &gorm.Museum{}))
}

func TestCatalogRepository_SaveArtworksReplacesRelations(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewCatalogRepository(db)
	ctx := context.Background()

	monet := &gorm.Artist{ID: uuid.New(), LastName: "MONET", FirstName: "Claude"}
	renoir := &gorm.Artist{ID: uuid.New(), LastName: "RENOIR", FirstName: "Auguste"}
	painting := &gorm.Domain{ID: uuid.New(), Name: "peinture"}
	oil := &gorm.Technique{ID: uuid.New(), Name: "huile sur toile"}
	require.NoError(t, repo.SaveArtists(ctx, []*gorm.Artist{monet, renoir}, nil))
	require.NoError(t, repo.SaveDomains(ctx, []*gorm.Domain{painting}, nil))
	require.NoError(t, repo.SaveTechniques(ctx, []*gorm.Technique{oil}, nil))

	artwork := &gorm.Artwork{
		ID:         uuid.New(),
		Reference:  "000PE000001",
		Title:      "La Gare Saint-Lazare",
		Artists:    []gorm.ArtistLink{{Artist: monet, Role: "peintre"}},
		Domains:    []*gorm.Domain{painting},
		Techniques: []*gorm.Technique{oil},
	}
	require.NoError(t, repo.SaveArtworks(ctx, []*gorm.Artwork{artwork}, nil))
	assert.EqualValues(t, 1, countRows(t, db, &gorm.ArtworkArtist{}))
	assert.EqualValues(t, 1, countRows(t, db, &gorm.ArtworkTechnique{}))

	artwork.Artists = []gorm.ArtistLink{{Artist: renoir, Role: "peintre"}}
	artwork.Techniques = nil
	require.NoError(t, repo.SaveArtworks(ctx, nil, []*gorm.Artwork{artwork}))

	var links []gorm.ArtworkArtist
	require.NoError(t, db.Find(&links).Error)
	require.Len(t, links, 1)
	assert.Equal(t, renoir.ID, links[0].ArtistID)
	assert.EqualValues(t, 0, countRows(t, db, &gorm.ArtworkTechnique{}))
	assert.EqualValues(t, 1, countRows(t, db, &gorm.ArtworkDomain{}))
	assert.EqualValues(t, 1, countRows(t, db, &gorm.Artwork{}))
}

func TestCatalogRepository_SaveArtworksRollsBackTheBatch(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewCatalogRepository(db)
	ctx := context.Background()

	first := &gorm.Artwork{ID: uuid.New(), Reference: "R1"}
	require.NoError(t, repo.SaveArtworks(ctx, []*gorm.Artwork{first}, nil))

	// Second live row with the same reference violates the partial unique index.
	err := repo.SaveArtworks(ctx, []*gorm.Artwork{
		{ID: uuid.New(), Reference: "R2"},
		{ID: uuid.New(), Reference: "R1"},
	}, nil)
	require.Error(t, err)
	assert.EqualValues(t, 1, countRows(t, db, &gorm.Artwork{}))
}

func TestCatalogRepository_FindArtworksIgnoresDeletedRows(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewCatalogRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SaveArtworks(ctx, []*gorm.Artwork{
		{ID: uuid.New(), Reference: "LIVE"},
		{ID: uuid.New(), Reference: "GONE", IsDeleted: true},
	}, nil))

	found, err := repo.FindArtworks(ctx, []string{"LIVE", "GONE"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "LIVE", found[0].Reference)
}

func TestCatalogRepository_PingFailsOnClosedPool(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewCatalogRepository(db)

	require.NoError(t, repo.Ping(context.Background()))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	assert.Error(t, repo.Ping(context.Background()))
}
