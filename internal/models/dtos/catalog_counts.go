package dtos

// CatalogCounts is the size of the catalog, shown next to the sync status.
type CatalogCounts struct {
	Artworks   int64 `db:"artworks" json:"artworks"`
	Artists    int64 `db:"artists" json:"artists"`
	Museums    int64 `db:"museums" json:"museums"`
	Domains    int64 `db:"domains" json:"domains"`
	Techniques int64 `db:"techniques" json:"techniques"`
	Periods    int64 `db:"periods" json:"periods"`
}
