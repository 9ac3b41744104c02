package gorm

import (
	"time"

	"github.com/google/uuid"
)

// Artwork is one collection record, keyed by its source reference.
type Artwork struct {
	ID                uuid.UUID `gorm:"column:id;primaryKey;type:uuid"`
	Reference         string    `gorm:"column:reference;type:varchar(64);not null;uniqueIndex:idx_artworks_reference_live,where:is_deleted = false"`
	InventoryNumber   string    `gorm:"column:inventory_number"`
	Denomination      string    `gorm:"column:denomination"`
	Title             string    `gorm:"column:title"`
	Description       string    `gorm:"column:description"`
	Dimensions        string    `gorm:"column:dimensions"`
	CreationDate      string    `gorm:"column:creation_date"`
	CreationPlace     string    `gorm:"column:creation_place"`
	ConservationPlace string    `gorm:"column:conservation_place"`
	Copyright         string    `gorm:"column:copyright"`
	ImageURL          string    `gorm:"column:image_url"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
	IsDeleted         bool      `gorm:"column:is_deleted;not null;default:false"`

	// Relations resolved while parsing. Written through the join tables, never by GORM.
	Artists    []ArtistLink `gorm:"-"`
	Domains    []*Domain    `gorm:"-"`
	Techniques []*Technique `gorm:"-"`
	Periods    []*Period    `gorm:"-"`
}

// ArtistLink pairs a resolved artist with the role they had on the artwork.
type ArtistLink struct {
	Artist *Artist
	Role   string
}

// TableName specifies the table name for GORM
func (Artwork) TableName() string {
	return "artworks"
}

// MergeFrom copies every non-empty descriptive field of src onto a.
// Empty incoming values never blank out what is already there.
// Returns true when at least one field changed.
func (a *Artwork) MergeFrom(src *Artwork) bool {
	changed := false
	set := func(dst *string, v string) {
		if v != "" && *dst != v {
			*dst = v
			changed = true
		}
	}
	set(&a.InventoryNumber, src.InventoryNumber)
	set(&a.Denomination, src.Denomination)
	set(&a.Title, src.Title)
	set(&a.Description, src.Description)
	set(&a.Dimensions, src.Dimensions)
	set(&a.CreationDate, src.CreationDate)
	set(&a.CreationPlace, src.CreationPlace)
	set(&a.ConservationPlace, src.ConservationPlace)
	set(&a.Copyright, src.Copyright)
	set(&a.ImageURL, src.ImageURL)
	return changed
}
