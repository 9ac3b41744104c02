package gorm

import (
	"strings"

	"github.com/google/uuid"
)

// Artist is deduplicated on the lower-cased (last name, first name) pair.
type Artist struct {
	ID          uuid.UUID `gorm:"column:id;primaryKey;type:uuid"`
	LastName    string    `gorm:"column:last_name;not null;index:idx_artists_name"`
	FirstName   string    `gorm:"column:first_name;index:idx_artists_name"`
	BirthDate   string    `gorm:"column:birth_date"`
	DeathDate   string    `gorm:"column:death_date"`
	Nationality string    `gorm:"column:nationality"`
	Biography   string    `gorm:"column:biography"`
}

// TableName specifies the table name for GORM
func (Artist) TableName() string {
	return "artists"
}

// ArtistKey builds the dedup key shared by the parser and the importer.
func ArtistKey(lastName, firstName string) string {
	return strings.ToLower(lastName) + "|" + strings.ToLower(firstName)
}

// Key returns the dedup key of the artist.
func (a *Artist) Key() string {
	return ArtistKey(a.LastName, a.FirstName)
}

// MergeFrom copies the non-empty biographical fields of src onto a.
func (a *Artist) MergeFrom(src *Artist) bool {
	changed := false
	for _, f := range [][2]*string{
		{&a.BirthDate, &src.BirthDate},
		{&a.DeathDate, &src.DeathDate},
		{&a.Nationality, &src.Nationality},
		{&a.Biography, &src.Biography},
	} {
		if *f[1] != "" && *f[0] != *f[1] {
			*f[0] = *f[1]
			changed = true
		}
	}
	return changed
}
