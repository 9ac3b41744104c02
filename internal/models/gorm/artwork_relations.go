package gorm

import "github.com/google/uuid"

// ArtworkArtist is the artwork/artist join carrying the artist's role.
type ArtworkArtist struct {
	ArtworkID uuid.UUID `gorm:"column:artwork_id;primaryKey;type:uuid"`
	ArtistID  uuid.UUID `gorm:"column:artist_id;primaryKey;type:uuid;index"`
	Role      string    `gorm:"column:role;primaryKey;type:varchar(64)"`
}

func (ArtworkArtist) TableName() string { return "artwork_artists" }

type ArtworkDomain struct {
	ArtworkID uuid.UUID `gorm:"column:artwork_id;primaryKey;type:uuid"`
	DomainID  uuid.UUID `gorm:"column:domain_id;primaryKey;type:uuid;index"`
}

func (ArtworkDomain) TableName() string { return "artwork_domains" }

type ArtworkTechnique struct {
	ArtworkID   uuid.UUID `gorm:"column:artwork_id;primaryKey;type:uuid"`
	TechniqueID uuid.UUID `gorm:"column:technique_id;primaryKey;type:uuid;index"`
}

func (ArtworkTechnique) TableName() string { return "artwork_techniques" }

type ArtworkPeriod struct {
	ArtworkID uuid.UUID `gorm:"column:artwork_id;primaryKey;type:uuid"`
	PeriodID  uuid.UUID `gorm:"column:period_id;primaryKey;type:uuid;index"`
}

func (ArtworkPeriod) TableName() string { return "artwork_periods" }
