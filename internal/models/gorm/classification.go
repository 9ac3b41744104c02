package gorm

import (
	"strings"

	"github.com/google/uuid"
)

// NameKey is the dedup key for name-identified reference entities.
func NameKey(name string) string {
	return strings.ToLower(name)
}

type Domain struct {
	ID          uuid.UUID `gorm:"column:id;primaryKey;type:uuid"`
	Name        string    `gorm:"column:name;not null;index"`
	Description string    `gorm:"column:description"`
}

func (Domain) TableName() string { return "domains" }

func (d *Domain) Key() string { return NameKey(d.Name) }

func (d *Domain) MergeFrom(src *Domain) bool {
	if src.Description != "" && d.Description != src.Description {
		d.Description = src.Description
		return true
	}
	return false
}

type Technique struct {
	ID          uuid.UUID `gorm:"column:id;primaryKey;type:uuid"`
	Name        string    `gorm:"column:name;not null;index"`
	Description string    `gorm:"column:description"`
}

func (Technique) TableName() string { return "techniques" }

func (t *Technique) Key() string { return NameKey(t.Name) }

func (t *Technique) MergeFrom(src *Technique) bool {
	if src.Description != "" && t.Description != src.Description {
		t.Description = src.Description
		return true
	}
	return false
}

// Period optionally carries the year range it covers.
type Period struct {
	ID          uuid.UUID `gorm:"column:id;primaryKey;type:uuid"`
	Name        string    `gorm:"column:name;not null;index"`
	Description string    `gorm:"column:description"`
	StartYear   *int      `gorm:"column:start_year"`
	EndYear     *int      `gorm:"column:end_year"`
}

func (Period) TableName() string { return "periods" }

func (p *Period) Key() string { return NameKey(p.Name) }

func (p *Period) MergeFrom(src *Period) bool {
	changed := false
	if src.Description != "" && p.Description != src.Description {
		p.Description = src.Description
		changed = true
	}
	if src.StartYear != nil && (p.StartYear == nil || *p.StartYear != *src.StartYear) {
		p.StartYear = src.StartYear
		changed = true
	}
	if src.EndYear != nil && (p.EndYear == nil || *p.EndYear != *src.EndYear) {
		p.EndYear = src.EndYear
		changed = true
	}
	return changed
}
