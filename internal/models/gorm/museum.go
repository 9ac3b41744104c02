package gorm

import (
	"strings"

	"github.com/google/uuid"
)

// Museum is deduplicated by name while parsing and reconciled on name and city
// against persisted rows.
type Museum struct {
	ID          uuid.UUID `gorm:"column:id;primaryKey;type:uuid"`
	Name        string    `gorm:"column:name;not null;index"`
	City        string    `gorm:"column:city"`
	Department  string    `gorm:"column:department"`
	Address     string    `gorm:"column:address"`
	ZipCode     string    `gorm:"column:zip_code"`
	Phone       string    `gorm:"column:phone"`
	Email       string    `gorm:"column:email"`
	Website     string    `gorm:"column:website"`
	Description string    `gorm:"column:description"`
	Region      string    `gorm:"column:region"`
	SourceCode  string    `gorm:"column:source_code"`
	Longitude   *float64  `gorm:"column:longitude"`
	Latitude    *float64  `gorm:"column:latitude"`
}

// TableName specifies the table name for GORM
func (Museum) TableName() string {
	return "museums"
}

func (m *Museum) Key() string { return NameKey(m.Name) }

// PersistedKey matches a museum against stored rows: name and city.
func (m *Museum) PersistedKey() string {
	return NameKey(m.Name) + "|" + strings.ToLower(m.City)
}

func (m *Museum) MergeFrom(src *Museum) bool {
	changed := false
	for _, f := range [][2]*string{
		{&m.Department, &src.Department},
		{&m.Address, &src.Address},
		{&m.ZipCode, &src.ZipCode},
		{&m.Phone, &src.Phone},
		{&m.Email, &src.Email},
		{&m.Website, &src.Website},
		{&m.Description, &src.Description},
		{&m.Region, &src.Region},
		{&m.SourceCode, &src.SourceCode},
	} {
		if *f[1] != "" && *f[0] != *f[1] {
			*f[0] = *f[1]
			changed = true
		}
	}
	if src.Longitude != nil && src.Latitude != nil {
		if m.Longitude == nil || m.Latitude == nil || *m.Longitude != *src.Longitude || *m.Latitude != *src.Latitude {
			m.Longitude, m.Latitude = src.Longitude, src.Latitude
			changed = true
		}
	}
	return changed
}
