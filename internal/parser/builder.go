package parser

import (
	"time"

	"github.com/google/uuid"

	gormModels "github.com/DavidDuveau/openjoconde-sub000/internal/models/gorm"
)

// BuildArtwork turns one record into an artwork and resolves its relations.
// It returns nil for a record without a reference or without both title and
// description; such a record registers no entity.
func BuildArtwork(rec *Record, resolver *EntityResolver) *gormModels.Artwork {
	reference := rec.Text(fieldReference...)
	title := rec.Text(fieldTitle...)
	description := rec.Text(fieldDescription...)
	if reference == "" || (title == "" && description == "") {
		return nil
	}

	artwork := &gormModels.Artwork{
		ID:                uuid.New(),
		Reference:         reference,
		InventoryNumber:   rec.Text(fieldInventoryNumber...),
		Denomination:      rec.Text(fieldDenomination...),
		Title:             title,
		Description:       description,
		Dimensions:        rec.Text(fieldDimensions...),
		CreationDate:      rec.Text(fieldCreationDate...),
		CreationPlace:     rec.Text(fieldCreationPlace...),
		ConservationPlace: rec.Text(fieldConservationPlace...),
		Copyright:         rec.Text(fieldCopyright...),
		ImageURL:          rec.Text(fieldImageURL...),
		UpdatedAt:         time.Now(),
		IsDeleted:         false,
	}

	role := rec.Text(fieldAuthorRole...)
	if role == "" {
		role = DefaultArtistRole
	}
	seenArtists := make(map[uuid.UUID]struct{})
	for _, a := range resolver.ResolveArtists(rec.Values(fieldAuthors...)) {
		if _, dup := seenArtists[a.ID]; dup {
			continue
		}
		seenArtists[a.ID] = struct{}{}
		artwork.Artists = append(artwork.Artists, gormModels.ArtistLink{Artist: a, Role: role})
	}

	artwork.Domains = uniqueByID(resolver.ResolveDomains(rec.Values(fieldDomain...)),
		func(d *gormModels.Domain) uuid.UUID { return d.ID })
	artwork.Techniques = uniqueByID(resolver.ResolveTechniques(rec.Values(fieldTechnique...)),
		func(t *gormModels.Technique) uuid.UUID { return t.ID })
	artwork.Periods = uniqueByID(resolver.ResolvePeriods(rec.Values(fieldPeriod...)),
		func(p *gormModels.Period) uuid.UUID { return p.ID })

	// Museums are deduplicated for the catalog but not linked to the artwork;
	// the conservation place stays free text.
	names, details := museumFields(rec)
	resolver.ResolveMuseums(names, details)

	return artwork
}

// museumFields reads the museum name. Without an explicit museum field the
// Joconde location "City ; Museum" is used: last segment is the museum, first
// the city.
func museumFields(rec *Record) ([]string, *gormModels.Museum) {
	details := &gormModels.Museum{
		City:       rec.Text(fieldCity...),
		Department: rec.Text(fieldDepartment...),
		Region:     rec.Text(fieldRegion...),
		SourceCode: rec.Text(fieldMuseumCode...),
	}

	if names := rec.Values(fieldMuseum...); len(names) > 0 {
		return names, details
	}

	location := rec.Values(fieldConservationPlace...)
	switch len(location) {
	case 0:
		return nil, details
	case 1:
		return location, details
	default:
		if details.City == "" {
			details.City = location[0]
		}
		return location[len(location)-1:], details
	}
}

// uniqueByID drops repeated entities, keeping first occurrence order.
func uniqueByID[T any](in []*T, id func(*T) uuid.UUID) []*T {
	seen := make(map[uuid.UUID]struct{}, len(in))
	out := in[:0]
	for _, e := range in {
		if _, ok := seen[id(e)]; !ok {
			seen[id(e)] = struct{}{}
			out = append(out, e)
		}
	}
	return out
}
