package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/DavidDuveau/openjoconde-sub000/internal/models/dtos"
	gormModels "github.com/DavidDuveau/openjoconde-sub000/internal/models/gorm"
)

// Kind names a reference entity type.
type Kind string

const (
	KindArtist    Kind = "artist"
	KindDomain    Kind = "domain"
	KindTechnique Kind = "technique"
	KindPeriod    Kind = "period"
	KindMuseum    Kind = "museum"
)

// EntityRef points at the canonical in-run instance of a reference entity.
type EntityRef struct {
	Kind Kind
	ID   uuid.UUID
	Key  string
}

var yearRange = regexp.MustCompile(`(\d{3,4})\s*[-–]\s*(\d{3,4})`)

// EntityResolver deduplicates reference entities within one parse run.
// The maps live as long as the run: an entity seen once is reused for every
// later record. Not safe for concurrent use.
type EntityResolver struct {
	artists    map[string]*gormModels.Artist
	domains    map[string]*gormModels.Domain
	techniques map[string]*gormModels.Technique
	periods    map[string]*gormModels.Period
	museums    map[string]*gormModels.Museum

	sink *dtos.ParsingResult
}

// NewEntityResolver creates a resolver that registers new entities into sink.
func NewEntityResolver(sink *dtos.ParsingResult) *EntityResolver {
	return &EntityResolver{
		artists:    make(map[string]*gormModels.Artist),
		domains:    make(map[string]*gormModels.Domain),
		techniques: make(map[string]*gormModels.Technique),
		periods:    make(map[string]*gormModels.Period),
		museums:    make(map[string]*gormModels.Museum),
		sink:       sink,
	}
}

// Attach redirects newly created entities to another result, keeping the
// dedup tables. Batched parsing attaches a fresh chunk after every flush.
func (r *EntityResolver) Attach(sink *dtos.ParsingResult) {
	r.sink = sink
}

// Resolve splits a raw field value on ";" and resolves every part to its
// canonical entity of the given kind.
func (r *EntityResolver) Resolve(kind Kind, raw string) []EntityRef {
	parts := SplitMulti(raw)
	if len(parts) == 0 {
		return nil
	}

	var refs []EntityRef
	switch kind {
	case KindArtist:
		for _, a := range r.ResolveArtists(parts) {
			refs = append(refs, EntityRef{Kind: kind, ID: a.ID, Key: a.Key()})
		}
	case KindDomain:
		for _, d := range r.ResolveDomains(parts) {
			refs = append(refs, EntityRef{Kind: kind, ID: d.ID, Key: d.Key()})
		}
	case KindTechnique:
		for _, t := range r.ResolveTechniques(parts) {
			refs = append(refs, EntityRef{Kind: kind, ID: t.ID, Key: t.Key()})
		}
	case KindPeriod:
		for _, p := range r.ResolvePeriods(parts) {
			refs = append(refs, EntityRef{Kind: kind, ID: p.ID, Key: p.Key()})
		}
	case KindMuseum:
		for _, m := range r.ResolveMuseums(parts, nil) {
			refs = append(refs, EntityRef{Kind: kind, ID: m.ID, Key: m.Key()})
		}
	}
	return refs
}

// ResolveArtists resolves author names. Unusable names (too short, anonymous)
// are dropped silently.
func (r *EntityResolver) ResolveArtists(parts []string) []*gormModels.Artist {
	out := make([]*gormModels.Artist, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if !usableArtistName(part) {
			continue
		}
		last, first := SplitArtistName(part)
		if last == "" {
			continue
		}
		key := gormModels.ArtistKey(last, first)
		artist, ok := r.artists[key]
		if !ok {
			artist = &gormModels.Artist{ID: uuid.New(), LastName: last, FirstName: first}
			r.artists[key] = artist
			r.sink.Artists = append(r.sink.Artists, artist)
		}
		out = append(out, artist)
	}
	return out
}

func (r *EntityResolver) ResolveDomains(parts []string) []*gormModels.Domain {
	out := make([]*gormModels.Domain, 0, len(parts))
	for _, name := range trimParts(parts) {
		key := gormModels.NameKey(name)
		d, ok := r.domains[key]
		if !ok {
			d = &gormModels.Domain{ID: uuid.New(), Name: name}
			r.domains[key] = d
			r.sink.Domains = append(r.sink.Domains, d)
		}
		out = append(out, d)
	}
	return out
}

func (r *EntityResolver) ResolveTechniques(parts []string) []*gormModels.Technique {
	out := make([]*gormModels.Technique, 0, len(parts))
	for _, name := range trimParts(parts) {
		key := gormModels.NameKey(name)
		t, ok := r.techniques[key]
		if !ok {
			t = &gormModels.Technique{ID: uuid.New(), Name: name}
			r.techniques[key] = t
			r.sink.Techniques = append(r.sink.Techniques, t)
		}
		out = append(out, t)
	}
	return out
}

// ResolvePeriods resolves period names; a "1850-1900" range in the name fills
// the start and end years.
func (r *EntityResolver) ResolvePeriods(parts []string) []*gormModels.Period {
	out := make([]*gormModels.Period, 0, len(parts))
	for _, name := range trimParts(parts) {
		key := gormModels.NameKey(name)
		p, ok := r.periods[key]
		if !ok {
			p = &gormModels.Period{ID: uuid.New(), Name: name}
			p.StartYear, p.EndYear = parseYearRange(name)
			r.periods[key] = p
			r.sink.Periods = append(r.sink.Periods, p)
		}
		out = append(out, p)
	}
	return out
}

// ResolveMuseums resolves museum names. details, when set, fills the location
// fields of a museum the first time it is seen.
func (r *EntityResolver) ResolveMuseums(parts []string, details *gormModels.Museum) []*gormModels.Museum {
	out := make([]*gormModels.Museum, 0, len(parts))
	for _, name := range trimParts(parts) {
		key := gormModels.NameKey(name)
		m, ok := r.museums[key]
		if !ok {
			m = &gormModels.Museum{ID: uuid.New(), Name: name}
			if details != nil {
				m.City = details.City
				m.Department = details.Department
				m.Region = details.Region
				m.SourceCode = details.SourceCode
			}
			r.museums[key] = m
			r.sink.Museums = append(r.sink.Museums, m)
		}
		out = append(out, m)
	}
	return out
}

// SplitArtistName applies the Joconde naming rules: "LAST, First" on the first
// comma, otherwise "LAST First" on the first space, otherwise a bare last name.
func SplitArtistName(name string) (lastName, firstName string) {
	if i := strings.Index(name, ","); i >= 0 {
		return strings.TrimSpace(name[:i]), strings.TrimSpace(name[i+1:])
	}
	if i := strings.Index(name, " "); i >= 0 {
		return strings.TrimSpace(name[:i]), strings.TrimSpace(name[i+1:])
	}
	return strings.TrimSpace(name), ""
}

func usableArtistName(name string) bool {
	if utf8.RuneCountInString(name) < 2 {
		return false
	}
	switch strings.ToLower(name) {
	case "anonymous", "anonyme":
		return false
	}
	return true
}

func parseYearRange(name string) (*int, *int) {
	m := yearRange.FindStringSubmatch(name)
	if m == nil {
		return nil, nil
	}
	start, err1 := strconv.Atoi(m[1])
	end, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil || end < start {
		return nil, nil
	}
	return &start, &end
}
