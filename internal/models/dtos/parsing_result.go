package dtos

import (
	gormModels "github.com/DavidDuveau/openjoconde-sub000/internal/models/gorm"
)

// ParsingResult is the output of one parse run, or of one chunk of it.
// Artworks keep document order; entity collections keep first-seen order.
type ParsingResult struct {
	Artworks   []*gormModels.Artwork
	Artists    []*gormModels.Artist
	Domains    []*gormModels.Domain
	Techniques []*gormModels.Technique
	Periods    []*gormModels.Period
	Museums    []*gormModels.Museum

	RecordsSeen     int
	RecordsRejected int
	RecordsFailed   int
	Canceled        bool
}

// Append moves everything from chunk into r.
func (r *ParsingResult) Append(chunk *ParsingResult) {
	r.Artworks = append(r.Artworks, chunk.Artworks...)
	r.Artists = append(r.Artists, chunk.Artists...)
	r.Domains = append(r.Domains, chunk.Domains...)
	r.Techniques = append(r.Techniques, chunk.Techniques...)
	r.Periods = append(r.Periods, chunk.Periods...)
	r.Museums = append(r.Museums, chunk.Museums...)
}

// ReferenceCount is the number of reference entities the result carries.
func (r *ParsingResult) ReferenceCount() int {
	return len(r.Artists) + len(r.Domains) + len(r.Techniques) + len(r.Periods) + len(r.Museums)
}

// ParseSummary describes a whole batched parse run.
type ParseSummary struct {
	RecordsSeen     int  `json:"records_seen"`
	RecordsAccepted int  `json:"records_accepted"`
	RecordsRejected int  `json:"records_rejected"`
	RecordsFailed   int  `json:"records_failed"`
	Canceled        bool `json:"canceled"`
}
