package dtos

import "time"

// EntityCounts is the outcome of one entity kind in an import run.
type EntityCounts struct {
	Imported int `json:"imported"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

// ImportStatistics is produced once per import run.
type ImportStatistics struct {
	Artworks   EntityCounts `json:"artworks"`
	Artists    EntityCounts `json:"artists"`
	Domains    EntityCounts `json:"domains"`
	Techniques EntityCounts `json:"techniques"`
	Periods    EntityCounts `json:"periods"`
	Museums    EntityCounts `json:"museums"`

	Errors       int           `json:"errors"`
	Duration     time.Duration `json:"duration"`
	Success      bool          `json:"success"`
	Canceled     bool          `json:"canceled"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// ItemsProcessed counts every artwork that reached the store.
func (s *ImportStatistics) ItemsProcessed() int {
	return s.Artworks.Imported + s.Artworks.Updated
}

// ImportReport wraps the statistics of a parse-then-import run.
type ImportReport struct {
	ImportStatistics

	SourcePath      string    `json:"source_path"`
	Format          string    `json:"format"`
	RecordsParsed   int       `json:"records_parsed"`
	RecordsRejected int       `json:"records_rejected"`
	RecordsFailed   int       `json:"records_failed"`
	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at"`
}
