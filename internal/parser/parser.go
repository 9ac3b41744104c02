package parser

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/DavidDuveau/openjoconde-sub000/internal/apperrors"
	"github.com/DavidDuveau/openjoconde-sub000/internal/logging"
	"github.com/DavidDuveau/openjoconde-sub000/internal/models/dtos"
	gormModels "github.com/DavidDuveau/openjoconde-sub000/internal/models/gorm"
)

const (
	FormatXML  = "xml"
	FormatJSON = "json"

	DefaultBatchSize     = 1000
	DefaultProgressEvery = 100
	// MaxProgressEvery is the widest allowed gap between progress reports.
	MaxProgressEvery = 1000
)

// ProgressFunc observes parsing progress. total is an estimate until the end
// of the document is reached.
type ProgressFunc func(processed, total int)

// BatchFunc receives a bounded chunk: its artworks plus the entities first
// seen while reading it. Returning an error stops the parse.
type BatchFunc func(chunk *dtos.ParsingResult) error

// RecordParser streams a collection export into artworks and reference entities.
type RecordParser interface {
	Format() string
	Parse(ctx context.Context, path string, onProgress ProgressFunc) (*dtos.ParsingResult, error)
	ParseBatches(ctx context.Context, path string, onBatch BatchFunc, onProgress ProgressFunc) (*dtos.ParseSummary, error)
}

// Options tunes a parser. Zero values take the defaults.
type Options struct {
	BatchSize     int
	ProgressEvery int
	// RecordTag restricts XML records to children with this element name.
	RecordTag string
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = DefaultProgressEvery
	}
	o.ProgressEvery = min(o.ProgressEvery, MaxProgressEvery)
	return o
}

// New returns the parser for a format name.
func New(format string, opts Options) (RecordParser, error) {
	switch strings.ToLower(format) {
	case FormatXML:
		return NewXMLParser(opts), nil
	case FormatJSON:
		return NewJSONParser(opts), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", apperrors.ErrFormat, format)
	}
}

// DetectFormat picks the format from the file extension, falling back to the
// first significant byte of the file.
func DetectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatXML, nil
	case ".json":
		return FormatJSON, nil
	}

	f, err := openSource(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", fmt.Errorf("%w: cannot detect format of %s", apperrors.ErrFormat, path)
		}
		switch b {
		case ' ', '\t', '\r', '\n', 0xEF, 0xBB, 0xBF:
			continue
		case '<':
			return FormatXML, nil
		case '[', '{':
			return FormatJSON, nil
		default:
			return "", fmt.Errorf("%w: cannot detect format of %s", apperrors.ErrFormat, path)
		}
	}
}

func openSource(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

// recordSource yields raw records one at a time. Next returns io.EOF at the
// end, a *RecordExtractionError for a skippable record, any other error is fatal.
type recordSource interface {
	Next() (*Record, error)
	Offset() int64
	Release()
}

// collect runs a batched parse and gathers every chunk into one result.
func collect(ctx context.Context, p RecordParser, path string, onProgress ProgressFunc) (*dtos.ParsingResult, error) {
	result := &dtos.ParsingResult{}
	summary, err := p.ParseBatches(ctx, path, func(chunk *dtos.ParsingResult) error {
		result.Append(chunk)
		return nil
	}, onProgress)
	if err != nil {
		return nil, err
	}
	result.RecordsSeen = summary.RecordsSeen
	result.RecordsRejected = summary.RecordsRejected
	result.RecordsFailed = summary.RecordsFailed
	result.Canceled = summary.Canceled
	return result, nil
}

// run drives a record source: builds artworks, flushes bounded chunks,
// reports progress and stops early on cancellation.
func run(ctx context.Context, format string, src recordSource, size int64, opts Options, onBatch BatchFunc, onProgress ProgressFunc) (*dtos.ParseSummary, error) {
	log := logging.With("component", "parser", "format", format)
	progress := SafeProgress(onProgress)
	logEvery := rate.Sometimes{Interval: 5 * time.Second}
	start := time.Now()

	summary := &dtos.ParseSummary{}
	chunk := &dtos.ParsingResult{}
	resolver := NewEntityResolver(chunk)

	flush := func() error {
		if len(chunk.Artworks) == 0 && chunk.ReferenceCount() == 0 {
			return nil
		}
		if err := onBatch(chunk); err != nil {
			return err
		}
		chunk = &dtos.ParsingResult{}
		resolver.Attach(chunk)
		return nil
	}

	for {
		if ctx.Err() != nil {
			summary.Canceled = true
			log.Infow("Parse canceled", "processed", summary.RecordsSeen)
			break
		}

		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			var recErr *apperrors.RecordExtractionError
			if errors.As(err, &recErr) {
				summary.RecordsSeen++
				summary.RecordsFailed++
				log.Warnw("Skipping unreadable record", "index", recErr.Index, "error", recErr.Err)
				continue
			}
			return summary, err
		}
		summary.RecordsSeen++

		artwork, err := buildSafely(summary.RecordsSeen, rec, resolver)
		switch {
		case err != nil:
			summary.RecordsFailed++
			log.Warnw("Skipping record", "error", err)
		case artwork == nil:
			summary.RecordsRejected++
		default:
			summary.RecordsAccepted++
			chunk.Artworks = append(chunk.Artworks, artwork)
		}

		if len(chunk.Artworks) >= opts.BatchSize {
			if err := flush(); err != nil {
				return summary, err
			}
		}

		if summary.RecordsSeen%opts.ProgressEvery == 0 {
			progress(summary.RecordsSeen, estimateTotal(summary.RecordsSeen, src.Offset(), size))
			logEvery.Do(func() {
				log.Infow("Parse progress", "processed", summary.RecordsSeen, "accepted", summary.RecordsAccepted)
			})
		}
		if summary.RecordsSeen%1000 == 0 {
			src.Release()
		}
	}

	if err := flush(); err != nil {
		return summary, err
	}
	progress(summary.RecordsSeen, summary.RecordsSeen)

	log.Infow("Parse finished",
		"records", summary.RecordsSeen,
		"accepted", summary.RecordsAccepted,
		"rejected", summary.RecordsRejected,
		"failed", summary.RecordsFailed,
		"canceled", summary.Canceled,
		"duration", time.Since(start).Truncate(time.Millisecond).String(),
	)
	return summary, nil
}

// buildSafely turns a panic inside extraction into a record error.
func buildSafely(index int, rec *Record, resolver *EntityResolver) (artwork *gormModels.Artwork, err error) {
	defer func() {
		if r := recover(); r != nil {
			artwork = nil
			err = &apperrors.RecordExtractionError{Index: index, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return BuildArtwork(rec, resolver), nil
}

// estimateTotal extrapolates the record count from the bytes consumed so far.
func estimateTotal(processed int, offset, size int64) int {
	if size <= 0 || offset <= 0 || offset >= size {
		return processed
	}
	est := int(float64(processed) * float64(size) / float64(offset))
	if est < processed {
		return processed
	}
	return est
}

// SafeProgress wraps a progress sink so that a panicking sink is logged and
// ignored instead of aborting the run.
func SafeProgress(fn ProgressFunc) ProgressFunc {
	if fn == nil {
		return func(int, int) {}
	}
	return func(processed, total int) {
		defer func() {
			if r := recover(); r != nil {
				logging.Warn("Progress callback failed", "panic", r)
			}
		}()
		fn(processed, total)
	}
}
