package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/segmentio/encoding/json"

	"github.com/DavidDuveau/openjoconde-sub000/internal/apperrors"
	"github.com/DavidDuveau/openjoconde-sub000/internal/models/dtos"
)

// envelopeKey holds the record array in the open-data API export.
const envelopeKey = "results"

// JSONParser reads a JSON export: a bare array of flat objects or an object
// envelope carrying them under "results".
type JSONParser struct {
	opts Options
}

func NewJSONParser(opts Options) *JSONParser {
	return &JSONParser{opts: opts.withDefaults()}
}

func (p *JSONParser) Format() string { return FormatJSON }

func (p *JSONParser) Parse(ctx context.Context, path string, onProgress ProgressFunc) (*dtos.ParsingResult, error) {
	return collect(ctx, p, path, onProgress)
}

func (p *JSONParser) ParseBatches(ctx context.Context, path string, onBatch BatchFunc, onProgress ProgressFunc) (*dtos.ParseSummary, error) {
	f, err := openSource(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	src, err := newJSONSource(f)
	if err != nil {
		return nil, err
	}
	return run(ctx, FormatJSON, src, size, p.opts, onBatch, onProgress)
}

type jsonSource struct {
	scan  *jsonScanner
	index int
	first bool
	done  bool
}

// newJSONSource positions the scanner just after the opening bracket of the
// record array.
func newJSONSource(r io.Reader) (*jsonSource, error) {
	scan := newJSONScanner(r)

	b, err := scan.next()
	if err != nil {
		return nil, fmt.Errorf("%w: empty document", apperrors.ErrFormat)
	}
	switch b {
	case '[':
	case '{':
		if err := seekEnvelopeArray(scan); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: expected an array or an object with %q, found %q", apperrors.ErrFormat, envelopeKey, b)
	}
	return &jsonSource{scan: scan, first: true}, nil
}

// seekEnvelopeArray walks the envelope keys until the record array, skipping
// everything else (total_count, links and so on).
func seekEnvelopeArray(scan *jsonScanner) error {
	for {
		b, err := scan.next()
		if err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrParse, err)
		}
		switch b {
		case ',':
			continue
		case '}':
			return fmt.Errorf("%w: object has no %q array", apperrors.ErrFormat, envelopeKey)
		case '"':
		default:
			return fmt.Errorf("%w at offset %d: unexpected %q in envelope", apperrors.ErrParse, scan.offset, b)
		}

		key, err := scan.readString()
		if err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrParse, err)
		}
		if err := scan.expect(':'); err != nil {
			return fmt.Errorf("%w at offset %d: %v", apperrors.ErrParse, scan.offset, err)
		}
		v, err := scan.next()
		if err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrParse, err)
		}
		if key == envelopeKey {
			if v != '[' {
				return fmt.Errorf("%w: %q is not an array", apperrors.ErrFormat, envelopeKey)
			}
			return nil
		}
		if err := scan.skipValue(v); err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrParse, err)
		}
	}
}

func (s *jsonSource) Next() (*Record, error) {
	if s.done {
		return nil, io.EOF
	}

	b, err := s.scan.next()
	if err != nil {
		return nil, s.structural(err)
	}
	if b == ']' {
		s.done = true
		return nil, io.EOF
	}
	if !s.first {
		if b != ',' {
			return nil, s.structural(fmt.Errorf("expected ',' between records, found %q", b))
		}
		if b, err = s.scan.next(); err != nil {
			return nil, s.structural(err)
		}
	}
	s.first = false
	s.index++

	if b != '{' {
		if err := s.scan.skipValue(b); err != nil {
			return nil, s.structural(err)
		}
		return nil, &apperrors.RecordExtractionError{Index: s.index, Err: fmt.Errorf("record is not an object")}
	}

	raw, err := s.scan.readObject()
	if err != nil {
		return nil, s.structural(err)
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		return nil, &apperrors.RecordExtractionError{Index: s.index, Err: err}
	}
	return rec, nil
}

func (s *jsonSource) Offset() int64 { return s.scan.offset }

func (s *jsonSource) Release() { s.scan.release() }

func (s *jsonSource) structural(err error) error {
	return fmt.Errorf("%w at offset %d: %v", apperrors.ErrParse, s.scan.offset, err)
}

// decodeRecord decodes one object. Arrays of scalars become list fields;
// nulls and nested objects are ignored. Numbers keep their source digits.
func decodeRecord(raw []byte) (*Record, error) {
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}

	rec := newRecord()
	for code, v := range fields {
		switch val := v.(type) {
		case []any:
			list := make([]string, 0, len(val))
			for _, item := range val {
				if s, ok := scalarText(item); ok {
					list = append(list, s)
				}
			}
			rec.setList(code, list)
		default:
			if s, ok := scalarText(val); ok {
				rec.setText(code, s)
			}
		}
	}
	return rec, nil
}

func scalarText(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case json.Number:
		return val.String(), true
	default:
		return "", false
	}
}
