package parser

import (
	"bufio"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/DavidDuveau/openjoconde-sub000/internal/apperrors"
	"github.com/DavidDuveau/openjoconde-sub000/internal/models/dtos"
)

const readBufferSize = 64 * 1024

// XMLParser reads a Joconde XML export: one root element whose children are
// records made of flat named leaves.
type XMLParser struct {
	opts Options
}

func NewXMLParser(opts Options) *XMLParser {
	return &XMLParser{opts: opts.withDefaults()}
}

func (p *XMLParser) Format() string { return FormatXML }

func (p *XMLParser) Parse(ctx context.Context, path string, onProgress ProgressFunc) (*dtos.ParsingResult, error) {
	return collect(ctx, p, path, onProgress)
}

func (p *XMLParser) ParseBatches(ctx context.Context, path string, onBatch BatchFunc, onProgress ProgressFunc) (*dtos.ParseSummary, error) {
	f, err := openSource(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	src, err := newXMLSource(bufio.NewReaderSize(f, readBufferSize), p.opts.RecordTag)
	if err != nil {
		return nil, err
	}
	return run(ctx, FormatXML, src, size, p.opts, onBatch, onProgress)
}

type xmlSource struct {
	dec       *xml.Decoder
	recordTag string
	done      bool
	text      bytes.Buffer
}

// newXMLSource consumes the prolog and the root start element.
func newXMLSource(r io.Reader, recordTag string) (*xmlSource, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader
	dec.Entity = xml.HTMLEntity

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: document has no root element", apperrors.ErrFormat)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrFormat, err)
		}
		if _, ok := tok.(xml.StartElement); ok {
			return &xmlSource{dec: dec, recordTag: recordTag}, nil
		}
	}
}

func (s *xmlSource) Next() (*Record, error) {
	if s.done {
		return nil, io.EOF
	}
	for {
		tok, err := s.dec.Token()
		if err != nil {
			return nil, s.structural(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if s.recordTag != "" && !strings.EqualFold(t.Name.Local, s.recordTag) {
				if err := s.dec.Skip(); err != nil {
					return nil, s.structural(err)
				}
				continue
			}
			return s.readRecord()
		case xml.EndElement:
			// End of the root element.
			s.done = true
			return nil, io.EOF
		}
	}
}

// readRecord collects the leaves of the current record. Text below a leaf is
// flattened into it; a leaf repeated in the record becomes a list.
func (s *xmlSource) readRecord() (*Record, error) {
	rec := newRecord()
	var field string
	depth := 0

	for {
		tok, err := s.dec.Token()
		if err != nil {
			return nil, s.structural(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				field = t.Name.Local
				s.text.Reset()
			} else if s.text.Len() > 0 {
				s.text.WriteByte(' ')
			}
		case xml.CharData:
			if depth >= 1 {
				s.text.Write(t)
			}
		case xml.EndElement:
			if depth == 0 {
				return rec, nil
			}
			if depth == 1 {
				rec.add(field, s.text.String())
			}
			depth--
		}
	}
}

func (s *xmlSource) Offset() int64 { return s.dec.InputOffset() }

func (s *xmlSource) Release() {
	if s.text.Cap() > readBufferSize {
		s.text = bytes.Buffer{}
	}
}

func (s *xmlSource) structural(err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("%w at offset %d: %v", apperrors.ErrParse, s.dec.InputOffset(), err)
}

// charsetReader handles the single-byte encodings older Joconde exports use.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "iso-8859-15", "latin9":
		return charmap.ISO8859_15.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
}
