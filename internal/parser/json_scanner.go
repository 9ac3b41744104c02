package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

var errTruncated = errors.New("unexpected end of document")

// jsonScanner is a forward-only reader over a JSON document. It never builds
// a tree: object boundaries are found by brace counting that skips strings,
// and each object's bytes are handed out one at a time.
type jsonScanner struct {
	r      *bufio.Reader
	offset int64
	buf    []byte
}

func newJSONScanner(r io.Reader) *jsonScanner {
	return &jsonScanner{r: bufio.NewReaderSize(r, readBufferSize)}
}

func (s *jsonScanner) readByte() (byte, error) {
	b, err := s.r.ReadByte()
	if err != nil {
		if err == io.EOF {
			return 0, errTruncated
		}
		return 0, err
	}
	s.offset++
	return b, nil
}

func (s *jsonScanner) unreadByte() {
	if s.r.UnreadByte() == nil {
		s.offset--
	}
}

// next returns the next byte that is not whitespace or a byte-order mark.
func (s *jsonScanner) next() (byte, error) {
	for {
		b, err := s.readByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n', 0xEF, 0xBB, 0xBF:
			continue
		}
		return b, nil
	}
}

// readObject reads one object whose opening brace was already consumed and
// returns its bytes. The slice is reused by the next call.
func (s *jsonScanner) readObject() ([]byte, error) {
	s.buf = append(s.buf[:0], '{')
	if err := s.scanComposite(true); err != nil {
		return nil, err
	}
	return s.buf, nil
}

// scanComposite consumes an object or array up to its matching close,
// ignoring brackets inside strings. keep appends the bytes to buf.
func (s *jsonScanner) scanComposite(keep bool) error {
	depth := 1
	inString, escaped := false, false

	for depth > 0 {
		b, err := s.readByte()
		if err != nil {
			return err
		}
		if keep {
			s.buf = append(s.buf, b)
		}

		switch {
		case inString:
			if escaped {
				escaped = false
			} else if b == '\\' {
				escaped = true
			} else if b == '"' {
				inString = false
			}
		case b == '"':
			inString = true
		case b == '{' || b == '[':
			depth++
		case b == '}' || b == ']':
			depth--
		}
	}
	return nil
}

// readString reads a string whose opening quote was already consumed.
// Escapes are kept verbatim; only envelope keys are read this way.
func (s *jsonScanner) readString() (string, error) {
	var out []byte
	escaped := false
	for {
		b, err := s.readByte()
		if err != nil {
			return "", err
		}
		switch {
		case escaped:
			escaped = false
		case b == '\\':
			escaped = true
		case b == '"':
			return string(out), nil
		}
		out = append(out, b)
	}
}

// skipValue discards one value whose first byte is first.
func (s *jsonScanner) skipValue(first byte) error {
	switch first {
	case '"':
		_, err := s.readString()
		return err
	case '{', '[':
		return s.scanComposite(false)
	default:
		for {
			b, err := s.readByte()
			if err != nil {
				return err
			}
			switch b {
			case ',', ']', '}', ' ', '\t', '\r', '\n':
				s.unreadByte()
				return nil
			}
		}
	}
}

// expect consumes the next significant byte and checks it.
func (s *jsonScanner) expect(want byte) error {
	b, err := s.next()
	if err != nil {
		return err
	}
	if b != want {
		return fmt.Errorf("expected %q, found %q", want, b)
	}
	return nil
}

// release drops a record buffer that grew past the read buffer size.
func (s *jsonScanner) release() {
	if cap(s.buf) > readBufferSize {
		s.buf = nil
	}
}
