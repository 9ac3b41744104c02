package parser

import (
	"strings"
)

// Record is the flat field view of one raw record. Field codes are matched
// case-insensitively; a value is either a scalar or a list of scalars.
type Record struct {
	fields map[string]fieldValue
}

type fieldValue struct {
	text   string
	list   []string
	isList bool
}

func newRecord() *Record {
	return &Record{fields: make(map[string]fieldValue)}
}

// NewRecord builds a record from scalar fields. Used by tests and callers that
// already hold a decoded record.
func NewRecord(fields map[string]string) *Record {
	r := newRecord()
	for k, v := range fields {
		r.setText(k, v)
	}
	return r
}

func (r *Record) setText(code, text string) {
	r.fields[strings.ToLower(code)] = fieldValue{text: text}
}

func (r *Record) setList(code string, values []string) {
	r.fields[strings.ToLower(code)] = fieldValue{list: values, isList: true}
}

// add records a leaf occurrence; a code seen twice becomes a list.
func (r *Record) add(code, text string) {
	key := strings.ToLower(code)
	existing, ok := r.fields[key]
	switch {
	case !ok:
		r.fields[key] = fieldValue{text: text}
	case existing.isList:
		existing.list = append(existing.list, text)
		r.fields[key] = existing
	default:
		r.fields[key] = fieldValue{list: []string{existing.text, text}, isList: true}
	}
}

// Len is the number of fields present.
func (r *Record) Len() int { return len(r.fields) }

// Text returns the trimmed value of the first code that holds a non-empty
// value. List values are joined with "; ". Missing fields yield "".
func (r *Record) Text(codes ...string) string {
	for _, code := range codes {
		v, ok := r.fields[strings.ToLower(code)]
		if !ok {
			continue
		}
		var s string
		if v.isList {
			s = strings.Join(trimParts(v.list), "; ")
		} else {
			s = strings.TrimSpace(v.text)
		}
		if s != "" {
			return s
		}
	}
	return ""
}

// Values reads a multi-valued field. A scalar is split on ";"; a list is
// taken element by element and never re-split.
func (r *Record) Values(codes ...string) []string {
	for _, code := range codes {
		v, ok := r.fields[strings.ToLower(code)]
		if !ok {
			continue
		}
		var parts []string
		if v.isList {
			parts = trimParts(v.list)
		} else {
			parts = SplitMulti(v.text)
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return nil
}

// SplitMulti splits a ";"-separated field, trimming parts and dropping empty ones.
// Commas inside a part are kept.
func SplitMulti(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return trimParts(strings.Split(raw, ";"))
}

func trimParts(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
