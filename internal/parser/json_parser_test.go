package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidDuveau/openjoconde-sub000/internal/apperrors"
	"github.com/DavidDuveau/openjoconde-sub000/internal/models/dtos"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// monetArray builds n JSON records sharing the same author.
func monetArray(n int) string {
	var b strings.Builder
	b.WriteString("[\n")
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",\n")
		}
		fmt.Fprintf(&b, `{"REF":"M%05d","TITR":"Nymphéas %d","AUTR":"Monet, Claude","DOMN":"peinture"}`, i, i)
	}
	b.WriteString("\n]")
	return b.String()
}

func TestJSONParser_SingleRecord(t *testing.T) {
	path := writeFixture(t, "one.json", `[{"REF":"R1","TITR":"Grotesques","AUTR":"DUBREUIL Toussaint","DOMN":"dessin"}]`)

	result, err := NewJSONParser(Options{}).Parse(context.Background(), path, nil)
	require.NoError(t, err)

	require.Len(t, result.Artworks, 1)
	assert.Equal(t, "R1", result.Artworks[0].Reference)
	assert.Equal(t, "Grotesques", result.Artworks[0].Title)
	require.Len(t, result.Artists, 1)
	assert.Equal(t, "DUBREUIL", result.Artists[0].LastName)
	assert.Equal(t, "Toussaint", result.Artists[0].FirstName)
	require.Len(t, result.Domains, 1)
	assert.Equal(t, "dessin", result.Domains[0].Name)
	require.Len(t, result.Artworks[0].Artists, 1)
	assert.NotEmpty(t, result.Artworks[0].Artists[0].Role)
}

func TestJSONParser_DeduplicatesAcrossRecords(t *testing.T) {
	path := writeFixture(t, "monet.json", monetArray(500))

	result, err := NewJSONParser(Options{}).Parse(context.Background(), path, nil)
	require.NoError(t, err)

	require.Len(t, result.Artworks, 500)
	require.Len(t, result.Artists, 1)
	assert.Equal(t, "Monet", result.Artists[0].LastName)
	assert.Equal(t, "Claude", result.Artists[0].FirstName)

	links := 0
	for _, a := range result.Artworks {
		for _, l := range a.Artists {
			assert.Equal(t, result.Artists[0].ID, l.Artist.ID)
			links++
		}
	}
	assert.Equal(t, 500, links)
	assert.Len(t, result.Domains, 1)
}

func TestJSONParser_DropsInvalidRecords(t *testing.T) {
	path := writeFixture(t, "mixed.json", `[
		{"REF":"R1","TITR":"Valide"},
		{"TITR":"Sans référence"},
		{"REF":"R3","TITR":"","DESC":"  "},
		42,
		{"REF":"R5","DESC":"Description seule","AUTR":"Anonyme"}
	]`)

	result, err := NewJSONParser(Options{}).Parse(context.Background(), path, nil)
	require.NoError(t, err)

	require.Len(t, result.Artworks, 2)
	assert.Equal(t, "R1", result.Artworks[0].Reference)
	assert.Equal(t, "R5", result.Artworks[1].Reference)
	assert.Equal(t, 5, result.RecordsSeen)
	assert.Equal(t, 2, result.RecordsRejected)
	assert.Equal(t, 1, result.RecordsFailed)
	assert.Empty(t, result.Artists)
}

func TestJSONParser_Envelope(t *testing.T) {
	path := writeFixture(t, "api.json", `{
		"total_count": 2,
		"links": [{"rel": "self", "href": "https://example.org/?a=[1]"}],
		"results": [
			{"reference":"000DE001","titre":"Étude","domaine":["dessin; esquisse","estampe"],"auteur":"Ingres, Jean-Auguste-Dominique"},
			{"reference":"000DE002","titre":"Paysage \"au}crayon","domaine":"dessin"}
		]
	}`)

	result, err := NewJSONParser(Options{}).Parse(context.Background(), path, nil)
	require.NoError(t, err)

	require.Len(t, result.Artworks, 2)
	assert.Equal(t, `Paysage "au}crayon`, result.Artworks[1].Title)

	var names []string
	for _, d := range result.Domains {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"dessin; esquisse", "estampe", "dessin"}, names)
}

func TestJSONParser_NumericFields(t *testing.T) {
	path := writeFixture(t, "num.json", `[{"REF":50350012345,"TITR":"Pièce","INV":1987.5,"DOMN":null,"TECH":{"nested":true}}]`)

	result, err := NewJSONParser(Options{}).Parse(context.Background(), path, nil)
	require.NoError(t, err)

	require.Len(t, result.Artworks, 1)
	assert.Equal(t, "50350012345", result.Artworks[0].Reference)
	assert.Equal(t, "1987.5", result.Artworks[0].InventoryNumber)
	assert.Empty(t, result.Domains)
	assert.Empty(t, result.Techniques)
}

func TestJSONParser_LongNumericReference(t *testing.T) {
	path := writeFixture(t, "long.json", `[{"REF":123456789012345678901,"TITR":"Pièce","INV":1e3}]`)

	result, err := NewJSONParser(Options{}).Parse(context.Background(), path, nil)
	require.NoError(t, err)

	require.Len(t, result.Artworks, 1)
	assert.Equal(t, "123456789012345678901", result.Artworks[0].Reference)
	assert.Equal(t, "1e3", result.Artworks[0].InventoryNumber)
}

func TestJSONParser_CancelAfterN(t *testing.T) {
	path := writeFixture(t, "monet.json", monetArray(200))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const n = 37
	result, err := NewJSONParser(Options{ProgressEvery: 1}).Parse(ctx, path, func(processed, _ int) {
		if processed == n {
			cancel()
		}
	})

	require.NoError(t, err)
	assert.True(t, result.Canceled)
	assert.Len(t, result.Artworks, n)
}

func TestJSONParser_ProgressGapIsCapped(t *testing.T) {
	path := writeFixture(t, "monet.json", monetArray(2500))

	var reported []int
	_, err := NewJSONParser(Options{ProgressEvery: 5000}).Parse(context.Background(), path, func(processed, _ int) {
		reported = append(reported, processed)
	})
	require.NoError(t, err)

	assert.Contains(t, reported, MaxProgressEvery)
	assert.Contains(t, reported, 2*MaxProgressEvery)
}

func TestJSONParser_Batches(t *testing.T) {
	path := writeFixture(t, "monet.json", monetArray(25))

	var chunks []*dtos.ParsingResult
	summary, err := NewJSONParser(Options{BatchSize: 10}).ParseBatches(context.Background(), path, func(chunk *dtos.ParsingResult) error {
		chunks = append(chunks, chunk)
		return nil
	}, nil)
	require.NoError(t, err)

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0].Artworks, 10)
	assert.Len(t, chunks[1].Artworks, 10)
	assert.Len(t, chunks[2].Artworks, 5)
	assert.Len(t, chunks[0].Artists, 1)
	assert.Empty(t, chunks[1].Artists)
	assert.Empty(t, chunks[2].Artists)
	assert.Equal(t, 25, summary.RecordsAccepted)
}

func TestJSONParser_BatchErrorStopsParse(t *testing.T) {
	path := writeFixture(t, "monet.json", monetArray(25))
	boom := fmt.Errorf("store down")

	_, err := NewJSONParser(Options{BatchSize: 10}).ParseBatches(context.Background(), path, func(*dtos.ParsingResult) error {
		return boom
	}, nil)

	assert.ErrorIs(t, err, boom)
}

func TestJSONParser_ProgressReachesTotal(t *testing.T) {
	path := writeFixture(t, "monet.json", monetArray(250))

	var last [2]int
	calls := 0
	_, err := NewJSONParser(Options{}).Parse(context.Background(), path, func(processed, total int) {
		calls++
		last = [2]int{processed, total}
		assert.GreaterOrEqual(t, total, processed)
	})
	require.NoError(t, err)

	assert.Equal(t, 3, calls)
	assert.Equal(t, [2]int{250, 250}, last)
}

func TestJSONParser_PanickingProgressIsIgnored(t *testing.T) {
	path := writeFixture(t, "monet.json", monetArray(120))

	result, err := NewJSONParser(Options{}).Parse(context.Background(), path, func(int, int) {
		panic("sink failed")
	})

	require.NoError(t, err)
	assert.Len(t, result.Artworks, 120)
}

func TestJSONParser_Errors(t *testing.T) {
	p := NewJSONParser(Options{})
	ctx := context.Background()

	_, err := p.Parse(ctx, filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = p.Parse(ctx, writeFixture(t, "scalar.json", `"hello"`), nil)
	assert.ErrorIs(t, err, apperrors.ErrFormat)

	_, err = p.Parse(ctx, writeFixture(t, "noresults.json", `{"total_count": 0}`), nil)
	assert.ErrorIs(t, err, apperrors.ErrFormat)

	_, err = p.Parse(ctx, writeFixture(t, "truncated.json", `[{"REF":"R1","TITR":"A"},{"REF":"R2","TI`), nil)
	assert.ErrorIs(t, err, apperrors.ErrParse)
}

func TestDetectFormat(t *testing.T) {
	f, err := DetectFormat(writeFixture(t, "export", "\n  <?xml version=\"1.0\"?><root/>"))
	require.NoError(t, err)
	assert.Equal(t, FormatXML, f)

	f, err = DetectFormat(writeFixture(t, "export.dat", "\uFEFF[]"))
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = DetectFormat(writeFixture(t, "export.txt", "REF;TITR"))
	assert.ErrorIs(t, err, apperrors.ErrFormat)

	_, err = New("csv", Options{})
	assert.ErrorIs(t, err, apperrors.ErrFormat)
}
