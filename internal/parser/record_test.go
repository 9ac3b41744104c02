package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_TextFallsBackAcrossCodes(t *testing.T) {
	rec := NewRecord(map[string]string{"titre": "  Grotesques ", "TITR": ""})

	assert.Equal(t, "Grotesques", rec.Text("TITR", "titre"))
	assert.Equal(t, "", rec.Text("DESC"))
}

func TestRecord_ListValues(t *testing.T) {
	rec := newRecord()
	rec.setList("domaine", []string{"peinture; huile", " dessin ", ""})
	rec.add("AUTR", "Monet, Claude")
	rec.add("AUTR", "Renoir, Auguste")

	assert.Equal(t, []string{"peinture; huile", "dessin"}, rec.Values("DOMN", "domaine"))
	assert.Equal(t, "peinture; huile; dessin", rec.Text("domaine"))
	assert.Equal(t, []string{"Monet, Claude", "Renoir, Auguste"}, rec.Values("autr"))
}

func TestSplitMulti(t *testing.T) {
	assert.Nil(t, SplitMulti("   "))
	assert.Equal(t, []string{"a", "b, c"}, SplitMulti(" a ;; b, c ;"))
}
