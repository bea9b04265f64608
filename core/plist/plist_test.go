package plist

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
)

func TestParseAtoms(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.plist")
	defer teardown()
	//
	l, err := Parse(`foo 42 -7 #x1F "bar baz" ?a`)
	assert.NoError(t, err)
	assert.Equal(t, List{Sym("foo"), Int(42), Int(-7), Int(0x1F), Str("bar baz"), Int('a')}, l)
}

func TestParseNested(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.plist")
	defer teardown()
	//
	l, err := Parse(`(category (#x0E01 #x0E2E ?c) (#x0E4E ?n)) ; thai
(generator (0 1))`)
	assert.NoError(t, err)
	assert.Len(t, l, 2)
	cat, ok := l.Assoc(Sym("category"))
	assert.True(t, ok)
	assert.Len(t, cat, 2)
	rng, _ := cat.ListAt(0)
	lo, _ := rng.IntAt(0)
	assert.Equal(t, Int(0x0E01), lo)
}

func TestParseErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.plist")
	defer teardown()
	//
	_, err := Parse(`(unbalanced`)
	assert.Error(t, err)
	_, err = Parse(`"unterminated`)
	assert.Error(t, err)
	_, err = Parse(`)`)
	assert.Error(t, err)
}

func TestFormatRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.plist")
	defer teardown()
	//
	src := `(fontset test (latin ((family "gomono"))))`
	l, err := Parse(src)
	assert.NoError(t, err)
	again, err := Parse(Format(l[0]))
	assert.NoError(t, err)
	assert.Equal(t, l[0], again[0])
}

func TestMemDB(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.plist")
	defer teardown()
	//
	db := NewMemDB()
	assert.NoError(t, db.Define(KindFontset, "test", `(per-script (latin))`))
	rec, err := db.Get(KindFontset, "test")
	assert.NoError(t, err)
	assert.Len(t, rec, 1)
	_, err = db.Get(KindFLT, "nope")
	assert.Error(t, err)
}
