package font

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/mtext/core/plist"
	"github.com/stretchr/testify/assert"
)

func TestSpecInterning(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.fonts")
	defer teardown()
	//
	a := InternSpec(Spec{Family: "gomono", Weight: WeightBold})
	b := InternSpec(Spec{Family: "gomono", Weight: WeightBold})
	if a != b {
		t.Errorf("expected identical specs to intern to the same instance")
	}
	c := InternSpec(Spec{Family: "gomono"})
	assert.NotSame(t, a, c)
}

func TestSpecMerge(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.fonts")
	defer teardown()
	//
	base := Spec{Family: "goregular", Weight: WeightNormal, Size: 12}
	over := Spec{Weight: WeightBold}
	m := Merge(base, over)
	assert.Equal(t, "goregular", m.Family)
	assert.Equal(t, WeightBold, m.Weight)
	assert.Equal(t, 12, m.Size)
}

func TestScorePriorities(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.fonts")
	defer teardown()
	//
	request := Spec{Family: "gomono", Weight: WeightNormal, Size: 12}
	exact := Spec{Family: "gomono", Weight: WeightNormal, Size: 12}
	wrongWeight := Spec{Family: "gomono", Weight: WeightBold, Size: 12}
	wrongFamily := Spec{Family: "goregular", Weight: WeightNormal, Size: 12}
	wrongSize := Spec{Family: "gomono", Weight: WeightNormal, Size: 24}
	assert.EqualValues(t, 0, Score(exact, request, false))
	assert.Less(t, Score(exact, request, false), Score(wrongWeight, request, false))
	assert.Less(t, Score(wrongWeight, request, false), Score(wrongFamily, request, false),
		"family mismatch must outweigh weight mismatch")
	assert.Less(t, Score(wrongFamily, request, false), Score(wrongSize, request, false),
		"size mismatch must outweigh family mismatch")
}

func TestScoreRegistryRejects(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.fonts")
	defer teardown()
	//
	request := Spec{Registry: "iso10646-1"}
	candidate := Spec{Registry: "jisx0208.1983-0"}
	assert.Equal(t, NoMatch, Score(candidate, request, false))
}

func TestScoreTooBigFlag(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.fonts")
	defer teardown()
	//
	request := Spec{Size: 12}
	big := Spec{Size: 14}
	small := Spec{Size: 10}
	assert.Greater(t, Score(big, request, true), Score(small, request, true),
		"too-big penalty applies only with a size limit")
}

func TestPixelSizeFromPoints(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.fonts")
	defer teardown()
	//
	assert.Equal(t, 12, PixelSize(12, 100))
	// 12pt at 100dpi: 12 × 100 / 72.27 ≈ 16.6 → 17
	assert.Equal(t, 17, PixelSize(-12, 100))
}

func TestRegistryFamilies(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.fonts")
	defer teardown()
	//
	reg := NewRegistry()
	reg.StoreBinary("Go Mono", []byte{0x00, 0x01})
	reg.StoreBinary("Go Regular", []byte{0x00, 0x01})
	fams := reg.Families("go_")
	assert.Len(t, fams, 2)
	_, ok := reg.Binary("go mono")
	assert.True(t, ok)
}

func TestFontsetGroupOrder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.fonts")
	defer teardown()
	//
	fs := NewFontset("test")
	heEntry := Entry{Spec: InternSpec(Spec{Family: "hebr"})}
	genEntry := Entry{Spec: InternSpec(Spec{Family: "generic"})}
	arEntry := Entry{Spec: InternSpec(Spec{Family: "arab"})}
	fbEntry := Entry{Spec: InternSpec(Spec{Family: "fall"})}
	fs.AddSpec("hebrew", "he", heEntry)
	fs.AddSpec("hebrew", "t", genEntry)
	fs.AddSpec("hebrew", "yi", arEntry)
	fs.AddFallback(fbEntry)
	groups := fs.Groups("hebrew", "he", "")
	assert.Len(t, groups, 4)
	assert.Equal(t, "hebr", groups[0][0].Spec.Family)
	assert.Equal(t, "generic", groups[1][0].Spec.Family)
	assert.Equal(t, "arab", groups[2][0].Spec.Family, "other languages in insertion order")
	assert.Equal(t, "fall", groups[3][0].Spec.Family)
}

func TestFontsetCharsetGroupFirst(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.fonts")
	defer teardown()
	//
	fs := NewFontset("test2")
	fs.AddSpec("latin", "t", Entry{Spec: InternSpec(Spec{Family: "lat"})})
	fs.AddCharsetSpec("iso8859-1", Entry{Spec: InternSpec(Spec{Family: "iso"})})
	groups := fs.Groups("latin", "en", "iso8859-1")
	assert.Equal(t, "iso", groups[0][0].Spec.Family)
}

func TestFontsetUnknownScriptTriesEverything(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.fonts")
	defer teardown()
	//
	fs := NewFontset("test3")
	fs.AddSpec("latin", "t", Entry{Spec: InternSpec(Spec{Family: "lat"})})
	groups := fs.Groups("runic", "", "")
	assert.NotEmpty(t, groups, "unknown script must fall back to all groups")
}

func TestFontsetFromPlist(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.fonts")
	defer teardown()
	//
	src := `
(per-script
  (latin (t ((family "goregular")) ((family "gomono")))
         (en ((family "goregular") latin-flt)))
  (hebrew (t ((family "goregular")))))
(per-charset (iso8859-1 ((family "goregular"))))
(fallback ((family "goregular")))`
	rec, err := plist.Parse(src)
	assert.NoError(t, err)
	fs, err := FontsetFromPlist("plist-test", rec)
	assert.NoError(t, err)
	groups := fs.Groups("latin", "en", "")
	assert.True(t, len(groups) >= 2)
	assert.Equal(t, "latin-flt", groups[0][0].Layouter)
	groups = fs.Groups("latin", "t", "")
	assert.Len(t, groups[0], 2, "generic group keeps entry order")
}

func TestFontsetRegistryAndDB(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.fonts")
	defer teardown()
	//
	db := plist.NewMemDB()
	assert.NoError(t, db.Define(plist.KindFontset, "dbset", `(fallback ((family "goregular")))`))
	fs, err := LookupFontset("dbset", db)
	assert.NoError(t, err)
	assert.NotNil(t, fs)
	// second lookup hits the registry
	fs2, err := LookupFontset("dbset", nil)
	assert.NoError(t, err)
	assert.Same(t, fs, fs2)
	_, err = LookupFontset("missing", nil)
	assert.Error(t, err)
}

func TestCharsets(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.fonts")
	defer teardown()
	//
	cs, ok := LookupCharset("iso8859-1")
	assert.True(t, ok)
	code, ok := cs.Encode('é')
	assert.True(t, ok)
	assert.EqualValues(t, 0xE9, code)
	_, ok = cs.Encode('字')
	assert.False(t, ok)
}
