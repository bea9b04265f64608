package monospace

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"

	mfont "github.com/npillmayer/mtext/core/font"
)

func openFixed(t *testing.T, d *Driver, size int) *mfont.RealizedFont {
	t.Helper()
	spec := mfont.InternSpec(mfont.Spec{Family: "monospace", Size: size})
	rf, err := d.Select(spec, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Open(rf); err != nil {
		t.Fatal(err)
	}
	return rf
}

func TestCellWidths(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.fonts")
	defer teardown()
	d := New()
	rf := openFixed(t, d, 10)
	m, ok := d.Metrics(rf, d.Encode(rf, 'A'))
	assert.True(t, ok)
	assert.Equal(t, 10, m.XAdvance, "narrow character = 1 cell")
	m, ok = d.Metrics(rf, d.Encode(rf, '世'))
	assert.True(t, ok)
	assert.Equal(t, 20, m.XAdvance, "wide East Asian character = 2 cells")
	m, ok = d.Metrics(rf, d.Encode(rf, '🙂'))
	assert.True(t, ok)
	assert.Equal(t, 20, m.XAdvance, "emoji = 2 cells")
}

func TestCoverageRestriction(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.fonts")
	defer teardown()
	d := New()
	d.Coverage = func(c rune) bool { return c < 0x80 }
	rf := openFixed(t, d, 10)
	assert.True(t, d.HasChar(rf, 'A'))
	assert.False(t, d.HasChar(rf, 'ä'))
	assert.Equal(t, mfont.InvalidCode, d.Encode(rf, 'ä'))
}

func TestOpenMetrics(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.fonts")
	defer teardown()
	d := New()
	rf := openFixed(t, d, 12)
	assert.Equal(t, mfont.StatusOpened, rf.Status)
	assert.Equal(t, 12, rf.Ascent)
	assert.Equal(t, 6, rf.Descent)
	assert.Equal(t, 12, rf.SpaceWidth())
}

func TestCellCount(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.fonts")
	defer teardown()
	d := New()
	assert.Equal(t, 5, d.CellCount("hello"))
	assert.Equal(t, 4, d.CellCount("世界"), "wide characters count double")
}
