package frame

import (
	"image"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
)

func TestCombiningCodeRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.frame")
	defer teardown()
	code := MakeCombining(VTop, HCenter, VBottom, HCenter, -3, 7)
	assert.NotZero(t, code)
	bv, bh := CombiningBase(code)
	assert.Equal(t, VTop, bv)
	assert.Equal(t, HCenter, bh)
	av, ah := CombiningAdd(code)
	assert.Equal(t, VBottom, av)
	assert.Equal(t, HCenter, ah)
	x, y := CombiningOffset(code)
	assert.Equal(t, -3, x)
	assert.Equal(t, 7, y)
	assert.NotZero(t, MakeCombining(VTop, HLeft, VTop, HLeft, 0, 0),
		"all-zero anchors still yield a nonzero code")
}

func TestGlyphStringChaining(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.frame")
	defer teardown()
	first := NewGlyphString(nil, nil, 0, 2, DrawControl{})
	second := NewGlyphString(nil, nil, 2, 3, DrawControl{})
	third := NewGlyphString(nil, nil, 3, 5, DrawControl{})
	first.SetNext(second)
	second.SetNext(third)
	assert.Same(t, first, first.Top())
	assert.Same(t, first, second.Top())
	assert.Same(t, first, third.Top())
}

func TestClusterAt(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.frame")
	defer teardown()
	gs := NewGlyphString(nil, nil, 0, 3, DrawControl{})
	gs.Append(Glyph{Type: GlyphAnchor, From: 0, To: 0})
	gs.Append(Glyph{Type: GlyphChar, From: 0, To: 1, XAdv: 5})
	gs.Append(Glyph{Type: GlyphChar, From: 1, To: 2, XAdv: 5}) // cluster of two
	gs.Append(Glyph{Type: GlyphChar, From: 1, To: 2, XAdv: 0})
	gs.Append(Glyph{Type: GlyphChar, From: 2, To: 3, XAdv: 5})
	gs.Append(Glyph{Type: GlyphAnchor, From: 3, To: 3})
	assert.True(t, gs.Anchored())
	assert.Len(t, gs.Inner(), 4)
	lo, hi := gs.ClusterAt(3)
	assert.Equal(t, 2, lo)
	assert.Equal(t, 4, hi)
	lo, hi = gs.ClusterAt(1)
	assert.Equal(t, 1, lo)
	assert.Equal(t, 2, hi)
	assert.Equal(t, 15, gs.RecalcWidth())
}

func TestInsertAt(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.frame")
	defer teardown()
	gs := NewGlyphString(nil, nil, 0, 1, DrawControl{})
	gs.Append(Glyph{Type: GlyphAnchor})
	gs.Append(Glyph{Type: GlyphChar, Char: 'a'})
	gs.Append(Glyph{Type: GlyphAnchor})
	gs.InsertAt(1, Glyph{Type: GlyphPad})
	assert.Equal(t, GlyphPad, gs.Glyphs[1].Type)
	assert.Equal(t, GlyphChar, gs.Glyphs[2].Type)
	assert.True(t, gs.Anchored())
}

func TestRegionOps(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.frame")
	defer teardown()
	rg := RegionFromRect(image.Rect(0, 0, 10, 10))
	rg.AddRect(image.Rect(20, 0, 30, 10))
	assert.True(t, rg.Contains(5, 5))
	assert.False(t, rg.Contains(15, 5))
	assert.Equal(t, image.Rect(0, 0, 30, 10), rg.Enclosing())
	clip := RegionFromRect(image.Rect(5, 5, 25, 25))
	rg.Intersect(clip)
	assert.True(t, rg.Contains(7, 7))
	assert.False(t, rg.Contains(2, 2))
	rg.Reset()
	assert.True(t, rg.Empty())
	var nilRegion *Region
	assert.True(t, nilRegion.Contains(1, 1), "nil region clips nothing")
}

func TestCursorOnlyDiff(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.frame")
	defer teardown()
	a := DrawControl{TwoDimensional: true, WithCursor: true, CursorPos: 3}
	b := a
	b.CursorPos = 7
	b.CursorWidth = 2
	assert.True(t, a.CursorOnlyDiff(b))
	b.MaxLineWidth = 100
	assert.False(t, a.CursorOnlyDiff(b))
}
