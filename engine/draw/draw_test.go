package draw

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"

	"github.com/npillmayer/mtext/core/font"
	"github.com/npillmayer/mtext/core/font/monospace"
	"github.com/npillmayer/mtext/core/mtext"
	"github.com/npillmayer/mtext/core/plist"
	"github.com/npillmayer/mtext/engine/face"
	"github.com/npillmayer/mtext/engine/frame"
)

// journalDevice records the calls the rendering dispatch makes.
type journalDevice struct {
	fills      int
	glyphRuns  int
	emptyBoxes []int // from indices of DrawEmptyBoxes calls
	hlines     int
	boxes      int
}

func (*journalDevice) Name() string   { return "journal" }
func (*journalDevice) Writable() bool { return true }

func (d *journalDevice) FillSpace(x, y, w, h int, color string, reg *frame.Region) {
	d.fills++
}

func (d *journalDevice) DrawGlyphs(x, y int, gs *frame.GlyphString, from, to int, rev bool, reg *frame.Region) {
	d.glyphRuns++
}

func (d *journalDevice) DrawEmptyBoxes(x, y int, gs *frame.GlyphString, from, to int, reg *frame.Region) {
	d.emptyBoxes = append(d.emptyBoxes, from)
}

func (d *journalDevice) DrawHLine(x, y, w int, hl face.HLineSpec, color string, reg *frame.Region) {
	d.hlines++
}

func (d *journalDevice) DrawBox(x, y, w, h int, box face.BoxSpec, reg *frame.Region) {
	d.boxes++
}

// testFrame builds a frame over a 10px monospace grid.
func testFrame(t *testing.T) (*frame.Frame, *journalDevice) {
	t.Helper()
	deflt := face.New()
	if err := deflt.Set(face.Size, 10); err != nil {
		t.Fatal(err)
	}
	dev := &journalDevice{}
	fr, err := frame.New(dev, monospace.New(), deflt, nil)
	if err != nil {
		t.Fatal(err)
	}
	return fr, dev
}

func TestPlainAscii(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.draw")
	defer teardown()
	fr, _ := testFrame(t)
	txt := mtext.NewText("abc")
	gs, err := ComposeLines(fr, txt, 0, 3, frame.DrawControl{})
	assert.NoError(t, err)
	inner := gs.Inner()
	assert.Len(t, inner, 3)
	assert.Len(t, gs.Glyphs, 5, "three chars plus two anchors")
	for _, g := range inner {
		assert.EqualValues(t, 0, g.Level)
		assert.Equal(t, 10, g.XAdv)
	}
	assert.Equal(t, 30, gs.Width)
	assert.Equal(t, 15, gs.Height, "ascent 10 + descent 5")

	w, ext, err := TextExtents(fr, txt, 0, 3, frame.DrawControl{})
	assert.NoError(t, err)
	assert.Equal(t, 30, w)
	assert.Equal(t, -10, ext.Logical.Min.Y, "logical box starts at -ascent")
	assert.Equal(t, 5, ext.Logical.Max.Y)
}

func TestNewlineChainsLines(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.draw")
	defer teardown()
	fr, _ := testFrame(t)
	txt := mtext.NewText("a\nb")
	top, err := ComposeLines(fr, txt, 0, 3, frame.DrawControl{TwoDimensional: true})
	assert.NoError(t, err)
	assert.Equal(t, 0, top.From)
	assert.Equal(t, 2, top.To, "first line includes the newline")
	inner := top.Inner()
	assert.Len(t, inner, 2)
	assert.Equal(t, frame.GlyphSpace, inner[1].Type)
	assert.Equal(t, 1, inner[1].XAdv, "a newline is one pixel wide without a cursor")
	assert.NotNil(t, top.Next)
	assert.Equal(t, 2, top.Next.From)
	assert.Equal(t, 3, top.Next.To)
	assert.Same(t, top, top.Next.Top())
}

func TestBidiLevels(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.draw")
	defer teardown()
	fr, _ := testFrame(t)
	txt := mtext.NewText("AאB")
	gs, err := ComposeLines(fr, txt, 0, 3, frame.DrawControl{EnableBidi: true})
	assert.NoError(t, err)
	inner := gs.Inner()
	assert.Len(t, inner, 3)
	assert.Equal(t, 'A', inner[0].Char)
	assert.EqualValues(t, 0, inner[0].Level)
	assert.Equal(t, 'א', inner[1].Char)
	assert.EqualValues(t, 1, inner[1].Level, "the Alef carries an odd embedding level")
	assert.Equal(t, 'B', inner[2].Char)
	assert.EqualValues(t, 0, inner[2].Level)
}

func TestReversedOrientationMirrorsHitTest(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.draw")
	defer teardown()
	fr, _ := testFrame(t)
	txt := mtext.NewText("AאB")
	ctl := frame.DrawControl{EnableBidi: true, OrientationReversed: true}
	pos, err := CoordinatesPosition(fr, txt, 0, 3, -5, 0, ctl)
	assert.NoError(t, err)
	assert.Equal(t, 0, pos, "closest to the anchor point comes the first glyph")
	pos, err = CoordinatesPosition(fr, txt, 0, 3, -25, 0, ctl)
	assert.NoError(t, err)
	assert.Equal(t, 2, pos)
}

func TestTabExpansion(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.draw")
	defer teardown()
	fr, _ := testFrame(t)
	txt := mtext.NewText("a\tb")
	glyphs, err := GlyphList(fr, txt, 0, 3, frame.DrawControl{})
	assert.NoError(t, err)
	assert.Len(t, glyphs, 3)
	assert.Equal(t, 70, glyphs[1].XAdv, "tab fills to the next multiple of 8 cells")
	assert.Equal(t, 90, glyphs[2].X+glyphs[2].XAdv-glyphs[0].X)
}

func TestWidthLimitBreaksLines(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.draw")
	defer teardown()
	fr, _ := testFrame(t)
	txt := mtext.NewText("aaaaaaaaaa")
	ctl := frame.DrawControl{TwoDimensional: true, MaxLineWidth: 35}
	top, err := ComposeLines(fr, txt, 0, 10, ctl)
	assert.NoError(t, err)
	end := 0
	for line := top; line != nil; line = line.Next {
		assert.Equal(t, end, line.From, "lines partition the range")
		assert.True(t, line.Width <= 35 || len(line.Inner()) == 1,
			"a line fits the limit or holds a single glyph")
		end = line.To
	}
	assert.Equal(t, 10, end)
}

func TestWidthLimitBreaksAtSpaces(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.draw")
	defer teardown()
	fr, _ := testFrame(t)
	txt := mtext.NewText("aa aa aa")
	ctl := frame.DrawControl{TwoDimensional: true, MaxLineWidth: 55}
	top, err := ComposeLines(fr, txt, 0, 8, ctl)
	assert.NoError(t, err)
	assert.Equal(t, 3, top.To, "break after the first blank")
	assert.NotNil(t, top.Next)
	assert.Equal(t, 8, top.Next.To, "the rest fits on one line")
	assert.Nil(t, top.Next.Next)
}

func TestBreakerBiasAndForbidRules(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.draw")
	defer teardown()
	fr, _ := testFrame(t)
	txt := mtext.NewText("aa aa aa")
	ctl := frame.DrawControl{
		TwoDimensional: true,
		MaxLineWidth:   55,
		LineBreak:      Breaker(BreakerOptions{Bias: BreakAtAny}),
	}
	top, err := ComposeLines(fr, txt, 0, 8, ctl)
	assert.NoError(t, err)
	assert.Equal(t, 5, top.To, "an unbiased breaker fills the line")

	ctl.LineBreak = Breaker(BreakerOptions{
		Bias:          BreakAtAny,
		ForbidAtStart: func(r rune) bool { return r == ' ' },
	})
	top, err = ComposeLines(fr, txt, 0, 8, ctl)
	assert.NoError(t, err)
	assert.Equal(t, 4, top.To, "a line must not start with a blank")
}

func TestShapedFillerKeepsZeroWidth(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.draw")
	defer teardown()
	deflt := face.New()
	assert.NoError(t, deflt.Set(face.Size, 10))
	fs := font.NewFontset("collapse-test")
	fs.AddSpec("latin", "", font.Entry{Spec: font.InternSpec(font.Spec{}), Layouter: "collapse-ab"})
	fr, err := frame.New(&journalDevice{}, monospace.New(), deflt, fs)
	assert.NoError(t, err)
	db := plist.NewMemDB()
	// the table folds "ab" into a single glyph covering position 0
	assert.NoError(t, db.Define(plist.KindFLT, "collapse-ab", `
		(category (?a ?A) (?b ?B))
		(generator
		  (cond
		    ("AB" 97)
		    ("." =)))
	`))
	fr.DB = db

	txt := mtext.NewText("ab")
	gs, err := ComposeLines(fr, txt, 0, 2, frame.DrawControl{})
	assert.NoError(t, err)
	inner := gs.Inner()
	assert.Len(t, inner, 2)
	assert.Equal(t, frame.GlyphSpace, inner[1].Type, "position 1 gets a filler glyph")
	assert.Zero(t, inner[1].XAdv, "the filler stays zero-width through layout")
	assert.Equal(t, 10, gs.Width, "the line is one cell wide")
}

func TestPadAbsorbedByAdjacentSpace(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.draw")
	defer teardown()
	deflt := face.New()
	assert.NoError(t, deflt.Set(face.Size, 10))
	fs := font.NewFontset("padding-test")
	fs.AddSpec("latin", "", font.Entry{Spec: font.InternSpec(font.Spec{}), Layouter: "left-pad"})
	fr, err := frame.New(&journalDevice{}, monospace.New(), deflt, fs)
	assert.NoError(t, err)
	db := plist.NewMemDB()
	// the table requests left padding before every 'a'
	assert.NoError(t, db.Define(plist.KindFLT, "left-pad", `
		(category (?a ?A))
		(generator
		  (cond
		    ("A" [ =)
		    ("." =)))
	`))
	fr.DB = db

	txt := mtext.NewText(" a")
	gs, err := ComposeLines(fr, txt, 0, 2, frame.DrawControl{})
	assert.NoError(t, err)
	inner := gs.Inner()
	assert.Len(t, inner, 2, "no pad glyph is inserted")
	assert.Equal(t, frame.GlyphSpace, inner[0].Type)
	assert.Equal(t, 5, inner[0].XAdv, "the space shrinks by the absorbed pad")
	assert.Equal(t, 15, gs.Width)

	// without a space to absorb it, the pad becomes its own glyph
	txt = mtext.NewText("ba")
	gs, err = ComposeLines(fr, txt, 0, 2, frame.DrawControl{})
	assert.NoError(t, err)
	inner = gs.Inner()
	assert.Len(t, inner, 3)
	assert.Equal(t, frame.GlyphPad, inner[1].Type)
	assert.Equal(t, 25, gs.Width)
}

func TestScriptFallbackUsesUnicodeBlock(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.draw")
	defer teardown()
	inner := []frame.Glyph{{From: 0, To: 1, Char: '☺', Type: frame.GlyphChar}}
	spans := splitRuns(nil, inner)
	assert.Len(t, spans, 1)
	assert.Equal(t, "miscellaneous-symbols", spans[0].script,
		"an isolated Common character takes its block name")
	inner = []frame.Glyph{{From: 0, To: 1, Char: '€', Type: frame.GlyphChar}}
	spans = splitRuns(nil, inner)
	assert.Equal(t, "currency-symbols", spans[0].script)
	inner = []frame.Glyph{
		{From: 0, To: 1, Char: 'א', Type: frame.GlyphChar},
		{From: 1, To: 2, Char: '́', Type: frame.GlyphChar}, // combining acute, Inherited
	}
	spans = splitRuns(nil, inner)
	assert.Len(t, spans, 1)
	assert.Equal(t, "hebrew", spans[0].script, "inheritance still wins over the block fallback")
}

func TestMissingFontRendersEmptyBoxes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.draw")
	defer teardown()
	deflt := face.New()
	assert.NoError(t, deflt.Set(face.Size, 10))
	drv := monospace.New()
	drv.Coverage = func(c rune) bool { return c < 0x80 }
	dev := &journalDevice{}
	fr, err := frame.New(dev, drv, deflt, nil)
	assert.NoError(t, err)

	txt := mtext.NewText("字")
	glyphs, err := GlyphList(fr, txt, 0, 1, frame.DrawControl{})
	assert.NoError(t, err)
	assert.Len(t, glyphs, 1)
	assert.EqualValues(t, font.InvalidCode, glyphs[0].Code)
	assert.Equal(t, 10, glyphs[0].XAdv, "missing glyphs take the average width")
	assert.Equal(t, 10, glyphs[0].Ascent)
	assert.Equal(t, 5, glyphs[0].Descent)

	assert.NoError(t, DrawText(fr, 0, 0, txt, 0, 1))
	assert.Len(t, dev.emptyBoxes, 1, "the device draws a placeholder box")
}

func TestInvalidRanges(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.draw")
	defer teardown()
	fr, dev := testFrame(t)
	txt := mtext.NewText("abc")
	assert.Error(t, DrawText(fr, 0, 0, txt, 2, 1))
	assert.Error(t, DrawText(fr, 0, 0, txt, -1, 2))
	assert.Error(t, DrawText(fr, 0, 0, txt, 0, 4))
	assert.Zero(t, dev.glyphRuns, "failed calls never touch the device")
	assert.Zero(t, dev.fills)
	// with a cursor, one position past the end is addressable
	assert.NoError(t, DrawText(fr, 0, 0, txt, 0, 3))
	err := DrawTextWithControl(fr, 0, 0, txt, 0, 4, frame.DrawControl{WithCursor: true, CursorPos: 3})
	assert.NoError(t, err)
}

func TestGlyphInfoNeighbors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.draw")
	defer teardown()
	fr, _ := testFrame(t)
	txt := mtext.NewText("abc")
	info, err := Info(fr, txt, 0, 3, 1, frame.DrawControl{})
	assert.NoError(t, err)
	assert.Equal(t, 1, info.From)
	assert.Equal(t, 2, info.To)
	assert.Equal(t, 10, info.X)
	assert.Equal(t, 0, info.PrevFrom)
	assert.Equal(t, 2, info.NextFrom)
	assert.Equal(t, 0, info.LeftFrom)
	assert.Equal(t, 2, info.RightFrom)
	assert.NotNil(t, info.Font)
}

func TestGlyphInfoAcrossLines(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.draw")
	defer teardown()
	fr, _ := testFrame(t)
	txt := mtext.NewText("a\nb")
	ctl := frame.DrawControl{TwoDimensional: true}
	info, err := Info(fr, txt, 0, 3, 2, ctl)
	assert.NoError(t, err)
	assert.Equal(t, 2, info.LineFrom, "'b' lives on the second line")
	assert.Equal(t, 3, info.LineTo)
	assert.Equal(t, 1, info.PrevFrom, "the logical predecessor is the newline on line one")
	assert.Equal(t, -1, info.NextFrom)
	assert.Equal(t, 15, info.Y, "second baseline is descent 5 + ascent 10 below")
}

func TestHitTesting(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.draw")
	defer teardown()
	fr, _ := testFrame(t)
	txt := mtext.NewText("abc")
	for x, want := range map[int]int{0: 0, 9: 0, 10: 1, 25: 2} {
		pos, err := CoordinatesPosition(fr, txt, 0, 3, x, 0, frame.DrawControl{})
		assert.NoError(t, err)
		assert.Equal(t, want, pos, "x=%d", x)
	}
	pos, err := CoordinatesPosition(fr, txt, 0, 3, 99, 0, frame.DrawControl{})
	assert.NoError(t, err)
	assert.Equal(t, 3, pos, "beyond the line end lies the end position")

	// a trailing newline keeps the hit on itself in 2-D mode
	txt = mtext.NewText("a\n")
	pos, err = CoordinatesPosition(fr, txt, 0, 2, 99, 0, frame.DrawControl{TwoDimensional: true})
	assert.NoError(t, err)
	assert.Equal(t, 1, pos)
}

func TestPerCharExtents(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.draw")
	defer teardown()
	fr, _ := testFrame(t)
	txt := mtext.NewText("ab")
	ext, err := TextPerCharExtents(fr, txt, 0, 2, frame.DrawControl{})
	assert.NoError(t, err)
	assert.Len(t, ext, 2)
	assert.Equal(t, 0, ext[0].Logical.Min.X)
	assert.Equal(t, 10, ext[0].Logical.Max.X)
	assert.Equal(t, 10, ext[1].Logical.Min.X)
	assert.Equal(t, 20, ext[1].Logical.Max.X)
}

func TestCacheReuseAndInvalidation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.draw")
	defer teardown()
	fr, _ := testFrame(t)
	txt := mtext.NewText("abc")
	ctl := frame.DrawControl{}
	a, err := chainFor(fr, txt, 0, 3, ctl)
	assert.NoError(t, err)
	b, err := chainFor(fr, txt, 0, 3, ctl)
	assert.NoError(t, err)
	assert.Same(t, a, b, "unchanged input reuses the cached chain")

	// a cursor move alone keeps the cache warm
	ctl.WithCursor = true
	ctl.CursorPos = 1
	c, err := chainFor(fr, txt, 0, 3, ctl)
	assert.NoError(t, err)
	assert.Same(t, a, c)

	// any other control change recomposes
	d, err := chainFor(fr, txt, 0, 3, frame.DrawControl{AsImage: true})
	assert.NoError(t, err)
	assert.NotSame(t, a, d)

	// text mutation drops the volatile property
	txt.Insert(1, "x")
	e, err := chainFor(fr, txt, 0, 3, frame.DrawControl{})
	assert.NoError(t, err)
	assert.NotSame(t, a, e)

	ClearCache(txt)
	f, err := chainFor(fr, txt, 0, 3, frame.DrawControl{})
	assert.NoError(t, err)
	assert.NotSame(t, e, f, "clearing the cache forces recomposition")
}

func TestWidthInvariant(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.draw")
	defer teardown()
	fr, _ := testFrame(t)
	txt := mtext.NewText("ab cd\tef")
	gs, err := ComposeLines(fr, txt, 0, txt.Len(), frame.DrawControl{})
	assert.NoError(t, err)
	sum := 0
	for _, g := range gs.Inner() {
		sum += g.XAdv
	}
	assert.Equal(t, sum, gs.Width, "the line width is the sum of the advances")
	for pos := 0; pos < txt.Len(); pos++ {
		covered := false
		for _, g := range gs.Inner() {
			if g.From <= pos && pos < g.To {
				covered = true
			}
		}
		assert.True(t, covered, "every position has a covering glyph")
	}
}
