/*
Package monospace implements a fixed-cell font driver.

Every code-point occupies an integral number of cells, determined by its
East Asian width (UAX#11). The driver needs no font files, which makes it
the natural choice for terminal-like frames and for deterministic tests of
the layout engine.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2021–2023 Norbert Pillmayer <norbert@pillmayer.com>

*/
package monospace

import (
	"strings"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/uax/grapheme"
	"github.com/npillmayer/uax/segment"
	"github.com/npillmayer/uax/uax11"

	"github.com/npillmayer/mtext/core"
	mfont "github.com/npillmayer/mtext/core/font"
)

// tracer traces with key 'mtext.fonts'.
func tracer() tracing.Trace {
	return tracing.Select("mtext.fonts")
}

// Driver is a fixed-cell font driver. Coverage may be restricted to force
// the missing-font path in tests.
type Driver struct {
	Cell     int              // cell width in pixels; 0 means the font size
	Coverage func(rune) bool  // nil covers everything
	context  *uax11.Context   // East Asian width context
}

// New creates a monospace driver for a Latin context.
func New() *Driver {
	grapheme.SetupGraphemeClasses() // uax11.Width depends on grapheme classes
	return &Driver{context: uax11.LatinContext}
}

var _ mfont.Driver = &Driver{}

// Name returns "monospace".
func (*Driver) Name() string {
	return "monospace"
}

// Select accepts any spec; the font is a grid of cells.
func (d *Driver) Select(spec *mfont.Spec, sizeLimit int) (*mfont.RealizedFont, error) {
	if spec == nil {
		return nil, core.Error(core.EINVALID, "monospace: cannot select a nil spec")
	}
	size := mfont.PixelSize(spec.Size, 0)
	if size <= 0 {
		size = 10
	}
	if sizeLimit > 0 && size > sizeLimit {
		size = sizeLimit
	}
	return &mfont.RealizedFont{Spec: spec, Size: size, Driver: d}, nil
}

// Open sets the font-wide metrics; it cannot fail.
func (d *Driver) Open(rf *mfont.RealizedFont) error {
	cell := d.Cell
	if cell <= 0 {
		cell = rf.Size
	}
	rf.Ascent = rf.Size
	rf.Descent = rf.Size / 2
	rf.XPpem = rf.Size
	rf.YPpem = rf.Size
	rf.MaxAdvance = 2 * cell
	rf.Status = mfont.StatusOpened
	return nil
}

// HasChar reports coverage of a code-point.
func (d *Driver) HasChar(rf *mfont.RealizedFont, c rune) bool {
	if d.Coverage != nil {
		return d.Coverage(c)
	}
	return true
}

// Encode maps a covered code-point to itself.
func (d *Driver) Encode(rf *mfont.RealizedFont, c rune) uint32 {
	if !d.HasChar(rf, c) {
		return mfont.InvalidCode
	}
	return uint32(c)
}

// Metrics returns cell-multiple metrics: narrow characters take one cell,
// wide East Asian characters two, combining marks none.
func (d *Driver) Metrics(rf *mfont.RealizedFont, code uint32) (mfont.GlyphMetrics, bool) {
	if code == mfont.InvalidCode {
		return mfont.GlyphMetrics{}, false
	}
	cell := d.Cell
	if cell <= 0 {
		cell = rf.Size
	}
	w := uax11.Width([]byte(string(rune(code))), d.ctx())
	m := mfont.GlyphMetrics{
		XAdvance: w * cell,
		LBearing: 0,
		RBearing: w * cell,
		Ascent:   rf.Ascent,
		Descent:  rf.Descent,
	}
	return m, true
}

// ListFamilies reports the single pseudo-family.
func (d *Driver) ListFamilies(prefix string) []string {
	if prefix == "" || strings.HasPrefix("monospace", prefix) {
		return []string{"monospace"}
	}
	return nil
}

func (d *Driver) ctx() *uax11.Context {
	if d.context == nil {
		d.context = uax11.LatinContext
	}
	return d.context
}

// CellCount counts the display cells of a string: the sum of the East
// Asian widths of its grapheme clusters.
func (d *Driver) CellCount(s string) int {
	grapheme.SetupGraphemeClasses()
	onGraphemes := grapheme.NewBreaker(1)
	splitter := segment.NewSegmenter(onGraphemes)
	splitter.Init(strings.NewReader(s))
	cells := 0
	for splitter.Next() {
		cells += uax11.Width(splitter.Bytes(), d.ctx())
	}
	tracer().Debugf("monospace: %q occupies %d cells", s, cells)
	return cells
}
