package frame

import (
	"image"

	"github.com/npillmayer/mtext/engine/face"
)

// Region is a union of rectangles, used to clip drawing operations.
type Region struct {
	rects []image.Rectangle
}

// RegionFromRect creates a region covering a single rectangle.
func RegionFromRect(r image.Rectangle) *Region {
	rg := &Region{}
	rg.AddRect(r)
	return rg
}

// AddRect extends the region by a rectangle.
func (rg *Region) AddRect(r image.Rectangle) {
	if r.Empty() {
		return
	}
	rg.rects = append(rg.rects, r)
}

// UnionRect is AddRect, kept as a separate name for drivers that
// distinguish merging from appending.
func (rg *Region) UnionRect(r image.Rectangle) {
	rg.AddRect(r)
}

// Intersect clips the region against another region. A nil other leaves
// the region unchanged.
func (rg *Region) Intersect(other *Region) {
	if other == nil {
		return
	}
	var clipped []image.Rectangle
	for _, a := range rg.rects {
		for _, b := range other.rects {
			if c := a.Intersect(b); !c.Empty() {
				clipped = append(clipped, c)
			}
		}
	}
	rg.rects = clipped
}

// Enclosing returns the bounding rectangle of the region.
func (rg *Region) Enclosing() image.Rectangle {
	var bound image.Rectangle
	for _, r := range rg.rects {
		bound = bound.Union(r)
	}
	return bound
}

// Contains reports whether a pixel lies within the region. A nil region
// contains everything.
func (rg *Region) Contains(x, y int) bool {
	if rg == nil {
		return true
	}
	p := image.Pt(x, y)
	for _, r := range rg.rects {
		if p.In(r) {
			return true
		}
	}
	return false
}

// Rects returns the rectangles the region consists of. Callers must not
// modify the slice.
func (rg *Region) Rects() []image.Rectangle {
	if rg == nil {
		return nil
	}
	return rg.rects
}

// Empty reports whether the region covers no pixels.
func (rg *Region) Empty() bool {
	return rg != nil && len(rg.rects) == 0
}

// Reset empties the region for reuse.
func (rg *Region) Reset() {
	rg.rects = rg.rects[:0]
}

// DeviceDriver is the interface the rendering dispatch draws through.
// Coordinates are pixels relative to the device origin; x,y name the
// baseline start of a run. Glyph indices from/to index gs.Glyphs.
//
// Drivers ignore a nil region and clip against a non-nil one.
type DeviceDriver interface {
	// Name identifies the driver.
	Name() string
	// Writable reports whether the device accepts output at all.
	Writable() bool
	// FillSpace paints a background rectangle.
	FillSpace(x, y, w, h int, color string, reg *Region)
	// DrawGlyphs renders the glyphs [from,to) of a laid-out string.
	// reverse requests right-to-left placement. The drawing control
	// travels with gs; drivers honor its AntiAlias hint.
	DrawGlyphs(x, y int, gs *GlyphString, from, to int, reverse bool, reg *Region)
	// DrawEmptyBoxes renders placeholder rectangles for glyphs without a
	// covering font.
	DrawEmptyBoxes(x, y int, gs *GlyphString, from, to int, reg *Region)
	// DrawHLine renders a horizontal decoration line of length w.
	DrawHLine(x, y, w int, hline face.HLineSpec, color string, reg *Region)
	// DrawBox renders a surrounding box of outer size w × h.
	DrawBox(x, y, w, h int, box face.BoxSpec, reg *Region)
}
