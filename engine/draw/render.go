package draw

import (
	"image"

	"github.com/npillmayer/mtext/core"
	"github.com/npillmayer/mtext/core/font"
	"github.com/npillmayer/mtext/engine/face"
	"github.com/npillmayer/mtext/engine/frame"
)

// Render draws a laid-out chain of glyph strings on the frame's device.
// x,y name the baseline start of the first line; subsequent lines stack
// below, accumulating line descents and ascents.
func Render(fr *frame.Frame, x, y int, top *frame.GlyphString) error {
	dev := fr.Device
	if dev == nil || !dev.Writable() {
		return core.Error(core.EREADONLY, "frame device %q accepts no output", deviceName(dev))
	}
	for line := top; line != nil; line = line.Next {
		if line != top {
			y += line.LineAscent
		}
		renderLine(dev, x, y, line)
		y += line.LineDescent
	}
	return nil
}

func deviceName(dev frame.DeviceDriver) string {
	if dev == nil {
		return "none"
	}
	return dev.Name()
}

// renderLine draws one glyph string: backgrounds first, then the cursor,
// then per-face glyph runs with their decorations.
func renderLine(dev frame.DeviceDriver, x, y int, line *frame.GlyphString) {
	ctl := line.Control
	reg := ctl.ClipRegion
	runs := faceRuns(line)
	if ctl.PartialUpdate && reg != nil {
		reg = expandClip(reg, x, y, line, runs)
	}

	top := y - line.LineAscent
	height := line.LineAscent + line.LineDescent
	for _, run := range runs {
		rface := run.rface
		if rface == nil {
			continue
		}
		if ctl.AsImage || rface.VideoReverse {
			bg := rface.Background
			if rface.VideoReverse {
				bg = rface.Foreground
			}
			dev.FillSpace(runX(x, line, run), top, run.width, height, bg, reg)
		}
	}

	if ctl.WithCursor && ctl.CursorPos >= line.From && ctl.CursorPos <= line.To {
		drawCursor(dev, x, y, line, reg)
	}

	for _, run := range runs {
		drawRunGlyphs(dev, runX(x, line, run), y, line, run, reg)
	}
	for _, run := range runs {
		if run.rface == nil || run.rface.HLine == nil {
			continue
		}
		hl := *run.rface.HLine
		dev.DrawHLine(runX(x, line, run), hlineY(y, line, hl), run.width, hl, hl.Color, reg)
	}
	drawBoxes(dev, x, y, line, reg)
}

// faceRun is a maximal run of consecutive glyphs sharing a realized face.
type faceRun struct {
	lo, hi int // glyph index range in line.Glyphs
	start  int // x offset of the run from the line start
	width  int
	rface  *frame.RealizedFace
}

func faceRuns(line *frame.GlyphString) []faceRun {
	var runs []faceRun
	x := line.Indent
	for i := 0; i < len(line.Glyphs); {
		g := line.Glyphs[i]
		if g.Type == frame.GlyphAnchor {
			i++
			continue
		}
		run := faceRun{lo: i, start: x, rface: g.RFace}
		for i < len(line.Glyphs) && line.Glyphs[i].Type != frame.GlyphAnchor && line.Glyphs[i].RFace == g.RFace {
			run.width += line.Glyphs[i].XAdv
			i++
		}
		run.hi = i
		x += run.width
		runs = append(runs, run)
	}
	return runs
}

// runX maps a run's logical x offset to device space, mirroring it for
// reversed orientation.
func runX(x int, line *frame.GlyphString, run faceRun) int {
	if line.Control.OrientationReversed {
		return x - run.start - run.width
	}
	return x + run.start
}

// drawRunGlyphs splits a face run into covered and uncovered stretches:
// covered glyphs go to DrawGlyphs, uncovered ones render as empty boxes.
func drawRunGlyphs(dev frame.DeviceDriver, x, y int, line *frame.GlyphString, run faceRun, reg *frame.Region) {
	reverse := line.Control.OrientationReversed
	gx := x
	for i := run.lo; i < run.hi; {
		j := i
		w := 0
		missing := glyphMissing(line.Glyphs[i])
		for j < run.hi && glyphMissing(line.Glyphs[j]) == missing {
			w += line.Glyphs[j].XAdv
			j++
		}
		if missing {
			dev.DrawEmptyBoxes(gx, y, line, i, j, reg)
		} else {
			dev.DrawGlyphs(gx, y, line, i, j, reverse, reg)
		}
		gx += w
		i = j
	}
}

func glyphMissing(g frame.Glyph) bool {
	return g.Type == frame.GlyphChar && g.Code == font.InvalidCode
}

// hlineY positions a decoration line relative to the baseline.
func hlineY(y int, line *frame.GlyphString, hl face.HLineSpec) int {
	switch hl.Style {
	case face.HLineOver:
		return y - line.TextAscent
	case face.HLineStrike:
		return y - line.TextAscent/3
	case face.HLineUnder:
		return y + 2
	}
	return y + line.TextDescent - hl.Width
}

// drawCursor paints the text cursor as a filled rectangle. With a bidi
// cursor the box carries a small directional tick at the top.
func drawCursor(dev frame.DeviceDriver, x, y int, line *frame.GlyphString, reg *frame.Region) {
	ctl := line.Control
	cx := line.Indent
	for _, g := range line.Inner() {
		if g.From >= ctl.CursorPos {
			break
		}
		cx += g.XAdv
	}
	if ctl.OrientationReversed {
		cx = -cx
	}
	w := ctl.CursorWidth
	if w <= 0 {
		w = 1
	}
	top := y - line.LineAscent
	height := line.LineAscent + line.LineDescent
	fg := "black"
	if rf := line.Frame.DefaultRealizedFace(); rf != nil {
		fg = rf.Foreground
	}
	dev.FillSpace(x+cx, top, w, height, fg, reg)
	if ctl.CursorBidi {
		dev.FillSpace(x+cx, top, w+2, 2, fg, reg)
	}
}

// drawBoxes emits one DrawBox per span bracketed by BOX glyphs.
func drawBoxes(dev frame.DeviceDriver, x, y int, line *frame.GlyphString, reg *frame.Region) {
	cx := line.Indent
	open := -1
	openX := 0
	for _, g := range line.Glyphs {
		if g.Type == frame.GlyphAnchor {
			continue
		}
		if g.Type == frame.GlyphBox && g.RFace != nil && g.RFace.Box != nil {
			if open < 0 {
				open = 1
				openX = cx
			} else {
				box := *g.RFace.Box
				w := cx + g.XAdv - openX
				top := y - line.TextAscent - box.VMargin - box.Width
				h := line.TextAscent + line.TextDescent + 2*(box.VMargin+box.Width)
				bx := openX
				if line.Control.OrientationReversed {
					bx = -openX - w
				}
				dev.DrawBox(x+bx, top, w, h, box, reg)
				open = -1
			}
		}
		cx += g.XAdv
	}
}

// expandClip widens a partial-update clip so that glyphs whose ink
// crosses the clip edge repaint completely.
func expandClip(reg *frame.Region, x, y int, line *frame.GlyphString, runs []faceRun) *frame.Region {
	bound := reg.Enclosing()
	left, right := bound.Min.X, bound.Max.X
	for _, run := range runs {
		gx := runX(x, line, run)
		for i := run.lo; i < run.hi; i++ {
			g := line.Glyphs[i]
			lo, hi := gx+g.LBearing, gx+g.RBearing
			if lo < left && hi > left {
				left = lo
			}
			if hi > right && lo < right {
				right = hi
			}
			gx += g.XAdv
		}
	}
	if left == bound.Min.X && right == bound.Max.X {
		return reg
	}
	return frame.RegionFromRect(image.Rect(left, bound.Min.Y, right, bound.Max.Y))
}
