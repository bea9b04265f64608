package draw

import (
	"image"

	"github.com/npillmayer/mtext/core/font"
	"github.com/npillmayer/mtext/engine/frame"
)

// GlyphInfo describes the glyph covering one text position, with its
// logical and visual neighbors. Neighbor ranges are (-1,-1) where no
// neighbor exists.
type GlyphInfo struct {
	LineFrom, LineTo   int             // character range of the physical line
	From, To           int             // character range of the cluster
	X, Y               int             // pixel position relative to the draw origin
	Extents            image.Rectangle // ink box of the cluster
	PrevFrom, PrevTo   int             // logically previous glyph
	NextFrom, NextTo   int             // logically following glyph
	LeftFrom, LeftTo   int             // visually left neighbor
	RightFrom, RightTo int             // visually right neighbor
	Font               *font.RealizedFont
}

// GlyphData is one entry of a glyph-list query: the layout result of a
// single glyph in draw order.
type GlyphData struct {
	From, To           int
	Char               rune
	Code               uint32
	X, Y               int
	XAdv, YAdv         int
	Ascent, Descent    int
	LBearing, RBearing int
	Font               *font.RealizedFont
}

// Extents bundles the three extent boxes of a measuring query. The
// baseline of the first line is y = 0; ascents extend into negative y.
type Extents struct {
	Ink     image.Rectangle
	Logical image.Rectangle
	Line    image.Rectangle
}

// CharExtents is the per-character variant: the union of the boxes of
// all glyphs stemming from one character position.
type CharExtents struct {
	From, To int
	Ink      image.Rectangle
	Logical  image.Rectangle
}

// lineAt locates the chain line containing position pos and its baseline
// y offset. The last line takes all trailing positions.
func lineAt(top *frame.GlyphString, pos int) (*frame.GlyphString, int) {
	y := 0
	line := top
	for line.Next != nil && pos >= line.To {
		y += line.LineDescent + line.Next.LineAscent
		line = line.Next
	}
	return line, y
}

// glyphInfoAt fills a GlyphInfo for position pos within a chain.
func glyphInfoAt(top *frame.GlyphString, pos int) (GlyphInfo, bool) {
	line, y := lineAt(top, pos)
	info := GlyphInfo{
		LineFrom: line.From, LineTo: line.To,
		PrevFrom: -1, PrevTo: -1,
		NextFrom: -1, NextTo: -1,
		LeftFrom: -1, LeftTo: -1,
		RightFrom: -1, RightTo: -1,
	}
	idx := -1
	x := line.Indent
	for i, g := range line.Glyphs {
		if g.Type != frame.GlyphAnchor && g.From <= pos && pos < g.To {
			idx = i
			break
		}
		if g.Type != frame.GlyphAnchor {
			x += g.XAdv
		}
	}
	if idx < 0 {
		return info, false
	}
	lo, hi := line.ClusterAt(idx)
	cluster := line.Glyphs[lo:hi]
	info.From, info.To = cluster[0].From, cluster[0].To
	for _, g := range cluster {
		if g.To > info.To {
			info.To = g.To
		}
	}
	info.X, info.Y = x, y
	info.Extents = clusterInk(cluster, x, y)
	if f := line.Glyphs[idx].RFace; f != nil {
		info.Font = f.Font
	}

	// visual neighbors are the adjacent non-anchor glyphs
	if lo > 1 {
		l := line.Glyphs[lo-1]
		info.LeftFrom, info.LeftTo = l.From, l.To
	}
	if hi < len(line.Glyphs)-1 {
		r := line.Glyphs[hi]
		info.RightFrom, info.RightTo = r.From, r.To
	}
	if line.Control.OrientationReversed {
		info.LeftFrom, info.RightFrom = info.RightFrom, info.LeftFrom
		info.LeftTo, info.RightTo = info.RightTo, info.LeftTo
	}

	// logical neighbors may live on adjacent lines
	if info.From > top.From {
		if prev, ok := glyphRangeAt(top, info.From-1); ok {
			info.PrevFrom, info.PrevTo = prev.Min, prev.Max
		}
	}
	if info.To < chainEnd(top) {
		if next, ok := glyphRangeAt(top, info.To); ok {
			info.NextFrom, info.NextTo = next.Min, next.Max
		}
	}
	return info, true
}

type span struct{ Min, Max int }

func glyphRangeAt(top *frame.GlyphString, pos int) (span, bool) {
	line, _ := lineAt(top, pos)
	for i, g := range line.Glyphs {
		if g.Type != frame.GlyphAnchor && g.From <= pos && pos < g.To {
			lo, hi := line.ClusterAt(i)
			s := span{Min: line.Glyphs[lo].From, Max: line.Glyphs[lo].To}
			for _, c := range line.Glyphs[lo:hi] {
				if c.To > s.Max {
					s.Max = c.To
				}
			}
			return s, true
		}
	}
	return span{}, false
}

func clusterInk(cluster []frame.Glyph, x, y int) image.Rectangle {
	box := image.Rectangle{}
	cx := x
	for _, g := range cluster {
		r := image.Rect(cx+g.LBearing, y-g.Ascent, cx+g.RBearing, y+g.Descent)
		box = box.Union(r)
		cx += g.XAdv
	}
	return box
}

// hitPosition maps device coordinates relative to the draw origin onto a
// text position. y selects the line, x the glyph within it.
func hitPosition(top *frame.GlyphString, x, y int) int {
	line := top
	ly := -top.LineAscent
	for line.Next != nil && y >= ly+line.LineAscent+line.LineDescent {
		ly += line.LineAscent + line.LineDescent
		line = line.Next
	}
	if line.Control.OrientationReversed {
		x = -x
	}
	x -= line.Indent
	cum := 0
	var last *frame.Glyph
	for i := range line.Glyphs {
		g := &line.Glyphs[i]
		if g.Type == frame.GlyphAnchor {
			continue
		}
		last = g
		if x < cum+g.XAdv {
			return g.From
		}
		cum += g.XAdv
	}
	if last == nil {
		return line.From
	}
	// past the line end; a trailing newline keeps the hit on itself
	if line.Control.TwoDimensional && last.Type == frame.GlyphSpace && last.Char == '\n' {
		return last.From
	}
	return line.To
}

// measureChain computes the overall advance and the extent boxes of a
// chain. Multi-line chains stack their boxes along y.
func measureChain(top *frame.GlyphString) (int, Extents) {
	var ext Extents
	width := 0
	y := 0
	for line := top; line != nil; line = line.Next {
		if line != top {
			y += line.LineAscent
		}
		x0 := line.Indent
		ink := image.Rect(x0+line.LBearing, y-line.PhysicalAscent, x0+line.RBearing, y+line.PhysicalDescent)
		logical := image.Rect(x0, y-line.Ascent, x0+line.Width, y+line.Descent)
		lineBox := image.Rect(x0, y-line.LineAscent, x0+line.Width, y+line.LineDescent)
		ext.Ink = ext.Ink.Union(ink)
		ext.Logical = ext.Logical.Union(logical)
		ext.Line = ext.Line.Union(lineBox)
		if x0+line.Width > width {
			width = x0 + line.Width
		}
		y += line.LineDescent
	}
	return width, ext
}

// perCharExtents computes the union-of-cluster boxes for each character
// position of a chain. Characters sharing a cluster share its boxes.
func perCharExtents(top *frame.GlyphString) []CharExtents {
	var out []CharExtents
	y := 0
	for line := top; line != nil; line = line.Next {
		if line != top {
			y += line.LineAscent
		}
		x := line.Indent
		glyphs := line.Inner()
		for i := 0; i < len(glyphs); {
			from := glyphs[i].From
			j := i
			w := 0
			to := glyphs[i].To
			for j < len(glyphs) && glyphs[j].From == from {
				if glyphs[j].To > to {
					to = glyphs[j].To
				}
				w += glyphs[j].XAdv
				j++
			}
			ce := CharExtents{
				From:    from,
				To:      to,
				Ink:     clusterInk(glyphs[i:j], x, y),
				Logical: image.Rect(x, y-line.Ascent, x+w, y+line.Descent),
			}
			for p := from; p < to; p++ {
				out = append(out, ce)
			}
			x += w
			i = j
		}
		y += line.LineDescent
	}
	return out
}

// glyphList flattens a chain into draw-order glyph data.
func glyphList(top *frame.GlyphString) []GlyphData {
	var out []GlyphData
	y := 0
	for line := top; line != nil; line = line.Next {
		if line != top {
			y += line.LineAscent
		}
		x := line.Indent
		for _, g := range line.Inner() {
			gd := GlyphData{
				From: g.From, To: g.To,
				Char: g.Char, Code: g.Code,
				X: x + g.XOff, Y: y + g.YOff,
				XAdv: g.XAdv, YAdv: g.YAdv,
				Ascent: g.Ascent, Descent: g.Descent,
				LBearing: g.LBearing, RBearing: g.RBearing,
			}
			if g.RFace != nil {
				gd.Font = g.RFace.Font
			}
			out = append(out, gd)
			x += g.XAdv
		}
		y += line.LineDescent
	}
	return out
}
