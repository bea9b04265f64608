package draw

import (
	"github.com/npillmayer/mtext/core/font"
	"github.com/npillmayer/mtext/engine/face"
	"github.com/npillmayer/mtext/engine/frame"
)

// Layout fills per-glyph metrics and advances of a shaped glyph string
// and computes the line-level metrics. Pads for protruding side bearings
// and box-delimiter glyphs are inserted here.
func Layout(gs *frame.GlyphString) {
	measureGlyphs(gs)
	spaceAdvances(gs)
	if !gs.Control.DisableOverlappingAdjustment {
		insertPads(gs)
	}
	insertBoxGlyphs(gs)
	if gs.Control.OrientationReversed {
		reversedTabPass(gs)
	}
	lineMetrics(gs)
}

// measureGlyphs queries the font for every unmeasured CHAR glyph and
// positions combining marks relative to their base.
func measureGlyphs(gs *frame.GlyphString) {
	fr := gs.Frame
	for i := range gs.Glyphs {
		g := &gs.Glyphs[i]
		if g.Type != frame.GlyphChar || g.Measured {
			continue
		}
		rface := g.RFace
		rfont := rface.Font
		if rfont == nil || !g.Enabled {
			missingGlyph(g, rface)
			continue
		}
		if !g.OTFEncoded {
			g.Code = fr.Fonts.Encode(rfont, g.Char)
		}
		if g.Code == font.InvalidCode {
			missingGlyph(g, rface)
			continue
		}
		m, ok := fr.Fonts.Metrics(rfont, g.Code)
		if !ok {
			missingGlyph(g, rface)
			continue
		}
		g.XAdv, g.YAdv = m.XAdvance, m.YAdvance
		g.Ascent, g.Descent = m.Ascent, m.Descent
		g.LBearing, g.RBearing = m.LBearing, m.RBearing
		g.XOff, g.YOff = m.XOffset, m.YOffset
		g.Measured = true
	}
	for i := range gs.Glyphs {
		if gs.Glyphs[i].Combining != 0 {
			placeCombining(gs, i)
		}
	}
}

// missingGlyph gives a glyph without a covering font the face's average
// width and full face height; rendering draws it as an empty box.
func missingGlyph(g *frame.Glyph, rface *frame.RealizedFace) {
	g.Code = font.InvalidCode
	g.XAdv = rface.AverageWidth
	g.Ascent = rface.Ascent
	g.Descent = rface.Descent
	g.LBearing = 0
	g.RBearing = g.XAdv
	g.Measured = true
}

// placeCombining positions a combining glyph onto the preceding base
// glyph according to its packed anchor code. y grows downward.
func placeCombining(gs *frame.GlyphString, i int) {
	g := &gs.Glyphs[i]
	base := i - 1
	for base >= 0 && (gs.Glyphs[base].Combining != 0 || gs.Glyphs[base].Type == frame.GlyphAnchor) {
		base--
	}
	if base < 0 {
		return
	}
	b := gs.Glyphs[base]
	bv, bh := frame.CombiningBase(g.Combining)
	av, ah := frame.CombiningAdd(g.Combining)
	offX, offY := frame.CombiningOffset(g.Combining)
	baseX := anchorX(bh, b.XAdv)
	baseY := anchorY(bv, b.Ascent, b.Descent)
	markX := anchorX(ah, g.XAdv)
	markY := anchorY(av, g.Ascent, g.Descent)
	size := 10
	if g.RFace != nil {
		size = g.RFace.Size
	}
	g.XOff = baseX - markX - b.XAdv + offX*size/10
	g.YOff = baseY - markY + offY*size/10
	// the mark occupies its base's horizontal space
	markAscent := g.Ascent - g.YOff
	markDescent := g.Descent + g.YOff
	if markAscent > 0 {
		g.Ascent = markAscent
	} else {
		g.Ascent = 0
	}
	if markDescent > 0 {
		g.Descent = markDescent
	} else {
		g.Descent = 0
	}
	g.XAdv = 0
}

func anchorX(h frame.HPos, width int) int {
	switch h {
	case frame.HLeft:
		return 0
	case frame.HRight:
		return width
	}
	return width / 2
}

func anchorY(v frame.VPos, ascent, descent int) int {
	switch v {
	case frame.VTop:
		return -ascent
	case frame.VBottom:
		return descent
	case frame.VCenter:
		return (descent - ascent) / 2
	}
	return 0 // the baseline
}

// spaceAdvances assigns advances to SPACE glyphs: the face's space width
// for blanks, the cursor width for newlines, tab-stop filling for tabs.
func spaceAdvances(gs *frame.GlyphString) {
	ctl := gs.Control
	running := 0
	for i := range gs.Glyphs {
		g := &gs.Glyphs[i]
		if g.Type == frame.GlyphSpace && !g.Measured {
			switch g.Char {
			case '\n':
				g.XAdv = newlineAdvance(ctl, g.RFace)
			case '\t':
				g.XAdv = tabAdvance(gs, gs.Indent+running)
			default:
				g.XAdv = g.RFace.SpaceWidth
				g.Ascent = g.RFace.Ascent
				g.Descent = g.RFace.Descent
			}
			g.RBearing = g.XAdv
			g.Measured = true
		}
		if g.Type != frame.GlyphAnchor {
			running += g.XAdv
		}
	}
}

func newlineAdvance(ctl frame.DrawControl, rface *frame.RealizedFace) int {
	if !ctl.WithCursor {
		return 1
	}
	if ctl.CursorBidi {
		return 3
	}
	if ctl.CursorWidth > 0 {
		return ctl.CursorWidth
	}
	return rface.SpaceWidth
}

func tabAdvance(gs *frame.GlyphString, pos int) int {
	unit := gs.Frame.SpaceWidth * gs.Control.EffectiveTabWidth()
	if unit <= 0 {
		return gs.Frame.SpaceWidth
	}
	return unit - pos%unit
}

// reversedTabPass recomputes tab advances walking right to left, so that
// tab stops count from the right edge in mirrored layout.
func reversedTabPass(gs *frame.GlyphString) {
	running := 0
	for i := len(gs.Glyphs) - 1; i >= 0; i-- {
		g := &gs.Glyphs[i]
		if g.Type == frame.GlyphSpace && g.Char == '\t' {
			g.XAdv = tabAdvance(gs, gs.Indent+running)
			g.RBearing = g.XAdv
		}
		if g.Type != frame.GlyphAnchor {
			running += g.XAdv
		}
	}
}

// insertPads compensates protruding side bearings: a cluster whose first
// glyph paints left of its origin gets a PAD before it, one whose last
// glyph paints beyond its advance gets a PAD after it. An adjacent SPACE
// wide enough absorbs the pad instead: it shrinks by the pad width,
// keeping at least 2 pixels, and no pad is inserted.
func insertPads(gs *frame.GlyphString) {
	for i := 1; i < len(gs.Glyphs)-1; i++ {
		g := gs.Glyphs[i]
		if g.Type != frame.GlyphChar {
			continue
		}
		lo, hi := gs.ClusterAt(i)
		if i == lo && (g.LBearing < 0 || g.LeftPadding) {
			pad := -g.LBearing
			if pad <= 0 {
				pad = g.RFace.SpaceWidth / 2
			}
			if absorbed := absorbPad(gs, i-1, pad); !absorbed {
				gs.InsertAt(i, frame.Glyph{
					From: g.From, To: g.To,
					RFace: g.RFace,
					Type:  frame.GlyphPad,
					Level: g.Level,
					XAdv:  pad,
				})
				i++
			}
		}
		if i == hi-1 && (g.RBearing > g.XAdv || g.RightPadding) {
			pad := g.RBearing - g.XAdv
			if pad <= 0 {
				pad = g.RFace.SpaceWidth / 2
			}
			if absorbed := absorbPad(gs, i+1, pad); !absorbed {
				gs.InsertAt(i+1, frame.Glyph{
					From: g.From, To: g.To,
					RFace: g.RFace,
					Type:  frame.GlyphPad,
					Level: g.Level,
					XAdv:  pad,
				})
				i++
			}
		}
	}
}

// absorbPad lets a SPACE at index i accommodate a pad of the given width
// by shrinking its advance, keeping at least 2 pixels. It reports whether
// the pad was absorbed.
func absorbPad(gs *frame.GlyphString, i int, pad int) bool {
	if i <= 0 || i >= len(gs.Glyphs)-1 {
		return false
	}
	g := &gs.Glyphs[i]
	if g.Type != frame.GlyphSpace || g.XAdv-pad < 2 {
		return false
	}
	g.XAdv -= pad
	if g.RBearing > g.XAdv {
		g.RBearing = g.XAdv
	}
	return true
}

// insertBoxGlyphs brackets every maximal span of glyphs whose face
// carries a box with BOX delimiter glyphs.
func insertBoxGlyphs(gs *frame.GlyphString) {
	for i := 1; i < len(gs.Glyphs)-1; i++ {
		g := gs.Glyphs[i]
		if g.RFace == nil || g.RFace.Box == nil {
			continue
		}
		box := g.RFace.Box
		prev := gs.Glyphs[i-1]
		if prev.RFace == nil || prev.RFace.Box != box {
			gs.InsertAt(i, boxGlyph(g, box, gs.Control))
			i++
		}
		// find the end of the box span
		j := i
		for j < len(gs.Glyphs)-1 && gs.Glyphs[j].RFace != nil && gs.Glyphs[j].RFace.Box == box {
			j++
		}
		last := gs.Glyphs[j-1]
		gs.InsertAt(j, boxGlyph(last, box, gs.Control))
		i = j
	}
}

func boxGlyph(near frame.Glyph, box *face.BoxSpec, ctl frame.DrawControl) frame.Glyph {
	adv := box.HMargin + box.Width + box.HMargin
	if ctl.FixedWidth {
		adv = near.RFace.SpaceWidth
	}
	return frame.Glyph{
		From: near.From, To: near.To,
		RFace: near.RFace,
		Type:  frame.GlyphBox,
		Level: near.Level,
		XAdv:  adv,
	}
}

// lineMetrics aggregates glyph metrics into the string's line metrics
// and clamps them against the control's limits.
func lineMetrics(gs *frame.GlyphString) {
	ctl := gs.Control
	physA, physD := 0, 0
	faceA, faceD := 0, 0
	boxV := 0
	width := 0
	lb, rb := 0, 0
	x := 0
	for _, g := range gs.Glyphs {
		if g.Type == frame.GlyphAnchor {
			continue
		}
		if g.Ascent > physA {
			physA = g.Ascent
		}
		if g.Descent > physD {
			physD = g.Descent
		}
		if g.RFace != nil {
			if g.RFace.Ascent > faceA {
				faceA = g.RFace.Ascent
			}
			if g.RFace.Descent > faceD {
				faceD = g.RFace.Descent
			}
			if g.RFace.Box != nil {
				v := g.RFace.Box.VMargin + g.RFace.Box.Width
				if v > boxV {
					boxV = v
				}
			}
		}
		if x+g.LBearing < lb {
			lb = x + g.LBearing
		}
		if x+g.RBearing > rb {
			rb = x + g.RBearing
		}
		x += g.XAdv
		width += g.XAdv
	}
	gs.PhysicalAscent, gs.PhysicalDescent = physA, physD
	gs.TextAscent = maxInt(physA, faceA)
	gs.TextDescent = maxInt(physD, faceD)
	gs.Ascent, gs.Descent = gs.TextAscent, gs.TextDescent
	gs.LineAscent = gs.TextAscent + boxV
	gs.LineDescent = gs.TextDescent + boxV
	if ctl.MinLineAscent > 0 && gs.LineAscent < ctl.MinLineAscent {
		gs.LineAscent = ctl.MinLineAscent
	}
	if ctl.MaxLineAscent > 0 && gs.LineAscent > ctl.MaxLineAscent {
		gs.LineAscent = ctl.MaxLineAscent
	}
	if ctl.MinLineDescent > 0 && gs.LineDescent < ctl.MinLineDescent {
		gs.LineDescent = ctl.MinLineDescent
	}
	if ctl.MaxLineDescent > 0 && gs.LineDescent > ctl.MaxLineDescent {
		gs.LineDescent = ctl.MaxLineDescent
	}
	gs.Width = width
	gs.Height = gs.LineAscent + gs.LineDescent
	gs.LBearing, gs.RBearing = lb, rb
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
