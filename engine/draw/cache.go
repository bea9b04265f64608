package draw

import (
	"github.com/npillmayer/mtext/core/mtext"
	"github.com/npillmayer/mtext/engine/frame"
)

// Composed glyph strings are cached as volatile text properties over
// their source range. A cached chain is reusable when the text, the
// frame tick and the drawing control (modulo cursor fields) all still
// match; volatile properties drop out on any text mutation anyway.

// cachedChain looks up a reusable glyph string chain for [from,to).
// A hit with moved cursor fields gets its space advances refreshed.
func cachedChain(fr *frame.Frame, t *mtext.Text, from, to int, ctl frame.DrawControl) *frame.GlyphString {
	if t == nil || ctl.DisableCaching {
		return nil
	}
	for _, v := range t.Props(from, mtext.SymGlyphString) {
		gs, ok := v.(*frame.GlyphString)
		if !ok || gs.Frame != fr {
			continue
		}
		if gs.From != from || chainEnd(gs) != to {
			continue
		}
		if gs.ModCount != t.ModCount() || gs.Tick != fr.Tick() {
			continue
		}
		if !gs.Control.CursorOnlyDiff(ctl) {
			continue
		}
		refreshCursor(gs, ctl)
		return gs
	}
	return nil
}

// storeChain caches a chain under its source range.
func storeChain(t *mtext.Text, gs *frame.GlyphString) {
	if t == nil || gs == nil || gs.Control.DisableCaching {
		return
	}
	t.PushVolatileProp(gs.From, chainEnd(gs), mtext.SymGlyphString, gs)
}

func chainEnd(gs *frame.GlyphString) int {
	end := gs.To
	for line := gs.Next; line != nil; line = line.Next {
		end = line.To
	}
	return end
}

// refreshCursor adopts new cursor settings into a cached chain. Newline
// advances depend on the cursor shape, so they are recomputed when that
// shape changed.
func refreshCursor(gs *frame.GlyphString, ctl frame.DrawControl) {
	old := gs.Control
	shapeChanged := old.WithCursor != ctl.WithCursor ||
		old.CursorWidth != ctl.CursorWidth ||
		old.CursorBidi != ctl.CursorBidi
	for line := gs; line != nil; line = line.Next {
		line.Control = ctl
		if shapeChanged {
			for i := range line.Glyphs {
				g := &line.Glyphs[i]
				if g.Type == frame.GlyphSpace && g.Char == '\n' {
					g.XAdv = newlineAdvance(ctl, g.RFace)
					g.RBearing = g.XAdv
				}
			}
			lineMetrics(line)
		}
	}
}

// ClearCache drops all cached glyph strings of a text.
func ClearCache(t *mtext.Text) {
	if t != nil {
		t.RemoveProps(mtext.SymGlyphString)
	}
}
