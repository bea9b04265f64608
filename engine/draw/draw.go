/*
Package draw is the drawing front end of the layout core: it turns an
annotated text plus a frame into glyph strings and paints them on the
frame's device.

The pipeline for a draw or measuring call is composition (one glyph per
character, faces realized, runs narrowed to covering fonts and shaped by
their layout tables), bidi reordering, layout (metrics, advances, pads,
line metrics), optional line breaking, and rendering dispatch. Finished
glyph strings are cached on the text as volatile properties and reused
as long as neither the text, the frame, nor the drawing control (cursor
fields aside) changed.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2021–2023 Norbert Pillmayer <norbert@pillmayer.com>

*/
package draw

import (
	"github.com/npillmayer/mtext/core"
	"github.com/npillmayer/mtext/core/mtext"
	"github.com/npillmayer/mtext/engine/frame"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'mtext.draw'.
func tracer() tracing.Trace {
	return tracing.Select("mtext.draw")
}

// DrawText draws the text range [from,to) at baseline position (x,y),
// foreground only.
func DrawText(fr *frame.Frame, x, y int, t *mtext.Text, from, to int) error {
	return DrawTextWithControl(fr, x, y, t, from, to, frame.DrawControl{})
}

// DrawImageText draws like DrawText, additionally painting the face
// background behind every run.
func DrawImageText(fr *frame.Frame, x, y int, t *mtext.Text, from, to int) error {
	return DrawTextWithControl(fr, x, y, t, from, to, frame.DrawControl{AsImage: true})
}

// DrawTextWithControl draws the text range [from,to) under an explicit
// drawing control. Invalid ranges fail without touching the device.
func DrawTextWithControl(fr *frame.Frame, x, y int, t *mtext.Text, from, to int, ctl frame.DrawControl) error {
	top, err := chainFor(fr, t, from, to, ctl)
	if err != nil {
		return err
	}
	if ctl.AlignHead && top.LBearing < 0 {
		x -= top.LBearing
	}
	return Render(fr, x, y, top)
}

// TextExtents measures the text range without drawing. It returns the
// overall advance width and the ink, logical and line extent boxes, with
// the first baseline at y = 0.
func TextExtents(fr *frame.Frame, t *mtext.Text, from, to int, ctl frame.DrawControl) (int, Extents, error) {
	top, err := chainFor(fr, t, from, to, ctl)
	if err != nil {
		return 0, Extents{}, err
	}
	w, ext := measureChain(top)
	return w, ext, nil
}

// TextPerCharExtents measures each character position separately; all
// glyphs sharing a source position contribute to that position's boxes.
func TextPerCharExtents(fr *frame.Frame, t *mtext.Text, from, to int, ctl frame.DrawControl) ([]CharExtents, error) {
	top, err := chainFor(fr, t, from, to, ctl)
	if err != nil {
		return nil, err
	}
	return perCharExtents(top), nil
}

// Info answers a glyph information query for position pos within the
// range [from,to).
func Info(fr *frame.Frame, t *mtext.Text, from, to, pos int, ctl frame.DrawControl) (GlyphInfo, error) {
	if pos < from || pos >= to {
		return GlyphInfo{}, core.Error(core.EINVALID, "position %d outside of [%d,%d)", pos, from, to)
	}
	top, err := chainFor(fr, t, from, to, ctl)
	if err != nil {
		return GlyphInfo{}, err
	}
	info, ok := glyphInfoAt(top, pos)
	if !ok {
		return GlyphInfo{}, core.Error(core.EINTERNAL, "no glyph covers position %d", pos)
	}
	return info, nil
}

// GlyphList returns the laid-out glyphs of the range in draw order.
func GlyphList(fr *frame.Frame, t *mtext.Text, from, to int, ctl frame.DrawControl) ([]GlyphData, error) {
	top, err := chainFor(fr, t, from, to, ctl)
	if err != nil {
		return nil, err
	}
	return glyphList(top), nil
}

// CoordinatesPosition maps pixel coordinates, relative to the draw
// origin of the range, onto a text position.
func CoordinatesPosition(fr *frame.Frame, t *mtext.Text, from, to, x, y int, ctl frame.DrawControl) (int, error) {
	top, err := chainFor(fr, t, from, to, ctl)
	if err != nil {
		return 0, err
	}
	return hitPosition(top, x, y), nil
}

// chainFor produces the laid-out glyph string chain for a range, from
// the cache when possible.
func chainFor(fr *frame.Frame, t *mtext.Text, from, to int, ctl frame.DrawControl) (*frame.GlyphString, error) {
	if err := checkRange(t, from, to, ctl); err != nil {
		return nil, err
	}
	// the virtual cursor position past the text end composes no glyph
	if to > t.Len() {
		to = t.Len()
	}
	if cached := cachedChain(fr, t, from, to, ctl); cached != nil {
		tracer().Debugf("reusing cached glyph string for [%d,%d)", from, to)
		return cached, nil
	}
	top, err := ComposeLines(fr, t, from, to, ctl)
	if err != nil {
		return nil, err
	}
	storeChain(t, top)
	return top, nil
}

// checkRange validates a draw range. With a cursor, one extra virtual
// position past the end of the text is addressable.
func checkRange(t *mtext.Text, from, to int, ctl frame.DrawControl) error {
	if t == nil {
		return core.Error(core.EINVALID, "cannot draw a nil text")
	}
	limit := t.Len()
	if ctl.WithCursor {
		limit++
	}
	if from < 0 || from > to || to > limit {
		return core.Error(core.EINVALID, "draw range [%d,%d) invalid for text of length %d", from, to, t.Len())
	}
	return nil
}
