package frame

import (
	"github.com/npillmayer/mtext/core/mtext"
)

// FormatCallback customizes indentation and width limit per visual line.
// line counts from 0, y is the accumulated pixel offset of the line.
type FormatCallback func(line, y int) (indent, widthLimit int)

// LineBreakCallback picks a break position for a line that exceeds its
// width limit. pos is the position the width accumulation reached; the
// result will be clamped to (from, to].
type LineBreakCallback func(t *mtext.Text, pos, from, to, line, y int) int

// DrawControl configures a drawing or measuring operation.
//
// The zero value draws a single line, left to right, without bidi
// analysis, cursor, or line breaking.
type DrawControl struct {
	AsImage              bool // paint background with face background
	AlignHead            bool // shift so no pixel is left of the origin
	TwoDimensional       bool // newlines and width limits break lines
	OrientationReversed  bool // draw right-to-left of the anchor point
	EnableBidi           bool // perform bidi analysis
	IgnoreFormattingChar bool // render format characters zero-width
	FixedWidth           bool // terminal-like cells

	MinLineAscent  int
	MaxLineAscent  int
	MinLineDescent int
	MaxLineDescent int

	MaxLineWidth int // line-break threshold; ignored if Format is set
	TabWidth     int // columns per tab, 0 means 8

	Format    FormatCallback
	LineBreak LineBreakCallback

	WithCursor  bool
	CursorPos   int
	CursorWidth int
	CursorBidi  bool

	PartialUpdate  bool
	DisableCaching bool
	AntiAlias      bool

	DisableOverlappingAdjustment bool

	ClipRegion *Region
}

// CursorOnlyDiff reports whether two controls differ at most in their
// cursor fields. A cached glyph string whose control passes this test can
// be reused for a cursor-moved redraw.
func (c DrawControl) CursorOnlyDiff(other DrawControl) bool {
	if c.AsImage != other.AsImage ||
		c.AlignHead != other.AlignHead ||
		c.TwoDimensional != other.TwoDimensional ||
		c.OrientationReversed != other.OrientationReversed ||
		c.EnableBidi != other.EnableBidi ||
		c.IgnoreFormattingChar != other.IgnoreFormattingChar ||
		c.FixedWidth != other.FixedWidth {
		return false
	}
	if c.MinLineAscent != other.MinLineAscent ||
		c.MaxLineAscent != other.MaxLineAscent ||
		c.MinLineDescent != other.MinLineDescent ||
		c.MaxLineDescent != other.MaxLineDescent ||
		c.MaxLineWidth != other.MaxLineWidth ||
		c.TabWidth != other.TabWidth {
		return false
	}
	// callbacks are not comparable, a set/unset change invalidates
	if (c.Format == nil) != (other.Format == nil) ||
		(c.LineBreak == nil) != (other.LineBreak == nil) {
		return false
	}
	if c.PartialUpdate != other.PartialUpdate ||
		c.DisableCaching != other.DisableCaching ||
		c.AntiAlias != other.AntiAlias ||
		c.DisableOverlappingAdjustment != other.DisableOverlappingAdjustment ||
		c.ClipRegion != other.ClipRegion {
		return false
	}
	return true
}

// EffectiveTabWidth returns the tab width in columns.
func (c DrawControl) EffectiveTabWidth() int {
	if c.TabWidth <= 0 {
		return 8
	}
	return c.TabWidth
}
