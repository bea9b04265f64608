package draw

import (
	"unicode"

	"github.com/npillmayer/mtext/core/mtext"
	"github.com/npillmayer/mtext/engine/frame"
	"github.com/npillmayer/uax"
	"github.com/npillmayer/uax/segment"
	"github.com/npillmayer/uax/uax14"
)

// ComposeLines builds the chain of composed, reordered and laid-out
// glyph strings covering [from,to). In two-dimensional mode lines end at
// newlines and at width-limit overflows; the chained strings share one
// top pointer.
func ComposeLines(fr *frame.Frame, t *mtext.Text, from, to int, ctl frame.DrawControl) (*frame.GlyphString, error) {
	var top, last *frame.GlyphString
	line, y := 0, 0
	pos := from
	for {
		indent, limit := 0, 0
		if ctl.TwoDimensional {
			if ctl.Format != nil {
				indent, limit = ctl.Format(line, y)
			} else {
				limit = ctl.MaxLineWidth
			}
		}
		gs, err := composeLine(fr, t, pos, to, ctl, indent, limit, line, y)
		if err != nil {
			return nil, err
		}
		if top == nil {
			top = gs
		} else {
			last.SetNext(gs)
		}
		last = gs
		y += gs.LineAscent + gs.LineDescent
		line++
		if !ctl.TwoDimensional || gs.To >= to || gs.To <= pos {
			break
		}
		pos = gs.To
	}
	return top, nil
}

// composeLine builds one laid-out line starting at from. When the line
// overflows its width limit it is truncated at a break position and
// recomposed, so that shaping never crosses the line end.
func composeLine(fr *frame.Frame, t *mtext.Text, from, to int, ctl frame.DrawControl,
	indent, limit, line, y int) (*frame.GlyphString, error) {
	//
	gs, err := Compose(fr, t, from, to, ctl)
	if err != nil {
		return nil, err
	}
	gs.Indent, gs.WidthLimit = indent, limit
	Reorder(gs)
	Layout(gs)
	if !ctl.TwoDimensional || limit <= 0 || indent+gs.Width <= limit {
		return gs, nil
	}
	pos := overflowPosition(gs, limit-indent)
	if ctl.LineBreak != nil {
		pos = ctl.LineBreak(t, pos, gs.From, gs.To, line, y)
	} else {
		pos = defaultLineBreak(t, pos, gs.From, gs.To)
	}
	// a line always consumes at least one character
	if pos <= gs.From {
		pos = gs.From + 1
	}
	if pos >= gs.To {
		return gs, nil
	}
	trunc, err := Compose(fr, t, gs.From, pos, ctl)
	if err != nil {
		return nil, err
	}
	trunc.Indent, trunc.WidthLimit = indent, limit
	Reorder(trunc)
	Layout(trunc)
	return trunc, nil
}

// overflowPosition accumulates per-character widths in logical order and
// returns the first position whose character no longer fits into width.
func overflowPosition(gs *frame.GlyphString, width int) int {
	n := gs.To - gs.From
	if n <= 0 {
		return gs.To
	}
	widths := make([]int, n)
	for _, g := range gs.Glyphs {
		if g.Type == frame.GlyphAnchor {
			continue
		}
		if g.From >= gs.From && g.From < gs.To {
			widths[g.From-gs.From] += g.XAdv
		}
	}
	sum := 0
	for i, w := range widths {
		sum += w
		if sum > width {
			if i == 0 {
				return gs.From + 1
			}
			return gs.From + i
		}
	}
	return gs.To
}

// BreakBias selects the class of positions a breaker accepts.
type BreakBias int

const (
	BreakAtWord  BreakBias = iota // UAX#14 break opportunities
	BreakAtSpace                  // only after blanks
	BreakAtAny                    // any character boundary
)

// BreakerOptions tune the line breaker built by Breaker.
type BreakerOptions struct {
	Bias          BreakBias
	ForbidAtEnd   func(r rune) bool // runes that must not end a line
	ForbidAtStart func(r rune) bool // runes that must not start a line
}

// Breaker builds a line-break callback from opts, for use as the
// LineBreak member of a drawing control. The zero options value
// reproduces the default breaking behavior.
func Breaker(opts BreakerOptions) frame.LineBreakCallback {
	return func(t *mtext.Text, pos, from, to, line, y int) int {
		return breakPosition(t, pos, from, to, opts)
	}
}

// defaultLineBreak picks the last UAX#14 break opportunity at or before
// pos. Lines without an opportunity break after a blank, and as a last
// resort at pos itself.
func defaultLineBreak(t *mtext.Text, pos, from, to int) int {
	return breakPosition(t, pos, from, to, BreakerOptions{})
}

func breakPosition(t *mtext.Text, pos, from, to int, opts BreakerOptions) int {
	switch opts.Bias {
	case BreakAtAny:
		for p := pos; p > from; p-- {
			if allowedAt(t, p, opts) {
				return p
			}
		}
		return pos
	case BreakAtSpace:
		if p := lastBlankBreak(t, pos, from, opts); p > from {
			return p
		}
		return pos
	}
	seg := segment.NewSegmenter(uax14.NewLineWrap())
	seg.Init(t.Reader(from, to))
	best := from
	off := from
	for seg.Next() {
		off += len([]rune(seg.Text()))
		p1, _ := seg.Penalties()
		if p1 >= uax.InfinitePenalty {
			continue
		}
		if off > pos {
			break
		}
		if off > from && off > best && allowedAt(t, off, opts) {
			best = off
		}
	}
	if best > from {
		return best
	}
	if p := lastBlankBreak(t, pos, from, opts); p > from {
		return p
	}
	return pos
}

// lastBlankBreak scans backwards for a permitted position after a blank.
func lastBlankBreak(t *mtext.Text, pos, from int, opts BreakerOptions) int {
	for p := pos; p > from; p-- {
		if unicode.IsSpace(t.RuneAt(p-1)) && allowedAt(t, p, opts) {
			return p
		}
	}
	return from
}

func allowedAt(t *mtext.Text, p int, opts BreakerOptions) bool {
	if opts.ForbidAtEnd != nil && opts.ForbidAtEnd(t.RuneAt(p-1)) {
		return false
	}
	if opts.ForbidAtStart != nil && opts.ForbidAtStart(t.RuneAt(p)) {
		return false
	}
	return true
}
