package draw

import (
	"unicode/utf8"

	"github.com/npillmayer/uax/bidi"
	xbidi "golang.org/x/text/unicode/bidi"

	"github.com/npillmayer/mtext/engine/frame"
)

// Reorder brings the glyphs of a composed string into visual order and
// sets their bidi levels. Without EnableBidi all levels stay 0 and glyph
// order is untouched; OrientationReversed alone is handled later by the
// renderer.
//
// Clusters move as units: glyphs sharing a source position stay
// contiguous, and odd-level clusters reverse their internal order.
func Reorder(gs *frame.GlyphString) {
	if !gs.Control.EnableBidi {
		return
	}
	inner := gs.Inner()
	if len(inner) == 0 {
		return
	}
	if gs.Text != nil {
		if levels, err := gs.Text.BidiLevels(gs.From, gs.To, bidi.LeftToRight); err == nil {
			// the levels index by byte offset, glyphs carry rune positions
			bytePos := make([]uint64, gs.To-gs.From)
			off := uint64(gs.Text.ByteOffset(gs.From))
			for i, r := range gs.Text.Runes()[gs.From:gs.To] {
				bytePos[i] = off
				off += uint64(utf8.RuneLen(r))
			}
			for i := range inner {
				if levels.DirectionAt(bytePos[inner[i].From-gs.From]) == bidi.RightToLeft {
					inner[i].Level = 1
				} else {
					inner[i].Level = 0
				}
			}
			reorderLevels(inner)
			return
		}
	}
	heuristicLevels(inner)
	reorderLevels(inner)
}

// heuristicLevels approximates the bidi algorithm when no resolved
// levels are available: strong right-to-left classes get level 1 and
// non-spacing marks inherit from their predecessor.
func heuristicLevels(glyphs []frame.Glyph) {
	prev := uint8(0)
	for i := range glyphs {
		props, _ := xbidi.LookupRune(glyphs[i].Char)
		level := uint8(0)
		switch props.Class() {
		case xbidi.R, xbidi.AL, xbidi.RLE, xbidi.RLO:
			level = 1
		case xbidi.NSM:
			level = prev
		}
		glyphs[i].Level = level
		prev = level
	}
}

// reorderLevels is rule L2 of the bidi algorithm applied to clusters:
// from the highest level down, every maximal span of clusters at or
// above the level reverses.
func reorderLevels(glyphs []frame.Glyph) {
	clusters := clusterize(glyphs)
	max := uint8(0)
	for _, cl := range clusters {
		if cl.level > max {
			max = cl.level
		}
	}
	for level := max; level >= 1; level-- {
		i := 0
		for i < len(clusters) {
			if clusters[i].level < level {
				i++
				continue
			}
			j := i
			for j < len(clusters) && clusters[j].level >= level {
				j++
			}
			reverseClusters(clusters[i:j])
			i = j
		}
	}
	out := make([]frame.Glyph, 0, len(glyphs))
	for _, cl := range clusters {
		if cl.level%2 == 1 {
			for k := len(cl.glyphs) - 1; k >= 0; k-- {
				out = append(out, cl.glyphs[k])
			}
		} else {
			out = append(out, cl.glyphs...)
		}
	}
	copy(glyphs, out)
}

type cluster struct {
	glyphs []frame.Glyph
	level  uint8
}

func clusterize(glyphs []frame.Glyph) []cluster {
	var clusters []cluster
	i := 0
	for i < len(glyphs) {
		j := i + 1
		for j < len(glyphs) && glyphs[j].From == glyphs[i].From {
			j++
		}
		cl := cluster{level: glyphs[i].Level}
		cl.glyphs = append(cl.glyphs, glyphs[i:j]...)
		clusters = append(clusters, cl)
		i = j
	}
	return clusters
}

func reverseClusters(clusters []cluster) {
	for i, j := 0, len(clusters)-1; i < j; i, j = i+1, j-1 {
		clusters[i], clusters[j] = clusters[j], clusters[i]
	}
}
