package flt

import (
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/npillmayer/mtext/engine/frame"
)

var defaultCombiningOnce sync.Once
var defaultCombiningFLT *FLT

// DefaultCombining returns the builtin layout table applied to runs of
// combining marks when no script-specific table is registered. Each
// MODIFIER glyph is attached to the run's base glyph: marks with
// canonical combining class 220 hang below it, everything else stacks
// above.
func DefaultCombining() *FLT {
	defaultCombiningOnce.Do(func() {
		defaultCombiningFLT = &FLT{Name: "combining", builtin: combineMarks}
		Register(defaultCombiningFLT)
	})
	return defaultCombiningFLT
}

var combineBelow = frame.MakeCombining(frame.VBottom, frame.HCenter, frame.VTop, frame.HCenter, 0, 0)
var combineAbove = frame.MakeCombining(frame.VTop, frame.HCenter, frame.VBottom, frame.HCenter, 0, 0)

func combineMarks(rface *frame.RealizedFace, glyphs []frame.Glyph) ([]frame.Glyph, error) {
	out := append([]frame.Glyph(nil), glyphs...)
	seenBase := false
	for i := range out {
		g := &out[i]
		if g.Category != frame.CatModifier || !seenBase {
			seenBase = true
			continue
		}
		ccc := norm.NFD.PropertiesString(string(g.Char)).CCC()
		if ccc == 220 {
			g.Combining = combineBelow
		} else {
			g.Combining = combineAbove
		}
	}
	return out, nil
}
