/*
Package flt implements font layout tables: small interpreted programs
which rewrite glyph runs for complex scripts. A layout table is an
ordered sequence of stages; each stage classifies the glyphs of a run
into single-letter categories and transforms the run by executing a tree
of commands against it.

Layout tables are defined as property lists and loaded from the resource
database by name.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2021–2023 Norbert Pillmayer <norbert@pillmayer.com>

*/
package flt

import (
	"sort"
	"sync"

	"github.com/npillmayer/schuko/tracing"

	"github.com/npillmayer/mtext/core"
	"github.com/npillmayer/mtext/core/plist"
	"github.com/npillmayer/mtext/engine/frame"
)

// tracer traces with key 'mtext.flt'.
func tracer() tracing.Trace {
	return tracing.Select("mtext.flt")
}

// FLT is a compiled font layout table.
type FLT struct {
	Name   string
	stages []*stage

	// builtin tables bypass the interpreter
	builtin func(*frame.RealizedFace, []frame.Glyph) ([]frame.Glyph, error)
}

type stage struct {
	cats   *categoryTable
	root   *command
	macros map[string]*command
}

// --- Category tables -------------------------------------------------------

type catRange struct {
	lo, hi rune
	letter byte
}

// categoryTable maps scalar values to single ASCII letters. Unmapped
// scalars get letter 0.
type categoryTable struct {
	ranges []catRange // sorted by lo, non-overlapping
}

func (ct *categoryTable) add(lo, hi rune, letter byte) {
	ct.ranges = append(ct.ranges, catRange{lo: lo, hi: hi, letter: letter})
}

func (ct *categoryTable) sort() {
	sort.Slice(ct.ranges, func(i, j int) bool { return ct.ranges[i].lo < ct.ranges[j].lo })
}

func (ct *categoryTable) lookup(c rune) byte {
	if ct == nil {
		return 0
	}
	i := sort.Search(len(ct.ranges), func(i int) bool { return ct.ranges[i].hi >= c })
	if i < len(ct.ranges) && ct.ranges[i].lo <= c && c <= ct.ranges[i].hi {
		return ct.ranges[i].letter
	}
	return 0
}

// otfSentinel is the category letter for glyphs already encoded by the
// OpenType driver, whose character codes no longer classify.
const otfSentinel = '1'

func (st *stage) categorize(glyphs []frame.Glyph) []byte {
	cats := make([]byte, len(glyphs))
	for i, g := range glyphs {
		letter := st.cats.lookup(g.Char)
		if letter == 0 && g.OTFEncoded {
			letter = otfSentinel
		}
		cats[i] = letter
	}
	return cats
}

// --- Shaping ---------------------------------------------------------------

// Shape runs the layout table over a glyph run, returning the rewritten
// run. The face provides the font for OpenType delegation. Every source
// character position of the input keeps at least one covering glyph in
// the output.
func (flt *FLT) Shape(rface *frame.RealizedFace, glyphs []frame.Glyph) ([]frame.Glyph, error) {
	if len(glyphs) == 0 {
		return glyphs, nil
	}
	if flt.builtin != nil {
		return flt.builtin(rface, glyphs)
	}
	minFrom, maxTo := glyphs[0].From, glyphs[0].To
	for _, g := range glyphs {
		if g.From < minFrom {
			minFrom = g.From
		}
		if g.To > maxTo {
			maxTo = g.To
		}
	}
	input := append([]frame.Glyph(nil), glyphs...)
	for si, st := range flt.stages {
		ctx := &shapeCtx{flt: flt, st: st, rface: rface, in: input}
		ctx.cats = st.categorize(input)
		pos := 0
		for pos < len(input) {
			mark := len(ctx.out)
			npos, ok := ctx.run(st.root, pos, len(input))
			if !ok {
				ctx.out = ctx.out[:mark]
				ctx.out = append(ctx.out, input[pos])
				pos++
				continue
			}
			if npos == pos { // a non-consuming root made no progress
				pos++
				continue
			}
			pos = npos
		}
		if ctx.err != nil {
			return nil, core.WrapError(ctx.err, core.ESHAPE, "layout table %q failed in stage %d", flt.Name, si)
		}
		input = ctx.out
	}
	unifyClusters(input)
	input = fillCoverageGaps(input, minFrom, maxTo)
	tracer().Debugf("flt %q: %d glyphs in, %d glyphs out", flt.Name, len(glyphs), len(input))
	return input, nil
}

// unifyClusters widens From/To of every contiguous span of glyphs with
// equal From to the span's extremes, so that later reordering can move
// clusters as units.
func unifyClusters(glyphs []frame.Glyph) {
	for i := 0; i < len(glyphs); {
		j := i + 1
		to := glyphs[i].To
		for j < len(glyphs) && glyphs[j].From == glyphs[i].From {
			if glyphs[j].To > to {
				to = glyphs[j].To
			}
			j++
		}
		for k := i; k < j; k++ {
			glyphs[k].To = to
		}
		i = j
	}
}

// fillCoverageGaps inserts a zero-width SPACE glyph for every source
// position no output glyph covers. Without it, cursor positioning over
// shaped text loses positions.
func fillCoverageGaps(glyphs []frame.Glyph, from, to int) []frame.Glyph {
	for p := from; p < to; p++ {
		covered := false
		for _, g := range glyphs {
			if g.From <= p && p < g.To {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		idx := len(glyphs)
		for i, g := range glyphs {
			if g.From > p {
				idx = i
				break
			}
		}
		// zero advance, and Measured keeps layout from re-measuring it
		filler := frame.Glyph{
			From: p, To: p + 1,
			Char:     ' ',
			Type:     frame.GlyphSpace,
			Measured: true,
		}
		if idx > 0 {
			filler.RFace = glyphs[idx-1].RFace
			filler.Level = glyphs[idx-1].Level
		} else if len(glyphs) > 0 {
			filler.RFace = glyphs[0].RFace
			filler.Level = glyphs[0].Level
		}
		glyphs = append(glyphs, frame.Glyph{})
		copy(glyphs[idx+1:], glyphs[idx:])
		glyphs[idx] = filler
	}
	return glyphs
}

// --- Registry --------------------------------------------------------------

var registry = struct {
	sync.Mutex
	flts map[string]*FLT
}{flts: make(map[string]*FLT)}

// Register stores a layout table in the process-wide registry.
func Register(f *FLT) {
	registry.Lock()
	defer registry.Unlock()
	registry.flts[f.Name] = f
}

// Lookup finds a registered layout table, compiling it from the database
// if unseen. db may be nil, restricting the lookup to registered tables.
func Lookup(name string, db plist.Database) (*FLT, error) {
	registry.Lock()
	f, ok := registry.flts[name]
	registry.Unlock()
	if ok {
		return f, nil
	}
	if db == nil {
		return nil, core.Error(core.EMISSING, "no layout table named %q", name)
	}
	rec, err := db.Get(plist.KindFLT, name)
	if err != nil {
		return nil, err
	}
	f, err = Parse(name, rec)
	if err != nil {
		return nil, err
	}
	Register(f)
	return f, nil
}
