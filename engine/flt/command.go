package flt

import (
	"regexp"

	"github.com/npillmayer/mtext/core"
	"github.com/npillmayer/mtext/core/font"
	"github.com/npillmayer/mtext/engine/frame"
)

type opcode int8

const (
	opDirect opcode = iota
	opMatchSeq
	opMatchRange
	opMatchRegex
	opMatchIndex
	opRule
	opCond
	opOTF
	opCopy
	opRepeat
	opClusterBegin
	opClusterEnd
	opSeparator
	opLeftPadding
	opRightPadding
	opCombining
	opMacroRef
	opSequence // macro bodies
)

// maxCaptures is the number of regex capture groups remembered.
const maxCaptures = 20

type otfSpec struct {
	script  string
	langsys string
	gsub    []string
	gpos    []string
}

// command is one node of a generator tree.
type command struct {
	op        opcode
	code      rune           // opDirect
	seq       []rune         // opMatchSeq
	lo, hi    rune           // opMatchRange
	re        *regexp.Regexp // opMatchRegex
	idx       int            // opMatchIndex
	source    *command       // opRule
	body      []*command     // opRule, opCond, opSequence
	otf       otfSpec
	combining int32  // opCombining
	macro     string // opMacroRef
}

type capture struct {
	lo, hi int
	set    bool
}

// shapeCtx is the execution state of one stage over one run.
type shapeCtx struct {
	flt   *FLT
	st    *stage
	rface *frame.RealizedFace

	in   []frame.Glyph
	cats []byte
	out  []frame.Glyph

	captures [maxCaptures]capture

	codeOffset    rune
	pendCombining int32
	pendLeftPad   bool

	clusterMarks []int

	err error
}

// emit appends a glyph, attaching any pending combining code or left
// padding flag.
func (ctx *shapeCtx) emit(g frame.Glyph) {
	if ctx.pendCombining != 0 {
		g.Combining = ctx.pendCombining
		ctx.pendCombining = 0
	}
	if ctx.pendLeftPad {
		g.LeftPadding = true
		ctx.pendLeftPad = false
	}
	ctx.out = append(ctx.out, g)
}

// base returns the input glyph providing position and face for glyphs
// emitted at pos.
func (ctx *shapeCtx) base(pos, limit int) frame.Glyph {
	if pos < limit {
		return ctx.in[pos]
	}
	if limit > 0 {
		return ctx.in[limit-1]
	}
	return frame.Glyph{}
}

// run executes a command against input positions [pos,limit). It returns
// the new position and whether the command succeeded. On failure the
// output is left as it was.
func (ctx *shapeCtx) run(cmd *command, pos, limit int) (int, bool) {
	switch cmd.op {

	case opDirect:
		b := ctx.base(pos, limit)
		g := frame.Glyph{
			From: b.From, To: b.To,
			Char:    cmd.code + ctx.codeOffset,
			RFace:   b.RFace,
			Level:   b.Level,
			Type:    frame.GlyphChar,
			Enabled: true,
		}
		g.Code = uint32(g.Char)
		ctx.emit(g)
		return pos, true

	case opMatchSeq:
		if pos+len(cmd.seq) > limit {
			return pos, false
		}
		for i, c := range cmd.seq {
			if ctx.in[pos+i].Char != c {
				return pos, false
			}
		}
		ctx.codeOffset = 0
		return pos + len(cmd.seq), true

	case opMatchRange:
		if pos >= limit {
			return pos, false
		}
		c := ctx.in[pos].Char
		if c < cmd.lo || c > cmd.hi {
			return pos, false
		}
		ctx.codeOffset = c - cmd.lo
		return pos + 1, true

	case opMatchRegex:
		loc := cmd.re.FindStringSubmatchIndex(string(ctx.cats[pos:limit]))
		if loc == nil || loc[0] != 0 {
			return pos, false
		}
		ngroups := len(loc) / 2
		if ngroups > maxCaptures {
			ngroups = maxCaptures
		}
		for i := 0; i < maxCaptures; i++ {
			ctx.captures[i].set = false
		}
		for i := 0; i < ngroups; i++ {
			if loc[2*i] >= 0 {
				ctx.captures[i] = capture{lo: pos + loc[2*i], hi: pos + loc[2*i+1], set: true}
			}
		}
		return pos + loc[1], true

	case opMatchIndex:
		// only meaningful as a rule source, handled there
		return pos, false

	case opRule:
		return ctx.runRule(cmd, pos, limit)

	case opCond:
		for _, child := range cmd.body {
			mark := ctx.save()
			if npos, ok := ctx.run(child, pos, limit); ok {
				return npos, true
			}
			ctx.restore(mark)
		}
		return pos, false

	case opOTF:
		return ctx.runOTF(cmd, pos, limit)

	case opCopy:
		if pos >= limit {
			return pos, false
		}
		ctx.emit(ctx.in[pos])
		return pos + 1, true

	case opClusterBegin:
		ctx.clusterMarks = append(ctx.clusterMarks, len(ctx.out))
		return pos, true

	case opClusterEnd:
		if n := len(ctx.clusterMarks); n > 0 {
			mark := ctx.clusterMarks[n-1]
			ctx.clusterMarks = ctx.clusterMarks[:n-1]
			ctx.closeCluster(mark)
		}
		return pos, true

	case opSeparator:
		b := ctx.base(pos, limit)
		ctx.emit(frame.Glyph{
			From: b.From, To: b.To,
			RFace: b.RFace,
			Level: b.Level,
			Type:  frame.GlyphPad,
		})
		return pos, true

	case opLeftPadding:
		ctx.pendLeftPad = true
		return pos, true

	case opRightPadding:
		if len(ctx.out) > 0 {
			ctx.out[len(ctx.out)-1].RightPadding = true
		}
		return pos, true

	case opCombining:
		ctx.pendCombining = cmd.combining
		return pos, true

	case opMacroRef:
		macro, ok := ctx.st.macros[cmd.macro]
		if !ok {
			ctx.err = core.Error(core.ESHAPE, "undefined macro %q", cmd.macro)
			return pos, false
		}
		return ctx.run(macro, pos, limit)

	case opSequence:
		return ctx.runBody(cmd.body, pos, limit)
	}
	return pos, false
}

type ctxMark struct {
	outLen    int
	offset    rune
	combining int32
	leftPad   bool
	clusters  int
}

func (ctx *shapeCtx) save() ctxMark {
	return ctxMark{
		outLen:    len(ctx.out),
		offset:    ctx.codeOffset,
		combining: ctx.pendCombining,
		leftPad:   ctx.pendLeftPad,
		clusters:  len(ctx.clusterMarks),
	}
}

func (ctx *shapeCtx) restore(m ctxMark) {
	ctx.out = ctx.out[:m.outLen]
	ctx.codeOffset = m.offset
	ctx.pendCombining = m.combining
	ctx.pendLeftPad = m.leftPad
	ctx.clusterMarks = ctx.clusterMarks[:m.clusters]
}

// closeCluster unifies the source range of all glyphs emitted since the
// cluster began.
func (ctx *shapeCtx) closeCluster(mark int) {
	if mark >= len(ctx.out) {
		return
	}
	from, to := ctx.out[mark].From, ctx.out[mark].To
	for _, g := range ctx.out[mark+1:] {
		if g.From < from {
			from = g.From
		}
		if g.To > to {
			to = g.To
		}
	}
	for i := mark; i < len(ctx.out); i++ {
		ctx.out[i].From = from
		ctx.out[i].To = to
	}
}

// runRule evaluates the rule source, then executes the body over the
// matched scope. The rule consumes what its source consumed.
func (ctx *shapeCtx) runRule(cmd *command, pos, limit int) (int, bool) {
	mark := ctx.save()
	scopeLo, scopeHi := pos, pos
	outer := pos
	switch cmd.source.op {
	case opMatchIndex:
		if cmd.source.idx < 0 || cmd.source.idx >= maxCaptures {
			return pos, false
		}
		grp := ctx.captures[cmd.source.idx]
		if !grp.set {
			return pos, false
		}
		scopeLo, scopeHi = grp.lo, grp.hi
		if cmd.source.idx == 0 {
			outer = grp.hi // group 0 consumes the matched region
		}
	default:
		npos, ok := ctx.run(cmd.source, pos, limit)
		if !ok {
			return pos, false
		}
		scopeLo, scopeHi = pos, npos
		outer = npos
	}
	if _, ok := ctx.runBody(cmd.body, scopeLo, scopeHi); !ok {
		ctx.restore(mark)
		return pos, false
	}
	return outer, true
}

// runBody executes a command sequence; REPEAT re-runs its preceding
// sibling while it keeps consuming input.
func (ctx *shapeCtx) runBody(body []*command, pos, limit int) (int, bool) {
	for i := 0; i < len(body); i++ {
		cmd := body[i]
		if cmd.op == opRepeat {
			if i == 0 {
				return pos, false
			}
			prev := body[i-1]
			for pos < limit {
				mark := ctx.save()
				npos, ok := ctx.run(prev, pos, limit)
				if !ok || npos == pos {
					ctx.restore(mark)
					break
				}
				pos = npos
			}
			continue
		}
		npos, ok := ctx.run(cmd, pos, limit)
		if !ok {
			return pos, false
		}
		pos = npos
	}
	return pos, true
}

// runOTF delegates the scope to the font's OpenType driver. The driver's
// output replaces the scope; its glyphs are marked as already encoded.
func (ctx *shapeCtx) runOTF(cmd *command, pos, limit int) (int, bool) {
	if pos >= limit {
		return pos, false
	}
	rfont := ctx.rface.Font
	drv, ok := ctx.rface.Frame.Fonts.(font.OTFDriver)
	if rfont == nil || !ok {
		return pos, false
	}
	scope := ctx.in[pos:limit]
	slots := make([]font.GlyphSlot, len(scope))
	for i, g := range scope {
		slots[i] = font.GlyphSlot{Cluster: i, CodePoint: g.Char}
	}
	shaped, err := drv.DriveOTF(rfont, slots, cmd.otf.script, cmd.otf.langsys, cmd.otf.gsub, cmd.otf.gpos)
	if err != nil {
		tracer().Infof("flt %q: OpenType delegation failed: %v", ctx.flt.Name, err)
		return pos, false
	}
	for _, slot := range shaped {
		ci := slot.Cluster
		if ci < 0 || ci >= len(scope) {
			ci = 0
		}
		b := scope[ci]
		g := frame.Glyph{
			From: b.From, To: b.To,
			Char:       b.Char,
			Code:       slot.Code,
			RFace:      b.RFace,
			Level:      b.Level,
			Type:       frame.GlyphChar,
			XAdv:       slot.XAdvance,
			YAdv:       slot.YAdvance,
			XOff:       slot.XOffset,
			YOff:       slot.YOffset,
			OTFEncoded: slot.Encoded,
			Measured:   true,
		}
		ctx.emit(g)
	}
	return limit, true
}
