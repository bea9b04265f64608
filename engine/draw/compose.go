package draw

import (
	"unicode"

	"github.com/npillmayer/mtext/core/font"
	"github.com/npillmayer/mtext/core/mtext"
	"github.com/npillmayer/mtext/engine/face"
	"github.com/npillmayer/mtext/engine/flt"
	"github.com/npillmayer/mtext/engine/frame"
)

// Compose builds the initial glyph string for a text range: one glyph
// per character (control characters expand to two), each carrying a
// realized face, with runs narrowed to covering fonts and handed to
// their layout tables. Metrics are not filled yet.
//
// In two-dimensional mode composition stops after the first newline; the
// returned string then covers a prefix of [from,to).
func Compose(fr *frame.Frame, t *mtext.Text, from, to int, ctl frame.DrawControl) (*frame.GlyphString, error) {
	gs := frame.NewGlyphString(fr, t, from, to, ctl)
	gs.Append(frame.Glyph{
		Type: frame.GlyphAnchor,
		From: from, To: from,
		RFace: fr.DefaultRealizedFace(),
	})

	stopped := to
	pos := from
scan:
	for pos < to {
		runEnd := faceRunEnd(t, pos, to)
		stack, direct := facePropsAt(t, pos)
		rface, err := fr.RealizeFace(stack, direct)
		if err != nil {
			tracer().Errorf("composing: %v", err)
			rface = fr.DefaultRealizedFace()
		}
		for ; pos < runEnd; pos++ {
			c := t.RuneAt(pos)
			switch {
			case c == '\n':
				gs.Append(spaceGlyph(pos, c, rface))
				if ctl.TwoDimensional {
					pos++
					stopped = pos
					break scan
				}
			case c == ' ' || c == '\t':
				gs.Append(spaceGlyph(pos, c, rface))
			case c < 0x20 || c == 0x7f:
				// control characters render as ^X, both glyphs keeping
				// the character's position
				x := c + 0x40
				if c == 0x7f {
					x = '?'
				}
				gs.Append(charGlyph(pos, '^', rface))
				gs.Append(charGlyph(pos, x, rface))
			default:
				g := charGlyph(pos, c, rface)
				switch {
				case unicode.Is(unicode.Cf, c):
					g.Category = frame.CatFormatter
					if ctl.IgnoreFormattingChar {
						g.Type = frame.GlyphSpace
						g.Measured = true // keeps the advance at zero
					}
				case unicode.Is(unicode.Mn, c) || unicode.Is(unicode.Mc, c) || unicode.Is(unicode.Me, c):
					g.Category = frame.CatModifier
				}
				gs.Append(g)
			}
		}
	}
	gs.To = stopped
	gs.Append(frame.Glyph{
		Type: frame.GlyphAnchor,
		From: stopped, To: stopped,
		RFace: fr.DefaultRealizedFace(),
	})

	if err := shapeRuns(gs, t); err != nil {
		return nil, err
	}
	return gs, nil
}

func charGlyph(pos int, c rune, rface *frame.RealizedFace) frame.Glyph {
	return frame.Glyph{
		From: pos, To: pos + 1,
		Char: c, Code: uint32(c),
		RFace:   rface,
		Type:    frame.GlyphChar,
		Enabled: true,
	}
}

func spaceGlyph(pos int, c rune, rface *frame.RealizedFace) frame.Glyph {
	g := charGlyph(pos, c, rface)
	g.Type = frame.GlyphSpace
	return g
}

// facePropsAt reads the face stack and the font override at a position.
func facePropsAt(t *mtext.Text, pos int) ([]*face.Face, *font.Spec) {
	var stack []*face.Face
	for _, v := range t.Props(pos, mtext.SymFace) {
		if f, ok := v.(*face.Face); ok {
			stack = append(stack, f)
		}
	}
	var direct *font.Spec
	if v, ok := t.Prop(pos, mtext.SymFont); ok {
		if spec, ok := v.(*font.Spec); ok {
			direct = spec
		}
	}
	return stack, direct
}

// faceRunEnd returns the end of the maximal run starting at pos over
// which face and font properties do not change.
func faceRunEnd(t *mtext.Text, pos, limit int) int {
	end := limit
	if _, _, runTo, ok := t.PropRun(pos, mtext.SymFace); ok && runTo < end {
		end = runTo
	}
	if _, _, runTo, ok := t.PropRun(pos, mtext.SymFont); ok && runTo < end {
		end = runTo
	}
	if end <= pos {
		end = pos + 1
	}
	return end
}

// --- Script assignment -----------------------------------------------------

func scriptOf(c rune) string {
	for name, table := range unicode.Scripts {
		if unicode.Is(table, c) {
			switch name {
			case "Inherited", "Common":
				return ""
			}
			return lowerScript(name)
		}
	}
	return ""
}

func lowerScript(name string) string {
	b := []byte(name)
	if len(b) > 0 && b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}

// commonBlocks names the Unicode blocks holding Common-script characters
// above U+00FF. Characters whose script stays unresolved take their block
// name as pseudo-script, so fontsets can key symbol fonts by block.
var commonBlocks = []struct {
	lo, hi rune
	name   string
}{
	{0x2000, 0x206f, "general-punctuation"},
	{0x2070, 0x209f, "superscripts-and-subscripts"},
	{0x20a0, 0x20cf, "currency-symbols"},
	{0x2100, 0x214f, "letterlike-symbols"},
	{0x2150, 0x218f, "number-forms"},
	{0x2190, 0x21ff, "arrows"},
	{0x2200, 0x22ff, "mathematical-operators"},
	{0x2300, 0x23ff, "miscellaneous-technical"},
	{0x2460, 0x24ff, "enclosed-alphanumerics"},
	{0x2500, 0x257f, "box-drawing"},
	{0x2580, 0x259f, "block-elements"},
	{0x25a0, 0x25ff, "geometric-shapes"},
	{0x2600, 0x26ff, "miscellaneous-symbols"},
	{0x2700, 0x27bf, "dingbats"},
	{0x3000, 0x303f, "cjk-symbols-and-punctuation"},
	{0xfe50, 0xfe6f, "small-form-variants"},
	{0xff00, 0xffef, "halfwidth-and-fullwidth-forms"},
	{0x1d100, 0x1d1ff, "musical-symbols"},
	{0x1f300, 0x1f5ff, "miscellaneous-symbols-and-pictographs"},
	{0x1f600, 0x1f64f, "emoticons"},
}

func blockScript(c rune) string {
	for _, b := range commonBlocks {
		if c >= b.lo && c <= b.hi {
			return b.name
		}
	}
	return "latin"
}

// --- Run shaping -----------------------------------------------------------

type runSpan struct {
	lo, hi   int // index range into the inner glyphs
	script   string
	language string
	charset  string
	rface    *frame.RealizedFace
}

// shapeRuns splits the glyph string into maximal runs of equal (script,
// language, charset, face), narrows each run's face to a covering font,
// and applies the face's layout table.
func shapeRuns(gs *frame.GlyphString, t *mtext.Text) error {
	if !gs.Anchored() {
		return nil
	}
	inner := gs.Inner()
	if len(inner) == 0 {
		return nil
	}
	spans := splitRuns(t, inner)
	var out []frame.Glyph
	for _, span := range spans {
		shaped := shapeSpan(gs, span, inner[span.lo:span.hi])
		out = append(out, shaped...)
	}
	head := gs.Glyphs[0]
	tail := gs.Glyphs[len(gs.Glyphs)-1]
	gs.Glyphs = append(gs.Glyphs[:0], head)
	gs.Glyphs = append(gs.Glyphs, out...)
	gs.Glyphs = append(gs.Glyphs, tail)
	return nil
}

// splitRuns computes maximal spans of equal (script, language, charset,
// face). Scripts: characters below U+0100 count as Latin; a script
// override property wins; Inherited and Common characters take the
// script of the preceding concrete glyph, or of a following one at the
// start of the string; what stays unresolved takes its Unicode block
// name.
func splitRuns(t *mtext.Text, inner []frame.Glyph) []runSpan {
	scripts := make([]string, len(inner))
	for i, g := range inner {
		if s := scriptOverrideAt(t, g.From); s != "" {
			scripts[i] = s
			continue
		}
		if g.Type != frame.GlyphChar || g.Char < 0x100 {
			scripts[i] = "latin"
			continue
		}
		scripts[i] = scriptOf(g.Char) // "" for Inherited/Common
	}
	for i := range scripts { // inherit from the left
		if scripts[i] == "" && i > 0 {
			if inner[i-1].Type == frame.GlyphChar && inner[i-1].Category != frame.CatFormatter {
				scripts[i] = scripts[i-1]
			}
		}
	}
	for i := len(scripts) - 1; i >= 0; i-- { // adopt from the right at the start
		if scripts[i] == "" && i+1 < len(scripts) {
			scripts[i] = scripts[i+1]
		}
	}
	for i := range scripts {
		if scripts[i] == "" {
			scripts[i] = blockScript(inner[i].Char)
		}
	}
	var spans []runSpan
	i := 0
	for i < len(inner) {
		language, charset := textPropsAt(t, inner[i].From)
		rface := inner[i].RFace
		j := i + 1
		for j < len(inner) {
			lj, cj := textPropsAt(t, inner[j].From)
			if scripts[j] != scripts[i] || lj != language || cj != charset ||
				inner[j].RFace != rface {
				break
			}
			j++
		}
		spans = append(spans, runSpan{lo: i, hi: j, script: scripts[i], language: language, charset: charset, rface: rface})
		i = j
	}
	return spans
}

func scriptOverrideAt(t *mtext.Text, pos int) string {
	if t == nil {
		return ""
	}
	if v, ok := t.Prop(pos, mtext.SymScript); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func textPropsAt(t *mtext.Text, pos int) (language, charset string) {
	if t == nil {
		return "", ""
	}
	if v, ok := t.Prop(pos, mtext.SymLanguage); ok {
		if s, ok := v.(string); ok {
			language = s
		}
	}
	if v, ok := t.Prop(pos, mtext.SymCharset); ok {
		if s, ok := v.(string); ok {
			charset = s
		}
	}
	return language, charset
}

// shapeSpan narrows the face of a run to fonts covering it, splitting
// the run where coverage ends, and applies the face's layout table to
// each piece.
func shapeSpan(gs *frame.GlyphString, span runSpan, glyphs []frame.Glyph) []frame.Glyph {
	var out []frame.Glyph
	rest := glyphs
	for len(rest) > 0 {
		chars := make([]rune, len(rest))
		for i, g := range rest {
			chars[i] = g.Char
		}
		rface, covered := span.rface.ForChars(chars, span.script, span.language, span.charset)
		if covered == 0 {
			// nothing covers the first glyph: keep it with an invalid
			// code and continue behind it
			g := rest[0]
			g.Code = font.InvalidCode
			g.RFace = rface
			out = append(out, g)
			rest = rest[1:]
			continue
		}
		piece := make([]frame.Glyph, covered)
		copy(piece, rest[:covered])
		for i := range piece {
			piece[i].RFace = rface
		}
		out = append(out, applyLayouter(gs, rface, piece)...)
		rest = rest[covered:]
	}
	return out
}

// applyLayouter runs the face's layout table over a covered run. Runs
// without a layouter containing consecutive combining marks go through
// the builtin combining table.
func applyLayouter(gs *frame.GlyphString, rface *frame.RealizedFace, glyphs []frame.Glyph) []frame.Glyph {
	var table *flt.FLT
	if rface.Layouter != "" {
		var err error
		table, err = flt.Lookup(rface.Layouter, gs.Frame.DB)
		if err != nil {
			tracer().Infof("layout table %q unavailable: %v", rface.Layouter, err)
			table = nil
		}
	}
	if table == nil {
		if modifierRun(glyphs) {
			table = flt.DefaultCombining()
		} else {
			return glyphs
		}
	}
	shaped, err := table.Shape(rface, glyphs)
	if err != nil {
		tracer().Errorf("layout table %q: %v", table.Name, err)
		// a fatally failing table leaves the run unshaped with invalid
		// codes; drawing renders boxes
		for i := range glyphs {
			glyphs[i].Code = font.InvalidCode
			glyphs[i].Enabled = false
		}
		return glyphs
	}
	return shaped
}

// modifierRun reports whether two or more consecutive glyphs are
// combining marks.
func modifierRun(glyphs []frame.Glyph) bool {
	run := 0
	for _, g := range glyphs {
		if g.Category == frame.CatModifier {
			run++
			if run >= 2 {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}
