package frame

import (
	"fmt"

	"github.com/npillmayer/mtext/core/mtext"
)

// GlyphType distinguishes the kinds of glyphs a glyph string may hold.
type GlyphType int8

const (
	GlyphChar GlyphType = iota
	GlyphSpace
	GlyphPad    // spacing compensation for side bearings
	GlyphBox    // delimiter of a face-carried surrounding box
	GlyphAnchor // sentinel at both ends of a glyph string
)

func (t GlyphType) String() string {
	switch t {
	case GlyphChar:
		return "CHAR"
	case GlyphSpace:
		return "SPACE"
	case GlyphPad:
		return "PAD"
	case GlyphBox:
		return "BOX"
	case GlyphAnchor:
		return "ANCHOR"
	}
	return "?"
}

// Category is the shaping category of a glyph's character.
type Category int8

const (
	CatNormal    Category = iota
	CatModifier           // general category M*
	CatFormatter          // general category Cf
)

// Glyph is one slot of a glyph string. From/To delimit the character
// range of the source text the glyph stems from; a cluster is a maximal
// run of glyphs sharing From.
type Glyph struct {
	From, To  int
	Char      rune
	Code      uint32 // font glyph id, font.InvalidCode when uncovered
	RFace     *RealizedFace
	Type      GlyphType
	Level     uint8 // bidi embedding level
	Category  Category
	Combining int32 // packed combining code, 0 = none

	XAdv, YAdv         int
	Ascent, Descent    int
	LBearing, RBearing int
	XOff, YOff         int

	LeftPadding  bool
	RightPadding bool
	Enabled      bool
	Measured     bool
	OTFEncoded   bool
}

// IsCluster reports whether g continues the cluster of prev.
func (g Glyph) IsCluster(prev Glyph) bool {
	return g.Type != GlyphAnchor && prev.Type != GlyphAnchor && g.From == prev.From
}

func (g Glyph) String() string {
	return fmt.Sprintf("%s[%d,%d)%q/%d", g.Type, g.From, g.To, string(g.Char), g.Level)
}

// --- Combining codes -------------------------------------------------------

// VPos and HPos name the anchor points used by combining codes: four
// vertical positions crossed with three horizontal ones.
type VPos int8

const (
	VTop VPos = iota
	VCenter
	VBottom
	VBase // the baseline
)

type HPos int8

const (
	HLeft HPos = iota
	HCenter
	HRight
)

const combiningValid = 1 << 24

// MakeCombining packs a combining code: anchor point on the base glyph,
// anchor point on the added glyph, and an x/y offset in tenths of the
// font size. Offsets must be within [-128,127]. The result is never 0,
// so a zero Combining field reliably means "not combining".
func MakeCombining(baseV VPos, baseH HPos, addV VPos, addH HPos, offX, offY int) int32 {
	code := combiningValid |
		(int32(offY+128) << 16) |
		(int32(offX+128) << 8) |
		(int32(baseV) << 6) | (int32(baseH) << 4) |
		(int32(addV) << 2) | int32(addH)
	return code
}

func CombiningBase(code int32) (VPos, HPos) {
	return VPos((code >> 6) & 3), HPos((code >> 4) & 3)
}

func CombiningAdd(code int32) (VPos, HPos) {
	return VPos((code >> 2) & 3), HPos(code & 3)
}

func CombiningOffset(code int32) (x, y int) {
	return int((code>>8)&0xff) - 128, int((code>>16)&0xff) - 128
}

// --- Glyph strings ---------------------------------------------------------

// GlyphString is the result of composing, shaping and laying out one
// visual line of text. Glyphs[0] and Glyphs[len-1] are ANCHOR sentinels
// once the string is complete.
type GlyphString struct {
	Glyphs []Glyph

	Text     *mtext.Text // source text; nil for synthetic strings
	From, To int         // character range in the source text
	ModCount uint32      // text modification count at creation

	Indent     int
	WidthLimit int

	// line metrics, filled by layout
	Ascent, Descent                 int
	PhysicalAscent, PhysicalDescent int
	TextAscent, TextDescent         int
	LineAscent, LineDescent         int
	Width, Height                   int
	LBearing, RBearing              int

	Control DrawControl
	Frame   *Frame
	Tick    uint32 // frame tick at creation

	Next *GlyphString // next visual line, nil on the last
	top  *GlyphString
}

// NewGlyphString creates an empty glyph string for a source range. The
// caller appends glyphs, anchors included.
func NewGlyphString(fr *Frame, t *mtext.Text, from, to int, ctl DrawControl) *GlyphString {
	gs := &GlyphString{
		Text:    t,
		From:    from,
		To:      to,
		Control: ctl,
		Frame:   fr,
	}
	if t != nil {
		gs.ModCount = t.ModCount()
	}
	if fr != nil {
		gs.Tick = fr.Tick()
	}
	gs.top = gs
	return gs
}

// Top returns the first line of a chain of glyph strings.
func (gs *GlyphString) Top() *GlyphString {
	if gs.top == nil {
		return gs
	}
	return gs.top
}

// SetNext chains a continuation line, sharing the top pointer.
func (gs *GlyphString) SetNext(next *GlyphString) {
	gs.Next = next
	if next != nil {
		next.top = gs.Top()
	}
}

// Append adds a glyph at the end.
func (gs *GlyphString) Append(g Glyph) {
	gs.Glyphs = append(gs.Glyphs, g)
}

// InsertAt inserts a glyph before index i.
func (gs *GlyphString) InsertAt(i int, g Glyph) {
	gs.Glyphs = append(gs.Glyphs, Glyph{})
	copy(gs.Glyphs[i+1:], gs.Glyphs[i:])
	gs.Glyphs[i] = g
}

// Anchored reports whether the string is bracketed by anchor sentinels.
func (gs *GlyphString) Anchored() bool {
	n := len(gs.Glyphs)
	return n >= 2 && gs.Glyphs[0].Type == GlyphAnchor && gs.Glyphs[n-1].Type == GlyphAnchor
}

// Inner returns the glyphs between the anchors.
func (gs *GlyphString) Inner() []Glyph {
	if !gs.Anchored() {
		return gs.Glyphs
	}
	return gs.Glyphs[1 : len(gs.Glyphs)-1]
}

// RecalcWidth sums the advances of all non-anchor glyphs and stores the
// result as the line width.
func (gs *GlyphString) RecalcWidth() int {
	w := 0
	for _, g := range gs.Glyphs {
		if g.Type != GlyphAnchor {
			w += g.XAdv
		}
	}
	gs.Width = w
	return w
}

// ClusterAt returns the index range [i,j) of the cluster containing
// glyph index i. Anchors form no clusters.
func (gs *GlyphString) ClusterAt(i int) (int, int) {
	if i < 0 || i >= len(gs.Glyphs) || gs.Glyphs[i].Type == GlyphAnchor {
		return i, i + 1
	}
	from := gs.Glyphs[i].From
	lo := i
	for lo > 0 && gs.Glyphs[lo-1].Type != GlyphAnchor && gs.Glyphs[lo-1].From == from {
		lo--
	}
	hi := i + 1
	for hi < len(gs.Glyphs) && gs.Glyphs[hi].Type != GlyphAnchor && gs.Glyphs[hi].From == from {
		hi++
	}
	return lo, hi
}

func (gs *GlyphString) String() string {
	return fmt.Sprintf("glyphstring[%d,%d) %d glyphs, width=%d", gs.From, gs.To, len(gs.Glyphs), gs.Width)
}
