package font

// The font driver interface. Drivers bind the layout core to a concrete
// font technology; the core talks to them exclusively through the methods
// below and stays ignorant of font file formats.

// InvalidCode marks a character no font covers.
const InvalidCode = ^uint32(0)

// GlyphMetrics are the metrics of one glyph, in device pixels.
type GlyphMetrics struct {
	LBearing int
	RBearing int
	XAdvance int
	YAdvance int
	Ascent   int
	Descent  int
	XOffset  int
	YOffset  int
}

// A GlyphSlot is one element of a glyph run handed to the OTF hooks of a
// driver. It is deliberately small; the rich glyph record of the layout
// engine maps onto it around OTF calls.
type GlyphSlot struct {
	Cluster   int  // index into the run's code-points
	CodePoint rune // code-point that produced this slot
	Code      uint32
	XAdvance  int
	YAdvance  int
	XOffset   int
	YOffset   int
	Encoded   bool // Code is a glyph index, not a character code
}

// Status of a realized font.
type Status int8

// Realized font status values.
const (
	StatusUnopened Status = 0
	StatusOpened   Status = 1
	StatusFailed   Status = -1
)

// A RealizedFont is a font a driver has selected, possibly already opened
// at a pixel size.
type RealizedFont struct {
	Spec       *Spec // interned spec the font was selected for
	Size       int   // pixel size
	Ascent     int
	Descent    int
	XPpem      int
	YPpem      int
	MaxAdvance int
	Status     Status
	Driver     Driver
	Handle     interface{} // driver-private data
}

// SpaceWidth returns the advance of U+0020, or a tenth of the size if the
// font fails to report one.
func (rf *RealizedFont) SpaceWidth() int {
	if rf != nil && rf.Status == StatusOpened {
		if code := rf.Driver.Encode(rf, ' '); code != InvalidCode {
			if m, ok := rf.Driver.Metrics(rf, code); ok {
				return m.XAdvance
			}
		}
	}
	if rf == nil {
		return 0
	}
	w := rf.Size / 10
	if w <= 0 {
		w = 1
	}
	return w
}

// AverageWidth returns the advance of 'x', falling back to the space width.
func (rf *RealizedFont) AverageWidth() int {
	if rf != nil && rf.Status == StatusOpened {
		if code := rf.Driver.Encode(rf, 'x'); code != InvalidCode {
			if m, ok := rf.Driver.Metrics(rf, code); ok && m.XAdvance > 0 {
				return m.XAdvance
			}
		}
	}
	return rf.SpaceWidth()
}

// Driver selects, opens and measures fonts.
type Driver interface {
	// Name identifies the driver.
	Name() string
	// Select picks a font for a spec without opening it. sizeLimit > 0
	// caps acceptable pixel sizes.
	Select(spec *Spec, sizeLimit int) (*RealizedFont, error)
	// Open makes a selected font usable at rf.Size pixels. On failure the
	// font's status becomes StatusFailed.
	Open(rf *RealizedFont) error
	// HasChar reports whether the font covers a code-point.
	HasChar(rf *RealizedFont, c rune) bool
	// Encode maps a code-point to a glyph code, or InvalidCode.
	Encode(rf *RealizedFont, c rune) uint32
	// Metrics fills metrics for a glyph code.
	Metrics(rf *RealizedFont, code uint32) (GlyphMetrics, bool)
	// ListFamilies lists family names the driver can select, filtered by
	// prefix.
	ListFamilies(prefix string) []string
}

// OTFDriver is the optional OpenType extension of a driver: applying
// GSUB/GPOS features over a glyph run. Feature lists follow the FLT
// convention: ["*"] means "all default features", an empty list means
// "none", anything else enables exactly the named features.
type OTFDriver interface {
	DriveOTF(rf *RealizedFont, slots []GlyphSlot, script, langsys string,
		gsub, gpos []string) ([]GlyphSlot, error)
}

// --- Charsets --------------------------------------------------------------

// A Charset encodes code-points into a (non-Unicode) character set. The
// layout core only ever asks whether and how a code-point is a member.
type Charset interface {
	Name() string
	Encode(c rune) (uint32, bool)
}

var charsets = struct {
	reg map[string]Charset
}{reg: make(map[string]Charset)}

// RegisterCharset registers a charset under its name. Not safe for use
// concurrently with lookups; register during setup.
func RegisterCharset(cs Charset) {
	charsets.reg[cs.Name()] = cs
}

// LookupCharset finds a registered charset by name.
func LookupCharset(name string) (Charset, bool) {
	cs, ok := charsets.reg[name]
	return cs, ok
}

type rangeCharset struct {
	name   string
	lo, hi rune
}

func (cs rangeCharset) Name() string { return cs.name }

func (cs rangeCharset) Encode(c rune) (uint32, bool) {
	if c < cs.lo || c > cs.hi {
		return InvalidCode, false
	}
	return uint32(c - cs.lo), true
}

func init() {
	RegisterCharset(rangeCharset{"unicode", 0, 0x10FFFF})
	RegisterCharset(rangeCharset{"ascii", 0, 0x7F})
	RegisterCharset(rangeCharset{"iso8859-1", 0, 0xFF})
}
