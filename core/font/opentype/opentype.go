/*
Package opentype implements the OpenType font driver.

Character metrics come from the sfnt parser of golang.org/x/image; the
OTF hooks (GSUB/GPOS feature application for the layout tables) delegate
to the HarfBuzz port of benoitkugler/textlayout.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2021–2023 Norbert Pillmayer <norbert@pillmayer.com>

*/
package opentype

import (
	"bytes"
	"encoding/binary"
	"io/ioutil"
	"strings"
	"sync"

	hbtt "github.com/benoitkugler/textlayout/fonts/truetype"
	hb "github.com/benoitkugler/textlayout/harfbuzz"
	hblang "github.com/benoitkugler/textlayout/language"
	"github.com/flopp/go-findfont"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/npillmayer/mtext/core"
	mfont "github.com/npillmayer/mtext/core/font"
)

// tracer traces with key 'mtext.fonts'.
func tracer() tracing.Trace {
	return tracing.Select("mtext.fonts")
}

// Driver is the OpenType font driver. The zero value is usable.
type Driver struct{}

var _ mfont.Driver = Driver{}
var _ mfont.OTFDriver = Driver{}

// Name returns "opentype".
func (Driver) Name() string {
	return "opentype"
}

// otFont is the driver-private handle of a realized font.
type otFont struct {
	binary  []byte
	sfnt    *sfnt.Font
	buf     sfnt.Buffer
	upem    int
	hb      *hb.Font // lazily parsed for the OTF hooks
	hbError error
	hbOnce  sync.Once
}

// Select resolves a spec to a font binary without opening it. Lookup order:
// the font registry by family name, then the system font path via findfont,
// then the built-in fallback (Go Regular).
func (d Driver) Select(spec *mfont.Spec, sizeLimit int) (*mfont.RealizedFont, error) {
	if spec == nil {
		return nil, core.Error(core.EINVALID, "opentype: cannot select a nil spec")
	}
	bin, err := resolveBinary(spec.Family)
	if err != nil {
		return nil, err
	}
	size := mfont.PixelSize(spec.Size, 0)
	if size <= 0 {
		size = 12
	}
	if sizeLimit > 0 && size > sizeLimit {
		size = sizeLimit
	}
	rf := &mfont.RealizedFont{
		Spec:   spec,
		Size:   size,
		Driver: d,
		Handle: &otFont{binary: bin},
	}
	return rf, nil
}

func resolveBinary(family string) ([]byte, error) {
	if family == "" {
		return fallbackBinary(), nil
	}
	if bin, ok := mfont.GlobalRegistry().Binary(family); ok {
		return bin, nil
	}
	path, err := findfont.Find(family + ".ttf")
	if err != nil {
		path, err = findfont.Find(family)
	}
	if err == nil {
		bin, rerr := ioutil.ReadFile(path)
		if rerr == nil {
			mfont.GlobalRegistry().StoreBinary(family, bin)
			return bin, nil
		}
		err = rerr
	}
	tracer().Infof("opentype: no font file for family %q: %v", family, err)
	return nil, core.WrapError(err, core.EMISSING, "font not found: %s", family)
}

var fallbackLoading sync.Once
var fallback []byte

// fallbackBinary returns a font to be used if everything else failes. It is
// always present. Currently we use Go Regular.
func fallbackBinary() []byte {
	fallbackLoading.Do(func() {
		fallback = goregular.TTF
		mfont.GlobalRegistry().StoreBinary("goregular", fallback)
	})
	return fallback
}

// Open parses the selected binary and computes the font-wide metrics at
// rf.Size pixels.
func (Driver) Open(rf *mfont.RealizedFont) error {
	handle, ok := rf.Handle.(*otFont)
	if !ok || len(handle.binary) == 0 {
		rf.Status = mfont.StatusFailed
		return core.Error(core.EFONT, "opentype: font has no binary to open")
	}
	f, err := sfnt.Parse(handle.binary)
	if err != nil {
		rf.Status = mfont.StatusFailed
		return core.WrapError(err, core.EFONT, "opentype: cannot parse font")
	}
	handle.sfnt = f
	handle.upem = int(f.UnitsPerEm())
	ppem := fixed.I(rf.Size)
	metrics, err := f.Metrics(&handle.buf, ppem, font.HintingNone)
	if err != nil {
		rf.Status = mfont.StatusFailed
		return core.WrapError(err, core.EFONT, "opentype: cannot compute metrics")
	}
	rf.Ascent = metrics.Ascent.Ceil()
	rf.Descent = metrics.Descent.Ceil()
	rf.XPpem = rf.Size
	rf.YPpem = rf.Size
	rf.MaxAdvance = metrics.Height.Ceil()
	rf.Status = mfont.StatusOpened
	tracer().Debugf("opentype: opened %v at %dpx, ascent=%d descent=%d",
		rf.Spec, rf.Size, rf.Ascent, rf.Descent)
	return nil
}

// HasChar reports whether the font maps a code-point to a real glyph.
func (d Driver) HasChar(rf *mfont.RealizedFont, c rune) bool {
	return d.Encode(rf, c) != mfont.InvalidCode
}

// Encode maps a code-point to the font's glyph index.
func (Driver) Encode(rf *mfont.RealizedFont, c rune) uint32 {
	handle, ok := rf.Handle.(*otFont)
	if !ok || handle.sfnt == nil {
		return mfont.InvalidCode
	}
	gid, err := handle.sfnt.GlyphIndex(&handle.buf, c)
	if err != nil || gid == 0 {
		return mfont.InvalidCode
	}
	return uint32(gid)
}

// Metrics computes pixel metrics for a glyph index.
func (Driver) Metrics(rf *mfont.RealizedFont, code uint32) (mfont.GlyphMetrics, bool) {
	handle, ok := rf.Handle.(*otFont)
	if !ok || handle.sfnt == nil || code == mfont.InvalidCode {
		return mfont.GlyphMetrics{}, false
	}
	ppem := fixed.I(rf.Size)
	bounds, adv, err := handle.sfnt.GlyphBounds(&handle.buf, sfnt.GlyphIndex(code), ppem, font.HintingNone)
	if err != nil {
		return mfont.GlyphMetrics{}, false
	}
	m := mfont.GlyphMetrics{
		XAdvance: adv.Ceil(),
		LBearing: bounds.Min.X.Floor(),
		RBearing: bounds.Max.X.Ceil(),
		Ascent:   (-bounds.Min.Y).Ceil(),
		Descent:  bounds.Max.Y.Ceil(),
	}
	if m.Ascent < 0 {
		m.Ascent = 0
	}
	if m.Descent < 0 {
		m.Descent = 0
	}
	return m, true
}

// ListFamilies lists the families of the font registry.
func (Driver) ListFamilies(prefix string) []string {
	return mfont.GlobalRegistry().Families(prefix)
}

// --- OTF hooks -------------------------------------------------------------

// DriveOTF applies OpenType GSUB/GPOS features over a run of glyph slots by
// shaping it with HarfBuzz. Per the layout-table convention, a feature list
// of ["*"] selects the shaper's default features, an empty list disables the
// table, and any other list enables exactly the named features.
func (Driver) DriveOTF(rf *mfont.RealizedFont, slots []mfont.GlyphSlot,
	script, langsys string, gsub, gpos []string) ([]mfont.GlyphSlot, error) {
	//
	handle, ok := rf.Handle.(*otFont)
	if !ok || len(handle.binary) == 0 {
		return slots, core.Error(core.EFONT, "opentype: font not usable for OTF")
	}
	if len(slots) == 0 {
		return slots, nil
	}
	handle.hbOnce.Do(func() {
		face, err := hbtt.Parse(bytes.NewReader(handle.binary), true)
		if err != nil {
			handle.hbError = core.WrapError(err, core.EFONT, "opentype: HarfBuzz cannot parse font")
			return
		}
		handle.hb = hb.NewFont(face)
	})
	if handle.hbError != nil {
		return slots, handle.hbError
	}
	handle.hb.Ptem = float32(rf.Size)
	//
	buf := hb.NewBuffer()
	if script != "" {
		buf.Props.Script = scriptTag(script)
	}
	if langsys != "" && langsys != "dflt" {
		buf.Props.Language = hblang.NewLanguage(langsys)
	}
	buf.Props.Direction = hb.LeftToRight
	runes := make([]rune, len(slots))
	for i, s := range slots {
		runes[i] = s.CodePoint
	}
	buf.AddRunes(runes, 0, len(runes))
	buf.Shape(handle.hb, featureList(gsub, gpos, len(runes)))
	//
	out := make([]mfont.GlyphSlot, len(buf.Info))
	upem := handle.upem
	if upem == 0 {
		upem = 1000
	}
	for i, info := range buf.Info {
		pos := buf.Pos[i]
		cluster := info.Cluster
		if cluster >= len(slots) {
			cluster = len(slots) - 1
		}
		out[i] = mfont.GlyphSlot{
			Cluster:   slots[cluster].Cluster,
			CodePoint: runes[cluster],
			Code:      uint32(info.Glyph),
			XAdvance:  scale(int(pos.XAdvance), rf.Size, upem),
			YAdvance:  scale(int(pos.YAdvance), rf.Size, upem),
			XOffset:   scale(int(pos.XOffset), rf.Size, upem),
			YOffset:   scale(int(pos.YOffset), rf.Size, upem),
			Encoded:   true,
		}
	}
	return out, nil
}

func scale(v, size, upem int) int {
	return v * size / upem
}

// scriptTag converts a 4-letter OpenType script tag to a HarfBuzz script.
func scriptTag(tag string) hblang.Script {
	b := []byte((tag + "    ")[:4])
	return hblang.Script(binary.BigEndian.Uint32(b))
}

// featureList builds the HarfBuzz feature switches for the gsub and gpos
// selections of an OTF call.
func featureList(gsub, gpos []string, runlen int) []hb.Feature {
	var features []hb.Feature
	features = appendFeatures(features, gsub, runlen)
	features = appendFeatures(features, gpos, runlen)
	return features
}

func appendFeatures(features []hb.Feature, tags []string, runlen int) []hb.Feature {
	for _, tag := range tags {
		if tag == "*" {
			continue // default features, nothing to switch
		}
		on := uint32(1)
		if strings.HasPrefix(tag, "~") {
			on = 0
			tag = tag[1:]
		}
		if len(tag) != 4 {
			tracer().Infof("opentype: skipping malformed feature tag %q", tag)
			continue
		}
		features = append(features, hb.Feature{
			Tag:   hbtt.Tag(binary.BigEndian.Uint32([]byte(tag))),
			Value: on,
			Start: 0,
			End:   runlen,
		})
	}
	return features
}
