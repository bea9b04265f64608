/*
Package frame binds the layout engine to one output device. A frame owns
the realized resources (fonts, faces, fontsets) created while drawing on
that device and carries a tick counter which invalidates cached glyph
strings whenever a referenced face mutates.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2021–2023 Norbert Pillmayer <norbert@pillmayer.com>

*/
package frame

import (
	"github.com/npillmayer/schuko/tracing"

	"github.com/npillmayer/mtext/core"
	"github.com/npillmayer/mtext/core/font"
	"github.com/npillmayer/mtext/core/plist"
	"github.com/npillmayer/mtext/engine/face"
)

// tracer traces with key 'mtext.frame'.
func tracer() tracing.Trace {
	return tracing.Select("mtext.frame")
}

// Frame is the binding of the engine to one output device.
//
// Realized resources are exclusively owned by the frame and only mutated
// by drawing operations on it; the engine runs drawing single-threaded
// per frame.
type Frame struct {
	Device DeviceDriver
	Fonts  font.Driver
	DPI    int // resolution for point-size conversion

	DefaultFace    *face.Face
	DefaultFontset *font.Fontset
	DB             plist.Database // resource database for fontsets and layout tables

	// metrics of the default realized face
	SpaceWidth   int
	AverageWidth int
	Ascent       int
	Descent      int

	tick     uint32
	rface    *RealizedFace // realization of the default face
	faces    []*RealizedFace
	fontsets []*RealizedFontset
	fonts    map[fontKey]*font.RealizedFont
}

type fontKey struct {
	spec *font.Spec
	size int
}

// New creates a frame for a device and a font driver and realizes the
// default face, which fixes the frame's base metrics. A nil defaultFace
// gets a fresh empty face, a nil defaultFontset the process-wide default
// fontset.
func New(dev DeviceDriver, fonts font.Driver, defaultFace *face.Face, defaultFontset *font.Fontset) (*Frame, error) {
	if dev == nil || fonts == nil {
		return nil, core.Error(core.EINVALID, "frame needs a device and a font driver")
	}
	if defaultFace == nil {
		defaultFace = face.New()
	}
	if defaultFontset == nil {
		defaultFontset = font.DefaultFontset()
	}
	fr := &Frame{
		Device:         dev,
		Fonts:          fonts,
		DPI:            100,
		DefaultFace:    defaultFace,
		DefaultFontset: defaultFontset,
		fonts:          make(map[fontKey]*font.RealizedFont),
	}
	rf, err := fr.RealizeFace(nil, nil)
	if err != nil {
		return nil, core.WrapError(err, core.EFONT, "cannot realize the frame's default face")
	}
	fr.rface = rf
	fr.SpaceWidth = rf.SpaceWidth
	fr.AverageWidth = rf.AverageWidth
	fr.Ascent = rf.Ascent
	fr.Descent = rf.Descent
	tracer().Infof("new frame on %s/%s: space=%d ascent=%d descent=%d",
		dev.Name(), fonts.Name(), fr.SpaceWidth, fr.Ascent, fr.Descent)
	return fr, nil
}

// Tick returns the frame's invalidation counter. Glyph strings remember
// the tick at creation; a mismatch marks them stale.
func (fr *Frame) Tick() uint32 {
	return fr.tick
}

// DefaultRealizedFace returns the realization of the frame's default face.
func (fr *Frame) DefaultRealizedFace() *RealizedFace {
	return fr.rface
}

// FaceChanged implements face.Watcher: a mutation of any face this frame
// realized invalidates all realized faces and bumps the tick.
func (fr *Frame) FaceChanged(f *face.Face) {
	tracer().Debugf("face %v changed, invalidating frame resources", f)
	fr.tick++
	fr.faces = fr.faces[:0]
	fr.fontsets = fr.fontsets[:0]
	if rf, err := fr.RealizeFace(nil, nil); err == nil {
		fr.rface = rf
		fr.SpaceWidth = rf.SpaceWidth
		fr.AverageWidth = rf.AverageWidth
		fr.Ascent = rf.Ascent
		fr.Descent = rf.Descent
	}
}

// realizeFont opens a font for an interned spec at a pixel size, caching
// the result. Fonts that failed to open stay cached as failed and are
// excluded from later lookups.
func (fr *Frame) realizeFont(spec *font.Spec, size int) (*font.RealizedFont, error) {
	key := fontKey{spec: spec, size: size}
	if rf, ok := fr.fonts[key]; ok {
		if rf.Status == font.StatusFailed {
			return nil, core.Error(core.EFONT, "font %v failed to open before", spec)
		}
		return rf, nil
	}
	sized := *spec
	sized.Size = size
	rf, err := fr.Fonts.Select(font.InternSpec(sized), 0)
	if err != nil {
		return nil, err
	}
	if err := fr.Fonts.Open(rf); err != nil {
		fr.fonts[key] = rf // remembered as failed
		return nil, err
	}
	fr.fonts[key] = rf
	return rf, nil
}
