/*
Package imagedev implements a device driver rendering into an in-memory
RGBA image.

The core stops short of rasterizing font outlines, so this device paints
glyph ink boxes, decoration lines, surrounding boxes and backgrounds as
filled rectangles via image/draw. Every dispatch is additionally
recorded in a journal, which makes the device double as a test probe for
the drawing pipeline.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2021–2023 Norbert Pillmayer <norbert@pillmayer.com>

*/
package imagedev

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/colornames"

	"github.com/npillmayer/mtext/engine/face"
	"github.com/npillmayer/mtext/engine/frame"
)

// tracer traces with key 'mtext.device'.
func tracer() tracing.Trace {
	return tracing.Select("mtext.device")
}

// Call records one dispatch to the device.
type Call struct {
	Op         string // "fill", "glyphs", "boxes", "hline", "box"
	X, Y, W, H int
	From, To   int // glyph index range for glyph dispatches
	Color      string
}

// Device renders into Img and journals every call.
type Device struct {
	Img     *image.RGBA
	Journal []Call
}

var _ frame.DeviceDriver = &Device{}

// New creates a device with a white canvas of w × h pixels.
func New(w, h int) *Device {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return &Device{Img: img}
}

// Window derives a viewport device drawing into a sub-rectangle of the
// canvas. The journal is separate, the pixels are shared.
func (d *Device) Window(r image.Rectangle) *Device {
	if d.Img == nil {
		return &Device{}
	}
	sub, _ := d.Img.SubImage(r.Intersect(d.Img.Bounds())).(*image.RGBA)
	return &Device{Img: sub}
}

// Name returns "image".
func (d *Device) Name() string { return "image" }

// Writable reports whether the device has a canvas.
func (d *Device) Writable() bool { return d.Img != nil }

func (d *Device) record(c Call) {
	d.Journal = append(d.Journal, c)
}

// FillSpace paints a background rectangle.
func (d *Device) FillSpace(x, y, w, h int, colorName string, reg *frame.Region) {
	d.record(Call{Op: "fill", X: x, Y: y, W: w, H: h, Color: colorName})
	d.fill(image.Rect(x, y, x+w, y+h), parseColor(colorName), reg)
}

// DrawGlyphs renders the glyphs [from,to) of a laid-out string with the
// baseline at y. With reverse set, the run fills leftward from x + run
// width, mirroring the visual order.
func (d *Device) DrawGlyphs(x, y int, gs *frame.GlyphString, from, to int, reverse bool, reg *frame.Region) {
	d.record(Call{Op: "glyphs", X: x, Y: y, From: from, To: to})
	pen := x
	if reverse {
		for i := from; i < to; i++ {
			if gs.Glyphs[i].Type != frame.GlyphAnchor {
				pen += gs.Glyphs[i].XAdv
			}
		}
	}
	for i := from; i < to; i++ {
		g := gs.Glyphs[i]
		if g.Type == frame.GlyphAnchor {
			continue
		}
		if reverse {
			pen -= g.XAdv
		}
		d.drawGlyph(pen, y, g, gs.Control.AntiAlias, reg)
		if !reverse {
			pen += g.XAdv
		}
	}
}

// drawGlyph paints the ink box of a glyph. Rasterizing outlines is the
// business of richer back-ends; this device stays with rectangles. The
// anti-alias hint softens the box edge toward the background.
func (d *Device) drawGlyph(pen, base int, g frame.Glyph, aa bool, reg *frame.Region) {
	if g.Type == frame.GlyphSpace || g.Type == frame.GlyphPad {
		return
	}
	col := parseColor("black")
	if g.RFace != nil {
		fg := g.RFace.Foreground
		if g.RFace.VideoReverse {
			fg = g.RFace.Background
		}
		col = parseColor(fg)
	}
	left := pen + g.LBearing + g.XOff
	top := base - g.Ascent + g.YOff
	w := g.RBearing - g.LBearing
	h := g.Ascent + g.Descent
	if w <= 0 || h <= 0 {
		return
	}
	r := image.Rect(left, top, left+w, top+h)
	if aa && w > 2 && h > 2 {
		d.outline(r, soften(col), reg)
		d.fill(r.Inset(1), col, reg)
		return
	}
	d.fill(r, col, reg)
}

// soften halves the ink toward white, for the one-pixel edge ring of
// anti-aliased ink boxes.
func soften(c color.Color) color.Color {
	r, g, b, _ := c.RGBA()
	return color.RGBA64{
		R: uint16((r + 0xffff) / 2),
		G: uint16((g + 0xffff) / 2),
		B: uint16((b + 0xffff) / 2),
		A: 0xffff,
	}
}

// DrawEmptyBoxes renders hollow placeholder rectangles for uncovered
// glyphs.
func (d *Device) DrawEmptyBoxes(x, y int, gs *frame.GlyphString, from, to int, reg *frame.Region) {
	d.record(Call{Op: "boxes", X: x, Y: y, From: from, To: to})
	pen := x
	for i := from; i < to; i++ {
		g := gs.Glyphs[i]
		if g.Type == frame.GlyphAnchor {
			continue
		}
		col := parseColor("black")
		if g.RFace != nil {
			col = parseColor(g.RFace.Foreground)
		}
		r := image.Rect(pen+1, y-g.Ascent+1, pen+g.XAdv-1, y+g.Descent-1)
		d.outline(r, col, reg)
		pen += g.XAdv
	}
}

// DrawHLine renders a horizontal decoration line.
func (d *Device) DrawHLine(x, y, w int, hl face.HLineSpec, colorName string, reg *frame.Region) {
	d.record(Call{Op: "hline", X: x, Y: y, W: w, H: hl.Width, Color: colorName})
	h := hl.Width
	if h <= 0 {
		h = 1
	}
	d.fill(image.Rect(x, y, x+w, y+h), parseColor(colorName), reg)
}

// DrawBox renders the four edges of a surrounding box.
func (d *Device) DrawBox(x, y, w, h int, box face.BoxSpec, reg *frame.Region) {
	d.record(Call{Op: "box", X: x, Y: y, W: w, H: h})
	bw := box.Width
	if bw <= 0 {
		bw = 1
	}
	d.fill(image.Rect(x, y, x+w, y+bw), parseColor(box.ColorTop), reg)
	d.fill(image.Rect(x, y+h-bw, x+w, y+h), parseColor(box.ColorBottom), reg)
	d.fill(image.Rect(x, y, x+bw, y+h), parseColor(box.ColorLeft), reg)
	d.fill(image.Rect(x+w-bw, y, x+w, y+h), parseColor(box.ColorRight), reg)
}

func (d *Device) fill(r image.Rectangle, col color.Color, reg *frame.Region) {
	src := image.NewUniform(col)
	if reg == nil {
		draw.Draw(d.Img, r, src, image.Point{}, draw.Src)
		return
	}
	for _, clip := range reg.Rects() {
		if p := r.Intersect(clip); !p.Empty() {
			draw.Draw(d.Img, p, src, image.Point{}, draw.Src)
		}
	}
}

func (d *Device) outline(r image.Rectangle, col color.Color, reg *frame.Region) {
	d.fill(image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), col, reg)
	d.fill(image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), col, reg)
	d.fill(image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), col, reg)
	d.fill(image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), col, reg)
}

// parseColor resolves an SVG 1.1 color name or a #rrggbb literal; unknown
// colors come out black.
func parseColor(name string) color.Color {
	if c, ok := colornames.Map[strings.ToLower(name)]; ok {
		return c
	}
	if strings.HasPrefix(name, "#") && len(name) == 7 {
		if v, err := strconv.ParseUint(name[1:], 16, 32); err == nil {
			return color.RGBA{
				R: uint8(v >> 16),
				G: uint8(v >> 8),
				B: uint8(v),
				A: 0xff,
			}
		}
	}
	tracer().Infof("unknown color %q, substituting black", name)
	return color.Black
}
