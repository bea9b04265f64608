package frame

import (
	"github.com/npillmayer/mtext/core"
	"github.com/npillmayer/mtext/core/font"
	"github.com/npillmayer/mtext/engine/face"
)

// RealizedFace is a face merged against a frame, with all properties
// resolved and fonts selected. Glyphs point at realized faces.
//
// Per-script font narrowing derives sibling realized faces which share
// the merged properties and the decoration specs of their base face, but
// carry a different font.
type RealizedFace struct {
	Frame   *Frame
	Merged  *face.Face // all slots resolved, size in pixels
	Font    *font.RealizedFont
	Fontset *RealizedFontset

	Layouter string // name of the layout table shaping runs of this face

	Foreground   string
	Background   string
	VideoReverse bool
	HLine        *face.HLineSpec // shared across siblings
	Box          *face.BoxSpec   // shared across siblings

	Size                     int
	Ascent, Descent          int
	SpaceWidth, AverageWidth int

	DrawInfo interface{} // device-specific handle

	ascii    *RealizedFace // nil on the base face itself
	siblings []*RealizedFace
}

// Ascii returns the base realized face of a sibling, or the face itself.
func (rf *RealizedFace) Ascii() *RealizedFace {
	if rf.ascii != nil {
		return rf.ascii
	}
	return rf
}

// Siblings returns the per-script variants derived from a base face.
func (rf *RealizedFace) Siblings() []*RealizedFace {
	return rf.Ascii().siblings
}

// RealizeFace merges a face stack over the frame's default face, resolves
// the size, and binds fonts. An optional direct font spec overrides the
// merged font properties. Identical realizations are shared within the
// frame.
func (fr *Frame) RealizeFace(stack []*face.Face, direct *font.Spec) (*RealizedFace, error) {
	layered := make([]*face.Face, 0, len(stack)+1)
	layered = append(layered, fr.DefaultFace)
	layered = append(layered, stack...)
	merged := face.Merge(layered...)
	if direct != nil {
		over := face.FromFont(direct)
		merged = face.Merge(merged, over)
		if direct.Size != 0 {
			merged.Set(face.Size, direct.Size)
			merged.Unset(face.Ratio)
		}
	}
	size := 12
	if v, ok := merged.Get(face.Size).(int); ok && v != 0 {
		size = v
	}
	if ratio, ok := merged.Get(face.Ratio).(int); ok && ratio != 0 && ratio != 100 {
		size = size * ratio / 100
	}
	size = font.PixelSize(size, fr.DPI)
	if size <= 0 {
		size = 1
	}
	merged.Set(face.Size, size)
	merged.Unset(face.Ratio)

	for _, cached := range fr.faces {
		if cached.Merged.Equal(merged) {
			return cached, nil
		}
	}

	rf := &RealizedFace{
		Frame:      fr,
		Merged:     merged,
		Size:       size,
		Foreground: "black",
		Background: "white",
	}
	if v, ok := merged.Get(face.Foreground).(string); ok {
		rf.Foreground = v
	}
	if v, ok := merged.Get(face.Background).(string); ok {
		rf.Background = v
	}
	if v, ok := merged.Get(face.VideoMode).(string); ok {
		rf.VideoReverse = v == face.VideoReverse
	}

	fs := fr.DefaultFontset
	if name, ok := merged.Get(face.Fontset).(string); ok && name != "" {
		if named, err := font.LookupFontset(name, nil); err == nil {
			fs = named
		} else {
			tracer().Infof("fontset %q not registered, frame keeps its default", name)
		}
	}
	request := merged.FontSpec()
	request.Size = size
	rf.Fontset = fr.RealizeFontset(fs, request, size)

	sel := rf.Fontset.FontForChars([]rune{'x'}, "latin", "", "")
	rf.Font = sel.Font
	rf.Layouter = sel.Layouter
	if rf.Font != nil {
		rf.Ascent = rf.Font.Ascent
		rf.Descent = rf.Font.Descent
		rf.SpaceWidth = rf.Font.SpaceWidth()
		rf.AverageWidth = rf.Font.AverageWidth()
	} else {
		rf.Ascent = size
		rf.Descent = size / 2
		rf.SpaceWidth = size / 10
		if rf.SpaceWidth < 1 {
			rf.SpaceWidth = 1
		}
		rf.AverageWidth = rf.SpaceWidth
	}

	if v, ok := merged.Get(face.HLine).(face.HLineSpec); ok {
		hl := v
		if hl.Width == 0 {
			hl.Width = size / 10
			if hl.Width < 1 {
				hl.Width = 1
			}
		}
		if hl.Color == "" {
			hl.Color = rf.Foreground
		}
		rf.HLine = &hl
	}
	if v, ok := merged.Get(face.Box).(face.BoxSpec); ok {
		box := v
		if box.Width == 0 {
			box.Width = 1
		}
		if box.ColorTop == "" {
			box.ColorTop = rf.Foreground
		}
		if box.ColorBottom == "" {
			box.ColorBottom = box.ColorTop
		}
		if box.ColorLeft == "" {
			box.ColorLeft = box.ColorTop
		}
		if box.ColorRight == "" {
			box.ColorRight = box.ColorTop
		}
		rf.Box = &box
	}

	if hook, ok := merged.Get(face.HookFunc).(face.Hook); ok {
		hook(merged, merged.Get(face.HookArg), rf)
	}

	fr.faces = append(fr.faces, rf)
	for _, f := range layered {
		if f != nil {
			f.Watch(fr)
		}
	}
	tracer().Debugf("realized %v at %dpx, font=%v", merged, size, rf.Font)
	return rf, nil
}

// ForChars narrows a realized face to a font covering a run of
// characters, deriving (and caching) a sibling face when the narrowed
// font differs from the face's own. The returned count is the number of
// leading characters the face's font covers; 0 means no font at all.
func (rf *RealizedFace) ForChars(chars []rune, script, language, charset string) (*RealizedFace, int) {
	sel := rf.Fontset.FontForChars(chars, script, language, charset)
	if sel.Font == nil {
		return rf, 0
	}
	if sel.Font == rf.Font && sel.Layouter == rf.Layouter {
		return rf, sel.Covered
	}
	base := rf.Ascii()
	for _, sib := range base.siblings {
		if sib.Font == sel.Font && sib.Layouter == sel.Layouter {
			return sib, sel.Covered
		}
	}
	sib := &RealizedFace{
		Frame:        base.Frame,
		Merged:       base.Merged,
		Font:         sel.Font,
		Fontset:      base.Fontset,
		Layouter:     sel.Layouter,
		Foreground:   base.Foreground,
		Background:   base.Background,
		VideoReverse: base.VideoReverse,
		HLine:        base.HLine,
		Box:          base.Box,
		Size:         base.Size,
		Ascent:       sel.Font.Ascent,
		Descent:      sel.Font.Descent,
		SpaceWidth:   sel.Font.SpaceWidth(),
		AverageWidth: sel.Font.AverageWidth(),
		DrawInfo:     base.DrawInfo,
		ascii:        base,
	}
	base.siblings = append(base.siblings, sib)
	return sib, sel.Covered
}

// --- Realized fontsets -----------------------------------------------------

// RealizedFontset binds a fontset to a frame and a request spec. Font
// selection results are cached per (script, language, charset) slot.
type RealizedFontset struct {
	Fontset *font.Fontset
	Request font.Spec
	Size    int
	frame   *Frame
}

// Selection is the result of a fontset lookup: the chosen font, how many
// of the leading candidate characters it covers, and the layout table tag
// of the winning fontset entry.
type Selection struct {
	Font     *font.RealizedFont
	Covered  int
	Layouter string
}

// RealizeFontset binds a fontset to the frame. Identical realizations
// are shared.
func (fr *Frame) RealizeFontset(fs *font.Fontset, request font.Spec, size int) *RealizedFontset {
	for _, rfs := range fr.fontsets {
		if rfs.Fontset == fs && rfs.Request == request && rfs.Size == size {
			return rfs
		}
	}
	rfs := &RealizedFontset{Fontset: fs, Request: request, Size: size, frame: fr}
	fr.fontsets = append(fr.fontsets, rfs)
	return rfs
}

// FontForChars selects a font covering as many leading characters of
// chars as possible, honoring the fontset's group priority. The first
// font of a group (in score order) that covers all characters wins; if
// none does, the first font covering chars[0] is chosen.
func (rfs *RealizedFontset) FontForChars(chars []rune, script, language, charset string) Selection {
	if len(chars) == 0 {
		return Selection{}
	}
	fr := rfs.frame
	var best Selection
	groups := rfs.Fontset.Groups(script, language, charset)
	for _, group := range groups {
		sorted := make([]font.Entry, len(group))
		copy(sorted, group)
		font.SortByScore(sorted, rfs.Request, false)
		for _, entry := range sorted {
			spec := font.Merge(rfs.Request, *entry.Spec)
			rfont, err := fr.realizeFont(font.InternSpec(spec), rfs.Size)
			if err != nil {
				tracer().Debugf("fontset %q: skipping %v: %v", rfs.Fontset.Name, entry.Spec, err)
				continue
			}
			covered := 0
			for _, c := range chars {
				if !fr.Fonts.HasChar(rfont, c) {
					break
				}
				covered++
			}
			if covered == len(chars) {
				return Selection{Font: rfont, Covered: covered, Layouter: entry.Layouter}
			}
			if covered > best.Covered {
				best = Selection{Font: rfont, Covered: covered, Layouter: entry.Layouter}
			}
		}
	}
	if best.Font == nil {
		tracer().Debugf("fontset %q: no font for %q (script=%s)", rfs.Fontset.Name, string(chars), script)
		return Selection{}
	}
	return best
}

// RealizeFont opens a font through the frame's cache.
func (fr *Frame) RealizeFont(spec *font.Spec, size int) (*font.RealizedFont, error) {
	if spec == nil {
		return nil, core.Error(core.EINVALID, "cannot realize a nil font spec")
	}
	return fr.realizeFont(spec, size)
}
