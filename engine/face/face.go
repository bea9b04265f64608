/*
Package face implements text faces: named bundles of appearance properties
which clients attach to ranges of text. Faces are layered and merged; the
merged result is later realized against a frame, which resolves the
outstanding font and color work.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2021–2023 Norbert Pillmayer <norbert@pillmayer.com>

*/
package face

import (
	"fmt"
	"strings"

	"github.com/npillmayer/schuko/tracing"

	"github.com/npillmayer/mtext/core"
	"github.com/npillmayer/mtext/core/font"
)

// tracer traces with key 'mtext.face'.
func tracer() tracing.Trace {
	return tracing.Select("mtext.face")
}

// Property identifies one of the fixed slots of a face.
type Property int

const (
	Foundry Property = iota
	Family
	Weight
	Style
	Stretch
	Adstyle
	Size
	Fontset
	Foreground
	Background
	HLine
	Box
	VideoMode
	Ratio
	HookFunc
	HookArg
	NumProperties
)

var propertyNames = [NumProperties]string{
	"foundry", "family", "weight", "style", "stretch", "adstyle", "size",
	"fontset", "foreground", "background", "hline", "box", "videomode",
	"ratio", "hook-func", "hook-arg",
}

func (p Property) String() string {
	if p < 0 || p >= NumProperties {
		return fmt.Sprintf("property(%d)", int(p))
	}
	return propertyNames[p]
}

// Video modes for the VideoMode property.
const (
	VideoNormal  = "normal"
	VideoReverse = "reverse"
)

// HLineStyle positions a horizontal decoration line relative to the glyphs.
type HLineStyle int8

const (
	HLineBottom HLineStyle = iota
	HLineUnder
	HLineStrike
	HLineOver
	HLineTop
)

// HLineSpec describes a horizontal line decoration. A zero Width means one
// tenth of the face's font size, at least one pixel.
type HLineSpec struct {
	Style HLineStyle
	Width int
	Color string // empty = foreground color
}

// BoxSpec describes a box drawn around the styled text.
type BoxSpec struct {
	Width       int
	ColorTop    string
	ColorBottom string
	ColorLeft   string
	ColorRight  string
	HMargin     int
	VMargin     int
}

// Hook is called once whenever a face is realized for a frame. The realized
// argument is the frame's realized face, passed opaquely to keep faces
// independent of frames.
type Hook func(f *Face, arg interface{}, realized interface{})

// Watcher is notified of in-place mutations of a face it observes. Frames
// register themselves here so that a face change invalidates their realized
// resources.
type Watcher interface {
	FaceChanged(f *Face)
}

// Face is a bundle of appearance properties. Any slot may be unset, in
// which case merging and realization look further down the face stack.
//
// The zero value is not usable, create faces with New.
type Face struct {
	props      [NumProperties]interface{}
	predefined bool
	watchers   map[Watcher]struct{}
}

// New creates an empty face.
func New() *Face {
	return &Face{watchers: make(map[Watcher]struct{})}
}

// FromFont creates a face carrying the font-related properties of a spec.
func FromFont(spec *font.Spec) *Face {
	f := New()
	if spec == nil {
		return f
	}
	if spec.Foundry != "" {
		f.props[Foundry] = spec.Foundry
	}
	if spec.Family != "" {
		f.props[Family] = spec.Family
	}
	if spec.Adstyle != "" {
		f.props[Adstyle] = spec.Adstyle
	}
	if spec.Weight != font.WeightAny {
		f.props[Weight] = spec.Weight
	}
	if spec.Style != font.StyleAny {
		f.props[Style] = spec.Style
	}
	if spec.Stretch != font.StretchAny {
		f.props[Stretch] = spec.Stretch
	}
	if spec.Size != 0 {
		f.props[Size] = spec.Size
	}
	return f
}

// Copy creates an unwatched copy of a face.
func (f *Face) Copy() *Face {
	c := New()
	c.props = f.props
	return c
}

// Has reports whether a property slot is set.
func (f *Face) Has(p Property) bool {
	return p >= 0 && p < NumProperties && f.props[p] != nil
}

// Get returns the value of a property slot, or nil if unset.
func (f *Face) Get(p Property) interface{} {
	if p < 0 || p >= NumProperties {
		return nil
	}
	return f.props[p]
}

// Set stores a property value and notifies watching frames. Predefined
// faces are read-only.
func (f *Face) Set(p Property, v interface{}) error {
	if f.predefined {
		return core.Error(core.EREADONLY, "face: predefined faces are read-only")
	}
	if p < 0 || p >= NumProperties {
		return core.Error(core.EINVALID, "face: no property %d", int(p))
	}
	if v != nil {
		if err := checkValue(p, v); err != nil {
			return err
		}
	}
	f.props[p] = v
	f.notify()
	return nil
}

// Unset clears a property slot and notifies watching frames.
func (f *Face) Unset(p Property) error {
	return f.Set(p, nil)
}

func checkValue(p Property, v interface{}) error {
	ok := false
	switch p {
	case Foundry, Family, Adstyle, Fontset, Foreground, Background, VideoMode:
		_, ok = v.(string)
	case Weight:
		_, ok = v.(font.Weight)
	case Style:
		_, ok = v.(font.Style)
	case Stretch:
		_, ok = v.(font.Stretch)
	case Size, Ratio:
		_, ok = v.(int)
	case HLine:
		_, ok = v.(HLineSpec)
	case Box:
		_, ok = v.(BoxSpec)
	case HookFunc:
		_, ok = v.(Hook)
	case HookArg:
		ok = true
	}
	if !ok {
		return core.Error(core.EINVALID, "face: illegal value %v for property %s", v, p)
	}
	return nil
}

// Watch registers a watcher to be notified of mutations.
func (f *Face) Watch(w Watcher) {
	if f.watchers == nil {
		f.watchers = make(map[Watcher]struct{})
	}
	f.watchers[w] = struct{}{}
}

// Unwatch removes a watcher.
func (f *Face) Unwatch(w Watcher) {
	delete(f.watchers, w)
}

func (f *Face) notify() {
	for w := range f.watchers {
		w.FaceChanged(f)
	}
}

// Equal compares the property slots of two faces. Watchers do not take
// part in the comparison.
func (f *Face) Equal(other *Face) bool {
	if f == other {
		return true
	}
	if f == nil || other == nil {
		return false
	}
	for p := Property(0); p < NumProperties; p++ {
		if p == HookFunc { // functions are not comparable
			if (f.props[p] == nil) != (other.props[p] == nil) {
				return false
			}
			continue
		}
		if f.props[p] != other.props[p] {
			return false
		}
	}
	return true
}

func (f *Face) String() string {
	var sb strings.Builder
	sb.WriteString("face[")
	sep := ""
	for p := Property(0); p < NumProperties; p++ {
		if f.props[p] == nil {
			continue
		}
		fmt.Fprintf(&sb, "%s%s=%v", sep, p, f.props[p])
		sep = " "
	}
	sb.WriteString("]")
	return sb.String()
}

// Merge layers faces over one another: for every property the value of the
// last face that has it set wins. The result is a fresh, unwatched face.
func Merge(faces ...*Face) *Face {
	merged := New()
	for _, f := range faces {
		if f == nil {
			continue
		}
		for p := Property(0); p < NumProperties; p++ {
			if f.props[p] != nil {
				merged.props[p] = f.props[p]
			}
		}
	}
	return merged
}

// FontSpec extracts the font-related properties of a (merged) face.
func (f *Face) FontSpec() font.Spec {
	spec := font.Spec{}
	if v, ok := f.props[Foundry].(string); ok {
		spec.Foundry = v
	}
	if v, ok := f.props[Family].(string); ok {
		spec.Family = v
	}
	if v, ok := f.props[Adstyle].(string); ok {
		spec.Adstyle = v
	}
	if v, ok := f.props[Weight].(font.Weight); ok {
		spec.Weight = v
	}
	if v, ok := f.props[Style].(font.Style); ok {
		spec.Style = v
	}
	if v, ok := f.props[Stretch].(font.Stretch); ok {
		spec.Stretch = v
	}
	if v, ok := f.props[Size].(int); ok {
		spec.Size = v
	}
	return spec
}
