/*
Package font handles font specs, font scoring and fontsets.

There is a certain confusion in the nomenclature of typesetting. We stick
to the following definitions:

* A "font spec" is a wish: a partially specified bundle of font properties
(foundry, family, weight, style, stretch, adstyle, registry, size).

* A "realized font" is a font a driver has selected for a spec and opened
at a concrete pixel size, ready to encode characters and report metrics.

* A "fontset" is a rule table mapping scripts and languages (or charsets)
to ordered lists of font specs; realizing a fontset against a frame yields
the concrete fonts the layout core draws with.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2021–2023 Norbert Pillmayer <norbert@pillmayer.com>

*/
package font

import (
	"fmt"
	"strings"
	"sync"

	"github.com/derekparker/trie"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'mtext.fonts'.
func tracer() tracing.Trace {
	return tracing.Select("mtext.fonts")
}

// Weight is a font weight on the CSS-like scale 1…9 (thin…black).
// 0 means unset.
type Weight int8

// Font weights.
const (
	WeightAny      Weight = 0
	WeightThin     Weight = 1
	WeightLight    Weight = 3
	WeightNormal   Weight = 4
	WeightMedium   Weight = 5
	WeightSemiBold Weight = 6
	WeightBold     Weight = 7
	WeightBlack    Weight = 9
)

// Style is a font slant. 0 means unset.
type Style int8

// Font styles.
const (
	StyleAny     Style = 0
	StyleNormal  Style = 1
	StyleItalic  Style = 2
	StyleOblique Style = 3
)

// Stretch is a font width on a 1…9 scale (ultra-condensed…ultra-expanded),
// 5 being normal. 0 means unset.
type Stretch int8

// Font stretch values.
const (
	StretchAny       Stretch = 0
	StretchCondensed Stretch = 3
	StretchNormal    Stretch = 5
	StretchExpanded  Stretch = 7
)

// ParseWeight maps a variant name to a weight.
func ParseWeight(name string) Weight {
	switch strings.ToLower(name) {
	case "thin", "100":
		return WeightThin
	case "extralight", "200":
		return 2
	case "light", "300":
		return WeightLight
	case "regular", "normal", "400":
		return WeightNormal
	case "medium", "500":
		return WeightMedium
	case "semibold", "600":
		return WeightSemiBold
	case "bold", "700":
		return WeightBold
	case "extrabold", "800":
		return 8
	case "black", "heavy", "900":
		return WeightBlack
	}
	return WeightAny
}

// ParseStyle maps a variant name to a style.
func ParseStyle(name string) Style {
	switch strings.ToLower(name) {
	case "normal", "regular", "r":
		return StyleNormal
	case "italic", "i":
		return StyleItalic
	case "oblique", "o":
		return StyleOblique
	}
	return StyleAny
}

// ParseStretch maps a variant name to a stretch value.
func ParseStretch(name string) Stretch {
	switch strings.ToLower(name) {
	case "condensed", "narrow", "semicondensed":
		return StretchCondensed
	case "normal":
		return StretchNormal
	case "expanded", "semiexpanded", "wide":
		return StretchExpanded
	}
	return StretchAny
}

// --- Font specs ------------------------------------------------------------

// Spec is a partially specified font wish. Zero-valued fields are unset and
// match anything. Size is a pixel size when positive, a point size when
// negative (pt = -Size), and unset when zero.
type Spec struct {
	Foundry  string
	Family   string
	Adstyle  string
	Registry string
	Weight   Weight
	Style    Style
	Stretch  Stretch
	Size     int
}

func (sp Spec) String() string {
	return fmt.Sprintf("%s-%s-%d-%d-%d-%s-%s-%d", emptyDash(sp.Foundry), emptyDash(sp.Family),
		sp.Weight, sp.Style, sp.Stretch, emptyDash(sp.Adstyle), emptyDash(sp.Registry), sp.Size)
}

func emptyDash(s string) string {
	if s == "" {
		return "*"
	}
	return s
}

// Merge overlays spec `over` on `base`: set fields of `over` win.
func Merge(base, over Spec) Spec {
	r := base
	if over.Foundry != "" {
		r.Foundry = over.Foundry
	}
	if over.Family != "" {
		r.Family = over.Family
	}
	if over.Adstyle != "" {
		r.Adstyle = over.Adstyle
	}
	if over.Registry != "" {
		r.Registry = over.Registry
	}
	if over.Weight != WeightAny {
		r.Weight = over.Weight
	}
	if over.Style != StyleAny {
		r.Style = over.Style
	}
	if over.Stretch != StretchAny {
		r.Stretch = over.Stretch
	}
	if over.Size != 0 {
		r.Size = over.Size
	}
	return r
}

// --- Spec pool -------------------------------------------------------------

// The process-wide spec pool interns identical specs, so fontset entries
// and realized fonts can share spec identity.
var specPool = struct {
	sync.Mutex
	specs map[string]*Spec
}{specs: make(map[string]*Spec)}

// InternSpec interns a spec in the process-wide pool and returns the shared
// instance. Interned specs must not be mutated.
func InternSpec(sp Spec) *Spec {
	key := sp.String()
	specPool.Lock()
	defer specPool.Unlock()
	if shared, ok := specPool.specs[key]; ok {
		return shared
	}
	shared := new(Spec)
	*shared = sp
	specPool.specs[key] = shared
	return shared
}

// --- Registry of font binaries ---------------------------------------------

// Registry maps normalized family names to raw font file content. Drivers
// consult it before searching the system for font files.
type Registry struct {
	sync.Mutex
	fonts    map[string][]byte
	families *trie.Trie
}

var globalRegistry *Registry

var globalRegistryCreation sync.Once

// GlobalRegistry returns the process-wide font registry.
func GlobalRegistry() *Registry {
	globalRegistryCreation.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// NewRegistry creates an empty font registry.
func NewRegistry() *Registry {
	return &Registry{
		fonts:    make(map[string][]byte),
		families: trie.New(),
	}
}

// StoreBinary registers raw font file content under a family name.
func (fr *Registry) StoreBinary(family string, binary []byte) {
	if len(binary) == 0 {
		tracer().Errorf("registry cannot store empty font")
		return
	}
	fr.Lock()
	defer fr.Unlock()
	fname := NormalizeFamily(family)
	tracer().Debugf("registry stores font %s as %s", family, fname)
	fr.fonts[fname] = binary
	fr.families.Add(fname, family)
}

// Binary returns the registered font content for a family name.
func (fr *Registry) Binary(family string) ([]byte, bool) {
	fr.Lock()
	defer fr.Unlock()
	b, ok := fr.fonts[NormalizeFamily(family)]
	return b, ok
}

// Families lists registered family names with a given prefix. An empty
// prefix lists every family.
func (fr *Registry) Families(prefix string) []string {
	fr.Lock()
	defer fr.Unlock()
	var keys []string
	if prefix == "" {
		keys = fr.families.Keys()
	} else {
		keys = fr.families.PrefixSearch(NormalizeFamily(prefix))
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		if node, ok := fr.families.Find(k); ok {
			names = append(names, node.Meta().(string))
		}
	}
	return names
}

// NormalizeFamily normalizes a family name for registry lookup.
func NormalizeFamily(fname string) string {
	fname = strings.TrimSpace(fname)
	fname = strings.ReplaceAll(fname, " ", "_")
	if dot := strings.LastIndex(fname, "."); dot > 0 {
		fname = fname[:dot]
	}
	return strings.ToLower(fname)
}
