package font

import (
	"sync"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/npillmayer/mtext/core"
	"github.com/npillmayer/mtext/core/plist"
)

// A fontset maps scripts and languages (or charsets) to ordered groups of
// font specs. Group order is the matching priority. Insertion order of
// scripts, languages and charsets is preserved, which matters for the
// "other languages in insertion order" rule of group selection.

// Entry is one fontset slot: a spec plus the name of the layout table to
// shape runs with ("" means none).
type Entry struct {
	Spec     *Spec
	Layouter string
}

// Fontset is the rule table. The zero value is not usable; create with
// NewFontset.
type Fontset struct {
	Name       string
	perScript  *linkedhashmap.Map // script → *linkedhashmap.Map (language → []Entry)
	perCharset *linkedhashmap.Map // charset → []Entry
	fallback   []Entry
}

// NewFontset creates an empty fontset.
func NewFontset(name string) *Fontset {
	return &Fontset{
		Name:       name,
		perScript:  linkedhashmap.New(),
		perCharset: linkedhashmap.New(),
	}
}

// AddSpec appends an entry for a (script, language) slot. Language "t" is
// the generic slot matching any language.
func (fs *Fontset) AddSpec(script, language string, e Entry) {
	if language == "" {
		language = "t"
	}
	var langs *linkedhashmap.Map
	if v, ok := fs.perScript.Get(script); ok {
		langs = v.(*linkedhashmap.Map)
	} else {
		langs = linkedhashmap.New()
		fs.perScript.Put(script, langs)
	}
	var group []Entry
	if v, ok := langs.Get(language); ok {
		group = v.([]Entry)
	}
	langs.Put(language, append(group, e))
}

// AddCharsetSpec appends an entry for a charset slot.
func (fs *Fontset) AddCharsetSpec(charset string, e Entry) {
	var group []Entry
	if v, ok := fs.perCharset.Get(charset); ok {
		group = v.([]Entry)
	}
	fs.perCharset.Put(charset, append(group, e))
}

// AddFallback appends an entry to the fallback group.
func (fs *Fontset) AddFallback(e Entry) {
	fs.fallback = append(fs.fallback, e)
}

// Groups returns the candidate groups for (script, language, charset) in
// matching priority order:
//
//  1. the per-charset group, if charset is set and present,
//  2. for the script: the language-specific group, then the generic group
//     ("t"), then the other languages' groups in insertion order,
//  3. the fallback group,
//  4. if only the fallback would apply, every other group too.
func (fs *Fontset) Groups(script, language, charset string) [][]Entry {
	var groups [][]Entry
	if charset != "" {
		if v, ok := fs.perCharset.Get(charset); ok {
			groups = append(groups, v.([]Entry))
		}
	}
	scriptMatched := false
	if script != "" {
		if v, ok := fs.perScript.Get(script); ok {
			langs := v.(*linkedhashmap.Map)
			if language != "" && language != "t" {
				if g, ok := langs.Get(language); ok {
					groups = append(groups, g.([]Entry))
					scriptMatched = true
				}
			}
			if g, ok := langs.Get("t"); ok {
				groups = append(groups, g.([]Entry))
				scriptMatched = true
			}
			it := langs.Iterator()
			for it.Next() {
				lang := it.Key().(string)
				if lang == "t" || lang == language {
					continue
				}
				groups = append(groups, it.Value().([]Entry))
				scriptMatched = true
			}
		}
	}
	if len(fs.fallback) > 0 {
		groups = append(groups, fs.fallback)
	}
	if !scriptMatched && len(groups) <= 1 {
		// only the fallback (or nothing) applies: try everything
		it := fs.perScript.Iterator()
		for it.Next() {
			langs := it.Value().(*linkedhashmap.Map)
			lit := langs.Iterator()
			for lit.Next() {
				groups = append(groups, lit.Value().([]Entry))
			}
		}
		cit := fs.perCharset.Iterator()
		for cit.Next() {
			groups = append(groups, cit.Value().([]Entry))
		}
	}
	return groups
}

// --- Default fontset -------------------------------------------------------

var defaultFontsetOnce sync.Once
var defaultFontset *Fontset

// DefaultFontset returns the process-wide fontset named "default". Its
// single fallback entry names no family, which lets the font driver pick
// its own fallback font.
func DefaultFontset() *Fontset {
	defaultFontsetOnce.Do(func() {
		defaultFontset = NewFontset("default")
		defaultFontset.AddFallback(Entry{Spec: InternSpec(Spec{})})
		RegisterFontset(defaultFontset)
	})
	return defaultFontset
}

// --- Fontset registry ------------------------------------------------------

var fontsetRegistry = struct {
	sync.Mutex
	sets map[string]*Fontset
}{sets: make(map[string]*Fontset)}

// RegisterFontset stores a fontset in the process-wide registry.
func RegisterFontset(fs *Fontset) {
	fontsetRegistry.Lock()
	defer fontsetRegistry.Unlock()
	fontsetRegistry.sets[fs.Name] = fs
}

// LookupFontset finds a registered fontset, loading it from the database
// if it is not registered yet. db may be nil, restricting the lookup to
// registered fontsets.
func LookupFontset(name string, db plist.Database) (*Fontset, error) {
	fontsetRegistry.Lock()
	fs, ok := fontsetRegistry.sets[name]
	fontsetRegistry.Unlock()
	if ok {
		return fs, nil
	}
	if db == nil {
		return nil, core.Error(core.EMISSING, "fontset %q is not registered", name)
	}
	rec, err := db.Get(plist.KindFontset, name)
	if err != nil {
		return nil, err
	}
	fs, err = FontsetFromPlist(name, rec)
	if err != nil {
		return nil, err
	}
	RegisterFontset(fs)
	return fs, nil
}

// --- Property-list form ----------------------------------------------------

// FontsetFromPlist compiles a fontset record. The expected shape is
//
//	(per-script
//	  (latin (en ((family "x")) ((family "y") some-flt))
//	         (t  ((family "x"))))
//	  (hebrew (t ((family "z") hebrew-flt))))
//	(per-charset (iso8859-1 ((family "x"))))
//	(fallback ((family "x")))
func FontsetFromPlist(name string, rec plist.List) (*Fontset, error) {
	fs := NewFontset(name)
	if scripts, ok := rec.Assoc(plist.Sym("per-script")); ok {
		for _, e := range scripts {
			scriptList, ok := e.(plist.List)
			if !ok || len(scriptList) < 1 {
				return nil, core.Error(core.EINVALID, "fontset %q: malformed per-script entry", name)
			}
			script, _ := scriptList.SymAt(0)
			for _, le := range scriptList[1:] {
				langList, ok := le.(plist.List)
				if !ok || len(langList) < 1 {
					return nil, core.Error(core.EINVALID, "fontset %q: malformed language entry", name)
				}
				lang, _ := langList.SymAt(0)
				for _, ee := range langList[1:] {
					entry, err := entryFromPlist(ee)
					if err != nil {
						return nil, err
					}
					fs.AddSpec(string(script), string(lang), entry)
				}
			}
		}
	}
	if charsets, ok := rec.Assoc(plist.Sym("per-charset")); ok {
		for _, e := range charsets {
			csList, ok := e.(plist.List)
			if !ok || len(csList) < 1 {
				return nil, core.Error(core.EINVALID, "fontset %q: malformed per-charset entry", name)
			}
			cs, _ := csList.SymAt(0)
			for _, ee := range csList[1:] {
				entry, err := entryFromPlist(ee)
				if err != nil {
					return nil, err
				}
				fs.AddCharsetSpec(string(cs), entry)
			}
		}
	}
	if fallback, ok := rec.Assoc(plist.Sym("fallback")); ok {
		for _, ee := range fallback {
			entry, err := entryFromPlist(ee)
			if err != nil {
				return nil, err
			}
			fs.AddFallback(entry)
		}
	}
	return fs, nil
}

// entryFromPlist reads ((prop value)…) with an optional trailing layouter
// symbol.
func entryFromPlist(e plist.Expr) (Entry, error) {
	l, ok := e.(plist.List)
	if !ok {
		return Entry{}, core.Error(core.EINVALID, "fontset entry is not a list: %s", plist.Format(e))
	}
	var entry Entry
	var sp Spec
	for i, sub := range l {
		if sym, ok := l.SymAt(i); ok && i == len(l)-1 {
			entry.Layouter = string(sym)
			continue
		}
		pair, ok := sub.(plist.List)
		if !ok || len(pair) != 2 {
			return Entry{}, core.Error(core.EINVALID, "malformed spec element: %s", plist.Format(sub))
		}
		key, _ := pair.SymAt(0)
		switch key {
		case "foundry":
			s, _ := pair.StrAt(1)
			sp.Foundry = string(s)
		case "family":
			s, _ := pair.StrAt(1)
			sp.Family = string(s)
		case "adstyle":
			s, _ := pair.StrAt(1)
			sp.Adstyle = string(s)
		case "registry":
			s, _ := pair.StrAt(1)
			sp.Registry = string(s)
		case "weight":
			sym, _ := pair.SymAt(1)
			sp.Weight = ParseWeight(string(sym))
		case "style":
			sym, _ := pair.SymAt(1)
			sp.Style = ParseStyle(string(sym))
		case "stretch":
			sym, _ := pair.SymAt(1)
			sp.Stretch = ParseStretch(string(sym))
		case "size":
			n, _ := pair.IntAt(1)
			sp.Size = int(n)
		default:
			return Entry{}, core.Error(core.EINVALID, "unknown spec property %q", key)
		}
	}
	entry.Spec = InternSpec(sp)
	return entry, nil
}
