package mtext

import "sync"

// A Symbol is an interned name. Symbols with equal names are identical and
// may be compared with '=='. Text properties are keyed by symbols.
type Symbol int32

// InvalidSymbol is the zero value of Symbol; it never names anything.
const InvalidSymbol Symbol = 0

var symtab = struct {
	sync.RWMutex
	names []string
	index map[string]Symbol
}{
	names: []string{"<invalid>"},
	index: make(map[string]Symbol),
}

// Sym interns a name and returns its symbol. Repeated calls with the same
// name return the same symbol.
func Sym(name string) Symbol {
	symtab.RLock()
	if s, ok := symtab.index[name]; ok {
		symtab.RUnlock()
		return s
	}
	symtab.RUnlock()
	symtab.Lock()
	defer symtab.Unlock()
	if s, ok := symtab.index[name]; ok {
		return s
	}
	s := Symbol(len(symtab.names))
	symtab.names = append(symtab.names, name)
	symtab.index[name] = s
	return s
}

// Name returns the name a symbol has been interned with.
func (s Symbol) Name() string {
	symtab.RLock()
	defer symtab.RUnlock()
	if s <= 0 || int(s) >= len(symtab.names) {
		return "<invalid>"
	}
	return symtab.names[s]
}

func (s Symbol) String() string {
	return s.Name()
}

// Symbols for the text properties the layout core reads, and the one it
// writes (the cached glyph strings, a volatile property).
var (
	SymFace        = Sym("face")
	SymFont        = Sym("font")
	SymScript      = Sym("script")
	SymLanguage    = Sym("language")
	SymCharset     = Sym("charset")
	SymGlyphString = Sym("glyph-string")
)
