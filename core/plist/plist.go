/*
Package plist implements property lists: small Lisp-style expression trees
used as the wire format of the resource database. Fontsets and font layout
tables are defined as property lists and compiled from them.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2021–2023 Norbert Pillmayer <norbert@pillmayer.com>

*/
package plist

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/npillmayer/mtext/core"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'mtext.plist'.
func tracer() tracing.Trace {
	return tracing.Select("mtext.plist")
}

// Expr is a property-list expression: a Sym, Int, Str or List.
type Expr interface{}

// Sym is a symbol atom.
type Sym string

// Int is an integer atom. Character literals (?a and #x1F) parse to Int.
type Int int

// Str is a string atom.
type Str string

// List is a parenthesized sequence of expressions.
type List []Expr

// Format renders an expression in source form, mostly for tracing.
func Format(e Expr) string {
	switch x := e.(type) {
	case Sym:
		return string(x)
	case Int:
		return strconv.Itoa(int(x))
	case Str:
		return strconv.Quote(string(x))
	case List:
		parts := make([]string, len(x))
		for i, sub := range x {
			parts[i] = Format(sub)
		}
		return "(" + strings.Join(parts, " ") + ")"
	}
	return fmt.Sprintf("%v", e)
}

// --- Accessors -------------------------------------------------------------

// SymAt returns the i-th element of a list as a symbol.
func (l List) SymAt(i int) (Sym, bool) {
	if i < 0 || i >= len(l) {
		return "", false
	}
	s, ok := l[i].(Sym)
	return s, ok
}

// IntAt returns the i-th element of a list as an integer.
func (l List) IntAt(i int) (Int, bool) {
	if i < 0 || i >= len(l) {
		return 0, false
	}
	n, ok := l[i].(Int)
	return n, ok
}

// StrAt returns the i-th element of a list as a string atom.
func (l List) StrAt(i int) (Str, bool) {
	if i < 0 || i >= len(l) {
		return "", false
	}
	s, ok := l[i].(Str)
	return s, ok
}

// ListAt returns the i-th element of a list as a sub-list.
func (l List) ListAt(i int) (List, bool) {
	if i < 0 || i >= len(l) {
		return nil, false
	}
	sub, ok := l[i].(List)
	return sub, ok
}

// Assoc searches a list of sub-lists for the first one whose head is the
// given symbol, returning the tail of that sub-list.
func (l List) Assoc(key Sym) (List, bool) {
	for _, e := range l {
		if sub, ok := e.(List); ok && len(sub) > 0 {
			if head, ok := sub.SymAt(0); ok && head == key {
				return sub[1:], true
			}
		}
	}
	return nil, false
}

// --- Parser ----------------------------------------------------------------

// Parse reads a sequence of top-level expressions from source text.
func Parse(src string) (List, error) {
	p := &parser{src: []rune(src)}
	var result List
	for {
		p.skipSpace()
		if p.eof() {
			return result, nil
		}
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
}

type parser struct {
	src []rune
	pos int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() rune {
	return p.src[p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() {
		c := p.peek()
		if c == ';' { // comment to end of line
			for !p.eof() && p.peek() != '\n' {
				p.pos++
			}
			continue
		}
		if !unicode.IsSpace(c) {
			return
		}
		p.pos++
	}
}

func (p *parser) expr() (Expr, error) {
	p.skipSpace()
	if p.eof() {
		return nil, core.Error(core.EINVALID, "plist: unexpected end of input")
	}
	switch c := p.peek(); {
	case c == '(':
		return p.list()
	case c == ')':
		return nil, core.Error(core.EINVALID, "plist: unbalanced ')' at %d", p.pos)
	case c == '"':
		return p.str()
	case c == '?':
		p.pos++
		if p.eof() {
			return nil, core.Error(core.EINVALID, "plist: dangling '?'")
		}
		r := p.peek()
		p.pos++
		return Int(r), nil
	default:
		return p.atom()
	}
}

func (p *parser) list() (Expr, error) {
	p.pos++ // consume '('
	var l List = List{}
	for {
		p.skipSpace()
		if p.eof() {
			return nil, core.Error(core.EINVALID, "plist: missing ')'")
		}
		if p.peek() == ')' {
			p.pos++
			return l, nil
		}
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		l = append(l, e)
	}
}

func (p *parser) str() (Expr, error) {
	p.pos++ // consume '"'
	var b strings.Builder
	for !p.eof() {
		c := p.peek()
		p.pos++
		switch c {
		case '"':
			return Str(b.String()), nil
		case '\\':
			if p.eof() {
				return nil, core.Error(core.EINVALID, "plist: dangling escape")
			}
			esc := p.peek()
			p.pos++
			switch esc {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			default:
				b.WriteRune(esc)
			}
		default:
			b.WriteRune(c)
		}
	}
	return nil, core.Error(core.EINVALID, "plist: unterminated string")
}

func isDelimiter(c rune) bool {
	return unicode.IsSpace(c) || c == '(' || c == ')' || c == '"' || c == ';'
}

func (p *parser) atom() (Expr, error) {
	start := p.pos
	for !p.eof() && !isDelimiter(p.peek()) {
		p.pos++
	}
	tok := string(p.src[start:p.pos])
	if tok == "" {
		return nil, core.Error(core.EINVALID, "plist: empty token at %d", start)
	}
	if strings.HasPrefix(tok, "#x") || strings.HasPrefix(tok, "#X") {
		n, err := strconv.ParseInt(tok[2:], 16, 64)
		if err != nil {
			return nil, core.WrapError(err, core.EINVALID, "plist: bad hex literal %q", tok)
		}
		return Int(n), nil
	}
	if n, err := strconv.Atoi(tok); err == nil {
		return Int(n), nil
	}
	return Sym(tok), nil
}

// --- Database --------------------------------------------------------------

// Record kinds known to the layout core.
const (
	KindFontset = "fontset"
	KindFLT     = "flt"
)

// A Database hands out named property-list records, the external resource
// store of the layout core.
type Database interface {
	Get(kind, name string) (List, error)
}

// MemDB is an in-memory database fed from source strings. Mutation takes an
// internal lock; lookups after loading are read-only.
type MemDB struct {
	mu      sync.Mutex
	records map[string]List
}

// NewMemDB creates an empty in-memory database.
func NewMemDB() *MemDB {
	return &MemDB{records: make(map[string]List)}
}

// Define parses source text and stores it under (kind, name).
func (db *MemDB) Define(kind, name, src string) error {
	rec, err := Parse(src)
	if err != nil {
		tracer().Errorf("plist: cannot parse record %s/%s: %v", kind, name, err)
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.records[kind+"/"+name] = rec
	return nil
}

// Get returns the record stored under (kind, name).
func (db *MemDB) Get(kind, name string) (List, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	rec, ok := db.records[kind+"/"+name]
	if !ok {
		return nil, core.Error(core.EMISSING, "no %s record named %q", kind, name)
	}
	return rec, nil
}

var _ Database = &MemDB{}
