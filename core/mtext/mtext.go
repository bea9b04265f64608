/*
Package mtext implements annotated text: sequences of Unicode code-points
which carry typed properties over ranges ("M-text").

Positions are rune positions, not byte offsets. Properties are keyed by
interned symbols and may overlap; reading the properties at a position
returns them in stacking order, lower layers first. Properties flagged as
volatile vanish on any mutation of the text, which is how the layout core
attaches cached glyph strings to a text.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2021–2023 Norbert Pillmayer <norbert@pillmayer.com>

*/
package mtext

import (
	"bufio"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/npillmayer/cords/styled"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/uax/bidi"
	"golang.org/x/text/unicode/norm"
)

// tracer traces with key 'mtext.text'.
func tracer() tracing.Trace {
	return tracing.Select("mtext.text")
}

// Text is a sequence of runes with range properties. The zero value is an
// empty text. Texts are not safe for concurrent mutation.
type Text struct {
	runes    []rune
	props    []propRun
	modCount uint32
	view     *styled.Text // cord view, rebuilt lazily after mutations
	viewMod  uint32
}

// NewText creates an annotated text from a string.
func NewText(s string) *Text {
	return &Text{runes: []rune(s)}
}

// NewTextFromReader creates an annotated text from a reader. The input is
// NFC-normalized while reading.
func NewTextFromReader(r io.Reader) (*Text, error) {
	in := bufio.NewReader(norm.NFC.Reader(r))
	t := &Text{}
	for {
		c, sz, err := in.ReadRune()
		if sz == 0 || err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		t.runes = append(t.runes, c)
	}
	return t, nil
}

// Len returns the length of the text in runes.
func (t *Text) Len() int {
	if t == nil {
		return 0
	}
	return len(t.runes)
}

// RuneAt returns the rune at a position. Out-of-range positions yield
// utf8.RuneError semantics as rune 0xFFFD.
func (t *Text) RuneAt(pos int) rune {
	if t == nil || pos < 0 || pos >= len(t.runes) {
		return '�'
	}
	return t.runes[pos]
}

// Runes returns the underlying rune slice. Callers must not modify it.
func (t *Text) Runes() []rune {
	return t.runes
}

func (t *Text) String() string {
	return string(t.runes)
}

// ModCount returns the modification counter of the text. It increases with
// every mutation; clients use it to detect stale derived data.
func (t *Text) ModCount() uint32 {
	if t == nil {
		return 0
	}
	return t.modCount
}

// Insert inserts a string at a position. Properties behind the insertion
// point shift; properties spanning it grow. Volatile properties are dropped.
func (t *Text) Insert(pos int, s string) {
	if pos < 0 {
		pos = 0
	} else if pos > len(t.runes) {
		pos = len(t.runes)
	}
	ins := []rune(s)
	if len(ins) == 0 {
		return
	}
	t.runes = append(t.runes[:pos], append(ins, t.runes[pos:]...)...)
	d := len(ins)
	keep := t.props[:0]
	for _, p := range t.props {
		if p.volatile {
			continue
		}
		if p.from >= pos {
			p.from += d
		}
		if p.to > pos {
			p.to += d
		}
		keep = append(keep, p)
	}
	t.props = keep
	t.mutated()
}

// Delete removes the range [from,to) from the text. Properties are clipped
// accordingly; volatile properties are dropped.
func (t *Text) Delete(from, to int) {
	from, to = clamp(from, to, len(t.runes))
	if from >= to {
		return
	}
	d := to - from
	t.runes = append(t.runes[:from], t.runes[to:]...)
	keep := t.props[:0]
	for _, p := range t.props {
		if p.volatile {
			continue
		}
		if p.from >= to {
			p.from -= d
		} else if p.from > from {
			p.from = from
		}
		if p.to >= to {
			p.to -= d
		} else if p.to > from {
			p.to = from
		}
		if p.from < p.to {
			keep = append(keep, p)
		}
	}
	t.props = keep
	t.mutated()
}

func (t *Text) mutated() {
	t.modCount++
	t.view = nil
}

func clamp(from, to, l int) (int, int) {
	if from < 0 {
		from = 0
	}
	if to > l {
		to = l
	}
	return from, to
}

// --- Cord view and bidi levels ---------------------------------------------

// Styled returns a styled-cord view of the text, rebuilding it if the text
// has been mutated since the last call.
func (t *Text) Styled() *styled.Text {
	if t.view == nil || t.viewMod != t.modCount {
		t.view = styled.TextFromString(string(t.runes))
		t.viewMod = t.modCount
	}
	return t.view
}

// ByteOffset returns the byte offset of a rune position within the text's
// UTF-8 form. The cord and bidi layers index in bytes, not runes.
func (t *Text) ByteOffset(pos int) int {
	if t == nil || pos <= 0 {
		return 0
	}
	if pos > len(t.runes) {
		pos = len(t.runes)
	}
	off := 0
	for _, r := range t.runes[:pos] {
		off += utf8.RuneLen(r)
	}
	return off
}

// BidiLevels resolves bidi levels for the range [from,to) of the text,
// given an embedding direction. The resolution runs the UAX#9 algorithm of
// the uax module over a styled-cord paragraph. from and to are rune
// positions; the returned levels index by byte offset (see ByteOffset),
// as the uax API does.
func (t *Text) BidiLevels(from, to int, dir bidi.Direction) (*bidi.ResolvedLevels, error) {
	from, to = clamp(from, to, len(t.runes))
	noMarkup := bidi.OutOfLineBidiMarkup(func(uint64) int { return 0 })
	bfrom, bto := t.ByteOffset(from), t.ByteOffset(to)
	para, err := styled.ParagraphFromText(t.Styled(), uint64(bfrom), uint64(bto), dir, noMarkup)
	if err != nil {
		tracer().Errorf("mtext: bidi resolution failed: %v", err)
		return nil, err
	}
	return para.BidiLevels(), nil
}

// Reader returns a reader over the range [from,to) of the text.
func (t *Text) Reader(from, to int) io.RuneReader {
	from, to = clamp(from, to, len(t.runes))
	if from >= to {
		return strings.NewReader("")
	}
	return strings.NewReader(string(t.runes[from:to]))
}
