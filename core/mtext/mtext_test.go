package mtext

import (
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/uax/bidi"
	"github.com/stretchr/testify/assert"
)

func TestSymbolInterning(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.text")
	defer teardown()
	//
	a, b := Sym("face"), Sym("face")
	if a != b {
		t.Errorf("expected symbols of equal names to be identical")
	}
	assert.Equal(t, "face", a.Name())
	assert.NotEqual(t, Sym("font"), a)
}

func TestTextPositions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.text")
	defer teardown()
	//
	txt := NewText("héllo")
	assert.Equal(t, 5, txt.Len(), "positions are rune positions")
	assert.Equal(t, 'é', txt.RuneAt(1))
}

func TestTextFromReaderNormalizes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.text")
	defer teardown()
	//
	// 'e' followed by combining acute should compose to a single rune
	txt, err := NewTextFromReader(strings.NewReader("é"))
	assert.NoError(t, err)
	assert.Equal(t, 1, txt.Len())
	assert.Equal(t, 'é', txt.RuneAt(0))
}

func TestPropStacking(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.text")
	defer teardown()
	//
	txt := NewText("abcdef")
	txt.PushProp(0, 6, SymFace, "base")
	txt.PushProp(2, 4, SymFace, "bold")
	vv := txt.Props(3, SymFace)
	assert.Equal(t, []interface{}{"base", "bold"}, vv, "lower layers first")
	top, ok := txt.Prop(3, SymFace)
	assert.True(t, ok)
	assert.Equal(t, "bold", top)
	_, from, to, _ := txt.PropRun(3, SymFace)
	assert.Equal(t, 2, from)
	assert.Equal(t, 4, to)
}

func TestPutPropReplacesOverlap(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.text")
	defer teardown()
	//
	txt := NewText("abcdef")
	txt.PutProp(0, 6, SymScript, "latin")
	txt.PutProp(2, 4, SymScript, "greek")
	v, _ := txt.Prop(1, SymScript)
	assert.Equal(t, "latin", v)
	v, _ = txt.Prop(2, SymScript)
	assert.Equal(t, "greek", v)
	v, _ = txt.Prop(5, SymScript)
	assert.Equal(t, "latin", v)
	assert.Len(t, txt.Props(3, SymScript), 1, "PutProp must not stack")
}

func TestVolatilePropsDropOnMutation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.text")
	defer teardown()
	//
	txt := NewText("hello world")
	txt.PushVolatileProp(0, 5, SymGlyphString, "cache")
	mod := txt.ModCount()
	_, ok := txt.Prop(2, SymGlyphString)
	assert.True(t, ok)
	txt.Insert(5, ",")
	_, ok = txt.Prop(2, SymGlyphString)
	assert.False(t, ok, "volatile property must vanish on mutation")
	assert.Greater(t, txt.ModCount(), mod)
}

func TestDeleteClipsProps(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.text")
	defer teardown()
	//
	txt := NewText("abcdef")
	txt.PushProp(1, 5, SymLanguage, "en")
	txt.Delete(2, 4)
	assert.Equal(t, "abef", txt.String())
	_, from, to, ok := txt.PropRun(1, SymLanguage)
	assert.True(t, ok)
	assert.Equal(t, 1, from)
	assert.Equal(t, 3, to)
}

func TestBidiLevels(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.text")
	defer teardown()
	//
	txt := NewText("AאB")
	assert.Equal(t, 1, txt.ByteOffset(1))
	assert.Equal(t, 3, txt.ByteOffset(2), "the Hebrew letter takes two bytes")
	levels, err := txt.BidiLevels(0, txt.Len(), bidi.LeftToRight)
	assert.NoError(t, err)
	assert.NotNil(t, levels)
	assert.Equal(t, bidi.LeftToRight, levels.DirectionAt(uint64(txt.ByteOffset(0))))
	assert.Equal(t, bidi.RightToLeft, levels.DirectionAt(uint64(txt.ByteOffset(1))))
	assert.Equal(t, bidi.LeftToRight, levels.DirectionAt(uint64(txt.ByteOffset(2))),
		"a strong LTR character after an RTL run stays LTR")
}
