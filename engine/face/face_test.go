package face

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"

	"github.com/npillmayer/mtext/core"
	"github.com/npillmayer/mtext/core/font"
)

func TestMergeLastWins(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.face")
	defer teardown()
	base := New()
	assert.NoError(t, base.Set(Family, "helvetica"))
	assert.NoError(t, base.Set(Size, 12))
	merged := Merge(base, Bold, Italic, Red)
	assert.Equal(t, "helvetica", merged.Get(Family))
	assert.Equal(t, font.WeightBold, merged.Get(Weight))
	assert.Equal(t, font.StyleItalic, merged.Get(Style))
	assert.Equal(t, "red", merged.Get(Foreground))
	assert.Equal(t, 12, merged.Get(Size))
	// later layers override
	merged = Merge(base, Red, Green)
	assert.Equal(t, "green", merged.Get(Foreground))
}

func TestPredefinedReadOnly(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.face")
	defer teardown()
	err := Bold.Set(Weight, font.WeightThin)
	assert.Error(t, err)
	assert.Equal(t, core.EREADONLY, core.Code(err))
	assert.Equal(t, font.WeightBold, Bold.Get(Weight), "predefined face unchanged")
}

func TestSetChecksValueType(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.face")
	defer teardown()
	f := New()
	assert.Error(t, f.Set(Size, "twelve"))
	assert.Error(t, f.Set(Family, 7))
	assert.NoError(t, f.Set(HLine, HLineSpec{Style: HLineStrike, Width: 2}))
}

type countingWatcher struct{ changes int }

func (w *countingWatcher) FaceChanged(*Face) { w.changes++ }

func TestWatcherNotification(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.face")
	defer teardown()
	f := New()
	w := &countingWatcher{}
	f.Watch(w)
	assert.NoError(t, f.Set(Foreground, "blue"))
	assert.NoError(t, f.Unset(Foreground))
	assert.Equal(t, 2, w.changes)
	f.Unwatch(w)
	assert.NoError(t, f.Set(Foreground, "blue"))
	assert.Equal(t, 2, w.changes)
}

func TestFontSpecRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.face")
	defer teardown()
	spec := font.Spec{Family: "courier", Weight: font.WeightBold, Size: -10}
	f := FromFont(&spec)
	assert.Equal(t, spec, f.FontSpec())
	assert.False(t, f.Has(Foundry))
}

func TestEqualIgnoresWatchers(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.face")
	defer teardown()
	a, b := New(), New()
	assert.NoError(t, a.Set(Family, "times"))
	assert.NoError(t, b.Set(Family, "times"))
	b.Watch(&countingWatcher{})
	assert.True(t, a.Equal(b))
	assert.NoError(t, b.Set(Ratio, 150))
	assert.False(t, a.Equal(b))
}
