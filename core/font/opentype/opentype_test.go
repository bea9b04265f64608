package opentype

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"

	mfont "github.com/npillmayer/mtext/core/font"
)

// --- Test Suite Preparation ------------------------------------------------

type DriverTestEnviron struct {
	suite.Suite
	driver Driver
	rf     *mfont.RealizedFont
}

// listen for 'go test' command --> run test methods
func TestOpenTypeDriver(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "mtext.fonts")
	defer teardown()
	suite.Run(t, new(DriverTestEnviron))
}

// run once, before test suite methods
func (env *DriverTestEnviron) SetupSuite() {
	env.T().Log("Setting up test suite")
	spec := mfont.InternSpec(mfont.Spec{Size: 16}) // empty family = fallback font
	rf, err := env.driver.Select(spec, 0)
	env.Require().NoError(err)
	env.Require().NoError(env.driver.Open(rf))
	env.rf = rf
}

// --- Tests -----------------------------------------------------------------

func (env *DriverTestEnviron) TestOpenedMetrics() {
	env.Equal(mfont.StatusOpened, env.rf.Status)
	env.Greater(env.rf.Ascent, 0)
	env.Greater(env.rf.Descent, 0)
}

func (env *DriverTestEnviron) TestEncode() {
	env.True(env.driver.HasChar(env.rf, 'A'))
	code := env.driver.Encode(env.rf, 'A')
	env.NotEqual(mfont.InvalidCode, code)
	env.Equal(mfont.InvalidCode, env.driver.Encode(env.rf, 'א'),
		"Go Regular has no Hebrew glyphs")
}

func (env *DriverTestEnviron) TestGlyphMetrics() {
	code := env.driver.Encode(env.rf, 'x')
	m, ok := env.driver.Metrics(env.rf, code)
	env.True(ok)
	env.Greater(m.XAdvance, 0)
	env.GreaterOrEqual(m.Ascent, 0)
}

func (env *DriverTestEnviron) TestSpaceAndAverageWidth() {
	env.Greater(env.rf.SpaceWidth(), 0)
	env.GreaterOrEqual(env.rf.AverageWidth(), env.rf.SpaceWidth()/2)
}

func (env *DriverTestEnviron) TestDriveOTFKeepsCoverage() {
	slots := []mfont.GlyphSlot{
		{Cluster: 0, CodePoint: 'f'},
		{Cluster: 1, CodePoint: 'i'},
	}
	out, err := env.driver.DriveOTF(env.rf, slots, "latn", "dflt", []string{"*"}, []string{"*"})
	env.NoError(err)
	env.NotEmpty(out)
	for _, s := range out {
		env.True(s.Encoded)
		env.NotEqual(uint32(0), s.Code)
	}
}

func (env *DriverTestEnviron) TestSelectFailsForUnknownFamily() {
	spec := mfont.InternSpec(mfont.Spec{Family: "no-such-font-family-whatsoever"})
	_, err := env.driver.Select(spec, 0)
	env.Error(err)
}
