package cases

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSingleCase(t *testing.T) {
	study := Default()

	require.Equal(t, 1, study.Len())

	c, err := study.GetCase(0)
	require.NoError(t, err)

	assert.Equal(t, 1.0, c.DX)
	assert.Equal(t, 1.0, c.DY)
	assert.Equal(t, 3, c.Sigma)
	assert.Equal(t, 18.0, c.X1)
	assert.Equal(t, -2.0, c.BedLevel)
	assert.Equal(t, 6.0574, c.Discharge)
	assert.Equal(t, "delft", c.TurbineTurbulenceModel)
	assert.True(t, c.SimulateTurbines)
	assert.True(t, c.HorizontalMomentumFilter)
	assert.Equal(t, 0.0, c.StatsInterval)
}

func TestCasesExpansion(t *testing.T) {
	study := Default()
	study.DX = Floats(1, 0.5, 0.25)
	study.DY = Floats(1, 0.5, 0.25)

	all, err := study.Cases()
	require.NoError(t, err)
	require.Len(t, all, 3)

	for i, want := range []float64{1, 0.5, 0.25} {
		assert.Equal(t, want, all[i].DX, "case %d dx", i)
		assert.Equal(t, want, all[i].DY, "case %d dy", i)
		// scalar fields broadcast unchanged
		assert.Equal(t, 6.0574, all[i].Discharge, "case %d discharge", i)
	}
}

func TestValidateMismatchedLengths(t *testing.T) {
	study := Default()
	study.DX = Floats(1, 0.5, 0.25)
	study.DY = Floats(1, 0.5)

	_, err := study.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dx has length 3")
	assert.Contains(t, err.Error(), "dy has length 2")
}

func TestValidateCollapsesSingletons(t *testing.T) {
	study := Default()
	study.DX = Floats(0.5)

	validated, err := study.Validate()
	require.NoError(t, err)
	assert.False(t, validated.DX.IsSequence())

	c, err := validated.GetCase(0)
	require.NoError(t, err)
	assert.Equal(t, 0.5, c.DX)
}

func TestGetCaseNegativeIndex(t *testing.T) {
	study := Default()
	study.Discharge = Floats(5, 6, 7)

	last, err := study.GetCase(-1)
	require.NoError(t, err)
	assert.Equal(t, 7.0, last.Discharge)

	first, err := study.GetCase(-3)
	require.NoError(t, err)
	assert.Equal(t, 5.0, first.Discharge)

	_, err = study.GetCase(-4)
	assert.Error(t, err)
	_, err = study.GetCase(3)
	assert.Error(t, err)
}

func TestIsEqual(t *testing.T) {
	a := Default()
	b := Default()
	assert.True(t, a.IsEqual(b))

	b.Discharge = One(Float(7))
	assert.False(t, a.IsEqual(b))
	assert.True(t, a.IsEqual(b, "discharge"))
}

func TestFieldAccess(t *testing.T) {
	study := Default()

	v, ok := study.Field("bed_roughness")
	require.True(t, ok)
	s, err := v.Index(0)
	require.NoError(t, err)
	f, err := s.Float64()
	require.NoError(t, err)
	assert.Equal(t, 0.023, f)

	_, ok = study.Field("no_such_field")
	assert.False(t, ok)

	require.NoError(t, study.SetField("bed_roughness", One(Float(0.03))))
	c, err := study.GetCase(0)
	require.NoError(t, err)
	assert.Equal(t, 0.03, c.BedRoughness)

	assert.Error(t, study.SetField("no_such_field", One(Float(1))))
}

func TestYAMLRoundTrip(t *testing.T) {
	study := Default()
	study.DX = Floats(1, 0.5)
	study.DY = Floats(1, 0.5)
	study.Sigma = One(Int(6))

	path := filepath.Join(t.TempDir(), "study.yaml")
	require.NoError(t, study.ToYAML(path))

	loaded, err := FromYAML(path)
	require.NoError(t, err)
	assert.True(t, study.IsEqual(loaded))

	sv, _ := loaded.Field("sigma")
	s, err := sv.Index(0)
	require.NoError(t, err)
	assert.Equal(t, KindInt, s.Kind())
}

func TestFromYAMLPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "study.yaml")
	writeFile(t, path, "discharge: [5.0, 6.0]\nsimulate_turbines: false\n")

	study, err := FromYAML(path)
	require.NoError(t, err)
	require.Equal(t, 2, study.Len())

	c, err := study.GetCase(1)
	require.NoError(t, err)
	assert.Equal(t, 6.0, c.Discharge)
	assert.False(t, c.SimulateTurbines)
	assert.Equal(t, 18.0, c.X1)
}

func TestMycekStudyFixedFields(t *testing.T) {
	study := MycekStudy()

	err := study.SetField("turb_pos_x", One(Float(9)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"turb_pos_x" is fixed`)

	require.NoError(t, study.SetField("dx", Floats(1, 0.5)))
	require.NoError(t, study.SetField("dy", Floats(1, 0.5)))
	assert.Equal(t, 2, study.Len())
}

func TestMycekFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "study.yaml")
	writeFile(t, path, "discharge: 5.5\n")

	study, err := MycekFromYAML(path)
	require.NoError(t, err)

	c, err := study.GetCase(0)
	require.NoError(t, err)
	assert.Equal(t, 5.5, c.Discharge)
	assert.Equal(t, 6.0, c.TurbPosX)

	writeFile(t, path, "bed_level: -3\n")
	_, err = MycekFromYAML(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bed_level" is fixed`)
}

func TestCaseFieldsExcludesGridSpacing(t *testing.T) {
	study := Default()
	c, err := study.GetCase(0)
	require.NoError(t, err)

	fields := c.Fields()
	assert.NotContains(t, fields, "dx")
	assert.NotContains(t, fields, "dy")
	assert.Equal(t, 3, fields["sigma"])
	assert.Equal(t, "delft", fields["turbine_turbulence_model"])
}
