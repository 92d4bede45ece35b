package result

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTransectFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTransectFromCSV(t *testing.T) {
	path := writeTransectFile(t, "centreline.csv",
		"# units: m/s\n# source: flume run 7\nx,y,z,data\n0,0,-1,0.8\n1,0,-1,0.6\n2,0,-1,0.7\n")

	tr, err := TransectFromCSV(path)
	require.NoError(t, err)

	assert.Equal(t, "centreline", tr.Name)
	assert.Equal(t, -1.0, tr.Z)
	assert.Equal(t, []float64{0, 1, 2}, tr.X)
	assert.Equal(t, []float64{0, 0, 0}, tr.Y)
	assert.Equal(t, []float64{0.8, 0.6, 0.7}, tr.Data)
	assert.Equal(t, "m/s", tr.Attrs["units"])
	assert.Equal(t, "flume run 7", tr.Attrs["source"])
}

func TestTransectFromCSVWithoutData(t *testing.T) {
	path := writeTransectFile(t, "line.csv", "x,y,z\n0,0,-1\n1,0,-1\n")

	tr, err := TransectFromCSV(path)
	require.NoError(t, err)
	assert.Nil(t, tr.Data)
	assert.Equal(t, 2, tr.Len())
}

func TestTransectFromCSVRejectsVaryingZ(t *testing.T) {
	path := writeTransectFile(t, "bad.csv", "x,y,z\n0,0,-1\n1,0,-2\n")

	_, err := TransectFromCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixed z value")
}

func TestTransectFromCSVMissingColumn(t *testing.T) {
	path := writeTransectFile(t, "bad.csv", "x,y\n0,0\n")

	_, err := TransectFromCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing column "z"`)
}

func TestTransectCSVRoundTrip(t *testing.T) {
	orig := Transect{
		Name:  "wake",
		Z:     -1,
		X:     []float64{0, 0.5, 1},
		Y:     []float64{3, 3, 3},
		Data:  []float64{0.9, 0.7, 0.8},
		Attrs: map[string]string{"units": "m/s"},
	}

	path := filepath.Join(t.TempDir(), "wake.csv")
	require.NoError(t, orig.ToCSV(path))

	loaded, err := TransectFromCSV(path)
	require.NoError(t, err)
	assert.Equal(t, orig.Z, loaded.Z)
	assert.Equal(t, orig.X, loaded.X)
	assert.Equal(t, orig.Y, loaded.Y)
	assert.Equal(t, orig.Data, loaded.Data)
	assert.Equal(t, orig.Attrs, loaded.Attrs)
}

func TestTransectFromYAML(t *testing.T) {
	path := writeTransectFile(t, "centreline.yaml", `
z: -1
x: [0, 1, 2]
y: [0, 0, 0]
data: [0.8, 0.6, 0.7]
attrs:
  units: m/s
`)

	tr, err := TransectFromYAML(path)
	require.NoError(t, err)
	assert.Equal(t, "centreline", tr.Name)
	assert.Equal(t, -1.0, tr.Z)
	assert.Equal(t, []float64{0.8, 0.6, 0.7}, tr.Data)
	assert.Equal(t, "m/s", tr.Attrs["units"])
}

func TestTransectFromYAMLLengthMismatch(t *testing.T) {
	path := writeTransectFile(t, "bad.yaml", "z: -1\nx: [0, 1]\ny: [0]\n")

	_, err := TransectFromYAML(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "x has 2 values but y has 1")
}

func TestTransectTranslate(t *testing.T) {
	tr := Transect{Z: 0, X: []float64{0, 1}, Y: []float64{0, 0}}

	moved := tr.Translate(Offset{X: 6, Y: 3, Z: -1})
	assert.Equal(t, []float64{6, 7}, moved.X)
	assert.Equal(t, []float64{3, 3}, moved.Y)
	assert.Equal(t, -1.0, moved.Z)
	// original untouched
	assert.Equal(t, []float64{0, 1}, tr.X)
	assert.Equal(t, 0.0, tr.Z)
}

func TestTransectExtract(t *testing.T) {
	r := openTestResult(t)
	tr := Transect{Z: -1, X: []float64{6, 8}, Y: []float64{3, 3}}

	ps, err := tr.Extract(r.Faces, 0)
	require.NoError(t, err)
	require.Equal(t, 2, ps.Len())
	assert.InDelta(t, 1.6, ps.Vars["u"][0], 1e-12)
	assert.InDelta(t, 1.8, ps.Vars["u"][1], 1e-12)
}

func TestLoadValidate(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("a_centreline.yaml", "z: 0\nx: [0, 1]\ny: [0, 0]\ndata: [0.8, 0.7]\n")
	write("b_profile.yaml", "z: 0\nx: [2, 3]\ny: [0, 0]\ndata: [0.6, 0.5]\n")

	c := defaultCase(t)
	v, err := LoadValidate(dir, &c)
	require.NoError(t, err)

	require.Equal(t, 2, v.Len())
	assert.Equal(t, []string{"a_centreline", "b_profile"}, v.Names())

	first, err := v.Transect(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{6, 7}, first.X)
	assert.Equal(t, []float64{3, 3}, first.Y)
	assert.Equal(t, -1.0, first.Z)

	last, err := v.Transect(-1)
	require.NoError(t, err)
	assert.Equal(t, "b_profile", last.Name)

	_, err = v.Transect(2)
	assert.Error(t, err)

	_, ok := v.ByName("a_centreline")
	assert.True(t, ok)
	_, ok = v.ByName("missing")
	assert.False(t, ok)
}

func TestLoadValidateEmptyDir(t *testing.T) {
	_, err := LoadValidate(t.TempDir(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no transect files")
}
