package grid

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ctessum/cdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMesh(t *testing.T) *Rectangle {
	t.Helper()
	r, err := NewRectangle(0, 3, 0, 2, 1, 1)
	require.NoError(t, err)
	return r
}

func readVarFloats(t *testing.T, f *cdf.File, name string) []float64 {
	t.Helper()
	n := 1
	for _, l := range f.Header.Lengths(name) {
		n *= l
	}
	if n == 0 {
		n = 1
	}
	r := f.Reader(name, nil, nil)
	buf := r.Zero(n)
	_, err := r.Read(buf)
	require.NoError(t, err)
	switch v := buf.(type) {
	case []float64:
		return v
	case []int32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out
	}
	t.Fatalf("unexpected buffer type %T for %s", buf, name)
	return nil
}

func TestWriteNetFile(t *testing.T) {
	mesh := testMesh(t)
	path := filepath.Join(t.TempDir(), "FlowFM_net.nc")
	require.NoError(t, WriteNetFile(path, mesh))

	ff, err := os.Open(path)
	require.NoError(t, err)
	defer ff.Close()

	f, err := cdf.Open(ff)
	require.NoError(t, err)

	conv := f.Header.GetAttribute("", "Conventions")
	assert.Contains(t, attrToString(conv), "UGRID-1.0")

	assert.Equal(t, []int{mesh.NNodes()}, f.Header.Lengths("mesh2d_node_x"))
	assert.Equal(t, []int{mesh.NFaces(), 4}, f.Header.Lengths("mesh2d_face_nodes"))
	assert.Equal(t, []int{mesh.NEdges(), 2}, f.Header.Lengths("mesh2d_edge_nodes"))

	assert.Equal(t, mesh.NodeX, readVarFloats(t, f, "mesh2d_node_x"))
	assert.Equal(t, mesh.FaceY, readVarFloats(t, f, "mesh2d_face_y"))

	faceNodes := readVarFloats(t, f, "mesh2d_face_nodes")
	assert.Equal(t, float64(mesh.FaceNodes[0][0]), faceNodes[0])
	assert.Equal(t, float64(mesh.FaceNodes[0][3]), faceNodes[3])

	nodeZ := readVarFloats(t, f, "mesh2d_node_z")
	require.Len(t, nodeZ, mesh.NNodes())
	assert.Equal(t, -999.0, nodeZ[0])
}

func TestWriteGridFile(t *testing.T) {
	mesh := testMesh(t)
	path := filepath.Join(t.TempDir(), "flume.grd")
	require.NoError(t, WriteGridFile(path, mesh))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(raw)
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")

	assert.Equal(t, "Coordinate System = Cartesian", lines[0])
	assert.Contains(t, lines[1], "4")
	assert.Contains(t, lines[1], "3")

	// one ETA record per node row, for x then y
	etas := 0
	for _, line := range lines {
		if strings.HasPrefix(line, " ETA=") {
			etas++
		}
	}
	assert.Equal(t, 2*3, etas)

	// full-precision scientific notation
	assert.Contains(t, content, "E+00")
	assert.Contains(t, content, ".00000000000000000E")
}

func TestWriteGridFileWrapsLongRows(t *testing.T) {
	mesh, err := NewRectangle(0, 12, 0, 1, 1, 1)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "long.grd")
	require.NoError(t, WriteGridFile(path, mesh))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")

	// 13 nodes per row wrap to three lines of at most five values
	var continuation int
	for _, line := range lines {
		if strings.HasPrefix(line, "          ") {
			continuation++
		}
	}
	// 2 node rows x 2 coordinate blocks x 2 continuation lines each
	assert.Equal(t, 8, continuation)
}

func TestWriteMapFileValidation(t *testing.T) {
	mesh := testMesh(t)
	base := MapSpec{
		Mesh:     mesh,
		NSigma:   3,
		Ref:      time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC),
		Times:    []float64{0},
		Depth:    func(x, y float64) float64 { return 2 },
		Velocity: func(step int, x, y, sigma float64) (float64, float64, float64) { return 1, 0, 0 },
	}

	path := filepath.Join(t.TempDir(), "out_map.nc")
	require.NoError(t, WriteMapFile(path, base))

	for _, tt := range []struct {
		name   string
		mutate func(*MapSpec)
	}{
		{"no mesh", func(s *MapSpec) { s.Mesh = nil }},
		{"no layers", func(s *MapSpec) { s.NSigma = 0 }},
		{"no times", func(s *MapSpec) { s.Times = nil }},
		{"no depth", func(s *MapSpec) { s.Depth = nil }},
		{"no velocity", func(s *MapSpec) { s.Velocity = nil }},
	} {
		t.Run(tt.name, func(t *testing.T) {
			spec := base
			tt.mutate(&spec)
			assert.Error(t, WriteMapFile(filepath.Join(t.TempDir(), "bad_map.nc"), spec))
		})
	}
}

func TestSigmaCoordinates(t *testing.T) {
	spec := MapSpec{NSigma: 4}

	centres := spec.SigmaCentres()
	require.Len(t, centres, 4)
	assert.InDelta(t, -0.875, centres[0], 1e-12)
	assert.InDelta(t, -0.125, centres[3], 1e-12)

	interfaces := spec.SigmaInterfaces()
	require.Len(t, interfaces, 5)
	assert.Equal(t, -1.0, interfaces[0])
	assert.Equal(t, 0.0, interfaces[4])
}

func attrToString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return ""
}
