// Package grid builds rectangular flume meshes and writes them in the
// formats the solver consumes: the UGRID NetCDF net file for the flexible
// mesh engine and the ETA text grid for the structured engine. It can also
// write synthetic map files shaped like solver output, used to exercise the
// result reader without running a simulation.
package grid

import (
	"fmt"
	"math"
)

// Rectangle is a regular rectangular mesh over [X0, X1] x [Y0, Y1] with
// spacing DX by DY. Node and face coordinates are row-major with x varying
// fastest; connectivity indices are one-based to match the file formats.
type Rectangle struct {
	X0, X1 float64
	Y0, Y1 float64
	DX, DY float64

	// NX and NY count faces in each direction.
	NX, NY int

	NodeX, NodeY []float64
	FaceX, FaceY []float64
	EdgeNodes    [][2]int
	FaceNodes    [][4]int
	EdgeFaces    [][2]int
}

// NewRectangle builds the mesh. The spacing must divide the domain extent
// evenly in both directions.
func NewRectangle(x0, x1, y0, y1, dx, dy float64) (*Rectangle, error) {
	if x1 <= x0 || y1 <= y0 {
		return nil, fmt.Errorf("empty domain [%g, %g] x [%g, %g]", x0, x1, y0, y1)
	}
	if dx <= 0 || dy <= 0 {
		return nil, fmt.Errorf("non-positive grid spacing %g x %g", dx, dy)
	}
	nx, err := divideEvenly(x1-x0, dx, "x")
	if err != nil {
		return nil, err
	}
	ny, err := divideEvenly(y1-y0, dy, "y")
	if err != nil {
		return nil, err
	}

	r := &Rectangle{X0: x0, X1: x1, Y0: y0, Y1: y1, DX: dx, DY: dy, NX: nx, NY: ny}
	r.build()
	return r, nil
}

func divideEvenly(extent, spacing float64, axis string) (int, error) {
	n := extent / spacing
	rounded := math.Round(n)
	if math.Abs(n-rounded) > 1e-9*math.Max(1, n) {
		return 0, fmt.Errorf("spacing %g does not divide the %s extent %g", spacing, axis, extent)
	}
	return int(rounded), nil
}

func (r *Rectangle) build() {
	nx, ny := r.NX, r.NY
	nnx, nny := nx+1, ny+1

	r.NodeX = make([]float64, nnx*nny)
	r.NodeY = make([]float64, nnx*nny)
	for j := 0; j < nny; j++ {
		for i := 0; i < nnx; i++ {
			r.NodeX[j*nnx+i] = r.X0 + float64(i)*r.DX
			r.NodeY[j*nnx+i] = r.Y0 + float64(j)*r.DY
		}
	}

	r.FaceX = make([]float64, nx*ny)
	r.FaceY = make([]float64, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			r.FaceX[j*nx+i] = r.X0 + (float64(i)+0.5)*r.DX
			r.FaceY[j*nx+i] = r.Y0 + (float64(j)+0.5)*r.DY
		}
	}

	node := func(i, j int) int { return j*nnx + i + 1 }
	face := func(i, j int) int {
		if i < 0 || i >= nx || j < 0 || j >= ny {
			return 0
		}
		return j*nx + i + 1
	}

	// vertical edges first, then horizontal
	for j := 0; j < ny; j++ {
		for i := 0; i < nnx; i++ {
			r.EdgeNodes = append(r.EdgeNodes, [2]int{node(i, j), node(i, j+1)})
			r.EdgeFaces = append(r.EdgeFaces, [2]int{face(i-1, j), face(i, j)})
		}
	}
	for j := 0; j < nny; j++ {
		for i := 0; i < nx; i++ {
			r.EdgeNodes = append(r.EdgeNodes, [2]int{node(i, j), node(i+1, j)})
			r.EdgeFaces = append(r.EdgeFaces, [2]int{face(i, j-1), face(i, j)})
		}
	}

	// faces anticlockwise from the lower-left node
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			r.FaceNodes = append(r.FaceNodes, [4]int{
				node(i, j), node(i+1, j), node(i+1, j+1), node(i, j+1),
			})
		}
	}
}

// NNodes returns the node count.
func (r *Rectangle) NNodes() int { return len(r.NodeX) }

// NEdges returns the edge count.
func (r *Rectangle) NEdges() int { return len(r.EdgeNodes) }

// NFaces returns the face count.
func (r *Rectangle) NFaces() int { return len(r.FaceX) }
