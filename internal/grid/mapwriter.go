package grid

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/ctessum/cdf"
)

// MapSpec describes a synthetic map file. Depth and Velocity are sampled at
// face centres; TKE, when set, is sampled at the sigma interfaces. Sigma
// runs from -1 at the bed to 0 at the surface, with layer centres midway
// between interfaces.
type MapSpec struct {
	Mesh   *Rectangle
	NSigma int
	Ref    time.Time
	Times  []float64

	Depth    func(x, y float64) float64
	Velocity func(step int, x, y, sigma float64) (u, v, w float64)
	TKE      func(step int, x, y, sigma float64) float64
}

// SigmaCentres returns the layer-centre sigma coordinates, bed to surface.
func (s MapSpec) SigmaCentres() []float64 {
	out := make([]float64, s.NSigma)
	for k := range out {
		out[k] = -1 + (float64(k)+0.5)/float64(s.NSigma)
	}
	return out
}

// SigmaInterfaces returns the layer-interface sigma coordinates.
func (s MapSpec) SigmaInterfaces() []float64 {
	out := make([]float64, s.NSigma+1)
	for k := range out {
		out[k] = -1 + float64(k)/float64(s.NSigma)
	}
	return out
}

// WriteMapFile writes a map file with the variables the result reader
// consumes, shaped like solver output. Useful for tests and for trying out
// extraction pipelines without a solver install.
func WriteMapFile(path string, spec MapSpec) error {
	if spec.Mesh == nil {
		return fmt.Errorf("map spec has no mesh")
	}
	if spec.NSigma < 1 {
		return fmt.Errorf("map spec needs at least one sigma layer")
	}
	if len(spec.Times) == 0 {
		return fmt.Errorf("map spec has no timesteps")
	}
	if spec.Depth == nil || spec.Velocity == nil {
		return fmt.Errorf("map spec needs Depth and Velocity fields")
	}

	r := spec.Mesh
	nt, nf, nk := len(spec.Times), r.NFaces(), spec.NSigma

	h := cdf.NewHeader(
		[]string{"time", "nmesh2d_node", "nmesh2d_edge", "nmesh2d_face",
			"nmesh2d_layer", "nmesh2d_interface", "Two"},
		[]int{nt, r.NNodes(), r.NEdges(), nf, nk, nk + 1, 2},
	)
	h.AddAttribute("", "Conventions", "CF-1.8 UGRID-1.0 Deltares-0.10")
	h.AddAttribute("", "source", "tidal-verify synthetic map writer")

	h.AddVariable("time", []string{"time"}, []float64{})
	h.AddAttribute("time", "units",
		"seconds since "+spec.Ref.UTC().Format("2006-01-02 15:04:05")+" +00:00")

	addCoord := func(name, dim string) {
		h.AddVariable(name, []string{dim}, []float64{})
		h.AddAttribute(name, "units", "m")
	}
	addCoord("mesh2d_node_x", "nmesh2d_node")
	addCoord("mesh2d_node_y", "nmesh2d_node")
	addCoord("mesh2d_face_x", "nmesh2d_face")
	addCoord("mesh2d_face_y", "nmesh2d_face")

	h.AddVariable("mesh2d_layer_sigma", []string{"nmesh2d_layer"}, []float64{})
	h.AddVariable("mesh2d_interface_sigma", []string{"nmesh2d_interface"}, []float64{})

	h.AddVariable("mesh2d_edge_nodes", []string{"nmesh2d_edge", "Two"}, []int32{})
	h.AddAttribute("mesh2d_edge_nodes", "start_index", []int32{1})

	h.AddVariable("mesh2d_waterdepth", []string{"time", "nmesh2d_face"}, []float64{})
	h.AddAttribute("mesh2d_waterdepth", "units", "m")

	for _, name := range []string{"mesh2d_ucx", "mesh2d_ucy", "mesh2d_ucz"} {
		h.AddVariable(name, []string{"time", "nmesh2d_face", "nmesh2d_layer"}, []float64{})
		h.AddAttribute(name, "units", "m s-1")
	}
	h.AddVariable("mesh2d_u1", []string{"time", "nmesh2d_edge", "nmesh2d_layer"}, []float64{})
	h.AddAttribute("mesh2d_u1", "units", "m s-1")
	if spec.TKE != nil {
		h.AddVariable("mesh2d_turkin1", []string{"time", "nmesh2d_face", "nmesh2d_interface"}, []float64{})
		h.AddAttribute("mesh2d_turkin1", "units", "m2 s-2")
	}

	h.Define()

	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating map file: %w", err)
	}
	defer ff.Close()

	f, err := cdf.Create(ff, h)
	if err != nil {
		return fmt.Errorf("writing map file header: %w", err)
	}

	write := func(name string, data any) error {
		w := f.Writer(name, nil, nil)
		// the cdf strider returns io.EOF on a write that exactly fills
		// the variable's extent; that is success, not an error
		if _, err := w.Write(data); err != nil && err != io.EOF {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		return nil
	}

	centres := spec.SigmaCentres()
	interfaces := spec.SigmaInterfaces()

	if err := write("time", spec.Times); err != nil {
		return err
	}
	if err := write("mesh2d_node_x", r.NodeX); err != nil {
		return err
	}
	if err := write("mesh2d_node_y", r.NodeY); err != nil {
		return err
	}
	if err := write("mesh2d_face_x", r.FaceX); err != nil {
		return err
	}
	if err := write("mesh2d_face_y", r.FaceY); err != nil {
		return err
	}
	if err := write("mesh2d_layer_sigma", centres); err != nil {
		return err
	}
	if err := write("mesh2d_interface_sigma", interfaces); err != nil {
		return err
	}
	if err := write("mesh2d_edge_nodes", flatten2(r.EdgeNodes)); err != nil {
		return err
	}

	depth := make([]float64, nt*nf)
	for t := 0; t < nt; t++ {
		for fi := 0; fi < nf; fi++ {
			depth[t*nf+fi] = spec.Depth(r.FaceX[fi], r.FaceY[fi])
		}
	}
	if err := write("mesh2d_waterdepth", depth); err != nil {
		return err
	}

	u := make([]float64, nt*nf*nk)
	v := make([]float64, nt*nf*nk)
	w := make([]float64, nt*nf*nk)
	for t := 0; t < nt; t++ {
		for fi := 0; fi < nf; fi++ {
			for k := 0; k < nk; k++ {
				uu, vv, ww := spec.Velocity(t, r.FaceX[fi], r.FaceY[fi], centres[k])
				idx := (t*nf+fi)*nk + k
				u[idx], v[idx], w[idx] = uu, vv, ww
			}
		}
	}
	if err := write("mesh2d_ucx", u); err != nil {
		return err
	}
	if err := write("mesh2d_ucy", v); err != nil {
		return err
	}
	if err := write("mesh2d_ucz", w); err != nil {
		return err
	}

	// edge-normal velocity reconstructed from the analytic field at the
	// edge midpoint
	ne := r.NEdges()
	u1 := make([]float64, nt*ne*nk)
	for t := 0; t < nt; t++ {
		for e := 0; e < ne; e++ {
			a, b := r.EdgeNodes[e][0]-1, r.EdgeNodes[e][1]-1
			mx := (r.NodeX[a] + r.NodeX[b]) / 2
			my := (r.NodeY[a] + r.NodeY[b]) / 2
			dx, dy := r.NodeX[b]-r.NodeX[a], r.NodeY[b]-r.NodeY[a]
			l := math.Hypot(dx, dy)
			n0, n1 := dy/l, -dx/l
			for k := 0; k < nk; k++ {
				uu, vv, _ := spec.Velocity(t, mx, my, centres[k])
				u1[(t*ne+e)*nk+k] = uu*n0 + vv*n1
			}
		}
	}
	if err := write("mesh2d_u1", u1); err != nil {
		return err
	}

	if spec.TKE != nil {
		tke := make([]float64, nt*nf*(nk+1))
		for t := 0; t < nt; t++ {
			for fi := 0; fi < nf; fi++ {
				for k := 0; k <= nk; k++ {
					tke[(t*nf+fi)*(nk+1)+k] = spec.TKE(t, r.FaceX[fi], r.FaceY[fi], interfaces[k])
				}
			}
		}
		if err := write("mesh2d_turkin1", tke); err != nil {
			return err
		}
	}
	return nil
}
