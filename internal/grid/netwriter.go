package grid

import (
	"fmt"
	"io"
	"os"

	"github.com/ctessum/cdf"
)

// nodeZFill marks node altitudes as unset in the net file.
const nodeZFill = -999.0

// WriteNetFile writes the mesh as a flexible-mesh net file: NetCDF classic
// with UGRID topology. Connectivity is one-based, marked with start_index
// attributes, and boundary entries in the edge-face table are zero.
func WriteNetFile(path string, r *Rectangle) error {
	h := cdf.NewHeader(
		[]string{"nmesh2d_node", "nmesh2d_edge", "nmesh2d_face", "max_nmesh2d_face_nodes", "Two"},
		[]int{r.NNodes(), r.NEdges(), r.NFaces(), 4, 2},
	)
	h.AddAttribute("", "Conventions", "CF-1.8 UGRID-1.0 Deltares-0.10")
	h.AddAttribute("", "source", "tidal-verify mesh generator")

	h.AddVariable("mesh2d", []string{}, []int32{})
	h.AddAttribute("mesh2d", "cf_role", "mesh_topology")
	h.AddAttribute("mesh2d", "topology_dimension", []int32{2})
	h.AddAttribute("mesh2d", "node_dimension", "nmesh2d_node")
	h.AddAttribute("mesh2d", "edge_dimension", "nmesh2d_edge")
	h.AddAttribute("mesh2d", "face_dimension", "nmesh2d_face")
	h.AddAttribute("mesh2d", "max_face_nodes_dimension", "max_nmesh2d_face_nodes")
	h.AddAttribute("mesh2d", "node_coordinates", "mesh2d_node_x mesh2d_node_y")
	h.AddAttribute("mesh2d", "face_coordinates", "mesh2d_face_x mesh2d_face_y")
	h.AddAttribute("mesh2d", "edge_node_connectivity", "mesh2d_edge_nodes")
	h.AddAttribute("mesh2d", "face_node_connectivity", "mesh2d_face_nodes")
	h.AddAttribute("mesh2d", "edge_face_connectivity", "mesh2d_edge_faces")

	coord := func(name, axis string) {
		h.AddVariable(name, []string{"nmesh2d_node"}, []float64{})
		h.AddAttribute(name, "units", "m")
		h.AddAttribute(name, "standard_name", "projection_"+axis+"_coordinate")
	}
	coord("mesh2d_node_x", "x")
	coord("mesh2d_node_y", "y")

	// Node altitude stays unset; the engine takes the bed level from the
	// model input instead.
	h.AddVariable("mesh2d_node_z", []string{"nmesh2d_node"}, []float64{})
	h.AddAttribute("mesh2d_node_z", "units", "m")
	h.AddAttribute("mesh2d_node_z", "standard_name", "altitude")
	h.AddAttribute("mesh2d_node_z", "_FillValue", []float64{nodeZFill})

	h.AddVariable("mesh2d_face_x", []string{"nmesh2d_face"}, []float64{})
	h.AddAttribute("mesh2d_face_x", "units", "m")
	h.AddVariable("mesh2d_face_y", []string{"nmesh2d_face"}, []float64{})
	h.AddAttribute("mesh2d_face_y", "units", "m")

	h.AddVariable("mesh2d_edge_nodes", []string{"nmesh2d_edge", "Two"}, []int32{})
	h.AddAttribute("mesh2d_edge_nodes", "cf_role", "edge_node_connectivity")
	h.AddAttribute("mesh2d_edge_nodes", "start_index", []int32{1})

	h.AddVariable("mesh2d_face_nodes", []string{"nmesh2d_face", "max_nmesh2d_face_nodes"}, []int32{})
	h.AddAttribute("mesh2d_face_nodes", "cf_role", "face_node_connectivity")
	h.AddAttribute("mesh2d_face_nodes", "start_index", []int32{1})

	h.AddVariable("mesh2d_edge_faces", []string{"nmesh2d_edge", "Two"}, []int32{})
	h.AddAttribute("mesh2d_edge_faces", "cf_role", "edge_face_connectivity")
	h.AddAttribute("mesh2d_edge_faces", "start_index", []int32{1})

	h.Define()

	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating net file: %w", err)
	}
	if err := writeNetData(ff, h, r); err != nil {
		ff.Close()
		return err
	}
	return ff.Close()
}

func writeNetData(ff *os.File, h *cdf.Header, r *Rectangle) error {
	f, err := cdf.Create(ff, h)
	if err != nil {
		return fmt.Errorf("writing net file header: %w", err)
	}

	writeFloats := func(name string, data []float64) error {
		w := f.Writer(name, nil, nil)
		// the cdf strider returns io.EOF on a write that exactly fills
		// the variable's extent; that is success, not an error
		if _, err := w.Write(data); err != nil && err != io.EOF {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		return nil
	}
	writeInts := func(name string, data []int32) error {
		w := f.Writer(name, nil, nil)
		if _, err := w.Write(data); err != nil && err != io.EOF {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		return nil
	}

	if err := writeInts("mesh2d", []int32{0}); err != nil {
		return err
	}
	if err := writeFloats("mesh2d_node_x", r.NodeX); err != nil {
		return err
	}
	if err := writeFloats("mesh2d_node_y", r.NodeY); err != nil {
		return err
	}
	nodeZ := make([]float64, r.NNodes())
	for i := range nodeZ {
		nodeZ[i] = nodeZFill
	}
	if err := writeFloats("mesh2d_node_z", nodeZ); err != nil {
		return err
	}
	if err := writeFloats("mesh2d_face_x", r.FaceX); err != nil {
		return err
	}
	if err := writeFloats("mesh2d_face_y", r.FaceY); err != nil {
		return err
	}
	if err := writeInts("mesh2d_edge_nodes", flatten2(r.EdgeNodes)); err != nil {
		return err
	}
	if err := writeInts("mesh2d_face_nodes", flatten4(r.FaceNodes)); err != nil {
		return err
	}
	if err := writeInts("mesh2d_edge_faces", flatten2(r.EdgeFaces)); err != nil {
		return err
	}
	return nil
}

func flatten2(rows [][2]int) []int32 {
	out := make([]int32, 0, len(rows)*2)
	for _, row := range rows {
		out = append(out, int32(row[0]), int32(row[1]))
	}
	return out
}

func flatten4(rows [][4]int) []int32 {
	out := make([]int32, 0, len(rows)*4)
	for _, row := range rows {
		out = append(out, int32(row[0]), int32(row[1]), int32(row[2]), int32(row[3]))
	}
	return out
}
