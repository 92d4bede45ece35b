package result

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// MeshKind identifies the mesh family of a map file.
type MeshKind int

const (
	// MeshFlexible is the unstructured flexible-mesh output.
	MeshFlexible MeshKind = iota
	// MeshUnknown is anything the reader cannot interpret.
	MeshUnknown
)

func (k MeshKind) String() string {
	switch k {
	case MeshFlexible:
		return "flexible"
	}
	return "unknown"
}

// Result provides read access to the output of a completed simulation.
// Open it from the project directory that was passed to the solver; the map
// file is located automatically. Close releases the underlying file.
type Result struct {
	ProjectPath string
	MapPath     string
	Kind        MeshKind

	// XLim and YLim are the horizontal extents of the mesh nodes.
	XLim [2]float64
	YLim [2]float64
	// Times holds the output timesteps in file order.
	Times []time.Time

	Faces *Faces
	// Edges is nil when the map file omits edge output.
	Edges *Edges

	ds *dataset
}

// Open locates and opens the map file under projectPath. Exactly one
// "*_map.nc" file must exist below the project directory.
func Open(projectPath string) (*Result, error) {
	mapPath, err := findMapFile(projectPath)
	if err != nil {
		return nil, err
	}
	ds, err := openDataset(mapPath)
	if err != nil {
		return nil, err
	}
	r := &Result{
		ProjectPath: projectPath,
		MapPath:     mapPath,
		ds:          ds,
	}
	if err := r.init(); err != nil {
		ds.Close()
		return nil, err
	}
	return r, nil
}

// Close releases the map file.
func (r *Result) Close() error { return r.ds.Close() }

// NSteps returns the number of output timesteps.
func (r *Result) NSteps() int { return len(r.Times) }

func (r *Result) init() error {
	if !r.ds.has("mesh2d_node_x") {
		r.Kind = MeshUnknown
		return fmt.Errorf("%s: not a flexible mesh map file", r.MapPath)
	}
	r.Kind = MeshFlexible

	nodeX, err := r.ds.floats("mesh2d_node_x")
	if err != nil {
		return err
	}
	nodeY, err := r.ds.floats("mesh2d_node_y")
	if err != nil {
		return err
	}
	r.XLim = minMax(nodeX)
	r.YLim = minMax(nodeY)

	r.Times, err = r.ds.timesFrom("time")
	if err != nil {
		return err
	}

	r.Faces, err = newFaces(r.ds, r.Times, r.XLim, r.YLim)
	if err != nil {
		return err
	}
	r.Edges, err = newEdges(r.ds, r.Times)
	if err != nil {
		return err
	}
	return nil
}

// resolveStep maps a possibly negative timestep index onto [0, n).
func resolveStep(step, n int) (int, error) {
	i := step
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("timestep %d out of range for %d steps", step, n)
	}
	return i, nil
}

func findMapFile(projectPath string) (string, error) {
	var matches []string
	err := filepath.WalkDir(projectPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), "_map.nc") {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("searching for map file: %w", err)
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no map file found under %s", projectPath)
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("multiple map files found under %s: %s",
		projectPath, strings.Join(matches, ", "))
}

func minMax(vs []float64) [2]float64 {
	if len(vs) == 0 {
		return [2]float64{}
	}
	lo, hi := vs[0], vs[0]
	for _, v := range vs[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return [2]float64{lo, hi}
}
