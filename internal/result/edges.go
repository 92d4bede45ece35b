package result

import (
	"math"
	"time"
)

// Edge is one mesh edge as a segment between two node coordinates.
type Edge struct {
	X0, Y0 float64
	X1, Y1 float64
}

// MinX returns the smaller x coordinate of the edge endpoints.
func (e Edge) MinX() float64 { return math.Min(e.X0, e.X1) }

// MaxX returns the larger x coordinate of the edge endpoints.
func (e Edge) MaxX() float64 { return math.Max(e.X0, e.X1) }

// Edges reads the edge-normal velocity from the map file. Each edge carries
// u1, the component of velocity normal to the edge, together with the unit
// normal so the Cartesian components can be reconstructed.
type Edges struct {
	ds    *dataset
	times []time.Time

	nEdges  int
	nLayers int
	sigma   []float64
	edges   []Edge
	n0, n1  []float64
}

func newEdges(ds *dataset, times []time.Time) (*Edges, error) {
	if !ds.has("mesh2d_edge_nodes") || !ds.has("mesh2d_u1") {
		// trimmed map files omit edge output
		return nil, nil
	}
	nodes, err := ds.ints("mesh2d_edge_nodes")
	if err != nil {
		return nil, err
	}
	nodeX, err := ds.floats("mesh2d_node_x")
	if err != nil {
		return nil, err
	}
	nodeY, err := ds.floats("mesh2d_node_y")
	if err != nil {
		return nil, err
	}
	sigma, err := ds.floats("mesh2d_layer_sigma")
	if err != nil {
		return nil, err
	}

	ne := len(nodes) / 2
	e := &Edges{
		ds:      ds,
		times:   times,
		nEdges:  ne,
		nLayers: len(sigma),
		sigma:   sigma,
		edges:   make([]Edge, ne),
		n0:      make([]float64, ne),
		n1:      make([]float64, ne),
	}
	for i := 0; i < ne; i++ {
		// connectivity uses one-based node indices
		a, b := nodes[2*i]-1, nodes[2*i+1]-1
		edge := Edge{X0: nodeX[a], Y0: nodeY[a], X1: nodeX[b], Y1: nodeY[b]}
		e.edges[i] = edge
		dx, dy := edge.X1-edge.X0, edge.Y1-edge.Y0
		l := math.Hypot(dx, dy)
		e.n0[i] = dy / l
		e.n1[i] = -dx / l
	}
	return e, nil
}

// EdgeFrame is one sigma layer of edge results at one timestep.
type EdgeFrame struct {
	Time  time.Time
	K     int
	Sigma float64

	Edges []Edge
	// U1 is the edge-normal velocity; N0 and N1 are the unit normal
	// components it acts along.
	U1 []float64
	N0 []float64
	N1 []float64
}

// Len returns the number of edges in the frame.
func (ef *EdgeFrame) Len() int { return len(ef.Edges) }

// ExtractK returns the edge-normal velocities on sigma layer k at the given
// timestep. Negative indices count back from the end for both arguments.
func (e *Edges) ExtractK(step, k int) (*EdgeFrame, error) {
	t, err := resolveStep(step, len(e.times))
	if err != nil {
		return nil, err
	}
	k, err = resolveLayer(k, e.nLayers)
	if err != nil {
		return nil, err
	}
	u1All, err := e.ds.floats("mesh2d_u1")
	if err != nil {
		return nil, err
	}
	ef := &EdgeFrame{
		Time:  e.times[t],
		K:     k,
		Sigma: e.sigma[k],
		Edges: make([]Edge, e.nEdges),
		U1:    make([]float64, e.nEdges),
		N0:    copyFloats(e.n0),
		N1:    copyFloats(e.n1),
	}
	copy(ef.Edges, e.edges)
	for i := 0; i < e.nEdges; i++ {
		ef.U1[i] = u1All[(t*e.nEdges+i)*e.nLayers+k]
	}
	return ef, nil
}

// IntersectX returns the subset of the frame whose edges cross the vertical
// line at x. Edges that merely touch the line at an endpoint are excluded.
func (ef *EdgeFrame) IntersectX(x float64) *EdgeFrame {
	out := &EdgeFrame{Time: ef.Time, K: ef.K, Sigma: ef.Sigma}
	for i, edge := range ef.Edges {
		if edge.MinX() < x && x < edge.MaxX() {
			out.Edges = append(out.Edges, edge)
			out.U1 = append(out.U1, ef.U1[i])
			out.N0 = append(out.N0, ef.N0[i])
			out.N1 = append(out.N1, ef.N1[i])
		}
	}
	return out
}
