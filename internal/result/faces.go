package result

import (
	"fmt"
	"iter"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/couchcryptid/tidal-verify/internal/cases"
)

const coordTol = 1e-6

// Faces reads face-centred results from the map file: water depth and the
// cell-centre velocity components per sigma layer. Face centres form a
// regular lattice for the rectangular flume meshes this package targets,
// which is what makes bilinear interpolation between centres possible.
//
// Variable data is loaded lazily on first extraction and kept for the life
// of the Result. Faces is safe for concurrent use.
type Faces struct {
	ds    *dataset
	times []time.Time

	nFaces  int
	nLayers int
	sigma   []float64
	xs, ys  []float64
	faceAt  []int
	xLim    [2]float64
	yLim    [2]float64

	mu       sync.Mutex
	loaded   bool
	depthAll []float64
	uAll     []float64
	vAll     []float64
	wAll     []float64
	tkeAll   []float64
	ifSigma  []float64
}

func newFaces(ds *dataset, times []time.Time, xLim, yLim [2]float64) (*Faces, error) {
	faceX, err := ds.floats("mesh2d_face_x")
	if err != nil {
		return nil, err
	}
	faceY, err := ds.floats("mesh2d_face_y")
	if err != nil {
		return nil, err
	}
	sigma, err := ds.floats("mesh2d_layer_sigma")
	if err != nil {
		return nil, err
	}

	f := &Faces{
		ds:      ds,
		times:   times,
		nFaces:  len(faceX),
		nLayers: len(sigma),
		sigma:   sigma,
		xLim:    xLim,
		yLim:    yLim,
	}
	f.xs = uniqueSorted(faceX)
	f.ys = uniqueSorted(faceY)

	f.faceAt = make([]int, len(f.xs)*len(f.ys))
	for i := range f.faceAt {
		f.faceAt[i] = -1
	}
	for i := range faceX {
		ix := indexOf(f.xs, faceX[i])
		iy := indexOf(f.ys, faceY[i])
		if ix < 0 || iy < 0 {
			return nil, fmt.Errorf("face %d at (%g, %g) is off the lattice",
				i, faceX[i], faceY[i])
		}
		f.faceAt[iy*len(f.xs)+ix] = i
	}
	return f, nil
}

// NLayers returns the number of sigma layers.
func (f *Faces) NLayers() int { return f.nLayers }

// Sigma returns the layer-centre sigma coordinates, bed to surface.
func (f *Faces) Sigma() []float64 {
	out := make([]float64, len(f.sigma))
	copy(out, f.sigma)
	return out
}

func (f *Faces) load() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loaded {
		return nil
	}
	var err error
	if f.depthAll, err = f.ds.floats("mesh2d_waterdepth"); err != nil {
		return err
	}
	if f.uAll, err = f.ds.floats("mesh2d_ucx"); err != nil {
		return err
	}
	if f.vAll, err = f.ds.floats("mesh2d_ucy"); err != nil {
		return err
	}
	if f.wAll, err = f.ds.floats("mesh2d_ucz"); err != nil {
		return err
	}
	if f.ds.has("mesh2d_turkin1") && f.ds.has("mesh2d_interface_sigma") {
		if f.tkeAll, err = f.ds.floats("mesh2d_turkin1"); err != nil {
			return err
		}
		if f.ifSigma, err = f.ds.floats("mesh2d_interface_sigma"); err != nil {
			return err
		}
	}
	f.loaded = true
	return nil
}

// faceValues holds one timestep of face data: depth per face, and per-layer
// velocity components indexed [k][face].
type faceValues struct {
	depth []float64
	u     [][]float64
	v     [][]float64
	w     [][]float64
	tke   [][]float64
}

func (fv *faceValues) vars() map[string][][]float64 {
	m := map[string][][]float64{"u": fv.u, "v": fv.v, "w": fv.w}
	if fv.tke != nil {
		m["tke"] = fv.tke
	}
	return m
}

func (f *Faces) step(step int) (int, *faceValues, error) {
	t, err := resolveStep(step, len(f.times))
	if err != nil {
		return 0, nil, err
	}
	if err := f.load(); err != nil {
		return 0, nil, err
	}
	nf, nk := f.nFaces, f.nLayers
	fv := &faceValues{
		depth: f.depthAll[t*nf : (t+1)*nf],
		u:     layerViews(f.uAll, t, nf, nk),
		v:     layerViews(f.vAll, t, nf, nk),
		w:     layerViews(f.wAll, t, nf, nk),
	}
	if f.tkeAll != nil {
		fv.tke = f.layerCentreTKE(t)
	}
	return t, fv, nil
}

// layerViews reshapes one timestep of a (time, face, layer) variable to
// per-layer slices.
func layerViews(all []float64, t, nf, nk int) [][]float64 {
	out := make([][]float64, nk)
	for k := 0; k < nk; k++ {
		out[k] = make([]float64, nf)
		for fi := 0; fi < nf; fi++ {
			out[k][fi] = all[(t*nf+fi)*nk+k]
		}
	}
	return out
}

// layerCentreTKE averages the interface turbulent kinetic energy onto layer
// centres so it lines up with the velocity components.
func (f *Faces) layerCentreTKE(t int) [][]float64 {
	nf, nk := f.nFaces, f.nLayers
	ni := len(f.ifSigma)
	out := make([][]float64, nk)
	for k := 0; k < nk; k++ {
		out[k] = make([]float64, nf)
		lo, hi := k, k+1
		if hi >= ni {
			hi = ni - 1
		}
		for fi := 0; fi < nf; fi++ {
			a := f.tkeAll[(t*nf+fi)*ni+lo]
			b := f.tkeAll[(t*nf+fi)*ni+hi]
			out[k][fi] = (a + b) / 2
		}
	}
	return out
}

// ── Plane extraction ──

// ExtractDepth returns the water depth at every face for the given timestep.
func (f *Faces) ExtractDepth(step int) (*Plane, error) {
	t, fv, err := f.step(step)
	if err != nil {
		return nil, err
	}
	p := f.newPlane(t, nil)
	p.Vars["depth"] = copyFloats(fv.depth)
	return p, nil
}

// ExtractK returns every face value on sigma layer k. Negative k counts back
// from the surface layer. The "z" column holds the layer elevation at each
// face, sigma times local depth.
func (f *Faces) ExtractK(step, k int) (*Plane, error) {
	t, fv, err := f.step(step)
	if err != nil {
		return nil, err
	}
	k, err = resolveLayer(k, f.nLayers)
	if err != nil {
		return nil, err
	}
	p := f.newPlane(t, map[string]float64{"k": float64(k), "sigma": f.sigma[k]})
	z := make([]float64, f.nFaces)
	for fi := range z {
		z[fi] = f.sigma[k] * fv.depth[fi]
	}
	p.Vars["z"] = z
	p.Vars["depth"] = copyFloats(fv.depth)
	for name, layers := range fv.vars() {
		p.Vars[name] = copyFloats(layers[k])
	}
	return p, nil
}

// ExtractZ returns every face value interpolated to elevation z, measured
// down from the free surface. The elevation must sit between the bottom and
// top layer centres at every face; use ExtractZClamped to clamp instead.
func (f *Faces) ExtractZ(step int, z float64) (*Plane, error) {
	return f.extractZPlane(step, z, false)
}

// ExtractZClamped is ExtractZ with out-of-column elevations clamped to the
// nearest layer centre.
func (f *Faces) ExtractZClamped(step int, z float64) (*Plane, error) {
	return f.extractZPlane(step, z, true)
}

func (f *Faces) extractZPlane(step int, z float64, clamp bool) (*Plane, error) {
	t, fv, err := f.step(step)
	if err != nil {
		return nil, err
	}
	p := f.newPlane(t, map[string]float64{"z": z})
	p.Vars["depth"] = copyFloats(fv.depth)
	for name := range fv.vars() {
		p.Vars[name] = make([]float64, f.nFaces)
	}
	for fi := 0; fi < f.nFaces; fi++ {
		w, err := f.sigmaWeights(z, fv.depth[fi], clamp)
		if err != nil {
			return nil, err
		}
		for name, layers := range fv.vars() {
			p.Vars[name][fi] = w.apply(layers, fi)
		}
	}
	return p, nil
}

func (f *Faces) newPlane(t int, coords map[string]float64) *Plane {
	x := make([]float64, f.nFaces)
	y := make([]float64, f.nFaces)
	for iy := range f.ys {
		for ix := range f.xs {
			if fi := f.faceAt[iy*len(f.xs)+ix]; fi >= 0 {
				x[fi] = f.xs[ix]
				y[fi] = f.ys[iy]
			}
		}
	}
	return &Plane{
		Time:   f.times[t],
		Coords: coords,
		X:      x,
		Y:      y,
		Vars:   map[string][]float64{},
	}
}

// ── Point extraction ──

// ExtractDepthAt samples the water depth at the given points.
func (f *Faces) ExtractDepthAt(step int, pts []Point) (*PointSet, error) {
	t, fv, err := f.step(step)
	if err != nil {
		return nil, err
	}
	ps := newPointSet(f.times[t], nil, pts)
	ps.Vars["depth"] = f.sampleAll(fv.depth, pts)
	return ps, nil
}

// ExtractKAt samples sigma layer k at the given points. The "z" column holds
// the interpolated layer elevation at each point.
func (f *Faces) ExtractKAt(step, k int, pts []Point) (*PointSet, error) {
	t, fv, err := f.step(step)
	if err != nil {
		return nil, err
	}
	k, err = resolveLayer(k, f.nLayers)
	if err != nil {
		return nil, err
	}
	ps := newPointSet(f.times[t], map[string]float64{"k": float64(k), "sigma": f.sigma[k]}, pts)
	depth := f.sampleAll(fv.depth, pts)
	z := make([]float64, len(pts))
	for i := range z {
		z[i] = f.sigma[k] * depth[i]
	}
	ps.Vars["z"] = z
	ps.Vars["depth"] = depth
	for name, layers := range fv.vars() {
		ps.Vars[name] = f.sampleAll(layers[k], pts)
	}
	return ps, nil
}

// ExtractZAt samples the results at elevation z and the given points, with
// the same column-bounds rule as ExtractZ.
func (f *Faces) ExtractZAt(step int, z float64, pts []Point) (*PointSet, error) {
	return f.extractZPoints(step, z, pts, false)
}

// ExtractZClampedAt is ExtractZAt with out-of-column elevations clamped.
func (f *Faces) ExtractZClampedAt(step int, z float64, pts []Point) (*PointSet, error) {
	return f.extractZPoints(step, z, pts, true)
}

func (f *Faces) extractZPoints(step int, z float64, pts []Point, clamp bool) (*PointSet, error) {
	t, fv, err := f.step(step)
	if err != nil {
		return nil, err
	}
	ps := newPointSet(f.times[t], map[string]float64{"z": z}, pts)
	depth := f.sampleAll(fv.depth, pts)
	ps.Vars["depth"] = depth
	for name := range fv.vars() {
		ps.Vars[name] = make([]float64, len(pts))
	}
	for i, pt := range pts {
		w, err := f.sigmaWeights(z, depth[i], clamp)
		if err != nil {
			return nil, err
		}
		for name, layers := range fv.vars() {
			lo := f.sample(layers[w.lo], pt)
			hi := f.sample(layers[w.hi], pt)
			ps.Vars[name][i] = lo*(1-w.frac) + hi*w.frac
		}
	}
	return ps, nil
}

// ── Turbine-relative extraction ──

// ExtractTurbineCentre samples the flow at the turbine hub, displaced by the
// given offset. The displaced point must lie within the domain extents.
func (f *Faces) ExtractTurbineCentre(step int, c cases.Case, off Offset) (*PointSet, error) {
	pt := Point{X: c.TurbPosX + off.X, Y: c.TurbPosY + off.Y}
	if err := f.checkDomain(pt); err != nil {
		return nil, err
	}
	return f.ExtractZAt(step, c.TurbPosZ+off.Z, []Point{pt})
}

// ExtractTurbineCentreline samples the flow at hub depth along the
// downstream centreline, from the turbine to the end of the domain at the
// given x spacing.
func (f *Faces) ExtractTurbineCentreline(step int, c cases.Case, xStep float64, off Offset) (*PointSet, error) {
	if xStep <= 0 {
		return nil, fmt.Errorf("centreline spacing %g must be positive", xStep)
	}
	start := Point{X: c.TurbPosX + off.X, Y: c.TurbPosY + off.Y}
	if err := f.checkDomain(start); err != nil {
		return nil, err
	}
	var pts []Point
	for x := range centrelineXs(start.X, f.xLim[1], xStep) {
		pts = append(pts, Point{X: x, Y: start.Y})
	}
	return f.ExtractZAt(step, c.TurbPosZ+off.Z, pts)
}

// checkDomain rejects points outside the mesh node extents.
func (f *Faces) checkDomain(pt Point) error {
	if pt.X < f.xLim[0] || pt.X > f.xLim[1] {
		return fmt.Errorf("x %g outside domain [%g, %g]", pt.X, f.xLim[0], f.xLim[1])
	}
	if pt.Y < f.yLim[0] || pt.Y > f.yLim[1] {
		return fmt.Errorf("y %g outside domain [%g, %g]", pt.Y, f.yLim[0], f.yLim[1])
	}
	return nil
}

// ExtractTurbineZ returns the vertical profile through the water column at
// the turbine position, one row per sigma layer.
func (f *Faces) ExtractTurbineZ(step int, c cases.Case) (*Profile, error) {
	t, fv, err := f.step(step)
	if err != nil {
		return nil, err
	}
	pt := Point{X: c.TurbPosX, Y: c.TurbPosY}
	depth := f.sample(fv.depth, pt)
	prof := &Profile{
		Time: f.times[t],
		X:    pt.X,
		Y:    pt.Y,
		Z:    make([]float64, f.nLayers),
		Vars: map[string][]float64{},
	}
	for name := range fv.vars() {
		prof.Vars[name] = make([]float64, f.nLayers)
	}
	for k := 0; k < f.nLayers; k++ {
		prof.Z[k] = f.sigma[k] * depth
		for name, layers := range fv.vars() {
			prof.Vars[name][k] = f.sample(layers[k], pt)
		}
	}
	return prof, nil
}

// centrelineXs yields x coordinates from start towards stop at the given
// spacing, appending stop itself when it lands one spacing beyond the last
// point. The sequence is restartable.
func centrelineXs(start, stop, step float64) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		x := start
		last := math.NaN()
		for x < stop && !almostEqual(x, stop) {
			if !yield(x) {
				return
			}
			last = x
			x += step
		}
		if almostEqual(last+step, stop) && !yield(stop) {
			return
		}
	}
}

// ── Interpolation ──

// sample bilinearly interpolates a per-face field at one point. Points
// outside the face-centre lattice but inside the domain clamp to the
// boundary centre.
func (f *Faces) sample(field []float64, pt Point) float64 {
	ix, fx := cellWeight(f.xs, pt.X)
	iy, fy := cellWeight(f.ys, pt.Y)
	v00 := field[f.faceAt[iy*len(f.xs)+ix]]
	v10 := field[f.faceAt[iy*len(f.xs)+min(ix+1, len(f.xs)-1)]]
	v01 := field[f.faceAt[min(iy+1, len(f.ys)-1)*len(f.xs)+ix]]
	v11 := field[f.faceAt[min(iy+1, len(f.ys)-1)*len(f.xs)+min(ix+1, len(f.xs)-1)]]
	return v00*(1-fx)*(1-fy) + v10*fx*(1-fy) + v01*(1-fx)*fy + v11*fx*fy
}

func (f *Faces) sampleAll(field []float64, pts []Point) []float64 {
	out := make([]float64, len(pts))
	for i, pt := range pts {
		out[i] = f.sample(field, pt)
	}
	return out
}

// cellWeight locates v in the sorted coordinate list, returning the lower
// cell index and the fractional position within the cell. Values beyond
// either end clamp to the boundary.
func cellWeight(coords []float64, v float64) (int, float64) {
	n := len(coords)
	if v <= coords[0] {
		return 0, 0
	}
	if v >= coords[n-1] {
		return n - 1, 0
	}
	i := sort.SearchFloat64s(coords, v)
	if i < n && coords[i] == v {
		return i, 0
	}
	lo := i - 1
	return lo, (v - coords[lo]) / (coords[lo+1] - coords[lo])
}

type sigmaWeight struct {
	lo, hi int
	frac   float64
}

func (w sigmaWeight) apply(layers [][]float64, fi int) float64 {
	return layers[w.lo][fi]*(1-w.frac) + layers[w.hi][fi]*w.frac
}

// sigmaWeights converts elevation z at a face of the given depth into a
// linear interpolation between the bracketing sigma layers.
func (f *Faces) sigmaWeights(z, depth float64, clamp bool) (sigmaWeight, error) {
	if depth <= 0 {
		return sigmaWeight{}, fmt.Errorf("dry face: depth %g", depth)
	}
	s := z / depth
	nk := f.nLayers
	switch {
	case s <= f.sigma[0]:
		if !clamp && !almostEqual(s, f.sigma[0]) {
			return sigmaWeight{}, fmt.Errorf(
				"elevation %g below bottom layer centre (sigma %g of %g)", z, s, f.sigma[0])
		}
		return sigmaWeight{0, 0, 0}, nil
	case s >= f.sigma[nk-1]:
		if !clamp && !almostEqual(s, f.sigma[nk-1]) {
			return sigmaWeight{}, fmt.Errorf(
				"elevation %g above surface layer centre (sigma %g of %g)", z, s, f.sigma[nk-1])
		}
		return sigmaWeight{nk - 1, nk - 1, 0}, nil
	}
	i := sort.SearchFloat64s(f.sigma, s)
	if f.sigma[i] == s {
		return sigmaWeight{i, i, 0}, nil
	}
	lo := i - 1
	frac := (s - f.sigma[lo]) / (f.sigma[i] - f.sigma[lo])
	return sigmaWeight{lo, i, frac}, nil
}

func resolveLayer(k, n int) (int, error) {
	i := k
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("layer %d out of range for %d sigma layers", k, n)
	}
	return i, nil
}

func newPointSet(t time.Time, coords map[string]float64, pts []Point) *PointSet {
	x := make([]float64, len(pts))
	y := make([]float64, len(pts))
	for i, p := range pts {
		x[i] = p.X
		y[i] = p.Y
	}
	return &PointSet{Time: t, Coords: coords, X: x, Y: y, Vars: map[string][]float64{}}
}

func copyFloats(vs []float64) []float64 {
	out := make([]float64, len(vs))
	copy(out, vs)
	return out
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-8*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func uniqueSorted(vs []float64) []float64 {
	sorted := copyFloats(vs)
	sort.Float64s(sorted)
	out := sorted[:0]
	for _, v := range sorted {
		if len(out) == 0 || v-out[len(out)-1] > coordTol {
			out = append(out, v)
		}
	}
	return copyFloats(out)
}

func indexOf(coords []float64, v float64) int {
	i := sort.SearchFloat64s(coords, v-coordTol)
	if i < len(coords) && math.Abs(coords[i]-v) <= coordTol {
		return i
	}
	return -1
}
