package result

import (
	"fmt"
	"time"
)

// Point is a horizontal sample location.
type Point struct {
	X float64
	Y float64
}

// Offset displaces a turbine-relative extraction from the hub position.
type Offset struct {
	X float64
	Y float64
	Z float64
}

// Plane is a horizontal slice of the results, one row per mesh face.
// Coords carries the values shared by every row, such as the slice time and
// the sigma level or z elevation it was taken at. Vars holds one column per
// result quantity, all the same length as X and Y.
type Plane struct {
	Time   time.Time
	Coords map[string]float64
	X      []float64
	Y      []float64
	Vars   map[string][]float64
}

// Len returns the number of rows.
func (p *Plane) Len() int { return len(p.X) }

// PointSet is a set of interpolated samples at caller-chosen locations.
// Layout matches Plane, with one row per requested point.
type PointSet struct {
	Time   time.Time
	Coords map[string]float64
	X      []float64
	Y      []float64
	Vars   map[string][]float64
}

// Len returns the number of samples.
func (ps *PointSet) Len() int { return len(ps.X) }

// Var returns the named column.
func (ps *PointSet) Var(name string) ([]float64, error) {
	v, ok := ps.Vars[name]
	if !ok {
		return nil, fmt.Errorf("no variable %q in point set", name)
	}
	return v, nil
}

// Profile is a vertical sample through the water column at one horizontal
// location, one row per sigma layer from bed to surface.
type Profile struct {
	Time time.Time
	X    float64
	Y    float64
	Z    []float64
	Vars map[string][]float64
}

// Len returns the number of layers.
func (p *Profile) Len() int { return len(p.Z) }
