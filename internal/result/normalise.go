package result

// Normalisation helpers for comparing runs against each other and against
// experimental transects. All of them return copies; the receiver is never
// modified.

func (ps *PointSet) clone() *PointSet {
	out := &PointSet{
		Time:   ps.Time,
		Coords: map[string]float64{},
		X:      copyFloats(ps.X),
		Y:      copyFloats(ps.Y),
		Vars:   map[string][]float64{},
	}
	for k, v := range ps.Coords {
		out.Coords[k] = v
	}
	for k, v := range ps.Vars {
		out.Vars[k] = copyFloats(v)
	}
	return out
}

// ResetOrigin shifts the coordinate system so the given origin becomes zero.
// Turbine-relative plots pass the hub position.
func (ps *PointSet) ResetOrigin(origin Offset) *PointSet {
	out := ps.clone()
	for i := range out.X {
		out.X[i] -= origin.X
		out.Y[i] -= origin.Y
	}
	if z, ok := out.Coords["z"]; ok {
		out.Coords["z"] = z - origin.Z
	}
	return out
}

// NormalisedDims divides the coordinates by a length scale, typically the
// turbine diameter.
func (ps *PointSet) NormalisedDims(factor float64) *PointSet {
	out := ps.clone()
	for i := range out.X {
		out.X[i] /= factor
		out.Y[i] /= factor
	}
	if z, ok := out.Coords["z"]; ok {
		out.Coords["z"] = z / factor
	}
	return out
}

// NormalisedVar divides the named column by a reference value, typically the
// free stream velocity.
func (ps *PointSet) NormalisedVar(name string, factor float64) (*PointSet, error) {
	if _, err := ps.Var(name); err != nil {
		return nil, err
	}
	out := ps.clone()
	col := out.Vars[name]
	for i := range col {
		col[i] /= factor
	}
	return out, nil
}

// VarDeficit returns the percentage deficit of the named column relative to
// a reference value: 100 * (1 - v/ref).
func (ps *PointSet) VarDeficit(name string, ref float64) ([]float64, error) {
	col, err := ps.Var(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(col))
	for i, v := range col {
		out[i] = 100 * (1 - v/ref)
	}
	return out, nil
}

// ResetOrigin shifts the transect coordinates so the origin becomes zero.
func (t Transect) ResetOrigin(origin Offset) Transect {
	return t.Translate(Offset{X: -origin.X, Y: -origin.Y, Z: -origin.Z})
}

// NormalisedDims divides the transect coordinates by a length scale.
func (t Transect) NormalisedDims(factor float64) Transect {
	out := t
	out.X = make([]float64, len(t.X))
	out.Y = make([]float64, len(t.Y))
	for i := range t.X {
		out.X[i] = t.X[i] / factor
		out.Y[i] = t.Y[i] / factor
	}
	out.Z = t.Z / factor
	return out
}

// NormalisedData divides the measured data by a reference value.
func (t Transect) NormalisedData(factor float64) Transect {
	out := t
	out.Data = make([]float64, len(t.Data))
	for i, v := range t.Data {
		out.Data[i] = v / factor
	}
	return out
}

// DataDeficit returns the percentage deficit of the measured data relative
// to a reference value.
func (t Transect) DataDeficit(ref float64) Transect {
	out := t
	out.Data = make([]float64, len(t.Data))
	for i, v := range t.Data {
		out.Data[i] = 100 * (1 - v/ref)
	}
	return out
}
