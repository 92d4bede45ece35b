package result

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Transect is a line of sample locations at a fixed elevation, optionally
// carrying measured data to compare simulated values against. Reference
// transects from flume experiments load from CSV or YAML files.
type Transect struct {
	Name  string
	Z     float64
	X     []float64
	Y     []float64
	Data  []float64
	Attrs map[string]string
}

// Len returns the number of sample locations.
func (t Transect) Len() int { return len(t.X) }

// Points returns the horizontal sample locations.
func (t Transect) Points() []Point {
	pts := make([]Point, len(t.X))
	for i := range t.X {
		pts[i] = Point{X: t.X[i], Y: t.Y[i]}
	}
	return pts
}

// Extract samples the simulated flow along the transect at its elevation.
func (t Transect) Extract(f *Faces, step int) (*PointSet, error) {
	return f.ExtractZAt(step, t.Z, t.Points())
}

// Translate returns a copy of the transect displaced by the given offset.
func (t Transect) Translate(off Offset) Transect {
	out := t
	out.X = make([]float64, len(t.X))
	out.Y = make([]float64, len(t.Y))
	for i := range t.X {
		out.X[i] = t.X[i] + off.X
		out.Y[i] = t.Y[i] + off.Y
	}
	out.Z = t.Z + off.Z
	return out
}

// TransectFromCSV loads a transect from a CSV file with columns x, y, z and
// optionally data. Lines starting with "# " before the header carry
// attributes as "# key: value". All rows must share one z value.
func TransectFromCSV(path string) (Transect, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Transect{}, fmt.Errorf("reading transect: %w", err)
	}

	attrs := map[string]string{}
	lines := strings.Split(string(raw), "\n")
	var body []string
	for _, line := range lines {
		if rest, ok := strings.CutPrefix(line, "# "); ok {
			if key, val, found := strings.Cut(rest, ": "); found {
				attrs[key] = val
			}
			continue
		}
		body = append(body, line)
	}

	rec, err := csv.NewReader(strings.NewReader(strings.Join(body, "\n"))).ReadAll()
	if err != nil {
		return Transect{}, fmt.Errorf("parsing transect %s: %w", path, err)
	}
	if len(rec) < 2 {
		return Transect{}, fmt.Errorf("transect %s has no data rows", path)
	}

	col := map[string]int{}
	for i, name := range rec[0] {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"x", "y", "z"} {
		if _, ok := col[required]; !ok {
			return Transect{}, fmt.Errorf("transect %s missing column %q", path, required)
		}
	}
	_, hasData := col["data"]

	t := Transect{Name: nameFrom(path, attrs), Attrs: attrs}
	var zs []float64
	for n, row := range rec[1:] {
		get := func(name string) (float64, error) {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[col[name]]), 64)
			if err != nil {
				return 0, fmt.Errorf("transect %s row %d column %s: %w", path, n+1, name, err)
			}
			return v, nil
		}
		x, err := get("x")
		if err != nil {
			return Transect{}, err
		}
		y, err := get("y")
		if err != nil {
			return Transect{}, err
		}
		z, err := get("z")
		if err != nil {
			return Transect{}, err
		}
		t.X = append(t.X, x)
		t.Y = append(t.Y, y)
		zs = append(zs, z)
		if hasData {
			d, err := get("data")
			if err != nil {
				return Transect{}, err
			}
			t.Data = append(t.Data, d)
		}
	}
	for _, z := range zs[1:] {
		if z != zs[0] {
			return Transect{}, fmt.Errorf("transect %s: only a fixed z value is supported", path)
		}
	}
	t.Z = zs[0]
	return t, nil
}

type transectYAML struct {
	Z     float64           `yaml:"z"`
	X     []float64         `yaml:"x"`
	Y     []float64         `yaml:"y"`
	Data  []float64         `yaml:"data"`
	Attrs map[string]string `yaml:"attrs"`
}

// TransectFromYAML loads a transect from a YAML file with keys z, x, y and
// optionally data and attrs.
func TransectFromYAML(path string) (Transect, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Transect{}, fmt.Errorf("reading transect: %w", err)
	}
	var ty transectYAML
	if err := yaml.Unmarshal(raw, &ty); err != nil {
		return Transect{}, fmt.Errorf("parsing transect %s: %w", path, err)
	}
	if len(ty.X) != len(ty.Y) {
		return Transect{}, fmt.Errorf("transect %s: x has %d values but y has %d",
			path, len(ty.X), len(ty.Y))
	}
	if ty.Data != nil && len(ty.Data) != len(ty.X) {
		return Transect{}, fmt.Errorf("transect %s: data has %d values but x has %d",
			path, len(ty.Data), len(ty.X))
	}
	if ty.Attrs == nil {
		ty.Attrs = map[string]string{}
	}
	return Transect{
		Name:  nameFrom(path, ty.Attrs),
		Z:     ty.Z,
		X:     ty.X,
		Y:     ty.Y,
		Data:  ty.Data,
		Attrs: ty.Attrs,
	}, nil
}

// ToCSV writes the transect with attributes as leading comment lines.
func (t Transect) ToCSV(path string) error {
	var b strings.Builder
	keys := make([]string, 0, len(t.Attrs))
	for k := range t.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "# %s: %s\n", k, t.Attrs[k])
	}

	w := csv.NewWriter(&b)
	header := []string{"x", "y", "z"}
	if t.Data != nil {
		header = append(header, "data")
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for i := range t.X {
		row := []string{
			strconv.FormatFloat(t.X[i], 'g', -1, 64),
			strconv.FormatFloat(t.Y[i], 'g', -1, 64),
			strconv.FormatFloat(t.Z, 'g', -1, 64),
		}
		if t.Data != nil {
			row = append(row, strconv.FormatFloat(t.Data[i], 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func nameFrom(path string, attrs map[string]string) string {
	if n, ok := attrs["name"]; ok {
		return n
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
