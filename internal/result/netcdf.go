package result

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ctessum/cdf"
)

// dataset wraps a NetCDF classic file with typed whole-variable reads.
// Variables are read in full rather than hyperslabbed; map files for the
// flume domains involved are small enough that this is the simpler and
// faster option.
type dataset struct {
	path string
	f    *os.File
	nc   *cdf.File
}

func openDataset(path string) (*dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	nc, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading NetCDF header of %s: %w", path, err)
	}
	return &dataset{path: path, f: f, nc: nc}, nil
}

func (d *dataset) Close() error { return d.f.Close() }

// has reports whether the named variable exists.
func (d *dataset) has(name string) bool {
	return len(d.nc.Header.Lengths(name)) > 0
}

// dims returns the dimension lengths of the named variable.
func (d *dataset) dims(name string) []int {
	return d.nc.Header.Lengths(name)
}

// floats reads an entire variable as float64, converting from whichever
// numeric type the file stores.
func (d *dataset) floats(name string) ([]float64, error) {
	if !d.has(name) {
		return nil, fmt.Errorf("%s: no variable %q", d.path, name)
	}
	n := 1
	for _, l := range d.dims(name) {
		n *= l
	}
	r := d.nc.Reader(name, nil, nil)
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("reading variable %q from %s: %w", name, d.path, err)
	}
	switch v := buf.(type) {
	case []float64:
		return v, nil
	case []float32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	case []int16:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	case []int8:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	}
	return nil, fmt.Errorf("variable %q has non-numeric type %T", name, buf)
}

// ints reads an entire variable as int, for connectivity tables.
func (d *dataset) ints(name string) ([]int, error) {
	fs, err := d.floats(name)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(fs))
	for i, f := range fs {
		out[i] = int(f)
	}
	return out, nil
}

// attrString returns a variable attribute as a string, or "" when absent.
func (d *dataset) attrString(varName, attr string) string {
	v := d.nc.Header.GetAttribute(varName, attr)
	if v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return ""
}

// timesFrom decodes a CF-style time variable. Only the "seconds since"
// encoding produced by the solver is supported.
func (d *dataset) timesFrom(name string) ([]time.Time, error) {
	units := d.attrString(name, "units")
	ref, err := parseTimeUnits(units)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", name, err)
	}
	secs, err := d.floats(name)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(secs))
	for i, s := range secs {
		out[i] = ref.Add(time.Duration(s * float64(time.Second)))
	}
	return out, nil
}

func parseTimeUnits(units string) (time.Time, error) {
	rest, ok := strings.CutPrefix(units, "seconds since ")
	if !ok {
		return time.Time{}, fmt.Errorf("unsupported time units %q", units)
	}
	for _, layout := range []string{
		"2006-01-02 15:04:05 -07:00",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, rest); err == nil {
			// time.Parse puts a numeric zone offset in an
			// environment-dependent Location; normalise so the
			// reference instant is the same everywhere
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time reference %q", rest)
}
