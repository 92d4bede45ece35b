package result

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/tidal-verify/internal/cases"
)

// Validate is an ordered collection of reference transects for comparing a
// simulation against flume measurements. Transect files are stored
// turbine-relative; loading against a case translates them to domain
// coordinates using the case's hub position.
type Validate struct {
	transects []Transect
}

// LoadValidate reads every transect file (*.yaml, *.csv) under dataDir in
// name order. When c is non-nil the transects are translated by its turbine
// position.
func LoadValidate(dataDir string, c *cases.Case) (*Validate, error) {
	var paths []string
	for _, pat := range []string{"*.yaml", "*.yml", "*.csv"} {
		m, err := filepath.Glob(filepath.Join(dataDir, pat))
		if err != nil {
			return nil, err
		}
		paths = append(paths, m...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no transect files under %s", dataDir)
	}
	sort.Strings(paths)

	v := &Validate{}
	for _, p := range paths {
		var t Transect
		var err error
		if strings.HasSuffix(p, ".csv") {
			t, err = TransectFromCSV(p)
		} else {
			t, err = TransectFromYAML(p)
		}
		if err != nil {
			return nil, err
		}
		if c != nil {
			t = t.Translate(Offset{X: c.TurbPosX, Y: c.TurbPosY, Z: c.TurbPosZ})
		}
		v.transects = append(v.transects, t)
	}
	return v, nil
}

// Len returns the number of reference transects.
func (v *Validate) Len() int { return len(v.transects) }

// Transect returns the transect at index i. Negative indices count back
// from the end.
func (v *Validate) Transect(i int) (Transect, error) {
	n := len(v.transects)
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return Transect{}, fmt.Errorf("transect index %d out of range for %d transects", i, n)
	}
	return v.transects[i], nil
}

// ByName returns the transect with the given name.
func (v *Validate) ByName(name string) (Transect, bool) {
	for _, t := range v.transects {
		if t.Name == name {
			return t, true
		}
	}
	return Transect{}, false
}

// Names lists the transect names in load order.
func (v *Validate) Names() []string {
	out := make([]string, len(v.transects))
	for i, t := range v.transects {
		out[i] = t.Name
	}
	return out
}
