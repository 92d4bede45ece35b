package cases

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// CaseStudy describes one or more simulation cases. Every field holds either
// a single scalar, applied to all cases, or a sequence with one entry per
// case. All sequence-valued fields must share the same length.
type CaseStudy struct {
	DX                        Value `yaml:"dx"`
	DY                        Value `yaml:"dy"`
	Sigma                     Value `yaml:"sigma"`
	X0                        Value `yaml:"x0"`
	X1                        Value `yaml:"x1"`
	Y0                        Value `yaml:"y0"`
	Y1                        Value `yaml:"y1"`
	BedLevel                  Value `yaml:"bed_level"`
	DtMax                     Value `yaml:"dt_max"`
	DtInit                    Value `yaml:"dt_init"`
	TurbPosX                  Value `yaml:"turb_pos_x"`
	TurbPosY                  Value `yaml:"turb_pos_y"`
	TurbPosZ                  Value `yaml:"turb_pos_z"`
	Discharge                 Value `yaml:"discharge"`
	BedRoughness              Value `yaml:"bed_roughness"`
	HorizontalEddyViscosity   Value `yaml:"horizontal_eddy_viscosity"`
	HorizontalEddyDiffusivity Value `yaml:"horizontal_eddy_diffusivity"`
	VerticalEddyViscosity     Value `yaml:"vertical_eddy_viscosity"`
	VerticalEddyDiffusivity   Value `yaml:"vertical_eddy_diffusivity"`
	SimulateTurbines          Value `yaml:"simulate_turbines"`
	TurbineTurbulenceModel    Value `yaml:"turbine_turbulence_model"`
	BetaP                     Value `yaml:"beta_p"`
	BetaD                     Value `yaml:"beta_d"`
	CEpp                      Value `yaml:"c_epp"`
	CEpd                      Value `yaml:"c_epd"`
	HorizontalMomentumFilter  Value `yaml:"horizontal_momentum_filter"`
	StatsInterval             Value `yaml:"stats_interval"`
	RestartInterval           Value `yaml:"restart_interval"`

	// fixedDomain locks the flume geometry and turbine placement fields,
	// set for studies compared against the Mycek experiment.
	fixedDomain bool `yaml:"-"`
}

// Case holds the concrete parameter values for a single simulation run.
type Case struct {
	DX                        float64
	DY                        float64
	Sigma                     int
	X0                        float64
	X1                        float64
	Y0                        float64
	Y1                        float64
	BedLevel                  float64
	DtMax                     float64
	DtInit                    float64
	TurbPosX                  float64
	TurbPosY                  float64
	TurbPosZ                  float64
	Discharge                 float64
	BedRoughness              float64
	HorizontalEddyViscosity   float64
	HorizontalEddyDiffusivity float64
	VerticalEddyViscosity     float64
	VerticalEddyDiffusivity   float64
	SimulateTurbines          bool
	TurbineTurbulenceModel    string
	BetaP                     float64
	BetaD                     float64
	CEpp                      float64
	CEpd                      float64
	HorizontalMomentumFilter  bool
	StatsInterval             float64
	RestartInterval           float64
}

type fieldSpec struct {
	name string
	get  func(*CaseStudy) *Value
	set  func(*Case, Scalar) error
}

func floatSetter(dst func(*Case) *float64) func(*Case, Scalar) error {
	return func(c *Case, s Scalar) error {
		v, err := s.Float64()
		if err != nil {
			return err
		}
		*dst(c) = v
		return nil
	}
}

func intSetter(dst func(*Case) *int) func(*Case, Scalar) error {
	return func(c *Case, s Scalar) error {
		v, err := s.Int64()
		if err != nil {
			return err
		}
		*dst(c) = int(v)
		return nil
	}
}

func boolSetter(dst func(*Case) *bool) func(*Case, Scalar) error {
	return func(c *Case, s Scalar) error {
		v, err := s.Bool()
		if err != nil {
			return err
		}
		*dst(c) = v
		return nil
	}
}

func stringSetter(dst func(*Case) *string) func(*Case, Scalar) error {
	return func(c *Case, s Scalar) error {
		if s.Kind() != KindString {
			return fmt.Errorf("expected string, got %s", s.Kind())
		}
		*dst(c) = s.String()
		return nil
	}
}

var fieldSpecs = []fieldSpec{
	{"dx", func(cs *CaseStudy) *Value { return &cs.DX }, floatSetter(func(c *Case) *float64 { return &c.DX })},
	{"dy", func(cs *CaseStudy) *Value { return &cs.DY }, floatSetter(func(c *Case) *float64 { return &c.DY })},
	{"sigma", func(cs *CaseStudy) *Value { return &cs.Sigma }, intSetter(func(c *Case) *int { return &c.Sigma })},
	{"x0", func(cs *CaseStudy) *Value { return &cs.X0 }, floatSetter(func(c *Case) *float64 { return &c.X0 })},
	{"x1", func(cs *CaseStudy) *Value { return &cs.X1 }, floatSetter(func(c *Case) *float64 { return &c.X1 })},
	{"y0", func(cs *CaseStudy) *Value { return &cs.Y0 }, floatSetter(func(c *Case) *float64 { return &c.Y0 })},
	{"y1", func(cs *CaseStudy) *Value { return &cs.Y1 }, floatSetter(func(c *Case) *float64 { return &c.Y1 })},
	{"bed_level", func(cs *CaseStudy) *Value { return &cs.BedLevel }, floatSetter(func(c *Case) *float64 { return &c.BedLevel })},
	{"dt_max", func(cs *CaseStudy) *Value { return &cs.DtMax }, floatSetter(func(c *Case) *float64 { return &c.DtMax })},
	{"dt_init", func(cs *CaseStudy) *Value { return &cs.DtInit }, floatSetter(func(c *Case) *float64 { return &c.DtInit })},
	{"turb_pos_x", func(cs *CaseStudy) *Value { return &cs.TurbPosX }, floatSetter(func(c *Case) *float64 { return &c.TurbPosX })},
	{"turb_pos_y", func(cs *CaseStudy) *Value { return &cs.TurbPosY }, floatSetter(func(c *Case) *float64 { return &c.TurbPosY })},
	{"turb_pos_z", func(cs *CaseStudy) *Value { return &cs.TurbPosZ }, floatSetter(func(c *Case) *float64 { return &c.TurbPosZ })},
	{"discharge", func(cs *CaseStudy) *Value { return &cs.Discharge }, floatSetter(func(c *Case) *float64 { return &c.Discharge })},
	{"bed_roughness", func(cs *CaseStudy) *Value { return &cs.BedRoughness }, floatSetter(func(c *Case) *float64 { return &c.BedRoughness })},
	{"horizontal_eddy_viscosity", func(cs *CaseStudy) *Value { return &cs.HorizontalEddyViscosity }, floatSetter(func(c *Case) *float64 { return &c.HorizontalEddyViscosity })},
	{"horizontal_eddy_diffusivity", func(cs *CaseStudy) *Value { return &cs.HorizontalEddyDiffusivity }, floatSetter(func(c *Case) *float64 { return &c.HorizontalEddyDiffusivity })},
	{"vertical_eddy_viscosity", func(cs *CaseStudy) *Value { return &cs.VerticalEddyViscosity }, floatSetter(func(c *Case) *float64 { return &c.VerticalEddyViscosity })},
	{"vertical_eddy_diffusivity", func(cs *CaseStudy) *Value { return &cs.VerticalEddyDiffusivity }, floatSetter(func(c *Case) *float64 { return &c.VerticalEddyDiffusivity })},
	{"simulate_turbines", func(cs *CaseStudy) *Value { return &cs.SimulateTurbines }, boolSetter(func(c *Case) *bool { return &c.SimulateTurbines })},
	{"turbine_turbulence_model", func(cs *CaseStudy) *Value { return &cs.TurbineTurbulenceModel }, stringSetter(func(c *Case) *string { return &c.TurbineTurbulenceModel })},
	{"beta_p", func(cs *CaseStudy) *Value { return &cs.BetaP }, floatSetter(func(c *Case) *float64 { return &c.BetaP })},
	{"beta_d", func(cs *CaseStudy) *Value { return &cs.BetaD }, floatSetter(func(c *Case) *float64 { return &c.BetaD })},
	{"c_epp", func(cs *CaseStudy) *Value { return &cs.CEpp }, floatSetter(func(c *Case) *float64 { return &c.CEpp })},
	{"c_epd", func(cs *CaseStudy) *Value { return &cs.CEpd }, floatSetter(func(c *Case) *float64 { return &c.CEpd })},
	{"horizontal_momentum_filter", func(cs *CaseStudy) *Value { return &cs.HorizontalMomentumFilter }, boolSetter(func(c *Case) *bool { return &c.HorizontalMomentumFilter })},
	{"stats_interval", func(cs *CaseStudy) *Value { return &cs.StatsInterval }, floatSetter(func(c *Case) *float64 { return &c.StatsInterval })},
	{"restart_interval", func(cs *CaseStudy) *Value { return &cs.RestartInterval }, floatSetter(func(c *Case) *float64 { return &c.RestartInterval })},
}

// Default returns a study with the reference flume settings: an 18 by 4
// metre channel at 1 metre resolution with a single turbine at (6, 3, -1).
// A stats or restart interval of zero disables the respective output.
func Default() CaseStudy {
	return CaseStudy{
		DX:                        One(Float(1)),
		DY:                        One(Float(1)),
		Sigma:                     One(Int(3)),
		X0:                        One(Float(0)),
		X1:                        One(Float(18)),
		Y0:                        One(Float(1)),
		Y1:                        One(Float(5)),
		BedLevel:                  One(Float(-2)),
		DtMax:                     One(Float(1)),
		DtInit:                    One(Float(1)),
		TurbPosX:                  One(Float(6)),
		TurbPosY:                  One(Float(3)),
		TurbPosZ:                  One(Float(-1)),
		Discharge:                 One(Float(6.0574)),
		BedRoughness:              One(Float(0.023)),
		HorizontalEddyViscosity:   One(Float(1e-06)),
		HorizontalEddyDiffusivity: One(Float(1e-06)),
		VerticalEddyViscosity:     One(Float(1e-06)),
		VerticalEddyDiffusivity:   One(Float(1e-06)),
		SimulateTurbines:          One(Bool(true)),
		TurbineTurbulenceModel:    One(Str("delft")),
		BetaP:                     One(Float(1.0)),
		BetaD:                     One(Float(1.84)),
		CEpp:                      One(Float(0.77)),
		CEpd:                      One(Float(0.13)),
		HorizontalMomentumFilter:  One(Bool(true)),
		StatsInterval:             One(Float(0)),
		RestartInterval:           One(Float(0)),
	}
}

// mycekFixed names the fields pinned by the published flume setup.
var mycekFixed = []string{
	"x0", "x1", "y0", "y1", "bed_level",
	"turb_pos_x", "turb_pos_y", "turb_pos_z",
}

func isMycekFixed(name string) bool {
	for _, n := range mycekFixed {
		if n == name {
			return true
		}
	}
	return false
}

// MycekStudy returns the standard comparison study against the Mycek flume
// experiment. The domain and turbine placement match the published setup;
// SetField rejects changes to those fields.
func MycekStudy() CaseStudy {
	cs := Default()
	cs.fixedDomain = true
	return cs
}

// Validate checks that all sequence-valued fields share the same length and
// collapses length-one sequences to scalars. It returns the validated study.
func (cs CaseStudy) Validate() (CaseStudy, error) {
	type fieldLen struct {
		name string
		n    int
	}
	var multi []fieldLen
	for _, fs := range fieldSpecs {
		v := fs.get(&cs)
		if !v.IsSequence() {
			continue
		}
		if v.Len() == 1 {
			s, _ := v.Index(0)
			*v = One(s)
			continue
		}
		multi = append(multi, fieldLen{fs.name, v.Len()})
	}
	if len(multi) > 1 {
		first := multi[0].n
		for _, fl := range multi[1:] {
			if fl.n != first {
				parts := make([]string, len(multi))
				for i, m := range multi {
					parts[i] = fmt.Sprintf("%s has length %d", m.name, m.n)
				}
				return cs, fmt.Errorf("sequence fields have mismatched lengths: %s",
					strings.Join(parts, "; "))
			}
		}
	}
	return cs, nil
}

// Len returns the number of cases described by the study.
func (cs CaseStudy) Len() int {
	n := 1
	for _, fs := range fieldSpecs {
		if v := fs.get(&cs); v.IsSequence() && v.Len() > n {
			n = v.Len()
		}
	}
	return n
}

// GetCase returns the concrete case at index i. Negative indices count back
// from the end, so -1 is the last case.
func (cs CaseStudy) GetCase(i int) (Case, error) {
	n := cs.Len()
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return Case{}, fmt.Errorf("case index %d out of range for study of length %d", i, n)
	}
	var c Case
	for _, fs := range fieldSpecs {
		v := fs.get(&cs)
		idx := 0
		if v.IsSequence() {
			idx = i
		}
		s, err := v.Index(idx)
		if err != nil {
			return Case{}, fmt.Errorf("field %s: %w", fs.name, err)
		}
		if err := fs.set(&c, s); err != nil {
			return Case{}, fmt.Errorf("field %s: %w", fs.name, err)
		}
	}
	return c, nil
}

// Cases expands the study into its concrete cases in order.
func (cs CaseStudy) Cases() ([]Case, error) {
	validated, err := cs.Validate()
	if err != nil {
		return nil, err
	}
	out := make([]Case, validated.Len())
	for i := range out {
		c, err := validated.GetCase(i)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// FieldNames lists the study field names in declaration order.
func FieldNames() []string {
	names := make([]string, len(fieldSpecs))
	for i, fs := range fieldSpecs {
		names[i] = fs.name
	}
	return names
}

// Field returns the value of the named field.
func (cs CaseStudy) Field(name string) (Value, bool) {
	for _, fs := range fieldSpecs {
		if fs.name == name {
			return *fs.get(&cs), true
		}
	}
	return Value{}, false
}

// SetField replaces the value of the named field.
func (cs *CaseStudy) SetField(name string, v Value) error {
	if cs.fixedDomain && isMycekFixed(name) {
		return fmt.Errorf("field %q is fixed for the Mycek study", name)
	}
	for _, fs := range fieldSpecs {
		if fs.name == name {
			*fs.get(cs) = v
			return nil
		}
	}
	return fmt.Errorf("unknown field %q", name)
}

// IsEqual reports whether two studies hold the same values, skipping any
// fields named in ignore.
func (cs CaseStudy) IsEqual(o CaseStudy, ignore ...string) bool {
	skip := make(map[string]bool, len(ignore))
	for _, n := range ignore {
		skip[n] = true
	}
	for _, fs := range fieldSpecs {
		if skip[fs.name] {
			continue
		}
		if !fs.get(&cs).Equal(*fs.get(&o)) {
			return false
		}
	}
	return true
}

// Fields maps the case parameters by field name for templating. Grid spacing
// is excluded since the mesh is written separately from the model input.
func (c Case) Fields() map[string]any {
	return map[string]any{
		"sigma":                       c.Sigma,
		"x0":                          c.X0,
		"x1":                          c.X1,
		"y0":                          c.Y0,
		"y1":                          c.Y1,
		"bed_level":                   c.BedLevel,
		"dt_max":                      c.DtMax,
		"dt_init":                     c.DtInit,
		"turb_pos_x":                  c.TurbPosX,
		"turb_pos_y":                  c.TurbPosY,
		"turb_pos_z":                  c.TurbPosZ,
		"discharge":                   c.Discharge,
		"bed_roughness":               c.BedRoughness,
		"horizontal_eddy_viscosity":   c.HorizontalEddyViscosity,
		"horizontal_eddy_diffusivity": c.HorizontalEddyDiffusivity,
		"vertical_eddy_viscosity":     c.VerticalEddyViscosity,
		"vertical_eddy_diffusivity":   c.VerticalEddyDiffusivity,
		"simulate_turbines":           c.SimulateTurbines,
		"turbine_turbulence_model":    c.TurbineTurbulenceModel,
		"beta_p":                      c.BetaP,
		"beta_d":                      c.BetaD,
		"c_epp":                       c.CEpp,
		"c_epd":                       c.CEpd,
		"horizontal_momentum_filter":  c.HorizontalMomentumFilter,
		"stats_interval":              c.StatsInterval,
		"restart_interval":            c.RestartInterval,
	}
}

// FieldNamesSorted lists a case's template field names alphabetically.
func (c Case) FieldNamesSorted() []string {
	m := c.Fields()
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FromYAML loads a study from a YAML file. Absent fields keep their default
// values, and the loaded study is validated before being returned.
func FromYAML(path string) (CaseStudy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return CaseStudy{}, fmt.Errorf("reading case study: %w", err)
	}
	cs := Default()
	if err := yaml.Unmarshal(raw, &cs); err != nil {
		return CaseStudy{}, fmt.Errorf("parsing case study %s: %w", path, err)
	}
	return cs.Validate()
}

// MycekFromYAML loads a study for comparison against the Mycek experiment.
// Fields fixing the flume domain and turbine placement may not appear in
// the file at all.
func MycekFromYAML(path string) (CaseStudy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return CaseStudy{}, fmt.Errorf("reading case study: %w", err)
	}
	var keys map[string]yaml.Node
	if err := yaml.Unmarshal(raw, &keys); err != nil {
		return CaseStudy{}, fmt.Errorf("parsing case study %s: %w", path, err)
	}
	for _, name := range mycekFixed {
		if _, ok := keys[name]; ok {
			return CaseStudy{}, fmt.Errorf("field %q is fixed for the Mycek study", name)
		}
	}

	cs := MycekStudy()
	if err := yaml.Unmarshal(raw, &cs); err != nil {
		return CaseStudy{}, fmt.Errorf("parsing case study %s: %w", path, err)
	}
	return cs.Validate()
}

// ToYAML writes the study to a YAML file.
func (cs CaseStudy) ToYAML(path string) error {
	raw, err := yaml.Marshal(cs)
	if err != nil {
		return fmt.Errorf("encoding case study: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing case study: %w", err)
	}
	return nil
}
