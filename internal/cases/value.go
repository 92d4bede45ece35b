package cases

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// tripleTag marks a coordinate triple in YAML so it reads back as a single
// scalar rather than a three-float sequence.
const tripleTag = "!triple"

// Kind identifies the concrete type held by a Scalar.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
	KindTriple
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindTriple:
		return "triple"
	}
	return "unknown"
}

// Scalar is a single case-study field value: a number, boolean, string, or
// coordinate triple. The original kind survives YAML round-trips, so an
// integer-valued field is written back as an integer.
type Scalar struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
	t    [3]float64
}

// Int returns an integer scalar.
func Int(v int64) Scalar { return Scalar{kind: KindInt, i: v} }

// Float returns a floating-point scalar.
func Float(v float64) Scalar { return Scalar{kind: KindFloat, f: v} }

// Bool returns a boolean scalar.
func Bool(v bool) Scalar { return Scalar{kind: KindBool, b: v} }

// Str returns a string scalar.
func Str(v string) Scalar { return Scalar{kind: KindString, s: v} }

// Triple returns a coordinate-triple scalar.
func Triple(x, y, z float64) Scalar {
	return Scalar{kind: KindTriple, t: [3]float64{x, y, z}}
}

// Kind reports the concrete type of the scalar.
func (s Scalar) Kind() Kind { return s.kind }

// Float64 converts a numeric scalar to float64.
func (s Scalar) Float64() (float64, error) {
	switch s.kind {
	case KindInt:
		return float64(s.i), nil
	case KindFloat:
		return s.f, nil
	}
	return 0, fmt.Errorf("cannot convert %s value to float", s.kind)
}

// Int64 returns the value of an integer scalar.
func (s Scalar) Int64() (int64, error) {
	if s.kind != KindInt {
		return 0, fmt.Errorf("cannot convert %s value to int", s.kind)
	}
	return s.i, nil
}

// Bool returns the value of a boolean scalar.
func (s Scalar) Bool() (bool, error) {
	if s.kind != KindBool {
		return false, fmt.Errorf("cannot convert %s value to bool", s.kind)
	}
	return s.b, nil
}

// String returns the value of a string scalar, or a formatted rendering of
// any other kind. It never fails so that scalars can feed templates directly.
func (s Scalar) String() string {
	switch s.kind {
	case KindInt:
		return fmt.Sprintf("%d", s.i)
	case KindFloat:
		return fmt.Sprintf("%g", s.f)
	case KindBool:
		return fmt.Sprintf("%t", s.b)
	case KindString:
		return s.s
	case KindTriple:
		return fmt.Sprintf("[%g, %g, %g]", s.t[0], s.t[1], s.t[2])
	}
	return ""
}

// Triple3 returns the value of a coordinate-triple scalar.
func (s Scalar) Triple3() ([3]float64, error) {
	if s.kind != KindTriple {
		return [3]float64{}, fmt.Errorf("cannot convert %s value to triple", s.kind)
	}
	return s.t, nil
}

// Native returns the scalar as the natural Go type for templating.
func (s Scalar) Native() any {
	switch s.kind {
	case KindInt:
		return s.i
	case KindFloat:
		return s.f
	case KindBool:
		return s.b
	case KindString:
		return s.s
	case KindTriple:
		return []float64{s.t[0], s.t[1], s.t[2]}
	}
	return nil
}

// Equal reports whether two scalars hold the same kind and value.
func (s Scalar) Equal(o Scalar) bool { return s == o }

// yamlNode renders the scalar for marshalling. Triples carry an explicit tag
// so decoding can tell them apart from float sequences.
func (s Scalar) yamlNode() any {
	if s.kind != KindTriple {
		return s.Native()
	}
	content := make([]*yaml.Node, 3)
	for i, v := range s.t {
		content[i] = &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!float",
			Value: strconv.FormatFloat(v, 'g', -1, 64),
		}
	}
	return &yaml.Node{
		Kind:    yaml.SequenceNode,
		Style:   yaml.FlowStyle,
		Tag:     tripleTag,
		Content: content,
	}
}

func scalarFromNode(n *yaml.Node) (Scalar, error) {
	if n.Kind == yaml.SequenceNode && n.Tag == tripleTag {
		if len(n.Content) != 3 {
			return Scalar{}, fmt.Errorf("triple needs 3 components, got %d", len(n.Content))
		}
		var t [3]float64
		for i, c := range n.Content {
			if err := c.Decode(&t[i]); err != nil {
				return Scalar{}, fmt.Errorf("triple component %d: %w", i, err)
			}
		}
		return Triple(t[0], t[1], t[2]), nil
	}
	switch n.Tag {
	case "!!int":
		var v int64
		if err := n.Decode(&v); err != nil {
			return Scalar{}, err
		}
		return Int(v), nil
	case "!!float":
		var v float64
		if err := n.Decode(&v); err != nil {
			return Scalar{}, err
		}
		return Float(v), nil
	case "!!bool":
		var v bool
		if err := n.Decode(&v); err != nil {
			return Scalar{}, err
		}
		return Bool(v), nil
	case "!!str":
		var v string
		if err := n.Decode(&v); err != nil {
			return Scalar{}, err
		}
		return Str(v), nil
	}
	return Scalar{}, fmt.Errorf("unsupported YAML value %q (tag %s)", n.Value, n.Tag)
}

// Value is a case-study field: either a single Scalar or a Sequence of
// scalars. The variant is fixed at construction; a sequence of length one is
// collapsed to a scalar during case-study validation.
type Value struct {
	scalar Scalar
	seq    []Scalar
	isSeq  bool
}

// One wraps a single scalar.
func One(s Scalar) Value { return Value{scalar: s} }

// Many wraps an ordered sequence of scalars.
func Many(ss ...Scalar) Value {
	seq := make([]Scalar, len(ss))
	copy(seq, ss)
	return Value{seq: seq, isSeq: true}
}

// Floats is shorthand for a sequence of floating-point scalars.
func Floats(vs ...float64) Value {
	ss := make([]Scalar, len(vs))
	for i, v := range vs {
		ss[i] = Float(v)
	}
	return Many(ss...)
}

// Ints is shorthand for a sequence of integer scalars.
func Ints(vs ...int64) Value {
	ss := make([]Scalar, len(vs))
	for i, v := range vs {
		ss[i] = Int(v)
	}
	return Many(ss...)
}

// IsSequence reports whether the value holds multiple scalars.
func (v Value) IsSequence() bool { return v.isSeq }

// Len returns the number of scalars: 1 for a scalar value.
func (v Value) Len() int {
	if v.isSeq {
		return len(v.seq)
	}
	return 1
}

// Index returns the scalar for case i, broadcasting a scalar value to every
// index. A sequence value must be indexed within range.
func (v Value) Index(i int) (Scalar, error) {
	if !v.isSeq {
		return v.scalar, nil
	}
	if i < 0 || i >= len(v.seq) {
		return Scalar{}, fmt.Errorf("index %d out of range for sequence of length %d", i, len(v.seq))
	}
	return v.seq[i], nil
}

// Scalars returns the underlying scalars in order.
func (v Value) Scalars() []Scalar {
	if !v.isSeq {
		return []Scalar{v.scalar}
	}
	out := make([]Scalar, len(v.seq))
	copy(out, v.seq)
	return out
}

// Equal reports whether two values hold the same variant and contents.
func (v Value) Equal(o Value) bool {
	if v.isSeq != o.isSeq {
		return false
	}
	if !v.isSeq {
		return v.scalar == o.scalar
	}
	if len(v.seq) != len(o.seq) {
		return false
	}
	for i := range v.seq {
		if v.seq[i] != o.seq[i] {
			return false
		}
	}
	return true
}

// MarshalYAML writes a scalar value as a plain YAML scalar and a sequence
// value as a YAML list.
func (v Value) MarshalYAML() (any, error) {
	if !v.isSeq {
		return v.scalar.yamlNode(), nil
	}
	out := make([]any, len(v.seq))
	for i, s := range v.seq {
		out[i] = s.yamlNode()
	}
	return out, nil
}

// UnmarshalYAML reads either a plain scalar or a list of scalars.
func (v *Value) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		s, err := scalarFromNode(n)
		if err != nil {
			return err
		}
		*v = One(s)
		return nil
	case yaml.SequenceNode:
		if n.Tag == tripleTag {
			s, err := scalarFromNode(n)
			if err != nil {
				return err
			}
			*v = One(s)
			return nil
		}
		ss := make([]Scalar, len(n.Content))
		for i, c := range n.Content {
			s, err := scalarFromNode(c)
			if err != nil {
				return err
			}
			ss[i] = s
		}
		*v = Many(ss...)
		return nil
	}
	return fmt.Errorf("unsupported YAML node for case value (kind %d)", n.Kind)
}
