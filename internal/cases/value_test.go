package cases

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScalarKinds(t *testing.T) {
	tests := []struct {
		name string
		s    Scalar
		kind Kind
		str  string
	}{
		{"int", Int(42), KindInt, "42"},
		{"float", Float(2.5), KindFloat, "2.5"},
		{"bool", Bool(true), KindBool, "true"},
		{"string", Str("delft"), KindString, "delft"},
		{"triple", Triple(6, 3, -1), KindTriple, "[6, 3, -1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.s.Kind())
			assert.Equal(t, tt.str, tt.s.String())
		})
	}
}

func TestScalarConversions(t *testing.T) {
	f, err := Int(3).Float64()
	require.NoError(t, err)
	assert.Equal(t, 3.0, f)

	f, err = Float(0.5).Float64()
	require.NoError(t, err)
	assert.Equal(t, 0.5, f)

	_, err = Str("x").Float64()
	assert.Error(t, err)

	i, err := Int(7).Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(7), i)

	_, err = Float(7).Int64()
	assert.Error(t, err)

	b, err := Bool(true).Bool()
	require.NoError(t, err)
	assert.True(t, b)

	tr, err := Triple(1, 2, 3).Triple3()
	require.NoError(t, err)
	assert.Equal(t, [3]float64{1, 2, 3}, tr)

	_, err = Int(1).Triple3()
	assert.Error(t, err)
}

func TestValueBroadcast(t *testing.T) {
	v := One(Float(0.5))
	assert.False(t, v.IsSequence())
	assert.Equal(t, 1, v.Len())

	for _, i := range []int{0, 5, 100} {
		s, err := v.Index(i)
		require.NoError(t, err)
		assert.Equal(t, Float(0.5), s)
	}
}

func TestValueSequenceBounds(t *testing.T) {
	v := Floats(1, 2, 3)
	assert.True(t, v.IsSequence())
	assert.Equal(t, 3, v.Len())

	s, err := v.Index(2)
	require.NoError(t, err)
	assert.Equal(t, Float(3), s)

	_, err = v.Index(3)
	assert.Error(t, err)
	_, err = v.Index(-1)
	assert.Error(t, err)
}

func TestValueEqual(t *testing.T) {
	assert.True(t, One(Int(1)).Equal(One(Int(1))))
	assert.False(t, One(Int(1)).Equal(One(Float(1))))
	assert.False(t, One(Int(1)).Equal(Ints(1)))
	assert.True(t, Floats(1, 2).Equal(Floats(1, 2)))
	assert.False(t, Floats(1, 2).Equal(Floats(1, 3)))
	assert.False(t, Floats(1, 2).Equal(Floats(1, 2, 3)))
}

func TestValueYAML(t *testing.T) {
	t.Run("scalar", func(t *testing.T) {
		var v Value
		require.NoError(t, yaml.Unmarshal([]byte("0.25"), &v))
		assert.False(t, v.IsSequence())
		s, _ := v.Index(0)
		assert.Equal(t, Float(0.25), s)

		out, err := yaml.Marshal(v)
		require.NoError(t, err)
		assert.Equal(t, "0.25\n", string(out))
	})

	t.Run("sequence", func(t *testing.T) {
		var v Value
		require.NoError(t, yaml.Unmarshal([]byte("[1, 2, 3]"), &v))
		assert.True(t, v.IsSequence())
		assert.Equal(t, 3, v.Len())
		s, _ := v.Index(0)
		assert.Equal(t, KindInt, s.Kind())
	})

	t.Run("mixed kinds", func(t *testing.T) {
		var v Value
		require.NoError(t, yaml.Unmarshal([]byte(`[delft, canopy]`), &v))
		s, _ := v.Index(1)
		assert.Equal(t, Str("canopy"), s)
	})

	t.Run("unsupported", func(t *testing.T) {
		var v Value
		assert.Error(t, yaml.Unmarshal([]byte("{a: 1}"), &v))
	})
}

func TestTripleYAMLRoundTrip(t *testing.T) {
	in := One(Triple(6, 3, -1))
	out, err := yaml.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(out), "!triple")

	var v Value
	require.NoError(t, yaml.Unmarshal(out, &v))
	assert.True(t, in.Equal(v), "got %#v", v)
	s, _ := v.Index(0)
	assert.Equal(t, KindTriple, s.Kind())

	// a plain three-float list stays a sequence
	require.NoError(t, yaml.Unmarshal([]byte("[6, 3, -1]"), &v))
	assert.True(t, v.IsSequence())

	// triples nest inside sequences
	seq := Many(Triple(1, 2, 3), Triple(4, 5, 6))
	out, err = yaml.Marshal(seq)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(out, &v))
	assert.True(t, seq.Equal(v))

	var bad Value
	err = yaml.Unmarshal([]byte("!triple [1, 2]"), &bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "triple needs 3 components")
}
