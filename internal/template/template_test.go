package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/tidal-verify/internal/cases"
)

func writeTree(t *testing.T, files map[string][]byte) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, content, 0o644))
	}
	return dir
}

func TestApplyRendersCaseFields(t *testing.T) {
	src := writeTree(t, map[string][]byte{
		"FlowFM.mdu": []byte("Kmax = {{.sigma}}\nDtMax = {{.dt_max}}\n"),
		"input/discharge.bc": []byte("discharge = {{.discharge}}\n"),
	})
	dst := filepath.Join(t.TempDir(), "project")

	c, err := cases.Default().GetCase(0)
	require.NoError(t, err)
	require.NoError(t, Apply(src, dst, c.Fields(), false))

	mdu, err := os.ReadFile(filepath.Join(dst, "FlowFM.mdu"))
	require.NoError(t, err)
	assert.Equal(t, "Kmax = 3\nDtMax = 1\n", string(mdu))

	bc, err := os.ReadFile(filepath.Join(dst, "input", "discharge.bc"))
	require.NoError(t, err)
	assert.Equal(t, "discharge = 6.0574\n", string(bc))
}

func TestApplyCopiesBinaryFiles(t *testing.T) {
	blob := []byte{0x89, 0x50, 0x00, 0x4e, '{', '{', 0x00}
	src := writeTree(t, map[string][]byte{"turbine.bin": blob})
	dst := filepath.Join(t.TempDir(), "project")

	require.NoError(t, Apply(src, dst, map[string]any{}, false))

	got, err := os.ReadFile(filepath.Join(dst, "turbine.bin"))
	require.NoError(t, err)
	assert.Equal(t, blob, got)
}

func TestApplyRejectsNonEmptyDestination(t *testing.T) {
	src := writeTree(t, map[string][]byte{"a.txt": []byte("x")})
	dst := writeTree(t, map[string][]byte{"old.txt": []byte("y")})

	err := Apply(src, dst, map[string]any{}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not empty")

	require.NoError(t, Apply(src, dst, map[string]any{}, true))
	_, statErr := os.Stat(filepath.Join(dst, "a.txt"))
	assert.NoError(t, statErr)
}

func TestApplyMissingFieldFails(t *testing.T) {
	src := writeTree(t, map[string][]byte{"a.mdu": []byte("{{.no_such_field}}")})
	dst := filepath.Join(t.TempDir(), "project")

	err := Apply(src, dst, map[string]any{"sigma": 3}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.mdu")
}

func TestApplyMissingSource(t *testing.T) {
	err := Apply(filepath.Join(t.TempDir(), "nope"), t.TempDir(), nil, true)
	assert.Error(t, err)
}

func TestRequired(t *testing.T) {
	src := writeTree(t, map[string][]byte{
		"a.mdu":        []byte("{{.sigma}} {{ .dt_max }}"),
		"b.xml":        []byte("{{.sigma}}"),
		"turbine.bin":  {0x00, '{', '{'},
		"plain.txt":    []byte("no placeholders"),
	})

	names, err := Required(src)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sigma", "dt_max"}, names)
}
