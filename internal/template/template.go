// Package template materialises solver project directories from template
// trees. Text files are rendered with the case parameters; binary files are
// copied unchanged.
package template

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	ttemplate "text/template"
)

// Apply copies the template tree at srcDir into dstDir, rendering each text
// file with the given data. The destination must be absent or empty unless
// existOK is set, in which case rendered files overwrite existing ones.
func Apply(srcDir, dstDir string, data map[string]any, existOK bool) error {
	info, err := os.Stat(srcDir)
	if err != nil {
		return fmt.Errorf("template source: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("template source %s is not a directory", srcDir)
	}

	if !existOK {
		if err := ensureAbsentOrEmpty(dstDir); err != nil {
			return err
		}
	}

	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dstDir, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return renderFile(path, target, rel, data)
	})
}

func ensureAbsentOrEmpty(dstDir string) error {
	entries, err := os.ReadDir(dstDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("template destination: %w", err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("template destination %s is not empty", dstDir)
	}
	return nil
}

func renderFile(src, dst, rel string, data map[string]any) error {
	raw, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(src); err == nil {
		mode = info.Mode().Perm()
	}

	if bytes.IndexByte(raw, 0) >= 0 {
		// binary content passes through untouched
		return os.WriteFile(dst, raw, mode)
	}

	tmpl, err := ttemplate.New(rel).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return fmt.Errorf("parsing template %s: %w", rel, err)
	}
	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return fmt.Errorf("rendering template %s: %w", rel, err)
	}
	return os.WriteFile(dst, out.Bytes(), mode)
}

// Required lists the template placeholders referenced under srcDir, useful
// for checking a template tree against the case fields before a batch run.
func Required(srcDir string) ([]string, error) {
	seen := map[string]bool{}
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if bytes.IndexByte(raw, 0) >= 0 {
			return nil
		}
		for _, name := range placeholders(string(raw)) {
			seen[name] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	return out, nil
}

// placeholders extracts the field names of simple {{ .name }} actions.
func placeholders(s string) []string {
	var out []string
	for {
		start := strings.Index(s, "{{")
		if start < 0 {
			return out
		}
		s = s[start+2:]
		end := strings.Index(s, "}}")
		if end < 0 {
			return out
		}
		action := strings.TrimSpace(s[:end])
		s = s[end+2:]
		if name, ok := strings.CutPrefix(action, "."); ok {
			out = append(out, strings.TrimSpace(name))
		}
	}
}
