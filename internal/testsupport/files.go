package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

// WriteFixture writes records as <dir>/<name>.yaml under the fixture layout
// read by the fixture source adapter and returns the file path.
func WriteFixture(t testing.TB, dir, name string, records []map[string]any) string {
	t.Helper()
	return WriteFixtureDoc(t, dir, name, map[string]any{"events": records})
}

// WriteFixtureDoc writes a whole fixture document, including the failure
// hooks (error, fail_after, delay_ms), as <dir>/<name>.yaml.
func WriteFixtureDoc(t testing.TB, dir, name string, doc map[string]any) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", dir, err)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal fixture %s: %v", name, err)
	}
	path := filepath.Join(dir, name+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
