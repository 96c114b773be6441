package scan

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestCollectInputsFilesAndDirectories(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mkv")
	b := filepath.Join(dir, "nested", "deep", "b.webm")
	skipped := filepath.Join(dir, "nested", "notes.txt")
	touch(t, a)
	touch(t, b)
	touch(t, skipped)

	recognized := DefaultRecognizer([]string{".mkv", ".webm", ".ogv"})
	inputs, err := CollectInputs([]string{a, filepath.Join(dir, "nested")}, recognized)
	if err != nil {
		t.Fatalf("CollectInputs failed: %v", err)
	}
	want := []string{a, b}
	if !reflect.DeepEqual(inputs, want) {
		t.Errorf("inputs = %v, want %v", inputs, want)
	}
}

func TestCollectInputsCaseInsensitiveExtensions(t *testing.T) {
	dir := t.TempDir()
	upper := filepath.Join(dir, "MOVIE.MKV")
	mixed := filepath.Join(dir, "clip.WebM")
	touch(t, upper)
	touch(t, mixed)

	inputs, err := CollectInputs([]string{upper, mixed}, DefaultRecognizer([]string{".mkv", ".webm"}))
	if err != nil {
		t.Fatalf("CollectInputs failed: %v", err)
	}
	if len(inputs) != 2 {
		t.Errorf("expected both case-variant inputs, got %v", inputs)
	}
}

func TestCollectInputsFirstSeenDeduplication(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mkv")
	touch(t, a)

	// Listed explicitly and reachable through the directory walk.
	inputs, err := CollectInputs([]string{a, dir, a}, DefaultRecognizer([]string{".mkv"}))
	if err != nil {
		t.Fatalf("CollectInputs failed: %v", err)
	}
	if len(inputs) != 1 || inputs[0] != a {
		t.Errorf("inputs = %v, want single %s", inputs, a)
	}
}

func TestCollectInputsUnrecognizedFileDropped(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "readme.txt")
	touch(t, txt)

	inputs, err := CollectInputs([]string{txt}, DefaultRecognizer([]string{".mkv"}))
	if err != nil {
		t.Fatalf("CollectInputs failed: %v", err)
	}
	if len(inputs) != 0 {
		t.Errorf("unrecognized extension should be filtered, got %v", inputs)
	}
}

func TestCollectInputsMissingPath(t *testing.T) {
	if _, err := CollectInputs([]string{"/nonexistent/video.mkv"}, DefaultRecognizer([]string{".mkv"})); err == nil {
		t.Error("missing explicit input should fail")
	}
}
