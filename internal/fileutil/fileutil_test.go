package fileutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStatSignature(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.bin")
	if err := os.WriteFile(path, []byte("0123456789"), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}

	sig, err := Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if sig.Size != 10 {
		t.Errorf("Size = %d, want 10", sig.Size)
	}
	if sig.MTimeNS == 0 {
		t.Error("MTimeNS should not be zero")
	}

	again, err := Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if !sig.Equal(again) {
		t.Error("signatures of an unchanged file should be equal")
	}
}

func TestSignatureChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.bin")
	if err := os.WriteFile(path, []byte("one"), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	before, err := Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}

	// Force a distinct mtime even on coarse-grained filesystems.
	if err := os.WriteFile(path, []byte("three"), 0o644); err != nil {
		t.Fatalf("rewrite sample: %v", err)
	}
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	after, err := Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if before.Equal(after) {
		t.Error("signature should differ after the file changes")
	}
}

func TestStatMissingFile(t *testing.T) {
	if _, err := Stat(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("Stat of a missing file should fail")
	}
}

func TestNonEmptyFile(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write empty: %v", err)
	}
	full := filepath.Join(dir, "full")
	if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
		t.Fatalf("write full: %v", err)
	}

	if NonEmptyFile(empty) {
		t.Error("empty file should not count as non-empty")
	}
	if !NonEmptyFile(full) {
		t.Error("file with content should count as non-empty")
	}
	if NonEmptyFile(filepath.Join(dir, "absent")) {
		t.Error("missing file should not count as non-empty")
	}
	if NonEmptyFile(dir) {
		t.Error("directory should not count as non-empty file")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "state.json")

	if err := WriteFileAtomic(path, []byte("first"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic overwrite failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want %q", data, "second")
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not remain after a successful write")
	}
}

func TestAppendLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "failed.txt")

	if err := AppendLine(path, "/videos/a.mkv"); err != nil {
		t.Fatalf("AppendLine failed: %v", err)
	}
	if err := AppendLine(path, "/videos/b.webm"); err != nil {
		t.Fatalf("AppendLine failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := "/videos/a.mkv\n/videos/b.webm\n"
	if string(data) != want {
		t.Errorf("content = %q, want %q", data, want)
	}
}
