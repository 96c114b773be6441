package trash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDeleteTrashed(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))

	victim := filepath.Join(dir, "movie.mkv")
	if err := os.WriteFile(victim, []byte("x"), 0o644); err != nil {
		t.Fatalf("write victim: %v", err)
	}

	method, err := Delete(victim, false)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if method != MethodTrashed {
		t.Errorf("method = %q, want trashed", method)
	}
	if _, err := os.Stat(victim); !os.IsNotExist(err) {
		t.Error("victim should be gone from its original location")
	}

	trashed := filepath.Join(dir, "data", "Trash", "files", "movie.mkv")
	if _, err := os.Stat(trashed); err != nil {
		t.Errorf("trashed copy missing: %v", err)
	}
	info, err := os.ReadFile(filepath.Join(dir, "data", "Trash", "info", "movie.mkv.trashinfo"))
	if err != nil {
		t.Fatalf("trashinfo missing: %v", err)
	}
	if !strings.Contains(string(info), "[Trash Info]") || !strings.Contains(string(info), "Path=") {
		t.Errorf("trashinfo content = %q", info)
	}
}

func TestDeleteTrashedNameCollision(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))

	first := filepath.Join(dir, "movie.mkv")
	if err := os.WriteFile(first, []byte("one"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Delete(first, false); err != nil {
		t.Fatalf("first Delete failed: %v", err)
	}

	second := filepath.Join(dir, "movie.mkv")
	if err := os.WriteFile(second, []byte("two"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Delete(second, false); err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "data", "Trash", "files", "movie.2.mkv")); err != nil {
		t.Errorf("collision should be renumbered: %v", err)
	}
}

func TestDeletePermanent(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))

	victim := filepath.Join(dir, "movie.mkv")
	if err := os.WriteFile(victim, []byte("x"), 0o644); err != nil {
		t.Fatalf("write victim: %v", err)
	}

	method, err := Delete(victim, true)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if method != MethodDeleted {
		t.Errorf("method = %q, want deleted", method)
	}
	if entries, _ := os.ReadDir(filepath.Join(dir, "data")); len(entries) != 0 {
		t.Error("permanent delete should not touch the trash directory")
	}
}

func TestDeleteMissingFile(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", filepath.Join(t.TempDir(), "data"))
	if _, err := Delete(filepath.Join(t.TempDir(), "gone.mkv"), false); err == nil {
		t.Error("deleting a missing file should fail")
	}
}
