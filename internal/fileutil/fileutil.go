package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// Signature is the cheap change-detection proxy for a file: its byte size and
// modification time in nanoseconds. Two signatures are equal only when both
// fields match exactly.
type Signature struct {
	Size    int64 `json:"size"`
	MTimeNS int64 `json:"mtime_ns"`
}

// Equal reports whether both signature fields match exactly.
func (s Signature) Equal(other Signature) bool {
	return s.Size == other.Size && s.MTimeNS == other.MTimeNS
}

// Stat captures the current signature of the file at path.
func Stat(path string) (Signature, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Signature{}, err
	}
	return Signature{Size: info.Size(), MTimeNS: info.ModTime().UnixNano()}, nil
}

// NonEmptyFile reports whether path exists as a regular file with size > 0.
func NonEmptyFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// WriteFileAtomic writes data to path by staging it in a sibling temp file and
// renaming over the target, so a concurrent reader observes either the old
// snapshot or the new one, never a partial write.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, mode); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) // cleanup on failure
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// AppendLine appends a single newline-terminated line to path, creating the
// file when missing.
func AppendLine(path, line string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return err
	}
	return f.Close()
}
