// Package trash moves files to the freedesktop.org trash so deletions stay
// reversible, falling back to permanent removal when no trash directory can
// be used.
package trash

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// Method describes how a file was removed.
type Method string

const (
	MethodTrashed Method = "trashed"
	MethodDeleted Method = "deleted"
)

// Delete removes path. When permanent is false it first attempts to move the
// file into the user's trash directory; if the trash is unusable (no home,
// unwritable, or the file lives on a different filesystem) it falls back to
// a permanent remove. The returned Method reports which branch ran.
func Delete(path string, permanent bool) (Method, error) {
	if !permanent {
		if err := moveToTrash(path); err == nil {
			return MethodTrashed, nil
		} else if !errors.Is(err, errTrashUnavailable) {
			return "", err
		}
	}
	if err := os.Remove(path); err != nil {
		return "", err
	}
	return MethodDeleted, nil
}

var errTrashUnavailable = errors.New("trash directory unavailable")

func trashRoot() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "Trash"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errTrashUnavailable
	}
	return filepath.Join(home, ".local", "share", "Trash"), nil
}

func moveToTrash(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(abs); err != nil {
		return err
	}

	root, err := trashRoot()
	if err != nil {
		return err
	}
	filesDir := filepath.Join(root, "files")
	infoDir := filepath.Join(root, "info")
	if err := os.MkdirAll(filesDir, 0o700); err != nil {
		return errTrashUnavailable
	}
	if err := os.MkdirAll(infoDir, 0o700); err != nil {
		return errTrashUnavailable
	}

	name := uniqueTrashName(filesDir, infoDir, filepath.Base(abs))
	info := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		escapeTrashPath(abs), time.Now().Format("2006-01-02T15:04:05"))
	infoPath := filepath.Join(infoDir, name+".trashinfo")
	if err := os.WriteFile(infoPath, []byte(info), 0o600); err != nil {
		return errTrashUnavailable
	}

	if err := os.Rename(abs, filepath.Join(filesDir, name)); err != nil {
		os.Remove(infoPath)
		if isCrossDevice(err) {
			return errTrashUnavailable
		}
		return err
	}
	return nil
}

// uniqueTrashName picks a name free in both files/ and info/ so the pair
// stays consistent, numbering collisions like "movie.2.mkv".
func uniqueTrashName(filesDir, infoDir, base string) string {
	candidate := base
	for i := 2; ; i++ {
		_, filesErr := os.Lstat(filepath.Join(filesDir, candidate))
		_, infoErr := os.Lstat(filepath.Join(infoDir, candidate+".trashinfo"))
		if os.IsNotExist(filesErr) && os.IsNotExist(infoErr) {
			return candidate
		}
		ext := filepath.Ext(base)
		candidate = fmt.Sprintf("%s.%d%s", strings.TrimSuffix(base, ext), i, ext)
	}
}

// escapeTrashPath percent-encodes the path per the trash spec while keeping
// slashes readable.
func escapeTrashPath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return linkErr.Err == syscall.EXDEV
	}
	return errors.Is(err, syscall.EXDEV)
}
