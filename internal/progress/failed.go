package progress

import "tomp4/internal/fileutil"

// FailedList is the append-only newline-delimited list of source paths whose
// conversion ended in failure. It accumulates across runs and is never
// pruned automatically.
type FailedList struct {
	path string
}

// NewFailedList points at the failed-items file.
func NewFailedList(path string) *FailedList {
	return &FailedList{path: path}
}

// Append records one failed source path.
func (f *FailedList) Append(src string) error {
	return fileutil.AppendLine(f.path, src)
}

// Path returns the file location.
func (f *FailedList) Path() string {
	return f.path
}
