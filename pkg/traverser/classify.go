package traverser

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Kind is the classification of an input path.
type Kind int

const (
	// KindAbsent covers missing, unreadable and non-regular paths.
	KindAbsent Kind = iota
	// KindFile is a regular file.
	KindFile
	// KindDirectory is a directory.
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "absent"
	}
}

// Canonical returns the absolute, cleaned form of path. It is the key used
// by every set the traverser keeps.
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	return filepath.Clean(abs), nil
}

// Classifier resolves and classifies paths without following symlinks.
type Classifier struct {
	fs afero.Fs
}

// NewClassifier returns a Classifier over fs.
func NewClassifier(fs afero.Fs) *Classifier {
	return &Classifier{fs: fs}
}

// Classify returns the canonical form of path and its Kind. It never fails:
// anything that cannot be resolved or stat'ed is KindAbsent.
func (c *Classifier) Classify(path string) (string, Kind) {
	canonical, err := Canonical(path)
	if err != nil {
		return path, KindAbsent
	}

	info, err := c.lstat(canonical)
	if err != nil {
		return canonical, KindAbsent
	}

	switch {
	case info.IsDir():
		return canonical, KindDirectory
	case info.Mode().IsRegular():
		return canonical, KindFile
	default:
		return canonical, KindAbsent
	}
}

func (c *Classifier) lstat(path string) (os.FileInfo, error) {
	if l, ok := c.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return c.fs.Stat(path)
}
