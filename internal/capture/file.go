package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// FileSource replays JPEG fixtures from a directory in name order, then
// reports ErrSourceExhausted. It backs dev mode and tests, where no camera
// hardware is available.
type FileSource struct {
	paths []string
	next  int
}

// NewFileSource lists the .jpg/.jpeg files under dir. It fails when the
// directory cannot be read or holds no frames.
func NewFileSource(dir string) (*FileSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read fixture directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".jpg", ".jpeg":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no jpeg fixtures in %s", dir)
	}
	return &FileSource{paths: paths}, nil
}

// Next returns the next fixture frame.
func (f *FileSource) Next() ([]byte, error) {
	if f.next >= len(f.paths) {
		return nil, ErrSourceExhausted
	}
	buf, err := os.ReadFile(f.paths[f.next])
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", f.paths[f.next], err)
	}
	f.next++
	return buf, nil
}

// Close releases nothing; fixtures are plain files.
func (f *FileSource) Close() error { return nil }
