package envfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// FileMode is used for every file this package writes. The file may hold an
// API key, so it is owner-only.
const FileMode = 0o600

// ReadTemplate parses the template at path.
func ReadTemplate(path string) (*Document, error) {
	return read(path, ErrTemplateNotFound)
}

// Load parses a materialized config file at path.
func Load(path string) (*Document, error) {
	return read(path, ErrConfigNotFound)
}

func read(path string, notFound error) (*Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", notFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data), nil
}

// Exists reports whether path names an existing file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WriteAtomic writes data to path via a temp file in the same directory and
// a rename, holding an advisory lock on the directory meanwhile. A crash
// leaves either the old file or the new one, never a partial write. The
// result is always FileMode, whatever mode an existing file had.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	unlock, err := lockDir(dir)
	if err != nil {
		return fmt.Errorf("lock %s: %w", dir, err)
	}
	defer unlock()

	if err := replaceFile(dir, path, data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	log.Debug().Str("path", path).Int("bytes", len(data)).Msg("config written")
	return nil
}

// Save renders d and writes it atomically to path.
func (d *Document) Save(path string) error {
	return WriteAtomic(path, d.Bytes())
}
