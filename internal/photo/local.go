package photo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalURLPrefix is where the server exposes a LocalStorage directory.
const LocalURLPrefix = "/static/photos"

// LocalStorage keeps photos in a directory on disk.
type LocalStorage struct {
	dir string
}

func NewLocalStorage(dir string) *LocalStorage {
	return &LocalStorage{dir: dir}
}

func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) Save(_ context.Context, name, _ string, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create photo dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	return LocalURLPrefix + "/" + name, nil
}

// Delete removes a photo previously returned by Save. Paths it did not
// produce are ignored.
func (s *LocalStorage) Delete(_ context.Context, publicPath string) error {
	name, ok := strings.CutPrefix(publicPath, LocalURLPrefix+"/")
	if !ok || name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove photo: %w", err)
	}
	return nil
}
