// Package photo validates member profile photos and stores them either in
// an S3-compatible bucket or in a local directory.
package photo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxSize is the largest accepted upload.
const MaxSize = 5 << 20

var (
	ErrTooLarge        = errors.New("photo exceeds 5 MiB")
	ErrUnsupportedType = errors.New("photo must be .jpg, .jpeg, .png, .gif or .webp")
	ErrNotImage        = errors.New("photo content is not a supported image")
)

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var allowedContent = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Storage persists photo bytes and returns the path clients use to fetch
// them.
type Storage interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, publicPath string) error
}

// Validate checks the file name and sniffs the content. It returns the
// lowercased extension and the detected content type.
func Validate(filename string, data []byte) (ext, contentType string, err error) {
	ext = strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", "", ErrUnsupportedType
	}
	if len(data) > MaxSize {
		return "", "", ErrTooLarge
	}
	contentType = http.DetectContentType(data)
	if !allowedContent[contentType] {
		return "", "", ErrNotImage
	}
	return ext, contentType, nil
}

// Upload reads at most MaxSize bytes from r, validates them and saves them
// under a random name. It returns the stored photo's public path.
func Upload(ctx context.Context, st Storage, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}

	ext, contentType, err := Validate(filename, data)
	if err != nil {
		return "", err
	}

	path, err := st.Save(ctx, uuid.NewString()+ext, contentType, data)
	if err != nil {
		return "", fmt.Errorf("save photo: %w", err)
	}
	return path, nil
}
