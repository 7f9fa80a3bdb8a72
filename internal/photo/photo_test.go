package photo

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*input.Key] = data
	m.types[*input.Key] = *input.ContentType
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		wantErr  error
		wantType string
	}{
		{"png", "me.PNG", pngHeader, nil, "image/png"},
		{"gif", "me.gif", []byte("GIF89a\x01\x00"), nil, "image/gif"},
		{"jpeg", "me.jpeg", []byte("\xff\xd8\xff\xe0\x00\x10JFIF"), nil, "image/jpeg"},
		{"webp", "me.webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), nil, "image/webp"},
		{"bad extension", "me.bmp", pngHeader, ErrUnsupportedType, ""},
		{"no extension", "me", pngHeader, ErrUnsupportedType, ""},
		{"text content", "me.png", []byte("hello, world"), ErrNotImage, ""},
		{"too large", "me.png", append(pngHeader, make([]byte, MaxSize)...), ErrTooLarge, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ct, err := Validate(tt.filename, tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if ct != tt.wantType {
				t.Errorf("content type = %q, want %q", ct, tt.wantType)
			}
		})
	}
}

func TestUploadLocal(t *testing.T) {
	dir := t.TempDir()
	st := NewLocalStorage(filepath.Join(dir, "photos"))

	path, err := Upload(context.Background(), st, "avatar.png", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(path, LocalURLPrefix+"/") || !strings.HasSuffix(path, ".png") {
		t.Errorf("path = %q", path)
	}

	name := strings.TrimPrefix(path, LocalURLPrefix+"/")
	got, err := os.ReadFile(filepath.Join(st.Dir(), name))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if !bytes.Equal(got, pngHeader) {
		t.Error("stored bytes differ")
	}

	if err := st.Delete(context.Background(), path); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(st.Dir(), name)); !os.IsNotExist(err) {
		t.Error("expected file to be removed")
	}
	if err := st.Delete(context.Background(), path); err != nil {
		t.Errorf("second delete: %v", err)
	}
	if err := st.Delete(context.Background(), "https://example.com/x.png"); err != nil {
		t.Errorf("foreign path: %v", err)
	}
}

func TestUploadUniqueNames(t *testing.T) {
	st := NewLocalStorage(t.TempDir())
	a, err := Upload(context.Background(), st, "a.png", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	b, err := Upload(context.Background(), st, "a.png", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if a == b {
		t.Errorf("expected distinct names, both %q", a)
	}
}

func TestUploadTooLarge(t *testing.T) {
	st := NewLocalStorage(t.TempDir())
	big := io.MultiReader(bytes.NewReader(pngHeader), bytes.NewReader(make([]byte, MaxSize)))

	_, err := Upload(context.Background(), st, "big.png", big)
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge", err)
	}
}

func TestS3Storage(t *testing.T) {
	mock := newMockS3()
	st := newS3Storage(mock, S3Config{Endpoint: "https://s3.example.com/", Bucket: "family"})

	path, err := Upload(context.Background(), st, "me.png", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(path, "https://s3.example.com/family/photos/") {
		t.Errorf("path = %q", path)
	}

	key := strings.TrimPrefix(path, "https://s3.example.com/family/")
	if _, ok := mock.objects[key]; !ok {
		t.Fatalf("object %q not stored", key)
	}
	if mock.types[key] != "image/png" {
		t.Errorf("content type = %q", mock.types[key])
	}

	if err := st.Delete(context.Background(), "/static/photos/other.png"); err != nil {
		t.Errorf("foreign path: %v", err)
	}
	if len(mock.objects) != 1 {
		t.Error("foreign path must not delete anything")
	}

	if err := st.Delete(context.Background(), path); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(mock.objects) != 0 {
		t.Error("expected object to be removed")
	}
}

func TestS3ConfigEnabled(t *testing.T) {
	if (S3Config{Bucket: "b"}).Enabled() {
		t.Error("bucket alone should not enable S3")
	}
	if !(S3Config{Bucket: "b", AccessKey: "k", SecretKey: "s"}).Enabled() {
		t.Error("expected enabled")
	}
}
