package padsubmit

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// File is an image selected by the user for upload.
type File struct {
	Name    string
	Content []byte
}

// ContentType sniffs the media type of the content.
func (f *File) ContentType() string {
	return http.DetectContentType(f.Content)
}

// IsImage returns true if the content looks like an image.
func (f *File) IsImage() bool {
	return strings.HasPrefix(f.ContentType(), "image/")
}

// LoadFile reads the file at `path`.
func LoadFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	return &File{Name: filepath.Base(path), Content: content}, nil
}
