package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// File is a locally selected blob with its name and MIME type.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// NewFile wraps data, detecting the MIME type from its content.
func NewFile(name string, data []byte) File {
	return File{
		Name:        name,
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}
}

// OpenFile reads the file at path. The staged name is the base name.
func OpenFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return NewFile(filepath.Base(path), data), nil
}

// IsImage reports whether the content type is image/*.
func (f File) IsImage() bool {
	return strings.HasPrefix(f.ContentType, "image/")
}
