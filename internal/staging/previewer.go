package staging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrHandleReleased is returned when releasing a handle that is not live.
var ErrHandleReleased = errors.New("preview handle already released")

// Handle is a local reference to a staged file's bytes.
type Handle struct {
	ID   string
	Path string
}

// URL returns a locally resolvable URL for the preview.
func (h Handle) URL() string {
	return "file://" + filepath.ToSlash(h.Path)
}

// Previewer acquires and releases preview handles.
type Previewer interface {
	Acquire(f File) (Handle, error)
	Release(h Handle) error
}

// TempPreviewer writes each preview to its own file in a private directory
// and deletes it on release.
type TempPreviewer struct {
	mu   sync.Mutex
	dir  string
	live map[string]string // handle ID -> path
}

// NewTempPreviewer creates a preview directory under baseDir, or under the
// system temp dir when baseDir is empty.
func NewTempPreviewer(baseDir string) (*TempPreviewer, error) {
	dir, err := os.MkdirTemp(baseDir, "autopost-previews-")
	if err != nil {
		return nil, fmt.Errorf("failed to create preview dir: %w", err)
	}
	return &TempPreviewer{dir: dir, live: make(map[string]string)}, nil
}

// Dir returns the preview directory.
func (p *TempPreviewer) Dir() string {
	return p.dir
}

func (p *TempPreviewer) Acquire(f File) (Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := uuid.New().String()
	ext := ""
	if mt := mimetype.Lookup(f.ContentType); mt != nil {
		ext = mt.Extension()
	}
	path := filepath.Join(p.dir, id+ext)
	if err := os.WriteFile(path, f.Data, 0600); err != nil {
		return Handle{}, fmt.Errorf("failed to write preview for %s: %w", f.Name, err)
	}
	p.live[id] = path
	return Handle{ID: id, Path: path}, nil
}

func (p *TempPreviewer) Release(h Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	path, ok := p.live[h.ID]
	if !ok {
		return ErrHandleReleased
	}
	delete(p.live, h.ID)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Outstanding returns the number of live handles.
func (p *TempPreviewer) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

// Close removes the preview directory and anything left in it.
func (p *TempPreviewer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.live = make(map[string]string)
	return os.RemoveAll(p.dir)
}
