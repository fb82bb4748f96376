// Package staging manages the photos selected for a listing before they are
// submitted. Every staged file owns a preview handle, and the manager is the
// only component that releases it.
package staging

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/VinMeld/autopost/internal/config"
	"github.com/VinMeld/autopost/internal/logging"
	"github.com/VinMeld/autopost/internal/validation"
)

var (
	// ErrIndexOutOfRange is returned by RemoveAt for a bad index.
	ErrIndexOutOfRange = errors.New("image index out of range")
	// ErrMaxOutOfRange is returned for a max outside [config.MinImages, config.MaxImages].
	ErrMaxOutOfRange = fmt.Errorf("max images must be between %d and %d", config.MinImages, config.MaxImages)
	// ErrClosed is returned after the manager has been torn down.
	ErrClosed = errors.New("staging manager closed")
)

// StagedImage pairs a file with its preview.
type StagedImage struct {
	File    File
	Preview Handle
}

// Manager holds the ordered list of staged images.
type Manager struct {
	mu        sync.Mutex
	max       int
	images    []StagedImage
	previewer Previewer
	logger    *zap.Logger
	closed    bool
}

// NewManager creates an empty manager that accepts at most max images.
func NewManager(max int, previewer Previewer, logger *zap.Logger) (*Manager, error) {
	if max < config.MinImages || max > config.MaxImages {
		return nil, ErrMaxOutOfRange
	}
	return &Manager{
		max:       max,
		previewer: previewer,
		logger:    logging.OrNop(logger),
	}, nil
}

func tooMany(max int) *validation.Error {
	return &validation.Error{
		Code:    validation.TooManyImages,
		Field:   "images",
		Message: fmt.Sprintf("You can only upload up to %d images.", max),
	}
}

func checkTypes(files []File) error {
	for _, f := range files {
		if !f.IsImage() {
			return &validation.Error{
				Code:    validation.UnsupportedFileType,
				Field:   "images",
				Message: fmt.Sprintf("%s is not an image (%s).", f.Name, f.ContentType),
			}
		}
	}
	return nil
}

// acquire stages files. On failure every handle acquired here is released.
// Caller must hold the lock.
func (m *Manager) acquire(files []File) ([]StagedImage, error) {
	staged := make([]StagedImage, 0, len(files))
	for _, f := range files {
		h, err := m.previewer.Acquire(f)
		if err != nil {
			m.release(staged)
			return nil, err
		}
		staged = append(staged, StagedImage{File: f, Preview: h})
	}
	return staged, nil
}

// release frees the handles of images. Caller must hold the lock.
func (m *Manager) release(images []StagedImage) {
	for _, img := range images {
		if err := m.previewer.Release(img.Preview); err != nil {
			m.logger.Warn("failed to release preview", zap.String("file", img.File.Name), zap.Error(err))
		}
	}
}

// AddFiles appends files in order. The whole batch is rejected if it would
// exceed the maximum or contains a non-image.
func (m *Manager) AddFiles(files []File) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if len(m.images)+len(files) > m.max {
		return tooMany(m.max)
	}
	if err := checkTypes(files); err != nil {
		return err
	}

	staged, err := m.acquire(files)
	if err != nil {
		return err
	}
	m.images = append(m.images, staged...)
	m.logger.Debug("staged images", zap.Int("added", len(staged)), zap.Int("total", len(m.images)))
	return nil
}

// Replace swaps the staged list for files, releasing every old handle.
// On error the current list is left untouched.
func (m *Manager) Replace(files []File) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if len(files) > m.max {
		return tooMany(m.max)
	}
	if err := checkTypes(files); err != nil {
		return err
	}

	staged, err := m.acquire(files)
	if err != nil {
		return err
	}
	m.release(m.images)
	m.images = staged
	return nil
}

// RemoveAt drops the image at index and releases its handle immediately.
func (m *Manager) RemoveAt(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.images) {
		return ErrIndexOutOfRange
	}
	m.release(m.images[index : index+1])
	m.images = append(m.images[:index], m.images[index+1:]...)
	return nil
}

// Discard removes the staged images holding the given previews and releases
// them. Previews no longer staged are skipped. It returns how many were
// removed.
func (m *Manager) Discard(previews []Handle) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	drop := make(map[string]bool, len(previews))
	for _, h := range previews {
		drop[h.ID] = true
	}
	kept := m.images[:0]
	var removed []StagedImage
	for _, img := range m.images {
		if drop[img.Preview.ID] {
			removed = append(removed, img)
			continue
		}
		kept = append(kept, img)
	}
	m.release(removed)
	m.images = kept
	return len(removed)
}

// Clear releases every handle and empties the list. Safe to call repeatedly.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.release(m.images)
	m.images = nil
}

// Close is the unmount teardown: it clears the list and rejects further
// additions. Safe to call repeatedly.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.release(m.images)
	m.images = nil
	m.closed = true
}

// SetMax changes the limit. It cannot drop below the number already staged.
func (m *Manager) SetMax(max int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if max < config.MinImages || max > config.MaxImages {
		return ErrMaxOutOfRange
	}
	if max < len(m.images) {
		return tooMany(max)
	}
	m.max = max
	return nil
}

// Max returns the current limit.
func (m *Manager) Max() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.max
}

// Len returns the number of staged images.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.images)
}

// Images returns a copy of the staged list.
func (m *Manager) Images() []StagedImage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]StagedImage(nil), m.images...)
}

// Files returns the staged files in order.
func (m *Manager) Files() []File {
	m.mu.Lock()
	defer m.mu.Unlock()

	files := make([]File, len(m.images))
	for i, img := range m.images {
		files[i] = img.File
	}
	return files
}
