package memscene

import (
	"errors"
	"os"
	"sync"
)

// ErrBlankSurface is returned when capturing a surface nothing was drawn on.
var ErrBlankSurface = errors.New("memscene: surface is blank")

// Surface is a drawable canvas holding an encoded image.
type Surface struct {
	mu     sync.Mutex
	image  []byte
	path   string
	clears int
}

// NewSurface returns a blank canvas. When path is set, CaptureImage reads
// the current image from that file instead of the in-memory buffer.
func NewSurface(path string) *Surface {
	return &Surface{path: path}
}

// Draw replaces the canvas content.
func (s *Surface) Draw(image []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = append([]byte(nil), image...)
}

// CaptureImage implements scene.SurfaceProvider.
func (s *Surface) CaptureImage() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path != "" {
		data, err := os.ReadFile(s.path)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return nil, ErrBlankSurface
		}
		return data, nil
	}
	if len(s.image) == 0 {
		return nil, ErrBlankSurface
	}
	return append([]byte(nil), s.image...), nil
}

// Clear implements scene.SurfaceProvider.
func (s *Surface) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = nil
	s.clears++
	if s.path != "" {
		if err := os.Truncate(s.path, 0); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Clears reports how many times the canvas was cleared.
func (s *Surface) Clears() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears
}
