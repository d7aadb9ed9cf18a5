package camera

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"
)

// File serves a still image from disk as if it were a live camera.
type File struct {
	path string

	mu  sync.Mutex
	img image.Image
}

// NewFile returns a source backed by the image at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Acquire decodes the image. A missing file is reported as ErrNoCamera.
func (f *File) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.img != nil {
		return nil
	}

	r, err := os.Open(f.path)
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, f.path)
		}
		return fmt.Errorf("%w: %v", ErrNoCamera, err)
	}
	defer r.Close()

	img, _, err := image.Decode(r)
	if err != nil {
		return fmt.Errorf("camera: decode %s: %w", f.path, err)
	}
	f.img = img
	return nil
}

func (f *File) Release() error {
	f.mu.Lock()
	f.img = nil
	f.mu.Unlock()
	return nil
}

func (f *File) Frame(ctx context.Context) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.img == nil {
		return nil, ErrNotAcquired
	}
	return f.img, nil
}

func (f *File) Acquired() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.img != nil
}

var _ Source = (*File)(nil)
