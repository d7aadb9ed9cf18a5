// Package camera acquires a live video source and exposes its current frame.
//
// Every source implements Source. Acquire is a no-op when already acquired
// and Release is idempotent, so callers can stop and start freely.
package camera

import (
	"context"
	"errors"
	"image"
)

// Sentinel errors shared by all sources.
var (
	// ErrPermissionDenied means the user or OS refused camera access.
	ErrPermissionDenied = errors.New("camera: permission denied")

	// ErrNoCamera means no camera matching the request is available.
	ErrNoCamera = errors.New("camera: no camera available")

	// ErrNotAcquired is returned by Frame before Acquire succeeds.
	ErrNotAcquired = errors.New("camera: not acquired")

	// ErrNoFrame means the source is open but has no usable frame yet.
	ErrNoFrame = errors.New("camera: no frame available")
)

// Source is a camera that can be acquired, read and released.
type Source interface {
	// Acquire opens the camera. It blocks until the stream is live or fails.
	Acquire(ctx context.Context) error

	// Release stops the stream. Safe to call at any time.
	Release() error

	// Frame returns the most recent frame.
	Frame(ctx context.Context) (image.Image, error)

	// Acquired reports whether the stream is live.
	Acquired() bool
}

// Describe turns an acquisition error into short user-facing text.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return "Camera permission denied"
	case errors.Is(err, ErrNoCamera):
		return "No camera found"
	default:
		return "Camera unavailable: " + err.Error()
	}
}
