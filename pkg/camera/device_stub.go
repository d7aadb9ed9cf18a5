//go:build nocv

package camera

import (
	"context"
	"fmt"
	"image"
	"log/slog"
)

// Device is unavailable in builds without OpenCV.
type Device struct{}

// NewDevice returns a device that always fails to acquire.
func NewDevice(cfg Config, logger *slog.Logger) *Device {
	return &Device{}
}

// Acquire always fails without OpenCV.
func (d *Device) Acquire(ctx context.Context) error {
	return fmt.Errorf("%w: built without OpenCV (nocv)", ErrNoCamera)
}

func (d *Device) Release() error { return nil }

func (d *Device) Frame(ctx context.Context) (image.Image, error) { return nil, ErrNotAcquired }

func (d *Device) Acquired() bool { return false }

var _ Source = (*Device)(nil)
