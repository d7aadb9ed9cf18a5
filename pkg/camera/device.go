//go:build !nocv

package camera

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"gocv.io/x/gocv"
)

// Device reads frames from a local camera through OpenCV.
type Device struct {
	cfg    Config
	logger *slog.Logger

	mu  sync.Mutex
	cap *gocv.VideoCapture
	mat gocv.Mat
}

// NewDevice creates a device source. Nothing is opened until Acquire.
func NewDevice(cfg Config, logger *slog.Logger) *Device {
	if logger == nil {
		logger = slog.Default()
	}
	return &Device{
		cfg:    cfg,
		logger: logger.With("component", "camera.device"),
	}
}

// Acquire opens the device for the configured facing.
func (d *Device) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cap != nil {
		return nil
	}

	id := d.cfg.DeviceFor(d.cfg.Facing)
	if err := checkAccess(devicePath(id)); err != nil {
		return err
	}

	vc, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrNoCamera, id, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("%w: %s did not open", ErrNoCamera, id)
	}

	if d.cfg.Width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(d.cfg.Width))
	}
	if d.cfg.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(d.cfg.Height))
	}
	if d.cfg.Framerate > 0 {
		vc.Set(gocv.VideoCaptureFPS, float64(d.cfg.Framerate))
	}

	d.cap = vc
	d.mat = gocv.NewMat()
	d.logger.Info("camera acquired", "device", id, "facing", d.cfg.Facing)
	return nil
}

// Release closes the device. Calling it twice is harmless.
func (d *Device) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cap == nil {
		return nil
	}
	d.mat.Close()
	err := d.cap.Close()
	d.cap = nil
	d.logger.Info("camera released")
	return err
}

// Frame grabs the next frame from the device.
func (d *Device) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cap == nil {
		return nil, ErrNotAcquired
	}
	if ok := d.cap.Read(&d.mat); !ok || d.mat.Empty() {
		return nil, ErrNoFrame
	}
	img, err := d.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("camera: convert frame: %w", err)
	}
	return img, nil
}

// Acquired reports whether the device is open.
func (d *Device) Acquired() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cap != nil
}

var _ Source = (*Device)(nil)
