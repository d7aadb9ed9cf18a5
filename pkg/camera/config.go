package camera

import (
	"fmt"
	"time"
)

// Facing is a hint for which physical camera to open.
type Facing string

const (
	// FacingEnvironment is the rear camera, pointed at the scene.
	FacingEnvironment Facing = "environment"
	// FacingUser is the front camera.
	FacingUser Facing = "user"
)

// Config holds camera settings.
type Config struct {
	// Facing selects the camera. The assistant always asks for environment.
	Facing Facing `json:"facing"`

	// Devices maps a facing to a device identifier: an index ("0"),
	// a device node ("/dev/video2") or a stream URL.
	Devices map[Facing]string `json:"devices"`

	// Requested capture resolution. The sampler downscales afterwards.
	Width     int `json:"width"`
	Height    int `json:"height"`
	Framerate int `json:"framerate"`

	// AcquireTimeout bounds how long a remote publisher may take to
	// deliver its first frame.
	AcquireTimeout time.Duration `json:"acquire_timeout"`

	// StaleAfter is the age past which a pushed frame is no longer served.
	StaleAfter time.Duration `json:"stale_after"`
}

// DefaultConfig returns a rear-camera 720p configuration.
func DefaultConfig() Config {
	return Config{
		Facing: FacingEnvironment,
		Devices: map[Facing]string{
			FacingEnvironment: "0",
			FacingUser:        "1",
		},
		Width:          1280,
		Height:         720,
		Framerate:      15,
		AcquireTimeout: 10 * time.Second,
		StaleAfter:     5 * time.Second,
	}
}

// DeviceFor returns the device identifier for a facing, falling back to
// the environment device and then to index 0.
func (c Config) DeviceFor(f Facing) string {
	if id, ok := c.Devices[f]; ok && id != "" {
		return id
	}
	if id, ok := c.Devices[FacingEnvironment]; ok && id != "" {
		return id
	}
	return "0"
}

// Validate checks ranges. It returns nil when the config is usable.
func (c *Config) Validate() []string {
	var errs []string

	if c.Facing != FacingEnvironment && c.Facing != FacingUser {
		errs = append(errs, fmt.Sprintf("facing must be %q or %q", FacingEnvironment, FacingUser))
	}
	if c.Width < 160 || c.Width > 4096 {
		errs = append(errs, "width must be between 160 and 4096")
	}
	if c.Height < 120 || c.Height > 4096 {
		errs = append(errs, "height must be between 120 and 4096")
	}
	if c.Framerate < 1 || c.Framerate > 60 {
		errs = append(errs, "framerate must be between 1 and 60")
	}
	if c.AcquireTimeout <= 0 {
		errs = append(errs, "acquire_timeout must be positive")
	}
	if c.StaleAfter <= 0 {
		errs = append(errs, "stale_after must be positive")
	}

	return errs
}
