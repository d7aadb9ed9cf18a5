package assistant

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/teslashibe/go-lookout/pkg/audio"
	"github.com/teslashibe/go-lookout/pkg/camera"
	"github.com/teslashibe/go-lookout/pkg/tts"
	"github.com/teslashibe/go-lookout/pkg/vision"
)

// reason turns a pipeline error into short text for the status surface.
// Raw error text may hold request URLs, so it only goes to the log.
func reason(err error) string {
	var (
		visionErr *vision.APIError
		ttsErr    *tts.APIError
		netErr    net.Error
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &visionErr):
		return fmt.Sprintf("%s returned HTTP %d", visionErr.Provider, visionErr.StatusCode)
	case errors.As(err, &ttsErr):
		return fmt.Sprintf("%s returned HTTP %d", ttsErr.Provider, ttsErr.StatusCode)
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out"
	case errors.Is(err, camera.ErrNoFrame), errors.Is(err, camera.ErrNotAcquired), errors.Is(err, vision.ErrNoFrame):
		return "no camera frame"
	case errors.Is(err, camera.ErrPermissionDenied), errors.Is(err, camera.ErrNoCamera):
		return camera.Describe(err)
	case errors.Is(err, tts.ErrProviderUnavailable), errors.Is(err, tts.ErrNoBinary), errors.Is(err, audio.ErrUnavailable):
		return "no speech output available"
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return "timed out"
		}
		return "network error"
	default:
		return "unexpected error"
	}
}
