// Package frame turns live camera images into small JPEG payloads for
// scene analysis.
//
// Sampling bounds the long edge of the image, keeps the aspect ratio and
// encodes at a reduced JPEG quality so each request stays small and fast:
//
//	f, err := frame.Sample(img, frame.DefaultOptions())
//	// f.Data holds JPEG bytes, f.Width/f.Height the encoded size
package frame

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"strings"
	"time"

	_ "image/png" // Register PNG decoder

	"golang.org/x/image/draw"
)

// MIMETypeJPEG is the MIME type of every sampled frame.
const MIMETypeJPEG = "image/jpeg"

// Defaults tuned for latency over fidelity.
const (
	DefaultMaxDimension = 512
	DefaultQuality      = 50
)

// ErrNoImage is returned when there is nothing to sample.
var ErrNoImage = errors.New("frame: no image")

// Frame is one encoded camera image. It is produced per tick and never stored.
type Frame struct {
	Data       []byte
	MIMEType   string
	Width      int
	Height     int
	CapturedAt time.Time
}

// Base64 returns the payload as standard base64.
func (f *Frame) Base64() string {
	return base64.StdEncoding.EncodeToString(f.Data)
}

// DataURL returns the payload as a data: URL.
func (f *Frame) DataURL() string {
	return "data:" + f.MIMEType + ";base64," + f.Base64()
}

// Options controls sampling.
type Options struct {
	// MaxDimension bounds the long edge in pixels. Values below one fall
	// back to DefaultMaxDimension.
	MaxDimension int

	// Quality is the JPEG quality (1-100).
	Quality int

	// Kernel is the scaler used when downscaling.
	Kernel draw.Scaler
}

// DefaultOptions returns the options used by the assistant loop.
func DefaultOptions() Options {
	return Options{
		MaxDimension: DefaultMaxDimension,
		Quality:      DefaultQuality,
		Kernel:       draw.ApproxBiLinear,
	}
}

// KernelByName maps a config string to a scaler. An empty name selects
// ApproxBiLinear; unknown names report false.
func KernelByName(name string) (draw.Scaler, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "approx-bilinear":
		return draw.ApproxBiLinear, true
	case "nearest":
		return draw.NearestNeighbor, true
	case "bilinear":
		return draw.BiLinear, true
	case "catmull-rom", "catmullrom":
		return draw.CatmullRom, true
	default:
		return nil, false
	}
}

// TargetSize returns the encoded size for a w x h source so that the long
// edge does not exceed maxEdge. Sources already within bounds are unchanged.
func TargetSize(w, h, maxEdge int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	long := max(w, h)
	if maxEdge <= 0 || long <= maxEdge {
		return w, h
	}

	scale := float64(maxEdge) / float64(long)
	if w >= h {
		return maxEdge, max(1, int(math.Round(float64(h)*scale)))
	}
	return max(1, int(math.Round(float64(w)*scale))), maxEdge
}

// Sample downscales img and encodes it as JPEG.
func Sample(img image.Image, opts Options) (*Frame, error) {
	if img == nil {
		return nil, ErrNoImage
	}
	src := img.Bounds()
	if src.Empty() {
		return nil, ErrNoImage
	}

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	kernel := opts.Kernel
	if kernel == nil {
		kernel = draw.ApproxBiLinear
	}

	maxEdge := opts.MaxDimension
	if maxEdge <= 0 {
		maxEdge = DefaultMaxDimension
	}

	w, h := TargetSize(src.Dx(), src.Dy(), maxEdge)
	out := img
	if w != src.Dx() || h != src.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		kernel.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("frame: encode jpeg: %w", err)
	}

	return &Frame{
		Data:       buf.Bytes(),
		MIMEType:   MIMETypeJPEG,
		Width:      w,
		Height:     h,
		CapturedAt: time.Now(),
	}, nil
}

// Decode decodes JPEG or PNG bytes into an image.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrNoImage
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("frame: decode: %w", err)
	}
	return img, nil
}
