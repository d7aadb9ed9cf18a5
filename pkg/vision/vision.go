// Package vision describes camera frames with a hosted vision-language model.
//
// Analyzers take one encoded frame and return a short spoken-style
// description. Gemini and any OpenAI-compatible endpoint are supported,
// and Chain falls back across them.
package vision

import (
	"context"
	"strings"

	"github.com/teslashibe/go-lookout/pkg/frame"
)

// DefaultPrompt is the style instruction sent with every frame.
const DefaultPrompt = `You are the eyes of a blind pedestrian. Describe what matters for walking safely in the image, in at most two short sentences of plain speech.
Lead with any hazard: steps, curbs, poles, vehicles, people, doors, obstacles at head height. Give direction as left, right or ahead, and distance in steps when you can.
If nothing is in the way, say the path is clear and name the main thing ahead. Never describe colours, lighting or image quality. No preamble.`

// DefaultCue is the user turn that accompanies the image.
const DefaultCue = "What is in front of me?"

// Result is one analysis outcome. Text may be empty when the model
// returned nothing usable.
type Result struct {
	Text      string `json:"text"`
	Model     string `json:"model"`
	LatencyMs int64  `json:"latency_ms"`
}

// Empty reports whether the result carries no speakable text.
func (r *Result) Empty() bool {
	return r == nil || strings.TrimSpace(r.Text) == ""
}

// Analyzer describes a single frame.
type Analyzer interface {
	// Analyze sends the frame to the model. A response without text is a
	// successful, empty Result rather than an error.
	Analyze(ctx context.Context, f *frame.Frame) (*Result, error)

	// Name identifies the analyzer in logs and metrics.
	Name() string

	// Close releases resources.
	Close() error
}
