package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/teslashibe/go-lookout/internal/httpc"
	"github.com/teslashibe/go-lookout/pkg/frame"
)

const (
	providerGemini = "gemini"

	// DefaultGeminiBaseURL is the public Generative Language API.
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultGeminiModel favours latency over depth.
	DefaultGeminiModel = "gemini-2.0-flash"
)

// Gemini analyzes frames with the generateContent endpoint.
type Gemini struct {
	config *Config
	http   *http.Client
	logger *slog.Logger
}

// NewGemini creates a Gemini analyzer. An API key is required.
func NewGemini(opts ...Option) (*Gemini, error) {
	cfg := DefaultConfig()
	cfg.BaseURL = DefaultGeminiBaseURL
	cfg.Model = DefaultGeminiModel
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, WrapError(providerGemini, ErrNoAPIKey)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = httpc.NewClient(cfg.Timeout)
	}

	return &Gemini{
		config: cfg,
		http:   client,
		logger: cfg.Logger.With("component", "vision.gemini"),
	}, nil
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  geminiGenConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	ModelVersion string `json:"modelVersion"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (g *Gemini) buildRequest(f *frame.Frame) *geminiRequest {
	req := &geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{InlineData: &geminiInlineData{MimeType: f.MIMEType, Data: f.Base64()}},
				{Text: g.config.Cue},
			},
		}},
	}
	if g.config.Prompt != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: g.config.Prompt}}}
	}
	req.GenerationConfig = geminiGenConfig{
		Temperature:     g.config.Temperature,
		MaxOutputTokens: g.config.MaxTokens,
	}
	return req
}

// Analyze describes one frame. Missing candidates or parts yield an empty
// Result, not an error.
func (g *Gemini) Analyze(ctx context.Context, f *frame.Frame) (*Result, error) {
	if f == nil || len(f.Data) == 0 {
		return nil, WrapError(providerGemini, ErrNoFrame)
	}
	start := time.Now()

	endpoint := fmt.Sprintf("%s/models/%s:generateContent",
		strings.TrimRight(g.config.BaseURL, "/"), g.config.Model)
	headers := map[string]string{"x-goog-api-key": g.config.APIKey}

	resp, err := httpc.PostJSON(ctx, g.http, endpoint, headers, g.buildRequest(f))
	if err != nil {
		return nil, WrapError(providerGemini, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, g.parseError(resp)
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, WrapError(providerGemini, fmt.Errorf("decode response: %w", err))
	}

	var text strings.Builder
	if len(out.Candidates) > 0 {
		for _, p := range out.Candidates[0].Content.Parts {
			text.WriteString(p.Text)
		}
	}

	model := g.config.Model
	if out.ModelVersion != "" {
		model = out.ModelVersion
	}

	result := &Result{
		Text:      strings.TrimSpace(text.String()),
		Model:     model,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	g.logger.Debug("frame analyzed",
		"model", result.Model,
		"latency_ms", result.LatencyMs,
		"chars", len(result.Text),
		"bytes", len(f.Data),
	)
	return result, nil
}

func (g *Gemini) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var ge geminiError
	if json.Unmarshal(body, &ge) == nil && ge.Error.Message != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    ge.Error.Message,
			Code:       ge.Error.Status,
			Provider:   providerGemini,
		}
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    truncate(string(body), 200),
		Provider:   providerGemini,
	}
}

// Name returns "gemini".
func (g *Gemini) Name() string { return providerGemini }

// Close is a no-op.
func (g *Gemini) Close() error { return nil }

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

var _ Analyzer = (*Gemini)(nil)
