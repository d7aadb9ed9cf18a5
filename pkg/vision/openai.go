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

	"github.com/teslashibe/go-lookout/internal/httpc"
	"github.com/teslashibe/go-lookout/pkg/frame"
)

const (
	providerOpenAI = "openai"

	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-4o-mini"
)

// OpenAI analyzes frames through any OpenAI-compatible chat completions
// endpoint (OpenAI, Ollama, vLLM, LM Studio).
type OpenAI struct {
	config *Config
	http   *http.Client
	logger *slog.Logger
}

// NewOpenAI creates an OpenAI-compatible analyzer. The key is required only
// for the default base URL.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.BaseURL = DefaultOpenAIBaseURL
	cfg.Model = DefaultOpenAIModel
	cfg.Apply(opts...)

	if cfg.APIKey == "" && cfg.BaseURL == DefaultOpenAIBaseURL {
		return nil, WrapError(providerOpenAI, ErrNoAPIKey)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = httpc.NewClient(cfg.Timeout)
	}

	return &OpenAI{
		config: cfg,
		http:   client,
		logger: cfg.Logger.With("component", "vision.openai"),
	}, nil
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type openAIPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
}

type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type openAIError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// Analyze describes one frame.
func (o *OpenAI) Analyze(ctx context.Context, f *frame.Frame) (*Result, error) {
	if f == nil || len(f.Data) == 0 {
		return nil, WrapError(providerOpenAI, ErrNoFrame)
	}
	start := time.Now()

	req := openAIRequest{
		Model:       o.config.Model,
		MaxTokens:   o.config.MaxTokens,
		Temperature: o.config.Temperature,
	}
	if o.config.Prompt != "" {
		req.Messages = append(req.Messages, openAIMessage{Role: "system", Content: o.config.Prompt})
	}
	req.Messages = append(req.Messages, openAIMessage{
		Role: "user",
		Content: []openAIPart{
			{Type: "text", Text: o.config.Cue},
			{Type: "image_url", ImageURL: &openAIImageURL{URL: f.DataURL(), Detail: "low"}},
		},
	})

	headers := map[string]string{}
	if o.config.APIKey != "" {
		headers["Authorization"] = "Bearer " + o.config.APIKey
	}

	url := strings.TrimRight(o.config.BaseURL, "/") + "/chat/completions"
	resp, err := httpc.PostJSON(ctx, o.http, url, headers, req)
	if err != nil {
		return nil, WrapError(providerOpenAI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, o.parseError(resp)
	}

	var out openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("decode response: %w", err))
	}

	result := &Result{Model: o.config.Model, LatencyMs: time.Since(start).Milliseconds()}
	if out.Model != "" {
		result.Model = out.Model
	}
	if len(out.Choices) > 0 {
		result.Text = strings.TrimSpace(out.Choices[0].Message.Content)
	}

	o.logger.Debug("frame analyzed", "model", result.Model, "latency_ms", result.LatencyMs)
	return result, nil
}

func (o *OpenAI) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var oe openAIError
	if json.Unmarshal(body, &oe) == nil && oe.Error.Message != "" {
		code := oe.Error.Type
		if s, ok := oe.Error.Code.(string); ok && s != "" {
			code = s
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    oe.Error.Message,
			Code:       code,
			Provider:   providerOpenAI,
		}
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    truncate(string(body), 200),
		Provider:   providerOpenAI,
	}
}

// Name returns "openai".
func (o *OpenAI) Name() string { return providerOpenAI }

// Close is a no-op.
func (o *OpenAI) Close() error { return nil }

var _ Analyzer = (*OpenAI)(nil)
