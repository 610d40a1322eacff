package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/util"
)

// ErrUnavailable means no caption service is configured or reachable
var ErrUnavailable = errors.New("caption service unavailable")

// DefaultPrompt asks for a short neutral description of the media
const DefaultPrompt = "Describe the main content of the image in a concise sentence."

const (
	systemPrompt   = "You describe images literally and neutrally. Do not speculate about intent or context."
	defaultTimeout = 30 * time.Second
)

// Describer produces a short natural-language description of a media item
type Describer interface {
	// Name returns the provider name
	Name() string

	// Describe captions the media in req
	Describe(ctx context.Context, req DescribeRequest) (*DescribeResponse, error)
}

// DescribeRequest carries one media item to caption
type DescribeRequest struct {
	// MediaKey identifies the media (file name or URL)
	MediaKey string

	// Data is the raw media content. May be empty for providers that work from the key alone.
	Data []byte

	// ContentType is the MIME type of Data, e.g. "image/jpeg"
	ContentType string

	// Prompt overrides DefaultPrompt
	Prompt string

	// MaxTokens limits the caption length
	MaxTokens int
}

// DescribeResponse holds the caption
type DescribeResponse struct {
	Caption    string
	Model      string
	TokensUsed int
}

// Config holds caption provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", "static", "none"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// CaptionsFile is the media key -> caption table for the static provider
	CaptionsFile string

	// Timeout for API requests
	Timeout time.Duration

	// MaxTokens for caption generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// ConfigFromModel merges the describer and shared HTTP settings
func ConfigFromModel(d model.DescriberConfig, h model.HTTPConfig) Config {
	return Config{
		Provider:     d.Provider,
		Model:        d.Model,
		APIKey:       d.APIKey,
		BaseURL:      d.BaseURL,
		CaptionsFile: d.CaptionsFile,
		Timeout:      d.Timeout,
		MaxTokens:    d.MaxTokens,
		HTTPProxy:    h.HTTPProxy,
		HTTPSProxy:   h.HTTPSProxy,
		NoProxy:      h.NoProxy,
	}
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return fallback
}

func (c Config) maxTokens(req DescribeRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 60
}

func (c Config) httpClient(fallback time.Duration) *http.Client {
	return &http.Client{
		Timeout: c.timeout(fallback),
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(c.HTTPProxy, c.HTTPSProxy, c.NoProxy),
		},
	}
}

func prompt(req DescribeRequest) string {
	if req.Prompt != "" {
		return req.Prompt
	}
	return DefaultPrompt
}

// requireImage rejects requests that carry nothing a vision model can read
func requireImage(req DescribeRequest) error {
	if len(req.Data) == 0 {
		return fmt.Errorf("%w: no media content for %q", ErrUnavailable, req.MediaKey)
	}
	if !strings.HasPrefix(req.ContentType, "image/") {
		return fmt.Errorf("%w: unsupported media type %q", ErrUnavailable, req.ContentType)
	}
	return nil
}

func dataURL(req DescribeRequest) string {
	return "data:" + req.ContentType + ";base64," + base64.StdEncoding.EncodeToString(req.Data)
}

// OfflineDescriber is used when no caption service is configured
type OfflineDescriber struct{}

// Name returns the provider name
func (OfflineDescriber) Name() string { return "none" }

// Describe always fails with ErrUnavailable
func (OfflineDescriber) Describe(context.Context, DescribeRequest) (*DescribeResponse, error) {
	return nil, ErrUnavailable
}
