package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidConfig marks configuration that must be rejected at startup
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete credence configuration
type Config struct {
	Fusion       FusionConfig       `yaml:"fusion" mapstructure:"fusion"`
	Source       SourceConfig       `yaml:"source" mapstructure:"source"`
	Context      ContextConfig      `yaml:"context" mapstructure:"context"`
	Authenticity AuthenticityConfig `yaml:"authenticity" mapstructure:"authenticity"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitConfig    `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// FusionConfig holds signal weights and verdict boundaries
type FusionConfig struct {
	Weights    map[string]float64 `yaml:"weights" mapstructure:"weights"`
	Thresholds ThresholdConfig    `yaml:"thresholds" mapstructure:"thresholds"`
}

// ThresholdConfig holds the lower bounds of the upper three verdict bins
type ThresholdConfig struct {
	High   float64 `yaml:"high" mapstructure:"high"`
	Medium float64 `yaml:"medium" mapstructure:"medium"`
	Low    float64 `yaml:"low" mapstructure:"low"`
}

// SourceConfig configures the source credibility signal
type SourceConfig struct {
	ReputationFile string       `yaml:"reputation_file" mapstructure:"reputation_file"` // JSON or YAML domain table
	Threat         ThreatConfig `yaml:"threat" mapstructure:"threat"`
}

// ThreatConfig configures the optional threat-list lookup
type ThreatConfig struct {
	Provider      string        `yaml:"provider" mapstructure:"provider"` // none, safebrowsing, static
	APIKey        string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL       string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	BlocklistFile string        `yaml:"blocklist_file,omitempty" mapstructure:"blocklist_file"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ContextConfig configures the media context signal
type ContextConfig struct {
	Describer   DescriberConfig `yaml:"describer" mapstructure:"describer"`
	MediaDir    string          `yaml:"media_dir" mapstructure:"media_dir"`       // Local directory holding media files
	ReuseFile   string          `yaml:"reuse_file" mapstructure:"reuse_file"`     // Known reused media keys
	FetchRemote bool            `yaml:"fetch_remote" mapstructure:"fetch_remote"` // Allow http(s) media keys
}

// DescriberConfig configures the caption service
type DescriberConfig struct {
	Provider     string        `yaml:"provider" mapstructure:"provider"` // none, openai, anthropic, ollama, static
	Model        string        `yaml:"model,omitempty" mapstructure:"model"`
	APIKey       string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL      string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	CaptionsFile string        `yaml:"captions_file,omitempty" mapstructure:"captions_file"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens    int           `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// AuthenticityConfig configures the manipulation signal
type AuthenticityConfig struct {
	ListFile string `yaml:"list_file,omitempty" mapstructure:"list_file"` // media key -> regime
}

// HTTPConfig holds shared outbound HTTP settings
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures caching of external lookups
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitConfig controls per-domain pacing in batch mode
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// LogConfig configures the structured logger
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultWeights returns the default fusion weights. Deepfake authenticity is weighted.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		string(SignalSourceCredibility):    0.35,
		string(SignalImageContext):         0.25,
		string(SignalTextTone):             0.20,
		string(SignalDeepfakeAuthenticity): 0.20,
	}
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Fusion: FusionConfig{
			Weights: DefaultWeights(),
			Thresholds: ThresholdConfig{
				High:   0.80,
				Medium: 0.60,
				Low:    0.40,
			},
		},
		Source: SourceConfig{
			Threat: ThreatConfig{
				Provider: "none",
				Timeout:  5 * time.Second,
			},
		},
		Context: ContextConfig{
			Describer: DescriberConfig{
				Provider:  "none",
				Timeout:   30 * time.Second,
				MaxTokens: 60,
			},
			MediaDir: "data/images",
		},
		HTTP: HTTPConfig{
			Timeout:      15 * time.Second,
			UserAgent:    "Credence/0.1 (+https://github.com/ppiankov/credence)",
			MaxBodyBytes: 10_000_000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".credence-cache",
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}

// Validate checks the parts of the configuration that are cheap to verify
// before any component is constructed
func (c *Config) Validate() error {
	if len(c.Fusion.Weights) == 0 {
		return fmt.Errorf("%w: fusion.weights is empty", ErrInvalidConfig)
	}
	for name, w := range c.Fusion.Weights {
		if _, err := ParseSignalName(name); err != nil {
			return fmt.Errorf("%w: fusion.weights: %v", ErrInvalidConfig, err)
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: fusion.weights.%s must be a non-negative number, got %v", ErrInvalidConfig, name, w)
		}
	}
	t := c.Fusion.Thresholds
	if !(0 <= t.Low && t.Low < t.Medium && t.Medium < t.High && t.High <= 1) {
		return fmt.Errorf("%w: thresholds must satisfy 0 <= low < medium < high <= 1 (got %v/%v/%v)",
			ErrInvalidConfig, t.Low, t.Medium, t.High)
	}
	if c.Concurrency.Workers < 0 {
		return fmt.Errorf("%w: concurrency.workers must not be negative", ErrInvalidConfig)
	}
	return nil
}
