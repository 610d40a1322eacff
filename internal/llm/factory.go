package llm

import (
	"fmt"
	"strings"
)

// NewDescriber creates a caption provider based on configuration.
// An empty or "none" provider yields OfflineDescriber.
func NewDescriber(config Config) (Describer, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIDescriber(config)

	case "anthropic", "claude":
		return NewAnthropicDescriber(config)

	case "ollama":
		return NewOllamaDescriber(config)

	case "static":
		if config.CaptionsFile == "" {
			return nil, fmt.Errorf("static describer requires a captions file")
		}
		return LoadStaticDescriber(config.CaptionsFile)

	case "", "none":
		return OfflineDescriber{}, nil

	default:
		return nil, fmt.Errorf("unknown caption provider: %s (supported: openai, anthropic, ollama, static, none)", config.Provider)
	}
}
