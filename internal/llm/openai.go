package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIDescriber captions images with an OpenAI vision model
type OpenAIDescriber struct {
	client *openai.Client
	config Config
}

// NewOpenAIDescriber creates a new OpenAI describer
func NewOpenAIDescriber(config Config) (*OpenAIDescriber, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = config.httpClient(defaultTimeout)

	return &OpenAIDescriber{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIDescriber) Name() string {
	return "openai"
}

// Describe sends the image inline as a data URL
func (p *OpenAIDescriber) Describe(ctx context.Context, req DescribeRequest) (*DescribeResponse, error) {
	if err := requireImage(req); err != nil {
		return nil, err
	}

	model := p.config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.timeout(defaultTimeout))
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt(req)},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL(req),
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
		MaxTokens:   p.config.maxTokens(req),
		Temperature: 0.1,
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	caption := strings.TrimSpace(resp.Choices[0].Message.Content)
	if caption == "" {
		return nil, fmt.Errorf("empty caption from OpenAI")
	}

	return &DescribeResponse{
		Caption:    caption,
		Model:      model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}
