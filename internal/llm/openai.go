package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Client for OpenAI chat models
type OpenAIClient struct {
	client *openai.Client
	config *Config
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(config *Config, apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return newOpenAIClient(config, openai.DefaultConfig(apiKey)), nil
}

// NewOpenAIClientWithBaseURL targets an OpenAI-compatible endpoint.
func NewOpenAIClientWithBaseURL(config *Config, apiKey, baseURL string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	cc := openai.DefaultConfig(apiKey)
	cc.BaseURL = baseURL
	return newOpenAIClient(config, cc), nil
}

func newOpenAIClient(config *Config, cc openai.ClientConfig) *OpenAIClient {
	if config == nil {
		config = DefaultOpenAIConfig()
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cc),
		config: config,
	}
}

// GenerateContent generates text content using the specified model tier
func (c *OpenAIClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.generate(ctx, prompt, tier, nil)
}

// GenerateJSON generates JSON content using the specified model tier
func (c *OpenAIClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := c.generate(ctx, prompt, tier, &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	})
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

func (c *OpenAIClient) generate(ctx context.Context, prompt string, tier ModelTier, format *openai.ChatCompletionResponseFormat) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature:    temperature,
		MaxTokens:      c.config.maxTokens(),
		ResponseFormat: format,
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}
	return resp.Choices[0].Message.Content, nil
}

// GetModel returns the model name for a tier
func (c *OpenAIClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the HTTP client is shared.
func (c *OpenAIClient) Close() error {
	return nil
}
