package ai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"investbot/pkg/apperrors"
)

// OpenAIProvider implements Provider using the OpenAI Chat Completions API.
type OpenAIProvider struct {
	client *openai.Client
	name   string
}

func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClient(apiKey),
		name:   "openai",
	}
}

// NewOpenRouterProvider targets an OpenAI-compatible endpoint at a custom
// base URL.
func NewOpenRouterProvider(apiKey, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		name:   "openrouter",
	}
}

func (p *OpenAIProvider) Name() string {
	return p.name
}

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	apiReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Message},
		},
	}

	resp, err := p.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return "", fmt.Errorf("%w: %s completion: %v", apperrors.ErrExternalService, p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %s returned no choices", apperrors.ErrExternalService, p.name)
	}
	return resp.Choices[0].Message.Content, nil
}
