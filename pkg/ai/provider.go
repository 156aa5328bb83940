package ai

import "context"

type CompletionRequest struct {
	System      string
	Message     string
	Model       string
	MaxTokens   int
	Temperature float32
}

// Provider is a single external LLM backend.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Name() string
}
