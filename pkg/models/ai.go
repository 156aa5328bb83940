package models

const (
	AIProviderOpenAI     = "openai"
	AIProviderOpenRouter = "openrouter"
	AIProviderFAQ        = "faq"
)

type AISettings struct {
	Enabled       bool    `json:"enabled"`
	Provider      string  `json:"provider"`
	Model         string  `json:"model"`
	MaxTokens     int     `json:"max_tokens"`
	Temperature   float32 `json:"temperature"`
	FallbackToFAQ bool    `json:"fallback_to_faq"`
}

type AIResponse struct {
	Message          string   `json:"message"`
	Confidence       float64  `json:"confidence"`
	RequiresHuman    bool     `json:"requires_human"`
	SuggestedActions []string `json:"suggested_actions"`
}
