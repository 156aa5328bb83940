package ai

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"investbot/config"
	"investbot/pkg/apperrors"
	"investbot/pkg/logger"
	"investbot/pkg/models"
	"investbot/storage"
)

const settingsKey = "ai_settings"

const llmTimeout = 30 * time.Second

const systemPrompt = `You are the support assistant for InvestBot, a digital asset investment platform.
Product facts:
- Users deposit funds and allocate them to flexible or fixed-term investment plans with daily accrual.
- Withdrawals require a 6-digit one-time verification code and complete within 24 hours on business days.
- Accounts can be linked to this chat by sending "email: <registered email>".
Rules:
- Be concise and factual; never invent rates, balances or transaction data.
- Never ask for passwords, seed phrases or verification codes.
- For account-specific questions, direct the user to the app dashboard.
- If you are unsure, say so and suggest contacting the support team.`

const apologyMessage = "Sorry, I am having trouble answering right now. Please try again in a few minutes or contact our support team."

var defaultSuggestedActions = []string{"Check balance", "View investment plans", "Contact support"}

// Responder resolves replies through the configured LLM provider with a
// tiered FAQ fallback. GenerateResponse always produces a reply.
type Responder struct {
	cfg          config.Config
	settings     storage.ISettingsStorage
	interactions storage.IInteractionStorage
	log          logger.ILogger

	// newProvider is swappable in tests.
	newProvider func(settings models.AISettings) Provider
}

func NewResponder(cfg config.Config, stg storage.IStorage, log logger.ILogger) *Responder {
	r := &Responder{
		cfg:          cfg,
		settings:     stg.Settings(),
		interactions: stg.Interaction(),
		log:          log,
	}
	r.newProvider = r.buildProvider
	return r
}

func (r *Responder) buildProvider(settings models.AISettings) Provider {
	switch settings.Provider {
	case models.AIProviderOpenAI:
		if r.cfg.OpenAIKey == "" {
			return nil
		}
		return NewOpenAIProvider(r.cfg.OpenAIKey)
	case models.AIProviderOpenRouter:
		if r.cfg.OpenRouterKey == "" {
			return nil
		}
		return NewOpenRouterProvider(r.cfg.OpenRouterKey, r.cfg.OpenRouterBase)
	}
	return nil
}

// envDefaults builds the baseline settings from environment config.
func (r *Responder) envDefaults() models.AISettings {
	return models.AISettings{
		Enabled:       r.cfg.AIEnabled,
		Provider:      r.cfg.AIProvider,
		Model:         r.cfg.AIModel,
		MaxTokens:     r.cfg.AIMaxTokens,
		Temperature:   float32(r.cfg.AITemperature),
		FallbackToFAQ: r.cfg.AIFallbackFAQ,
	}
}

// ResolveSettings merges the stored override over environment defaults.
func (r *Responder) ResolveSettings(ctx context.Context) models.AISettings {
	settings := r.envDefaults()

	raw, err := r.settings.Get(ctx, settingsKey)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			r.log.Error("failed to load ai settings override", logger.Error(err))
		}
		return settings
	}
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		r.log.Error("stored ai settings are malformed, using defaults", logger.Error(err))
		return r.envDefaults()
	}
	return settings
}

// SaveSettings stores the admin override.
func (r *Responder) SaveSettings(ctx context.Context, settings models.AISettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return r.settings.Set(ctx, settingsKey, string(raw))
}

// GenerateResponse never fails: the worst case is the generic FAQ
// handoff. The interaction is audited on every branch.
func (r *Responder) GenerateResponse(ctx context.Context, message string, userID *int64, chatID int64) *models.AIResponse {
	settings := r.ResolveSettings(ctx)

	var resp *models.AIResponse
	switch {
	case !settings.Enabled || settings.Provider == models.AIProviderFAQ:
		resp = r.faqResponse(message)
	default:
		provider := r.newProvider(settings)
		if provider == nil {
			// Missing credential forces FAQ mode.
			resp = r.faqResponse(message)
			break
		}
		resp = r.llmResponse(ctx, provider, settings, message)
	}

	r.logInteraction(ctx, userID, chatID, message, resp)
	return resp
}

func (r *Responder) llmResponse(ctx context.Context, provider Provider, settings models.AISettings, message string) *models.AIResponse {
	llmCtx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	reply, err := provider.Complete(llmCtx, CompletionRequest{
		System:      systemPrompt,
		Message:     message,
		Model:       settings.Model,
		MaxTokens:   settings.MaxTokens,
		Temperature: settings.Temperature,
	})
	if err == nil {
		return &models.AIResponse{
			Message:          reply,
			Confidence:       0.9,
			RequiresHuman:    false,
			SuggestedActions: defaultSuggestedActions,
		}
	}

	r.log.Error("llm completion failed",
		logger.String("provider", provider.Name()),
		logger.Error(err),
	)
	if settings.FallbackToFAQ {
		return r.faqResponse(message)
	}
	return &models.AIResponse{
		Message:       apologyMessage,
		Confidence:    0.1,
		RequiresHuman: true,
	}
}

func (r *Responder) faqResponse(message string) *models.AIResponse {
	entry, ok := matchFAQ(message)
	if !ok {
		return &models.AIResponse{
			Message:       faqHandoffMessage,
			Confidence:    0.3,
			RequiresHuman: true,
		}
	}
	return &models.AIResponse{
		Message:       entry.Response,
		Confidence:    entry.Confidence,
		RequiresHuman: entry.Confidence < 0.7,
	}
}

// logInteraction appends the audit row; a failure here must not affect
// the reply that has already been resolved.
func (r *Responder) logInteraction(ctx context.Context, userID *int64, chatID int64, message string, resp *models.AIResponse) {
	rec := &models.InteractionRecord{
		UserID:   userID,
		ChatID:   chatID,
		Kind:     models.InteractionAIResponse,
		Content:  message,
		Response: resp.Message,
		Metadata: map[string]string{
			"confidence":     strconv.FormatFloat(resp.Confidence, 'f', 2, 64),
			"requires_human": strconv.FormatBool(resp.RequiresHuman),
		},
	}
	if err := r.interactions.Create(ctx, rec); err != nil {
		r.log.Error("failed to audit ai interaction", logger.Error(err))
	}
}
