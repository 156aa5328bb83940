package bot

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	tele "gopkg.in/telebot.v3"

	"investbot/config"
	"investbot/pkg/apperrors"
	"investbot/pkg/logger"
	"investbot/pkg/models"
	"investbot/storage"
)

const outboundTimeout = 30 * time.Second

// Identity is one configured bot role with its live platform client.
// Role, Token and Secret never change after construction; webhook state
// and error tracking are mutated concurrently and sit behind mu.
type Identity struct {
	Role   models.BotRole
	Token  string
	Secret string

	client *tele.Bot

	mu             sync.Mutex
	webhookURL     string
	status         string
	allowedUpdates []string
	lastErrorAt    time.Time
	lastError      string
}

func (id *Identity) webhookState() (url, status string, allowed []string) {
	id.mu.Lock()
	defer id.mu.Unlock()
	return id.webhookURL, id.status, id.allowedUpdates
}

// setWebhookState replaces the webhook association; a nil allowed slice
// keeps the current allowed-updates set.
func (id *Identity) setWebhookState(url, status string, allowed []string) {
	id.mu.Lock()
	id.webhookURL = url
	id.status = status
	if len(allowed) > 0 {
		id.allowedUpdates = allowed
	}
	id.mu.Unlock()
}

func (id *Identity) recordError(msg string, at time.Time) {
	id.mu.Lock()
	id.lastErrorAt = at
	id.lastError = msg
	id.mu.Unlock()
}

func (id *Identity) errorWithin(d time.Duration, now time.Time) (string, bool) {
	id.mu.Lock()
	defer id.mu.Unlock()
	if !id.lastErrorAt.IsZero() && now.Sub(id.lastErrorAt) < d {
		return id.lastError, true
	}
	return "", false
}

// Registry owns the per-role bot identities and all outbound platform
// calls. Inbound webhook verification and update routing live in Router.
type Registry struct {
	mu      sync.RWMutex
	bots    map[models.BotRole]*Identity
	repo    storage.IBotStorage
	baseURL string
	log     logger.ILogger
	now     func() time.Time
}

func NewRegistry(cfg config.Config, repo storage.IBotStorage, log logger.ILogger) (*Registry, error) {
	r := &Registry{
		bots:    make(map[models.BotRole]*Identity),
		repo:    repo,
		baseURL: cfg.WebhookBaseURL,
		log:     log,
		now:     time.Now,
	}

	seed := []struct {
		role   models.BotRole
		token  string
		secret string
	}{
		{models.RoleSupport, cfg.SupportBotToken, cfg.SupportBotSecret},
		{models.RoleOTP, cfg.OTPBotToken, cfg.OTPBotSecret},
		{models.RoleAlerts, cfg.AlertsBotToken, cfg.AlertsBotSecret},
		{models.RoleCommunication, cfg.CommBotToken, cfg.CommBotSecret},
	}

	for _, s := range seed {
		if s.token == "" {
			log.Warning("bot role has no token, skipping", logger.String("role", string(s.role)))
			continue
		}
		client, err := tele.NewBot(tele.Settings{
			Token:   s.token,
			Offline: cfg.BotOffline,
			Client:  &http.Client{Timeout: outboundTimeout},
		})
		if err != nil {
			return nil, fmt.Errorf("init %s bot: %w", s.role, err)
		}
		r.bots[s.role] = &Identity{
			Role:           s.role,
			Token:          s.token,
			Secret:         s.secret,
			allowedUpdates: []string{"message", "edited_message", "callback_query", "my_chat_member"},
			status:         models.BotStatusInactive,
			client:         client,
		}
	}

	if len(r.bots) == 0 {
		return nil, fmt.Errorf("%w: no bot tokens configured", apperrors.ErrValidation)
	}

	r.sync(context.Background())
	return r, nil
}

// sync merges persisted webhook state into the in-memory identities and
// upserts every configured role, so later SetWebhook/RecordError updates
// always have a row to hit.
func (r *Registry) sync(ctx context.Context) {
	if r.repo == nil {
		return
	}

	stored := make(map[models.BotRole]*models.BotIdentity)
	rows, err := r.repo.GetAll(ctx)
	if err != nil {
		r.log.Error("failed to load persisted bot identities", logger.Error(err))
		return
	}
	for _, b := range rows {
		stored[b.Role] = b
	}

	for role, id := range r.bots {
		if b, ok := stored[role]; ok {
			id.setWebhookState(b.WebhookURL, b.Status, b.AllowedUpdates)
		}
		url, status, allowed := id.webhookState()
		_, err := r.repo.Upsert(ctx, &models.BotIdentity{
			Role:           role,
			Token:          id.Token,
			Secret:         id.Secret,
			WebhookURL:     url,
			AllowedUpdates: allowed,
			Status:         status,
		})
		if err != nil {
			r.log.Error("failed to persist bot identity",
				logger.String("role", string(role)),
				logger.Error(err),
			)
		}
	}
}

func (r *Registry) Get(role models.BotRole) (*Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.bots[role]
	if !ok {
		return nil, fmt.Errorf("%w: bot role %s not configured", apperrors.ErrNotFound, role)
	}
	return id, nil
}

func (r *Registry) Roles() []models.BotRole {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roles := make([]models.BotRole, 0, len(r.bots))
	for _, role := range models.AllBotRoles {
		if _, ok := r.bots[role]; ok {
			roles = append(roles, role)
		}
	}
	return roles
}

// Send delivers a message through the role's bot. Failures come back as
// typed external-service errors and are recorded for health reporting;
// they never panic the caller's processing loop.
func (r *Registry) Send(ctx context.Context, role models.BotRole, chatID int64, text string, opts ...interface{}) error {
	id, err := r.Get(role)
	if err != nil {
		return err
	}
	if _, err := id.client.Send(&tele.User{ID: chatID}, text, opts...); err != nil {
		r.noteError(ctx, id, err)
		return fmt.Errorf("%w: send via %s bot: %v", apperrors.ErrExternalService, role, err)
	}
	return nil
}

// AnswerCallback acknowledges a callback so the client spinner clears.
func (r *Registry) AnswerCallback(ctx context.Context, role models.BotRole, callbackID, text string) error {
	id, err := r.Get(role)
	if err != nil {
		return err
	}
	resp := &tele.CallbackResponse{Text: text}
	if err := id.client.Respond(&tele.Callback{ID: callbackID}, resp); err != nil {
		r.noteError(ctx, id, err)
		return fmt.Errorf("%w: answer callback via %s bot: %v", apperrors.ErrExternalService, role, err)
	}
	return nil
}

func (r *Registry) noteError(ctx context.Context, id *Identity, err error) {
	now := r.now()
	id.recordError(err.Error(), now)
	r.log.Error("bot platform call failed",
		logger.String("role", string(id.Role)),
		logger.Error(err),
	)
	if r.repo != nil {
		if dbErr := r.repo.RecordError(ctx, id.Role, err.Error(), now); dbErr != nil {
			r.log.Error("failed to persist bot error", logger.Error(dbErr))
		}
	}
}

// VerifySignature recomputes the keyed hash for the role and compares it
// to the presented signature. A role without a configured secret passes
// verification; that permissive default is intentional and flagged.
func (r *Registry) VerifySignature(body []byte, signature string, role models.BotRole) error {
	id, err := r.Get(role)
	if err != nil {
		return err
	}
	if id.Secret == "" {
		return nil
	}
	mac := hmac.New(sha256.New, []byte(id.Secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("%w: signature mismatch for %s webhook", apperrors.ErrUnauthorized, role)
	}
	return nil
}

type apiResponse struct {
	Ok     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
}

func (r *Registry) raw(ctx context.Context, id *Identity, method string, payload interface{}) (json.RawMessage, error) {
	data, err := id.client.Raw(method, payload)
	if err != nil {
		r.noteError(ctx, id, err)
		return nil, fmt.Errorf("%w: %s via %s bot: %v", apperrors.ErrExternalService, method, id.Role, err)
	}
	var resp apiResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode %s response: %v", apperrors.ErrExternalService, method, err)
	}
	return resp.Result, nil
}
