package bot

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"investbot/config"
	"investbot/pkg/apperrors"
	"investbot/pkg/logger"
	"investbot/pkg/models"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...logger.Field)   {}
func (nopLogger) Info(string, ...logger.Field)    {}
func (nopLogger) Error(string, ...logger.Field)   {}
func (nopLogger) Warning(string, ...logger.Field) {}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(config.Config{
		SupportBotToken:  "support-token",
		SupportBotSecret: "support-secret",
		OTPBotToken:      "otp-token",
		BotOffline:       true,
	}, nil, nopLogger{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestRegistrySeedsConfiguredRoles(t *testing.T) {
	r := testRegistry(t)

	roles := r.Roles()
	if len(roles) != 2 {
		t.Fatalf("expected 2 configured roles, got %v", roles)
	}
	if _, err := r.Get(models.RoleSupport); err != nil {
		t.Fatalf("support role missing: %v", err)
	}
	if _, err := r.Get(models.RoleAlerts); !apperrors.IsNotFound(err) {
		t.Fatalf("unconfigured role must be not found, got %v", err)
	}
}

func TestRegistryRequiresAtLeastOneToken(t *testing.T) {
	_, err := NewRegistry(config.Config{BotOffline: true}, nil, nopLogger{})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVerifySignature(t *testing.T) {
	r := testRegistry(t)
	body := []byte(`{"update_id":1}`)

	if err := r.VerifySignature(body, sign("support-secret", body), models.RoleSupport); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
}

func TestVerifySignatureRejectsTamperedBody(t *testing.T) {
	r := testRegistry(t)
	body := []byte(`{"update_id":1}`)
	sig := sign("support-secret", body)

	err := r.VerifySignature([]byte(`{"update_id":2}`), sig, models.RoleSupport)
	if !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestVerifySignatureRejectsWrongSecret(t *testing.T) {
	r := testRegistry(t)
	body := []byte(`{"update_id":1}`)

	err := r.VerifySignature(body, sign("other-secret", body), models.RoleSupport)
	if !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestVerifySignatureNoSecretPasses(t *testing.T) {
	// The otp role has no secret configured, so any presented signature
	// passes. Deployments are expected to set secrets everywhere.
	r := testRegistry(t)
	if err := r.VerifySignature([]byte("anything"), "", models.RoleOTP); err != nil {
		t.Fatalf("no-secret role must pass, got %v", err)
	}
	if err := r.VerifySignature([]byte("anything"), "bogus", models.RoleOTP); err != nil {
		t.Fatalf("no-secret role must pass regardless of signature, got %v", err)
	}
}

func TestVerifySignatureUnknownRole(t *testing.T) {
	r := testRegistry(t)
	err := r.VerifySignature([]byte("x"), "y", models.RoleCommunication)
	if !apperrors.IsNotFound(err) {
		t.Fatalf("expected not found for unconfigured role, got %v", err)
	}
}

type fakeBotRepo struct {
	mu   sync.Mutex
	rows map[models.BotRole]*models.BotIdentity
}

func newFakeBotRepo(rows ...*models.BotIdentity) *fakeBotRepo {
	f := &fakeBotRepo{rows: make(map[models.BotRole]*models.BotIdentity)}
	for _, b := range rows {
		cp := *b
		f.rows[b.Role] = &cp
	}
	return f
}

func (f *fakeBotRepo) Upsert(_ context.Context, b *models.BotIdentity) (*models.BotIdentity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *b
	f.rows[b.Role] = &cp
	return &cp, nil
}

func (f *fakeBotRepo) Get(_ context.Context, role models.BotRole) (*models.BotIdentity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[role]
	if !ok {
		return nil, fmt.Errorf("%w: bot %s", apperrors.ErrNotFound, role)
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBotRepo) GetAll(_ context.Context) ([]*models.BotIdentity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.BotIdentity, 0, len(f.rows))
	for _, b := range f.rows {
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeBotRepo) SetWebhook(_ context.Context, role models.BotRole, url, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[role]
	if !ok {
		return fmt.Errorf("%w: bot %s", apperrors.ErrNotFound, role)
	}
	b.WebhookURL = url
	b.Status = status
	return nil
}

func (f *fakeBotRepo) RecordError(_ context.Context, role models.BotRole, msg string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[role]
	if !ok {
		return fmt.Errorf("%w: bot %s", apperrors.ErrNotFound, role)
	}
	b.LastError = msg
	b.LastErrorAt = &at
	return nil
}

func TestNewRegistryPersistsConfiguredRoles(t *testing.T) {
	repo := newFakeBotRepo()
	_, err := NewRegistry(config.Config{
		SupportBotToken:  "support-token",
		SupportBotSecret: "support-secret",
		OTPBotToken:      "otp-token",
		BotOffline:       true,
	}, repo, nopLogger{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	for _, role := range []models.BotRole{models.RoleSupport, models.RoleOTP} {
		row, err := repo.Get(context.Background(), role)
		if err != nil {
			t.Fatalf("role %s not persisted: %v", role, err)
		}
		if row.Token == "" {
			t.Fatalf("role %s persisted without token", role)
		}
		if row.Status != models.BotStatusInactive {
			t.Fatalf("fresh role %s status = %q, want inactive", role, row.Status)
		}
	}

	// With the row in place a webhook update on the same store must land.
	if err := repo.SetWebhook(context.Background(), models.RoleSupport, "https://hooks.example.com/webhook/support", models.BotStatusActive); err != nil {
		t.Fatalf("SetWebhook after boot: %v", err)
	}
	if err := repo.RecordError(context.Background(), models.RoleSupport, "boom", time.Now()); err != nil {
		t.Fatalf("RecordError after boot: %v", err)
	}
}

func TestNewRegistryRestoresPersistedWebhookState(t *testing.T) {
	repo := newFakeBotRepo(&models.BotIdentity{
		Role:           models.RoleSupport,
		Token:          "support-token",
		WebhookURL:     "https://hooks.example.com/webhook/support",
		AllowedUpdates: []string{"message"},
		Status:         models.BotStatusActive,
	})

	r, err := NewRegistry(config.Config{
		SupportBotToken:  "support-token",
		SupportBotSecret: "support-secret",
		OTPBotToken:      "otp-token",
		BotOffline:       true,
	}, repo, nopLogger{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	id, err := r.Get(models.RoleSupport)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	url, status, allowed := id.webhookState()
	if url != "https://hooks.example.com/webhook/support" {
		t.Fatalf("restored url = %q", url)
	}
	if status != models.BotStatusActive {
		t.Fatalf("restored status = %q, want active", status)
	}
	if len(allowed) != 1 || allowed[0] != "message" {
		t.Fatalf("restored allowed updates = %v", allowed)
	}

	// The boot upsert must not wipe the restored webhook association.
	row, err := repo.Get(context.Background(), models.RoleSupport)
	if err != nil {
		t.Fatalf("Get row: %v", err)
	}
	if row.WebhookURL != "https://hooks.example.com/webhook/support" {
		t.Fatalf("persisted url after boot = %q", row.WebhookURL)
	}
}

func TestIdentityWebhookStateConcurrentAccess(t *testing.T) {
	id := &Identity{Role: models.RoleSupport, status: models.BotStatusInactive}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				id.setWebhookState(fmt.Sprintf("https://hooks.example.com/%d", n), models.BotStatusActive, []string{"message"})
				id.recordError("boom", time.Now())
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_, _, _ = id.webhookState()
				id.errorWithin(time.Hour, time.Now())
			}
		}()
	}
	wg.Wait()

	_, status, allowed := id.webhookState()
	if status != models.BotStatusActive {
		t.Fatalf("final status = %q, want active", status)
	}
	if len(allowed) != 1 || allowed[0] != "message" {
		t.Fatalf("final allowed updates = %v", allowed)
	}
}
