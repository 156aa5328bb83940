package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"investbot/pkg/apperrors"
	"investbot/pkg/logger"
	"investbot/pkg/models"
	"investbot/storage"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...logger.Field)   {}
func (nopLogger) Info(string, ...logger.Field)    {}
func (nopLogger) Error(string, ...logger.Field)   {}
func (nopLogger) Warning(string, ...logger.Field) {}

type fakeUserStore struct {
	users map[int64]*models.User
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %d", apperrors.ErrNotFound, id)
	}
	return u, nil
}

func (f *fakeUserStore) GetByEmail(context.Context, string) (*models.User, error) {
	return nil, apperrors.ErrNotFound
}

func (f *fakeUserStore) GetByChatID(context.Context, int64) (*models.User, error) {
	return nil, apperrors.ErrNotFound
}

func (f *fakeUserStore) GetLinked(context.Context) ([]*models.User, error) { return nil, nil }

func (f *fakeUserStore) SetChatIdentity(context.Context, int64, int64, string) error { return nil }

func (f *fakeUserStore) GetTotalUsers(context.Context) (int, error) { return len(f.users), nil }

func (f *fakeUserStore) GetLinkedUsers(context.Context) (int, error) { return 0, nil }

type fakeInteractionStore struct {
	recs      []*models.InteractionRecord
	lastLimit int
}

func (f *fakeInteractionStore) Create(_ context.Context, rec *models.InteractionRecord) error {
	f.recs = append(f.recs, rec)
	return nil
}

func (f *fakeInteractionStore) GetRecent(_ context.Context, userID int64, limit int) ([]*models.InteractionRecord, error) {
	f.lastLimit = limit
	var out []*models.InteractionRecord
	for _, rec := range f.recs {
		if rec.UserID != nil && *rec.UserID == userID {
			out = append(out, rec)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeInteractionStore) CountSince(context.Context, time.Time) (int, error) {
	return len(f.recs), nil
}

type fakeStorage struct {
	users        *fakeUserStore
	interactions *fakeInteractionStore
}

func (f *fakeStorage) User() storage.IUserStorage                 { return f.users }
func (f *fakeStorage) Bot() storage.IBotStorage                   { return nil }
func (f *fakeStorage) Interaction() storage.IInteractionStorage   { return f.interactions }
func (f *fakeStorage) Notification() storage.INotificationStorage { return nil }
func (f *fakeStorage) Settings() storage.ISettingsStorage         { return nil }
func (f *fakeStorage) Close()                                     {}
func (f *fakeStorage) GetPool() *pgxpool.Pool                     { return nil }

func newTestAdmin(stg *fakeStorage) AdminService {
	return NewAdminService(nil, nil, nil, stg, nopLogger{})
}

func interactionFor(userID int64, kind string) *models.InteractionRecord {
	return &models.InteractionRecord{UserID: &userID, Kind: kind, CreatedAt: time.Now()}
}

func TestGetUserInteractionsFiltersByUser(t *testing.T) {
	stg := &fakeStorage{
		users: &fakeUserStore{users: map[int64]*models.User{
			4: {ID: 4, Email: "ana@example.com"},
			5: {ID: 5, Email: "bob@example.com"},
		}},
		interactions: &fakeInteractionStore{recs: []*models.InteractionRecord{
			interactionFor(4, models.InteractionMessage),
			interactionFor(5, models.InteractionMessage),
			interactionFor(4, models.InteractionAIResponse),
		}},
	}
	svc := newTestAdmin(stg)

	recs, err := svc.GetUserInteractions(context.Background(), 4, 0)
	if err != nil {
		t.Fatalf("GetUserInteractions: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records for user 4, got %d", len(recs))
	}
	for _, rec := range recs {
		if rec.UserID == nil || *rec.UserID != 4 {
			t.Fatalf("record for wrong user: %+v", rec)
		}
	}
}

func TestGetUserInteractionsClampsLimit(t *testing.T) {
	stg := &fakeStorage{
		users:        &fakeUserStore{users: map[int64]*models.User{4: {ID: 4}}},
		interactions: &fakeInteractionStore{},
	}
	svc := newTestAdmin(stg)

	cases := []struct {
		in   int
		want int
	}{
		{0, 20},
		{-3, 20},
		{500, 20},
		{5, 5},
	}
	for _, tc := range cases {
		if _, err := svc.GetUserInteractions(context.Background(), 4, tc.in); err != nil {
			t.Fatalf("limit %d: %v", tc.in, err)
		}
		if stg.interactions.lastLimit != tc.want {
			t.Fatalf("limit %d passed through as %d, want %d", tc.in, stg.interactions.lastLimit, tc.want)
		}
	}
}

func TestGetUserInteractionsUnknownUser(t *testing.T) {
	stg := &fakeStorage{
		users:        &fakeUserStore{users: map[int64]*models.User{}},
		interactions: &fakeInteractionStore{},
	}
	svc := newTestAdmin(stg)

	_, err := svc.GetUserInteractions(context.Background(), 99, 10)
	if !apperrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetUserInteractionsRejectsBadID(t *testing.T) {
	stg := &fakeStorage{
		users:        &fakeUserStore{users: map[int64]*models.User{}},
		interactions: &fakeInteractionStore{},
	}
	svc := newTestAdmin(stg)

	for _, id := range []int64{0, -1} {
		_, err := svc.GetUserInteractions(context.Background(), id, 10)
		if !errors.Is(err, apperrors.ErrValidation) {
			t.Fatalf("id %d: expected validation error, got %v", id, err)
		}
	}
}
