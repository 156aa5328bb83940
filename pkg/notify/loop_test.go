package notify

import (
	"context"
	"testing"
	"time"

	"investbot/pkg/models"
)

func TestDispatchDeliversToLinkedChat(t *testing.T) {
	e, stg, sender := newTestEngine()
	ctx := context.Background()
	stg.users.users[1] = linkedUser(1, 555)

	if _, err := e.Send(ctx, 1, models.CategoryPortfolioUpdates, map[string]string{
		"value": "$10,000", "change": "2.5", "earnings": "$150",
	}, nil); err != nil {
		t.Fatalf("Send: %v", err)
	}

	e.DispatchPass(ctx)

	if sender.count() != 1 {
		t.Fatalf("expected 1 delivery, got %d", sender.count())
	}
	msg := sender.sent[0]
	if msg.role != models.RoleCommunication {
		t.Fatalf("portfolio updates go through the communication bot, got %s", msg.role)
	}
	if msg.chatID != 555 {
		t.Fatalf("wrong chat id %d", msg.chatID)
	}
	if e.QueueDepth() != 0 {
		t.Fatalf("delivered item should leave the queue")
	}
}

func TestDispatchSystemAlertsUseAlertsBot(t *testing.T) {
	e, stg, sender := newTestEngine()
	ctx := context.Background()
	stg.users.users[1] = linkedUser(1, 42)

	if _, err := e.Send(ctx, 1, models.CategorySystemAlerts, map[string]string{"message": "maintenance"}, nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	e.DispatchPass(ctx)

	if sender.count() != 1 || sender.sent[0].role != models.RoleAlerts {
		t.Fatalf("system alerts must use the alerts bot, got %v", sender.sent)
	}
}

func TestDispatchMarksRecordSent(t *testing.T) {
	e, stg, _ := newTestEngine()
	ctx := context.Background()
	stg.users.users[1] = linkedUser(1, 7)

	e.Send(ctx, 1, models.CategoryNews, map[string]string{"headline": "h", "summary": "s"}, nil)
	item := e.queue.PopReady(time.Now().Add(time.Second), 1)[0]
	e.queue.Push(item)

	e.DispatchPass(ctx)
	if stg.notes.statusOf(item.ID) != models.NotificationStatusSent {
		t.Fatalf("expected sent status, got %q", stg.notes.statusOf(item.ID))
	}
}

func TestDispatchRetriesWithBackoffThenDrops(t *testing.T) {
	e, stg, sender := newTestEngine()
	ctx := context.Background()
	stg.users.users[1] = linkedUser(1, 9)
	sender.failures = 10

	t0 := time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)
	current := t0
	e.now = func() time.Time { return current }

	e.Send(ctx, 1, models.CategorySystemAlerts, map[string]string{"message": "down"}, nil)

	// First attempt fails and reschedules one minute out.
	e.DispatchPass(ctx)
	if e.QueueDepth() != 1 {
		t.Fatalf("expected retry in queue, got depth %d", e.QueueDepth())
	}

	// Not due yet: nothing is attempted.
	current = t0.Add(30 * time.Second)
	e.DispatchPass(ctx)
	if e.QueueDepth() != 1 {
		t.Fatalf("early pass must not touch the retry, depth %d", e.QueueDepth())
	}

	// Second attempt.
	current = t0.Add(2 * time.Minute)
	e.DispatchPass(ctx)
	if e.QueueDepth() != 1 {
		t.Fatalf("expected second retry in queue, got depth %d", e.QueueDepth())
	}

	// Third attempt is the last: the item is dropped, never requeued.
	current = t0.Add(10 * time.Minute)
	e.DispatchPass(ctx)
	if e.QueueDepth() != 0 {
		t.Fatalf("expected drop after final retry, depth %d", e.QueueDepth())
	}
	if sender.count() != 0 {
		t.Fatalf("no delivery should have succeeded")
	}
	if n, _ := stg.notes.CountByStatusSince(ctx, models.NotificationStatusFailed, time.Time{}); n != 1 {
		t.Fatalf("expected 1 failed audit status, got %d", n)
	}

	// The failing sender was asked exactly three times.
	if attempts := 10 - sender.failures; attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestDispatchPassSingleFlightPerEngine(t *testing.T) {
	e, stg, sender := newTestEngine()
	ctx := context.Background()
	stg.users.users[1] = linkedUser(1, 555)

	e.Send(ctx, 1, models.CategoryNews, map[string]string{"headline": "h", "summary": "s"}, nil)

	// While a pass is in flight, a forced flush on the same engine is a
	// no-op instead of a second concurrent consumer.
	e.inFlight.Store(true)
	e.DispatchPass(ctx)
	if sender.count() != 0 || e.QueueDepth() != 1 {
		t.Fatalf("pass ran despite in-flight guard: sent=%d depth=%d", sender.count(), e.QueueDepth())
	}

	e.inFlight.Store(false)
	e.DispatchPass(ctx)
	if sender.count() != 1 || e.QueueDepth() != 0 {
		t.Fatalf("released guard should allow the pass: sent=%d depth=%d", sender.count(), e.QueueDepth())
	}
}

func TestDispatchUnlinkedUserFails(t *testing.T) {
	e, stg, sender := newTestEngine()
	ctx := context.Background()
	stg.users.users[1] = &models.User{ID: 1, Email: "a@b.c", LinkStatus: models.LinkStatusUnlinked}

	t0 := time.Now()
	current := t0
	e.now = func() time.Time { return current }

	e.Send(ctx, 1, models.CategoryNews, map[string]string{"headline": "h", "summary": "s"}, nil)
	e.DispatchPass(ctx)

	if sender.count() != 0 {
		t.Fatalf("unlinked user must not receive chat messages")
	}
	if e.QueueDepth() != 1 {
		t.Fatalf("failed delivery should be rescheduled, depth %d", e.QueueDepth())
	}
}
