package notify

import (
	"testing"
	"time"

	"investbot/pkg/models"
)

func queuedAt(id string, p models.Priority, at time.Time) *models.QueuedNotification {
	return &models.QueuedNotification{ID: id, Priority: p, ScheduledAt: at}
}

func TestPopReadyOrdersByPriority(t *testing.T) {
	q := NewMemoryQueue()
	now := time.Now()
	past := now.Add(-time.Minute)

	q.Push(queuedAt("low", models.PriorityLow, past))
	q.Push(queuedAt("urgent", models.PriorityUrgent, past))
	q.Push(queuedAt("medium", models.PriorityMedium, past))

	items := q.PopReady(now, 10)
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	want := []string{"urgent", "medium", "low"}
	for i, id := range want {
		if items[i].ID != id {
			t.Fatalf("position %d: got %s, want %s", i, items[i].ID, id)
		}
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, got %d", q.Len())
	}
}

func TestPopReadySamePriorityOldestFirst(t *testing.T) {
	q := NewMemoryQueue()
	now := time.Now()

	q.Push(queuedAt("newer", models.PriorityHigh, now.Add(-time.Minute)))
	q.Push(queuedAt("older", models.PriorityHigh, now.Add(-time.Hour)))

	items := q.PopReady(now, 10)
	if len(items) != 2 || items[0].ID != "older" || items[1].ID != "newer" {
		t.Fatalf("unexpected order: %v", ids(items))
	}
}

func TestPopReadySkipsFutureItems(t *testing.T) {
	q := NewMemoryQueue()
	now := time.Now()

	q.Push(queuedAt("ready", models.PriorityLow, now.Add(-time.Second)))
	q.Push(queuedAt("scheduled", models.PriorityUrgent, now.Add(time.Hour)))

	items := q.PopReady(now, 10)
	if len(items) != 1 || items[0].ID != "ready" {
		t.Fatalf("unexpected items: %v", ids(items))
	}
	if q.Len() != 1 {
		t.Fatalf("future item should stay queued, len=%d", q.Len())
	}
}

func TestPopReadyRespectsLimit(t *testing.T) {
	q := NewMemoryQueue()
	now := time.Now()
	past := now.Add(-time.Minute)

	q.Push(queuedAt("a", models.PriorityUrgent, past))
	q.Push(queuedAt("b", models.PriorityHigh, past))
	q.Push(queuedAt("c", models.PriorityLow, past))

	items := q.PopReady(now, 2)
	if len(items) != 2 || items[0].ID != "a" || items[1].ID != "b" {
		t.Fatalf("unexpected items: %v", ids(items))
	}
	if q.Len() != 1 {
		t.Fatalf("overflow item should stay queued, len=%d", q.Len())
	}
}

func ids(items []*models.QueuedNotification) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}
