package notify

import (
	"testing"
	"time"

	"investbot/pkg/models"
)

func TestNextSlotInstant(t *testing.T) {
	now := time.Date(2025, 6, 4, 14, 30, 0, 0, time.UTC)
	if got := nextSlot(models.FrequencyInstant, now); !got.Equal(now) {
		t.Fatalf("instant: got %v, want %v", got, now)
	}
}

func TestNextSlotHourly(t *testing.T) {
	now := time.Date(2025, 6, 4, 14, 30, 0, 0, time.UTC)
	want := now.Add(time.Hour)
	if got := nextSlot(models.FrequencyHourly, now); !got.Equal(want) {
		t.Fatalf("hourly: got %v, want %v", got, want)
	}
}

func TestNextSlotDaily(t *testing.T) {
	// Past today's digest hour rolls to tomorrow.
	now := time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)
	want := time.Date(2025, 6, 5, 9, 0, 0, 0, time.UTC)
	if got := nextSlot(models.FrequencyDaily, now); !got.Equal(want) {
		t.Fatalf("daily after digest: got %v, want %v", got, want)
	}

	// Before the digest hour stays on today.
	now = time.Date(2025, 6, 4, 8, 0, 0, 0, time.UTC)
	want = time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)
	if got := nextSlot(models.FrequencyDaily, now); !got.Equal(want) {
		t.Fatalf("daily before digest: got %v, want %v", got, want)
	}
}

func TestNextSlotWeekly(t *testing.T) {
	// Wednesday rolls forward to Sunday 09:00.
	now := time.Date(2025, 6, 4, 14, 0, 0, 0, time.UTC)
	want := time.Date(2025, 6, 8, 9, 0, 0, 0, time.UTC)
	if got := nextSlot(models.FrequencyWeekly, now); !got.Equal(want) {
		t.Fatalf("weekly from wednesday: got %v, want %v", got, want)
	}

	// Sunday past the digest hour rolls a full week.
	now = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	want = time.Date(2025, 6, 8, 9, 0, 0, 0, time.UTC)
	if got := nextSlot(models.FrequencyWeekly, now); !got.Equal(want) {
		t.Fatalf("weekly from sunday: got %v, want %v", got, want)
	}
}
