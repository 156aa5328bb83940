package notify

import (
	"time"

	"investbot/pkg/models"
)

const digestHour = 9 // local time for daily/weekly digests

// nextSlot computes when a notification of the given frequency should be
// promoted to delivery, relative to now.
func nextSlot(freq models.Frequency, now time.Time) time.Time {
	switch freq {
	case models.FrequencyHourly:
		return now.Add(time.Hour)
	case models.FrequencyDaily:
		slot := time.Date(now.Year(), now.Month(), now.Day(), digestHour, 0, 0, 0, now.Location())
		if !slot.After(now) {
			slot = slot.AddDate(0, 0, 1)
		}
		return slot
	case models.FrequencyWeekly:
		slot := time.Date(now.Year(), now.Month(), now.Day(), digestHour, 0, 0, 0, now.Location())
		days := (int(time.Sunday) - int(now.Weekday()) + 7) % 7
		slot = slot.AddDate(0, 0, days)
		if !slot.After(now) {
			slot = slot.AddDate(0, 0, 7)
		}
		return slot
	default:
		return now
	}
}
