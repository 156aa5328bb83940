package notify

import (
	"sort"
	"sync"
	"time"

	"investbot/pkg/models"
)

// Queue holds pending notifications. Producers only append; the dispatch
// loop is the sole remover, so PopReady hands ownership of the returned
// items to the caller.
type Queue interface {
	Push(n *models.QueuedNotification)
	PopReady(now time.Time, limit int) []*models.QueuedNotification
	Len() int
}

type memoryQueue struct {
	mu    sync.Mutex
	items []*models.QueuedNotification
}

func NewMemoryQueue() Queue {
	return &memoryQueue{}
}

func (q *memoryQueue) Push(n *models.QueuedNotification) {
	q.mu.Lock()
	q.items = append(q.items, n)
	q.mu.Unlock()
}

// PopReady removes and returns up to limit items with scheduled_at <=
// now, ordered by priority rank then scheduled_at.
func (q *memoryQueue) PopReady(now time.Time, limit int) []*models.QueuedNotification {
	q.mu.Lock()
	defer q.mu.Unlock()

	var ready, rest []*models.QueuedNotification
	for _, item := range q.items {
		if !item.ScheduledAt.After(now) {
			ready = append(ready, item)
		} else {
			rest = append(rest, item)
		}
	}

	sort.SliceStable(ready, func(i, j int) bool {
		ri, rj := ready[i].Priority.Rank(), ready[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return ready[i].ScheduledAt.Before(ready[j].ScheduledAt)
	})

	if len(ready) > limit {
		rest = append(rest, ready[limit:]...)
		ready = ready[:limit]
	}
	q.items = rest
	return ready
}

func (q *memoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
