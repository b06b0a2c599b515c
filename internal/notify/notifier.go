package notify

import (
	"context"
	"sync"
	"time"

	"github.com/hackgods/clinic-scheduling/pkg/logging"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelFailure Level = "failure"
)

type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Detail  string    `json:"detail,omitempty"`
	At      time.Time `json:"at"`
}

// Feed keeps the most recent notifications for clients to poll and mirrors
// each one to the log. No state of the schedule depends on it.
type Feed struct {
	mu     sync.Mutex
	items  []Notification
	limit  int
	logger *logging.Logger
	now    func() time.Time

	subs map[chan Notification]struct{}
}

func NewFeed(limit int, logger *logging.Logger) *Feed {
	if limit <= 0 {
		limit = 50
	}
	return &Feed{
		limit:  limit,
		logger: logger.WithComponent("notify"),
		now:    time.Now,
		subs:   make(map[chan Notification]struct{}),
	}
}

func (f *Feed) Success(ctx context.Context, message string) {
	f.push(Notification{Level: LevelSuccess, Message: message})
	f.logger.InfoContext(ctx, message, "level", LevelSuccess)
}

func (f *Feed) Failure(ctx context.Context, message string, err error) {
	n := Notification{Level: LevelFailure, Message: message}
	if err != nil {
		n.Detail = err.Error()
	}
	f.push(n)
	f.logger.WarnContext(ctx, message, "level", LevelFailure, "error", n.Detail)
}

func (f *Feed) push(n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.At = f.now()
	f.items = append(f.items, n)
	if len(f.items) > f.limit {
		f.items = append([]Notification(nil), f.items[len(f.items)-f.limit:]...)
	}
	for ch := range f.subs {
		// slow subscribers miss notifications; they can still poll Recent
		select {
		case ch <- n:
		default:
		}
	}
}

// Subscribe registers a listener for notifications pushed after the call.
// The returned cancel func must be called to release it.
func (f *Feed) Subscribe(buffer int) (<-chan Notification, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Notification, buffer)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, ch)
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Recent returns up to n notifications, newest first.
func (f *Feed) Recent(n int) []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n <= 0 || n > len(f.items) {
		n = len(f.items)
	}
	out := make([]Notification, 0, n)
	for i := len(f.items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, f.items[i])
	}
	return out
}
