package appointment

import (
	"context"
	"sync"

	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

// MemoryRepository keeps the last saved snapshot as an encoded document so
// a Load never aliases the service's live aggregate.
type MemoryRepository struct {
	mu     sync.Mutex
	data   []byte
	events []EventLog
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Load(ctx context.Context) (*schedule.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.data == nil {
		return nil, ErrNoSnapshot
	}
	s, err := schedule.Unmarshal(r.data)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *MemoryRepository) Save(ctx context.Context, s schedule.Schedule) error {
	data, err := schedule.Marshal(s)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = data
	return nil
}

func (r *MemoryRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev.ID = int64(len(r.events) + 1)
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded audit log.
func (r *MemoryRepository) Events() []EventLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]EventLog(nil), r.events...)
}
