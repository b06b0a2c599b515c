package appointment

import (
	"context"
	"errors"

	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

// ErrNoSnapshot is returned by a SnapshotStore that has never been saved to.
var ErrNoSnapshot = errors.New("no stored schedule snapshot")

// SnapshotStore persists the whole schedule after every mutation.
type SnapshotStore interface {
	Load(ctx context.Context) (*schedule.Schedule, error)
	Save(ctx context.Context, s schedule.Schedule) error
}

// EventLogger records audit events.
type EventLogger interface {
	InsertEvent(ctx context.Context, ev EventLog) error
}

// Notifier receives human readable outcomes of each operation.
type Notifier interface {
	Success(ctx context.Context, message string)
	Failure(ctx context.Context, message string, err error)
}

// Assistant turns a free-text instruction and the current schedule into a
// full replacement schedule.
type Assistant interface {
	Revise(ctx context.Context, instruction string, current schedule.Schedule) (schedule.Schedule, error)
}
