package calendar

import (
	"fmt"
	"strings"
	"time"
)

// SlotLength is the fixed consultation length.
const SlotLength = 45 * time.Minute

// CollisionMode selects how an existing appointment blocks a candidate slot.
type CollisionMode int

const (
	// CollisionInstant blocks a slot only when an appointment starts at
	// exactly the same instant. Appointments of non-standard length do not
	// block the slots they merely overlap.
	CollisionInstant CollisionMode = iota
	// CollisionOverlap blocks a slot whose [start, start+length) intersects
	// any existing interval.
	CollisionOverlap
)

func (m CollisionMode) String() string {
	switch m {
	case CollisionOverlap:
		return "overlap"
	default:
		return "instant"
	}
}

// ParseCollisionMode accepts "instant" (or empty) and "overlap".
func ParseCollisionMode(s string) (CollisionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "instant":
		return CollisionInstant, nil
	case "overlap":
		return CollisionOverlap, nil
	default:
		return CollisionInstant, fmt.Errorf("unknown collision mode %q", s)
	}
}

// Interval is a half-open [Start, End) span.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether [start, end) intersects i.
func (i Interval) Overlaps(start, end time.Time) bool {
	return start.Before(i.End) && i.Start.Before(end)
}

// SlotPolicy describes the working day of a professional.
type SlotPolicy struct {
	OpenHour   int
	CloseHour  int
	SlotLength time.Duration
	Collision  CollisionMode
}

// DefaultPolicy is 09:00-18:00 on weekdays in 45 minute steps.
var DefaultPolicy = SlotPolicy{
	OpenHour:   9,
	CloseHour:  18,
	SlotLength: SlotLength,
	Collision:  CollisionInstant,
}

// IsWeekend reports Saturday or Sunday.
func IsWeekend(day time.Time) bool {
	wd := day.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Candidates lists every slot start of the day before filtering, stepping
// SlotLength from the opening hour while the start is before closing.
// Starts run continuously (09:00, 09:45, 10:30, ...), not at :00 and :45 of
// every hour, so the default policy yields 12 non-overlapping slots.
func (p SlotPolicy) Candidates(day time.Time) []time.Time {
	if IsWeekend(day) || p.SlotLength <= 0 {
		return nil
	}

	y, m, d := day.Date()
	loc := day.Location()
	open := time.Date(y, m, d, p.OpenHour, 0, 0, 0, loc)
	closing := time.Date(y, m, d, p.CloseHour, 0, 0, 0, loc)

	var out []time.Time
	for t := open; t.Before(closing); t = t.Add(p.SlotLength) {
		out = append(out, t)
	}
	return out
}

// Available returns the bookable slot starts of day, ascending. existing
// must already hold only the appointments that should block (the caller
// drops cancelled ones).
func (p SlotPolicy) Available(day time.Time, existing []Interval, now time.Time) []time.Time {
	candidates := p.Candidates(day)
	if len(candidates) == 0 {
		return []time.Time{}
	}

	booked := make(map[int64]struct{}, len(existing))
	for _, iv := range existing {
		booked[iv.Start.UnixNano()] = struct{}{}
	}

	slots := make([]time.Time, 0, len(candidates))
	for _, start := range candidates {
		if !start.After(now) {
			continue
		}
		if p.blocked(start, existing, booked) {
			continue
		}
		slots = append(slots, start)
	}
	return slots
}

func (p SlotPolicy) blocked(start time.Time, existing []Interval, booked map[int64]struct{}) bool {
	if p.Collision == CollisionOverlap {
		end := start.Add(p.SlotLength)
		for _, iv := range existing {
			if iv.Overlaps(start, end) {
				return true
			}
		}
		return false
	}
	_, ok := booked[start.UnixNano()]
	return ok
}

// AvailableSlots applies DefaultPolicy.
func AvailableSlots(day time.Time, existing []Interval, now time.Time) []time.Time {
	return DefaultPolicy.Available(day, existing, now)
}
