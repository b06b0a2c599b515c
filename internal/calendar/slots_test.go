package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day time.Time, hour, minute int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, day.Location())
}

func clock(slots []time.Time) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Format("15:04"))
	}
	return out
}

var monday = time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)

func TestAvailableSlots_Weekend(t *testing.T) {
	past := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	saturday := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	sunday := saturday.AddDate(0, 0, 1)

	assert.Empty(t, AvailableSlots(saturday, nil, past))
	assert.Empty(t, AvailableSlots(sunday, nil, past))
	assert.NotNil(t, AvailableSlots(sunday, nil, past))
}

func TestAvailableSlots_EmptyWeekday(t *testing.T) {
	now := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)

	slots := AvailableSlots(monday, nil, now)

	assert.Equal(t, []string{
		"09:00", "09:45", "10:30", "11:15", "12:00", "12:45",
		"13:30", "14:15", "15:00", "15:45", "16:30", "17:15",
	}, clock(slots))
	assert.Len(t, slots, (18-9)*60/45)

	for i, s := range slots {
		assert.Zero(t, s.Sub(at(monday, 9, 0))%SlotLength)
		if i > 0 {
			assert.True(t, s.After(slots[i-1]))
		}
	}
}

func TestAvailableSlots_ExcludesBookedStarts(t *testing.T) {
	now := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)
	existing := []Interval{
		{Start: at(monday, 9, 45), End: at(monday, 10, 30)},
		{Start: at(monday, 17, 15), End: at(monday, 18, 0)},
	}

	slots := AvailableSlots(monday, existing, now)

	require.Len(t, slots, 10)
	assert.NotContains(t, clock(slots), "09:45")
	assert.NotContains(t, clock(slots), "17:15")
}

func TestAvailableSlots_BookedInstantInOtherZone(t *testing.T) {
	now := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)
	brt := time.FixedZone("BRT", -3*3600)
	// 09:00 UTC expressed in BRT.
	existing := []Interval{{Start: time.Date(2024, time.June, 3, 6, 0, 0, 0, brt)}}

	slots := AvailableSlots(monday, existing, now)

	assert.NotContains(t, clock(slots), "09:00")
}

func TestAvailableSlots_OnlyFuture(t *testing.T) {
	// Exactly at 12:00 the 12:00 slot is no longer bookable.
	now := at(monday, 12, 0)

	slots := AvailableSlots(monday, nil, now)

	assert.Equal(t, []string{"12:45", "13:30", "14:15", "15:00", "15:45", "16:30", "17:15"}, clock(slots))
}

func TestAvailableSlots_PastDay(t *testing.T) {
	now := monday.AddDate(0, 0, 1)
	assert.Empty(t, AvailableSlots(monday, nil, now))
}

func TestAvailableSlots_InstantModeIgnoresMisalignedAppointments(t *testing.T) {
	now := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)
	existing := []Interval{{Start: at(monday, 10, 0), End: at(monday, 11, 0)}}

	slots := AvailableSlots(monday, existing, now)

	assert.Len(t, slots, 12)
}

func TestAvailableSlots_OverlapMode(t *testing.T) {
	now := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)
	existing := []Interval{{Start: at(monday, 10, 0), End: at(monday, 11, 0)}}
	policy := DefaultPolicy
	policy.Collision = CollisionOverlap

	slots := policy.Available(monday, existing, now)

	got := clock(slots)
	assert.Len(t, got, 10)
	assert.NotContains(t, got, "09:45")
	assert.NotContains(t, got, "10:30")
	assert.Contains(t, got, "09:00")
	assert.Contains(t, got, "11:15")
}

func TestInterval_OverlapsIsHalfOpen(t *testing.T) {
	iv := Interval{Start: at(monday, 9, 0), End: at(monday, 9, 45)}

	assert.False(t, iv.Overlaps(at(monday, 9, 45), at(monday, 10, 30)))
	assert.False(t, iv.Overlaps(at(monday, 8, 15), at(monday, 9, 0)))
	assert.True(t, iv.Overlaps(at(monday, 9, 30), at(monday, 10, 15)))
}

func TestParseCollisionMode(t *testing.T) {
	m, err := ParseCollisionMode("")
	require.NoError(t, err)
	assert.Equal(t, CollisionInstant, m)

	m, err = ParseCollisionMode("Overlap")
	require.NoError(t, err)
	assert.Equal(t, CollisionOverlap, m)
	assert.Equal(t, "overlap", m.String())

	_, err = ParseCollisionMode("fuzzy")
	assert.Error(t, err)
}

func TestCandidates_ZeroLengthPolicy(t *testing.T) {
	assert.Empty(t, SlotPolicy{OpenHour: 9, CloseHour: 18}.Candidates(monday))
}
