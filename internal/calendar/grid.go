package calendar

import "time"

// GridSize is six full weeks.
const GridSize = 42

// DayCell is one square of the month view.
type DayCell struct {
	Date             time.Time `json:"date"`
	InDisplayedMonth bool      `json:"in_displayed_month"`
	IsToday          bool      `json:"is_today"`
}

// GenerateGrid returns the 42 days shown for ref's month, starting on the
// Sunday on or before the 1st. Dates are midnight in ref's location.
func GenerateGrid(ref, now time.Time) []DayCell {
	loc := ref.Location()
	year, month, _ := ref.Date()

	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	start := first.AddDate(0, 0, -int(first.Weekday()))

	today := StartOfDay(now.In(loc))

	cells := make([]DayCell, 0, GridSize)
	for i := 0; i < GridSize; i++ {
		d := start.AddDate(0, 0, i)
		inMonth := d.Year() == year && d.Month() == month
		cells = append(cells, DayCell{
			Date:             d,
			InDisplayedMonth: inMonth,
			IsToday:          inMonth && d.Equal(today),
		})
	}
	return cells
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
