package finance

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

var ErrInvalidPeriod = errors.New("invalid report period")

// DefaultClinicSharePercent is the share suggested to admins.
const DefaultClinicSharePercent = 30.0

// Period selects a calendar month, or a single day when Day is set.
type Period struct {
	Year  int
	Month time.Month
	Day   int
}

func Monthly(year int, month time.Month) Period {
	return Period{Year: year, Month: month}
}

func Daily(year int, month time.Month, day int) Period {
	return Period{Year: year, Month: month, Day: day}
}

func (p Period) IsDaily() bool { return p.Day != 0 }

func (p Period) Validate() error {
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, p.Month)
	}
	if p.IsDaily() {
		last := time.Date(p.Year, p.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
		if p.Day < 1 || p.Day > last {
			return fmt.Errorf("%w: day %d", ErrInvalidPeriod, p.Day)
		}
	}
	return nil
}

// Contains reports whether t falls in the period as seen in loc.
func (p Period) Contains(t time.Time, loc *time.Location) bool {
	y, m, d := t.In(loc).Date()
	if y != p.Year || m != p.Month {
		return false
	}
	return !p.IsDaily() || d == p.Day
}

func (p Period) String() string {
	if p.IsDaily() {
		return fmt.Sprintf("%04d-%02d-%02d", p.Year, int(p.Month), p.Day)
	}
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

type ProfessionalFinancials struct {
	ProfessionalID string  `json:"professional_id"`
	Name           string  `json:"name"`
	Specialty      string  `json:"specialty"`
	CompletedCount int     `json:"completed_count"`
	TotalRevenue   float64 `json:"total_revenue"`
	AverageTicket  float64 `json:"average_ticket"`
	ClinicShare    float64 `json:"clinic_share"`
}

// Aggregate computes one row per professional from the completed
// appointments that start inside period, sorted by revenue descending.
// clinicSharePercent is applied as given.
func Aggregate(s schedule.Schedule, period Period, clinicSharePercent float64, loc *time.Location) []ProfessionalFinancials {
	if loc == nil {
		loc = time.UTC
	}

	type tally struct {
		count int
		total float64
	}
	byProfessional := make(map[string]*tally, len(s.Professionals))
	for _, p := range s.Professionals {
		byProfessional[p.ID] = &tally{}
	}

	for _, a := range s.Appointments {
		if a.Status != schedule.StatusCompleted || !period.Contains(a.Start, loc) {
			continue
		}
		t, ok := byProfessional[a.ProfessionalID]
		if !ok {
			continue
		}
		t.count++
		t.total += a.Price
	}

	rows := make([]ProfessionalFinancials, 0, len(s.Professionals))
	for _, p := range s.Professionals {
		t := byProfessional[p.ID]
		row := ProfessionalFinancials{
			ProfessionalID: p.ID,
			Name:           p.Name,
			Specialty:      p.Specialty,
			CompletedCount: t.count,
			TotalRevenue:   t.total,
			ClinicShare:    t.total * clinicSharePercent / 100,
		}
		if t.count > 0 {
			row.AverageTicket = t.total / float64(t.count)
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalRevenue > rows[j].TotalRevenue
	})
	return rows
}

type Totals struct {
	CompletedCount    int     `json:"completed_count"`
	TotalRevenue      float64 `json:"total_revenue"`
	ClinicShare       float64 `json:"clinic_share"`
	ProfessionalShare float64 `json:"professional_share"`
}

func Sum(rows []ProfessionalFinancials) Totals {
	var t Totals
	for _, r := range rows {
		t.CompletedCount += r.CompletedCount
		t.TotalRevenue += r.TotalRevenue
		t.ClinicShare += r.ClinicShare
	}
	t.ProfessionalShare = t.TotalRevenue - t.ClinicShare
	return t
}
