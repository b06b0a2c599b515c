package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

func appt(id, prof string, start time.Time, status schedule.Status, price float64) schedule.Appointment {
	return schedule.Appointment{
		ID: id, ProfessionalID: prof, PatientID: "pat_1", PatientName: "P",
		Start: start, End: start.Add(45 * time.Minute), Status: status, Price: price,
	}
}

func fixture() schedule.Schedule {
	june := func(day, hour int) time.Time { return time.Date(2024, time.June, day, hour, 0, 0, 0, time.UTC) }
	return schedule.Schedule{
		Professionals: []schedule.Professional{
			{ID: "prof_1", Name: "Ana", Specialty: "Cardiology"},
			{ID: "prof_2", Name: "João", Specialty: "Physiotherapy"},
			{ID: "prof_3", Name: "Carlos", Specialty: "Dentistry"},
		},
		Appointments: []schedule.Appointment{
			appt("a1", "prof_2", june(3, 9), schedule.StatusCompleted, 150),
			appt("a2", "prof_2", june(10, 9), schedule.StatusCompleted, 150),
			appt("a3", "prof_2", june(11, 9), schedule.StatusScheduled, 150),
			appt("a4", "prof_1", june(3, 10), schedule.StatusCompleted, 250),
			appt("a5", "prof_1", june(3, 11), schedule.StatusCancelled, 250),
			appt("a6", "prof_1", june(4, 10), schedule.StatusConfirmed, 250),
			appt("a7", "prof_1", time.Date(2024, time.May, 31, 10, 0, 0, 0, time.UTC), schedule.StatusCompleted, 250),
			appt("a8", "prof_ghost", june(3, 12), schedule.StatusCompleted, 999),
		},
	}
}

func byID(rows []ProfessionalFinancials) map[string]ProfessionalFinancials {
	out := make(map[string]ProfessionalFinancials, len(rows))
	for _, r := range rows {
		out[r.ProfessionalID] = r
	}
	return out
}

func TestAggregate_MonthlyOnlyCompleted(t *testing.T) {
	rows := Aggregate(fixture(), Monthly(2024, time.June), 30, time.UTC)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"prof_2", "prof_1", "prof_3"},
		[]string{rows[0].ProfessionalID, rows[1].ProfessionalID, rows[2].ProfessionalID})

	got := byID(rows)
	assert.Equal(t, 2, got["prof_2"].CompletedCount)
	assert.Equal(t, 300.0, got["prof_2"].TotalRevenue)
	assert.Equal(t, 150.0, got["prof_2"].AverageTicket)
	assert.Equal(t, 90.0, got["prof_2"].ClinicShare)

	assert.Equal(t, 1, got["prof_1"].CompletedCount)
	assert.Equal(t, 250.0, got["prof_1"].TotalRevenue)

	assert.Equal(t, ProfessionalFinancials{ProfessionalID: "prof_3", Name: "Carlos", Specialty: "Dentistry"}, got["prof_3"])
}

func TestAggregate_Daily(t *testing.T) {
	rows := Aggregate(fixture(), Daily(2024, time.June, 3), 50, time.UTC)

	got := byID(rows)
	assert.Equal(t, 1, got["prof_2"].CompletedCount)
	assert.Equal(t, 150.0, got["prof_2"].TotalRevenue)
	assert.Equal(t, 75.0, got["prof_2"].ClinicShare)
	assert.Equal(t, 250.0, got["prof_1"].TotalRevenue)
	assert.Equal(t, "prof_1", rows[0].ProfessionalID)
}

func TestAggregate_PeriodUsesLocation(t *testing.T) {
	brt := time.FixedZone("BRT", -3*3600)
	s := schedule.Schedule{
		Professionals: []schedule.Professional{{ID: "p", Name: "P", Specialty: "S"}},
		Appointments: []schedule.Appointment{
			// 01:00 UTC on July 1st is still June 30th in BRT.
			appt("a", "p", time.Date(2024, time.July, 1, 1, 0, 0, 0, time.UTC), schedule.StatusCompleted, 100),
		},
	}

	assert.Equal(t, 100.0, Aggregate(s, Monthly(2024, time.June), 0, brt)[0].TotalRevenue)
	assert.Equal(t, 0.0, Aggregate(s, Monthly(2024, time.June), 0, time.UTC)[0].TotalRevenue)
	assert.Equal(t, 100.0, Aggregate(s, Monthly(2024, time.July), 0, nil)[0].TotalRevenue)
}

func TestAggregate_ShareAndTicketIdentities(t *testing.T) {
	s := fixture()
	for _, pct := range []float64{0, 12.5, 30, 100, 150, -10} {
		for _, r := range Aggregate(s, Monthly(2024, time.June), pct, time.UTC) {
			assert.Equal(t, r.TotalRevenue*pct/100, r.ClinicShare)
			assert.InDelta(t, r.TotalRevenue, r.AverageTicket*float64(r.CompletedCount), 1e-9)
		}
	}
}

func TestAggregate_TiesKeepProfessionalOrder(t *testing.T) {
	s := schedule.Schedule{Professionals: []schedule.Professional{
		{ID: "b", Name: "B", Specialty: "x"},
		{ID: "a", Name: "A", Specialty: "x"},
	}}
	rows := Aggregate(s, Monthly(2024, time.June), 30, time.UTC)
	assert.Equal(t, "b", rows[0].ProfessionalID)
	assert.Equal(t, "a", rows[1].ProfessionalID)
}

func TestSum(t *testing.T) {
	totals := Sum(Aggregate(fixture(), Monthly(2024, time.June), 30, time.UTC))

	assert.Equal(t, 3, totals.CompletedCount)
	assert.Equal(t, 550.0, totals.TotalRevenue)
	assert.InDelta(t, 165.0, totals.ClinicShare, 1e-9)
	assert.InDelta(t, 385.0, totals.ProfessionalShare, 1e-9)
}

func TestPeriod(t *testing.T) {
	assert.NoError(t, Monthly(2024, time.February).Validate())
	assert.NoError(t, Daily(2024, time.February, 29).Validate())
	assert.ErrorIs(t, Daily(2023, time.February, 29).Validate(), ErrInvalidPeriod)
	assert.ErrorIs(t, Monthly(2024, 13).Validate(), ErrInvalidPeriod)

	assert.Equal(t, "2024-06", Monthly(2024, time.June).String())
	assert.Equal(t, "2024-06-03", Daily(2024, time.June, 3).String())
}
