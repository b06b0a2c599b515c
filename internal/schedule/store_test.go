package schedule

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.June, 3, 8, 0, 0, 0, time.UTC)

func sequentialIDs(t *testing.T) {
	t.Helper()
	orig := NewID
	n := 0
	NewID = func(prefix string) string {
		n++
		return fmt.Sprintf("%s_test_%d", prefix, n)
	}
	t.Cleanup(func() { NewID = orig })
}

func newSchedule() *Schedule {
	return Default(fixedNow, time.UTC)
}

func TestUpsertPatient_ReusesCaseInsensitiveMatch(t *testing.T) {
	s := &Schedule{Patients: []Patient{{ID: "pat_9", Name: "Maria Lima"}}}

	p, err := s.UpsertPatient("  maria lima ")
	require.NoError(t, err)

	assert.Equal(t, "pat_9", p.ID)
	assert.Len(t, s.Patients, 1)
}

func TestUpsertPatient_CreatesTrimmedPatient(t *testing.T) {
	sequentialIDs(t)
	s := &Schedule{}

	p, err := s.UpsertPatient("  Juliana Paes  ")
	require.NoError(t, err)

	assert.Equal(t, Patient{ID: "pat_test_1", Name: "Juliana Paes"}, p)
	assert.Equal(t, []Patient{p}, s.Patients)

	again, err := s.UpsertPatient("JULIANA PAES")
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	assert.Len(t, s.Patients, 1)
}

func TestUpsertPatient_RejectsBlank(t *testing.T) {
	s := &Schedule{}
	_, err := s.UpsertPatient(" \t ")
	assert.ErrorIs(t, err, ErrInvalidPatientName)
	assert.Empty(t, s.Patients)
}

func TestFindPatientByName(t *testing.T) {
	s := newSchedule()

	p, ok := s.FindPatientByName("mariana COSTA")
	require.True(t, ok)
	assert.Equal(t, "pat_3", p.ID)

	_, ok = s.FindPatientByName("Nobody")
	assert.False(t, ok)

	_, ok = s.FindPatientByName("")
	assert.False(t, ok)
}

func TestAddProfessional(t *testing.T) {
	sequentialIDs(t)
	s := &Schedule{}
	fee := 200.0

	p, err := s.AddProfessional(" Dra. Paula ", "Dermatology", &fee)
	require.NoError(t, err)
	assert.Equal(t, "prof_test_1", p.ID)
	assert.Equal(t, "Dra. Paula", p.Name)
	require.NotNil(t, p.ConsultationPrice)
	assert.Equal(t, 200.0, *p.ConsultationPrice)

	fee = 999
	assert.Equal(t, 200.0, *s.Professionals[0].ConsultationPrice)
}

func TestAddProfessional_Validation(t *testing.T) {
	neg := -1.0
	tests := []struct {
		name      string
		prof      string
		specialty string
		price     *float64
	}{
		{"blank name", " ", "Cardiology", nil},
		{"blank specialty", "Dr. X", "", nil},
		{"negative price", "Dr. X", "Cardiology", &neg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Schedule{}
			_, err := s.AddProfessional(tt.prof, tt.specialty, tt.price)
			assert.ErrorIs(t, err, ErrInvalidProfessional)
			assert.Empty(t, s.Professionals)
		})
	}
}

func TestRemoveProfessional_Cascades(t *testing.T) {
	s := newSchedule()
	before := s.Clone()

	require.True(t, s.RemoveProfessional("prof_1"))

	_, ok := s.Professional("prof_1")
	assert.False(t, ok)
	for _, a := range s.Appointments {
		assert.NotEqual(t, "prof_1", a.ProfessionalID)
	}

	var othersBefore []Appointment
	for _, a := range before.Appointments {
		if a.ProfessionalID != "prof_1" {
			othersBefore = append(othersBefore, a)
		}
	}
	assert.Equal(t, othersBefore, s.Appointments)
	assert.Equal(t, before.Patients, s.Patients)
	assert.Equal(t, []Professional{before.Professionals[1], before.Professionals[2]}, s.Professionals)
}

func TestRemoveProfessional_Unknown(t *testing.T) {
	s := newSchedule()
	assert.False(t, s.RemoveProfessional("prof_404"))
	assert.Len(t, s.Professionals, 3)
	assert.Len(t, s.Appointments, 5)
}

func TestUpdateProfessional_PartialMerge(t *testing.T) {
	s := newSchedule()
	specialty := "Orthopedics"

	p, found, err := s.UpdateProfessional("prof_2", ProfessionalUpdate{Specialty: &specialty})
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, "Dr. João Souza", p.Name)
	assert.Equal(t, "Orthopedics", p.Specialty)
	assert.Equal(t, 150.0, *p.ConsultationPrice)

	stored, _ := s.Professional("prof_2")
	assert.Equal(t, p, stored)
}

func TestUpdateProfessional_InvalidLeavesUntouched(t *testing.T) {
	s := newSchedule()
	blank := ""

	_, found, err := s.UpdateProfessional("prof_2", ProfessionalUpdate{Name: &blank})
	assert.True(t, found)
	assert.ErrorIs(t, err, ErrInvalidProfessional)

	stored, _ := s.Professional("prof_2")
	assert.Equal(t, "Dr. João Souza", stored.Name)

	_, found, err = s.UpdateProfessional("prof_404", ProfessionalUpdate{Name: &blank})
	assert.False(t, found)
	assert.NoError(t, err)
}

func TestAddAppointment_CapturesPrice(t *testing.T) {
	sequentialIDs(t)
	s := newSchedule()
	start := time.Date(2024, time.June, 4, 9, 45, 0, 0, time.UTC)
	patient := Patient{ID: "pat_1", Name: "Fernanda Lima"}

	a, err := s.AddAppointment("prof_3", patient, start, start.Add(45*time.Minute), DefaultPrice)
	require.NoError(t, err)

	assert.Equal(t, "appt_test_1", a.ID)
	assert.Equal(t, StatusScheduled, a.Status)
	assert.Equal(t, 300.0, a.Price)
	assert.Equal(t, "Fernanda Lima", a.PatientName)
	assert.Equal(t, a, s.Appointments[len(s.Appointments)-1])

	// Later price changes do not touch booked appointments.
	newFee := 500.0
	_, _, err = s.UpdateProfessional("prof_3", ProfessionalUpdate{ConsultationPrice: &newFee})
	require.NoError(t, err)
	stored, _ := s.Appointment(a.ID)
	assert.Equal(t, 300.0, stored.Price)
}

func TestAddAppointment_FallbackPrice(t *testing.T) {
	s := &Schedule{Professionals: []Professional{
		{ID: "p1", Name: "A", Specialty: "B"},
		{ID: "p2", Name: "C", Specialty: "D", ConsultationPrice: price(0)},
	}}
	patient := Patient{ID: "pat_1", Name: "X"}
	start := fixedNow.Add(time.Hour)

	a, err := s.AddAppointment("p1", patient, start, start.Add(time.Hour), 120)
	require.NoError(t, err)
	assert.Equal(t, 120.0, a.Price)

	b, err := s.AddAppointment("p2", patient, start, start.Add(time.Hour), 120)
	require.NoError(t, err)
	assert.Equal(t, 120.0, b.Price)
}

func TestAddAppointment_Errors(t *testing.T) {
	s := newSchedule()
	patient := Patient{ID: "pat_1", Name: "Fernanda Lima"}
	start := fixedNow.Add(time.Hour)

	_, err := s.AddAppointment("prof_404", patient, start, start.Add(time.Hour), DefaultPrice)
	assert.ErrorIs(t, err, ErrProfessionalNotFound)

	_, err = s.AddAppointment("prof_1", patient, start, start, DefaultPrice)
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = s.AddAppointment("prof_1", Patient{}, start, start.Add(time.Hour), DefaultPrice)
	assert.ErrorIs(t, err, ErrInvalidPatientName)

	assert.Len(t, s.Appointments, 5)
}

func TestUpdateAppointmentStatus_AnyTransition(t *testing.T) {
	s := newSchedule()

	for _, from := range Statuses {
		for _, to := range Statuses {
			s.Appointments[0].Status = from
			ok, err := s.UpdateAppointmentStatus("appt_1", to)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, to, s.Appointments[0].Status)
		}
	}
}

func TestUpdateAppointmentStatus_UnknownAndInvalid(t *testing.T) {
	s := newSchedule()

	ok, err := s.UpdateAppointmentStatus("appt_404", StatusCompleted)
	assert.NoError(t, err)
	assert.False(t, ok)

	_, err = s.UpdateAppointmentStatus("appt_1", Status("done"))
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Equal(t, StatusConfirmed, s.Appointments[0].Status)
}

func TestCancelAppointment_Idempotent(t *testing.T) {
	s := newSchedule()

	assert.True(t, s.CancelAppointment("appt_2"))
	assert.True(t, s.CancelAppointment("appt_2"))
	a, _ := s.Appointment("appt_2")
	assert.Equal(t, StatusCancelled, a.Status)

	assert.False(t, s.CancelAppointment("appt_404"))
}

func TestUpdateAppointmentNotes(t *testing.T) {
	s := newSchedule()

	assert.True(t, s.UpdateAppointmentNotes("appt_2", "bring exams"))
	a, _ := s.Appointment("appt_2")
	assert.Equal(t, "bring exams", a.Notes)

	assert.False(t, s.UpdateAppointmentNotes("appt_404", "x"))
}

func TestAppointmentsOn(t *testing.T) {
	s := newSchedule()
	tomorrow := time.Date(2024, time.June, 4, 0, 0, 0, 0, time.UTC)

	got := s.AppointmentsOn("prof_1", tomorrow)
	require.Len(t, got, 1)
	assert.Equal(t, "appt_1", got[0].ID)

	all := s.AppointmentsFor("prof_1")
	require.Len(t, all, 3)
	assert.Equal(t, []string{"appt_5", "appt_1", "appt_3"}, []string{all[0].ID, all[1].ID, all[2].ID})
}

func TestPatientAppointments(t *testing.T) {
	s := newSchedule()

	upcoming, past := s.PatientAppointments(" lucas pereira", fixedNow)

	require.Len(t, upcoming, 1)
	assert.Equal(t, "appt_4", upcoming[0].ID)
	require.Len(t, past, 1)
	assert.Equal(t, "appt_5", past[0].ID)

	upcoming, past = s.PatientAppointments("", fixedNow)
	assert.Empty(t, upcoming)
	assert.Empty(t, past)
}

func TestClone_IsDeep(t *testing.T) {
	s := newSchedule()
	c := s.Clone()

	*c.Professionals[0].ConsultationPrice = 1
	c.Appointments[0].Notes = "changed"
	c.Patients = append(c.Patients, Patient{ID: "x"})

	assert.Equal(t, 250.0, *s.Professionals[0].ConsultationPrice)
	assert.NotEqual(t, "changed", s.Appointments[0].Notes)
	assert.Len(t, s.Patients, 4)
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"scheduled", StatusScheduled},
		{" Confirmed ", StatusConfirmed},
		{"concluido", StatusCompleted},
		{"cancelado", StatusCancelled},
		{"agendado", StatusScheduled},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseStatus("pending")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
