package schedule

import "time"

// DefaultPrice applies when a professional has no consultation price.
const DefaultPrice = 150.0

func price(v float64) *float64 { return &v }

// Default is the dataset a clinic starts with when nothing was persisted.
// Appointment times are relative to now, in loc.
func Default(now time.Time, loc *time.Location) *Schedule {
	y, m, d := now.In(loc).Date()
	at := func(dayOffset, hour, minute int) time.Time {
		return time.Date(y, m, d+dayOffset, hour, minute, 0, 0, loc)
	}

	return &Schedule{
		Professionals: []Professional{
			{ID: "prof_1", Name: "Dra. Ana Silva", Specialty: "Cardiology", ConsultationPrice: price(250)},
			{ID: "prof_2", Name: "Dr. João Souza", Specialty: "Physiotherapy", ConsultationPrice: price(150)},
			{ID: "prof_3", Name: "Dr. Carlos Lima", Specialty: "Dentistry", ConsultationPrice: price(300)},
		},
		Patients: []Patient{
			{ID: "pat_1", Name: "Fernanda Lima"},
			{ID: "pat_2", Name: "Lucas Pereira"},
			{ID: "pat_3", Name: "Mariana Costa"},
			{ID: "pat_4", Name: "Roberto Almeida"},
		},
		Appointments: []Appointment{
			{
				ID: "appt_1", ProfessionalID: "prof_1", PatientID: "pat_3", PatientName: "Mariana Costa",
				Start: at(1, 9, 0), End: at(1, 9, 45), Status: StatusConfirmed, Price: 250,
				Notes: "Stable condition. Follow-up to review test results.",
			},
			{
				ID: "appt_2", ProfessionalID: "prof_2", PatientID: "pat_4", PatientName: "Roberto Almeida",
				Start: at(1, 11, 0), End: at(1, 11, 45), Status: StatusScheduled, Price: 150,
			},
			{
				ID: "appt_3", ProfessionalID: "prof_1", PatientID: "pat_1", PatientName: "Fernanda Lima",
				Start: at(2, 14, 0), End: at(2, 14, 45), Status: StatusScheduled, Price: 250,
			},
			{
				ID: "appt_4", ProfessionalID: "prof_3", PatientID: "pat_2", PatientName: "Lucas Pereira",
				Start: at(1, 15, 0), End: at(1, 16, 0), Status: StatusConfirmed, Price: 300,
			},
			{
				ID: "appt_5", ProfessionalID: "prof_1", PatientID: "pat_2", PatientName: "Lucas Pereira",
				Start: at(-1, 10, 0), End: at(-1, 10, 45), Status: StatusCompleted, Price: 250,
				Notes: "Follow-up session. Patient reported clearly improved mobility.",
			},
		},
	}
}
