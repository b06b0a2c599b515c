package schedule

import (
	"fmt"
	"sort"
	"time"
)

// FindPatientByName matches on the trimmed, case-insensitive name.
func (s *Schedule) FindPatientByName(name string) (*Patient, bool) {
	if normalizeName(name) == "" {
		return nil, false
	}
	for i := range s.Patients {
		if sameName(s.Patients[i].Name, name) {
			return &s.Patients[i], true
		}
	}
	return nil, false
}

// UpsertPatient returns the patient registered under name, creating one
// when none matches.
func (s *Schedule) UpsertPatient(name string) (Patient, error) {
	trimmed := normalizeName(name)
	if trimmed == "" {
		return Patient{}, ErrInvalidPatientName
	}
	if p, ok := s.FindPatientByName(trimmed); ok {
		return *p, nil
	}
	p := Patient{ID: NewID(patientPrefix), Name: trimmed}
	s.Patients = append(s.Patients, p)
	return p, nil
}

func (s *Schedule) Patient(id string) (Patient, bool) {
	for _, p := range s.Patients {
		if p.ID == id {
			return p, true
		}
	}
	return Patient{}, false
}

func (s *Schedule) Professional(id string) (Professional, bool) {
	i := s.professionalIndex(id)
	if i < 0 {
		return Professional{}, false
	}
	return s.Professionals[i], true
}

func (s *Schedule) professionalIndex(id string) int {
	for i := range s.Professionals {
		if s.Professionals[i].ID == id {
			return i
		}
	}
	return -1
}

func validateProfessional(p Professional) error {
	if normalizeName(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfessional)
	}
	if normalizeName(p.Specialty) == "" {
		return fmt.Errorf("%w: specialty is required", ErrInvalidProfessional)
	}
	if p.ConsultationPrice != nil && *p.ConsultationPrice < 0 {
		return fmt.Errorf("%w: consultation price must not be negative", ErrInvalidProfessional)
	}
	return nil
}

func (s *Schedule) AddProfessional(name, specialty string, price *float64) (Professional, error) {
	p := Professional{
		ID:        NewID(professionalPrefix),
		Name:      normalizeName(name),
		Specialty: normalizeName(specialty),
	}
	if price != nil {
		v := *price
		p.ConsultationPrice = &v
	}
	if err := validateProfessional(p); err != nil {
		return Professional{}, err
	}
	s.Professionals = append(s.Professionals, p)
	return p, nil
}

// RemoveProfessional deletes the professional together with every one of
// their appointments. It reports false when id is unknown.
func (s *Schedule) RemoveProfessional(id string) bool {
	i := s.professionalIndex(id)
	if i < 0 {
		return false
	}

	professionals := make([]Professional, 0, len(s.Professionals)-1)
	professionals = append(professionals, s.Professionals[:i]...)
	professionals = append(professionals, s.Professionals[i+1:]...)

	appointments := make([]Appointment, 0, len(s.Appointments))
	for _, a := range s.Appointments {
		if a.ProfessionalID != id {
			appointments = append(appointments, a)
		}
	}

	s.Professionals = professionals
	s.Appointments = appointments
	return true
}

// UpdateProfessional merges the non-nil fields of u. The bool is false when
// id is unknown; nothing changes when validation fails.
func (s *Schedule) UpdateProfessional(id string, u ProfessionalUpdate) (Professional, bool, error) {
	i := s.professionalIndex(id)
	if i < 0 {
		return Professional{}, false, nil
	}

	p := s.Professionals[i]
	if u.Name != nil {
		p.Name = normalizeName(*u.Name)
	}
	if u.Specialty != nil {
		p.Specialty = normalizeName(*u.Specialty)
	}
	if u.ConsultationPrice != nil {
		v := *u.ConsultationPrice
		p.ConsultationPrice = &v
	}
	if err := validateProfessional(p); err != nil {
		return Professional{}, true, err
	}

	s.Professionals[i] = p
	return p, true, nil
}

// PriceFor is the professional's consultation price, or fallback when it is
// unset or zero.
func (p Professional) PriceFor(fallback float64) float64 {
	if p.ConsultationPrice == nil || *p.ConsultationPrice == 0 {
		return fallback
	}
	return *p.ConsultationPrice
}

// AddAppointment books patient with professionalID for [start, end). The
// patient must already be resolved (see UpsertPatient).
func (s *Schedule) AddAppointment(professionalID string, patient Patient, start, end time.Time, defaultPrice float64) (Appointment, error) {
	prof, ok := s.Professional(professionalID)
	if !ok {
		return Appointment{}, fmt.Errorf("%w: %s", ErrProfessionalNotFound, professionalID)
	}
	if patient.ID == "" || normalizeName(patient.Name) == "" {
		return Appointment{}, ErrInvalidPatientName
	}
	if !start.Before(end) {
		return Appointment{}, ErrInvalidInterval
	}

	a := Appointment{
		ID:             NewID(appointmentPrefix),
		ProfessionalID: professionalID,
		PatientID:      patient.ID,
		PatientName:    patient.Name,
		Start:          start,
		End:            end,
		Status:         StatusScheduled,
		Price:          prof.PriceFor(defaultPrice),
	}
	s.Appointments = append(s.Appointments, a)
	return a, nil
}

func (s *Schedule) appointmentIndex(id string) int {
	for i := range s.Appointments {
		if s.Appointments[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Schedule) Appointment(id string) (Appointment, bool) {
	i := s.appointmentIndex(id)
	if i < 0 {
		return Appointment{}, false
	}
	return s.Appointments[i], true
}

// UpdateAppointmentStatus replaces the status; any status may follow any
// other. Unknown ids are a no-op reported as false.
func (s *Schedule) UpdateAppointmentStatus(id string, status Status) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	i := s.appointmentIndex(id)
	if i < 0 {
		return false, nil
	}
	s.Appointments[i].Status = status
	return true, nil
}

func (s *Schedule) UpdateAppointmentNotes(id, notes string) bool {
	i := s.appointmentIndex(id)
	if i < 0 {
		return false
	}
	s.Appointments[i].Notes = notes
	return true
}

func (s *Schedule) CancelAppointment(id string) bool {
	ok, _ := s.UpdateAppointmentStatus(id, StatusCancelled)
	return ok
}

// AppointmentsFor lists the professional's appointments by start ascending.
func (s *Schedule) AppointmentsFor(professionalID string) []Appointment {
	var out []Appointment
	for _, a := range s.Appointments {
		if a.ProfessionalID == professionalID {
			out = append(out, a)
		}
	}
	sortByStart(out)
	return out
}

// AppointmentsOn narrows AppointmentsFor to the calendar day of day, in
// day's location.
func (s *Schedule) AppointmentsOn(professionalID string, day time.Time) []Appointment {
	loc := day.Location()
	y, m, d := day.Date()

	var out []Appointment
	for _, a := range s.AppointmentsFor(professionalID) {
		ay, am, ad := a.Start.In(loc).Date()
		if ay == y && am == m && ad == d {
			out = append(out, a)
		}
	}
	return out
}

// PatientAppointments finds appointments booked under name and splits them
// into upcoming (start >= now) and past, each newest first.
func (s *Schedule) PatientAppointments(name string, now time.Time) (upcoming, past []Appointment) {
	if normalizeName(name) == "" {
		return nil, nil
	}
	for _, a := range s.Appointments {
		if !sameName(a.PatientName, name) {
			continue
		}
		if a.Start.Before(now) {
			past = append(past, a)
		} else {
			upcoming = append(upcoming, a)
		}
	}
	sortByStartDesc(upcoming)
	sortByStartDesc(past)
	return upcoming, past
}

func sortByStart(appts []Appointment) {
	sort.SliceStable(appts, func(i, j int) bool {
		return appts[i].Start.Before(appts[j].Start)
	})
}

func sortByStartDesc(appts []Appointment) {
	sort.SliceStable(appts, func(i, j int) bool {
		return appts[i].Start.After(appts[j].Start)
	})
}
