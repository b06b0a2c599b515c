package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidPatientName   = errors.New("patient name is required")
	ErrInvalidProfessional  = errors.New("invalid professional")
	ErrProfessionalNotFound = errors.New("professional not found")
	ErrInvalidInterval      = errors.New("appointment start must be before end")
	ErrInvalidStatus        = errors.New("unknown appointment status")
	ErrInvalidSnapshot      = errors.New("invalid schedule snapshot")
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Statuses is the order reports list them in.
var Statuses = []Status{StatusCompleted, StatusConfirmed, StatusScheduled, StatusCancelled}

// Documents written by the first version of the clinic app used Portuguese
// status names; they are still accepted on input.
var legacyStatuses = map[string]Status{
	"agendado":   StatusScheduled,
	"confirmado": StatusConfirmed,
	"concluido":  StatusCompleted,
	"cancelado":  StatusCancelled,
}

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether the appointment still occupies its slot.
func (s Status) Active() bool {
	return s != StatusCancelled
}

func ParseStatus(raw string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if s := Status(v); s.Valid() {
		return s, nil
	}
	if s, ok := legacyStatuses[v]; ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

type Professional struct {
	ID                string
	Name              string
	Specialty         string
	ConsultationPrice *float64
}

// ProfessionalUpdate carries the fields of a partial profile edit; nil
// fields are left untouched.
type ProfessionalUpdate struct {
	Name              *string
	Specialty         *string
	ConsultationPrice *float64
}

type Patient struct {
	ID   string
	Name string
}

type Appointment struct {
	ID             string
	ProfessionalID string
	PatientID      string
	PatientName    string
	Start          time.Time
	End            time.Time
	Status         Status
	Price          float64
	Notes          string
}

// Schedule is the aggregate every mutation acts on.
type Schedule struct {
	Professionals []Professional
	Patients      []Patient
	Appointments  []Appointment
}

// Clone returns a deep copy safe to hand to readers.
func (s *Schedule) Clone() Schedule {
	out := Schedule{
		Professionals: make([]Professional, len(s.Professionals)),
		Patients:      make([]Patient, len(s.Patients)),
		Appointments:  make([]Appointment, len(s.Appointments)),
	}
	copy(out.Professionals, s.Professionals)
	copy(out.Patients, s.Patients)
	copy(out.Appointments, s.Appointments)

	for i, p := range out.Professionals {
		if p.ConsultationPrice != nil {
			v := *p.ConsultationPrice
			out.Professionals[i].ConsultationPrice = &v
		}
	}
	return out
}

func normalizeName(name string) string {
	return strings.TrimSpace(name)
}

func sameName(a, b string) bool {
	return strings.EqualFold(normalizeName(a), normalizeName(b))
}
