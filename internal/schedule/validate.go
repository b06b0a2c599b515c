package schedule

import (
	"errors"
	"fmt"
)

// Validate checks the structural invariants of a snapshot that arrived from
// outside the store: unique ids, resolvable references, ordered intervals,
// known statuses and non-negative prices. Overlapping bookings are not
// rejected here.
func (s *Schedule) Validate() error {
	var problems []error
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	professionals := make(map[string]struct{}, len(s.Professionals))
	for _, p := range s.Professionals {
		if p.ID == "" {
			add("professional %q has no id", p.Name)
			continue
		}
		if _, dup := professionals[p.ID]; dup {
			add("duplicate professional id %s", p.ID)
		}
		professionals[p.ID] = struct{}{}
		if err := validateProfessional(p); err != nil {
			add("professional %s: %w", p.ID, err)
		}
	}

	patients := make(map[string]struct{}, len(s.Patients))
	for _, p := range s.Patients {
		if p.ID == "" {
			add("patient %q has no id", p.Name)
			continue
		}
		if _, dup := patients[p.ID]; dup {
			add("duplicate patient id %s", p.ID)
		}
		patients[p.ID] = struct{}{}
		if normalizeName(p.Name) == "" {
			add("patient %s: %w", p.ID, ErrInvalidPatientName)
		}
	}

	appointments := make(map[string]struct{}, len(s.Appointments))
	for _, a := range s.Appointments {
		if a.ID == "" {
			add("appointment without id for patient %q", a.PatientName)
			continue
		}
		if _, dup := appointments[a.ID]; dup {
			add("duplicate appointment id %s", a.ID)
		}
		appointments[a.ID] = struct{}{}

		if _, ok := professionals[a.ProfessionalID]; !ok {
			add("appointment %s: %w: %q", a.ID, ErrProfessionalNotFound, a.ProfessionalID)
		}
		if _, ok := patients[a.PatientID]; !ok {
			add("appointment %s: unknown patient %q", a.ID, a.PatientID)
		}
		if !a.Start.Before(a.End) {
			add("appointment %s: %w", a.ID, ErrInvalidInterval)
		}
		if !a.Status.Valid() {
			add("appointment %s: %w: %q", a.ID, ErrInvalidStatus, a.Status)
		}
		if a.Price < 0 {
			add("appointment %s: negative price", a.ID)
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidSnapshot, errors.Join(problems...))
}
