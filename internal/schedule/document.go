package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Document is the persisted and exchanged shape of a Schedule.
type Document struct {
	Professionals []ProfessionalDoc `json:"professionals"`
	Patients      []PatientDoc      `json:"patients"`
	Appointments  []AppointmentDoc  `json:"appointments"`
}

type ProfessionalDoc struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Specialty         string   `json:"specialty"`
	ConsultationPrice *float64 `json:"consultationPrice,omitempty"`
}

type PatientDoc struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type AppointmentDoc struct {
	ID             string    `json:"id"`
	ProfessionalID string    `json:"professionalId"`
	PatientID      string    `json:"patientId"`
	PatientName    string    `json:"patientName"`
	Start          Timestamp `json:"start"`
	End            Timestamp `json:"end"`
	Status         string    `json:"status"`
	Price          float64   `json:"price"`
	Notes          string    `json:"notes,omitempty"`
}

// Timestamp encodes as a string of milliseconds since the epoch. Decoding
// also accepts a bare number or an RFC 3339 string.
type Timestamp time.Time

func (t Timestamp) Time() time.Time { return time.Time(t) }

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatInt(time.Time(t).UnixMilli(), 10))), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("timestamp is required")
	}

	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		s, err := strconv.Unquote(raw)
		if err != nil {
			return fmt.Errorf("decode timestamp: %w", err)
		}
		raw = strings.TrimSpace(s)
	}

	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// ParseTimestamp reads epoch milliseconds or RFC 3339, returning UTC.
// Timestamps without an offset are taken as UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	return ParseTimestampIn(raw, time.UTC)
}

// ParseTimestampIn is ParseTimestamp with zone-less layouts read as wall
// clock time in loc. The result is always UTC.
func ParseTimestampIn(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.UnixMilli(int64(f)).UTC(), nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts.UTC(), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if ts, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}

// Encode converts s to its document form.
func Encode(s Schedule) Document {
	doc := Document{
		Professionals: make([]ProfessionalDoc, 0, len(s.Professionals)),
		Patients:      make([]PatientDoc, 0, len(s.Patients)),
		Appointments:  make([]AppointmentDoc, 0, len(s.Appointments)),
	}
	for _, p := range s.Professionals {
		doc.Professionals = append(doc.Professionals, ProfessionalDoc{
			ID:                p.ID,
			Name:              p.Name,
			Specialty:         p.Specialty,
			ConsultationPrice: p.ConsultationPrice,
		})
	}
	for _, p := range s.Patients {
		doc.Patients = append(doc.Patients, PatientDoc{ID: p.ID, Name: p.Name})
	}
	for _, a := range s.Appointments {
		doc.Appointments = append(doc.Appointments, AppointmentDoc{
			ID:             a.ID,
			ProfessionalID: a.ProfessionalID,
			PatientID:      a.PatientID,
			PatientName:    a.PatientName,
			Start:          Timestamp(a.Start),
			End:            Timestamp(a.End),
			Status:         string(a.Status),
			Price:          a.Price,
			Notes:          a.Notes,
		})
	}
	return doc
}

// Decode converts a document into a Schedule. Only the shape is checked
// here; Validate covers referential integrity.
func Decode(doc Document) (Schedule, error) {
	s := Schedule{
		Professionals: make([]Professional, 0, len(doc.Professionals)),
		Patients:      make([]Patient, 0, len(doc.Patients)),
		Appointments:  make([]Appointment, 0, len(doc.Appointments)),
	}
	for _, p := range doc.Professionals {
		prof := Professional{ID: p.ID, Name: p.Name, Specialty: p.Specialty}
		if p.ConsultationPrice != nil {
			v := *p.ConsultationPrice
			prof.ConsultationPrice = &v
		}
		s.Professionals = append(s.Professionals, prof)
	}
	for _, p := range doc.Patients {
		s.Patients = append(s.Patients, Patient{ID: p.ID, Name: p.Name})
	}
	for _, a := range doc.Appointments {
		status, err := ParseStatus(a.Status)
		if err != nil {
			return Schedule{}, fmt.Errorf("%w: appointment %s: %w", ErrInvalidSnapshot, a.ID, err)
		}
		s.Appointments = append(s.Appointments, Appointment{
			ID:             a.ID,
			ProfessionalID: a.ProfessionalID,
			PatientID:      a.PatientID,
			PatientName:    a.PatientName,
			Start:          a.Start.Time(),
			End:            a.End.Time(),
			Status:         status,
			Price:          a.Price,
			Notes:          a.Notes,
		})
	}
	return s, nil
}

func Marshal(s Schedule) ([]byte, error) {
	data, err := json.Marshal(Encode(s))
	if err != nil {
		return nil, fmt.Errorf("marshal schedule: %w", err)
	}
	return data, nil
}

func Unmarshal(data []byte) (Schedule, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Schedule{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return Decode(doc)
}
