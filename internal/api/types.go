package api

import (
	"time"

	"github.com/hackgods/clinic-scheduling/internal/calendar"
	"github.com/hackgods/clinic-scheduling/internal/finance"
	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

type CreateAppointmentRequest struct {
	ProfessionalID string `json:"professional_id"`
	PatientName    string `json:"patient_name"`
	// Start is epoch milliseconds or RFC 3339.
	Start string `json:"start"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

type CreateProfessionalRequest struct {
	Name              string   `json:"name"`
	Specialty         string   `json:"specialty"`
	ConsultationPrice *float64 `json:"consultation_price"`
}

type UpdateProfessionalRequest struct {
	Name              *string  `json:"name"`
	Specialty         *string  `json:"specialty"`
	ConsultationPrice *float64 `json:"consultation_price"`
}

type AssistantRequest struct {
	Instruction string `json:"instruction"`
}

type AppointmentResponse struct {
	ID             string    `json:"id"`
	ProfessionalID string    `json:"professional_id"`
	PatientID      string    `json:"patient_id"`
	PatientName    string    `json:"patient_name"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Status         string    `json:"status"`
	Price          float64   `json:"price"`
	Notes          string    `json:"notes,omitempty"`
}

type ProfessionalResponse struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Specialty         string   `json:"specialty"`
	ConsultationPrice *float64 `json:"consultation_price,omitempty"`
}

type SlotsResponse struct {
	ProfessionalID string      `json:"professional_id"`
	Date           string      `json:"date"`
	Slots          []time.Time `json:"slots"`
}

type GridResponse struct {
	Month string             `json:"month"`
	Days  []calendar.DayCell `json:"days"`
}

type PatientAppointmentsResponse struct {
	Patient  string                `json:"patient"`
	Upcoming []AppointmentResponse `json:"upcoming"`
	Past     []AppointmentResponse `json:"past"`
}

type FinancialReportResponse struct {
	Period             string                           `json:"period"`
	ClinicSharePercent float64                          `json:"clinic_share_percent"`
	Professionals      []finance.ProfessionalFinancials `json:"professionals"`
	Totals             finance.Totals                   `json:"totals"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a schedule.Appointment, loc *time.Location) AppointmentResponse {
	return AppointmentResponse{
		ID:             a.ID,
		ProfessionalID: a.ProfessionalID,
		PatientID:      a.PatientID,
		PatientName:    a.PatientName,
		Start:          a.Start.In(loc),
		End:            a.End.In(loc),
		Status:         string(a.Status),
		Price:          a.Price,
		Notes:          a.Notes,
	}
}

func toAppointmentResponses(appts []schedule.Appointment, loc *time.Location) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentResponse(a, loc))
	}
	return out
}

func toProfessionalResponse(p schedule.Professional) ProfessionalResponse {
	return ProfessionalResponse{
		ID:                p.ID,
		Name:              p.Name,
		Specialty:         p.Specialty,
		ConsultationPrice: p.ConsultationPrice,
	}
}
