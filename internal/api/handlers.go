package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/assistant"
	"github.com/hackgods/clinic-scheduling/internal/finance"
	"github.com/hackgods/clinic-scheduling/internal/notify"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

const dateLayout = "2006-01-02"

// -- Calendar --

func gridHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, ok := parseDay(w, r, svc)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, GridResponse{
			Month: ref.Format("2006-01"),
			Days:  svc.Grid(ref),
		})
	}
}

func slotsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, ok := parseDay(w, r, svc)
		if !ok {
			return
		}

		id := chi.URLParam(r, "id")
		slots, err := svc.AvailableSlots(r.Context(), id, day)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		loc := svc.Location()
		for i := range slots {
			slots[i] = slots[i].In(loc)
		}
		writeJSON(w, http.StatusOK, SlotsResponse{
			ProfessionalID: id,
			Date:           day.Format(dateLayout),
			Slots:          slots,
		})
	}
}

// -- Whole schedule --

func getScheduleHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, schedule.Encode(svc.Snapshot()))
	}
}

func replaceScheduleHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var doc schedule.Document
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", err.Error())
			return
		}

		next, err := schedule.Decode(doc)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		if err := svc.Replace(r.Context(), next, "api"); err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, schedule.Encode(svc.Snapshot()))
	}
}

func assistantHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AssistantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		updated, err := svc.ApplyInstruction(r.Context(), req.Instruction)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, schedule.Encode(updated))
	}
}

// -- Professionals --

func listProfessionalsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profs := svc.Professionals()
		resp := make([]ProfessionalResponse, 0, len(profs))
		for _, p := range profs {
			resp = append(resp, toProfessionalResponse(p))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getProfessionalHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Professional(chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProfessionalResponse(p))
	}
}

func createProfessionalHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProfessionalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		p, err := svc.AddProfessional(r.Context(), req.Name, req.Specialty, req.ConsultationPrice)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toProfessionalResponse(p))
	}
}

func updateProfessionalHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateProfessionalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		id := chi.URLParam(r, "id")
		p, found, err := svc.UpdateProfessional(r.Context(), id, schedule.ProfessionalUpdate{
			Name:              req.Name,
			Specialty:         req.Specialty,
			ConsultationPrice: req.ConsultationPrice,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, "professional_not_found", id)
			return
		}
		writeJSON(w, http.StatusOK, toProfessionalResponse(p))
	}
}

func deleteProfessionalHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !svc.RemoveProfessional(r.Context(), id) {
			writeError(w, http.StatusNotFound, "professional_not_found", id)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func professionalAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var day *time.Time
		if r.URL.Query().Get("date") != "" {
			d, ok := parseDay(w, r, svc)
			if !ok {
				return
			}
			day = &d
		}

		appts, err := svc.Appointments(chi.URLParam(r, "id"), day)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponses(appts, svc.Location()))
	}
}

// -- Appointments --

func createAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		start, err := schedule.ParseTimestampIn(strings.TrimSpace(req.Start), svc.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start", "start must be epoch milliseconds or RFC 3339")
			return
		}

		appt, err := svc.Book(r.Context(), req.ProfessionalID, req.PatientName, start)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt, svc.Location()))
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appt, err := svc.Appointment(chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt, svc.Location()))
	}
}

func cancelAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		ok, err := svc.Cancel(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "appointment_not_found", id)
			return
		}
		respondWithAppointment(w, svc, id)
	}
}

func updateStatusHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		status, err := schedule.ParseStatus(req.Status)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		id := chi.URLParam(r, "id")
		ok, err := svc.UpdateStatus(r.Context(), id, status)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "appointment_not_found", id)
			return
		}
		respondWithAppointment(w, svc, id)
	}
}

func updateNotesHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateNotesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		id := chi.URLParam(r, "id")
		if !svc.UpdateNotes(r.Context(), id, req.Notes) {
			writeError(w, http.StatusNotFound, "appointment_not_found", id)
			return
		}
		respondWithAppointment(w, svc, id)
	}
}

func respondWithAppointment(w http.ResponseWriter, svc *appointment.Service, id string) {
	appt, err := svc.Appointment(id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt, svc.Location()))
}

func patientAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(r.URL.Query().Get("name"))
		if name == "" {
			writeError(w, http.StatusBadRequest, "invalid_patient_name", "name is required")
			return
		}

		upcoming, past := svc.PatientAppointments(name)
		loc := svc.Location()
		writeJSON(w, http.StatusOK, PatientAppointmentsResponse{
			Patient:  name,
			Upcoming: toAppointmentResponses(upcoming, loc),
			Past:     toAppointmentResponses(past, loc),
		})
	}
}

// -- Reports --

func financialReportHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		period, err := parsePeriod(q.Get("period"), q.Get("month"), q.Get("date"), svc.Now())
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_period", err.Error())
			return
		}

		share := svc.ClinicSharePercent()
		if raw := q.Get("share"); raw != "" {
			share, err = strconv.ParseFloat(raw, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_share", "share must be a number")
				return
			}
		}

		rows, err := svc.FinancialReport(period, share)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, FinancialReportResponse{
			Period:             period.String(),
			ClinicSharePercent: share,
			Professionals:      rows,
			Totals:             finance.Sum(rows),
		})
	}
}

func summaryHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Summary())
	}
}

func notificationsHandler(feed *notify.Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if feed == nil {
			writeJSON(w, http.StatusOK, []notify.Notification{})
			return
		}

		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
				return
			}
			limit = n
		}
		writeJSON(w, http.StatusOK, feed.Recent(limit))
	}
}

// -- Helpers --

// parseDay reads ?date=YYYY-MM-DD in the clinic zone, defaulting to today.
func parseDay(w http.ResponseWriter, r *http.Request, svc *appointment.Service) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return svc.Now(), true
	}
	day, err := time.ParseInLocation(dateLayout, raw, svc.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return day, true
}

func parsePeriod(kind, month, date string, now time.Time) (finance.Period, error) {
	switch kind {
	case "daily":
		if date == "" {
			y, m, d := now.Date()
			return finance.Daily(y, m, d), nil
		}
		t, err := time.Parse(dateLayout, date)
		if err != nil {
			return finance.Period{}, errors.New("date must be YYYY-MM-DD")
		}
		return finance.Daily(t.Year(), t.Month(), t.Day()), nil
	case "", "monthly":
		if month == "" {
			return finance.Monthly(now.Year(), now.Month()), nil
		}
		t, err := time.Parse("2006-01", month)
		if err != nil {
			return finance.Period{}, errors.New("month must be YYYY-MM")
		}
		return finance.Monthly(t.Year(), t.Month()), nil
	default:
		return finance.Period{}, errors.New("period must be monthly or daily")
	}
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrInvalidPatientName):
		writeError(w, http.StatusBadRequest, "invalid_patient_name", err.Error())
	case errors.Is(err, schedule.ErrInvalidProfessional):
		writeError(w, http.StatusBadRequest, "invalid_professional", err.Error())
	case errors.Is(err, schedule.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, schedule.ErrInvalidSnapshot):
		writeError(w, http.StatusUnprocessableEntity, "invalid_schedule", err.Error())
	case errors.Is(err, schedule.ErrProfessionalNotFound):
		writeError(w, http.StatusNotFound, "professional_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentMissing):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "slot_unavailable", err.Error())
	case errors.Is(err, appointment.ErrSlotBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, appointment.ErrEmptyInstruction):
		writeError(w, http.StatusBadRequest, "invalid_instruction", err.Error())
	case errors.Is(err, appointment.ErrAssistantDisabled):
		writeError(w, http.StatusServiceUnavailable, "assistant_disabled", err.Error())
	case errors.Is(err, assistant.ErrNoResult):
		writeError(w, http.StatusBadGateway, "assistant_no_result", err.Error())
	case errors.Is(err, finance.ErrInvalidPeriod):
		writeError(w, http.StatusBadRequest, "invalid_period", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
