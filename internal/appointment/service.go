package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/calendar"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/finance"
	"github.com/hackgods/clinic-scheduling/internal/observability/metrics"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
	"github.com/hackgods/clinic-scheduling/internal/schedule"
	"github.com/hackgods/clinic-scheduling/pkg/logging"
)

var (
	ErrSlotUnavailable    = errors.New("slot is not available")
	ErrSlotBeingBooked    = errors.New("slot is currently being booked, please retry")
	ErrAssistantDisabled  = errors.New("scheduling assistant is not configured")
	ErrEmptyInstruction   = errors.New("instruction is required")
	ErrAppointmentMissing = errors.New("appointment not found")
)

type Options struct {
	Location           *time.Location
	DefaultPrice       float64
	ClinicSharePercent float64
	Policy             calendar.SlotPolicy
	StrictReplace      bool
	Now                func() time.Time
}

// OptionsFromConfig maps the service-related settings of cfg.
func OptionsFromConfig(cfg config.Config) Options {
	policy := calendar.DefaultPolicy
	policy.Collision = cfg.Collision
	return Options{
		Location:           cfg.Location,
		DefaultPrice:       cfg.DefaultPrice,
		ClinicSharePercent: cfg.ClinicSharePercent,
		Policy:             policy,
		StrictReplace:      cfg.StrictAssistant,
	}
}

// Deps are the collaborators of the Service. Only Store is required.
type Deps struct {
	Store     SnapshotStore
	Events    EventLogger
	Locker    redisclient.Locker
	Notifier  Notifier
	Assistant Assistant
	Metrics   *metrics.SchedulingMetrics
	Logger    *logging.Logger
}

// Service is the single writer of the clinic schedule. Every mutation works
// on a copy of the aggregate and swaps it in whole, then hands the new
// snapshot to the store.
type Service struct {
	mu      sync.Mutex
	current *schedule.Schedule

	store     SnapshotStore
	events    EventLogger
	locker    redisclient.Locker
	notifier  Notifier
	assistant Assistant
	metrics   *metrics.SchedulingMetrics
	logger    *logging.Logger
	opts      Options
}

func NewService(deps Deps, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Policy.SlotLength == 0 {
		opts.Policy = calendar.DefaultPolicy
	}
	if opts.DefaultPrice == 0 {
		opts.DefaultPrice = schedule.DefaultPrice
	}
	if opts.ClinicSharePercent == 0 {
		opts.ClinicSharePercent = finance.DefaultClinicSharePercent
	}
	return &Service{
		current:   &schedule.Schedule{},
		store:     deps.Store,
		events:    deps.Events,
		locker:    deps.Locker,
		notifier:  deps.Notifier,
		assistant: deps.Assistant,
		metrics:   deps.Metrics,
		logger:    deps.Logger.WithComponent("appointment"),
		opts:      opts,
	}
}

// Load pulls the stored snapshot, seeding the default dataset when the
// store is empty.
func (s *Service) Load(ctx context.Context) error {
	loaded, err := s.store.Load(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		s.logger.Info("no stored schedule, seeding defaults")
		loaded = schedule.Default(s.now(), s.opts.Location)
		if err := s.store.Save(ctx, loaded.Clone()); err != nil {
			return fmt.Errorf("save default schedule: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}

	s.mu.Lock()
	s.current = loaded
	s.refreshGaugesLocked()
	s.mu.Unlock()

	s.logger.Info("schedule loaded",
		"professionals", len(loaded.Professionals),
		"patients", len(loaded.Patients),
		"appointments", len(loaded.Appointments),
	)
	return nil
}

func (s *Service) now() time.Time { return s.opts.Now() }

// Now is the service clock in the clinic zone.
func (s *Service) Now() time.Time { return s.opts.Now().In(s.opts.Location) }

// Location is the zone working hours and report periods are evaluated in.
func (s *Service) Location() *time.Location { return s.opts.Location }

func (s *Service) ClinicSharePercent() float64 { return s.opts.ClinicSharePercent }

// mutate runs fn against a copy of the schedule. When fn reports a change
// the copy replaces the current aggregate and is persisted.
func (s *Service) mutate(ctx context.Context, fn func(next *schedule.Schedule) (bool, error)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Clone()
	changed, err := fn(&next)
	if err != nil || !changed {
		return false, err
	}

	s.current = &next
	s.refreshGaugesLocked()
	s.persistLocked(ctx)
	return true, nil
}

// persistLocked hands the snapshot to the store. A failed save is logged
// and counted; the in-memory schedule stays authoritative.
func (s *Service) persistLocked(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, s.current.Clone()); err != nil {
		s.metrics.ObservePersistFailure()
		s.logger.Error("failed to persist schedule", "error", err)
	}
}

func (s *Service) refreshGaugesLocked() {
	counts := make(map[string]int, len(schedule.Statuses))
	for _, st := range schedule.Statuses {
		counts[string(st)] = 0
	}
	for _, a := range s.current.Appointments {
		counts[string(a.Status)]++
	}
	s.metrics.SetAppointmentCounts(counts)
}

// Snapshot returns a copy of the current schedule.
func (s *Service) Snapshot() schedule.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// -- Slots --

// clinicDay rebuilds day's calendar date at midnight in the clinic zone.
func (s *Service) clinicDay(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.opts.Location)
}

func (s *Service) availableLocked(sched *schedule.Schedule, professionalID string, day time.Time) []time.Time {
	var existing []calendar.Interval
	for _, a := range sched.AppointmentsOn(professionalID, day) {
		if !a.Status.Active() {
			continue
		}
		existing = append(existing, calendar.Interval{Start: a.Start, End: a.End})
	}
	return s.opts.Policy.Available(day, existing, s.now())
}

// AvailableSlots lists the bookable starts of professionalID on day's
// calendar date in the clinic zone.
func (s *Service) AvailableSlots(ctx context.Context, professionalID string, day time.Time) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.current.Professional(professionalID); !ok {
		return nil, fmt.Errorf("%w: %s", schedule.ErrProfessionalNotFound, professionalID)
	}
	return s.availableLocked(s.current, professionalID, s.clinicDay(day)), nil
}

// Grid returns the month view around ref.
func (s *Service) Grid(ref time.Time) []calendar.DayCell {
	return calendar.GenerateGrid(s.clinicDay(ref), s.now())
}

// -- Booking --

// Book reserves start with professionalID for patientName. The patient is
// resolved or created first, then the appointment is added.
func (s *Service) Book(ctx context.Context, professionalID, patientName string, start time.Time) (schedule.Appointment, error) {
	name := strings.TrimSpace(patientName)
	if name == "" {
		s.fail(ctx, "book", "Patient name is required to book an appointment.", schedule.ErrInvalidPatientName)
		return schedule.Appointment{}, schedule.ErrInvalidPatientName
	}

	var created schedule.Appointment
	book := func(lockCtx context.Context) error {
		_, err := s.mutate(lockCtx, func(next *schedule.Schedule) (bool, error) {
			if _, ok := next.Professional(professionalID); !ok {
				return false, fmt.Errorf("%w: %s", schedule.ErrProfessionalNotFound, professionalID)
			}
			if !s.slotOpen(next, professionalID, start) {
				return false, ErrSlotUnavailable
			}

			patient, err := next.UpsertPatient(name)
			if err != nil {
				return false, err
			}
			appt, err := next.AddAppointment(professionalID, patient, start, start.Add(s.opts.Policy.SlotLength), s.opts.DefaultPrice)
			if err != nil {
				return false, err
			}
			created = appt
			return true, nil
		})
		return err
	}

	var err error
	if s.locker != nil {
		err = s.locker.WithSlotLock(ctx, redisclient.SlotKey(professionalID, start), book)
	} else {
		err = book(ctx)
	}
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			err = ErrSlotBeingBooked
		}
		s.fail(ctx, "book", "Could not book the appointment.", err)
		return schedule.Appointment{}, err
	}

	s.logEvent(ctx, created.ID, EventAppointmentBooked, map[string]any{
		"professional_id": created.ProfessionalID,
		"patient_id":      created.PatientID,
		"start":           created.Start,
		"price":           created.Price,
	})
	s.succeed(ctx, "book", fmt.Sprintf("Appointment for %s booked.", created.PatientName))
	return created, nil
}

func (s *Service) slotOpen(sched *schedule.Schedule, professionalID string, start time.Time) bool {
	day := s.clinicDay(start.In(s.opts.Location))
	for _, slot := range s.availableLocked(sched, professionalID, day) {
		if slot.Equal(start) {
			return true
		}
	}
	return false
}

// Cancel marks the appointment cancelled whatever its current status. An
// unknown id is a no-op reported as false.
func (s *Service) Cancel(ctx context.Context, id string) (bool, error) {
	changed, err := s.mutate(ctx, func(next *schedule.Schedule) (bool, error) {
		return next.CancelAppointment(id), nil
	})
	if err != nil {
		return false, err
	}
	if !changed {
		s.logger.Debug("cancel ignored, appointment not found", "appointment_id", id)
		return false, nil
	}

	s.logEvent(ctx, id, EventAppointmentCancelled, map[string]any{})
	s.succeed(ctx, "cancel", "Appointment cancelled.")
	return true, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status schedule.Status) (bool, error) {
	changed, err := s.mutate(ctx, func(next *schedule.Schedule) (bool, error) {
		return next.UpdateAppointmentStatus(id, status)
	})
	if err != nil {
		s.fail(ctx, "update_status", "Could not update the appointment status.", err)
		return false, err
	}
	if !changed {
		return false, nil
	}

	s.logEvent(ctx, id, EventAppointmentStatusChanged, map[string]any{"status": status})
	s.succeed(ctx, "update_status", "Appointment status updated.")
	return true, nil
}

func (s *Service) UpdateNotes(ctx context.Context, id, notes string) bool {
	changed, _ := s.mutate(ctx, func(next *schedule.Schedule) (bool, error) {
		return next.UpdateAppointmentNotes(id, notes), nil
	})
	if !changed {
		return false
	}

	s.logEvent(ctx, id, EventAppointmentNotesUpdated, map[string]any{"length": len(notes)})
	s.succeed(ctx, "update_notes", "Appointment notes updated.")
	return true
}

func (s *Service) Appointment(id string) (schedule.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.current.Appointment(id)
	if !ok {
		return schedule.Appointment{}, fmt.Errorf("%w: %s", ErrAppointmentMissing, id)
	}
	return a, nil
}

// Appointments lists a professional's appointments, optionally limited to
// one calendar day.
func (s *Service) Appointments(professionalID string, day *time.Time) ([]schedule.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.current.Professional(professionalID); !ok {
		return nil, fmt.Errorf("%w: %s", schedule.ErrProfessionalNotFound, professionalID)
	}
	if day != nil {
		return s.current.AppointmentsOn(professionalID, s.clinicDay(*day)), nil
	}
	return s.current.AppointmentsFor(professionalID), nil
}

// PatientAppointments splits a patient's bookings around now.
func (s *Service) PatientAppointments(name string) (upcoming, past []schedule.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.PatientAppointments(name, s.now())
}

// -- Professionals --

func (s *Service) Professionals() []schedule.Professional {
	return s.Snapshot().Professionals
}

func (s *Service) Professional(id string) (schedule.Professional, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.current.Professional(id)
	if !ok {
		return schedule.Professional{}, fmt.Errorf("%w: %s", schedule.ErrProfessionalNotFound, id)
	}
	return p, nil
}

func (s *Service) AddProfessional(ctx context.Context, name, specialty string, price *float64) (schedule.Professional, error) {
	var added schedule.Professional
	_, err := s.mutate(ctx, func(next *schedule.Schedule) (bool, error) {
		p, err := next.AddProfessional(name, specialty, price)
		if err != nil {
			return false, err
		}
		added = p
		return true, nil
	})
	if err != nil {
		s.fail(ctx, "add_professional", "Could not add the professional.", err)
		return schedule.Professional{}, err
	}

	s.logEvent(ctx, added.ID, EventProfessionalAdded, map[string]any{"name": added.Name, "specialty": added.Specialty})
	s.succeed(ctx, "add_professional", fmt.Sprintf("Professional %s added.", added.Name))
	return added, nil
}

func (s *Service) UpdateProfessional(ctx context.Context, id string, u schedule.ProfessionalUpdate) (schedule.Professional, bool, error) {
	var updated schedule.Professional
	changed, err := s.mutate(ctx, func(next *schedule.Schedule) (bool, error) {
		p, found, err := next.UpdateProfessional(id, u)
		updated = p
		return found, err
	})
	if err != nil {
		s.fail(ctx, "update_professional", "Could not update the profile.", err)
		return schedule.Professional{}, true, err
	}
	if !changed {
		return schedule.Professional{}, false, nil
	}

	s.logEvent(ctx, id, EventProfessionalUpdated, map[string]any{})
	s.succeed(ctx, "update_professional", "Profile updated.")
	return updated, true, nil
}

// RemoveProfessional deletes the professional and all of their appointments
// in one swap.
func (s *Service) RemoveProfessional(ctx context.Context, id string) bool {
	var removedAppointments int
	changed, _ := s.mutate(ctx, func(next *schedule.Schedule) (bool, error) {
		before := len(next.Appointments)
		if !next.RemoveProfessional(id) {
			return false, nil
		}
		removedAppointments = before - len(next.Appointments)
		return true, nil
	})
	if !changed {
		return false
	}

	s.logEvent(ctx, id, EventProfessionalRemoved, map[string]any{"appointments_removed": removedAppointments})
	s.succeed(ctx, "remove_professional", "Professional and their appointments were removed.")
	return true
}

// -- Whole-document replacement --

// Replace swaps in an externally produced schedule. With strict replacement
// enabled the snapshot must pass Validate first.
func (s *Service) Replace(ctx context.Context, next schedule.Schedule, source string) error {
	if s.opts.StrictReplace {
		if err := next.Validate(); err != nil {
			s.fail(ctx, "replace", "The proposed schedule was rejected.", err)
			return err
		}
	}

	replacement := next.Clone()
	s.mu.Lock()
	s.current = &replacement
	s.refreshGaugesLocked()
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.logEvent(ctx, "", EventScheduleReplaced, map[string]any{
		"source":        source,
		"professionals": len(replacement.Professionals),
		"patients":      len(replacement.Patients),
		"appointments":  len(replacement.Appointments),
	})
	s.succeed(ctx, "replace", "Schedule updated.")
	return nil
}

// ApplyInstruction sends instruction and the current schedule to the
// assistant and replaces the schedule with its answer. Edits committed while
// the assistant is running are overwritten.
func (s *Service) ApplyInstruction(ctx context.Context, instruction string) (schedule.Schedule, error) {
	if s.assistant == nil {
		return schedule.Schedule{}, ErrAssistantDisabled
	}
	if strings.TrimSpace(instruction) == "" {
		return schedule.Schedule{}, ErrEmptyInstruction
	}

	started := time.Now()
	revised, err := s.assistant.Revise(ctx, instruction, s.Snapshot())
	if err != nil {
		s.metrics.ObserveAssistant("error", time.Since(started).Seconds())
		s.fail(ctx, "assistant", "The assistant could not process the request.", err)
		return schedule.Schedule{}, err
	}
	s.metrics.ObserveAssistant("ok", time.Since(started).Seconds())

	if err := s.Replace(ctx, revised, "assistant"); err != nil {
		return schedule.Schedule{}, err
	}
	return s.Snapshot(), nil
}

// -- Reports --

func (s *Service) FinancialReport(period finance.Period, clinicSharePercent float64) ([]finance.ProfessionalFinancials, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	return finance.Aggregate(s.Snapshot(), period, clinicSharePercent, s.opts.Location), nil
}

func (s *Service) Summary() finance.Summary {
	return finance.Summarize(s.Snapshot())
}

// -- Side effects --

func (s *Service) succeed(ctx context.Context, op, message string) {
	s.metrics.ObserveOperation(op, "ok")
	if s.notifier != nil {
		s.notifier.Success(ctx, message)
	}
}

func (s *Service) fail(ctx context.Context, op, message string, err error) {
	s.metrics.ObserveOperation(op, resultLabel(err))
	if s.notifier != nil {
		s.notifier.Failure(ctx, message, err)
	}
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, schedule.ErrInvalidPatientName),
		errors.Is(err, schedule.ErrInvalidProfessional),
		errors.Is(err, schedule.ErrInvalidStatus),
		errors.Is(err, schedule.ErrInvalidSnapshot):
		return "invalid"
	case errors.Is(err, schedule.ErrProfessionalNotFound):
		return "not_found"
	case errors.Is(err, ErrSlotUnavailable), errors.Is(err, ErrSlotBeingBooked):
		return "conflict"
	default:
		return "error"
	}
}

func (s *Service) logEvent(ctx context.Context, entityID, eventType string, payload map[string]any) {
	if s.events == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("failed to marshal event payload", "event_type", eventType, "error", err)
		data = nil
	}

	ev := EventLog{
		EventType: eventType,
		Payload:   data,
		CreatedAt: s.now(),
	}
	if entityID != "" {
		id := entityID
		ev.EntityID = &id
	}

	if err := s.events.InsertEvent(ctx, ev); err != nil {
		s.logger.Warn("failed to insert event log", "event_type", eventType, "entity_id", entityID, "error", err)
	}
}
