package appointment

import (
	"time"
)

const (
	EventAppointmentBooked        = "APPOINTMENT_BOOKED"
	EventAppointmentCancelled     = "APPOINTMENT_CANCELLED"
	EventAppointmentStatusChanged = "APPOINTMENT_STATUS_CHANGED"
	EventAppointmentNotesUpdated  = "APPOINTMENT_NOTES_UPDATED"
	EventProfessionalAdded        = "PROFESSIONAL_ADDED"
	EventProfessionalUpdated      = "PROFESSIONAL_UPDATED"
	EventProfessionalRemoved      = "PROFESSIONAL_REMOVED"
	EventScheduleReplaced         = "SCHEDULE_REPLACED"
)

// EventLog is one audit record of a schedule mutation.
type EventLog struct {
	ID        int64
	EventType string
	EntityID  *string
	Payload   []byte
	CreatedAt time.Time
}
