package schedule

import "github.com/google/uuid"

// NewID mints an identifier such as "appt_<uuid>". Tests may replace it.
var NewID = func(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

const (
	professionalPrefix = "prof"
	patientPrefix      = "pat"
	appointmentPrefix  = "appt"
)
