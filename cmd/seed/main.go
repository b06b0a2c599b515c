package main

import (
	"context"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/hackgods/clinic-scheduling/internal/calendar"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/schedule"
	"github.com/hackgods/clinic-scheduling/pkg/logging"
)

const (
	extraProfessionals = 5
	extraPatients      = 60
	bookingDays        = 10
	bookingsPerDay     = 4
)

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Default().Error("config load error", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel).WithComponent("seed")
	logger.Info("seed starting", "store", cfg.StoreBackend)

	if cfg.StoreBackend != config.BackendPostgres {
		logger.Error("seeding only makes sense with STORE_BACKEND=postgres")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := db.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("store setup error", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	gofakeit.Seed(time.Now().UnixNano())

	now := time.Now().In(cfg.Location)
	s := schedule.Default(now, cfg.Location)

	if err := seedProfessionals(s, extraProfessionals); err != nil {
		logger.Error("seed professionals", "error", err)
		os.Exit(1)
	}
	patients, err := seedPatients(s, extraPatients)
	if err != nil {
		logger.Error("seed patients", "error", err)
		os.Exit(1)
	}
	booked := seedAppointments(s, patients, now, cfg)

	if err := s.Validate(); err != nil {
		logger.Error("generated schedule is invalid", "error", err)
		os.Exit(1)
	}
	if err := store.Snapshots.Save(ctx, *s); err != nil {
		logger.Error("save schedule", "error", err)
		os.Exit(1)
	}

	logger.Info("seed complete",
		"professionals", len(s.Professionals),
		"patients", len(s.Patients),
		"appointments", len(s.Appointments),
		"booked", booked,
	)
}

func seedProfessionals(s *schedule.Schedule, count int) error {
	for i := 0; i < count; i++ {
		price := float64(gofakeit.Number(8, 40) * 10)
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]
		if _, err := s.AddProfessional("Dr. "+gofakeit.Name(), spec, &price); err != nil {
			return err
		}
	}
	return nil
}

func seedPatients(s *schedule.Schedule, count int) ([]schedule.Patient, error) {
	patients := make([]schedule.Patient, 0, count)
	for i := 0; i < count; i++ {
		p, err := s.UpsertPatient(gofakeit.Name())
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, nil
}

// seedAppointments books random free slots over the coming days, going
// through the same slot rules the api-server applies.
func seedAppointments(s *schedule.Schedule, patients []schedule.Patient, now time.Time, cfg config.Config) int {
	policy := calendar.DefaultPolicy
	policy.Collision = cfg.Collision

	booked := 0
	for d := 0; d < bookingDays; d++ {
		day := calendar.StartOfDay(now).AddDate(0, 0, d)
		for i := 0; i < bookingsPerDay; i++ {
			prof := s.Professionals[gofakeit.Number(0, len(s.Professionals)-1)]

			var existing []calendar.Interval
			for _, a := range s.AppointmentsOn(prof.ID, day) {
				if a.Status.Active() {
					existing = append(existing, calendar.Interval{Start: a.Start, End: a.End})
				}
			}
			free := policy.Available(day, existing, now)
			if len(free) == 0 {
				continue
			}

			start := free[gofakeit.Number(0, len(free)-1)]
			patient := patients[gofakeit.Number(0, len(patients)-1)]
			if _, err := s.AddAppointment(prof.ID, patient, start, start.Add(policy.SlotLength), cfg.DefaultPrice); err != nil {
				continue
			}
			booked++
		}
	}
	return booked
}
