package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/hackgods/clinic-scheduling/internal/schedule"
	"github.com/hackgods/clinic-scheduling/pkg/logging"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	Days         int
	BookingRatio float64
	CancelRatio  float64
	ReadRatio    float64
	PatientPool  int
}

// target is one slot the simulator may try to book.
type target struct {
	ProfessionalID string
	Start          time.Time
}

type DataPool struct {
	Targets      []target
	Patients     []string
	mu           sync.RWMutex
	appointments []string
}

func (dp *DataPool) AddAppointment(id string) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) GetRandomAppointment(rng *rand.Rand) (string, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return "", false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95 time.Duration) {
	om.mu.Lock()
	latencies := append([]time.Duration(nil), om.Latencies...)
	om.mu.Unlock()

	if len(latencies) == 0 {
		return 0, 0, 0
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	return sum / time.Duration(len(latencies)), latencies[len(latencies)*50/100], latencies[len(latencies)*95/100]
}

type Metrics struct {
	Booking OperationMetrics
	Cancel  OperationMetrics
	Slots   OperationMetrics
	Patient OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
	logger  *logging.Logger
}

func main() {
	logger := logging.New(getEnv("LOG_LEVEL", "info")).WithComponent("simulate")

	cfg := loadConfig()
	if cfg.Workers <= 0 || cfg.Duration <= 0 {
		logger.Error("SIM_WORKERS and SIM_DURATION must be > 0")
		os.Exit(1)
	}
	logger.Info("simulator starting",
		"base_url", cfg.APIBaseURL,
		"duration", cfg.Duration,
		"workers", cfg.Workers,
		"booking", cfg.BookingRatio,
		"cancel", cfg.CancelRatio,
		"read", cfg.ReadRatio,
	)

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	pool, err := sim.loadDataPool(ctx)
	cancel()
	if err != nil {
		logger.Error("load data pool", "error", err)
		os.Exit(1)
	}
	sim.pool = pool
	logger.Info("data pool loaded", "targets", len(pool.Targets), "patients", len(pool.Patients))

	sim.Run()
	sim.PrintReport()

	if err := sim.checkNoDoubleBooking(context.Background()); err != nil {
		logger.Error("invariant violated", "error", err)
		os.Exit(1)
	}
	logger.Info("no professional has two active appointments at the same start")
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		Days:         getInt("SIM_DAYS", 5),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.5),
		CancelRatio:  getFloat("SIM_CANCEL_RATIO", 0.1),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.4),
		PatientPool:  getInt("SIM_PATIENTS", 200),
	}

	total := cfg.BookingRatio + cfg.CancelRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.CancelRatio /= total
		cfg.ReadRatio /= total
	}
	return cfg
}

// loadDataPool collects the open slots of every professional for the next
// few days. Workers then race for them.
func (s *Simulator) loadDataPool(ctx context.Context) (*DataPool, error) {
	var profs []struct {
		ID string `json:"id"`
	}
	if err := s.getJSON(ctx, "/professionals", &profs); err != nil {
		return nil, fmt.Errorf("list professionals: %w", err)
	}

	pool := &DataPool{}
	today := time.Now()
	for _, p := range profs {
		for d := 0; d < s.config.Days; d++ {
			date := today.AddDate(0, 0, d).Format("2006-01-02")
			var resp struct {
				Slots []time.Time `json:"slots"`
			}
			if err := s.getJSON(ctx, fmt.Sprintf("/professionals/%s/slots?date=%s", url.PathEscape(p.ID), date), &resp); err != nil {
				return nil, fmt.Errorf("slots for %s: %w", p.ID, err)
			}
			for _, start := range resp.Slots {
				pool.Targets = append(pool.Targets, target{ProfessionalID: p.ID, Start: start})
			}
		}
	}
	if len(pool.Targets) == 0 {
		return nil, fmt.Errorf("no open slots found")
	}

	for i := 0; i < s.config.PatientPool; i++ {
		pool.Patients = append(pool.Patients, gofakeit.Name())
	}
	return pool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.logger.Info("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.BookingRatio:
				s.doBooking(ctx, rng)
			case r < s.config.BookingRatio+s.config.CancelRatio:
				s.doCancel(ctx, rng)
			case rng.Intn(2) == 0:
				s.doSlots(ctx, rng)
			default:
				s.doPatientSearch(ctx, rng)
			}
		}
	}
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	t := s.pool.Targets[rng.Intn(len(s.pool.Targets))]
	body, _ := json.Marshal(map[string]string{
		"professional_id": t.ProfessionalID,
		"patient_name":    s.pool.Patients[rng.Intn(len(s.pool.Patients))],
		"start":           strconv.FormatInt(t.Start.UnixMilli(), 10),
	})

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/appointments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success, conflict := false, false
	if err == nil {
		defer resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusCreated:
			success = true
			var created struct {
				ID string `json:"id"`
			}
			if json.NewDecoder(resp.Body).Decode(&created) == nil && created.ID != "" {
				s.pool.AddAppointment(created.ID)
			}
		case http.StatusConflict:
			conflict = true
		}
	}
	s.metrics.Booking.Record(latency, success, conflict)
}

func (s *Simulator) doCancel(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/appointments/%s/cancel", s.config.APIBaseURL, url.PathEscape(id)), nil)
	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}
	s.metrics.Cancel.Record(latency, success, false)
}

func (s *Simulator) doSlots(ctx context.Context, rng *rand.Rand) {
	t := s.pool.Targets[rng.Intn(len(s.pool.Targets))]
	path := fmt.Sprintf("/professionals/%s/slots?date=%s", url.PathEscape(t.ProfessionalID), t.Start.Format("2006-01-02"))
	s.timedGet(ctx, path, &s.metrics.Slots)
}

func (s *Simulator) doPatientSearch(ctx context.Context, rng *rand.Rand) {
	name := s.pool.Patients[rng.Intn(len(s.pool.Patients))]
	s.timedGet(ctx, "/patients/appointments?name="+url.QueryEscape(name), &s.metrics.Patient)
}

func (s *Simulator) timedGet(ctx context.Context, path string, om *OperationMetrics) {
	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+path, nil)
	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}
	om.Record(latency, success, false)
}

// checkNoDoubleBooking fetches the final schedule and verifies that no
// professional holds two active appointments starting at the same instant.
func (s *Simulator) checkNoDoubleBooking(ctx context.Context) error {
	var doc schedule.Document
	if err := s.getJSON(ctx, "/schedule", &doc); err != nil {
		return fmt.Errorf("fetch schedule: %w", err)
	}
	sched, err := schedule.Decode(doc)
	if err != nil {
		return err
	}

	seen := make(map[string]string)
	for _, a := range sched.Appointments {
		if !a.Status.Active() {
			continue
		}
		key := fmt.Sprintf("%s@%d", a.ProfessionalID, a.Start.UnixMilli())
		if other, dup := seen[key]; dup {
			return fmt.Errorf("appointments %s and %s share %s", other, a.ID, key)
		}
		seen[key] = a.ID
	}
	return nil
}

func (s *Simulator) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (s *Simulator) PrintReport() {
	fmt.Println()
	fmt.Println("=== Simulation report ===")
	fmt.Printf("%-10s %8s %8s %9s %7s %10s %10s %10s\n", "operation", "total", "success", "conflict", "error", "avg", "p50", "p95")

	rows := []struct {
		name string
		om   *OperationMetrics
	}{
		{"booking", &s.metrics.Booking},
		{"cancel", &s.metrics.Cancel},
		{"slots", &s.metrics.Slots},
		{"patient", &s.metrics.Patient},
	}
	for _, r := range rows {
		avg, p50, p95 := r.om.Stats()
		fmt.Printf("%-10s %8d %8d %9d %7d %10s %10s %10s\n",
			r.name,
			atomic.LoadInt64(&r.om.Total),
			atomic.LoadInt64(&r.om.Success),
			atomic.LoadInt64(&r.om.Conflict),
			atomic.LoadInt64(&r.om.Error),
			avg.Round(time.Microsecond), p50.Round(time.Microsecond), p95.Round(time.Microsecond),
		)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
