package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/api"
	"github.com/hackgods/clinic-scheduling/internal/slot"
)

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

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[len(latencies)*50/100]
	p95 = latencies[min95(len(latencies))]
	return avg, min, max, p50, p95
}

func min95(n int) int {
	idx := n * 95 / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	Booking   OperationMetrics
	Cancel    OperationMetrics
	ListSlots OperationMetrics
	ReadByID  OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *client
	log     *zap.Logger
	metrics Metrics
}

// setup creates doctors working every day of the week so any simulated date
// is bookable, then the patients.
func setup(ctx context.Context, c *client, cfg SimConfig) (*DataPool, error) {
	pool := &DataPool{}

	for i := 0; i < cfg.Doctors; i++ {
		var d struct {
			ID uuid.UUID `json:"id"`
		}
		if _, err := c.do(ctx, http.MethodPost, "/doctors", c.admin, map[string]string{"name": fmt.Sprintf("Sim Doctor %d", i+1)}, &d); err != nil {
			return nil, err
		}
		for wd := 0; wd < 7; wd++ {
			body := map[string]any{
				"weekday":               wd,
				"start_time":            "09:00",
				"end_time":              "13:00",
				"slot_duration_minutes": 30,
			}
			if _, err := c.do(ctx, http.MethodPut, "/doctors/"+d.ID.String()+"/availability", c.admin, body, nil); err != nil {
				return nil, err
			}
		}
		pool.Doctors = append(pool.Doctors, d.ID)
	}

	for i := 0; i < cfg.Patients; i++ {
		var p struct {
			ID uuid.UUID `json:"id"`
		}
		if _, err := c.do(ctx, http.MethodPost, "/patients", c.admin, map[string]string{"name": fmt.Sprintf("Sim Patient %d", i+1)}, &p); err != nil {
			return nil, err
		}
		pool.Patients = append(pool.Patients, p.ID)
	}

	today := slot.DateOf(time.Now())
	for d := 1; d <= cfg.Days; d++ {
		pool.Dates = append(pool.Dates, today.AddDate(0, 0, d).Format(slot.DateLayout))
	}

	return pool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.log.Info("starting simulation", zap.Duration("duration", s.config.Duration), zap.Int("workers", s.config.Workers))

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.log.Info("simulation complete")
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
				s.doListSlots(ctx, rng)
			default:
				s.doReadByID(ctx, rng)
			}
		}
	}
}

// doBooking picks a start on a 15 minute grid so half the requests straddle
// a 30 minute slot and must conflict with a neighbour.
func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	patientID := s.pool.Patients[rng.Intn(len(s.pool.Patients))]
	doctorID := s.pool.Doctors[rng.Intn(len(s.pool.Doctors))]
	start := slot.NewClock(9, 0).Add(15 * rng.Intn(15))

	body := map[string]string{
		"doctor_id":  doctorID.String(),
		"date":       s.pool.Dates[rng.Intn(len(s.pool.Dates))],
		"start_time": start.String(),
	}

	var appt api.AppointmentResponse
	begin := time.Now()
	status, err := s.client.do(ctx, http.MethodPost, "/appointments", s.client.tokenFor(api.RolePatient, patientID), body, &appt)
	latency := time.Since(begin)
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return
	}

	if err == nil {
		s.pool.AddAppointment(bookedRef{ID: appt.ID, PatientID: patientID, DoctorID: doctorID})
	}
	s.metrics.Booking.Record(latency, err == nil, status == http.StatusConflict)
}

func (s *Simulator) doCancel(ctx context.Context, rng *rand.Rand) {
	ref, ok := s.pool.RandomAppointment(rng)
	if !ok {
		return
	}

	begin := time.Now()
	status, err := s.client.do(ctx, http.MethodPost, "/appointments/"+ref.ID.String()+"/cancel", s.client.tokenFor(api.RolePatient, ref.PatientID), nil, nil)
	if ctx.Err() != nil {
		return
	}
	s.metrics.Cancel.Record(time.Since(begin), err == nil, status == http.StatusConflict)
}

func (s *Simulator) doListSlots(ctx context.Context, rng *rand.Rand) {
	doctorID := s.pool.Doctors[rng.Intn(len(s.pool.Doctors))]
	date := s.pool.Dates[rng.Intn(len(s.pool.Dates))]

	begin := time.Now()
	_, err := s.client.do(ctx, http.MethodGet, "/doctors/"+doctorID.String()+"/slots?date="+date, s.client.admin, nil, nil)
	if ctx.Err() != nil {
		return
	}
	s.metrics.ListSlots.Record(time.Since(begin), err == nil, false)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	ref, ok := s.pool.RandomAppointment(rng)
	if !ok {
		return
	}

	begin := time.Now()
	_, err := s.client.do(ctx, http.MethodGet, "/appointments/"+ref.ID.String(), s.client.tokenFor(api.RoleDoctor, ref.DoctorID), nil, nil)
	if ctx.Err() != nil {
		return
	}
	s.metrics.ReadByID.Record(time.Since(begin), err == nil, false)
}

// verifyNoOverlap lists every doctor's appointments and counts pairs of live
// appointments on the same day whose intervals intersect.
func verifyNoOverlap(ctx context.Context, c *client, pool *DataPool) (int, error) {
	overlaps := 0
	for _, doctorID := range pool.Doctors {
		var list []api.AppointmentResponse
		if _, err := c.do(ctx, http.MethodGet, "/doctors/"+doctorID.String()+"/appointments", c.admin, nil, &list); err != nil {
			return 0, err
		}

		byDate := make(map[string][]slot.Interval)
		for _, a := range list {
			if a.Status == "CANCELLED" {
				continue
			}
			byDate[a.Date] = append(byDate[a.Date], slot.Interval{Start: a.StartTime, End: a.EndTime})
		}

		for _, intervals := range byDate {
			sort.Slice(intervals, func(i, j int) bool { return intervals[i].Start < intervals[j].Start })
			for i := 1; i < len(intervals); i++ {
				if intervals[i-1].Overlaps(intervals[i]) {
					overlaps++
				}
			}
		}
	}
	return overlaps, nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Cancel", &s.metrics.Cancel)
	printOperationReport("List slots", &s.metrics.ListSlots)
	printOperationReport("Read by ID", &s.metrics.ReadByID)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}
