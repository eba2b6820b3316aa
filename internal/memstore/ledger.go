package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/slot"
)

type Ledger struct {
	s *Store
}

func (l *Ledger) CountOverlapping(_ context.Context, doctorID uuid.UUID, date time.Time, start, end slot.Clock) (int, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	return l.countOverlappingLocked(doctorID, slot.DateOf(date), slot.Interval{Start: start, End: end}, uuid.Nil), nil
}

func (l *Ledger) ListBooked(_ context.Context, doctorID uuid.UUID, date time.Time) ([]appointment.Appointment, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	date = slot.DateOf(date)
	var result []appointment.Appointment
	for _, a := range l.s.appointments {
		if a.DoctorID == doctorID && a.Date.Equal(date) && a.Status != appointment.StatusCancelled {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime < result[j].StartTime })
	return result, nil
}

// Save rejects a live appointment that overlaps another live appointment of
// the same doctor and day with appointment.ErrSlotTaken.
func (l *Ledger) Save(_ context.Context, a appointment.Appointment) (*appointment.Appointment, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	a.Date = slot.DateOf(a.Date)
	if a.Status != appointment.StatusCancelled &&
		l.countOverlappingLocked(a.DoctorID, a.Date, a.Interval(), a.ID) > 0 {
		return nil, appointment.ErrSlotTaken
	}

	now := l.s.now()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if existing, ok := l.s.appointments[a.ID]; ok {
		a.CreatedAt = existing.CreatedAt
	} else {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	l.s.appointments[a.ID] = a
	return &a, nil
}

func (l *Ledger) UpdateStatus(_ context.Context, id uuid.UUID, from, to appointment.Status, notes *string) (*appointment.Appointment, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	a, ok := l.s.appointments[id]
	if !ok || a.Status != from {
		return nil, appointment.ErrAppointmentNotFound
	}

	a.Status = to
	if notes != nil {
		a.Notes = *notes
	}
	a.UpdatedAt = l.s.now()
	l.s.appointments[id] = a
	return &a, nil
}

func (l *Ledger) FindByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	a, ok := l.s.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return &a, nil
}

func (l *Ledger) ListByPatient(_ context.Context, patientID uuid.UUID) ([]appointment.Appointment, error) {
	return l.filter(func(a appointment.Appointment) bool { return a.PatientID == patientID }), nil
}

func (l *Ledger) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]appointment.Appointment, error) {
	return l.filter(func(a appointment.Appointment) bool { return a.DoctorID == doctorID }), nil
}

func (l *Ledger) InsertEvent(_ context.Context, ev appointment.EventLog) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	ev.ID = int64(len(l.s.events) + 1)
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = l.s.now()
	}
	l.s.events = append(l.s.events, ev)
	return nil
}

// Events returns a copy of the event log in insertion order.
func (l *Ledger) Events() []appointment.EventLog {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	out := make([]appointment.EventLog, len(l.s.events))
	copy(out, l.s.events)
	return out
}

func (l *Ledger) filter(keep func(appointment.Appointment) bool) []appointment.Appointment {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	var result []appointment.Appointment
	for _, a := range l.s.appointments {
		if keep(a) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].StartTime < result[j].StartTime
	})
	return result
}

// countOverlappingLocked counts live appointments intersecting iv, skipping
// the appointment with id skip. Callers hold s.mu.
func (l *Ledger) countOverlappingLocked(doctorID uuid.UUID, date time.Time, iv slot.Interval, skip uuid.UUID) int {
	n := 0
	for id, a := range l.s.appointments {
		if id == skip || a.DoctorID != doctorID || !a.Date.Equal(date) || a.Status == appointment.StatusCancelled {
			continue
		}
		if a.Interval().Overlaps(iv) {
			n++
		}
	}
	return n
}
