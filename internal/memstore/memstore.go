// Package memstore keeps the scheduler's stores in process memory. It backs
// STORE_DRIVER=memory and the tests, and applies the same overlap guard as the
// Postgres exclusion constraint.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

// Store implements clinic.Directory. Templates and Ledger are views over the
// same data and mutex.
type Store struct {
	mu           sync.RWMutex
	doctors      map[uuid.UUID]clinic.Doctor
	patients     map[uuid.UUID]clinic.Patient
	templates    map[uuid.UUID]availability.Template
	appointments map[uuid.UUID]appointment.Appointment
	events       []appointment.EventLog
	now          func() time.Time
}

var (
	_ clinic.Directory        = (*Store)(nil)
	_ availability.Repository = (*Templates)(nil)
	_ appointment.Repository  = (*Ledger)(nil)
)

func New() *Store {
	return &Store{
		doctors:      make(map[uuid.UUID]clinic.Doctor),
		patients:     make(map[uuid.UUID]clinic.Patient),
		templates:    make(map[uuid.UUID]availability.Template),
		appointments: make(map[uuid.UUID]appointment.Appointment),
		now:          time.Now,
	}
}

// Doctors and patients

func (s *Store) FindDoctor(_ context.Context, id uuid.UUID) (*clinic.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.doctors[id]
	if !ok {
		return nil, clinic.ErrDoctorNotFound
	}
	return &d, nil
}

func (s *Store) FindPatient(_ context.Context, id uuid.UUID) (*clinic.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.patients[id]
	if !ok {
		return nil, clinic.ErrPatientNotFound
	}
	return &p, nil
}

func (s *Store) SaveDoctor(_ context.Context, d clinic.Doctor) (*clinic.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if existing, ok := s.doctors[d.ID]; ok {
		d.CreatedAt = existing.CreatedAt
	} else {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	s.doctors[d.ID] = d
	return &d, nil
}

// DeleteDoctor removes the doctor with its templates and appointments.
func (s *Store) DeleteDoctor(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doctors[id]; !ok {
		return clinic.ErrDoctorNotFound
	}
	delete(s.doctors, id)
	for tid, t := range s.templates {
		if t.DoctorID == id {
			delete(s.templates, tid)
		}
	}
	for aid, a := range s.appointments {
		if a.DoctorID == id {
			delete(s.appointments, aid)
		}
	}
	return nil
}

func (s *Store) SavePatient(_ context.Context, p clinic.Patient) (*clinic.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if existing, ok := s.patients[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.patients[p.ID] = p
	return &p, nil
}

// Templates returns the availability template store.
func (s *Store) Templates() *Templates {
	return &Templates{s: s}
}

// Ledger returns the appointment ledger.
func (s *Store) Ledger() *Ledger {
	return &Ledger{s: s}
}
