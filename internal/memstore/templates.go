package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/availability"
)

type Templates struct {
	s *Store
}

func (r *Templates) Upsert(_ context.Context, t availability.Template) (*availability.Template, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	for id, existing := range r.s.templates {
		if existing.DoctorID == t.DoctorID && existing.Weekday == t.Weekday {
			t.ID = id
			t.CreatedAt = existing.CreatedAt
			t.UpdatedAt = now
			r.s.templates[id] = t
			return &t, nil
		}
	}

	t.ID = uuid.New()
	t.CreatedAt = now
	t.UpdatedAt = now
	r.s.templates[t.ID] = t
	return &t, nil
}

func (r *Templates) FindByID(_ context.Context, id uuid.UUID) (*availability.Template, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.templates[id]
	if !ok {
		return nil, availability.ErrTemplateNotFound
	}
	return &t, nil
}

func (r *Templates) FindByDoctorAndWeekday(_ context.Context, doctorID uuid.UUID, weekday time.Weekday) (*availability.Template, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.templates {
		if t.DoctorID == doctorID && t.Weekday == weekday {
			return &t, nil
		}
	}
	return nil, availability.ErrTemplateNotFound
}

func (r *Templates) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]availability.Template, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []availability.Template
	for _, t := range r.s.templates {
		if t.DoctorID == doctorID {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Weekday < result[j].Weekday })
	return result, nil
}

func (r *Templates) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.templates[id]; !ok {
		return availability.ErrTemplateNotFound
	}
	delete(r.s.templates, id)
	return nil
}
