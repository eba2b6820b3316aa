// Package availability stores each doctor's recurring weekly working hours.
package availability

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/slot"
	apperrors "github.com/hackgods/clinic-scheduling/pkg/errors"
)

var (
	ErrTemplateNotFound = apperrors.Derive(apperrors.ErrNotFound, "availability template not found")
	ErrInvalidTemplate  = apperrors.Derive(apperrors.ErrValidation, "invalid availability template")
)

// Template is a doctor's working window for one weekday. There is at most one
// per (DoctorID, Weekday).
type Template struct {
	ID                  uuid.UUID
	DoctorID            uuid.UUID
	Weekday             time.Weekday
	StartTime           slot.Clock
	EndTime             slot.Clock
	SlotDurationMinutes int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (t Template) Window() slot.Interval {
	return slot.Interval{Start: t.StartTime, End: t.EndTime}
}

// Repository is the template store.
type Repository interface {
	// Upsert inserts the template or replaces the one with the same doctor and weekday.
	Upsert(ctx context.Context, t Template) (*Template, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Template, error)
	FindByDoctorAndWeekday(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday) (*Template, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Template, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
