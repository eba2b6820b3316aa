package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/slot"
	apperrors "github.com/hackgods/clinic-scheduling/pkg/errors"
)

var (
	ErrAppointmentNotFound = apperrors.Derive(apperrors.ErrNotFound, "appointment not found")
	// ErrSlotTaken is returned by a store whose own guard rejected an overlapping write.
	ErrSlotTaken = apperrors.Derive(apperrors.ErrDoubleBooked, "overlapping appointment rejected by store")
)

// Repository is the booking ledger. Cancelled appointments never count as
// booked time.
type Repository interface {
	// CountOverlapping counts live appointments of the doctor on date whose
	// interval intersects [start, end).
	CountOverlapping(ctx context.Context, doctorID uuid.UUID, date time.Time, start, end slot.Clock) (int, error)
	// ListBooked returns live appointments of the doctor on date ordered by start time.
	ListBooked(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Appointment, error)

	// Save inserts a new appointment (nil ID) or updates an existing one.
	Save(ctx context.Context, a Appointment) (*Appointment, error)
	// UpdateStatus moves the appointment from one status to another only if it
	// is still in from. It returns ErrAppointmentNotFound when no row matched.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, notes *string) (*Appointment, error)

	FindByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
