package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/slot"
)

type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Appointment is one booked visit. EndTime is derived from the template's
// slot duration when the appointment is booked.
type Appointment struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Date      time.Time
	StartTime slot.Clock
	EndTime   slot.Clock
	Status    Status
	Reason    string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a Appointment) Interval() slot.Interval {
	return slot.Interval{Start: a.StartTime, End: a.EndTime}
}

type BookingRequest struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Date      time.Time
	StartTime slot.Clock
	Reason    string
}

// FreeSlot is computed on demand and never stored.
type FreeSlot struct {
	DoctorID   uuid.UUID
	DoctorName string
	Date       time.Time
	slot.Interval
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
