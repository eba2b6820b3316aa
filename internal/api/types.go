package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/slot"
)

// Requests

type SetAvailabilityRequest struct {
	Weekday             *int   `json:"weekday" validate:"required,min=0,max=6"`
	StartTime           string `json:"start_time" validate:"required"`
	EndTime             string `json:"end_time" validate:"required"`
	SlotDurationMinutes int    `json:"slot_duration_minutes" validate:"required,min=1,max=1440"`
}

type BookAppointmentRequest struct {
	// PatientID is read only for admins; patients always book for themselves.
	PatientID string `json:"patient_id,omitempty" validate:"omitempty,uuid"`
	DoctorID  string `json:"doctor_id" validate:"required,uuid"`
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	Reason    string `json:"reason" validate:"max=500"`
}

type CompleteAppointmentRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

type CreateDoctorRequest struct {
	Name      string  `json:"name" validate:"required,max=200"`
	Specialty *string `json:"specialty,omitempty" validate:"omitempty,max=200"`
}

type CreatePatientRequest struct {
	Name  string  `json:"name" validate:"required,max=200"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

// Responses

type TemplateResponse struct {
	ID                  uuid.UUID  `json:"id"`
	DoctorID            uuid.UUID  `json:"doctor_id"`
	Weekday             int        `json:"weekday"`
	WeekdayName         string     `json:"weekday_name"`
	StartTime           slot.Clock `json:"start_time"`
	EndTime             slot.Clock `json:"end_time"`
	SlotDurationMinutes int        `json:"slot_duration_minutes"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func newTemplateResponse(t availability.Template) TemplateResponse {
	return TemplateResponse{
		ID:                  t.ID,
		DoctorID:            t.DoctorID,
		Weekday:             int(t.Weekday),
		WeekdayName:         t.Weekday.String(),
		StartTime:           t.StartTime,
		EndTime:             t.EndTime,
		SlotDurationMinutes: t.SlotDurationMinutes,
		UpdatedAt:           t.UpdatedAt,
	}
}

type SlotResponse struct {
	DoctorID   uuid.UUID  `json:"doctor_id"`
	DoctorName string     `json:"doctor_name"`
	Date       string     `json:"date"`
	StartTime  slot.Clock `json:"start_time"`
	EndTime    slot.Clock `json:"end_time"`
}

func newSlotResponse(s appointment.FreeSlot) SlotResponse {
	return SlotResponse{
		DoctorID:   s.DoctorID,
		DoctorName: s.DoctorName,
		Date:       s.Date.Format(slot.DateLayout),
		StartTime:  s.Start,
		EndTime:    s.End,
	}
}

type AppointmentResponse struct {
	ID        uuid.UUID  `json:"id"`
	PatientID uuid.UUID  `json:"patient_id"`
	DoctorID  uuid.UUID  `json:"doctor_id"`
	Date      string     `json:"date"`
	StartTime slot.Clock `json:"start_time"`
	EndTime   slot.Clock `json:"end_time"`
	Status    string     `json:"status"`
	Reason    string     `json:"reason,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func newAppointmentResponse(a appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		PatientID: a.PatientID,
		DoctorID:  a.DoctorID,
		Date:      a.Date.Format(slot.DateLayout),
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		Status:    string(a.Status),
		Reason:    a.Reason,
		Notes:     a.Notes,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func newAppointmentList(list []appointment.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, newAppointmentResponse(a))
	}
	return out
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
