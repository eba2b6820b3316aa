package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/slot"
	apperrors "github.com/hackgods/clinic-scheduling/pkg/errors"
)

const (
	EventAppointmentBooked    = "APPOINTMENT_BOOKED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
)

var (
	ErrDoctorUnavailable = apperrors.Derive(apperrors.ErrDoctorUnavailable, "doctor has no availability on that weekday")
	ErrOutOfWindow       = apperrors.Derive(apperrors.ErrOutOfWindow, "requested time is outside the doctor's working hours")
	ErrDoubleBooked      = apperrors.Derive(apperrors.ErrDoubleBooked, "time slot already booked for this doctor")
	ErrInvalidTransition = apperrors.Derive(apperrors.ErrInvalidTransition, "only scheduled appointments can change status")
	ErrInvalidBooking    = apperrors.Derive(apperrors.ErrValidation, "invalid booking request")
)

// Arbiter is the only mutation and query surface over scheduling state.
type Arbiter interface {
	BookAppointment(ctx context.Context, req BookingRequest) (*Appointment, error)
	ListAvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]FreeSlot, error)
	Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Complete(ctx context.Context, id uuid.UUID, notes string) (*Appointment, error)

	GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error)
}

// TemplateSource resolves the weekly template governing a weekday.
type TemplateSource interface {
	GetTemplate(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday) (*availability.Template, error)
}

// People resolves the doctor and patient a booking references.
type People interface {
	clinic.DoctorFinder
	clinic.PatientFinder
}

type Service struct {
	repo      Repository
	templates TemplateSource
	people    People
	locker    Locker
	logger    *zap.Logger
}

var _ Arbiter = (*Service)(nil)

func NewService(repo Repository, templates TemplateSource, people People, locker Locker, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		templates: templates,
		people:    people,
		locker:    locker,
		logger:    logger,
	}
}

// BookAppointment validates the request against the doctor's template and
// commits a SCHEDULED appointment. The overlap check and the insert run under
// the doctor/day lock so two overlapping requests cannot both commit. Nothing
// is written unless every check passed.
func (s *Service) BookAppointment(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if req.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidBooking)
	}
	date := slot.DateOf(req.Date)

	if _, err := s.people.FindPatient(ctx, req.PatientID); err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if _, err := s.people.FindDoctor(ctx, req.DoctorID); err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	tmpl, err := s.templateFor(ctx, req.DoctorID, date)
	if err != nil {
		return nil, err
	}

	requested := slot.Interval{Start: req.StartTime, End: req.StartTime.Add(tmpl.SlotDurationMinutes)}
	if !tmpl.Window().Contains(requested) {
		return nil, fmt.Errorf("%w (%s - %s)", ErrOutOfWindow, tmpl.StartTime, tmpl.EndTime)
	}

	var created *Appointment

	err = s.locker.WithLock(ctx, BookingLockKey(req.DoctorID, date), func(lockCtx context.Context) error {
		overlapping, err := s.repo.CountOverlapping(lockCtx, req.DoctorID, date, requested.Start, requested.End)
		if err != nil {
			return fmt.Errorf("count overlapping appointments: %w", err)
		}
		if overlapping > 0 {
			return ErrDoubleBooked
		}

		appt, err := s.repo.Save(lockCtx, Appointment{
			PatientID: req.PatientID,
			DoctorID:  req.DoctorID,
			Date:      date,
			StartTime: requested.Start,
			EndTime:   requested.End,
			Status:    StatusScheduled,
			Reason:    req.Reason,
		})
		if err != nil {
			return fmt.Errorf("save appointment: %w", err)
		}

		created = appt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, created.ID, EventAppointmentBooked, map[string]any{
		"patient_id": created.PatientID.String(),
		"doctor_id":  created.DoctorID.String(),
		"date":       created.Date.Format(slot.DateLayout),
		"start_time": created.StartTime.String(),
		"end_time":   created.EndTime.String(),
	})

	return created, nil
}

// ListAvailableSlots returns the free slots of the doctor's template on date.
// The result may be stale under concurrent writes; booking re-validates.
func (s *Service) ListAvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]FreeSlot, error) {
	date = slot.DateOf(date)

	doctor, err := s.people.FindDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	tmpl, err := s.templateFor(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	booked, err := s.repo.ListBooked(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("list booked appointments: %w", err)
	}

	intervals := make([]slot.Interval, 0, len(booked))
	for _, a := range booked {
		intervals = append(intervals, a.Interval())
	}

	free := slot.ComputeFreeSlots(tmpl.Window(), tmpl.SlotDurationMinutes, intervals)

	result := make([]FreeSlot, 0, len(free))
	for _, iv := range free {
		result = append(result, FreeSlot{
			DoctorID:   doctorID,
			DoctorName: doctor.Name,
			Date:       date,
			Interval:   iv,
		})
	}
	return result, nil
}

// Cancel moves a SCHEDULED appointment to CANCELLED.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	updated, err := s.transition(ctx, id, StatusCancelled, nil)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, updated.ID, EventAppointmentCancelled, map[string]any{})
	return updated, nil
}

// Complete moves a SCHEDULED appointment to COMPLETED and records the notes.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, notes string) (*Appointment, error) {
	updated, err := s.transition(ctx, id, StatusCompleted, &notes)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, updated.ID, EventAppointmentCompleted, map[string]any{})
	return updated, nil
}

// transition applies a compare-and-set on status. When a concurrent
// transition wins, the appointment is re-read and the loser gets
// ErrInvalidTransition instead of overwriting.
func (s *Service) transition(ctx context.Context, id uuid.UUID, to Status, notes *string) (*Appointment, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt.Status != StatusScheduled {
		return nil, fmt.Errorf("%w: appointment is %s", ErrInvalidTransition, appt.Status)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, StatusScheduled, to, notes)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, ErrAppointmentNotFound) {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload appointment: %w", err)
	}
	return nil, fmt.Errorf("%w: appointment is %s", ErrInvalidTransition, current.Status)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	appointments, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	return appointments, nil
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	appointments, err := s.repo.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by doctor: %w", err)
	}
	return appointments, nil
}

func (s *Service) templateFor(ctx context.Context, doctorID uuid.UUID, date time.Time) (*availability.Template, error) {
	tmpl, err := s.templates.GetTemplate(ctx, doctorID, date.Weekday())
	if err != nil {
		if errors.Is(err, availability.ErrTemplateNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDoctorUnavailable, date.Weekday())
		}
		return nil, fmt.Errorf("load availability template: %w", err)
	}
	return tmpl, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("failed to marshal event payload", zap.String("event_type", eventType), zap.Error(err))
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Warn("failed to insert event log",
			zap.String("event_type", eventType),
			zap.Stringer("appointment_id", appointmentID),
			zap.Error(err),
		)
	}
}
