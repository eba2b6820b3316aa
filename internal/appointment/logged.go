package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/metrics"
	"github.com/hackgods/clinic-scheduling/internal/slot"
	apperrors "github.com/hackgods/clinic-scheduling/pkg/errors"
)

// OperationObserver receives the outcome and duration of every arbiter call.
type OperationObserver interface {
	ObserveOperation(operation, outcome string, duration time.Duration)
}

type loggedService struct {
	next     Arbiter
	logger   *zap.Logger
	observer OperationObserver
	slow     time.Duration
}

// NewLoggedService wraps an Arbiter with attempt/outcome logging, timing and
// metrics. Calls slower than slow are logged at warn level.
func NewLoggedService(next Arbiter, logger *zap.Logger, observer OperationObserver, slow time.Duration) Arbiter {
	return &loggedService{
		next:     next,
		logger:   logger.Named("appointment"),
		observer: observer,
		slow:     slow,
	}
}

func (l *loggedService) BookAppointment(ctx context.Context, req BookingRequest) (appt *Appointment, err error) {
	defer l.track("book", time.Now(), &err,
		zap.Stringer("patient_id", req.PatientID),
		zap.Stringer("doctor_id", req.DoctorID),
		zap.String("date", req.Date.Format(slot.DateLayout)),
		zap.Stringer("start_time", req.StartTime),
	)()
	return l.next.BookAppointment(ctx, req)
}

func (l *loggedService) ListAvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) (slots []FreeSlot, err error) {
	defer l.track("list_slots", time.Now(), &err,
		zap.Stringer("doctor_id", doctorID),
		zap.String("date", date.Format(slot.DateLayout)),
	)()
	return l.next.ListAvailableSlots(ctx, doctorID, date)
}

func (l *loggedService) Cancel(ctx context.Context, id uuid.UUID) (appt *Appointment, err error) {
	defer l.track("cancel", time.Now(), &err, zap.Stringer("appointment_id", id))()
	return l.next.Cancel(ctx, id)
}

func (l *loggedService) Complete(ctx context.Context, id uuid.UUID, notes string) (appt *Appointment, err error) {
	defer l.track("complete", time.Now(), &err, zap.Stringer("appointment_id", id))()
	return l.next.Complete(ctx, id, notes)
}

func (l *loggedService) GetAppointment(ctx context.Context, id uuid.UUID) (appt *Appointment, err error) {
	defer l.track("get", time.Now(), &err, zap.Stringer("appointment_id", id))()
	return l.next.GetAppointment(ctx, id)
}

func (l *loggedService) ListByPatient(ctx context.Context, patientID uuid.UUID) (list []Appointment, err error) {
	defer l.track("list_by_patient", time.Now(), &err, zap.Stringer("patient_id", patientID))()
	return l.next.ListByPatient(ctx, patientID)
}

func (l *loggedService) ListByDoctor(ctx context.Context, doctorID uuid.UUID) (list []Appointment, err error) {
	defer l.track("list_by_doctor", time.Now(), &err, zap.Stringer("doctor_id", doctorID))()
	return l.next.ListByDoctor(ctx, doctorID)
}

// track logs the attempt immediately and returns the func that logs the
// outcome once the wrapped call has set *errp.
func (l *loggedService) track(op string, start time.Time, errp *error, fields ...zap.Field) func() {
	l.logger.Debug("attempt", append(fields, zap.String("operation", op))...)

	return func() {
		elapsed := time.Since(start)
		err := *errp

		outcome := metrics.OutcomeOK
		if err != nil {
			outcome = apperrors.FromError(err).Code
		}
		if l.observer != nil {
			l.observer.ObserveOperation(op, outcome, elapsed)
		}

		fields = append(fields,
			zap.String("operation", op),
			zap.String("outcome", outcome),
			zap.Duration("duration", elapsed),
		)

		switch {
		case err != nil && apperrors.FromError(err).Status >= 500:
			l.logger.Error("failed", append(fields, zap.Error(err))...)
		case err != nil:
			l.logger.Info("rejected", append(fields, zap.Error(err))...)
		case l.slow > 0 && elapsed > l.slow:
			l.logger.Warn("slow", fields...)
		default:
			l.logger.Info("succeeded", fields...)
		}
	}
}
