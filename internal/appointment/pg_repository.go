package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/slot"
)

const appointmentColumns = `id, patient_id, doctor_id, appointment_date, start_time, end_time, status, reason, notes, created_at, updated_at`

// Foreign keys on appointments. A doctor or patient deleted after the service
// looked it up surfaces as one of these on insert.
const (
	patientForeignKey = "appointments_patient_id_fkey"
	doctorForeignKey  = "appointments_doctor_id_fkey"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var start, end pgtype.Time

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.Date,
		&start,
		&end,
		&a.Status,
		&a.Reason,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		if db.IsConflict(err) {
			return nil, ErrSlotTaken
		}
		if fk, ok := db.ForeignKeyViolation(err); ok {
			switch fk {
			case patientForeignKey:
				return nil, clinic.ErrPatientNotFound
			case doctorForeignKey:
				return nil, clinic.ErrDoctorNotFound
			}
		}
		return nil, db.Classify(err, "scan appointment")
	}

	a.Date = slot.DateOf(a.Date)
	a.StartTime = db.ClockFrom(start)
	a.EndTime = db.ClockFrom(end)
	return &a, nil
}

func collectAppointments(rows pgx.Rows, op string) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, db.Classify(err, op)
	}

	return result, nil
}

// Interface methods

func (r *PgRepository) CountOverlapping(ctx context.Context, doctorID uuid.UUID, date time.Time, start, end slot.Clock) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE doctor_id = $1
		  AND appointment_date = $2
		  AND status <> 'CANCELLED'
		  AND start_time < $4
		  AND end_time > $3
	`, doctorID, date, db.TimeParam(start), db.TimeParam(end)).Scan(&count)
	if err != nil {
		return 0, db.Classify(err, "count overlapping appointments")
	}
	return count, nil
}

func (r *PgRepository) ListBooked(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND appointment_date = $2
		  AND status <> 'CANCELLED'
		ORDER BY start_time
	`, doctorID, date)
	if err != nil {
		return nil, db.Classify(err, "list booked appointments")
	}
	return collectAppointments(rows, "list booked appointments")
}

func (r *PgRepository) Save(ctx context.Context, a Appointment) (*Appointment, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
		    reason = EXCLUDED.reason,
		    notes = EXCLUDED.notes,
		    updated_at = now()
		RETURNING `+appointmentColumns,
		a.ID, a.PatientID, a.DoctorID, a.Date, db.TimeParam(a.StartTime), db.TimeParam(a.EndTime), a.Status, a.Reason, a.Notes)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, notes *string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    notes = COALESCE($4, notes),
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns,
		id, to, from, notes)

	return scanAppointment(row)
}

func (r *PgRepository) FindByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		ORDER BY appointment_date, start_time
	`, patientID)
	if err != nil {
		return nil, db.Classify(err, "list appointments by patient")
	}
	return collectAppointments(rows, "list appointments by patient")
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		ORDER BY appointment_date, start_time
	`, doctorID)
	if err != nil {
		return nil, db.Classify(err, "list appointments by doctor")
	}
	return collectAppointments(rows, "list appointments by doctor")
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
