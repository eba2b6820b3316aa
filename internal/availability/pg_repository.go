package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/db"
)

const templateColumns = `id, doctor_id, weekday, start_time, end_time, slot_duration_minutes, created_at, updated_at`

const doctorForeignKey = "availability_templates_doctor_id_fkey"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanTemplate(row pgx.Row) (*Template, error) {
	var t Template
	var weekday int16
	var start, end pgtype.Time

	err := row.Scan(
		&t.ID,
		&t.DoctorID,
		&weekday,
		&start,
		&end,
		&t.SlotDurationMinutes,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		if fk, ok := db.ForeignKeyViolation(err); ok && fk == doctorForeignKey {
			return nil, clinic.ErrDoctorNotFound
		}
		return nil, db.Classify(err, "scan availability template")
	}

	t.Weekday = time.Weekday(weekday)
	t.StartTime = db.ClockFrom(start)
	t.EndTime = db.ClockFrom(end)
	return &t, nil
}

func (r *PgRepository) Upsert(ctx context.Context, t Template) (*Template, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO availability_templates (id, doctor_id, weekday, start_time, end_time, slot_duration_minutes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (doctor_id, weekday) DO UPDATE
		SET start_time = EXCLUDED.start_time,
		    end_time = EXCLUDED.end_time,
		    slot_duration_minutes = EXCLUDED.slot_duration_minutes,
		    updated_at = now()
		RETURNING `+templateColumns,
		uuid.New(), t.DoctorID, int16(t.Weekday), db.TimeParam(t.StartTime), db.TimeParam(t.EndTime), t.SlotDurationMinutes)
	return scanTemplate(row)
}

func (r *PgRepository) FindByID(ctx context.Context, id uuid.UUID) (*Template, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM availability_templates WHERE id = $1`, id)
	return scanTemplate(row)
}

func (r *PgRepository) FindByDoctorAndWeekday(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday) (*Template, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+templateColumns+`
		FROM availability_templates
		WHERE doctor_id = $1 AND weekday = $2
	`, doctorID, int16(weekday))
	return scanTemplate(row)
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Template, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+templateColumns+`
		FROM availability_templates
		WHERE doctor_id = $1
		ORDER BY weekday
	`, doctorID)
	if err != nil {
		return nil, db.Classify(err, "list availability templates")
	}
	defer rows.Close()

	var result []Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, db.Classify(err, "list availability templates")
	}

	return result, nil
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM availability_templates WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err, "delete availability template")
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}
