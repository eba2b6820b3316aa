package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/hackgods/clinic-scheduling/internal/slot"
	apperrors "github.com/hackgods/clinic-scheduling/pkg/errors"
)

func TestIsConflict(t *testing.T) {
	assert.True(t, IsConflict(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23P01"})))
	assert.True(t, IsConflict(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsConflict(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsConflict(errors.New("boom")))
}

func TestForeignKeyViolation(t *testing.T) {
	name, ok := ForeignKeyViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503", ConstraintName: "appointments_doctor_id_fkey"}))
	assert.True(t, ok)
	assert.Equal(t, "appointments_doctor_id_fkey", name)

	_, ok = ForeignKeyViolation(&pgconn.PgError{Code: "23P01", ConstraintName: "appointments_no_overlap"})
	assert.False(t, ok)
	_, ok = ForeignKeyViolation(errors.New("boom"))
	assert.False(t, ok)
}

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify(nil, "noop"))

	timeout := Classify(fmt.Errorf("query: %w", context.DeadlineExceeded), "count overlapping")
	assert.ErrorIs(t, timeout, apperrors.ErrStoreUnavailable)
	assert.ErrorIs(t, timeout, context.DeadlineExceeded)

	connLost := Classify(&pgconn.PgError{Code: "08006"}, "save appointment")
	assert.ErrorIs(t, connLost, apperrors.ErrStoreUnavailable)

	serialization := Classify(&pgconn.PgError{Code: "40001"}, "save appointment")
	assert.True(t, apperrors.Retryable(serialization))

	syntax := Classify(&pgconn.PgError{Code: "42601"}, "list booked")
	assert.NotErrorIs(t, syntax, apperrors.ErrStoreUnavailable)
	assert.ErrorIs(t, syntax, apperrors.ErrInternal)
}

func TestTimeRoundTrip(t *testing.T) {
	for _, c := range []slot.Clock{0, slot.NewClock(9, 30), slot.NewClock(16, 45), slot.MinutesPerDay} {
		assert.Equal(t, c, ClockFrom(TimeParam(c)))
	}
}
