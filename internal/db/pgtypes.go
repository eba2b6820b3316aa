package db

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/hackgods/clinic-scheduling/internal/slot"
)

// TimeParam encodes a wall-clock time for a Postgres "time" column.
func TimeParam(c slot.Clock) pgtype.Time {
	return pgtype.Time{Microseconds: c.Duration().Microseconds(), Valid: true}
}

// ClockFrom decodes a Postgres "time" value.
func ClockFrom(t pgtype.Time) slot.Clock {
	return slot.Clock(t.Microseconds / 60_000_000)
}
