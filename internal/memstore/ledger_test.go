package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/slot"
)

var day = slot.Date(2025, time.March, 5)

func newAppointment(doctorID uuid.UUID, startHour, startMinute, minutes int) appointment.Appointment {
	start := slot.NewClock(startHour, startMinute)
	return appointment.Appointment{
		PatientID: uuid.New(),
		DoctorID:  doctorID,
		Date:      day,
		StartTime: start,
		EndTime:   start.Add(minutes),
		Status:    appointment.StatusScheduled,
	}
}

func TestLedgerCountOverlappingIgnoresCancelled(t *testing.T) {
	ctx := context.Background()
	l := New().Ledger()
	doctor := uuid.New()

	a, err := l.Save(ctx, newAppointment(doctor, 9, 0, 30))
	require.NoError(t, err)

	n, err := l.CountOverlapping(ctx, doctor, day, slot.NewClock(9, 15), slot.NewClock(9, 45))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = l.CountOverlapping(ctx, doctor, day, slot.NewClock(9, 30), slot.NewClock(10, 0))
	require.NoError(t, err)
	assert.Zero(t, n, "touching intervals do not overlap")

	n, err = l.CountOverlapping(ctx, uuid.New(), day, slot.NewClock(9, 0), slot.NewClock(9, 30))
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = l.UpdateStatus(ctx, a.ID, appointment.StatusScheduled, appointment.StatusCancelled, nil)
	require.NoError(t, err)

	n, err = l.CountOverlapping(ctx, doctor, day, slot.NewClock(9, 0), slot.NewClock(9, 30))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLedgerSaveGuardsOverlap(t *testing.T) {
	ctx := context.Background()
	l := New().Ledger()
	doctor := uuid.New()

	first, err := l.Save(ctx, newAppointment(doctor, 10, 0, 30))
	require.NoError(t, err)

	_, err = l.Save(ctx, newAppointment(doctor, 10, 15, 30))
	assert.ErrorIs(t, err, appointment.ErrSlotTaken)

	// Re-saving the same appointment must not collide with itself.
	first.Reason = "follow-up"
	updated, err := l.Save(ctx, *first)
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "follow-up", updated.Reason)

	_, err = l.Save(ctx, newAppointment(uuid.New(), 10, 0, 30))
	assert.NoError(t, err, "other doctors are unaffected")
}

func TestLedgerListBookedSortedByStart(t *testing.T) {
	ctx := context.Background()
	l := New().Ledger()
	doctor := uuid.New()

	for _, h := range []int{15, 9, 12} {
		_, err := l.Save(ctx, newAppointment(doctor, h, 0, 30))
		require.NoError(t, err)
	}
	cancelled, err := l.Save(ctx, newAppointment(doctor, 8, 0, 30))
	require.NoError(t, err)
	_, err = l.UpdateStatus(ctx, cancelled.ID, appointment.StatusScheduled, appointment.StatusCancelled, nil)
	require.NoError(t, err)

	booked, err := l.ListBooked(ctx, doctor, day.Add(8*time.Hour))
	require.NoError(t, err)
	require.Len(t, booked, 3)
	assert.Equal(t, slot.NewClock(9, 0), booked[0].StartTime)
	assert.Equal(t, slot.NewClock(12, 0), booked[1].StartTime)
	assert.Equal(t, slot.NewClock(15, 0), booked[2].StartTime)
}

func TestLedgerUpdateStatusIsCompareAndSet(t *testing.T) {
	ctx := context.Background()
	l := New().Ledger()

	a, err := l.Save(ctx, newAppointment(uuid.New(), 9, 0, 30))
	require.NoError(t, err)

	notes := "done"
	done, err := l.UpdateStatus(ctx, a.ID, appointment.StatusScheduled, appointment.StatusCompleted, &notes)
	require.NoError(t, err)
	assert.Equal(t, "done", done.Notes)

	_, err = l.UpdateStatus(ctx, a.ID, appointment.StatusScheduled, appointment.StatusCancelled, nil)
	assert.ErrorIs(t, err, appointment.ErrAppointmentNotFound)

	got, err := l.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCompleted, got.Status)
}

func TestLedgerInsertEvent(t *testing.T) {
	ctx := context.Background()
	l := New().Ledger()

	id := uuid.New()
	require.NoError(t, l.InsertEvent(ctx, appointment.EventLog{EventType: appointment.EventAppointmentBooked, AppointmentID: &id}))
	require.NoError(t, l.InsertEvent(ctx, appointment.EventLog{EventType: appointment.EventAppointmentCancelled, AppointmentID: &id}))

	events := l.Events()
	require.Len(t, events, 2)
	assert.Equal(t, int64(1), events[0].ID)
	assert.Equal(t, appointment.EventAppointmentCancelled, events[1].EventType)
	assert.False(t, events[1].CreatedAt.IsZero())
}
