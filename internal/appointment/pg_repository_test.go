package appointment_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/db/dbtest"
	"github.com/hackgods/clinic-scheduling/internal/slot"
	apperrors "github.com/hackgods/clinic-scheduling/pkg/errors"
)

type pgFixture struct {
	repo      *appointment.PgRepository
	directory *clinic.PgDirectory
	templates *availability.PgRepository
	doctor    *clinic.Doctor
	patient   *clinic.Patient
}

func newPgFixture(t *testing.T) *pgFixture {
	t.Helper()
	pool := dbtest.Pool(t)
	ctx := context.Background()

	directory := clinic.NewPgDirectory(pool)
	doctor, err := directory.SaveDoctor(ctx, clinic.Doctor{Name: "Dr. Park"})
	require.NoError(t, err)
	patient, err := directory.SavePatient(ctx, clinic.Patient{Name: "Robin"})
	require.NoError(t, err)

	return &pgFixture{
		repo:      appointment.NewPgRepository(pool),
		directory: directory,
		templates: availability.NewPgRepository(pool),
		doctor:    doctor,
		patient:   patient,
	}
}

func (f *pgFixture) save(t *testing.T, start, end slot.Clock, status appointment.Status) (*appointment.Appointment, error) {
	t.Helper()
	return f.repo.Save(context.Background(), appointment.Appointment{
		PatientID: f.patient.ID,
		DoctorID:  f.doctor.ID,
		Date:      wednesday,
		StartTime: start,
		EndTime:   end,
		Status:    status,
		Reason:    "checkup",
	})
}

func TestPgCountOverlapping(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()

	_, err := f.save(t, slot.NewClock(9, 0), slot.NewClock(9, 30), appointment.StatusScheduled)
	require.NoError(t, err)
	_, err = f.save(t, slot.NewClock(9, 0), slot.NewClock(9, 30), appointment.StatusCancelled)
	require.NoError(t, err)

	cases := []struct {
		name       string
		start, end slot.Clock
		want       int
	}{
		{"same interval", slot.NewClock(9, 0), slot.NewClock(9, 30), 1},
		{"partial overlap", slot.NewClock(9, 15), slot.NewClock(9, 45), 1},
		{"touching after", slot.NewClock(9, 30), slot.NewClock(10, 0), 0},
		{"touching before", slot.NewClock(8, 30), slot.NewClock(9, 0), 0},
		{"disjoint", slot.NewClock(11, 0), slot.NewClock(11, 30), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := f.repo.CountOverlapping(ctx, f.doctor.ID, wednesday, tc.start, tc.end)
			require.NoError(t, err)
			assert.Equal(t, tc.want, n)
		})
	}

	n, err := f.repo.CountOverlapping(ctx, f.doctor.ID, wednesday.AddDate(0, 0, 7), slot.NewClock(9, 0), slot.NewClock(9, 30))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPgListBookedOrderedAndLive(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()

	for _, start := range []slot.Clock{slot.NewClock(14, 0), slot.NewClock(9, 0), slot.NewClock(11, 30)} {
		_, err := f.save(t, start, start.Add(30), appointment.StatusScheduled)
		require.NoError(t, err)
	}
	_, err := f.save(t, slot.NewClock(10, 0), slot.NewClock(10, 30), appointment.StatusCancelled)
	require.NoError(t, err)

	booked, err := f.repo.ListBooked(ctx, f.doctor.ID, wednesday)
	require.NoError(t, err)
	require.Len(t, booked, 3)
	assert.Equal(t, slot.NewClock(9, 0), booked[0].StartTime)
	assert.Equal(t, slot.NewClock(11, 30), booked[1].StartTime)
	assert.Equal(t, slot.NewClock(14, 0), booked[2].StartTime)
	assert.Equal(t, wednesday, booked[0].Date)
	assert.Equal(t, slot.NewClock(9, 30), booked[0].EndTime)
}

func TestPgSaveRejectsOverlappingLiveAppointment(t *testing.T) {
	f := newPgFixture(t)

	first, err := f.save(t, slot.NewClock(9, 0), slot.NewClock(9, 30), appointment.StatusScheduled)
	require.NoError(t, err)

	_, err = f.save(t, slot.NewClock(9, 15), slot.NewClock(9, 45), appointment.StatusScheduled)
	require.Error(t, err)
	assert.ErrorIs(t, err, appointment.ErrSlotTaken)
	assert.Equal(t, "DOUBLE_BOOKED", apperrors.FromError(err).Code)

	_, err = f.save(t, slot.NewClock(9, 30), slot.NewClock(10, 0), appointment.StatusScheduled)
	assert.NoError(t, err, "touching intervals do not overlap")

	_, err = f.save(t, slot.NewClock(9, 0), slot.NewClock(9, 30), appointment.StatusCancelled)
	assert.NoError(t, err, "cancelled rows are outside the constraint")

	resaved := *first
	resaved.Reason = "follow-up"
	got, err := f.repo.Save(context.Background(), resaved)
	require.NoError(t, err)
	assert.Equal(t, "follow-up", got.Reason)
}

func TestPgSaveMapsDeletedReferences(t *testing.T) {
	f := newPgFixture(t)

	_, err := f.repo.Save(context.Background(), appointment.Appointment{
		PatientID: f.patient.ID,
		DoctorID:  uuid.New(),
		Date:      wednesday,
		StartTime: slot.NewClock(9, 0),
		EndTime:   slot.NewClock(9, 30),
		Status:    appointment.StatusScheduled,
	})
	assert.ErrorIs(t, err, clinic.ErrDoctorNotFound)

	_, err = f.repo.Save(context.Background(), appointment.Appointment{
		PatientID: uuid.New(),
		DoctorID:  f.doctor.ID,
		Date:      wednesday,
		StartTime: slot.NewClock(9, 0),
		EndTime:   slot.NewClock(9, 30),
		Status:    appointment.StatusScheduled,
	})
	assert.ErrorIs(t, err, clinic.ErrPatientNotFound)
}

func TestPgUpdateStatusCompareAndSet(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()

	appt, err := f.save(t, slot.NewClock(9, 0), slot.NewClock(9, 30), appointment.StatusScheduled)
	require.NoError(t, err)

	notes := "seen"
	done, err := f.repo.UpdateStatus(ctx, appt.ID, appointment.StatusScheduled, appointment.StatusCompleted, &notes)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCompleted, done.Status)
	assert.Equal(t, "seen", done.Notes)

	_, err = f.repo.UpdateStatus(ctx, appt.ID, appointment.StatusScheduled, appointment.StatusCancelled, nil)
	assert.ErrorIs(t, err, appointment.ErrAppointmentNotFound)

	current, err := f.repo.FindByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCompleted, current.Status)
	assert.Equal(t, "seen", current.Notes)

	_, err = f.repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, appointment.ErrAppointmentNotFound)
}

func TestPgWindowEndingAtMidnight(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()

	tmpl, err := f.templates.Upsert(ctx, availability.Template{
		DoctorID:            f.doctor.ID,
		Weekday:             time.Wednesday,
		StartTime:           slot.NewClock(22, 0),
		EndTime:             slot.MinutesPerDay,
		SlotDurationMinutes: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, slot.Clock(slot.MinutesPerDay), tmpl.EndTime)

	last, err := f.save(t, slot.NewClock(23, 30), slot.MinutesPerDay, appointment.StatusScheduled)
	require.NoError(t, err)
	assert.Equal(t, slot.Clock(slot.MinutesPerDay), last.EndTime)

	n, err := f.repo.CountOverlapping(ctx, f.doctor.ID, wednesday, slot.NewClock(23, 45), slot.MinutesPerDay)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// The next day's first slot starts where this one ended.
	_, err = f.repo.Save(ctx, appointment.Appointment{
		PatientID: f.patient.ID,
		DoctorID:  f.doctor.ID,
		Date:      wednesday.AddDate(0, 0, 1),
		StartTime: 0,
		EndTime:   slot.NewClock(0, 30),
		Status:    appointment.StatusScheduled,
	})
	assert.NoError(t, err)
}

func TestPgListsAndEvents(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()

	late, err := f.save(t, slot.NewClock(15, 0), slot.NewClock(15, 30), appointment.StatusScheduled)
	require.NoError(t, err)
	early, err := f.save(t, slot.NewClock(8, 0), slot.NewClock(8, 30), appointment.StatusScheduled)
	require.NoError(t, err)

	byPatient, err := f.repo.ListByPatient(ctx, f.patient.ID)
	require.NoError(t, err)
	require.Len(t, byPatient, 2)
	assert.Equal(t, early.ID, byPatient[0].ID)
	assert.Equal(t, late.ID, byPatient[1].ID)

	byDoctor, err := f.repo.ListByDoctor(ctx, f.doctor.ID)
	require.NoError(t, err)
	assert.Len(t, byDoctor, 2)

	id := early.ID
	require.NoError(t, f.repo.InsertEvent(ctx, appointment.EventLog{
		EventType:     appointment.EventAppointmentBooked,
		AppointmentID: &id,
		Payload:       []byte(`{"start_time":"08:00"}`),
	}))
}

// Without any lock, the exclusion constraint alone must let exactly one of
// many concurrent overlapping bookings through.
func TestPgConcurrentBookingsWithoutLock(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()

	cal := availability.NewCalendar(f.templates, f.directory)
	_, err := cal.SetTemplate(ctx, f.doctor.ID, time.Wednesday, slot.Interval{Start: slot.NewClock(9, 0), End: slot.NewClock(17, 0)}, 30)
	require.NoError(t, err)

	svc := appointment.NewService(staleCounter{f.repo}, cal, f.directory, noopLocker{}, zap.NewNop())

	const workers = 16
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		rejected  atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := svc.BookAppointment(ctx, appointment.BookingRequest{
				PatientID: f.patient.ID,
				DoctorID:  f.doctor.ID,
				Date:      wednesday,
				StartTime: slot.NewClock(9, i%3*10),
			})
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, apperrors.ErrDoubleBooked), apperrors.Retryable(err):
				// Postgres may abort a waiting inserter as a deadlock victim.
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, successes.Load())
	assert.EqualValues(t, workers-1, rejected.Load())

	booked, err := f.repo.ListBooked(ctx, f.doctor.ID, wednesday)
	require.NoError(t, err)
	assert.Len(t, booked, 1)
}
