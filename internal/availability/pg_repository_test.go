package availability_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/db/dbtest"
	"github.com/hackgods/clinic-scheduling/internal/slot"
)

func TestPgCalendar(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()

	directory := clinic.NewPgDirectory(pool)
	doctor, err := directory.SaveDoctor(ctx, clinic.Doctor{Name: "Dr. Lee"})
	require.NoError(t, err)

	cal := availability.NewCalendar(availability.NewPgRepository(pool), directory)
	morning := slot.Interval{Start: slot.NewClock(9, 0), End: slot.NewClock(12, 0)}

	friday, err := cal.SetTemplate(ctx, doctor.ID, time.Friday, morning, 20)
	require.NoError(t, err)
	monday, err := cal.SetTemplate(ctx, doctor.ID, time.Monday, morning, 30)
	require.NoError(t, err)

	replaced, err := cal.SetTemplate(ctx, doctor.ID, time.Friday, slot.Interval{Start: slot.NewClock(13, 0), End: slot.MinutesPerDay}, 15)
	require.NoError(t, err)
	assert.Equal(t, friday.ID, replaced.ID)
	assert.Equal(t, slot.Clock(slot.MinutesPerDay), replaced.EndTime)
	assert.Equal(t, 15, replaced.SlotDurationMinutes)

	list, err := cal.ListTemplates(ctx, doctor.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, time.Monday, list[0].Weekday)
	assert.Equal(t, time.Friday, list[1].Weekday)

	_, err = cal.SetTemplate(ctx, uuid.New(), time.Monday, morning, 30)
	assert.ErrorIs(t, err, clinic.ErrDoctorNotFound)

	require.NoError(t, cal.DeleteTemplate(ctx, monday.ID))
	assert.ErrorIs(t, cal.DeleteTemplate(ctx, monday.ID), availability.ErrTemplateNotFound)

	require.NoError(t, directory.DeleteDoctor(ctx, doctor.ID))
	_, err = cal.GetTemplateByID(ctx, friday.ID)
	assert.ErrorIs(t, err, availability.ErrTemplateNotFound)
}
