package slot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workday() Interval {
	return Interval{Start: NewClock(9, 0), End: NewClock(17, 0)}
}

func TestComputeFreeSlotsEmptyDayTilesWindow(t *testing.T) {
	slots := ComputeFreeSlots(workday(), 30, nil)

	require.Len(t, slots, 16)
	assert.Equal(t, Interval{Start: NewClock(9, 0), End: NewClock(9, 30)}, slots[0])
	assert.Equal(t, Interval{Start: NewClock(16, 30), End: NewClock(17, 0)}, slots[15])
	for i := 1; i < len(slots); i++ {
		assert.Equal(t, slots[i-1].End, slots[i].Start, "slots must be contiguous")
		assert.Equal(t, 30, slots[i].Minutes())
	}
}

func TestComputeFreeSlotsDropsTrailingPartialSlot(t *testing.T) {
	window := Interval{Start: NewClock(9, 0), End: NewClock(10, 50)}

	slots := ComputeFreeSlots(window, 25, nil)

	require.Len(t, slots, 4)
	assert.Equal(t, NewClock(10, 40), slots[3].End)
}

func TestComputeFreeSlotsMasksBookedIntervals(t *testing.T) {
	booked := []Interval{
		{Start: NewClock(9, 0), End: NewClock(9, 30)},
		// off-grid booking blocks both slots it touches
		{Start: NewClock(10, 15), End: NewClock(10, 45)},
	}

	slots := ComputeFreeSlots(workday(), 30, booked)

	require.Len(t, slots, 13)
	assert.Equal(t, NewClock(9, 30), slots[0].Start)
	assert.Equal(t, NewClock(11, 0), slots[1].Start)
	for _, s := range slots {
		for _, b := range booked {
			assert.False(t, s.Overlaps(b), "slot %v overlaps booking %v", s, b)
		}
	}
}

func TestComputeFreeSlotsTouchingBookingDoesNotMask(t *testing.T) {
	window := Interval{Start: NewClock(9, 0), End: NewClock(10, 0)}
	booked := []Interval{{Start: NewClock(8, 30), End: NewClock(9, 0)}, {Start: NewClock(10, 0), End: NewClock(10, 30)}}

	slots := ComputeFreeSlots(window, 30, booked)

	assert.Len(t, slots, 2)
}

func TestComputeFreeSlotsDegenerateInput(t *testing.T) {
	assert.Empty(t, ComputeFreeSlots(workday(), 0, nil))
	assert.Empty(t, ComputeFreeSlots(Interval{Start: NewClock(10, 0), End: NewClock(9, 0)}, 30, nil))
	assert.Empty(t, ComputeFreeSlots(Interval{Start: NewClock(9, 0), End: NewClock(9, 20)}, 30, nil))
}

func TestComputeFreeSlotsIsRepeatable(t *testing.T) {
	booked := []Interval{{Start: NewClock(12, 0), End: NewClock(13, 0)}}

	assert.Equal(t, ComputeFreeSlots(workday(), 20, booked), ComputeFreeSlots(workday(), 20, booked))
}

func TestParseClock(t *testing.T) {
	cases := map[string]Clock{
		"09:00":    NewClock(9, 0),
		"16:30":    NewClock(16, 30),
		"00:00":    0,
		"24:00":    MinutesPerDay,
		"07:15:00": NewClock(7, 15),
	}
	for in, want := range cases {
		got, err := ParseClock(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "9", "9:00", "09:60", "24:01", "25:00", "ab:cd", "09:00:30", "1:2:3:4", "+9:00", "-1:00", "09:+5", " 9:00"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestClockJSON(t *testing.T) {
	raw, err := json.Marshal(Interval{Start: NewClock(9, 5), End: NewClock(9, 35)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"start_time":"09:05","end_time":"09:35"}`, string(raw))

	var iv Interval
	require.NoError(t, json.Unmarshal(raw, &iv))
	assert.Equal(t, NewClock(9, 35), iv.End)
}
