package slot

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay is the exclusive upper bound of a Clock within one day; 24:00 is
// allowed as a window end.
const MinutesPerDay = 24 * 60

// Clock is a naive local wall-clock time expressed in minutes after midnight.
type Clock int

// NewClock builds a Clock from hours and minutes.
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock parses "HH:MM" or "HH:MM:SS" (seconds must be zero).
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		if !twoDigits(p) {
			return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
		}
		nums[i], _ = strconv.Atoi(p)
	}
	if nums[1] > 59 || (len(nums) == 3 && nums[2] != 0) {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	c := NewClock(nums[0], nums[1])
	if c < 0 || c > MinutesPerDay {
		return 0, fmt.Errorf("invalid time %q, past end of day", s)
	}
	return c, nil
}

func twoDigits(p string) bool {
	return len(p) == 2 && p[0] >= '0' && p[0] <= '9' && p[1] >= '0' && p[1] <= '9'
}

// FromDuration converts a duration since midnight into a Clock, truncating seconds.
func FromDuration(d time.Duration) Clock {
	return Clock(d / time.Minute)
}

// Duration returns the offset from midnight.
func (c Clock) Duration() time.Duration {
	return time.Duration(c) * time.Minute
}

// Add moves the clock forward by the given number of minutes. The result may
// exceed MinutesPerDay; callers compare it against a window end.
func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// MarshalText renders the clock as HH:MM.
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses HH:MM.
func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
