// Package slot enumerates fixed-duration appointment slots inside a working window.
package slot

// Interval is a half-open [Start, End) span of wall-clock time.
type Interval struct {
	Start Clock `json:"start_time"`
	End   Clock `json:"end_time"`
}

// Overlaps reports whether the two intervals intersect. Touching endpoints do
// not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && i.End > o.Start
}

// Contains reports whether o lies entirely inside i.
func (i Interval) Contains(o Interval) bool {
	return o.Start >= i.Start && o.End <= i.End
}

// Minutes is the length of the interval.
func (i Interval) Minutes() int {
	return int(i.End - i.Start)
}

// ComputeFreeSlots tiles window into consecutive slots of durationMinutes and
// returns the ones that overlap none of booked. The cursor always advances by
// a full slot, so a conflict never shifts the grid. A trailing partial slot is
// not offered. The result is rebuilt on every call.
func ComputeFreeSlots(window Interval, durationMinutes int, booked []Interval) []Interval {
	if durationMinutes <= 0 || window.End <= window.Start {
		return nil
	}

	free := make([]Interval, 0, window.Minutes()/durationMinutes)
	for cursor := window.Start; cursor.Add(durationMinutes) <= window.End; cursor = cursor.Add(durationMinutes) {
		candidate := Interval{Start: cursor, End: cursor.Add(durationMinutes)}
		if !overlapsAny(candidate, booked) {
			free = append(free, candidate)
		}
	}
	return free
}

func overlapsAny(candidate Interval, booked []Interval) bool {
	for _, b := range booked {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}
