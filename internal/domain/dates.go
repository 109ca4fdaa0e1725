package domain

import "time"

// Day truncates a timestamp to midnight UTC. All engine math operates on
// calendar days; stores are expected to return dates already normalized.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateRange is an inclusive calendar-day range [Start, End].
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange normalizes both endpoints to midnight UTC.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: Day(start), End: Day(end)}
}

// Valid reports whether Start <= End.
func (r DateRange) Valid() bool {
	return !r.Start.After(r.End)
}

// NumDays returns the number of calendar days covered, inclusive of both
// endpoints. Returns 0 for an invalid range.
func (r DateRange) NumDays() int {
	if !r.Valid() {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Days returns the sequence of days in [Start, End], inclusive.
func (r DateRange) Days() []time.Time {
	n := r.NumDays()
	if n == 0 {
		return nil
	}
	days := make([]time.Time, n)
	for i := 0; i < n; i++ {
		days[i] = r.Start.AddDate(0, 0, i)
	}
	return days
}

// Contains reports whether the given day falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(r.Start) && !d.After(r.End)
}
