package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is a time of day in minutes since midnight.
type Clock int

const endOfDay Clock = 24 * 60

// ParseClock parses "HH:MM". A trailing ":SS" is tolerated for values read back from
// Postgres time columns. "24:00" is accepted so windows can run to the end of the day.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	if len(parts) == 3 && parts[2] != "00" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	if len(parts[0]) < 1 || len(parts[0]) > 2 || len(parts[1]) != 2 || !allDigits(parts[0]) || !allDigits(parts[1]) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	if h == 24 && m != 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	return Clock(h*60 + m), nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// EndOf derives the end of an interval that starts at start and lasts durationMinutes.
func EndOf(start Clock, durationMinutes int) (Clock, error) {
	if durationMinutes <= 0 {
		return 0, fmt.Errorf("%w (got %d)", ErrInvalidDuration, durationMinutes)
	}
	return start + Clock(durationMinutes), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Overlaps reports whether [startA,endA) and [startB,endB) intersect. Touching
// intervals do not overlap: a booking ending at 10:00 leaves 10:00 free.
func Overlaps(startA, endA, startB, endB Clock) bool {
	return startA < endB && endA > startB
}

// Contains reports whether [reqStart,reqEnd) fits entirely inside [winStart,winEnd).
func Contains(winStart, winEnd, reqStart, reqEnd Clock) bool {
	return reqStart >= winStart && reqEnd <= winEnd
}

// Window is a daily time range.
type Window struct {
	Start Clock
	End   Clock
}

func (w Window) Contains(reqStart, reqEnd Clock) bool {
	return Contains(w.Start, w.End, reqStart, reqEnd)
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// ParseWindow parses "HH:MM-HH:MM". The end must be after the start.
func ParseWindow(s string) (Window, error) {
	startRaw, endRaw, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Window{}, fmt.Errorf("%w: range %q", ErrInvalidTimeFormat, s)
	}
	return parseWindowBounds(startRaw, endRaw)
}

func parseWindowBounds(startRaw, endRaw string) (Window, error) {
	start, err := ParseClock(startRaw)
	if err != nil {
		return Window{}, err
	}
	end, err := ParseClock(endRaw)
	if err != nil {
		return Window{}, err
	}
	if end <= start {
		return Window{}, fmt.Errorf("%w: range %s-%s ends before it starts", ErrInvalidTimeFormat, start, end)
	}
	return Window{Start: start, End: end}, nil
}

// civilDate truncates t to its calendar date in UTC. Dates in this package carry
// no time-of-day or zone meaning.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), time.UTC)
}
