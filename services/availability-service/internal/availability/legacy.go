package availability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,

	"zondag":    time.Sunday,
	"maandag":   time.Monday,
	"dinsdag":   time.Tuesday,
	"woensdag":  time.Wednesday,
	"donderdag": time.Thursday,
	"vrijdag":   time.Friday,
	"zaterdag":  time.Saturday,
}

// LegacySchedule is the parsed form of a registrar's free-text, day-keyed
// availability map. A nil map means no legacy schedule is configured.
type LegacySchedule struct {
	days map[time.Weekday][]Window
}

// LegacyOutcome is the verdict of the legacy evaluator for one slot.
type LegacyOutcome int

const (
	LegacyAvailable LegacyOutcome = iota
	LegacyNotConfigured
	LegacyDayAbsent
	LegacyDayEmpty
	LegacyNoFittingSlot
)

// ParseLegacySchedule parses the raw map eagerly so a query never re-parses it.
// Empty input or JSON null means "not configured". Anything other than a JSON
// object yields ErrMalformedLegacySchedule; bad day names or slot strings yield
// ErrInvalidConfiguration.
func ParseLegacySchedule(raw json.RawMessage) (LegacySchedule, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return LegacySchedule{}, nil
	}

	var byName map[string]json.RawMessage
	if trimmed[0] != '{' {
		return LegacySchedule{}, ErrMalformedLegacySchedule
	}
	if err := json.Unmarshal(trimmed, &byName); err != nil {
		return LegacySchedule{}, fmt.Errorf("%w: %v", ErrMalformedLegacySchedule, err)
	}

	days := make(map[time.Weekday][]Window, len(byName))
	keyOf := make(map[time.Weekday]string, len(byName))
	for name, value := range byName {
		wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return LegacySchedule{}, fmt.Errorf("%w: legacy schedule: unknown day %q", ErrInvalidConfiguration, name)
		}
		if prev, dup := keyOf[wd]; dup {
			return LegacySchedule{}, fmt.Errorf("%w: legacy schedule: %q and %q name the same day", ErrInvalidConfiguration, prev, name)
		}
		keyOf[wd] = name

		var slots []string
		if v := bytes.TrimSpace(value); len(v) > 0 && !bytes.Equal(v, []byte("null")) {
			if err := json.Unmarshal(v, &slots); err != nil {
				return LegacySchedule{}, fmt.Errorf("%w: legacy schedule: day %q is not a list of ranges", ErrInvalidConfiguration, name)
			}
		}

		windows := make([]Window, 0, len(slots))
		for _, slot := range slots {
			w, err := ParseWindow(slot)
			if err != nil {
				return LegacySchedule{}, fmt.Errorf("%w: legacy schedule: day %q: %w", ErrInvalidConfiguration, name, err)
			}
			windows = append(windows, w)
		}
		days[wd] = windows
	}
	return LegacySchedule{days: days}, nil
}

// Configured reports whether the registrar has a legacy map at all. A configured
// map with no days still denies every date it governs.
func (s LegacySchedule) Configured() bool {
	return s.days != nil
}

// Evaluate decides a slot against the map. Missing days and empty days both deny.
func (s LegacySchedule) Evaluate(date time.Time, reqStart, reqEnd Clock) LegacyOutcome {
	if s.days == nil {
		return LegacyNotConfigured
	}
	windows, ok := s.days[date.Weekday()]
	if !ok {
		return LegacyDayAbsent
	}
	if len(windows) == 0 {
		return LegacyDayEmpty
	}
	for _, w := range windows {
		if w.Contains(reqStart, reqEnd) {
			return LegacyAvailable
		}
	}
	return LegacyNoFittingSlot
}
