package availability

import (
	"fmt"
	"strings"
	"time"
)

// Query is one resolution request as received from a caller.
type Query struct {
	MunicipalityID    string
	Date              string
	StartTime         string
	DurationMinutes   int
	RequiredLanguages []string
	CeremonyTypeID    string
}

// Request is a validated Query. Languages is filled in once the ceremony type (if
// any) has been looked up.
type Request struct {
	MunicipalityID string
	CeremonyTypeID string
	Date           time.Time
	Start          Clock
	End            Clock
	Languages      []string
	LanguageSource LanguageSource
}

// ParseQuery validates the fields every resolution needs. Errors wrap ErrInvalidQuery.
func ParseQuery(q Query) (Request, error) {
	req := Request{
		MunicipalityID: strings.TrimSpace(q.MunicipalityID),
		CeremonyTypeID: strings.TrimSpace(q.CeremonyTypeID),
	}
	if req.MunicipalityID == "" {
		return Request{}, fmt.Errorf("%w: municipality_id is required", ErrInvalidQuery)
	}
	date, err := parseQueryDate(q.Date)
	if err != nil {
		return Request{}, err
	}
	req.Date = date

	if strings.TrimSpace(q.StartTime) == "" {
		return Request{}, fmt.Errorf("%w: start_time is required", ErrInvalidQuery)
	}
	start, err := ParseClock(q.StartTime)
	if err != nil {
		return Request{}, fmt.Errorf("%w: start_time: %w", ErrInvalidQuery, err)
	}
	end, err := EndOf(start, q.DurationMinutes)
	if err != nil {
		return Request{}, fmt.Errorf("%w: duration_minutes: %w", ErrInvalidQuery, err)
	}
	if end > endOfDay {
		return Request{}, fmt.Errorf("%w: ceremony must end by 24:00 (ends %d minutes after midnight)", ErrInvalidQuery, int(end))
	}
	req.Start = start
	req.End = end
	req.Languages = normalizeLanguages(q.RequiredLanguages)
	return req, nil
}

func parseQueryDate(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, fmt.Errorf("%w: date is required", ErrInvalidQuery)
	}
	date, err := ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidQuery)
	}
	return date, nil
}

// withSlot returns a copy of req moved to another start time with the same duration.
func (r Request) withSlot(start Clock) Request {
	r.End = start + (r.End - r.Start)
	r.Start = start
	return r
}
