package availability

import (
	"encoding/json"
	"strings"
	"time"
)

// Registrar statuses as persisted by the administrative flows. Only StatusSwornIn
// registrars may officiate; every other value is treated as non-active.
const (
	StatusPending = "pending"
	StatusSwornIn = "sworn_in"
	StatusRetired = "retired"
)

const BookingStatusCancelled = "cancelled"

// Registrar is a civil officiant (BABS) as linked to the requesting municipality.
type Registrar struct {
	ID         string
	Name       string
	GivenName  string
	Infix      string
	FamilyName string
	Languages  []string
	Status     string
	Active     bool

	// LinkActive is the active flag of the registrar's membership in the
	// requesting municipality.
	LinkActive bool

	AvailableFrom  *time.Time
	AvailableUntil *time.Time

	// LegacySchedule is the raw day-keyed availability map, if any.
	LegacySchedule json.RawMessage
}

// FullName joins given name, infix and family name; it falls back to Name when
// the structured parts are missing.
func (r Registrar) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.GivenName, r.Infix, r.FamilyName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(r.Name)
	}
	return strings.Join(parts, " ")
}

// RuleRecord is a recurring availability rule as stored. Times are kept as text so
// a malformed value can be isolated to its registrar.
type RuleRecord struct {
	ID          string
	RegistrarID string
	RuleType    string
	DayOfWeek   *int
	DayOfMonth  *int
	StartTime   string
	EndTime     string
	ValidFrom   time.Time
	ValidUntil  *time.Time
}

// BlockRecord is an explicit absence for one registrar on one date.
type BlockRecord struct {
	ID          string
	RegistrarID string
	Date        time.Time
	AllDay      bool
	StartTime   string
	EndTime     string
}

// BookingRecord is an already-confirmed ceremony occupying a registrar.
type BookingRecord struct {
	ID          string
	RegistrarID string
	Date        time.Time
	StartTime   string
	EndTime     string
	Status      string
}

// Block is a parsed BlockRecord.
type Block struct {
	RegistrarID string
	Date        time.Time
	AllDay      bool
	Window      Window
}

// Booking is a parsed BookingRecord.
type Booking struct {
	RegistrarID string
	Date        time.Time
	Window      Window
	Status      string
}

func (b Booking) Cancelled() bool {
	return strings.EqualFold(strings.TrimSpace(b.Status), BookingStatusCancelled)
}

// ParseBlock validates a block record. All-day blocks ignore their time fields.
func ParseBlock(rec BlockRecord) (Block, error) {
	b := Block{RegistrarID: rec.RegistrarID, Date: civilDate(rec.Date), AllDay: rec.AllDay}
	if rec.AllDay {
		return b, nil
	}
	w, err := parseWindowBounds(rec.StartTime, rec.EndTime)
	if err != nil {
		return Block{}, err
	}
	b.Window = w
	return b, nil
}

func ParseBooking(rec BookingRecord) (Booking, error) {
	w, err := parseWindowBounds(rec.StartTime, rec.EndTime)
	if err != nil {
		return Booking{}, err
	}
	return Booking{
		RegistrarID: rec.RegistrarID,
		Date:        civilDate(rec.Date),
		Window:      w,
		Status:      rec.Status,
	}, nil
}
