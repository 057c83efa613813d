package availability

import "time"

// HasBookingConflict reports whether any non-cancelled booking of the registrar on
// date overlaps [reqStart,reqEnd).
func HasBookingConflict(registrarID string, date time.Time, reqStart, reqEnd Clock, bookings []Booking) bool {
	date = civilDate(date)
	for _, b := range bookings {
		if b.RegistrarID != registrarID || !b.Date.Equal(date) || b.Cancelled() {
			continue
		}
		if Overlaps(reqStart, reqEnd, b.Window.Start, b.Window.End) {
			return true
		}
	}
	return false
}

// BlockKind tells which kind of block removed the availability.
type BlockKind int

const (
	NotBlocked BlockKind = iota
	BlockedAllDay
	BlockedPartial
)

// IsBlocked reports whether a blocked-date record for the registrar on date removes
// the requested interval. All-day blocks win over partial ones.
func IsBlocked(registrarID string, date time.Time, reqStart, reqEnd Clock, blocks []Block) (bool, BlockKind) {
	date = civilDate(date)
	kind := NotBlocked
	for _, b := range blocks {
		if b.RegistrarID != registrarID || !b.Date.Equal(date) {
			continue
		}
		if b.AllDay {
			return true, BlockedAllDay
		}
		if Overlaps(reqStart, reqEnd, b.Window.Start, b.Window.End) {
			kind = BlockedPartial
		}
	}
	return kind != NotBlocked, kind
}
