package availability

import "testing"

func TestHasBookingConflict(t *testing.T) {
	date := day(2026, 11, 2)
	bookings := []Booking{
		{RegistrarID: "b1", Date: date, Window: Window{Start: 10 * 60, End: 11 * 60}, Status: "confirmed"},
		{RegistrarID: "b1", Date: date, Window: Window{Start: 14 * 60, End: 15 * 60}, Status: "Cancelled"},
		{RegistrarID: "b2", Date: date, Window: Window{Start: 12 * 60, End: 13 * 60}, Status: "confirmed"},
		{RegistrarID: "b1", Date: date.AddDate(0, 0, 1), Window: Window{Start: 12 * 60, End: 13 * 60}, Status: "confirmed"},
	}

	if !HasBookingConflict("b1", date, 10*60+30, 11*60+30, bookings) {
		t.Fatal("expected overlap with confirmed booking")
	}
	if HasBookingConflict("b1", date, 11*60, 12*60, bookings) {
		t.Fatal("back-to-back ceremonies must not conflict")
	}
	if HasBookingConflict("b1", date, 14*60, 15*60, bookings) {
		t.Fatal("cancelled bookings must not conflict")
	}
	if HasBookingConflict("b1", date, 12*60, 13*60, bookings) {
		t.Fatal("bookings of other registrars or other dates must not conflict")
	}
}

func TestIsBlocked(t *testing.T) {
	date := day(2026, 11, 2)
	partial := []Block{{RegistrarID: "b1", Date: date, Window: Window{Start: 12 * 60, End: 14 * 60}}}

	if blocked, kind := IsBlocked("b1", date, 13*60, 13*60+30, partial); !blocked || kind != BlockedPartial {
		t.Fatalf("expected partial block, got %v %d", blocked, kind)
	}
	if blocked, _ := IsBlocked("b1", date, 14*60, 15*60, partial); blocked {
		t.Fatal("interval starting at block end must be free")
	}

	allDay := append(partial, Block{RegistrarID: "b1", Date: date, AllDay: true})
	if blocked, kind := IsBlocked("b1", date, 8*60, 9*60, allDay); !blocked || kind != BlockedAllDay {
		t.Fatalf("expected all-day block, got %v %d", blocked, kind)
	}
	if blocked, _ := IsBlocked("b1", date.AddDate(0, 0, 1), 8*60, 9*60, allDay); blocked {
		t.Fatal("blocks apply to their own date only")
	}
}
