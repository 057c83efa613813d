package availability

import (
	"errors"
	"testing"
)

func TestParseQuery(t *testing.T) {
	req, err := ParseQuery(Query{
		MunicipalityID:    "m1",
		Date:              "2026-11-02",
		StartTime:         "14:00",
		DurationMinutes:   45,
		RequiredLanguages: []string{"NL"},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if req.Start.String() != "14:00" || req.End.String() != "14:45" {
		t.Fatalf("unexpected interval %s-%s", req.Start, req.End)
	}
	if !req.Date.Equal(day(2026, 11, 2)) {
		t.Fatalf("unexpected date %s", req.Date)
	}
	if len(req.Languages) != 1 || req.Languages[0] != "nl" {
		t.Fatalf("expected normalized languages, got %v", req.Languages)
	}
}

func TestParseQuery_Invalid(t *testing.T) {
	base := Query{MunicipalityID: "m1", Date: "2026-11-02", StartTime: "14:00", DurationMinutes: 45}
	cases := map[string]func(q *Query){
		"missing municipality": func(q *Query) { q.MunicipalityID = " " },
		"missing date":         func(q *Query) { q.Date = "" },
		"bad date":             func(q *Query) { q.Date = "02-11-2026" },
		"missing start":        func(q *Query) { q.StartTime = "" },
		"bad start":            func(q *Query) { q.StartTime = "2pm" },
		"zero duration":        func(q *Query) { q.DurationMinutes = 0 },
		"negative duration":    func(q *Query) { q.DurationMinutes = -15 },
		"past midnight":        func(q *Query) { q.StartTime = "23:30"; q.DurationMinutes = 60 },
	}
	for name, edit := range cases {
		q := base
		edit(&q)
		if _, err := ParseQuery(q); !errors.Is(err, ErrInvalidQuery) {
			t.Fatalf("%s: expected ErrInvalidQuery, got %v", name, err)
		}
	}
}

func TestParseQuery_EndingAtMidnight(t *testing.T) {
	req, err := ParseQuery(Query{MunicipalityID: "m1", Date: "2026-11-02", StartTime: "23:00", DurationMinutes: 60})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if req.End != endOfDay {
		t.Fatalf("expected end 24:00, got %s", req.End)
	}
}
