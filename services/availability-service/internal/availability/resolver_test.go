package availability

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"
)

func mustRequest(t *testing.T, q Query) Request {
	t.Helper()
	if q.MunicipalityID == "" {
		q.MunicipalityID = testMunicipality
	}
	req, err := ParseQuery(q)
	if err != nil {
		t.Fatalf("ParseQuery failed: %v", err)
	}
	req.Languages, req.LanguageSource = RequiredLanguages(req.Languages, nil)
	return req
}

func mustSnapshot(t *testing.T, src *memSource, date string) *Snapshot {
	t.Helper()
	d, err := ParseDate(date)
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}
	snap, err := LoadSnapshot(context.Background(), src, testMunicipality, d, 4)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	return snap
}

func ids(matches []Match) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.RegistrarID)
	}
	return out
}

func TestEvaluate_LanguageFilterEndToEnd(t *testing.T) {
	src := newMemSource()
	src.addRegistrar("b1", "Sanne", "Visser", "nl", "en")
	src.addRegistrar("b2", "Daan", "Bakker", "nl")
	src.addRegistrar("b3", "Camille", "Dubois", "fr")
	snap := mustSnapshot(t, src, "2026-11-02")

	res := Evaluate(snap, mustRequest(t, Query{Date: "2026-11-02", StartTime: "14:00", DurationMinutes: 45, RequiredLanguages: []string{"nl", "en"}}), EvaluateOptions{})
	if got := ids(res.Registrars); !reflect.DeepEqual(got, []string{"b2", "b1"}) {
		t.Fatalf("expected [b2 b1], got %v", got)
	}
	if res.ExcludedByReason[ReasonLanguageMismatch] != 1 {
		t.Fatalf("expected one language mismatch, got %v", res.ExcludedByReason)
	}

	res = Evaluate(snap, mustRequest(t, Query{Date: "2026-11-02", StartTime: "14:00", DurationMinutes: 45, RequiredLanguages: []string{"FR"}}), EvaluateOptions{})
	if got := ids(res.Registrars); !reflect.DeepEqual(got, []string{"b3"}) {
		t.Fatalf("expected [b3], got %v", got)
	}

	res = Evaluate(snap, mustRequest(t, Query{Date: "2026-11-02", StartTime: "14:00", DurationMinutes: 45}), EvaluateOptions{})
	if len(res.Registrars) != 3 || res.LanguageSource != LanguagesNone {
		t.Fatalf("expected all three without a language filter, got %v (%s)", ids(res.Registrars), res.LanguageSource)
	}
}

func TestEvaluate_BookingsAndBlocks(t *testing.T) {
	src := newMemSource()
	src.addRegistrar("b1", "Anna", "Jansen", "nl")
	src.addRegistrar("b2", "Bram", "Smit", "nl")
	src.addRegistrar("b3", "Cor", "Mulder", "nl")
	src.addRegistrar("b4", "Dirk", "Peters", "nl")
	date := day(2026, 11, 2)
	src.bookings["b1"] = []BookingRecord{{ID: "c1", RegistrarID: "b1", Date: date, StartTime: "14:30", EndTime: "15:30", Status: "confirmed"}}
	src.bookings["b2"] = []BookingRecord{{ID: "c2", RegistrarID: "b2", Date: date, StartTime: "14:30", EndTime: "15:30", Status: "cancelled"}}
	src.blocks["b3"] = []BlockRecord{{ID: "x1", RegistrarID: "b3", Date: date, AllDay: true}}
	src.blocks["b4"] = []BlockRecord{{ID: "x2", RegistrarID: "b4", Date: date, StartTime: "13:00", EndTime: "14:15"}}
	snap := mustSnapshot(t, src, "2026-11-02")

	res := Evaluate(snap, mustRequest(t, Query{Date: "2026-11-02", StartTime: "14:00", DurationMinutes: 45}), EvaluateOptions{Diagnostics: true})
	if got := ids(res.Registrars); !reflect.DeepEqual(got, []string{"b2"}) {
		t.Fatalf("expected only b2, got %v", got)
	}
	want := map[string]Reason{"b1": ReasonBookingConflict, "b3": ReasonBlockedAllDay, "b4": ReasonBlockedPartial}
	if len(res.Exclusions) != len(want) {
		t.Fatalf("expected %d exclusions, got %+v", len(want), res.Exclusions)
	}
	for _, ex := range res.Exclusions {
		if want[ex.RegistrarID] != ex.Reason {
			t.Fatalf("%s: expected %s, got %s", ex.RegistrarID, want[ex.RegistrarID], ex.Reason)
		}
	}
}

func TestEvaluate_RuleSuppressesLegacy(t *testing.T) {
	src := newMemSource()
	reg := src.addRegistrar("b1", "Anna", "Jansen", "nl")
	reg.LegacySchedule = json.RawMessage(`{"monday": ["13:00-17:00"]}`)
	src.rules["b1"] = []RuleRecord{{
		ID: "r1", RegistrarID: "b1", RuleType: "weekly", DayOfWeek: intp(1),
		StartTime: "09:00", EndTime: "12:00", ValidFrom: day(2026, 1, 1),
	}}
	snap := mustSnapshot(t, src, "2026-11-02")

	res := Evaluate(snap, mustRequest(t, Query{Date: "2026-11-02", StartTime: "14:00", DurationMinutes: 45}), EvaluateOptions{Diagnostics: true})
	if len(res.Registrars) != 0 {
		t.Fatalf("legacy slot must be ignored on a rule-governed date, got %v", ids(res.Registrars))
	}
	if len(res.Exclusions) != 1 || res.Exclusions[0].Reason != ReasonRuleWindowMismatch || res.Exclusions[0].Step != StepSchedule {
		t.Fatalf("unexpected exclusions %+v", res.Exclusions)
	}

	res = Evaluate(snap, mustRequest(t, Query{Date: "2026-11-02", StartTime: "10:00", DurationMinutes: 45}), EvaluateOptions{})
	if len(res.Registrars) != 1 {
		t.Fatal("expected the rule window to admit 10:00")
	}
}

func TestEvaluate_LegacyGovernsWithoutApplicableRule(t *testing.T) {
	src := newMemSource()
	reg := src.addRegistrar("b1", "Anna", "Jansen", "nl")
	reg.LegacySchedule = json.RawMessage(`{"maandag": ["13:00-17:00"], "dinsdag": []}`)
	src.rules["b1"] = []RuleRecord{{
		ID: "r1", RegistrarID: "b1", RuleType: "weekly", DayOfWeek: intp(3),
		StartTime: "09:00", EndTime: "12:00", ValidFrom: day(2026, 1, 1),
	}}
	snap := mustSnapshot(t, src, "2026-11-02")

	res := Evaluate(snap, mustRequest(t, Query{Date: "2026-11-02", StartTime: "14:00", DurationMinutes: 45}), EvaluateOptions{})
	if len(res.Registrars) != 1 {
		t.Fatalf("expected legacy Monday slot to admit 14:00")
	}

	tuesday := mustSnapshot(t, src, "2026-11-03")
	res = Evaluate(tuesday, mustRequest(t, Query{Date: "2026-11-03", StartTime: "14:00", DurationMinutes: 45}), EvaluateOptions{Diagnostics: true})
	if len(res.Exclusions) != 1 || res.Exclusions[0].Reason != ReasonLegacyDayEmpty {
		t.Fatalf("expected legacy_day_empty, got %+v", res.Exclusions)
	}
}

func TestEvaluate_NoScheduleAtAll(t *testing.T) {
	src := newMemSource()
	src.addRegistrar("b1", "Anna", "Jansen", "nl")
	src.rules["b1"] = nil
	snap := mustSnapshot(t, src, "2026-11-02")

	res := Evaluate(snap, mustRequest(t, Query{Date: "2026-11-02", StartTime: "10:00", DurationMinutes: 30}), EvaluateOptions{})
	if len(res.Registrars) != 0 || res.ExcludedByReason[ReasonLegacyNotConfigured] != 1 {
		t.Fatalf("expected legacy_not_configured, got %v", res.ExcludedByReason)
	}
}

func TestEvaluate_MalformedLegacyOnlyMattersWhenGoverning(t *testing.T) {
	src := newMemSource()
	reg := src.addRegistrar("b1", "Anna", "Jansen", "nl")
	reg.LegacySchedule = json.RawMessage(`"every day"`)
	snap := mustSnapshot(t, src, "2026-11-02")

	res := Evaluate(snap, mustRequest(t, Query{Date: "2026-11-02", StartTime: "10:00", DurationMinutes: 30}), EvaluateOptions{})
	if len(res.Registrars) != 1 {
		t.Fatal("workdays rule governs Monday; malformed legacy map must not matter")
	}

	saturday := mustSnapshot(t, src, "2026-11-07")
	res = Evaluate(saturday, mustRequest(t, Query{Date: "2026-11-07", StartTime: "10:00", DurationMinutes: 30}), EvaluateOptions{})
	if res.ExcludedByReason[ReasonLegacyMalformed] != 1 {
		t.Fatalf("expected legacy_malformed on Saturday, got %v", res.ExcludedByReason)
	}
}

func TestEvaluate_PartialFailureIsolation(t *testing.T) {
	src := newMemSource()
	src.addRegistrar("b1", "Anna", "Jansen", "nl")
	src.addRegistrar("b2", "Bram", "Smit", "nl")
	src.rules["b2"] = append(src.rules["b2"], RuleRecord{ID: "broken", RegistrarID: "b2", RuleType: "fortnightly", StartTime: "09:00", EndTime: "17:00", ValidFrom: day(2026, 1, 1)})
	snap := mustSnapshot(t, src, "2026-11-02")

	res := Evaluate(snap, mustRequest(t, Query{Date: "2026-11-02", StartTime: "10:00", DurationMinutes: 30}), EvaluateOptions{Diagnostics: true})
	if got := ids(res.Registrars); !reflect.DeepEqual(got, []string{"b1"}) {
		t.Fatalf("expected only b1, got %v", got)
	}
	if len(res.Exclusions) != 1 || res.Exclusions[0].Reason != ReasonMalformedConfiguration || res.Exclusions[0].Step != StepConfiguration {
		t.Fatalf("unexpected exclusions %+v", res.Exclusions)
	}
}

func TestEvaluate_GateRunsBeforeConfiguration(t *testing.T) {
	src := newMemSource()
	reg := src.addRegistrar("b1", "Anna", "Jansen", "nl")
	reg.Status = StatusRetired
	src.rules["b1"] = []RuleRecord{{ID: "broken", RegistrarID: "b1", RuleType: "weekly", StartTime: "09:00", EndTime: "17:00", ValidFrom: day(2026, 1, 1)}}
	snap := mustSnapshot(t, src, "2026-11-02")

	v := EvaluateCandidate(snap.Candidates[0], mustRequest(t, Query{Date: "2026-11-02", StartTime: "10:00", DurationMinutes: 30}))
	if v.Reason != ReasonNotSwornIn {
		t.Fatalf("expected not_sworn_in, got %s", v.Reason)
	}
}

func TestEvaluate_OrderingAndDeterminism(t *testing.T) {
	src := newMemSource()
	src.addRegistrar("b5", "Zoë", "Zeeman", "nl")
	src.addRegistrar("b4", "Piet", "bakker", "nl")
	src.addRegistrar("b3", "Anna", "Bakker", "nl")
	src.addRegistrar("b2", "Anna", "Bakker", "nl")
	src.addRegistrar("b1", "Ellen", "Achterberg", "nl")
	snap := mustSnapshot(t, src, "2026-11-02")
	req := mustRequest(t, Query{Date: "2026-11-02", StartTime: "10:00", DurationMinutes: 30})

	want := []string{"b1", "b2", "b3", "b4", "b5"}
	sequential := Evaluate(snap, req, EvaluateOptions{Workers: 1})
	if got := ids(sequential.Registrars); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := 0; i < 5; i++ {
		parallel := Evaluate(snap, req, EvaluateOptions{Workers: 8})
		if !reflect.DeepEqual(parallel, sequential) {
			t.Fatalf("run %d: parallel evaluation differs from sequential", i)
		}
	}
}

func TestEvaluate_DiagnosticsDoNotChangeResult(t *testing.T) {
	src := newMemSource()
	src.addRegistrar("b1", "Anna", "Jansen", "nl")
	src.addRegistrar("b2", "Bram", "Smit", "fr")
	snap := mustSnapshot(t, src, "2026-11-02")
	req := mustRequest(t, Query{Date: "2026-11-02", StartTime: "10:00", DurationMinutes: 30, RequiredLanguages: []string{"nl"}})

	plain := Evaluate(snap, req, EvaluateOptions{})
	diag := Evaluate(snap, req, EvaluateOptions{Diagnostics: true})
	if len(plain.Exclusions) != 0 {
		t.Fatalf("exclusions must only be reported with diagnostics, got %+v", plain.Exclusions)
	}
	if !reflect.DeepEqual(ids(plain.Registrars), ids(diag.Registrars)) {
		t.Fatal("diagnostics must not change the result")
	}
	if len(diag.Exclusions) != 1 || diag.Exclusions[0].Detail == "" {
		t.Fatalf("expected one detailed exclusion, got %+v", diag.Exclusions)
	}
}
