package availability

import (
	"slices"
	"testing"
)

func TestRequiredLanguages(t *testing.T) {
	langs, src := RequiredLanguages([]string{" NL", "en", "nl"}, []string{"fr"})
	if src != LanguagesExplicit || !slices.Equal(langs, []string{"nl", "en"}) {
		t.Fatalf("unexpected explicit result %v %s", langs, src)
	}

	langs, src = RequiredLanguages([]string{}, []string{"fr"})
	if src != LanguagesCeremonyType || !slices.Equal(langs, []string{"fr"}) {
		t.Fatalf("empty explicit list must fall through to ceremony type, got %v %s", langs, src)
	}

	langs, src = RequiredLanguages(nil, nil)
	if src != LanguagesNone || len(langs) != 0 {
		t.Fatalf("expected no filter, got %v %s", langs, src)
	}
}

func TestGate_Order(t *testing.T) {
	date := day(2026, 11, 2)
	ok := Registrar{ID: "b1", Languages: []string{"nl"}, Status: StatusSwornIn, Active: true, LinkActive: true}

	cases := []struct {
		name string
		edit func(r *Registrar)
		req  []string
		want Reason
	}{
		{"eligible", func(*Registrar) {}, []string{"nl"}, ReasonNone},
		{"no languages beats inactive", func(r *Registrar) { r.Languages = nil; r.Active = false }, nil, ReasonNoLanguages},
		{"inactive", func(r *Registrar) { r.Active = false }, nil, ReasonInactive},
		{"pending", func(r *Registrar) { r.Status = StatusPending }, nil, ReasonNotSwornIn},
		{"link inactive", func(r *Registrar) { r.LinkActive = false }, nil, ReasonLinkInactive},
		{"before from", func(r *Registrar) { r.AvailableFrom = timep(date.AddDate(0, 0, 1)) }, nil, ReasonBeforeAvailability},
		{"after until", func(r *Registrar) { r.AvailableUntil = timep(date.AddDate(0, 0, -1)) }, nil, ReasonAfterAvailability},
		{"until is inclusive", func(r *Registrar) { r.AvailableUntil = timep(date) }, nil, ReasonNone},
		{"language mismatch", func(*Registrar) {}, []string{"fr"}, ReasonLanguageMismatch},
		{"language case-insensitive", func(r *Registrar) { r.Languages = []string{"NL"} }, []string{"nl"}, ReasonNone},
	}
	for _, tc := range cases {
		reg := ok
		tc.edit(&reg)
		if got := Gate(reg, date, tc.req); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
