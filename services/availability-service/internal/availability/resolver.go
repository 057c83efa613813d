package availability

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Match is a registrar that is eligible and free for the requested slot.
type Match struct {
	RegistrarID string
	FullName    string
	Languages   []string

	familyName string
	givenName  string
}

// Exclusion explains why a registrar is missing from the result.
type Exclusion struct {
	RegistrarID string
	FullName    string
	Step        Step
	Reason      Reason
	Detail      string

	familyName string
	givenName  string
}

// Result is the outcome of one resolution. Exclusions is only populated when
// diagnostics were requested and never influences Registrars.
type Result struct {
	Registrars        []Match
	Exclusions        []Exclusion
	RequiredLanguages []string
	LanguageSource    LanguageSource
	Warnings          []string

	// ExcludedByReason counts exclusions per reason regardless of diagnostics.
	ExcludedByReason map[Reason]int
}

type EvaluateOptions struct {
	Diagnostics bool
	// Workers bounds parallel evaluation across candidates. Values <= 1 evaluate
	// sequentially.
	Workers int
}

// Verdict is the pipeline outcome for one registrar. A zero Reason means available.
type Verdict struct {
	Reason Reason
	Detail string
}

// Evaluate runs the per-registrar pipeline over every candidate in snap and returns
// the eligible registrars sorted by family name, then given name. Evaluate is pure:
// the same snapshot and request always produce the same ordered result.
func Evaluate(snap *Snapshot, req Request, opts EvaluateOptions) Result {
	res := Result{
		RequiredLanguages: req.Languages,
		LanguageSource:    req.LanguageSource,
		ExcludedByReason:  map[Reason]int{},
	}
	if snap == nil || len(snap.Candidates) == 0 {
		return res
	}

	verdicts := make([]Verdict, len(snap.Candidates))
	if opts.Workers <= 1 {
		for i := range snap.Candidates {
			verdicts[i] = EvaluateCandidate(snap.Candidates[i], req)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(opts.Workers)
		for i := range snap.Candidates {
			g.Go(func() error {
				verdicts[i] = EvaluateCandidate(snap.Candidates[i], req)
				return nil
			})
		}
		_ = g.Wait()
	}

	for i, v := range verdicts {
		reg := snap.Candidates[i].Registrar
		if v.Reason == ReasonNone {
			res.Registrars = append(res.Registrars, Match{
				RegistrarID: reg.ID,
				FullName:    reg.FullName(),
				Languages:   normalizeLanguages(reg.Languages),
				familyName:  sortName(reg.FamilyName, reg.Name),
				givenName:   strings.TrimSpace(reg.GivenName),
			})
			continue
		}
		res.ExcludedByReason[v.Reason]++
		if opts.Diagnostics {
			res.Exclusions = append(res.Exclusions, Exclusion{
				RegistrarID: reg.ID,
				FullName:    reg.FullName(),
				Step:        v.Reason.Step(),
				Reason:      v.Reason,
				Detail:      v.Detail,
				familyName:  sortName(reg.FamilyName, reg.Name),
				givenName:   strings.TrimSpace(reg.GivenName),
			})
		}
	}

	col := collate.New(language.Dutch, collate.IgnoreCase)
	slices.SortStableFunc(res.Registrars, func(a, b Match) int {
		return compareNames(col, a.familyName, a.givenName, a.RegistrarID, b.familyName, b.givenName, b.RegistrarID)
	})
	slices.SortStableFunc(res.Exclusions, func(a, b Exclusion) int {
		return compareNames(col, a.familyName, a.givenName, a.RegistrarID, b.familyName, b.givenName, b.RegistrarID)
	})
	return res
}

// EvaluateCandidate runs the pipeline for a single registrar, stopping at the first
// failing predicate: gate, configuration, bookings, blocks, schedule.
func EvaluateCandidate(c Candidate, req Request) Verdict {
	reg := c.Registrar
	if r := Gate(reg, req.Date, req.Languages); r != ReasonNone {
		return Verdict{Reason: r, Detail: gateDetail(r, reg, req)}
	}
	if c.ConfigErr != nil {
		return Verdict{Reason: ReasonMalformedConfiguration, Detail: c.ConfigErr.Error()}
	}
	if HasBookingConflict(reg.ID, req.Date, req.Start, req.End, c.Bookings) {
		return Verdict{Reason: ReasonBookingConflict, Detail: fmt.Sprintf("existing ceremony overlaps %s-%s", req.Start, req.End)}
	}
	if blocked, kind := IsBlocked(reg.ID, req.Date, req.Start, req.End, c.Blocks); blocked {
		if kind == BlockedAllDay {
			return Verdict{Reason: ReasonBlockedAllDay, Detail: "registrar is blocked for the whole day"}
		}
		return Verdict{Reason: ReasonBlockedPartial, Detail: fmt.Sprintf("blocked period overlaps %s-%s", req.Start, req.End)}
	}
	return scheduleVerdict(c, req)
}

// scheduleVerdict resolves which schedule governs the date and evaluates the slot
// against it. Any rule in force on the date makes the date rule-governed, even when
// no rule window fits the slot; only otherwise is the legacy map consulted.
func scheduleVerdict(c Candidate, req Request) Verdict {
	if applicable := applicableRules(c.Rules, req.Date); len(applicable) > 0 {
		for _, r := range applicable {
			if r.Covers(req.Start, req.End) {
				return Verdict{}
			}
		}
		windows := make([]string, 0, len(applicable))
		for _, r := range applicable {
			windows = append(windows, r.Window.String())
		}
		return Verdict{
			Reason: ReasonRuleWindowMismatch,
			Detail: fmt.Sprintf("%s-%s outside rule windows %s", req.Start, req.End, strings.Join(windows, ", ")),
		}
	}

	if c.LegacyErr != nil {
		if errors.Is(c.LegacyErr, ErrMalformedLegacySchedule) {
			return Verdict{Reason: ReasonLegacyMalformed, Detail: c.LegacyErr.Error()}
		}
		return Verdict{Reason: ReasonMalformedConfiguration, Detail: c.LegacyErr.Error()}
	}
	outcome := c.Legacy.Evaluate(req.Date, req.Start, req.End)
	if outcome == LegacyAvailable {
		return Verdict{}
	}
	r := legacyReason(outcome)
	return Verdict{Reason: r, Detail: legacyDetail(r, req)}
}

func gateDetail(r Reason, reg Registrar, req Request) string {
	switch r {
	case ReasonNoLanguages:
		return "registrar has no spoken languages on record"
	case ReasonNotSwornIn:
		return fmt.Sprintf("status is %q", reg.Status)
	case ReasonBeforeAvailability:
		return "available from " + reg.AvailableFrom.Format("2006-01-02")
	case ReasonAfterAvailability:
		return "available until " + reg.AvailableUntil.Format("2006-01-02")
	case ReasonLanguageMismatch:
		return fmt.Sprintf("speaks %s, required any of %s", strings.Join(reg.Languages, ","), strings.Join(req.Languages, ","))
	default:
		return ""
	}
}

func legacyDetail(r Reason, req Request) string {
	day := strings.ToLower(req.Date.Weekday().String())
	switch r {
	case ReasonLegacyNotConfigured:
		return "no recurring rule applies and no legacy schedule is configured"
	case ReasonLegacyDayAbsent:
		return "legacy schedule has no entry for " + day
	case ReasonLegacyDayEmpty:
		return "legacy schedule lists no slots for " + day
	default:
		return fmt.Sprintf("no legacy slot on %s contains %s-%s", day, req.Start, req.End)
	}
}

func sortName(family, fallback string) string {
	if f := strings.TrimSpace(family); f != "" {
		return f
	}
	return strings.TrimSpace(fallback)
}

func compareNames(col *collate.Collator, famA, givenA, idA, famB, givenB, idB string) int {
	if c := col.CompareString(famA, famB); c != 0 {
		return c
	}
	if c := col.CompareString(givenA, givenB); c != 0 {
		return c
	}
	return strings.Compare(idA, idB)
}
