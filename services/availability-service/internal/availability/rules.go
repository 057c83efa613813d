package availability

import (
	"fmt"
	"strings"
	"time"
)

// RuleType enumerates the recurring rule patterns administrators can configure.
type RuleType string

const (
	RuleWorkdays       RuleType = "workdays"
	RuleWeekly         RuleType = "weekly"
	RuleBiweekly       RuleType = "biweekly"
	RuleMonthlyWeekday RuleType = "monthly_weekday"
	RuleMonthlyDay     RuleType = "monthly_day"
)

// Rule is a validated recurring availability rule.
type Rule struct {
	ID         string
	Type       RuleType
	DayOfWeek  time.Weekday
	DayOfMonth int
	Window     Window
	ValidFrom  time.Time
	ValidUntil *time.Time
}

// ParseRule validates a stored rule. Any failure wraps ErrInvalidConfiguration.
func ParseRule(rec RuleRecord) (Rule, error) {
	r := Rule{
		ID:        rec.ID,
		Type:      RuleType(strings.ToLower(strings.TrimSpace(rec.RuleType))),
		ValidFrom: civilDate(rec.ValidFrom),
	}
	if rec.ValidFrom.IsZero() {
		return Rule{}, fmt.Errorf("%w: rule %s: valid_from is required", ErrInvalidConfiguration, rec.ID)
	}
	if rec.ValidUntil != nil {
		until := civilDate(*rec.ValidUntil)
		if until.Before(r.ValidFrom) {
			return Rule{}, fmt.Errorf("%w: rule %s: valid_until before valid_from", ErrInvalidConfiguration, rec.ID)
		}
		r.ValidUntil = &until
	}

	switch r.Type {
	case RuleWorkdays:
	case RuleWeekly, RuleBiweekly, RuleMonthlyWeekday:
		if rec.DayOfWeek == nil || *rec.DayOfWeek < 0 || *rec.DayOfWeek > 6 {
			return Rule{}, fmt.Errorf("%w: rule %s: %s requires day_of_week 0-6", ErrInvalidConfiguration, rec.ID, r.Type)
		}
		r.DayOfWeek = time.Weekday(*rec.DayOfWeek)
	case RuleMonthlyDay:
		if rec.DayOfMonth == nil || *rec.DayOfMonth < 1 || *rec.DayOfMonth > 31 {
			return Rule{}, fmt.Errorf("%w: rule %s: %s requires day_of_month 1-31", ErrInvalidConfiguration, rec.ID, r.Type)
		}
		r.DayOfMonth = *rec.DayOfMonth
	default:
		return Rule{}, fmt.Errorf("%w: rule %s: unknown rule type %q", ErrInvalidConfiguration, rec.ID, rec.RuleType)
	}

	w, err := parseWindowBounds(rec.StartTime, rec.EndTime)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: rule %s: %w", ErrInvalidConfiguration, rec.ID, err)
	}
	r.Window = w
	return r, nil
}

// AppliesOn reports whether the rule is in force on date, regardless of the
// requested hour.
//
// Biweekly and monthly-by-weekday rules match every occurrence of their weekday.
// No alternating-week or nth-weekday constraint is applied.
func (r Rule) AppliesOn(date time.Time) bool {
	date = civilDate(date)
	if date.Before(r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && date.After(*r.ValidUntil) {
		return false
	}
	switch r.Type {
	case RuleWorkdays:
		wd := date.Weekday()
		return wd >= time.Monday && wd <= time.Friday
	case RuleWeekly, RuleBiweekly, RuleMonthlyWeekday:
		return date.Weekday() == r.DayOfWeek
	case RuleMonthlyDay:
		return date.Day() == r.DayOfMonth
	default:
		return false
	}
}

// Covers reports whether the requested interval fits inside the rule's daily window.
func (r Rule) Covers(reqStart, reqEnd Clock) bool {
	return r.Window.Contains(reqStart, reqEnd)
}

// applicableRules returns the rules in force on date.
func applicableRules(rules []Rule, date time.Time) []Rule {
	var out []Rule
	for _, r := range rules {
		if r.AppliesOn(date) {
			out = append(out, r)
		}
	}
	return out
}
