package availability

// Step names the pipeline stage that rejected a registrar.
type Step string

const (
	StepConfiguration Step = "configuration"
	StepGate          Step = "gate"
	StepBookings      Step = "bookings"
	StepBlocks        Step = "blocks"
	StepSchedule      Step = "schedule"
)

// Reason is a stable, machine-readable exclusion code. It is used as a metric label
// and in diagnostics output.
type Reason string

const (
	ReasonNone Reason = ""

	ReasonMalformedConfiguration Reason = "malformed_configuration"

	ReasonNoLanguages        Reason = "no_languages"
	ReasonInactive           Reason = "inactive"
	ReasonNotSwornIn         Reason = "not_sworn_in"
	ReasonLinkInactive       Reason = "municipality_link_inactive"
	ReasonBeforeAvailability Reason = "before_available_from"
	ReasonAfterAvailability  Reason = "after_available_until"
	ReasonLanguageMismatch   Reason = "language_mismatch"

	ReasonBookingConflict Reason = "booking_conflict"
	ReasonBlockedAllDay   Reason = "blocked_all_day"
	ReasonBlockedPartial  Reason = "blocked_partial"

	ReasonRuleWindowMismatch  Reason = "rule_window_mismatch"
	ReasonLegacyNotConfigured Reason = "legacy_not_configured"
	ReasonLegacyMalformed     Reason = "legacy_malformed"
	ReasonLegacyDayAbsent     Reason = "legacy_day_absent"
	ReasonLegacyDayEmpty      Reason = "legacy_day_empty"
	ReasonLegacyNoFittingSlot Reason = "legacy_no_fitting_slot"
)

// Step returns the pipeline stage a reason belongs to.
func (r Reason) Step() Step {
	switch r {
	case ReasonMalformedConfiguration:
		return StepConfiguration
	case ReasonNoLanguages, ReasonInactive, ReasonNotSwornIn, ReasonLinkInactive,
		ReasonBeforeAvailability, ReasonAfterAvailability, ReasonLanguageMismatch:
		return StepGate
	case ReasonBookingConflict:
		return StepBookings
	case ReasonBlockedAllDay, ReasonBlockedPartial:
		return StepBlocks
	default:
		return StepSchedule
	}
}

func legacyReason(o LegacyOutcome) Reason {
	switch o {
	case LegacyNotConfigured:
		return ReasonLegacyNotConfigured
	case LegacyDayAbsent:
		return ReasonLegacyDayAbsent
	case LegacyDayEmpty:
		return ReasonLegacyDayEmpty
	case LegacyNoFittingSlot:
		return ReasonLegacyNoFittingSlot
	default:
		return ReasonNone
	}
}
