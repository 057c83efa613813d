package availability

import (
	"strings"
	"time"
)

// LanguageSource records where the required language set came from.
type LanguageSource string

const (
	LanguagesExplicit     LanguageSource = "explicit"
	LanguagesCeremonyType LanguageSource = "ceremony_type"
	LanguagesNone         LanguageSource = "none"
)

// RequiredLanguages picks the language requirement for a query: explicit languages
// win, then the ceremony type's set, else no filter at all.
func RequiredLanguages(explicit []string, ceremonyType []string) ([]string, LanguageSource) {
	if langs := normalizeLanguages(explicit); len(langs) > 0 {
		return langs, LanguagesExplicit
	}
	if langs := normalizeLanguages(ceremonyType); len(langs) > 0 {
		return langs, LanguagesCeremonyType
	}
	return nil, LanguagesNone
}

// SpeaksAny reports whether spoken intersects required. An empty requirement
// matches everyone.
func SpeaksAny(required, spoken []string) bool {
	if len(required) == 0 {
		return true
	}
	for _, s := range spoken {
		s = normalizeLanguage(s)
		for _, r := range required {
			if s == r {
				return true
			}
		}
	}
	return false
}

// Gate applies the registrar-level predicates that do not depend on the hour:
// language set sanity, lifecycle, municipality link, validity window and language.
// required must already be normalized.
func Gate(reg Registrar, date time.Time, required []string) Reason {
	date = civilDate(date)
	if len(normalizeLanguages(reg.Languages)) == 0 {
		return ReasonNoLanguages
	}
	if !reg.Active {
		return ReasonInactive
	}
	if reg.Status != StatusSwornIn {
		return ReasonNotSwornIn
	}
	if !reg.LinkActive {
		return ReasonLinkInactive
	}
	if reg.AvailableFrom != nil && date.Before(civilDate(*reg.AvailableFrom)) {
		return ReasonBeforeAvailability
	}
	if reg.AvailableUntil != nil && date.After(civilDate(*reg.AvailableUntil)) {
		return ReasonAfterAvailability
	}
	if !SpeaksAny(required, reg.Languages) {
		return ReasonLanguageMismatch
	}
	return ReasonNone
}

func normalizeLanguage(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func normalizeLanguages(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = normalizeLanguage(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
