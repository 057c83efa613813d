package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Source is the read-only data-access collaborator the engine consumes.
type Source interface {
	ListCandidateRegistrars(ctx context.Context, municipalityID string) ([]Registrar, error)
	ListRulesFor(ctx context.Context, registrarID string) ([]RuleRecord, error)
	ListBlocksFor(ctx context.Context, registrarID string, date time.Time) ([]BlockRecord, error)
	ListBookingsFor(ctx context.Context, registrarID string, date time.Time) ([]BookingRecord, error)
	CeremonyTypeLanguages(ctx context.Context, ceremonyTypeID string) ([]string, error)
}

// Candidate is one registrar with everything the pipeline needs, parsed up front.
type Candidate struct {
	Registrar Registrar
	Rules     []Rule
	Legacy    LegacySchedule
	Blocks    []Block
	Bookings  []Booking

	// ConfigErr is set when a rule, block or booking could not be parsed.
	ConfigErr error
	// LegacyErr is set when the legacy map could not be parsed. It only matters
	// on dates the legacy map governs.
	LegacyErr error
}

// Snapshot is the immutable input of one resolution.
type Snapshot struct {
	MunicipalityID string
	Date           time.Time
	Candidates     []Candidate
}

// NewCandidate parses the stored records of one registrar. Parse failures are kept
// on the candidate instead of being returned.
func NewCandidate(reg Registrar, rules []RuleRecord, blocks []BlockRecord, bookings []BookingRecord) Candidate {
	c := Candidate{Registrar: reg}
	c.Legacy, c.LegacyErr = ParseLegacySchedule(reg.LegacySchedule)

	var errs []error
	for _, rec := range rules {
		r, err := ParseRule(rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		c.Rules = append(c.Rules, r)
	}
	for _, rec := range blocks {
		b, err := ParseBlock(rec)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: blocked date %s: %w", ErrInvalidConfiguration, rec.ID, err))
			continue
		}
		c.Blocks = append(c.Blocks, b)
	}
	for _, rec := range bookings {
		b, err := ParseBooking(rec)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: booking %s: %w", ErrInvalidConfiguration, rec.ID, err))
			continue
		}
		c.Bookings = append(c.Bookings, b)
	}
	c.ConfigErr = errors.Join(errs...)
	return c
}

// LoadSnapshot fetches the candidate registrars of a municipality and their rules,
// blocks and bookings for date. Per-registrar reads run concurrently, bounded by
// concurrency. Any failure cancels the remaining reads; no partial snapshot is
// returned.
func LoadSnapshot(ctx context.Context, src Source, municipalityID string, date time.Time, concurrency int) (*Snapshot, error) {
	date = civilDate(date)
	regs, err := src.ListCandidateRegistrars(ctx, municipalityID)
	if err != nil {
		return nil, fmt.Errorf("%w: list registrars: %w", ErrCollaboratorUnavailable, err)
	}

	snap := &Snapshot{
		MunicipalityID: municipalityID,
		Date:           date,
		Candidates:     make([]Candidate, len(regs)),
	}
	if len(regs) == 0 {
		return snap, nil
	}

	if concurrency <= 0 {
		concurrency = 8
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, reg := range regs {
		g.Go(func() error {
			rules, err := src.ListRulesFor(gctx, reg.ID)
			if err != nil {
				return fmt.Errorf("rules for %s: %w", reg.ID, err)
			}
			blocks, err := src.ListBlocksFor(gctx, reg.ID, date)
			if err != nil {
				return fmt.Errorf("blocked dates for %s: %w", reg.ID, err)
			}
			bookings, err := src.ListBookingsFor(gctx, reg.ID, date)
			if err != nil {
				return fmt.Errorf("bookings for %s: %w", reg.ID, err)
			}
			snap.Candidates[i] = NewCandidate(reg, rules, blocks, bookings)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCollaboratorUnavailable, err)
	}
	return snap, nil
}
