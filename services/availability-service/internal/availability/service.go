package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/babsplanner/services/availability-service/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	warnNoLanguageFilter       = "no language requirement given; all registrars are admitted regardless of language"
	warnCeremonyTypeNoLanguage = "ceremony type has no languages configured; language filter disabled"
)

type Options struct {
	// Workers bounds parallel evaluation across registrars.
	Workers int
	// FetchConcurrency bounds parallel per-registrar snapshot reads.
	FetchConcurrency int
	// AllowDiagnostics enables exclusion reporting. Never set in production.
	AllowDiagnostics bool
	Metrics          *metrics.Metrics
}

// Service loads a snapshot from its Source and evaluates queries against it.
type Service struct {
	source  Source
	logger  *slog.Logger
	opts    Options
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func NewService(source Source, logger *slog.Logger, opts Options) *Service {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.FetchConcurrency <= 0 {
		opts.FetchConcurrency = 8
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source:  source,
		logger:  logger,
		opts:    opts,
		metrics: opts.Metrics,
		tracer:  otel.Tracer("availability"),
	}
}

func (s *Service) DiagnosticsAllowed() bool {
	return s.opts.AllowDiagnostics
}

// Resolve validates q, loads a snapshot and returns the available registrars.
// Diagnostics are only honored when the service allows them.
func (s *Service) Resolve(ctx context.Context, q Query, diagnostics bool) (Result, error) {
	req, err := ParseQuery(q)
	if err != nil {
		s.metrics.IncQuery("invalid_query")
		return Result{}, err
	}
	ctx, span := s.tracer.Start(ctx, "availability.resolve", trace.WithAttributes(
		attribute.String("municipality_id", req.MunicipalityID),
		attribute.String("date", req.Date.Format(time.DateOnly)),
		attribute.String("start_time", req.Start.String()),
	))
	defer span.End()

	req, warnings, err := s.resolveLanguages(ctx, req)
	if err != nil {
		return Result{}, s.unavailable(span, err)
	}

	snap, err := s.load(ctx, req)
	if err != nil {
		return Result{}, s.unavailable(span, err)
	}

	res := s.evaluate(ctx, snap, req, diagnostics && s.opts.AllowDiagnostics)
	res.Warnings = warnings
	span.SetAttributes(attribute.Int("registrars.available", len(res.Registrars)))

	s.metrics.IncQuery("ok")
	s.logger.DebugContext(ctx, "availability resolved",
		"municipality_id", req.MunicipalityID,
		"date", req.Date.Format(time.DateOnly),
		"start_time", req.Start.String(),
		"end_time", req.End.String(),
		"candidates", len(snap.Candidates),
		"available", len(res.Registrars),
	)
	return res, nil
}

// TimesQuery asks for all start times in a daily window at which some registrar
// is free. Query.StartTime is ignored.
type TimesQuery struct {
	Query
	From        string
	To          string
	StepMinutes int
}

// OpenStartTimes evaluates candidate start times for q. now is the caller's
// reference time in the municipality's zone; start times already in the past are
// skipped.
func (s *Service) OpenStartTimes(ctx context.Context, q TimesQuery, now time.Time) ([]OpenSlot, []string, error) {
	from, err := ParseClock(q.From)
	if err != nil {
		s.metrics.IncQuery("invalid_query")
		return nil, nil, fmt.Errorf("%w: from: %w", ErrInvalidQuery, err)
	}
	to, err := ParseClock(q.To)
	if err != nil {
		s.metrics.IncQuery("invalid_query")
		return nil, nil, fmt.Errorf("%w: to: %w", ErrInvalidQuery, err)
	}
	if q.StepMinutes <= 0 {
		s.metrics.IncQuery("invalid_query")
		return nil, nil, fmt.Errorf("%w: step_minutes: %w", ErrInvalidQuery, ErrInvalidDuration)
	}
	base := q.Query
	base.StartTime = from.String()
	req, err := ParseQuery(base)
	if err != nil {
		s.metrics.IncQuery("invalid_query")
		return nil, nil, err
	}

	notBefore := Clock(0)
	today := civilDate(now)
	switch {
	case req.Date.Before(today):
		return nil, nil, nil
	case req.Date.Equal(today):
		notBefore = Clock(now.Hour()*60 + now.Minute())
	}
	starts := CandidateStarts(from, to, q.DurationMinutes, q.StepMinutes, notBefore)

	ctx, span := s.tracer.Start(ctx, "availability.open_start_times", trace.WithAttributes(
		attribute.String("municipality_id", req.MunicipalityID),
		attribute.String("date", req.Date.Format(time.DateOnly)),
		attribute.Int("candidate_starts", len(starts)),
	))
	defer span.End()

	req, warnings, err := s.resolveLanguages(ctx, req)
	if err != nil {
		return nil, nil, s.unavailable(span, err)
	}
	if len(starts) == 0 {
		s.metrics.IncQuery("ok")
		return nil, warnings, nil
	}
	snap, err := s.load(ctx, req)
	if err != nil {
		return nil, nil, s.unavailable(span, err)
	}

	begin := time.Now()
	slots := OpenSlots(snap, req, starts, EvaluateOptions{Workers: s.opts.Workers})
	s.metrics.ObserveEvaluateLatency(time.Since(begin))
	s.metrics.IncQuery("ok")
	return slots, warnings, nil
}

// resolveLanguages settles the language requirement and reports the unusual
// "no filter" cases loudly.
func (s *Service) resolveLanguages(ctx context.Context, req Request) (Request, []string, error) {
	var ceremonyLangs []string
	if len(req.Languages) == 0 && req.CeremonyTypeID != "" {
		langs, err := s.source.CeremonyTypeLanguages(ctx, req.CeremonyTypeID)
		if err != nil {
			return req, nil, fmt.Errorf("%w: ceremony type %s: %w", ErrCollaboratorUnavailable, req.CeremonyTypeID, err)
		}
		ceremonyLangs = langs
	}
	req.Languages, req.LanguageSource = RequiredLanguages(req.Languages, ceremonyLangs)
	s.metrics.IncLanguageFilter(string(req.LanguageSource))

	if req.LanguageSource != LanguagesNone {
		return req, nil, nil
	}
	if req.CeremonyTypeID != "" {
		s.logger.WarnContext(ctx, "ceremony type has no languages; language filter disabled",
			"municipality_id", req.MunicipalityID,
			"ceremony_type_id", req.CeremonyTypeID,
		)
		return req, []string{warnCeremonyTypeNoLanguage}, nil
	}
	s.logger.InfoContext(ctx, "availability query without language requirement",
		"municipality_id", req.MunicipalityID,
	)
	return req, []string{warnNoLanguageFilter}, nil
}

func (s *Service) load(ctx context.Context, req Request) (*Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "availability.load_snapshot")
	defer span.End()

	begin := time.Now()
	snap, err := LoadSnapshot(ctx, s.source, req.MunicipalityID, req.Date, s.opts.FetchConcurrency)
	s.metrics.ObserveSnapshotLatency(time.Since(begin))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("candidates", len(snap.Candidates)))
	for _, c := range snap.Candidates {
		if c.ConfigErr != nil {
			s.logger.WarnContext(ctx, "registrar configuration invalid; excluded",
				"registrar_id", c.Registrar.ID,
				"err", c.ConfigErr,
			)
		}
	}
	return snap, nil
}

func (s *Service) evaluate(ctx context.Context, snap *Snapshot, req Request, diagnostics bool) Result {
	_, span := s.tracer.Start(ctx, "availability.evaluate")
	defer span.End()

	begin := time.Now()
	res := Evaluate(snap, req, EvaluateOptions{Diagnostics: diagnostics, Workers: s.opts.Workers})
	s.metrics.ObserveEvaluateLatency(time.Since(begin))
	for reason, n := range res.ExcludedByReason {
		s.metrics.AddExclusions(string(reason), n)
	}
	return res
}

func (s *Service) unavailable(span trace.Span, err error) error {
	s.metrics.IncQuery("unavailable")
	span.RecordError(err)
	span.SetStatus(codes.Error, "snapshot unavailable")
	s.logger.Error("availability snapshot unavailable", "err", err)
	if !errors.Is(err, ErrCollaboratorUnavailable) {
		err = fmt.Errorf("%w: %w", ErrCollaboratorUnavailable, err)
	}
	return err
}
