package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/babsplanner/services/availability-service/internal/availability"
)

const (
	defaultFrom        = "09:00"
	defaultTo          = "17:00"
	defaultStepMinutes = 15
	retryAfterSeconds  = "5"
)

type AvailabilityHandler struct {
	svc    *availability.Service
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewAvailabilityHandler serves availability queries. loc is the zone in which
// "today" is determined for start-time listings.
func NewAvailabilityHandler(svc *availability.Service, logger *slog.Logger, loc *time.Location) *AvailabilityHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AvailabilityHandler{svc: svc, logger: logger, loc: loc, now: time.Now}
}

type queryRequest struct {
	MunicipalityID    string   `json:"municipality_id"`
	Date              string   `json:"date"`
	StartTime         string   `json:"start_time"`
	DurationMinutes   int      `json:"duration_minutes"`
	RequiredLanguages []string `json:"required_languages"`
	CeremonyTypeID    string   `json:"ceremony_type_id"`
	Diagnostics       bool     `json:"diagnostics"`
}

type registrarItem struct {
	ID        string   `json:"id"`
	FullName  string   `json:"full_name"`
	Languages []string `json:"languages"`
}

type exclusionItem struct {
	RegistrarID string `json:"registrar_id"`
	FullName    string `json:"full_name"`
	Step        string `json:"step"`
	Reason      string `json:"reason"`
	Detail      string `json:"detail,omitempty"`
}

type queryResponse struct {
	QueryID           string          `json:"query_id"`
	Registrars        []registrarItem `json:"registrars"`
	RequiredLanguages []string        `json:"required_languages"`
	LanguageSource    string          `json:"language_source"`
	Warnings          []string        `json:"warnings,omitempty"`
	Exclusions        []exclusionItem `json:"exclusions,omitempty"`
}

type slotItem struct {
	StartTime  string          `json:"start_time"`
	EndTime    string          `json:"end_time"`
	Registrars []registrarItem `json:"registrars"`
}

type timesResponse struct {
	QueryID  string     `json:"query_id"`
	Date     string     `json:"date"`
	Slots    []slotItem `json:"slots"`
	Warnings []string   `json:"warnings,omitempty"`
}

const warnDiagnosticsDisabled = "diagnostics are disabled in this environment"

type errorResponse struct {
	Error string `json:"error"`
}

// Query resolves the registrars available for one ceremony slot.
func (h *AvailabilityHandler) Query(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}
	diagnostics := req.Diagnostics || queryBool(r, "diagnostics")
	var warnings []string
	if diagnostics && !h.svc.DiagnosticsAllowed() {
		h.logger.InfoContext(r.Context(), "diagnostics requested but disabled", "municipality_id", req.MunicipalityID)
		warnings = append(warnings, warnDiagnosticsDisabled)
		diagnostics = false
	}

	q := availability.Query{
		MunicipalityID:    strings.TrimSpace(req.MunicipalityID),
		Date:              strings.TrimSpace(req.Date),
		StartTime:         strings.TrimSpace(req.StartTime),
		DurationMinutes:   req.DurationMinutes,
		RequiredLanguages: req.RequiredLanguages,
		CeremonyTypeID:    strings.TrimSpace(req.CeremonyTypeID),
	}
	queryID := uuid.NewString()
	res, err := h.svc.Resolve(r.Context(), q, diagnostics)
	if err != nil {
		h.writeError(w, r, queryID, err)
		return
	}

	resp := queryResponse{
		QueryID:           queryID,
		Registrars:        registrarItems(res.Registrars),
		RequiredLanguages: nonNil(res.RequiredLanguages),
		LanguageSource:    string(res.LanguageSource),
		Warnings:          append(warnings, res.Warnings...),
	}
	for _, ex := range res.Exclusions {
		resp.Exclusions = append(resp.Exclusions, exclusionItem{
			RegistrarID: ex.RegistrarID,
			FullName:    ex.FullName,
			Step:        string(ex.Step),
			Reason:      string(ex.Reason),
			Detail:      ex.Detail,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Times lists the start times within a daily window at which at least one
// registrar is available.
func (h *AvailabilityHandler) Times(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	params := r.URL.Query()
	duration, err := strconv.Atoi(strings.TrimSpace(params.Get("duration_minutes")))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid duration_minutes"})
		return
	}
	step := defaultStepMinutes
	if v := strings.TrimSpace(params.Get("step_minutes")); v != "" {
		step, err = strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid step_minutes"})
			return
		}
	}

	q := availability.TimesQuery{
		Query: availability.Query{
			MunicipalityID:    strings.TrimSpace(params.Get("municipality_id")),
			Date:              strings.TrimSpace(params.Get("date")),
			DurationMinutes:   duration,
			RequiredLanguages: splitList(params.Get("languages")),
			CeremonyTypeID:    strings.TrimSpace(params.Get("ceremony_type_id")),
		},
		From:        valueOr(params.Get("from"), defaultFrom),
		To:          valueOr(params.Get("to"), defaultTo),
		StepMinutes: step,
	}
	queryID := uuid.NewString()
	slots, warnings, err := h.svc.OpenStartTimes(r.Context(), q, h.now().In(h.loc))
	if err != nil {
		h.writeError(w, r, queryID, err)
		return
	}

	resp := timesResponse{
		QueryID:  queryID,
		Date:     q.Date,
		Slots:    make([]slotItem, 0, len(slots)),
		Warnings: warnings,
	}
	for _, s := range slots {
		resp.Slots = append(resp.Slots, slotItem{
			StartTime:  s.Start.String(),
			EndTime:    s.End.String(),
			Registrars: registrarItems(s.Registrars),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AvailabilityHandler) writeError(w http.ResponseWriter, r *http.Request, queryID string, err error) {
	switch {
	case errors.Is(err, availability.ErrInvalidQuery):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, availability.ErrCollaboratorUnavailable):
		h.logger.ErrorContext(r.Context(), "availability unavailable", "query_id", queryID, "err", err)
		w.Header().Set("Retry-After", retryAfterSeconds)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "availability temporarily unavailable"})
	default:
		h.logger.ErrorContext(r.Context(), "availability query failed", "query_id", queryID, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func registrarItems(matches []availability.Match) []registrarItem {
	out := make([]registrarItem, 0, len(matches))
	for _, m := range matches {
		out = append(out, registrarItem{
			ID:        m.RegistrarID,
			FullName:  m.FullName,
			Languages: nonNil(m.Languages),
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func queryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(key)))
	return err == nil && v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func valueOr(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
