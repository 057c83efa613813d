package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/babsplanner/libs/db"
	"github.com/md-rashed-zaman/babsplanner/services/availability-service/internal/availability"
)

// Repository reads registrar snapshots from Postgres. It implements
// availability.Source and never writes.
type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ availability.Source = (*Repository)(nil)

// ListCandidateRegistrars returns registrars actively linked to the municipality.
// Ids that are not UUIDs cannot exist and yield no candidates.
func (r *Repository) ListCandidateRegistrars(ctx context.Context, municipalityID string) ([]availability.Registrar, error) {
	if _, err := uuid.Parse(municipalityID); err != nil {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT b.id::text, b.name, b.given_name, COALESCE(b.infix, ''), b.family_name,
			b.languages, b.status, b.active, m.active,
			b.available_from, b.available_until,
			COALESCE(b.legacy_availability::text, '')
		FROM registrars b
		JOIN registrar_municipalities m ON m.registrar_id = b.id
		WHERE m.municipality_id = $1
			AND m.active
		ORDER BY b.family_name ASC, b.given_name ASC, b.id ASC
	`, municipalityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.Registrar
	for rows.Next() {
		var reg availability.Registrar
		var legacy string
		if err := rows.Scan(
			&reg.ID,
			&reg.Name,
			&reg.GivenName,
			&reg.Infix,
			&reg.FamilyName,
			&reg.Languages,
			&reg.Status,
			&reg.Active,
			&reg.LinkActive,
			&reg.AvailableFrom,
			&reg.AvailableUntil,
			&legacy,
		); err != nil {
			return nil, err
		}
		if legacy != "" {
			reg.LegacySchedule = json.RawMessage(legacy)
		}
		out = append(out, reg)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) ListRulesFor(ctx context.Context, registrarID string) ([]availability.RuleRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, registrar_id::text, rule_type, day_of_week, day_of_month,
			start_time, end_time, valid_from, valid_until
		FROM registrar_availability_rules
		WHERE registrar_id = $1
		ORDER BY valid_from ASC, id ASC
	`, registrarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.RuleRecord
	for rows.Next() {
		var rec availability.RuleRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.RegistrarID,
			&rec.RuleType,
			&rec.DayOfWeek,
			&rec.DayOfMonth,
			&rec.StartTime,
			&rec.EndTime,
			&rec.ValidFrom,
			&rec.ValidUntil,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) ListBlocksFor(ctx context.Context, registrarID string, date time.Time) ([]availability.BlockRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, registrar_id::text, blocked_date, all_day,
			COALESCE(start_time, ''), COALESCE(end_time, '')
		FROM registrar_blocked_dates
		WHERE registrar_id = $1 AND blocked_date = $2
	`, registrarID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.BlockRecord
	for rows.Next() {
		var rec availability.BlockRecord
		if err := rows.Scan(&rec.ID, &rec.RegistrarID, &rec.Date, &rec.AllDay, &rec.StartTime, &rec.EndTime); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// ListBookingsFor returns every ceremony of the registrar on date, cancelled ones
// included; the conflict checker decides what counts.
func (r *Repository) ListBookingsFor(ctx context.Context, registrarID string, date time.Time) ([]availability.BookingRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, registrar_id::text, ceremony_date, start_time, end_time, status
		FROM ceremonies
		WHERE registrar_id = $1 AND ceremony_date = $2
		ORDER BY start_time ASC
	`, registrarID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.BookingRecord
	for rows.Next() {
		var rec availability.BookingRecord
		if err := rows.Scan(&rec.ID, &rec.RegistrarID, &rec.Date, &rec.StartTime, &rec.EndTime, &rec.Status); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// CeremonyTypeLanguages returns the language set of a ceremony type. Unknown
// ceremony types have no languages.
func (r *Repository) CeremonyTypeLanguages(ctx context.Context, ceremonyTypeID string) ([]string, error) {
	if _, err := uuid.Parse(ceremonyTypeID); err != nil {
		return nil, nil
	}
	var langs []string
	err := r.pool.QueryRow(ctx, `
		SELECT languages
		FROM ceremony_types
		WHERE id = $1
	`, ceremonyTypeID).Scan(&langs)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return langs, nil
}
