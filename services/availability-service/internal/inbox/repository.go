package inbox

import (
	"context"

	"github.com/md-rashed-zaman/babsplanner/libs/db"
	"github.com/md-rashed-zaman/babsplanner/services/availability-service/internal/storage"
)

// Repository records consumed event ids so redelivered invalidations are applied once.
type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record stores eventID. It returns false when the event was seen before.
func (r *Repository) Record(ctx context.Context, eventID string, eventType string) (bool, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO inbox_events (event_id, event_type)
		VALUES ($1, $2)
	`, eventID, eventType)
	if err == nil {
		return true, nil
	}

	if storage.IsUniqueViolation(err) {
		return false, nil
	}

	return false, err
}

// Release forgets eventID so a redelivery of the event is applied again.
func (r *Repository) Release(ctx context.Context, eventID string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM inbox_events
		WHERE event_id = $1
	`, eventID)
	return err
}
