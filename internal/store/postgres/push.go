package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"wodbooker-go/internal/domain/push"
)

// PushRepository persists web push subscriptions.
type PushRepository struct {
	BaseRepository[push.Subscription]
}

// NewPushRepository creates a new PushRepository.
func NewPushRepository(db *sqlx.DB) *PushRepository {
	return &PushRepository{BaseRepository: NewBaseRepository[push.Subscription](db, "push_subscriptions")}
}

// Create inserts a new subscription and returns its generated ID.
func (r *PushRepository) Create(ctx context.Context, s push.Subscription) (string, error) {
	id := r.GenerateID()
	query := `
		INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh_key, auth_key, created_at)
		VALUES ($1,$2,$3,$4,$5,NOW())
		ON CONFLICT (endpoint) DO UPDATE SET p256dh_key=EXCLUDED.p256dh_key, auth_key=EXCLUDED.auth_key
		RETURNING id
	`
	err := r.GetDB().QueryRowContext(ctx, query, id, s.UserID, s.Endpoint, s.P256dhKey, s.AuthKey).Scan(&id)
	return id, HandleSQLError(err)
}

// DeleteByEndpoint removes a subscription the browser has unsubscribed
// from, or that webpush reported as gone (410/404).
func (r *PushRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	query := `DELETE FROM push_subscriptions WHERE endpoint=$1`
	_, err := r.GetDB().ExecContext(ctx, query, endpoint)
	return err
}

// ListByUser returns every subscription registered for a user - a user
// may have one per browser/device.
func (r *PushRepository) ListByUser(ctx context.Context, userID string) ([]push.Subscription, error) {
	var out []push.Subscription
	query := `SELECT * FROM push_subscriptions WHERE user_id=$1 ORDER BY created_at ASC`
	err := r.GetDB().SelectContext(ctx, &out, query, userID)
	return out, err
}
