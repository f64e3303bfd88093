// Package push holds browser Web Push subscriptions.
package push

import "time"

// Subscription is a single browser endpoint registered through the
// admin API's /api/push/subscribe handler, in the shape the
// webpush-go library expects to re-derive the encryption keys.
type Subscription struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Endpoint  string    `db:"endpoint" json:"endpoint"`
	P256dhKey string    `db:"p256dh_key" json:"p256dh_key"`
	AuthKey   string    `db:"auth_key" json:"auth_key"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
