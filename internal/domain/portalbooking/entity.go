// Package portalbooking records bookings the synchronizer observed
// directly on the portal, independent of whether our own worker made
// them - used to reconcile drift (manual bookings, manual
// cancellations, bookings made from another device).
package portalbooking

import "time"

// PortalBooking is one class the portal's own calendar reports as
// claimed for a user, as last seen by the synchronizer (SPEC_FULL
// §4.8). A row is never deleted, only marked IsCancelled once the
// portal stops reporting it for that (user, class, date).
type PortalBooking struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	PortalClassID int64     `db:"portal_class_id" json:"portal_class_id"`
	ClassDate     time.Time `db:"class_date" json:"class_date"`
	ClassTime     string    `db:"class_time" json:"class_time"`
	ClassName     string    `db:"class_name" json:"class_name,omitempty"`
	ClassKind     string    `db:"class_kind" json:"class_kind,omitempty"`
	BoxURL        string    `db:"box_url" json:"box_url"`
	FetchedAt     time.Time `db:"fetched_at" json:"fetched_at"`
	IsCancelled   bool      `db:"is_cancelled" json:"is_cancelled"`
}

// Key identifies the (user, class, date) slot a row covers - the
// identity the synchronizer diffs a fresh sync pass against.
type Key struct {
	UserID        string
	PortalClassID int64
	ClassDate     time.Time
}

func (b PortalBooking) Key() Key {
	return Key{UserID: b.UserID, PortalClassID: b.PortalClassID, ClassDate: b.ClassDate}
}
