// Package user holds the account that owns a set of booking
// Reservations: the portal login, the cached session cookie, and the
// notification channels it subscribes through.
package user

import "time"

// User is the account whose credentials the portal client logs in
// with. It stores no password; operation runs off the opaque session
// Cookie, and ForceLogin flags that the cookie no longer logs in (see SPEC_FULL §9's cyclic-object-graph
// / cookie-opacity notes - the worker never parses the cookie, only
// stores and replays it).
type User struct {
	ID         string    `db:"id" json:"id"`
	Email      string    `db:"email" json:"email"`
	Cookie     string    `db:"cookie" json:"-"`
	ForceLogin bool      `db:"force_login" json:"force_login"`

	// Notification preferences, gating the dispatcher's trigger
	// points (SPEC_FULL §4.6). PushEnabled/MailEnabled are master
	// switches; the per-trigger flags are only consulted once their
	// channel's master switch is on.
	PushEnabled   bool `db:"push_enabled" json:"push_enabled"`
	PushSuccess   bool `db:"push_success" json:"push_success"`
	PushFailure   bool `db:"push_failure" json:"push_failure"`
	PushRemind60  bool `db:"push_remind_60" json:"push_remind_60"`
	PushRemind30  bool `db:"push_remind_30" json:"push_remind_30"`
	PushRemind15  bool `db:"push_remind_15" json:"push_remind_15"`
	MailEnabled   bool `db:"mail_enabled" json:"mail_enabled"`
	MailSuccess   bool `db:"mail_success" json:"mail_success"`
	MailFailure   bool `db:"mail_failure" json:"mail_failure"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// WantsPush reports whether the user should receive a push
// notification for the given reminder-offset-less trigger (success
// or failure), gated by both the master switch and the per-trigger
// flag.
func (u User) WantsPush(success bool) bool {
	if !u.PushEnabled {
		return false
	}
	if success {
		return u.PushSuccess
	}
	return u.PushFailure
}

// WantsPushReminder reports whether the user should receive a push
// reminder m minutes (60, 30, or 15) before an observed booking.
func (u User) WantsPushReminder(m int) bool {
	if !u.PushEnabled {
		return false
	}
	switch m {
	case 60:
		return u.PushRemind60
	case 30:
		return u.PushRemind30
	case 15:
		return u.PushRemind15
	default:
		return false
	}
}

// WantsMail reports whether the user should receive an email for a
// booking success or failure trigger.
func (u User) WantsMail(success bool) bool {
	if !u.MailEnabled {
		return false
	}
	if success {
		return u.MailSuccess
	}
	return u.MailFailure
}

// NeedsPassword reports whether the next portal interaction must go
// through ForceLogin rather than the cached cookie.
func (u User) NeedsPassword() bool {
	return u.ForceLogin || u.Cookie == ""
}

// WithCookie returns a copy of u with its session cookie replaced.
// It mirrors what UserRepository.UpdateCookie persists; the worker
// stores refreshed cookies through that repository call, without
// inspecting their contents.
func (u User) WithCookie(cookie string) User {
	u.Cookie = cookie
	u.ForceLogin = false
	return u
}
