package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWantsPush(t *testing.T) {
	tests := []struct {
		name    string
		u       User
		success bool
		want    bool
	}{
		{"master switch off always false", User{PushEnabled: false, PushSuccess: true}, true, false},
		{"success gated by PushSuccess", User{PushEnabled: true, PushSuccess: true, PushFailure: false}, true, true},
		{"failure gated by PushFailure", User{PushEnabled: true, PushSuccess: true, PushFailure: false}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.u.WantsPush(tt.success))
		})
	}
}

func TestWantsPushReminder(t *testing.T) {
	u := User{PushEnabled: true, PushRemind60: true, PushRemind30: false, PushRemind15: true}

	assert.True(t, u.WantsPushReminder(60))
	assert.False(t, u.WantsPushReminder(30))
	assert.True(t, u.WantsPushReminder(15))
	assert.False(t, u.WantsPushReminder(45))

	off := User{PushEnabled: false, PushRemind60: true}
	assert.False(t, off.WantsPushReminder(60))
}

func TestWantsMail(t *testing.T) {
	u := User{MailEnabled: true, MailSuccess: true, MailFailure: false}
	assert.True(t, u.WantsMail(true))
	assert.False(t, u.WantsMail(false))

	off := User{MailEnabled: false, MailSuccess: true}
	assert.False(t, off.WantsMail(true))
}

func TestNeedsPassword(t *testing.T) {
	assert.True(t, User{}.NeedsPassword())
	assert.True(t, User{Cookie: "abc", ForceLogin: true}.NeedsPassword())
	assert.False(t, User{Cookie: "abc", ForceLogin: false}.NeedsPassword())
}

func TestWithCookie(t *testing.T) {
	u := User{ForceLogin: true}
	got := u.WithCookie("fresh-cookie")

	assert.Equal(t, "fresh-cookie", got.Cookie)
	assert.False(t, got.ForceLogin)
	// original untouched
	assert.True(t, u.ForceLogin)
	assert.Equal(t, "", u.Cookie)
}
