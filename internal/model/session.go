package model

import "time"

// Session binds a browser session to an authenticated user.  It lives in
// Redis until ExpiresAt or an explicit logout, whichever comes first.
type Session struct {
	ID        string    `json:"id"`
	UserID    uint64    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
