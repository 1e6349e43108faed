// model/session.go
package model

import "time"

// Session is an authenticated console session backed by a directory bind.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its lifetime.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
