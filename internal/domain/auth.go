package domain

import "time"

// Session describes an issued session token.
type Session struct {
	Token     string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
