package models

import "time"

// Token is an opaque bearer credential. It stays valid while now < Expires.
type Token struct {
	ID      int64     `json:"-"`
	UserID  int64     `json:"-"`
	Token   string    `json:"access_token"`
	Expires time.Time `json:"expires"`
}

// TokenType is always "bearer".
func (t *Token) TokenType() string {
	return "bearer"
}

// Valid reports whether the token is still usable at now.
func (t *Token) Valid(now time.Time) bool {
	return now.Before(t.Expires)
}
