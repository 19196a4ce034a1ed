package domain

import "time"

// RefreshToken is an outstanding refresh token. Only a hash of its jti is
// stored, never the signed token.
type RefreshToken struct {
	ID        string
	JTIHash   string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (t RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
