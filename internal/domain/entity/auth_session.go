package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/disfruleg/disfruleg-pos/internal/domain/enum"
)

// AuthSession is the authenticated operator established at login. It is
// carried in the access token and never written by the receipt engine.
type AuthSession struct {
	SessionID uuid.UUID `json:"session_id"`
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Role      enum.Role `json:"role"`
	LoginAt   time.Time `json:"login_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s AuthSession) IsAdmin() bool {
	return s.Role.IsAdmin()
}
