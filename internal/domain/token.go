package domain

import "time"

// TokenPayload is the identity embedded in issued tokens
type TokenPayload struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// TokenClaims represents verified JWT token claims
type TokenClaims struct {
	TokenPayload
	Exp int64 `json:"exp"`
	Iat int64 `json:"iat"`
}

// TokenPair represents a pair of access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// IsExpired checks if the token is expired at now
func (tc TokenClaims) IsExpired(now time.Time) bool {
	return now.Unix() > tc.Exp
}

// ExpiresAt returns the expiry as a time
func (tc TokenClaims) ExpiresAt() time.Time {
	return time.Unix(tc.Exp, 0)
}

// RefreshToken is a stored refresh token record, looked up by its token value
type RefreshToken struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the record has expired at now
func (t RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// ResetCodeGrant is what an emailed reset code is exchanged for
type ResetCodeGrant struct {
	AccountID  string `json:"account_id"`
	ResetToken string `json:"reset_token"`
}
