package utils

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prperemyshlev/pagoseguro-auth/internal/domain"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	resetCodeDigits = 6
)

// ErrTokenInvalid is returned for any token that fails parsing, signature or claim checks
var ErrTokenInvalid = errors.New("invalid token")

// JWTManager manages JWT token operations
type JWTManager struct {
	secret             []byte
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	now                func() time.Time
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret string, accessTokenExpiry, refreshTokenExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:             []byte(secret),
		accessTokenExpiry:  accessTokenExpiry,
		refreshTokenExpiry: refreshTokenExpiry,
		now:                time.Now,
	}
}

// WithClock makes the manager read time from clock, for expiry checks in tests
func (j *JWTManager) WithClock(clock domain.Clock) *JWTManager {
	j.now = clock.Now
	return j
}

// GenerateTokens issues an access and a refresh token for the payload
func (j *JWTManager) GenerateTokens(payload domain.TokenPayload) (domain.TokenPair, error) {
	now := j.now()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": payload.UserID,
		"email":   payload.Email,
		"role":    string(payload.Role),
		"type":    tokenTypeAccess,
		"exp":     now.Add(j.accessTokenExpiry).Unix(),
		"iat":     now.Unix(),
		"jti":     uuid.NewString(),
	})
	accessToken, err := access.SignedString(j.secret)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": payload.UserID,
		"email":   payload.Email,
		"role":    string(payload.Role),
		"type":    tokenTypeRefresh,
		"exp":     now.Add(j.refreshTokenExpiry).Unix(),
		"iat":     now.Unix(),
		"jti":     uuid.NewString(),
	})
	refreshToken, err := refresh.SignedString(j.secret)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return domain.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// VerifyAccessToken validates an access token and returns its claims
func (j *JWTManager) VerifyAccessToken(tokenString string) (*domain.TokenClaims, error) {
	return j.verify(tokenString, tokenTypeAccess)
}

// VerifyRefreshToken validates a refresh token and returns its claims
func (j *JWTManager) VerifyRefreshToken(tokenString string) (*domain.TokenClaims, error) {
	return j.verify(tokenString, tokenTypeRefresh)
}

func (j *JWTManager) verify(tokenString, wantType string) (*domain.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithTimeFunc(j.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims", ErrTokenInvalid)
	}

	if claims["type"] != wantType {
		return nil, fmt.Errorf("%w: expected %s token", ErrTokenInvalid, wantType)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("%w: missing user_id", ErrTokenInvalid)
	}

	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: missing exp", ErrTokenInvalid)
	}

	iat, _ := claims["iat"].(float64)

	return &domain.TokenClaims{
		TokenPayload: domain.TokenPayload{
			UserID: userID,
			Email:  email,
			Role:   domain.Role(role),
		},
		Exp: int64(exp),
		Iat: int64(iat),
	}, nil
}

// GenerateResetCode returns a random zero-padded 6 digit code
func (j *JWTManager) GenerateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	return fmt.Sprintf("%0*d", resetCodeDigits, n.Int64()), nil
}

// AccessTokenTTL returns the access token lifetime
func (j *JWTManager) AccessTokenTTL() time.Duration {
	return j.accessTokenExpiry
}

// RefreshTokenTTL returns the refresh token lifetime
func (j *JWTManager) RefreshTokenTTL() time.Duration {
	return j.refreshTokenExpiry
}
