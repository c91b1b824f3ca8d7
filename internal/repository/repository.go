package repository

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/prperemyshlev/pagoseguro-auth/pkg/database"
)

const defaultListLimit = 50

// Repositories holds all repository interfaces
type Repositories struct {
	Account      AccountRepository
	RefreshToken RefreshTokenRepository
	Audit        AuditRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		Account:      NewAccountRepository(db),
		RefreshToken: NewRefreshTokenRepository(db),
		Audit:        NewAuditRepository(db),
	}
}

// HashToken hashes a token value using SHA256 for storage
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
