package repository

import (
	"context"

	"github.com/prperemyshlev/pagoseguro-auth/internal/domain"
)

// AccountRepository defines methods for account persistence
type AccountRepository interface {
	Save(ctx context.Context, account *domain.Account) error
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByNationalID(ctx context.Context, nationalID string) (bool, error)
	Update(ctx context.Context, account *domain.Account) error
	Delete(ctx context.Context, id string) error
}

// RefreshTokenRepository defines methods for refresh token persistence.
// Tokens are looked up by their value.
type RefreshTokenRepository interface {
	Save(ctx context.Context, token *domain.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteByToken(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// AuditRepository defines methods for the append-only audit log
type AuditRepository interface {
	Save(ctx context.Context, entry *domain.AuditEntry) error
	FindByActor(ctx context.Context, actorID string, limit int) ([]*domain.AuditEntry, error)
	FindByAction(ctx context.Context, action string, limit int) ([]*domain.AuditEntry, error)
	FindRecent(ctx context.Context, limit int) ([]*domain.AuditEntry, error)
}
