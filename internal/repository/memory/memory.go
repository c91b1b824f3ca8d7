// Package memory provides in-process implementations of the repository interfaces
// and of the Redis-backed token stores.
// They back the use case and handler tests and local runs without PostgreSQL.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/pagoseguro-auth/internal/domain"
	"github.com/prperemyshlev/pagoseguro-auth/internal/repository"
)

var (
	_ repository.AccountRepository      = (*AccountRepository)(nil)
	_ repository.RefreshTokenRepository = (*RefreshTokenRepository)(nil)
	_ repository.AuditRepository        = (*AuditRepository)(nil)
)

// AccountRepository stores account records keyed by id
type AccountRepository struct {
	mu      sync.Mutex
	byID    map[string]domain.AccountRecord
	byEmail map[string]string
}

// NewAccountRepository creates an empty account repository
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:    make(map[string]domain.AccountRecord),
		byEmail: make(map[string]string),
	}
}

func (r *AccountRepository) Save(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := account.Record()
	if rec.PasswordHash == "" {
		return fmt.Errorf("account %s: %w", rec.ID, domain.ErrInvalidPasswordState)
	}
	if _, ok := r.byEmail[rec.Email]; ok {
		return fmt.Errorf("account with email %s already exists: %w", rec.Email, repository.ErrDuplicateEmail)
	}
	if rec.NationalID != nil && r.nationalIDTaken(*rec.NationalID) {
		return fmt.Errorf("account with national id already exists: %w", repository.ErrDuplicateNationalID)
	}

	r.byID[rec.ID] = rec
	r.byEmail[rec.Email] = rec.ID
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("account with id %s not found: %w", id, repository.ErrNotFound)
	}
	return domain.ReconstituteAccount(rec)
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, fmt.Errorf("account with email %s not found: %w", email, repository.ErrNotFound)
	}
	return domain.ReconstituteAccount(r.byID[id])
}

func (r *AccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.byEmail[normalizeEmail(email)]
	return ok, nil
}

func (r *AccountRepository) ExistsByNationalID(ctx context.Context, nationalID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.nationalIDTaken(nationalID), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *AccountRepository) nationalIDTaken(nationalID string) bool {
	for _, rec := range r.byID {
		if rec.NationalID != nil && *rec.NationalID == nationalID {
			return true
		}
	}
	return false
}

func (r *AccountRepository) Update(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[account.ID]
	if !ok {
		return fmt.Errorf("account with id %s not found: %w", account.ID, repository.ErrNotFound)
	}

	rec := account.Record()
	if rec.PasswordHash == "" {
		return fmt.Errorf("account %s: %w", rec.ID, domain.ErrInvalidPasswordState)
	}

	// identity columns are immutable, as in the SQL implementation
	rec.Email = current.Email
	rec.FullName = current.FullName
	rec.Role = current.Role
	rec.NationalID = current.NationalID
	rec.CreatedAt = current.CreatedAt
	rec.CreatedBy = current.CreatedBy

	r.byID[rec.ID] = rec
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("account with id %s not found: %w", id, repository.ErrNotFound)
	}
	delete(r.byID, id)
	delete(r.byEmail, rec.Email)
	return nil
}

// RefreshTokenRepository stores refresh tokens keyed by token value
type RefreshTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]domain.RefreshToken
	now    func() time.Time
}

// NewRefreshTokenRepository creates an empty refresh token repository.
// now is used by DeleteExpired; nil means wall-clock time.
func NewRefreshTokenRepository(now func() time.Time) *RefreshTokenRepository {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &RefreshTokenRepository{
		tokens: make(map[string]domain.RefreshToken),
		now:    now,
	}
}

func (r *RefreshTokenRepository) Save(ctx context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[token.Token]; ok {
		return fmt.Errorf("token with hash already exists: %w", repository.ErrDuplicateToken)
	}
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = r.now()
	}
	r.tokens[token.Token] = *token
	return nil
}

func (r *RefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.tokens[token]
	if !ok {
		return nil, fmt.Errorf("refresh token not found: %w", repository.ErrNotFound)
	}
	return &rec, nil
}

func (r *RefreshTokenRepository) DeleteByUserID(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, rec := range r.tokens {
		if rec.UserID == userID {
			delete(r.tokens, k)
		}
	}
	return nil
}

func (r *RefreshTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, token)
	return nil
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var removed int64
	for k, rec := range r.tokens {
		if rec.IsExpired(now) {
			delete(r.tokens, k)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored tokens
func (r *RefreshTokenRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

// AuditRepository keeps audit entries in insertion order
type AuditRepository struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	SaveErr error
}

// NewAuditRepository creates an empty audit repository
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Save(ctx context.Context, entry *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.SaveErr != nil {
		return r.SaveErr
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *AuditRepository) FindByActor(ctx context.Context, actorID string, limit int) ([]*domain.AuditEntry, error) {
	return r.filter(limit, func(e domain.AuditEntry) bool {
		return e.ActorID != nil && *e.ActorID == actorID
	}), nil
}

func (r *AuditRepository) FindByAction(ctx context.Context, action string, limit int) ([]*domain.AuditEntry, error) {
	return r.filter(limit, func(e domain.AuditEntry) bool {
		return e.Action == action
	}), nil
}

func (r *AuditRepository) FindRecent(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	return r.filter(limit, func(domain.AuditEntry) bool { return true }), nil
}

// Entries returns a copy of every entry in insertion order
func (r *AuditRepository) Entries() []domain.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.AuditEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *AuditRepository) filter(limit int, keep func(domain.AuditEntry) bool) []*domain.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.AuditEntry
	for i := range r.entries {
		if keep(r.entries[i]) {
			e := r.entries[i]
			out = append(out, &e)
		}
	}

	// newest first, matching the SQL ordering
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
