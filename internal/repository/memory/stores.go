package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/prperemyshlev/pagoseguro-auth/internal/domain"
)

// TokenBlacklist is an in-process token blacklist with expiry
type TokenBlacklist struct {
	mu     sync.Mutex
	tokens map[string]time.Time
	now    func() time.Time
}

// NewTokenBlacklist creates an empty blacklist. nil now means wall-clock time.
func NewTokenBlacklist(now func() time.Time) *TokenBlacklist {
	if now == nil {
		now = time.Now
	}
	return &TokenBlacklist{tokens: make(map[string]time.Time), now: now}
}

func (b *TokenBlacklist) AddToken(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[token] = b.now().Add(ttl)
	return nil
}

func (b *TokenBlacklist) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	until, ok := b.tokens[token]
	if !ok {
		return false, nil
	}
	if !b.now().Before(until) {
		delete(b.tokens, token)
		return false, nil
	}
	return true, nil
}

type resetCodeEntry struct {
	grant     domain.ResetCodeGrant
	expiresAt time.Time
}

// ResetCodeStore keeps reset codes in process with expiry
type ResetCodeStore struct {
	mu    sync.Mutex
	codes map[string]resetCodeEntry
	now   func() time.Time
}

// NewResetCodeStore creates an empty store. nil now means wall-clock time.
func NewResetCodeStore(now func() time.Time) *ResetCodeStore {
	if now == nil {
		now = time.Now
	}
	return &ResetCodeStore{codes: make(map[string]resetCodeEntry), now: now}
}

func (s *ResetCodeStore) Store(ctx context.Context, email, code string, grant domain.ResetCodeGrant, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[email+":"+code] = resetCodeEntry{grant: grant, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *ResetCodeStore) Consume(ctx context.Context, email, code string) (*domain.ResetCodeGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := email + ":" + code
	entry, ok := s.codes[key]
	if !ok {
		return nil, domain.ErrInvalidResetCode
	}
	delete(s.codes, key)

	if !s.now().Before(entry.expiresAt) {
		return nil, domain.ErrInvalidResetCode
	}
	grant := entry.grant
	return &grant, nil
}

// Codes returns the outstanding codes stored for email
func (s *ResetCodeStore) Codes(email string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for key := range s.codes {
		if code, ok := strings.CutPrefix(key, email+":"); ok {
			out = append(out, code)
		}
	}
	return out
}
