package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/pagoseguro-auth/internal/domain"
	"github.com/prperemyshlev/pagoseguro-auth/pkg/database"
	"github.com/redis/go-redis/v9"
)

// RedisResetCodeStore keeps reset codes in Redis with a TTL
type RedisResetCodeStore struct {
	redis *database.Redis
}

var _ ResetCodeStore = (*RedisResetCodeStore)(nil)

// NewRedisResetCodeStore creates a new reset code store
func NewRedisResetCodeStore(redis *database.Redis) *RedisResetCodeStore {
	return &RedisResetCodeStore{redis: redis}
}

func resetCodeKey(email, code string) string {
	return fmt.Sprintf("reset:code:%s:%s", email, code)
}

// Store saves the grant for the email and code
func (s *RedisResetCodeStore) Store(ctx context.Context, email, code string, grant domain.ResetCodeGrant, ttl time.Duration) error {
	payload, err := json.Marshal(grant)
	if err != nil {
		return fmt.Errorf("failed to encode reset code grant: %w", err)
	}
	if err := s.redis.Client.Set(ctx, resetCodeKey(email, code), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}
	return nil
}

// Consume returns the grant and deletes the code so it works only once
func (s *RedisResetCodeStore) Consume(ctx context.Context, email, code string) (*domain.ResetCodeGrant, error) {
	payload, err := s.redis.Client.GetDel(ctx, resetCodeKey(email, code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrInvalidResetCode
		}
		return nil, fmt.Errorf("failed to read reset code: %w", err)
	}

	var grant domain.ResetCodeGrant
	if err := json.Unmarshal(payload, &grant); err != nil {
		return nil, fmt.Errorf("failed to decode reset code grant: %w", err)
	}
	return &grant, nil
}
