package service

import (
	"context"
	"time"

	"github.com/prperemyshlev/pagoseguro-auth/internal/repository"
	"go.uber.org/zap"
)

// TokenSweeper periodically deletes expired refresh tokens
type TokenSweeper struct {
	repo     repository.RefreshTokenRepository
	interval time.Duration
	logger   *zap.Logger
}

// NewTokenSweeper creates a sweeper running every interval
func NewTokenSweeper(repo repository.RefreshTokenRepository, interval time.Duration, logger *zap.Logger) *TokenSweeper {
	return &TokenSweeper{repo: repo, interval: interval, logger: logger}
}

// Run sweeps on every tick until ctx is done
func (s *TokenSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce deletes expired refresh tokens and returns how many were removed
func (s *TokenSweeper) SweepOnce(ctx context.Context) int64 {
	removed, err := s.repo.DeleteExpired(ctx)
	if err != nil {
		s.logger.Error("Failed to sweep expired refresh tokens", zap.Error(err))
		return 0
	}
	if removed > 0 {
		s.logger.Info("Swept expired refresh tokens", zap.Int64("removed", removed))
	}
	return removed
}
