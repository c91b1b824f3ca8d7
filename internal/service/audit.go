package service

import (
	"context"

	"github.com/prperemyshlev/pagoseguro-auth/internal/domain"
	"github.com/prperemyshlev/pagoseguro-auth/internal/repository"
	"go.uber.org/zap"
)

// AuditEvent describes one audited action
type AuditEvent struct {
	Action  string
	Outcome domain.AuditOutcome
	ActorID string
	Origin  domain.Origin
	Details map[string]any
}

// AuditRecorder writes audit entries. Writes are best-effort: a failed write
// is logged and never fails the calling use case.
type AuditRecorder struct {
	repo   repository.AuditRepository
	clock  domain.Clock
	logger *zap.Logger
}

// NewAuditRecorder creates an audit recorder
func NewAuditRecorder(repo repository.AuditRepository, clock domain.Clock, logger *zap.Logger) *AuditRecorder {
	return &AuditRecorder{repo: repo, clock: clock, logger: logger}
}

// Record appends an entry for event
func (r *AuditRecorder) Record(ctx context.Context, event AuditEvent) {
	entry := &domain.AuditEntry{
		Action:    event.Action,
		Module:    domain.AuditModuleAuth,
		Details:   event.Details,
		IPAddress: event.Origin.IPAddress,
		UserAgent: event.Origin.UserAgent,
		Outcome:   event.Outcome,
		CreatedAt: r.clock.Now(),
	}
	if event.ActorID != "" {
		actor := event.ActorID
		entry.ActorID = &actor
	}

	if err := r.repo.Save(ctx, entry); err != nil {
		r.logger.Error("Failed to write audit entry",
			zap.String("action", event.Action),
			zap.String("outcome", string(event.Outcome)),
			zap.Error(err),
		)
	}
}
