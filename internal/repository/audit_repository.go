package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/pagoseguro-auth/internal/domain"
	"github.com/prperemyshlev/pagoseguro-auth/pkg/database"
)

const auditColumns = `id, user_id, action, module, details, ip_address, user_agent, status, created_at`

// auditRepository implements AuditRepository interface
type auditRepository struct {
	db *database.Postgres
}

// NewAuditRepository creates a new audit log repository
func NewAuditRepository(db *database.Postgres) AuditRepository {
	return &auditRepository{db: db}
}

// Save appends an audit entry
func (r *auditRepository) Save(ctx context.Context, entry *domain.AuditEntry) error {
	query := `
		INSERT INTO audit_logs (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	details := entry.Details
	if details == nil {
		details = map[string]any{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	_, err = r.db.DB.ExecContext(ctx, query,
		entry.ID,
		entry.ActorID,
		entry.Action,
		entry.Module,
		string(detailsJSON),
		entry.IPAddress,
		entry.UserAgent,
		string(entry.Outcome),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	return nil
}

// FindByActor returns the most recent entries written for an actor
func (r *auditRepository) FindByActor(ctx context.Context, actorID string, limit int) ([]*domain.AuditEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	return r.list(ctx, query, actorID, normalizeLimit(limit))
}

// FindByAction returns the most recent entries for an action
func (r *auditRepository) FindByAction(ctx context.Context, action string, limit int) ([]*domain.AuditEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE action = $1 ORDER BY created_at DESC LIMIT $2`
	return r.list(ctx, query, action, normalizeLimit(limit))
}

// FindRecent returns the most recent entries
func (r *auditRepository) FindRecent(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs ORDER BY created_at DESC LIMIT $1`
	return r.list(ctx, query, normalizeLimit(limit))
}

func (r *auditRepository) list(ctx context.Context, query string, args ...any) ([]*domain.AuditEntry, error) {
	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		entry := &domain.AuditEntry{}
		var (
			actorID sql.NullString
			details []byte
			status  string
		)

		err := rows.Scan(
			&entry.ID,
			&actorID,
			&entry.Action,
			&entry.Module,
			&details,
			&entry.IPAddress,
			&entry.UserAgent,
			&status,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		entry.ActorID = nullString(actorID)
		entry.Outcome = domain.AuditOutcome(status)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, fmt.Errorf("failed to decode audit details: %w", err)
			}
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}

	return entries, nil
}
