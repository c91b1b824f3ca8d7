package domain

import "time"

// AuditOutcome is the result recorded for an audited action
type AuditOutcome string

const (
	AuditSuccess AuditOutcome = "SUCCESS"
	AuditFailure AuditOutcome = "FAILURE"
	AuditWarning AuditOutcome = "WARNING"
)

// AuditModuleAuth tags entries written by the authentication use cases
const AuditModuleAuth = "AUTH"

// Audit action names
const (
	ActionLogin            = "user.login"
	ActionLogout           = "user.logout"
	ActionRegister         = "user.register"
	ActionPasswordRecovery = "user.password_recovery"
	ActionPasswordReset    = "user.password_reset"
	ActionTokenRefresh     = "user.token_refresh"
	ActionVerifyEmail      = "user.verify_email"
)

// Origin describes where a request came from
type Origin struct {
	IPAddress string
	UserAgent string
}

// AuditEntry is an append-only record of a security relevant action
type AuditEntry struct {
	ID        string
	ActorID   *string
	Action    string
	Module    string
	Details   map[string]any
	IPAddress string
	UserAgent string
	Outcome   AuditOutcome
	CreatedAt time.Time
}
