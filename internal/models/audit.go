package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// AuditAction constants represent actions to be logged.
const (
	AuditActionSignup        = "SIGNUP"
	AuditActionLogin         = "LOGIN"
	AuditActionSchoolDisable = "SCHOOL_DISABLE"
	AuditActionSchoolEnable  = "SCHOOL_ENABLE"
	AuditActionVideoUpload   = "VIDEO_UPLOAD"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string         `db:"id" json:"id"`
	ActorID    *string        `db:"actor_id" json:"actorId,omitempty"`
	ActorRole  *string        `db:"actor_role" json:"actorRole,omitempty"`
	Action     string         `db:"action" json:"action"`
	Resource   string         `db:"resource" json:"resource"`
	ResourceID *string        `db:"resource_id" json:"resourceId,omitempty"`
	NewValues  types.JSONText `db:"new_values" json:"newValues,omitempty"`
	IPAddress  string         `db:"ip_address" json:"ipAddress"`
	UserAgent  string         `db:"user_agent" json:"userAgent"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
}

// RequestMeta carries caller details recorded alongside audited actions.
type RequestMeta struct {
	IP        string
	UserAgent string
}
