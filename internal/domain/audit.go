package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ResourceType string

const (
	ResourceServer   ResourceType = "server"
	ResourceGroup    ResourceType = "group"
	ResourceTemplate ResourceType = "template"
	ResourceFile     ResourceType = "file"
)

// Valid reports whether rt is one of the known resource types.
func (rt ResourceType) Valid() bool {
	switch rt {
	case ResourceServer, ResourceGroup, ResourceTemplate, ResourceFile:
		return true
	}
	return false
}

// AuditEntry is one attempted operation against the Atlas API. Entries are
// immutable except for the single RestoredAt/RestoredBy transition.
type AuditEntry struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"userId"`
	Action          string          `json:"action"`
	ResourceType    ResourceType    `json:"resourceType"`
	ResourceID      string          `json:"resourceId"`
	Details         map[string]any  `json:"details"`
	BackupData      json.RawMessage `json:"backupData,omitempty"` // nil when nothing was captured
	RestorePossible bool            `json:"restorePossible"`
	RestoredAt      *time.Time      `json:"restoredAt"`
	RestoredBy      *uuid.UUID      `json:"restoredBy"`
	IPAddress       string          `json:"ipAddress"`
	UserAgent       string          `json:"userAgent"`
	Timestamp       time.Time       `json:"timestamp"`
	Success         bool            `json:"success"`
	ErrorMessage    string          `json:"errorMessage,omitempty"`
}

// AuditLogView is an entry joined with the actor's profile for display.
type AuditLogView struct {
	AuditEntry
	UserName  string `json:"userName,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
}

// AuditFilter is the predicate set shared by the page query and the count query.
// Zero-valued fields do not constrain the result.
type AuditFilter struct {
	ResourceType   ResourceType
	ResourceIDs    []string // match any
	Search         string   // substring of action, resource id or serialized details
	ActionPatterns []string // SQL LIKE patterns, match any
	Limit          int
	Offset         int
}

type AuditRepository interface {
	Record(ctx context.Context, entry *AuditEntry) error
	// GetRestorable returns the entry only when it succeeded, is restorable and
	// has not been restored yet. Anything else is ErrNotFound.
	GetRestorable(ctx context.Context, id uuid.UUID) (*AuditEntry, error)
	// MarkRestored sets RestoredAt/RestoredBy if and only if RestoredAt is still
	// NULL. Returns ErrConflict when another caller already claimed the entry.
	MarkRestored(ctx context.Context, id, restoredBy uuid.UUID, at time.Time) error
	// ClearRestored releases a claim made by MarkRestored for restoredBy.
	ClearRestored(ctx context.Context, id, restoredBy uuid.UUID) error
	List(ctx context.Context, filter AuditFilter) ([]*AuditLogView, error)
	Count(ctx context.Context, filter AuditFilter) (int64, error)
}
