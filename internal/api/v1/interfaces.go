package v1

import (
	"context"

	"github.com/gosuda/atlasdash/internal/audit"
	"github.com/gosuda/atlasdash/internal/domain"
)

// AtlasClient abstracts the upstream Atlas API for handler testing.
// *atlas.Client satisfies this interface.
type AtlasClient interface {
	GetServer(ctx context.Context, locator string) (*domain.Server, error)
	ListServers(ctx context.Context) ([]*domain.Server, error)
	StartServer(ctx context.Context, server string) error
	StopServer(ctx context.Context, server string) error
	RestartServer(ctx context.Context, server string) error

	ListServerFiles(ctx context.Context, server, dir string) ([]*domain.FileInfo, error)
	GetServerFileContents(ctx context.Context, server, path string) (string, error)
	WriteServerFileContents(ctx context.Context, server, path, content string) error
	DeleteServerFile(ctx context.Context, server, path string) error
	RenameServerFile(ctx context.Context, server, oldPath, newPath string) error
	CreateServerFolder(ctx context.Context, server, path string) error

	ListTemplateFiles(ctx context.Context, dir string) ([]*domain.FileInfo, error)
	GetTemplateFileContents(ctx context.Context, path string) (string, error)
	WriteTemplateFileContents(ctx context.Context, path, content string) error
	DeleteTemplateFile(ctx context.Context, path string) error
	RenameTemplateFile(ctx context.Context, oldPath, newPath string) error

	ListGroups(ctx context.Context) ([]*domain.Group, error)
	GetGroup(ctx context.Context, name string) (*domain.Group, error)
	ScaleGroup(ctx context.Context, name string, servers int) error
	CreateGroup(ctx context.Context, g *domain.Group) error
	DeleteGroup(ctx context.Context, name string) error
}

// AuditService abstracts the audit engine for handler testing.
// *audit.Service satisfies this interface.
type AuditService interface {
	Track(ctx context.Context, op audit.Operation, call func(ctx context.Context) error) error
	LogAction(ctx context.Context, rec audit.Record) audit.Outcome[*domain.AuditEntry]
	RestoreAction(ctx context.Context, auditLogID string) audit.RestoreResult
	ListAuditLogs(ctx context.Context, q audit.GlobalQuery) (*audit.Page, error)
	ListServerAuditLogs(ctx context.Context, q audit.ServerQuery) (*audit.Page, error)
	ListGroupAuditLogs(ctx context.Context, q audit.GroupQuery) (*audit.Page, error)
}

// Options tunes the proxied routes.
type Options struct {
	// LogReads records file content reads in the audit log.
	LogReads bool
}
