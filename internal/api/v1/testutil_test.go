package v1_test

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/gosuda/atlasdash/internal/audit"
	"github.com/gosuda/atlasdash/internal/domain"
	"github.com/gosuda/atlasdash/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers: inject user/role into context for DoCtx
// ---------------------------------------------------------------------------

func userCtx(role string) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyUserID, uuid.New())
	ctx = context.WithValue(ctx, middleware.ContextKeyUserRole, role)
	return ctx
}

func memberCtx() context.Context { return userCtx(middleware.RoleMember) }

// ---------------------------------------------------------------------------
// Mock AtlasClient
// ---------------------------------------------------------------------------

type mockAtlas struct {
	getServerFunc     func(ctx context.Context, locator string) (*domain.Server, error)
	listServersFunc   func(ctx context.Context) ([]*domain.Server, error)
	startServerFunc   func(ctx context.Context, server string) error
	stopServerFunc    func(ctx context.Context, server string) error
	restartServerFunc func(ctx context.Context, server string) error

	listServerFilesFunc  func(ctx context.Context, server, dir string) ([]*domain.FileInfo, error)
	getServerFileFunc    func(ctx context.Context, server, path string) (string, error)
	writeServerFileFunc  func(ctx context.Context, server, path, content string) error
	deleteServerFileFunc func(ctx context.Context, server, path string) error
	renameServerFileFunc func(ctx context.Context, server, oldPath, newPath string) error
	createFolderFunc     func(ctx context.Context, server, path string) error

	listTemplateFilesFunc  func(ctx context.Context, dir string) ([]*domain.FileInfo, error)
	getTemplateFileFunc    func(ctx context.Context, path string) (string, error)
	writeTemplateFileFunc  func(ctx context.Context, path, content string) error
	deleteTemplateFileFunc func(ctx context.Context, path string) error
	renameTemplateFileFunc func(ctx context.Context, oldPath, newPath string) error

	listGroupsFunc  func(ctx context.Context) ([]*domain.Group, error)
	getGroupFunc    func(ctx context.Context, name string) (*domain.Group, error)
	scaleGroupFunc  func(ctx context.Context, name string, servers int) error
	createGroupFunc func(ctx context.Context, g *domain.Group) error
	deleteGroupFunc func(ctx context.Context, name string) error
}

func (m *mockAtlas) GetServer(ctx context.Context, locator string) (*domain.Server, error) {
	return m.getServerFunc(ctx, locator)
}

func (m *mockAtlas) ListServers(ctx context.Context) ([]*domain.Server, error) {
	return m.listServersFunc(ctx)
}

func (m *mockAtlas) StartServer(ctx context.Context, server string) error {
	return m.startServerFunc(ctx, server)
}

func (m *mockAtlas) StopServer(ctx context.Context, server string) error {
	return m.stopServerFunc(ctx, server)
}

func (m *mockAtlas) RestartServer(ctx context.Context, server string) error {
	return m.restartServerFunc(ctx, server)
}

func (m *mockAtlas) ListServerFiles(ctx context.Context, server, dir string) ([]*domain.FileInfo, error) {
	return m.listServerFilesFunc(ctx, server, dir)
}

func (m *mockAtlas) GetServerFileContents(ctx context.Context, server, path string) (string, error) {
	return m.getServerFileFunc(ctx, server, path)
}

func (m *mockAtlas) WriteServerFileContents(ctx context.Context, server, path, content string) error {
	return m.writeServerFileFunc(ctx, server, path, content)
}

func (m *mockAtlas) DeleteServerFile(ctx context.Context, server, path string) error {
	return m.deleteServerFileFunc(ctx, server, path)
}

func (m *mockAtlas) RenameServerFile(ctx context.Context, server, oldPath, newPath string) error {
	return m.renameServerFileFunc(ctx, server, oldPath, newPath)
}

func (m *mockAtlas) CreateServerFolder(ctx context.Context, server, path string) error {
	return m.createFolderFunc(ctx, server, path)
}

func (m *mockAtlas) ListTemplateFiles(ctx context.Context, dir string) ([]*domain.FileInfo, error) {
	return m.listTemplateFilesFunc(ctx, dir)
}

func (m *mockAtlas) GetTemplateFileContents(ctx context.Context, path string) (string, error) {
	return m.getTemplateFileFunc(ctx, path)
}

func (m *mockAtlas) WriteTemplateFileContents(ctx context.Context, path, content string) error {
	return m.writeTemplateFileFunc(ctx, path, content)
}

func (m *mockAtlas) DeleteTemplateFile(ctx context.Context, path string) error {
	return m.deleteTemplateFileFunc(ctx, path)
}

func (m *mockAtlas) RenameTemplateFile(ctx context.Context, oldPath, newPath string) error {
	return m.renameTemplateFileFunc(ctx, oldPath, newPath)
}

func (m *mockAtlas) ListGroups(ctx context.Context) ([]*domain.Group, error) {
	return m.listGroupsFunc(ctx)
}

func (m *mockAtlas) GetGroup(ctx context.Context, name string) (*domain.Group, error) {
	return m.getGroupFunc(ctx, name)
}

func (m *mockAtlas) ScaleGroup(ctx context.Context, name string, servers int) error {
	return m.scaleGroupFunc(ctx, name, servers)
}

func (m *mockAtlas) CreateGroup(ctx context.Context, g *domain.Group) error {
	return m.createGroupFunc(ctx, g)
}

func (m *mockAtlas) DeleteGroup(ctx context.Context, name string) error {
	return m.deleteGroupFunc(ctx, name)
}

// ---------------------------------------------------------------------------
// Mock AuditService
// ---------------------------------------------------------------------------

// mockAudit runs tracked calls directly and remembers the operations and
// records it was given.
type mockAudit struct {
	mu      sync.Mutex
	ops     []audit.Operation
	records []audit.Record

	restoreFunc    func(ctx context.Context, id string) audit.RestoreResult
	listFunc       func(ctx context.Context, q audit.GlobalQuery) (*audit.Page, error)
	listServerFunc func(ctx context.Context, q audit.ServerQuery) (*audit.Page, error)
	listGroupFunc  func(ctx context.Context, q audit.GroupQuery) (*audit.Page, error)
}

func (m *mockAudit) Track(ctx context.Context, op audit.Operation, call func(ctx context.Context) error) error {
	m.mu.Lock()
	m.ops = append(m.ops, op)
	m.mu.Unlock()
	return call(ctx)
}

func (m *mockAudit) LogAction(_ context.Context, rec audit.Record) audit.Outcome[*domain.AuditEntry] {
	m.mu.Lock()
	m.records = append(m.records, rec)
	m.mu.Unlock()
	return audit.Ok[*domain.AuditEntry](nil)
}

func (m *mockAudit) RestoreAction(ctx context.Context, id string) audit.RestoreResult {
	return m.restoreFunc(ctx, id)
}

func (m *mockAudit) ListAuditLogs(ctx context.Context, q audit.GlobalQuery) (*audit.Page, error) {
	return m.listFunc(ctx, q)
}

func (m *mockAudit) ListServerAuditLogs(ctx context.Context, q audit.ServerQuery) (*audit.Page, error) {
	return m.listServerFunc(ctx, q)
}

func (m *mockAudit) ListGroupAuditLogs(ctx context.Context, q audit.GroupQuery) (*audit.Page, error) {
	return m.listGroupFunc(ctx, q)
}

func (m *mockAudit) tracked() []audit.Operation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]audit.Operation(nil), m.ops...)
}

func (m *mockAudit) logged() []audit.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]audit.Record(nil), m.records...)
}
