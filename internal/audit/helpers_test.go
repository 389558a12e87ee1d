package audit_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/atlasdash/internal/audit"
	"github.com/gosuda/atlasdash/internal/domain"
	"github.com/gosuda/atlasdash/internal/store/sqlite"
)

// ---------------------------------------------------------------------------
// Actor / provenance context
// ---------------------------------------------------------------------------

type actorKey struct{}

func withActor(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, actorKey{}, id)
}

func actorFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(actorKey{}).(uuid.UUID)
	return id, ok
}

func testProvenance(context.Context) audit.Provenance {
	return audit.Provenance{IPAddress: "203.0.113.7", UserAgent: "atlasdash-test"}
}

// ---------------------------------------------------------------------------
// In-memory Atlas
// ---------------------------------------------------------------------------

const templateScope = "<templates>"

var errAtlasDown = errors.New("atlas: connection refused")

type fakeAtlas struct {
	mu       sync.Mutex
	servers  []*domain.Server
	files    map[string]map[string]string // server id (or templateScope) -> path -> content
	getErr   error                        // GetServer / ListServers
	fetchErr error                        // Get*FileContents
	writeErr error                        // Write* / Rename*
	writes   int
}

func newFakeAtlas(servers ...*domain.Server) *fakeAtlas {
	f := &fakeAtlas{files: map[string]map[string]string{templateScope: {}}}
	for _, s := range servers {
		f.servers = append(f.servers, s)
		f.files[s.ID] = map[string]string{}
	}
	return f
}

func (f *fakeAtlas) lookup(locator string) (*domain.Server, error) {
	for _, s := range f.servers {
		if s.ID == locator || s.Name == locator {
			return s, nil
		}
	}
	return nil, fmt.Errorf("server %s: %w", locator, domain.ErrNotFound)
}

func (f *fakeAtlas) scope(server string) (map[string]string, error) {
	srv, err := f.lookup(server)
	if err != nil {
		return nil, err
	}
	return f.files[srv.ID], nil
}

func (f *fakeAtlas) GetServer(_ context.Context, locator string) (*domain.Server, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	srv, err := f.lookup(locator)
	if err != nil {
		return nil, err
	}
	cp := *srv
	return &cp, nil
}

func (f *fakeAtlas) ListServers(_ context.Context) ([]*domain.Server, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	out := make([]*domain.Server, 0, len(f.servers))
	for _, s := range f.servers {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeAtlas) GetServerFileContents(_ context.Context, server, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fetchErr != nil {
		return "", f.fetchErr
	}
	files, err := f.scope(server)
	if err != nil {
		return "", err
	}
	content, ok := files[path]
	if !ok {
		return "", fmt.Errorf("file %s: %w", path, domain.ErrNotFound)
	}
	return content, nil
}

func (f *fakeAtlas) WriteServerFileContents(_ context.Context, server, path, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return f.writeErr
	}
	files, err := f.scope(server)
	if err != nil {
		return err
	}
	files[path] = content
	f.writes++
	return nil
}

func (f *fakeAtlas) DeleteServerFile(_ context.Context, server, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return f.writeErr
	}
	files, err := f.scope(server)
	if err != nil {
		return err
	}
	if _, ok := files[path]; !ok {
		return fmt.Errorf("file %s: %w", path, domain.ErrNotFound)
	}
	delete(files, path)
	return nil
}

func (f *fakeAtlas) RenameServerFile(_ context.Context, server, oldPath, newPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return f.writeErr
	}
	files, err := f.scope(server)
	if err != nil {
		return err
	}
	return renameIn(files, oldPath, newPath)
}

func (f *fakeAtlas) GetTemplateFileContents(_ context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fetchErr != nil {
		return "", f.fetchErr
	}
	content, ok := f.files[templateScope][path]
	if !ok {
		return "", fmt.Errorf("template %s: %w", path, domain.ErrNotFound)
	}
	return content, nil
}

func (f *fakeAtlas) WriteTemplateFileContents(_ context.Context, path, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return f.writeErr
	}
	f.files[templateScope][path] = content
	f.writes++
	return nil
}

func (f *fakeAtlas) RenameTemplateFile(_ context.Context, oldPath, newPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return f.writeErr
	}
	return renameIn(f.files[templateScope], oldPath, newPath)
}

func renameIn(files map[string]string, oldPath, newPath string) error {
	content, ok := files[oldPath]
	if !ok {
		return fmt.Errorf("file %s: %w", oldPath, domain.ErrNotFound)
	}
	delete(files, oldPath)
	files[newPath] = content
	return nil
}

func (f *fakeAtlas) file(server, path string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	files, err := f.scope(server)
	if err != nil {
		return "", false
	}
	content, ok := files[path]
	return content, ok
}

func (f *fakeAtlas) set(fn func(f *fakeAtlas)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// ---------------------------------------------------------------------------
// Harness
// ---------------------------------------------------------------------------

const (
	lobbyID = "6f1c2a9e-3b4d-4c5e-8f70-1a2b3c4d5e6f"
	arenaID = "0b5f7ad4-4d5e-4d8b-9a43-5c6e2f0d1a22"
)

type harness struct {
	svc   *audit.Service
	atlas *fakeAtlas
	store *sqlite.Store
	actor uuid.UUID
	ctx   context.Context
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	st, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	api := newFakeAtlas(
		&domain.Server{ID: lobbyID, Name: "lobby", Type: domain.ServerTypeStatic},
		&domain.Server{ID: arenaID, Name: "arena-1", Type: domain.ServerTypeDynamic},
	)

	svc := audit.NewService(st.Audit(), api, audit.Config{
		Actor:      actorFromContext,
		Provenance: testProvenance,
	})

	actor := uuid.New()
	return &harness{
		svc:   svc,
		atlas: api,
		store: st,
		actor: actor,
		ctx:   withActor(context.Background(), actor),
	}
}

// The helpers below mirror how the HTTP handlers wrap Atlas calls.

func (h *harness) writeServerFile(ctx context.Context, server, path, content string) error {
	return h.svc.Track(ctx, audit.Operation{
		Action:       audit.ActionWriteServerFileContents,
		ResourceType: domain.ResourceServer,
		ResourceID:   server,
		Details:      map[string]any{"server": server, "path": path, "content": content},
		Target:       audit.Target{ServerID: server, Path: path},
	}, func(ctx context.Context) error {
		return h.atlas.WriteServerFileContents(ctx, server, path, content)
	})
}

func (h *harness) deleteServerFile(ctx context.Context, server, path string) error {
	return h.svc.Track(ctx, audit.Operation{
		Action:       audit.ActionDeleteServerFile,
		ResourceType: domain.ResourceServer,
		ResourceID:   server,
		Details:      map[string]any{"server": server, "path": path},
		Target:       audit.Target{ServerID: server, Path: path},
	}, func(ctx context.Context) error {
		return h.atlas.DeleteServerFile(ctx, server, path)
	})
}

func (h *harness) renameServerFile(ctx context.Context, server, oldPath, newPath string) error {
	return h.svc.Track(ctx, audit.Operation{
		Action:       audit.ActionRenameServerFile,
		ResourceType: domain.ResourceServer,
		ResourceID:   server,
		Details:      map[string]any{"server": server, "oldPath": oldPath, "newPath": newPath},
		Target:       audit.Target{ServerID: server, Path: oldPath},
	}, func(ctx context.Context) error {
		return h.atlas.RenameServerFile(ctx, server, oldPath, newPath)
	})
}

func (h *harness) writeTemplateFile(ctx context.Context, path, content string) error {
	return h.svc.Track(ctx, audit.Operation{
		Action:       audit.ActionWriteTemplateFileContents,
		ResourceType: domain.ResourceTemplate,
		Details:      map[string]any{"path": path, "content": content},
		Target:       audit.Target{Path: path},
	}, func(ctx context.Context) error {
		return h.atlas.WriteTemplateFileContents(ctx, path, content)
	})
}

func (h *harness) startServer(ctx context.Context, server string) error {
	return h.svc.Track(ctx, audit.Operation{
		Action:       audit.ActionStartServer,
		ResourceType: domain.ResourceServer,
		ResourceID:   server,
		Details:      map[string]any{"server": server},
	}, func(context.Context) error { return nil })
}

// entries returns all stored entries with the given action, newest first.
func (h *harness) entries(t *testing.T, action string) []*domain.AuditLogView {
	t.Helper()

	logs, err := h.store.Audit().List(context.Background(), domain.AuditFilter{
		ActionPatterns: []string{action},
		Limit:          100,
	})
	require.NoError(t, err)
	return logs
}

func (h *harness) latest(t *testing.T, action string) *domain.AuditLogView {
	t.Helper()

	logs := h.entries(t, action)
	require.NotEmpty(t, logs, "no %s entry recorded", action)
	return logs[0]
}
