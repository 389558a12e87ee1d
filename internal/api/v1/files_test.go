package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/atlasdash/internal/api/v1"
	"github.com/gosuda/atlasdash/internal/audit"
	"github.com/gosuda/atlasdash/internal/domain"
)

func TestListServerFiles(t *testing.T) {
	t.Parallel()

	var gotDir string
	_, api := humatest.New(t)
	v1.RegisterFileRoutes(api, &mockAtlas{
		listServerFilesFunc: func(_ context.Context, server, dir string) ([]*domain.FileInfo, error) {
			assert.Equal(t, "lobby", server)
			gotDir = dir
			return []*domain.FileInfo{{Name: "server.properties", Path: "/server.properties", Size: 12}}, nil
		},
	}, &mockAudit{}, v1.Options{})

	resp := api.GetCtx(memberCtx(), "/servers/lobby/files")

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "/", gotDir, "path defaults to the root")

	var body []domain.FileInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, "server.properties", body[0].Name)
}

func TestGetServerFileContents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		logReads    bool
		readErr     error
		wantStatus  int
		wantRecords int
	}{
		{name: "reads_not_logged_by_default", wantStatus: http.StatusOK},
		{name: "reads_logged_when_enabled", logReads: true, wantStatus: http.StatusOK, wantRecords: 1},
		{name: "failed_read_logged", logReads: true, readErr: errors.New("timeout"), wantStatus: http.StatusBadGateway, wantRecords: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			auditSvc := &mockAudit{}
			_, api := humatest.New(t)
			v1.RegisterFileRoutes(api, &mockAtlas{
				getServerFileFunc: func(_ context.Context, server, path string) (string, error) {
					assert.Equal(t, "lobby", server)
					assert.Equal(t, "/config.yml", path)
					return "motd: hi", tt.readErr
				},
			}, auditSvc, v1.Options{LogReads: tt.logReads})

			resp := api.GetCtx(memberCtx(), "/servers/lobby/files/contents?path=/config.yml")

			require.Equal(t, tt.wantStatus, resp.Code)
			if tt.readErr == nil {
				assert.JSONEq(t, `{"path":"/config.yml","content":"motd: hi"}`, resp.Body.String())
			}

			records := auditSvc.logged()
			require.Len(t, records, tt.wantRecords)
			if tt.wantRecords == 0 {
				return
			}
			rec := records[0]
			assert.Equal(t, audit.ActionGetServerFileContents, rec.Action)
			assert.Equal(t, map[string]any{"server": "lobby", "path": "/config.yml"}, rec.Details)
			require.NotNil(t, rec.RestorePossible)
			assert.False(t, *rec.RestorePossible)
			assert.Equal(t, tt.readErr == nil, rec.Success)
		})
	}
}

func TestGetServerFileContents_MissingPath(t *testing.T) {
	t.Parallel()

	_, api := humatest.New(t)
	v1.RegisterFileRoutes(api, &mockAtlas{}, &mockAudit{}, v1.Options{})

	resp := api.GetCtx(memberCtx(), "/servers/lobby/files/contents")

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestServerFileMutations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		do         func(api humatest.TestAPI) int
		wantOp     audit.Operation
		wantCalled string
	}{
		{
			name: "write",
			do: func(api humatest.TestAPI) int {
				return api.PutCtx(memberCtx(), "/servers/lobby/files/contents", map[string]any{
					"path": "/config.yml", "content": "a=2",
				}).Code
			},
			wantOp: audit.Operation{
				Action:       audit.ActionWriteServerFileContents,
				ResourceType: domain.ResourceServer,
				ResourceID:   "lobby",
				Details:      map[string]any{"server": "lobby", "path": "/config.yml", "content": "a=2"},
				Target:       audit.Target{ServerID: "lobby", Path: "/config.yml"},
			},
			wantCalled: "write lobby /config.yml a=2",
		},
		{
			name: "delete",
			do: func(api humatest.TestAPI) int {
				return api.DeleteCtx(memberCtx(), "/servers/lobby/files?path=/old.yml").Code
			},
			wantOp: audit.Operation{
				Action:       audit.ActionDeleteServerFile,
				ResourceType: domain.ResourceServer,
				ResourceID:   "lobby",
				Details:      map[string]any{"server": "lobby", "path": "/old.yml"},
				Target:       audit.Target{ServerID: "lobby", Path: "/old.yml"},
			},
			wantCalled: "delete lobby /old.yml",
		},
		{
			name: "rename",
			do: func(api humatest.TestAPI) int {
				return api.PostCtx(memberCtx(), "/servers/lobby/files/rename", map[string]any{
					"oldPath": "/a.txt", "newPath": "/b.txt",
				}).Code
			},
			wantOp: audit.Operation{
				Action:       audit.ActionRenameServerFile,
				ResourceType: domain.ResourceServer,
				ResourceID:   "lobby",
				Details:      map[string]any{"server": "lobby", "oldPath": "/a.txt", "newPath": "/b.txt"},
				Target:       audit.Target{ServerID: "lobby", Path: "/a.txt"},
			},
			wantCalled: "rename lobby /a.txt /b.txt",
		},
		{
			name: "create_folder",
			do: func(api humatest.TestAPI) int {
				return api.PostCtx(memberCtx(), "/servers/lobby/files/folder", map[string]any{"path": "/plugins"}).Code
			},
			wantOp: audit.Operation{
				Action:       audit.ActionCreateServerFolder,
				ResourceType: domain.ResourceServer,
				ResourceID:   "lobby",
				Details:      map[string]any{"server": "lobby", "path": "/plugins"},
			},
			wantCalled: "mkdir lobby /plugins",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var called string
			auditSvc := &mockAudit{}
			_, api := humatest.New(t)
			v1.RegisterFileRoutes(api, &mockAtlas{
				writeServerFileFunc: func(_ context.Context, server, path, content string) error {
					called = "write " + server + " " + path + " " + content
					return nil
				},
				deleteServerFileFunc: func(_ context.Context, server, path string) error {
					called = "delete " + server + " " + path
					return nil
				},
				renameServerFileFunc: func(_ context.Context, server, oldPath, newPath string) error {
					called = "rename " + server + " " + oldPath + " " + newPath
					return nil
				},
				createFolderFunc: func(_ context.Context, server, path string) error {
					called = "mkdir " + server + " " + path
					return nil
				},
			}, auditSvc, v1.Options{})

			status := tt.do(api)

			require.Equal(t, http.StatusNoContent, status)
			assert.Equal(t, tt.wantCalled, called)

			ops := auditSvc.tracked()
			require.Len(t, ops, 1)
			assert.Equal(t, tt.wantOp, ops[0])
		})
	}
}
