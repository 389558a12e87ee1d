package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/atlasdash/internal/audit"
	"github.com/gosuda/atlasdash/internal/domain"
)

type ListServerFilesInput struct {
	Server string `path:"server" minLength:"1" doc:"Server id or name"`
	Path   string `query:"path" default:"/" doc:"Directory to list"`
}

type ListFilesOutput struct {
	Body []*domain.FileInfo
}

type ServerFileInput struct {
	Server string `path:"server" minLength:"1" doc:"Server id or name"`
	Path   string `query:"path" required:"true" minLength:"1" doc:"File path"`
}

type FileContents struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type FileContentsOutput struct {
	Body *FileContents
}

type WriteServerFileInput struct {
	Server string `path:"server" minLength:"1" doc:"Server id or name"`
	Body   struct {
		Path    string `json:"path" minLength:"1" doc:"File path"`
		Content string `json:"content" doc:"New file contents"`
	}
}

type RenameServerFileInput struct {
	Server string `path:"server" minLength:"1" doc:"Server id or name"`
	Body   struct {
		OldPath string `json:"oldPath" minLength:"1" doc:"Current path"`
		NewPath string `json:"newPath" minLength:"1" doc:"Target path"`
	}
}

type CreateServerFolderInput struct {
	Server string `path:"server" minLength:"1" doc:"Server id or name"`
	Body   struct {
		Path string `json:"path" minLength:"1" doc:"Folder path"`
	}
}

// RegisterFileRoutes exposes the file manager of individual servers. Every
// mutation goes through the audit service; restorable ones are snapshotted
// before the Atlas call.
func RegisterFileRoutes(api huma.API, atlas AtlasClient, auditSvc AuditService, opts Options) {
	huma.Register(api, huma.Operation{
		OperationID: "list-server-files",
		Method:      http.MethodGet,
		Path:        "/servers/{server}/files",
		Summary:     "List files of a server directory",
		Tags:        []string{"Files"},
	}, func(ctx context.Context, input *ListServerFilesInput) (*ListFilesOutput, error) {
		files, err := atlas.ListServerFiles(ctx, input.Server, input.Path)
		if err != nil {
			return nil, atlasError(err, "directory")
		}
		if files == nil {
			files = make([]*domain.FileInfo, 0)
		}
		return &ListFilesOutput{Body: files}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-server-file-contents",
		Method:      http.MethodGet,
		Path:        "/servers/{server}/files/contents",
		Summary:     "Read a server file",
		Tags:        []string{"Files"},
	}, func(ctx context.Context, input *ServerFileInput) (*FileContentsOutput, error) {
		content, err := atlas.GetServerFileContents(ctx, input.Server, input.Path)
		if opts.LogReads {
			logRead(ctx, auditSvc, audit.Record{
				Action:       audit.ActionGetServerFileContents,
				ResourceType: domain.ResourceServer,
				ResourceID:   input.Server,
				Details:      map[string]any{"server": input.Server, "path": input.Path},
			}, err)
		}
		if err != nil {
			return nil, atlasError(err, "file")
		}
		return &FileContentsOutput{Body: &FileContents{Path: input.Path, Content: content}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "write-server-file-contents",
		Method:        http.MethodPut,
		Path:          "/servers/{server}/files/contents",
		Summary:       "Overwrite a server file",
		Tags:          []string{"Files"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *WriteServerFileInput) (*struct{}, error) {
		server, path, content := input.Server, input.Body.Path, input.Body.Content
		if err := requireWrite(ctx); err != nil {
			return nil, err
		}

		err := auditSvc.Track(ctx, audit.Operation{
			Action:       audit.ActionWriteServerFileContents,
			ResourceType: domain.ResourceServer,
			ResourceID:   server,
			Details:      map[string]any{"server": server, "path": path, "content": content},
			Target:       audit.Target{ServerID: server, Path: path},
		}, func(ctx context.Context) error {
			return atlas.WriteServerFileContents(ctx, server, path, content)
		})
		if err != nil {
			return nil, atlasError(err, "file")
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-server-file",
		Method:        http.MethodDelete,
		Path:          "/servers/{server}/files",
		Summary:       "Delete a server file",
		Tags:          []string{"Files"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *ServerFileInput) (*struct{}, error) {
		if err := requireWrite(ctx); err != nil {
			return nil, err
		}

		err := auditSvc.Track(ctx, audit.Operation{
			Action:       audit.ActionDeleteServerFile,
			ResourceType: domain.ResourceServer,
			ResourceID:   input.Server,
			Details:      map[string]any{"server": input.Server, "path": input.Path},
			Target:       audit.Target{ServerID: input.Server, Path: input.Path},
		}, func(ctx context.Context) error {
			return atlas.DeleteServerFile(ctx, input.Server, input.Path)
		})
		if err != nil {
			return nil, atlasError(err, "file")
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "rename-server-file",
		Method:        http.MethodPost,
		Path:          "/servers/{server}/files/rename",
		Summary:       "Rename or move a server file",
		Tags:          []string{"Files"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *RenameServerFileInput) (*struct{}, error) {
		server, oldPath, newPath := input.Server, input.Body.OldPath, input.Body.NewPath
		if err := requireWrite(ctx); err != nil {
			return nil, err
		}

		err := auditSvc.Track(ctx, audit.Operation{
			Action:       audit.ActionRenameServerFile,
			ResourceType: domain.ResourceServer,
			ResourceID:   server,
			Details:      map[string]any{"server": server, "oldPath": oldPath, "newPath": newPath},
			Target:       audit.Target{ServerID: server, Path: oldPath},
		}, func(ctx context.Context) error {
			return atlas.RenameServerFile(ctx, server, oldPath, newPath)
		})
		if err != nil {
			return nil, atlasError(err, "file")
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-server-folder",
		Method:        http.MethodPost,
		Path:          "/servers/{server}/files/folder",
		Summary:       "Create a folder on a server",
		Tags:          []string{"Files"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *CreateServerFolderInput) (*struct{}, error) {
		if err := requireWrite(ctx); err != nil {
			return nil, err
		}

		err := auditSvc.Track(ctx, audit.Operation{
			Action:       audit.ActionCreateServerFolder,
			ResourceType: domain.ResourceServer,
			ResourceID:   input.Server,
			Details:      map[string]any{"server": input.Server, "path": input.Body.Path},
		}, func(ctx context.Context) error {
			return atlas.CreateServerFolder(ctx, input.Server, input.Body.Path)
		})
		if err != nil {
			return nil, atlasError(err, "directory")
		}
		return nil, nil
	})
}

// logRead records a read that does not go through Track. Reads are never
// restorable.
func logRead(ctx context.Context, auditSvc AuditService, rec audit.Record, err error) {
	notRestorable := false
	rec.RestorePossible = &notRestorable
	rec.Success = err == nil
	if err != nil {
		rec.ErrorMessage = err.Error()
	}
	auditSvc.LogAction(context.WithoutCancel(ctx), rec)
}
