package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/atlasdash/internal/audit"
	"github.com/gosuda/atlasdash/internal/domain"
)

type ListTemplateFilesInput struct {
	Path string `query:"path" default:"/" doc:"Directory to list"`
}

type TemplateFileInput struct {
	Path string `query:"path" required:"true" minLength:"1" doc:"File path"`
}

type WriteTemplateFileInput struct {
	Body struct {
		Path    string `json:"path" minLength:"1" doc:"File path"`
		Content string `json:"content" doc:"New file contents"`
	}
}

type RenameTemplateFileInput struct {
	Body struct {
		OldPath string `json:"oldPath" minLength:"1" doc:"Current path"`
		NewPath string `json:"newPath" minLength:"1" doc:"Target path"`
	}
}

// RegisterTemplateRoutes exposes the shared template tree. Templates are
// global, so their entries are recorded under resource id "global".
func RegisterTemplateRoutes(api huma.API, atlas AtlasClient, auditSvc AuditService, opts Options) {
	huma.Register(api, huma.Operation{
		OperationID: "list-template-files",
		Method:      http.MethodGet,
		Path:        "/templates/files",
		Summary:     "List template files",
		Tags:        []string{"Templates"},
	}, func(ctx context.Context, input *ListTemplateFilesInput) (*ListFilesOutput, error) {
		files, err := atlas.ListTemplateFiles(ctx, input.Path)
		if err != nil {
			return nil, atlasError(err, "directory")
		}
		if files == nil {
			files = make([]*domain.FileInfo, 0)
		}
		return &ListFilesOutput{Body: files}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-template-file-contents",
		Method:      http.MethodGet,
		Path:        "/templates/files/contents",
		Summary:     "Read a template file",
		Tags:        []string{"Templates"},
	}, func(ctx context.Context, input *TemplateFileInput) (*FileContentsOutput, error) {
		content, err := atlas.GetTemplateFileContents(ctx, input.Path)
		if opts.LogReads {
			logRead(ctx, auditSvc, audit.Record{
				Action:       audit.ActionGetTemplateFileContents,
				ResourceType: domain.ResourceTemplate,
				Details:      map[string]any{"path": input.Path},
			}, err)
		}
		if err != nil {
			return nil, atlasError(err, "template file")
		}
		return &FileContentsOutput{Body: &FileContents{Path: input.Path, Content: content}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "write-template-file-contents",
		Method:        http.MethodPut,
		Path:          "/templates/files/contents",
		Summary:       "Overwrite a template file",
		Tags:          []string{"Templates"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *WriteTemplateFileInput) (*struct{}, error) {
		path, content := input.Body.Path, input.Body.Content
		if err := requireWrite(ctx); err != nil {
			return nil, err
		}

		err := auditSvc.Track(ctx, audit.Operation{
			Action:       audit.ActionWriteTemplateFileContents,
			ResourceType: domain.ResourceTemplate,
			Details:      map[string]any{"path": path, "content": content},
			Target:       audit.Target{Path: path},
		}, func(ctx context.Context) error {
			return atlas.WriteTemplateFileContents(ctx, path, content)
		})
		if err != nil {
			return nil, atlasError(err, "template file")
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-template-file",
		Method:        http.MethodDelete,
		Path:          "/templates/files",
		Summary:       "Delete a template file",
		Tags:          []string{"Templates"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *TemplateFileInput) (*struct{}, error) {
		if err := requireWrite(ctx); err != nil {
			return nil, err
		}

		err := auditSvc.Track(ctx, audit.Operation{
			Action:       audit.ActionDeleteTemplateFile,
			ResourceType: domain.ResourceTemplate,
			Details:      map[string]any{"path": input.Path},
			Target:       audit.Target{Path: input.Path},
		}, func(ctx context.Context) error {
			return atlas.DeleteTemplateFile(ctx, input.Path)
		})
		if err != nil {
			return nil, atlasError(err, "template file")
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "rename-template-file",
		Method:        http.MethodPost,
		Path:          "/templates/files/rename",
		Summary:       "Rename or move a template file",
		Tags:          []string{"Templates"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *RenameTemplateFileInput) (*struct{}, error) {
		oldPath, newPath := input.Body.OldPath, input.Body.NewPath
		if err := requireWrite(ctx); err != nil {
			return nil, err
		}

		err := auditSvc.Track(ctx, audit.Operation{
			Action:       audit.ActionRenameTemplateFile,
			ResourceType: domain.ResourceTemplate,
			Details:      map[string]any{"oldPath": oldPath, "newPath": newPath},
			Target:       audit.Target{Path: oldPath},
		}, func(ctx context.Context) error {
			return atlas.RenameTemplateFile(ctx, oldPath, newPath)
		})
		if err != nil {
			return nil, atlasError(err, "template file")
		}
		return nil, nil
	})
}
