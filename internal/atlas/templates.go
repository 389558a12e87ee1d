package atlas

import (
	"context"
	"net/http"

	"github.com/gosuda/atlasdash/internal/domain"
)

func (c *Client) ListTemplateFiles(ctx context.Context, dir string) ([]*domain.FileInfo, error) {
	files := make([]*domain.FileInfo, 0)
	if err := c.do(ctx, http.MethodGet, "/api/v1/templates/files", pathQuery(dir), nil, &files); err != nil {
		return nil, wrap("ListTemplateFiles", err)
	}
	return files, nil
}

func (c *Client) GetTemplateFileContents(ctx context.Context, path string) (string, error) {
	var fc fileContents
	if err := c.do(ctx, http.MethodGet, "/api/v1/templates/files/contents", pathQuery(path), nil, &fc); err != nil {
		return "", wrap("GetTemplateFileContents", err)
	}
	return fc.Content, nil
}

func (c *Client) WriteTemplateFileContents(ctx context.Context, path, content string) error {
	body := fileContents{Path: path, Content: content}
	return wrap("WriteTemplateFileContents",
		c.do(ctx, http.MethodPut, "/api/v1/templates/files/contents", nil, body, nil))
}

func (c *Client) DeleteTemplateFile(ctx context.Context, path string) error {
	return wrap("DeleteTemplateFile",
		c.do(ctx, http.MethodDelete, "/api/v1/templates/files", pathQuery(path), nil, nil))
}

func (c *Client) RenameTemplateFile(ctx context.Context, oldPath, newPath string) error {
	body := renameRequest{OldPath: oldPath, NewPath: newPath}
	return wrap("RenameTemplateFile",
		c.do(ctx, http.MethodPost, "/api/v1/templates/files/rename", nil, body, nil))
}
