package atlas

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gosuda/atlasdash/internal/domain"
)

// GetServer accepts either the durable id or the display name.
func (c *Client) GetServer(ctx context.Context, locator string) (*domain.Server, error) {
	var srv domain.Server
	if err := c.do(ctx, http.MethodGet, "/api/v1/servers/"+seg(locator), nil, nil, &srv); err != nil {
		return nil, wrap("GetServer", err)
	}
	return &srv, nil
}

func (c *Client) ListServers(ctx context.Context) ([]*domain.Server, error) {
	servers := make([]*domain.Server, 0)
	if err := c.do(ctx, http.MethodGet, "/api/v1/servers", nil, nil, &servers); err != nil {
		return nil, wrap("ListServers", err)
	}
	return servers, nil
}

func (c *Client) StartServer(ctx context.Context, server string) error {
	return wrap("StartServer", c.do(ctx, http.MethodPost, "/api/v1/servers/"+seg(server)+"/start", nil, nil, nil))
}

func (c *Client) StopServer(ctx context.Context, server string) error {
	return wrap("StopServer", c.do(ctx, http.MethodPost, "/api/v1/servers/"+seg(server)+"/stop", nil, nil, nil))
}

func (c *Client) RestartServer(ctx context.Context, server string) error {
	return wrap("RestartServer", c.do(ctx, http.MethodPost, "/api/v1/servers/"+seg(server)+"/restart", nil, nil, nil))
}

type fileContents struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type renameRequest struct {
	OldPath string `json:"oldPath"`
	NewPath string `json:"newPath"`
}

type pathRequest struct {
	Path string `json:"path"`
}

func pathQuery(path string) url.Values {
	return url.Values{"path": {path}}
}

func (c *Client) ListServerFiles(ctx context.Context, server, dir string) ([]*domain.FileInfo, error) {
	files := make([]*domain.FileInfo, 0)
	if err := c.do(ctx, http.MethodGet, "/api/v1/servers/"+seg(server)+"/files", pathQuery(dir), nil, &files); err != nil {
		return nil, wrap("ListServerFiles", err)
	}
	return files, nil
}

func (c *Client) GetServerFileContents(ctx context.Context, server, path string) (string, error) {
	var fc fileContents
	if err := c.do(ctx, http.MethodGet, "/api/v1/servers/"+seg(server)+"/files/contents", pathQuery(path), nil, &fc); err != nil {
		return "", wrap("GetServerFileContents", err)
	}
	return fc.Content, nil
}

func (c *Client) WriteServerFileContents(ctx context.Context, server, path, content string) error {
	body := fileContents{Path: path, Content: content}
	return wrap("WriteServerFileContents",
		c.do(ctx, http.MethodPut, "/api/v1/servers/"+seg(server)+"/files/contents", nil, body, nil))
}

func (c *Client) DeleteServerFile(ctx context.Context, server, path string) error {
	return wrap("DeleteServerFile",
		c.do(ctx, http.MethodDelete, "/api/v1/servers/"+seg(server)+"/files", pathQuery(path), nil, nil))
}

func (c *Client) RenameServerFile(ctx context.Context, server, oldPath, newPath string) error {
	body := renameRequest{OldPath: oldPath, NewPath: newPath}
	return wrap("RenameServerFile",
		c.do(ctx, http.MethodPost, "/api/v1/servers/"+seg(server)+"/files/rename", nil, body, nil))
}

func (c *Client) CreateServerFolder(ctx context.Context, server, path string) error {
	return wrap("CreateServerFolder",
		c.do(ctx, http.MethodPost, "/api/v1/servers/"+seg(server)+"/files/folder", nil, pathRequest{Path: path}, nil))
}
