package atlas

import (
	"context"
	"net/http"

	"github.com/gosuda/atlasdash/internal/domain"
)

func (c *Client) ListGroups(ctx context.Context) ([]*domain.Group, error) {
	groups := make([]*domain.Group, 0)
	if err := c.do(ctx, http.MethodGet, "/api/v1/groups", nil, nil, &groups); err != nil {
		return nil, wrap("ListGroups", err)
	}
	return groups, nil
}

func (c *Client) GetGroup(ctx context.Context, name string) (*domain.Group, error) {
	var g domain.Group
	if err := c.do(ctx, http.MethodGet, "/api/v1/groups/"+seg(name), nil, nil, &g); err != nil {
		return nil, wrap("GetGroup", err)
	}
	return &g, nil
}

// ScaleGroup sets the number of running servers of a group.
func (c *Client) ScaleGroup(ctx context.Context, name string, servers int) error {
	body := struct {
		Servers int `json:"servers"`
	}{Servers: servers}
	return wrap("ScaleGroup", c.do(ctx, http.MethodPost, "/api/v1/groups/"+seg(name)+"/scale", nil, body, nil))
}

func (c *Client) CreateGroup(ctx context.Context, g *domain.Group) error {
	return wrap("CreateGroup", c.do(ctx, http.MethodPost, "/api/v1/groups", nil, g, nil))
}

func (c *Client) DeleteGroup(ctx context.Context, name string) error {
	return wrap("DeleteGroup", c.do(ctx, http.MethodDelete, "/api/v1/groups/"+seg(name), nil, nil, nil))
}
