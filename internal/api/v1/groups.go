package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/atlasdash/internal/audit"
	"github.com/gosuda/atlasdash/internal/domain"
)

type ListGroupsOutput struct {
	Body []*domain.Group
}

type GroupInput struct {
	Group string `path:"group" minLength:"1" doc:"Group name"`
}

type GetGroupOutput struct {
	Body *domain.Group
}

type CreateGroupInput struct {
	Body struct {
		Name         string `json:"name" minLength:"1" maxLength:"64" doc:"Group name"`
		Type         string `json:"type" enum:"STATIC,DYNAMIC" doc:"Server type"`
		MinServers   int    `json:"minServers" minimum:"0" doc:"Minimum running servers"`
		MaxServers   int    `json:"maxServers" minimum:"0" doc:"Maximum running servers"`
		TemplatePath string `json:"templatePath,omitempty" doc:"Template directory"`
	}
}

type ScaleGroupInput struct {
	Group string `path:"group" minLength:"1" doc:"Group name"`
	Body  struct {
		Servers int `json:"servers" minimum:"0" doc:"Target server count"`
	}
}

func RegisterGroupRoutes(api huma.API, atlas AtlasClient, auditSvc AuditService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-groups",
		Method:      http.MethodGet,
		Path:        "/groups",
		Summary:     "List server groups",
		Tags:        []string{"Groups"},
	}, func(ctx context.Context, _ *struct{}) (*ListGroupsOutput, error) {
		groups, err := atlas.ListGroups(ctx)
		if err != nil {
			return nil, atlasError(err, "groups")
		}
		if groups == nil {
			groups = make([]*domain.Group, 0)
		}
		return &ListGroupsOutput{Body: groups}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-group",
		Method:      http.MethodGet,
		Path:        "/groups/{group}",
		Summary:     "Get a server group",
		Tags:        []string{"Groups"},
	}, func(ctx context.Context, input *GroupInput) (*GetGroupOutput, error) {
		g, err := atlas.GetGroup(ctx, input.Group)
		if err != nil {
			return nil, atlasError(err, "group")
		}
		return &GetGroupOutput{Body: g}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-group",
		Method:        http.MethodPost,
		Path:          "/groups",
		Summary:       "Create a server group",
		Tags:          []string{"Groups"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *CreateGroupInput) (*struct{}, error) {
		if input.Body.MaxServers < input.Body.MinServers {
			return nil, huma.Error400BadRequest("maxServers must be >= minServers")
		}

		g := &domain.Group{
			Name:         input.Body.Name,
			Type:         domain.ServerType(input.Body.Type),
			MinServers:   input.Body.MinServers,
			MaxServers:   input.Body.MaxServers,
			TemplatePath: input.Body.TemplatePath,
		}

		if err := requireWrite(ctx); err != nil {
			return nil, err
		}

		err := auditSvc.Track(ctx, audit.Operation{
			Action:       audit.ActionCreateGroup,
			ResourceType: domain.ResourceGroup,
			ResourceID:   g.Name,
			Details: map[string]any{
				"group":        g.Name,
				"type":         string(g.Type),
				"minServers":   g.MinServers,
				"maxServers":   g.MaxServers,
				"templatePath": g.TemplatePath,
			},
		}, func(ctx context.Context) error {
			return atlas.CreateGroup(ctx, g)
		})
		if err != nil {
			return nil, atlasError(err, "group")
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "scale-group",
		Method:        http.MethodPost,
		Path:          "/groups/{group}/scale",
		Summary:       "Scale a server group",
		Tags:          []string{"Groups"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *ScaleGroupInput) (*struct{}, error) {
		if err := requireWrite(ctx); err != nil {
			return nil, err
		}

		err := auditSvc.Track(ctx, audit.Operation{
			Action:       audit.ActionScaleGroup,
			ResourceType: domain.ResourceGroup,
			ResourceID:   input.Group,
			Details:      map[string]any{"group": input.Group, "servers": input.Body.Servers},
		}, func(ctx context.Context) error {
			return atlas.ScaleGroup(ctx, input.Group, input.Body.Servers)
		})
		if err != nil {
			return nil, atlasError(err, "group")
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-group",
		Method:        http.MethodDelete,
		Path:          "/groups/{group}",
		Summary:       "Delete a server group",
		Tags:          []string{"Groups"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *GroupInput) (*struct{}, error) {
		if err := requireWrite(ctx); err != nil {
			return nil, err
		}

		err := auditSvc.Track(ctx, audit.Operation{
			Action:       audit.ActionDeleteGroup,
			ResourceType: domain.ResourceGroup,
			ResourceID:   input.Group,
			Details:      map[string]any{"group": input.Group},
		}, func(ctx context.Context) error {
			return atlas.DeleteGroup(ctx, input.Group)
		})
		if err != nil {
			return nil, atlasError(err, "group")
		}
		return nil, nil
	})
}
