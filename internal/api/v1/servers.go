package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/atlasdash/internal/audit"
	"github.com/gosuda/atlasdash/internal/domain"
)

type ListServersOutput struct {
	Body []*domain.Server
}

type ServerInput struct {
	Server string `path:"server" minLength:"1" doc:"Server id or name"`
}

type GetServerOutput struct {
	Body *domain.Server
}

func RegisterServerRoutes(api huma.API, atlas AtlasClient, auditSvc AuditService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-servers",
		Method:      http.MethodGet,
		Path:        "/servers",
		Summary:     "List servers",
		Tags:        []string{"Servers"},
	}, func(ctx context.Context, _ *struct{}) (*ListServersOutput, error) {
		servers, err := atlas.ListServers(ctx)
		if err != nil {
			return nil, atlasError(err, "servers")
		}
		if servers == nil {
			servers = make([]*domain.Server, 0)
		}
		return &ListServersOutput{Body: servers}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-server",
		Method:      http.MethodGet,
		Path:        "/servers/{server}",
		Summary:     "Get a server by id or name",
		Tags:        []string{"Servers"},
	}, func(ctx context.Context, input *ServerInput) (*GetServerOutput, error) {
		srv, err := atlas.GetServer(ctx, input.Server)
		if err != nil {
			return nil, atlasError(err, "server")
		}
		return &GetServerOutput{Body: srv}, nil
	})

	power := []struct {
		verb   string
		action string
		call   func(ctx context.Context, server string) error
	}{
		{verb: "start", action: audit.ActionStartServer, call: atlas.StartServer},
		{verb: "stop", action: audit.ActionStopServer, call: atlas.StopServer},
		{verb: "restart", action: audit.ActionRestartServer, call: atlas.RestartServer},
	}

	for _, p := range power {
		huma.Register(api, huma.Operation{
			OperationID:   p.verb + "-server",
			Method:        http.MethodPost,
			Path:          "/servers/{server}/" + p.verb,
			Summary:       "Power action: " + p.verb,
			Tags:          []string{"Servers"},
			DefaultStatus: http.StatusNoContent,
		}, func(ctx context.Context, input *ServerInput) (*struct{}, error) {
			if err := requireWrite(ctx); err != nil {
				return nil, err
			}

			err := auditSvc.Track(ctx, audit.Operation{
				Action:       p.action,
				ResourceType: domain.ResourceServer,
				ResourceID:   input.Server,
				Details:      map[string]any{"server": input.Server},
			}, func(ctx context.Context) error {
				return p.call(ctx, input.Server)
			})
			if err != nil {
				return nil, atlasError(err, "server")
			}
			return nil, nil
		})
	}
}
