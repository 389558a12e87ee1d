package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/atlasdash/internal/audit"
	"github.com/gosuda/atlasdash/internal/domain"
	"github.com/gosuda/atlasdash/internal/server/middleware"
)

// PageParams are the filters shared by the audit listings.
type PageParams struct {
	Search     string `query:"search" doc:"Substring of action, resource id or details"`
	ActionType string `query:"actionType" enum:"create,read,update,delete" doc:"Coarse action category"`
	Limit      int    `query:"limit" doc:"Page size; clamped to the configured maximum"`
	Offset     int    `query:"offset" doc:"Rows to skip"`
}

type ListAuditLogsInput struct {
	ResourceType string `query:"resourceType" doc:"server, group, template or file"`
	PageParams
}

type ListServerAuditLogsInput struct {
	ServerID   string `query:"serverId" doc:"Durable server id"`
	ServerName string `query:"serverName" doc:"Server display name"`
	Mode       string `query:"mode" enum:"id,name,both" doc:"Which identity forms to match; defaults to both"`
	PageParams
}

type ListGroupAuditLogsInput struct {
	Group string `path:"group" minLength:"1" doc:"Group name"`
	PageParams
}

type AuditPageOutput struct {
	Body *audit.Page
}

type RestoreInput struct {
	ID string `path:"id" doc:"Audit log ID"`
}

type RestoreOutput struct {
	Body audit.RestoreResult
}

func RegisterAuditRoutes(api huma.API, auditSvc AuditService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-audit-logs",
		Method:      http.MethodGet,
		Path:        "/audit-logs",
		Summary:     "List audit log entries",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ListAuditLogsInput) (*AuditPageOutput, error) {
		page, err := auditSvc.ListAuditLogs(ctx, audit.GlobalQuery{
			ResourceType: domain.ResourceType(input.ResourceType),
			Search:       input.Search,
			ActionType:   audit.ActionCategory(input.ActionType),
			Limit:        input.Limit,
			Offset:       input.Offset,
		})
		if err != nil {
			return nil, queryError(err)
		}
		return &AuditPageOutput{Body: page}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-server-audit-logs",
		Method:      http.MethodGet,
		Path:        "/audit-logs/servers",
		Summary:     "List audit log entries of one server",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ListServerAuditLogsInput) (*AuditPageOutput, error) {
		page, err := auditSvc.ListServerAuditLogs(ctx, audit.ServerQuery{
			ServerID:   input.ServerID,
			ServerName: input.ServerName,
			Mode:       audit.SearchMode(input.Mode),
			Search:     input.Search,
			ActionType: audit.ActionCategory(input.ActionType),
			Limit:      input.Limit,
			Offset:     input.Offset,
		})
		if err != nil {
			return nil, queryError(err)
		}
		return &AuditPageOutput{Body: page}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-group-audit-logs",
		Method:      http.MethodGet,
		Path:        "/audit-logs/groups/{group}",
		Summary:     "List audit log entries of one group",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ListGroupAuditLogsInput) (*AuditPageOutput, error) {
		page, err := auditSvc.ListGroupAuditLogs(ctx, audit.GroupQuery{
			Group:      input.Group,
			Search:     input.Search,
			ActionType: audit.ActionCategory(input.ActionType),
			Limit:      input.Limit,
			Offset:     input.Offset,
		})
		if err != nil {
			return nil, queryError(err)
		}
		return &AuditPageOutput{Body: page}, nil
	})

	// Restore failures are reported in the body, not the status code.
	huma.Register(api, huma.Operation{
		OperationID: "restore-audit-log",
		Method:      http.MethodPost,
		Path:        "/audit-logs/{id}/restore",
		Summary:     "Reverse a restorable audited action",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *RestoreInput) (*RestoreOutput, error) {
		if !middleware.HasRole(ctx, middleware.RestoreRoles...) {
			return nil, huma.Error403Forbidden("insufficient permissions")
		}
		return &RestoreOutput{Body: auditSvc.RestoreAction(ctx, input.ID)}, nil
	})
}
