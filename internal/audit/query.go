package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosuda/atlasdash/internal/domain"
)

// SearchMode selects which identity forms a server query matches.
type SearchMode string

const (
	SearchByID   SearchMode = "id"
	SearchByName SearchMode = "name"
	SearchBoth   SearchMode = "both"
)

type Page struct {
	Logs  []*domain.AuditLogView `json:"logs"`
	Total int64                  `json:"total"`
}

type GlobalQuery struct {
	ResourceType domain.ResourceType
	Search       string
	ActionType   ActionCategory
	Limit        int
	Offset       int
}

// ServerQuery lists entries of one server. Static servers are stored under
// their name and dynamic ones under their id, so callers that do not know
// the server's type use SearchBoth.
type ServerQuery struct {
	ServerID   string
	ServerName string
	Mode       SearchMode
	Search     string
	ActionType ActionCategory
	Limit      int
	Offset     int
}

type GroupQuery struct {
	Group      string
	Search     string
	ActionType ActionCategory
	Limit      int
	Offset     int
}

func (s *Service) ListAuditLogs(ctx context.Context, q GlobalQuery) (*Page, error) {
	if q.ResourceType != "" && !q.ResourceType.Valid() {
		return nil, fmt.Errorf("audit.ListAuditLogs: resource type %q: %w", q.ResourceType, domain.ErrInvalidInput)
	}

	f, err := s.baseFilter(q.Search, q.ActionType, q.Limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("audit.ListAuditLogs: %w", err)
	}
	f.ResourceType = q.ResourceType

	return s.page(ctx, "audit.ListAuditLogs", f)
}

func (s *Service) ListServerAuditLogs(ctx context.Context, q ServerQuery) (*Page, error) {
	ids, err := serverResourceIDs(q)
	if err != nil {
		return nil, fmt.Errorf("audit.ListServerAuditLogs: %w", err)
	}

	f, err := s.baseFilter(q.Search, q.ActionType, q.Limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("audit.ListServerAuditLogs: %w", err)
	}
	f.ResourceType = domain.ResourceServer
	f.ResourceIDs = ids

	return s.page(ctx, "audit.ListServerAuditLogs", f)
}

func (s *Service) ListGroupAuditLogs(ctx context.Context, q GroupQuery) (*Page, error) {
	group := strings.TrimSpace(q.Group)
	if group == "" {
		return nil, fmt.Errorf("audit.ListGroupAuditLogs: group is required: %w", domain.ErrInvalidInput)
	}

	f, err := s.baseFilter(q.Search, q.ActionType, q.Limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("audit.ListGroupAuditLogs: %w", err)
	}
	f.ResourceType = domain.ResourceGroup
	f.ResourceIDs = []string{group}

	return s.page(ctx, "audit.ListGroupAuditLogs", f)
}

func (s *Service) baseFilter(search string, category ActionCategory, limit, offset int) (domain.AuditFilter, error) {
	f := domain.AuditFilter{
		Search: strings.TrimSpace(search),
		Limit:  clampLimit(limit, s.limitMax),
		Offset: max(offset, 0),
	}

	if category != "" {
		patterns, ok := category.Patterns()
		if !ok {
			return f, fmt.Errorf("action type %q: %w", category, domain.ErrInvalidInput)
		}
		f.ActionPatterns = patterns
	}

	return f, nil
}

// page runs the page query and then the count query. The two are not taken
// from one snapshot, so Total can disagree with Logs under concurrent writes.
func (s *Service) page(ctx context.Context, op string, f domain.AuditFilter) (*Page, error) {
	if _, ok := s.actor(ctx); !ok {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrUnauthorized)
	}

	logs, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Page{Logs: logs, Total: total}, nil
}

func serverResourceIDs(q ServerQuery) ([]string, error) {
	id := strings.TrimSpace(q.ServerID)
	name := strings.TrimSpace(q.ServerName)

	mode := q.Mode
	if mode == "" {
		mode = SearchBoth
	}

	switch mode {
	case SearchByID:
		if id == "" {
			return nil, fmt.Errorf("server id is required: %w", domain.ErrInvalidInput)
		}
		return []string{id}, nil
	case SearchByName:
		if name == "" {
			return nil, fmt.Errorf("server name is required: %w", domain.ErrInvalidInput)
		}
		return []string{name}, nil
	case SearchBoth:
		ids := make([]string, 0, 2)
		if id != "" {
			ids = append(ids, id)
		}
		if name != "" && name != id {
			ids = append(ids, name)
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("server id or name is required: %w", domain.ErrInvalidInput)
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("search mode %q: %w", q.Mode, domain.ErrInvalidInput)
	}
}

func clampLimit(limit, maxLimit int) int {
	if limit <= 0 {
		return min(defaultPageLimit, maxLimit)
	}
	return min(limit, maxLimit)
}
