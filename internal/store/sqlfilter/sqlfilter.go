// Package sqlfilter renders a domain.AuditFilter into a WHERE clause for the
// audit_logs table. The same clause is used by the page query and the count
// query so both see an identical predicate set.
package sqlfilter

import (
	"strconv"
	"strings"

	"github.com/gosuda/atlasdash/internal/domain"
)

// Dialect describes the SQL differences between the supported stores.
type Dialect struct {
	placeholder func(n int) string
	// likeOp is used for free-text search only.
	likeOp      string
	detailsText string
}

//nolint:gochecknoglobals // dialect descriptors
var (
	Postgres = Dialect{
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		likeOp:      "ILIKE",
		detailsText: "a.details::text",
	}
	SQLite = Dialect{
		placeholder: func(int) string { return "?" },
		likeOp:      "LIKE",
		detailsText: "a.details",
	}
)

// Placeholder returns the n-th (1-based) bind placeholder.
func (d Dialect) Placeholder(n int) string {
	return d.placeholder(n)
}

// Where returns the clause (including the leading " WHERE ", or empty when the
// filter is unconstrained) and its bind arguments. Columns are qualified with
// the alias "a".
func Where(d Dialect, f domain.AuditFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return d.placeholder(len(args))
	}

	if f.ResourceType != "" {
		conds = append(conds, "a.resource_type = "+next(string(f.ResourceType)))
	}

	if len(f.ResourceIDs) > 0 {
		ph := make([]string, 0, len(f.ResourceIDs))
		for _, id := range f.ResourceIDs {
			ph = append(ph, next(id))
		}
		conds = append(conds, "a.resource_id IN ("+strings.Join(ph, ", ")+")")
	}

	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + EscapeLike(s) + "%"
		conds = append(conds, "("+
			"a.action "+d.likeOp+" "+next(pattern)+` ESCAPE '\'`+
			" OR a.resource_id "+d.likeOp+" "+next(pattern)+` ESCAPE '\'`+
			" OR "+d.detailsText+" "+d.likeOp+" "+next(pattern)+` ESCAPE '\'`+
			")")
	}

	if len(f.ActionPatterns) > 0 {
		ors := make([]string, 0, len(f.ActionPatterns))
		for _, p := range f.ActionPatterns {
			ors = append(ors, "a.action LIKE "+next(p))
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// EscapeLike escapes LIKE wildcards so s matches literally.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
