package persistence

import "strings"

// sortColumns allowlists the columns a listing may be ordered by. Anything
// else falls back to the listing's default column, so user input never
// reaches the ORDER BY clause.
type sortColumns map[string]struct{}

func newSortColumns(cols ...string) sortColumns {
	s := make(sortColumns, len(cols))
	for _, c := range cols {
		s[c] = struct{}{}
	}
	return s
}

var (
	templateSortColumns = newSortColumns("created_at", "updated_at", "code", "name", "type", "revision", "is_active")
	runSortColumns      = newSortColumns("started_at", "finished_at", "template_code", "status", "processed_count", "error_count")
)

// orderClause returns "<column> ASC|DESC". Direction defaults to DESC.
func (s sortColumns) orderClause(orderBy, orderDir, fallback string) string {
	col := strings.TrimSpace(orderBy)
	if _, ok := s[col]; !ok {
		col = fallback
	}
	dir := "DESC"
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		dir = "ASC"
	}
	return col + " " + dir
}
