package repo

import (
	"strings"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// MatchAny narrows q to rows where any of columns contains term, ignoring case.
// A blank term leaves q untouched.
func (b Base) MatchAny(q *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return q
	}
	pattern := "%" + likeEscaper.Replace(term) + "%"
	postgres := b.IsPostgres()
	if !postgres {
		pattern = strings.ToLower(pattern)
	}

	clauses := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for _, col := range columns {
		if postgres {
			clauses = append(clauses, col+" ILIKE ?")
		} else {
			clauses = append(clauses, "LOWER(COALESCE("+col+", '')) LIKE ? ESCAPE '\\'")
		}
		args = append(args, pattern)
	}
	return q.Where("("+strings.Join(clauses, " OR ")+")", args...)
}
