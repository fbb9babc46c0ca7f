package query

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcards in s. Use it with ESCAPE '\'.
func EscapeLike(s string) string { return likeEscaper.Replace(s) }

func contains(s string) string { return "%" + EscapeLike(strings.ToLower(s)) + "%" }

// ApplyToGorm runs params against db, which must be scoped to a model or
// table, and returns one page of T with its pagination.
func ApplyToGorm[T any](db *gorm.DB, params Params, cfg Config) (*Result[T], error) {
	q := db.Session(&gorm.Session{})
	if params.Search != "" && len(cfg.Search) > 0 {
		q = search(q, params.Search, cfg.Search)
	}
	for _, c := range params.Conditions {
		column, ok := cfg.Filters[c.Field]
		if !ok {
			continue
		}
		q = where(q, column, c)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}

	if column, ok := cfg.Sort[params.SortBy]; ok {
		if params.Desc {
			column += " DESC"
		}
		q = q.Order(column)
	} else if cfg.DefaultSort != "" {
		q = q.Order(cfg.DefaultSort)
	}

	page := Pagination{Page: params.Page, PageSize: params.PageSize, Total: int(total), TotalPages: 1}
	if params.All {
		page.PageSize = int(total)
	} else {
		q = q.Offset((params.Page - 1) * params.PageSize).Limit(params.PageSize)
		page.TotalPages = max(1, (page.Total+params.PageSize-1)/params.PageSize)
	}

	var data []T
	if err := q.Find(&data).Error; err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return &Result[T]{Data: data, Pagination: page}, nil
}

func search(db *gorm.DB, term string, columns []string) *gorm.DB {
	pattern := contains(term)
	ors := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		ors[i] = fmt.Sprintf(clauses[OpLike], col)
		args[i] = pattern
	}
	return db.Where(strings.Join(ors, " OR "), args...)
}

// where adds one condition; unknown operators and empty in-lists are ignored.
func where(db *gorm.DB, column string, c Condition) *gorm.DB {
	tmpl, ok := clauses[c.Operator]
	if !ok {
		return db
	}
	clause := fmt.Sprintf(tmpl, column)
	switch c.Operator {
	case OpNull:
		return db.Where(clause)
	case OpIn:
		if len(c.Values) == 0 {
			return db
		}
		return db.Where(clause, c.Values)
	case OpLike:
		return db.Where(clause, contains(c.Value))
	}
	return db.Where(clause, c.Value)
}
