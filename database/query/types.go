// Package query turns list request parameters into a paged GORM query.
// Request field names never reach SQL directly: every sortable, filterable
// or searchable field is mapped to a column by Config.
package query

// Operator is the prefix of a filter value, as in price=gte.1000.
type Operator string

const (
	OpEq   Operator = "eq"
	OpNeq  Operator = "neq"
	OpGt   Operator = "gt"
	OpGte  Operator = "gte"
	OpLt   Operator = "lt"
	OpLte  Operator = "lte"
	OpIn   Operator = "in"
	OpLike Operator = "like"
	OpNull Operator = "null"
)

// clauses maps each operator to its WHERE template; %s is the column.
var clauses = map[Operator]string{
	OpEq:   "%s = ?",
	OpNeq:  "%s <> ?",
	OpGt:   "%s > ?",
	OpGte:  "%s >= ?",
	OpLt:   "%s < ?",
	OpLte:  "%s <= ?",
	OpIn:   "%s IN ?",
	OpLike: `LOWER(%s) LIKE ? ESCAPE '\'`,
	OpNull: "%s IS NULL",
}

// Condition filters one request field. In conditions carry their list in
// Values; null conditions carry nothing.
type Condition struct {
	Field    string
	Operator Operator
	Value    string
	Values   []string
}

// Params is a parsed list request.
type Params struct {
	Page     int
	PageSize int
	// All disables paging.
	All        bool
	SortBy     string
	Desc       bool
	Search     string
	Conditions []Condition
}

// Where appends a condition and returns p.
func (p Params) Where(field string, op Operator, value string) Params {
	p.Conditions = append(p.Conditions, Condition{Field: field, Operator: op, Value: value})
	return p
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Result is one page of T.
type Result[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Config lists what a resource exposes. Sort and Filters map request
// field names to columns.
type Config struct {
	Search      []string
	Sort        map[string]string
	Filters     map[string]string
	DefaultSort string
}
