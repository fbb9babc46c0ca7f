package query

import (
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ParseFromRequest reads page, pageSize (or limit), sortBy, order, q (or
// search) and one parameter per configured filter. Unknown fields and
// malformed numbers fall back to defaults instead of failing the request.
func ParseFromRequest(r *http.Request, cfg Config) Params {
	v := r.URL.Query()
	p := Params{
		Page:     positive(v.Get("page"), 1),
		PageSize: DefaultPageSize,
		SortBy:   v.Get("sortBy"),
		Desc:     strings.EqualFold(v.Get("order"), "desc"),
		Search:   firstNonBlank(v.Get("q"), v.Get("search")),
	}

	if size := firstNonBlank(v.Get("pageSize"), v.Get("limit")); size != "" {
		if size == "all" || size == "-1" {
			p.All = true
		} else {
			p.PageSize = min(positive(size, DefaultPageSize), MaxPageSize)
		}
	}

	p.Conditions = filters(v, cfg)
	return p
}

// filters reads each configured filter in a stable order.
func filters(v url.Values, cfg Config) []Condition {
	var out []Condition
	for _, field := range slices.Sorted(maps.Keys(cfg.Filters)) {
		if raw := v.Get(field); raw != "" {
			out = append(out, parseCondition(field, raw))
		}
	}
	return out
}

// parseCondition reads "op.value". A value without a known operator is
// an equality match on the whole string.
func parseCondition(field, raw string) Condition {
	if raw == "is.null" {
		return Condition{Field: field, Operator: OpNull}
	}
	op, rest, found := strings.Cut(raw, ".")
	if _, known := clauses[Operator(op)]; !found || !known || op == string(OpNull) {
		return Condition{Field: field, Operator: OpEq, Value: raw}
	}
	c := Condition{Field: field, Operator: Operator(op), Value: rest}
	if c.Operator == OpIn {
		c.Value = ""
		for _, item := range strings.Split(strings.Trim(rest, "()"), ",") {
			if item = strings.TrimSpace(item); item != "" {
				c.Values = append(c.Values, item)
			}
		}
	}
	return c
}

func positive(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return def
}

func firstNonBlank(values ...string) string {
	for _, s := range values {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
