package query_test

import (
	"net/http/httptest"
	"net/url"
	"slices"
	"testing"

	dbtest "github.com/kbukum/invoicer/database/testutil"
	"github.com/kbukum/invoicer/database/query"
)

var productConfig = query.Config{
	Search:      []string{"name"},
	Sort:        map[string]string{"name": "name", "price": "price"},
	Filters:     map[string]string{"price": "price", "cheap": "price"},
	DefaultSort: "id",
}

func TestParseFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/products?page=2&pageSize=500&sortBy=price&order=DESC&q=%20sony%20&price=gte.100&drop=eq.1", nil)
	p := query.ParseFromRequest(r, productConfig)

	if p.Page != 2 {
		t.Errorf("Page = %d, want 2", p.Page)
	}
	if p.PageSize != query.MaxPageSize {
		t.Errorf("PageSize = %d, want %d", p.PageSize, query.MaxPageSize)
	}
	if p.SortBy != "price" || !p.Desc {
		t.Errorf("sort = %s desc=%v, want price desc", p.SortBy, p.Desc)
	}
	if p.Search != "sony" {
		t.Errorf("Search = %q, want sony", p.Search)
	}
	if len(p.Conditions) != 1 {
		t.Fatalf("Conditions = %+v, want only the allowed price filter", p.Conditions)
	}
	c := p.Conditions[0]
	if c.Field != "price" || c.Operator != query.OpGte || c.Value != "100" {
		t.Errorf("condition = %+v, want price gte 100", c)
	}
}

func TestParseFromRequest_Defaults(t *testing.T) {
	p := query.ParseFromRequest(httptest.NewRequest("GET", "/api/products", nil), productConfig)
	if p.Page != 1 || p.PageSize != query.DefaultPageSize || p.Desc || p.All {
		t.Errorf("defaults = %+v", p)
	}

	p = query.ParseFromRequest(httptest.NewRequest("GET", "/api/products?page=-3&limit=all", nil), productConfig)
	if p.Page != 1 || !p.All {
		t.Errorf("params = %+v, want page 1 unpaged", p)
	}
}

func TestParseFromRequest_Conditions(t *testing.T) {
	tests := []struct {
		raw    string
		op     query.Operator
		value  string
		values []string
	}{
		{"100", query.OpEq, "100", nil},
		{"lt.5", query.OpLt, "5", nil},
		{"in.(1, 2,,3)", query.OpIn, "", []string{"1", "2", "3"}},
		{"is.null", query.OpNull, "", nil},
		{"null.x", query.OpEq, "null.x", nil},
		{"between.1", query.OpEq, "between.1", nil},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/products?price="+url.QueryEscape(tt.raw), nil)
			p := query.ParseFromRequest(r, productConfig)
			if len(p.Conditions) != 1 {
				t.Fatalf("Conditions = %+v", p.Conditions)
			}
			c := p.Conditions[0]
			if c.Operator != tt.op || c.Value != tt.value || !slices.Equal(c.Values, tt.values) {
				t.Errorf("condition = %+v", c)
			}
		})
	}
}

func TestParseFromRequest_FiltersInKeyOrder(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/products?price=gt.1&cheap=lt.9", nil)
	p := query.ParseFromRequest(r, productConfig)
	if len(p.Conditions) != 2 || p.Conditions[0].Field != "cheap" || p.Conditions[1].Field != "price" {
		t.Errorf("Conditions = %+v", p.Conditions)
	}
}

func TestEscapeLike(t *testing.T) {
	if got := query.EscapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Errorf("EscapeLike = %q", got)
	}
}

type product struct {
	ID    int64
	Name  string
	Price float64
}

func TestApplyToGorm(t *testing.T) {
	db := dbtest.NewDB(t)
	dbtest.MustLoadFixture(t, db.GormDB, "products", []map[string]interface{}{
		{"name": "Panasonic Pantalla LCD", "price": 259990.0, "created_at": "2024-01-01"},
		{"name": "Sony Camara digital", "price": 123490.0, "created_at": "2024-01-01"},
		{"name": "Apple iPod shuffle", "price": 1499990.0, "created_at": "2024-01-01"},
		{"name": "Sony Notebook Z110", "price": 37990.0, "created_at": "2024-01-01"},
	})

	params := query.Params{Page: 1, PageSize: 1, SortBy: "price", Desc: true, Search: "SONY"}

	res, err := query.ApplyToGorm[product](db.GormDB.Table("products"), params, productConfig)
	if err != nil {
		t.Fatalf("ApplyToGorm() error = %v", err)
	}
	if res.Pagination.Total != 2 || res.Pagination.TotalPages != 2 {
		t.Errorf("pagination = %+v, want total 2 pages 2", res.Pagination)
	}
	if len(res.Data) != 1 || res.Data[0].Name != "Sony Camara digital" {
		t.Errorf("Data = %+v, want the most expensive Sony product", res.Data)
	}

	params = query.Params{Page: 1, PageSize: 10}.Where("price", query.OpLt, "200000").Where("name", query.OpEq, "ignored")
	res, err = query.ApplyToGorm[product](db.GormDB.Table("products"), params, productConfig)
	if err != nil {
		t.Fatalf("ApplyToGorm() error = %v", err)
	}
	if res.Pagination.Total != 2 {
		t.Errorf("Total = %d, want 2", res.Pagination.Total)
	}

	params = query.Params{Page: 1, All: true, Search: "100%"}
	res, err = query.ApplyToGorm[product](db.GormDB.Table("products"), params, productConfig)
	if err != nil {
		t.Fatalf("ApplyToGorm() error = %v", err)
	}
	if res.Pagination.Total != 0 {
		t.Errorf("wildcard in search matched %d rows", res.Pagination.Total)
	}
}
