package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/invoicer/database/query"
	dbtest "github.com/kbukum/invoicer/database/testutil"
	"github.com/kbukum/invoicer/errors"
)

func newTestRepo(t *testing.T) *GormRepository {
	t.Helper()
	return NewGormRepository(dbtest.NewDB(t))
}

func mustClient(t *testing.T, repo *GormRepository, first, email string, region int64) *Client {
	t.Helper()
	c := &Client{FirstName: first, LastName: "Test", Email: email, RegionID: region, CreatedAt: time.Now()}
	require.NoError(t, repo.CreateClient(context.Background(), c))
	return c
}

func mustProduct(t *testing.T, repo *GormRepository, name string, price float64) *Product {
	t.Helper()
	p := &Product{Name: name, Price: price, CreatedAt: time.Now()}
	require.NoError(t, repo.CreateProduct(context.Background(), p))
	return p
}

func TestRepository_ListRegions(t *testing.T) {
	repo := newTestRepo(t)

	regions, err := repo.ListRegions(context.Background())
	require.NoError(t, err)
	require.Len(t, regions, 8)
	assert.Equal(t, "Sudamérica", regions[0].Name)
	assert.Equal(t, "Antártida", regions[7].Name)
}

func TestRepository_ClientLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c := mustClient(t, repo, "Andres", "andres@x.com", 4)
	assert.NotZero(t, c.ID)

	found, err := repo.FindClient(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "andres@x.com", found.Email)
	assert.Nil(t, found.Region, "relations are not loaded implicitly")

	require.NoError(t, repo.LoadRegion(ctx, found))
	assert.Equal(t, "Europa", found.Region.Name)

	require.NoError(t, repo.UpdateClientPhoto(ctx, c.ID, "clients/1/a.png", "image/png"))
	found, err = repo.FindClient(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "clients/1/a.png", found.Photo)
	assert.Equal(t, "image/png", found.PhotoType)
}

func TestRepository_ClientErrors(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.FindClient(ctx, 42)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	err = repo.UpdateClientPhoto(ctx, 42, "k", "image/png")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	mustClient(t, repo, "Andres", "dup@x.com", 1)
	err = repo.CreateClient(ctx, &Client{FirstName: "Other", LastName: "X", Email: "dup@x.com", RegionID: 1, CreatedAt: time.Now()})
	assert.True(t, errors.HasCode(err, errors.ErrCodeAlreadyExists), "got %v", err)

	err = repo.CreateClient(ctx, &Client{FirstName: "Other", LastName: "X", Email: "fk@x.com", RegionID: 99, CreatedAt: time.Now()})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput), "got %v", err)
}

func TestRepository_ListClients(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustClient(t, repo, "Andres", "andres@x.com", 1)
	mustClient(t, repo, "Beatriz", "bea@x.com", 2)
	mustClient(t, repo, "Carlos", "carlos@x.com", 1)

	res, err := repo.ListClients(ctx, query.Params{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Pagination.Total)
	assert.Equal(t, 2, res.Pagination.TotalPages)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "Andres", res.Data[0].FirstName)

	params := query.Params{Page: 1, PageSize: 10}.Where("regionId", query.OpEq, "1")
	res, err = repo.ListClients(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pagination.Total)

	res, err = repo.ListClients(ctx, query.Params{Page: 1, PageSize: 10, Search: "bea"})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "Beatriz", res.Data[0].FirstName)
}

func TestRepository_SearchProducts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustProduct(t, repo, "Panasonic Screen LCD", 259990)
	mustProduct(t, repo, "Sony Camera", 123490)
	mustProduct(t, repo, "100% Cotton Shirt", 15)

	got, err := repo.SearchProducts(ctx, "sony")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Sony Camera", got[0].Name)

	got, err = repo.SearchProducts(ctx, "%")
	require.NoError(t, err)
	require.Len(t, got, 1, "wildcards in the term match literally")
	assert.Equal(t, "100% Cotton Shirt", got[0].Name)

	got, err = repo.SearchProducts(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRepository_InvoiceWithItems(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c := mustClient(t, repo, "Andres", "andres@x.com", 1)
	pen := mustProduct(t, repo, "Pen", 1.5)
	book := mustProduct(t, repo, "Book", 20)

	inv := &Invoice{
		Description: "Office supplies",
		ClientID:    c.ID,
		CreatedAt:   time.Now(),
		Items: []InvoiceItem{
			{ProductID: pen.ID, Quantity: 4},
			{ProductID: book.ID, Quantity: 2},
		},
	}
	require.NoError(t, repo.CreateInvoice(ctx, inv))
	require.NotZero(t, inv.ID)
	for _, it := range inv.Items {
		assert.Equal(t, inv.ID, it.InvoiceID)
		assert.NotZero(t, it.ID)
	}

	loaded, err := repo.FindInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Items)
	require.NoError(t, repo.LoadItems(ctx, loaded))
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, "Pen", loaded.Items[0].Product.Name)
	assert.InDelta(t, 46.0, loaded.Total(), 1e-9)

	require.NoError(t, repo.LoadInvoices(ctx, c))
	require.Len(t, c.Invoices, 1)
	assert.Equal(t, "Office supplies", c.Invoices[0].Description)
}

func TestRepository_CreateInvoiceIsAtomic(t *testing.T) {
	db := dbtest.NewDB(t)
	repo := NewGormRepository(db)
	ctx := context.Background()

	c := mustClient(t, repo, "Andres", "andres@x.com", 1)
	pen := mustProduct(t, repo, "Pen", 1.5)

	inv := &Invoice{
		Description: "Broken",
		ClientID:    c.ID,
		CreatedAt:   time.Now(),
		Items: []InvoiceItem{
			{ProductID: pen.ID, Quantity: 1},
			{ProductID: 999, Quantity: 1},
		},
	}
	err := repo.CreateInvoice(ctx, inv)
	require.Error(t, err)

	dbtest.AssertTableEmpty(t, db.GormDB, "invoices")
	dbtest.AssertTableEmpty(t, db.GormDB, "invoice_items")
}

func TestRepository_FindInvoiceMissing(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.FindInvoice(context.Background(), 7)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}
