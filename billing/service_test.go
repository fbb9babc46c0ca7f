package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbtest "github.com/kbukum/invoicer/database/testutil"
	"github.com/kbukum/invoicer/errors"
	"github.com/kbukum/invoicer/logger"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *GormRepository) {
	t.Helper()
	repo := NewGormRepository(dbtest.NewDB(t))
	svc := NewService(repo, logger.NewDefault("billing-test"))
	svc.now = func() time.Time { return fixedNow }
	return svc, repo
}

func validClient() NewClient {
	return NewClient{FirstName: "Andres", LastName: "Guzman", Email: "andres@x.com", RegionID: 1}
}

func fieldOf(t *testing.T, err error) any {
	t.Helper()
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.Details["field"]
}

func TestService_CreateClient(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	in := validClient()
	in.Email = "  Andres@X.com "
	c, err := svc.CreateClient(ctx, in)
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Equal(t, "andres@x.com", c.Email)
	assert.True(t, c.CreatedAt.Equal(fixedNow))
	require.NotNil(t, c.Region)
	assert.Equal(t, "Sudamérica", c.Region.Name)

	_, err = svc.CreateClient(ctx, validClient())
	assert.True(t, errors.HasCode(err, errors.ErrCodeAlreadyExists), "got %v", err)
}

func TestService_CreateClientValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*NewClient)
	}{
		{"first name too short", func(c *NewClient) { c.FirstName = "Ana" }},
		{"first name too long", func(c *NewClient) { c.FirstName = "Maximilianooo" }},
		{"last name missing", func(c *NewClient) { c.LastName = " " }},
		{"bad email", func(c *NewClient) { c.Email = "nope" }},
		{"region missing", func(c *NewClient) { c.RegionID = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validClient()
			tt.mutate(&in)
			_, err := svc.CreateClient(ctx, in)
			assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput), "got %v", err)
		})
	}
}

func TestService_CreateClientUnknownRegion(t *testing.T) {
	svc, _ := newTestService(t)

	in := validClient()
	in.RegionID = 99
	_, err := svc.CreateClient(context.Background(), in)
	require.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput), "got %v", err)
	assert.Equal(t, "regionId", fieldOf(t, err))
}

func TestService_CreateProduct(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, NewProduct{Name: " Sony Notebook Z110 ", Price: 37990})
	require.NoError(t, err)
	assert.Equal(t, "Sony Notebook Z110", p.Name)

	_, err = svc.CreateProduct(ctx, NewProduct{Name: "", Price: 1})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))

	_, err = svc.CreateProduct(ctx, NewProduct{Name: "Free lunch", Price: -1})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
}

func TestService_InvoiceFlow(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	client, err := svc.CreateClient(ctx, validClient())
	require.NoError(t, err)
	pen := mustProduct(t, repo, "Pen", 1.5)
	book := mustProduct(t, repo, "Book", 20)

	inv, err := svc.CreateInvoice(ctx, NewInvoice{
		Description: "Office supplies",
		Observation: "Deliver Monday",
		ClientID:    client.ID,
		Items: []NewLineItem{
			{ProductID: pen.ID, Quantity: 4},
			{ProductID: book.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)
	assert.InDelta(t, 46.0, inv.Total(), 1e-9)

	got, err := svc.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.InDelta(t, 46.0, got.Total(), 1e-9)
	assert.Equal(t, "Deliver Monday", got.Observation)

	full, err := svc.GetClient(ctx, client.ID)
	require.NoError(t, err)
	require.NotNil(t, full.Region)
	require.Len(t, full.Invoices, 1)
	assert.Equal(t, inv.ID, full.Invoices[0].ID)
}

func TestService_CreateInvoiceRejectsBadReferences(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	client, err := svc.CreateClient(ctx, validClient())
	require.NoError(t, err)
	pen := mustProduct(t, repo, "Pen", 1.5)

	_, err = svc.CreateInvoice(ctx, NewInvoice{
		Description: "x",
		ClientID:    404,
		Items:       []NewLineItem{{ProductID: pen.ID, Quantity: 1}},
	})
	require.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput), "got %v", err)
	assert.Equal(t, "clientId", fieldOf(t, err))

	_, err = svc.CreateInvoice(ctx, NewInvoice{
		Description: "x",
		ClientID:    client.ID,
		Items: []NewLineItem{
			{ProductID: pen.ID, Quantity: 1},
			{ProductID: 999, Quantity: 1},
		},
	})
	require.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput), "got %v", err)
	assert.Equal(t, "items[1].productId", fieldOf(t, err))
}

func TestService_CreateInvoiceValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   NewInvoice
	}{
		{"no description", NewInvoice{ClientID: 1, Items: []NewLineItem{{ProductID: 1, Quantity: 1}}}},
		{"no items", NewInvoice{Description: "x", ClientID: 1}},
		{"zero quantity", NewInvoice{Description: "x", ClientID: 1, Items: []NewLineItem{{ProductID: 1, Quantity: 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateInvoice(ctx, tt.in)
			assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput), "got %v", err)
		})
	}
}

func TestService_GetMissing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetClient(ctx, 1)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
	_, err = svc.GetInvoice(ctx, 1)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}
