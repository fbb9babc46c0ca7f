package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceTotal(t *testing.T) {
	pen := &Product{ID: 1, Price: 1.5}
	book := &Product{ID: 2, Price: 20}

	inv := Invoice{Items: []InvoiceItem{
		{ProductID: 1, Quantity: 4, Product: pen},
		{ProductID: 2, Quantity: 2, Product: book},
	}}

	assert.InDelta(t, 6.0, inv.Items[0].Amount(), 1e-9)
	assert.InDelta(t, 40.0, inv.Items[1].Amount(), 1e-9)
	assert.InDelta(t, 46.0, inv.Total(), 1e-9)
}

func TestAmountWithoutProduct(t *testing.T) {
	it := InvoiceItem{Quantity: 3}
	assert.Zero(t, it.Amount())
	assert.Zero(t, (&Invoice{}).Total())
}
