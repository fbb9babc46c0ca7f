package billing

import "time"

// Region is seeded reference data a client belongs to.
type Region struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `json:"name"`
}

func (Region) TableName() string { return "regions" }

// Product is a sellable item with a unit price.
type Product struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Product) TableName() string { return "products" }

// Client is a customer invoices are issued to. Photo holds the storage key
// of the current photo, empty when none was uploaded.
type Client struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	Photo     string    `json:"photo,omitempty"`
	PhotoType string    `json:"photoType,omitempty"`
	RegionID  int64     `json:"regionId"`

	Region   *Region   `gorm:"-" json:"region,omitempty"`
	Invoices []Invoice `gorm:"-" json:"invoices,omitempty"`
}

func (Client) TableName() string { return "clients" }

// Invoice groups the items sold to a client.
type Invoice struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Description string    `json:"description"`
	Observation string    `json:"observation"`
	ClientID    int64     `json:"clientId"`
	CreatedAt   time.Time `json:"createdAt"`

	Items []InvoiceItem `gorm:"-" json:"items,omitempty"`
}

func (Invoice) TableName() string { return "invoices" }

// Total is the sum of the item amounts. Items must be loaded.
func (i *Invoice) Total() float64 {
	var total float64
	for idx := range i.Items {
		total += i.Items[idx].Amount()
	}
	return total
}

// InvoiceItem is one invoice line.
type InvoiceItem struct {
	ID        int64 `gorm:"primaryKey" json:"id"`
	InvoiceID int64 `json:"invoiceId"`
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`

	Product *Product `gorm:"-" json:"product,omitempty"`
}

func (InvoiceItem) TableName() string { return "invoice_items" }

// Amount is quantity times the product price, zero when the product is not loaded.
func (it *InvoiceItem) Amount() float64 {
	if it.Product == nil {
		return 0
	}
	return float64(it.Quantity) * it.Product.Price
}

// NewClient is the input of client creation.
type NewClient struct {
	FirstName string `json:"firstName" validate:"required,min=4,max=12"`
	LastName  string `json:"lastName" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email,max=255"`
	RegionID  int64  `json:"regionId" validate:"required,gt=0"`
}

// NewProduct is the input of product creation.
type NewProduct struct {
	Name  string  `json:"name" validate:"required,max=255"`
	Price float64 `json:"price" validate:"gte=0"`
}

// NewInvoice is the input of invoice creation.
type NewInvoice struct {
	Description string        `json:"description" validate:"required,max=255"`
	Observation string        `json:"observation" validate:"max=1000"`
	ClientID    int64         `json:"clientId" validate:"required,gt=0"`
	Items       []NewLineItem `json:"items" validate:"required,min=1,dive"`
}

// NewLineItem is one line of a NewInvoice.
type NewLineItem struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"min=1"`
}
