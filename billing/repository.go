package billing

import (
	"context"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/kbukum/invoicer/database"
	"github.com/kbukum/invoicer/database/query"
	"github.com/kbukum/invoicer/errors"
)

// ClientQuery is the list configuration for GET /api/clients.
var ClientQuery = query.Config{
	Search: []string{"first_name", "last_name", "email"},
	Sort: map[string]string{
		"id":        "id",
		"firstName": "first_name",
		"lastName":  "last_name",
		"email":     "email",
		"createdAt": "created_at",
	},
	Filters:     map[string]string{"regionId": "region_id", "region_id": "region_id"},
	DefaultSort: "id",
}

// ProductQuery is the list configuration for GET /api/products.
var ProductQuery = query.Config{
	Search: []string{"name"},
	Sort: map[string]string{
		"id":        "id",
		"name":      "name",
		"price":     "price",
		"createdAt": "created_at",
	},
	Filters:     map[string]string{"price": "price"},
	DefaultSort: "id",
}

// Repository is the billing persistence boundary. Find methods return
// NOT_FOUND AppErrors; relations are loaded only through the Load methods.
type Repository interface {
	ListClients(ctx context.Context, params query.Params) (*query.Result[Client], error)
	FindClient(ctx context.Context, id int64) (*Client, error)
	CreateClient(ctx context.Context, client *Client) error
	UpdateClientPhoto(ctx context.Context, id int64, photo, contentType string) error
	LoadRegion(ctx context.Context, client *Client) error
	LoadInvoices(ctx context.Context, client *Client) error

	ListRegions(ctx context.Context) ([]Region, error)

	ListProducts(ctx context.Context, params query.Params) (*query.Result[Product], error)
	SearchProducts(ctx context.Context, term string) ([]Product, error)
	FindProducts(ctx context.Context, ids []int64) (map[int64]*Product, error)
	CreateProduct(ctx context.Context, product *Product) error

	FindInvoice(ctx context.Context, id int64) (*Invoice, error)
	LoadItems(ctx context.Context, invoice *Invoice) error
	CreateInvoice(ctx context.Context, invoice *Invoice) error
}

// GormRepository is the Repository backed by the service database.
type GormRepository struct {
	db *database.DB
}

var _ Repository = (*GormRepository)(nil)

// NewGormRepository creates a GormRepository.
func NewGormRepository(db *database.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) ListClients(ctx context.Context, params query.Params) (*query.Result[Client], error) {
	res, err := query.ApplyToGorm[Client](r.db.WithContext(ctx).Model(&Client{}), params, ClientQuery)
	if err != nil {
		return nil, database.FromDatabase(err, "client")
	}
	return res, nil
}

func (r *GormRepository) FindClient(ctx context.Context, id int64) (*Client, error) {
	var client Client
	if err := r.db.WithContext(ctx).Take(&client, id).Error; err != nil {
		return nil, notFoundOr(err, "client", id)
	}
	return &client, nil
}

func (r *GormRepository) CreateClient(ctx context.Context, client *Client) error {
	if err := r.db.WithContext(ctx).Create(client).Error; err != nil {
		return database.FromDatabase(err, "client")
	}
	return nil
}

// UpdateClientPhoto stores the photo key and its content type on the client row.
func (r *GormRepository) UpdateClientPhoto(ctx context.Context, id int64, photo, contentType string) error {
	res := r.db.WithContext(ctx).Model(&Client{}).Where("id = ?", id).
		Updates(map[string]interface{}{"photo": photo, "photo_type": contentType})
	if res.Error != nil {
		return database.FromDatabase(res.Error, "client")
	}
	if res.RowsAffected == 0 {
		return errors.NotFound("client", strconv.FormatInt(id, 10))
	}
	return nil
}

func (r *GormRepository) LoadRegion(ctx context.Context, client *Client) error {
	var region Region
	if err := r.db.WithContext(ctx).Take(&region, client.RegionID).Error; err != nil {
		return notFoundOr(err, "region", client.RegionID)
	}
	client.Region = &region
	return nil
}

// LoadInvoices attaches the client's invoices, newest first, without items.
func (r *GormRepository) LoadInvoices(ctx context.Context, client *Client) error {
	invoices := make([]Invoice, 0)
	err := r.db.WithContext(ctx).
		Where("client_id = ?", client.ID).
		Order("created_at DESC, id DESC").
		Find(&invoices).Error
	if err != nil {
		return database.FromDatabase(err, "invoice")
	}
	client.Invoices = invoices
	return nil
}

func (r *GormRepository) ListRegions(ctx context.Context) ([]Region, error) {
	regions := make([]Region, 0, 8)
	if err := r.db.WithContext(ctx).Order("id").Find(&regions).Error; err != nil {
		return nil, database.FromDatabase(err, "region")
	}
	return regions, nil
}

func (r *GormRepository) ListProducts(ctx context.Context, params query.Params) (*query.Result[Product], error) {
	res, err := query.ApplyToGorm[Product](r.db.WithContext(ctx).Model(&Product{}), params, ProductQuery)
	if err != nil {
		return nil, database.FromDatabase(err, "product")
	}
	return res, nil
}

// SearchProducts returns products whose name contains term, ignoring case.
func (r *GormRepository) SearchProducts(ctx context.Context, term string) ([]Product, error) {
	products := make([]Product, 0)
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? ESCAPE '\\'", "%"+query.EscapeLike(strings.ToLower(term))+"%").
		Order("name, id").
		Find(&products).Error
	if err != nil {
		return nil, database.FromDatabase(err, "product")
	}
	return products, nil
}

// FindProducts returns the products with the given ids keyed by id.
// Missing ids are simply absent from the map.
func (r *GormRepository) FindProducts(ctx context.Context, ids []int64) (map[int64]*Product, error) {
	out := make(map[int64]*Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, database.FromDatabase(err, "product")
	}
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

func (r *GormRepository) CreateProduct(ctx context.Context, product *Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return database.FromDatabase(err, "product")
	}
	return nil
}

func (r *GormRepository) FindInvoice(ctx context.Context, id int64) (*Invoice, error) {
	var invoice Invoice
	if err := r.db.WithContext(ctx).Take(&invoice, id).Error; err != nil {
		return nil, notFoundOr(err, "invoice", id)
	}
	return &invoice, nil
}

// LoadItems attaches the invoice items, each with its product.
func (r *GormRepository) LoadItems(ctx context.Context, invoice *Invoice) error {
	items := make([]InvoiceItem, 0)
	if err := r.db.WithContext(ctx).Where("invoice_id = ?", invoice.ID).Order("id").Find(&items).Error; err != nil {
		return database.FromDatabase(err, "invoice item")
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := r.FindProducts(ctx, ids)
	if err != nil {
		return err
	}
	for i := range items {
		items[i].Product = products[items[i].ProductID]
	}
	invoice.Items = items
	return nil
}

// CreateInvoice inserts the invoice and all its items in one transaction.
func (r *GormRepository) CreateInvoice(ctx context.Context, invoice *Invoice) error {
	err := r.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(invoice).Error; err != nil {
			return err
		}
		for i := range invoice.Items {
			invoice.Items[i].InvoiceID = invoice.ID
			if err := tx.Create(&invoice.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return database.FromDatabase(err, "invoice")
	}
	return nil
}

func notFoundOr(err error, resource string, id int64) error {
	if database.IsNotFoundError(err) {
		return errors.NotFound(resource, strconv.FormatInt(id, 10))
	}
	return database.FromDatabase(err, resource)
}

