package billing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/invoicer/database/query"
	"github.com/kbukum/invoicer/errors"
	"github.com/kbukum/invoicer/logger"
	"github.com/kbukum/invoicer/observability"
	"github.com/kbukum/invoicer/validation"
)

// Service implements the billing use cases on top of a Repository.
type Service struct {
	repo Repository
	log  *logger.Logger
	now  func() time.Time
}

// NewService creates a billing Service.
func NewService(repo Repository, log *logger.Logger) *Service {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Service{
		repo: repo,
		log:  log.WithComponent("billing"),
		now:  time.Now,
	}
}

// ListClients returns one page of clients.
func (s *Service) ListClients(ctx context.Context, params query.Params) (*query.Result[Client], error) {
	return s.repo.ListClients(ctx, params)
}

// GetClient returns the client with its region and invoice summaries.
func (s *Service) GetClient(ctx context.Context, id int64) (*Client, error) {
	client, err := s.repo.FindClient(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.LoadRegion(ctx, client); err != nil {
		return nil, err
	}
	if err := s.repo.LoadInvoices(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

// CreateClient validates and stores a new client. The email is normalized
// and must be unique; the region must exist.
func (s *Service) CreateClient(ctx context.Context, in NewClient) (*Client, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Validate(in); err != nil {
		return nil, err
	}

	client := &Client{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		RegionID:  in.RegionID,
		CreatedAt: s.now(),
	}
	if err := s.repo.LoadRegion(ctx, client); err != nil {
		if errors.HasCode(err, errors.ErrCodeNotFound) {
			return nil, errors.InvalidInput("regionId", fmt.Sprintf("region %d does not exist", in.RegionID))
		}
		return nil, err
	}
	if err := s.repo.CreateClient(ctx, client); err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("Client created", logger.Fields("client_id", client.ID, "region_id", client.RegionID))
	return client, nil
}

// ListRegions returns every region.
func (s *Service) ListRegions(ctx context.Context) ([]Region, error) {
	return s.repo.ListRegions(ctx)
}

// ListProducts returns one page of products.
func (s *Service) ListProducts(ctx context.Context, params query.Params) (*query.Result[Product], error) {
	return s.repo.ListProducts(ctx, params)
}

// SearchProducts returns the products whose name contains term.
func (s *Service) SearchProducts(ctx context.Context, term string) ([]Product, error) {
	return s.repo.SearchProducts(ctx, strings.TrimSpace(term))
}

// CreateProduct validates and stores a new product.
func (s *Service) CreateProduct(ctx context.Context, in NewProduct) (*Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Validate(in); err != nil {
		return nil, err
	}

	product := &Product{Name: in.Name, Price: in.Price, CreatedAt: s.now()}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// GetInvoice returns the invoice with its items and their products.
func (s *Service) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	invoice, err := s.repo.FindInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.LoadItems(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// CreateInvoice validates the input against existing clients and products
// and stores the invoice with all its items atomically.
func (s *Service) CreateInvoice(ctx context.Context, in NewInvoice) (_ *Invoice, err error) {
	ctx, span := observability.StartSpan(ctx, "billing.create_invoice")
	defer func() {
		observability.SetSpanError(span, err)
		span.End()
	}()

	in.Description = strings.TrimSpace(in.Description)
	if err := validation.Validate(in); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindClient(ctx, in.ClientID); err != nil {
		if errors.HasCode(err, errors.ErrCodeNotFound) {
			return nil, errors.InvalidInput("clientId", fmt.Sprintf("client %d does not exist", in.ClientID))
		}
		return nil, err
	}

	ids := make([]int64, 0, len(in.Items))
	for _, it := range in.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.repo.FindProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	invoice := &Invoice{
		Description: in.Description,
		Observation: in.Observation,
		ClientID:    in.ClientID,
		CreatedAt:   s.now(),
		Items:       make([]InvoiceItem, 0, len(in.Items)),
	}
	for i, it := range in.Items {
		product, ok := products[it.ProductID]
		if !ok {
			return nil, errors.InvalidInput("items["+strconv.Itoa(i)+"].productId",
				fmt.Sprintf("product %d does not exist", it.ProductID))
		}
		invoice.Items = append(invoice.Items, InvoiceItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Product:   product,
		})
	}

	if err := s.repo.CreateInvoice(ctx, invoice); err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("Invoice created", logger.Fields(
		"invoice_id", invoice.ID,
		"client_id", invoice.ClientID,
		"items", len(invoice.Items),
	))
	return invoice, nil
}
