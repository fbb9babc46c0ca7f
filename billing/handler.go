package billing

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/invoicer/database/query"
	"github.com/kbukum/invoicer/errors"
	"github.com/kbukum/invoicer/server"
	"github.com/kbukum/invoicer/validation"
)

// Handler serves the billing API.
type Handler struct {
	svc    *Service
	photos *PhotoService
}

// NewHandler creates a Handler.
func NewHandler(svc *Service, photos *PhotoService) *Handler {
	return &Handler{svc: svc, photos: photos}
}

// RegisterRoutes mounts the billing endpoints on a protected group.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/clients", h.ListClients)
	api.POST("/clients", h.CreateClient)
	api.GET("/clients/:id", h.GetClient)
	api.POST("/clients/:id/photo", h.UploadPhoto)
	api.GET("/clients/:id/photo", h.GetPhoto)

	api.GET("/regions", h.ListRegions)

	api.GET("/products", h.ListProducts)
	api.POST("/products", h.CreateProduct)

	api.GET("/invoices/:id", h.GetInvoice)
	api.POST("/invoices", h.CreateInvoice)
}

// itemView is an invoice line with its computed amount.
type itemView struct {
	ID        int64    `json:"id"`
	ProductID int64    `json:"productId"`
	Product   *Product `json:"product,omitempty"`
	Quantity  int      `json:"quantity"`
	Amount    float64  `json:"amount"`
}

// invoiceView is an invoice with its items and total.
type invoiceView struct {
	ID          int64      `json:"id"`
	Description string     `json:"description"`
	Observation string     `json:"observation"`
	ClientID    int64      `json:"clientId"`
	CreatedAt   time.Time  `json:"createdAt"`
	Items       []itemView `json:"items"`
	Total       float64    `json:"total"`
}

func newInvoiceView(inv *Invoice) invoiceView {
	items := make([]itemView, 0, len(inv.Items))
	for i := range inv.Items {
		it := &inv.Items[i]
		items = append(items, itemView{
			ID:        it.ID,
			ProductID: it.ProductID,
			Product:   it.Product,
			Quantity:  it.Quantity,
			Amount:    it.Amount(),
		})
	}
	return invoiceView{
		ID:          inv.ID,
		Description: inv.Description,
		Observation: inv.Observation,
		ClientID:    inv.ClientID,
		CreatedAt:   inv.CreatedAt,
		Items:       items,
		Total:       inv.Total(),
	}
}

// ListClients handles GET /api/clients.
func (h *Handler) ListClients(c *gin.Context) {
	params := query.ParseFromRequest(c.Request, ClientQuery)
	res, err := h.svc.ListClients(c.Request.Context(), params)
	if err != nil {
		server.Fail(c, err)
		return
	}
	server.Page(c, res)
}

// GetClient handles GET /api/clients/:id.
func (h *Handler) GetClient(c *gin.Context) {
	id, err := validation.ParseID("id", c.Param("id"))
	if err != nil {
		server.Fail(c, err)
		return
	}
	client, err := h.svc.GetClient(c.Request.Context(), id)
	if err != nil {
		server.Fail(c, err)
		return
	}
	server.OK(c, client)
}

// CreateClient handles POST /api/clients.
func (h *Handler) CreateClient(c *gin.Context) {
	var in NewClient
	if err := validation.BindJSON(c, &in); err != nil {
		server.Fail(c, err)
		return
	}
	client, err := h.svc.CreateClient(c.Request.Context(), in)
	if err != nil {
		server.Fail(c, err)
		return
	}
	server.Created(c, client)
}

// UploadPhoto handles POST /api/clients/:id/photo with a multipart "file" field.
func (h *Handler) UploadPhoto(c *gin.Context) {
	id, err := validation.ParseID("id", c.Param("id"))
	if err != nil {
		server.Fail(c, err)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		server.Fail(c, errors.MissingField("file"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		server.Fail(c, errors.InvalidInput("file", "file could not be read").WithCause(err))
		return
	}
	defer f.Close() //nolint:errcheck // read-only multipart file

	client, err := h.photos.Upload(c.Request.Context(), id, fh.Size, f)
	if err != nil {
		server.Fail(c, err)
		return
	}
	server.OK(c, client)
}

// GetPhoto handles GET /api/clients/:id/photo and streams the stored object.
func (h *Handler) GetPhoto(c *gin.Context) {
	id, err := validation.ParseID("id", c.Param("id"))
	if err != nil {
		server.Fail(c, err)
		return
	}
	rc, contentType, err := h.photos.Open(c.Request.Context(), id)
	if err != nil {
		server.Fail(c, err)
		return
	}
	defer rc.Close() //nolint:errcheck // read-only object stream

	c.DataFromReader(http.StatusOK, -1, contentType, rc, map[string]string{
		"X-Content-Type-Options": "nosniff",
		"Content-Disposition":    "inline",
	})
}

// ListRegions handles GET /api/regions.
func (h *Handler) ListRegions(c *gin.Context) {
	regions, err := h.svc.ListRegions(c.Request.Context())
	if err != nil {
		server.Fail(c, err)
		return
	}
	server.OK(c, regions)
}

// ListProducts handles GET /api/products. With ?q= it returns every product
// whose name contains the term; otherwise one page of the catalogue.
func (h *Handler) ListProducts(c *gin.Context) {
	if term, ok := c.GetQuery("q"); ok {
		products, err := h.svc.SearchProducts(c.Request.Context(), term)
		if err != nil {
			server.Fail(c, err)
			return
		}
		server.OK(c, products)
		return
	}

	params := query.ParseFromRequest(c.Request, ProductQuery)
	res, err := h.svc.ListProducts(c.Request.Context(), params)
	if err != nil {
		server.Fail(c, err)
		return
	}
	server.Page(c, res)
}

// CreateProduct handles POST /api/products.
func (h *Handler) CreateProduct(c *gin.Context) {
	var in NewProduct
	if err := validation.BindJSON(c, &in); err != nil {
		server.Fail(c, err)
		return
	}
	product, err := h.svc.CreateProduct(c.Request.Context(), in)
	if err != nil {
		server.Fail(c, err)
		return
	}
	server.Created(c, product)
}

// GetInvoice handles GET /api/invoices/:id.
func (h *Handler) GetInvoice(c *gin.Context) {
	id, err := validation.ParseID("id", c.Param("id"))
	if err != nil {
		server.Fail(c, err)
		return
	}
	invoice, err := h.svc.GetInvoice(c.Request.Context(), id)
	if err != nil {
		server.Fail(c, err)
		return
	}
	server.OK(c, newInvoiceView(invoice))
}

// CreateInvoice handles POST /api/invoices.
func (h *Handler) CreateInvoice(c *gin.Context) {
	var in NewInvoice
	if err := validation.BindJSON(c, &in); err != nil {
		server.Fail(c, err)
		return
	}
	invoice, err := h.svc.CreateInvoice(c.Request.Context(), in)
	if err != nil {
		server.Fail(c, err)
		return
	}
	server.Created(c, newInvoiceView(invoice))
}
