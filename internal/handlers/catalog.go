package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	domain "github.com/my-store/api/internal/domain"
	"github.com/my-store/api/internal/platform/httpx"
	"github.com/my-store/api/internal/platform/pagination"
	"github.com/my-store/api/internal/services"
)

// CatalogHandlers exposes the public product listing and detail endpoints.
type CatalogHandlers struct {
	catalog services.CatalogService
	paging  pagination.Options
}

// NewCatalogHandlers constructs handlers backed by the catalog service.
func NewCatalogHandlers(catalog services.CatalogService, paging pagination.Options) *CatalogHandlers {
	return &CatalogHandlers{
		catalog: catalog,
		paging:  paging,
	}
}

// Routes wires the /catalog endpoints onto the provided router.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/products", h.listProducts)
	r.Get("/products/{productId}", h.getProduct)
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	params, err := pagination.FromRequest(r, h.paging)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	filter := services.ProductListFilter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Query:    strings.TrimSpace(r.URL.Query().Get("q")),
		Offset:   params.Offset,
		PageSize: params.PageSize,
	}

	page, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	nextToken := ""
	if page.NextOffset >= 0 {
		nextToken, err = pagination.EncodeToken(pagination.Cursor{Offset: page.NextOffset})
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to build page token", http.StatusInternalServerError))
			return
		}
	}

	payload := productListResponse{
		Products:      buildProductPayloads(page.Products),
		TotalCount:    page.TotalCount,
		NextPageToken: nextToken,
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productId"))
	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, productResponse{Product: buildProductPayload(product)})
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to serve catalog", http.StatusInternalServerError))
	}
}

type productListResponse struct {
	Products      []productPayload `json:"products"`
	TotalCount    int              `json:"total_count"`
	NextPageToken string           `json:"next_page_token,omitempty"`
}

type productResponse struct {
	Product productPayload `json:"product"`
}

type productPayload struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	Price           int64  `json:"price"`
	DisplayPrice    string `json:"display_price"`
	CurrentBid      *int64 `json:"current_bid,omitempty"`
	BuyItNowPrice   *int64 `json:"buy_it_now_price,omitempty"`
	Shipping        int64  `json:"shipping"`
	DisplayShipping string `json:"display_shipping"`
	ImageURL        string `json:"image_url,omitempty"`
	Category        string `json:"category,omitempty"`
	Seller          string `json:"seller,omitempty"`
	Condition       string `json:"condition,omitempty"`
	IsAuction       bool   `json:"is_auction"`
	TimeLeft        string `json:"time_left,omitempty"`
	Bids            int    `json:"bids,omitempty"`
	Watchers        int    `json:"watchers,omitempty"`
}

func buildProductPayloads(products []domain.Product) []productPayload {
	payload := make([]productPayload, 0, len(products))
	for _, product := range products {
		payload = append(payload, buildProductPayload(product))
	}
	return payload
}

func buildProductPayload(product domain.Product) productPayload {
	return productPayload{
		ID:              strings.TrimSpace(product.ID),
		Title:           product.Title,
		Description:     product.Description,
		Price:           product.Price,
		DisplayPrice:    displayPrice(product.Price),
		CurrentBid:      cloneInt64Pointer(product.CurrentBid),
		BuyItNowPrice:   cloneInt64Pointer(product.BuyItNowPrice),
		Shipping:        product.Shipping,
		DisplayShipping: displayShipping(product.Shipping),
		ImageURL:        product.ImageURL,
		Category:        product.Category,
		Seller:          product.Seller,
		Condition:       string(product.Condition),
		IsAuction:       product.IsAuction,
		TimeLeft:        product.TimeLeft,
		Bids:            product.Bids,
		Watchers:        product.Watchers,
	}
}

var pricePrinter = message.NewPrinter(language.AmericanEnglish)

// displayPrice renders cents as a grouped dollar string, e.g. 123456 -> "$1,234.56".
func displayPrice(cents int64) string {
	return pricePrinter.Sprintf("$%.2f", float64(cents)/100)
}

func displayShipping(cents int64) string {
	if cents == 0 {
		return "Free shipping"
	}
	return pricePrinter.Sprintf("$%.2f shipping", float64(cents)/100)
}

func cloneInt64Pointer(value *int64) *int64 {
	if value == nil {
		return nil
	}
	copy := *value
	return &copy
}
