package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	domain "github.com/my-store/api/internal/domain"
	"github.com/my-store/api/internal/repositories"
)

const (
	defaultCatalogPageSize = 20
	maxCatalogPageSize     = 100
	maxSearchQueryLength   = 120
)

var (
	// ErrCatalogInvalidInput indicates the caller supplied an invalid listing filter.
	ErrCatalogInvalidInput = errors.New("catalog service: invalid input")
	// ErrCatalogNotFound indicates the requested product does not exist.
	ErrCatalogNotFound = errors.New("catalog service: not found")
	// ErrCatalogUnavailable indicates the catalog backend cannot serve the request.
	ErrCatalogUnavailable = errors.New("catalog service: unavailable")
)

// CatalogServiceDeps bundles constructor inputs for the catalog service.
type CatalogServiceDeps struct {
	Products        repositories.ProductRepository
	DefaultPageSize int
	MaxPageSize     int
	Logger          func(context.Context, string, map[string]any)
}

type catalogService struct {
	products        repositories.ProductRepository
	defaultPageSize int
	maxPageSize     int
	sanitizer       *bluemonday.Policy
	logger          func(context.Context, string, map[string]any)
}

// NewCatalogService constructs the catalog service with the supplied dependencies.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, fmt.Errorf("catalog service: product repository is required")
	}

	defaultPageSize := deps.DefaultPageSize
	if defaultPageSize <= 0 {
		defaultPageSize = defaultCatalogPageSize
	}
	maxPageSize := deps.MaxPageSize
	if maxPageSize <= 0 {
		maxPageSize = maxCatalogPageSize
	}
	if defaultPageSize > maxPageSize {
		defaultPageSize = maxPageSize
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	service := &catalogService{
		products:        deps.Products,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		sanitizer:       bluemonday.StrictPolicy(),
		logger:          logger,
	}
	return service, nil
}

// ListProducts returns one page of the catalog, optionally narrowed by category
// and a case-insensitive title/description search.
func (s *catalogService) ListProducts(ctx context.Context, filter ProductListFilter) (ProductPage, error) {
	if s == nil || s.products == nil {
		return ProductPage{}, ErrCatalogUnavailable
	}

	if filter.Offset < 0 {
		return ProductPage{}, fmt.Errorf("%w: offset must not be negative", ErrCatalogInvalidInput)
	}

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}

	query := strings.TrimSpace(filter.Query)
	if len(query) > maxSearchQueryLength {
		return ProductPage{}, fmt.Errorf("%w: search query must be %d characters or fewer", ErrCatalogInvalidInput, maxSearchQueryLength)
	}
	category := strings.TrimSpace(filter.Category)

	products, err := s.products.List(ctx)
	if err != nil {
		return ProductPage{}, s.translateRepoError(err)
	}

	matched := make([]domain.Product, 0, len(products))
	for _, product := range products {
		if category != "" && !strings.EqualFold(product.Category, category) {
			continue
		}
		if query != "" && !matchesQuery(product, query) {
			continue
		}
		matched = append(matched, s.sanitizeProduct(product))
	}

	total := len(matched)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	nextOffset := -1
	if end < total {
		nextOffset = end
	}

	return ProductPage{
		Products:   matched[start:end],
		TotalCount: total,
		NextOffset: nextOffset,
	}, nil
}

// GetProduct fetches a single catalog listing by ID.
func (s *catalogService) GetProduct(ctx context.Context, productID string) (Product, error) {
	if s == nil || s.products == nil {
		return Product{}, ErrCatalogUnavailable
	}

	id := strings.TrimSpace(productID)
	if id == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if isRepoNotFound(err) {
			return Product{}, fmt.Errorf("%w: product %q", ErrCatalogNotFound, id)
		}
		return Product{}, s.translateRepoError(err)
	}
	return s.sanitizeProduct(product), nil
}

func matchesQuery(product domain.Product, query string) bool {
	needle := strings.ToLower(query)
	return strings.Contains(strings.ToLower(product.Title), needle) ||
		strings.Contains(strings.ToLower(product.Description), needle)
}

func (s *catalogService) sanitizeProduct(product domain.Product) domain.Product {
	product.Title = s.sanitizer.Sanitize(product.Title)
	product.Description = s.sanitizer.Sanitize(product.Description)
	product.Seller = s.sanitizer.Sanitize(product.Seller)
	return product
}

func (s *catalogService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return ErrCatalogNotFound
		case repoErr.IsUnavailable():
			return ErrCatalogUnavailable
		}
	}
	return ErrCatalogUnavailable
}
