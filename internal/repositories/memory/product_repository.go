package memory

import (
	"context"
	"strings"
	"sync"

	domain "github.com/my-store/api/internal/domain"
	"github.com/my-store/api/internal/repositories"
)

// ProductRepository serves the seeded catalog from process memory. The catalog
// is immutable after construction; reads return copies.
type ProductRepository struct {
	mu      sync.RWMutex
	ordered []domain.Product
	byID    map[string]domain.Product
}

// NewProductRepository builds a repository over the supplied catalog, keeping
// the original listing order. Entries with blank IDs are dropped; a later
// duplicate ID replaces the earlier entry.
func NewProductRepository(products []domain.Product) *ProductRepository {
	repo := &ProductRepository{
		ordered: make([]domain.Product, 0, len(products)),
		byID:    make(map[string]domain.Product, len(products)),
	}
	for _, product := range products {
		id := strings.TrimSpace(product.ID)
		if id == "" {
			continue
		}
		product.ID = id
		if _, exists := repo.byID[id]; exists {
			for i := range repo.ordered {
				if repo.ordered[i].ID == id {
					repo.ordered[i] = product
					break
				}
			}
		} else {
			repo.ordered = append(repo.ordered, product)
		}
		repo.byID[id] = product
	}
	return repo
}

// List returns every product in listing order.
func (r *ProductRepository) List(_ context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Product, len(r.ordered))
	copy(out, r.ordered)
	return out, nil
}

// FindByID returns the product or a not-found repository error.
func (r *ProductRepository) FindByID(_ context.Context, productID string) (domain.Product, error) {
	id := strings.TrimSpace(productID)

	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.byID[id]
	if !ok {
		return domain.Product{}, repositories.NewNotFound("product", id)
	}
	return product, nil
}
