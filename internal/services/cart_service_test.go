package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/my-store/api/internal/domain"
	"github.com/my-store/api/internal/repositories"
	"github.com/my-store/api/internal/repositories/memory"
)

var testNow = time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

func testProducts() []domain.Product {
	return []domain.Product{
		{ID: "prod-001", Title: "Camera", Price: 1000, Shipping: 200, Category: "Electronics"},
		{ID: "prod-002", Title: "Headphones", Price: 2000, Shipping: 300, Category: "Electronics"},
		{ID: "prod-003", Title: "Mug Set", Price: 5600, Shipping: 950, Category: "Home & Garden"},
	}
}

func newTestCartService(t *testing.T) CartService {
	t.Helper()
	service, err := NewCartService(CartServiceDeps{
		Carts:    memory.NewCartRepository(),
		Products: memory.NewProductRepository(testProducts()),
		Clock:    testClock,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return service
}

func TestNewCartServiceValidatesDeps(t *testing.T) {
	if _, err := NewCartService(CartServiceDeps{Products: memory.NewProductRepository(nil), Clock: testClock}); err == nil {
		t.Fatal("expected error when cart repository missing")
	}
	if _, err := NewCartService(CartServiceDeps{Carts: memory.NewCartRepository(), Clock: testClock}); err == nil {
		t.Fatal("expected error when product repository missing")
	}
	if _, err := NewCartService(CartServiceDeps{Carts: memory.NewCartRepository(), Products: memory.NewProductRepository(nil)}); err == nil {
		t.Fatal("expected error when clock missing")
	}
}

func TestGetCartCreatesEmptyCart(t *testing.T) {
	service := newTestCartService(t)

	view, err := service.GetCart(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view.Cart.Lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(view.Cart.Lines))
	}
	if view.ItemCount != 0 || view.Totals.Total != 0 {
		t.Fatalf("expected zero totals, got %#v", view)
	}
	if !view.Cart.CreatedAt.Equal(testNow) {
		t.Fatalf("expected cart timestamped with clock, got %s", view.Cart.CreatedAt)
	}
}

func TestAddItemMergesExistingLine(t *testing.T) {
	service := newTestCartService(t)
	ctx := context.Background()

	if _, err := service.AddItem(ctx, AddCartItemCommand{SessionID: "sess-1", ProductID: "prod-001"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	view, err := service.AddItem(ctx, AddCartItemCommand{SessionID: "sess-1", ProductID: "prod-001"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(view.Cart.Lines) != 1 {
		t.Fatalf("expected a single merged line, got %d", len(view.Cart.Lines))
	}
	if view.Cart.Lines[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", view.Cart.Lines[0].Quantity)
	}
	if view.ItemCount != 2 {
		t.Fatalf("expected item count 2, got %d", view.ItemCount)
	}
}

func TestAddItemDefaultsQuantityToOne(t *testing.T) {
	service := newTestCartService(t)

	view, err := service.AddItem(context.Background(), AddCartItemCommand{SessionID: "sess-1", ProductID: "prod-002", Quantity: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Cart.Lines[0].Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", view.Cart.Lines[0].Quantity)
	}
}

func TestAddItemRejectsUnknownProduct(t *testing.T) {
	service := newTestCartService(t)

	_, err := service.AddItem(context.Background(), AddCartItemCommand{SessionID: "sess-1", ProductID: "prod-missing"})
	if !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
}

func TestAddItemRejectsNegativeQuantity(t *testing.T) {
	service := newTestCartService(t)

	_, err := service.AddItem(context.Background(), AddCartItemCommand{SessionID: "sess-1", ProductID: "prod-001", Quantity: -1})
	if !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("expected ErrCartInvalidInput, got %v", err)
	}
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	service := newTestCartService(t)
	ctx := context.Background()

	if _, err := service.AddItem(ctx, AddCartItemCommand{SessionID: "sess-1", ProductID: "prod-001", Quantity: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view, err := service.UpdateQuantity(ctx, UpdateCartQuantityCommand{SessionID: "sess-1", ProductID: "prod-001", Quantity: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view.Cart.Lines) != 0 {
		t.Fatalf("expected line removed, got %#v", view.Cart.Lines)
	}
}

func TestUpdateQuantityUnknownProductIsNoOp(t *testing.T) {
	service := newTestCartService(t)
	ctx := context.Background()

	if _, err := service.AddItem(ctx, AddCartItemCommand{SessionID: "sess-1", ProductID: "prod-001", Quantity: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view, err := service.UpdateQuantity(ctx, UpdateCartQuantityCommand{SessionID: "sess-1", ProductID: "prod-999", Quantity: 5})
	if err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
	if len(view.Cart.Lines) != 1 || view.Cart.Lines[0].Quantity != 2 {
		t.Fatalf("cart should be untouched, got %#v", view.Cart.Lines)
	}
}

func TestRemoveItemAbsentIsNoOp(t *testing.T) {
	service := newTestCartService(t)

	view, err := service.RemoveItem(context.Background(), RemoveCartItemCommand{SessionID: "sess-1", ProductID: "prod-001"})
	if err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
	if len(view.Cart.Lines) != 0 {
		t.Fatalf("expected empty cart, got %#v", view.Cart.Lines)
	}
}

func TestCartTotalsExcludeTax(t *testing.T) {
	service := newTestCartService(t)
	ctx := context.Background()

	if _, err := service.AddItem(ctx, AddCartItemCommand{SessionID: "sess-1", ProductID: "prod-001", Quantity: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	view, err := service.AddItem(ctx, AddCartItemCommand{SessionID: "sess-1", ProductID: "prod-002"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 2x1000 + 2000 = 4000, shipping 200 + 300 = 500, no tax in the cart view.
	if view.Totals.Subtotal != 4000 {
		t.Fatalf("expected subtotal 4000, got %d", view.Totals.Subtotal)
	}
	if view.Totals.Shipping != 500 {
		t.Fatalf("expected shipping 500, got %d", view.Totals.Shipping)
	}
	if view.Totals.Tax != 0 {
		t.Fatalf("expected no tax in cart view, got %d", view.Totals.Tax)
	}
	if view.Totals.Total != 4500 {
		t.Fatalf("expected total 4500, got %d", view.Totals.Total)
	}
}

func TestClearCartEmptiesSession(t *testing.T) {
	service := newTestCartService(t)
	ctx := context.Background()

	if _, err := service.AddItem(ctx, AddCartItemCommand{SessionID: "sess-1", ProductID: "prod-001"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := service.ClearCart(ctx, "sess-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view, err := service.GetCart(ctx, "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view.Cart.Lines) != 0 {
		t.Fatalf("expected cleared cart, got %#v", view.Cart.Lines)
	}
}

func TestCartsAreIsolatedPerSession(t *testing.T) {
	service := newTestCartService(t)
	ctx := context.Background()

	if _, err := service.AddItem(ctx, AddCartItemCommand{SessionID: "sess-a", ProductID: "prod-001"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	view, err := service.GetCart(ctx, "sess-b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view.Cart.Lines) != 0 {
		t.Fatalf("session carts leaked: %#v", view.Cart.Lines)
	}
}

type failingCartRepo struct{}

func (failingCartRepo) GetCart(context.Context, string) (domain.Cart, error) {
	return domain.Cart{}, repositories.NewUnavailable("cart backend down", errors.New("boom"))
}

func (failingCartRepo) UpsertCart(context.Context, domain.Cart) (domain.Cart, error) {
	return domain.Cart{}, repositories.NewUnavailable("cart backend down", errors.New("boom"))
}

func (failingCartRepo) DeleteCart(context.Context, string) error {
	return repositories.NewUnavailable("cart backend down", errors.New("boom"))
}

func TestCartServiceTranslatesRepositoryErrors(t *testing.T) {
	service, err := NewCartService(CartServiceDeps{
		Carts:    failingCartRepo{},
		Products: memory.NewProductRepository(testProducts()),
		Clock:    testClock,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := service.GetCart(context.Background(), "sess-1"); !errors.Is(err, ErrCartUnavailable) {
		t.Fatalf("expected ErrCartUnavailable, got %v", err)
	}
}
