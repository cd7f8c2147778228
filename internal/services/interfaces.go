package services

import (
	"context"
	"errors"

	domain "github.com/my-store/api/internal/domain"
	"github.com/my-store/api/internal/repositories"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Product           = domain.Product
	Condition         = domain.Condition
	Cart              = domain.Cart
	CartLine          = domain.CartLine
	Totals            = domain.Totals
	CheckoutStep      = domain.CheckoutStep
	CheckoutState     = domain.CheckoutState
	ShippingAddress   = domain.ShippingAddress
	PaymentCard       = domain.PaymentCard
	UserProfile       = domain.UserProfile
	Session           = domain.Session
	OrderConfirmation = domain.OrderConfirmation
)

// CatalogService serves product listings and single-product lookups.
type CatalogService interface {
	ListProducts(ctx context.Context, filter ProductListFilter) (ProductPage, error)
	GetProduct(ctx context.Context, productID string) (Product, error)
}

// CartService manages session-scoped cart state and derived totals.
type CartService interface {
	GetCart(ctx context.Context, sessionID string) (CartView, error)
	AddItem(ctx context.Context, cmd AddCartItemCommand) (CartView, error)
	UpdateQuantity(ctx context.Context, cmd UpdateCartQuantityCommand) (CartView, error)
	RemoveItem(ctx context.Context, cmd RemoveCartItemCommand) (CartView, error)
	ClearCart(ctx context.Context, sessionID string) error
}

// CheckoutService drives the staged checkout flow from shipping details to order placement.
type CheckoutService interface {
	GetCheckout(ctx context.Context, sessionID string) (CheckoutView, error)
	SubmitShipping(ctx context.Context, cmd SubmitShippingCommand) (CheckoutView, error)
	SubmitPayment(ctx context.Context, cmd SubmitPaymentCommand) (CheckoutView, error)
	PlaceOrder(ctx context.Context, sessionID string) (OrderConfirmation, error)
	Back(ctx context.Context, sessionID string) (CheckoutView, error)
}

// IdentityService owns sessions, sign-in state, and liked products.
type IdentityService interface {
	CreateGuestSession(ctx context.Context) (Session, error)
	CurrentUser(ctx context.Context, sessionID string) (Session, error)
	Login(ctx context.Context, cmd LoginCommand) (Session, error)
	Register(ctx context.Context, cmd RegisterCommand) (Session, error)
	Logout(ctx context.Context, sessionID string) (Session, error)
	ToggleLikedProduct(ctx context.Context, cmd ToggleLikedProductCommand) (Session, error)
	ListLikedProducts(ctx context.Context, sessionID string) ([]Product, error)
}

// ProductListFilter narrows and pages the catalog listing.
type ProductListFilter struct {
	Category string
	Query    string
	Offset   int
	PageSize int
}

// ProductPage is one page of catalog results. NextOffset is -1 when the listing is exhausted.
type ProductPage struct {
	Products   []Product
	TotalCount int
	NextOffset int
}

// CartView pairs the cart with its derived totals.
type CartView struct {
	Cart      Cart
	Totals    Totals
	ItemCount int
}

// CheckoutView exposes the checkout state together with the cart snapshot it prices.
type CheckoutView struct {
	State     CheckoutState
	Lines     []CartLine
	Totals    Totals
	ItemCount int
}

// AddCartItemCommand describes an add-to-cart request. Quantity defaults to one.
type AddCartItemCommand struct {
	SessionID string
	ProductID string
	Quantity  int
}

// UpdateCartQuantityCommand sets an absolute quantity for a cart line.
type UpdateCartQuantityCommand struct {
	SessionID string
	ProductID string
	Quantity  int
}

// RemoveCartItemCommand removes a cart line.
type RemoveCartItemCommand struct {
	SessionID string
	ProductID string
}

// SubmitShippingCommand carries the shipping form.
type SubmitShippingCommand struct {
	SessionID string
	Address   ShippingAddress
}

// SubmitPaymentCommand carries the payment form.
type SubmitPaymentCommand struct {
	SessionID string
	Card      PaymentCard
}

// LoginCommand carries the sign-in form.
type LoginCommand struct {
	SessionID string
	Email     string
	Password  string
}

// RegisterCommand carries the registration form. Seller accounts additionally
// provide business details.
type RegisterCommand struct {
	SessionID       string
	Name            string
	Email           string
	Password        string
	IsSeller        bool
	BusinessName    string
	BusinessAddress string
}

// ToggleLikedProductCommand flips the liked state of a product for the session user.
type ToggleLikedProductCommand struct {
	SessionID string
	ProductID string
}

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}
