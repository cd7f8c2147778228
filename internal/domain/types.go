package domain

import (
	"strings"
	"time"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// CursorPage wraps a page of results together with the token for the next page.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// Condition enumerates the supported listing conditions.
type Condition string

const (
	// ConditionNew marks a factory-new listing.
	ConditionNew Condition = "New"
	// ConditionUsed marks a pre-owned listing.
	ConditionUsed Condition = "Used"
	// ConditionRefurbished marks a listing restored to working order.
	ConditionRefurbished Condition = "Refurbished"
)

// Product describes a single marketplace listing. All monetary amounts are
// expressed in minor currency units (cents).
type Product struct {
	ID            string
	Title         string
	Description   string
	Price         int64
	CurrentBid    *int64
	BuyItNowPrice *int64
	Shipping      int64
	ImageURL      string
	Category      string
	Seller        string
	Condition     Condition

	// Auction display fields; ignored unless IsAuction is set.
	IsAuction bool
	TimeLeft  string
	Bids      int
	Watchers  int
}

// CartLine pairs a product snapshot with the quantity in the cart.
type CartLine struct {
	Product  Product
	Quantity int
}

// Cart holds the ordered line set for one session. A product appears in at
// most one line.
type Cart struct {
	SessionID string
	Lines     []CartLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LineIndex returns the position of the line holding productID, or -1.
func (c Cart) LineIndex(productID string) int {
	target := strings.TrimSpace(productID)
	if target == "" {
		return -1
	}
	for i, line := range c.Lines {
		if strings.EqualFold(strings.TrimSpace(line.Product.ID), target) {
			return i
		}
	}
	return -1
}

// CheckoutStep identifies the stage of the linear checkout flow.
type CheckoutStep string

const (
	// StepShipping collects the delivery address.
	StepShipping CheckoutStep = "shipping"
	// StepPayment collects card details.
	StepPayment CheckoutStep = "payment"
	// StepReview shows the order for final confirmation.
	StepReview CheckoutStep = "review"
	// StepConfirmed indicates the order has been placed.
	StepConfirmed CheckoutStep = "confirmed"
)

// ShippingAddress captures the delivery form fields. Values are free text;
// only presence is validated.
type ShippingAddress struct {
	FullName string
	Address  string
	City     string
	State    string
	ZipCode  string
	Country  string
}

// Complete reports whether every address field is non-empty.
func (a ShippingAddress) Complete() bool {
	for _, v := range []string{a.FullName, a.Address, a.City, a.State, a.ZipCode, a.Country} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// PaymentCard captures the payment form fields. The card is never charged or
// verified beyond presence checks.
type PaymentCard struct {
	CardholderName string
	CardNumber     string
	ExpiryDate     string
	CVV            string
}

// Complete reports whether every card field is non-empty.
func (c PaymentCard) Complete() bool {
	for _, v := range []string{c.CardholderName, c.CardNumber, c.ExpiryDate, c.CVV} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// CheckoutState tracks the per-session checkout position and collected forms.
type CheckoutState struct {
	SessionID       string
	Step            CheckoutStep
	ShippingAddress *ShippingAddress
	PaymentCard     *PaymentCard
	UpdatedAt       time.Time
}

// UserProfile describes a logged-in marketplace member.
type UserProfile struct {
	ID       string
	Name     string
	Email    string
	Rating   float64
	Reviews  int
	IsSeller bool
	JoinDate time.Time
	Location string
}

// Session is the per-visitor state record. User is nil for guests. Liked
// product IDs form a set; order is not significant.
type Session struct {
	ID              string
	User            *UserProfile
	LikedProductIDs []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Liked reports whether the product ID is in the session's liked set.
func (s Session) Liked(productID string) bool {
	target := strings.TrimSpace(productID)
	for _, id := range s.LikedProductIDs {
		if id == target {
			return true
		}
	}
	return false
}

// OrderConfirmation is the receipt returned when an order is placed. It is
// handed to the caller and never persisted.
type OrderConfirmation struct {
	OrderNumber     string
	PlacedAt        time.Time
	Lines           []CartLine
	Totals          Totals
	ShippingAddress ShippingAddress
}
