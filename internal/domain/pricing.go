package domain

// TaxRateBasisPoints is the flat sales tax rate applied at checkout (8%).
const TaxRateBasisPoints = 800

// Totals captures the aggregated monetary results of pricing a line set.
// Amounts are minor currency units (cents).
type Totals struct {
	Subtotal int64
	Shipping int64
	Tax      int64
	Total    int64
}

// Subtotal sums unit price times quantity across all lines.
func Subtotal(lines []CartLine) int64 {
	var subtotal int64
	for _, line := range lines {
		if line.Quantity <= 0 || line.Product.Price <= 0 {
			continue
		}
		subtotal += line.Product.Price * int64(line.Quantity)
	}
	return subtotal
}

// ShippingTotal sums the shipping charge once per distinct line. The charge is
// deliberately not multiplied by quantity; that is the documented behaviour of
// the storefront this service backs.
func ShippingTotal(lines []CartLine) int64 {
	var shipping int64
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		shipping += line.Product.Shipping
	}
	return shipping
}

// Tax applies the flat rate to a subtotal, rounding half up to the nearest cent.
func Tax(subtotal int64) int64 {
	if subtotal <= 0 {
		return 0
	}
	return (subtotal*TaxRateBasisPoints + 5000) / 10000
}

// ItemCount sums the quantities across all lines.
func ItemCount(lines []CartLine) int {
	count := 0
	for _, line := range lines {
		if line.Quantity > 0 {
			count += line.Quantity
		}
	}
	return count
}

// CartTotals prices the line set for the cart preview. Tax is intentionally
// omitted here; it only appears once the buyer enters checkout.
func CartTotals(lines []CartLine) Totals {
	subtotal := Subtotal(lines)
	shipping := ShippingTotal(lines)
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal + shipping,
	}
}

// CheckoutTotals prices the line set for the checkout summary, including tax.
func CheckoutTotals(lines []CartLine) Totals {
	subtotal := Subtotal(lines)
	shipping := ShippingTotal(lines)
	tax := Tax(subtotal)
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal + shipping + tax,
	}
}
