// Package calculator implements the in-memory order calculator: line item
// bookkeeping plus the discount, shipping and tax pipeline that produces an
// order total.
//
// An OrderCalculator is not safe for concurrent use. Callers that share one
// across goroutines must serialize access themselves.
package calculator

import (
	"fmt"
	"math"
	"strings"
)

const (
	DefaultTaxRate               = 0.23
	DefaultFreeShippingThreshold = 100.0
	DefaultShippingCost          = 10.0

	// DefaultPriceTolerance is the relative tolerance used when deciding
	// whether a re-added item carries the same price as the stored one.
	// Zero means any difference is a conflict.
	DefaultPriceTolerance = 0.0
)

// LineItem is a single named entry in an order.
type LineItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Total returns price times quantity for the line.
func (li LineItem) Total() float64 {
	return li.Price * float64(li.Quantity)
}

// Breakdown holds every intermediate value of a total calculation.
type Breakdown struct {
	Subtotal    float64 `json:"subtotal"`
	Discount    float64 `json:"discount"`
	Discounted  float64 `json:"discounted_subtotal"`
	Shipping    float64 `json:"shipping"`
	TaxableBase float64 `json:"taxable_base"`
	Tax         float64 `json:"tax"`
	Total       float64 `json:"total"`
}

// Option configures an OrderCalculator.
type Option func(*OrderCalculator)

// WithPriceTolerance sets the relative tolerance for price comparisons.
// A tolerance of 0 requires exact equality.
func WithPriceTolerance(tol float64) Option {
	return func(c *OrderCalculator) {
		c.priceTolerance = tol
	}
}

// OrderCalculator accumulates line items and prices them.
type OrderCalculator struct {
	taxRate               float64
	freeShippingThreshold float64
	shippingCost          float64
	priceTolerance        float64

	items []LineItem
	index map[string]int
}

// New creates a calculator with the given pricing parameters.
func New(taxRate, freeShippingThreshold, shippingCost float64, opts ...Option) (*OrderCalculator, error) {
	if err := checkFraction("tax_rate", taxRate); err != nil {
		return nil, err
	}
	if err := checkNonNegative("free_shipping_threshold", freeShippingThreshold); err != nil {
		return nil, err
	}
	if err := checkNonNegative("shipping_cost", shippingCost); err != nil {
		return nil, err
	}

	c := &OrderCalculator{
		taxRate:               taxRate,
		freeShippingThreshold: freeShippingThreshold,
		shippingCost:          shippingCost,
		priceTolerance:        DefaultPriceTolerance,
		index:                 make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := checkNonNegative("price_tolerance", c.priceTolerance); err != nil {
		return nil, err
	}
	return c, nil
}

// NewDefault creates a calculator with the default 23% tax rate, a free
// shipping threshold of 100 and a shipping cost of 10.
func NewDefault() *OrderCalculator {
	c, err := New(DefaultTaxRate, DefaultFreeShippingThreshold, DefaultShippingCost)
	if err != nil {
		panic(err)
	}
	return c
}

// TaxRate returns the tax rate as a fraction.
func (c *OrderCalculator) TaxRate() float64 { return c.taxRate }

// FreeShippingThreshold returns the discounted subtotal at which shipping
// becomes free.
func (c *OrderCalculator) FreeShippingThreshold() float64 { return c.freeShippingThreshold }

// ShippingCost returns the flat shipping charge below the threshold.
func (c *OrderCalculator) ShippingCost() float64 { return c.shippingCost }

// AddItem adds quantity units of name at price. Re-adding a known name with
// the same price accumulates its quantity; a different price is a conflict.
// On error the order is unchanged.
func (c *OrderCalculator) AddItem(name string, price float64, quantity int) error {
	if strings.TrimSpace(name) == "" {
		return newRangeError("name", "name must not be empty")
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return newRangeError("price", "price must be a positive number, got %v", price)
	}
	if quantity <= 0 {
		return newRangeError("quantity", "quantity must be positive, got %d", quantity)
	}
	// Line quantities never exceed the order total, so this bounds both.
	if quantity > math.MaxInt-c.TotalItems() {
		return newRangeError("quantity", "quantity %d would overflow the order item count", quantity)
	}

	if i, ok := c.index[name]; ok {
		stored := c.items[i].Price
		if !c.samePrice(stored, price) {
			return &Error{
				Kind:    KindConflict,
				Field:   "price",
				Message: fmt.Sprintf("item %q already in order at price %v, got %v", name, stored, price),
			}
		}
		c.items[i].Quantity += quantity
		return nil
	}

	c.index[name] = len(c.items)
	c.items = append(c.items, LineItem{Name: name, Price: price, Quantity: quantity})
	return nil
}

// AddOne adds a single unit of name at price.
func (c *OrderCalculator) AddOne(name string, price float64) error {
	return c.AddItem(name, price, 1)
}

// RemoveItem removes the line whose name matches exactly.
func (c *OrderCalculator) RemoveItem(name string) error {
	i, ok := c.index[name]
	if !ok {
		return &Error{Kind: KindNotFound, Field: "name", Message: fmt.Sprintf("item %q not in order", name)}
	}

	c.items = append(c.items[:i], c.items[i+1:]...)
	delete(c.index, name)
	for j := i; j < len(c.items); j++ {
		c.index[c.items[j].Name] = j
	}
	return nil
}

// Subtotal sums price times quantity over all items.
func (c *OrderCalculator) Subtotal() (float64, error) {
	if len(c.items) == 0 {
		return 0, ErrEmptyOrder
	}
	var subtotal float64
	for _, item := range c.items {
		subtotal += item.Total()
	}
	return subtotal, nil
}

// ApplyDiscount returns subtotal reduced by the discount fraction. It does
// not depend on the order contents.
func (c *OrderCalculator) ApplyDiscount(subtotal, discount float64) (float64, error) {
	return ApplyDiscount(subtotal, discount)
}

// ApplyDiscount returns subtotal * (1 - discount).
func ApplyDiscount(subtotal, discount float64) (float64, error) {
	if err := checkNonNegative("subtotal", subtotal); err != nil {
		return 0, err
	}
	if err := checkFraction("discount", discount); err != nil {
		return 0, err
	}
	return subtotal * (1 - discount), nil
}

// Shipping returns 0 when the discounted subtotal reaches the free shipping
// threshold, otherwise the configured shipping cost.
func (c *OrderCalculator) Shipping(discountedSubtotal float64) (float64, error) {
	if math.IsNaN(discountedSubtotal) {
		return 0, newRangeError("amount", "amount must be a number")
	}
	if discountedSubtotal >= c.freeShippingThreshold {
		return 0, nil
	}
	return c.shippingCost, nil
}

// Tax returns amount times the tax rate.
func (c *OrderCalculator) Tax(amount float64) (float64, error) {
	if err := checkNonNegative("amount", amount); err != nil {
		return 0, err
	}
	return amount * c.taxRate, nil
}

// Quote runs the pricing pipeline for the current order:
// subtotal, discount, shipping on the discounted amount, then tax on
// discounted plus shipping.
func (c *OrderCalculator) Quote(discount float64) (Breakdown, error) {
	if err := checkFraction("discount", discount); err != nil {
		return Breakdown{}, err
	}

	subtotal, err := c.Subtotal()
	if err != nil {
		return Breakdown{}, err
	}
	discounted, err := ApplyDiscount(subtotal, discount)
	if err != nil {
		return Breakdown{}, err
	}
	shipping, err := c.Shipping(discounted)
	if err != nil {
		return Breakdown{}, err
	}
	base := discounted + shipping
	tax, err := c.Tax(base)
	if err != nil {
		return Breakdown{}, err
	}

	return Breakdown{
		Subtotal:    subtotal,
		Discount:    discount,
		Discounted:  discounted,
		Shipping:    shipping,
		TaxableBase: base,
		Tax:         tax,
		Total:       discounted + shipping + tax,
	}, nil
}

// Total returns the final order total for the given discount.
func (c *OrderCalculator) Total(discount float64) (float64, error) {
	b, err := c.Quote(discount)
	if err != nil {
		return 0, err
	}
	return b.Total, nil
}

// TotalItems returns the number of units across all lines.
func (c *OrderCalculator) TotalItems() int {
	n := 0
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}

// Clear removes every item.
func (c *OrderCalculator) Clear() {
	c.items = nil
	c.index = make(map[string]int)
}

// ListItems returns item names in insertion order.
func (c *OrderCalculator) ListItems() []string {
	names := make([]string, len(c.items))
	for i, item := range c.items {
		names[i] = item.Name
	}
	return names
}

// Items returns a copy of the line items in insertion order.
func (c *OrderCalculator) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// IsEmpty reports whether the order has no lines.
func (c *OrderCalculator) IsEmpty() bool {
	return len(c.items) == 0
}

func (c *OrderCalculator) samePrice(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= c.priceTolerance*math.Max(math.Abs(a), math.Abs(b))
}

func checkFraction(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return newRangeError(field, "%s must be between 0 and 1, got %v", field, v)
	}
	return nil
}

func checkNonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return newRangeError(field, "%s must be a non-negative number, got %v", field, v)
	}
	return nil
}
