package service

import "github.com/tm-acme-shop/acme-shop-cart-calculator/internal/calculator"

// DraftItem is a type-checked line waiting to be added to a calculator.
type DraftItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// DraftOrder is a standalone order priced outside the cart session.
type DraftOrder struct {
	Items    []DraftItem `json:"items"`
	Discount float64     `json:"discount"`
}

// Quote is the priced view of an order.
type Quote struct {
	SessionID  string                `json:"session_id,omitempty"`
	Items      []calculator.LineItem `json:"items"`
	TotalItems int                   `json:"total_items"`
	calculator.Breakdown
}

// CartSummary describes the cart without pricing it.
type CartSummary struct {
	SessionID  string   `json:"session_id"`
	Items      []string `json:"items"`
	TotalItems int      `json:"total_items"`
	IsEmpty    bool     `json:"is_empty"`
}

// PriceDraft adds every draft item to calc in order and prices the result.
// It stops at the first rejected item.
func PriceDraft(calc *calculator.OrderCalculator, draft *DraftOrder) (*Quote, error) {
	for i, item := range draft.Items {
		if err := calc.AddItem(item.Name, item.Price, item.Quantity); err != nil {
			return nil, withItemIndex(err, i)
		}
	}

	breakdown, err := calc.Quote(draft.Discount)
	if err != nil {
		return nil, err
	}
	return &Quote{
		Items:      calc.Items(),
		TotalItems: calc.TotalItems(),
		Breakdown:  breakdown,
	}, nil
}
