package service

import (
	"fmt"

	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/calculator"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/models"
)

// ParseAddItemRequest type-checks an add-item request. Value checks are left
// to the calculator so that all type errors are reported first.
func ParseAddItemRequest(req *models.AddItemRequest) (DraftItem, error) {
	name, err := calculator.Name("name", req.Name)
	if err != nil {
		return DraftItem{}, err
	}
	price, err := calculator.Number("price", req.Price)
	if err != nil {
		return DraftItem{}, err
	}
	quantity, err := calculator.OptionalQuantity("quantity", req.Quantity.Value, req.Quantity.Set)
	if err != nil {
		return DraftItem{}, err
	}
	return DraftItem{Name: name, Price: price, Quantity: quantity}, nil
}

// ParseDiscount type-checks an optional discount, defaulting to 0 when it
// was not supplied.
func ParseDiscount(v models.Optional) (float64, error) {
	return calculator.OptionalNumber("discount", v.Value, v.Set, 0)
}

// ParseDiscountRequest type-checks both operands of apply_discount.
func ParseDiscountRequest(req *models.DiscountRequest) (subtotal, discount float64, err error) {
	subtotal, err = calculator.Number("subtotal", req.Subtotal)
	if err != nil {
		return 0, 0, err
	}
	discount, err = calculator.Number("discount", req.Discount)
	if err != nil {
		return 0, 0, err
	}
	return subtotal, discount, nil
}

// ParseAmountRequest type-checks the amount of a shipping or tax request.
func ParseAmountRequest(req *models.AmountRequest) (float64, error) {
	return calculator.Number("amount", req.Amount)
}

// ParseQuoteRequest type-checks every item and the discount of a draft.
func ParseQuoteRequest(req *models.QuoteRequest) (*DraftOrder, error) {
	draft := &DraftOrder{Items: make([]DraftItem, 0, len(req.Items))}
	for i := range req.Items {
		item, err := ParseAddItemRequest(&req.Items[i])
		if err != nil {
			return nil, withItemIndex(err, i)
		}
		draft.Items = append(draft.Items, item)
	}

	discount, err := ParseDiscount(req.Discount)
	if err != nil {
		return nil, err
	}
	draft.Discount = discount
	return draft, nil
}

func withItemIndex(err error, i int) error {
	if e, ok := err.(*calculator.Error); ok {
		return &calculator.Error{
			Kind:    e.Kind,
			Field:   fmt.Sprintf("items[%d].%s", i, e.Field),
			Message: e.Message,
		}
	}
	return err
}
