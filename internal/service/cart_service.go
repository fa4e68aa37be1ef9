package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/calculator"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/config"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/events"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/logging"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/metrics"
)

// CartService owns a single cart session and serializes access to it.
type CartService struct {
	mu        sync.Mutex
	calc      *calculator.OrderCalculator
	sessionID string

	publisher events.Publisher
	metrics   *metrics.Metrics
	config    *config.Config
	logger    *logging.LoggerV2
}

// NewCartService creates a service with an empty cart. A nil publisher
// disables events; nil metrics get a private registry.
func NewCartService(cfg *config.Config, publisher events.Publisher, m *metrics.Metrics) (*CartService, error) {
	calc, err := cfg.Pricing.NewCalculator()
	if err != nil {
		return nil, err
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if m == nil {
		m = metrics.New(false)
	}

	s := &CartService{
		calc:      calc,
		sessionID: uuid.NewString(),
		publisher: publisher,
		metrics:   m,
		config:    cfg,
		logger:    logging.NewLoggerV2("cart-service"),
	}
	s.logger.Info("Cart session started", logging.Fields{
		"session_id":              s.sessionID,
		"tax_rate":                calc.TaxRate(),
		"free_shipping_threshold": calc.FreeShippingThreshold(),
		"shipping_cost":           calc.ShippingCost(),
	})
	return s, nil
}

// SessionID identifies the cart session in logs and events.
func (s *CartService) SessionID() string {
	return s.sessionID
}

// Pricing returns the pricing parameters of the session.
func (s *CartService) Pricing() config.PricingConfig {
	return s.config.Pricing
}

// AddItem adds quantity units of name at price to the cart.
func (s *CartService) AddItem(ctx context.Context, name string, price float64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.calc.AddItem(name, price, quantity); err != nil {
		s.reject("add_item", err)
		return err
	}

	s.metrics.ItemsAdded.Add(float64(quantity))
	s.metrics.LineItems.Set(float64(len(s.calc.ListItems())))
	s.logger.Info("Item added", logging.Fields{
		"session_id": s.sessionID,
		"name":       name,
		"price":      price,
		"quantity":   quantity,
	})
	return nil
}

// RemoveItem removes the named line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.calc.RemoveItem(name); err != nil {
		s.reject("remove_item", err)
		return err
	}

	s.metrics.ItemsRemoved.Inc()
	s.metrics.LineItems.Set(float64(len(s.calc.ListItems())))
	s.logger.Info("Item removed", logging.Fields{
		"session_id": s.sessionID,
		"name":       name,
	})
	return nil
}

// Clear empties the cart. Clearing an empty cart succeeds.
func (s *CartService) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calc.Clear()
	s.metrics.Clears.Inc()
	s.metrics.LineItems.Set(0)
	s.logger.Info("Cart cleared", logging.Fields{"session_id": s.sessionID})

	if s.config.Features.EnableOrderEvents {
		if err := s.publisher.PublishOrderCleared(ctx, s.sessionID); err != nil {
			// Log but don't fail
			s.logger.Error("Failed to publish order cleared event", logging.Fields{
				"session_id": s.sessionID,
				"error":      err.Error(),
			})
		}
	}
}

// Items returns a copy of the line items.
func (s *CartService) Items(ctx context.Context) []calculator.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calc.Items()
}

// Summary describes the cart contents.
func (s *CartService) Summary(ctx context.Context) CartSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CartSummary{
		SessionID:  s.sessionID,
		Items:      s.calc.ListItems(),
		TotalItems: s.calc.TotalItems(),
		IsEmpty:    s.calc.IsEmpty(),
	}
}

// Subtotal returns the pre-discount subtotal of the cart.
func (s *CartService) Subtotal(ctx context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subtotal, err := s.calc.Subtotal()
	if err != nil {
		s.reject("get_subtotal", err)
		return 0, err
	}
	return subtotal, nil
}

// Quote prices the cart with the given discount.
func (s *CartService) Quote(ctx context.Context, discount float64) (*Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	breakdown, err := s.calc.Quote(discount)
	if err != nil {
		s.reject("calculate_total", err)
		return nil, err
	}

	q := &Quote{
		SessionID:  s.sessionID,
		Items:      s.calc.Items(),
		TotalItems: s.calc.TotalItems(),
		Breakdown:  breakdown,
	}
	s.recordQuote(q)

	if s.config.Features.EnableOrderEvents {
		order := &events.PricedOrder{Items: q.Items, Breakdown: breakdown}
		if err := s.publisher.PublishOrderPriced(ctx, s.sessionID, order); err != nil {
			// Log but don't fail
			s.logger.Error("Failed to publish order priced event", logging.Fields{
				"session_id": s.sessionID,
				"error":      err.Error(),
			})
		}
	}
	return q, nil
}

// QuoteOrder prices a draft order on a fresh calculator with the session's
// pricing parameters. The cart itself is not touched.
func (s *CartService) QuoteOrder(ctx context.Context, draft *DraftOrder) (*Quote, error) {
	calc, err := s.config.Pricing.NewCalculator()
	if err != nil {
		return nil, err
	}

	q, err := PriceDraft(calc, draft)
	if err != nil {
		s.reject("quote_order", err)
		return nil, err
	}

	s.recordQuote(q)
	return q, nil
}

// ApplyDiscount applies a discount fraction to an arbitrary subtotal.
func (s *CartService) ApplyDiscount(ctx context.Context, subtotal, discount float64) (float64, error) {
	discounted, err := s.calc.ApplyDiscount(subtotal, discount)
	if err != nil {
		s.reject("apply_discount", err)
	}
	return discounted, err
}

// Shipping returns the shipping charge for a discounted subtotal.
func (s *CartService) Shipping(ctx context.Context, amount float64) (float64, error) {
	shipping, err := s.calc.Shipping(amount)
	if err != nil {
		s.reject("calculate_shipping", err)
	}
	return shipping, err
}

// Tax returns the tax due on a taxable base.
func (s *CartService) Tax(ctx context.Context, amount float64) (float64, error) {
	tax, err := s.calc.Tax(amount)
	if err != nil {
		s.reject("calculate_tax", err)
	}
	return tax, err
}

// RecordRejection counts an error raised before the service was reached,
// such as a type check in the transport layer.
func (s *CartService) RecordRejection(op string, err error) {
	s.reject(op, err)
}

func (s *CartService) recordQuote(q *Quote) {
	s.metrics.Quotes.Inc()
	s.metrics.QuoteTotal.Observe(q.Total)
	s.logger.Info("Order priced", logging.Fields{
		"session_id": s.sessionID,
		"subtotal":   q.Subtotal,
		"discount":   q.Discount,
		"shipping":   q.Shipping,
		"tax":        q.Tax,
		"total":      q.Total,
	})
}

func (s *CartService) reject(op string, err error) {
	kind := calculator.KindOf(err)
	if kind == "" {
		kind = "internal"
	}
	s.metrics.ValidationErrors.WithLabelValues(string(kind)).Inc()
	s.logger.Warn("Operation rejected", logging.Fields{
		"session_id": s.sessionID,
		"operation":  op,
		"kind":       kind,
		"error":      err.Error(),
	})
}
