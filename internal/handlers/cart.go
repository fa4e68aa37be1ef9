package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/calculator"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/logging"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/models"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/service"
)

// GetCart handles GET /api/v1/cart
func (h *Handlers) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.cartService.Summary(c.Request.Context()))
}

// ListItems handles GET /api/v1/cart/items
func (h *Handlers) ListItems(c *gin.Context) {
	items := h.cartService.Items(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

// AddItem handles POST /api/v1/cart/items
func (h *Handlers) AddItem(c *gin.Context) {
	var req models.AddItemRequest
	if err := bindJSON(c, &req); err != nil {
		h.logger.Error("Failed to bind request", logging.Fields{"error": err.Error()})
		h.reject(c, "add_item", err)
		return
	}

	item, err := service.ParseAddItemRequest(&req)
	if err != nil {
		h.reject(c, "add_item", err)
		return
	}

	if err := h.cartService.AddItem(c.Request.Context(), item.Name, item.Price, item.Quantity); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.cartService.Summary(c.Request.Context()))
}

// RemoveItem handles DELETE /api/v1/cart/items/*name
//
// The wildcard lets names containing slashes be removed.
func (h *Handlers) RemoveItem(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("name"), "/")
	if err := h.cartService.RemoveItem(c.Request.Context(), name); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearCart handles DELETE /api/v1/cart
func (h *Handlers) ClearCart(c *gin.Context) {
	h.cartService.Clear(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// GetSubtotal handles GET /api/v1/cart/subtotal
func (h *Handlers) GetSubtotal(c *gin.Context) {
	subtotal, err := h.cartService.Subtotal(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subtotal": subtotal})
}

// GetTotal handles GET /api/v1/cart/total?discount=0.1
func (h *Handlers) GetTotal(c *gin.Context) {
	discount := 0.0
	if raw, ok := c.GetQuery("discount"); ok {
		d, err := calculator.ParseNumberArg("discount", raw)
		if err != nil {
			h.reject(c, "calculate_total", err)
			return
		}
		discount = d
	}

	quote, err := h.cartService.Quote(c.Request.Context(), discount)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// ApplyDiscount handles POST /api/v1/pricing/discount
func (h *Handlers) ApplyDiscount(c *gin.Context) {
	var req models.DiscountRequest
	if err := bindJSON(c, &req); err != nil {
		h.reject(c, "apply_discount", err)
		return
	}
	subtotal, discount, err := service.ParseDiscountRequest(&req)
	if err != nil {
		h.reject(c, "apply_discount", err)
		return
	}

	discounted, err := h.cartService.ApplyDiscount(c.Request.Context(), subtotal, discount)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"discounted_subtotal": discounted})
}

// CalculateShipping handles POST /api/v1/pricing/shipping
func (h *Handlers) CalculateShipping(c *gin.Context) {
	amount, ok := h.bindAmount(c, "calculate_shipping")
	if !ok {
		return
	}

	shipping, err := h.cartService.Shipping(c.Request.Context(), amount)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shipping": shipping})
}

// CalculateTax handles POST /api/v1/pricing/tax
func (h *Handlers) CalculateTax(c *gin.Context) {
	amount, ok := h.bindAmount(c, "calculate_tax")
	if !ok {
		return
	}

	tax, err := h.cartService.Tax(c.Request.Context(), amount)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tax": tax})
}

// CreateQuote handles POST /api/v1/quotes
func (h *Handlers) CreateQuote(c *gin.Context) {
	var req models.QuoteRequest
	if err := bindJSON(c, &req); err != nil {
		h.reject(c, "quote_order", err)
		return
	}
	draft, err := service.ParseQuoteRequest(&req)
	if err != nil {
		h.reject(c, "quote_order", err)
		return
	}

	quote, err := h.cartService.QuoteOrder(c.Request.Context(), draft)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// GetPricing handles GET /api/v1/pricing
func (h *Handlers) GetPricing(c *gin.Context) {
	p := h.cartService.Pricing()
	c.JSON(http.StatusOK, gin.H{
		"tax_rate":                p.TaxRate,
		"free_shipping_threshold": p.FreeShippingThreshold,
		"shipping_cost":           p.ShippingCost,
	})
}

func (h *Handlers) bindAmount(c *gin.Context, op string) (float64, bool) {
	var req models.AmountRequest
	if err := bindJSON(c, &req); err != nil {
		h.reject(c, op, err)
		return 0, false
	}
	amount, err := service.ParseAmountRequest(&req)
	if err != nil {
		h.reject(c, op, err)
		return 0, false
	}
	return amount, true
}
