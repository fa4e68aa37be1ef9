package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/calculator"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/config"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/logging"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/models"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/service"
)

// Handlers holds all HTTP handlers for the cart service.
type Handlers struct {
	cartService *service.CartService
	config      *config.Config
	logger      *logging.LoggerV2
}

// NewHandlers creates a new handlers instance.
func NewHandlers(cartService *service.CartService, cfg *config.Config) *Handlers {
	return &Handlers{
		cartService: cartService,
		config:      cfg,
		logger:      logging.NewLoggerV2("handlers"),
	}
}

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

func init() {
	// Keep numbers as json.Number so integers and floats stay
	// distinguishable for the type checks.
	binding.EnableDecoderUseNumber = true
}

// bindJSON binds the request body and reports decode failures as
// invalid_type errors on the body.
func bindJSON(c *gin.Context, dst interface{}) error {
	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &calculator.Error{
				Kind:    calculator.KindInvalidRange,
				Field:   "body",
				Message: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			}
		}
		return &calculator.Error{
			Kind:    calculator.KindInvalidType,
			Field:   "body",
			Message: "invalid request body: " + err.Error(),
		}
	}
	return nil
}

func statusForKind(kind calculator.Kind) int {
	switch kind {
	case calculator.KindInvalidType, calculator.KindInvalidRange:
		return http.StatusBadRequest
	case calculator.KindNotFound:
		return http.StatusNotFound
	case calculator.KindConflict:
		return http.StatusConflict
	case calculator.KindEmptyOrder:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var calcErr *calculator.Error
	if errors.As(err, &calcErr) {
		c.JSON(statusForKind(calcErr.Kind), models.ErrorResponse{
			Error: calcErr.Error(),
			Kind:  string(calcErr.Kind),
			Field: calcErr.Field,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal server error"})
}

// reject reports an error raised before the service was called.
func (h *Handlers) reject(c *gin.Context, op string, err error) {
	h.cartService.RecordRejection(op, err)
	handleError(c, err)
}
