package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/calculator"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/config"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/service"
)

func newTestHandlers(t *testing.T) (*Handlers, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Load()
	svc, err := service.NewCartService(cfg, nil, nil)
	require.NoError(t, err)

	h := NewHandlers(svc, cfg)
	r := gin.New()
	r.GET("/cart", h.GetCart)
	r.DELETE("/cart", h.ClearCart)
	r.GET("/cart/items", h.ListItems)
	r.POST("/cart/items", h.AddItem)
	r.DELETE("/cart/items/*name", h.RemoveItem)
	r.GET("/cart/subtotal", h.GetSubtotal)
	r.GET("/cart/total", h.GetTotal)
	r.GET("/pricing", h.GetPricing)
	r.POST("/pricing/discount", h.ApplyDiscount)
	r.POST("/pricing/shipping", h.CalculateShipping)
	r.POST("/pricing/tax", h.CalculateTax)
	r.POST("/quotes", h.CreateQuote)
	return h, r
}

func do(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := &Handlers{}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Health(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "cart-calculator", resp["service"])
}

func TestReady(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	(&Handlers{}).Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	h, _ := newTestHandlers(t)
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLiveAndVersion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handlers{}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	h.Live(c)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	h.Version(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), BuildVersion)
}

func TestAddItemAndTotal(t *testing.T) {
	_, r := newTestHandlers(t)

	w, resp := do(t, r, http.MethodPost, "/cart/items", `{"name": "Apple", "price": 50.0, "quantity": 1}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(1), resp["total_items"])

	w, resp = do(t, r, http.MethodGet, "/cart/total", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 73.8, resp["total"], 1e-9)
	assert.InDelta(t, 10.0, resp["shipping"], 1e-9)
	assert.InDelta(t, 50.0, resp["subtotal"], 1e-9)

	w, resp = do(t, r, http.MethodGet, "/cart/subtotal", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 50.0, resp["subtotal"], 1e-9)
}

func TestAddItem_DefaultQuantityAndMerge(t *testing.T) {
	_, r := newTestHandlers(t)

	w, _ := do(t, r, http.MethodPost, "/cart/items", `{"name": "Apple", "price": 1.5}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w, resp := do(t, r, http.MethodPost, "/cart/items", `{"name": "Apple", "price": 1.5, "quantity": 2}`)
	require.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, float64(3), resp["total_items"])
	assert.Equal(t, []interface{}{"Apple"}, resp["items"])

	w, resp = do(t, r, http.MethodGet, "/cart/items", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), resp["count"])
}

func TestAddItem_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantKind   string
		wantField  string
	}{
		{"malformed body", `{"name":`, http.StatusBadRequest, "invalid_type", "body"},
		{"string price", `{"name": "Apple", "price": "1.5"}`, http.StatusBadRequest, "invalid_type", "price"},
		{"null name", `{"name": null, "price": 1.5}`, http.StatusBadRequest, "invalid_type", "name"},
		{"null quantity", `{"name": "Apple", "price": 1.5, "quantity": null}`, http.StatusBadRequest, "invalid_type", "quantity"},
		{"huge quantity", `{"name": "Apple", "price": 1.5, "quantity": 99999999999999999999}`, http.StatusBadRequest, "invalid_range", "quantity"},
		{"body not an object", `[1, 2]`, http.StatusBadRequest, "invalid_type", "body"},
		{"float quantity", `{"name": "Apple", "price": 1.5, "quantity": 2.0}`, http.StatusBadRequest, "invalid_type", "quantity"},
		{"bool quantity", `{"name": "Apple", "price": 1.5, "quantity": true}`, http.StatusBadRequest, "invalid_type", "quantity"},
		{"blank name", `{"name": "  ", "price": 1.5}`, http.StatusBadRequest, "invalid_range", "name"},
		{"zero price", `{"name": "Apple", "price": 0}`, http.StatusBadRequest, "invalid_range", "price"},
		{"negative quantity", `{"name": "Apple", "price": 1, "quantity": -1}`, http.StatusBadRequest, "invalid_range", "quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, r := newTestHandlers(t)
			w, resp := do(t, r, http.MethodPost, "/cart/items", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantKind, resp["kind"])
			assert.Equal(t, tt.wantField, resp["field"])

			_, cart := do(t, r, http.MethodGet, "/cart", "")
			assert.Equal(t, true, cart["is_empty"])
		})
	}
}

func TestAddItem_Conflict(t *testing.T) {
	_, r := newTestHandlers(t)

	do(t, r, http.MethodPost, "/cart/items", `{"name": "Apple", "price": 1.5, "quantity": 2}`)
	w, resp := do(t, r, http.MethodPost, "/cart/items", `{"name": "Apple", "price": 2.0, "quantity": 1}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(calculator.KindConflict), resp["kind"])

	_, cart := do(t, r, http.MethodGet, "/cart", "")
	assert.Equal(t, float64(2), cart["total_items"])
}

func TestAddItem_QuantityOverflow(t *testing.T) {
	_, r := newTestHandlers(t)

	body := fmt.Sprintf(`{"name": "Apple", "price": 1, "quantity": %d}`, math.MaxInt)
	w, _ := do(t, r, http.MethodPost, "/cart/items", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := do(t, r, http.MethodPost, "/cart/items", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_range", resp["kind"])
	assert.Equal(t, "quantity", resp["field"])

	w, _ = do(t, r, http.MethodGet, "/cart/items", "")
	require.Equal(t, http.StatusOK, w.Code)
	var items struct {
		Items []calculator.LineItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items.Items, 1)
	assert.Equal(t, math.MaxInt, items.Items[0].Quantity)
}

func TestAddItem_BodyTooLarge(t *testing.T) {
	_, r := newTestHandlers(t)

	body := `{"name": "` + strings.Repeat("a", maxBodyBytes) + `", "price": 1}`
	w, resp := do(t, r, http.MethodPost, "/cart/items", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_range", resp["kind"])
	assert.Equal(t, "body", resp["field"])
}

func TestRemoveItem_NameWithSlash(t *testing.T) {
	_, r := newTestHandlers(t)

	w, _ := do(t, r, http.MethodPost, "/cart/items", `{"name": "Tea/Green", "price": 4}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = do(t, r, http.MethodDelete, "/cart/items/Tea/Green", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	_, cart := do(t, r, http.MethodGet, "/cart", "")
	assert.Equal(t, true, cart["is_empty"])

	w, resp := do(t, r, http.MethodDelete, "/cart/items/", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", resp["kind"])
}

func TestRemoveAndClear(t *testing.T) {
	_, r := newTestHandlers(t)

	w, resp := do(t, r, http.MethodDelete, "/cart/items/Apple", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", resp["kind"])

	do(t, r, http.MethodPost, "/cart/items", `{"name": "Apple", "price": 1.5, "quantity": 2}`)
	do(t, r, http.MethodPost, "/cart/items", `{"name": "Pear", "price": 3}`)

	w, _ = do(t, r, http.MethodDelete, "/cart/items/Apple", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	_, cart := do(t, r, http.MethodGet, "/cart", "")
	assert.Equal(t, []interface{}{"Pear"}, cart["items"])

	w, _ = do(t, r, http.MethodDelete, "/cart", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, _ = do(t, r, http.MethodDelete, "/cart", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	_, cart = do(t, r, http.MethodGet, "/cart", "")
	assert.Equal(t, true, cart["is_empty"])
	assert.Equal(t, float64(0), cart["total_items"])
}

func TestTotal_EmptyAndBadDiscount(t *testing.T) {
	_, r := newTestHandlers(t)

	w, resp := do(t, r, http.MethodGet, "/cart/total", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "empty_order", resp["kind"])

	w, _ = do(t, r, http.MethodGet, "/cart/subtotal", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	do(t, r, http.MethodPost, "/cart/items", `{"name": "Apple", "price": 110}`)

	w, resp = do(t, r, http.MethodGet, "/cart/total?discount=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_type", resp["kind"])

	w, resp = do(t, r, http.MethodGet, "/cart/total?discount=1.5", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_range", resp["kind"])

	w, resp = do(t, r, http.MethodGet, "/cart/total?discount=0.2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 88.0, resp["discounted_subtotal"], 1e-9)
	assert.InDelta(t, 10.0, resp["shipping"], 1e-9)
	assert.InDelta(t, 98.0*1.23, resp["total"], 1e-9)
}

func TestPricingEndpoints(t *testing.T) {
	_, r := newTestHandlers(t)

	w, resp := do(t, r, http.MethodPost, "/pricing/discount", `{"subtotal": 100.0, "discount": 0.2}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 80.0, resp["discounted_subtotal"], 1e-9)

	w, resp = do(t, r, http.MethodPost, "/pricing/discount", `{"subtotal": "100", "discount": 0.2}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_type", resp["kind"])

	w, resp = do(t, r, http.MethodPost, "/pricing/discount", `{"subtotal": -5, "discount": 0.2}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_range", resp["kind"])

	w, resp = do(t, r, http.MethodPost, "/pricing/shipping", `{"amount": 100.0}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, resp["shipping"])

	w, resp = do(t, r, http.MethodPost, "/pricing/shipping", `{"amount": 99.99}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10.0, resp["shipping"])

	w, resp = do(t, r, http.MethodPost, "/pricing/shipping", `{"amount": [1]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_type", resp["kind"])

	w, resp = do(t, r, http.MethodPost, "/pricing/tax", `{"amount": 100}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 23.0, resp["tax"], 1e-9)

	w, resp = do(t, r, http.MethodPost, "/pricing/tax", `{"amount": -1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_range", resp["kind"])

	w, resp = do(t, r, http.MethodGet, "/pricing", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.23, resp["tax_rate"])
}

func TestCreateQuote(t *testing.T) {
	_, r := newTestHandlers(t)

	body := `{"items": [{"name": "Apple", "price": 150.0, "quantity": 1}], "discount": 0}`
	w, resp := do(t, r, http.MethodPost, "/quotes", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 184.5, resp["total"], 1e-9)

	w, resp = do(t, r, http.MethodPost, "/quotes", `{"items": [{"name": "Apple", "price": 150.0}], "discount": null}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_type", resp["kind"])
	assert.Equal(t, "discount", resp["field"])

	w, resp = do(t, r, http.MethodPost, "/quotes", `{"items": [{"name": "Apple", "price": 150.0}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 0.0, resp["discount"], 1e-9)

	w, resp = do(t, r, http.MethodPost, "/quotes", `{"items": [{"name": "A", "price": 1, "quantity": null}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "items[0].quantity", resp["field"])

	w, resp = do(t, r, http.MethodPost, "/quotes", `{"items": []}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "empty_order", resp["kind"])

	w, resp = do(t, r, http.MethodPost, "/quotes", `{"items": [{"name": "A", "price": 1, "quantity": 1.5}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "items[0].quantity", resp["field"])

	// Quotes never touch the session cart.
	_, cart := do(t, r, http.MethodGet, "/cart", "")
	assert.Equal(t, true, cart["is_empty"])
}

func TestHandleError_Unknown(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	handleError(c, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusForKind(calculator.KindInvalidType))
	assert.Equal(t, http.StatusBadRequest, statusForKind(calculator.KindInvalidRange))
	assert.Equal(t, http.StatusConflict, statusForKind(calculator.KindConflict))
	assert.Equal(t, http.StatusNotFound, statusForKind(calculator.KindNotFound))
	assert.Equal(t, http.StatusUnprocessableEntity, statusForKind(calculator.KindEmptyOrder))
	assert.Equal(t, http.StatusInternalServerError, statusForKind(calculator.Kind("other")))
}
