package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/cart"
	"github.com/vladislavdragonenkov/shop/internal/service/checkout"
)

// Заголовки, через которые граница передаёт действующего пользователя.
// Идентичность всегда идёт явным параметром запроса, никакого
// process-wide состояния.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
)

// Handler обслуживает JSON API корзины и заказов.
type Handler struct {
	carts    *cart.Service
	checkout *checkout.Service
	idem     domain.IdempotencyRepository
	logger   *log.Entry
}

// NewHandler создаёт HTTP-обработчик. idem может быть nil —
// тогда Idempotency-Key не обрабатывается.
func NewHandler(carts *cart.Service, checkoutSvc *checkout.Service, idem domain.IdempotencyRepository, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "http-handler")
	}
	return &Handler{
		carts:    carts,
		checkout: checkoutSvc,
		idem:     idem,
		logger:   logger,
	}
}

// AddProduct обрабатывает POST /api/carts/products/{productID}/quantity/{qty}.
func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity(w, r)
	if !ok {
		return
	}

	productID := chi.URLParam(r, "productID")
	qty, err := strconv.ParseInt(chi.URLParam(r, "qty"), 10, 32)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "quantity must be an integer")
		return
	}

	updated, err := h.carts.AddProduct(r.Context(), user, productID, int32(qty))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toCartView(updated))
}

// UpdateQuantity обрабатывает PATCH /api/carts/products/{productID}.
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	updated, err := h.carts.UpdateQuantity(r.Context(), user, chi.URLParam(r, "productID"), req.Delta)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCartView(updated))
}

// RemoveProduct обрабатывает DELETE /api/carts/{cartID}/products/{productID}.
func (h *Handler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	msg, err := h.carts.RemoveProduct(r.Context(), chi.URLParam(r, "cartID"), chi.URLParam(r, "productID"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

// GetMyCart обрабатывает GET /api/carts/my.
func (h *Handler) GetMyCart(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity(w, r)
	if !ok {
		return
	}

	found, err := h.carts.GetCart(r.Context(), user)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCartView(found))
}

// ListCarts обрабатывает GET /api/carts.
func (h *Handler) ListCarts(w http.ResponseWriter, r *http.Request) {
	carts, err := h.carts.ListCarts(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	views := make([]CartView, 0, len(carts))
	for _, c := range carts {
		views = append(views, toCartView(c))
	}
	h.writeJSON(w, http.StatusOK, views)
}

// PlaceOrder обрабатывает POST /api/orders.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	order, err := h.checkout.PlaceOrder(r.Context(), user.Email, req.AddressID, checkout.PaymentDetails{
		Method:           req.PaymentMethod,
		GatewayName:      req.GatewayName,
		GatewayPaymentID: req.GatewayPaymentID,
		GatewayStatus:    req.GatewayStatus,
		GatewayMessage:   req.GatewayMessage,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toOrderView(order))
}

// GetOrder обрабатывает GET /api/orders/{orderID}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.checkout.GetOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toOrderView(order))
}

// ListOrders обрабатывает GET /api/orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	orders, err := h.checkout.ListOrders(r.Context(), user.Email, limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toOrderView(o))
	}
	h.writeJSON(w, http.StatusOK, views)
}

// identity извлекает действующего пользователя из заголовков запроса.
func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	user := domain.Identity{
		UserID: r.Header.Get(HeaderUserID),
		Email:  r.Header.Get(HeaderUserEmail),
	}
	if user.UserID == "" {
		h.writeError(w, http.StatusBadRequest, "X-User-ID header is required")
		return domain.Identity{}, false
	}
	return user, true
}

// writeDomainError транслирует таксономию доменных ошибок в HTTP-статусы.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsNotFound(err):
		h.writeError(w, http.StatusNotFound, err.Error())
	case domain.IsConflict(err):
		h.writeError(w, http.StatusConflict, err.Error())
	case domain.IsInvalidRequest(err):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.WithError(err).Error("internal error")
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.WithError(err).Warn("failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message})
}
