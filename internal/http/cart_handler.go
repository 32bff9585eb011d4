package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/storefront-cart/internal/domain"
	"github.com/fjod/storefront-cart/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CartHandler struct {
	service *service.CartService
	timeout time.Duration
	log     *zap.Logger
}

func NewCartHandler(service *service.CartService, timeout time.Duration, log *zap.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		timeout: timeout,
		log:     log,
	}
}

type AddItemRequestDTO struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Image string `json:"image"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type ItemView struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Image     string `json:"image"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type TotalsView struct {
	Subtotal string `json:"subtotal"`
	Shipping string `json:"shipping"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

type CartView struct {
	Items  []ItemView `json:"items"`
	Totals TotalsView `json:"totals"`
	Badge  int        `json:"badge"`
}

type BadgeView struct {
	Count int `json:"count"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *CartHandler) Health(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	summary, err := h.service.Summary(ctx, getSessionID(r.Context()))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toCartView(summary))
}

func (h *CartHandler) GetBadge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	summary, err := h.service.Summary(ctx, getSessionID(r.Context()))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, BadgeView{Count: summary.Badge})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	summary, err := h.service.AddItem(ctx, getSessionID(r.Context()), req.Name, req.Price, req.Image)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, toCartView(summary))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	index, ok := h.parseIndex(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	summary, err := h.service.SetQuantity(ctx, getSessionID(r.Context()), index, req.Quantity)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toCartView(summary))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	index, ok := h.parseIndex(w, r)
	if !ok {
		return
	}

	summary, err := h.service.RemoveItem(ctx, getSessionID(r.Context()), index)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toCartView(summary))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.service.ClearCart(ctx, getSessionID(r.Context())); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toCartView(service.Summary{}))
}

func (h *CartHandler) parseIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_index", "index must be an integer")
		return 0, false
	}
	return index, true
}

func toCartView(s service.Summary) CartView {
	items := make([]ItemView, len(s.Cart.Items))
	for i, li := range s.Cart.Items {
		items[i] = ItemView{
			Index:     i,
			Name:      li.Name,
			Price:     domain.FormatMoney(li.UnitPrice),
			Image:     li.Image,
			Quantity:  li.Quantity,
			LineTotal: domain.FormatMoney(li.LineTotal()),
		}
	}

	return CartView{
		Items: items,
		Totals: TotalsView{
			Subtotal: domain.FormatMoney(s.Totals.Subtotal),
			Shipping: domain.FormatMoney(s.Totals.Shipping),
			Tax:      domain.FormatMoney(s.Totals.Tax),
			Total:    domain.FormatMoney(s.Totals.Total),
		},
		Badge: s.Badge,
	}
}

func (h *CartHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidPrice):
		h.respondError(w, http.StatusBadRequest, "invalid_price", err.Error())
	case errors.Is(err, domain.ErrIndexOutOfRange):
		h.respondError(w, http.StatusNotFound, "index_out_of_range", err.Error())
	case errors.Is(err, service.ErrInvalidSession):
		h.respondError(w, http.StatusBadRequest, "invalid_session", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		h.respondError(w, http.StatusGatewayTimeout, "timeout", "storage did not respond in time")
	default:
		h.log.Error("cart request failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (h *CartHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error("failed to encode response", zap.Error(err))
	}
}

func (h *CartHandler) respondError(w http.ResponseWriter, status int, code, message string) {
	h.respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
