package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avelarde/storefront/internal/core/domain"
	"github.com/avelarde/storefront/internal/core/service"
	"github.com/avelarde/storefront/internal/telemetry"
)

type Handler struct {
	products *service.ProductService
	carts    *service.CartService
	tickets  *service.TicketService
	checkout *service.CheckoutService
	log      *telemetry.Logger
}

func New(
	products *service.ProductService,
	carts *service.CartService,
	tickets *service.TicketService,
	checkout *service.CheckoutService,
	log *telemetry.Logger,
) *Handler {
	return &Handler{
		products: products,
		carts:    carts,
		tickets:  tickets,
		checkout: checkout,
		log:      log,
	}
}

// --- carts ---

func (h *Handler) CreateCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.CreateCart(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, cart)
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.GetCart(r.Context(), chi.URLParam(r, "cid"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	// Body is optional; an absent or empty quantity means "add one".
	req := quantityRequest{Quantity: 1}
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cart, err := h.carts.AddProduct(r.Context(), chi.URLParam(r, "cid"), chi.URLParam(r, "pid"), req.Quantity)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, cart)
}

func (h *Handler) SetCartItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "quantity field is required")
		return
	}

	cart, err := h.carts.SetQuantity(r.Context(), chi.URLParam(r, "cid"), chi.URLParam(r, "pid"), req.Quantity)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, cart)
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.RemoveProduct(r.Context(), chi.URLParam(r, "cid"), chi.URLParam(r, "pid"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, cart)
}

type replaceItemsRequest struct {
	Items []domain.LineItem `json:"items"`
}

func (h *Handler) ReplaceCartItems(w http.ResponseWriter, r *http.Request) {
	var req replaceItemsRequest
	if err := decodeBody(r, &req); err != nil || req.Items == nil {
		writeError(w, http.StatusBadRequest, "items field is required")
		return
	}

	cart, err := h.carts.ReplaceItems(r.Context(), chi.URLParam(r, "cid"), req.Items)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, cart)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.Clear(r.Context(), chi.URLParam(r, "cid"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, cart)
}

// --- checkout ---

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	purchaser, ok := PurchaserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	report, err := h.checkout.Checkout(r.Context(), chi.URLParam(r, "cid"), purchaser)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	// Partial fulfillment is still a success; the report says what is left.
	writeSuccess(w, http.StatusOK, report)
}

// --- products ---

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, products)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.Get(r.Context(), chi.URLParam(r, "pid"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, product)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in service.ProductInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.products.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, product)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var in service.ProductInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.products.Update(r.Context(), chi.URLParam(r, "pid"), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, product)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), chi.URLParam(r, "pid")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

// --- tickets ---

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.tickets.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, ticket)
}

func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	purchaser := r.URL.Query().Get("purchaser")
	if purchaser == "" {
		writeError(w, http.StatusBadRequest, "purchaser query parameter is required")
		return
	}

	tickets, err := h.tickets.ListByPurchaser(r.Context(), purchaser)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, tickets)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- helpers ---

func decodeBody(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrCartNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrTicketNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidProduct):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDuplicateCode):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type envelope struct {
	Status  string `json:"status"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeSuccess(w http.ResponseWriter, status int, payload any) {
	writeJSON(w, status, envelope{Status: "success", Payload: payload})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Status: "error", Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
