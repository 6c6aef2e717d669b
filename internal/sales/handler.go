package sales

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fids-maurice/expostand/internal/shared"
)

// Handler exposes the lifecycle engine over JSON.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	validate    *validator.Validate
	idempotency *shared.IdempotencyStore
}

// NewHandler constructs a Handler instance. The idempotency store may be nil
// when no Redis is configured; the Idempotency-Key header is then ignored.
func NewHandler(logger *slog.Logger, service *Service, idempotency *shared.IdempotencyStore) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		validate:    validator.New(),
		idempotency: idempotency,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var ve *shared.ValidationError
	switch {
	case errors.As(err, &ve):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Reason, Field: ve.Field})
	case errors.Is(err, shared.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, shared.ErrDuplicateID):
		respondJSON(w, http.StatusConflict, errorResponse{Error: "duplicate id, retry with a new request"})
	case errors.Is(err, shared.ErrIdempotencyConflict):
		respondJSON(w, http.StatusConflict, errorResponse{Error: "request already processed"})
	default:
		h.logger.Error("request failed", slog.Any("error", err))
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid value", Field: verrs[0].Namespace()})
			return false
		}
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

// checkIdempotency honours the Idempotency-Key header on creating endpoints.
func (h *Handler) checkIdempotency(r *http.Request, module string) error {
	if h.idempotency == nil {
		return nil
	}
	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		return nil
	}
	return h.idempotency.CheckAndInsert(r.Context(), key, module)
}

type listResponse[T any] struct {
	Items      []T               `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func parsePage(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	return page, perPage
}

// CreateQuotation handles POST /quotations.
func (h *Handler) CreateQuotation(w http.ResponseWriter, r *http.Request) {
	var req CreateQuotationRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.checkIdempotency(r, "sales.quotation"); err != nil {
		h.respondError(w, err)
		return
	}
	q, err := h.service.CreateQuotation(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, q)
}

// ListQuotations handles GET /quotations.
func (h *Handler) ListQuotations(w http.ResponseWriter, r *http.Request) {
	req := ListQuotationsRequest{}
	req.Page, req.PerPage = parsePage(r)
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := QuotationStatus(raw)
		if !status.Valid() {
			h.respondError(w, shared.NewValidationError("status", "unknown status"))
			return
		}
		req.Status = &status
	}
	items, page, err := h.service.ListQuotations(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse[Quotation]{Items: items, Pagination: page})
}

// GetQuotation handles GET /quotations/{id}.
func (h *Handler) GetQuotation(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.GetQuotation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, q)
}

// UpdateQuotation handles PUT /quotations/{id}.
func (h *Handler) UpdateQuotation(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuotationRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, err := h.service.UpdateQuotation(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, q)
}

// SetQuotationStatus handles POST /quotations/{id}/status.
func (h *Handler) SetQuotationStatus(w http.ResponseWriter, r *http.Request) {
	var req SetStatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, err := h.service.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, q)
}

// ListInvoices handles GET /invoices.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	req := ListInvoicesRequest{}
	req.Page, req.PerPage = parsePage(r)
	if raw := r.URL.Query().Get("payment_status"); raw != "" {
		status := PaymentStatus(raw)
		if !status.Valid() {
			h.respondError(w, shared.NewValidationError("payment_status", "unknown payment status"))
			return
		}
		req.PaymentStatus = &status
	}
	items, page, err := h.service.ListInvoices(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse[Invoice]{Items: items, Pagination: page})
}

// GetInvoice handles GET /invoices/{id}.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}

// SetInvoicePaymentStatus handles POST /invoices/{id}/payment-status.
func (h *Handler) SetInvoicePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req SetPaymentStatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	inv, err := h.service.SetInvoicePaymentStatus(r.Context(), chi.URLParam(r, "id"), req.PaymentStatus)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}
