package export

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fids-maurice/expostand/internal/sales"
	"github.com/fids-maurice/expostand/internal/shared"
)

// DocumentSource provides the finished documents to render or send.
type DocumentSource interface {
	GetQuotation(ctx context.Context, id string) (sales.Quotation, error)
	GetInvoice(ctx context.Context, id string) (sales.Invoice, error)
}

// EmailEnqueuer hands a draft to the background mailer.
type EmailEnqueuer interface {
	EnqueueDocumentEmail(ctx context.Context, to, subject, body string) error
}

// Handler serves document downloads and email-draft dispatch.
type Handler struct {
	logger   *slog.Logger
	exporter *PDFExporter
	docs     DocumentSource
	enqueuer EmailEnqueuer
}

// NewHandler constructs a Handler. The enqueuer may be nil when no job queue
// is configured; send endpoints then respond 503.
func NewHandler(logger *slog.Logger, exporter *PDFExporter, docs DocumentSource, enqueuer EmailEnqueuer) *Handler {
	return &Handler{logger: logger, exporter: exporter, docs: docs, enqueuer: enqueuer}
}

// MountRoutes attaches export routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/quotations/{id}/pdf", h.QuotationPDF)
	r.Get("/invoices/{id}/pdf", h.InvoicePDF)
	r.Post("/quotations/{id}/send", h.SendQuotation)
	r.Post("/invoices/{id}/send", h.SendInvoice)
}

func (h *Handler) servePDF(w http.ResponseWriter, r *http.Request, payload DocumentPayload, err error) {
	if err != nil {
		h.respondLookupError(w, err)
		return
	}
	pdf, err := h.exporter.Render(r.Context(), payload)
	if err != nil {
		h.logger.Error("render pdf failed", slog.String("doc", payload.DocNumber), slog.Any("error", err))
		http.Error(w, "PDF rendering unavailable", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+payload.DocNumber+`.pdf"`)
	_, _ = w.Write(pdf)
}

func (h *Handler) respondLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	h.logger.Error("document lookup failed", slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// QuotationPDF handles GET /quotations/{id}/pdf.
func (h *Handler) QuotationPDF(w http.ResponseWriter, r *http.Request) {
	q, err := h.docs.GetQuotation(r.Context(), chi.URLParam(r, "id"))
	var payload DocumentPayload
	if err == nil {
		payload = h.exporter.QuotationPayload(q)
	}
	h.servePDF(w, r, payload, err)
}

// InvoicePDF handles GET /invoices/{id}/pdf.
func (h *Handler) InvoicePDF(w http.ResponseWriter, r *http.Request) {
	inv, err := h.docs.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	var payload DocumentPayload
	if err == nil {
		payload = h.exporter.InvoicePayload(inv)
	}
	h.servePDF(w, r, payload, err)
}

func (h *Handler) sendDraft(w http.ResponseWriter, r *http.Request, draft Draft, err error) {
	if err != nil {
		h.respondLookupError(w, err)
		return
	}
	if h.enqueuer == nil {
		http.Error(w, "mail queue not configured", http.StatusServiceUnavailable)
		return
	}
	if err := h.enqueuer.EnqueueDocumentEmail(r.Context(), draft.To, draft.Subject, draft.Body); err != nil {
		h.logger.Error("enqueue draft failed", slog.Any("error", err))
		http.Error(w, "failed to queue email", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte(`{"queued":true,"to":"` + draft.To + `"}`))
}

// SendQuotation handles POST /quotations/{id}/send.
func (h *Handler) SendQuotation(w http.ResponseWriter, r *http.Request) {
	q, err := h.docs.GetQuotation(r.Context(), chi.URLParam(r, "id"))
	var draft Draft
	if err == nil {
		draft = h.exporter.QuotationDraft(q)
	}
	h.sendDraft(w, r, draft, err)
}

// SendInvoice handles POST /invoices/{id}/send.
func (h *Handler) SendInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.docs.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	var draft Draft
	if err == nil {
		draft = h.exporter.InvoiceDraft(inv)
	}
	h.sendDraft(w, r, draft, err)
}
