package sales

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches the sales document routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/quotations", h.ListQuotations)
	r.Post("/quotations", h.CreateQuotation)
	r.Get("/quotations/{id}", h.GetQuotation)
	r.Put("/quotations/{id}", h.UpdateQuotation)
	r.Post("/quotations/{id}/status", h.SetQuotationStatus)

	r.Get("/invoices", h.ListInvoices)
	r.Get("/invoices/{id}", h.GetInvoice)
	r.Post("/invoices/{id}/payment-status", h.SetInvoicePaymentStatus)
}
