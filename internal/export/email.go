package export

import (
	"fmt"
	"strings"

	"github.com/fids-maurice/expostand/internal/sales"
)

// Draft is a pre-filled email for a finished document. Sending is the
// worker's concern; the builder only assembles recipient, subject and body.
type Draft struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// QuotationDraft builds the email draft for a quotation.
func (p *PDFExporter) QuotationDraft(q sales.Quotation) Draft {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", q.Client.Name)
	fmt.Fprintf(&b, "Please find attached quotation %s for your stand reservation at %s.\n\n", q.ID, p.Company.Name)
	writeLines(&b, p, q.Currency, q.Items)
	fmt.Fprintf(&b, "\nGrand total: %s\n", p.Amount(q.Currency, q.GrandTotal))
	fmt.Fprintf(&b, "This quotation is valid until %s.\n\n", q.ExpiryDate.Format("January 2, 2006"))
	fmt.Fprintf(&b, "Kind regards,\n%s\n%s\n", p.Company.Name, p.Company.Phone)

	return Draft{
		To:      q.Client.Email,
		Subject: fmt.Sprintf("Quotation %s - %s", q.ID, p.Company.Name),
		Body:    b.String(),
	}
}

// InvoiceDraft builds the email draft for an invoice.
func (p *PDFExporter) InvoiceDraft(inv sales.Invoice) Draft {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", inv.Client.Name)
	fmt.Fprintf(&b, "Please find attached invoice %s from %s.\n\n", inv.ID, p.Company.Name)
	writeLines(&b, p, inv.Currency, inv.Items)
	fmt.Fprintf(&b, "\nAmount due: %s\n", p.Amount(inv.Currency, inv.GrandTotal))
	fmt.Fprintf(&b, "Payment is due by %s.\n\n", inv.DueDate.Format("January 2, 2006"))
	fmt.Fprintf(&b, "Kind regards,\n%s\n%s\n", p.Company.Name, p.Company.Phone)

	return Draft{
		To:      inv.Client.Email,
		Subject: fmt.Sprintf("Invoice %s - %s", inv.ID, p.Company.Name),
		Body:    b.String(),
	}
}

func writeLines(b *strings.Builder, p *PDFExporter, currency string, items []sales.LineItem) {
	for _, item := range items {
		fmt.Fprintf(b, "  - %s x%d: %s\n", item.Description, item.Quantity, p.Amount(currency, item.Total))
	}
}
