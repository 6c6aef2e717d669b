// Package export turns finished documents into downloadable PDFs and
// pre-filled email drafts. It only consumes already-computed documents; the
// lifecycle engine does not depend on it.
package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/fids-maurice/expostand/internal/sales"
	"github.com/fids-maurice/expostand/web"
)

// CompanyDetails is the letterhead printed on every document.
type CompanyDetails struct {
	Name    string
	BRN     string
	VATNo   string
	Address string
	Phone   string
	Email   string
}

// DocumentLine is a rendered line item row.
type DocumentLine struct {
	Description string
	Quantity    int
	UnitPrice   string
	Total       string
}

// DocumentPayload aggregates either document type for PDF rendering.
type DocumentPayload struct {
	Kind       string // "Quotation" or "Invoice"
	DocNumber  string
	Reference  string // source quotation for generated invoices
	Company    CompanyDetails
	Client     sales.ClientDetails
	IssueDate  time.Time
	ClosesDate time.Time // expiry or due date
	ClosesName string    // "Valid until" or "Due date"
	Status     string
	Lines      []DocumentLine
	SubTotal   string
	Discount   string
	VATAmount  string
	GrandTotal string
	Notes      string
	Currency   string
}

// PDFExporter wraps Gotenberg interactions for document PDF generation.
type PDFExporter struct {
	Endpoint  string
	Client    *http.Client
	Company   CompanyDetails
	templates *template.Template
	printer   *message.Printer
}

// NewPDFExporter creates a PDFExporter with parsed templates.
func NewPDFExporter(endpoint string, client *http.Client, company CompanyDetails) (*PDFExporter, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("January 2, 2006")
		},
		"now": func() string {
			return time.Now().Format("January 2, 2006 at 3:04 PM")
		},
	}

	tpl, err := template.New("document_pdf.html").Funcs(funcMap).ParseFS(
		web.Templates, "templates/reports/document_pdf.html",
	)
	if err != nil {
		return nil, fmt.Errorf("parse document template: %w", err)
	}

	return &PDFExporter{
		Endpoint:  endpoint,
		Client:    client,
		Company:   company,
		templates: tpl,
		printer:   message.NewPrinter(language.English),
	}, nil
}

// Amount renders a monetary value with thousands grouping and two decimals.
// Rounding happens only here, never on stored totals.
func (p *PDFExporter) Amount(currency string, value decimal.Decimal) string {
	return p.printer.Sprintf("%s %.2f", currency, value.InexactFloat64())
}

// QuotationPayload builds the rendering payload for a quotation.
func (p *PDFExporter) QuotationPayload(q sales.Quotation) DocumentPayload {
	return DocumentPayload{
		Kind:       "Quotation",
		DocNumber:  q.ID,
		Company:    p.Company,
		Client:     q.Client,
		IssueDate:  q.QuotationDate,
		ClosesDate: q.ExpiryDate,
		ClosesName: "Valid until",
		Status:     string(q.Status),
		Lines:      p.lines(q.Currency, q.Items),
		SubTotal:   p.Amount(q.Currency, q.SubTotal),
		Discount:   p.Amount(q.Currency, q.Discount),
		VATAmount:  p.Amount(q.Currency, q.VATAmount),
		GrandTotal: p.Amount(q.Currency, q.GrandTotal),
		Notes:      q.Notes,
		Currency:   q.Currency,
	}
}

// InvoicePayload builds the rendering payload for an invoice.
func (p *PDFExporter) InvoicePayload(inv sales.Invoice) DocumentPayload {
	return DocumentPayload{
		Kind:       "Invoice",
		DocNumber:  inv.ID,
		Reference:  inv.QuotationID,
		Company:    p.Company,
		Client:     inv.Client,
		IssueDate:  inv.InvoiceDate,
		ClosesDate: inv.DueDate,
		ClosesName: "Due date",
		Status:     string(inv.PaymentStatus),
		Lines:      p.lines(inv.Currency, inv.Items),
		SubTotal:   p.Amount(inv.Currency, inv.SubTotal),
		Discount:   p.Amount(inv.Currency, inv.Discount),
		VATAmount:  p.Amount(inv.Currency, inv.VATAmount),
		GrandTotal: p.Amount(inv.Currency, inv.GrandTotal),
		Notes:      inv.Notes,
		Currency:   inv.Currency,
	}
}

func (p *PDFExporter) lines(currency string, items []sales.LineItem) []DocumentLine {
	lines := make([]DocumentLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, DocumentLine{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   p.Amount(currency, item.UnitPrice),
			Total:       p.Amount(currency, item.Total),
		})
	}
	return lines
}

// Render sends document HTML to Gotenberg and returns the PDF bytes.
func (p *PDFExporter) Render(ctx context.Context, payload DocumentPayload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("pdf exporter not initialized")
	}
	endpoint := strings.TrimRight(p.Endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("gotenberg endpoint required")
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	html, err := p.buildHTML(payload)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write([]byte(html)); err != nil {
		return nil, fmt.Errorf("write html part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call gotenberg: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("gotenberg status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	return io.ReadAll(resp.Body)
}

func (p *PDFExporter) buildHTML(payload DocumentPayload) (string, error) {
	var buf bytes.Buffer
	if err := p.templates.Execute(&buf, payload); err != nil {
		return "", err
	}
	return buf.String(), nil
}
