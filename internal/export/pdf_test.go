package export

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fids-maurice/expostand/internal/sales"
)

func testExporter(t *testing.T, endpoint string) *PDFExporter {
	t.Helper()
	exporter, err := NewPDFExporter(endpoint, http.DefaultClient, CompanyDetails{
		Name:    "FIDS Maurice Ltd",
		Address: "Port Louis, Mauritius",
		Phone:   "+230 000 0000",
		Email:   "events@fids.mu",
	})
	require.NoError(t, err)
	return exporter
}

func testQuotation() sales.Quotation {
	issued := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	return sales.Quotation{
		ID: "Q-indianoceanr-20260202-100000-abcd1234",
		Client: sales.ClientDetails{
			Name:  "Indian Ocean Rum Co.",
			Email: "sales@iorc.mu",
		},
		QuotationDate: issued,
		ExpiryDate:    issued.AddDate(0, 0, 30),
		Items: []sales.LineItem{{
			ID:          "item-1-abcd1234",
			StandTypeID: "main_expo",
			Description: "Main Expo",
			Quantity:    2,
			UnitPrice:   decimal.NewFromInt(90000),
			Total:       decimal.NewFromInt(180000),
		}},
		SubTotal:   decimal.NewFromInt(180000),
		Discount:   decimal.Zero,
		VATAmount:  decimal.NewFromInt(27000),
		GrandTotal: decimal.NewFromInt(207000),
		Status:     sales.StatusSent,
		Currency:   "MUR",
	}
}

func TestAmountFormatting(t *testing.T) {
	exporter := testExporter(t, "http://gotenberg:3000")

	assert.Equal(t, "MUR 207,000.00", exporter.Amount("MUR", decimal.NewFromInt(207000)))
	assert.Equal(t, "MUR 0.00", exporter.Amount("MUR", decimal.Zero))
	assert.Equal(t, "MUR 1,234.50", exporter.Amount("MUR", decimal.RequireFromString("1234.5")))
}

func TestQuotationPayload(t *testing.T) {
	exporter := testExporter(t, "http://gotenberg:3000")
	q := testQuotation()

	payload := exporter.QuotationPayload(q)
	assert.Equal(t, "Quotation", payload.Kind)
	assert.Equal(t, q.ID, payload.DocNumber)
	assert.Equal(t, "Valid until", payload.ClosesName)
	assert.Equal(t, q.ExpiryDate, payload.ClosesDate)
	assert.Equal(t, "MUR 207,000.00", payload.GrandTotal)
	require.Len(t, payload.Lines, 1)
	assert.Equal(t, "MUR 180,000.00", payload.Lines[0].Total)
}

func TestInvoicePayloadCarriesReference(t *testing.T) {
	exporter := testExporter(t, "http://gotenberg:3000")
	inv := sales.Invoice{
		ID:            "INV-indianoceanr-20260202-100000-abcd1234",
		QuotationID:   "Q-indianoceanr-20260202-100000-abcd1234",
		Client:        sales.ClientDetails{Name: "Indian Ocean Rum Co."},
		GrandTotal:    decimal.NewFromInt(207000),
		PaymentStatus: sales.PaymentUnpaid,
		Currency:      "MUR",
	}

	payload := exporter.InvoicePayload(inv)
	assert.Equal(t, "Invoice", payload.Kind)
	assert.Equal(t, inv.QuotationID, payload.Reference)
	assert.Equal(t, "Due date", payload.ClosesName)
	assert.Equal(t, string(sales.PaymentUnpaid), payload.Status)
}

func TestRenderPostsHTMLToGotenberg(t *testing.T) {
	var gotPath string
	var gotHTML string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, _, err := r.FormFile("files")
		require.NoError(t, err)
		defer file.Close()
		buf := make([]byte, 1<<20)
		n, _ := file.Read(buf)
		gotHTML = string(buf[:n])
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer server.Close()

	exporter := testExporter(t, server.URL)
	pdf, err := exporter.Render(context.Background(), exporter.QuotationPayload(testQuotation()))
	require.NoError(t, err)

	assert.Equal(t, "/forms/chromium/convert/html", gotPath)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
	assert.Contains(t, gotHTML, "Q-indianoceanr-20260202-100000-abcd1234")
	assert.Contains(t, gotHTML, "FIDS Maurice Ltd")
	assert.Contains(t, gotHTML, "MUR 207,000.00")
}

func TestRenderSurfacesGotenbergError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "conversion failed", http.StatusInternalServerError)
	}))
	defer server.Close()

	exporter := testExporter(t, server.URL)
	_, err := exporter.Render(context.Background(), exporter.QuotationPayload(testQuotation()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestQuotationDraft(t *testing.T) {
	exporter := testExporter(t, "http://gotenberg:3000")
	q := testQuotation()

	draft := exporter.QuotationDraft(q)
	assert.Equal(t, "sales@iorc.mu", draft.To)
	assert.Contains(t, draft.Subject, q.ID)
	assert.Contains(t, draft.Body, "Dear Indian Ocean Rum Co.")
	assert.Contains(t, draft.Body, "Main Expo x2")
	assert.Contains(t, draft.Body, "Grand total: MUR 207,000.00")
	assert.Contains(t, draft.Body, "valid until March 4, 2026")
}

func TestInvoiceDraft(t *testing.T) {
	exporter := testExporter(t, "http://gotenberg:3000")
	due := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	inv := sales.Invoice{
		ID:         "INV-acme-20260202-100000-abcd1234",
		Client:     sales.ClientDetails{Name: "Acme", Email: "billing@acme.mu"},
		DueDate:    due,
		GrandTotal: decimal.NewFromInt(34500),
		Currency:   "MUR",
	}

	draft := exporter.InvoiceDraft(inv)
	assert.Equal(t, "billing@acme.mu", draft.To)
	assert.Contains(t, draft.Body, "Amount due: MUR 34,500.00")
	assert.Contains(t, draft.Body, "due by March 4, 2026")
}
