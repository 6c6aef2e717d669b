package sales

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fids-maurice/expostand/internal/shared"
	"github.com/fids-maurice/expostand/internal/standtypes"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*Service, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(
		logger,
		NewMemoryQuotationRepository(),
		NewMemoryInvoiceRepository(),
		standtypes.Default(),
		nil,
		ServiceConfig{Now: clock.Now},
	)
	return svc, clock
}

func validCreateRequest() CreateQuotationRequest {
	return CreateQuotationRequest{
		Client: ClientDetailsInput{
			Name:  "Indian Ocean Rum Co.",
			Email: "sales@iorc.mu",
		},
		Items: []LineItemInput{
			{StandTypeID: "sme_skybridge", Quantity: 2},
		},
	}
}

func TestCreateQuotationDefaults(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	q, err := svc.CreateQuotation(ctx, validCreateRequest())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(q.ID, "Q-"), "got %s", q.ID)
	assert.Equal(t, StatusToSend, q.Status)
	assert.Equal(t, "MUR", q.Currency)
	assert.Equal(t, clock.Now(), q.QuotationDate)
	assert.Equal(t, clock.Now().AddDate(0, 0, 30), q.ExpiryDate)

	// Catalog list price applies when the caller omits a unit price.
	require.Len(t, q.Items, 1)
	assert.True(t, q.Items[0].UnitPrice.Equal(decimal.NewFromInt(15000)))
	assert.Equal(t, "SME Skybridge", q.Items[0].Description)

	assert.True(t, q.SubTotal.Equal(decimal.NewFromInt(30000)), "subtotal %s", q.SubTotal)
	assert.True(t, q.VATAmount.Equal(decimal.NewFromInt(4500)), "vat %s", q.VATAmount)
	assert.True(t, q.GrandTotal.Equal(decimal.NewFromInt(34500)), "grand %s", q.GrandTotal)
}

func TestCreateQuotationValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := map[string]func(*CreateQuotationRequest){
		"missing client name": func(r *CreateQuotationRequest) { r.Client.Name = "  " },
		"malformed email":     func(r *CreateQuotationRequest) { r.Client.Email = "not-an-email" },
		"no items":            func(r *CreateQuotationRequest) { r.Items = nil },
		"unknown stand type":  func(r *CreateQuotationRequest) { r.Items[0].StandTypeID = "moon_base" },
		"zero quantity":       func(r *CreateQuotationRequest) { r.Items[0].Quantity = 0 },
		"negative unit price": func(r *CreateQuotationRequest) { r.Items[0].UnitPrice = decimal.NewFromInt(-1) },
		"negative discount":   func(r *CreateQuotationRequest) { r.Discount = decimal.NewFromInt(-5) },
		"unknown status":      func(r *CreateQuotationRequest) { r.Status = "Draft" },
	}

	for name, corrupt := range cases {
		t.Run(name, func(t *testing.T) {
			req := validCreateRequest()
			corrupt(&req)
			_, err := svc.CreateQuotation(ctx, req)
			require.Error(t, err)
			assert.True(t, shared.IsValidation(err), "want validation error, got %v", err)
		})
	}

	// Nothing was persisted by the rejected requests.
	list, _, err := svc.ListQuotations(ctx, ListQuotationsRequest{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWonQuotationGeneratesInvoice(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	req := validCreateRequest()
	req.Items = []LineItemInput{{StandTypeID: "main_expo", Quantity: 1}}
	req.Discount = decimal.NewFromInt(10000)
	q, err := svc.CreateQuotation(ctx, req)
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, q.ID, StatusSent)
	require.NoError(t, err)
	won, err := svc.SetStatus(ctx, q.ID, StatusWon)
	require.NoError(t, err)
	assert.Equal(t, StatusWon, won.Status)

	invoices, _, err := svc.ListInvoices(ctx, ListInvoicesRequest{})
	require.NoError(t, err)
	require.Len(t, invoices, 1)

	inv := invoices[0]
	assert.True(t, strings.HasPrefix(inv.ID, "INV-"), "got %s", inv.ID)
	assert.Equal(t, q.ID, inv.QuotationID)
	assert.Equal(t, PaymentUnpaid, inv.PaymentStatus)
	assert.Equal(t, clock.Now(), inv.InvoiceDate)
	assert.Equal(t, clock.Now().AddDate(0, 0, 30), inv.DueDate)
	assert.Equal(t, "Generated from Quotation "+q.ID, inv.Notes)
	assert.True(t, inv.GrandTotal.Equal(decimal.NewFromInt(92000)), "grand %s", inv.GrandTotal)
	assert.True(t, inv.GrandTotal.Equal(won.GrandTotal))
}

func TestWonTransitionIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	q, err := svc.CreateQuotation(ctx, validCreateRequest())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = svc.SetStatus(ctx, q.ID, StatusWon)
		require.NoError(t, err)
	}

	invoices, _, err := svc.ListInvoices(ctx, ListInvoicesRequest{})
	require.NoError(t, err)
	assert.Len(t, invoices, 1)
}

func TestConcurrentWonTransitionsCreateOneInvoice(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	q, err := svc.CreateQuotation(ctx, validCreateRequest())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SetStatus(ctx, q.ID, StatusWon)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	invoices, _, err := svc.ListInvoices(ctx, ListInvoicesRequest{})
	require.NoError(t, err)
	assert.Len(t, invoices, 1)
}

func TestEditWonQuotationRefreshesInvoiceFinancials(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	q, err := svc.CreateQuotation(ctx, validCreateRequest())
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, q.ID, StatusWon)
	require.NoError(t, err)

	before, _, err := svc.ListInvoices(ctx, ListInvoicesRequest{})
	require.NoError(t, err)
	require.Len(t, before, 1)

	// Payment state set out of band must survive the re-sync.
	_, err = svc.SetInvoicePaymentStatus(ctx, before[0].ID, PaymentPaid)
	require.NoError(t, err)

	clock.Advance(48 * time.Hour)
	_, err = svc.UpdateQuotation(ctx, q.ID, UpdateQuotationRequest{
		Client: ClientDetailsInput{Name: "Indian Ocean Rum Co.", Email: "finance@iorc.mu"},
		Items: []LineItemInput{
			{StandTypeID: "sme_skybridge", Quantity: 3},
		},
		Status: StatusWon,
	})
	require.NoError(t, err)

	after, err := svc.GetInvoice(ctx, before[0].ID)
	require.NoError(t, err)
	assert.True(t, after.GrandTotal.Equal(decimal.RequireFromString("51750")), "grand %s", after.GrandTotal)
	assert.Equal(t, "finance@iorc.mu", after.Client.Email)
	require.Len(t, after.Items, 1)
	assert.Equal(t, 3, after.Items[0].Quantity)

	// Invoice-owned fields are never touched by quotation sync.
	assert.Equal(t, before[0].InvoiceDate, after.InvoiceDate)
	assert.Equal(t, before[0].DueDate, after.DueDate)
	assert.Equal(t, PaymentPaid, after.PaymentStatus)

	invoices, _, err := svc.ListInvoices(ctx, ListInvoicesRequest{})
	require.NoError(t, err)
	assert.Len(t, invoices, 1)
}

func TestRevertFromWonKeepsInvoice(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	q, err := svc.CreateQuotation(ctx, validCreateRequest())
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, q.ID, StatusWon)
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, q.ID, StatusRejected)
	require.NoError(t, err)

	invoices, _, err := svc.ListInvoices(ctx, ListInvoicesRequest{})
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	firstID := invoices[0].ID

	// Winning again re-syncs the surviving invoice instead of issuing a second.
	_, err = svc.SetStatus(ctx, q.ID, StatusWon)
	require.NoError(t, err)

	invoices, _, err = svc.ListInvoices(ctx, ListInvoicesRequest{})
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, firstID, invoices[0].ID)
}

func TestCreateQuotationAlreadyWonSyncsImmediately(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := validCreateRequest()
	req.Status = StatusWon
	_, err := svc.CreateQuotation(ctx, req)
	require.NoError(t, err)

	invoices, _, err := svc.ListInvoices(ctx, ListInvoicesRequest{})
	require.NoError(t, err)
	assert.Len(t, invoices, 1)
}

func TestSetStatusUnknownQuotation(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.SetStatus(context.Background(), "Q-missing", StatusSent)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListQuotationsFilterAndPagination(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		q, err := svc.CreateQuotation(ctx, validCreateRequest())
		require.NoError(t, err)
		ids = append(ids, q.ID)
	}
	_, err := svc.SetStatus(ctx, ids[1], StatusSent)
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, ids[3], StatusSent)
	require.NoError(t, err)

	sent := StatusSent
	list, page, err := svc.ListQuotations(ctx, ListQuotationsRequest{Status: &sent})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2, page.Total)
	// Newest-first within the filter.
	assert.Equal(t, ids[3], list[0].ID)
	assert.Equal(t, ids[1], list[1].ID)

	list, page, err = svc.ListQuotations(ctx, ListQuotationsRequest{Page: 2, PerPage: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[1], list[1].ID)
}

func TestSetInvoicePaymentStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	q, err := svc.CreateQuotation(ctx, validCreateRequest())
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, q.ID, StatusWon)
	require.NoError(t, err)
	invoices, _, err := svc.ListInvoices(ctx, ListInvoicesRequest{})
	require.NoError(t, err)
	require.Len(t, invoices, 1)

	inv, err := svc.SetInvoicePaymentStatus(ctx, invoices[0].ID, PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, inv.PaymentStatus)

	_, err = svc.SetInvoicePaymentStatus(ctx, invoices[0].ID, "Settled")
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	_, err = svc.SetInvoicePaymentStatus(ctx, "INV-missing", PaymentPaid)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestMarkOverdueInvoices(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	q, err := svc.CreateQuotation(ctx, validCreateRequest())
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, q.ID, StatusWon)
	require.NoError(t, err)

	// Not yet due.
	count, err := svc.MarkOverdueInvoices(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	clock.Advance(31 * 24 * time.Hour)
	count, err = svc.MarkOverdueInvoices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	invoices, _, err := svc.ListInvoices(ctx, ListInvoicesRequest{})
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, PaymentOverdue, invoices[0].PaymentStatus)

	// Second scan finds nothing unpaid.
	count, err = svc.MarkOverdueInvoices(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
