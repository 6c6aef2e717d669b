package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fids-maurice/expostand/internal/observability"
	"github.com/fids-maurice/expostand/internal/shared"
	"github.com/fids-maurice/expostand/internal/standtypes"
)

var validate = validator.New()

// ServiceConfig carries the financial constants of the engine.
type ServiceConfig struct {
	VATRate         decimal.Decimal
	ValidityDays    int
	DueDays         int
	DefaultCurrency string
	Now             func() time.Time
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.VATRate.IsZero() {
		c.VATRate = decimal.RequireFromString("0.15")
	}
	if c.ValidityDays <= 0 {
		c.ValidityDays = 30
	}
	if c.DueDays <= 0 {
		c.DueDays = 30
	}
	if c.DefaultCurrency == "" {
		c.DefaultCurrency = "MUR"
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Service is the document lifecycle engine. All mutations run serialized
// under one mutex so two concurrent Won transitions for the same quotation
// cannot both pass the find-or-create invoice check. Reads go straight to
// the repositories, which serve consistent snapshots.
type Service struct {
	mu       sync.Mutex
	logger   *slog.Logger
	quotes   QuotationRepository
	invoices InvoiceRepository
	catalog  *standtypes.Catalog
	metrics  *observability.Metrics
	cfg      ServiceConfig
}

// NewService constructs the engine.
func NewService(logger *slog.Logger, quotes QuotationRepository, invoices InvoiceRepository, catalog *standtypes.Catalog, metrics *observability.Metrics, cfg ServiceConfig) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger:   logger,
		quotes:   quotes,
		invoices: invoices,
		catalog:  catalog,
		metrics:  metrics,
		cfg:      cfg.withDefaults(),
	}
}

// Quotations exposes the quotation store for read-only projections.
func (s *Service) Quotations() QuotationRepository {
	return s.quotes
}

func (s *Service) validateClient(c ClientDetailsInput) (ClientDetails, error) {
	if strings.TrimSpace(c.Name) == "" {
		return ClientDetails{}, shared.NewValidationError("client.name", "required")
	}
	if err := validate.Var(c.Email, "required,email"); err != nil {
		return ClientDetails{}, shared.NewValidationError("client.email", "malformed email")
	}
	return ClientDetails{
		Name:    strings.TrimSpace(c.Name),
		Company: c.Company,
		Email:   c.Email,
		Phone:   c.Phone,
		Address: c.Address,
		BRN:     c.BRN,
	}, nil
}

// buildItems materializes line items from inputs. Unit price defaults to the
// catalog list price when omitted; each item total is recomputed here, never
// taken from the caller.
func (s *Service) buildItems(inputs []LineItemInput) ([]LineItem, error) {
	if len(inputs) == 0 {
		return nil, shared.NewValidationError("items", "at least one line item required")
	}
	items := make([]LineItem, 0, len(inputs))
	for i, in := range inputs {
		field := fmt.Sprintf("items[%d]", i)
		st, ok := s.catalog.Get(in.StandTypeID)
		if !ok {
			return nil, shared.NewValidationError(field+".stand_type_id", "unknown stand type")
		}
		if in.Quantity < 1 {
			return nil, shared.NewValidationError(field+".quantity", "must be at least 1")
		}
		price := in.UnitPrice
		if price.IsNegative() {
			return nil, shared.NewValidationError(field+".unit_price", "must not be negative")
		}
		if price.IsZero() {
			price = st.UnitPrice
		}
		description := in.Description
		if description == "" {
			description = st.Name
		}
		items = append(items, LineItem{
			ID:          fmt.Sprintf("item-%d-%s", i+1, uuid.NewString()[:8]),
			StandTypeID: st.ID,
			Description: description,
			Quantity:    in.Quantity,
			UnitPrice:   price,
			Total:       LineTotal(in.Quantity, price),
		})
	}
	return items, nil
}

// CreateQuotation validates, computes totals and persists a new quotation.
// No partial writes: every validation failure happens before the insert.
func (s *Service) CreateQuotation(ctx context.Context, req CreateQuotationRequest) (Quotation, error) {
	client, err := s.validateClient(req.Client)
	if err != nil {
		return Quotation{}, err
	}
	items, err := s.buildItems(req.Items)
	if err != nil {
		return Quotation{}, err
	}
	if req.Discount.IsNegative() {
		return Quotation{}, shared.NewValidationError("discount", "must not be negative")
	}
	status := req.Status
	if status == "" {
		status = StatusToSend
	}
	if !status.Valid() {
		return Quotation{}, shared.NewValidationError("status", "unknown status")
	}
	currency := req.Currency
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}

	now := s.cfg.Now()
	totals := ComputeTotals(items, req.Discount, s.cfg.VATRate)
	q := Quotation{
		ID:            NewDocNumber(PrefixQuotation, client.Name, now),
		Client:        client,
		QuotationDate: now,
		ExpiryDate:    now.AddDate(0, 0, s.cfg.ValidityDays),
		Items:         items,
		SubTotal:      totals.SubTotal,
		Discount:      totals.Discount,
		VATAmount:     totals.VATAmount,
		GrandTotal:    totals.GrandTotal,
		Status:        status,
		Notes:         req.Notes,
		Currency:      currency,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.quotes.Insert(ctx, q); err != nil {
		return Quotation{}, fmt.Errorf("insert quotation: %w", err)
	}
	if q.Status == StatusWon {
		if _, err := s.syncInvoice(ctx, q); err != nil {
			return Quotation{}, err
		}
	}
	s.logger.Info("quotation created", slog.String("id", q.ID), slog.String("status", string(q.Status)))
	return q, nil
}

// UpdateQuotation replaces a quotation's client details, items, discount and
// status, recomputing all derived totals. A transition into Won triggers
// invoice synchronization.
func (s *Service) UpdateQuotation(ctx context.Context, id string, req UpdateQuotationRequest) (Quotation, error) {
	client, err := s.validateClient(req.Client)
	if err != nil {
		return Quotation{}, err
	}
	items, err := s.buildItems(req.Items)
	if err != nil {
		return Quotation{}, err
	}
	if req.Discount.IsNegative() {
		return Quotation{}, shared.NewValidationError("discount", "must not be negative")
	}
	if !req.Status.Valid() {
		return Quotation{}, shared.NewValidationError("status", "unknown status")
	}

	totals := ComputeTotals(items, req.Discount, s.cfg.VATRate)

	s.mu.Lock()
	defer s.mu.Unlock()
	updated, err := s.quotes.Update(ctx, id, func(q *Quotation) error {
		q.Client = client
		q.Items = items
		q.SubTotal = totals.SubTotal
		q.Discount = totals.Discount
		q.VATAmount = totals.VATAmount
		q.GrandTotal = totals.GrandTotal
		q.Status = req.Status
		q.Notes = req.Notes
		if req.Currency != "" {
			q.Currency = req.Currency
		}
		q.UpdatedAt = s.cfg.Now()
		return nil
	})
	if err != nil {
		return Quotation{}, fmt.Errorf("update quotation: %w", err)
	}
	if updated.Status == StatusWon {
		if _, err := s.syncInvoice(ctx, updated); err != nil {
			return Quotation{}, err
		}
	}
	return updated, nil
}

// SetStatus changes only the status of a quotation. It shares the invoice
// synchronization path with UpdateQuotation; there is exactly one place that
// creates or updates invoices.
func (s *Service) SetStatus(ctx context.Context, id string, status QuotationStatus) (Quotation, error) {
	if !status.Valid() {
		return Quotation{}, shared.NewValidationError("status", "unknown status")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	updated, err := s.quotes.Update(ctx, id, func(q *Quotation) error {
		q.Status = status
		q.UpdatedAt = s.cfg.Now()
		return nil
	})
	if err != nil {
		return Quotation{}, fmt.Errorf("set status: %w", err)
	}
	if updated.Status == StatusWon {
		if _, err := s.syncInvoice(ctx, updated); err != nil {
			return Quotation{}, err
		}
	}
	return updated, nil
}

// syncInvoice is the single code path that creates or updates the invoice
// belonging to a won quotation. It is idempotent: at most one invoice exists
// per quotation id. When the invoice already exists its client details and
// financial fields are refreshed; invoice date, due date and payment status
// are invoice-owned and never touched here.
//
// Reverting a quotation away from Won does not retract the invoice. That is
// a product policy, not an engineering default: once issued, invoices are
// never silently deleted by a status edit.
//
// Callers must hold s.mu.
func (s *Service) syncInvoice(ctx context.Context, q Quotation) (Invoice, error) {
	existing, err := s.invoices.GetByQuotationID(ctx, q.ID)
	if err == nil {
		updated, err := s.invoices.Update(ctx, existing.ID, func(inv *Invoice) error {
			inv.Client = q.Client
			inv.Items = cloneItems(q.Items)
			inv.SubTotal = q.SubTotal
			inv.Discount = q.Discount
			inv.VATAmount = q.VATAmount
			inv.GrandTotal = q.GrandTotal
			inv.Currency = q.Currency
			inv.UpdatedAt = s.cfg.Now()
			return nil
		})
		if err != nil {
			return Invoice{}, fmt.Errorf("sync invoice: %w", err)
		}
		s.logger.Info("invoice synchronized", slog.String("invoice_id", updated.ID), slog.String("quotation_id", q.ID))
		return updated, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return Invoice{}, fmt.Errorf("lookup invoice: %w", err)
	}

	now := s.cfg.Now()
	inv := Invoice{
		ID:            NewDocNumber(PrefixInvoice, q.Client.Name, now),
		QuotationID:   q.ID,
		Client:        q.Client,
		InvoiceDate:   now,
		DueDate:       now.AddDate(0, 0, s.cfg.DueDays),
		Items:         cloneItems(q.Items),
		SubTotal:      q.SubTotal,
		Discount:      q.Discount,
		VATAmount:     q.VATAmount,
		GrandTotal:    q.GrandTotal,
		PaymentStatus: PaymentUnpaid,
		Notes:         "Generated from Quotation " + q.ID,
		Currency:      q.Currency,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.invoices.Insert(ctx, inv); err != nil {
		return Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
	if s.metrics != nil {
		s.metrics.InvoiceGenerated()
	}
	s.logger.Info("invoice generated", slog.String("invoice_id", inv.ID), slog.String("quotation_id", q.ID))
	return inv, nil
}

// GetQuotation returns a quotation by id.
func (s *Service) GetQuotation(ctx context.Context, id string) (Quotation, error) {
	return s.quotes.Get(ctx, id)
}

// ListQuotations returns a newest-first page of quotations.
func (s *Service) ListQuotations(ctx context.Context, req ListQuotationsRequest) ([]Quotation, shared.Pagination, error) {
	all, err := s.quotes.List(ctx)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	if req.Status != nil {
		filtered := all[:0]
		for _, q := range all {
			if q.Status == *req.Status {
				filtered = append(filtered, q)
			}
		}
		all = filtered
	}
	page := shared.NewPagination(req.Page, req.PerPage, len(all))
	start, end := page.Slice(len(all))
	return all[start:end], page, nil
}

// GetInvoice returns an invoice by id.
func (s *Service) GetInvoice(ctx context.Context, id string) (Invoice, error) {
	return s.invoices.Get(ctx, id)
}

// ListInvoices returns a newest-first page of invoices.
func (s *Service) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, shared.Pagination, error) {
	all, err := s.invoices.List(ctx)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	if req.PaymentStatus != nil {
		filtered := all[:0]
		for _, inv := range all {
			if inv.PaymentStatus == *req.PaymentStatus {
				filtered = append(filtered, inv)
			}
		}
		all = filtered
	}
	page := shared.NewPagination(req.Page, req.PerPage, len(all))
	start, end := page.Slice(len(all))
	return all[start:end], page, nil
}

// SetInvoicePaymentStatus updates the payment state of an invoice. Payment
// status is the only invoice field mutable outside quotation sync.
func (s *Service) SetInvoicePaymentStatus(ctx context.Context, id string, status PaymentStatus) (Invoice, error) {
	if !status.Valid() {
		return Invoice{}, shared.NewValidationError("payment_status", "unknown payment status")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	updated, err := s.invoices.Update(ctx, id, func(inv *Invoice) error {
		inv.PaymentStatus = status
		inv.UpdatedAt = s.cfg.Now()
		return nil
	})
	if err != nil {
		return Invoice{}, fmt.Errorf("set payment status: %w", err)
	}
	return updated, nil
}

// MarkOverdueInvoices flips unpaid invoices past their due date to Overdue
// and returns how many were updated. Invoked by the periodic scan job.
func (s *Service) MarkOverdueInvoices(ctx context.Context) (int, error) {
	all, err := s.invoices.List(ctx)
	if err != nil {
		return 0, err
	}
	now := s.cfg.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, inv := range all {
		if inv.PaymentStatus != PaymentUnpaid || !inv.DueDate.Before(now) {
			continue
		}
		if _, err := s.invoices.Update(ctx, inv.ID, func(inv *Invoice) error {
			if inv.PaymentStatus != PaymentUnpaid {
				return nil
			}
			inv.PaymentStatus = PaymentOverdue
			inv.UpdatedAt = now
			return nil
		}); err != nil {
			return count, fmt.Errorf("mark overdue %s: %w", inv.ID, err)
		}
		count++
	}
	if count > 0 {
		s.logger.Info("invoices marked overdue", slog.Int("count", count))
	}
	return count, nil
}
