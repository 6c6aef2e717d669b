package sales

import (
	"context"
	"sync"

	"github.com/fids-maurice/expostand/internal/shared"
)

// QuotationRepository defines data access for quotations. Listings are
// newest-first; Update must preserve list position.
type QuotationRepository interface {
	Insert(ctx context.Context, q Quotation) error
	Get(ctx context.Context, id string) (Quotation, error)
	Update(ctx context.Context, id string, mutate func(*Quotation) error) (Quotation, error)
	List(ctx context.Context) ([]Quotation, error)
}

// InvoiceRepository defines data access for invoices.
type InvoiceRepository interface {
	Insert(ctx context.Context, inv Invoice) error
	Get(ctx context.Context, id string) (Invoice, error)
	Update(ctx context.Context, id string, mutate func(*Invoice) error) (Invoice, error)
	List(ctx context.Context) ([]Invoice, error)
	// GetByQuotationID returns the invoice generated from a quotation, or
	// shared.ErrNotFound. At most one such invoice ever exists; the service
	// enforces that, not the store.
	GetByQuotationID(ctx context.Context, quotationID string) (Invoice, error)
}

// MemoryQuotationRepository is the in-memory ordered system of record.
// Every operation is a single atomic step; List returns an independent
// snapshot so readers never observe partial mutations.
type MemoryQuotationRepository struct {
	mu    sync.RWMutex
	order []string
	docs  map[string]Quotation
}

// NewMemoryQuotationRepository constructs an empty repository.
func NewMemoryQuotationRepository() *MemoryQuotationRepository {
	return &MemoryQuotationRepository{docs: make(map[string]Quotation)}
}

// Insert adds a quotation to the front of the collection.
func (r *MemoryQuotationRepository) Insert(_ context.Context, q Quotation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[q.ID]; ok {
		return shared.ErrDuplicateID
	}
	r.docs[q.ID] = q.Clone()
	r.order = append([]string{q.ID}, r.order...)
	return nil
}

// Get returns the quotation with the given id.
func (r *MemoryQuotationRepository) Get(_ context.Context, id string) (Quotation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.docs[id]
	if !ok {
		return Quotation{}, shared.ErrNotFound
	}
	return q.Clone(), nil
}

// Update atomically replaces the record in place, preserving list position.
func (r *MemoryQuotationRepository) Update(_ context.Context, id string, mutate func(*Quotation) error) (Quotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.docs[id]
	if !ok {
		return Quotation{}, shared.ErrNotFound
	}
	updated := q.Clone()
	if err := mutate(&updated); err != nil {
		return Quotation{}, err
	}
	updated.ID = id
	r.docs[id] = updated
	return updated.Clone(), nil
}

// List returns a newest-first snapshot.
func (r *MemoryQuotationRepository) List(_ context.Context) ([]Quotation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Quotation, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.docs[id].Clone())
	}
	return out, nil
}

// MemoryInvoiceRepository is the in-memory ordered invoice store.
type MemoryInvoiceRepository struct {
	mu    sync.RWMutex
	order []string
	docs  map[string]Invoice
}

// NewMemoryInvoiceRepository constructs an empty repository.
func NewMemoryInvoiceRepository() *MemoryInvoiceRepository {
	return &MemoryInvoiceRepository{docs: make(map[string]Invoice)}
}

// Insert adds an invoice to the front of the collection.
func (r *MemoryInvoiceRepository) Insert(_ context.Context, inv Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[inv.ID]; ok {
		return shared.ErrDuplicateID
	}
	r.docs[inv.ID] = inv.Clone()
	r.order = append([]string{inv.ID}, r.order...)
	return nil
}

// Get returns the invoice with the given id.
func (r *MemoryInvoiceRepository) Get(_ context.Context, id string) (Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.docs[id]
	if !ok {
		return Invoice{}, shared.ErrNotFound
	}
	return inv.Clone(), nil
}

// Update atomically replaces the record in place, preserving list position.
func (r *MemoryInvoiceRepository) Update(_ context.Context, id string, mutate func(*Invoice) error) (Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.docs[id]
	if !ok {
		return Invoice{}, shared.ErrNotFound
	}
	updated := inv.Clone()
	if err := mutate(&updated); err != nil {
		return Invoice{}, err
	}
	updated.ID = id
	r.docs[id] = updated
	return updated.Clone(), nil
}

// List returns a newest-first snapshot.
func (r *MemoryInvoiceRepository) List(_ context.Context) ([]Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Invoice, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.docs[id].Clone())
	}
	return out, nil
}

// GetByQuotationID returns the invoice back-referencing a quotation.
func (r *MemoryInvoiceRepository) GetByQuotationID(_ context.Context, quotationID string) (Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		inv := r.docs[id]
		if inv.QuotationID != "" && inv.QuotationID == quotationID {
			return inv.Clone(), nil
		}
	}
	return Invoice{}, shared.ErrNotFound
}
