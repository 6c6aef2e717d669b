package sales

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fids-maurice/expostand/internal/platform/db"
	"github.com/fids-maurice/expostand/internal/shared"
)

// Postgres implementations of the repository ports for the durable-store
// profile. The in-memory store remains the reference semantics; these keep
// the same contracts: newest-first listings, position-preserving updates,
// duplicate-id mapping.

const quotationColumns = `id, client, quotation_date, expiry_date, items, sub_total, discount, vat_amount, grand_total, status, notes, currency, created_at, updated_at`

const invoiceColumns = `id, quotation_id, client, invoice_date, due_date, items, sub_total, discount, vat_amount, grand_total, payment_status, notes, currency, created_at, updated_at`

// EnsureSchema creates the document tables when missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS quotations (
	id TEXT PRIMARY KEY,
	client JSONB NOT NULL,
	quotation_date TIMESTAMPTZ NOT NULL,
	expiry_date TIMESTAMPTZ NOT NULL,
	items JSONB NOT NULL,
	sub_total NUMERIC NOT NULL,
	discount NUMERIC NOT NULL,
	vat_amount NUMERIC NOT NULL,
	grand_total NUMERIC NOT NULL,
	status TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	currency TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS invoices (
	id TEXT PRIMARY KEY,
	quotation_id TEXT,
	client JSONB NOT NULL,
	invoice_date TIMESTAMPTZ NOT NULL,
	due_date TIMESTAMPTZ NOT NULL,
	items JSONB NOT NULL,
	sub_total NUMERIC NOT NULL,
	discount NUMERIC NOT NULL,
	vat_amount NUMERIC NOT NULL,
	grand_total NUMERIC NOT NULL,
	payment_status TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	currency TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS invoices_quotation_id_key ON invoices (quotation_id) WHERE quotation_id <> '';
`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("sales: ensure schema: %w", err)
	}
	return nil
}

func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// SQLQuotationRepository persists quotations in Postgres.
type SQLQuotationRepository struct {
	pool *pgxpool.Pool
}

// NewSQLQuotationRepository constructs the repository.
func NewSQLQuotationRepository(pool *pgxpool.Pool) *SQLQuotationRepository {
	return &SQLQuotationRepository{pool: pool}
}

type quotationRow interface {
	Scan(dest ...any) error
}

func scanQuotation(row quotationRow) (Quotation, error) {
	var q Quotation
	var clientJSON, itemsJSON []byte
	err := row.Scan(
		&q.ID, &clientJSON, &q.QuotationDate, &q.ExpiryDate, &itemsJSON,
		&q.SubTotal, &q.Discount, &q.VATAmount, &q.GrandTotal,
		&q.Status, &q.Notes, &q.Currency, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quotation{}, shared.ErrNotFound
		}
		return Quotation{}, err
	}
	if err := json.Unmarshal(clientJSON, &q.Client); err != nil {
		return Quotation{}, fmt.Errorf("sales: decode client: %w", err)
	}
	if err := json.Unmarshal(itemsJSON, &q.Items); err != nil {
		return Quotation{}, fmt.Errorf("sales: decode items: %w", err)
	}
	return q, nil
}

func quotationArgs(q Quotation) ([]any, error) {
	clientJSON, err := json.Marshal(q.Client)
	if err != nil {
		return nil, fmt.Errorf("sales: encode client: %w", err)
	}
	itemsJSON, err := json.Marshal(q.Items)
	if err != nil {
		return nil, fmt.Errorf("sales: encode items: %w", err)
	}
	return []any{
		q.ID, clientJSON, q.QuotationDate, q.ExpiryDate, itemsJSON,
		q.SubTotal, q.Discount, q.VATAmount, q.GrandTotal,
		q.Status, q.Notes, q.Currency, q.CreatedAt, q.UpdatedAt,
	}, nil
}

// Insert adds a quotation.
func (r *SQLQuotationRepository) Insert(ctx context.Context, q Quotation) error {
	args, err := quotationArgs(q)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO quotations (`+quotationColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`, args...)
	if err != nil {
		if isDuplicateKey(err) {
			return shared.ErrDuplicateID
		}
		return fmt.Errorf("sales: insert quotation: %w", err)
	}
	return nil
}

// Get returns the quotation with the given id.
func (r *SQLQuotationRepository) Get(ctx context.Context, id string) (Quotation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = $1`, id)
	return scanQuotation(row)
}

// Update applies the mutator under a row lock. The created_at ordering key
// is never changed, so list position is preserved.
func (r *SQLQuotationRepository) Update(ctx context.Context, id string, mutate func(*Quotation) error) (Quotation, error) {
	var result Quotation
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = $1 FOR UPDATE`, id)
		q, err := scanQuotation(row)
		if err != nil {
			return err
		}
		createdAt := q.CreatedAt
		if err := mutate(&q); err != nil {
			return err
		}
		q.ID = id
		q.CreatedAt = createdAt
		args, err := quotationArgs(q)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE quotations SET client=$2, quotation_date=$3, expiry_date=$4, items=$5, sub_total=$6, discount=$7, vat_amount=$8, grand_total=$9, status=$10, notes=$11, currency=$12, created_at=$13, updated_at=$14 WHERE id=$1`, args...)
		if err != nil {
			return fmt.Errorf("sales: update quotation: %w", err)
		}
		result = q
		return nil
	})
	if err != nil {
		return Quotation{}, err
	}
	return result, nil
}

// List returns quotations newest-first.
func (r *SQLQuotationRepository) List(ctx context.Context) ([]Quotation, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+quotationColumns+` FROM quotations ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("sales: list quotations: %w", err)
	}
	defer rows.Close()
	var out []Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// SQLInvoiceRepository persists invoices in Postgres.
type SQLInvoiceRepository struct {
	pool *pgxpool.Pool
}

// NewSQLInvoiceRepository constructs the repository.
func NewSQLInvoiceRepository(pool *pgxpool.Pool) *SQLInvoiceRepository {
	return &SQLInvoiceRepository{pool: pool}
}

func scanInvoice(row quotationRow) (Invoice, error) {
	var inv Invoice
	var clientJSON, itemsJSON []byte
	err := row.Scan(
		&inv.ID, &inv.QuotationID, &clientJSON, &inv.InvoiceDate, &inv.DueDate, &itemsJSON,
		&inv.SubTotal, &inv.Discount, &inv.VATAmount, &inv.GrandTotal,
		&inv.PaymentStatus, &inv.Notes, &inv.Currency, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, shared.ErrNotFound
		}
		return Invoice{}, err
	}
	if err := json.Unmarshal(clientJSON, &inv.Client); err != nil {
		return Invoice{}, fmt.Errorf("sales: decode client: %w", err)
	}
	if err := json.Unmarshal(itemsJSON, &inv.Items); err != nil {
		return Invoice{}, fmt.Errorf("sales: decode items: %w", err)
	}
	return inv, nil
}

func invoiceArgs(inv Invoice) ([]any, error) {
	clientJSON, err := json.Marshal(inv.Client)
	if err != nil {
		return nil, fmt.Errorf("sales: encode client: %w", err)
	}
	itemsJSON, err := json.Marshal(inv.Items)
	if err != nil {
		return nil, fmt.Errorf("sales: encode items: %w", err)
	}
	return []any{
		inv.ID, inv.QuotationID, clientJSON, inv.InvoiceDate, inv.DueDate, itemsJSON,
		inv.SubTotal, inv.Discount, inv.VATAmount, inv.GrandTotal,
		inv.PaymentStatus, inv.Notes, inv.Currency, inv.CreatedAt, inv.UpdatedAt,
	}, nil
}

// Insert adds an invoice.
func (r *SQLInvoiceRepository) Insert(ctx context.Context, inv Invoice) error {
	args, err := invoiceArgs(inv)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO invoices (`+invoiceColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`, args...)
	if err != nil {
		if isDuplicateKey(err) {
			return shared.ErrDuplicateID
		}
		return fmt.Errorf("sales: insert invoice: %w", err)
	}
	return nil
}

// Get returns the invoice with the given id.
func (r *SQLInvoiceRepository) Get(ctx context.Context, id string) (Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	return scanInvoice(row)
}

// Update applies the mutator under a row lock.
func (r *SQLInvoiceRepository) Update(ctx context.Context, id string, mutate func(*Invoice) error) (Invoice, error) {
	var result Invoice
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id)
		inv, err := scanInvoice(row)
		if err != nil {
			return err
		}
		createdAt := inv.CreatedAt
		if err := mutate(&inv); err != nil {
			return err
		}
		inv.ID = id
		inv.CreatedAt = createdAt
		args, err := invoiceArgs(inv)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE invoices SET quotation_id=$2, client=$3, invoice_date=$4, due_date=$5, items=$6, sub_total=$7, discount=$8, vat_amount=$9, grand_total=$10, payment_status=$11, notes=$12, currency=$13, created_at=$14, updated_at=$15 WHERE id=$1`, args...)
		if err != nil {
			return fmt.Errorf("sales: update invoice: %w", err)
		}
		result = inv
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	return result, nil
}

// List returns invoices newest-first.
func (r *SQLInvoiceRepository) List(ctx context.Context) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("sales: list invoices: %w", err)
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// GetByQuotationID returns the invoice back-referencing a quotation.
func (r *SQLInvoiceRepository) GetByQuotationID(ctx context.Context, quotationID string) (Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE quotation_id = $1`, quotationID)
	return scanInvoice(row)
}
