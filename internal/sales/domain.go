package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuotationStatus enumerates quotation statuses.
type QuotationStatus string

const (
	StatusToSend   QuotationStatus = "To Send"
	StatusSent     QuotationStatus = "Sent"
	StatusWon      QuotationStatus = "Won"
	StatusRejected QuotationStatus = "Rejected"
)

// Valid reports whether the status is one of the allowed values.
func (s QuotationStatus) Valid() bool {
	switch s {
	case StatusToSend, StatusSent, StatusWon, StatusRejected:
		return true
	}
	return false
}

// PaymentStatus enumerates invoice payment statuses.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "Unpaid"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentOverdue PaymentStatus = "Overdue"
)

// Valid reports whether the payment status is one of the allowed values.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentUnpaid, PaymentPaid, PaymentOverdue:
		return true
	}
	return false
}

// ClientDetails is embedded in both document types. Name and Email are
// required; Email is the send/notify target for drafts and exports.
type ClientDetails struct {
	Name    string `json:"name" db:"client_name"`
	Company string `json:"company,omitempty" db:"client_company"`
	Email   string `json:"email" db:"client_email"`
	Phone   string `json:"phone,omitempty" db:"client_phone"`
	Address string `json:"address,omitempty" db:"client_address"`
	BRN     string `json:"brn,omitempty" db:"client_brn"`
}

// LineItem is a priced position on a document. Total always equals
// Quantity * UnitPrice and is recomputed whenever either changes.
type LineItem struct {
	ID          string          `json:"id"`
	StandTypeID string          `json:"stand_type_id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// Totals groups the derived monetary fields of a document.
type Totals struct {
	SubTotal   decimal.Decimal `json:"sub_total"`
	Discount   decimal.Decimal `json:"discount"`
	VATAmount  decimal.Decimal `json:"vat_amount"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// Quotation is a priced offer to a client. The id is immutable once
// created; monetary fields are derived and never hand-edited.
type Quotation struct {
	ID            string          `json:"id"`
	Client        ClientDetails   `json:"client"`
	QuotationDate time.Time       `json:"quotation_date"`
	ExpiryDate    time.Time       `json:"expiry_date"`
	Items         []LineItem      `json:"items"`
	SubTotal      decimal.Decimal `json:"sub_total"`
	Discount      decimal.Decimal `json:"discount"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	Status        QuotationStatus `json:"status"`
	Notes         string          `json:"notes,omitempty"`
	Currency      string          `json:"currency"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Invoice is the billing record generated once a quotation is won.
// InvoiceDate, DueDate and PaymentStatus are invoice-owned after creation:
// quotation synchronization never touches them.
type Invoice struct {
	ID            string          `json:"id"`
	QuotationID   string          `json:"quotation_id,omitempty"`
	Client        ClientDetails   `json:"client"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	DueDate       time.Time       `json:"due_date"`
	Items         []LineItem      `json:"items"`
	SubTotal      decimal.Decimal `json:"sub_total"`
	Discount      decimal.Decimal `json:"discount"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	Notes         string          `json:"notes,omitempty"`
	Currency      string          `json:"currency"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func cloneItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

// Clone returns an independent copy safe to hand to callers.
func (q Quotation) Clone() Quotation {
	q.Items = cloneItems(q.Items)
	return q
}

// Clone returns an independent copy safe to hand to callers.
func (inv Invoice) Clone() Invoice {
	inv.Items = cloneItems(inv.Items)
	return inv
}
