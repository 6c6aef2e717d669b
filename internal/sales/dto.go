package sales

import (
	"github.com/shopspring/decimal"
)

type ClientDetailsInput struct {
	Name    string `json:"name" validate:"required"`
	Company string `json:"company,omitempty"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	BRN     string `json:"brn,omitempty"`
}

type LineItemInput struct {
	StandTypeID string          `json:"stand_type_id" validate:"required"`
	Description string          `json:"description,omitempty"`
	Quantity    int             `json:"quantity" validate:"required,gte=1"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type CreateQuotationRequest struct {
	Client   ClientDetailsInput `json:"client" validate:"required"`
	Items    []LineItemInput    `json:"items" validate:"required,min=1,dive"`
	Discount decimal.Decimal    `json:"discount"`
	Status   QuotationStatus    `json:"status,omitempty"`
	Notes    string             `json:"notes,omitempty"`
	Currency string             `json:"currency,omitempty" validate:"omitempty,len=3"`
}

// UpdateQuotationRequest is a full-record edit; totals are always recomputed
// from the submitted items and discount.
type UpdateQuotationRequest struct {
	Client   ClientDetailsInput `json:"client" validate:"required"`
	Items    []LineItemInput    `json:"items" validate:"required,min=1,dive"`
	Discount decimal.Decimal    `json:"discount"`
	Status   QuotationStatus    `json:"status" validate:"required"`
	Notes    string             `json:"notes,omitempty"`
	Currency string             `json:"currency,omitempty" validate:"omitempty,len=3"`
}

type SetStatusRequest struct {
	Status QuotationStatus `json:"status" validate:"required"`
}

type SetPaymentStatusRequest struct {
	PaymentStatus PaymentStatus `json:"payment_status" validate:"required"`
}

type ListQuotationsRequest struct {
	Status  *QuotationStatus `json:"status,omitempty"`
	Page    int              `json:"page" validate:"gte=0"`
	PerPage int              `json:"per_page" validate:"gte=0,lte=1000"`
}

type ListInvoicesRequest struct {
	PaymentStatus *PaymentStatus `json:"payment_status,omitempty"`
	Page          int            `json:"page" validate:"gte=0"`
	PerPage       int            `json:"per_page" validate:"gte=0,lte=1000"`
}
