package sales

import "github.com/shopspring/decimal"

// ComputeTotals derives the monetary fields of a document from its line
// items and discount. Each item's Total must already equal
// Quantity * UnitPrice; keeping that invariant is the caller's job whenever
// quantity, price or stand type changes.
//
// The discount is clamped so the taxable amount never goes negative. VAT
// applies to the discounted amount. The function is pure and must be
// re-invoked at every mutation boundary; derived totals are never cached.
func ComputeTotals(items []LineItem, discount, vatRate decimal.Decimal) Totals {
	subTotal := decimal.Zero
	for _, item := range items {
		subTotal = subTotal.Add(item.Total)
	}

	taxable := subTotal.Sub(discount)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}

	vat := taxable.Mul(vatRate)
	return Totals{
		SubTotal:   subTotal,
		Discount:   discount,
		VATAmount:  vat,
		GrandTotal: taxable.Add(vat),
	}
}

// LineTotal computes a line item's total from quantity and unit price.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
