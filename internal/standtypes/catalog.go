// Package standtypes holds the exhibition's stand-type configuration. The
// catalog is immutable at runtime; availability against it is derived from
// won quotations, never stored here.
package standtypes

import (
	"github.com/shopspring/decimal"
)

// StandType describes a sellable category of exhibition space.
type StandType struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	AvailableCap int             `json:"available_cap"`
	MinArea      string          `json:"min_area"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Currency     string          `json:"currency"`
	Remarks      string          `json:"remarks,omitempty"`
}

// Catalog is a read-only lookup table of stand types.
type Catalog struct {
	types []StandType
	byID  map[string]StandType
}

// NewCatalog builds a catalog from a static table.
func NewCatalog(types []StandType) *Catalog {
	byID := make(map[string]StandType, len(types))
	for _, st := range types {
		byID[st.ID] = st
	}
	return &Catalog{types: types, byID: byID}
}

// Get looks up a stand type by id.
func (c *Catalog) Get(id string) (StandType, bool) {
	st, ok := c.byID[id]
	return st, ok
}

// List returns all stand types in configuration order.
func (c *Catalog) List() []StandType {
	out := make([]StandType, len(c.types))
	copy(out, c.types)
	return out
}

// Default returns the catalog for the current exhibition.
func Default() *Catalog {
	price := func(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
	return NewCatalog([]StandType{
		{ID: "sme_skybridge", Name: "SME Skybridge", AvailableCap: 60, MinArea: "9m²", UnitPrice: price(15000), Currency: "MUR"},
		{ID: "souk_zone", Name: "Souk Zone", AvailableCap: 14, MinArea: "9m²", UnitPrice: price(45000), Currency: "MUR"},
		{ID: "regional_pavilions", Name: "Regional Pavilions", AvailableCap: 6, MinArea: "<200m² - 15 Stands Max", UnitPrice: price(1200000), Currency: "MUR"},
		{ID: "main_expo", Name: "Main Expo", AvailableCap: 30, MinArea: "9m²", UnitPrice: price(90000), Currency: "MUR"},
		{ID: "foodcourt_stations", Name: "Foodcourt Cooking Stations", AvailableCap: 12, MinArea: "9m²", UnitPrice: price(20000), Currency: "MUR", Remarks: "Revenue sharing 70/30"},
		{ID: "gastronomic_pavilions", Name: "Gastronomic Pavilions", AvailableCap: 3, MinArea: "<300m²", UnitPrice: price(1400000), Currency: "MUR"},
	})
}
