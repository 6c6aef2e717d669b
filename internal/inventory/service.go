// Package inventory derives remaining stand-type availability from the
// quotation store. It is a read-only projection recomputed on every query;
// no counter is maintained, so inventory can never drift from the documents
// that justify it.
package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fids-maurice/expostand/internal/observability"
	"github.com/fids-maurice/expostand/internal/sales"
	"github.com/fids-maurice/expostand/internal/shared"
	"github.com/fids-maurice/expostand/internal/standtypes"
)

// QuotationSource yields the quotations whose won line items commit stock.
type QuotationSource interface {
	List(ctx context.Context) ([]sales.Quotation, error)
}

// Availability reports the remaining units of one stand type.
type Availability struct {
	StandTypeID string `json:"stand_type_id"`
	Name        string `json:"name"`
	Cap         int    `json:"cap"`
	Committed   int    `json:"committed"`
	Remaining   int    `json:"remaining"`
}

// Service computes availability projections.
type Service struct {
	logger  *slog.Logger
	quotes  QuotationSource
	catalog *standtypes.Catalog
	metrics *observability.Metrics
}

// NewService constructs the projection service.
func NewService(logger *slog.Logger, quotes QuotationSource, catalog *standtypes.Catalog, metrics *observability.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, quotes: quotes, catalog: catalog, metrics: metrics}
}

func (s *Service) committed(ctx context.Context) (map[string]int, error) {
	quotations, err := s.quotes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("inventory: list quotations: %w", err)
	}
	committed := make(map[string]int)
	for _, q := range quotations {
		if q.Status != sales.StatusWon {
			continue
		}
		for _, item := range q.Items {
			committed[item.StandTypeID] += item.Quantity
		}
	}
	return committed, nil
}

func (s *Service) availability(st standtypes.StandType, committed int) Availability {
	remaining := st.AvailableCap - committed
	if remaining < 0 {
		// Committed quantity above the cap is a data-integrity problem,
		// not a crash: report zero and make the condition observable.
		s.logger.Warn("committed stand quantity exceeds cap",
			slog.String("stand_type_id", st.ID),
			slog.Int("cap", st.AvailableCap),
			slog.Int("committed", committed),
		)
		s.metrics.OversellWarning()
		remaining = 0
	}
	return Availability{
		StandTypeID: st.ID,
		Name:        st.Name,
		Cap:         st.AvailableCap,
		Committed:   committed,
		Remaining:   remaining,
	}
}

// Availability returns the remaining units for one stand type.
func (s *Service) Availability(ctx context.Context, standTypeID string) (Availability, error) {
	st, ok := s.catalog.Get(standTypeID)
	if !ok {
		return Availability{}, shared.ErrNotFound
	}
	committed, err := s.committed(ctx)
	if err != nil {
		return Availability{}, err
	}
	return s.availability(st, committed[st.ID]), nil
}

// Snapshot returns availability for every configured stand type.
func (s *Service) Snapshot(ctx context.Context) ([]Availability, error) {
	committed, err := s.committed(ctx)
	if err != nil {
		return nil, err
	}
	types := s.catalog.List()
	out := make([]Availability, 0, len(types))
	for _, st := range types {
		out = append(out, s.availability(st, committed[st.ID]))
	}
	return out, nil
}
