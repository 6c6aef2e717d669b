package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/fids-maurice/expostand/internal/sales"
)

// OverdueScanJob flips unpaid invoices past their due date to Overdue. It
// goes through the lifecycle engine so payment-state changes have a single
// owner.
type OverdueScanJob struct {
	service *sales.Service
	logger  *slog.Logger
}

// NewOverdueScanJob constructs the job.
func NewOverdueScanJob(service *sales.Service, logger *slog.Logger) *OverdueScanJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &OverdueScanJob{service: service, logger: logger}
}

// Handle processes TaskTypeOverdueScan tasks.
func (j *OverdueScanJob) Handle(ctx context.Context, _ *asynq.Task) error {
	count, err := j.service.MarkOverdueInvoices(ctx)
	if err != nil {
		j.logger.Error("overdue scan failed", slog.Any("error", err))
		return err
	}
	j.logger.Info("overdue scan finished", slog.Int("updated", count))
	return nil
}
