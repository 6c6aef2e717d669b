package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fids-maurice/expostand/internal/sales"
	"github.com/fids-maurice/expostand/internal/standtypes"
)

func TestDocumentEmailTaskRoundTrip(t *testing.T) {
	task, err := NewDocumentEmailTask(DocumentEmailPayload{
		To:      "billing@acme.mu",
		Subject: "Invoice INV-acme-1",
		Body:    "Amount due: MUR 34,500.00",
	})
	require.NoError(t, err)
	assert.Equal(t, TaskTypeDocumentEmail, task.Type())

	require.NoError(t, HandleDocumentEmailTask(context.Background(), task))
}

func TestHandleDocumentEmailTaskBadPayload(t *testing.T) {
	task := asynq.NewTask(TaskTypeDocumentEmail, []byte("{broken"))
	err := HandleDocumentEmailTask(context.Background(), task)
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry), "malformed payloads must not be retried")
}

func TestOverdueScanJob(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	svc := sales.NewService(
		logger,
		sales.NewMemoryQuotationRepository(),
		sales.NewMemoryInvoiceRepository(),
		standtypes.Default(),
		nil,
		sales.ServiceConfig{Now: func() time.Time { return now }},
	)

	ctx := context.Background()
	_, err := svc.CreateQuotation(ctx, sales.CreateQuotationRequest{
		Client: sales.ClientDetailsInput{Name: "Acme", Email: "billing@acme.mu"},
		Items:  []sales.LineItemInput{{StandTypeID: "souk_zone", Quantity: 1}},
		Status: sales.StatusWon,
	})
	require.NoError(t, err)

	now = now.AddDate(0, 0, 31)
	job := NewOverdueScanJob(svc, logger)
	require.NoError(t, job.Handle(ctx, NewOverdueScanTask()))

	overdue := sales.PaymentOverdue
	invoices, _, err := svc.ListInvoices(ctx, sales.ListInvoicesRequest{PaymentStatus: &overdue})
	require.NoError(t, err)
	assert.Len(t, invoices, 1)

	require.NoError(t, job.Handle(ctx, NewOverdueScanTask()))
}
