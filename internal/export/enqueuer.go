package export

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
)

// Enqueuer submits export jobs to the task queue.
type Enqueuer struct {
	Client *asynq.Client
	Queue  string
}

// Enqueue schedules an export of the given invoice and returns the task id.
func (e *Enqueuer) Enqueue(ctx context.Context, invoiceNumber string) (string, error) {
	if e == nil || e.Client == nil {
		return "", fmt.Errorf("export: task queue not configured")
	}
	task, err := NewInvoiceExportTask(invoiceNumber)
	if err != nil {
		return "", err
	}
	opts := []asynq.Option{asynq.MaxRetry(3)}
	if e.Queue != "" {
		opts = append(opts, asynq.Queue(e.Queue))
	}
	info, err := e.Client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return "", fmt.Errorf("export: enqueue task: %w", err)
	}
	return info.ID, nil
}
