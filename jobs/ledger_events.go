package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/shared"
	"github.com/HcVm/bytek-core-sub001/internal/integration"
	jobmetrics "github.com/HcVm/bytek-core-sub001/internal/jobs"
)

// Business events other modules publish for the ledger.
const (
	TaskInvoiceIssued     = "gl:event:invoice_issued"
	TaskPaymentCollected  = "gl:event:payment_collected"
	TaskInventoryReceived = "gl:event:inventory_received"
	TaskPayrollAccrued    = "gl:event:payroll_accrued"
)

// EventPoster turns business events into journal entries.
type EventPoster interface {
	HandleInvoiceIssued(ctx context.Context, evt integration.InvoiceIssued) error
	HandlePaymentCollected(ctx context.Context, evt integration.PaymentCollected) error
	HandleInventoryReceived(ctx context.Context, evt integration.InventoryReceived) error
	HandlePayrollAccrued(ctx context.Context, evt integration.PayrollAccrued) error
}

// NewBusinessEventTask wraps evt in a task of the given type.
func NewBusinessEventTask(taskType string, evt any) (*asynq.Task, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body, asynq.Queue(QueueDefault), asynq.MaxRetry(10)), nil
}

// BusinessEventJob consumes business events and posts them.
type BusinessEventJob struct {
	Poster  EventPoster
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewBusinessEventJob constructs the event consumer.
func NewBusinessEventJob(poster EventPoster, logger *slog.Logger, metrics *jobmetrics.Metrics) *BusinessEventJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &BusinessEventJob{Poster: poster, Logger: logger, Metrics: metrics}
}

// Handlers lists one asynq handler per event type.
func (j *BusinessEventJob) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskInvoiceIssued, Handler: consume(j, TaskInvoiceIssued, j.Poster.HandleInvoiceIssued)},
		{Type: TaskPaymentCollected, Handler: consume(j, TaskPaymentCollected, j.Poster.HandlePaymentCollected)},
		{Type: TaskInventoryReceived, Handler: consume(j, TaskInventoryReceived, j.Poster.HandleInventoryReceived)},
		{Type: TaskPayrollAccrued, Handler: consume(j, TaskPayrollAccrued, j.Poster.HandlePayrollAccrued)},
	}
}

func consume[E any](j *BusinessEventJob, taskType string, handle func(context.Context, E) error) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var evt E
		if err := json.Unmarshal(task.Payload(), &evt); err != nil {
			j.Logger.Error("decode business event", slog.String("task", taskType), slog.Any("error", err))
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		tracker := j.Metrics.Track(taskType)
		err := handle(ctx, evt)
		if err != nil {
			j.Logger.Warn("post business event", slog.String("task", taskType), slog.Any("error", err))
			if permanent(err) {
				err = fmt.Errorf("%w: %w", asynq.SkipRetry, err)
			}
		}
		return tracker.End(err)
	}
}

// permanent reports errors a retry cannot fix. Malformed events, rejected
// entries and missing periods or mappings need a person; asynq archives the
// task so it can be replayed once the event, chart or calendar is fixed.
func permanent(err error) bool {
	if errors.Is(err, shared.ErrMappingNotFound) || errors.Is(err, shared.ErrInvalidInput) {
		return true
	}
	_, ok := shared.KindOf(err)
	return ok
}
