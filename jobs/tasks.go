package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskGLIntegrity replays the ledger and checks that it still balances.
	TaskGLIntegrity = "gl:integrity"
	// TaskReportWarmup rebuilds cached statements after a cache bump.
	TaskReportWarmup = "gl:report_warmup"
)

// GLIntegrityPayload configures an integrity run.
type GLIntegrityPayload struct {
	// ReplayAccounts also replays every account ledger against the trial balance.
	ReplayAccounts bool `json:"replay_accounts"`
}

// ReportWarmupPayload carries the cache version that triggered the warm-up.
type ReportWarmupPayload struct {
	Version int64 `json:"version"`
}

// NewGLIntegrityTask constructs an Asynq task for the integrity check.
func NewGLIntegrityTask(payload GLIntegrityPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGLIntegrity, body, asynq.Queue(QueueDefault)), nil
}

// NewReportWarmupTask constructs a warm-up task. Tasks for the same version
// share an id so a burst of postings enqueues a single rebuild per version.
func NewReportWarmupTask(version int64) (*asynq.Task, error) {
	body, err := json.Marshal(ReportWarmupPayload{Version: version})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, body,
		asynq.Queue(QueueDefault),
		asynq.TaskID(fmt.Sprintf("report-warmup-%d", version)),
		asynq.MaxRetry(1),
	), nil
}
