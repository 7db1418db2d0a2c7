package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportsWarmup pre-computes the monthly report cache.
	TaskReportsWarmup = "reports:warmup"
	// TaskLowStockScan flags products at or below their minimum stock.
	TaskLowStockScan = "catalog:lowstock_scan"
)

// ReportsWarmupPayload configures a warmup run.
type ReportsWarmupPayload struct {
	Reason string `json:"reason"`
}

// NewReportsWarmupTask constructs an Asynq task for the report warmup.
func NewReportsWarmupTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(ReportsWarmupPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportsWarmup, data), nil
}

// NewLowStockScanTask constructs an Asynq task for the low stock scan.
func NewLowStockScanTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskLowStockScan, nil), nil
}
