package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/dentastock/dentastock/internal/reports"
)

// ReportWarmupJob refreshes the monthly report cache so the first dashboard
// hit of the day is served warm.
type ReportWarmupJob struct {
	Reports *reports.Service
	Logger  *slog.Logger
}

// NewReportWarmupJob wires dependencies for the warmup handler.
func NewReportWarmupJob(reportsSvc *reports.Service, logger *slog.Logger) *ReportWarmupJob {
	return &ReportWarmupJob{Reports: reportsSvc, Logger: logger}
}

// Handle processes TaskReportsWarmup tasks.
func (j *ReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("report warmup: handler not configured")
	}
	var payload ReportsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	j.Logger.Info("starting report warmup", slog.String("reason", payload.Reason))
	if err := j.Reports.RefreshMonthly(ctx); err != nil {
		j.Logger.Error("report warmup failed", slog.Any("error", err))
		return err
	}
	j.Logger.Info("report warmup done")
	return nil
}
