package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/clubforge/clubforge/internal/audit"
	jobmetrics "github.com/clubforge/clubforge/internal/jobs"
)

// ReportAuditPort reads audit entries for reporting.
type ReportAuditPort interface {
	Export(ctx context.Context, filters audit.Filters) ([]audit.Entry, error)
}

// AuditVolumeReportJob summarises audit trail volume per action over a
// trailing window and logs the counts for dashboards to scrape.
type AuditVolumeReportJob struct {
	Audit   ReportAuditPort
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewAuditVolumeReportJob wires dependencies for the report handler.
func NewAuditVolumeReportJob(auditSvc ReportAuditPort, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditVolumeReportJob {
	return &AuditVolumeReportJob{
		Audit:   auditSvc,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes audit volume report tasks.
func (j *AuditVolumeReportJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("audit report: handler not configured")
	}
	var payload AuditVolumeReportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WindowDays <= 0 {
		payload.WindowDays = 7
	}

	tracker := j.metrics().Track(TaskAuditVolumeReport)
	var resultErr error
	defer func() {
		tracker.End(resultErr)
	}()

	now := j.clock()
	from := now.AddDate(0, 0, -payload.WindowDays)

	entries, err := j.Audit.Export(ctx, audit.Filters{From: from, To: now})
	if err != nil {
		resultErr = err
		j.logger().Error("load audit entries", slog.Any("error", err))
		return resultErr
	}

	byAction := make(map[string]int)
	denied := 0
	for _, entry := range entries {
		byAction[entry.Action]++
		if entry.Action == audit.ActionAccessDenied {
			denied++
		}
	}

	attrs := []slog.Attr{
		slog.Int("window_days", payload.WindowDays),
		slog.Int("total", len(entries)),
		slog.Int("denied", denied),
	}
	for action, count := range byAction {
		attrs = append(attrs, slog.Int(action, count))
	}
	j.logger().LogAttrs(ctx, slog.LevelInfo, "audit volume report", attrs...)
	return resultErr
}

func (j *AuditVolumeReportJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}

func (j *AuditVolumeReportJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
