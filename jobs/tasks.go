package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskEntitlementSweep marks clubs whose owner entitlement lapsed.
	TaskEntitlementSweep = "subscription:entitlement_sweep"
	// TaskAuditVolumeReport summarises audit trail volume per action.
	TaskAuditVolumeReport = "audit:volume_report"
)

// EntitlementSweepPayload configures a sweep run.
type EntitlementSweepPayload struct {
	// DryRun skips audit writes and only logs what would lapse.
	DryRun bool `json:"dry_run"`
}

// NewEntitlementSweepTask constructs an Asynq task.
func NewEntitlementSweepTask(payload EntitlementSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEntitlementSweep, data), nil
}

// AuditVolumeReportPayload configures the reporting window in days.
type AuditVolumeReportPayload struct {
	WindowDays int `json:"window_days"`
}

// NewAuditVolumeReportTask constructs an Asynq task.
func NewAuditVolumeReportTask(payload AuditVolumeReportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditVolumeReport, data), nil
}
