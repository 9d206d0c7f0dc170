package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/clubforge/clubforge/internal/audit"
	"github.com/clubforge/clubforge/internal/directory"
	jobmetrics "github.com/clubforge/clubforge/internal/jobs"
)

// SweepDirectoryPort lists clubs and resolves their owners.
type SweepDirectoryPort interface {
	ListClubs(ctx context.Context) ([]directory.ClubRef, error)
	GetUser(ctx context.Context, id string) (directory.User, error)
}

// SweepGatePort answers entitlement questions for club owners.
type SweepGatePort interface {
	HasActiveEntitlement(ctx context.Context, userID string) (bool, error)
}

// SweepAuditPort records lapsed entitlements on the audit trail.
type SweepAuditPort interface {
	Record(entry audit.Entry) uuid.UUID
}

// EntitlementSweepJob walks every club and records an audit entry for each
// one whose owner no longer holds an active entitlement. The sweep never
// mutates club or user state.
type EntitlementSweepJob struct {
	Directory SweepDirectoryPort
	Gate      SweepGatePort
	Recorder  SweepAuditPort
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewEntitlementSweepJob wires dependencies for the sweep handler.
func NewEntitlementSweepJob(dir SweepDirectoryPort, gate SweepGatePort, recorder SweepAuditPort, logger *slog.Logger, metrics *jobmetrics.Metrics) *EntitlementSweepJob {
	return &EntitlementSweepJob{
		Directory: dir,
		Gate:      gate,
		Recorder:  recorder,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes entitlement sweep tasks.
func (j *EntitlementSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("entitlement sweep: handler not configured")
	}
	var payload EntitlementSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskEntitlementSweep)
	var resultErr error
	defer func() {
		tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Bool("dry_run", payload.DryRun))
	logger.Info("starting entitlement sweep")

	clubs, err := j.Directory.ListClubs(ctx)
	if err != nil {
		resultErr = err
		logger.Error("list clubs", slog.Any("error", err))
		return resultErr
	}

	lapsed := 0
	for _, club := range clubs {
		entitled, err := j.Gate.HasActiveEntitlement(ctx, club.OwnerID)
		if err != nil {
			resultErr = err
			logger.Error("check entitlement", slog.String("club_id", club.ID), slog.Any("error", err))
			return resultErr
		}
		if entitled {
			continue
		}
		lapsed++
		plan := j.ownerPlan(ctx, club.OwnerID)
		j.metrics().AddLapsed(plan, 1)
		if payload.DryRun {
			logger.Info("entitlement lapsed (dry run)", slog.String("club_id", club.ID), slog.String("owner_id", club.OwnerID))
			continue
		}
		j.Recorder.Record(audit.Entry{
			Action:     audit.ActionSubscriptionLapsed,
			ActorID:    "system",
			TargetID:   club.OwnerID,
			ResourceID: club.ID,
			ClubID:     club.ID,
			Meta: map[string]any{
				"club":  club.Name,
				"plan":  plan,
				"sweep": j.clock().Format(time.RFC3339),
			},
		})
	}

	logger.Info("entitlement sweep complete", slog.Int("clubs", len(clubs)), slog.Int("lapsed", lapsed))
	return resultErr
}

func (j *EntitlementSweepJob) ownerPlan(ctx context.Context, ownerID string) string {
	owner, err := j.Directory.GetUser(ctx, ownerID)
	if err != nil {
		return ""
	}
	return string(owner.SubscriptionPlan)
}

func (j *EntitlementSweepJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}

func (j *EntitlementSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
