package jobs

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubforge/clubforge/internal/audit"
	"github.com/clubforge/clubforge/internal/directory"
	jobmetrics "github.com/clubforge/clubforge/internal/jobs"
)

type sweepDirStub struct {
	clubs []directory.ClubRef
	users map[string]directory.User
}

func (s *sweepDirStub) ListClubs(ctx context.Context) ([]directory.ClubRef, error) {
	return s.clubs, nil
}

func (s *sweepDirStub) GetUser(ctx context.Context, id string) (directory.User, error) {
	u, ok := s.users[id]
	if !ok {
		return directory.User{}, directory.ErrNotFound
	}
	return u, nil
}

type sweepGateStub struct {
	entitled map[string]bool
}

func (s *sweepGateStub) HasActiveEntitlement(ctx context.Context, userID string) (bool, error) {
	return s.entitled[userID], nil
}

type sweepRecorderStub struct {
	entries []audit.Entry
}

func (s *sweepRecorderStub) Record(entry audit.Entry) uuid.UUID {
	s.entries = append(s.entries, entry)
	return uuid.New()
}

func newSweepTask(t *testing.T, payload EntitlementSweepPayload) *asynq.Task {
	t.Helper()
	task, err := NewEntitlementSweepTask(payload)
	require.NoError(t, err)
	return task
}

func TestEntitlementSweepRecordsLapsedClubs(t *testing.T) {
	dir := &sweepDirStub{
		clubs: []directory.ClubRef{
			{ID: "club-1", Name: "Falcons", OwnerID: "owner-1"},
			{ID: "club-2", Name: "Otters", OwnerID: "owner-2"},
		},
		users: map[string]directory.User{
			"owner-2": {ID: "owner-2", SubscriptionPlan: directory.PlanClub},
		},
	}
	gate := &sweepGateStub{entitled: map[string]bool{"owner-1": true}}
	recorder := &sweepRecorderStub{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(registry)

	job := NewEntitlementSweepJob(dir, gate, recorder, logger, metrics)
	err := job.Handle(context.Background(), newSweepTask(t, EntitlementSweepPayload{}))
	require.NoError(t, err)

	require.Len(t, recorder.entries, 1)
	entry := recorder.entries[0]
	assert.Equal(t, audit.ActionSubscriptionLapsed, entry.Action)
	assert.Equal(t, "club-2", entry.ClubID)
	assert.Equal(t, "owner-2", entry.TargetID)
	assert.Equal(t, "club", entry.Meta["plan"])

	body := scrapeMetrics(t, registry)
	assert.Contains(t, body, `clubforge_jobs_total{job="`+TaskEntitlementSweep+`",status="success"} 1`)
	assert.Contains(t, body, `clubforge_entitlements_lapsed_total{plan="club"} 1`)
}

func scrapeMetrics(t *testing.T, registry *prometheus.Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func TestEntitlementSweepDryRun(t *testing.T) {
	dir := &sweepDirStub{
		clubs: []directory.ClubRef{{ID: "club-1", Name: "Falcons", OwnerID: "owner-1"}},
		users: map[string]directory.User{},
	}
	gate := &sweepGateStub{entitled: map[string]bool{}}
	recorder := &sweepRecorderStub{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())

	job := NewEntitlementSweepJob(dir, gate, recorder, logger, metrics)
	err := job.Handle(context.Background(), newSweepTask(t, EntitlementSweepPayload{DryRun: true}))
	require.NoError(t, err)
	assert.Empty(t, recorder.entries)
}
