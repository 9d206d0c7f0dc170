// Package audithttp exposes the audit timeline and CSV export over HTTP.
package audithttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/clubforge/clubforge/internal/audit"
	"github.com/clubforge/clubforge/internal/authz"
	"github.com/clubforge/clubforge/internal/platform/httpx"
)

const maxDateRange = 90 * 24 * time.Hour

// TimelineService defines the business contract for timeline data.
type TimelineService interface {
	Timeline(ctx context.Context, filters audit.Filters) (audit.Result, error)
	Export(ctx context.Context, filters audit.Filters) ([]audit.Entry, error)
}

// Exporter renders audit exports.
type Exporter interface {
	WriteCSV(entries []audit.Entry) ([]byte, error)
}

// Handler serves audit timeline requests. Only admins may read the trail.
type Handler struct {
	logger   *slog.Logger
	service  TimelineService
	exporter Exporter
	now      func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service TimelineService, exporter Exporter) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, exporter: exporter, now: time.Now}
}

type entryPayload struct {
	ID           string         `json:"id"`
	At           time.Time      `json:"at"`
	Action       string         `json:"action"`
	ActorID      string         `json:"actorId"`
	TargetID     string         `json:"targetId,omitempty"`
	ResourceType string         `json:"resourceType,omitempty"`
	ResourceID   string         `json:"resourceId,omitempty"`
	ClubID       string         `json:"clubId,omitempty"`
	OldRole      string         `json:"oldRole,omitempty"`
	NewRole      string         `json:"newRole,omitempty"`
	Meta         map[string]any `json:"meta,omitempty"`
}

type timelinePayload struct {
	Entries []entryPayload   `json:"entries"`
	Paging  audit.PagingInfo `json:"paging"`
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filters", err.Error())
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.logger.Error("load audit timeline", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	payload := timelinePayload{Entries: make([]entryPayload, 0, len(result.Entries)), Paging: result.Paging}
	for _, e := range result.Entries {
		payload.Entries = append(payload.Entries, toPayload(e))
	}
	httpx.JSON(w, http.StatusOK, payload)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filters", err.Error())
		return
	}
	entries, err := h.service.Export(r.Context(), filters)
	if err != nil {
		h.logger.Error("export audit timeline", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	data, err := h.exporter.WriteCSV(entries)
	if err != nil {
		h.logger.Error("render audit csv", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	filename := fmt.Sprintf("audit-%s.csv", h.now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	principal, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
		return false
	}
	if !principal.IsAdmin() {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "admin access required")
		return false
	}
	return true
}

func (h *Handler) parseFilters(r *http.Request) (audit.Filters, error) {
	q := r.URL.Query()
	filters := audit.Filters{
		ActorID:      q.Get("actor"),
		Action:       q.Get("action"),
		ResourceType: q.Get("resource_type"),
		ClubID:       q.Get("club"),
	}
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return audit.Filters{}, fmt.Errorf("invalid from: %w", err)
		}
		filters.From = t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return audit.Filters{}, fmt.Errorf("invalid to: %w", err)
		}
		filters.To = t
	}
	if !filters.From.IsZero() && !filters.To.IsZero() {
		if filters.To.Before(filters.From) {
			return audit.Filters{}, fmt.Errorf("to precedes from")
		}
		if filters.To.Sub(filters.From) > maxDateRange {
			return audit.Filters{}, fmt.Errorf("date range exceeds %d days", int(maxDateRange.Hours()/24))
		}
	}
	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return audit.Filters{}, fmt.Errorf("invalid page")
		}
		filters.Page = page
	}
	if raw := q.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			return audit.Filters{}, fmt.Errorf("invalid page_size")
		}
		filters.PageSize = size
	}
	return filters, nil
}

func toPayload(e audit.Entry) entryPayload {
	return entryPayload{
		ID:           e.ID.String(),
		At:           e.At,
		Action:       e.Action,
		ActorID:      e.ActorID,
		TargetID:     e.TargetID,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		ClubID:       e.ClubID,
		OldRole:      e.OldRole,
		NewRole:      e.NewRole,
		Meta:         e.Meta,
	}
}
