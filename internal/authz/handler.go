package authz

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clubforge/clubforge/internal/platform/httpx"
	"github.com/clubforge/clubforge/internal/roles"
)

// MembershipPort applies guarded membership changes.
type MembershipPort interface {
	AssignRole(ctx context.Context, granterID, targetID string, role roles.Role, clubID string) (Decision, error)
	TransferOwnership(ctx context.Context, actorID, clubID, newOwnerID string) (Decision, error)
	RemoveTrainer(ctx context.Context, actorID, clubID, teamID, trainerID string) (Decision, error)
}

// Handler exposes authorization decisions and membership changes over HTTP.
type Handler struct {
	logger     *slog.Logger
	engine     *Engine
	membership MembershipPort
	validator  *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, engine *Engine, membership MembershipPort) *Handler {
	return &Handler{
		logger:     logger,
		engine:     engine,
		membership: membership,
		validator:  validator.New(),
	}
}

// MountRoutes registers authorization routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/authz/decide", h.handleDecide)
	r.Post("/authz/roles/assign", h.handleAssignRole)
	r.Post("/clubs/{clubID}/transfer-ownership", h.handleTransferOwnership)
	r.Delete("/clubs/{clubID}/teams/{teamID}/trainers/{trainerID}", h.handleRemoveTrainer)
}

type decideRequest struct {
	ResourceType string `json:"resourceType" validate:"required,oneof=club team event chat"`
	ResourceID   string `json:"resourceId" validate:"required"`
	ClubID       string `json:"clubId"`
	Action       string `json:"action" validate:"required"`
}

type decisionResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondDecision(w, Deny(ReasonNotAuthenticated))
		return
	}

	var req decideRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "resourceType, resourceId and action are required")
		return
	}

	ref := ResourceRef{Type: ResourceType(req.ResourceType), ID: req.ResourceID, ClubID: req.ClubID}
	decision, err := h.engine.Decide(r.Context(), principal, ref, Action(req.Action))
	if err != nil {
		h.respondInfraError(w, "decide", err)
		return
	}
	respondDecision(w, decision)
}

type assignRoleRequest struct {
	TargetID string `json:"targetId" validate:"required"`
	Role     string `json:"role" validate:"required"`
	ClubID   string `json:"clubId" validate:"required"`
}

func (h *Handler) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondDecision(w, Deny(ReasonNotAuthenticated))
		return
	}

	var req assignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "targetId, role and clubId are required")
		return
	}
	role, err := roles.Parse(req.Role)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown role")
		return
	}

	decision, err := h.membership.AssignRole(r.Context(), principal.ID, req.TargetID, role, req.ClubID)
	if err != nil {
		h.respondInfraError(w, "assign role", err)
		return
	}
	respondDecision(w, decision)
}

type transferOwnershipRequest struct {
	NewOwnerID string `json:"newOwnerId" validate:"required"`
}

func (h *Handler) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondDecision(w, Deny(ReasonNotAuthenticated))
		return
	}

	var req transferOwnershipRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "newOwnerId is required")
		return
	}

	decision, err := h.membership.TransferOwnership(r.Context(), principal.ID, chi.URLParam(r, "clubID"), req.NewOwnerID)
	if err != nil {
		h.respondInfraError(w, "transfer ownership", err)
		return
	}
	respondDecision(w, decision)
}

func (h *Handler) handleRemoveTrainer(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondDecision(w, Deny(ReasonNotAuthenticated))
		return
	}

	decision, err := h.membership.RemoveTrainer(r.Context(), principal.ID,
		chi.URLParam(r, "clubID"), chi.URLParam(r, "teamID"), chi.URLParam(r, "trainerID"))
	if err != nil {
		h.respondInfraError(w, "remove trainer", err)
		return
	}
	respondDecision(w, decision)
}

func (h *Handler) respondInfraError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	if errors.Is(err, ErrDirectoryUnavailable) {
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	}
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}

func respondDecision(w http.ResponseWriter, decision Decision) {
	if decision.Allowed {
		httpx.JSON(w, http.StatusOK, decisionResponse{Allowed: true})
		return
	}
	httpx.JSON(w, statusForReason(decision.Reason), decisionResponse{
		Allowed: false,
		Reason:  string(decision.Reason),
		Message: Message(decision.Reason),
	})
}

func statusForReason(r Reason) int {
	switch r {
	case ReasonNotAuthenticated:
		return http.StatusUnauthorized
	case ReasonResourceNotFound:
		return http.StatusNotFound
	default:
		return http.StatusForbidden
	}
}
