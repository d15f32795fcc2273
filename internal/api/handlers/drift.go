package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/driftboard/driftboard/internal/api/dto"
	"github.com/driftboard/driftboard/internal/api/middleware"
	"github.com/driftboard/driftboard/internal/domain/drift"
	"github.com/driftboard/driftboard/internal/pkg/errors"
	"github.com/driftboard/driftboard/internal/pkg/logger"
	"github.com/driftboard/driftboard/internal/pkg/utils"
	"github.com/driftboard/driftboard/internal/pkg/validator"
)

type DriftHandler struct {
	service   drift.Service
	logger    *logger.Logger
	validator *validator.Validator
}

func NewDriftHandler(service drift.Service, log *logger.Logger, val *validator.Validator) *DriftHandler {
	return &DriftHandler{service: service, logger: log, validator: val}
}

// Create ingests a detection event and opens a new drift
// @Summary Create drift
// @Description Register a detected configuration drift
// @Tags Drifts
// @Accept json
// @Produce json
// @Param request body dto.CreateDriftRequest true "Detection event"
// @Success 201 {object} dto.DriftDTO "Drift created"
// @Failure 400 {object} utils.ErrorResponse "Invalid request or validation error"
// @Failure 409 {object} utils.ErrorResponse "Duplicate of a recent open drift"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Router /drifts [post]
func (h *DriftHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDriftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if errs := h.validator.Validate(req); len(errs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", errs))
		return
	}

	in := drift.CreateInput{
		ResourceID:        req.ResourceID,
		ResourceType:      drift.ResourceType(req.ResourceType),
		Region:            req.Region,
		AccountID:         req.AccountID,
		ExpectedState:     req.ExpectedState,
		ActualState:       req.ActualState,
		Severity:          drift.Severity(req.Severity),
		CostImpactMonthly: req.CostImpactMonthly,
		DetectedBy:        drift.DetectedBy(req.DetectedBy),
	}

	d, err := h.service.Create(r.Context(), in, middleware.GetActorID(r))
	if err != nil {
		utils.WriteAppError(w, err, "Failed to create drift")
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, dto.FromDrift(d))
}

// Get returns a single drift with derived metadata
// @Summary Get drift by ID
// @Description Get a drift with its alert count and transition eligibility
// @Tags Drifts
// @Produce json
// @Param id path string true "Drift ID"
// @Success 200 {object} dto.DriftWithMetaDTO "Drift details"
// @Failure 404 {object} utils.ErrorResponse "Drift not found"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Router /drifts/{id} [get]
func (h *DriftHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	m, err := h.service.GetWithMeta(r.Context(), id)
	if err != nil {
		utils.WriteAppError(w, err, "Failed to get drift")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.DriftWithMetaDTO{
		DriftDTO:   dto.FromDrift(m.Drift),
		AlertCount: m.AlertCount,
		CanApprove: m.CanApprove,
		CanReject:  m.CanReject,
	})
}

// List returns drifts with pagination, filtering and sorting
// @Summary List drifts
// @Description Get a paginated list of drifts with optional filtering and sorting
// @Tags Drifts
// @Produce json
// @Param status query string false "Filter by status"
// @Param severity query string false "Filter by severity"
// @Param resource_type query string false "Filter by resource type"
// @Param region query string false "Filter by region"
// @Param search query string false "Substring match on resource ID"
// @Param sort query string false "Sort field (created_at, detected_at, cost_impact_monthly, severity)"
// @Param order query string false "Sort order (asc, desc)"
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} utils.PaginatedResponse{data=[]dto.DriftDTO} "List of drifts"
// @Failure 400 {object} utils.ErrorResponse "Invalid pagination, filter or sort"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Router /drifts [get]
func (h *DriftHandler) List(w http.ResponseWriter, r *http.Request) {
	params, appErr := utils.ParsePaginationParams(r)
	if appErr != nil {
		utils.WriteError(w, appErr)
		return
	}

	q := r.URL.Query()
	filter := drift.Filter{
		Status:       drift.Status(q.Get("status")),
		Severity:     drift.Severity(q.Get("severity")),
		ResourceType: drift.ResourceType(q.Get("resource_type")),
		Region:       q.Get("region"),
		Search:       q.Get("search"),
	}
	sort := drift.Sort{
		Field: q.Get("sort"),
		Desc:  !strings.EqualFold(q.Get("order"), "asc"),
	}

	drifts, total, err := h.service.List(r.Context(), filter, sort, params.Page, params.Limit)
	if err != nil {
		utils.WriteAppError(w, err, "Failed to list drifts")
		return
	}

	dtos := make([]dto.DriftDTO, len(drifts))
	for i, d := range drifts {
		dtos[i] = dto.FromDrift(d)
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(dtos, params.Page, params.Limit, total))
}

// Triage moves a detected drift into triage
// @Summary Triage drift
// @Description Acknowledge a detected drift and move it into triage
// @Tags Drifts
// @Produce json
// @Param id path string true "Drift ID"
// @Success 200 {object} dto.DriftDTO "Updated drift"
// @Failure 404 {object} utils.ErrorResponse "Drift not found"
// @Failure 409 {object} utils.ErrorResponse "Drift is not in detected status"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Router /drifts/{id}/triage [post]
func (h *DriftHandler) Triage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, err := h.service.Triage(r.Context(), id, middleware.GetActorID(r))
	if err != nil {
		utils.WriteAppError(w, err, "Failed to triage drift")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.FromDrift(d))
}

// Approve records an approval decision on an open drift
// @Summary Approve drift
// @Description Approve an open drift for remediation
// @Tags Drifts
// @Accept json
// @Produce json
// @Param id path string true "Drift ID"
// @Param request body dto.DecisionRequest true "Approval reason"
// @Success 200 {object} dto.DriftDTO "Updated drift"
// @Failure 400 {object} utils.ErrorResponse "Missing or too short reason"
// @Failure 404 {object} utils.ErrorResponse "Drift not found"
// @Failure 409 {object} utils.ErrorResponse "Drift is not open"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Router /drifts/{id}/approve [post]
func (h *DriftHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Approve, "Failed to approve drift")
}

// Reject records a rejection decision on an open drift
// @Summary Reject drift
// @Description Reject an open drift, keeping the actual state
// @Tags Drifts
// @Accept json
// @Produce json
// @Param id path string true "Drift ID"
// @Param request body dto.DecisionRequest true "Rejection reason"
// @Success 200 {object} dto.DriftDTO "Updated drift"
// @Failure 400 {object} utils.ErrorResponse "Missing or too short reason"
// @Failure 404 {object} utils.ErrorResponse "Drift not found"
// @Failure 409 {object} utils.ErrorResponse "Drift is not open"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Router /drifts/{id}/reject [post]
func (h *DriftHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Reject, "Failed to reject drift")
}

func (h *DriftHandler) decide(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id, reason, actorID string) (*drift.Drift, error), fallback string) {
	id := chi.URLParam(r, "id")

	var req dto.DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if errs := h.validator.Validate(req); len(errs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", errs))
		return
	}

	d, err := op(r.Context(), id, req.Reason, middleware.GetActorID(r))
	if err != nil {
		utils.WriteAppError(w, err, fallback)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.FromDrift(d))
}

// Resolve closes an approved or rejected drift
// @Summary Resolve drift
// @Description Close a decided drift, recording how it was resolved
// @Tags Drifts
// @Accept json
// @Produce json
// @Param id path string true "Drift ID"
// @Param request body dto.ResolveRequest true "Resolution outcome"
// @Success 200 {object} dto.DriftDTO "Updated drift"
// @Failure 400 {object} utils.ErrorResponse "Invalid resolution outcome"
// @Failure 404 {object} utils.ErrorResponse "Drift not found"
// @Failure 409 {object} utils.ErrorResponse "Drift has no decision yet"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Router /drifts/{id}/resolve [post]
func (h *DriftHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if errs := h.validator.Validate(req); len(errs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", errs))
		return
	}

	d, err := h.service.Resolve(r.Context(), id, drift.ResolvedHow(req.How), middleware.GetActorID(r))
	if err != nil {
		utils.WriteAppError(w, err, "Failed to resolve drift")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.FromDrift(d))
}

// Summary aggregates drift counts and open cost exposure
// @Summary Drift summary
// @Description Get drift counts by status and severity plus open cost exposure
// @Tags Drifts
// @Produce json
// @Success 200 {object} drift.Summary "Aggregated counts"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Router /drifts/summary [get]
func (h *DriftHandler) Summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Summary(r.Context())
	if err != nil {
		utils.WriteAppError(w, err, "Failed to build summary")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, s)
}
