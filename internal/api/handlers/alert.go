package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/driftboard/driftboard/internal/api/dto"
	"github.com/driftboard/driftboard/internal/api/middleware"
	"github.com/driftboard/driftboard/internal/domain/alert"
	"github.com/driftboard/driftboard/internal/domain/drift"
	"github.com/driftboard/driftboard/internal/pkg/errors"
	"github.com/driftboard/driftboard/internal/pkg/logger"
	"github.com/driftboard/driftboard/internal/pkg/utils"
)

type AlertHandler struct {
	service alert.Service
	logger  *logger.Logger
}

func NewAlertHandler(service alert.Service, log *logger.Logger) *AlertHandler {
	return &AlertHandler{service: service, logger: log}
}

// List returns alerts with pagination and filtering
// @Summary List alerts
// @Description Get a paginated list of alerts with optional filtering
// @Tags Alerts
// @Produce json
// @Param drift_id query string false "Filter by drift ID"
// @Param type query string false "Filter by alert type"
// @Param severity query string false "Filter by severity"
// @Param read query bool false "Filter by read state"
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} utils.PaginatedResponse{data=[]dto.AlertDTO} "List of alerts"
// @Failure 400 {object} utils.ErrorResponse "Invalid pagination or filter"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Router /alerts [get]
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	params, appErr := utils.ParsePaginationParams(r)
	if appErr != nil {
		utils.WriteError(w, appErr)
		return
	}

	q := r.URL.Query()
	filter := alert.Filter{
		DriftID:  q.Get("drift_id"),
		Type:     alert.Type(q.Get("type")),
		Severity: drift.Severity(q.Get("severity")),
	}
	switch q.Get("read") {
	case "true":
		v := true
		filter.Read = &v
	case "false":
		v := false
		filter.Read = &v
	case "":
	default:
		utils.WriteError(w, errors.BadRequest("read must be true or false"))
		return
	}

	alerts, total, err := h.service.List(r.Context(), filter, params.Limit, params.Offset)
	if err != nil {
		utils.WriteAppError(w, err, "Failed to list alerts")
		return
	}

	dtos := make([]dto.AlertDTO, len(alerts))
	for i, a := range alerts {
		dtos[i] = dto.FromAlert(a)
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(dtos, params.Page, params.Limit, total))
}

// UnreadCount returns the number of unread alerts
// @Summary Unread alert count
// @Description Get the number of unread alerts
// @Tags Alerts
// @Produce json
// @Success 200 {object} dto.UnreadCountResponse "Unread count"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Router /alerts/unread-count [get]
func (h *AlertHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.GetUnreadCount(r.Context())
	if err != nil {
		utils.WriteAppError(w, err, "Failed to count unread alerts")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.UnreadCountResponse{Count: int64(count)})
}

// MarkRead marks a single alert as read
// @Summary Mark alert read
// @Description Mark an alert as read by the calling actor
// @Tags Alerts
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} dto.AlertDTO "Updated alert"
// @Failure 404 {object} utils.ErrorResponse "Alert not found"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Router /alerts/{id}/read [post]
func (h *AlertHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	a, err := h.service.MarkRead(r.Context(), id, middleware.GetActorID(r))
	if err != nil {
		utils.WriteAppError(w, err, "Failed to mark alert read")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.FromAlert(a))
}
