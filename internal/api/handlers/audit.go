package handlers

import (
	"net/http"

	"github.com/driftboard/driftboard/internal/api/dto"
	"github.com/driftboard/driftboard/internal/domain/audit"
	"github.com/driftboard/driftboard/internal/pkg/logger"
	"github.com/driftboard/driftboard/internal/pkg/utils"
)

type AuditHandler struct {
	recorder audit.Recorder
	logger   *logger.Logger
}

func NewAuditHandler(recorder audit.Recorder, log *logger.Logger) *AuditHandler {
	return &AuditHandler{recorder: recorder, logger: log}
}

// List returns audit log entries with pagination and filtering
// @Summary List audit logs
// @Description Get a paginated list of audit entries with optional filtering
// @Tags Audit
// @Produce json
// @Param drift_id query string false "Filter by drift ID"
// @Param action query string false "Filter by action"
// @Param actor_id query string false "Filter by actor ID"
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} utils.PaginatedResponse{data=[]dto.AuditLogDTO} "List of audit entries"
// @Failure 400 {object} utils.ErrorResponse "Invalid pagination"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Router /audit-logs [get]
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	params, appErr := utils.ParsePaginationParams(r)
	if appErr != nil {
		utils.WriteError(w, appErr)
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		DriftID: q.Get("drift_id"),
		Action:  audit.Action(q.Get("action")),
		ActorID: q.Get("actor_id"),
	}

	logs, total, err := h.recorder.List(r.Context(), filter, params.Limit, params.Offset)
	if err != nil {
		utils.WriteAppError(w, err, "Failed to list audit logs")
		return
	}

	dtos := make([]dto.AuditLogDTO, len(logs))
	for i, l := range logs {
		dtos[i] = dto.FromAuditLog(l)
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(dtos, params.Page, params.Limit, total))
}
