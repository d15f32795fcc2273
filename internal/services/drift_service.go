package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/driftboard/driftboard/internal/domain/alert"
	"github.com/driftboard/driftboard/internal/domain/audit"
	"github.com/driftboard/driftboard/internal/domain/drift"
	"github.com/driftboard/driftboard/internal/domain/event"
	"github.com/driftboard/driftboard/internal/pkg/errors"
	"github.com/driftboard/driftboard/internal/pkg/logger"
	"github.com/driftboard/driftboard/internal/pkg/metrics"
)

// DriftService is the drift lifecycle orchestrator. It validates input,
// enforces duplicate suppression, drives status transitions and
// sequences the audit, alert and notification side effects. Within one
// operation the order is fixed: validate, duplicate-check, persist,
// audit, alert, notify. The persisted transition is the source of
// truth; everything after it is best-effort.
type DriftService struct {
	repo      drift.Repository
	alerts    alert.Service
	auditor   audit.Recorder
	sink      event.Sink
	dupWindow time.Duration
	logger    *logger.Logger
}

// NewDriftService creates a new drift lifecycle orchestrator.
func NewDriftService(
	repo drift.Repository,
	alerts alert.Service,
	auditor audit.Recorder,
	sink event.Sink,
	dupWindow time.Duration,
	log *logger.Logger,
) drift.Service {
	return &DriftService{
		repo:      repo,
		alerts:    alerts,
		auditor:   auditor,
		sink:      sink,
		dupWindow: dupWindow,
		logger:    log,
	}
}

// transitionSpec parameterizes a status transition: where it may start,
// what it stamps, and which side effects fire after it persists.
// Alert clearing is a per-transition flag rather than a hard-coded
// branch in the approve path.
type transitionSpec struct {
	to          drift.Status
	from        []drift.Status
	action      audit.Action
	event       event.Type
	clearAlerts bool
}

var (
	triageSpec = transitionSpec{
		to:     drift.StatusTriaged,
		from:   []drift.Status{drift.StatusDetected},
		action: audit.ActionDriftTriaged,
		event:  event.TypeDriftTriaged,
	}
	approveSpec = transitionSpec{
		to:          drift.StatusApproved,
		from:        drift.OpenStatuses,
		action:      audit.ActionDriftApproved,
		event:       event.TypeDriftApproved,
		clearAlerts: true,
	}
	rejectSpec = transitionSpec{
		to:     drift.StatusRejected,
		from:   drift.OpenStatuses,
		action: audit.ActionDriftRejected,
		event:  event.TypeDriftRejected,
	}
	resolveSpec = transitionSpec{
		to:          drift.StatusResolved,
		from:        []drift.Status{drift.StatusApproved, drift.StatusRejected},
		action:      audit.ActionDriftResolved,
		event:       event.TypeDriftResolved,
		clearAlerts: true,
	}
)

// Create validates a detection event, suppresses near-duplicates and
// persists a new drift in detected status.
func (s *DriftService) Create(ctx context.Context, in drift.CreateInput, actorID string) (*drift.Drift, error) {
	if err := validateCreateInput(in); err != nil {
		return nil, err
	}

	// Identical documents signal "not a drift" and must fail fast.
	if in.ExpectedState.Equal(in.ActualState) {
		return nil, errors.ValidationError("Expected and actual state are identical: not a drift", nil)
	}
	difference := drift.Diff(in.ExpectedState, in.ActualState)
	if len(difference) == 0 {
		return nil, errors.ValidationError("Expected and actual state are identical: not a drift", nil)
	}

	now := time.Now()

	// Best-effort guard, not a hard uniqueness constraint: two racing
	// creates can both pass before either commits.
	existing, err := s.repo.FindOpenDuplicate(ctx, in.ResourceID, in.ResourceType, now.Add(-s.dupWindow))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		metrics.DuplicateSuppressed()
		s.logger.WithFields(map[string]interface{}{
			"resource_id":   in.ResourceID,
			"resource_type": in.ResourceType,
			"existing_id":   existing.ID,
		}).Info("Duplicate drift suppressed")
		return nil, errors.Conflict("Similar drift detected recently").
			WithDetails(map[string]string{"existing_drift_id": existing.ID})
	}

	d := &drift.Drift{
		ID:                uuid.New().String(),
		ResourceID:        in.ResourceID,
		ResourceType:      in.ResourceType,
		Region:            in.Region,
		AccountID:         in.AccountID,
		ExpectedState:     in.ExpectedState,
		ActualState:       in.ActualState,
		Difference:        difference,
		Severity:          in.Severity,
		CostImpactMonthly: in.CostImpactMonthly,
		Status:            drift.StatusDetected,
		DetectedAt:        now,
		DetectedBy:        in.DetectedBy,
		CreatedAt:         now,
	}

	if err := s.repo.Create(ctx, d); err != nil {
		s.logger.ErrorWithErr(err, "Failed to create drift")
		return nil, err
	}

	metrics.DriftCreated(string(d.Severity), string(d.ResourceType))
	s.logger.WithFields(map[string]interface{}{
		"drift_id":      d.ID,
		"resource_id":   d.ResourceID,
		"resource_type": d.ResourceType,
		"severity":      d.Severity,
	}).Info("Drift created")

	s.auditor.Record(ctx, audit.Entry{
		Action:     audit.ActionDriftCreated,
		DriftID:    d.ID,
		ActorID:    actorID,
		ActorEmail: audit.ActorEmail(ctx),
		NewValue:   d,
	})

	if d.Severity == drift.SeverityCritical {
		a := &alert.Alert{
			DriftID:  d.ID,
			Type:     alert.TypeDriftDetected,
			Severity: d.Severity,
			Title:    fmt.Sprintf("Critical drift on %s %s", d.ResourceType, d.ResourceID),
			Message:  fmt.Sprintf("Configuration drift detected on %s in %s (%d attributes diverged)", d.ResourceID, d.Region, len(d.Difference)),
		}
		if err := s.alerts.Create(ctx, a); err != nil {
			s.logger.WithFields(map[string]interface{}{
				"drift_id": d.ID,
			}).WithError(err).Error("Failed to create drift alert")
		}
	}

	s.sink.Emit(event.NewCreated(d))

	return d, nil
}

// Triage moves a detected drift into triage.
func (s *DriftService) Triage(ctx context.Context, id, actorID string) (*drift.Drift, error) {
	return s.transition(ctx, id, actorID, triageSpec, drift.StatusUpdate{Status: drift.StatusTriaged})
}

// Approve records an approval decision on an open drift.
func (s *DriftService) Approve(ctx context.Context, id, reason, actorID string) (*drift.Drift, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, errors.ValidationError("Approval reason is required", nil)
	}
	now := time.Now()
	return s.transition(ctx, id, actorID, approveSpec, drift.StatusUpdate{
		Status:         drift.StatusApproved,
		ApprovedAt:     &now,
		ApprovedBy:     actorID,
		ApprovalReason: reason,
	})
}

// Reject records a rejection decision on an open drift.
func (s *DriftService) Reject(ctx context.Context, id, reason, actorID string) (*drift.Drift, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, errors.ValidationError("Rejection reason is required", nil)
	}
	now := time.Now()
	return s.transition(ctx, id, actorID, rejectSpec, drift.StatusUpdate{
		Status:          drift.StatusRejected,
		RejectedAt:      &now,
		RejectedBy:      actorID,
		RejectionReason: reason,
	})
}

// Resolve closes an approved or rejected drift.
func (s *DriftService) Resolve(ctx context.Context, id string, how drift.ResolvedHow, actorID string) (*drift.Drift, error) {
	if !how.Valid() {
		return nil, errors.ValidationError(fmt.Sprintf("Invalid resolution outcome: %q", how), nil)
	}
	now := time.Now()
	return s.transition(ctx, id, actorID, resolveSpec, drift.StatusUpdate{
		Status:      drift.StatusResolved,
		ResolvedAt:  &now,
		ResolvedHow: how,
	})
}

// transition performs one status transition. The precondition is
// enforced by the storage layer as a conditional update, so a racing
// second transition surfaces as a conflict rather than a lost update.
// Side effects run only after the transition has persisted.
func (s *DriftService) transition(ctx context.Context, id, actorID string, spec transitionSpec, u drift.StatusUpdate) (*drift.Drift, error) {
	// Read first for the audit snapshot; the conditional update below
	// remains the authoritative precondition check.
	old, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, id, spec.from, u)
	if err != nil {
		return nil, err
	}

	metrics.DriftTransition(string(spec.to))
	s.logger.WithFields(map[string]interface{}{
		"drift_id":   id,
		"old_status": old.Status,
		"new_status": updated.Status,
		"actor_id":   actorID,
	}).Info("Drift status updated")

	s.auditor.Record(ctx, audit.Entry{
		Action:     spec.action,
		DriftID:    id,
		ActorID:    actorID,
		ActorEmail: audit.ActorEmail(ctx),
		OldValue:   map[string]any{"status": old.Status},
		NewValue:   transitionSnapshot(updated),
	})

	if spec.clearAlerts {
		// Cleared on behalf of the system, not the requesting actor,
		// so the audit trail stays queryable.
		count := s.alerts.MarkAllByDriftAsRead(ctx, id, drift.SystemActor)
		if count > 0 {
			s.auditor.Record(ctx, audit.Entry{
				Action:  audit.ActionAlertsCleared,
				DriftID: id,
				ActorID: drift.SystemActor,
				Details: fmt.Sprintf("%d alerts marked read on %s", count, spec.to),
			})
		}
	}

	s.sink.Emit(event.NewTransition(spec.event, updated))

	return updated, nil
}

// GetWithMeta retrieves a drift with its alert count and derived
// transition eligibility flags.
func (s *DriftService) GetWithMeta(ctx context.Context, id string) (*drift.WithMeta, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := s.alerts.CountByDrift(ctx, id)
	if err != nil {
		return nil, err
	}

	open := d.Status.Open()
	return &drift.WithMeta{
		Drift:      d,
		AlertCount: count,
		CanApprove: open,
		CanReject:  open,
	}, nil
}

// List retrieves drifts with filters, sorting and pagination.
func (s *DriftService) List(ctx context.Context, filter drift.Filter, sort drift.Sort, page, limit int) ([]*drift.Drift, int64, error) {
	if page < 1 {
		return nil, 0, errors.BadRequest("page must be a positive integer")
	}
	if limit < 1 || limit > 100 {
		return nil, 0, errors.BadRequest("limit must be between 1 and 100")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, errors.ValidationError(fmt.Sprintf("Invalid status filter: %q", filter.Status), nil)
	}
	if filter.Severity != "" && !filter.Severity.Valid() {
		return nil, 0, errors.ValidationError(fmt.Sprintf("Invalid severity filter: %q", filter.Severity), nil)
	}
	if filter.ResourceType != "" && !filter.ResourceType.Valid() {
		return nil, 0, errors.ValidationError(fmt.Sprintf("Invalid resource type filter: %q", filter.ResourceType), nil)
	}
	if sort.Field == "" {
		sort.Field = drift.SortDetectedAt
		sort.Desc = true
	} else if !drift.ValidSortField(sort.Field) {
		return nil, 0, errors.ValidationError(fmt.Sprintf("Invalid sort field: %q", sort.Field), nil)
	}

	return s.repo.ListWithPagination(ctx, filter, sort, limit, (page-1)*limit)
}

// Summary aggregates counts by status and severity plus the open cost
// exposure.
func (s *DriftService) Summary(ctx context.Context) (*drift.Summary, error) {
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	bySeverity, err := s.repo.CountBySeverity(ctx)
	if err != nil {
		return nil, err
	}
	openCost, err := s.repo.OpenCostImpact(ctx)
	if err != nil {
		return nil, err
	}
	return &drift.Summary{
		ByStatus:              byStatus,
		BySeverity:            bySeverity,
		OpenCostImpactMonthly: openCost,
	}, nil
}

func validateCreateInput(in drift.CreateInput) *errors.AppError {
	if strings.TrimSpace(in.ResourceID) == "" {
		return errors.ValidationError("Resource ID is required", nil)
	}
	if !in.ResourceType.Valid() {
		return errors.ValidationError(fmt.Sprintf("Invalid resource type: %q", in.ResourceType), nil)
	}
	if !in.Severity.Valid() {
		return errors.ValidationError(fmt.Sprintf("Invalid severity: %q", in.Severity), nil)
	}
	if !in.DetectedBy.Valid() {
		return errors.ValidationError(fmt.Sprintf("Invalid detection origin: %q", in.DetectedBy), nil)
	}
	if in.CostImpactMonthly < 0 {
		return errors.ValidationError("Cost impact must be non-negative", nil)
	}
	if in.ExpectedState == nil || in.ActualState == nil {
		return errors.ValidationError("Expected and actual state are required", nil)
	}
	return nil
}

// transitionSnapshot captures the fields a transition stamped, for the
// audit trail. Full state documents are not repeated on transitions.
func transitionSnapshot(d *drift.Drift) map[string]any {
	snap := map[string]any{"status": d.Status}
	switch d.Status {
	case drift.StatusApproved:
		snap["approved_at"] = d.ApprovedAt
		snap["approved_by"] = d.ApprovedBy
		snap["approval_reason"] = d.ApprovalReason
	case drift.StatusRejected:
		snap["rejected_at"] = d.RejectedAt
		snap["rejected_by"] = d.RejectedBy
		snap["rejection_reason"] = d.RejectionReason
	case drift.StatusResolved:
		snap["resolved_at"] = d.ResolvedAt
		snap["resolved_how"] = d.ResolvedHow
	}
	return snap
}
