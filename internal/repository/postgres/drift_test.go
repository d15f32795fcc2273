package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/driftboard/driftboard/internal/domain/drift"
	apperrors "github.com/driftboard/driftboard/internal/pkg/errors"
	"github.com/driftboard/driftboard/migrations"
)

// newTestDB opens an in-memory sqlite database and applies the
// migrations. It cannot live in testutil because testutil imports this
// package.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// An in-memory sqlite database disappears when its only
	// connection closes, so keep the pool at one.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(db, migrations.GetFS()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func testDrift(resourceID string) *drift.Drift {
	now := time.Now().UTC()
	return &drift.Drift{
		ID:           uuid.New().String(),
		ResourceID:   resourceID,
		ResourceType: drift.ResourceEC2,
		Region:       "us-east-1",
		AccountID:    "123456789012",
		ExpectedState: drift.StateDoc{
			"instance_type": "t3.micro",
		},
		ActualState: drift.StateDoc{
			"instance_type": "t3.large",
		},
		Difference: map[string]drift.FieldDiff{
			"instance_type": {Expected: "t3.micro", Actual: "t3.large"},
		},
		Severity:          drift.SeverityWarning,
		CostImpactMonthly: 42.5,
		Status:            drift.StatusDetected,
		DetectedAt:        now,
		DetectedBy:        drift.DetectedByScheduler,
		CreatedAt:         now,
	}
}

func TestDriftRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewDriftRepository(db)
	ctx := context.Background()

	d := testDrift("i-0abc123")
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("failed to create drift: %v", err)
	}

	got, err := repo.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("failed to get drift: %v", err)
	}

	if got.ResourceID != d.ResourceID {
		t.Errorf("expected resource_id %s, got %s", d.ResourceID, got.ResourceID)
	}
	if got.ResourceType != drift.ResourceEC2 {
		t.Errorf("expected resource type EC2, got %s", got.ResourceType)
	}
	if got.AccountID != d.AccountID {
		t.Errorf("expected account_id %s, got %s", d.AccountID, got.AccountID)
	}
	if got.Status != drift.StatusDetected {
		t.Errorf("expected status detected, got %s", got.Status)
	}
	if got.CostImpactMonthly != 42.5 {
		t.Errorf("expected cost impact 42.5, got %f", got.CostImpactMonthly)
	}
	if got.ExpectedState["instance_type"] != "t3.micro" {
		t.Errorf("expected state not round-tripped: %v", got.ExpectedState)
	}
	if got.ActualState["instance_type"] != "t3.large" {
		t.Errorf("actual state not round-tripped: %v", got.ActualState)
	}
	fd, ok := got.Difference["instance_type"]
	if !ok {
		t.Fatalf("difference not round-tripped: %v", got.Difference)
	}
	if fd.Expected != "t3.micro" || fd.Actual != "t3.large" {
		t.Errorf("unexpected field diff: %+v", fd)
	}
	if !got.DetectedAt.Equal(d.DetectedAt) {
		t.Errorf("expected detected_at %v, got %v", d.DetectedAt, got.DetectedAt)
	}
	if got.ApprovedAt != nil || got.RejectedAt != nil || got.ResolvedAt != nil {
		t.Error("expected decision timestamps to be nil on a new drift")
	}
}

func TestDriftRepository_GetByID_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewDriftRepository(db)

	_, err := repo.GetByID(context.Background(), uuid.New().String())
	if !apperrors.IsNotFound(err) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestDriftRepository_FindOpenDuplicate(t *testing.T) {
	db := newTestDB(t)
	repo := NewDriftRepository(db)
	ctx := context.Background()

	d := testDrift("i-0dup")
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("failed to create drift: %v", err)
	}

	got, err := repo.FindOpenDuplicate(ctx, "i-0dup", drift.ResourceEC2, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("duplicate lookup failed: %v", err)
	}
	if got == nil || got.ID != d.ID {
		t.Fatalf("expected to find drift %s, got %+v", d.ID, got)
	}

	// Different resource id is not a duplicate.
	got, err = repo.FindOpenDuplicate(ctx, "i-0other", drift.ResourceEC2, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("duplicate lookup failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected no duplicate for different resource, got %+v", got)
	}

	// Same resource id but different type is not a duplicate.
	got, err = repo.FindOpenDuplicate(ctx, "i-0dup", drift.ResourceRDS, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("duplicate lookup failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected no duplicate for different resource type, got %+v", got)
	}

	// Outside the window is not a duplicate.
	got, err = repo.FindOpenDuplicate(ctx, "i-0dup", drift.ResourceEC2, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("duplicate lookup failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected no duplicate outside window, got %+v", got)
	}
}

func TestDriftRepository_FindOpenDuplicate_IgnoresClosed(t *testing.T) {
	db := newTestDB(t)
	repo := NewDriftRepository(db)
	ctx := context.Background()

	d := testDrift("i-0closed")
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("failed to create drift: %v", err)
	}

	now := time.Now().UTC()
	_, err := repo.UpdateStatus(ctx, d.ID, drift.OpenStatuses, drift.StatusUpdate{
		Status:         drift.StatusApproved,
		ApprovedAt:     &now,
		ApprovedBy:     "alice",
		ApprovalReason: "remediation scheduled for friday",
	})
	if err != nil {
		t.Fatalf("failed to approve drift: %v", err)
	}

	got, err := repo.FindOpenDuplicate(ctx, "i-0closed", drift.ResourceEC2, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("duplicate lookup failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected approved drift to not count as duplicate, got %+v", got)
	}
}

func TestDriftRepository_FindOpenDuplicate_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewDriftRepository(db)
	ctx := context.Background()

	older := testDrift("i-0many")
	older.DetectedAt = time.Now().UTC().Add(-30 * time.Minute)
	if err := repo.Create(ctx, older); err != nil {
		t.Fatalf("failed to create drift: %v", err)
	}

	newer := testDrift("i-0many")
	if err := repo.Create(ctx, newer); err != nil {
		t.Fatalf("failed to create drift: %v", err)
	}

	got, err := repo.FindOpenDuplicate(ctx, "i-0many", drift.ResourceEC2, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("duplicate lookup failed: %v", err)
	}
	if got == nil || got.ID != newer.ID {
		t.Errorf("expected newest drift %s, got %+v", newer.ID, got)
	}
}

func TestDriftRepository_UpdateStatus_Approve(t *testing.T) {
	db := newTestDB(t)
	repo := NewDriftRepository(db)
	ctx := context.Background()

	d := testDrift("i-0approve")
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("failed to create drift: %v", err)
	}

	now := time.Now().UTC()
	got, err := repo.UpdateStatus(ctx, d.ID, drift.OpenStatuses, drift.StatusUpdate{
		Status:         drift.StatusApproved,
		ApprovedAt:     &now,
		ApprovedBy:     "alice",
		ApprovalReason: "remediation scheduled for friday",
	})
	if err != nil {
		t.Fatalf("failed to approve drift: %v", err)
	}

	if got.Status != drift.StatusApproved {
		t.Errorf("expected status approved, got %s", got.Status)
	}
	if got.ApprovedBy != "alice" {
		t.Errorf("expected approved_by alice, got %s", got.ApprovedBy)
	}
	if got.ApprovalReason != "remediation scheduled for friday" {
		t.Errorf("unexpected approval reason: %s", got.ApprovalReason)
	}
	if got.ApprovedAt == nil || !got.ApprovedAt.Equal(now) {
		t.Errorf("expected approved_at %v, got %v", now, got.ApprovedAt)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("expected updated_at to be stamped")
	}
}

func TestDriftRepository_UpdateStatus_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewDriftRepository(db)

	now := time.Now().UTC()
	_, err := repo.UpdateStatus(context.Background(), uuid.New().String(), drift.OpenStatuses, drift.StatusUpdate{
		Status:         drift.StatusApproved,
		ApprovedAt:     &now,
		ApprovedBy:     "alice",
		ApprovalReason: "remediation scheduled for friday",
	})
	if !apperrors.IsNotFound(err) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestDriftRepository_UpdateStatus_Conflict(t *testing.T) {
	db := newTestDB(t)
	repo := NewDriftRepository(db)
	ctx := context.Background()

	d := testDrift("i-0conflict")
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("failed to create drift: %v", err)
	}

	now := time.Now().UTC()
	update := drift.StatusUpdate{
		Status:         drift.StatusApproved,
		ApprovedAt:     &now,
		ApprovedBy:     "alice",
		ApprovalReason: "remediation scheduled for friday",
	}
	if _, err := repo.UpdateStatus(ctx, d.ID, drift.OpenStatuses, update); err != nil {
		t.Fatalf("failed to approve drift: %v", err)
	}

	update.ApprovedBy = "bob"
	_, err := repo.UpdateStatus(ctx, d.ID, drift.OpenStatuses, update)
	if !apperrors.IsConflict(err) {
		t.Fatalf("expected conflict error, got %v", err)
	}

	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Message != "Cannot approve drift in 'approved' status" {
		t.Errorf("unexpected conflict message: %s", appErr.Message)
	}

	// The winning update is untouched.
	got, err := repo.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("failed to get drift: %v", err)
	}
	if got.ApprovedBy != "alice" {
		t.Errorf("expected approved_by alice after losing race, got %s", got.ApprovedBy)
	}
}

func TestDriftRepository_UpdateStatus_Resolve(t *testing.T) {
	db := newTestDB(t)
	repo := NewDriftRepository(db)
	ctx := context.Background()

	d := testDrift("i-0resolve")
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("failed to create drift: %v", err)
	}

	now := time.Now().UTC()
	if _, err := repo.UpdateStatus(ctx, d.ID, drift.OpenStatuses, drift.StatusUpdate{
		Status:          drift.StatusRejected,
		RejectedAt:      &now,
		RejectedBy:      "bob",
		RejectionReason: "expected change, terraform apply pending",
	}); err != nil {
		t.Fatalf("failed to reject drift: %v", err)
	}

	got, err := repo.UpdateStatus(ctx, d.ID, []drift.Status{drift.StatusApproved, drift.StatusRejected}, drift.StatusUpdate{
		Status:      drift.StatusResolved,
		ResolvedAt:  &now,
		ResolvedHow: drift.ResolvedFalsePositive,
	})
	if err != nil {
		t.Fatalf("failed to resolve drift: %v", err)
	}

	if got.Status != drift.StatusResolved {
		t.Errorf("expected status resolved, got %s", got.Status)
	}
	if got.ResolvedHow != drift.ResolvedFalsePositive {
		t.Errorf("expected resolved_how false_positive, got %s", got.ResolvedHow)
	}
	if got.RejectedBy != "bob" {
		t.Errorf("expected rejection stamps preserved, got rejected_by %s", got.RejectedBy)
	}
}

func TestDriftRepository_ListWithPagination(t *testing.T) {
	db := newTestDB(t)
	repo := NewDriftRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	specs := []struct {
		resourceID string
		rtype      drift.ResourceType
		severity   drift.Severity
		region     string
		cost       float64
	}{
		{"i-0web", drift.ResourceEC2, drift.SeverityCritical, "us-east-1", 100},
		{"i-0db", drift.ResourceRDS, drift.SeverityWarning, "us-east-1", 50},
		{"bucket-logs", drift.ResourceS3, drift.SeverityInfo, "eu-west-1", 0},
	}
	for i, s := range specs {
		d := testDrift(s.resourceID)
		d.ResourceType = s.rtype
		d.Severity = s.severity
		d.Region = s.region
		d.CostImpactMonthly = s.cost
		d.DetectedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Create(ctx, d); err != nil {
			t.Fatalf("failed to create drift: %v", err)
		}
	}

	// Unfiltered, newest detection first.
	drifts, total, err := repo.ListWithPagination(ctx, drift.Filter{}, drift.Sort{Field: drift.SortDetectedAt, Desc: true}, 10, 0)
	if err != nil {
		t.Fatalf("failed to list drifts: %v", err)
	}
	if total != 3 {
		t.Errorf("expected total 3, got %d", total)
	}
	if len(drifts) != 3 {
		t.Fatalf("expected 3 drifts, got %d", len(drifts))
	}
	if drifts[0].ResourceID != "bucket-logs" {
		t.Errorf("expected newest drift first, got %s", drifts[0].ResourceID)
	}

	// Severity filter.
	drifts, total, err = repo.ListWithPagination(ctx, drift.Filter{Severity: drift.SeverityCritical}, drift.Sort{}, 10, 0)
	if err != nil {
		t.Fatalf("failed to list drifts: %v", err)
	}
	if total != 1 || len(drifts) != 1 || drifts[0].ResourceID != "i-0web" {
		t.Errorf("expected only the critical drift, got total=%d drifts=%v", total, drifts)
	}

	// Region filter.
	_, total, err = repo.ListWithPagination(ctx, drift.Filter{Region: "us-east-1"}, drift.Sort{}, 10, 0)
	if err != nil {
		t.Fatalf("failed to list drifts: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 drifts in us-east-1, got %d", total)
	}

	// Substring search on resource id.
	drifts, _, err = repo.ListWithPagination(ctx, drift.Filter{Search: "logs"}, drift.Sort{}, 10, 0)
	if err != nil {
		t.Fatalf("failed to list drifts: %v", err)
	}
	if len(drifts) != 1 || drifts[0].ResourceID != "bucket-logs" {
		t.Errorf("expected search to match bucket-logs, got %v", drifts)
	}

	// Cost sort ascending.
	drifts, _, err = repo.ListWithPagination(ctx, drift.Filter{}, drift.Sort{Field: drift.SortCostImpact}, 10, 0)
	if err != nil {
		t.Fatalf("failed to list drifts: %v", err)
	}
	if drifts[0].ResourceID != "bucket-logs" || drifts[2].ResourceID != "i-0web" {
		t.Errorf("expected cost ascending order, got %s .. %s", drifts[0].ResourceID, drifts[2].ResourceID)
	}

	// Pagination window.
	drifts, total, err = repo.ListWithPagination(ctx, drift.Filter{}, drift.Sort{Field: drift.SortDetectedAt, Desc: true}, 2, 2)
	if err != nil {
		t.Fatalf("failed to list drifts: %v", err)
	}
	if total != 3 {
		t.Errorf("expected total 3 with pagination, got %d", total)
	}
	if len(drifts) != 1 || drifts[0].ResourceID != "i-0web" {
		t.Errorf("expected last page to hold oldest drift, got %v", drifts)
	}
}

func TestDriftRepository_SummaryCounters(t *testing.T) {
	db := newTestDB(t)
	repo := NewDriftRepository(db)
	ctx := context.Background()

	open := testDrift("i-0open")
	open.Severity = drift.SeverityCritical
	open.CostImpactMonthly = 100
	if err := repo.Create(ctx, open); err != nil {
		t.Fatalf("failed to create drift: %v", err)
	}

	closed := testDrift("i-0done")
	closed.CostImpactMonthly = 60
	if err := repo.Create(ctx, closed); err != nil {
		t.Fatalf("failed to create drift: %v", err)
	}
	now := time.Now().UTC()
	if _, err := repo.UpdateStatus(ctx, closed.ID, drift.OpenStatuses, drift.StatusUpdate{
		Status:         drift.StatusApproved,
		ApprovedAt:     &now,
		ApprovedBy:     "alice",
		ApprovalReason: "remediation scheduled for friday",
	}); err != nil {
		t.Fatalf("failed to approve drift: %v", err)
	}

	byStatus, err := repo.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("failed to count by status: %v", err)
	}
	if byStatus[drift.StatusDetected] != 1 || byStatus[drift.StatusApproved] != 1 {
		t.Errorf("unexpected status counts: %v", byStatus)
	}

	bySeverity, err := repo.CountBySeverity(ctx)
	if err != nil {
		t.Fatalf("failed to count by severity: %v", err)
	}
	if bySeverity[drift.SeverityCritical] != 1 || bySeverity[drift.SeverityWarning] != 1 {
		t.Errorf("unexpected severity counts: %v", bySeverity)
	}

	cost, err := repo.OpenCostImpact(ctx)
	if err != nil {
		t.Fatalf("failed to sum open cost: %v", err)
	}
	if cost != 100 {
		t.Errorf("expected open cost 100, got %f", cost)
	}
}

func TestDriftRepository_OpenCostImpact_Empty(t *testing.T) {
	db := newTestDB(t)
	repo := NewDriftRepository(db)

	cost, err := repo.OpenCostImpact(context.Background())
	if err != nil {
		t.Fatalf("failed to sum open cost: %v", err)
	}
	if cost != 0 {
		t.Errorf("expected 0 on empty table, got %f", cost)
	}
}

func TestDriftRepository_SubsecondTimestampOrdering(t *testing.T) {
	db := newTestDB(t)
	repo := NewDriftRepository(db)
	ctx := context.Background()

	// A trimmed-fraction encoding would sort ".5Z" after ".51Z" and
	// invert both the newest-first pick and the window comparison.
	older := testDrift("i-0frac")
	older.DetectedAt = time.Date(2026, 8, 30, 12, 0, 1, 500_000_000, time.UTC)
	if err := repo.Create(ctx, older); err != nil {
		t.Fatalf("failed to create drift: %v", err)
	}

	newer := testDrift("i-0frac")
	newer.DetectedAt = time.Date(2026, 8, 30, 12, 0, 1, 510_000_000, time.UTC)
	if err := repo.Create(ctx, newer); err != nil {
		t.Fatalf("failed to create drift: %v", err)
	}

	got, err := repo.FindOpenDuplicate(ctx, "i-0frac", drift.ResourceEC2, time.Date(2026, 8, 30, 11, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("duplicate lookup failed: %v", err)
	}
	if got == nil || got.ID != newer.ID {
		t.Errorf("expected the 510ms drift as newest, got %+v", got)
	}

	// A window opening at 510ms must exclude the 500ms record.
	got, err = repo.FindOpenDuplicate(ctx, "i-0frac", drift.ResourceEC2, time.Date(2026, 8, 30, 12, 0, 1, 510_000_000, time.UTC))
	if err != nil {
		t.Fatalf("duplicate lookup failed: %v", err)
	}
	if got == nil || got.ID != newer.ID {
		t.Errorf("expected only the 510ms drift inside the window, got %+v", got)
	}

	drifts, _, err := repo.ListWithPagination(ctx, drift.Filter{Search: "i-0frac"}, drift.Sort{Field: drift.SortDetectedAt, Desc: true}, 10, 0)
	if err != nil {
		t.Fatalf("failed to list drifts: %v", err)
	}
	if len(drifts) != 2 || drifts[0].ID != newer.ID {
		t.Errorf("expected newest-first list order, got %v", drifts)
	}
}

func TestDriftRepository_SortBySeverityRank(t *testing.T) {
	db := newTestDB(t)
	repo := NewDriftRepository(db)
	ctx := context.Background()

	for _, s := range []drift.Severity{drift.SeverityInfo, drift.SeverityCritical, drift.SeverityWarning} {
		d := testDrift("i-0sev-" + string(s))
		d.Severity = s
		if err := repo.Create(ctx, d); err != nil {
			t.Fatalf("failed to create drift: %v", err)
		}
	}

	severities := func(drifts []*drift.Drift) []drift.Severity {
		out := make([]drift.Severity, len(drifts))
		for i, d := range drifts {
			out[i] = d.Severity
		}
		return out
	}

	// Descending puts the most severe first; lexicographic text order
	// would yield warning, info, critical instead.
	drifts, _, err := repo.ListWithPagination(ctx, drift.Filter{}, drift.Sort{Field: drift.SortSeverity, Desc: true}, 10, 0)
	if err != nil {
		t.Fatalf("failed to list drifts: %v", err)
	}
	want := []drift.Severity{drift.SeverityCritical, drift.SeverityWarning, drift.SeverityInfo}
	got := severities(drifts)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("severity desc order = %v, want %v", got, want)
		}
	}

	drifts, _, err = repo.ListWithPagination(ctx, drift.Filter{}, drift.Sort{Field: drift.SortSeverity}, 10, 0)
	if err != nil {
		t.Fatalf("failed to list drifts: %v", err)
	}
	got = severities(drifts)
	if got[0] != drift.SeverityInfo || got[2] != drift.SeverityCritical {
		t.Errorf("severity asc order = %v, want least severe first", got)
	}
}
