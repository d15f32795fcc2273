package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/driftboard/driftboard/internal/domain/alert"
	"github.com/driftboard/driftboard/internal/domain/drift"
	apperrors "github.com/driftboard/driftboard/internal/pkg/errors"
)

func testAlert(driftID string) *alert.Alert {
	return &alert.Alert{
		ID:        uuid.New().String(),
		DriftID:   driftID,
		Type:      alert.TypeDriftDetected,
		Severity:  drift.SeverityCritical,
		Title:     "Critical drift detected on i-0abc123",
		Message:   "EC2 instance i-0abc123 diverged from its expected configuration",
		CreatedAt: time.Now().UTC(),
	}
}

func TestAlertRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewAlertRepository(db)
	ctx := context.Background()

	a := testAlert(uuid.New().String())
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("failed to create alert: %v", err)
	}

	got, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("failed to get alert: %v", err)
	}
	if got.DriftID != a.DriftID {
		t.Errorf("expected drift_id %s, got %s", a.DriftID, got.DriftID)
	}
	if got.Type != alert.TypeDriftDetected {
		t.Errorf("expected type drift_detected, got %s", got.Type)
	}
	if got.Read {
		t.Error("expected new alert to be unread")
	}
	if got.ReadAt != nil || got.ReadBy != "" {
		t.Error("expected read stamps to be empty on a new alert")
	}
}

func TestAlertRepository_GetByID_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewAlertRepository(db)

	_, err := repo.GetByID(context.Background(), uuid.New().String())
	if !apperrors.IsNotFound(err) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestAlertRepository_MarkRead(t *testing.T) {
	db := newTestDB(t)
	repo := NewAlertRepository(db)
	ctx := context.Background()

	a := testAlert(uuid.New().String())
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("failed to create alert: %v", err)
	}

	got, err := repo.MarkRead(ctx, a.ID, "alice")
	if err != nil {
		t.Fatalf("failed to mark alert read: %v", err)
	}
	if !got.Read {
		t.Error("expected alert to be read")
	}
	if got.ReadBy != "alice" {
		t.Errorf("expected read_by alice, got %s", got.ReadBy)
	}
	if got.ReadAt == nil {
		t.Error("expected read_at to be stamped")
	}

	// Marking again is a no-op that keeps the original reader.
	got, err = repo.MarkRead(ctx, a.ID, "bob")
	if err != nil {
		t.Fatalf("second mark read failed: %v", err)
	}
	if got.ReadBy != "alice" {
		t.Errorf("expected read_by to stay alice, got %s", got.ReadBy)
	}
}

func TestAlertRepository_MarkAllByDriftRead(t *testing.T) {
	db := newTestDB(t)
	repo := NewAlertRepository(db)
	ctx := context.Background()

	driftID := uuid.New().String()
	for i := 0; i < 3; i++ {
		if err := repo.Create(ctx, testAlert(driftID)); err != nil {
			t.Fatalf("failed to create alert: %v", err)
		}
	}
	other := testAlert(uuid.New().String())
	if err := repo.Create(ctx, other); err != nil {
		t.Fatalf("failed to create alert: %v", err)
	}

	count, err := repo.MarkAllByDriftRead(ctx, driftID, drift.SystemActor)
	if err != nil {
		t.Fatalf("failed to mark drift alerts read: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 alerts marked, got %d", count)
	}

	unread, err := repo.UnreadCount(ctx)
	if err != nil {
		t.Fatalf("failed to count unread alerts: %v", err)
	}
	if unread != 1 {
		t.Errorf("expected 1 unread alert, got %d", unread)
	}

	// Second pass touches nothing.
	count, err = repo.MarkAllByDriftRead(ctx, driftID, drift.SystemActor)
	if err != nil {
		t.Fatalf("failed to mark drift alerts read: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 alerts marked on second pass, got %d", count)
	}
}

func TestAlertRepository_ListWithPagination(t *testing.T) {
	db := newTestDB(t)
	repo := NewAlertRepository(db)
	ctx := context.Background()

	driftID := uuid.New().String()
	a1 := testAlert(driftID)
	a1.CreatedAt = time.Now().UTC().Add(-time.Minute)
	a2 := testAlert(driftID)
	a3 := testAlert(uuid.New().String())
	a3.Severity = drift.SeverityWarning
	for _, a := range []*alert.Alert{a1, a2, a3} {
		if err := repo.Create(ctx, a); err != nil {
			t.Fatalf("failed to create alert: %v", err)
		}
	}
	if _, err := repo.MarkRead(ctx, a1.ID, "alice"); err != nil {
		t.Fatalf("failed to mark alert read: %v", err)
	}

	// Drift filter, newest first.
	alerts, total, err := repo.ListWithPagination(ctx, alert.Filter{DriftID: driftID}, 10, 0)
	if err != nil {
		t.Fatalf("failed to list alerts: %v", err)
	}
	if total != 2 || len(alerts) != 2 {
		t.Fatalf("expected 2 alerts for drift, got total=%d len=%d", total, len(alerts))
	}
	if alerts[0].ID != a2.ID {
		t.Errorf("expected newest alert first, got %s", alerts[0].ID)
	}

	// Unread filter.
	unread := false
	_, total, err = repo.ListWithPagination(ctx, alert.Filter{Read: &unread}, 10, 0)
	if err != nil {
		t.Fatalf("failed to list alerts: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 unread alerts, got %d", total)
	}

	// Severity filter.
	alerts, _, err = repo.ListWithPagination(ctx, alert.Filter{Severity: drift.SeverityWarning}, 10, 0)
	if err != nil {
		t.Fatalf("failed to list alerts: %v", err)
	}
	if len(alerts) != 1 || alerts[0].ID != a3.ID {
		t.Errorf("expected only the warning alert, got %v", alerts)
	}

	// Drift count helper.
	count, err := repo.CountByDrift(ctx, driftID)
	if err != nil {
		t.Fatalf("failed to count drift alerts: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 alerts on drift, got %d", count)
	}
}
