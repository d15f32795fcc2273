package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/driftboard/driftboard/internal/domain/alert"
	"github.com/driftboard/driftboard/internal/domain/audit"
	"github.com/driftboard/driftboard/internal/domain/drift"
	"github.com/driftboard/driftboard/internal/domain/event"
	"github.com/driftboard/driftboard/internal/pkg/errors"
)

// MockDriftRepository is an in-memory implementation of drift.Repository
type MockDriftRepository struct {
	Drifts      map[string]*drift.Drift
	CreateError error
	GetError    error
	UpdateError error
	ListError   error
}

func NewMockDriftRepository() *MockDriftRepository {
	return &MockDriftRepository{
		Drifts: make(map[string]*drift.Drift),
	}
}

func (m *MockDriftRepository) Create(ctx context.Context, d *drift.Drift) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	cp := *d
	m.Drifts[d.ID] = &cp
	return nil
}

func (m *MockDriftRepository) GetByID(ctx context.Context, id string) (*drift.Drift, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	d, ok := m.Drifts[id]
	if !ok {
		return nil, errors.NotFound("Drift")
	}
	cp := *d
	return &cp, nil
}

func (m *MockDriftRepository) FindOpenDuplicate(ctx context.Context, resourceID string, resourceType drift.ResourceType, since time.Time) (*drift.Drift, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	var newest *drift.Drift
	for _, d := range m.Drifts {
		if d.ResourceID != resourceID || d.ResourceType != resourceType {
			continue
		}
		if !d.Status.Open() || d.DetectedAt.Before(since) {
			continue
		}
		if newest == nil || d.DetectedAt.After(newest.DetectedAt) {
			newest = d
		}
	}
	if newest == nil {
		return nil, nil
	}
	cp := *newest
	return &cp, nil
}

func (m *MockDriftRepository) UpdateStatus(ctx context.Context, id string, from []drift.Status, u drift.StatusUpdate) (*drift.Drift, error) {
	if m.UpdateError != nil {
		return nil, m.UpdateError
	}
	d, ok := m.Drifts[id]
	if !ok {
		return nil, errors.NotFound("Drift")
	}
	allowed := false
	for _, s := range from {
		if d.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, errors.Conflict(fmt.Sprintf("Cannot %s drift in '%s' status", drift.TransitionVerb(u.Status), d.Status))
	}

	d.Status = u.Status
	switch u.Status {
	case drift.StatusApproved:
		d.ApprovedAt = u.ApprovedAt
		d.ApprovedBy = u.ApprovedBy
		d.ApprovalReason = u.ApprovalReason
	case drift.StatusRejected:
		d.RejectedAt = u.RejectedAt
		d.RejectedBy = u.RejectedBy
		d.RejectionReason = u.RejectionReason
	case drift.StatusResolved:
		d.ResolvedAt = u.ResolvedAt
		d.ResolvedHow = u.ResolvedHow
	}

	cp := *d
	return &cp, nil
}

func (m *MockDriftRepository) ListWithPagination(ctx context.Context, filter drift.Filter, s drift.Sort, limit, offset int) ([]*drift.Drift, int64, error) {
	if m.ListError != nil {
		return nil, 0, m.ListError
	}
	var matched []*drift.Drift
	for _, d := range m.Drifts {
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		if filter.Severity != "" && d.Severity != filter.Severity {
			continue
		}
		if filter.ResourceType != "" && d.ResourceType != filter.ResourceType {
			continue
		}
		if filter.Region != "" && d.Region != filter.Region {
			continue
		}
		cp := *d
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		if s.Desc {
			return matched[i].DetectedAt.After(matched[j].DetectedAt)
		}
		return matched[i].DetectedAt.Before(matched[j].DetectedAt)
	})
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *MockDriftRepository) CountByStatus(ctx context.Context) (map[drift.Status]int, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	counts := make(map[drift.Status]int)
	for _, d := range m.Drifts {
		counts[d.Status]++
	}
	return counts, nil
}

func (m *MockDriftRepository) CountBySeverity(ctx context.Context) (map[drift.Severity]int, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	counts := make(map[drift.Severity]int)
	for _, d := range m.Drifts {
		counts[d.Severity]++
	}
	return counts, nil
}

func (m *MockDriftRepository) OpenCostImpact(ctx context.Context) (float64, error) {
	if m.ListError != nil {
		return 0, m.ListError
	}
	var sum float64
	for _, d := range m.Drifts {
		if d.Status.Open() {
			sum += d.CostImpactMonthly
		}
	}
	return sum, nil
}

// MockAlertRepository is an in-memory implementation of alert.Repository
type MockAlertRepository struct {
	Alerts      map[string]*alert.Alert
	CreateError error
	MarkError   error
}

func NewMockAlertRepository() *MockAlertRepository {
	return &MockAlertRepository{
		Alerts: make(map[string]*alert.Alert),
	}
}

func (m *MockAlertRepository) Create(ctx context.Context, a *alert.Alert) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	cp := *a
	m.Alerts[a.ID] = &cp
	return nil
}

func (m *MockAlertRepository) GetByID(ctx context.Context, id string) (*alert.Alert, error) {
	a, ok := m.Alerts[id]
	if !ok {
		return nil, errors.NotFound("Alert")
	}
	cp := *a
	return &cp, nil
}

func (m *MockAlertRepository) MarkRead(ctx context.Context, id, actorID string) (*alert.Alert, error) {
	if m.MarkError != nil {
		return nil, m.MarkError
	}
	a, ok := m.Alerts[id]
	if !ok {
		return nil, errors.NotFound("Alert")
	}
	if !a.Read {
		now := time.Now()
		a.Read = true
		a.ReadAt = &now
		a.ReadBy = actorID
	}
	cp := *a
	return &cp, nil
}

func (m *MockAlertRepository) MarkAllByDriftRead(ctx context.Context, driftID, actorID string) (int64, error) {
	if m.MarkError != nil {
		return 0, m.MarkError
	}
	var n int64
	now := time.Now()
	for _, a := range m.Alerts {
		if a.DriftID == driftID && !a.Read {
			a.Read = true
			a.ReadAt = &now
			a.ReadBy = actorID
			n++
		}
	}
	return n, nil
}

func (m *MockAlertRepository) CountByDrift(ctx context.Context, driftID string) (int, error) {
	var n int
	for _, a := range m.Alerts {
		if a.DriftID == driftID {
			n++
		}
	}
	return n, nil
}

func (m *MockAlertRepository) UnreadCount(ctx context.Context) (int, error) {
	var n int
	for _, a := range m.Alerts {
		if !a.Read {
			n++
		}
	}
	return n, nil
}

func (m *MockAlertRepository) ListWithPagination(ctx context.Context, filter alert.Filter, limit, offset int) ([]*alert.Alert, int64, error) {
	var matched []*alert.Alert
	for _, a := range m.Alerts {
		if filter.DriftID != "" && a.DriftID != filter.DriftID {
			continue
		}
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.Severity != "" && a.Severity != filter.Severity {
			continue
		}
		if filter.Read != nil && a.Read != *filter.Read {
			continue
		}
		cp := *a
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

// MockAuditRepository is an in-memory implementation of audit.Repository
type MockAuditRepository struct {
	Logs        []*audit.Log
	CreateError error
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Create(ctx context.Context, l *audit.Log) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	cp := *l
	m.Logs = append(m.Logs, &cp)
	return nil
}

func (m *MockAuditRepository) ListWithPagination(ctx context.Context, filter audit.Filter, limit, offset int) ([]*audit.Log, int64, error) {
	var matched []*audit.Log
	for _, l := range m.Logs {
		if filter.DriftID != "" && l.DriftID != filter.DriftID {
			continue
		}
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.ActorID != "" && l.ActorID != filter.ActorID {
			continue
		}
		matched = append(matched, l)
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

// ActionsByDrift returns the recorded actions for a drift, in order.
func (m *MockAuditRepository) ActionsByDrift(driftID string) []audit.Action {
	var actions []audit.Action
	for _, l := range m.Logs {
		if l.DriftID == driftID {
			actions = append(actions, l.Action)
		}
	}
	return actions
}

// MockSink records emitted events for assertions. Safe for concurrent use.
type MockSink struct {
	mu     sync.Mutex
	events []event.Event
}

func NewMockSink() *MockSink {
	return &MockSink{}
}

func (m *MockSink) Emit(e event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

// Events returns a snapshot of everything emitted so far.
func (m *MockSink) Events() []event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event.Event, len(m.events))
	copy(out, m.events)
	return out
}

// Types returns the emitted event types, in order.
func (m *MockSink) Types() []event.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]event.Type, len(m.events))
	for i, e := range m.events {
		types[i] = e.Type
	}
	return types
}
