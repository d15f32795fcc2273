package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/driftboard/driftboard/internal/domain/drift"
	"github.com/driftboard/driftboard/internal/pkg/errors"
)

// timeLayout is a fixed-width RFC 3339 variant. RFC3339Nano trims
// trailing fraction zeros, which breaks the lexicographic ordering
// applied to text timestamp columns; a padded fraction keeps string
// order chronological. Values are normalized to UTC for the same
// reason.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

const driftColumns = `id, resource_id, resource_type, region, account_id,
	expected_state, actual_state, difference, severity, cost_impact_monthly,
	status, detected_at, detected_by,
	approved_at, approved_by, approval_reason,
	rejected_at, rejected_by, rejection_reason,
	resolved_at, resolved_how, created_at, updated_at`

type DriftRepository struct {
	db *sql.DB
}

func NewDriftRepository(db *sql.DB) drift.Repository {
	return &DriftRepository{db: db}
}

func (r *DriftRepository) Create(ctx context.Context, d *drift.Drift) error {
	expected, err := json.Marshal(d.ExpectedState)
	if err != nil {
		return errors.DatabaseError("Failed to encode expected state", err)
	}
	actual, err := json.Marshal(d.ActualState)
	if err != nil {
		return errors.DatabaseError("Failed to encode actual state", err)
	}
	difference, err := json.Marshal(d.Difference)
	if err != nil {
		return errors.DatabaseError("Failed to encode difference", err)
	}

	query := `INSERT INTO drifts (id, resource_id, resource_type, region, account_id,
		expected_state, actual_state, difference, severity, cost_impact_monthly,
		status, detected_at, detected_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		d.ID, d.ResourceID, string(d.ResourceType), d.Region, nullString(d.AccountID),
		string(expected), string(actual), string(difference),
		string(d.Severity), d.CostImpactMonthly,
		string(d.Status), formatTimestamp(d.DetectedAt), string(d.DetectedBy),
		formatTimestamp(d.CreatedAt))
	if err != nil {
		return errors.DatabaseError("Failed to create drift", err)
	}

	return nil
}

func (r *DriftRepository) GetByID(ctx context.Context, id string) (*drift.Drift, error) {
	query := fmt.Sprintf(`SELECT %s FROM drifts WHERE id = ?`, driftColumns)

	d, err := scanDrift(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Drift")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get drift", err)
	}

	return d, nil
}

func (r *DriftRepository) FindOpenDuplicate(ctx context.Context, resourceID string, resourceType drift.ResourceType, since time.Time) (*drift.Drift, error) {
	query := fmt.Sprintf(`SELECT %s FROM drifts
		WHERE resource_id = ? AND resource_type = ?
		  AND status IN ('detected', 'triaged')
		  AND detected_at >= ?
		ORDER BY detected_at DESC LIMIT 1`, driftColumns)

	d, err := scanDrift(r.db.QueryRowContext(ctx, query, resourceID, string(resourceType), formatTimestamp(since)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to look up duplicate drift", err)
	}

	return d, nil
}

// UpdateStatus performs the transition as a single conditional update so
// a racing second transition loses at write time instead of silently
// overwriting. Zero rows affected is resolved into not-found or
// conflict by re-reading the current status.
func (r *DriftRepository) UpdateStatus(ctx context.Context, id string, from []drift.Status, u drift.StatusUpdate) (*drift.Drift, error) {
	set := []string{"status = ?", "updated_at = ?"}
	args := []interface{}{string(u.Status), formatTimestamp(time.Now())}

	switch u.Status {
	case drift.StatusApproved:
		set = append(set, "approved_at = ?", "approved_by = ?", "approval_reason = ?")
		args = append(args, formatTime(u.ApprovedAt), nullString(u.ApprovedBy), u.ApprovalReason)
	case drift.StatusRejected:
		set = append(set, "rejected_at = ?", "rejected_by = ?", "rejection_reason = ?")
		args = append(args, formatTime(u.RejectedAt), nullString(u.RejectedBy), u.RejectionReason)
	case drift.StatusResolved:
		set = append(set, "resolved_at = ?", "resolved_how = ?")
		args = append(args, formatTime(u.ResolvedAt), string(u.ResolvedHow))
	}

	placeholders := make([]string, len(from))
	for i, st := range from {
		placeholders[i] = "?"
		args = append(args, string(st))
	}

	query := fmt.Sprintf(`UPDATE drifts SET %s WHERE id = ? AND status IN (%s)`,
		strings.Join(set, ", "), strings.Join(placeholders, ", "))

	// id sits between the SET args and the IN args
	final := make([]interface{}, 0, len(args)+1)
	final = append(final, args[:len(args)-len(from)]...)
	final = append(final, id)
	final = append(final, args[len(args)-len(from):]...)

	result, err := r.db.ExecContext(ctx, query, final...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to update drift status", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, errors.DatabaseError("Failed to update drift status", err)
	}
	if rows == 0 {
		var current string
		err := r.db.QueryRowContext(ctx, "SELECT status FROM drifts WHERE id = ?", id).Scan(&current)
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("Drift")
		}
		if err != nil {
			return nil, errors.DatabaseError("Failed to update drift status", err)
		}
		return nil, errors.Conflict(fmt.Sprintf("Cannot %s drift in '%s' status", drift.TransitionVerb(u.Status), current))
	}

	return r.GetByID(ctx, id)
}

func (r *DriftRepository) ListWithPagination(ctx context.Context, filter drift.Filter, sort drift.Sort, limit, offset int) ([]*drift.Drift, int64, error) {
	where := []string{"1 = 1"}
	args := []interface{}{}

	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Severity != "" {
		where = append(where, "severity = ?")
		args = append(args, string(filter.Severity))
	}
	if filter.ResourceType != "" {
		where = append(where, "resource_type = ?")
		args = append(args, string(filter.ResourceType))
	}
	if filter.Region != "" {
		where = append(where, "region = ?")
		args = append(args, filter.Region)
	}
	if filter.Search != "" {
		where = append(where, "resource_id LIKE ?")
		args = append(args, "%"+filter.Search+"%")
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM drifts WHERE %s", whereClause), args...).Scan(&total)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to count drifts", err)
	}

	order := orderClause(sort)
	query := fmt.Sprintf(`SELECT %s FROM drifts WHERE %s ORDER BY %s LIMIT ? OFFSET ?`,
		driftColumns, whereClause, order)

	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list drifts", err)
	}
	defer rows.Close()

	var drifts []*drift.Drift
	for rows.Next() {
		d, err := scanDrift(rows)
		if err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan drift", err)
		}
		drifts = append(drifts, d)
	}

	return drifts, total, rows.Err()
}

func (r *DriftRepository) CountByStatus(ctx context.Context) (map[drift.Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM drifts GROUP BY status`)
	if err != nil {
		return nil, errors.DatabaseError("Failed to count drifts by status", err)
	}
	defer rows.Close()

	counts := make(map[drift.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, errors.DatabaseError("Failed to scan count", err)
		}
		counts[drift.Status(status)] = count
	}

	return counts, rows.Err()
}

func (r *DriftRepository) CountBySeverity(ctx context.Context) (map[drift.Severity]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT severity, COUNT(*) FROM drifts GROUP BY severity`)
	if err != nil {
		return nil, errors.DatabaseError("Failed to count drifts by severity", err)
	}
	defer rows.Close()

	counts := make(map[drift.Severity]int)
	for rows.Next() {
		var severity string
		var count int
		if err := rows.Scan(&severity, &count); err != nil {
			return nil, errors.DatabaseError("Failed to scan count", err)
		}
		counts[drift.Severity(severity)] = count
	}

	return counts, rows.Err()
}

func (r *DriftRepository) OpenCostImpact(ctx context.Context) (float64, error) {
	var total sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		`SELECT SUM(cost_impact_monthly) FROM drifts WHERE status IN ('detected', 'triaged')`).Scan(&total)
	if err != nil {
		return 0, errors.DatabaseError("Failed to sum open cost impact", err)
	}
	return total.Float64, nil
}

func orderClause(sort drift.Sort) string {
	field := sort.Field
	if !drift.ValidSortField(field) {
		field = drift.SortDetectedAt
	}
	if field == drift.SortSeverity {
		// Rank, not enum text: descending puts the most severe first.
		field = "CASE severity WHEN 'critical' THEN 3 WHEN 'warning' THEN 2 ELSE 1 END"
	}
	dir := "ASC"
	if sort.Desc {
		dir = "DESC"
	}
	return field + " " + dir
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDrift(row scanner) (*drift.Drift, error) {
	var d drift.Drift
	var resourceType, severity, status, detectedBy string
	var accountID, approvedBy, approvalReason, rejectedBy, rejectionReason, resolvedHow sql.NullString
	var expected, actual, difference string
	var detectedAt, createdAt string
	var approvedAt, rejectedAt, resolvedAt, updatedAt sql.NullString

	err := row.Scan(&d.ID, &d.ResourceID, &resourceType, &d.Region, &accountID,
		&expected, &actual, &difference, &severity, &d.CostImpactMonthly,
		&status, &detectedAt, &detectedBy,
		&approvedAt, &approvedBy, &approvalReason,
		&rejectedAt, &rejectedBy, &rejectionReason,
		&resolvedAt, &resolvedHow, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	d.ResourceType = drift.ResourceType(resourceType)
	d.Severity = drift.Severity(severity)
	d.Status = drift.Status(status)
	d.DetectedBy = drift.DetectedBy(detectedBy)
	d.AccountID = accountID.String
	d.ApprovedBy = approvedBy.String
	d.ApprovalReason = approvalReason.String
	d.RejectedBy = rejectedBy.String
	d.RejectionReason = rejectionReason.String
	d.ResolvedHow = drift.ResolvedHow(resolvedHow.String)

	if err := json.Unmarshal([]byte(expected), &d.ExpectedState); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(actual), &d.ActualState); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(difference), &d.Difference); err != nil {
		return nil, err
	}

	d.DetectedAt = parseTime(detectedAt)
	d.CreatedAt = parseTime(createdAt)
	d.ApprovedAt = parseNullTime(approvedAt)
	d.RejectedAt = parseNullTime(rejectedAt)
	d.ResolvedAt = parseNullTime(resolvedAt)
	if t := parseNullTime(updatedAt); t != nil {
		d.UpdatedAt = *t
	}

	return &d, nil
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTimestamp(*t)
}
