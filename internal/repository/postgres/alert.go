package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/driftboard/driftboard/internal/domain/alert"
	"github.com/driftboard/driftboard/internal/domain/drift"
	"github.com/driftboard/driftboard/internal/pkg/errors"
)

const alertColumns = `id, drift_id, type, severity, title, message, read, read_at, read_by, created_at`

type AlertRepository struct {
	db *sql.DB
}

func NewAlertRepository(db *sql.DB) alert.Repository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Create(ctx context.Context, a *alert.Alert) error {
	query := `INSERT INTO alerts (id, drift_id, type, severity, title, message, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.DriftID, string(a.Type), string(a.Severity), a.Title, a.Message,
		a.Read, formatTimestamp(a.CreatedAt))
	if err != nil {
		return errors.DatabaseError("Failed to create alert", err)
	}

	return nil
}

func (r *AlertRepository) GetByID(ctx context.Context, id string) (*alert.Alert, error) {
	query := fmt.Sprintf(`SELECT %s FROM alerts WHERE id = ?`, alertColumns)

	a, err := scanAlert(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Alert")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get alert", err)
	}

	return a, nil
}

func (r *AlertRepository) MarkRead(ctx context.Context, id, actorID string) (*alert.Alert, error) {
	query := `UPDATE alerts SET read = ?, read_at = ?, read_by = ? WHERE id = ? AND read = ?`

	result, err := r.db.ExecContext(ctx, query, true, formatTimestamp(time.Now()), actorID, id, false)
	if err != nil {
		return nil, errors.DatabaseError("Failed to mark alert read", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, errors.DatabaseError("Failed to mark alert read", err)
	}
	if rows == 0 {
		// Either missing or already read; GetByID settles which.
		return r.GetByID(ctx, id)
	}

	return r.GetByID(ctx, id)
}

func (r *AlertRepository) MarkAllByDriftRead(ctx context.Context, driftID, actorID string) (int64, error) {
	query := `UPDATE alerts SET read = ?, read_at = ?, read_by = ? WHERE drift_id = ? AND read = ?`

	result, err := r.db.ExecContext(ctx, query, true, formatTimestamp(time.Now()), actorID, driftID, false)
	if err != nil {
		return 0, errors.DatabaseError("Failed to mark drift alerts read", err)
	}

	return result.RowsAffected()
}

func (r *AlertRepository) CountByDrift(ctx context.Context, driftID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts WHERE drift_id = ?`, driftID).Scan(&count)
	if err != nil {
		return 0, errors.DatabaseError("Failed to count drift alerts", err)
	}
	return count, nil
}

func (r *AlertRepository) UnreadCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts WHERE read = ?`, false).Scan(&count)
	if err != nil {
		return 0, errors.DatabaseError("Failed to count unread alerts", err)
	}
	return count, nil
}

func (r *AlertRepository) ListWithPagination(ctx context.Context, filter alert.Filter, limit, offset int) ([]*alert.Alert, int64, error) {
	where := []string{"1 = 1"}
	args := []interface{}{}

	if filter.DriftID != "" {
		where = append(where, "drift_id = ?")
		args = append(args, filter.DriftID)
	}
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Severity != "" {
		where = append(where, "severity = ?")
		args = append(args, string(filter.Severity))
	}
	if filter.Read != nil {
		where = append(where, "read = ?")
		args = append(args, *filter.Read)
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM alerts WHERE %s", whereClause), args...).Scan(&total)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to count alerts", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM alerts WHERE %s ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		alertColumns, whereClause)

	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list alerts", err)
	}
	defer rows.Close()

	var alerts []*alert.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan alert", err)
		}
		alerts = append(alerts, a)
	}

	return alerts, total, rows.Err()
}

func scanAlert(row scanner) (*alert.Alert, error) {
	var a alert.Alert
	var alertType, severity string
	var readAt, readBy sql.NullString
	var createdAt string

	err := row.Scan(&a.ID, &a.DriftID, &alertType, &severity, &a.Title, &a.Message,
		&a.Read, &readAt, &readBy, &createdAt)
	if err != nil {
		return nil, err
	}

	a.Type = alert.Type(alertType)
	a.Severity = drift.Severity(severity)
	a.ReadAt = parseNullTime(readAt)
	a.ReadBy = readBy.String
	a.CreatedAt = parseTime(createdAt)

	return &a, nil
}
