package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/driftboard/driftboard/internal/domain/audit"
	"github.com/driftboard/driftboard/internal/pkg/errors"
)

// AuditRepository is append-only: only INSERT and SELECT are ever
// issued against audit_logs.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) audit.Repository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, l *audit.Log) error {
	query := `INSERT INTO audit_logs (id, action, drift_id, actor_id, actor_email, old_value, new_value, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		l.ID, string(l.Action), nullString(l.DriftID), nullString(l.ActorID), nullString(l.ActorEmail),
		rawJSONString(l.OldValue), rawJSONString(l.NewValue), nullString(l.Details),
		formatTimestamp(l.CreatedAt))
	if err != nil {
		return errors.DatabaseError("Failed to append audit log", err)
	}

	return nil
}

func (r *AuditRepository) ListWithPagination(ctx context.Context, filter audit.Filter, limit, offset int) ([]*audit.Log, int64, error) {
	where := []string{"1 = 1"}
	args := []interface{}{}

	if filter.DriftID != "" {
		where = append(where, "drift_id = ?")
		args = append(args, filter.DriftID)
	}
	if filter.Action != "" {
		where = append(where, "action = ?")
		args = append(args, string(filter.Action))
	}
	if filter.ActorID != "" {
		where = append(where, "actor_id = ?")
		args = append(args, filter.ActorID)
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM audit_logs WHERE %s", whereClause), args...).Scan(&total)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to count audit logs", err)
	}

	query := fmt.Sprintf(`SELECT id, action, drift_id, actor_id, actor_email, old_value, new_value, details, created_at
		FROM audit_logs WHERE %s ORDER BY created_at DESC LIMIT ? OFFSET ?`, whereClause)

	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list audit logs", err)
	}
	defer rows.Close()

	var logs []*audit.Log
	for rows.Next() {
		var l audit.Log
		var action string
		var driftID, actorID, actorEmail, oldValue, newValue, details sql.NullString
		var createdAt string

		if err := rows.Scan(&l.ID, &action, &driftID, &actorID, &actorEmail,
			&oldValue, &newValue, &details, &createdAt); err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan audit log", err)
		}

		l.Action = audit.Action(action)
		l.DriftID = driftID.String
		l.ActorID = actorID.String
		l.ActorEmail = actorEmail.String
		if oldValue.Valid {
			l.OldValue = json.RawMessage(oldValue.String)
		}
		if newValue.Valid {
			l.NewValue = json.RawMessage(newValue.String)
		}
		l.Details = details.String
		l.CreatedAt = parseTime(createdAt)

		logs = append(logs, &l)
	}

	return logs, total, rows.Err()
}

func rawJSONString(raw json.RawMessage) sql.NullString {
	if len(raw) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}
