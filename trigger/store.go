package trigger

import (
	"context"
	"database/sql"
	"time"

	"github.com/teranos/cadence/errors"
)

// Store is the trigger state store contract: find the most recent record
// for a uid, and save a record in place of whatever came before it. At
// most one record exists per uid at any time (§4.B).
type Store interface {
	FindLast(ctx context.Context, uid UID) (*Record, error)
	Save(ctx context.Context, r Record) error
}

// SQLiteStore persists trigger records in the trigger_records table, keyed
// on the composite (namespace, flow_id, trigger_id) primary key.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open database connection.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// FindLast returns the record for uid, or (nil, nil) if none has been
// saved yet — first sight, not an error.
func (s *SQLiteStore) FindLast(ctx context.Context, uid UID) (*Record, error) {
	const query = `
		SELECT namespace, flow_id, flow_revision, trigger_id, date, execution_id
		FROM trigger_records
		WHERE namespace = ? AND flow_id = ? AND trigger_id = ?
	`

	var r Record
	var date string
	var executionID sql.NullString

	err := s.db.QueryRowContext(ctx, query, uid.Namespace, uid.FlowID, uid.TriggerID).Scan(
		&r.Namespace, &r.FlowID, &r.FlowRevision, &r.TriggerID, &date, &executionID,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find last trigger record for %s", uid)
	}

	r.Date, err = time.Parse(time.RFC3339, date)
	if err != nil {
		return nil, errors.Wrapf(err, "parse date for trigger record %s", uid)
	}
	if executionID.Valid {
		r.ExecutionID = &executionID.String
	}

	return &r, nil
}

// ListAll returns every known trigger record, ordered by namespace, flow,
// and trigger id. Used by the CLI's `trigger ls`, not by the scheduler
// itself.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]Record, error) {
	const query = `
		SELECT namespace, flow_id, flow_revision, trigger_id, date, execution_id
		FROM trigger_records
		ORDER BY namespace, flow_id, trigger_id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "list trigger records")
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var date string
		var executionID sql.NullString

		if err := rows.Scan(&r.Namespace, &r.FlowID, &r.FlowRevision, &r.TriggerID, &date, &executionID); err != nil {
			return nil, errors.Wrap(err, "scan trigger record")
		}

		r.Date, err = time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, errors.Wrapf(err, "parse date for trigger record %s", r.UID())
		}
		if executionID.Valid {
			r.ExecutionID = &executionID.String
		}

		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate trigger records")
	}

	return records, nil
}

// Save replaces the record for r.UID() with r, creating it if absent. The
// scheduler's result handler always calls Save before emitting the
// resulting execution onto the outbound queue (§4.I, §9 commit ordering).
func (s *SQLiteStore) Save(ctx context.Context, r Record) error {
	const query = `
		INSERT INTO trigger_records (namespace, flow_id, flow_revision, trigger_id, date, execution_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (namespace, flow_id, trigger_id) DO UPDATE SET
			flow_revision = excluded.flow_revision,
			date = excluded.date,
			execution_id = excluded.execution_id,
			updated_at = excluded.updated_at
	`

	var executionID interface{}
	if r.ExecutionID != nil {
		executionID = *r.ExecutionID
	}

	_, err := s.db.ExecContext(ctx, query,
		r.Namespace, r.FlowID, r.FlowRevision, r.TriggerID,
		r.Date.Format(time.RFC3339), executionID,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		err = errors.Wrapf(err, "save trigger record for %s", r.UID())
		err = errors.WithDetail(err, "namespace: "+r.Namespace)
		err = errors.WithDetail(err, "flow_id: "+r.FlowID)
		return err
	}

	return nil
}
