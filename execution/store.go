package execution

import (
	"context"
	"database/sql"
	"time"

	"github.com/teranos/cadence/errors"
)

// Store is the execution state store contract: look up a prior execution
// by id and report its terminal status. The scheduler only ever reads;
// writers live upstream (the run context, the workflow runner) of this
// package.
type Store interface {
	FindByID(ctx context.Context, id string) (*Execution, error)
	Create(ctx context.Context, e Execution) error
	UpdateState(ctx context.Context, id string, state State) error
}

// SQLiteStore persists executions in the `executions` table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open database connection.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// FindByID returns the execution with the given id, or (nil, nil) if none
// exists — "absent" in the gate-5 sense of §4.H, not an error.
func (s *SQLiteStore) FindByID(ctx context.Context, id string) (*Execution, error) {
	const query = `
		SELECT id, namespace, flow_id, state, created_at, updated_at
		FROM executions
		WHERE id = ?
	`

	var e Execution
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Namespace, &e.FlowID, &e.State, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find execution %s", id)
	}

	e.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, errors.Wrapf(err, "parse created_at for execution %s", id)
	}
	e.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, errors.Wrapf(err, "parse updated_at for execution %s", id)
	}

	return &e, nil
}

// Create inserts a new execution record.
func (s *SQLiteStore) Create(ctx context.Context, e Execution) error {
	const query = `
		INSERT INTO executions (id, namespace, flow_id, state, terminal, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.Namespace, e.FlowID, e.State, boolToInt(e.State.Terminal()),
		e.CreatedAt.Format(time.RFC3339), e.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return errors.Wrapf(err, "create execution %s", e.ID)
	}
	return nil
}

// UpdateState transitions an execution to a new state.
func (s *SQLiteStore) UpdateState(ctx context.Context, id string, state State) error {
	const query = `
		UPDATE executions SET state = ?, terminal = ?, updated_at = ? WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, state, boolToInt(state.Terminal()), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return errors.Wrapf(err, "update execution %s", id)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "rows affected for execution %s", id)
	}
	if rows == 0 {
		return errors.Newf("execution not found: %s", id)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
