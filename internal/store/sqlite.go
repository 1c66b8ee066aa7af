package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/creatorlab/labengine/internal/model"
)

// timeLayout is RFC3339 with fixed-width nanoseconds. RFC3339Nano trims
// trailing fractional zeros, which breaks lexicographic ordering of the
// stored text; the fixed width keeps string order equal to time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS executions (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL,
		module_id    TEXT NOT NULL,
		input        TEXT NOT NULL,
		output       TEXT,
		status       TEXT NOT NULL DEFAULT 'running',
		error        TEXT,
		duration_ms  INTEGER NOT NULL DEFAULT 0,
		created_at   TEXT NOT NULL,
		completed_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_executions_user ON executions(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_executions_module ON executions(module_id);
	CREATE INDEX IF NOT EXISTS idx_executions_status ON executions(status);

	CREATE TABLE IF NOT EXISTS memory_contexts (
		user_id    TEXT NOT NULL,
		module_id  TEXT NOT NULL,
		messages   TEXT NOT NULL,
		metadata   TEXT,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (user_id, module_id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) CreateExecution(ctx context.Context, p CreateExecutionParams) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO executions (id, user_id, module_id, input, status, created_at)
		 VALUES (?, ?, ?, ?, 'running', ?)`,
		p.ID, p.UserID, p.ModuleID, p.Input, now)
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CompleteExecution(ctx context.Context, id, output string, durationMs int64) error {
	_, err := s.terminal(ctx, id, model.StatusCompleted, &output, nil, durationMs)
	return err
}

func (s *SQLiteStore) FailExecution(ctx context.Context, id, errMsg string, durationMs int64) error {
	_, err := s.terminal(ctx, id, model.StatusFailed, nil, &errMsg, durationMs)
	return err
}

func (s *SQLiteStore) CancelExecution(ctx context.Context, id string, durationMs int64) (bool, error) {
	return s.terminal(ctx, id, model.StatusCancelled, nil, nil, durationMs)
}

// terminal applies a running -> terminal transition. The status guard in the
// WHERE clause is what keeps terminal rows terminal when transitions race.
func (s *SQLiteStore) terminal(ctx context.Context, id string, status model.ExecutionStatus, output, errMsg *string, durationMs int64) (bool, error) {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`UPDATE executions
		 SET status = ?, output = ?, error = ?, duration_ms = ?, completed_at = ?
		 WHERE id = ? AND status = 'running'`,
		string(status), output, errMsg, durationMs, now, id)
	if err != nil {
		return false, fmt.Errorf("update execution: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *SQLiteStore) GetExecution(ctx context.Context, id string) (*model.Execution, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, module_id, input, output, status, error, duration_ms, created_at, completed_at
		 FROM executions WHERE id = ?`, id)

	e, err := scanExecution(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("execution %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *SQLiteStore) ListExecutions(ctx context.Context, p ListExecutionsParams) ([]model.Execution, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	where := []string{"user_id = ?"}
	args := []interface{}{p.UserID}
	if p.ModuleID != "" {
		where = append(where, "module_id = ?")
		args = append(args, p.ModuleID)
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, module_id, input, output, status, error, duration_ms, created_at, completed_at
		FROM executions
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, strings.Join(where, " AND "))
	args = append(args, limit)

	return s.queryExecutions(ctx, query, args...)
}

func (s *SQLiteStore) SearchExecutions(ctx context.Context, p SearchExecutionsParams) ([]model.Execution, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	pattern := "%" + p.Query + "%"
	where := []string{"(input LIKE ? OR output LIKE ?)"}
	args := []interface{}{pattern, pattern}
	if p.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, p.UserID)
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, module_id, input, output, status, error, duration_ms, created_at, completed_at
		FROM executions
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, strings.Join(where, " AND "))
	args = append(args, limit)

	return s.queryExecutions(ctx, query, args...)
}

func (s *SQLiteStore) ExportExecutions(ctx context.Context, userID string) ([]model.Execution, error) {
	where := "1=1"
	args := []interface{}{}
	if userID != "" {
		where = "user_id = ?"
		args = append(args, userID)
	}

	query := `SELECT id, user_id, module_id, input, output, status, error, duration_ms, created_at, completed_at
	          FROM executions WHERE ` + where + ` ORDER BY created_at, id`

	return s.queryExecutions(ctx, query, args...)
}

func (s *SQLiteStore) queryExecutions(ctx context.Context, query string, args ...interface{}) ([]model.Execution, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var executions []model.Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		executions = append(executions, e)
	}
	return executions, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanExecution(row scanner) (model.Execution, error) {
	var e model.Execution
	var output, errMsg, completedAt sql.NullString
	var status, createdAt string

	err := row.Scan(
		&e.ID, &e.UserID, &e.ModuleID, &e.Input, &output,
		&status, &errMsg, &e.DurationMs, &createdAt, &completedAt,
	)
	if err != nil {
		return e, err
	}

	e.Status = model.ExecutionStatus(status)
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if output.Valid {
		e.Output = output.String
	}
	if errMsg.Valid {
		e.Error = errMsg.String
	}
	if completedAt.Valid {
		t, _ := time.Parse(time.RFC3339Nano, completedAt.String)
		e.CompletedAt = &t
	}

	return e, nil
}
