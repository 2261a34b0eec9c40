package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jllopis/aura/pkg/core"

	_ "modernc.org/sqlite"
)

const taskTable = "aura_tasks"

// Archive persists terminal task records in a SQLite database for
// audit. The in-flight store stays in memory; only completed and
// errored tasks land here.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens (or creates) the archive database at path and
// ensures the schema.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Archive{db: db}, nil
}

// NewArchive wraps an existing database handle and ensures the schema.
func NewArchive(db *sql.DB) (*Archive, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return &Archive{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			command TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			context_json BLOB NOT NULL,
			result_json BLOB
		);`, taskTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_status ON %s(status);`, taskTable, taskTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_updated ON %s(updated_at);`, taskTable, taskTable),
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Record upserts one task record. Intended for terminal states but
// accepts any status so callers can checkpoint long-running tasks.
func (a *Archive) Record(ctx context.Context, task *core.Task) error {
	if task == nil {
		return fmt.Errorf("task is nil")
	}
	contextJSON, err := json.Marshal(task.Context)
	if err != nil {
		return fmt.Errorf("marshal task context: %w", err)
	}
	var resultJSON []byte
	if task.Result != nil {
		resultJSON, err = json.Marshal(task.Result)
		if err != nil {
			return fmt.Errorf("marshal task result: %w", err)
		}
	}
	_, err = a.db.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s
		(id, command, status, error, created_at, updated_at, context_json, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status=excluded.status,
			error=excluded.error,
			updated_at=excluded.updated_at,
			context_json=excluded.context_json,
			result_json=excluded.result_json;`, taskTable),
		task.ID, task.Command, string(task.Status), task.Error,
		task.CreatedAt.UnixMilli(), task.UpdatedAt.UnixMilli(),
		contextJSON, resultJSON,
	)
	return err
}

// ListByStatus returns archived tasks with the given status, most
// recently updated first.
func (a *Archive) ListByStatus(ctx context.Context, status core.TaskStatus, limit int) ([]*core.Task, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := a.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, command, status, error, created_at, updated_at, context_json, result_json
		 FROM %s WHERE status = ? ORDER BY updated_at DESC LIMIT ?;`, taskTable),
		string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*core.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// Get returns one archived task by id, or nil if absent.
func (a *Archive) Get(ctx context.Context, id string) (*core.Task, error) {
	rows, err := a.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, command, status, error, created_at, updated_at, context_json, result_json
		 FROM %s WHERE id = ?;`, taskTable), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanTask(rows)
}

// Close releases the database handle.
func (a *Archive) Close() error {
	return a.db.Close()
}

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func scanTask(rows *sql.Rows) (*core.Task, error) {
	var (
		task        core.Task
		status      string
		createdMs   int64
		updatedMs   int64
		contextJSON []byte
		resultJSON  []byte
	)
	if err := rows.Scan(&task.ID, &task.Command, &status, &task.Error,
		&createdMs, &updatedMs, &contextJSON, &resultJSON); err != nil {
		return nil, err
	}
	task.Status = core.TaskStatus(status)
	task.CreatedAt = msToTime(createdMs)
	task.UpdatedAt = msToTime(updatedMs)
	if err := json.Unmarshal(contextJSON, &task.Context); err != nil {
		return nil, fmt.Errorf("unmarshal task context: %w", err)
	}
	if len(resultJSON) > 0 {
		task.Result = &core.Result{}
		if err := json.Unmarshal(resultJSON, task.Result); err != nil {
			return nil, fmt.Errorf("unmarshal task result: %w", err)
		}
	}
	return &task, nil
}
