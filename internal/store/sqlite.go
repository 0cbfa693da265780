package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/planbatch/internal/model"
)

// ErrNotFound is returned when a dispatch id is unknown.
var ErrNotFound = errors.New("not found")

// SQLiteStore implements Journal using a local SQLite database.
type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ Journal = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// One connection: SQLite has a single writer, and each connection to
	// ":memory:" would otherwise see its own empty database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SchemaVersion returns the highest applied migration.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.GetContext(ctx, &v, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// RecordDispatch stores the dispatch and its tasks in one transaction.
func (s *SQLiteStore) RecordDispatch(
	ctx context.Context,
	d model.Dispatch,
	tasks []model.PlanTask,
) (model.Dispatch, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.DispatchedAt.IsZero() {
		d.DispatchedAt = s.now()
	}
	d.DispatchedAt = d.DispatchedAt.UTC()
	if d.TaskCount == 0 {
		d.TaskCount = len(tasks)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Dispatch{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO dispatches (
			id, dispatched_at, endpoint, mode, task_count, confirmed, rows_added, message
		) VALUES (
			:id, :dispatched_at, :endpoint, :mode, :task_count, :confirmed, :rows_added, :message
		)`, d)
	if err != nil {
		return model.Dispatch{}, fmt.Errorf("inserting dispatch %s: %w", d.ID, err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO dispatched_tasks (dispatch_id, position, task_id, task_type, task_json)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return model.Dispatch{}, fmt.Errorf("preparing task insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range tasks {
		data, err := json.Marshal(t)
		if err != nil {
			return model.Dispatch{}, fmt.Errorf("marshaling task %s: %w", t.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, d.ID, i, t.ID, string(t.TaskType), string(data)); err != nil {
			return model.Dispatch{}, fmt.Errorf("inserting task %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return model.Dispatch{}, fmt.Errorf("committing dispatch %s: %w", d.ID, err)
	}
	return d, nil
}

// ListDispatches returns dispatches newest first.
func (s *SQLiteStore) ListDispatches(ctx context.Context, limit int) ([]model.Dispatch, error) {
	query := "SELECT * FROM dispatches ORDER BY dispatched_at DESC, rowid DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var out []model.Dispatch
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("querying dispatches: %w", err)
	}
	return out, nil
}

// GetDispatch returns one dispatch by id.
func (s *SQLiteStore) GetDispatch(ctx context.Context, id string) (*model.Dispatch, error) {
	var d model.Dispatch
	err := s.db.GetContext(ctx, &d, "SELECT * FROM dispatches WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dispatch %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting dispatch %s: %w", id, err)
	}
	return &d, nil
}

// GetDispatchTasks returns the tasks of dispatch id in send order.
func (s *SQLiteStore) GetDispatchTasks(ctx context.Context, id string) ([]model.PlanTask, error) {
	if _, err := s.GetDispatch(ctx, id); err != nil {
		return nil, err
	}

	var blobs []string
	err := s.db.SelectContext(ctx, &blobs,
		"SELECT task_json FROM dispatched_tasks WHERE dispatch_id = ? ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("querying tasks for dispatch %s: %w", id, err)
	}

	tasks := make([]model.PlanTask, 0, len(blobs))
	for _, b := range blobs {
		var t model.PlanTask
		if err := json.Unmarshal([]byte(b), &t); err != nil {
			return nil, fmt.Errorf("unmarshaling task in dispatch %s: %w", id, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
