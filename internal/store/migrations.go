package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS dispatches (
	id            TEXT PRIMARY KEY,
	dispatched_at DATETIME NOT NULL,
	endpoint      TEXT NOT NULL DEFAULT '',
	task_count    INTEGER NOT NULL,
	mode          TEXT NOT NULL DEFAULT 'optimistic',
	confirmed     INTEGER NOT NULL DEFAULT 0 CHECK(confirmed IN (0, 1)),
	rows_added    INTEGER NOT NULL DEFAULT 0,
	message       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS dispatched_tasks (
	dispatch_id TEXT NOT NULL REFERENCES dispatches(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	task_id     TEXT NOT NULL,
	task_type   TEXT NOT NULL,
	task_json   TEXT NOT NULL,
	PRIMARY KEY (dispatch_id, position)
);

CREATE INDEX IF NOT EXISTS idx_dispatches_dispatched_at ON dispatches(dispatched_at);
CREATE INDEX IF NOT EXISTS idx_dispatched_tasks_task_id ON dispatched_tasks(task_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
