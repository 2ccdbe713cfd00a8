package cache

// SchemaVersion is the current cache database schema version.
const SchemaVersion = 1

// Schema creates the cache tables.
const Schema = `
CREATE TABLE IF NOT EXISTS entries (
    key TEXT PRIMARY KEY,
    path TEXT NOT NULL,
    output TEXT NOT NULL,
    dependencies TEXT NOT NULL,
    run_id TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    last_used INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_last_used ON entries(last_used);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`

const (
	insertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, strftime('%s', 'now'))`
	getSchemaVersion    = `SELECT MAX(version) FROM schema_version`

	upsertEntry = `
		INSERT INTO entries (key, path, output, dependencies, run_id, created_at, last_used)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			path = excluded.path,
			output = excluded.output,
			dependencies = excluded.dependencies,
			run_id = excluded.run_id,
			created_at = excluded.created_at,
			last_used = excluded.last_used`
	selectEntry    = `SELECT key, path, output, dependencies, run_id, created_at, last_used FROM entries WHERE key = ?`
	touchEntry     = `UPDATE entries SET last_used = ? WHERE key = ?`
	deleteEntry    = `DELETE FROM entries WHERE key = ?`
	pruneOlderThan = `DELETE FROM entries WHERE last_used < ?`
	pruneToCount   = `DELETE FROM entries WHERE key IN (SELECT key FROM entries ORDER BY last_used DESC LIMIT -1 OFFSET ?)`
	countEntries   = `SELECT COUNT(*) FROM entries`
)
