package docstore

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create documents",
		SQL: `
			CREATE TABLE documents (
				id          TEXT NOT NULL,
				collection  TEXT NOT NULL,
				body        TEXT NOT NULL,
				created_at  TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at  TEXT NOT NULL DEFAULT (datetime('now')),
				PRIMARY KEY (collection, id)
			);

			CREATE INDEX idx_documents_collection ON documents (collection);
		`,
	},
	{
		Version: 2,
		Name:    "create sessions and turns",
		SQL: `
			CREATE TABLE sessions (
				id           TEXT PRIMARY KEY,
				user_id      TEXT NOT NULL,
				active       INTEGER NOT NULL DEFAULT 1,
				created_at   TEXT NOT NULL DEFAULT (datetime('now')),
				last_used_at TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_sessions_user ON sessions (user_id, active);

			CREATE TABLE turns (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
				user_text  TEXT NOT NULL,
				response   TEXT NOT NULL,
				handler    TEXT NOT NULL DEFAULT '',
				timestamp  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_turns_session ON turns (session_id, id);
		`,
	},
}
