package backend

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

CREATE TABLE IF NOT EXISTS notifications (
	id          TEXT PRIMARY KEY,
	category    TEXT NOT NULL,
	priority    TEXT NOT NULL DEFAULT 'medium',
	title       TEXT NOT NULL,
	message     TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL,
	is_read     INTEGER NOT NULL DEFAULT 0 CHECK(is_read IN (0, 1)),
	is_archived INTEGER NOT NULL DEFAULT 0 CHECK(is_archived IN (0, 1)),
	metadata    TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at);
CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(is_read, is_archived);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS preferences (
	id            INTEGER PRIMARY KEY CHECK(id = 1),
	email_enabled INTEGER NOT NULL DEFAULT 1,
	push_enabled  INTEGER NOT NULL DEFAULT 1,
	categories    TEXT NOT NULL DEFAULT '{}'
);

INSERT OR IGNORE INTO preferences (id) VALUES (1);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
