package store

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
		Name:    "create conversations and messages",
		SQL: `
			CREATE TABLE conversations (
				id          TEXT PRIMARY KEY,
				title       TEXT NOT NULL DEFAULT '',
				provider    TEXT NOT NULL,
				model       TEXT NOT NULL DEFAULT '',
				created_at  TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE TABLE messages (
				id               INTEGER PRIMARY KEY AUTOINCREMENT,
				conversation_id  TEXT NOT NULL,
				role             TEXT NOT NULL,
				content          TEXT NOT NULL DEFAULT '',
				blocks           TEXT,
				tool_calls       TEXT,
				tool_call_id     TEXT NOT NULL DEFAULT '',
				timestamp        TEXT NOT NULL DEFAULT (datetime('now')),
				FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
			);

			CREATE INDEX idx_messages_conversation ON messages (conversation_id, id);
		`,
	},
	{
		Version: 2,
		Name:    "create usage records",
		SQL: `
			CREATE TABLE usage_records (
				id               TEXT PRIMARY KEY,
				conversation_id  TEXT NOT NULL DEFAULT '',
				provider         TEXT NOT NULL,
				model            TEXT NOT NULL,
				input_tokens     INTEGER NOT NULL,
				output_tokens    INTEGER NOT NULL,
				input_cost       TEXT NOT NULL,
				output_cost      TEXT NOT NULL,
				total_cost       TEXT NOT NULL,
				estimated        INTEGER NOT NULL DEFAULT 0,
				created_at       TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_usage_model ON usage_records (provider, model);
			CREATE INDEX idx_usage_created ON usage_records (created_at);
		`,
	},
}
