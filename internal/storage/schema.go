package storage

// Forward-only migration steps for the embedded SQLite backend. Entity
// tables first, then the context history tables, then the FTS5 projection
// with its sync triggers.
var sqliteMigrations = []migration{
	{
		version: 1,
		name:    "create_entity_tables",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS product_context (
			    id      INTEGER PRIMARY KEY CHECK (id = 1),
			    content TEXT NOT NULL DEFAULT '{}'
			)`,
			`CREATE TABLE IF NOT EXISTS active_context (
			    id      INTEGER PRIMARY KEY CHECK (id = 1),
			    content TEXT NOT NULL DEFAULT '{}'
			)`,
			`CREATE TABLE IF NOT EXISTS decisions (
			    id                     INTEGER PRIMARY KEY AUTOINCREMENT,
			    timestamp              TEXT NOT NULL,
			    summary                TEXT NOT NULL,
			    rationale              TEXT,
			    implementation_details TEXT,
			    tags                   TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_decisions_timestamp ON decisions(timestamp DESC)`,
			`CREATE TABLE IF NOT EXISTS progress_entries (
			    id          INTEGER PRIMARY KEY AUTOINCREMENT,
			    timestamp   TEXT NOT NULL,
			    status      TEXT NOT NULL,
			    description TEXT NOT NULL,
			    parent_id   INTEGER REFERENCES progress_entries(id) ON DELETE SET NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_progress_timestamp ON progress_entries(timestamp DESC)`,
			`CREATE INDEX IF NOT EXISTS idx_progress_status ON progress_entries(status)`,
			`CREATE INDEX IF NOT EXISTS idx_progress_parent ON progress_entries(parent_id)`,
			`CREATE TABLE IF NOT EXISTS system_patterns (
			    id          INTEGER PRIMARY KEY AUTOINCREMENT,
			    timestamp   TEXT NOT NULL,
			    name        TEXT NOT NULL UNIQUE,
			    description TEXT,
			    tags        TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS custom_data (
			    id        INTEGER PRIMARY KEY AUTOINCREMENT,
			    timestamp TEXT NOT NULL,
			    category  TEXT NOT NULL,
			    key       TEXT NOT NULL,
			    value     TEXT NOT NULL,
			    UNIQUE(category, key)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_custom_data_category ON custom_data(category)`,
			`CREATE TABLE IF NOT EXISTS context_links (
			    id                INTEGER PRIMARY KEY AUTOINCREMENT,
			    timestamp         TEXT NOT NULL,
			    source_item_type  TEXT NOT NULL,
			    source_item_id    TEXT NOT NULL,
			    target_item_type  TEXT NOT NULL,
			    target_item_id    TEXT NOT NULL,
			    relationship_type TEXT NOT NULL,
			    description       TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_links_source ON context_links(source_item_type, source_item_id)`,
			`CREATE INDEX IF NOT EXISTS idx_links_target ON context_links(target_item_type, target_item_id)`,
		},
	},
	{
		version: 2,
		name:    "create_context_history_tables",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS product_context_history (
			    id            INTEGER PRIMARY KEY AUTOINCREMENT,
			    timestamp     TEXT NOT NULL,
			    version       INTEGER NOT NULL UNIQUE,
			    content       TEXT NOT NULL,
			    change_source TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS active_context_history (
			    id            INTEGER PRIMARY KEY AUTOINCREMENT,
			    timestamp     TEXT NOT NULL,
			    version       INTEGER NOT NULL UNIQUE,
			    content       TEXT NOT NULL,
			    change_source TEXT
			)`,
		},
	},
	{
		version: 3,
		name:    "create_fts_tables_and_triggers",
		statements: []string{
			`CREATE VIRTUAL TABLE IF NOT EXISTS decisions_fts USING fts5(
			    summary, rationale, implementation_details, tags,
			    content='decisions', content_rowid='id'
			)`,
			`CREATE VIRTUAL TABLE IF NOT EXISTS custom_data_fts USING fts5(
			    category, key, value,
			    content='custom_data', content_rowid='id'
			)`,
			`CREATE VIRTUAL TABLE IF NOT EXISTS system_patterns_fts USING fts5(
			    name, description, tags,
			    content='system_patterns', content_rowid='id'
			)`,
			`CREATE VIRTUAL TABLE IF NOT EXISTS progress_entries_fts USING fts5(
			    status, description,
			    content='progress_entries', content_rowid='id'
			)`,

			`CREATE TRIGGER IF NOT EXISTS decisions_fts_ai AFTER INSERT ON decisions BEGIN
			    INSERT INTO decisions_fts(rowid, summary, rationale, implementation_details, tags)
			    VALUES (new.id, new.summary, new.rationale, new.implementation_details, new.tags);
			END`,
			`CREATE TRIGGER IF NOT EXISTS decisions_fts_ad AFTER DELETE ON decisions BEGIN
			    INSERT INTO decisions_fts(decisions_fts, rowid, summary, rationale, implementation_details, tags)
			    VALUES ('delete', old.id, old.summary, old.rationale, old.implementation_details, old.tags);
			END`,
			`CREATE TRIGGER IF NOT EXISTS decisions_fts_au AFTER UPDATE ON decisions BEGIN
			    INSERT INTO decisions_fts(decisions_fts, rowid, summary, rationale, implementation_details, tags)
			    VALUES ('delete', old.id, old.summary, old.rationale, old.implementation_details, old.tags);
			    INSERT INTO decisions_fts(rowid, summary, rationale, implementation_details, tags)
			    VALUES (new.id, new.summary, new.rationale, new.implementation_details, new.tags);
			END`,

			`CREATE TRIGGER IF NOT EXISTS custom_data_fts_ai AFTER INSERT ON custom_data BEGIN
			    INSERT INTO custom_data_fts(rowid, category, key, value)
			    VALUES (new.id, new.category, new.key, new.value);
			END`,
			`CREATE TRIGGER IF NOT EXISTS custom_data_fts_ad AFTER DELETE ON custom_data BEGIN
			    INSERT INTO custom_data_fts(custom_data_fts, rowid, category, key, value)
			    VALUES ('delete', old.id, old.category, old.key, old.value);
			END`,
			`CREATE TRIGGER IF NOT EXISTS custom_data_fts_au AFTER UPDATE ON custom_data BEGIN
			    INSERT INTO custom_data_fts(custom_data_fts, rowid, category, key, value)
			    VALUES ('delete', old.id, old.category, old.key, old.value);
			    INSERT INTO custom_data_fts(rowid, category, key, value)
			    VALUES (new.id, new.category, new.key, new.value);
			END`,

			`CREATE TRIGGER IF NOT EXISTS system_patterns_fts_ai AFTER INSERT ON system_patterns BEGIN
			    INSERT INTO system_patterns_fts(rowid, name, description, tags)
			    VALUES (new.id, new.name, new.description, new.tags);
			END`,
			`CREATE TRIGGER IF NOT EXISTS system_patterns_fts_ad AFTER DELETE ON system_patterns BEGIN
			    INSERT INTO system_patterns_fts(system_patterns_fts, rowid, name, description, tags)
			    VALUES ('delete', old.id, old.name, old.description, old.tags);
			END`,
			`CREATE TRIGGER IF NOT EXISTS system_patterns_fts_au AFTER UPDATE ON system_patterns BEGIN
			    INSERT INTO system_patterns_fts(system_patterns_fts, rowid, name, description, tags)
			    VALUES ('delete', old.id, old.name, old.description, old.tags);
			    INSERT INTO system_patterns_fts(rowid, name, description, tags)
			    VALUES (new.id, new.name, new.description, new.tags);
			END`,

			`CREATE TRIGGER IF NOT EXISTS progress_entries_fts_ai AFTER INSERT ON progress_entries BEGIN
			    INSERT INTO progress_entries_fts(rowid, status, description)
			    VALUES (new.id, new.status, new.description);
			END`,
			`CREATE TRIGGER IF NOT EXISTS progress_entries_fts_ad AFTER DELETE ON progress_entries BEGIN
			    INSERT INTO progress_entries_fts(progress_entries_fts, rowid, status, description)
			    VALUES ('delete', old.id, old.status, old.description);
			END`,
			`CREATE TRIGGER IF NOT EXISTS progress_entries_fts_au AFTER UPDATE ON progress_entries BEGIN
			    INSERT INTO progress_entries_fts(progress_entries_fts, rowid, status, description)
			    VALUES ('delete', old.id, old.status, old.description);
			    INSERT INTO progress_entries_fts(rowid, status, description)
			    VALUES (new.id, new.status, new.description);
			END`,
		},
	},
}
