package storage

// Forward-only migration steps for the client-server PostgreSQL backend.
// Mirrors the SQLite steps version for version; the FTS projection is a
// stored generated tsvector column with a GIN index instead of a virtual
// table with triggers.
var postgresMigrations = []migration{
	{
		version: 1,
		name:    "create_entity_tables",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS product_context (
			    id      BIGINT PRIMARY KEY CHECK (id = 1),
			    content TEXT NOT NULL DEFAULT '{}'
			)`,
			`CREATE TABLE IF NOT EXISTS active_context (
			    id      BIGINT PRIMARY KEY CHECK (id = 1),
			    content TEXT NOT NULL DEFAULT '{}'
			)`,
			`CREATE TABLE IF NOT EXISTS decisions (
			    id                     BIGSERIAL PRIMARY KEY,
			    timestamp              TEXT NOT NULL,
			    summary                TEXT NOT NULL,
			    rationale              TEXT,
			    implementation_details TEXT,
			    tags                   TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_decisions_timestamp ON decisions(timestamp DESC)`,
			`CREATE TABLE IF NOT EXISTS progress_entries (
			    id          BIGSERIAL PRIMARY KEY,
			    timestamp   TEXT NOT NULL,
			    status      TEXT NOT NULL,
			    description TEXT NOT NULL,
			    parent_id   BIGINT REFERENCES progress_entries(id) ON DELETE SET NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_progress_timestamp ON progress_entries(timestamp DESC)`,
			`CREATE INDEX IF NOT EXISTS idx_progress_status ON progress_entries(status)`,
			`CREATE INDEX IF NOT EXISTS idx_progress_parent ON progress_entries(parent_id)`,
			`CREATE TABLE IF NOT EXISTS system_patterns (
			    id          BIGSERIAL PRIMARY KEY,
			    timestamp   TEXT NOT NULL,
			    name        TEXT NOT NULL UNIQUE,
			    description TEXT,
			    tags        TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS custom_data (
			    id        BIGSERIAL PRIMARY KEY,
			    timestamp TEXT NOT NULL,
			    category  TEXT NOT NULL,
			    key       TEXT NOT NULL,
			    value     TEXT NOT NULL,
			    UNIQUE(category, key)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_custom_data_category ON custom_data(category)`,
			`CREATE TABLE IF NOT EXISTS context_links (
			    id                BIGSERIAL PRIMARY KEY,
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
			    id            BIGSERIAL PRIMARY KEY,
			    timestamp     TEXT NOT NULL,
			    version       INTEGER NOT NULL UNIQUE,
			    content       TEXT NOT NULL,
			    change_source TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS active_context_history (
			    id            BIGSERIAL PRIMARY KEY,
			    timestamp     TEXT NOT NULL,
			    version       INTEGER NOT NULL UNIQUE,
			    content       TEXT NOT NULL,
			    change_source TEXT
			)`,
		},
	},
	{
		version: 3,
		name:    "create_tsvector_columns_and_gin_indexes",
		statements: []string{
			`ALTER TABLE decisions ADD COLUMN IF NOT EXISTS tsv tsvector
			    GENERATED ALWAYS AS (to_tsvector('english',
			        coalesce(summary, '') || ' ' ||
			        coalesce(rationale, '') || ' ' ||
			        coalesce(implementation_details, '') || ' ' ||
			        coalesce(tags, ''))) STORED`,
			`CREATE INDEX IF NOT EXISTS idx_decisions_tsv ON decisions USING GIN (tsv)`,

			`ALTER TABLE custom_data ADD COLUMN IF NOT EXISTS tsv tsvector
			    GENERATED ALWAYS AS (to_tsvector('english',
			        coalesce(category, '') || ' ' ||
			        coalesce(key, '') || ' ' ||
			        coalesce(value, ''))) STORED`,
			`CREATE INDEX IF NOT EXISTS idx_custom_data_tsv ON custom_data USING GIN (tsv)`,

			`ALTER TABLE system_patterns ADD COLUMN IF NOT EXISTS tsv tsvector
			    GENERATED ALWAYS AS (to_tsvector('english',
			        coalesce(name, '') || ' ' ||
			        coalesce(description, '') || ' ' ||
			        coalesce(tags, ''))) STORED`,
			`CREATE INDEX IF NOT EXISTS idx_system_patterns_tsv ON system_patterns USING GIN (tsv)`,

			`ALTER TABLE progress_entries ADD COLUMN IF NOT EXISTS tsv tsvector
			    GENERATED ALWAYS AS (to_tsvector('english',
			        status || ' ' || description)) STORED`,
			`CREATE INDEX IF NOT EXISTS idx_progress_tsv ON progress_entries USING GIN (tsv)`,
		},
	},
}
