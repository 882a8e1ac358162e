package storage

import (
	"strconv"
	"strings"
)

// dialect is the backend strategy selected once at startup. It owns
// everything that differs between the embedded and client-server backends:
// placeholder style, migration DDL, and the full-text-search queries.
type dialect interface {
	name() string
	// rebind converts '?' placeholders to the backend's native style.
	rebind(query string) string
	// matchArg converts free text into the backend's match expression.
	matchArg(query string) string
	migrations() []migration

	searchDecisionsSQL() string
	searchPatternsSQL() string
	searchProgressSQL() string
	searchCustomDataSQL(withCategory bool) string
}

// migration is one forward-only schema step. Statements run one at a time
// inside a single transaction; the version row is written after all of them
// succeed.
type migration struct {
	version    int
	name       string
	statements []string
}

// --- SQLite ---

type sqliteDialect struct{}

func (sqliteDialect) name() string { return "sqlite" }

func (sqliteDialect) rebind(query string) string { return query }

// matchArg quotes every token so user text is matched as plain terms rather
// than FTS5 query syntax. Tokens are implicitly ANDed, mirroring
// plainto_tsquery on the other backend.
func (sqliteDialect) matchArg(query string) string {
	fields := strings.Fields(query)
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}

func (sqliteDialect) migrations() []migration { return sqliteMigrations }

func (sqliteDialect) searchDecisionsSQL() string {
	return `SELECT d.id, d.timestamp, d.summary, d.rationale, d.implementation_details, d.tags,
	               -bm25(decisions_fts) AS score
	        FROM decisions_fts
	        JOIN decisions d ON d.id = decisions_fts.rowid
	        WHERE decisions_fts MATCH ?
	        ORDER BY bm25(decisions_fts), d.timestamp DESC
	        LIMIT ?`
}

func (sqliteDialect) searchPatternsSQL() string {
	return `SELECT p.id, p.timestamp, p.name, p.description, p.tags,
	               -bm25(system_patterns_fts) AS score
	        FROM system_patterns_fts
	        JOIN system_patterns p ON p.id = system_patterns_fts.rowid
	        WHERE system_patterns_fts MATCH ?
	        ORDER BY bm25(system_patterns_fts), p.timestamp DESC
	        LIMIT ?`
}

func (sqliteDialect) searchProgressSQL() string {
	return `SELECT e.id, e.timestamp, e.status, e.description, e.parent_id,
	               -bm25(progress_entries_fts) AS score
	        FROM progress_entries_fts
	        JOIN progress_entries e ON e.id = progress_entries_fts.rowid
	        WHERE progress_entries_fts MATCH ?
	        ORDER BY bm25(progress_entries_fts), e.timestamp DESC
	        LIMIT ?`
}

func (sqliteDialect) searchCustomDataSQL(withCategory bool) string {
	q := `SELECT c.id, c.timestamp, c.category, c.key, c.value,
	             -bm25(custom_data_fts) AS score
	      FROM custom_data_fts
	      JOIN custom_data c ON c.id = custom_data_fts.rowid
	      WHERE custom_data_fts MATCH ?`
	if withCategory {
		q += ` AND c.category = ?`
	}
	return q + `
	      ORDER BY bm25(custom_data_fts), c.timestamp DESC
	      LIMIT ?`
}

// --- PostgreSQL ---

type postgresDialect struct{}

func (postgresDialect) name() string { return "postgresql" }

func (postgresDialect) rebind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// matchArg passes text through; plainto_tsquery does its own tokenization.
func (postgresDialect) matchArg(query string) string { return query }

func (postgresDialect) migrations() []migration { return postgresMigrations }

func (postgresDialect) searchDecisionsSQL() string {
	return `SELECT d.id, d.timestamp, d.summary, d.rationale, d.implementation_details, d.tags,
	               ts_rank(d.tsv, q.tq) AS score
	        FROM decisions d, plainto_tsquery('english', ?) AS q(tq)
	        WHERE d.tsv @@ q.tq
	        ORDER BY score DESC, d.timestamp DESC
	        LIMIT ?`
}

func (postgresDialect) searchPatternsSQL() string {
	return `SELECT p.id, p.timestamp, p.name, p.description, p.tags,
	               ts_rank(p.tsv, q.tq) AS score
	        FROM system_patterns p, plainto_tsquery('english', ?) AS q(tq)
	        WHERE p.tsv @@ q.tq
	        ORDER BY score DESC, p.timestamp DESC
	        LIMIT ?`
}

func (postgresDialect) searchProgressSQL() string {
	return `SELECT e.id, e.timestamp, e.status, e.description, e.parent_id,
	               ts_rank(e.tsv, q.tq) AS score
	        FROM progress_entries e, plainto_tsquery('english', ?) AS q(tq)
	        WHERE e.tsv @@ q.tq
	        ORDER BY score DESC, e.timestamp DESC
	        LIMIT ?`
}

func (postgresDialect) searchCustomDataSQL(withCategory bool) string {
	q := `SELECT c.id, c.timestamp, c.category, c.key, c.value,
	             ts_rank(c.tsv, q.tq) AS score
	      FROM custom_data c, plainto_tsquery('english', ?) AS q(tq)
	      WHERE c.tsv @@ q.tq`
	if withCategory {
		q += ` AND c.category = ?`
	}
	return q + `
	      ORDER BY score DESC, c.timestamp DESC
	      LIMIT ?`
}
