// Package sqlite stores the clause corpus in a local SQLite file and serves the
// ranked containment scan used by lexical and company-specific search.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // pure Go driver, registers "sqlite"

	"github.com/kailas-cloud/policyrag/internal/db"
)

// Compile-time check: Corpus implements db.Corpus.
var _ db.Corpus = (*Corpus)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS passages (
	id          TEXT PRIMARY KEY,
	text        TEXT NOT NULL,
	document    TEXT NOT NULL DEFAULT '',
	file        TEXT NOT NULL DEFAULT '',
	company     TEXT NOT NULL DEFAULT '',
	page        INTEGER NOT NULL DEFAULT 0,
	chunk_index INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_passages_company ON passages(company);
`

const selectColumns = `SELECT id, text, document, file, company, page, chunk_index FROM passages`

// Corpus is a read-mostly passage store backed by modernc.org/sqlite.
type Corpus struct {
	db *sql.DB
}

// Open opens (or creates) the corpus at path. An empty path gives an
// in-memory database, which is what tests use.
func Open(ctx context.Context, path string) (*Corpus, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create corpus dir: %w", err)
		}
		dsn = path
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	// One connection: :memory: databases are per-connection, and the corpus is read-mostly.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA temp_store = MEMORY",
	}
	if path != "" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if _, err := conn.ExecContext(ctx, schema); err != nil {
		_ = conn.Close()
		return nil, &db.Error{Op: db.OpMigrate, Err: err}
	}
	return &Corpus{db: conn}, nil
}

// Ping checks the database handle.
func (c *Corpus) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping corpus: %w", err)
	}
	return nil
}

// Close closes the database.
func (c *Corpus) Close() error {
	return c.db.Close()
}

// Insert upserts passages in one transaction.
func (c *Corpus) Insert(ctx context.Context, passages ...db.Passage) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return &db.Error{Op: db.OpInsert, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO passages
		(id, text, document, file, company, page, chunk_index) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return &db.Error{Op: db.OpInsert, Err: err}
	}
	defer stmt.Close()

	for _, p := range passages {
		if p.ID == "" {
			return fmt.Errorf("passage id is required")
		}
		if _, err := stmt.ExecContext(ctx, p.ID, p.Text, p.Document, p.File, p.Company, p.Page, p.ChunkIndex); err != nil {
			return &db.Error{Op: db.OpInsert, Err: fmt.Errorf("passage %s: %w", p.ID, err)}
		}
	}
	if err := tx.Commit(); err != nil {
		return &db.Error{Op: db.OpInsert, Err: err}
	}
	return nil
}

// FindContaining scores every passage in SQL with the lexical rule (1.0 per
// contained term, else 0.5 per contained part; ASCII case-insensitive) and
// returns those above zero, best first then storage order, so a limit keeps
// the best candidates. Terms with empty text are ignored.
func (c *Corpus) FindContaining(ctx context.Context, terms []db.Term, company string, limit int) ([]db.Passage, error) {
	score, args := scoreExpr(terms)
	if score == "" {
		return nil, nil
	}

	query := `SELECT id, text, document, file, company, page, chunk_index FROM (
		SELECT id, text, document, file, company, page, chunk_index, rowid AS rid, ` + score + ` AS score
		FROM passages`
	if company != "" {
		query += " WHERE " + companyMatch
		args = append(args, company)
	}
	query += ") WHERE score > 0 ORDER BY score DESC, rid"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return c.query(ctx, query, args...)
}

// companyMatch is a case-insensitive substring match, so a scope of
// "DB손해보험" finds passages filed under "DB손해보험 주식회사".
const companyMatch = "instr(lower(company), lower(?)) > 0"

const containsExpr = "(instr(lower(text), lower(?)) > 0)"

// scoreExpr builds the SQL sum of per-term scores and its arguments.
func scoreExpr(terms []db.Term) (string, []any) {
	var (
		sums []string
		args []any
	)
	for _, t := range terms {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		args = append(args, text)
		partial := "0"
		if len(t.Parts) > 0 {
			parts := make([]string, 0, len(t.Parts))
			for _, p := range t.Parts {
				parts = append(parts, containsExpr)
				args = append(args, p)
			}
			partial = "0.5 * (" + strings.Join(parts, " + ") + ")"
		}
		sums = append(sums, "(CASE WHEN "+containsExpr+" THEN 1.0 ELSE "+partial+" END)")
	}
	return strings.Join(sums, " + "), args
}

// ListByCompany returns up to limit passages of a company in storage order.
func (c *Corpus) ListByCompany(ctx context.Context, company string, limit int) ([]db.Passage, error) {
	if company == "" {
		return nil, nil
	}
	query := selectColumns + " WHERE " + companyMatch + " ORDER BY rowid"
	args := []any{company}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return c.query(ctx, query, args...)
}

func (c *Corpus) query(ctx context.Context, query string, args ...any) ([]db.Passage, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	var out []db.Passage
	for rows.Next() {
		var p db.Passage
		if err := rows.Scan(&p.ID, &p.Text, &p.Document, &p.File, &p.Company, &p.Page, &p.ChunkIndex); err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: err}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return out, nil
}
