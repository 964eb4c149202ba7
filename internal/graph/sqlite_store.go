package graph

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists named graphs (fixtures, cached upstream responses) in
// a SQLite database. Statement order is preserved through the rowid, so a
// graph loaded back has the same native order it was saved with.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

const storeSchema = `
CREATE TABLE IF NOT EXISTS graphs (
	name TEXT PRIMARY KEY,
	saved_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS statements (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	graph TEXT NOT NULL REFERENCES graphs(name) ON DELETE CASCADE,
	s_kind INTEGER NOT NULL,
	s TEXT NOT NULL,
	p TEXT NOT NULL,
	o_kind INTEGER NOT NULL,
	o TEXT NOT NULL,
	o_lang TEXT NOT NULL DEFAULT '',
	o_datatype TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_statements_graph ON statements(graph, id);
`

// OpenSQLiteStore opens (creating if needed) the store at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One writer connection avoids SQLITE_BUSY between Save transactions.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(storeSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save replaces the graph stored under name with the statements of g.
func (s *SQLiteStore) Save(ctx context.Context, name string, g Graph) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM statements WHERE graph = ?`, name); err != nil {
		return fmt.Errorf("clear graph %q: %w", name, err)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO graphs (name, saved_at) VALUES (?, ?)`,
		name, time.Now().Unix()); err != nil {
		return fmt.Errorf("register graph %q: %w", name, err)
	}

	ins, err := tx.PrepareContext(ctx, `
		INSERT INTO statements (graph, s_kind, s, p, o_kind, o, o_lang, o_datatype)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = ins.Close() }()

	for _, st := range statementsOf(g) {
		if _, err = ins.ExecContext(ctx, name,
			int(st.Subject.Kind), st.Subject.Value, st.Predicate,
			int(st.Object.Kind), st.Object.Value, st.Object.Lang, st.Object.Datatype); err != nil {
			return fmt.Errorf("insert statement: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reads the graph stored under name. It returns ErrNotFound when no
// graph of that name was ever saved.
func (s *SQLiteStore) Load(ctx context.Context, name string) (*MemoryGraph, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM graphs WHERE name = ?`, name).Scan(&n); err != nil {
		return nil, fmt.Errorf("lookup graph %q: %w", name, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("graph %q: %w", name, ErrNotFound)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT s_kind, s, p, o_kind, o, o_lang, o_datatype
		FROM statements WHERE graph = ? ORDER BY id
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query graph %q: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	g := NewMemoryGraph()
	skipped := 0
	for rows.Next() {
		var sk, ok int
		var st Statement
		if err := rows.Scan(&sk, &st.Subject.Value, &st.Predicate, &ok,
			&st.Object.Value, &st.Object.Lang, &st.Object.Datatype); err != nil {
			skipped++
			continue
		}
		st.Subject.Kind = Kind(sk)
		st.Object.Kind = Kind(ok)
		g.Add(st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan graph %q: %w", name, err)
	}
	if skipped > 0 {
		log.Printf("load %q: %d statements loaded, %d rows skipped", name, g.Len(), skipped)
	}
	return g, nil
}

// Names lists the stored graph names in lexical order.
func (s *SQLiteStore) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM graphs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list graphs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Delete removes the graph stored under name.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM statements WHERE graph = ?`, name); err != nil {
		return fmt.Errorf("delete graph %q: %w", name, err)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM graphs WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete graph %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("graph %q: %w", name, ErrNotFound)
	}
	return nil
}

func statementsOf(g Graph) []Statement {
	if mg, ok := g.(*MemoryGraph); ok {
		return mg.All()
	}
	var out []Statement
	for _, subj := range g.Subjects() {
		out = append(out, g.Statements(subj, "")...)
	}
	return out
}
