// Package index writes crate exports into a SQLite database so that
// external tools can query canonical paths, definition kinds and types
// without linking the resolver.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"oxbow/internal/diag"
	"oxbow/internal/driver"
)

const schema = `
CREATE TABLE IF NOT EXISTS crates (
	id          INTEGER PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	session     TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	aborted     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS defs (
	crate_id INTEGER NOT NULL REFERENCES crates(id) ON DELETE CASCADE,
	local    INTEGER NOT NULL,
	ir       INTEGER NOT NULL,
	node     INTEGER NOT NULL,
	kind     TEXT NOT NULL,
	path     TEXT NOT NULL,
	vis      TEXT NOT NULL,
	type     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (crate_id, local)
);
CREATE INDEX IF NOT EXISTS defs_path ON defs(path);
CREATE TABLE IF NOT EXISTS lang_items (
	crate_id INTEGER NOT NULL REFERENCES crates(id) ON DELETE CASCADE,
	name     TEXT NOT NULL,
	local    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS diagnostics (
	crate_id INTEGER NOT NULL REFERENCES crates(id) ON DELETE CASCADE,
	code     TEXT NOT NULL,
	severity TEXT NOT NULL,
	message  TEXT NOT NULL,
	span_start INTEGER NOT NULL,
	span_end   INTEGER NOT NULL
);
`

// Index is an open export database.
type Index struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	// a single connection keeps the pragma below in effect
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return nil, errors.Join(fmt.Errorf("enable foreign keys: %w", err), db.Close())
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, errors.Join(fmt.Errorf("create index schema: %w", err), db.Close())
	}
	return &Index{db: db}, nil
}

func (ix *Index) Close() error { return ix.db.Close() }

// Write opens the database at path, stores the exports and closes it.
func Write(ctx context.Context, path string, exports ...*driver.Export) (err error) {
	ix, err := Open(ctx, path)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, ix.Close()) }()
	return ix.Store(ctx, exports...)
}

// Store replaces the rows of every exported crate in one transaction.
func (ix *Index) Store(ctx context.Context, exports ...*driver.Export) (err error) {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()
	for _, exp := range exports {
		if err := storeCrate(ctx, tx, exp); err != nil {
			return fmt.Errorf("store crate %s: %w", exp.Crate.Name, err)
		}
	}
	return tx.Commit()
}

func storeCrate(ctx context.Context, tx *sql.Tx, exp *driver.Export) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM crates WHERE name = ?`, exp.Crate.Name); err != nil {
		return err
	}
	row, err := tx.ExecContext(ctx,
		`INSERT INTO crates (name, session, fingerprint, aborted) VALUES (?, ?, ?, ?)`,
		exp.Crate.Name, exp.Session, exp.Fingerprint.String(), exp.Aborted)
	if err != nil {
		return err
	}
	id, err := row.LastInsertId()
	if err != nil {
		return err
	}

	types := make(map[uint32]string, len(exp.Types))
	for _, t := range exp.Types {
		types[t.Local] = t.Type
	}
	defStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO defs (crate_id, local, ir, node, kind, path, vis, type) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer defStmt.Close()
	for _, d := range exp.Crate.Defs {
		if _, err := defStmt.ExecContext(ctx, id, d.Local, d.Ir, d.Node, d.Kind, d.Path, d.Vis, types[d.Local]); err != nil {
			return err
		}
	}
	for _, l := range exp.Crate.Lang {
		if _, err := tx.ExecContext(ctx, `INSERT INTO lang_items (crate_id, name, local) VALUES (?, ?, ?)`, id, l.Name, l.Local); err != nil {
			return err
		}
	}
	for _, d := range exp.Diagnostics {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO diagnostics (crate_id, code, severity, message, span_start, span_end) VALUES (?, ?, ?, ?, ?, ?)`,
			id, diag.Code(d.Code).ID(), diag.Severity(d.Severity).String(), d.Message, d.Start, d.End)
		if err != nil {
			return err
		}
	}
	return nil
}

// Def is one row of the defs table.
type Def struct {
	Crate string
	Local uint32
	Kind  string
	Path  string
	Vis   string
	Type  string
}

// LookupPath finds the definition with the given canonical path.
func (ix *Index) LookupPath(ctx context.Context, path string) (Def, bool, error) {
	var d Def
	err := ix.db.QueryRowContext(ctx, `
		SELECT c.name, d.local, d.kind, d.path, d.vis, d.type
		FROM defs d JOIN crates c ON c.id = d.crate_id
		WHERE d.path = ?`, path).Scan(&d.Crate, &d.Local, &d.Kind, &d.Path, &d.Vis, &d.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return Def{}, false, nil
	}
	if err != nil {
		return Def{}, false, err
	}
	return d, true, nil
}

// Defs lists a crate's definitions ordered by local id.
func (ix *Index) Defs(ctx context.Context, crate string) ([]Def, error) {
	rows, err := ix.db.QueryContext(ctx, `
		SELECT c.name, d.local, d.kind, d.path, d.vis, d.type
		FROM defs d JOIN crates c ON c.id = d.crate_id
		WHERE c.name = ? ORDER BY d.local`, crate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Def
	for rows.Next() {
		var d Def
		if err := rows.Scan(&d.Crate, &d.Local, &d.Kind, &d.Path, &d.Vis, &d.Type); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DiagnosticCount counts stored diagnostics with the given code id, such as
// "SEM3001".
func (ix *Index) DiagnosticCount(ctx context.Context, crate, code string) (int, error) {
	var n int
	err := ix.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM diagnostics g JOIN crates c ON c.id = g.crate_id
		WHERE c.name = ? AND g.code = ?`, crate, code).Scan(&n)
	return n, err
}
