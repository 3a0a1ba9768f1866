package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"nestdo/internal/model"

	_ "modernc.org/sqlite"
)

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("missing sqlite path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS state_meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY,
			parent_id INTEGER,
			text TEXT NOT NULL,
			done INTEGER NOT NULL,
			ord INTEGER NOT NULL,
			collapsed INTEGER NOT NULL,
			position INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent_id);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// ExportSQLite replaces the tasks stored in the SQLite file at path with doc.
// position keeps each task's index within its sibling list.
func ExportSQLite(ctx context.Context, path string, doc *Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	db, err := openSQLite(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks;`); err != nil {
		return err
	}
	ins, err := tx.PrepareContext(ctx, `INSERT INTO tasks (id, parent_id, text, done, ord, collapsed, position) VALUES (?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return err
	}
	defer ins.Close()

	for _, root := range doc.Roots {
		for _, id := range doc.Subtree(root) {
			t, _ := doc.Get(id)
			var parent any
			if t.ParentID.Valid() {
				parent = int64(t.ParentID)
			}
			if _, err := ins.ExecContext(ctx, int64(t.ID), parent, t.Text, boolInt(t.Done), t.Order, boolInt(t.Collapsed), doc.IndexOf(id)); err != nil {
				return fmt.Errorf("insert task %d: %w", t.ID, err)
			}
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO state_meta (k, v) VALUES ('next_id', ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v;`, strconv.Itoa(int(doc.NextID))); err != nil {
		return err
	}
	return tx.Commit()
}

// ImportSQLite loads a document previously written by ExportSQLite. Rows go
// through the same two-pass assembly as the task file.
func ImportSQLite(ctx context.Context, path string) (*Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := openSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT id, parent_id, text, done, ord, collapsed FROM tasks ORDER BY position, id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []record
	for rows.Next() {
		var (
			id, done, ord, collapsed int64
			parent                   sql.NullInt64
			text                     string
		)
		if err := rows.Scan(&id, &parent, &text, &done, &ord, &collapsed); err != nil {
			return nil, err
		}
		if id <= 0 {
			continue
		}
		r := record{
			id:        model.TaskID(id),
			text:      text,
			done:      done != 0,
			order:     int(ord),
			collapsed: collapsed != 0,
			seq:       len(recs),
		}
		if parent.Valid {
			r.parent = model.TaskID(parent.Int64)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	doc := assemble(recs)
	var next string
	err = db.QueryRowContext(ctx, `SELECT v FROM state_meta WHERE k = 'next_id';`).Scan(&next)
	if err == nil {
		if n, convErr := strconv.Atoi(next); convErr == nil && model.TaskID(n) > doc.NextID {
			doc.NextID = model.TaskID(n)
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return doc, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
