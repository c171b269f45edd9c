package pen

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
	"github.com/bytedance/sonic"
	_ "modernc.org/sqlite"
)

// Schema is the SQLite layout of the pens table
const Schema = `
CREATE TABLE IF NOT EXISTS pens (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	markup        TEXT NOT NULL DEFAULT '',
	styles        TEXT NOT NULL DEFAULT '',
	script        TEXT NOT NULL DEFAULT '',
	author_id     TEXT NOT NULL DEFAULT '',
	author_name   TEXT NOT NULL DEFAULT '',
	author_avatar TEXT NOT NULL DEFAULT '',
	views         INTEGER NOT NULL DEFAULT 0,
	likes         INTEGER NOT NULL DEFAULT 0,
	tags          TEXT NOT NULL DEFAULT '[]',
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pens_updated ON pens(updated_at);
`

const penColumns = `id, title, markup, styles, script, author_id, author_name, author_avatar, views, likes, tags, created_at, updated_at`

// SQLiteRepository stores pens in an SQLite database (pure Go driver)
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and applies Schema.
// ":memory:" gives a private in-memory database.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if path == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range append(pragmas, Schema) {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite init: %w", err)
		}
	}

	return &SQLiteRepository{db: db}, nil
}

// Seed inserts pens whose IDs are not stored yet
func (r *SQLiteRepository) Seed(ctx context.Context, pens []*Pen) error {
	return r.tx(ctx, func(tx *sql.Tx) error {
		for _, p := range pens {
			args, err := penArgs(p)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO pens (`+penColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`, args...); err != nil {
				return unavailable("seed", err)
			}
		}
		return nil
	})
}

// List returns all pens
func (r *SQLiteRepository) List(ctx context.Context) ([]*Pen, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+penColumns+` FROM pens`)
	if err != nil {
		return nil, unavailable("list", err)
	}
	defer rows.Close()

	var pens []*Pen
	for rows.Next() {
		p, err := scanPen(rows)
		if err != nil {
			return nil, err
		}
		pens = append(pens, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list", err)
	}
	return pens, nil
}

// Get returns one pen
func (r *SQLiteRepository) Get(ctx context.Context, penID id.PenID) (*Pen, error) {
	return r.get(ctx, r.db, penID)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *SQLiteRepository) get(ctx context.Context, q queryer, penID id.PenID) (*Pen, error) {
	p, err := scanPen(q.QueryRowContext(ctx, `SELECT `+penColumns+` FROM pens WHERE id = ?`, string(penID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, penID)
	}
	return p, err
}

// Insert stores a new pen
func (r *SQLiteRepository) Insert(ctx context.Context, p *Pen) error {
	args, err := penArgs(p)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `INSERT INTO pens (`+penColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`, args...); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalid, p.ID)
		}
		return unavailable("insert", err)
	}
	return nil
}

// Update reads, modifies and writes the pen in one transaction
func (r *SQLiteRepository) Update(ctx context.Context, penID id.PenID, fn func(*Pen)) (*Pen, error) {
	var updated *Pen
	err := r.tx(ctx, func(tx *sql.Tx) error {
		p, err := r.get(ctx, tx, penID)
		if err != nil {
			return err
		}
		fn(p)
		p.ID = penID

		args, err := penArgs(p)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE pens SET title = ?, markup = ?, styles = ?, script = ?,
			author_id = ?, author_name = ?, author_avatar = ?, views = ?, likes = ?, tags = ?,
			created_at = ?, updated_at = ? WHERE id = ?`, append(args[1:], args[0])...)
		if err != nil {
			return unavailable("update", err)
		}
		updated = p
		return nil
	})
	return updated, err
}

// Delete removes a pen
func (r *SQLiteRepository) Delete(ctx context.Context, penID id.PenID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pens WHERE id = ?`, string(penID))
	if err != nil {
		return unavailable("delete", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, penID)
	}
	return nil
}

// Close closes the database
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) tx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return unavailable("commit", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPen(s scanner) (*Pen, error) {
	var (
		p                    Pen
		penID, tags          string
		createdAt, updatedAt string
	)
	err := s.Scan(&penID, &p.Title, &p.Markup, &p.Styles, &p.Script,
		&p.Author.ID, &p.Author.Name, &p.Author.Avatar,
		&p.Views, &p.Likes, &tags, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, unavailable("scan", err)
	}

	p.ID = id.PenID(penID)
	if err := sonic.UnmarshalString(tags, &p.Tags); err != nil {
		return nil, fmt.Errorf("decode tags of %s: %w", penID, err)
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("decode created_at of %s: %w", penID, err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("decode updated_at of %s: %w", penID, err)
	}
	return &p, nil
}

func penArgs(p *Pen) ([]any, error) {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	encoded, err := sonic.MarshalString(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	return []any{
		string(p.ID), p.Title, p.Markup, p.Styles, p.Script,
		p.Author.ID, p.Author.Name, p.Author.Avatar,
		p.Views, p.Likes, encoded,
		p.CreatedAt.UTC().Format(time.RFC3339Nano), p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: sqlite %s: %v", ErrUnavailable, op, err)
}
