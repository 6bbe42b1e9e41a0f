package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema
// 1 - Index on scenes.updated_at
const currentSchemaVersion = 1

// SQLiteStore keeps scenes in a SQLite database. History steps live in a
// child table so a record update is a single transaction.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens the database at path and applies the
// schema. ":memory:" gives a private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	// SQLite supports one writer; a single connection also keeps an
	// in-memory database alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < 1 {
		if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_scenes_updated ON scenes(updated_at)`); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, name string) (*Record, error) {
	rec := &Record{Name: name}
	var updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT data, etag, updated_at FROM scenes WHERE name = ?`, name,
	).Scan(&rec.Data, &rec.ETag, &updated)
	if err == sql.ErrNoRows {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("query scene: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, data FROM scene_history WHERE scene = ? ORDER BY seq`, name)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var st Step
		if err := rows.Scan(&st.Name, &st.Data); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		rec.History = append(rec.History, st)
	}
	return rec, rows.Err()
}

func (s *SQLiteStore) Put(ctx context.Context, rec *Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO scenes (name, data, etag, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, etag = excluded.etag, updated_at = excluded.updated_at`,
		rec.Name, rec.Data, rec.ETag, rec.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert scene: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM scene_history WHERE scene = ?`, rec.Name); err != nil {
		return fmt.Errorf("reset history: %w", err)
	}
	for i, st := range rec.History {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scene_history (scene, seq, name, data) VALUES (?, ?, ?, ?)`,
			rec.Name, i, st.Name, st.Data); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scenes WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete scene: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(name)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM scenes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
