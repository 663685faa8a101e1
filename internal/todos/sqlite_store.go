package todos

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const todoColumns = `id, title, description, is_due, due_date, is_done, created_at, updated_at`

// Fixed-width so that ORDER BY on the text column is chronological.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// A single connection serializes writers; the conditional update's
	// read-then-write transaction would otherwise race on lock upgrade.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA synchronous=NORMAL;
		PRAGMA foreign_keys=ON;
	`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Put(ctx context.Context, t Todo) error {
	t = t.normalize()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO todos (`+todoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Title, t.Description, t.IsDue, formatNullTime(t.DueDate), t.IsDone,
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	return storeErr("put", err)
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Todo, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = ?`, id)
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Todo{}, false, nil
	}
	if err != nil {
		return Todo{}, false, storeErr("get", err)
	}
	return t, true, nil
}

func (s *SQLiteStore) Scan(ctx context.Context) ([]Todo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+todoColumns+`
		FROM todos
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, storeErr("scan", err)
	}
	defer rows.Close()

	out := []Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, storeErr("scan", err)
		}
		out = append(out, t)
	}
	return out, storeErr("scan", rows.Err())
}

// Update applies p inside one transaction, so the existence check and the
// write are atomic.
func (s *SQLiteStore) Update(ctx context.Context, id string, p Patch) (Todo, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Todo{}, storeErr("update", err)
	}
	defer func() { _ = tx.Rollback() }()

	t, err := scanTodo(tx.QueryRowContext(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Todo{}, ErrNotFound
	}
	if err != nil {
		return Todo{}, storeErr("update", err)
	}

	p.apply(&t)
	if _, err := tx.ExecContext(ctx, `
		UPDATE todos
		SET title = ?, description = ?, is_due = ?, due_date = ?, is_done = ?, updated_at = ?
		WHERE id = ?
	`, t.Title, t.Description, t.IsDue, formatNullTime(t.DueDate), t.IsDone, formatTime(t.UpdatedAt), id); err != nil {
		return Todo{}, storeErr("update", err)
	}
	if err := tx.Commit(); err != nil {
		return Todo{}, storeErr("update", err)
	}
	return t, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	return storeErr("delete", err)
}

// ApplyMigrations ensures schema exists
func (s *SQLiteStore) ApplyMigrations(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS todos (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	is_due INTEGER NOT NULL DEFAULT 0,
	due_date TEXT,
	is_done INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
	`)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (Todo, error) {
	var (
		t                Todo
		due              sql.NullString
		created, updated string
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.IsDue, &due, &t.IsDone, &created, &updated); err != nil {
		return Todo{}, err
	}
	var err error
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return Todo{}, err
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return Todo{}, err
	}
	if due.Valid {
		d, err := time.Parse(time.RFC3339Nano, due.String)
		if err != nil {
			return Todo{}, err
		}
		t.DueDate = &d
	}
	return t.normalize(), nil
}

func formatTime(t time.Time) string { return t.UTC().Format(sqliteTimeLayout) }

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

// Helper to build DSN like: file:/absolute/path?_pragma=busy_timeout(5000)
func SQLiteFileDSN(path string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return "file:" + filepath.ToSlash(abs) + "?_pragma=busy_timeout(5000)", nil
}
