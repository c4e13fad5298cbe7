package memory

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"promobot/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements domain.MemoryStore using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, logger: logger}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS threads (
		id          TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL DEFAULT '',
		title       TEXT,
		provider    TEXT,
		model       TEXT,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_threads_resource ON threads(resource_id, updated_at);

	CREATE TABLE IF NOT EXISTS messages (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		thread_id    TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
		role         TEXT NOT NULL,
		content      TEXT,
		tool_calls   TEXT,
		tool_call_id TEXT,
		tool_name    TEXT,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(thread_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) CreateThread(ctx context.Context, th domain.Thread) error {
	now := time.Now()
	if th.CreatedAt.IsZero() {
		th.CreatedAt = now
	}
	if th.UpdatedAt.IsZero() {
		th.UpdatedAt = now
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO threads (id, resource_id, title, provider, model, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		th.ID, th.ResourceID, th.Title, th.Provider, th.Model, th.CreatedAt, th.UpdatedAt,
	)
	return err
}

func (s *SQLiteStore) GetThread(ctx context.Context, id string) (*domain.Thread, error) {
	var th domain.Thread
	err := s.db.QueryRowContext(ctx,
		`SELECT id, resource_id, title, provider, model, created_at, updated_at FROM threads WHERE id = ?`, id,
	).Scan(&th.ID, &th.ResourceID, &th.Title, &th.Provider, &th.Model, &th.CreatedAt, &th.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &th, nil
}

func (s *SQLiteStore) UpdateThread(ctx context.Context, th domain.Thread) error {
	th.UpdatedAt = time.Now()
	_, err := s.db.ExecContext(ctx,
		`UPDATE threads SET resource_id=?, title=?, provider=?, model=?, updated_at=? WHERE id=?`,
		th.ResourceID, th.Title, th.Provider, th.Model, th.UpdatedAt, th.ID,
	)
	return err
}

func (s *SQLiteStore) ListThreads(ctx context.Context, limit int) ([]domain.Thread, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, resource_id, title, provider, model, created_at, updated_at
		 FROM threads ORDER BY updated_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var threads []domain.Thread
	for rows.Next() {
		var th domain.Thread
		if err := rows.Scan(&th.ID, &th.ResourceID, &th.Title, &th.Provider, &th.Model, &th.CreatedAt, &th.UpdatedAt); err != nil {
			return nil, err
		}
		threads = append(threads, th)
	}
	return threads, rows.Err()
}

func (s *SQLiteStore) DeleteThread(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE thread_id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM threads WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) AddMessage(ctx context.Context, threadID string, msg domain.MessageRecord) error {
	now := time.Now()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (thread_id, role, content, tool_calls, tool_call_id, tool_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		threadID, msg.Role, msg.Content, msg.ToolCalls, msg.ToolCallID, msg.ToolName, msg.CreatedAt,
	)
	if err != nil {
		return err
	}

	_, _ = s.db.ExecContext(ctx,
		`UPDATE threads SET updated_at = ? WHERE id = ?`, now, threadID,
	)
	return nil
}

func (s *SQLiteStore) GetMessages(ctx context.Context, threadID string, limit int) ([]domain.MessageRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	// Last N messages, returned oldest first.
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, thread_id, role, content, tool_calls, tool_call_id, tool_name, created_at
		 FROM messages WHERE thread_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`, threadID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []domain.MessageRecord
	for rows.Next() {
		var m domain.MessageRecord
		var toolCalls, toolCallID, toolName sql.NullString
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.Role, &m.Content,
			&toolCalls, &toolCallID, &toolName, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.ToolCalls = toolCalls.String
		m.ToolCallID = toolCallID.String
		m.ToolName = toolName.String
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// PruneBefore drops threads whose last activity predates cutoff, along with
// their messages. Returns the number of threads removed.
func (s *SQLiteStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM messages WHERE thread_id IN (SELECT id FROM threads WHERE updated_at < ?)`, cutoff,
	); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM threads WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("pruned stale threads", "count", n, "cutoff", cutoff.Format(time.RFC3339))
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
