package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"finchat/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists chat sessions, their turns, and the archive of
// exchanges consumed from the transcript event queue.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateSession records a new chat session and the source its snapshot was
// loaded from.
func (r *SQLiteRepository) CreateSession(ctx context.Context, id uuid.UUID, snapshotSource string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, snapshot_source) VALUES (?, ?)`,
		id.String(), snapshotSource)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	slog.InfoContext(ctx, "Chat session created",
		"session_id", id,
		"snapshot_source", snapshotSource)

	return nil
}

// AppendMessage implements chat.Store.
func (r *SQLiteRepository) AppendMessage(ctx context.Context, sessionID uuid.UUID, turn core.Turn) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content) VALUES (?, ?, ?)`,
		sessionID.String(), string(turn.Role), turn.Content)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// Messages returns a session's turns in insertion order, for resuming a
// conversation.
func (r *SQLiteRepository) Messages(ctx context.Context, sessionID uuid.UUID) ([]core.Turn, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT role, content FROM messages WHERE session_id = ? ORDER BY id`,
		sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var turns []core.Turn
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		turns = append(turns, core.Turn{Role: core.Role(role), Content: content})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return turns, nil
}

// LatestSessionID returns the most recently created session, or uuid.Nil when
// none exists.
func (r *SQLiteRepository) LatestSessionID(ctx context.Context) (uuid.UUID, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM sessions ORDER BY started_at DESC, rowid DESC LIMIT 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("query latest session: %w", err)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse session id %q: %w", raw, err)
	}
	return id, nil
}

// ArchiveExchange stores one query/reply exchange delivered over the
// transcript event queue.
func (r *SQLiteRepository) ArchiveExchange(ctx context.Context, sessionID, query, reply string, exchangedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO exchange_archive (session_id, query, reply, exchanged_at) VALUES (?, ?, ?, ?)`,
		sessionID, query, reply, exchangedAt.UTC())
	if err != nil {
		return fmt.Errorf("archive exchange: %w", err)
	}

	slog.InfoContext(ctx, "Exchange archived",
		"session_id", sessionID,
		"exchanged_at", exchangedAt)

	return nil
}

// ArchivedExchangeCount returns how many exchanges the archive holds for a
// session.
func (r *SQLiteRepository) ArchivedExchangeCount(ctx context.Context, sessionID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM exchange_archive WHERE session_id = ?`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count archived exchanges: %w", err)
	}
	return n, nil
}
