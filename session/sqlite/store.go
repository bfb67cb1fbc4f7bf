// Package sqlite provides a durable core.ThreadStore backed by SQLite
// (pure Go driver, no cgo). Threads survive process restarts so a client can
// resume a conversation by thread id.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/sherpa/core"
)

// Store implements core.ThreadStore on top of a SQLite database.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at dbPath and runs the schema
// migration. Use ":memory:" for an ephemeral database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open thread db: %w", err)
	}

	// A single connection serializes writers and keeps ":memory:" databases
	// shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate thread db: %w", err)
	}

	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS threads (
			id         TEXT PRIMARY KEY,
			last_agent TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS messages (
			seq          INTEGER PRIMARY KEY AUTOINCREMENT,
			thread_id    TEXT NOT NULL REFERENCES threads(id),
			id           TEXT NOT NULL,
			role         TEXT NOT NULL,
			content      TEXT NOT NULL,
			agent_id     TEXT NOT NULL DEFAULT '',
			tool_call_id TEXT NOT NULL DEFAULT '',
			tool_calls   TEXT NOT NULL DEFAULT '',
			created_at   TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(thread_id, seq);
	`)

	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetOrCreate returns the thread, inserting an empty row on first use.
func (s *Store) GetOrCreate(ctx context.Context, id string) (*core.Thread, error) {
	now := formatTime(time.Now().UTC())

	if _, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO threads (id, created_at, updated_at) VALUES (?, ?, ?)",
		id, now, now,
	); err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}

	return s.Get(ctx, id)
}

// Get loads a thread with its full history or returns core.ErrThreadNotFound.
func (s *Store) Get(ctx context.Context, id string) (*core.Thread, error) {
	var (
		th               = &core.Thread{ID: id, Messages: []core.Message{}}
		lastAgent        string
		created, updated string
	)

	err := s.db.QueryRowContext(ctx,
		"SELECT last_agent, created_at, updated_at FROM threads WHERE id = ?", id,
	).Scan(&lastAgent, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrThreadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get thread: %w", err)
	}

	th.LastAgent = core.AgentID(lastAgent)
	th.Created, _ = time.Parse(time.RFC3339Nano, created)
	th.Updated, _ = time.Parse(time.RFC3339Nano, updated)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, agent_id, tool_call_id, tool_calls, created_at
		 FROM messages WHERE thread_id = ? ORDER BY seq`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		th.Messages = append(th.Messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return th, nil
}

// Append stores msg at the end of the thread, creating the thread if needed.
func (s *Store) Append(ctx context.Context, id string, msg core.Message) error {
	var toolCalls string
	if len(msg.ToolCalls) > 0 {
		raw, err := json.Marshal(msg.ToolCalls)
		if err != nil {
			return fmt.Errorf("marshal tool calls: %w", err)
		}
		toolCalls = string(raw)
	}

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	now := formatTime(time.Now().UTC())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO threads (id, created_at, updated_at) VALUES (?, ?, ?)",
		id, now, now,
	); err != nil {
		return fmt.Errorf("create thread: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (thread_id, id, role, content, agent_id, tool_call_id, tool_calls, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, msg.ID, string(msg.Role), msg.Content, string(msg.AgentID), msg.ToolCallID, toolCalls, formatTime(ts),
	); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	update := "UPDATE threads SET updated_at = ? WHERE id = ?"
	args := []any{now, id}

	if msg.IsAgent() && msg.AgentID != "" {
		update = "UPDATE threads SET updated_at = ?, last_agent = ? WHERE id = ?"
		args = []any{now, string(msg.AgentID), id}
	}

	if _, err := tx.ExecContext(ctx, update, args...); err != nil {
		return fmt.Errorf("update thread: %w", err)
	}

	return tx.Commit()
}

// Count returns the number of stored threads.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM threads").Scan(&n); err != nil {
		return 0, fmt.Errorf("count threads: %w", err)
	}

	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(row scanner) (core.Message, error) {
	var (
		msg                          core.Message
		role, agentID, toolCalls, ts string
	)

	if err := row.Scan(&msg.ID, &role, &msg.Content, &agentID, &msg.ToolCallID, &toolCalls, &ts); err != nil {
		return core.Message{}, fmt.Errorf("scan message: %w", err)
	}

	msg.Role = core.Role(role)
	msg.AgentID = core.AgentID(agentID)
	msg.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)

	if toolCalls != "" {
		if err := json.Unmarshal([]byte(toolCalls), &msg.ToolCalls); err != nil {
			return core.Message{}, fmt.Errorf("unmarshal tool calls: %w", err)
		}
	}

	return msg, nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

var _ core.ThreadStore = (*Store)(nil)
