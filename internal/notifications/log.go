package notifications

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"ferry/internal/config"
)

// Log is the persisted notification history, bounded so the database never
// grows without limit.
type Log struct {
	db           *sql.DB
	liveLimit    int
	historyLimit int
}

// OpenLog initializes or connects to the notification database.
func OpenLog(cfg *config.Config) (*Log, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenLogPath(cfg.NotificationDBPath(), cfg.Notifications.LiveLimit, cfg.Notifications.HistoryLimit)
}

// OpenLogPath opens the notification database at an explicit path.
func OpenLogPath(dbPath string, liveLimit, historyLimit int) (*Log, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	const schema = `
CREATE TABLE IF NOT EXISTS notifications (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    kind TEXT NOT NULL,
    title TEXT NOT NULL,
    message TEXT NOT NULL,
    context TEXT,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_created_at ON notifications(created_at);
`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create notifications schema: %w", err)
	}

	if liveLimit <= 0 {
		liveLimit = 5
	}
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &Log{db: db, liveLimit: liveLimit, historyLimit: historyLimit}, nil
}

// Close closes the underlying database connection.
func (l *Log) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Append stores a notification and trims history beyond the configured limit.
func (l *Log) Append(ctx context.Context, n Notification) (int64, error) {
	var contextJSON sql.NullString
	if len(n.Context) > 0 {
		encoded, err := json.Marshal(n.Context)
		if err != nil {
			return 0, fmt.Errorf("encode notification context: %w", err)
		}
		contextJSON = sql.NullString{String: string(encoded), Valid: true}
	}

	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	result, err := l.db.ExecContext(ctx,
		`INSERT INTO notifications (kind, title, message, context, created_at) VALUES (?, ?, ?, ?, ?)`,
		string(n.Kind), n.Title, n.Message, contextJSON, createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("notification id: %w", err)
	}

	_, err = l.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id NOT IN (SELECT id FROM notifications ORDER BY id DESC LIMIT ?)`,
		l.historyLimit,
	)
	if err != nil {
		return 0, fmt.Errorf("trim notification history: %w", err)
	}
	return id, nil
}

// Recent returns the newest notifications, most recent first. A non-positive
// limit falls back to the live display limit.
func (l *Log) Recent(ctx context.Context, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = l.liveLimit
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, kind, title, message, context, created_at FROM notifications ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var (
			n           Notification
			kind        string
			contextJSON sql.NullString
			createdAt   string
		)
		if err := rows.Scan(&n.ID, &kind, &n.Title, &n.Message, &contextJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Kind = Event(kind)
		if contextJSON.Valid && contextJSON.String != "" {
			if err := json.Unmarshal([]byte(contextJSON.String), &n.Context); err != nil {
				return nil, fmt.Errorf("decode notification context: %w", err)
			}
		}
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse notification timestamp: %w", err)
		}
		n.CreatedAt = parsed
		out = append(out, n)
	}
	return out, rows.Err()
}

// Dismiss removes one notification. Dismissing an unknown id is a no-op.
func (l *Log) Dismiss(ctx context.Context, id int64) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id); err != nil {
		return fmt.Errorf("dismiss notification: %w", err)
	}
	return nil
}

// Clear removes all notifications.
func (l *Log) Clear(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM notifications`); err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}
	return nil
}
