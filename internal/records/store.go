package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"ferry/internal/config"
)

// Store manages upload record persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the upload record database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens the record database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Put upserts a record with total-overwrite semantics. Callers must
// read-modify-write; there is no partial merge.
func (s *Store) Put(ctx context.Context, record *Record) error {
	if record == nil {
		return errors.New("record is nil")
	}
	if record.ID == "" {
		return errors.New("record id is empty")
	}
	record.UpdatedAt = time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = record.UpdatedAt
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO upload_records (
            id, owner_id, destination, file_name, source_path, mime_type,
            total_bytes, bytes_transferred, state, paused_by_network,
            error_kind, error_message, result_url, result_path, session_uri,
            attempts, context, created_at, updated_at, started_at, last_progress_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            owner_id = excluded.owner_id,
            destination = excluded.destination,
            file_name = excluded.file_name,
            source_path = excluded.source_path,
            mime_type = excluded.mime_type,
            total_bytes = excluded.total_bytes,
            bytes_transferred = excluded.bytes_transferred,
            state = excluded.state,
            paused_by_network = excluded.paused_by_network,
            error_kind = excluded.error_kind,
            error_message = excluded.error_message,
            result_url = excluded.result_url,
            result_path = excluded.result_path,
            session_uri = excluded.session_uri,
            attempts = excluded.attempts,
            context = excluded.context,
            created_at = excluded.created_at,
            updated_at = excluded.updated_at,
            started_at = excluded.started_at,
            last_progress_at = excluded.last_progress_at`,
		record.ID,
		record.OwnerID,
		record.Destination,
		record.FileName,
		record.SourcePath,
		record.MimeType,
		record.TotalBytes,
		record.BytesTransferred,
		record.State,
		boolToInt(record.PausedByNetwork),
		nullableString(record.ErrorKind),
		nullableString(record.ErrorMessage),
		nullableString(record.ResultURL),
		nullableString(record.ResultPath),
		nullableString(record.SessionURI),
		record.Attempts,
		nullableString(record.Context),
		record.CreatedAt.Format(time.RFC3339Nano),
		record.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(record.StartedAt),
		nullableTime(record.LastProgressAt),
	)
	if err != nil {
		return fmt.Errorf("put record: %w", err)
	}
	return nil
}

// Get fetches a record by id. Returns nil when absent.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM upload_records WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// List returns records filtered by state set, or all records when no state is
// provided. No ordering is guaranteed across keys; callers must not depend on
// insertion order.
func (s *Store) List(ctx context.Context, states ...State) ([]*Record, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + recordColumns + ` FROM upload_records`
	if len(states) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery)
	} else {
		placeholders := makePlaceholders(len(states))
		args := make([]any, len(states))
		for i, state := range states {
			args[i] = state
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE state IN (`+placeholders+`)`, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var result []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

// Remove permanently deletes a record. Removing an absent id is not an error.
func (s *Store) Remove(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM upload_records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("remove record: %w", err)
	}
	return nil
}

// RemoveByState bulk-deletes records in the given states and reports how many
// were removed.
func (s *Store) RemoveByState(ctx context.Context, states ...State) (int64, error) {
	if len(states) == 0 {
		return 0, nil
	}
	placeholders := makePlaceholders(len(states))
	args := make([]any, len(states))
	for i, state := range states {
		args[i] = state
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM upload_records WHERE state IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("remove by state: %w", err)
	}
	return res.RowsAffected()
}

// ResetInterrupted returns records stuck in running back to paused. Called at
// daemon boot so transfers interrupted by a crash stay resumable from their
// committed offset.
func (s *Store) ResetInterrupted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE upload_records
         SET state = ?, paused_by_network = 0, updated_at = ?
         WHERE state = ?`,
		StatePaused,
		time.Now().UTC().Format(time.RFC3339Nano),
		StateRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("reset interrupted records: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of records grouped by state.
func (s *Store) Stats(ctx context.Context) (map[State]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(1) FROM upload_records GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("record stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[State]int)
	for rows.Next() {
		var state State
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		stats[state] = count
	}
	return stats, rows.Err()
}
