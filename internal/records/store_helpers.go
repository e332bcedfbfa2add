package records

import (
	"database/sql"
	"errors"
	"time"
)

const recordColumns = "id, owner_id, destination, file_name, source_path, mime_type, total_bytes, bytes_transferred, state, paused_by_network, error_kind, error_message, result_url, result_path, session_uri, attempts, context, created_at, updated_at, started_at, last_progress_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id              string
		ownerID         string
		destination     string
		fileName        string
		sourcePath      string
		mimeType        string
		totalBytes      int64
		bytesDone       int64
		stateStr        string
		pausedByNetwork sql.NullInt64
		errorKind       sql.NullString
		errorMessage    sql.NullString
		resultURL       sql.NullString
		resultPath      sql.NullString
		sessionURI      sql.NullString
		attempts        sql.NullInt64
		contextData     sql.NullString
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
		startedRaw      sql.NullString
		progressRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&ownerID,
		&destination,
		&fileName,
		&sourcePath,
		&mimeType,
		&totalBytes,
		&bytesDone,
		&stateStr,
		&pausedByNetwork,
		&errorKind,
		&errorMessage,
		&resultURL,
		&resultPath,
		&sessionURI,
		&attempts,
		&contextData,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
		&progressRaw,
	); err != nil {
		return nil, err
	}

	record := &Record{
		ID:               id,
		OwnerID:          ownerID,
		Destination:      destination,
		FileName:         fileName,
		SourcePath:       sourcePath,
		MimeType:         mimeType,
		TotalBytes:       totalBytes,
		BytesTransferred: bytesDone,
		State:            State(stateStr),
		ErrorKind:        errorKind.String,
		ErrorMessage:     errorMessage.String,
		ResultURL:        resultURL.String,
		ResultPath:       resultPath.String,
		SessionURI:       sessionURI.String,
		Context:          contextData.String,
	}
	if pausedByNetwork.Valid {
		record.PausedByNetwork = pausedByNetwork.Int64 != 0
	}
	if attempts.Valid {
		record.Attempts = int(attempts.Int64)
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		record.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		record.UpdatedAt = updated
	}
	if startedRaw.Valid {
		if started, err := parseTimeString(startedRaw.String); err == nil {
			record.StartedAt = &started
		}
	}
	if progressRaw.Valid {
		if progress, err := parseTimeString(progressRaw.String); err == nil {
			record.LastProgressAt = &progress
		}
	}
	return record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
