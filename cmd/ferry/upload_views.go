package main

import (
	"strconv"
	"time"

	"ferry/internal/format"
	"ferry/internal/ipc"
	"ferry/internal/records"
)

// shortID trims a UUID to its first block for table display. Control commands
// still take the full id; `ferry show` prints it.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func buildUploadRows(uploads []ipc.Upload) [][]string {
	rows := make([][]string, 0, len(uploads))
	for _, upload := range uploads {
		rows = append(rows, []string{
			shortID(upload.ID),
			upload.FileName,
			upload.Destination,
			uploadStateCell(upload),
			format.Percent(upload.Percentage),
			speedCell(upload),
			etaCell(upload),
			format.FileSize(upload.TotalBytes),
		})
	}
	return rows
}

func uploadStateCell(upload ipc.Upload) string {
	if upload.State == string(records.StatePaused) && upload.PausedByNetwork {
		return "paused (network)"
	}
	return upload.State
}

func speedCell(upload ipc.Upload) string {
	if upload.State != string(records.StateRunning) || upload.ThroughputBPS <= 0 {
		return "-"
	}
	return format.Speed(upload.ThroughputBPS)
}

func etaCell(upload ipc.Upload) string {
	if upload.ETASeconds == nil {
		return "-"
	}
	eta := time.Duration(*upload.ETASeconds) * time.Second
	return format.TimeRemaining(&eta)
}

// buildStateRows orders state counts canonically instead of map order.
func buildStateRows(counts map[string]int) [][]string {
	rows := make([][]string, 0, len(counts))
	for _, state := range records.AllStates() {
		count, ok := counts[string(state)]
		if !ok || count == 0 {
			continue
		}
		rows = append(rows, []string{string(state), strconv.Itoa(count)})
	}
	return rows
}
