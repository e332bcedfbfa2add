package main

import (
	"testing"

	"ferry/internal/ipc"
)

func TestBuildUploadRows(t *testing.T) {
	eta := int64(90)
	uploads := []ipc.Upload{
		{
			ID:               "0d9c2f66-1d7a-4a3b-9a61-1f2f3a4b5c6d",
			FileName:         "handbook.pdf",
			Destination:      "docs/handbooks",
			State:            "running",
			TotalBytes:       4 << 20,
			BytesTransferred: 2 << 20,
			Percentage:       50,
			ThroughputBPS:    1 << 20,
			ETASeconds:       &eta,
		},
		{
			ID:              "77a0c9e1-93a7-44db-aee9-0fb3d1a2b3c4",
			FileName:        "notes.txt",
			Destination:     "docs/notes",
			State:           "paused",
			PausedByNetwork: true,
			TotalBytes:      1 << 10,
			Percentage:      25,
		},
	}

	rows := buildUploadRows(uploads)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	running := rows[0]
	if running[0] != "0d9c2f66" {
		t.Fatalf("unexpected short id: %s", running[0])
	}
	if running[4] != "50.0%" {
		t.Fatalf("unexpected progress: %s", running[4])
	}
	if running[5] != "1.0 MiB/s" {
		t.Fatalf("unexpected speed: %s", running[5])
	}
	if running[6] != "1m30s" {
		t.Fatalf("unexpected eta: %s", running[6])
	}

	paused := rows[1]
	if paused[3] != "paused (network)" {
		t.Fatalf("unexpected state cell: %s", paused[3])
	}
	if paused[5] != "-" || paused[6] != "-" {
		t.Fatalf("expected placeholder speed and eta, got %s and %s", paused[5], paused[6])
	}
}

func TestBuildStateRowsOrdersCanonically(t *testing.T) {
	rows := buildStateRows(map[string]int{
		"success": 2,
		"queued":  1,
		"error":   3,
	})
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "queued" || rows[1][0] != "success" || rows[2][0] != "error" {
		t.Fatalf("unexpected order: %v", rows)
	}
}
