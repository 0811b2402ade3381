package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriter_AppendEvent(t *testing.T) {
	dataDir := t.TempDir()
	writer := NewWriter(dataDir)

	firstTime := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	if err := writer.Append(Event{
		Time:         firstTime,
		RequestID:    "req-1",
		RequesterID:  "player-1",
		TargetRoleID: "team-red",
		Seasons:      3,
		ApproverID:   "staff-1",
	}); err != nil {
		t.Fatalf("Append first event error: %v", err)
	}

	if err := writer.Append(Event{
		Time:         firstTime.Add(time.Minute),
		RequestID:    "req-2",
		RequesterID:  "player-2",
		TargetRoleID: "team-blue",
		Seasons:      1,
		ApproverID:   "staff-2",
	}); err != nil {
		t.Fatalf("Append second event error: %v", err)
	}

	logPath := filepath.Join(dataDir, "state", "transfers.jsonl")
	file, err := os.Open(logPath)
	if err != nil {
		t.Fatalf("Open transfer log error: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lines := make([]string, 0, 2)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan transfer log error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 jsonl lines, got %d", len(lines))
	}

	var first Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal first line error: %v", err)
	}
	if first.RequestID != "req-1" || first.Seasons != 3 || first.ApproverID != "staff-1" {
		t.Fatalf("unexpected first event: %+v", first)
	}

	var second Event
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("unmarshal second line error: %v", err)
	}
	if second.RequesterID != "player-2" || second.TargetRoleID != "team-blue" {
		t.Fatalf("unexpected second event: %+v", second)
	}
}
