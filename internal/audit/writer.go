package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	auditFileMode = 0644
	auditDirMode  = 0755
)

// Event is one completed transfer written as a single JSON line.
type Event struct {
	Time         time.Time `json:"time"`
	RequestID    string    `json:"request_id,omitempty"`
	RequesterID  string    `json:"requester_id"`
	TargetRoleID string    `json:"target_role_id"`
	Seasons      int       `json:"seasons"`
	ApproverID   string    `json:"approver_id"`
}

// Writer appends transfer events to <dataDir>/state/transfers.jsonl.
type Writer struct {
	path string
	mu   sync.Mutex
}

// NewWriter creates an append-only transfer log writer rooted at data dir state.
func NewWriter(dataDir string) *Writer {
	return &Writer{
		path: filepath.Join(dataDir, "state", "transfers.jsonl"),
	}
}

// Append writes one event as one JSONL line.
func (w *Writer) Append(event Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), auditDirMode); err != nil {
		return fmt.Errorf("create transfer log dir: %w", err)
	}

	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, auditFileMode)
	if err != nil {
		return fmt.Errorf("open transfer log: %w", err)
	}
	defer file.Close()

	encoded, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal transfer event: %w", err)
	}
	encoded = append(encoded, '\n')

	if _, err := file.Write(encoded); err != nil {
		return fmt.Errorf("append transfer event: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync transfer log: %w", err)
	}
	return nil
}
