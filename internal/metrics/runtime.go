package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const runtimeMetricsFileName = "runtime_metrics.json"

// RuntimeSnapshot contains aggregated runtime metrics for transfers and outbound sends.
type RuntimeSnapshot struct {
	UpdatedAt time.Time     `json:"updated_at"`
	Transfer  TransferStats `json:"transfer"`
	Channel   ChannelStats  `json:"channel"`
}

// TransferStats tracks transfer request outcomes.
type TransferStats struct {
	Submitted          int64 `json:"submitted"`
	Approved           int64 `json:"approved"`
	Denied             int64 `json:"denied"`
	Expired            int64 `json:"expired"`
	RoleUpdateFailures int64 `json:"role_update_failures"`
	AuditFailures      int64 `json:"audit_failures"`
}

// Resolved returns the total number of terminally resolved requests.
func (t TransferStats) Resolved() int64 {
	return t.Approved + t.Denied + t.Expired
}

// ApprovalRatio returns approved/resolved in [0,1].
func (t TransferStats) ApprovalRatio() float64 {
	resolved := t.Resolved()
	if resolved <= 0 {
		return 0
	}
	return float64(t.Approved) / float64(resolved)
}

// ChannelStats tracks outbound send metrics.
type ChannelStats struct {
	SendAttempts int64 `json:"send_attempts"`
	SendFailures int64 `json:"send_failures"`
}

// FailureRatio returns failures/attempts in [0,1].
func (c ChannelStats) FailureRatio() float64 {
	if c.SendAttempts <= 0 {
		return 0
	}
	return float64(c.SendFailures) / float64(c.SendAttempts)
}

// HasData reports whether any runtime metrics were recorded.
func (s RuntimeSnapshot) HasData() bool {
	return s.Transfer.Submitted > 0 || s.Channel.SendAttempts > 0
}

// RuntimeMetrics records and persists runtime metrics.
type RuntimeMetrics struct {
	path string

	mu   sync.Mutex
	snap RuntimeSnapshot
}

// NewRuntimeMetrics creates a metrics recorder rooted at <dataDir>/state/runtime_metrics.json.
func NewRuntimeMetrics(dataDir string) *RuntimeMetrics {
	return &RuntimeMetrics{
		path: runtimeMetricsPath(dataDir),
	}
}

// Snapshot returns the latest in-memory snapshot.
func (m *RuntimeMetrics) Snapshot() RuntimeSnapshot {
	if m == nil {
		return RuntimeSnapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

// RecordSubmitted counts an accepted transfer request and persists the snapshot.
func (m *RuntimeMetrics) RecordSubmitted() (RuntimeSnapshot, error) {
	return m.update(func(s *RuntimeSnapshot) {
		s.Transfer.Submitted++
	})
}

// RecordApproved counts an approved outcome along with any side-effect failures.
func (m *RuntimeMetrics) RecordApproved(roleUpdateFailures int, auditFailed bool) (RuntimeSnapshot, error) {
	return m.update(func(s *RuntimeSnapshot) {
		s.Transfer.Approved++
		if roleUpdateFailures > 0 {
			s.Transfer.RoleUpdateFailures += int64(roleUpdateFailures)
		}
		if auditFailed {
			s.Transfer.AuditFailures++
		}
	})
}

// RecordDenied counts a denied outcome.
func (m *RuntimeMetrics) RecordDenied() (RuntimeSnapshot, error) {
	return m.update(func(s *RuntimeSnapshot) {
		s.Transfer.Denied++
	})
}

// RecordExpired counts an expired outcome.
func (m *RuntimeMetrics) RecordExpired() (RuntimeSnapshot, error) {
	return m.update(func(s *RuntimeSnapshot) {
		s.Transfer.Expired++
	})
}

// RecordChannelSend updates outbound send metrics and persists the snapshot.
func (m *RuntimeMetrics) RecordChannelSend(success bool) (RuntimeSnapshot, error) {
	return m.update(func(s *RuntimeSnapshot) {
		s.Channel.SendAttempts++
		if !success {
			s.Channel.SendFailures++
		}
	})
}

func (m *RuntimeMetrics) update(apply func(*RuntimeSnapshot)) (RuntimeSnapshot, error) {
	if m == nil {
		return RuntimeSnapshot{}, nil
	}

	m.mu.Lock()
	m.snap.UpdatedAt = time.Now().UTC()
	apply(&m.snap)
	snapshot := m.snap
	m.mu.Unlock()

	return snapshot, persistRuntimeSnapshot(m.path, snapshot)
}

// ReadRuntimeSnapshot reads the persisted snapshot from data dir state.
// If no file exists yet, it returns a zero-value snapshot and nil error.
func ReadRuntimeSnapshot(dataDir string) (RuntimeSnapshot, error) {
	path := runtimeMetricsPath(dataDir)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RuntimeSnapshot{}, nil
		}
		return RuntimeSnapshot{}, fmt.Errorf("read runtime metrics: %w", err)
	}

	var snap RuntimeSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return RuntimeSnapshot{}, fmt.Errorf("decode runtime metrics: %w", err)
	}
	return snap, nil
}

func runtimeMetricsPath(dataDir string) string {
	return filepath.Join(dataDir, "state", runtimeMetricsFileName)
}

func persistRuntimeSnapshot(path string, snapshot RuntimeSnapshot) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create runtime metrics dir: %w", err)
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode runtime metrics: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, payload, 0o644); err != nil {
		return fmt.Errorf("write runtime metrics temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("rename runtime metrics file: %w", err)
	}
	return nil
}
