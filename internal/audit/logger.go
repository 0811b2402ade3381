package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Poster delivers a formatted transfer record to a chat channel.
type Poster interface {
	Post(ctx context.Context, channelID, content string, withControls bool) (string, error)
}

// Logger formats completed transfers and delivers them to the transfer log
// channel, keeping a local JSONL copy regardless of delivery outcome.
type Logger struct {
	poster    Poster
	channelID string
	writer    *Writer
}

// NewLogger creates a transfer log logger. A nil poster or blank channel ID
// disables channel delivery; the local JSONL record is still written.
func NewLogger(poster Poster, channelID string, writer *Writer) *Logger {
	return &Logger{
		poster:    poster,
		channelID: strings.TrimSpace(channelID),
		writer:    writer,
	}
}

// FormatEvent renders the fixed transfer log template.
func FormatEvent(event Event) string {
	return fmt.Sprintf(":bust_in_silhouette: Free Agent :arrow_right: <@&%s>\n> <@%s>\n> for %d season(s).\n*(from <@%s>)*",
		event.TargetRoleID, event.RequesterID, event.Seasons, event.ApproverID)
}

// Record delivers one transfer event. Channel delivery is best-effort: a
// failure is logged and reported but the JSONL record is always attempted.
func (l *Logger) Record(ctx context.Context, event Event) error {
	var deliveryErr error
	if l.poster != nil && l.channelID != "" {
		if _, err := l.poster.Post(ctx, l.channelID, FormatEvent(event), false); err != nil {
			deliveryErr = fmt.Errorf("deliver transfer record: %w", err)
			slog.Warn("transfer log delivery failed", "request_id", event.RequestID, "channel_id", l.channelID, "error", err)
		}
	}

	if l.writer != nil {
		if err := l.writer.Append(event); err != nil {
			slog.Warn("transfer log local append failed", "request_id", event.RequestID, "error", err)
			if deliveryErr == nil {
				deliveryErr = err
			}
		}
	}

	return deliveryErr
}
