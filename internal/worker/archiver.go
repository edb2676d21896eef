package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finchat/internal/amqp"
)

// ExchangeArchiver persists consumed transcript events.
type ExchangeArchiver interface {
	ArchiveExchange(ctx context.Context, sessionID, query, reply string, exchangedAt time.Time) error
}

// TranscriptArchiver handles transcript events from AMQP and writes them to
// the exchange archive.
type TranscriptArchiver struct {
	storage ExchangeArchiver
}

func NewTranscriptArchiver(storage ExchangeArchiver) *TranscriptArchiver {
	return &TranscriptArchiver{storage: storage}
}

// HandleTranscriptEvent processes a single transcript event from AMQP.
func (w *TranscriptArchiver) HandleTranscriptEvent(ctx context.Context, msg *amqp.TranscriptEventMessage) error {
	slog.InfoContext(ctx, "Processing transcript event",
		"session_id", msg.SessionID,
		"exchanged_at", msg.ExchangedAt)

	if err := w.storage.ArchiveExchange(ctx, msg.SessionID, msg.Query, msg.Reply, msg.ExchangedAt); err != nil {
		return fmt.Errorf("archive exchange: %w", err)
	}

	slog.InfoContext(ctx, "Archived exchange", "session_id", msg.SessionID)
	return nil
}
