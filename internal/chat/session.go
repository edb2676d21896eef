// Package chat owns conversation state for one assistant session: the
// append-only history, its explicit truncation window, and the orchestration
// of the completion client, transcript store and event publisher.
package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"finchat/internal/core"
)

// Ports for outbound collaborators. All are satisfied by the concrete
// adapters in internal/perplexity, internal/storage and internal/amqp.
type (
	// Responder answers one user query against a fixed context and the prior
	// turns. Implementations never return an error; failures arrive as
	// pre-written user-readable replies.
	Responder interface {
		Respond(ctx context.Context, contextText, query string, history []core.Turn) string
	}

	// Store persists conversation turns. Optional; a nil store keeps history
	// in memory only.
	Store interface {
		AppendMessage(ctx context.Context, sessionID uuid.UUID, turn core.Turn) error
	}

	// Publisher emits one event per completed query/reply exchange. Optional.
	Publisher interface {
		PublishExchange(ctx context.Context, sessionID uuid.UUID, query, reply string, exchangedAt time.Time) error
	}
)

// Config assembles a Session. Context is the rendered financial context,
// fixed for the session lifetime. HistoryLimit is the number of most recent
// turns forwarded with each request; zero or negative means unlimited.
type Config struct {
	ID           uuid.UUID
	Context      string
	Responder    Responder
	Store        Store
	Publisher    Publisher
	HistoryLimit int
}

// Session is a single conversation over one financial snapshot. It is not
// safe for concurrent use; queries are strictly one at a time, caller-driven.
type Session struct {
	id           uuid.UUID
	contextText  string
	responder    Responder
	store        Store
	publisher    Publisher
	historyLimit int
	history      []core.Turn
}

func NewSession(cfg Config) *Session {
	id := cfg.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &Session{
		id:           id,
		contextText:  cfg.Context,
		responder:    cfg.Responder,
		store:        cfg.Store,
		publisher:    cfg.Publisher,
		historyLimit: cfg.HistoryLimit,
	}
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Seed pre-loads history from a resumed transcript. It must be called before
// the first Ask.
func (s *Session) Seed(turns []core.Turn) {
	s.history = append(s.history, turns...)
}

// Ask sends one user query and returns the assistant reply. The query and
// reply are appended to history only after the exchange completes, so the
// request carries the turns that preceded it. Store and publisher failures
// are logged and do not affect the reply.
func (s *Session) Ask(ctx context.Context, query string) string {
	exchangedAt := time.Now()
	reply := s.responder.Respond(ctx, s.contextText, query, s.recent())

	s.append(ctx, core.Turn{Role: core.RoleUser, Content: query})
	s.append(ctx, core.Turn{Role: core.RoleAssistant, Content: reply})

	if s.publisher != nil {
		if err := s.publisher.PublishExchange(ctx, s.id, query, reply, exchangedAt); err != nil {
			slog.WarnContext(ctx, "Failed to publish exchange event",
				"session_id", s.id,
				"error", err)
		}
	}

	return reply
}

// History returns a copy of the full session history.
func (s *Session) History() []core.Turn {
	out := make([]core.Turn, len(s.history))
	copy(out, s.history)
	return out
}

// recent returns the last HistoryLimit turns, or all of them when the limit
// is unset.
func (s *Session) recent() []core.Turn {
	if s.historyLimit <= 0 || len(s.history) <= s.historyLimit {
		return s.history
	}
	return s.history[len(s.history)-s.historyLimit:]
}

func (s *Session) append(ctx context.Context, turn core.Turn) {
	s.history = append(s.history, turn)
	if s.store == nil {
		return
	}
	if err := s.store.AppendMessage(ctx, s.id, turn); err != nil {
		slog.WarnContext(ctx, "Failed to persist conversation turn",
			"session_id", s.id,
			"role", turn.Role,
			"error", err)
	}
}
