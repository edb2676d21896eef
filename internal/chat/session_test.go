package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"finchat/internal/core"
)

type fakeResponder struct {
	lastContext string
	lastQuery   string
	lastHistory []core.Turn
	replies     []string
	calls       int
}

func (f *fakeResponder) Respond(_ context.Context, contextText, query string, history []core.Turn) string {
	f.lastContext = contextText
	f.lastQuery = query
	f.lastHistory = append([]core.Turn(nil), history...)
	reply := fmt.Sprintf("reply-%d", f.calls)
	if f.calls < len(f.replies) {
		reply = f.replies[f.calls]
	}
	f.calls++
	return reply
}

type fakeStore struct {
	turns []core.Turn
	err   error
}

func (f *fakeStore) AppendMessage(_ context.Context, _ uuid.UUID, turn core.Turn) error {
	if f.err != nil {
		return f.err
	}
	f.turns = append(f.turns, turn)
	return nil
}

type fakePublisher struct {
	queries []string
	replies []string
	err     error
}

func (f *fakePublisher) PublishExchange(_ context.Context, _ uuid.UUID, query, reply string, _ time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.queries = append(f.queries, query)
	f.replies = append(f.replies, reply)
	return nil
}

func TestSession_AskAppendsAfterExchange(t *testing.T) {
	r := &fakeResponder{replies: []string{"the answer"}}
	s := NewSession(Config{Context: "ctx", Responder: r})

	got := s.Ask(context.Background(), "a question")

	if got != "the answer" {
		t.Errorf("Ask() = %q, want %q", got, "the answer")
	}
	if len(r.lastHistory) != 0 {
		t.Errorf("first request carried %d history turns, want 0", len(r.lastHistory))
	}
	if r.lastContext != "ctx" {
		t.Errorf("responder got context %q, want %q", r.lastContext, "ctx")
	}

	h := s.History()
	if len(h) != 2 {
		t.Fatalf("history has %d turns after one exchange, want 2", len(h))
	}
	if h[0] != (core.Turn{Role: core.RoleUser, Content: "a question"}) {
		t.Errorf("first turn = %+v, want the user query", h[0])
	}
	if h[1] != (core.Turn{Role: core.RoleAssistant, Content: "the answer"}) {
		t.Errorf("second turn = %+v, want the assistant reply", h[1])
	}
}

func TestSession_HistoryOrderAcrossExchanges(t *testing.T) {
	r := &fakeResponder{}
	s := NewSession(Config{Responder: r})

	s.Ask(context.Background(), "q0")
	s.Ask(context.Background(), "q1")

	// The second request must carry exactly the first exchange.
	want := []core.Turn{
		{Role: core.RoleUser, Content: "q0"},
		{Role: core.RoleAssistant, Content: "reply-0"},
	}
	if len(r.lastHistory) != len(want) {
		t.Fatalf("second request carried %d turns, want %d", len(r.lastHistory), len(want))
	}
	for i := range want {
		if r.lastHistory[i] != want[i] {
			t.Errorf("history[%d] = %+v, want %+v", i, r.lastHistory[i], want[i])
		}
	}
}

func TestSession_HistoryLimitTruncates(t *testing.T) {
	r := &fakeResponder{}
	s := NewSession(Config{Responder: r, HistoryLimit: 2})

	for i := 0; i < 5; i++ {
		s.Ask(context.Background(), fmt.Sprintf("q%d", i))
	}

	if len(r.lastHistory) != 2 {
		t.Fatalf("request carried %d turns with limit 2, want 2", len(r.lastHistory))
	}
	// The window must hold the most recent exchange before the current query.
	if r.lastHistory[0].Content != "q3" || r.lastHistory[1].Content != "reply-3" {
		t.Errorf("window = %+v, want [q3 reply-3]", r.lastHistory)
	}
	// Full history is never truncated, only the request window.
	if len(s.History()) != 10 {
		t.Errorf("full history has %d turns, want 10", len(s.History()))
	}
}

func TestSession_ZeroLimitMeansUnlimited(t *testing.T) {
	r := &fakeResponder{}
	s := NewSession(Config{Responder: r, HistoryLimit: 0})

	for i := 0; i < 3; i++ {
		s.Ask(context.Background(), "q")
	}
	if len(r.lastHistory) != 4 {
		t.Errorf("request carried %d turns with unlimited window, want 4", len(r.lastHistory))
	}
}

func TestSession_PersistsAndPublishes(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	s := NewSession(Config{Responder: &fakeResponder{replies: []string{"ok"}}, Store: store, Publisher: pub})

	s.Ask(context.Background(), "save me")

	if len(store.turns) != 2 {
		t.Fatalf("store received %d turns, want 2", len(store.turns))
	}
	if len(pub.queries) != 1 || pub.queries[0] != "save me" || pub.replies[0] != "ok" {
		t.Errorf("publisher got queries=%v replies=%v", pub.queries, pub.replies)
	}
}

func TestSession_StoreFailureDoesNotAffectReply(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	pub := &fakePublisher{err: errors.New("broker down")}
	s := NewSession(Config{Responder: &fakeResponder{replies: []string{"still fine"}}, Store: store, Publisher: pub})

	if got := s.Ask(context.Background(), "q"); got != "still fine" {
		t.Errorf("Ask() = %q despite store/publisher failures, want %q", got, "still fine")
	}
	if len(s.History()) != 2 {
		t.Errorf("in-memory history has %d turns, want 2", len(s.History()))
	}
}

func TestSession_SeedResumesHistory(t *testing.T) {
	r := &fakeResponder{}
	s := NewSession(Config{Responder: r})
	s.Seed([]core.Turn{
		{Role: core.RoleUser, Content: "earlier"},
		{Role: core.RoleAssistant, Content: "before"},
	})

	s.Ask(context.Background(), "now")

	if len(r.lastHistory) != 2 || r.lastHistory[0].Content != "earlier" {
		t.Errorf("seeded turns not forwarded: %+v", r.lastHistory)
	}
}

func TestNewSession_AssignsID(t *testing.T) {
	s := NewSession(Config{Responder: &fakeResponder{}})
	if s.ID() == uuid.Nil {
		t.Error("NewSession must assign a session id when none is given")
	}

	fixed := uuid.New()
	s = NewSession(Config{ID: fixed, Responder: &fakeResponder{}})
	if s.ID() != fixed {
		t.Errorf("ID() = %v, want the supplied %v", s.ID(), fixed)
	}
}
