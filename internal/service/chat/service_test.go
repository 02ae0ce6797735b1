package chat_test

import (
	"context"
	"errors"
	"testing"

	model "github.com/blockgpt-labs/blockgpt/server/internal/model/chat"
	"github.com/blockgpt-labs/blockgpt/server/internal/realtime"
	chatservice "github.com/blockgpt-labs/blockgpt/server/internal/service/chat"
	"github.com/blockgpt-labs/blockgpt/server/internal/store"
)

type stubSearcher struct {
	passages  []string
	err       error
	lastQuery string
	lastK     int
}

func (s *stubSearcher) Search(_ context.Context, query string, k int) ([]string, error) {
	s.lastQuery = query
	s.lastK = k
	return s.passages, s.err
}

type stubResponder struct {
	answer      string
	err         error
	calls       int
	lastContext string
}

func (r *stubResponder) Respond(_ context.Context, contextText, _ string) (string, error) {
	r.calls++
	r.lastContext = contextText
	return r.answer, r.err
}

type recordingBroadcaster struct {
	events   []string
	payloads []any
}

func (b *recordingBroadcaster) Broadcast(event string, payload any) {
	b.events = append(b.events, event)
	b.payloads = append(b.payloads, payload)
}

func newService(st store.Store, searcher *stubSearcher, responder *stubResponder, hub *recordingBroadcaster) *chatservice.Service {
	return chatservice.NewService(st, searcher, responder, hub, 4, nil)
}

func TestRespondAppendsAndBroadcasts(t *testing.T) {
	st := store.NewMemoryStore()
	searcher := &stubSearcher{passages: []string{"passage one.", "passage two."}}
	responder := &stubResponder{answer: "an answer"}
	hub := &recordingBroadcaster{}
	svc := newService(st, searcher, responder, hub)
	ctx := context.Background()

	sessionID, err := st.CreateSession(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	answer, conversation, err := svc.Respond(ctx, chatservice.RespondInput{
		Message:   "What is Bitcoin?",
		Email:     "a@b.com",
		Name:      "A",
		SessionID: sessionID,
	})
	if err != nil {
		t.Fatalf("Respond err: %v", err)
	}

	if answer != "an answer" {
		t.Fatalf("unexpected answer: %q", answer)
	}
	if searcher.lastQuery != "What is Bitcoin?" || searcher.lastK != 4 {
		t.Fatalf("unexpected search call: query=%q k=%d", searcher.lastQuery, searcher.lastK)
	}
	if responder.lastContext != "passage one.passage two." {
		t.Fatalf("unexpected pipeline context: %q", responder.lastContext)
	}
	if len(conversation) != 1 || conversation[0].UserMessage != "What is Bitcoin?" {
		t.Fatalf("unexpected conversation: %+v", conversation)
	}

	if len(hub.events) != 1 || hub.events[0] != realtime.EventChatHistoryUpdate {
		t.Fatalf("unexpected broadcast events: %v", hub.events)
	}
	update, ok := hub.payloads[0].(chatservice.HistoryUpdate)
	if !ok {
		t.Fatalf("unexpected payload type %T", hub.payloads[0])
	}
	if update.SessionID != sessionID || len(update.Conversation) != 1 {
		t.Fatalf("unexpected payload: %+v", update)
	}

	stored, err := st.GetSession(ctx, "a@b.com", sessionID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}
	if stored.Conversation[0].Response != "an answer" {
		t.Fatalf("stored response mismatch: %+v", stored.Conversation)
	}
}

func TestRespondEmptyMessage(t *testing.T) {
	svc := newService(store.NewMemoryStore(), &stubSearcher{}, &stubResponder{}, &recordingBroadcaster{})

	_, _, err := svc.Respond(context.Background(), chatservice.RespondInput{
		Message:   "   ",
		Email:     "a@b.com",
		SessionID: "b6e62b28-59ae-4887-9c5c-c7a62348261b",
	})
	if !errors.Is(err, chatservice.ErrMessageRequired) {
		t.Fatalf("expected ErrMessageRequired, got %v", err)
	}
}

func TestRespondInvalidSessionIDSkipsPipeline(t *testing.T) {
	responder := &stubResponder{answer: "unused"}
	svc := newService(store.NewMemoryStore(), &stubSearcher{}, responder, &recordingBroadcaster{})

	_, _, err := svc.Respond(context.Background(), chatservice.RespondInput{
		Message:   "hello",
		Email:     "a@b.com",
		SessionID: "not-a-uuid",
	})
	if !errors.Is(err, store.ErrInvalidSessionID) {
		t.Fatalf("expected ErrInvalidSessionID, got %v", err)
	}
	if responder.calls != 0 {
		t.Fatalf("pipeline should not run for an invalid session id")
	}
}

func TestRespondPipelineFailureLosesAnswer(t *testing.T) {
	pipelineErr := errors.New("transport down")
	st := store.NewMemoryStore()
	svc := newService(st, &stubSearcher{}, &stubResponder{err: pipelineErr}, &recordingBroadcaster{})
	ctx := context.Background()

	sessionID, _ := st.CreateSession(ctx, "a@b.com")

	_, _, err := svc.Respond(ctx, chatservice.RespondInput{
		Message:   "hello",
		Email:     "a@b.com",
		SessionID: sessionID,
	})
	if !errors.Is(err, pipelineErr) {
		t.Fatalf("expected pipeline error, got %v", err)
	}

	session, err := st.GetSession(ctx, "a@b.com", sessionID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}
	if len(session.Conversation) != 0 {
		t.Fatalf("conversation should be untouched on pipeline failure")
	}
}

func TestHistoryAbsentSessionIsEmpty(t *testing.T) {
	svc := newService(store.NewMemoryStore(), &stubSearcher{}, &stubResponder{}, &recordingBroadcaster{})

	history, err := svc.History(context.Background(), "a@b.com", "b6e62b28-59ae-4887-9c5c-c7a62348261b")
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if history == nil || len(history) != 0 {
		t.Fatalf("expected empty history, got %v", history)
	}
}

func TestNewSessionEchoesSelectedID(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newService(st, &stubSearcher{}, &stubResponder{}, &recordingBroadcaster{})
	ctx := context.Background()

	id, err := svc.NewSession(ctx, "a@b.com", false, "existing-id")
	if err != nil {
		t.Fatalf("NewSession err: %v", err)
	}
	if id != "existing-id" {
		t.Fatalf("expected echoed id, got %q", id)
	}

	created, err := svc.NewSession(ctx, "a@b.com", true, "")
	if err != nil {
		t.Fatalf("NewSession err: %v", err)
	}
	if created == "" {
		t.Fatal("expected generated session id")
	}

	exchange := model.Exchange{UserMessage: "hi", Response: "hello"}
	if _, err := st.AppendExchange(ctx, "a@b.com", created, "", "", exchange); err != nil {
		t.Fatalf("AppendExchange on created session err: %v", err)
	}
}
