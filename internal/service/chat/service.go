package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/blockgpt-labs/blockgpt/server/internal/corpus"
	"github.com/blockgpt-labs/blockgpt/server/internal/model/chat"
	"github.com/blockgpt-labs/blockgpt/server/internal/realtime"
	"github.com/blockgpt-labs/blockgpt/server/internal/store"
)

var ErrMessageRequired = errors.New("message is required")

// Responder runs the remote generate-then-moderate sequence.
type Responder interface {
	Respond(ctx context.Context, contextText, question string) (string, error)
}

// Broadcaster pushes an event to realtime subscribers.
type Broadcaster interface {
	Broadcast(event string, payload any)
}

// HistoryUpdate is the realtime payload emitted after a conversation write.
type HistoryUpdate struct {
	SessionID    string          `json:"session_id"`
	Conversation []chat.Exchange `json:"conversation"`
}

// Service orchestrates one chat turn: corpus search, pipeline call, store
// write, realtime broadcast, in that fixed order.
type Service struct {
	store       store.Store
	searcher    corpus.Searcher
	pipeline    Responder
	hub         Broadcaster
	searchLimit int
	logger      *log.Logger
}

// NewService wires the shared process-wide dependencies.
func NewService(st store.Store, searcher corpus.Searcher, pipeline Responder, hub Broadcaster, searchLimit int, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if searchLimit <= 0 {
		searchLimit = 4
	}

	return &Service{
		store:       st,
		searcher:    searcher,
		pipeline:    pipeline,
		hub:         hub,
		searchLimit: searchLimit,
		logger:      logger,
	}
}

// RespondInput carries the fields of one POST /api request.
type RespondInput struct {
	Message   string
	Email     string
	Name      string
	SessionID string
	Picture   string
}

// Respond answers one user message: retrieves the nearest corpus passages,
// runs the response pipeline, appends the exchange to the session, and
// broadcasts the updated conversation. Broadcast delivery is best-effort and
// never fails the request.
func (s *Service) Respond(ctx context.Context, in RespondInput) (string, []chat.Exchange, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return "", nil, ErrMessageRequired
	}
	if _, err := uuid.Parse(in.SessionID); err != nil {
		return "", nil, store.ErrInvalidSessionID
	}

	passages, err := s.searcher.Search(ctx, message, s.searchLimit)
	if err != nil {
		return "", nil, fmt.Errorf("corpus search: %w", err)
	}
	contextText := strings.Join(passages, "")

	answer, err := s.pipeline.Respond(ctx, contextText, message)
	if err != nil {
		return "", nil, fmt.Errorf("response pipeline: %w", err)
	}

	// If the write fails here the generated answer is lost; there is no
	// partial-failure recovery.
	exchange := chat.Exchange{UserMessage: message, Response: answer}
	conversation, err := s.store.AppendExchange(ctx, in.Email, in.SessionID, in.Name, in.Picture, exchange)
	if err != nil {
		return "", nil, fmt.Errorf("append exchange: %w", err)
	}

	if s.hub != nil {
		s.hub.Broadcast(realtime.EventChatHistoryUpdate, HistoryUpdate{
			SessionID:    in.SessionID,
			Conversation: conversation,
		})
	}

	s.logger.Printf("[chat] answered session=%s turns=%d", in.SessionID, len(conversation))
	return answer, conversation, nil
}

// History returns the stored conversation. A session that was never written
// is an empty history, not an error.
func (s *Service) History(ctx context.Context, email, sessionID string) ([]chat.Exchange, error) {
	session, err := s.store.GetSession(ctx, email, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return []chat.Exchange{}, nil
		}
		return nil, err
	}

	if session.Conversation == nil {
		return []chat.Exchange{}, nil
	}
	return session.Conversation, nil
}

// NewSession creates a fresh session when requested, otherwise echoes the
// session id the client selected.
func (s *Service) NewSession(ctx context.Context, email string, createNew bool, sessionID string) (string, error) {
	if !createNew {
		return sessionID, nil
	}
	return s.store.CreateSession(ctx, email)
}

// Sessions lists every session id for the email.
func (s *Service) Sessions(ctx context.Context, email string) ([]string, error) {
	return s.store.ListSessionIDs(ctx, email)
}

// Delete removes the session and reports whether it existed.
func (s *Service) Delete(ctx context.Context, email, sessionID string) (bool, error) {
	return s.store.DeleteSession(ctx, email, sessionID)
}
