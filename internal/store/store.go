package store

import (
	"context"
	"errors"

	"github.com/blockgpt-labs/blockgpt/server/internal/model/chat"
)

var (
	// ErrSessionNotFound reports a session that was never created in the partition.
	ErrSessionNotFound = errors.New("chat session not found")
	// ErrInvalidSessionID reports an id that does not parse as the store's native id type.
	ErrInvalidSessionID = errors.New("invalid session id")
)

// Store persists conversation sessions, partitioned by user email.
type Store interface {
	// GetSession looks a session up by partition and id. Returns
	// ErrSessionNotFound when it was never created.
	GetSession(ctx context.Context, email, sessionID string) (chat.Session, error)

	// AppendExchange reads the current conversation (empty when absent),
	// appends the exchange, and writes it back together with the display
	// metadata. Upsert semantics: the last writer is authoritative and
	// concurrent appends to the same session may lose turns.
	AppendExchange(ctx context.Context, email, sessionID, name, picture string, exchange chat.Exchange) ([]chat.Exchange, error)

	// CreateSession inserts a new empty session and returns its generated id.
	CreateSession(ctx context.Context, email string) (string, error)

	// ListSessionIDs returns every session id in the partition, in
	// store-defined order.
	ListSessionIDs(ctx context.Context, email string) ([]string, error)

	// DeleteSession removes the session if present and reports whether a
	// deletion occurred.
	DeleteSession(ctx context.Context, email, sessionID string) (bool, error)
}
