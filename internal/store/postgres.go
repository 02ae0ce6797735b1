package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blockgpt-labs/blockgpt/server/internal/model/chat"
)

const partitionPrefix = "user_conversation_"

// undefinedTableCode is the Postgres error for querying a partition that was
// never written. Reads treat it as an empty partition.
const undefinedTableCode = "42P01"

// PostgresStore keeps one table per user email, each row one session document
// with its conversation as JSONB. The raw email is embedded in the quoted
// table identifier; quoting blocks SQL injection but a crafted email can still
// collide with another partition name.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps the shared connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func partitionTable(email string) string {
	return pgx.Identifier{partitionPrefix + email}.Sanitize()
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTableCode
}

func (s *PostgresStore) ensurePartition(ctx context.Context, email string) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		picture TEXT NOT NULL DEFAULT '',
		conversation JSONB NOT NULL DEFAULT '[]'
	)`, partitionTable(email))

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure partition for %s: %w", email, err)
	}
	return nil
}

func (s *PostgresStore) GetSession(ctx context.Context, email, sessionID string) (chat.Session, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return chat.Session{}, ErrInvalidSessionID
	}

	query := fmt.Sprintf("SELECT name, picture, conversation FROM %s WHERE id = $1", partitionTable(email))

	session := chat.Session{ID: id.String()}
	err = s.pool.QueryRow(ctx, query, id).Scan(&session.Name, &session.Picture, &session.Conversation)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isUndefinedTable(err) {
			return chat.Session{}, ErrSessionNotFound
		}
		return chat.Session{}, fmt.Errorf("get session %s: %w", sessionID, err)
	}

	return session, nil
}

func (s *PostgresStore) AppendExchange(ctx context.Context, email, sessionID, name, picture string, exchange chat.Exchange) ([]chat.Exchange, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, ErrInvalidSessionID
	}

	if err := s.ensurePartition(ctx, email); err != nil {
		return nil, err
	}

	table := partitionTable(email)

	// Read-append-write with no transaction spanning the two statements:
	// concurrent appends to the same session race, last writer wins.
	var conversation []chat.Exchange
	query := fmt.Sprintf("SELECT conversation FROM %s WHERE id = $1", table)
	if err := s.pool.QueryRow(ctx, query, id).Scan(&conversation); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("read conversation %s: %w", sessionID, err)
		}
	}

	conversation = append(conversation, exchange)

	upsert := fmt.Sprintf(`INSERT INTO %s (id, name, picture, conversation)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, picture = EXCLUDED.picture, conversation = EXCLUDED.conversation`, table)

	if _, err := s.pool.Exec(ctx, upsert, id, name, picture, conversation); err != nil {
		return nil, fmt.Errorf("upsert session %s: %w", sessionID, err)
	}

	return conversation, nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, email string) (string, error) {
	if err := s.ensurePartition(ctx, email); err != nil {
		return "", err
	}

	id := uuid.New()
	query := fmt.Sprintf("INSERT INTO %s (id) VALUES ($1)", partitionTable(email))
	if _, err := s.pool.Exec(ctx, query, id); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	return id.String(), nil
}

func (s *PostgresStore) ListSessionIDs(ctx context.Context, email string) ([]string, error) {
	query := fmt.Sprintf("SELECT id FROM %s", partitionTable(email))

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		if isUndefinedTable(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id.String())
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("list sessions: %w", rows.Err())
	}

	return ids, nil
}

func (s *PostgresStore) DeleteSession(ctx context.Context, email, sessionID string) (bool, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return false, ErrInvalidSessionID
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", partitionTable(email))
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		if isUndefinedTable(err) {
			return false, nil
		}
		return false, fmt.Errorf("delete session %s: %w", sessionID, err)
	}

	return tag.RowsAffected() > 0, nil
}

var _ Store = (*PostgresStore)(nil)
