package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

//go:embed schema.sql
var schema embed.FS

type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) (*PostgresStore, error) {
	s := &PostgresStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) initSchema() error {
	schemaSQL, err := schema.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}
	if _, err := s.db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id int64) (*User, error) {
	query := `
		SELECT id, email, created_at
		FROM users
		WHERE id = $1
	`
	var user User
	err := s.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, created_at
		FROM users
		WHERE email = $1
	`
	var user User
	err := s.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, email string) (*User, error) {
	query := `
		INSERT INTO users (email)
		VALUES ($1)
		RETURNING id, email, created_at
	`
	var user User
	err := s.db.GetContext(ctx, &user, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

func (s *PostgresStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	query := `
		SELECT id, user_id, mode, title, created_at, updated_at
		FROM conversations
		WHERE id = $1
	`
	var conv Conversation
	err := s.db.GetContext(ctx, &conv, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

func (s *PostgresStore) ListConversations(ctx context.Context, userID int64) ([]Conversation, error) {
	query := `
		SELECT id, user_id, mode, title, created_at, updated_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`
	var convs []Conversation
	err := s.db.SelectContext(ctx, &convs, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return convs, nil
}

func (s *PostgresStore) CreateConversation(ctx context.Context, userID int64, mode string) (*Conversation, error) {
	if mode == "" {
		mode = ModeOpen
	}
	query := `
		INSERT INTO conversations (id, user_id, mode, title)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, mode, title, created_at, updated_at
	`
	var conv Conversation
	err := s.db.GetContext(ctx, &conv, query, uuid.NewString(), userID, mode, DefaultTitle)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return &conv, nil
}

func (s *PostgresStore) UpdateConversation(ctx context.Context, id string, update ConversationUpdate) (*Conversation, error) {
	query := `
		UPDATE conversations
		SET title = COALESCE($2, title),
		    mode = COALESCE($3, mode),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, user_id, mode, title, created_at, updated_at
	`
	var conv Conversation
	err := s.db.GetContext(ctx, &conv, query, id, update.Title, update.Mode)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}
	return &conv, nil
}

func (s *PostgresStore) DeleteConversation(ctx context.Context, id string) error {
	// Messages go with it via the ON DELETE CASCADE foreign key.
	result, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrConversationNotFound
	}
	return nil
}

func (s *PostgresStore) GetMessages(ctx context.Context, conversationID string) ([]Message, error) {
	query := `
		SELECT id, conversation_id, role, content, tokens_used, timestamp
		FROM messages
		WHERE conversation_id = $1
		ORDER BY timestamp ASC
	`
	var messages []Message
	err := s.db.SelectContext(ctx, &messages, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	return messages, nil
}

func (s *PostgresStore) CreateMessage(ctx context.Context, conversationID, role, content string, tokensUsed int) (*Message, error) {
	query := `
		INSERT INTO messages (id, conversation_id, role, content, tokens_used)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, conversation_id, role, content, tokens_used, timestamp
	`
	var msg Message
	err := s.db.GetContext(ctx, &msg, query, uuid.NewString(), conversationID, role, content, tokensUsed)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	// Every new message bumps the conversation's updated_at so listings
	// surface the most recently active conversation first.
	_, err = s.db.ExecContext(ctx, `UPDATE conversations SET updated_at = NOW() WHERE id = $1`, conversationID)
	if err != nil {
		logrus.Errorf("Failed to bump updated_at for conversation %s: %v", conversationID, err)
	}

	return &msg, nil
}

func (s *PostgresStore) DeleteMessages(ctx context.Context, conversationID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = $1`, conversationID)
	if err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
