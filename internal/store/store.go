package store

import (
	"context"
	"errors"
)

var ErrConversationNotFound = errors.New("conversation not found")

// Store is the durable record of users, conversations and messages.
// Lookups return (nil, nil) when the row does not exist; only genuine
// persistence failures are returned as errors.
type Store interface {
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, email string) (*User, error)

	GetConversation(ctx context.Context, id string) (*Conversation, error)
	ListConversations(ctx context.Context, userID int64) ([]Conversation, error)
	CreateConversation(ctx context.Context, userID int64, mode string) (*Conversation, error)
	UpdateConversation(ctx context.Context, id string, update ConversationUpdate) (*Conversation, error)
	DeleteConversation(ctx context.Context, id string) error

	GetMessages(ctx context.Context, conversationID string) ([]Message, error)
	CreateMessage(ctx context.Context, conversationID, role, content string, tokensUsed int) (*Message, error)
	DeleteMessages(ctx context.Context, conversationID string) error

	Close() error
}
