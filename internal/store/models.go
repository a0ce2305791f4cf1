package store

import "time"

const (
	ModeOpen = "open"
	ModeRAG  = "rag"

	RoleUser      = "user"
	RoleAssistant = "assistant"

	DefaultTitle = "New Conversation"
)

type User struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Conversation struct {
	ID        string    `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Mode      string    `db:"mode" json:"mode"`
	Title     string    `db:"title" json:"title"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Message struct {
	ID             string    `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	Role           string    `db:"role" json:"role"`
	Content        string    `db:"content" json:"content"`
	TokensUsed     int       `db:"tokens_used" json:"tokens_used"`
	Timestamp      time.Time `db:"timestamp" json:"timestamp"`
}

// ConversationUpdate carries the mutable conversation fields. Nil fields are
// left untouched; updated_at is always bumped.
type ConversationUpdate struct {
	Title *string
	Mode  *string
}
