package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by tests and for running the
// server without a database (USE_IN_MEMORY=true).
type MemoryStore struct {
	mu            sync.RWMutex
	nextUserID    int64
	users         map[int64]*User
	conversations map[string]*Conversation
	messages      map[string][]Message

	// rev orders conversations with equal updated_at timestamps so
	// listings stay deterministic even within one clock tick.
	rev     map[string]uint64
	nextRev uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[int64]*User),
		conversations: make(map[string]*Conversation),
		messages:      make(map[string][]Message),
		rev:           make(map[string]uint64),
	}
}

func (s *MemoryStore) GetUser(ctx context.Context, id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextUserID++
	user := &User{
		ID:        s.nextUserID,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	s.users[user.ID] = user
	copied := *user
	return &copied, nil
}

func (s *MemoryStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, nil
	}
	copied := *conv
	return &copied, nil
}

func (s *MemoryStore) ListConversations(ctx context.Context, userID int64) ([]Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Conversation
	for _, conv := range s.conversations {
		if conv.UserID == userID {
			out = append(out, *conv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return s.rev[out[i].ID] > s.rev[out[j].ID]
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *MemoryStore) CreateConversation(ctx context.Context, userID int64, mode string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mode == "" {
		mode = ModeOpen
	}
	now := time.Now().UTC()
	conv := &Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Mode:      mode,
		Title:     DefaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.conversations[conv.ID] = conv
	s.touchLocked(conv.ID)
	copied := *conv
	return &copied, nil
}

func (s *MemoryStore) UpdateConversation(ctx context.Context, id string, update ConversationUpdate) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	if update.Title != nil {
		conv.Title = *update.Title
	}
	if update.Mode != nil {
		conv.Mode = *update.Mode
	}
	conv.UpdatedAt = time.Now().UTC()
	s.touchLocked(id)
	copied := *conv
	return &copied, nil
}

func (s *MemoryStore) DeleteConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return ErrConversationNotFound
	}
	delete(s.conversations, id)
	delete(s.rev, id)
	// Manual cascade: no foreign keys here.
	delete(s.messages, id)
	return nil
}

func (s *MemoryStore) GetMessages(ctx context.Context, conversationID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[conversationID]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MemoryStore) CreateMessage(ctx context.Context, conversationID, role, content string, tokensUsed int) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		TokensUsed:     tokensUsed,
		Timestamp:      time.Now().UTC(),
	}
	s.messages[conversationID] = append(s.messages[conversationID], msg)

	if conv, ok := s.conversations[conversationID]; ok {
		conv.UpdatedAt = msg.Timestamp
		s.touchLocked(conversationID)
	}

	copied := msg
	return &copied, nil
}

func (s *MemoryStore) DeleteMessages(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.messages, conversationID)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) touchLocked(conversationID string) {
	s.nextRev++
	s.rev[conversationID] = s.nextRev
}
