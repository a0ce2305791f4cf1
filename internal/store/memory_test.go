package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, s *MemoryStore) *User {
	t.Helper()
	user, err := s.CreateUser(context.Background(), "demo@botgpt.ai")
	require.NoError(t, err)
	return user
}

func TestUserLookup(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	user := seedUser(t, s)
	assert.Equal(t, int64(1), user.ID)

	byID, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "demo@botgpt.ai", byID.Email)

	byEmail, err := s.GetUserByEmail(ctx, "demo@botgpt.ai")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, user.ID, byEmail.ID)

	// Absence is not an error.
	missing, err := s.GetUserByEmail(ctx, "nobody@botgpt.ai")
	require.NoError(t, err)
	assert.Nil(t, missing)

	missingByID, err := s.GetUser(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missingByID)
}

func TestCreateConversationDefaults(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	user := seedUser(t, s)

	conv, err := s.CreateConversation(ctx, user.ID, "")
	require.NoError(t, err)
	assert.Equal(t, ModeOpen, conv.Mode)
	assert.Equal(t, DefaultTitle, conv.Title)
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, user.ID, conv.UserID)
}

func TestListConversationsOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	user := seedUser(t, s)

	first, err := s.CreateConversation(ctx, user.ID, ModeOpen)
	require.NoError(t, err)
	second, err := s.CreateConversation(ctx, user.ID, ModeOpen)
	require.NoError(t, err)

	// A new message on the older conversation moves it to the front.
	_, err = s.CreateMessage(ctx, first.ID, RoleUser, "hello again", 0)
	require.NoError(t, err)

	convs, err := s.ListConversations(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, first.ID, convs[0].ID)
	assert.Equal(t, second.ID, convs[1].ID)
}

func TestUpdateConversationBumpsUpdatedAt(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	user := seedUser(t, s)

	conv, err := s.CreateConversation(ctx, user.ID, ModeOpen)
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)

	title := "Renamed"
	updated, err := s.UpdateConversation(ctx, conv.ID, ConversationUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, conv.Mode, updated.Mode)
	assert.True(t, updated.UpdatedAt.After(conv.UpdatedAt))

	_, err = s.UpdateConversation(ctx, "no-such-id", ConversationUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestMessagesOrderedByTimestamp(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	user := seedUser(t, s)

	conv, err := s.CreateConversation(ctx, user.ID, ModeOpen)
	require.NoError(t, err)

	for _, content := range []string{"one", "two", "three"} {
		_, err := s.CreateMessage(ctx, conv.ID, RoleUser, content, 0)
		require.NoError(t, err)
	}

	msgs, err := s.GetMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "two", msgs[1].Content)
	assert.Equal(t, "three", msgs[2].Content)
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].Timestamp.Before(msgs[i-1].Timestamp))
	}
}

func TestCreateMessageBumpsConversation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	user := seedUser(t, s)

	conv, err := s.CreateConversation(ctx, user.ID, ModeOpen)
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)

	_, err = s.CreateMessage(ctx, conv.ID, RoleUser, "hello", 0)
	require.NoError(t, err)

	reloaded, err := s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.True(t, reloaded.UpdatedAt.After(conv.UpdatedAt))
}

func TestDeleteConversationCascades(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	user := seedUser(t, s)

	conv, err := s.CreateConversation(ctx, user.ID, ModeOpen)
	require.NoError(t, err)
	_, err = s.CreateMessage(ctx, conv.ID, RoleUser, "hello", 0)
	require.NoError(t, err)
	_, err = s.CreateMessage(ctx, conv.ID, RoleAssistant, "hi there", 3)
	require.NoError(t, err)

	require.NoError(t, s.DeleteConversation(ctx, conv.ID))

	gone, err := s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	msgs, err := s.GetMessages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	assert.ErrorIs(t, s.DeleteConversation(ctx, conv.ID), ErrConversationNotFound)
}

func TestDeleteMessages(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	user := seedUser(t, s)

	conv, err := s.CreateConversation(ctx, user.ID, ModeOpen)
	require.NoError(t, err)
	_, err = s.CreateMessage(ctx, conv.ID, RoleUser, "hello", 0)
	require.NoError(t, err)

	require.NoError(t, s.DeleteMessages(ctx, conv.ID))

	msgs, err := s.GetMessages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	// The conversation itself survives.
	still, err := s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.NotNil(t, still)
}
