package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"botgpt/internal/llm"
	"botgpt/internal/store"

	"github.com/sirupsen/logrus"
)

var ErrConversationNotFound = errors.New("conversation not found")

// FallbackResponse replaces a genuine completion when the inference
// backend fails. The turn still produces a persisted assistant message;
// no retry is attempted.
const FallbackResponse = "Sorry, I encountered an error processing your request. Please try again."

// Service orchestrates one conversational turn: persist the user
// message, assemble the bounded context, call the model, persist the
// reply.
type Service struct {
	store store.Store
	llm   llm.Generator
}

func NewService(st store.Store, generator llm.Generator) *Service {
	return &Service{
		store: st,
		llm:   generator,
	}
}

// Send runs a complete-mode turn and returns the persisted user and
// assistant messages. An inference failure degrades to the fallback
// response; a persistence failure on the user message is fatal to the
// turn.
func (s *Service) Send(ctx context.Context, conversationID, content string) (*store.Message, *store.Message, error) {
	userMsg, prior, err := s.beginTurn(ctx, conversationID, content)
	if err != nil {
		return nil, nil, err
	}

	responseText := FallbackResponse
	tokensUsed := 0
	completion, err := s.llm.Generate(ctx, content, buildWindow(prior))
	if err != nil {
		logrus.Errorf("Inference failed for conversation %s: %v", conversationID, err)
	} else {
		responseText = completion.Content
		tokensUsed = completion.CompletionTokens
		if tokensUsed == 0 {
			tokensUsed = estimateTokens(responseText)
		}
	}

	aiMsg, err := s.store.CreateMessage(ctx, conversationID, store.RoleAssistant, responseText, tokensUsed)
	if err != nil {
		return userMsg, nil, fmt.Errorf("failed to persist assistant message: %w", err)
	}

	return userMsg, aiMsg, nil
}

// SendStream runs a streaming turn. Each text fragment is handed to emit
// as it arrives; once the stream ends the concatenated text is persisted
// as the assistant message. If the stream fails before producing any
// text, the fallback response is emitted and persisted instead. An emit
// failure (client gone) stops delivery and skips the assistant message.
func (s *Service) SendStream(ctx context.Context, conversationID, content string, emit func(token string) error) (*store.Message, *store.Message, error) {
	userMsg, prior, err := s.beginTurn(ctx, conversationID, content)
	if err != nil {
		return nil, nil, err
	}

	var b strings.Builder
	var streamErr error

	fragments, err := s.llm.Stream(ctx, content, buildWindow(prior))
	if err != nil {
		streamErr = err
	} else {
		for fragment := range fragments {
			if fragment.Err != nil {
				streamErr = fragment.Err
				break
			}
			if err := emit(fragment.Token); err != nil {
				return userMsg, nil, fmt.Errorf("fragment delivery failed: %w", err)
			}
			b.WriteString(fragment.Token)
		}
	}

	responseText := b.String()
	if streamErr != nil {
		logrus.Errorf("Inference stream failed for conversation %s: %v", conversationID, streamErr)
	}
	if responseText == "" {
		// Nothing usable arrived; degrade exactly like complete mode.
		responseText = FallbackResponse
		if err := emit(responseText); err != nil {
			return userMsg, nil, fmt.Errorf("fragment delivery failed: %w", err)
		}
	}

	aiMsg, err := s.store.CreateMessage(ctx, conversationID, store.RoleAssistant, responseText, estimateTokens(responseText))
	if err != nil {
		return userMsg, nil, fmt.Errorf("failed to persist assistant message: %w", err)
	}

	return userMsg, aiMsg, nil
}

// beginTurn persists the user message first, unconditionally, so the
// input survives any later failure. It returns the persisted message and
// the prior history with the trigger message filtered out, ready for
// window building.
func (s *Service) beginTurn(ctx context.Context, conversationID, content string) (*store.Message, []store.Message, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if conv == nil {
		return nil, nil, ErrConversationNotFound
	}

	userMsg, err := s.store.CreateMessage(ctx, conversationID, store.RoleUser, content, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to persist user message: %w", err)
	}

	history, err := s.store.GetMessages(ctx, conversationID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load history: %w", err)
	}
	prior := make([]store.Message, 0, len(history))
	for _, msg := range history {
		if msg.ID != userMsg.ID {
			prior = append(prior, msg)
		}
	}

	// The very first message names the conversation, exactly once. A
	// conversation with history but a default title keeps the default.
	if len(prior) == 0 && conv.Title == store.DefaultTitle {
		title := deriveTitle(content)
		if _, err := s.store.UpdateConversation(ctx, conversationID, store.ConversationUpdate{Title: &title}); err != nil {
			logrus.Warnf("Failed to set title for conversation %s: %v", conversationID, err)
		}
	}

	return userMsg, prior, nil
}

// estimateTokens is a rough placeholder in place of real accounting,
// used when the backend does not report usage.
func estimateTokens(text string) int {
	return len(text) / 4
}
