package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"botgpt/pkg/config"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const systemPrompt = `You are BOT GPT, a helpful and knowledgeable AI assistant.
You provide clear, accurate, and helpful responses to user questions.
You are friendly but professional, and you aim to be concise while being thorough.
If you don't know something, you say so honestly.`

// Client talks to an OpenAI-compatible chat completion API (Groq by
// default). A missing API key is not checked here; it surfaces as a
// request failure on first use.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewClient(cfg *config.Config) *Client {
	apiConfig := openai.DefaultConfig(cfg.GroqAPIKey)
	if cfg.GroqBaseURL != "" {
		apiConfig.BaseURL = cfg.GroqBaseURL
	}
	return &Client{
		api:         openai.NewClientWithConfig(apiConfig),
		model:       cfg.ModelName,
		temperature: cfg.ModelTemperature,
		maxTokens:   cfg.ModelMaxTokens,
	}
}

func (c *Client) buildRequest(userMessage string, history []Turn) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, turn := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userMessage,
	})

	return openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
}

func (c *Client) Generate(ctx context.Context, userMessage string, history []Turn) (*Completion, error) {
	resp, err := c.api.CreateChatCompletion(ctx, c.buildRequest(userMessage, history))
	if err != nil {
		logrus.Errorf("Chat completion request failed: %v", err)
		return nil, fmt.Errorf("chat completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, ErrEmptyCompletion
	}

	return &Completion{
		Content:          resp.Choices[0].Message.Content,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func (c *Client) Stream(ctx context.Context, userMessage string, history []Turn) (<-chan Fragment, error) {
	stream, err := c.api.CreateChatCompletionStream(ctx, c.buildRequest(userMessage, history))
	if err != nil {
		logrus.Errorf("Chat completion stream request failed: %v", err)
		return nil, fmt.Errorf("chat completion stream request failed: %w", err)
	}

	out := make(chan Fragment)
	go func() {
		defer close(out)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				select {
				case out <- Fragment{Err: fmt.Errorf("stream receive failed: %w", err)}:
				case <-ctx.Done():
				}
				return
			}
			// Fragments without a text delta are dropped, not fatal.
			if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
				continue
			}
			select {
			case out <- Fragment{Token: resp.Choices[0].Delta.Content}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
