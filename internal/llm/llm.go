package llm

import (
	"context"
	"errors"
)

var ErrEmptyCompletion = errors.New("inference backend returned an empty completion")

// Turn is one prior exchange handed to the model as context.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is the result of a complete-mode request.
type Completion struct {
	Content          string
	CompletionTokens int
}

// Fragment is one element of a streamed completion. A Fragment carries
// either a token of text or the error that ended the stream early; the
// channel closing is the end-of-stream marker.
type Fragment struct {
	Token string
	Err   error
}

// Generator produces completions for a user message plus its trailing
// context, either as one string or as a fragment stream.
type Generator interface {
	Generate(ctx context.Context, userMessage string, history []Turn) (*Completion, error)
	Stream(ctx context.Context, userMessage string, history []Turn) (<-chan Fragment, error)
}
