// Package llm talks to chat-completion models.
package llm

import "context"

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// DeltaFunc receives each piece of streamed content as it arrives.
type DeltaFunc func(delta string)

// Streamer is a Provider that can deliver content incrementally. The
// returned response holds the full content once the stream ends.
type Streamer interface {
	Provider
	Stream(ctx context.Context, req CompletionRequest, onDelta DeltaFunc) (*CompletionResponse, error)
}

// Stream uses p's streaming API when it has one. Otherwise it completes the
// request and delivers the whole content as a single delta.
func Stream(ctx context.Context, p Provider, req CompletionRequest, onDelta DeltaFunc) (*CompletionResponse, error) {
	if s, ok := p.(Streamer); ok {
		return s.Stream(ctx, req, onDelta)
	}
	resp, err := p.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if onDelta != nil && resp.Content != "" {
		onDelta(resp.Content)
	}
	return resp, nil
}

// Role names the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat prompt.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest is a provider-neutral chat request. A zero MaxTokens
// leaves the limit to the provider.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// CompletionResponse carries the generated text and token usage.
type CompletionResponse struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
	FinishReason string
}
