package domain

import "context"

// LLMClient sends a prompt to a language model and returns the textual
// response. Used for candidate reranking and similarity summarization.
// Implementations must be safe for concurrent use.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (*LLMResponse, error)
	Version() string
}

// LLMResponse carries the LLM output and whether the generation finished.
type LLMResponse struct {
	Text string
	Done bool
}
