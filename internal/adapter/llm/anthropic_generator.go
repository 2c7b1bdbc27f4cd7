package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"ticket-dedup/internal/domain"
)

// AnthropicGenerator implements domain.LLMClient against the Anthropic
// Messages API. Used when DEDUP_LLM_PROVIDER=anthropic.
type AnthropicGenerator struct {
	client anthropic.Client
	model  string
}

func NewAnthropicGenerator(apiKey, model string) *AnthropicGenerator {
	return &AnthropicGenerator{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (*domain.LLMResponse, error) {
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	message, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return &domain.LLMResponse{
				Text: strings.TrimSpace(block.Text),
				Done: true,
			}, nil
		}
	}
	return nil, fmt.Errorf("no text content in anthropic response")
}

func (g *AnthropicGenerator) Version() string {
	return g.model
}

var _ domain.LLMClient = (*AnthropicGenerator)(nil)
