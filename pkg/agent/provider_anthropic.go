package agent

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

// AnthropicProvider implements StreamingProvider for Anthropic Claude.
type AnthropicProvider struct {
	client anthropic.Client
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(apiKey string) *AnthropicProvider {
	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}
}

// Name returns the provider name.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Stream opens a streamed message generation.
func (p *AnthropicProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserMessage)),
		},
	}

	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if req.TopP > 0 {
		params.TopP = anthropic.Float(req.TopP)
	}

	return &anthropicStream{
		inner: p.client.Messages.NewStreaming(ctx, params),
	}, nil
}

// anthropicStream adapts the SDK event stream to the text-chunk Stream.
// Usage arrives out-of-band: input tokens on the message_start frame, output
// tokens on the final message_delta frame.
type anthropicStream struct {
	inner    *ssestream.Stream[anthropic.MessageStreamEventUnion]
	current  Chunk
	usage    TokenUsage
	sawUsage bool
}

func (s *anthropicStream) Next() bool {
	for s.inner.Next() {
		event := s.inner.Current()
		switch ev := event.AsAny().(type) {
		case anthropic.MessageStartEvent:
			s.usage.PromptTokens = int(ev.Message.Usage.InputTokens)
			s.sawUsage = true
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok {
				s.current = Chunk{Text: delta.Text}
				return true
			}
		case anthropic.MessageDeltaEvent:
			s.usage.CompletionTokens = int(ev.Usage.OutputTokens)
			s.sawUsage = true
		}
	}
	return false
}

func (s *anthropicStream) Current() Chunk {
	return s.current
}

func (s *anthropicStream) Err() error {
	return s.inner.Err()
}

func (s *anthropicStream) Usage() *TokenUsage {
	if !s.sawUsage {
		return nil
	}
	u := s.usage
	return &u
}

func (s *anthropicStream) Close() error {
	return s.inner.Close()
}
