package agent

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
)

// OpenAIProvider implements StreamingProvider for OpenAI chat models.
type OpenAIProvider struct {
	client openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Stream opens a streamed chat completion. IncludeUsage makes the API send a
// trailing chunk carrying the token counts.
func (p *OpenAIProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.UserMessage))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}

	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.TopP > 0 {
		params.TopP = openai.Float(req.TopP)
	}

	return &openaiStream{
		inner: p.client.Chat.Completions.NewStreaming(ctx, params),
	}, nil
}

// openaiStream adapts the SDK chunk stream to the text-chunk Stream. The
// accumulator collects the usage block from the trailing chunk.
type openaiStream struct {
	inner   *ssestream.Stream[openai.ChatCompletionChunk]
	acc     openai.ChatCompletionAccumulator
	current Chunk
}

func (s *openaiStream) Next() bool {
	for s.inner.Next() {
		chunk := s.inner.Current()
		s.acc.AddChunk(chunk)
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			s.current = Chunk{Text: chunk.Choices[0].Delta.Content}
			return true
		}
	}
	return false
}

func (s *openaiStream) Current() Chunk {
	return s.current
}

func (s *openaiStream) Err() error {
	return s.inner.Err()
}

func (s *openaiStream) Usage() *TokenUsage {
	if s.acc.Usage.TotalTokens == 0 {
		return nil
	}
	return &TokenUsage{
		PromptTokens:     int(s.acc.Usage.PromptTokens),
		CompletionTokens: int(s.acc.Usage.CompletionTokens),
	}
}

func (s *openaiStream) Close() error {
	return s.inner.Close()
}
