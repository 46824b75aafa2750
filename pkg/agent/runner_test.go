package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvid/lumen/internal/metrics"
	"github.com/arvid/lumen/pkg/telemetry"
)

// fakeStream replays a fixed chunk sequence. err, when set, is surfaced from
// Err after the chunks are exhausted, mimicking a mid-stream failure.
type fakeStream struct {
	chunks   []string
	usage    *TokenUsage
	err      error
	interval time.Duration

	idx     int
	current Chunk
	closed  bool
}

func (s *fakeStream) Next() bool {
	if s.idx >= len(s.chunks) {
		return false
	}
	if s.interval > 0 {
		time.Sleep(s.interval)
	}
	s.current = Chunk{Text: s.chunks[s.idx]}
	s.idx++
	return true
}

func (s *fakeStream) Current() Chunk    { return s.current }
func (s *fakeStream) Err() error        { return s.err }
func (s *fakeStream) Usage() *TokenUsage { return s.usage }
func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

type fakeProvider struct {
	stream  *fakeStream
	openErr error
}

func (p *fakeProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	if p.openErr != nil {
		return nil, p.openErr
	}
	return p.stream, nil
}

func (p *fakeProvider) Name() string { return "fake" }

type fakeFactory struct {
	provider StreamingProvider
}

func (f *fakeFactory) NewProvider(name, apiKey string) (StreamingProvider, error) {
	return f.provider, nil
}

func setupRun(t *testing.T, stream *fakeStream) (*Runner, *Agent, *telemetry.Store) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "runner-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)

	store := telemetry.NewStore(filepath.Join(tmpDir, "runs.csv"), logger)
	require.NoError(t, store.Initialize())

	runner, err := NewRunner(RunnerConfig{Store: store, Logger: logger})
	require.NoError(t, err)

	builder := NewBuilder(BuilderConfig{
		Credentials:     Credentials{AnthropicAPIKey: "test-key"},
		Logger:          logger,
		ProviderFactory: &fakeFactory{provider: &fakeProvider{stream: stream}},
	})
	ag, err := builder.Build(AgentConfig{Name: "bench", Model: "anthropic/m1", Temperature: 0.7}, "")
	require.NoError(t, err)

	return runner, ag, store
}

func TestNewRunner(t *testing.T) {
	t.Run("should require a telemetry store", func(t *testing.T) {
		_, err := NewRunner(RunnerConfig{Logger: zerolog.Nop()})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "store")
	})

	t.Run("should count skipped telemetry rows through metrics", func(t *testing.T) {
		tmpDir := t.TempDir()
		logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
		path := filepath.Join(tmpDir, "runs.csv")

		store := telemetry.NewStore(path, logger)
		require.NoError(t, store.Initialize())

		m := metrics.NewMetrics()
		_, err := NewRunner(RunnerConfig{Store: store, Logger: logger, Metrics: m})
		require.NoError(t, err)

		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		require.NoError(t, err)
		_, err = f.WriteString("truncated,row\n")
		require.NoError(t, err)
		require.NoError(t, f.Close())

		_, err = store.LoadRecent(10)
		require.NoError(t, err)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.TelemetryRowsSkippedTotal))
	})
}

func TestRun(t *testing.T) {
	t.Run("should stream to completion and record the run", func(t *testing.T) {
		stream := &fakeStream{
			chunks: []string{"Hel", "lo"},
			usage:  &TokenUsage{PromptTokens: 5, CompletionTokens: 2},
		}
		runner, ag, store := setupRun(t, stream)

		var deltas []string
		result, err := runner.Run(context.Background(), ag, "hi", RunOptions{
			OnDelta: func(d string) { deltas = append(deltas, d) },
		})

		require.NoError(t, err)
		assert.Equal(t, "Hello", result.Text)
		assert.False(t, result.Aborted)
		require.NotNil(t, result.Usage)
		assert.Equal(t, 7, result.Usage.Total())
		assert.Equal(t, []string{"Hel", "lo"}, deltas)

		records, err := store.LoadRecent(10)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "bench", records[0].AgentName)
		assert.Equal(t, "m1", records[0].Model)
		assert.Equal(t, 7, records[0].TotalTokens)
		assert.True(t, records[0].Streaming)
		assert.False(t, records[0].Aborted)
	})

	t.Run("should stop at the cancel signal with exactly the delivered chunks", func(t *testing.T) {
		chunks := make([]string, 20)
		for i := range chunks {
			chunks[i] = fmt.Sprintf("c%d ", i)
		}
		stream := &fakeStream{chunks: chunks}
		runner, ag, store := setupRun(t, stream)

		cancel := NewCancelSignal()
		delivered := 0
		result, err := runner.Run(context.Background(), ag, "hi", RunOptions{
			Cancel: cancel,
			OnDelta: func(d string) {
				delivered++
				if delivered == 3 {
					cancel.Cancel()
				}
			},
		})

		require.NoError(t, err)
		assert.True(t, result.Aborted)
		assert.Equal(t, "c0 c1 c2 ", result.Text)
		assert.Equal(t, 3, delivered)
		assert.Equal(t, 3, stream.idx)
		assert.True(t, stream.closed)

		records, err := store.LoadRecent(10)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.True(t, records[0].Aborted)
	})

	t.Run("should skip aborted runs when the policy says so", func(t *testing.T) {
		stream := &fakeStream{chunks: []string{"a", "b", "c"}}
		_, ag, store := setupRun(t, stream)

		runner, err := NewRunner(RunnerConfig{
			Store:              store,
			Logger:             zerolog.Nop(),
			SkipAbortedAppends: true,
		})
		require.NoError(t, err)

		cancel := NewCancelSignal()
		cancel.Cancel()
		result, err := runner.Run(context.Background(), ag, "hi", RunOptions{Cancel: cancel})

		require.NoError(t, err)
		assert.True(t, result.Aborted)
		assert.Empty(t, result.Text)

		records, err := store.LoadRecent(10)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("should wrap a mid-stream failure in ExecutionError with the partial text", func(t *testing.T) {
		stream := &fakeStream{
			chunks: []string{"par", "tial"},
			err:    errors.New("connection reset"),
		}
		runner, ag, store := setupRun(t, stream)

		result, err := runner.Run(context.Background(), ag, "hi", RunOptions{})

		require.Error(t, err)
		var execErr *ExecutionError
		require.ErrorAs(t, err, &execErr)
		assert.Equal(t, "partial", execErr.Partial)
		assert.ErrorContains(t, execErr, "connection reset")

		assert.True(t, result.Aborted)
		assert.Equal(t, "partial", result.Text)

		records, err := store.LoadRecent(10)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.True(t, records[0].Aborted)
	})

	t.Run("should wrap a stream open failure", func(t *testing.T) {
		runner, _, _ := setupRun(t, &fakeStream{})

		builder := NewBuilder(BuilderConfig{
			Credentials:     Credentials{AnthropicAPIKey: "test-key"},
			Logger:          zerolog.Nop(),
			ProviderFactory: &fakeFactory{provider: &fakeProvider{openErr: errors.New("dial tcp: refused")}},
		})
		ag, err := builder.Build(AgentConfig{Name: "bench", Model: "anthropic/m1"}, "")
		require.NoError(t, err)

		result, err := runner.Run(context.Background(), ag, "hi", RunOptions{})

		var execErr *ExecutionError
		require.ErrorAs(t, err, &execErr)
		assert.Empty(t, execErr.Partial)
		assert.True(t, result.Aborted)
		assert.Empty(t, result.Text)
	})

	t.Run("should not fail the run when the telemetry append fails", func(t *testing.T) {
		stream := &fakeStream{
			chunks: []string{"Hel", "lo"},
			usage:  &TokenUsage{PromptTokens: 5, CompletionTokens: 2},
		}
		_, ag, _ := setupRun(t, stream)

		// A store rooted under a regular file cannot create its directory.
		tmpDir, err := os.MkdirTemp("", "runner-badstore-*")
		require.NoError(t, err)
		t.Cleanup(func() { os.RemoveAll(tmpDir) })
		blocker := filepath.Join(tmpDir, "blocker")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

		badStore := telemetry.NewStore(filepath.Join(blocker, "runs.csv"), zerolog.Nop())
		runner, err := NewRunner(RunnerConfig{Store: badStore, Logger: zerolog.Nop()})
		require.NoError(t, err)

		result, err := runner.Run(context.Background(), ag, "hi", RunOptions{})

		require.NoError(t, err)
		assert.Equal(t, "Hello", result.Text)
		assert.False(t, result.Aborted)
	})

	t.Run("should keep zero tokens when usage is missing despite text", func(t *testing.T) {
		stream := &fakeStream{chunks: []string{"some text"}}
		runner, ag, store := setupRun(t, stream)

		result, err := runner.Run(context.Background(), ag, "hi", RunOptions{})

		require.NoError(t, err)
		assert.Equal(t, "some text", result.Text)
		assert.Nil(t, result.Usage)

		records, err := store.LoadRecent(1)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Zero(t, records[0].TotalTokens)
	})

	t.Run("should record the model list source", func(t *testing.T) {
		stream := &fakeStream{chunks: []string{"ok"}}
		runner, ag, store := setupRun(t, stream)

		_, err := runner.Run(context.Background(), ag, "hi", RunOptions{
			ModelListSource: telemetry.SourceDynamic,
			ExperimentID:    "exp-7",
			TaskLabel:       "summarize",
		})
		require.NoError(t, err)

		records, err := store.LoadRecent(1)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, telemetry.SourceDynamic, records[0].ModelListSource)
		assert.Equal(t, "exp-7", records[0].ExperimentID)
		assert.Equal(t, "summarize", records[0].TaskLabel)
	})
}
