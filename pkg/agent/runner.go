package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/arvid/lumen/internal/metrics"
	"github.com/arvid/lumen/pkg/pricing"
	"github.com/arvid/lumen/pkg/telemetry"
)

// Runner drives one conversational turn per call: it streams the generation,
// forwards deltas, polls the cancel signal between chunks, and finalizes a
// RunRecord into the telemetry store whatever the outcome.
type Runner struct {
	store   *telemetry.Store
	logger  zerolog.Logger
	metrics *metrics.Metrics

	skipAbortedAppends bool
}

// RunnerConfig holds runner configuration.
type RunnerConfig struct {
	Store  *telemetry.Store
	Logger zerolog.Logger

	// Metrics is optional; nil disables instrumentation.
	Metrics *metrics.Metrics

	// SkipAbortedAppends drops cancelled runs from telemetry. The default
	// records them with the aborted flag set, which keeps the log auditable.
	SkipAbortedAppends bool
}

// NewRunner creates a run orchestrator.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("telemetry store is required")
	}
	if cfg.Metrics != nil {
		cfg.Store.SetSkipHook(cfg.Metrics.TelemetryRowsSkippedTotal.Inc)
	}
	return &Runner{
		store:              cfg.Store,
		logger:             cfg.Logger.With().Str("module", "runner").Logger(),
		metrics:            cfg.Metrics,
		skipAbortedAppends: cfg.SkipAbortedAppends,
	}, nil
}

// RunOptions carries per-turn extras: the delta subscription, the cancel
// signal, and the free-text tags copied into the RunRecord.
type RunOptions struct {
	// OnDelta receives each text fragment in provider order. Optional.
	OnDelta func(delta string)

	// Cancel is polled before each delta is forwarded. Nil means the run
	// cannot be cancelled.
	Cancel *CancelSignal

	ExperimentID string
	TaskLabel    string
	RunNotes     string

	// ModelListSource records where the model selector list came from at
	// build time. Defaults to fallback when unset.
	ModelListSource telemetry.ModelListSource
}

// Run executes one turn. Cancellation and provider failures both produce a
// well-formed RunResult with Aborted set; only provider failures additionally
// return an ExecutionError carrying the partial text. Telemetry append
// failures are logged and never alter the result.
func (r *Runner) Run(ctx context.Context, ag *Agent, userMessage string, opts RunOptions) (RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	runID, err := gonanoid.New()
	if err != nil {
		runID = ag.ID
	}
	logger := r.logger.With().
		Str("run_id", runID).
		Str("agent_name", ag.Config.Name).
		Str("model", ag.Model).
		Logger()

	if ag.webTracker != nil {
		ag.webTracker.Reset()
	}

	start := time.Now()
	logger.Debug().Msg("Run started")

	stream, err := ag.provider.Stream(ctx, Request{
		Model:        ag.Model,
		SystemPrompt: ag.Config.SystemPrompt,
		UserMessage:  userMessage,
		Temperature:  ag.Config.Temperature,
		TopP:         ag.Config.TopP,
		MaxTokens:    ag.Config.maxTokens(),
	})
	if err != nil {
		return r.finalizeError(logger, ag, opts, start, "", err)
	}
	defer func() { _ = stream.Close() }()

	var buf strings.Builder
	aborted := false
	for {
		if opts.Cancel.Cancelled() {
			aborted = true
			break
		}
		if !stream.Next() {
			break
		}
		chunk := stream.Current()
		buf.WriteString(chunk.Text)
		if opts.OnDelta != nil {
			opts.OnDelta(chunk.Text)
		}
	}

	if !aborted {
		if err := stream.Err(); err != nil {
			return r.finalizeError(logger, ag, opts, start, buf.String(), err)
		}
	}

	result := RunResult{
		Text:      buf.String(),
		Usage:     stream.Usage(),
		LatencyMs: time.Since(start).Milliseconds(),
		Aborted:   aborted,
	}

	r.record(logger, ag, opts, result)
	r.observe(ag, result, statusOf(aborted))

	logger.Info().
		Bool("aborted", aborted).
		Int64("latency_ms", result.LatencyMs).
		Int("chars", len(result.Text)).
		Msg("Run finished")

	return result, nil
}

func statusOf(aborted bool) string {
	if aborted {
		return "aborted"
	}
	return "completed"
}

// finalizeError converts a provider failure into an aborted result plus an
// ExecutionError. The partial text is preserved in both.
func (r *Runner) finalizeError(logger zerolog.Logger, ag *Agent, opts RunOptions, start time.Time, partial string, cause error) (RunResult, error) {
	result := RunResult{
		Text:      partial,
		LatencyMs: time.Since(start).Milliseconds(),
		Aborted:   true,
	}

	r.record(logger, ag, opts, result)
	r.observe(ag, result, "error")

	logger.Error().Err(cause).Int("partial_chars", len(partial)).Msg("Provider stream failed")

	return result, &ExecutionError{Partial: partial, Err: cause}
}

// record assembles the RunRecord and hands it to the store. Append failures
// are logged and swallowed here; telemetry loss must not fail the turn.
func (r *Runner) record(logger zerolog.Logger, ag *Agent, opts RunOptions, result RunResult) {
	if result.Aborted && r.skipAbortedAppends {
		logger.Debug().Msg("Aborted run not recorded by policy")
		return
	}

	var promptTokens, completionTokens int
	if result.Usage != nil {
		promptTokens = result.Usage.PromptTokens
		completionTokens = result.Usage.CompletionTokens
	}

	source := opts.ModelListSource
	if source == "" {
		source = telemetry.SourceFallback
	}

	rec := telemetry.RunRecord{
		Timestamp:        time.Now(),
		AgentName:        ag.Config.Name,
		Model:            ag.Model,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
		LatencyMs:        result.LatencyMs,
		CostUSD:          pricing.Cost(ag.Model, promptTokens, completionTokens),
		ExperimentID:     opts.ExperimentID,
		TaskLabel:        opts.TaskLabel,
		RunNotes:         opts.RunNotes,
		Streaming:        true,
		ModelListSource:  source,
		ToolWebEnabled:   ag.webEnabled,
		WebStatus:        telemetry.WebStatus(ag.WebStatus()),
		Aborted:          result.Aborted,
	}

	if r.metrics != nil && rec.CostUSD > 0 {
		r.metrics.CostTotal.WithLabelValues(ag.Config.Name).Add(rec.CostUSD)
	}

	if err := r.store.Append(rec); err != nil {
		logger.Warn().Err(err).Msg("Telemetry append failed")
		if r.metrics != nil {
			r.metrics.TelemetryAppendErrorsTotal.Inc()
		}
	}
}

func (r *Runner) observe(ag *Agent, result RunResult, status string) {
	if r.metrics == nil {
		return
	}
	r.metrics.RunsTotal.WithLabelValues(ag.Config.Name, status).Inc()
	r.metrics.RunDuration.WithLabelValues(ag.Config.Name).Observe(float64(result.LatencyMs) / 1000)
	if result.Usage != nil {
		r.metrics.TokensTotal.WithLabelValues(ag.Config.Name, "prompt").Add(float64(result.Usage.PromptTokens))
		r.metrics.TokensTotal.WithLabelValues(ag.Config.Name, "completion").Add(float64(result.Usage.CompletionTokens))
	}
}
